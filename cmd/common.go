package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/illarion/ramvault/internal/config"
	"github.com/illarion/ramvault/internal/core"
	"github.com/illarion/ramvault/internal/crypto"
	"github.com/illarion/ramvault/internal/keyring"
)

// PasswordSource tells where a vault password came from
type PasswordSource int

const (
	SourceEnv PasswordSource = iota
	SourceKeyring
	SourcePrompt
)

var (
	cfg = &config.Config{Dir: ".", LogLevel: logrus.WarnLevel}
	log = logrus.New()
)

// Setup installs the runtime configuration used by every command
func Setup(c *config.Config) {
	cfg = c
	log = c.NewLogger()
}

// openVault returns the vault for the configured directory or exits
func openVault() *core.Vault {
	vault, err := core.New(cfg.Dir, core.WithLogger(log))
	if err != nil {
		HandleError(err)
	}
	return vault
}

// GetPassword returns the configured password or prompts for one.
// The caller is responsible for wiping the returned password.
func GetPassword(prompt string) ([]byte, error) {
	if password := cfg.PasswordCopy(); password != nil {
		return password, nil
	}

	password, err := core.ReadPassword(prompt)
	if err != nil {
		return nil, err
	}
	return password, nil
}

// GetPasswordOrExit is like GetPassword but exits on error
func GetPasswordOrExit(prompt string) []byte {
	password, err := GetPassword(prompt)
	if err != nil {
		HandleError(err)
	}
	return password
}

// GetPasswordForInit returns the configured password or prompts twice
func GetPasswordForInit() ([]byte, error) {
	if password := cfg.PasswordCopy(); password != nil {
		return password, nil
	}
	return core.ReadPasswordConfirm("Enter password: ")
}

// passwordPrompt reads a password interactively
var passwordPrompt = core.ReadPassword

// resolvePassword returns the configured password, the keyring entry, or a
// prompted one, in that order. Nothing is verified here.
func resolvePassword(prompt, vaultID string) ([]byte, PasswordSource, error) {
	if password := cfg.PasswordCopy(); password != nil {
		return password, SourceEnv, nil
	}

	if vaultID != "" && !cfg.NoKeyring {
		password, err := keyring.GetPassword(vaultID)
		switch {
		case err == nil:
			log.Debug("using password from keyring")
			return password, SourceKeyring, nil
		case !errors.Is(err, keyring.ErrNotFound):
			log.WithError(err).Debug("keyring unavailable")
		}
	}

	password, err := passwordPrompt(prompt)
	if err != nil {
		return nil, SourcePrompt, err
	}
	return password, SourcePrompt, nil
}

// WithPassword resolves the vault password and runs op with it. The vault
// operation in op is the only password check. A keyring password that op
// rejects is treated as stale: the entry is removed and op runs once more
// with a prompted password. The accepted password is returned and the caller
// must wipe it.
func WithPassword(prompt, vaultID string, op func(password []byte) error) ([]byte, PasswordSource, error) {
	password, source, err := resolvePassword(prompt, vaultID)
	if err != nil {
		return nil, source, err
	}

	err = op(password)
	if source == SourceKeyring && errors.Is(err, core.ErrWrongPassword) {
		crypto.Wipe(password)
		fmt.Fprintln(os.Stderr, "warning: stored keyring password is stale, removing it")
		if err := keyring.DeletePassword(vaultID); err != nil {
			log.WithError(err).Warn("failed to remove stale keyring entry")
		}

		source = SourcePrompt
		if password, err = passwordPrompt(prompt); err != nil {
			return nil, source, err
		}
		err = op(password)
	}
	if err != nil {
		crypto.Wipe(password)
		return nil, source, err
	}
	return password, source, nil
}

// runUnlocked runs op under the vault password or exits
func runUnlocked(vault *core.Vault, prompt string, op func(password []byte) error) ([]byte, PasswordSource) {
	vaultID, _ := vault.GetVaultID()
	password, source, err := WithPassword(prompt, vaultID, op)
	if err != nil {
		HandleError(err)
	}
	return password, source
}

// OfferToSavePassword asks whether a prompted password should go to the keyring
func OfferToSavePassword(vault *core.Vault, password []byte) {
	if cfg.NoKeyring || !core.IsTerminal() {
		return
	}
	vaultID, err := vault.GetOrCreateVaultID()
	if err != nil || keyring.HasPassword(vaultID) {
		return
	}

	fmt.Print("Save password to keyring? [y/N]: ")
	var answer string
	if _, err := fmt.Scanln(&answer); err != nil || (answer != "y" && answer != "Y") {
		return
	}
	if err := keyring.SavePassword(vaultID, password); err != nil {
		fmt.Fprintf(os.Stderr, "warning: failed to save to keyring: %s\n", err)
		return
	}
	fmt.Println("Password saved to keyring")
}

// HandleError reports common errors consistently and exits
func HandleError(err error) {
	switch {
	case errors.Is(err, core.ErrNotInitialized):
		fmt.Fprintf(os.Stderr, "Error: ramvault not initialized\n")
		fmt.Fprintf(os.Stderr, "Run 'ramvault init' first\n")
	case errors.Is(err, core.ErrAlreadyExists):
		fmt.Fprintf(os.Stderr, "Error: %s already exists in this directory\n", core.VaultFile)
		fmt.Fprintf(os.Stderr, "Use 'ramvault status' to see current state\n")
	case errors.Is(err, core.ErrWrongPassword):
		fmt.Fprintf(os.Stderr, "Error: wrong password\n")
	case errors.Is(err, core.ErrWrongFilePassword):
		fmt.Fprintf(os.Stderr, "Error: wrong password for the account file\n")
	case errors.Is(err, core.ErrNoAccounts):
		fmt.Fprintf(os.Stderr, "Error: no accounts in vault\n")
		fmt.Fprintf(os.Stderr, "Use 'ramvault add' or 'ramvault import' first\n")
	case errors.Is(err, crypto.ErrUnavailable):
		fmt.Fprintf(os.Stderr, "Error: secure random source unavailable\n")
	default:
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
	os.Exit(1)
}

// formatSize formats a size in human-readable form
func formatSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}
