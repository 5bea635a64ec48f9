package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/illarion/ramvault/internal/account"
	"github.com/illarion/ramvault/internal/core"
	"github.com/illarion/ramvault/internal/crypto"
)

// AddOptions holds the account fields given on the command line
type AddOptions struct {
	Username     string
	UserID       int64
	Alias        string
	Description  string
	Group        string
	WithPassword bool
}

// Add seals a new account into the vault. The security token is read from
// stdin, hidden when stdin is a terminal.
func Add(ctx context.Context, opts AddOptions) {
	vault := openVault()

	var (
		a        *account.Account
		replaced bool
	)
	password, source := runUnlocked(vault, "Enter vault password: ", func(password []byte) (err error) {
		if a == nil {
			a = accountFromOptions(opts)
		}
		replaced, err = vault.AddAccount(ctx, a, password)
		return err
	})
	defer crypto.Wipe(password)

	if replaced {
		fmt.Printf("updated: %s (%s)\n", a.DisplayName(), a.ID())
	} else {
		fmt.Printf("added: %s (%s)\n", a.DisplayName(), a.ID())
	}

	if source == SourcePrompt {
		OfferToSavePassword(vault, password)
	}
}

// accountFromOptions reads the account secrets and builds the account or exits
func accountFromOptions(opts AddOptions) *account.Account {
	token, err := readSecret("Security token: ")
	if err != nil {
		HandleError(err)
	}
	if token == "" {
		HandleError(core.ErrInvalidAccount)
	}

	a := account.New(token)
	a.Valid = true
	a.Username = opts.Username
	a.UserID = opts.UserID
	if opts.Group != "" {
		a.Group = opts.Group
	}
	if !a.SetAlias(opts.Alias) {
		HandleError(fmt.Errorf("alias longer than %d bytes", account.MaxAliasLength))
	}
	if !a.SetDescription(opts.Description) {
		HandleError(fmt.Errorf("description longer than %d bytes", account.MaxDescriptionLength))
	}
	if opts.WithPassword {
		accountPassword, err := readSecret("Account password: ")
		if err != nil {
			HandleError(err)
		}
		if !a.SetPassword(accountPassword) {
			HandleError(fmt.Errorf("password longer than %d bytes", account.MaxPasswordLength))
		}
	}
	return a
}

// readSecret reads one line without echo on a terminal, or from piped stdin
func readSecret(prompt string) (string, error) {
	if core.IsTerminal() {
		secret, err := core.ReadPassword(prompt)
		if err != nil {
			return "", err
		}
		defer crypto.Wipe(secret)
		return strings.TrimSpace(string(secret)), nil
	}

	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("failed to read %s: %w", strings.TrimSuffix(prompt, ": "), err)
	}
	return strings.TrimSpace(line), nil
}
