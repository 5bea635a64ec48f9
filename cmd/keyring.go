package cmd

import (
	"fmt"
	"os"

	"github.com/illarion/ramvault/internal/core"
	"github.com/illarion/ramvault/internal/crypto"
	"github.com/illarion/ramvault/internal/keyring"
)

// KeyringSave saves the vault password to the OS keyring
func KeyringSave() {
	vault := openVault()

	password, err := core.ReadPassword("Enter password: ")
	if err != nil {
		HandleError(err)
	}
	defer crypto.Wipe(password)

	if err := vault.VerifyPassword(password); err != nil {
		HandleError(err)
	}

	vaultID, err := vault.GetOrCreateVaultID()
	if err != nil {
		HandleError(err)
	}

	if err := keyring.SavePassword(vaultID, password); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to save to keyring: %s\n", err)
		os.Exit(1)
	}

	fmt.Println("Password saved to keyring")
}

// KeyringDelete removes the vault password from the OS keyring
func KeyringDelete() {
	vault := openVault()

	vaultID, err := vault.GetVaultID()
	if err != nil || !keyring.HasPassword(vaultID) {
		fmt.Println("No password stored in keyring")
		return
	}

	if err := keyring.DeletePassword(vaultID); err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to remove from keyring: %s\n", err)
		os.Exit(1)
	}

	fmt.Println("Password removed from keyring")
}

// KeyringStatus reports whether a password is stored in the keyring
func KeyringStatus() {
	vault := openVault()

	vaultID, err := vault.GetVaultID()
	if err != nil || !keyring.HasPassword(vaultID) {
		fmt.Println("Password: not stored")
		return
	}
	fmt.Println("Password: stored in keyring")
}
