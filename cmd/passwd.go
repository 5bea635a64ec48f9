package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/ramvault/internal/core"
	"github.com/illarion/ramvault/internal/crypto"
	"github.com/illarion/ramvault/internal/keyring"
)

// Passwd changes the vault password
func Passwd(ctx context.Context) {
	vault := openVault()

	vaultID, _ := vault.GetVaultID()

	var newPassword []byte
	defer func() { crypto.Wipe(newPassword) }()
	currentPassword, _ := runUnlocked(vault, "Enter current password: ", func(currentPassword []byte) error {
		if newPassword == nil {
			var err error
			if newPassword, err = core.ReadPasswordConfirm("Enter new password: "); err != nil {
				return err
			}
		}
		return vault.ChangePassword(ctx, currentPassword, newPassword)
	})
	crypto.Wipe(currentPassword)

	// Refresh an existing keyring entry so it does not go stale
	if vaultID != "" && !cfg.NoKeyring && keyring.HasPassword(vaultID) {
		if err := keyring.SavePassword(vaultID, newPassword); err == nil {
			fmt.Println("Keyring updated with new password")
		}
	}

	if err := vault.Compact(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: compaction failed: %s\n", err)
	}

	fmt.Println("password changed successfully")
}
