package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/illarion/ramvault/internal/crypto"
)

// Remove removes accounts from the vault by username or id
func Remove(ctx context.Context, refs []string) {
	if len(refs) == 0 {
		fmt.Fprintf(os.Stderr, "Error: rm requires at least one account argument\n")
		fmt.Fprintf(os.Stderr, "Usage: ramvault rm <username|id> [...]\n")
		os.Exit(1)
	}

	vault := openVault()
	var removed []string
	password, _ := runUnlocked(vault, "Enter vault password: ", func(password []byte) (err error) {
		removed, err = vault.RemoveAccounts(ctx, refs, password)
		return err
	})
	crypto.Wipe(password)

	for _, id := range removed {
		fmt.Printf("removed: %s\n", id)
	}
	if missing := len(refs) - len(removed); missing > 0 {
		fmt.Printf("not found: %d account(s)\n", missing)
	}
}
