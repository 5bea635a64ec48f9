package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/illarion/ramvault/internal/core"
	"github.com/illarion/ramvault/internal/git"
)

// Status shows the vault contents and state. No password is needed.
func Status(ctx context.Context) {
	vault := openVault()

	if !vault.Exists() {
		fmt.Printf("No %s file found in %s\n", core.VaultFile, vault.Dir())
		fmt.Println("Run 'ramvault init' to create one")
		return
	}

	status, err := vault.Status(ctx)
	if err != nil {
		HandleError(err)
	}

	fmt.Printf("Vault: %s\n", status.Path)
	fmt.Printf("   id:          %s\n", status.VaultID)
	fmt.Printf("   created:     %s\n", status.Created.Format(time.RFC3339))
	fmt.Printf("   modified:    %s\n", status.Modified.Format(time.RFC3339))
	fmt.Printf("   size:        %s\n", formatSize(status.VaultSize))
	fmt.Printf("   sha256:      %s\n", status.Fingerprint)
	fmt.Printf("   encryption:  XSalsa20-Poly1305, Argon2id (t=%d, m=%d KiB, p=%d)\n",
		status.KDFParams.Time, status.KDFParams.Memory, status.KDFParams.Threads)

	fmt.Printf("\nAccounts: %d (%s sealed)\n", len(status.Accounts), formatSize(status.TotalSize))
	group := ""
	for _, e := range status.Accounts {
		if e.Group != group {
			group = e.Group
			fmt.Printf("  [%s]\n", group)
		}
		name := e.Username
		if e.Alias != "" {
			name = fmt.Sprintf("%s (%s)", e.Username, e.Alias)
		}
		fmt.Printf("    %s  %s\n", e.ID, name)
	}

	if len(status.PlaintextExports) > 0 {
		fmt.Fprintf(os.Stderr, "\nwarning: plaintext account data next to vault:\n")
		for _, f := range status.PlaintextExports {
			fmt.Fprintf(os.Stderr, "   - %s\n", f)
		}
	}

	fmt.Print(git.FormatGitStatus(status.GitStatus))
}
