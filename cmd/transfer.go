package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/illarion/ramvault/internal/core"
	"github.com/illarion/ramvault/internal/crypto"
)

// filePasswordFor prompts for a file password when path holds a container
func filePasswordFor(path string) []byte {
	sealed, err := core.Sniff(path)
	if err != nil {
		HandleError(err)
	}
	if !sealed {
		return nil
	}
	password, err := core.ReadPassword(fmt.Sprintf("Password for %s: ", path))
	if err != nil {
		HandleError(err)
	}
	return password
}

// Import merges an AccountData.json file into the vault
func Import(ctx context.Context, path string, strategy core.MergeStrategy) {
	vault := openVault()
	var filePassword []byte
	defer func() { crypto.Wipe(filePassword) }()

	var result *core.ImportResult
	password, source := runUnlocked(vault, "Enter vault password: ", func(password []byte) (err error) {
		if filePassword == nil {
			filePassword = filePasswordFor(path)
		}
		result, err = vault.Import(ctx, path, password, filePassword, strategy)
		return err
	})
	defer crypto.Wipe(password)

	fmt.Printf("\n")
	printNames("added", result.Added)
	printNames("updated", result.Updated)
	printNames("unchanged", result.Unchanged)
	printNames("skipped", result.Skipped)

	if source == SourcePrompt {
		OfferToSavePassword(vault, password)
	}
}

func printNames(label string, names []string) {
	if len(names) == 0 {
		return
	}
	fmt.Printf("%s: %d (%s)\n", label, len(names), strings.Join(names, ", "))
}

// Export writes the vault accounts to an AccountData.json file
func Export(ctx context.Context, path string, plaintext bool) {
	vault := openVault()
	var filePassword []byte
	defer func() { crypto.Wipe(filePassword) }()

	var n int
	password, _ := runUnlocked(vault, "Enter vault password: ", func(password []byte) (err error) {
		if !plaintext && filePassword == nil {
			if filePassword, err = core.ReadPasswordConfirm(fmt.Sprintf("Password for %s: ", path)); err != nil {
				return err
			}
		}
		n, err = vault.Export(ctx, path, password, filePassword)
		return err
	})
	crypto.Wipe(password)

	fmt.Printf("exported: %d accounts to %s\n", n, path)
	if plaintext {
		fmt.Fprintf(os.Stderr, "warning: %s is not encrypted\n", path)
	}
}

// Diff compares the vault with an AccountData.json file
func Diff(ctx context.Context, path string) {
	vault := openVault()
	var filePassword []byte
	defer func() { crypto.Wipe(filePassword) }()

	var out string
	password, _ := runUnlocked(vault, "Enter vault password: ", func(password []byte) (err error) {
		if filePassword == nil {
			filePassword = filePasswordFor(path)
		}
		out, err = vault.Diff(ctx, path, password, filePassword)
		return err
	})
	crypto.Wipe(password)
	if out == "" {
		fmt.Println("No differences")
		return
	}
	fmt.Print(out)
}
