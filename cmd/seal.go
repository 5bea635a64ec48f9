package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/illarion/ramvault/internal/core"
	"github.com/illarion/ramvault/internal/crypto"
)

// Seal encrypts src into a container at dst
func Seal(src, dst string) {
	if err := crypto.Init(); err != nil {
		HandleError(err)
	}
	if dst == "" {
		dst = src
	}

	password, err := GetPasswordForInit()
	if err != nil {
		HandleError(err)
	}
	defer crypto.Wipe(password)

	if err := core.SealFile(crypto.NewCodec(), src, dst, password); err != nil {
		HandleError(err)
	}
	fmt.Printf("sealed: %s\n", dst)
}

// Unseal decrypts the container at src into dst
func Unseal(src, dst string) {
	if dst == "" {
		dst = strings.TrimSuffix(src, ".sealed")
	}

	password := GetPasswordOrExit(fmt.Sprintf("Password for %s: ", src))
	defer crypto.Wipe(password)

	if err := core.UnsealFile(crypto.NewCodec(), src, dst, password); err != nil {
		HandleError(err)
	}
	fmt.Printf("unsealed: %s\n", dst)
}

// Sniff reports which files carry the container header
func Sniff(paths []string) {
	failed := false
	for _, path := range paths {
		sealed, err := core.Sniff(path)
		switch {
		case err != nil:
			fmt.Printf("%s: error: %s\n", path, err)
			failed = true
		case sealed:
			fmt.Printf("%s: sealed\n", path)
		default:
			fmt.Printf("%s: plaintext\n", path)
		}
	}
	if failed {
		os.Exit(1)
	}
}
