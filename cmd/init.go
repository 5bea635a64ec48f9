package cmd

import (
	"fmt"

	"github.com/illarion/ramvault/internal/core"
	"github.com/illarion/ramvault/internal/crypto"
)

// Init creates a new vault
func Init() {
	if err := crypto.Init(); err != nil {
		HandleError(err)
	}

	vault := openVault()
	if vault.Exists() {
		HandleError(core.ErrAlreadyExists)
	}

	password, err := GetPasswordForInit()
	if err != nil {
		HandleError(err)
	}
	defer crypto.Wipe(password)

	if err := vault.Init(password); err != nil {
		HandleError(err)
	}

	fmt.Printf("Initialized %s\n", vault.Path())
	OfferToSavePassword(vault, password)
}
