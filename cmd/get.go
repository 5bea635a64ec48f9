package cmd

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/illarion/ramvault/internal/account"
	"github.com/illarion/ramvault/internal/crypto"
)

// Get prints an account from the vault. With tokenOnly only the security
// token is printed, suitable for piping.
func Get(ctx context.Context, ref string, tokenOnly bool) {
	vault := openVault()

	var a *account.Account
	password, _ := runUnlocked(vault, "Enter vault password: ", func(password []byte) (err error) {
		a, err = vault.GetAccount(ctx, ref, password)
		return err
	})
	crypto.Wipe(password)

	if tokenOnly {
		fmt.Println(a.SecurityToken)
		return
	}

	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		HandleError(err)
	}
	fmt.Println(string(data))
}
