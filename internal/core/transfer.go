package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/illarion/ramvault/internal/account"
	"github.com/illarion/ramvault/internal/crypto"
	"github.com/illarion/ramvault/internal/storage"
)

// ReadAccountData loads an AccountData.json file. Files that start with the
// container header are decrypted with filePassword, anything else is parsed as
// plaintext JSON. It reports whether the file was encrypted.
func ReadAccountData(codec *crypto.Codec, path string, filePassword []byte) ([]*account.Account, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	if !crypto.HasHeader(data) {
		accounts, err := account.ParseList(data)
		return accounts, false, err
	}

	if len(filePassword) == 0 {
		return nil, true, ErrPasswordRequired
	}
	plain, err := codec.Open(data, filePassword)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return nil, true, ErrWrongFilePassword
		}
		return nil, true, err
	}
	defer crypto.Wipe(plain)

	accounts, err := account.ParseList(plain)
	return accounts, true, err
}

// WriteAccountData writes accounts as AccountData.json. A non-empty
// filePassword seals the list into a container.
func WriteAccountData(codec *crypto.Codec, path string, accounts []*account.Account, filePassword []byte) error {
	data, err := account.MarshalList(accounts)
	if err != nil {
		return err
	}
	defer crypto.Wipe(data)

	out := data
	if len(filePassword) > 0 {
		if out, err = codec.Seal(data, filePassword); err != nil {
			return fmt.Errorf("failed to seal %s: %w", path, err)
		}
	}
	return writeSecure(path, out)
}

// writeSecure replaces path with data through a temp file in the same
// directory, so a failed write never truncates the existing file. The result
// has owner-only permissions.
func writeSecure(path string, data []byte) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", path, err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := tmp.Chmod(FilePermSecure); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}

// Import merges the accounts of an AccountData.json file into the vault
func (v *Vault) Import(ctx context.Context, path string, password, filePassword []byte, strategy MergeStrategy) (*ImportResult, error) {
	db, err := v.openVerified(password)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	incoming, encrypted, err := ReadAccountData(v.codec, path, filePassword)
	if err != nil {
		return nil, err
	}
	v.log.WithFields(logrus.Fields{"file": path, "encrypted": encrypted, "accounts": len(incoming)}).Debug("read account data")

	result := &ImportResult{}
	for _, a := range incoming {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if a.SecurityToken == "" {
			v.log.WithField("account", a.DisplayName()).Warn("skipping account without security token")
			result.Skipped = append(result.Skipped, a.DisplayName())
			continue
		}

		name := a.DisplayName()
		container, err := db.GetBlob(a.ID())
		if errors.Is(err, storage.ErrNotFound) {
			if err := v.putAccount(db, a, password); err != nil {
				return result, fmt.Errorf("failed to store %s: %w", name, err)
			}
			result.Added = append(result.Added, name)
			continue
		}
		if err != nil {
			return result, err
		}

		existing, err := v.openAccount(container, password)
		if err != nil {
			return result, fmt.Errorf("failed to open %s: %w", name, err)
		}
		same, err := SameAccount(existing, a)
		if err != nil {
			return result, err
		}
		if same {
			result.Unchanged = append(result.Unchanged, name)
			continue
		}

		conflict, err := HandleConflict(name, existing, a, strategy)
		if err != nil {
			return result, err
		}

		var replacement *account.Account
		switch conflict.Resolution {
		case ResolutionUseImport:
			replacement = a
		case ResolutionEditMerged:
			replacement = conflict.Merged
		default:
			result.Skipped = append(result.Skipped, name)
			continue
		}

		if err := v.putAccount(db, replacement, password); err != nil {
			return result, fmt.Errorf("failed to store %s: %w", name, err)
		}
		result.Updated = append(result.Updated, name)
	}

	v.log.WithFields(logrus.Fields{
		"added":     len(result.Added),
		"updated":   len(result.Updated),
		"unchanged": len(result.Unchanged),
		"skipped":   len(result.Skipped),
	}).Info("import finished")
	return result, nil
}

// Export writes every vault account to an AccountData.json file, sealed with
// filePassword when one is given. It returns the number of accounts written.
func (v *Vault) Export(ctx context.Context, path string, password, filePassword []byte) (int, error) {
	db, err := v.openVerified(password)
	if err != nil {
		return 0, err
	}
	defer db.Close()

	accounts, err := v.openAll(ctx, db, password)
	if err != nil {
		return 0, err
	}
	if len(accounts) == 0 {
		return 0, ErrNoAccounts
	}
	sortAccounts(accounts)

	if err := WriteAccountData(v.codec, path, accounts, filePassword); err != nil {
		return 0, err
	}

	v.log.WithFields(logrus.Fields{"file": path, "accounts": len(accounts), "encrypted": len(filePassword) > 0}).Info("export finished")
	return len(accounts), nil
}

// Diff compares the vault with an AccountData.json file. Secrets are shown as
// fingerprints. It returns "" when both hold the same accounts.
func (v *Vault) Diff(ctx context.Context, path string, password, filePassword []byte) (string, error) {
	db, err := v.openVerified(password)
	if err != nil {
		return "", err
	}
	defer db.Close()

	vaultAccounts, err := v.openAll(ctx, db, password)
	if err != nil {
		return "", err
	}
	fileAccounts, _, err := ReadAccountData(v.codec, path, filePassword)
	if err != nil {
		return "", err
	}

	inFile := make(map[string]*account.Account, len(fileAccounts))
	for _, a := range fileAccounts {
		inFile[a.ID()] = a
	}

	sortAccounts(vaultAccounts)
	var out strings.Builder
	for _, a := range vaultAccounts {
		other, ok := inFile[a.ID()]
		if !ok {
			fmt.Fprintf(&out, "Only in vault: %s\n", a.DisplayName())
			continue
		}
		delete(inFile, a.ID())

		d, err := redactedDiff(a.DisplayName(), a, other)
		if err != nil {
			return "", err
		}
		out.WriteString(d)
	}

	var onlyInFile []*account.Account
	for _, a := range inFile {
		onlyInFile = append(onlyInFile, a)
	}
	sortAccounts(onlyInFile)
	for _, a := range onlyInFile {
		fmt.Fprintf(&out, "Only in file: %s\n", a.DisplayName())
	}
	return out.String(), nil
}

// SealFile encrypts src into a container at dst
func SealFile(codec *crypto.Codec, src, dst string, password []byte) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	defer crypto.Wipe(data)

	if crypto.HasHeader(data) {
		return fmt.Errorf("%s is already sealed", src)
	}
	container, err := codec.Seal(data, password)
	if err != nil {
		return err
	}
	return writeSecure(dst, container)
}

// UnsealFile decrypts the container at src into dst
func UnsealFile(codec *crypto.Codec, src, dst string, password []byte) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", src, err)
	}
	if !crypto.HasHeader(data) {
		return fmt.Errorf("%s is not sealed", src)
	}

	plain, err := codec.Open(data, password)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return ErrWrongFilePassword
		}
		return err
	}
	defer crypto.Wipe(plain)

	return writeSecure(dst, plain)
}

// Sniff reports whether the file at path starts with the container header.
// Only the header bytes are read.
func Sniff(path string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, err
	}
	defer f.Close()

	buf := make([]byte, crypto.HeaderSize)
	n, err := io.ReadFull(f, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return false, err
	}
	return crypto.HasHeader(buf[:n]), nil
}

// findPlaintextExports lists unencrypted AccountData files in dir
func findPlaintextExports(dir string) []string {
	matches, err := filepath.Glob(filepath.Join(dir, "*"+filepath.Ext(AccountDataFile)))
	if err != nil {
		return nil
	}

	var found []string
	for _, m := range matches {
		base := filepath.Base(m)
		if !strings.HasPrefix(base, strings.TrimSuffix(AccountDataFile, filepath.Ext(AccountDataFile))) {
			continue
		}
		if sealed, err := Sniff(m); err == nil && !sealed {
			found = append(found, base)
		}
	}
	return found
}

func sortAccounts(accounts []*account.Account) {
	sort.SliceStable(accounts, func(i, j int) bool {
		if accounts[i].Group != accounts[j].Group {
			return accounts[i].Group < accounts[j].Group
		}
		return accounts[i].Username < accounts[j].Username
	})
}
