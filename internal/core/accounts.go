package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/illarion/ramvault/internal/account"
	"github.com/illarion/ramvault/internal/crypto"
	"github.com/illarion/ramvault/internal/digest"
	"github.com/illarion/ramvault/internal/git"
	"github.com/illarion/ramvault/internal/storage"
)

// StatusInfo contains the vault status reported without a password
type StatusInfo struct {
	Path             string
	VaultID          string
	Created          time.Time
	Modified         time.Time
	Accounts         []storage.IndexEntry
	TotalSize        int64
	VaultSize        int64
	Fingerprint      string // SHA-256 of the vault file
	KDFParams        crypto.KDFParams
	PlaintextExports []string // Unencrypted AccountData.json files next to the vault
	GitStatus        *git.GitStatus
}

// sealAccount encodes and seals a single account
func (v *Vault) sealAccount(a *account.Account, password []byte) ([]byte, error) {
	data, err := json.Marshal(a)
	if err != nil {
		return nil, fmt.Errorf("failed to encode account: %w", err)
	}
	defer crypto.Wipe(data)

	return v.codec.Seal(data, password)
}

// openAccount decrypts and decodes a stored container
func (v *Vault) openAccount(container, password []byte) (*account.Account, error) {
	plain, err := v.codec.Open(container, password)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return nil, ErrWrongPassword
		}
		return nil, err
	}
	defer crypto.Wipe(plain)

	a := &account.Account{}
	if err := json.Unmarshal(plain, a); err != nil {
		return nil, fmt.Errorf("corrupt account record: %w", err)
	}
	return a, nil
}

func (v *Vault) putAccount(db *storage.Storage, a *account.Account, password []byte) error {
	container, err := v.sealAccount(a, password)
	if err != nil {
		return err
	}
	entry := storage.NewIndexEntry(a.ID(), a.Username, a.Alias(), a.Group, container)
	return db.PutAccount(entry, container)
}

// AddAccount seals an account into the vault, replacing any account with the
// same id. It reports whether an account was replaced.
func (v *Vault) AddAccount(ctx context.Context, a *account.Account, password []byte) (bool, error) {
	if a == nil || a.SecurityToken == "" {
		return false, ErrInvalidAccount
	}

	db, err := v.openVerified(password)
	if err != nil {
		return false, err
	}
	defer db.Close()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	existing, err := db.GetIndexEntry(a.ID())
	if err != nil {
		return false, err
	}
	if err := v.putAccount(db, a, password); err != nil {
		return false, fmt.Errorf("failed to store %s: %w", a.DisplayName(), err)
	}

	v.log.WithFields(logrus.Fields{"id": a.ID(), "replaced": existing != nil}).Info("account stored")
	return existing != nil, nil
}

// GetAccount opens the account referenced by username or id
func (v *Vault) GetAccount(ctx context.Context, ref string, password []byte) (*account.Account, error) {
	if len(password) == 0 {
		return nil, ErrPasswordRequired
	}

	db, err := v.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	id := account.RefToID(ref)
	container, err := db.GetBlob(id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, ref)
		}
		return nil, err
	}

	if entry, err := db.GetIndexEntry(id); err == nil && entry != nil && !entry.Matches(container) {
		v.log.WithField("id", id).Warn("index fingerprint does not match stored container")
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.openAccount(container, password)
}

// RemoveAccounts drops the referenced accounts and compacts the vault.
// It returns the ids that were removed.
func (v *Vault) RemoveAccounts(ctx context.Context, refs []string, password []byte) ([]string, error) {
	db, err := v.openVerified(password)
	if err != nil {
		return nil, err
	}

	var removed []string
	for _, ref := range refs {
		if err := ctx.Err(); err != nil {
			db.Close()
			return removed, err
		}

		id := account.RefToID(ref)
		if err := db.DeleteAccount(id); err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				v.log.WithField("ref", ref).Warn("account not in vault")
				continue
			}
			db.Close()
			return removed, fmt.Errorf("failed to remove %s: %w", ref, err)
		}
		removed = append(removed, id)
	}
	db.Close()

	if len(removed) > 0 {
		if err := v.Compact(); err != nil {
			v.log.WithError(err).Warn("failed to compact vault")
		}
	}
	return removed, nil
}

// List returns the index of stored accounts. No password is needed.
func (v *Vault) List(ctx context.Context) ([]storage.IndexEntry, error) {
	db, err := v.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	return db.ListIndex()
}

// openAll decrypts every stored account
func (v *Vault) openAll(ctx context.Context, db *storage.Storage, password []byte) ([]*account.Account, error) {
	var accounts []*account.Account
	err := db.ForEachBlob(func(id string, container []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		a, err := v.openAccount(container, password)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", id, err)
		}
		accounts = append(accounts, a)
		return nil
	})
	return accounts, err
}

// ChangePassword re-seals the check container and every account under
// newPassword in a single transaction.
func (v *Vault) ChangePassword(ctx context.Context, currentPassword, newPassword []byte) error {
	if len(newPassword) == 0 {
		return ErrPasswordRequired
	}

	db, err := v.openVerified(currentPassword)
	if err != nil {
		return err
	}
	defer db.Close()

	containers := make(map[string][]byte)
	err = db.ForEachBlob(func(id string, container []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		plain, err := v.codec.Open(container, currentPassword)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", id, err)
		}
		defer crypto.Wipe(plain)

		resealed, err := v.codec.Seal(plain, newPassword)
		if err != nil {
			return fmt.Errorf("failed to reseal %s: %w", id, err)
		}
		containers[id] = resealed
		return nil
	})
	if err != nil {
		return err
	}

	check, err := v.codec.Seal([]byte(passwordCheckString), newPassword)
	if err != nil {
		return fmt.Errorf("failed to seal password check: %w", err)
	}
	if err := db.ReplaceBlobs(containers, check); err != nil {
		return fmt.Errorf("failed to store re-sealed accounts: %w", err)
	}

	v.log.WithField("accounts", len(containers)).Info("password changed")
	return nil
}

// Status returns information about the vault
func (v *Vault) Status(ctx context.Context) (*StatusInfo, error) {
	db, err := v.open()
	if err != nil {
		return nil, err
	}

	info := &StatusInfo{Path: v.path, KDFParams: v.codec.Params()}
	err = func() error {
		defer db.Close()

		var err error
		if info.VaultID, err = db.GetVaultID(); err != nil {
			return err
		}
		if info.Created, err = db.GetCreated(); err != nil {
			return err
		}
		if info.Modified, err = db.GetModified(); err != nil {
			return err
		}
		info.Accounts, err = db.ListIndex()
		return err
	}()
	if err != nil {
		return nil, err
	}

	for _, e := range info.Accounts {
		info.TotalSize += int64(e.Size)
	}
	info.VaultSize = fileSize(v.path)
	info.Fingerprint = digest.FileSHA256(v.path)
	info.PlaintextExports = findPlaintextExports(v.Dir())

	gitStatus, err := git.CheckVault(v.Dir(), VaultFile, info.PlaintextExports)
	if err == nil {
		info.GitStatus = gitStatus
	}
	return info, nil
}
