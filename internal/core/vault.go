package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/illarion/ramvault/internal/crypto"
	"github.com/illarion/ramvault/internal/storage"
)

const (
	VaultFile           = ".ramvault"
	AccountDataFile     = "AccountData.json"
	DirPermSecure       = 0700 // Directory: owner rwx only
	FilePermSecure      = 0600 // File: owner rw only
	passwordCheckString = "ramvault-password-check"
)

var (
	ErrNotInitialized    = errors.New("vault not initialized")
	ErrAlreadyExists     = errors.New("vault already exists")
	ErrWrongPassword     = errors.New("wrong password")
	ErrWrongFilePassword = errors.New("wrong file password")
	ErrPasswordRequired  = errors.New("password required")
	ErrNoAccounts        = errors.New("no accounts in vault")
	ErrAccountNotFound   = errors.New("account not found")
	ErrInvalidAccount    = errors.New("account has no security token")
)

// Vault manages sealed account storage in a single bbolt file
type Vault struct {
	path  string
	codec *crypto.Codec
	log   *logrus.Logger
}

// Option configures a Vault
type Option func(*Vault)

// WithCodec sets the container codec. The default uses the moderate Argon2id
// parameters that AccountData.json containers are sealed with.
func WithCodec(c *crypto.Codec) Option {
	return func(v *Vault) {
		v.codec = c
	}
}

// WithLogger sets the logger
func WithLogger(l *logrus.Logger) Option {
	return func(v *Vault) {
		v.log = l
	}
}

// New creates a Vault for the .ramvault file in dir
func New(dir string, opts ...Option) (*Vault, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve vault directory: %w", err)
	}

	v := &Vault{path: filepath.Join(absDir, VaultFile)}
	for _, opt := range opts {
		opt(v)
	}
	if v.codec == nil {
		v.codec = crypto.NewCodec()
	}
	if v.log == nil {
		v.log = logrus.New()
	}
	return v, nil
}

// Path returns the vault file path
func (v *Vault) Path() string {
	return v.path
}

// Dir returns the directory holding the vault file
func (v *Vault) Dir() string {
	return filepath.Dir(v.path)
}

// Codec returns the codec used for containers
func (v *Vault) Codec() *crypto.Codec {
	return v.codec
}

// Exists reports whether the vault file is present
func (v *Vault) Exists() bool {
	_, err := os.Stat(v.path)
	return err == nil
}

// open opens an existing, initialized vault database
func (v *Vault) open() (*storage.Storage, error) {
	if !v.Exists() {
		return nil, ErrNotInitialized
	}

	db, err := storage.Open(v.path)
	if err != nil {
		return nil, err
	}

	initialized, err := db.IsInitialized()
	if err != nil || !initialized {
		db.Close()
		return nil, ErrNotInitialized
	}
	return db, nil
}

// openVerified opens the vault and checks password against the check container
func (v *Vault) openVerified(password []byte) (*storage.Storage, error) {
	if len(password) == 0 {
		return nil, ErrPasswordRequired
	}

	db, err := v.open()
	if err != nil {
		return nil, err
	}
	if err := v.verify(db, password); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func (v *Vault) verify(db *storage.Storage, password []byte) error {
	check, err := db.GetCheck()
	if err != nil {
		return fmt.Errorf("failed to read password check: %w", err)
	}

	plain, err := v.codec.Open(check, password)
	if err != nil {
		if errors.Is(err, crypto.ErrDecryptionFailed) {
			return ErrWrongPassword
		}
		return err
	}
	defer crypto.Wipe(plain)

	if !crypto.ConstantTimeCompare(plain, []byte(passwordCheckString)) {
		return ErrWrongPassword
	}
	return nil
}

// Init creates a new vault protected by password
func (v *Vault) Init(password []byte) (err error) {
	if len(password) == 0 {
		return ErrPasswordRequired
	}
	if v.Exists() {
		return ErrAlreadyExists
	}

	if err := os.MkdirAll(v.Dir(), DirPermSecure); err != nil {
		return fmt.Errorf("failed to create vault directory: %w", err)
	}

	db, err := storage.Open(v.path)
	if err != nil {
		return fmt.Errorf("failed to create database: %w", err)
	}
	defer func() {
		db.Close()
		if err != nil {
			os.Remove(v.path)
		}
	}()

	if err := db.Initialize(); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	check, err := v.codec.Seal([]byte(passwordCheckString), password)
	if err != nil {
		return fmt.Errorf("failed to seal password check: %w", err)
	}
	if err := db.SetCheck(check); err != nil {
		return fmt.Errorf("failed to store password check: %w", err)
	}

	vaultID, err := db.GetOrCreateVaultID()
	if err != nil {
		return fmt.Errorf("failed to create vault id: %w", err)
	}

	v.log.WithFields(logrus.Fields{"path": v.path, "vault_id": vaultID}).Info("vault initialized")
	return nil
}

// VerifyPassword checks password without decrypting any account
func (v *Vault) VerifyPassword(password []byte) error {
	db, err := v.openVerified(password)
	if err != nil {
		return err
	}
	return db.Close()
}

// GetVaultID returns the vault id, used as the keyring account name
func (v *Vault) GetVaultID() (string, error) {
	db, err := v.open()
	if err != nil {
		return "", err
	}
	defer db.Close()
	return db.GetVaultID()
}

// GetOrCreateVaultID returns the vault id, creating one for older vaults
func (v *Vault) GetOrCreateVaultID() (string, error) {
	db, err := v.open()
	if err != nil {
		return "", err
	}
	defer db.Close()
	return db.GetOrCreateVaultID()
}

// Compact reclaims unused space in the vault file
func (v *Vault) Compact() error {
	db, err := v.open()
	if err != nil {
		return err
	}
	defer db.Close()

	before := fileSize(v.path)
	if err := db.Compact(); err != nil {
		return err
	}
	v.log.WithFields(logrus.Fields{"before": before, "after": fileSize(v.path)}).Debug("vault compacted")
	return nil
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
