package storage

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"os"
	"sort"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	ConfigBucket = []byte("config") // version, timestamps, vault id, password check
	IndexBucket  = []byte("index")  // Public account list for ls/status - unencrypted
	BlobsBucket  = []byte("blobs")  // One container per account
)

// Config keys
var (
	ConfigVersion  = []byte("version")
	ConfigCreated  = []byte("created")
	ConfigModified = []byte("modified")
	ConfigVaultID  = []byte("vault_id")
	ConfigCheck    = []byte("check")
)

const FormatVersion = "1"

var ErrNotFound = errors.New("account not found")

// Storage provides BBolt-based storage for a vault
type Storage struct {
	db *bolt.DB
}

// Open opens or creates a vault database
func Open(path string) (*Storage, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database %s", path)
	}

	return &Storage{db: db}, nil
}

// Close closes the database
func (s *Storage) Close() error {
	return s.db.Close()
}

// Path returns the database file path
func (s *Storage) Path() string {
	return s.db.Path()
}

// Initialize creates the bucket structure for a new vault
func (s *Storage) Initialize() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{ConfigBucket, IndexBucket, BlobsBucket} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return errors.Wrapf(err, "failed to create bucket %s", bucket)
			}
		}

		config := tx.Bucket(ConfigBucket)
		if err := config.Put(ConfigVersion, []byte(FormatVersion)); err != nil {
			return err
		}

		created, _ := time.Now().MarshalBinary()
		if err := config.Put(ConfigCreated, created); err != nil {
			return err
		}
		return config.Put(ConfigModified, created)
	})
}

// IsInitialized checks if the database has been initialized
func (s *Storage) IsInitialized() (bool, error) {
	var initialized bool
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		initialized = config != nil && config.Get(ConfigVersion) != nil
		return nil
	})
	return initialized, err
}

// SetCheck stores the password check container
func (s *Storage) SetCheck(container []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ConfigBucket).Put(ConfigCheck, container)
	})
}

// GetCheck retrieves the password check container
func (s *Storage) GetCheck() ([]byte, error) {
	return s.getConfig(ConfigCheck)
}

func (s *Storage) getConfig(key []byte) ([]byte, error) {
	var value []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		config := tx.Bucket(ConfigBucket)
		if config == nil {
			return errors.New("config bucket not found")
		}
		v := config.Get(key)
		if v == nil {
			return errors.Errorf("%s not found", key)
		}
		// Make a copy since the slice is only valid during the transaction
		value = append([]byte(nil), v...)
		return nil
	})
	return value, err
}

func (s *Storage) getTime(key []byte) (time.Time, error) {
	var t time.Time
	data, err := s.getConfig(key)
	if err != nil {
		return t, err
	}
	if err := t.UnmarshalBinary(data); err != nil {
		return t, errors.Wrapf(err, "invalid %s timestamp", key)
	}
	return t, nil
}

// UpdateModified updates the last modified timestamp
func (s *Storage) UpdateModified() error {
	return s.db.Update(func(tx *bolt.Tx) error {
		modified, _ := time.Now().MarshalBinary()
		return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
	})
}

// GetModified retrieves the last modified timestamp
func (s *Storage) GetModified() (time.Time, error) {
	return s.getTime(ConfigModified)
}

// GetCreated retrieves the creation timestamp
func (s *Storage) GetCreated() (time.Time, error) {
	return s.getTime(ConfigCreated)
}

// GetVaultID retrieves the vault ID from config bucket
func (s *Storage) GetVaultID() (string, error) {
	id, err := s.getConfig(ConfigVaultID)
	if err != nil {
		return "", err
	}
	return string(id), nil
}

// GetOrCreateVaultID retrieves existing vault ID or generates a new one
func (s *Storage) GetOrCreateVaultID() (string, error) {
	vaultID, err := s.GetVaultID()
	if err == nil {
		return vaultID, nil
	}

	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", errors.Wrap(err, "failed to generate vault ID")
	}
	vaultID = hex.EncodeToString(b)

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(ConfigBucket).Put(ConfigVaultID, []byte(vaultID))
	})
	if err != nil {
		return "", err
	}
	return vaultID, nil
}

// PutAccount stores a container and its index entry in one transaction
func (s *Storage) PutAccount(entry IndexEntry, container []byte) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return errors.Wrap(err, "failed to encode index entry")
	}

	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.Bucket(BlobsBucket).Put([]byte(entry.ID), container); err != nil {
			return errors.Wrapf(err, "failed to store blob %s", entry.ID)
		}
		if err := tx.Bucket(IndexBucket).Put([]byte(entry.ID), data); err != nil {
			return errors.Wrapf(err, "failed to store index %s", entry.ID)
		}
		return touch(tx)
	})
}

// GetBlob retrieves the container stored for id
func (s *Storage) GetBlob(id string) ([]byte, error) {
	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		blobs := tx.Bucket(BlobsBucket)
		if blobs == nil {
			return errors.New("blobs bucket not found")
		}
		v := blobs.Get([]byte(id))
		if v == nil {
			return ErrNotFound
		}
		data = append([]byte(nil), v...)
		return nil
	})
	return data, err
}

// GetIndexEntry returns the index entry for id, or nil if there is none
func (s *Storage) GetIndexEntry(id string) (*IndexEntry, error) {
	var entry *IndexEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		index := tx.Bucket(IndexBucket)
		if index == nil {
			return errors.New("index bucket not found")
		}
		data := index.Get([]byte(id))
		if data == nil {
			return nil
		}
		entry = &IndexEntry{}
		return errors.Wrapf(json.Unmarshal(data, entry), "corrupt index entry %s", id)
	})
	return entry, err
}

// ListIndex returns all index entries sorted by group, then username
func (s *Storage) ListIndex() ([]IndexEntry, error) {
	var entries []IndexEntry
	err := s.db.View(func(tx *bolt.Tx) error {
		index := tx.Bucket(IndexBucket)
		if index == nil {
			return errors.New("index bucket not found")
		}
		return index.ForEach(func(k, v []byte) error {
			var entry IndexEntry
			if err := json.Unmarshal(v, &entry); err != nil {
				return errors.Wrapf(err, "corrupt index entry %s", k)
			}
			entries = append(entries, entry)
			return nil
		})
	})

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].Group != entries[j].Group {
			return entries[i].Group < entries[j].Group
		}
		return entries[i].Username < entries[j].Username
	})
	return entries, err
}

// DeleteAccount removes an account's blob and index entry
func (s *Storage) DeleteAccount(id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		if tx.Bucket(IndexBucket).Get([]byte(id)) == nil {
			return ErrNotFound
		}
		if err := tx.Bucket(BlobsBucket).Delete([]byte(id)); err != nil {
			return err
		}
		if err := tx.Bucket(IndexBucket).Delete([]byte(id)); err != nil {
			return err
		}
		return touch(tx)
	})
}

// ForEachBlob calls fn with a copy of every stored container
func (s *Storage) ForEachBlob(fn func(id string, container []byte) error) error {
	return s.db.View(func(tx *bolt.Tx) error {
		blobs := tx.Bucket(BlobsBucket)
		if blobs == nil {
			return errors.New("blobs bucket not found")
		}
		return blobs.ForEach(func(k, v []byte) error {
			return fn(string(k), append([]byte(nil), v...))
		})
	})
}

// ReplaceBlobs swaps in re-sealed containers and a new check container
// atomically. Every id must already exist.
func (s *Storage) ReplaceBlobs(containers map[string][]byte, check []byte) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		blobs := tx.Bucket(BlobsBucket)
		index := tx.Bucket(IndexBucket)
		for id, container := range containers {
			data := index.Get([]byte(id))
			if data == nil {
				return errors.Wrap(ErrNotFound, id)
			}
			var entry IndexEntry
			if err := json.Unmarshal(data, &entry); err != nil {
				return errors.Wrapf(err, "corrupt index entry %s", id)
			}
			updated := NewIndexEntry(entry.ID, entry.Username, entry.Alias, entry.Group, container)
			encoded, err := json.Marshal(updated)
			if err != nil {
				return err
			}
			if err := blobs.Put([]byte(id), container); err != nil {
				return err
			}
			if err := index.Put([]byte(id), encoded); err != nil {
				return err
			}
		}
		if err := tx.Bucket(ConfigBucket).Put(ConfigCheck, check); err != nil {
			return err
		}
		return touch(tx)
	})
}

func touch(tx *bolt.Tx) error {
	modified, _ := time.Now().MarshalBinary()
	return tx.Bucket(ConfigBucket).Put(ConfigModified, modified)
}

// Compact creates a compacted copy of the database, removing unused space.
// This is useful after deleting accounts to reclaim disk space.
func (s *Storage) Compact() error {
	srcPath := s.db.Path()
	tmpPath := srcPath + ".compact"

	dst, err := bolt.Open(tmpPath, 0600, nil)
	if err != nil {
		return errors.Wrap(err, "failed to create compact database")
	}

	err = s.db.View(func(srcTx *bolt.Tx) error {
		return dst.Update(func(dstTx *bolt.Tx) error {
			return srcTx.ForEach(func(name []byte, srcBucket *bolt.Bucket) error {
				dstBucket, err := dstTx.CreateBucketIfNotExists(name)
				if err != nil {
					return err
				}
				return srcBucket.ForEach(func(k, v []byte) error {
					return dstBucket.Put(k, v)
				})
			})
		})
	})
	if err != nil {
		dst.Close()
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to copy data")
	}

	if err := dst.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to close compact database")
	}

	if err := s.db.Close(); err != nil {
		os.Remove(tmpPath)
		return errors.Wrap(err, "failed to close source database")
	}

	// Atomic replace
	backupPath := srcPath + ".backup"
	if err := os.Rename(srcPath, backupPath); err != nil {
		return errors.Wrap(err, "failed to backup original")
	}
	if err := os.Rename(tmpPath, srcPath); err != nil {
		os.Rename(backupPath, srcPath) // rollback
		return errors.Wrap(err, "failed to replace database")
	}
	os.Remove(backupPath)

	s.db, err = bolt.Open(srcPath, 0600, nil)
	if err != nil {
		return errors.Wrap(err, "failed to reopen database")
	}
	return nil
}
