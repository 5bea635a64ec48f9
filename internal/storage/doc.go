// Package storage provides the BBolt database behind a ramvault vault.
//
// Database structure uses three buckets:
//   - config: format version, timestamps, vault id and the password check
//     container (unencrypted apart from the check container)
//   - index: account id, username, alias, group, size and the SHA-256
//     fingerprint of each stored container (unencrypted, for ls/status)
//   - blobs: one sealed container per account
//
// The unencrypted index lets ls and status run without a password.
//
// BBolt provides ACID transactions, file locking, and corruption detection.
package storage
