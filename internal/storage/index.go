package storage

import (
	"time"

	"github.com/illarion/ramvault/internal/digest"
)

// IndexEntry is the public description of a stored account.
type IndexEntry struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Alias       string    `json:"alias,omitempty"`
	Group       string    `json:"group"`
	Size        int       `json:"size"`
	Modified    time.Time `json:"modified"`
	Fingerprint string    `json:"fingerprint"` // SHA-256 of the container
}

// NewIndexEntry describes container as the stored blob for id.
func NewIndexEntry(id, username, alias, group string, container []byte) IndexEntry {
	return IndexEntry{
		ID:          id,
		Username:    username,
		Alias:       alias,
		Group:       group,
		Size:        len(container),
		Modified:    time.Now(),
		Fingerprint: digest.SHA256Hex(container),
	}
}

// Matches reports whether container is the blob this entry was built from.
func (e IndexEntry) Matches(container []byte) bool {
	return digest.SHA256Hex(container) == e.Fingerprint
}
