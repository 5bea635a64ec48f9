package storage

import (
	"errors"
	"path/filepath"
	"testing"
)

func openTestDB(t *testing.T) (*Storage, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.ramvault")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	if err := db.Initialize(); err != nil {
		db.Close()
		t.Fatalf("Failed to initialize: %v", err)
	}
	return db, dbPath
}

func TestOpenAndInitialize(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.ramvault")

	db, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	initialized, err := db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if initialized {
		t.Error("Fresh database should not be initialized")
	}

	if err := db.Initialize(); err != nil {
		t.Fatalf("Failed to initialize: %v", err)
	}

	initialized, err = db.IsInitialized()
	if err != nil {
		t.Fatalf("Failed to check initialization: %v", err)
	}
	if !initialized {
		t.Error("Database should be initialized")
	}

	created, err := db.GetCreated()
	if err != nil || created.IsZero() {
		t.Errorf("Created timestamp missing: %v", err)
	}
}

func TestCheckContainer(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Close()

	if _, err := db.GetCheck(); err == nil {
		t.Error("Expected error before check is set")
	}

	check := []byte("sealed check")
	if err := db.SetCheck(check); err != nil {
		t.Fatalf("Failed to set check: %v", err)
	}

	got, err := db.GetCheck()
	if err != nil {
		t.Fatalf("Failed to get check: %v", err)
	}
	if string(got) != string(check) {
		t.Errorf("Check mismatch: got %s, want %s", got, check)
	}
}

func TestAccountOperations(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Close()

	container := []byte("container bytes")
	entry := NewIndexEntry("ID1", "zed", "", "Mains", container)
	if err := db.PutAccount(entry, container); err != nil {
		t.Fatalf("Failed to put account: %v", err)
	}
	other := []byte("other")
	if err := db.PutAccount(NewIndexEntry("ID2", "amy", "alt", "Alts", other), other); err != nil {
		t.Fatalf("Failed to put account: %v", err)
	}

	blob, err := db.GetBlob("ID1")
	if err != nil {
		t.Fatalf("Failed to get blob: %v", err)
	}
	if string(blob) != string(container) {
		t.Errorf("Blob mismatch: got %s", blob)
	}

	got, err := db.GetIndexEntry("ID1")
	if err != nil || got == nil {
		t.Fatalf("Failed to get index entry: %v", err)
	}
	if !got.Matches(blob) {
		t.Error("Fingerprint should match stored blob")
	}
	if got.Size != len(container) {
		t.Errorf("Size = %d, want %d", got.Size, len(container))
	}

	entries, err := db.ListIndex()
	if err != nil {
		t.Fatalf("Failed to list index: %v", err)
	}
	if len(entries) != 2 || entries[0].Group != "Alts" {
		t.Errorf("Unexpected ordering: %+v", entries)
	}

	if err := db.DeleteAccount("ID1"); err != nil {
		t.Fatalf("Failed to delete: %v", err)
	}
	if _, err := db.GetBlob("ID1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	if entry, _ := db.GetIndexEntry("ID1"); entry != nil {
		t.Error("Index entry should be gone")
	}
	if err := db.DeleteAccount("ID1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestReplaceBlobs(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Close()

	if err := db.PutAccount(NewIndexEntry("A", "a", "", "Default", []byte("old")), []byte("old")); err != nil {
		t.Fatalf("Failed to put account: %v", err)
	}

	if err := db.ReplaceBlobs(map[string][]byte{"A": []byte("new")}, []byte("check2")); err != nil {
		t.Fatalf("ReplaceBlobs failed: %v", err)
	}

	blob, _ := db.GetBlob("A")
	if string(blob) != "new" {
		t.Errorf("Blob = %s, want new", blob)
	}
	entry, _ := db.GetIndexEntry("A")
	if entry == nil || !entry.Matches([]byte("new")) || entry.Username != "a" {
		t.Errorf("Index not refreshed: %+v", entry)
	}
	check, _ := db.GetCheck()
	if string(check) != "check2" {
		t.Errorf("Check = %s, want check2", check)
	}

	err := db.ReplaceBlobs(map[string][]byte{"missing": []byte("x")}, []byte("check3"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
	check, _ = db.GetCheck()
	if string(check) != "check2" {
		t.Error("Failed replace must not change the check container")
	}
}

func TestForEachBlob(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Close()

	for _, id := range []string{"X", "Y", "Z"} {
		if err := db.PutAccount(NewIndexEntry(id, id, "", "Default", []byte(id)), []byte(id)); err != nil {
			t.Fatalf("Failed to put %s: %v", id, err)
		}
	}

	seen := map[string]string{}
	err := db.ForEachBlob(func(id string, container []byte) error {
		seen[id] = string(container)
		return nil
	})
	if err != nil {
		t.Fatalf("ForEachBlob failed: %v", err)
	}
	if len(seen) != 3 || seen["Y"] != "Y" {
		t.Errorf("Unexpected blobs: %v", seen)
	}
}

func TestVaultID(t *testing.T) {
	db, _ := openTestDB(t)
	defer db.Close()

	if _, err := db.GetVaultID(); err == nil {
		t.Error("Expected error before vault id exists")
	}

	id, err := db.GetOrCreateVaultID()
	if err != nil {
		t.Fatalf("Failed to create vault id: %v", err)
	}
	if len(id) != 32 {
		t.Errorf("Vault id %q should be 32 hex chars", id)
	}

	again, _ := db.GetOrCreateVaultID()
	if again != id {
		t.Error("Vault id should be stable")
	}
}

func TestPersistenceAndCompact(t *testing.T) {
	db, dbPath := openTestDB(t)

	if err := db.PutAccount(NewIndexEntry("A", "a", "", "Default", []byte("data")), []byte("data")); err != nil {
		t.Fatalf("Failed to put account: %v", err)
	}
	if err := db.Compact(); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}
	db.Close()

	db2, err := Open(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen database: %v", err)
	}
	defer db2.Close()

	data, err := db2.GetBlob("A")
	if err != nil {
		t.Fatalf("Failed to get blob: %v", err)
	}
	if string(data) != "data" {
		t.Error("Blob not persisted correctly")
	}
}
