package core

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/illarion/ramvault/internal/account"
	"github.com/illarion/ramvault/internal/crypto"
)

var testParams = crypto.KDFParams{Time: 1, Memory: 64, Threads: 1}

func testCodec() *crypto.Codec {
	return crypto.NewCodec(crypto.WithKDFParams(testParams))
}

func newTestVault(t *testing.T) *Vault {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	v, err := New(t.TempDir(), WithCodec(testCodec()), WithLogger(logger))
	if err != nil {
		t.Fatalf("failed to create vault: %v", err)
	}
	return v
}

func initTestVault(t *testing.T, password string) *Vault {
	t.Helper()

	v := newTestVault(t)
	if err := v.Init([]byte(password)); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	return v
}

func testAccount(username, token string) *account.Account {
	a := account.New(token)
	a.Valid = true
	a.Username = username
	return a
}

func TestInit(t *testing.T) {
	v := newTestVault(t)

	if err := v.Init(nil); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}
	if v.Exists() {
		t.Fatal("vault file should not exist after a failed init")
	}

	if err := v.Init([]byte("password")); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(v.Dir(), VaultFile)); err != nil {
		t.Fatalf("vault file not created: %v", err)
	}

	if err := v.Init([]byte("password")); !errors.Is(err, ErrAlreadyExists) {
		t.Errorf("expected ErrAlreadyExists, got %v", err)
	}

	vaultID, err := v.GetVaultID()
	if err != nil || vaultID == "" {
		t.Errorf("expected vault id after init, got %q (%v)", vaultID, err)
	}
}

func TestNotInitialized(t *testing.T) {
	v := newTestVault(t)
	ctx := context.Background()

	if err := v.VerifyPassword([]byte("password")); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("VerifyPassword: expected ErrNotInitialized, got %v", err)
	}
	if _, err := v.List(ctx); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("List: expected ErrNotInitialized, got %v", err)
	}
	if _, err := v.Status(ctx); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Status: expected ErrNotInitialized, got %v", err)
	}
	if err := v.Compact(); !errors.Is(err, ErrNotInitialized) {
		t.Errorf("Compact: expected ErrNotInitialized, got %v", err)
	}
}

func TestWrongPassword(t *testing.T) {
	v := initTestVault(t, "correct")
	ctx := context.Background()

	if err := v.VerifyPassword([]byte("correct")); err != nil {
		t.Fatalf("VerifyPassword with correct password failed: %v", err)
	}
	if err := v.VerifyPassword([]byte("wrong")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("expected ErrWrongPassword, got %v", err)
	}
	if err := v.VerifyPassword(nil); !errors.Is(err, ErrPasswordRequired) {
		t.Errorf("expected ErrPasswordRequired, got %v", err)
	}

	if _, err := v.AddAccount(ctx, testAccount("builderman", "token"), []byte("wrong")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("AddAccount: expected ErrWrongPassword, got %v", err)
	}

	if _, err := v.AddAccount(ctx, testAccount("builderman", "token"), []byte("correct")); err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}
	if _, err := v.GetAccount(ctx, "builderman", []byte("wrong")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("GetAccount: expected ErrWrongPassword, got %v", err)
	}
}

func TestAddGetAccount(t *testing.T) {
	v := initTestVault(t, "password")
	ctx := context.Background()
	password := []byte("password")

	a := testAccount("Builderman", "secret-token")
	a.Group = "Main"
	a.SetAlias("builder")
	a.SetPassword("hunter2")
	a.Fields["note"] = "alt"

	replaced, err := v.AddAccount(ctx, a, password)
	if err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}
	if replaced {
		t.Error("first add should not replace")
	}

	// Username lookup is case-insensitive, id lookup works too
	for _, ref := range []string{"builderman", "BUILDERMAN", a.ID(), strings.ToLower(a.ID())} {
		got, err := v.GetAccount(ctx, ref, password)
		if err != nil {
			t.Fatalf("GetAccount(%q) failed: %v", ref, err)
		}
		if got.SecurityToken != "secret-token" || got.Alias() != "builder" || got.Password() != "hunter2" {
			t.Errorf("GetAccount(%q) returned %+v", ref, got)
		}
		if got.Group != "Main" || got.Fields["note"] != "alt" {
			t.Errorf("GetAccount(%q) lost group or fields: %+v", ref, got)
		}
	}

	a.SecurityToken = "rotated-token"
	replaced, err = v.AddAccount(ctx, a, password)
	if err != nil {
		t.Fatalf("AddAccount (replace) failed: %v", err)
	}
	if !replaced {
		t.Error("second add should replace")
	}
	got, err := v.GetAccount(ctx, "builderman", password)
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if got.SecurityToken != "rotated-token" {
		t.Errorf("expected rotated token, got %q", got.SecurityToken)
	}

	if _, err := v.GetAccount(ctx, "nobody", password); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("expected ErrAccountNotFound, got %v", err)
	}
	if _, err := v.AddAccount(ctx, account.New(""), password); !errors.Is(err, ErrInvalidAccount) {
		t.Errorf("expected ErrInvalidAccount, got %v", err)
	}
}

func TestListDoesNotNeedPassword(t *testing.T) {
	v := initTestVault(t, "password")
	ctx := context.Background()
	password := []byte("password")

	for _, a := range []*account.Account{
		testAccount("zed", "t1"),
		testAccount("amy", "t2"),
		testAccount("bob", "t3"),
	} {
		if _, err := v.AddAccount(ctx, a, password); err != nil {
			t.Fatalf("AddAccount failed: %v", err)
		}
	}

	entries, err := v.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(entries))
	}
	want := []string{"amy", "bob", "zed"}
	for i, e := range entries {
		if e.Username != want[i] {
			t.Errorf("entry %d: expected %s, got %s", i, want[i], e.Username)
		}
		if e.Size < crypto.MinContainerSize {
			t.Errorf("entry %d: unexpected container size %d", i, e.Size)
		}
	}
}

func TestRemoveAccounts(t *testing.T) {
	v := initTestVault(t, "password")
	ctx := context.Background()
	password := []byte("password")

	for _, name := range []string{"alice", "bob"} {
		if _, err := v.AddAccount(ctx, testAccount(name, "token-"+name), password); err != nil {
			t.Fatalf("AddAccount failed: %v", err)
		}
	}

	if _, err := v.RemoveAccounts(ctx, []string{"alice"}, []byte("wrong")); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}

	removed, err := v.RemoveAccounts(ctx, []string{"alice", "missing"}, password)
	if err != nil {
		t.Fatalf("RemoveAccounts failed: %v", err)
	}
	if len(removed) != 1 || removed[0] != account.RefToID("alice") {
		t.Errorf("expected alice removed, got %v", removed)
	}

	entries, err := v.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 1 || entries[0].Username != "bob" {
		t.Errorf("expected only bob to remain, got %+v", entries)
	}
}

func TestChangePassword(t *testing.T) {
	v := initTestVault(t, "old")
	ctx := context.Background()

	if _, err := v.AddAccount(ctx, testAccount("alice", "token-a"), []byte("old")); err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}
	if _, err := v.AddAccount(ctx, testAccount("bob", "token-b"), []byte("old")); err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}

	if err := v.ChangePassword(ctx, []byte("wrong"), []byte("new")); !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}
	if err := v.ChangePassword(ctx, []byte("old"), nil); !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("expected ErrPasswordRequired, got %v", err)
	}

	if err := v.ChangePassword(ctx, []byte("old"), []byte("new")); err != nil {
		t.Fatalf("ChangePassword failed: %v", err)
	}

	if err := v.VerifyPassword([]byte("old")); !errors.Is(err, ErrWrongPassword) {
		t.Errorf("old password should no longer verify, got %v", err)
	}
	if err := v.VerifyPassword([]byte("new")); err != nil {
		t.Errorf("new password should verify: %v", err)
	}

	for name, token := range map[string]string{"alice": "token-a", "bob": "token-b"} {
		a, err := v.GetAccount(ctx, name, []byte("new"))
		if err != nil {
			t.Fatalf("GetAccount(%s) with new password failed: %v", name, err)
		}
		if a.SecurityToken != token {
			t.Errorf("%s: expected %s, got %s", name, token, a.SecurityToken)
		}
		if _, err := v.GetAccount(ctx, name, []byte("old")); !errors.Is(err, ErrWrongPassword) {
			t.Errorf("%s: old password should fail, got %v", name, err)
		}
	}

	// Index entries are refreshed with the new containers
	entries, err := v.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	for _, e := range entries {
		a, err := v.GetAccount(ctx, e.ID, []byte("new"))
		if err != nil || a.Username != e.Username {
			t.Errorf("index entry %s does not match account: %v", e.ID, err)
		}
	}
}

func TestStatus(t *testing.T) {
	v := initTestVault(t, "password")
	ctx := context.Background()

	if _, err := v.AddAccount(ctx, testAccount("alice", "token"), []byte("password")); err != nil {
		t.Fatalf("AddAccount failed: %v", err)
	}
	plain := filepath.Join(v.Dir(), AccountDataFile)
	if err := os.WriteFile(plain, []byte("[]"), 0600); err != nil {
		t.Fatalf("failed to write plaintext export: %v", err)
	}

	status, err := v.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}

	if status.VaultID == "" {
		t.Error("expected vault id")
	}
	if len(status.Accounts) != 1 || status.Accounts[0].Username != "alice" {
		t.Errorf("unexpected accounts: %+v", status.Accounts)
	}
	if status.TotalSize != int64(status.Accounts[0].Size) {
		t.Errorf("expected total size %d, got %d", status.Accounts[0].Size, status.TotalSize)
	}
	if len(status.Fingerprint) != 64 {
		t.Errorf("expected 64 hex fingerprint, got %q", status.Fingerprint)
	}
	if status.KDFParams != testParams {
		t.Errorf("expected test params, got %+v", status.KDFParams)
	}
	if status.Created.IsZero() || status.Modified.Before(status.Created) {
		t.Errorf("bad timestamps: created %v modified %v", status.Created, status.Modified)
	}
	if len(status.PlaintextExports) != 1 || status.PlaintextExports[0] != AccountDataFile {
		t.Errorf("expected plaintext export to be reported, got %v", status.PlaintextExports)
	}
}

func TestCompact(t *testing.T) {
	v := initTestVault(t, "password")
	ctx := context.Background()
	password := []byte("password")

	for i := 0; i < 20; i++ {
		name := "user" + string(rune('a'+i))
		if _, err := v.AddAccount(ctx, testAccount(name, "token"), password); err != nil {
			t.Fatalf("AddAccount failed: %v", err)
		}
	}
	if err := v.Compact(); err != nil {
		t.Fatalf("Compact failed: %v", err)
	}

	entries, err := v.List(ctx)
	if err != nil {
		t.Fatalf("List after compact failed: %v", err)
	}
	if len(entries) != 20 {
		t.Errorf("expected 20 entries after compact, got %d", len(entries))
	}
	if err := v.VerifyPassword(password); err != nil {
		t.Errorf("password check lost in compact: %v", err)
	}
}
