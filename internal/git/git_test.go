package git

import (
	"strings"
	"testing"
)

func TestFormatGitStatusNotRepo(t *testing.T) {
	if got := FormatGitStatus(&GitStatus{}); got != "" {
		t.Errorf("expected empty output outside a repo, got %q", got)
	}
	if got := FormatGitStatus(nil); got != "" {
		t.Errorf("expected empty output for nil status, got %q", got)
	}
}

func TestFormatGitStatus(t *testing.T) {
	tests := []struct {
		name   string
		status GitStatus
		want   []string
		reject []string
	}{
		{
			name:   "tracked vault",
			status: GitStatus{IsRepo: true, VaultFile: ".ramvault", VaultTracked: true},
			want:   []string{"ok: .ramvault is tracked"},
			reject: []string{"error:", "warning:"},
		},
		{
			name:   "ignored vault",
			status: GitStatus{IsRepo: true, VaultFile: ".ramvault", VaultIgnored: true},
			want:   []string{"ok: .ramvault is in .gitignore"},
		},
		{
			name: "plaintext tracked",
			status: GitStatus{
				IsRepo:             true,
				VaultFile:          ".ramvault",
				TrackedPlaintext:   []string{"AccountData.json"},
				UnignoredPlaintext: []string{"AccountData.backup.json"},
			},
			want: []string{
				"warning: .ramvault is neither tracked nor ignored",
				"error: 1 plaintext account file(s) tracked by git",
				"git rm --cached AccountData.json",
				"warning: AccountData.backup.json not in .gitignore",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatGitStatus(&tt.status)
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("output missing %q:\n%s", w, got)
				}
			}
			for _, r := range tt.reject {
				if strings.Contains(got, r) {
					t.Errorf("output unexpectedly contains %q:\n%s", r, got)
				}
			}
		})
	}
}

func TestCheckVaultOutsideRepo(t *testing.T) {
	dir := t.TempDir()
	status, err := CheckVault(dir, ".ramvault", []string{"AccountData.json"})
	if err != nil {
		t.Fatalf("CheckVault failed: %v", err)
	}
	// t.TempDir is normally outside any work tree
	if status.IsRepo {
		t.Skip("temp dir is inside a git work tree")
	}
	if len(status.TrackedPlaintext) != 0 || len(status.UnignoredPlaintext) != 0 {
		t.Errorf("expected no file status outside a repo, got %+v", status)
	}
}
