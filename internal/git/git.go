package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// GitStatus describes how a vault directory relates to its git repository
type GitStatus struct {
	IsRepo             bool
	VaultFile          string
	VaultTracked       bool
	VaultIgnored       bool
	TrackedPlaintext   []string // Plaintext exports tracked by git (bad)
	UnignoredPlaintext []string // Plaintext exports not in .gitignore (warning)
}

// IsGitRepo checks if the working directory is inside a git repository
func IsGitRepo(workDir string) bool {
	cmd := exec.Command("git", "rev-parse", "--is-inside-work-tree")
	cmd.Dir = workDir
	return cmd.Run() == nil
}

// IsTracked checks if a file is tracked by git
func IsTracked(workDir, path string) bool {
	cmd := exec.Command("git", "ls-files", "--", path)
	cmd.Dir = workDir
	output, err := cmd.Output()
	if err != nil {
		return false
	}
	return len(strings.TrimSpace(string(output))) > 0
}

// IsIgnored checks if a file is ignored by git (handles all .gitignore files)
func IsIgnored(workDir, path string) bool {
	cmd := exec.Command("git", "check-ignore", "-q", "--", path)
	cmd.Dir = workDir
	// exit code 0 means ignored
	return cmd.Run() == nil
}

// CheckVault reports the git status of the vault file and of any plaintext
// account exports found next to it.
func CheckVault(workDir, vaultFile string, plaintextFiles []string) (*GitStatus, error) {
	status := &GitStatus{VaultFile: vaultFile}
	if !IsGitRepo(workDir) {
		return status, nil
	}
	status.IsRepo = true

	status.VaultTracked = IsTracked(workDir, vaultFile)
	status.VaultIgnored = IsIgnored(workDir, vaultFile)

	for _, file := range plaintextFiles {
		if IsTracked(workDir, file) {
			status.TrackedPlaintext = append(status.TrackedPlaintext, file)
		} else if !IsIgnored(workDir, file) {
			status.UnignoredPlaintext = append(status.UnignoredPlaintext, file)
		}
	}
	return status, nil
}

// FormatGitStatus formats git status for display
func FormatGitStatus(status *GitStatus) string {
	if status == nil || !status.IsRepo {
		return ""
	}

	var result strings.Builder
	result.WriteString("\nGit Integration:\n")

	switch {
	case status.VaultTracked:
		fmt.Fprintf(&result, "   ok: %s is tracked by git (accounts are encrypted)\n", status.VaultFile)
	case status.VaultIgnored:
		fmt.Fprintf(&result, "   ok: %s is in .gitignore\n", status.VaultFile)
	default:
		fmt.Fprintf(&result, "   warning: %s is neither tracked nor ignored\n", status.VaultFile)
	}

	if len(status.TrackedPlaintext) > 0 {
		fmt.Fprintf(&result, "   error: %d plaintext account file(s) tracked by git:\n", len(status.TrackedPlaintext))
		for _, file := range status.TrackedPlaintext {
			fmt.Fprintf(&result, "      - %s (run: git rm --cached %s)\n", file, file)
		}
	}
	for _, file := range status.UnignoredPlaintext {
		fmt.Fprintf(&result, "   warning: %s not in .gitignore (add to .gitignore)\n", file)
	}

	return result.String()
}
