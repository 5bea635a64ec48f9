package core

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"
	"golang.org/x/term"

	"github.com/illarion/ramvault/internal/account"
	"github.com/illarion/ramvault/internal/digest"
)

// redactedPrefixLen is how many fingerprint characters replace a secret in diffs
const redactedPrefixLen = 16

// MergeStrategy defines how to handle account conflicts during import
type MergeStrategy int

const (
	StrategyAsk        MergeStrategy = iota // Ask user for each conflict
	StrategyKeepVault                       // Always keep the vault version
	StrategyUseImport                       // Always use the imported version
	StrategyAbort                           // Abort on any conflict
)

// ParseStrategy maps a command line strategy name to a MergeStrategy
func ParseStrategy(name string) (MergeStrategy, error) {
	switch strings.ToLower(name) {
	case "", "ask":
		return StrategyAsk, nil
	case "keep-vault", "vault":
		return StrategyKeepVault, nil
	case "use-import", "import":
		return StrategyUseImport, nil
	case "abort":
		return StrategyAbort, nil
	}
	return StrategyAsk, fmt.Errorf("unknown strategy %q (use ask, keep-vault, use-import or abort)", name)
}

// ConflictResolution defines the user's choice for a specific conflict
type ConflictResolution int

const (
	ResolutionKeepVault ConflictResolution = iota
	ResolutionUseImport
	ResolutionEditMerged
	ResolutionSkip
)

// ConflictResult contains the resolution and optionally the merged account
type ConflictResult struct {
	Resolution ConflictResolution
	Merged     *account.Account // Populated when Resolution == ResolutionEditMerged
}

// ImportResult contains the results of an import
type ImportResult struct {
	Added     []string // Accounts not present in the vault
	Updated   []string // Vault accounts replaced by the imported version
	Unchanged []string // Accounts identical in both
	Skipped   []string // Conflicts resolved in favour of the vault
}

// accountJSON renders an account the way it appears in AccountData.json
func accountJSON(a *account.Account) ([]byte, error) {
	data, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode account %s: %w", a.DisplayName(), err)
	}
	return append(data, '\n'), nil
}

// SameAccount reports whether two accounts encode to identical JSON
func SameAccount(a, b *account.Account) (bool, error) {
	aData, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	bData, err := json.Marshal(b)
	if err != nil {
		return false, err
	}
	return digest.SumSHA256(aData) == digest.SumSHA256(bData), nil
}

// HandleConflict resolves a conflict between the vault and imported version of an account
func HandleConflict(name string, vaultAcct, importAcct *account.Account, strategy MergeStrategy) (*ConflictResult, error) {
	switch strategy {
	case StrategyKeepVault:
		return &ConflictResult{Resolution: ResolutionKeepVault}, nil
	case StrategyUseImport:
		return &ConflictResult{Resolution: ResolutionUseImport}, nil
	case StrategyAbort:
		return &ConflictResult{Resolution: ResolutionSkip}, fmt.Errorf("conflict detected for %s (aborting)", name)
	}

	fmt.Printf("\nwarning: conflict detected: %s\n", name)
	fmt.Printf("   Imported account differs from vault version\n")
	if d, err := redactedDiff(name, vaultAcct, importAcct); err == nil && d != "" {
		fmt.Printf("\n%s", d)
	}
	fmt.Printf("\nOptions:\n")
	fmt.Printf("  [v] Keep vault version\n")
	fmt.Printf("  [i] Use imported version\n")
	fmt.Printf("  [e] Edit merged (opens in $EDITOR)\n")
	fmt.Printf("  [x] Skip this account\n")

	for {
		fmt.Printf("\nYour choice: ")
		choice, err := readChoice()
		if err != nil {
			return &ConflictResult{Resolution: ResolutionSkip}, err
		}

		switch choice {
		case "v":
			return &ConflictResult{Resolution: ResolutionKeepVault}, nil
		case "i":
			return &ConflictResult{Resolution: ResolutionUseImport}, nil
		case "e":
			merged, err := handleEditMerge(vaultAcct, importAcct)
			if err != nil {
				fmt.Printf("Error during merge: %v\n", err)
				continue
			}
			return &ConflictResult{Resolution: ResolutionEditMerged, Merged: merged}, nil
		case "x":
			return &ConflictResult{Resolution: ResolutionSkip}, nil
		default:
			fmt.Printf("Invalid choice. Please enter v, i, e, x\n")
		}
	}
}

// readChoice reads a single character choice from the terminal
func readChoice() (string, error) {
	oldState, err := term.MakeRaw(int(os.Stdin.Fd()))
	if err != nil {
		// Not a terminal
		var input string
		if _, err := fmt.Scanln(&input); err != nil {
			return "", err
		}
		return strings.ToLower(strings.TrimSpace(input)), nil
	}
	defer func() { _ = term.Restore(int(os.Stdin.Fd()), oldState) }()

	buf := make([]byte, 1)
	if _, err := os.Stdin.Read(buf); err != nil {
		return "", err
	}

	choice := strings.ToLower(string(buf[0]))
	fmt.Printf("%s\n", choice)
	return choice, nil
}

// getEditor returns VISUAL, then EDITOR, then a platform default
func getEditor() string {
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}
	if runtime.GOOS == "windows" {
		return "notepad"
	}
	return "vi"
}

// lineDiffs computes a line-mode diff from a to b
func lineDiffs(a, b string) []diffmatchpatch.Diff {
	dmp := diffmatchpatch.New()
	ca, cb, lineArray := dmp.DiffLinesToChars(a, b)
	diffs := dmp.DiffMain(ca, cb, false)
	return dmp.DiffCharsToLines(diffs, lineArray)
}

// createLineDiff wraps only the differing lines of two JSON documents in
// git-style conflict markers.
func createLineDiff(vaultData, importData []byte) []byte {
	return buildConflictFromDiffs(lineDiffs(string(vaultData), string(importData)))
}

// buildConflictFromDiffs converts diff output to conflict-marked content.
// Equal sections pass through, delete/insert runs become conflict hunks.
func buildConflictFromDiffs(diffs []diffmatchpatch.Diff) []byte {
	var buf bytes.Buffer

	writeRun := func(i int, typ diffmatchpatch.Operation) int {
		for i < len(diffs) && diffs[i].Type == typ {
			text := diffs[i].Text
			buf.WriteString(text)
			if len(text) > 0 && text[len(text)-1] != '\n' {
				buf.WriteByte('\n')
			}
			i++
		}
		return i
	}

	i := 0
	for i < len(diffs) {
		if diffs[i].Type == diffmatchpatch.DiffEqual {
			buf.WriteString(diffs[i].Text)
			i++
			continue
		}

		buf.WriteString("<<<<<<< vault\n")
		i = writeRun(i, diffmatchpatch.DiffDelete)
		buf.WriteString("=======\n")
		i = writeRun(i, diffmatchpatch.DiffInsert)
		buf.WriteString(">>>>>>> import\n")
	}

	return buf.Bytes()
}

// invokeEditor opens the editor on filename and waits for it to exit
func invokeEditor(filename string) error {
	editor := getEditor()

	if _, err := exec.LookPath(editor); err != nil {
		return fmt.Errorf("editor '%s' not found: %w\nPlease set VISUAL or EDITOR environment variable", editor, err)
	}

	cmd := exec.Command(editor, filename)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if exitErr, ok := err.(*exec.ExitError); ok {
		return fmt.Errorf("editor exited with code %d", exitErr.ExitCode())
	}
	return err
}

// handleEditMerge lets the user edit a conflict-marked JSON document and
// parses the result back into an account.
func handleEditMerge(vaultAcct, importAcct *account.Account) (*account.Account, error) {
	vaultData, err := accountJSON(vaultAcct)
	if err != nil {
		return nil, err
	}
	importData, err := accountJSON(importAcct)
	if err != nil {
		return nil, err
	}

	tmpFile, err := os.CreateTemp("", "ramvault-merge-*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if err := os.Chmod(tmpFile.Name(), FilePermSecure); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to set temp file permissions: %w", err)
	}
	if _, err := tmpFile.Write(createLineDiff(vaultData, importData)); err != nil {
		tmpFile.Close()
		return nil, fmt.Errorf("failed to write conflict content: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return nil, fmt.Errorf("failed to close temp file: %w", err)
	}

	fmt.Printf("\nopening editor for merge...\n")
	if err := invokeEditor(tmpFile.Name()); err != nil {
		return nil, err
	}

	merged, err := os.ReadFile(tmpFile.Name())
	if err != nil {
		return nil, fmt.Errorf("failed to read edited file: %w", err)
	}
	if hasConflictMarkers(merged) {
		return nil, fmt.Errorf("conflict markers still present")
	}

	result := &account.Account{}
	if err := json.Unmarshal(merged, result); err != nil {
		return nil, fmt.Errorf("merged account is not valid JSON: %w", err)
	}
	if result.SecurityToken == "" {
		return nil, ErrInvalidAccount
	}
	if result.ID() != vaultAcct.ID() {
		return nil, fmt.Errorf("merged account changed username from %q", vaultAcct.Username)
	}
	return result, nil
}

// hasConflictMarkers checks for unresolved conflict markers
func hasConflictMarkers(data []byte) bool {
	return bytes.Contains(data, []byte("<<<<<<<")) ||
		bytes.Contains(data, []byte("=======")) ||
		bytes.Contains(data, []byte(">>>>>>>"))
}

// redact replaces the security token and password with short fingerprints
// so that diffs can be shown without exposing them.
func redact(a *account.Account) *account.Account {
	c := *a
	if c.SecurityToken != "" {
		c.SecurityToken = "sha256:" + digest.SHA256Hex([]byte(a.SecurityToken))[:redactedPrefixLen]
	}
	if a.Password() != "" {
		c.SetPassword("sha256:" + digest.SHA256Hex([]byte(a.Password()))[:redactedPrefixLen])
	}
	return &c
}

func redactedDiff(name string, vaultAcct, otherAcct *account.Account) (string, error) {
	vaultData, err := accountJSON(redact(vaultAcct))
	if err != nil {
		return "", err
	}
	otherData, err := accountJSON(redact(otherAcct))
	if err != nil {
		return "", err
	}
	return GenerateUnifiedDiff(name, vaultData, otherData)
}

// GenerateUnifiedDiff generates a unified diff, or "" if the inputs are identical
func GenerateUnifiedDiff(name string, vaultData, otherData []byte) (string, error) {
	if bytes.Equal(vaultData, otherData) {
		return "", nil
	}

	dmp := diffmatchpatch.New()
	vaultStr := string(vaultData)
	patches := dmp.PatchMake(vaultStr, lineDiffs(vaultStr, string(otherData)))
	if len(patches) == 0 {
		return "", nil
	}

	var result strings.Builder
	fmt.Fprintf(&result, "--- vault/%s\n", name)
	fmt.Fprintf(&result, "+++ file/%s\n", name)
	result.WriteString(dmp.PatchToText(patches))
	return result.String(), nil
}
