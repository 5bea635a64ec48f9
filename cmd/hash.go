package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/illarion/ramvault/internal/digest"
)

// Hash prints the uppercase hex digest of files, or of text when given.
// A file that cannot be read hashes as empty input.
func Hash(algo string, text string, paths []string) {
	var ofFile func(string) string
	var ofData func([]byte) string

	switch strings.ToLower(algo) {
	case "sha256", "sha-256":
		ofFile, ofData = digest.FileSHA256, digest.SHA256Hex
	case "md5":
		ofFile, ofData = digest.FileMD5, digest.MD5Hex
	default:
		fmt.Fprintf(os.Stderr, "Unknown algorithm: %s\nSupported: sha256, md5\n", algo)
		os.Exit(1)
	}

	if text != "" || len(paths) == 0 {
		fmt.Println(ofData([]byte(text)))
		return
	}
	for _, path := range paths {
		fmt.Printf("%s  %s\n", ofFile(path), path)
	}
}
