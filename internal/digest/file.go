package digest

import (
	"errors"
	"hash"
	"io"
	"os"
)

// FileChunkSize is the read size used when streaming files into a digest.
const FileChunkSize = 8192

// FileSHA256 returns the uppercase hex SHA-256 of the file at path.
// A missing or unreadable file yields EmptySHA256, so an absent file and an
// empty file fingerprint the same.
func FileSHA256(path string) string {
	return fileDigest(path, NewSHA256(), EmptySHA256)
}

// FileMD5 is FileSHA256 for MD5, with EmptyMD5 as the fallback.
func FileMD5(path string) string {
	return fileDigest(path, NewMD5(), EmptyMD5)
}

func fileDigest(path string, h hash.Hash, empty string) string {
	f, err := os.Open(path)
	if err != nil {
		return empty
	}
	defer f.Close()

	buf := make([]byte, FileChunkSize)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			h.Write(buf[:n])
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return empty
		}
	}
	return Hex(h.Sum(nil))
}
