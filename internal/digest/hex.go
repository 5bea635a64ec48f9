package digest

import (
	"encoding/hex"
	"strings"
)

// Digests of the empty input, returned by the file helpers for absent files.
const (
	EmptyMD5    = "D41D8CD98F00B204E9800998ECF8427E"
	EmptySHA256 = "E3B0C44298FC1C149AFBF4C8996FB92427AE41E4649B934CA495991B7852B855"
)

// Hex renders b as uppercase hex with no separators.
func Hex(b []byte) string {
	return strings.ToUpper(hex.EncodeToString(b))
}

// MD5Hex returns the uppercase hex MD5 of data.
func MD5Hex(data []byte) string {
	sum := SumMD5(data)
	return Hex(sum[:])
}

// MD5String is MD5Hex for string input.
func MD5String(s string) string {
	return MD5Hex([]byte(s))
}

// SHA256Hex returns the uppercase hex SHA-256 of data.
func SHA256Hex(data []byte) string {
	sum := SumSHA256(data)
	return Hex(sum[:])
}
