package crypto

import "bytes"

// Magic identifies container data. It is exactly HeaderSize bytes.
const Magic = "Roblox Account Manager created by ic3w0lf22 @ github.com ......."

var magic = []byte(Magic)

// Header returns a copy of the magic header bytes.
func Header() []byte {
	return bytes.Clone(magic)
}

// HasHeader reports whether data starts with the container magic header.
// It does no cryptographic work.
func HasHeader(data []byte) bool {
	return len(data) >= HeaderSize && bytes.Equal(data[:HeaderSize], magic)
}
