package digest

import (
	"encoding/binary"
	"math/bits"
)

const (
	MD5Size      = 16 // Digest size in bytes
	MD5BlockSize = 64 // Compression block size in bytes
)

var md5Init = [4]uint32{0x67452301, 0xefcdab89, 0x98badcfe, 0x10325476}

// md5T holds floor(abs(sin(i+1)) * 2^32) for i in 0..63.
var md5T = [64]uint32{
	0xd76aa478, 0xe8c7b756, 0x242070db, 0xc1bdceee,
	0xf57c0faf, 0x4787c62a, 0xa8304613, 0xfd469501,
	0x698098d8, 0x8b44f7af, 0xffff5bb1, 0x895cd7be,
	0x6b901122, 0xfd987193, 0xa679438e, 0x49b40821,
	0xf61e2562, 0xc040b340, 0x265e5a51, 0xe9b6c7aa,
	0xd62f105d, 0x02441453, 0xd8a1e681, 0xe7d3fbc8,
	0x21e1cde6, 0xc33707d6, 0xf4d50d87, 0x455a14ed,
	0xa9e3e905, 0xfcefa3f8, 0x676f02d9, 0x8d2a4c8a,
	0xfffa3942, 0x8771f681, 0x6d9d6122, 0xfde5380c,
	0xa4beea44, 0x4bdecfa9, 0xf6bb4b60, 0xbebfbc70,
	0x289b7ec6, 0xeaa127fa, 0xd4ef3085, 0x04881d05,
	0xd9d4d039, 0xe6db99e5, 0x1fa27cf8, 0xc4ac5665,
	0xf4292244, 0x432aff97, 0xab9423a7, 0xfc93a039,
	0x655b59c3, 0x8f0ccc92, 0xffeff47d, 0x85845dd1,
	0x6fa87e4f, 0xfe2ce6e0, 0xa3014314, 0x4e0811a1,
	0xf7537e82, 0xbd3af235, 0x2ad7d2bb, 0xeb86d391,
}

var md5Shift = [64]uint8{
	7, 12, 17, 22, 7, 12, 17, 22, 7, 12, 17, 22, 7, 12, 17, 22,
	5, 9, 14, 20, 5, 9, 14, 20, 5, 9, 14, 20, 5, 9, 14, 20,
	4, 11, 16, 23, 4, 11, 16, 23, 4, 11, 16, 23, 4, 11, 16, 23,
	6, 10, 15, 21, 6, 10, 15, 21, 6, 10, 15, 21, 6, 10, 15, 21,
}

// MD5 is a running MD5 computation.
type MD5 struct {
	s   [4]uint32
	x   [MD5BlockSize]byte
	nx  int    // pending bytes in x, always < MD5BlockSize between calls
	len uint64 // total bytes written, including pending ones
}

// NewMD5 returns an MD5 context in its initial state.
func NewMD5() *MD5 {
	d := new(MD5)
	d.Reset()
	return d
}

// Reset restores the initial chaining values and drops pending input.
func (d *MD5) Reset() {
	d.s = md5Init
	d.nx = 0
	d.len = 0
}

func (d *MD5) Size() int { return MD5Size }

func (d *MD5) BlockSize() int { return MD5BlockSize }

// Write absorbs p. It never returns an error.
func (d *MD5) Write(p []byte) (int, error) {
	n := len(p)
	d.len += uint64(n)
	if d.nx > 0 {
		c := copy(d.x[d.nx:], p)
		d.nx += c
		if d.nx == MD5BlockSize {
			md5Block(&d.s, d.x[:])
			d.nx = 0
		}
		p = p[c:]
	}
	for len(p) >= MD5BlockSize {
		md5Block(&d.s, p[:MD5BlockSize])
		p = p[MD5BlockSize:]
	}
	if len(p) > 0 {
		d.nx = copy(d.x[:], p)
	}
	return n, nil
}

// Sum appends the digest of everything written so far to b.
func (d *MD5) Sum(b []byte) []byte {
	d0 := *d
	sum := d0.checkSum()
	return append(b, sum[:]...)
}

func (d *MD5) checkSum() [MD5Size]byte {
	bitLen := d.len << 3

	var pad [MD5BlockSize]byte
	pad[0] = 0x80
	if rem := d.len % MD5BlockSize; rem < 56 {
		d.Write(pad[:56-rem])
	} else {
		d.Write(pad[:MD5BlockSize+56-rem])
	}

	var lenBuf [8]byte
	binary.LittleEndian.PutUint64(lenBuf[:], bitLen)
	d.Write(lenBuf[:])

	if d.nx != 0 {
		panic("digest: md5 padding left a partial block")
	}

	var out [MD5Size]byte
	for i, w := range d.s {
		binary.LittleEndian.PutUint32(out[i*4:], w)
	}
	return out
}

func md5Block(s *[4]uint32, p []byte) {
	var m [16]uint32
	for i := range m {
		m[i] = binary.LittleEndian.Uint32(p[i*4:])
	}

	a, b, c, d := s[0], s[1], s[2], s[3]
	for i := 0; i < 64; i++ {
		var f uint32
		var g int
		switch {
		case i < 16:
			f = (b & c) | (^b & d)
			g = i
		case i < 32:
			f = (b & d) | (c &^ d)
			g = (5*i + 1) % 16
		case i < 48:
			f = b ^ c ^ d
			g = (3*i + 5) % 16
		default:
			f = c ^ (b | ^d)
			g = (7 * i) % 16
		}
		a, b, c, d = d, b+bits.RotateLeft32(a+f+md5T[i]+m[g], int(md5Shift[i])), b, c
	}

	s[0] += a
	s[1] += b
	s[2] += c
	s[3] += d
}

// SumMD5 returns the MD5 digest of data.
func SumMD5(data []byte) [MD5Size]byte {
	d := NewMD5()
	d.Write(data)
	return d.checkSum()
}
