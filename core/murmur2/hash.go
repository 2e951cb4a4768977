// Package murmur2 implements the whitespace-stripping MurmurHash2 fingerprint used by CurseForge,
// so that vendored override jars can be matched against CurseForge file fingerprints.
package murmur2

import (
	"encoding/binary"
	"hash"

	"github.com/aviddiviner/go-murmur"
)

const seed = 1

// New returns a hash.Hash32 computing the fingerprint of everything written to it
func New() hash.Hash32 {
	return &fingerprint{}
}

type fingerprint struct {
	// Seeded with the length of the input, so the whole input is buffered
	buf []byte
}

func (f *fingerprint) Write(p []byte) (int, error) {
	f.buf = stripWhitespace(f.buf, p)
	return len(p), nil
}

func stripWhitespace(dst []byte, p []byte) []byte {
	for _, b := range p {
		if b != '\t' && b != '\n' && b != '\r' && b != ' ' {
			dst = append(dst, b)
		}
	}
	return dst
}

// Sum appends the big-endian fingerprint to b
func (f *fingerprint) Sum(b []byte) []byte {
	return binary.BigEndian.AppendUint32(b, f.Sum32())
}

func (f *fingerprint) Sum32() uint32 {
	return murmur.MurmurHash2(f.buf, seed)
}

func (f *fingerprint) Reset() {
	f.buf = f.buf[:0]
}

func (f *fingerprint) Size() int {
	return 4
}

func (f *fingerprint) BlockSize() int {
	return 4
}
