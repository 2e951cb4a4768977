package murmur2

import (
	"testing"

	"github.com/aviddiviner/go-murmur"
	"github.com/stretchr/testify/assert"
)

func sum(data string) uint32 {
	h := New()
	_, _ = h.Write([]byte(data))
	return h.Sum32()
}

func TestFingerprintIgnoresWhitespace(t *testing.T) {
	assert.Equal(t, sum("abc"), sum(" a\tb\r\nc "))
	assert.NotEqual(t, sum("abc"), sum("abd"))
	assert.Equal(t, murmur.MurmurHash2([]byte("abc"), seed), sum("a b c"))
}

func TestHashWrittenInChunks(t *testing.T) {
	data := []byte("some jar\ncontents")
	h := New()
	_, _ = h.Write(data[:5])
	_, _ = h.Write(data[5:])
	assert.Equal(t, sum(string(data)), h.Sum32())

	digest := h.Sum(nil)
	assert.Len(t, digest, h.Size())

	h.Reset()
	_, _ = h.Write([]byte("other"))
	assert.Equal(t, sum("other"), h.Sum32())
}
