package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTailBufferKeepsTail(t *testing.T) {
	b := newTailBuffer(8)

	_, _ = b.Write([]byte("0123"))
	assert.Equal(t, "0123", b.String())
	assert.False(t, b.Truncated())

	_, _ = b.Write([]byte("456789"))
	assert.Equal(t, "23456789", b.String())
	assert.True(t, b.Truncated())
	assert.Equal(t, int64(10), b.TotalBytes())
}

func TestTailBufferKeepsFinalMarker(t *testing.T) {
	b := newTailBuffer(64)
	_, _ = b.Write([]byte(strings.Repeat("noise line\n", 100)))
	_, _ = b.Write([]byte("[  PASSED  ] 1 test.\n"))

	assert.Equal(t, "PASSED", NewClassifier(nil).Classify(b.String(), 0).Label())
}

func TestTailBufferDefaultSize(t *testing.T) {
	b := newTailBuffer(0)
	assert.Equal(t, defaultStdoutTailBytes, b.maxBytes)
}
