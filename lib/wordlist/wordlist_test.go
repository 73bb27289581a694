package wordlist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeWordlist creates a wordlist fixture and returns its path.
func writeWordlist(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "words.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoad(t *testing.T) {
	path := writeWordlist(t, "admin\npassword\n\n  miner42  \n\nroot\n")

	words, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"admin", "password", "miner42", "root"}, words)
}

func TestLoadMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCount(t *testing.T) {
	path := writeWordlist(t, "a\nb\n\nc\n\n\n")

	count, err := Count(path)
	require.NoError(t, err)

	assert.Equal(t, uint64(3), count)
}

func TestResolveLocal(t *testing.T) {
	path := writeWordlist(t, "word\n")

	resolved, err := Resolve(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
}

func TestResolveLocalMissing(t *testing.T) {
	_, err := Resolve(context.Background(), filepath.Join(t.TempDir(), "missing.txt"))
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestIsRemote(t *testing.T) {
	tests := []struct {
		source   string
		expected bool
	}{
		{source: "https://example.com/rockyou.txt", expected: true},
		{source: "http://192.168.1.5/words.txt", expected: true},
		{source: "s3://bucket/words.txt", expected: true},
		{source: "/data/wordlists/rockyou.txt", expected: false},
		{source: "words.txt", expected: false},
		{source: "./relative/words.txt", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.source, func(t *testing.T) {
			assert.Equal(t, tt.expected, isRemote(tt.source))
		})
	}
}

func TestOpen(t *testing.T) {
	path := writeWordlist(t, "streamed\n")

	f, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, f.Close())

	_, err = Open(filepath.Join(t.TempDir(), "gone.txt"))
	assert.ErrorIs(t, err, ErrNotFound)
}
