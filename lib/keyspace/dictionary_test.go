package keyspace

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drain(t *testing.T, s Stream) []string {
	t.Helper()

	var out []string
	for {
		candidate, ok := s.Next()
		if !ok {
			break
		}

		out = append(out, candidate)
	}

	require.NoError(t, s.Err())

	return out
}

func TestDictionaryStream(t *testing.T) {
	input := "admin\npassword\n\n  miner  \n\nroot\n"
	stream := NewDictionaryStream(strings.NewReader(input), "words.txt")

	assert.Equal(t, []string{"admin", "password", "miner", "root"}, drain(t, stream))
}

func TestDictionaryStreamEmpty(t *testing.T) {
	stream := NewDictionaryStream(strings.NewReader("\n\n  \n"), "empty.txt")

	assert.Empty(t, drain(t, stream))
}

func TestDictionaryStreamLabel(t *testing.T) {
	stream := NewDictionaryStream(strings.NewReader(""), "/data/wordlists/rockyou.txt")

	assert.Equal(t, "dictionary rockyou.txt", stream.Label())
}

func TestMutatedStreamExpandsInOrder(t *testing.T) {
	stream := NewMutatedStream(NewDictionaryStream(strings.NewReader("pass\nroot\n"), "w.txt"))
	candidates := drain(t, stream)

	// All variants of the first word precede any variant of the second.
	passEnd := -1
	rootStart := -1
	for i, c := range candidates {
		if strings.HasPrefix(c, "p") || strings.HasPrefix(c, "P") {
			passEnd = i
		}
		if (strings.HasPrefix(c, "r") || strings.HasPrefix(c, "R")) && rootStart == -1 {
			rootStart = i
		}
	}

	require.GreaterOrEqual(t, passEnd, 0)
	require.GreaterOrEqual(t, rootStart, 0)
	assert.Less(t, passEnd, rootStart)

	assert.Contains(t, candidates, "pass")
	assert.Contains(t, candidates, "p4ss")
	assert.Contains(t, candidates, "ROOT")
	assert.Contains(t, candidates, "Root123")
}

func TestMutatedStreamLabel(t *testing.T) {
	stream := NewMutatedStream(NewDictionaryStream(strings.NewReader(""), "w.txt"))

	assert.Equal(t, "dictionary w.txt +rules", stream.Label())
}
