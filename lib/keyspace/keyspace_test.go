package keyspace

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPartitionProperties(t *testing.T) {
	tests := []struct {
		n uint64
		w int
	}{
		{n: 0, w: 4},
		{n: 1, w: 4},
		{n: 3, w: 4},
		{n: 4, w: 4},
		{n: 5, w: 4},
		{n: 100, w: 7},
		{n: 10000, w: 16},
		{n: 17, w: 1},
		{n: 9, w: 0},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d w=%d", tt.n, tt.w), func(t *testing.T) {
			ranges := Partition(tt.n, tt.w)

			if tt.n == 0 {
				assert.Empty(t, ranges)

				return
			}

			// Union is exactly [0, n) with no gaps or overlap.
			var cursor uint64
			var total uint64
			var maxLen, minLen uint64

			minLen = tt.n + 1
			for _, r := range ranges {
				require.Equal(t, cursor, r.Start, "gap or overlap at %d", r.Start)
				require.Greater(t, r.End, r.Start, "empty range")
				cursor = r.End
				total += r.Len()

				if r.Len() > maxLen {
					maxLen = r.Len()
				}
				if r.Len() < minLen {
					minLen = r.Len()
				}
			}

			assert.Equal(t, tt.n, cursor)
			assert.Equal(t, tt.n, total)
			assert.LessOrEqual(t, maxLen-minLen, uint64(1), "range sizes differ by more than one")

			w := tt.w
			if w < 1 {
				w = 1
			}
			assert.LessOrEqual(t, len(ranges), w)
		})
	}
}

func TestHybridSpaceEnumeration(t *testing.T) {
	// One word with a two-digit suffix yields exactly the hundred
	// zero-padded combinations.
	space, err := NewHybridSpace([]string{"miner"}, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(100), space.Size())

	seen := make(map[string]struct{}, 100)
	for i := uint64(0); i < space.Size(); i++ {
		seen[space.At(i)] = struct{}{}
	}

	assert.Len(t, seen, 100)
	assert.Contains(t, seen, "miner00")
	assert.Contains(t, seen, "miner07")
	assert.Contains(t, seen, "miner42")
	assert.Contains(t, seen, "miner99")
	assert.NotContains(t, seen, "miner100")
	assert.NotContains(t, seen, "miner0")
}

func TestHybridSpaceWordMajorOrder(t *testing.T) {
	space, err := NewHybridSpace([]string{"a", "b"}, 1)
	require.NoError(t, err)
	require.Equal(t, uint64(20), space.Size())

	assert.Equal(t, "a0", space.At(0))
	assert.Equal(t, "a9", space.At(9))
	assert.Equal(t, "b0", space.At(10))
	assert.Equal(t, "b9", space.At(19))
}

func TestHybridSpaceErrors(t *testing.T) {
	_, err := NewHybridSpace([]string{"x"}, 0)
	assert.ErrorIs(t, err, ErrBadSuffixLen)

	_, err = NewHybridSpace([]string{"x"}, 30)
	assert.ErrorIs(t, err, ErrHybridOverflow)
}

func TestHybridSpaceEmptyWords(t *testing.T) {
	space, err := NewHybridSpace(nil, 2)
	require.NoError(t, err)

	assert.Zero(t, space.Size())
}

func TestBruteforceSpaceSize(t *testing.T) {
	tests := []struct {
		name     string
		charset  string
		minLen   int
		maxLen   int
		expected uint64
	}{
		{name: "binary 1-3", charset: "ab", minLen: 1, maxLen: 3, expected: 2 + 4 + 8},
		{name: "digits exactly 4", charset: "0123456789", minLen: 4, maxLen: 4, expected: 10000},
		{name: "single char", charset: "x", minLen: 1, maxLen: 5, expected: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			space, err := NewBruteforceSpace(tt.charset, tt.minLen, tt.maxLen)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, space.Size())
		})
	}
}

func TestBruteforceSpaceOrder(t *testing.T) {
	space, err := NewBruteforceSpace("ab", 1, 2)
	require.NoError(t, err)
	require.Equal(t, uint64(6), space.Size())

	// Shorter lengths first, then odometer order within a length.
	expected := []string{"a", "b", "aa", "ab", "ba", "bb"}
	for i, want := range expected {
		assert.Equal(t, want, space.At(uint64(i)))
	}
}

func TestBruteforceSpaceErrors(t *testing.T) {
	_, err := NewBruteforceSpace("", 1, 3)
	assert.ErrorIs(t, err, ErrEmptyCharset)

	_, err = NewBruteforceSpace("ab", 0, 3)
	assert.ErrorIs(t, err, ErrBadLengthRange)

	_, err = NewBruteforceSpace("ab", 3, 2)
	assert.ErrorIs(t, err, ErrBadLengthRange)

	_, err = NewBruteforceSpace("abcdefghijklmnopqrstuvwxyz", 1, 40)
	assert.ErrorIs(t, err, ErrBruteforceOverflow)
}

func TestBruteforceSpaceOutOfRangePanics(t *testing.T) {
	space, err := NewBruteforceSpace("ab", 1, 1)
	require.NoError(t, err)

	assert.Panics(t, func() { space.At(2) })
}
