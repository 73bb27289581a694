package keyspace

import (
	"errors"
	"fmt"
	"math"

	"github.com/avalontools/avalonctl/lib/mask"
)

// Hybrid configuration errors.
var (
	ErrBadSuffixLen   = errors.New("hybrid suffix length must be at least 1")
	ErrHybridOverflow = errors.New("hybrid keyspace exceeds the addressable range")
)

// HybridSpace crosses every dictionary word with every fixed-length digit
// suffix: word + suffix. Addressing is word-major — all suffixes of word 0,
// then all suffixes of word 1 — so contiguous ranges keep a worker on a
// small set of words.
type HybridSpace struct {
	words     []string
	suffixLen int
	perWord   uint64 // 10^suffixLen
}

// NewHybridSpace builds the space over a preloaded word slice. An empty
// slice yields an empty space, which the engine reports as exhausted
// immediately.
func NewHybridSpace(words []string, suffixLen int) (*HybridSpace, error) {
	if suffixLen < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrBadSuffixLen, suffixLen)
	}

	perWord := uint64(1)
	for i := 0; i < suffixLen; i++ {
		if perWord > math.MaxUint64/10 {
			return nil, fmt.Errorf("%w: suffix length %d", ErrHybridOverflow, suffixLen)
		}
		perWord *= 10
	}

	if len(words) > 0 && perWord > math.MaxUint64/uint64(len(words)) {
		return nil, fmt.Errorf("%w: %d words, suffix length %d", ErrHybridOverflow, len(words), suffixLen)
	}

	return &HybridSpace{words: words, suffixLen: suffixLen, perWord: perWord}, nil
}

// Size returns len(words) * 10^suffixLen.
func (s *HybridSpace) Size() uint64 {
	return uint64(len(s.words)) * s.perWord
}

// At splits index i into a word index and a suffix value, zero-padding the
// suffix to the configured length.
func (s *HybridSpace) At(i uint64) string {
	if i >= s.Size() {
		panic(fmt.Sprintf("hybrid index %d out of range [0,%d)", i, s.Size()))
	}

	word := s.words[i/s.perWord]
	rem := i % s.perWord

	buf := make([]byte, len(word)+s.suffixLen)
	copy(buf, word)
	for pos := len(buf) - 1; pos >= len(word); pos-- {
		buf[pos] = mask.CharsetDigits[rem%10]
		rem /= 10
	}

	return string(buf)
}

// Label describes the space for logging.
func (s *HybridSpace) Label() string {
	return fmt.Sprintf("hybrid %d words + %d-digit suffix", len(s.words), s.suffixLen)
}
