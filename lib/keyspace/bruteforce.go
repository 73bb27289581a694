package keyspace

import (
	"errors"
	"fmt"
	"math"
)

// Bruteforce errors are configuration errors surfaced before any search.
var (
	ErrBadLengthRange     = errors.New("bruteforce length range is invalid")
	ErrEmptyCharset       = errors.New("bruteforce charset is empty")
	ErrBruteforceOverflow = errors.New("bruteforce keyspace exceeds the addressable range")
)

// BruteforceSpace enumerates every string over a charset from minLen to
// maxLen characters, shorter lengths first. Within a length, indices decode
// like a base-len(charset) odometer with the rightmost character varying
// fastest, matching the mask addressing convention.
type BruteforceSpace struct {
	charset string
	minLen  int
	maxLen  int
	// bucketStart[k] is the first global index of length minLen+k;
	// the final entry is the total size.
	bucketStart []uint64
}

// NewBruteforceSpace validates the parameters and precomputes the length
// bucket offsets.
func NewBruteforceSpace(charset string, minLen, maxLen int) (*BruteforceSpace, error) {
	if len(charset) == 0 {
		return nil, ErrEmptyCharset
	}

	if minLen < 1 || maxLen < minLen {
		return nil, fmt.Errorf("%w: min %d, max %d", ErrBadLengthRange, minLen, maxLen)
	}

	base := uint64(len(charset))
	bucketStart := make([]uint64, 0, maxLen-minLen+2)
	bucketStart = append(bucketStart, 0)

	var total uint64
	for length := minLen; length <= maxLen; length++ {
		bucket := uint64(1)
		for i := 0; i < length; i++ {
			if bucket > math.MaxUint64/base {
				return nil, fmt.Errorf("%w: charset %d, length %d", ErrBruteforceOverflow, len(charset), length)
			}
			bucket *= base
		}

		if total > math.MaxUint64-bucket {
			return nil, fmt.Errorf("%w: charset %d, max length %d", ErrBruteforceOverflow, len(charset), maxLen)
		}
		total += bucket
		bucketStart = append(bucketStart, total)
	}

	return &BruteforceSpace{
		charset:     charset,
		minLen:      minLen,
		maxLen:      maxLen,
		bucketStart: bucketStart,
	}, nil
}

// Size returns the total candidate count: the sum of charset^len over the
// length range.
func (s *BruteforceSpace) Size() uint64 {
	return s.bucketStart[len(s.bucketStart)-1]
}

// At locates the length bucket for index i, then decodes the remainder as a
// fixed-length base-N number.
func (s *BruteforceSpace) At(i uint64) string {
	if i >= s.Size() {
		panic(fmt.Sprintf("bruteforce index %d out of range [0,%d)", i, s.Size()))
	}

	bucket := 0
	for i >= s.bucketStart[bucket+1] {
		bucket++
	}

	length := s.minLen + bucket
	rem := i - s.bucketStart[bucket]
	base := uint64(len(s.charset))

	buf := make([]byte, length)
	for pos := length - 1; pos >= 0; pos-- {
		buf[pos] = s.charset[rem%base]
		rem /= base
	}

	return string(buf)
}

// Label describes the space for logging.
func (s *BruteforceSpace) Label() string {
	return fmt.Sprintf("bruteforce %d-%d chars over %d-char set", s.minLen, s.maxLen, len(s.charset))
}
