// Package keyspace defines the candidate spaces the search engine draws
// from. A space is either Indexed — finite, with O(1) random access, so the
// engine can split it into contiguous index ranges — or a Stream, where the
// upstream size is unknown (wordlist files) and workers claim consecutive
// chunks from a shared cursor instead.
package keyspace

// Indexed is a finite candidate space with constant-time random access.
// Implementations must be immutable once constructed: At(i) returns the same
// candidate for the same i on every call, from any goroutine.
type Indexed interface {
	// Size returns the total number of candidates.
	Size() uint64
	// At returns the candidate at index i, 0 <= i < Size().
	At(i uint64) string
	// Label describes the space for logging.
	Label() string
}

// Stream yields candidates in a fixed order without a known total. Next is
// not safe for concurrent use; the engine serializes claims on it.
type Stream interface {
	// Next returns the next candidate, or ok=false once exhausted.
	Next() (candidate string, ok bool)
	// Err reports a read failure encountered during streaming, if any.
	Err() error
	// Label describes the space for logging.
	Label() string
}

// Range is a half-open index interval [Start, End) assigned to one worker.
type Range struct {
	Start uint64
	End   uint64
}

// Len returns the number of indices in the range.
func (r Range) Len() uint64 {
	return r.End - r.Start
}

// Partition splits [0, n) into at most w contiguous ranges whose union is
// exactly [0, n) with no overlap. Earlier ranges get the remainder, so sizes
// differ by at most one. Fewer than w ranges are returned when n < w.
func Partition(n uint64, w int) []Range {
	if w < 1 {
		w = 1
	}

	if n == 0 {
		return nil
	}

	count := uint64(w)
	if count > n {
		count = n
	}

	base := n / count
	extra := n % count

	ranges := make([]Range, 0, count)
	var start uint64
	for i := uint64(0); i < count; i++ {
		length := base
		if i < extra {
			length++
		}

		ranges = append(ranges, Range{Start: start, End: start + length})
		start += length
	}

	return ranges
}
