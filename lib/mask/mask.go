// Package mask parses hashcat-style mask patterns into finite, indexable
// candidate spaces.
//
// A mask mixes literal characters with two-character class placeholders:
// ?l lowercase, ?u uppercase, ?d digits, ?s specials, ?a all printable,
// ?w alphanumeric. The parsed pattern supports O(1) index-to-candidate
// decoding, which is what lets the search engine hand out contiguous index
// ranges to workers without duplicated or skipped work.
package mask

import (
	"errors"
	"fmt"
	"math"
)

// Character sets matching the device tool's alphabet definitions.
const (
	CharsetLower   = "abcdefghijklmnopqrstuvwxyz"
	CharsetUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	CharsetDigits  = "0123456789"
	CharsetSpecial = "!@#$%^&*()-_=+[]{}|;:,.<>?"
	CharsetAlnum   = CharsetLower + CharsetUpper + CharsetDigits
	CharsetAll     = CharsetAlnum + CharsetSpecial
)

var (
	// ErrEmptyMask indicates an empty mask, which describes no candidates.
	ErrEmptyMask = errors.New("mask is empty")
	// ErrDanglingPlaceholder indicates a mask ending in a bare '?'.
	ErrDanglingPlaceholder = errors.New("mask ends with a dangling '?'")
	// ErrUnknownClass indicates a '?' followed by an unrecognized class character.
	ErrUnknownClass = errors.New("unknown mask character class")
	// ErrKeyspaceOverflow indicates a mask whose cardinality exceeds uint64.
	ErrKeyspaceOverflow = errors.New("mask keyspace exceeds the addressable range")
)

// classCharsets maps placeholder class characters to their alphabets.
var classCharsets = map[byte]string{ //nolint:gochecknoglobals // Fixed class table
	'l': CharsetLower,
	'u': CharsetUpper,
	'd': CharsetDigits,
	's': CharsetSpecial,
	'a': CharsetAll,
	'w': CharsetAlnum,
}

// position is one mask position: a literal contributes a single fixed
// character, a class placeholder contributes its whole alphabet.
type position struct {
	alphabet string
}

// Pattern is a parsed mask. It is immutable after Parse and safe for
// concurrent use.
type Pattern struct {
	source      string
	positions   []position
	cardinality uint64
}

// Parse validates a mask string and computes its cardinality without
// materializing the space. Parse errors are configuration errors and are
// surfaced before any search starts.
func Parse(source string) (*Pattern, error) {
	if source == "" {
		return nil, ErrEmptyMask
	}

	var positions []position

	for i := 0; i < len(source); i++ {
		if source[i] != '?' {
			positions = append(positions, position{alphabet: source[i : i+1]})
			continue
		}

		if i+1 >= len(source) {
			return nil, fmt.Errorf("%w: %q", ErrDanglingPlaceholder, source)
		}

		charset, ok := classCharsets[source[i+1]]
		if !ok {
			return nil, fmt.Errorf("%w: %q in mask %q", ErrUnknownClass, source[i:i+2], source)
		}

		positions = append(positions, position{alphabet: charset})
		i++
	}

	cardinality := uint64(1)
	for _, pos := range positions {
		size := uint64(len(pos.alphabet))
		if cardinality > math.MaxUint64/size {
			return nil, fmt.Errorf("%w: %q", ErrKeyspaceOverflow, source)
		}
		cardinality *= size
	}

	return &Pattern{source: source, positions: positions, cardinality: cardinality}, nil
}

// Cardinality returns the number of candidates the pattern describes:
// the product of per-position alphabet sizes.
func (p *Pattern) Cardinality() uint64 {
	return p.cardinality
}

// Length returns the number of positions in the pattern.
func (p *Pattern) Length() int {
	return len(p.positions)
}

// String returns the original mask source.
func (p *Pattern) String() string {
	return p.source
}

// At decodes index i into its candidate string. The index is interpreted as
// a mixed-radix number over the per-position alphabet sizes with the
// rightmost position varying fastest (odometer order); every consumer of
// mask indices relies on that ordering. Indices at or beyond Cardinality
// panic, since they indicate a partitioning bug upstream.
func (p *Pattern) At(i uint64) string {
	if i >= p.cardinality {
		panic(fmt.Sprintf("mask index %d out of range [0,%d)", i, p.cardinality))
	}

	buf := make([]byte, len(p.positions))
	for pos := len(p.positions) - 1; pos >= 0; pos-- {
		size := uint64(len(p.positions[pos].alphabet))
		buf[pos] = p.positions[pos].alphabet[i%size]
		i /= size
	}

	return string(buf)
}

// AppendAt is the allocation-lean variant of At for the search hot path:
// it appends the decoded candidate to dst and returns the extended slice.
func (p *Pattern) AppendAt(dst []byte, i uint64) []byte {
	start := len(dst)
	dst = append(dst, make([]byte, len(p.positions))...)

	for pos := len(p.positions) - 1; pos >= 0; pos-- {
		size := uint64(len(p.positions[pos].alphabet))
		dst[start+pos] = p.positions[pos].alphabet[i%size]
		i /= size
	}

	return dst
}

// CharsetByName resolves a bruteforce charset name to its alphabet.
// Recognized names are lower, upper, digits, alnum and all.
func CharsetByName(name string) (string, error) {
	switch name {
	case "lower":
		return CharsetLower, nil
	case "upper":
		return CharsetUpper, nil
	case "digits":
		return CharsetDigits, nil
	case "alnum":
		return CharsetAlnum, nil
	case "all":
		return CharsetAll, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownClass, name)
	}
}
