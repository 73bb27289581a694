// Package rules expands dictionary words into deterministic mutation
// variants: case permutations, leet substitutions and common suffixes.
//
// Variant order is stable for a given word so that chunked partitioning and
// "first match" reporting stay reproducible across runs: identity first, then
// case variants, then leet variants in map-definition order, then suffix
// variants. Duplicates keep their first position.
package rules

import "strings"

const (
	// MaxCandidateLen drops variants longer than the firmware's password
	// field accepts.
	MaxCandidateLen = 16

	// MaxVariantsPerWord caps the expansion of a single word. The leet cross
	// product doubles per substitutable character, so a long word could
	// otherwise dwarf the rest of the keyspace.
	MaxVariantsPerWord = 256
)

// leetSub is one leet substitution. The slice below fixes the expansion
// order; a map would randomize it between runs.
type leetSub struct {
	from byte
	to   byte
}

// leetTable lists substitutions in the order they are applied.
var leetTable = []leetSub{ //nolint:gochecknoglobals // Fixed substitution table
	{'a', '4'},
	{'e', '3'},
	{'i', '1'},
	{'o', '0'},
	{'s', '5'},
	{'t', '7'},
	{'l', '1'},
}

// commonSuffixes are appended to the lowercase and capitalized bases.
var commonSuffixes = []string{ //nolint:gochecknoglobals // Fixed suffix table
	"!", "1", "12", "123", "1234", "12345",
	"@", "#", "$", "!@#", "!!",
	"01", "99", "00", "007", "69", "666", "777",
	"2020", "2021", "2022", "2023", "2024", "2025", "2026",
}

// Expand produces the mutation variants of a word in their fixed order.
// The same word always yields the same slice.
func Expand(word string) []string {
	if word == "" {
		return nil
	}

	exp := expander{
		seen: make(map[string]struct{}, MaxVariantsPerWord),
		out:  make([]string, 0, MaxVariantsPerWord),
	}

	exp.emit(word)

	lower := strings.ToLower(word)
	capitalized := capitalize(word)
	exp.emit(lower)
	exp.emit(strings.ToUpper(word))
	exp.emit(capitalized)
	exp.emit(swapCase(word))

	exp.emitLeet(lower)

	for _, base := range []string{lower, capitalized} {
		for _, suffix := range commonSuffixes {
			if !exp.emit(base + suffix) {
				return exp.out
			}
		}
	}

	return exp.out
}

// expander accumulates variants, deduplicating and enforcing the caps.
type expander struct {
	seen map[string]struct{}
	out  []string
}

// emit appends a variant unless it is a duplicate or over the length cap.
// It returns false once the per-word cap is reached.
func (e *expander) emit(v string) bool {
	if len(e.out) >= MaxVariantsPerWord {
		return false
	}

	if len(v) == 0 || len(v) > MaxCandidateLen {
		return true
	}

	if _, dup := e.seen[v]; dup {
		return true
	}

	e.seen[v] = struct{}{}
	e.out = append(e.out, v)

	return true
}

// emitLeet walks the substitute-or-not cross product over the word's
// substitutable positions, in table order. The choice vector is treated as a
// binary counter so the order is stable; the all-zero vector is the identity
// and is skipped.
func (e *expander) emitLeet(lower string) {
	var positions []int // index into leetTable per substitutable char position
	var offsets []int   // byte offset of that char in the word

	for off := 0; off < len(lower); off++ {
		for t, sub := range leetTable {
			if lower[off] == sub.from {
				positions = append(positions, t)
				offsets = append(offsets, off)

				break
			}
		}
	}

	if len(positions) == 0 {
		return
	}

	// Bound the cross product; the variant cap in emit would stop the
	// output anyway, but this keeps the loop itself from running 2^n times.
	subs := positions
	if len(subs) > 8 {
		subs = subs[:8]
		offsets = offsets[:8]
	}

	buf := []byte(lower)
	total := uint(1) << len(subs)

	for choice := uint(1); choice < total; choice++ {
		copy(buf, lower)
		for bit := range subs {
			if choice&(1<<bit) != 0 {
				buf[offsets[bit]] = leetTable[subs[bit]].to
			}
		}

		if !e.emit(string(buf)) {
			return
		}
	}
}

// capitalize uppercases the first character and lowercases the rest.
func capitalize(word string) string {
	if word == "" {
		return word
	}

	return strings.ToUpper(word[:1]) + strings.ToLower(word[1:])
}

// swapCase inverts the case of every ASCII letter.
func swapCase(word string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r - 'a' + 'A'
		case r >= 'A' && r <= 'Z':
			return r - 'A' + 'a'
		default:
			return r
		}
	}, word)
}
