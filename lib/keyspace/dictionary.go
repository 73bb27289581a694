package keyspace

import (
	"bufio"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/avalontools/avalonctl/lib/rules"
)

// scannerBufSize sizes the wordlist read buffer; large public wordlists
// benefit from fewer syscalls and some carry very long lines.
const scannerBufSize = 2 * 1024 * 1024

// DictionaryStream yields wordlist entries in file order, one per line,
// trimmed of surrounding whitespace with empty lines skipped.
type DictionaryStream struct {
	label   string
	scanner *bufio.Scanner
	err     error
}

// NewDictionaryStream wraps a wordlist reader. The caller keeps ownership of
// the reader and closes it after the search finishes.
func NewDictionaryStream(r io.Reader, name string) *DictionaryStream {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scannerBufSize), scannerBufSize)

	return &DictionaryStream{
		label:   fmt.Sprintf("dictionary %s", filepath.Base(name)),
		scanner: scanner,
	}
}

// Next returns the next non-empty trimmed line.
func (s *DictionaryStream) Next() (string, bool) {
	for s.scanner.Scan() {
		word := strings.TrimSpace(s.scanner.Text())
		if word != "" {
			return word, true
		}
	}

	s.err = s.scanner.Err()

	return "", false
}

// Err reports a read failure, if any, once Next has returned false.
func (s *DictionaryStream) Err() error {
	return s.err
}

// Label describes the space for logging.
func (s *DictionaryStream) Label() string {
	return s.label
}

// MutatedStream expands each dictionary word through the rule engine,
// concatenating variant sequences across words in dictionary order.
type MutatedStream struct {
	dict    *DictionaryStream
	pending []string
	next    int
}

// NewMutatedStream wraps a dictionary stream with rule expansion.
func NewMutatedStream(dict *DictionaryStream) *MutatedStream {
	return &MutatedStream{dict: dict}
}

// Next drains the current word's variants before pulling the next word.
func (s *MutatedStream) Next() (string, bool) {
	for s.next >= len(s.pending) {
		word, ok := s.dict.Next()
		if !ok {
			return "", false
		}

		s.pending = rules.Expand(word)
		s.next = 0
	}

	candidate := s.pending[s.next]
	s.next++

	return candidate, true
}

// Err reports a read failure from the underlying dictionary.
func (s *MutatedStream) Err() error {
	return s.dict.Err()
}

// Label describes the space for logging.
func (s *MutatedStream) Label() string {
	return s.dict.Label() + " +rules"
}
