package keyspace

import (
	"fmt"

	"github.com/avalontools/avalonctl/lib/mask"
)

// MaskSpace exposes a parsed mask pattern as an Indexed space.
type MaskSpace struct {
	pattern *mask.Pattern
}

// NewMaskSpace wraps a parsed pattern. A pattern with zero positions cannot
// exist (mask.Parse rejects empty masks), so Size is always at least 1.
func NewMaskSpace(pattern *mask.Pattern) *MaskSpace {
	return &MaskSpace{pattern: pattern}
}

// Size returns the mask cardinality.
func (s *MaskSpace) Size() uint64 {
	return s.pattern.Cardinality()
}

// At decodes index i through the pattern's mixed-radix addressing.
func (s *MaskSpace) At(i uint64) string {
	return s.pattern.At(i)
}

// Label describes the space for logging.
func (s *MaskSpace) Label() string {
	return fmt.Sprintf("mask %s", s.pattern.String())
}
