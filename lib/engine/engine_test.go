package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avalontools/avalonctl/lib/auth"
	"github.com/avalontools/avalonctl/lib/keyspace"
	"github.com/avalontools/avalonctl/lib/mask"
)

const testDNA = "0123456789abcdef"

// newOracle builds an oracle whose target is the given password's token.
func newOracle(t *testing.T, password string) *auth.Oracle {
	t.Helper()

	oracle, err := auth.NewOracle(auth.ComputeAuth(password, testDNA), testDNA)
	require.NoError(t, err)

	return oracle
}

// maskSpace parses a mask into an indexed space.
func maskSpace(t *testing.T, source string) keyspace.Indexed {
	t.Helper()

	pattern, err := mask.Parse(source)
	require.NoError(t, err)

	return keyspace.NewMaskSpace(pattern)
}

func TestSearchIndexedFound(t *testing.T) {
	tests := []struct {
		name    string
		mask    string
		planted string
		workers int
	}{
		{name: "single worker", mask: "?d?d?d?d", planted: "7421", workers: 1},
		{name: "multiple workers", mask: "?d?d?d?d", planted: "0317", workers: 8},
		{name: "planted at start", mask: "?d?d?d", planted: "000", workers: 4},
		{name: "planted at end", mask: "?d?d?d", planted: "999", workers: 4},
		{name: "more workers than candidates", mask: "?d", planted: "5", workers: 32},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := New(newOracle(t, tt.planted), Options{Workers: tt.workers, ChunkSize: 16})

			result, err := eng.SearchIndexed(context.Background(), maskSpace(t, tt.mask))
			require.NoError(t, err)

			assert.Equal(t, OutcomeFound, result.Outcome)
			assert.Equal(t, tt.planted, result.Password)
			assert.LessOrEqual(t, result.Tried, maskSpace(t, tt.mask).Size())
			assert.Positive(t, result.Tried)
		})
	}
}

func TestSearchIndexedExhausted(t *testing.T) {
	// The planted password is outside the searched space, so every
	// candidate must be evaluated exactly once.
	space := maskSpace(t, "?d?d?d")
	eng := New(newOracle(t, "not-in-space"), Options{Workers: 4, ChunkSize: 7})

	result, err := eng.SearchIndexed(context.Background(), space)
	require.NoError(t, err)

	assert.Equal(t, OutcomeExhausted, result.Outcome)
	assert.Empty(t, result.Password)
	assert.Equal(t, space.Size(), result.Tried)
}

func TestSearchIndexedEmptySpace(t *testing.T) {
	eng := New(newOracle(t, "whatever"), Options{Workers: 4})

	result, err := eng.SearchIndexed(context.Background(), emptySpace{})
	require.NoError(t, err)

	assert.Equal(t, OutcomeExhausted, result.Outcome)
	assert.Zero(t, result.Tried)
}

func TestSearchIndexedCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	eng := New(newOracle(t, "not-in-space"), Options{Workers: 2, ChunkSize: 10})

	result, err := eng.SearchIndexed(ctx, maskSpace(t, "?d?d?d?d?d?d"))
	require.NoError(t, err)

	assert.Equal(t, OutcomeCancelled, result.Outcome)
	assert.Less(t, result.Tried, uint64(1000000))
}

func TestSearchStreamFound(t *testing.T) {
	stream := &sliceStream{candidates: []string{"alpha", "beta", "gamma", "delta"}}
	eng := New(newOracle(t, "gamma"), Options{Workers: 3, ChunkSize: 2})

	result, err := eng.SearchStream(context.Background(), stream)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFound, result.Outcome)
	assert.Equal(t, "gamma", result.Password)
}

func TestSearchStreamPlantedTriedBound(t *testing.T) {
	// The planted word sits at a known position. Workers past the match
	// finish their in-flight chunks, so the aggregate overshoots by a few
	// chunks at most, never anywhere near the full list.
	const planted = 1000
	const workers = 4
	const chunkSize = 50

	candidates := make([]string, 100000)
	for i := range candidates {
		candidates[i] = fmt.Sprintf("word%06d", i)
	}
	candidates[planted] = "thechosenone"

	stream := &sliceStream{candidates: candidates}
	eng := New(newOracle(t, "thechosenone"), Options{Workers: workers, ChunkSize: chunkSize})

	result, err := eng.SearchStream(context.Background(), stream)
	require.NoError(t, err)

	require.Equal(t, OutcomeFound, result.Outcome)
	assert.Equal(t, "thechosenone", result.Password)
	assert.Less(t, result.Tried, uint64(len(candidates))/2)
}

func TestSearchIndexedHybrid(t *testing.T) {
	space, err := keyspace.NewHybridSpace([]string{"miner"}, 2)
	require.NoError(t, err)

	eng := New(newOracle(t, "miner42"), Options{Workers: 4, ChunkSize: 8})

	result, err := eng.SearchIndexed(context.Background(), space)
	require.NoError(t, err)

	assert.Equal(t, OutcomeFound, result.Outcome)
	assert.Equal(t, "miner42", result.Password)
}

func TestSearchStreamExhausted(t *testing.T) {
	candidates := make([]string, 500)
	for i := range candidates {
		candidates[i] = string(rune('a'+i%26)) + "candidate"
	}

	stream := &sliceStream{candidates: candidates}
	eng := New(newOracle(t, "not-present"), Options{Workers: 4, ChunkSize: 32})

	result, err := eng.SearchStream(context.Background(), stream)
	require.NoError(t, err)

	assert.Equal(t, OutcomeExhausted, result.Outcome)
	assert.Equal(t, uint64(len(candidates)), result.Tried)
}

func TestSearchStreamError(t *testing.T) {
	stream := &sliceStream{candidates: []string{"a", "b"}, failAfter: true}
	eng := New(newOracle(t, "not-present"), Options{Workers: 2})

	_, err := eng.SearchStream(context.Background(), stream)
	assert.Error(t, err)
}

func TestProgressCallback(t *testing.T) {
	var calls atomic.Int64

	eng := New(newOracle(t, "not-in-space"), Options{
		Workers:          2,
		ChunkSize:        5,
		ProgressInterval: time.Millisecond,
		OnProgress: func(p Progress) {
			calls.Add(1)
			assert.Equal(t, uint64(10000), p.Total)
		},
	})

	result, err := eng.SearchIndexed(context.Background(), maskSpace(t, "?d?d?d?d"))
	require.NoError(t, err)
	require.Equal(t, OutcomeExhausted, result.Outcome)

	// The search covers 10000 digests across tiny chunks; at least one
	// tick fires at a 1ms interval.
	assert.Positive(t, calls.Load())
}

func TestResultRate(t *testing.T) {
	result := Result{Tried: 1000, Elapsed: 2 * time.Second}
	assert.InDelta(t, 500.0, result.Rate(), 0.01)

	assert.Zero(t, Result{Tried: 10}.Rate())
}

func TestRecordMatchLowestIndexWins(t *testing.T) {
	st := &searchState{}

	require.NoError(t, st.recordMatch("later", 500))
	require.NoError(t, st.recordMatch("earlier", 100))
	require.NoError(t, st.recordMatch("middle", 300))

	assert.Equal(t, "earlier", st.winner)
	assert.Equal(t, uint64(100), st.winnerIdx)
}

func TestRecordMatchDuplicateIndexFails(t *testing.T) {
	st := &searchState{}

	require.NoError(t, st.recordMatch("x", 7))
	assert.ErrorIs(t, st.recordMatch("x", 7), ErrInternalInconsistency)
}

func TestScanRangeOutOfBounds(t *testing.T) {
	eng := New(newOracle(t, "x"), Options{Workers: 1})
	st := &searchState{}

	err := eng.scanRange(context.Background(), maskSpace(t, "?d"), keyspace.Range{Start: 5, End: 20}, 10, st)
	assert.ErrorIs(t, err, ErrInternalInconsistency)
}

// emptySpace is an Indexed space with no candidates.
type emptySpace struct{}

func (emptySpace) Size() uint64     { return 0 }
func (emptySpace) At(uint64) string { panic("empty space") }
func (emptySpace) Label() string    { return "empty" }

// sliceStream serves a fixed candidate slice, optionally reporting a read
// error after exhaustion.
type sliceStream struct {
	candidates []string
	next       int
	failAfter  bool
}

func (s *sliceStream) Next() (string, bool) {
	if s.next >= len(s.candidates) {
		return "", false
	}

	candidate := s.candidates[s.next]
	s.next++

	return candidate, true
}

func (s *sliceStream) Err() error {
	if s.failAfter && s.next >= len(s.candidates) {
		return assert.AnError
	}

	return nil
}

func (s *sliceStream) Label() string { return "test stream" }
