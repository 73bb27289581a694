// Package engine coordinates the parallel password search. It partitions a
// candidate space across a fixed pool of workers, drives the digest oracle,
// aggregates throughput at chunk boundaries and stops every worker promptly
// once any of them finds a match.
package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/avalontools/avalonctl/lib/auth"
	"github.com/avalontools/avalonctl/lib/keyspace"
)

const (
	// DefaultChunkSize is the number of candidates a worker claims per
	// chunk. The found flag and the shared counters are only touched at
	// chunk boundaries, so this bounds both synchronization overhead and
	// how long a worker can lag behind a peer's match.
	DefaultChunkSize = 10000

	// DefaultProgressInterval is the delay between progress callbacks.
	DefaultProgressInterval = 5 * time.Second
)

// ErrInternalInconsistency indicates a coordinator bug: a worker was handed
// an index range outside the space, or the same index was recorded as a
// match twice. Partition correctness is what guarantees no duplicate or
// missed work, so the whole search aborts rather than continue silently.
var ErrInternalInconsistency = errors.New("internal search inconsistency")

// Outcome is the terminal state of a search.
type Outcome string

// The three successful terminations of the search state machine. None of
// them is an error; exhaustion in particular is a normal outcome.
const (
	OutcomeFound     Outcome = "found"
	OutcomeExhausted Outcome = "exhausted"
	OutcomeCancelled Outcome = "cancelled"
)

// Result summarizes a finished search.
type Result struct {
	Outcome  Outcome       // Outcome is the terminal state.
	Password string        // Password is the recovered candidate when Outcome is OutcomeFound.
	Tried    uint64        // Tried is the aggregate number of candidates evaluated.
	Elapsed  time.Duration // Elapsed is the wall-clock search duration.
}

// Rate returns the aggregate throughput in candidates per second.
func (r Result) Rate() float64 {
	if r.Elapsed <= 0 {
		return 0
	}

	return float64(r.Tried) / r.Elapsed.Seconds()
}

// Progress is a periodic snapshot passed to the progress callback.
type Progress struct {
	Tried   uint64        // Tried is the aggregate candidate count so far.
	Total   uint64        // Total is the keyspace size, or 0 when streaming.
	Elapsed time.Duration // Elapsed is the time since the search started.
}

// Options configures a search engine.
type Options struct {
	Workers          int            // Workers is the worker count; values < 1 become 1.
	ChunkSize        uint64         // ChunkSize overrides DefaultChunkSize when > 0.
	ProgressInterval time.Duration  // ProgressInterval overrides DefaultProgressInterval when > 0.
	OnProgress       func(Progress) // OnProgress, when set, receives periodic snapshots.
}

// Engine runs searches against a fixed digest oracle.
type Engine struct {
	oracle           *auth.Oracle
	workers          int
	chunkSize        uint64
	progressInterval time.Duration
	onProgress       func(Progress)
}

// New builds an engine around the oracle, applying option defaults.
func New(oracle *auth.Oracle, opts Options) *Engine {
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}

	chunkSize := opts.ChunkSize
	if chunkSize == 0 {
		chunkSize = DefaultChunkSize
	}

	interval := opts.ProgressInterval
	if interval <= 0 {
		interval = DefaultProgressInterval
	}

	return &Engine{
		oracle:           oracle,
		workers:          workers,
		chunkSize:        chunkSize,
		progressInterval: interval,
		onProgress:       opts.OnProgress,
	}
}

// searchState is the only mutable state shared between workers. The found
// flag and counter are atomics checked at chunk boundaries; the winner is
// guarded by a mutex taken at most once per worker.
type searchState struct {
	tried atomic.Uint64
	found atomic.Bool

	mu        sync.Mutex
	winner    string
	winnerIdx uint64
	winnerSet bool
}

// recordMatch stores a discovered match. When several workers find matches
// (possible only under digest collisions), the lowest index wins so the
// reported password is reproducible. Recording the same index twice means
// two workers evaluated the same candidate, which the partitioning is
// supposed to make impossible.
func (st *searchState) recordMatch(candidate string, index uint64) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if st.winnerSet && index == st.winnerIdx {
		return fmt.Errorf("%w: index %d matched twice", ErrInternalInconsistency, index)
	}

	if !st.winnerSet || index < st.winnerIdx {
		st.winner = candidate
		st.winnerIdx = index
		st.winnerSet = true
	}

	st.found.Store(true)

	return nil
}

// SearchIndexed searches a finite space by splitting [0, Size) into one
// contiguous range per worker. An empty space is exhausted immediately.
func (e *Engine) SearchIndexed(ctx context.Context, space keyspace.Indexed) (Result, error) {
	total := space.Size()
	start := time.Now()

	if total == 0 {
		return Result{Outcome: OutcomeExhausted, Elapsed: time.Since(start)}, nil
	}

	st := &searchState{}
	ranges := keyspace.Partition(total, e.workers)

	errCh := make(chan error, len(ranges))
	var wg sync.WaitGroup

	for _, r := range ranges {
		wg.Add(1)
		go func(r keyspace.Range) {
			defer wg.Done()

			if err := e.scanRange(ctx, space, r, total, st); err != nil {
				errCh <- err
			}
		}(r)
	}

	stopProgress := e.startProgress(ctx, st, total, start)
	wg.Wait()
	stopProgress()
	close(errCh)

	if err := <-errCh; err != nil {
		return Result{}, err
	}

	return e.finish(ctx, st, start), nil
}

// scanRange is one worker's loop over its assigned index range, processed
// chunk by chunk. The oracle runs with no lock held; the found flag and the
// shared counter are touched only between chunks.
func (e *Engine) scanRange(ctx context.Context, space keyspace.Indexed, r keyspace.Range, total uint64, st *searchState) error {
	if r.End > total || r.Start > r.End {
		return fmt.Errorf("%w: range [%d,%d) outside keyspace [0,%d)", ErrInternalInconsistency, r.Start, r.End, total)
	}

	for chunkStart := r.Start; chunkStart < r.End; chunkStart += e.chunkSize {
		if st.found.Load() || ctx.Err() != nil {
			return nil
		}

		chunkEnd := chunkStart + e.chunkSize
		if chunkEnd > r.End {
			chunkEnd = r.End
		}

		for i := chunkStart; i < chunkEnd; i++ {
			candidate := space.At(i)
			if e.oracle.Match(candidate) {
				st.tried.Add(i - chunkStart + 1)

				return st.recordMatch(candidate, i)
			}
		}

		st.tried.Add(chunkEnd - chunkStart)
	}

	return nil
}

// SearchStream searches an unbounded space. Workers claim consecutive
// chunks from a shared cursor: the claim is a short critical section that
// only reads candidates into a batch, and all hashing happens outside it.
func (e *Engine) SearchStream(ctx context.Context, stream keyspace.Stream) (Result, error) {
	start := time.Now()
	st := &searchState{}
	claimer := &chunkClaimer{stream: stream, chunkSize: e.chunkSize}

	errCh := make(chan error, e.workers)
	var wg sync.WaitGroup

	for w := 0; w < e.workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			if err := e.scanStream(ctx, claimer, st); err != nil {
				errCh <- err
			}
		}()
	}

	stopProgress := e.startProgress(ctx, st, 0, start)
	wg.Wait()
	stopProgress()
	close(errCh)

	if err := <-errCh; err != nil {
		return Result{}, err
	}

	if err := stream.Err(); err != nil {
		return Result{}, fmt.Errorf("reading candidates: %w", err)
	}

	return e.finish(ctx, st, start), nil
}

// chunkClaimer hands out consecutive candidate chunks from a stream. The
// mutex serializes Next calls; the base index gives each candidate a stable
// global position for the lowest-index tie-break.
type chunkClaimer struct {
	mu        sync.Mutex
	stream    keyspace.Stream
	chunkSize uint64
	next      uint64
	done      bool
}

// claim fills batch with up to chunkSize candidates and returns the global
// index of the first one. ok is false once the stream is drained.
func (c *chunkClaimer) claim(batch []string) (filled []string, base uint64, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.done {
		return nil, 0, false
	}

	base = c.next
	batch = batch[:0]
	for uint64(len(batch)) < c.chunkSize {
		candidate, more := c.stream.Next()
		if !more {
			c.done = true
			break
		}

		batch = append(batch, candidate)
	}

	c.next += uint64(len(batch))
	if len(batch) == 0 {
		return nil, 0, false
	}

	return batch, base, true
}

// scanStream is one worker's loop over claimed chunks.
func (e *Engine) scanStream(ctx context.Context, claimer *chunkClaimer, st *searchState) error {
	batch := make([]string, 0, e.chunkSize)

	for {
		if st.found.Load() || ctx.Err() != nil {
			return nil
		}

		chunk, base, ok := claimer.claim(batch)
		if !ok {
			return nil
		}

		for i, candidate := range chunk {
			if e.oracle.Match(candidate) {
				st.tried.Add(uint64(i) + 1)

				return st.recordMatch(candidate, base+uint64(i))
			}
		}

		st.tried.Add(uint64(len(chunk)))
	}
}

// startProgress launches the periodic progress reporter and returns a stop
// function. No goroutine is started when no callback is configured.
func (e *Engine) startProgress(ctx context.Context, st *searchState, total uint64, start time.Time) func() {
	if e.onProgress == nil {
		return func() {}
	}

	done := make(chan struct{})
	var once sync.Once

	go func() {
		ticker := time.NewTicker(e.progressInterval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ctx.Done():
				return
			case <-ticker.C:
				e.onProgress(Progress{
					Tried:   st.tried.Load(),
					Total:   total,
					Elapsed: time.Since(start),
				})
			}
		}
	}()

	return func() { once.Do(func() { close(done) }) }
}

// finish maps the shared state to the terminal outcome. A recorded match
// wins over cancellation: the password is already in hand.
func (e *Engine) finish(ctx context.Context, st *searchState, start time.Time) Result {
	result := Result{
		Tried:   st.tried.Load(),
		Elapsed: time.Since(start),
	}

	st.mu.Lock()
	winner, winnerSet := st.winner, st.winnerSet
	st.mu.Unlock()

	switch {
	case winnerSet:
		result.Outcome = OutcomeFound
		result.Password = winner
	case ctx.Err() != nil:
		result.Outcome = OutcomeCancelled
	default:
		result.Outcome = OutcomeExhausted
	}

	return result
}
