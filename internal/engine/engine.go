// Package engine runs perft and divide traversals over board positions.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/hailam/chesscore/internal/board"
)

// MaxPly bounds the traversal depth; workers keep one move list per ply.
const MaxPly = 64

var (
	// ErrStopped is returned, with the partial result, when Stop or the
	// context ends a traversal early.
	ErrStopped = errors.New("perft stopped")
	// ErrDepth rejects depths the move-list stack cannot hold.
	ErrDepth = errors.New("perft depth out of range")
)

// DivideEntry is one root move and the leaves below it.
type DivideEntry struct {
	Move  board.Move
	Nodes uint64
}

// Cache persists divide results between runs. Keys are PositionKey
// strings; counts are indexed by coordinate notation.
type Cache interface {
	Lookup(key string, depth int) (map[string]uint64, bool)
	Store(key string, depth int, divide map[string]uint64) error
}

// Engine runs perft traversals. It is not safe for concurrent traversals,
// but Stop may be called from any goroutine.
type Engine struct {
	tt       *TranspositionTable
	cache    Cache
	threads  int
	stopFlag atomic.Bool

	notifyMu sync.Mutex

	// OnDivide is called as each root move's count completes. With more
	// than one thread the order follows completion, not generation.
	OnDivide func(DivideEntry)
}

// NewEngine creates an engine with a hashMB transposition table, or none
// when hashMB is zero.
func NewEngine(hashMB int) *Engine {
	e := &Engine{threads: 1}
	e.SetHashSize(hashMB)
	return e
}

// SetHashSize replaces the transposition table. Zero disables it.
func (e *Engine) SetHashSize(mb int) {
	if mb <= 0 {
		e.tt = nil
		return
	}
	e.tt = NewTranspositionTable(mb)
}

// TranspositionTable returns the engine's table, nil when disabled.
func (e *Engine) TranspositionTable() *TranspositionTable {
	return e.tt
}

// SetThreads sets how many workers split the root moves.
func (e *Engine) SetThreads(n int) {
	if n < 1 {
		n = 1
	}
	e.threads = n
}

// Threads returns the worker count.
func (e *Engine) Threads() int {
	return e.threads
}

// SetCache installs a persistent result cache; nil removes it.
func (e *Engine) SetCache(c Cache) {
	e.cache = c
}

// Stop asks the running traversal to return.
func (e *Engine) Stop() {
	e.stopFlag.Store(true)
}

// Clear empties the transposition table.
func (e *Engine) Clear() {
	if e.tt != nil {
		e.tt.Clear()
	}
}

// PositionKey identifies a position for caching: the FEN without the move
// counters, which do not affect perft.
func PositionKey(pos *board.Position) string {
	fields := strings.Fields(pos.ToFEN())
	return strings.Join(fields[:4], " ")
}

// Perft counts the leaf nodes depth plies below pos. pos is restored
// before returning. A stopped traversal returns the leaves of the root
// moves it finished together with an error wrapping ErrStopped.
func (e *Engine) Perft(ctx context.Context, pos *board.Position, depth int) (uint64, error) {
	if depth == 0 {
		return 1, nil
	}
	entries, err := e.Divide(ctx, pos, depth)
	var nodes uint64
	for _, entry := range entries {
		nodes += entry.Nodes
	}
	return nodes, err
}

// Divide returns the perft count below each legal root move, in generation
// order. pos is restored before returning. On a stop the finished entries
// are returned with an error wrapping ErrStopped (and the context error
// when the context ended it).
func (e *Engine) Divide(ctx context.Context, pos *board.Position, depth int) ([]DivideEntry, error) {
	if depth < 1 || depth >= MaxPly {
		return nil, fmt.Errorf("%w: %d not in [1, %d]", ErrDepth, depth, MaxPly-1)
	}

	var key string
	if e.cache != nil {
		key = PositionKey(pos)
		if counts, ok := e.cache.Lookup(key, depth); ok {
			entries, err := fromCounts(pos, counts)
			if err == nil {
				for _, entry := range entries {
					e.notify(entry)
				}
				return entries, nil
			}
			log.Printf("engine: ignoring cached divide for %q depth %d: %v", key, depth, err)
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStopped, err)
	}

	e.stopFlag.Store(false)
	stopWatch := context.AfterFunc(ctx, e.Stop)
	defer stopWatch()

	if e.tt != nil {
		e.tt.NewSearch()
	}

	var entries []DivideEntry
	var stopped bool
	if e.threads > 1 {
		entries, stopped = e.divideParallel(pos, depth)
	} else {
		entries, stopped = e.divideSerial(pos, depth)
	}

	if stopped {
		if err := ctx.Err(); err != nil {
			return entries, fmt.Errorf("%w: %w", ErrStopped, err)
		}
		return entries, ErrStopped
	}

	if e.cache != nil {
		if err := e.cache.Store(key, depth, toCounts(entries)); err != nil {
			log.Printf("engine: caching divide for %q depth %d: %v", key, depth, err)
		}
	}
	return entries, nil
}

func (e *Engine) divideSerial(pos *board.Position, depth int) ([]DivideEntry, bool) {
	w := NewWorker(0, pos, e.tt, &e.stopFlag)
	ml := w.rootMoves()
	entries := make([]DivideEntry, 0, ml.Len())

	for i := 0; i < ml.Len(); i++ {
		if e.stopFlag.Load() {
			return entries, true
		}
		m := ml.Get(i)
		n := w.searchRoot(m, depth)
		if e.stopFlag.Load() {
			return entries, true
		}
		entry := DivideEntry{Move: m, Nodes: n}
		entries = append(entries, entry)
		e.notify(entry)
	}
	return entries, false
}

// divideParallel hands root moves to e.threads workers, each walking its
// own clone of pos. Results keep generation order.
func (e *Engine) divideParallel(pos *board.Position, depth int) ([]DivideEntry, bool) {
	var ml board.MoveList
	pos.GenerateLegal(board.GenAll, &ml)
	moves := ml.Slice()

	results := make([]DivideEntry, len(moves))
	done := make([]bool, len(moves))
	var next atomic.Int64

	var g errgroup.Group
	for id := 0; id < e.threads && id < len(moves); id++ {
		w := NewWorker(id, pos.Clone(), e.tt, &e.stopFlag)
		g.Go(func() error {
			for {
				i := int(next.Add(1) - 1)
				if i >= len(moves) {
					return nil
				}
				if e.stopFlag.Load() {
					return ErrStopped
				}
				n := w.searchRoot(moves[i], depth)
				if e.stopFlag.Load() {
					return ErrStopped
				}
				results[i] = DivideEntry{Move: moves[i], Nodes: n}
				done[i] = true
				e.notify(results[i])
			}
		})
	}
	err := g.Wait()

	entries := make([]DivideEntry, 0, len(moves))
	for i, ok := range done {
		if ok {
			entries = append(entries, results[i])
		}
	}
	return entries, err != nil
}

func (e *Engine) notify(entry DivideEntry) {
	if e.OnDivide == nil {
		return
	}
	e.notifyMu.Lock()
	e.OnDivide(entry)
	e.notifyMu.Unlock()
}

func toCounts(entries []DivideEntry) map[string]uint64 {
	counts := make(map[string]uint64, len(entries))
	for _, entry := range entries {
		counts[entry.Move.String()] = entry.Nodes
	}
	return counts
}

// fromCounts maps cached counts back onto the legal moves of pos. The
// cached set must match the legal moves exactly.
func fromCounts(pos *board.Position, counts map[string]uint64) ([]DivideEntry, error) {
	var ml board.MoveList
	pos.GenerateLegal(board.GenAll, &ml)
	if ml.Len() != len(counts) {
		return nil, fmt.Errorf("%d cached moves, %d legal", len(counts), ml.Len())
	}
	entries := make([]DivideEntry, 0, ml.Len())
	for _, m := range ml.Slice() {
		n, ok := counts[m.String()]
		if !ok {
			return nil, fmt.Errorf("no cached count for %s", m)
		}
		entries = append(entries, DivideEntry{Move: m, Nodes: n})
	}
	return entries, nil
}
