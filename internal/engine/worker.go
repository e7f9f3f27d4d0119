package engine

import (
	"sync/atomic"

	"github.com/hailam/chesscore/internal/board"
)

// Worker walks the move tree of its own position. Each worker owns one
// move list per ply; the transposition table and the stop flag are shared.
type Worker struct {
	id  int
	pos *board.Position

	lists [MaxPly]board.MoveList
	nodes uint64

	tt       *TranspositionTable
	stopFlag *atomic.Bool
}

// NewWorker creates a worker over pos. tt may be nil.
func NewWorker(id int, pos *board.Position, tt *TranspositionTable, stopFlag *atomic.Bool) *Worker {
	return &Worker{
		id:       id,
		pos:      pos,
		tt:       tt,
		stopFlag: stopFlag,
	}
}

// ID returns the worker's ID.
func (w *Worker) ID() int {
	return w.id
}

// Nodes returns the number of leaves this worker has counted.
func (w *Worker) Nodes() uint64 {
	return w.nodes
}

// rootMoves fills the ply-0 list with the legal moves of the position.
func (w *Worker) rootMoves() *board.MoveList {
	ml := &w.lists[0]
	w.pos.GenerateLegal(board.GenAll, ml)
	return ml
}

// searchRoot makes m, counts the leaves depth-1 plies below it and takes m
// back.
func (w *Worker) searchRoot(m board.Move, depth int) uint64 {
	w.pos.MakeMove(m)
	n := w.perft(depth-1, 1)
	w.pos.UnmakeMove(m)
	return n
}

// perft counts the leaves depth plies below the current position, using
// lists[ply] for this level's moves. A stopped walk returns a partial
// count that is never written to the table.
func (w *Worker) perft(depth, ply int) uint64 {
	if depth == 0 {
		w.nodes++
		return 1
	}

	if w.tt != nil && depth > 1 {
		if n, ok := w.tt.Probe(w.pos.Hash, depth); ok {
			w.nodes += n
			return n
		}
	}

	ml := &w.lists[ply]
	w.pos.GenerateLegal(board.GenAll, ml)
	if depth == 1 {
		n := uint64(ml.Len())
		w.nodes += n
		return n
	}

	var nodes uint64
	for i := 0; i < ml.Len(); i++ {
		if w.stopFlag.Load() {
			return nodes
		}
		m := ml.Get(i)
		w.pos.MakeMove(m)
		nodes += w.perft(depth-1, ply+1)
		w.pos.UnmakeMove(m)
	}

	if w.tt != nil && !w.stopFlag.Load() {
		w.tt.Store(w.pos.Hash, depth, nodes)
	}
	return nodes
}
