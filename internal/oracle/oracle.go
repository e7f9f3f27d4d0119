// Package oracle counts perft with an independent move generator
// (dragontoothmg) so that divide results can be cross-checked.
package oracle

import (
	"context"
	"fmt"

	"github.com/dylhunn/dragontoothmg"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/hailam/chesscore/internal/board"
	"github.com/hailam/chesscore/internal/engine"
)

// Mismatch is one root move on which two divides disagree.
type Mismatch struct {
	Move string
	Got  uint64
	Want uint64

	Missing bool // only the reference produced Move
	Extra   bool // only ours produced Move
}

func (m Mismatch) String() string {
	switch {
	case m.Missing:
		return fmt.Sprintf("%s: missing (reference %d)", m.Move, m.Want)
	case m.Extra:
		return fmt.Sprintf("%s: unexpected (got %d)", m.Move, m.Got)
	default:
		return fmt.Sprintf("%s: got %d, reference %d", m.Move, m.Got, m.Want)
	}
}

func parse(fen string) (b dragontoothmg.Board, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("oracle: parse %q: %v", fen, r)
		}
	}()
	return dragontoothmg.ParseFen(fen), nil
}

// Divide returns the reference perft count below each legal root move of
// fen, keyed by coordinate notation. fen needs all six fields. The context
// is checked between root moves.
func Divide(ctx context.Context, fen string, depth int) (map[string]uint64, error) {
	if depth < 1 {
		return nil, fmt.Errorf("oracle: divide depth %d < 1", depth)
	}
	b, err := parse(fen)
	if err != nil {
		return nil, err
	}

	moves := b.GenerateLegalMoves()
	counts := make(map[string]uint64, len(moves))
	for _, m := range moves {
		if err := ctx.Err(); err != nil {
			return counts, err
		}
		unapply := b.Apply(m)
		counts[m.String()] = perft(&b, depth-1)
		unapply()
	}
	return counts, nil
}

// Perft returns the reference leaf count depth plies below fen.
func Perft(ctx context.Context, fen string, depth int) (uint64, error) {
	if depth == 0 {
		if _, err := parse(fen); err != nil {
			return 0, err
		}
		return 1, nil
	}
	counts, err := Divide(ctx, fen, depth)
	var nodes uint64
	for _, n := range counts {
		nodes += n
	}
	return nodes, err
}

func perft(b *dragontoothmg.Board, depth int) uint64 {
	if depth == 0 {
		return 1
	}
	moves := b.GenerateLegalMoves()
	if depth == 1 {
		return uint64(len(moves))
	}
	var nodes uint64
	for _, m := range moves {
		unapply := b.Apply(m)
		nodes += perft(b, depth-1)
		unapply()
	}
	return nodes
}

// Compare lists the root moves where got and want differ, sorted by move.
func Compare(got, want map[string]uint64) []Mismatch {
	seen := make(map[string]bool, len(got)+len(want))
	for _, k := range maps.Keys(got) {
		seen[k] = true
	}
	for _, k := range maps.Keys(want) {
		seen[k] = true
	}
	moves := maps.Keys(seen)
	slices.Sort(moves)

	var out []Mismatch
	for _, mv := range moves {
		g, inGot := got[mv]
		w, inWant := want[mv]
		if g == w && inGot == inWant {
			continue
		}
		out = append(out, Mismatch{Move: mv, Got: g, Want: w, Missing: !inGot, Extra: !inWant})
	}
	return out
}

// Verify runs eng's divide on pos and compares it against the reference.
// An empty result means the two agree on every root move.
func Verify(ctx context.Context, eng *engine.Engine, pos *board.Position, depth int) ([]Mismatch, error) {
	entries, err := eng.Divide(ctx, pos, depth)
	if err != nil {
		return nil, err
	}
	got := make(map[string]uint64, len(entries))
	for _, e := range entries {
		got[e.Move.String()] = e.Nodes
	}

	want, err := Divide(ctx, pos.ToFEN(), depth)
	if err != nil {
		return nil, err
	}
	return Compare(got, want), nil
}
