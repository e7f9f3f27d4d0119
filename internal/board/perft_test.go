package board

import "testing"

// perft counts leaf nodes at depth. Each call owns its move list so the
// recursion never clobbers a list a caller is still walking.
func perft(p *Position, depth int) int64 {
	if depth == 0 {
		return 1
	}

	var ml MoveList
	p.GenerateLegal(GenAll, &ml)
	if depth == 1 {
		return int64(ml.Len())
	}

	var nodes int64
	for _, m := range ml.Slice() {
		p.MakeMove(m)
		nodes += perft(p, depth-1)
		p.UnmakeMove(m)
	}
	return nodes
}

func runPerftTable(t *testing.T, fen string, want []int64) {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}
	before := pos.ToFEN()

	for i, expected := range want {
		depth := i + 1
		if testing.Short() && expected > 100000 {
			continue
		}
		if got := perft(pos, depth); got != expected {
			t.Errorf("perft(%d) = %d, want %d", depth, got, expected)
		}
		if pos.ToFEN() != before || pos.Ply() != 0 {
			t.Fatalf("perft(%d) left the position changed: %s (ply %d)", depth, pos.ToFEN(), pos.Ply())
		}
	}
}

func TestPerftStartingPosition(t *testing.T) {
	runPerftTable(t, StartFEN, []int64{20, 400, 8902, 197281})
}

// Kiwipete: castling, pins and promotions all at once.
func TestPerftKiwipete(t *testing.T) {
	runPerftTable(t, "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -", []int64{48, 2039, 97862})
}

// En passant edge cases.
func TestPerftPosition3(t *testing.T) {
	runPerftTable(t, "8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -", []int64{14, 191, 2812, 43238})
}

func TestPerftPosition4(t *testing.T) {
	runPerftTable(t, "r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1", []int64{6, 264, 9467})
}

func TestPerftPosition5(t *testing.T) {
	runPerftTable(t, "rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8", []int64{44, 1486, 62379})
}

// Black's e4xd3 en passant would open the fourth rank to the rook on h4.
func TestPerftEnPassantPin(t *testing.T) {
	pos, err := ParseFEN("8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1")
	if err != nil {
		t.Fatalf("Failed to parse FEN: %v", err)
	}

	var ml MoveList
	pos.GenerateLegal(GenAll, &ml)
	for _, m := range ml.Slice() {
		if m.IsEnPassant() {
			t.Errorf("En passant move %v should be illegal (horizontal pin)", m)
		}
	}

	runPerftTable(t, "8/8/8/8/k2Pp2R/8/8/4K3 b - d3 0 1", []int64{6, 94})
}
