package board

import (
	"errors"
	"testing"
)

func TestFENRoundTrip(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
		"rnbqkbnr/pp1ppppp/8/2p5/4P3/8/PPPP1PPP/RNBQKBNR w KQkq c6 0 2",
		"4k3/8/8/8/3pP3/8/8/4K3 b - e3 0 40",
	}
	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Errorf("ParseFEN(%q): %v", fen, err)
			continue
		}
		if got := pos.ToFEN(); got != fen {
			t.Errorf("ToFEN() = %q, want %q", got, fen)
		}
		if err := pos.Validate(); err != nil {
			t.Errorf("%s: %v", fen, err)
		}
	}
}

func TestFENOptionalCounters(t *testing.T) {
	pos, err := ParseFEN("r3k2r/8/8/8/8/8/8/R3K2R b Kq -")
	if err != nil {
		t.Fatal(err)
	}
	if pos.HalfMoveClock != 0 || pos.FullMoveNumber != 1 {
		t.Errorf("counters %d/%d, want 0/1", pos.HalfMoveClock, pos.FullMoveNumber)
	}
	if pos.SideToMove != Black || pos.CastlingRights != WhiteKingSideCastle|BlackQueenSideCastle {
		t.Errorf("side %v rights %v", pos.SideToMove, pos.CastlingRights)
	}
	if got, want := pos.ToFEN(), "r3k2r/8/8/8/8/8/8/R3K2R b Kq - 0 1"; got != want {
		t.Errorf("ToFEN() = %q, want %q", got, want)
	}
}

func TestParseFENRejects(t *testing.T) {
	tests := []struct {
		name string
		fen  string
	}{
		{"empty", ""},
		{"too few fields", "8/8/8/8/8/8/8/8 w"},
		{"too many fields", StartFEN + " extra"},
		{"seven ranks", "rnbqkbnr/pppppppp/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"long rank", "rnbqkbnr/ppppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"short rank", "rnbqkbnr/ppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"},
		{"bad piece", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNX w KQkq - 0 1"},
		{"bad side", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR x KQkq - 0 1"},
		{"bad castling", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQxq - 0 1"},
		{"bad en passant", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq z9 0 1"},
		{"en passant on wrong rank", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq e3 0 1"},
		{"negative half-move", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - -1 1"},
		{"zero full-move", "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 0"},
		{"no black king", "8/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"two white kings", "4k3/8/8/8/8/8/8/3KK3 w - - 0 1"},
		{"pawn on back rank", "P3k3/8/8/8/8/8/8/4K3 w - - 0 1"},
		{"side to move can take the king", "4k2R/8/8/8/8/8/8/4K3 w - - 0 1"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos, err := ParseFEN(tc.fen)
			if err == nil {
				t.Fatalf("ParseFEN(%q) accepted:\n%v", tc.fen, pos)
			}
			if !errors.Is(err, ErrInvalidFEN) {
				t.Errorf("error %v does not wrap ErrInvalidFEN", err)
			}
			if pos != nil {
				t.Errorf("rejected FEN returned a position")
			}
		})
	}
}

func TestNewPosition(t *testing.T) {
	pos := NewPosition()
	if pos.ToFEN() != StartFEN {
		t.Errorf("NewPosition() = %q", pos.ToFEN())
	}
	if pos.PieceAt(E1) != WhiteKing || pos.PieceAt(D8) != BlackQueen || !pos.IsEmpty(E4) {
		t.Errorf("unexpected start position:\n%v", pos)
	}
	if pos.AllOccupied.PopCount() != 32 || pos.Ply() != 0 {
		t.Errorf("%d pieces, ply %d", pos.AllOccupied.PopCount(), pos.Ply())
	}
}
