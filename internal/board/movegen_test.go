package board

import "testing"

var movegenFENs = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq -",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - -",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1",
	"2r1k3/1P6/8/8/8/8/6p1/4K2R b K - 0 1",
}

func mustParse(t *testing.T, fen string) *Position {
	t.Helper()
	pos, err := ParseFEN(fen)
	if err != nil {
		t.Fatalf("ParseFEN(%q): %v", fen, err)
	}
	return pos
}

func generated(pos *Position, mode GenMode, legal bool) map[Move]bool {
	var ml MoveList
	if legal {
		pos.GenerateLegal(mode, &ml)
	} else {
		pos.Generate(mode, &ml)
	}
	set := make(map[Move]bool, ml.Len())
	for _, m := range ml.Slice() {
		set[m] = true
	}
	return set
}

func TestGenerateModesPartitionAll(t *testing.T) {
	for _, fen := range movegenFENs {
		pos := mustParse(t, fen)
		for _, legal := range []bool{false, true} {
			all := generated(pos, GenAll, legal)
			captures := generated(pos, GenCaptures, legal)
			quiets := generated(pos, GenQuiets, legal)

			if len(captures)+len(quiets) != len(all) {
				t.Errorf("%s (legal=%v): %d captures + %d quiets != %d moves",
					fen, legal, len(captures), len(quiets), len(all))
			}
			for m := range captures {
				if quiets[m] {
					t.Errorf("%s: %v generated as both capture and quiet", fen, m)
				}
				if !all[m] {
					t.Errorf("%s: capture %v missing from GenAll", fen, m)
				}
				if !m.IsCapture() {
					t.Errorf("%s: %v in captures takes nothing", fen, m)
				}
			}
			for m := range quiets {
				if !all[m] {
					t.Errorf("%s: quiet %v missing from GenAll", fen, m)
				}
				if m.IsCapture() || !pos.IsEmpty(m.To()) {
					t.Errorf("%s: quiet %v lands on an occupied square", fen, m)
				}
			}
		}
	}
}

func TestGenerateNeverTakesOwnPieceOrKing(t *testing.T) {
	for _, fen := range movegenFENs {
		pos := mustParse(t, fen)
		for m := range generated(pos, GenAll, false) {
			if m.MovingPiece() != pos.PieceAt(m.From()) {
				t.Errorf("%s: %v claims %s moves, board has %s", fen, m, m.MovingPiece(), pos.PieceAt(m.From()))
			}
			if m.MovingPiece().Color() != pos.SideToMove {
				t.Errorf("%s: %v moves an enemy piece", fen, m)
			}
			if target := pos.PieceAt(m.To()); target != NoPiece && target.Color() == pos.SideToMove {
				t.Errorf("%s: %v lands on own %s", fen, m, target)
			}
			if m.IsKingCaptured() {
				t.Errorf("%s: %v captures a king", fen, m)
			}
			if !m.IsEnPassant() && m.CapturedPiece() != pos.PieceAt(m.To()) {
				t.Errorf("%s: %v records capture of %s, board has %s", fen, m, m.CapturedPiece(), pos.PieceAt(m.To()))
			}
		}
	}
}

func castles(moves map[Move]bool) []Move {
	var out []Move
	for m := range moves {
		if m.IsCastle() {
			out = append(out, m)
		}
	}
	return out
}

func TestGenerateCastling(t *testing.T) {
	tests := []struct {
		name    string
		fen     string
		oo, ooo bool
	}{
		{"both sides open", "4k3/8/8/8/8/8/8/R3K2R w KQ - 0 1", true, true},
		{"no rights", "4k3/8/8/8/8/8/8/R3K2R w - - 0 1", false, false},
		{"king side right only", "4k3/8/8/8/8/8/8/R3K2R w K - 0 1", true, false},
		{"king in check", "4k3/8/8/8/8/8/4r3/R3K2R w KQ - 0 1", false, false},
		{"rook destination attacked", "4k3/8/8/8/8/8/5r2/R3K2R w KQ - 0 1", false, true},
		{"king destination attacked", "4k3/8/8/8/8/8/6r1/R3K2R w KQ - 0 1", false, true},
		{"b1 attacked does not matter", "4k3/8/8/8/8/8/1r6/R3K2R w KQ - 0 1", true, true},
		{"path blocked", "4k3/8/8/8/8/8/8/RN2K1NR w KQ - 0 1", false, false},
		{"rook missing", "4k3/8/8/8/8/8/8/4K2R w KQ - 0 1", true, false},
		{"black", "r3k2r/8/8/8/8/8/8/4K3 b kq - 0 1", true, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := mustParse(t, tc.fen)
			var oo, ooo bool
			for _, m := range castles(generated(pos, GenAll, false)) {
				oo = oo || m.IsCastleOO()
				ooo = ooo || m.IsCastleOOO()
			}
			if oo != tc.oo || ooo != tc.ooo {
				t.Errorf("O-O=%v O-O-O=%v, want O-O=%v O-O-O=%v", oo, ooo, tc.oo, tc.ooo)
			}

			if n := len(castles(generated(pos, GenCaptures, false))); n != 0 {
				t.Errorf("captures mode produced %d castles", n)
			}
			if got, want := len(castles(generated(pos, GenQuiets, false))), len(castles(generated(pos, GenAll, false))); got != want {
				t.Errorf("quiets mode produced %d castles, all mode %d", got, want)
			}
		})
	}
}

func TestGenerateCastleMoveShape(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/8/8/8/8/R3K2R w KQ - 0 1")
	all := generated(pos, GenAll, true)
	for _, want := range []Move{NewCastle(E1, G1, WhiteKing), NewCastle(E1, C1, WhiteKing)} {
		if !all[want] {
			t.Errorf("missing castle %v", want)
		}
	}
}

func TestGeneratePromotions(t *testing.T) {
	pos := mustParse(t, "2r1k3/1P6/8/8/8/8/8/4K3 w - - 0 1")

	promos := func(moves map[Move]bool) (push, capture int) {
		for m := range moves {
			if !m.IsPromotion() {
				continue
			}
			if m.IsCapture() {
				capture++
			} else {
				push++
			}
		}
		return push, capture
	}

	if push, capture := promos(generated(pos, GenAll, true)); push != 4 || capture != 4 {
		t.Errorf("all: %d push promotions, %d capture promotions; want 4 and 4", push, capture)
	}
	if push, capture := promos(generated(pos, GenCaptures, true)); push != 0 || capture != 4 {
		t.Errorf("captures: %d push promotions, %d capture promotions; want 0 and 4", push, capture)
	}
	if push, capture := promos(generated(pos, GenQuiets, true)); push != 4 || capture != 0 {
		t.Errorf("quiets: %d push promotions, %d capture promotions; want 4 and 0", push, capture)
	}

	seen := map[PieceType]bool{}
	for m := range generated(pos, GenQuiets, true) {
		if m.IsPromotion() {
			seen[m.PromotedPiece().Type()] = true
			if m.PromotedPiece().Color() != White {
				t.Errorf("%v promotes to a black piece", m)
			}
		}
	}
	for _, pt := range []PieceType{Queen, Rook, Bishop, Knight} {
		if !seen[pt] {
			t.Errorf("no promotion to %v", pt)
		}
	}
}

func TestGenerateEnPassant(t *testing.T) {
	pos := mustParse(t, "4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 1")
	ep := NewEnPassant(E5, D6, WhitePawn)

	if !generated(pos, GenCaptures, true)[ep] {
		t.Errorf("captures mode is missing %v", ep)
	}
	if generated(pos, GenQuiets, true)[ep] {
		t.Errorf("quiets mode contains %v", ep)
	}

	// A target with no pawn behind it is ignored.
	bogus := mustParse(t, "4k3/8/8/4P3/8/8/8/4K3 w - d6 0 1")
	for m := range generated(bogus, GenAll, false) {
		if m.IsEnPassant() {
			t.Errorf("en passant %v generated without a pawn to capture", m)
		}
	}
}

func TestGenerateLegalRespectsPins(t *testing.T) {
	pos := mustParse(t, "4k3/4r3/8/8/8/8/4B3/4K3 w - - 0 1")

	var pseudo, legal MoveList
	pos.Generate(GenAll, &pseudo)
	pos.GenerateLegal(GenAll, &legal)

	if pseudo.Len() <= legal.Len() {
		t.Errorf("pinned bishop should have pseudo-legal moves to filter (%d pseudo, %d legal)", pseudo.Len(), legal.Len())
	}
	if legal.Len() != 4 {
		t.Errorf("got %d legal moves, want 4 king moves: %v", legal.Len(), legal.Slice())
	}
	for _, m := range legal.Slice() {
		if !m.IsKingMoved() {
			t.Errorf("pinned piece moved: %v", m)
		}
	}
}

func TestGenerateWithoutKingPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Errorf("Generate on a position without a king did not panic")
		}
	}()
	pos := &Position{EnPassant: NoSquare}
	var ml MoveList
	pos.Generate(GenAll, &ml)
}

func TestCheckmateAndStalemate(t *testing.T) {
	tests := []struct {
		name      string
		fen       string
		checkmate bool
		stalemate bool
	}{
		{"start", StartFEN, false, false},
		{"fool's mate", "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3", true, false},
		{"back rank", "6k1/5ppp/8/8/8/8/8/R5K1 b - - 0 1", false, false},
		{"back rank mate", "R5k1/5ppp/8/8/8/8/8/6K1 b - - 0 1", true, false},
		{"queen stalemate", "7k/5Q2/6K1/8/8/8/8/8 b - - 0 1", false, true},
		{"check with escape", "4k3/8/8/8/8/8/8/3KR3 b - - 0 1", false, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			pos := mustParse(t, tc.fen)
			if got := pos.IsCheckmate(); got != tc.checkmate {
				t.Errorf("IsCheckmate() = %v, want %v", got, tc.checkmate)
			}
			if got := pos.IsStalemate(); got != tc.stalemate {
				t.Errorf("IsStalemate() = %v, want %v", got, tc.stalemate)
			}
		})
	}
}
