package board

var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard // [Color][Square]

	betweenBB [64][64]Bitboard // squares strictly between two aligned squares
)

// CastleSide selects king side (O-O) or queen side (O-O-O).
type CastleSide uint8

const (
	KingSide CastleSide = iota
	QueenSide
)

// CastleTemplate is the fixed geometry of one castling move.
type CastleTemplate struct {
	KingFrom, KingTo Square
	RookFrom, RookTo Square
	Right            CastlingRights
	// Path must be empty: every square between king and rook.
	Path Bitboard
	// Safe must not be attacked: king start, transit and destination.
	Safe [3]Square
}

var castleTemplates [2][2]CastleTemplate // [Color][CastleSide]

func init() {
	initLeaperAttacks()
	initBetween()
	initMagics()
	initCastleTemplates()
}

func initLeaperAttacks() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		knightAttacks[sq] = (bb<<17)&NotFileA | (bb<<15)&NotFileH |
			(bb>>17)&NotFileH | (bb>>15)&NotFileA |
			(bb<<10)&NotFileAB | (bb<<6)&NotFileGH |
			(bb>>10)&NotFileGH | (bb>>6)&NotFileAB

		kingAttacks[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()

		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()
	}
}

func initBetween() {
	for from := A1; from <= H8; from++ {
		for _, d := range append(bishopDirections[:], rookDirections[:]...) {
			var path Bitboard
			f, r := from.File()+d.df, from.Rank()+d.dr
			for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
				to := NewSquare(f, r)
				betweenBB[from][to] = path
				path |= SquareBB(to)
				f += d.df
				r += d.dr
			}
		}
	}
}

func initCastleTemplates() {
	rights := [2][2]CastlingRights{
		{WhiteKingSideCastle, WhiteQueenSideCastle},
		{BlackKingSideCastle, BlackQueenSideCastle},
	}
	for c := White; c <= Black; c++ {
		back := 0
		if c == Black {
			back = 7
		}
		king := NewSquare(4, back)

		ks := &castleTemplates[c][KingSide]
		ks.KingFrom, ks.KingTo = king, NewSquare(6, back)
		ks.RookFrom, ks.RookTo = NewSquare(7, back), NewSquare(5, back)

		qs := &castleTemplates[c][QueenSide]
		qs.KingFrom, qs.KingTo = king, NewSquare(2, back)
		qs.RookFrom, qs.RookTo = NewSquare(0, back), NewSquare(3, back)

		for side := KingSide; side <= QueenSide; side++ {
			t := &castleTemplates[c][side]
			t.Right = rights[c][side]
			t.Path = betweenBB[t.KingFrom][t.RookFrom]
			t.Safe = [3]Square{t.KingFrom, t.RookTo, t.KingTo}
		}
	}
}

// KnightAttacks returns the knight attack set of sq.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the king attack set of sq.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the squares a c pawn on sq captures on.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// Between returns the squares strictly between two squares on a shared
// rank, file or diagonal, and Empty otherwise.
func Between(a, b Square) Bitboard {
	return betweenBB[a][b]
}

// Castle returns the castling template for c on the given side.
func Castle(c Color, side CastleSide) CastleTemplate {
	return castleTemplates[c][side]
}

// AttackersByColor returns the pieces of color c attacking sq under the
// given occupancy.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	pc := &p.Pieces[c]
	return (pawnAttacks[c.Other()][sq] & pc[Pawn]) |
		(knightAttacks[sq] & pc[Knight]) |
		(kingAttacks[sq] & pc[King]) |
		(BishopAttacks(sq, occupied) & (pc[Bishop] | pc[Queen])) |
		(RookAttacks(sq, occupied) & (pc[Rook] | pc[Queen]))
}

// IsSquareAttacked reports whether any piece of byColor attacks sq.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	return p.AttackersByColor(sq, byColor, p.AllOccupied) != 0
}

// KingSquare returns the square of c's king. A missing king is a broken
// position and panics.
func (p *Position) KingSquare(c Color) Square {
	kings := p.Pieces[c][King]
	if kings == 0 {
		panic("board: no " + c.String() + " king on the board")
	}
	return kings.LSB()
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	us := p.SideToMove
	return p.IsSquareAttacked(p.KingSquare(us), us.Other())
}
