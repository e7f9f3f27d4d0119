// Package board holds the position representation, move encoding, move
// generator and make/unmake engine.
package board

import "fmt"

// Square is a board index 0-63, little-endian rank-file: A1=0, H1=7, A8=56, H8=63.
type Square uint8

const (
	A1 Square = iota
	B1
	C1
	D1
	E1
	F1
	G1
	H1
	A2
	B2
	C2
	D2
	E2
	F2
	G2
	H2
	A3
	B3
	C3
	D3
	E3
	F3
	G3
	H3
	A4
	B4
	C4
	D4
	E4
	F4
	G4
	H4
	A5
	B5
	C5
	D5
	E5
	F5
	G5
	H5
	A6
	B6
	C6
	D6
	E6
	F6
	G6
	H6
	A7
	B7
	C7
	D7
	E7
	F7
	G7
	H7
	A8
	B8
	C8
	D8
	E8
	F8
	G8
	H8
	NoSquare Square = 64
)

// File returns 0-7 for files a-h.
func (sq Square) File() int {
	return int(sq) & 7
}

// Rank returns 0-7 for ranks 1-8.
func (sq Square) Rank() int {
	return int(sq) >> 3
}

// String returns algebraic notation ("e4"), or "-" for NoSquare.
func (sq Square) String() string {
	if sq >= NoSquare {
		return "-"
	}
	return fmt.Sprintf("%c%c", 'a'+sq.File(), '1'+sq.Rank())
}

// NewSquare builds a square from 0-indexed file and rank.
func NewSquare(file, rank int) Square {
	return Square(rank*8 + file)
}

// ParseSquare parses algebraic notation such as "e4".
func ParseSquare(s string) (Square, error) {
	if len(s) != 2 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}

	file := int(s[0]) - 'a'
	rank := int(s[1]) - '1'
	if file < 0 || file > 7 || rank < 0 || rank > 7 {
		return NoSquare, fmt.Errorf("invalid square: %q", s)
	}

	return NewSquare(file, rank), nil
}

// IsValid reports whether sq is on the board.
func (sq Square) IsValid() bool {
	return sq < NoSquare
}

// RelativeRank returns the rank as seen from c's side of the board.
func (sq Square) RelativeRank(c Color) int {
	if c == White {
		return sq.Rank()
	}
	return 7 - sq.Rank()
}

// behind returns the square one rank back from sq in c's direction of travel.
// For an en-passant target this is the square of the pawn being captured.
func (sq Square) behind(c Color) Square {
	if c == White {
		return sq - 8
	}
	return sq + 8
}
