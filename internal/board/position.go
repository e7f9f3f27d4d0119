package board

import (
	"fmt"
	"strings"
)

// CastlingRights is a set of the four castling options.
type CastlingRights uint8

const (
	WhiteKingSideCastle CastlingRights = 1 << iota
	WhiteQueenSideCastle
	BlackKingSideCastle
	BlackQueenSideCastle
	NoCastling  CastlingRights = 0
	AllCastling                = WhiteKingSideCastle | WhiteQueenSideCastle | BlackKingSideCastle | BlackQueenSideCastle
)

// String returns the FEN castling field.
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, c := range "KQkq" {
		if cr&(1<<i) != 0 {
			sb.WriteRune(c)
		}
	}
	return sb.String()
}

// CanCastle reports whether c still holds the right for side.
func (cr CastlingRights) CanCastle(c Color, side CastleSide) bool {
	return cr&castleTemplates[c][side].Right != 0
}

// castleMask[sq] holds the rights that survive a move touching sq.
var castleMask [64]CastlingRights

func init() {
	for i := range castleMask {
		castleMask[i] = AllCastling
	}
	castleMask[E1] &^= WhiteKingSideCastle | WhiteQueenSideCastle
	castleMask[H1] &^= WhiteKingSideCastle
	castleMask[A1] &^= WhiteQueenSideCastle
	castleMask[E8] &^= BlackKingSideCastle | BlackQueenSideCastle
	castleMask[H8] &^= BlackKingSideCastle
	castleMask[A8] &^= BlackQueenSideCastle
}

// StateInfo is what MakeMove saves and UnmakeMove restores verbatim: the
// fields a move cannot give back on its own.
type StateInfo struct {
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
}

// Position is a mutable chess position. It is built once (ParseFEN or
// NewPosition) and then changed in place by MakeMove/UnmakeMove pairs.
type Position struct {
	// Pieces[color][type]; type index 0 is unused.
	Pieces [2][7]Bitboard

	Occupied    [2]Bitboard
	AllOccupied Bitboard

	// Board mirrors Pieces square by square.
	Board [64]Piece

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int

	Hash uint64

	history []StateInfo
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, err := ParseFEN(StartFEN)
	if err != nil {
		panic(err)
	}
	return pos
}

// Clone returns an independent copy, history included, so the copy can
// unmake moves made before the clone.
func (p *Position) Clone() *Position {
	c := *p
	c.history = append([]StateInfo(nil), p.history...)
	return &c
}

// PieceAt returns the piece on sq.
func (p *Position) PieceAt(sq Square) Piece {
	return p.Board[sq]
}

// IsEmpty reports whether sq is unoccupied.
func (p *Position) IsEmpty(sq Square) bool {
	return p.Board[sq] == NoPiece
}

// Ply returns the number of moves made and not yet unmade.
func (p *Position) Ply() int {
	return len(p.history)
}

// setPiece puts piece on an empty sq. Hash is left to the caller.
func (p *Position) setPiece(piece Piece, sq Square) {
	bb := SquareBB(sq)
	c := piece.Color()
	p.Pieces[c][piece.Type()] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	p.Board[sq] = piece
}

// removePiece clears sq and returns what stood there.
func (p *Position) removePiece(sq Square) Piece {
	piece := p.Board[sq]
	if piece == NoPiece {
		return NoPiece
	}
	bb := SquareBB(sq)
	c := piece.Color()
	p.Pieces[c][piece.Type()] &^= bb
	p.Occupied[c] &^= bb
	p.AllOccupied &^= bb
	p.Board[sq] = NoPiece
	return piece
}

// movePiece relocates the piece on from to the empty square to.
func (p *Position) movePiece(from, to Square) {
	piece := p.Board[from]
	c := piece.Color()
	bb := SquareBB(from) | SquareBB(to)
	p.Pieces[c][piece.Type()] ^= bb
	p.Occupied[c] ^= bb
	p.AllOccupied ^= bb
	p.Board[from] = NoPiece
	p.Board[to] = piece
}

// String draws the board and state fields.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteString("\n")
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.Board[NewSquare(file, rank)]
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Fen: %s\n", p.ToFEN())
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant)
	fmt.Fprintf(&sb, "Half-move clock: %d\n", p.HalfMoveClock)
	fmt.Fprintf(&sb, "Full move: %d\n", p.FullMoveNumber)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.Hash)
	return sb.String()
}

// Validate checks the structural invariants: aggregates agree with the
// piece bitboards, the colors are disjoint, the mirror array matches the
// bitboards, each side has one king and the hash matches a full recompute.
func (p *Position) Validate() error {
	var occ [2]Bitboard
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			occ[c] |= p.Pieces[c][pt]
		}
		if occ[c] != p.Occupied[c] {
			return fmt.Errorf("%s occupancy %#x does not match piece bitboards %#x", c, uint64(p.Occupied[c]), uint64(occ[c]))
		}
	}
	if occ[White]&occ[Black] != 0 {
		return fmt.Errorf("white and black pieces overlap at %#x", uint64(occ[White]&occ[Black]))
	}
	if p.AllOccupied != occ[White]|occ[Black] {
		return fmt.Errorf("all-pieces bitboard %#x is not the union of both colors", uint64(p.AllOccupied))
	}

	for sq := A1; sq <= H8; sq++ {
		found := NoPiece
		for c := White; c <= Black; c++ {
			for pt := Pawn; pt <= King; pt++ {
				if !p.Pieces[c][pt].IsSet(sq) {
					continue
				}
				if found != NoPiece {
					return fmt.Errorf("square %s holds both %s and %s", sq, found, NewPiece(pt, c))
				}
				found = NewPiece(pt, c)
			}
		}
		if found != p.Board[sq] {
			return fmt.Errorf("square %s: bitboards say %q, board array says %q", sq, found, p.Board[sq])
		}
	}

	if n := p.Pieces[White][King].PopCount(); n != 1 {
		return fmt.Errorf("white must have exactly one king, has %d", n)
	}
	if n := p.Pieces[Black][King].PopCount(); n != 1 {
		return fmt.Errorf("black must have exactly one king, has %d", n)
	}

	if h := p.ComputeHash(); h != p.Hash {
		return fmt.Errorf("hash %016x differs from recomputed %016x", p.Hash, h)
	}
	return nil
}

// HasLegalMoves reports whether the side to move can move at all.
func (p *Position) HasLegalMoves() bool {
	var ml MoveList
	p.GenerateLegal(GenAll, &ml)
	return ml.Len() > 0
}

// IsCheckmate reports a side in check with no legal move.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports a side not in check with no legal move.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}
