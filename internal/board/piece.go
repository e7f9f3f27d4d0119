package board

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
	NoColor Color = 2
)

// Other returns the opposite color.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	default:
		return "NoColor"
	}
}

// PieceType is the colorless kind of a piece. Zero means no piece.
type PieceType uint8

const (
	NoPieceType PieceType = iota
	Pawn
	Knight
	Bishop
	Rook
	Queen
	King
)

func (pt PieceType) String() string {
	switch pt {
	case Pawn:
		return "Pawn"
	case Knight:
		return "Knight"
	case Bishop:
		return "Bishop"
	case Rook:
		return "Rook"
	case Queen:
		return "Queen"
	case King:
		return "King"
	default:
		return "None"
	}
}

// Piece packs a color and a type into four bits: the type in bits 0-2 and
// the color in bit 3. White pieces are 1-6, black pieces 9-14, empty is 0.
type Piece uint8

const (
	NoPiece     Piece = 0
	WhitePawn   Piece = Piece(Pawn)
	WhiteKnight Piece = Piece(Knight)
	WhiteBishop Piece = Piece(Bishop)
	WhiteRook   Piece = Piece(Rook)
	WhiteQueen  Piece = Piece(Queen)
	WhiteKing   Piece = Piece(King)
	BlackPawn   Piece = Piece(Pawn) | 8
	BlackKnight Piece = Piece(Knight) | 8
	BlackBishop Piece = Piece(Bishop) | 8
	BlackRook   Piece = Piece(Rook) | 8
	BlackQueen  Piece = Piece(Queen) | 8
	BlackKing   Piece = Piece(King) | 8
)

// NewPiece combines a type and a color. It returns NoPiece for out-of-range input.
func NewPiece(pt PieceType, c Color) Piece {
	if pt == NoPieceType || pt > King || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) | Piece(c)<<3
}

// Type returns the piece type, NoPieceType for NoPiece.
func (p Piece) Type() PieceType {
	return PieceType(p & 7)
}

// Color returns the piece color, NoColor for NoPiece.
func (p Piece) Color() Color {
	if p == NoPiece {
		return NoColor
	}
	return Color(p >> 3)
}

// IsWhite reports whether p is a white piece.
func (p Piece) IsWhite() bool {
	return p != NoPiece && p < 8
}

// String returns the FEN letter, uppercase for white.
func (p Piece) String() string {
	switch {
	case p == NoPiece || p.Type() > King:
		return " "
	case p.IsWhite():
		return string("PNBRQK"[p.Type()-1])
	default:
		return string("pnbrqk"[p.Type()-1])
	}
}

// PieceFromChar converts a FEN letter to a Piece.
func PieceFromChar(c byte) Piece {
	switch c {
	case 'P':
		return WhitePawn
	case 'N':
		return WhiteKnight
	case 'B':
		return WhiteBishop
	case 'R':
		return WhiteRook
	case 'Q':
		return WhiteQueen
	case 'K':
		return WhiteKing
	case 'p':
		return BlackPawn
	case 'n':
		return BlackKnight
	case 'b':
		return BlackBishop
	case 'r':
		return BlackRook
	case 'q':
		return BlackQueen
	case 'k':
		return BlackKing
	default:
		return NoPiece
	}
}

// promotionTypes lists promotion choices in generation order.
var promotionTypes = [4]PieceType{Queen, Rook, Bishop, Knight}
