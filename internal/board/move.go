package board

// Move packs a move and its metadata into 32 bits:
//
//	bits 0-5:   from square
//	bits 6-11:  to square
//	bits 12-15: moving piece
//	bits 16-19: captured piece
//	bits 20-23: promoted piece
//	bit  24:    en passant
//
// A castle stores the mover's own king in the promoted-piece field, a
// combination no real promotion can produce. Moves are values: the With*
// methods return a new Move.
type Move uint32

const (
	moveToShift       = 6
	moveMovingShift   = 12
	moveCapturedShift = 16
	movePromotedShift = 20
	moveEnPassantBit  = 1 << 24

	squareMask = 0x3F
	pieceMask  = 0xF
)

// NoMove is the zero move, printed as "0000".
const NoMove Move = 0

// NewMove builds a move from its fields.
func NewMove(from, to Square, moving, captured, promoted Piece) Move {
	return Move(from&squareMask) |
		Move(to&squareMask)<<moveToShift |
		Move(moving&pieceMask)<<moveMovingShift |
		Move(captured&pieceMask)<<moveCapturedShift |
		Move(promoted&pieceMask)<<movePromotedShift
}

// NewEnPassant builds a pawn capture onto the en-passant target.
func NewEnPassant(from, to Square, pawn Piece) Move {
	captured := NewPiece(Pawn, pawn.Color().Other())
	return NewMove(from, to, pawn, captured, NoPiece) | moveEnPassantBit
}

// NewCastle builds the king's half of a castling move.
func NewCastle(from, to Square, king Piece) Move {
	return NewMove(from, to, king, NoPiece, king)
}

func (m Move) From() Square         { return Square(m & squareMask) }
func (m Move) To() Square           { return Square(m>>moveToShift) & squareMask }
func (m Move) MovingPiece() Piece   { return Piece(m>>moveMovingShift) & pieceMask }
func (m Move) CapturedPiece() Piece { return Piece(m>>moveCapturedShift) & pieceMask }
func (m Move) PromotedPiece() Piece { return Piece(m>>movePromotedShift) & pieceMask }

func (m Move) WithFrom(sq Square) Move {
	return m&^squareMask | Move(sq&squareMask)
}

func (m Move) WithTo(sq Square) Move {
	return m&^(squareMask<<moveToShift) | Move(sq&squareMask)<<moveToShift
}

func (m Move) WithMovingPiece(p Piece) Move {
	return m&^(pieceMask<<moveMovingShift) | Move(p&pieceMask)<<moveMovingShift
}

func (m Move) WithCapturedPiece(p Piece) Move {
	return m&^(pieceMask<<moveCapturedShift) | Move(p&pieceMask)<<moveCapturedShift
}

func (m Move) WithPromotedPiece(p Piece) Move {
	return m&^(pieceMask<<movePromotedShift) | Move(p&pieceMask)<<movePromotedShift
}

// IsWhiteMove reports whether a white piece moves.
func (m Move) IsWhiteMove() bool { return m.MovingPiece().IsWhite() }

func (m Move) IsPawnMoved() bool { return m.MovingPiece().Type() == Pawn }
func (m Move) IsKingMoved() bool { return m.MovingPiece().Type() == King }
func (m Move) IsRookMoved() bool { return m.MovingPiece().Type() == Rook }

// IsPawnDoubleMoved reports a pawn advancing two ranks.
func (m Move) IsPawnDoubleMoved() bool {
	d := m.To().Rank() - m.From().Rank()
	return m.IsPawnMoved() && (d == 2 || d == -2)
}

// IsEnPassant reports a pawn capturing the opposing pawn beside it by moving
// diagonally onto the empty en-passant target.
func (m Move) IsEnPassant() bool {
	return m&moveEnPassantBit != 0 && m.IsPawnMoved() &&
		m.CapturedPiece() == NewPiece(Pawn, m.MovingPiece().Color().Other())
}

// IsCapture reports whether any piece is captured, en passant included.
func (m Move) IsCapture() bool      { return m.CapturedPiece() != NoPiece }
func (m Move) IsKingCaptured() bool { return m.CapturedPiece().Type() == King }
func (m Move) IsRookCaptured() bool { return m.CapturedPiece().Type() == Rook }

// IsCastle reports the castle flag: the promoted piece is the mover's king.
func (m Move) IsCastle() bool {
	return m.IsKingMoved() && m.PromotedPiece() == m.MovingPiece()
}

// IsCastleOO reports king side castling (king moves two files right).
func (m Move) IsCastleOO() bool {
	return m.IsCastle() && int(m.To())-int(m.From()) == 2
}

// IsCastleOOO reports queen side castling (king moves two files left).
func (m Move) IsCastleOOO() bool {
	return m.IsCastle() && int(m.From())-int(m.To()) == 2
}

// IsPromotion reports a pawn becoming another piece.
func (m Move) IsPromotion() bool {
	return m.PromotedPiece() != NoPiece && !m.IsCastle()
}

// String returns coordinate notation, e.g. "e2e4" or "e7e8q".
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string("  nbrq"[m.PromotedPiece().Type()])
	}
	return s
}

// MoveList is a fixed-capacity move buffer. Recursive callers keep one per
// ply so that deeper generation never overwrites a list still being walked.
type MoveList struct {
	moves [256]Move
	count int
}

// Add appends m.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the i-th move.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Clear empties the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the live portion of the buffer.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}
