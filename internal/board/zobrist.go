package board

// Zobrist keys, drawn from a fixed-seed generator so hashes are stable
// across runs.
var (
	zobristPiece      [2][7][64]uint64 // [Color][PieceType][Square]
	zobristEnPassant  [8]uint64        // per file
	zobristCastling   [16]uint64       // per rights combination
	zobristSideToMove uint64           // present when black is to move
)

func init() {
	rng := xorshift{state: 0x98F107A2BEEF1234}

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			for sq := A1; sq <= H8; sq++ {
				zobristPiece[c][pt][sq] = rng.next()
			}
		}
	}
	for file := range zobristEnPassant {
		zobristEnPassant[file] = rng.next()
	}
	for i := range zobristCastling {
		zobristCastling[i] = rng.next()
	}
	zobristSideToMove = rng.next()
}

// xorshift is xorshift64*.
type xorshift struct {
	state uint64
}

func (x *xorshift) next() uint64 {
	x.state ^= x.state >> 12
	x.state ^= x.state << 25
	x.state ^= x.state >> 27
	return x.state * 0x2545F4914F6CDD1D
}

// pieceKey is the hash contribution of piece standing on sq.
func pieceKey(piece Piece, sq Square) uint64 {
	return zobristPiece[piece.Color()][piece.Type()][sq]
}

// enPassantKey is the hash contribution of an en-passant target, zero for none.
func enPassantKey(sq Square) uint64 {
	if sq == NoSquare {
		return 0
	}
	return zobristEnPassant[sq.File()]
}

// ComputeHash hashes the position from scratch. MakeMove never calls it;
// it seeds a freshly parsed position and backs Validate.
func (p *Position) ComputeHash() uint64 {
	var hash uint64
	for sq := A1; sq <= H8; sq++ {
		if piece := p.Board[sq]; piece != NoPiece {
			hash ^= pieceKey(piece, sq)
		}
	}
	if p.SideToMove == Black {
		hash ^= zobristSideToMove
	}
	hash ^= zobristCastling[p.CastlingRights]
	hash ^= enPassantKey(p.EnPassant)
	return hash
}
