package board

import "log"

// DebugMoveValidation makes every MakeMove and UnmakeMove check the
// position invariants and log any breakage.
var DebugMoveValidation = false

// MakeMove plays m, which must be pseudo-legal for the side to move. The
// previous castling rights, en-passant target, half-move clock and hash are
// pushed on the history stack for UnmakeMove.
func (p *Position) MakeMove(m Move) {
	p.history = append(p.history, StateInfo{
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
	})

	us := p.SideToMove
	from, to := m.From(), m.To()
	mover := m.MovingPiece()
	captured := m.CapturedPiece()

	hash := p.Hash ^ zobristSideToMove ^ zobristCastling[p.CastlingRights] ^ enPassantKey(p.EnPassant)

	switch {
	case m.IsEnPassant():
		sq := to.behind(us)
		p.removePiece(sq)
		hash ^= pieceKey(captured, sq)
	case captured != NoPiece:
		p.removePiece(to)
		hash ^= pieceKey(captured, to)
	}

	p.movePiece(from, to)
	hash ^= pieceKey(mover, from) ^ pieceKey(mover, to)

	switch {
	case m.IsPromotion():
		promoted := m.PromotedPiece()
		p.removePiece(to)
		p.setPiece(promoted, to)
		hash ^= pieceKey(mover, to) ^ pieceKey(promoted, to)
	case m.IsCastle():
		t := castleTemplateOf(m)
		rook := NewPiece(Rook, us)
		p.movePiece(t.RookFrom, t.RookTo)
		hash ^= pieceKey(rook, t.RookFrom) ^ pieceKey(rook, t.RookTo)
	}

	p.CastlingRights &= castleMask[from] & castleMask[to]
	hash ^= zobristCastling[p.CastlingRights]

	p.EnPassant = NoSquare
	if m.IsPawnDoubleMoved() {
		p.EnPassant = Square((int(from) + int(to)) / 2)
		hash ^= enPassantKey(p.EnPassant)
	}

	if m.IsPawnMoved() || captured != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}
	p.SideToMove = us.Other()
	p.Hash = hash

	if DebugMoveValidation {
		if err := p.Validate(); err != nil {
			log.Printf("MAKEMOVE %s broke the position: %v\n%s", m, err, p)
		}
	}
}

// UnmakeMove takes back m, which must be the last move made. It panics
// when there is nothing to take back.
func (p *Position) UnmakeMove(m Move) {
	n := len(p.history)
	if n == 0 {
		panic("board: UnmakeMove " + m.String() + " without a matching MakeMove")
	}
	st := p.history[n-1]
	p.history = p.history[:n-1]

	us := p.SideToMove.Other()
	p.SideToMove = us
	if us == Black {
		p.FullMoveNumber--
	}

	from, to := m.From(), m.To()
	switch {
	case m.IsPromotion():
		p.removePiece(to)
		p.setPiece(m.MovingPiece(), to)
	case m.IsCastle():
		t := castleTemplateOf(m)
		p.movePiece(t.RookTo, t.RookFrom)
	}
	p.movePiece(to, from)

	switch {
	case m.IsEnPassant():
		p.setPiece(m.CapturedPiece(), to.behind(us))
	case m.IsCapture():
		p.setPiece(m.CapturedPiece(), to)
	}

	p.CastlingRights = st.CastlingRights
	p.EnPassant = st.EnPassant
	p.HalfMoveClock = st.HalfMoveClock
	p.Hash = st.Hash

	if DebugMoveValidation {
		if err := p.Validate(); err != nil {
			log.Printf("UNMAKEMOVE %s broke the position: %v\n%s", m, err, p)
		}
	}
}

func castleTemplateOf(m Move) *CastleTemplate {
	side := QueenSide
	if m.IsCastleOO() {
		side = KingSide
	}
	return &castleTemplates[m.MovingPiece().Color()][side]
}
