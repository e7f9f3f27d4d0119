package board

// GenMode selects which moves Generate produces.
type GenMode uint8

const (
	// GenAll produces every pseudo-legal move.
	GenAll GenMode = iota
	// GenCaptures produces moves that take a piece, en passant included.
	GenCaptures
	// GenQuiets produces moves onto empty squares: pushes, non-capturing
	// promotions and castling.
	GenQuiets
)

func (g GenMode) String() string {
	switch g {
	case GenAll:
		return "all"
	case GenCaptures:
		return "captures"
	case GenQuiets:
		return "quiets"
	default:
		return "unknown"
	}
}

// Generate fills ml with the pseudo-legal moves of the side to move that
// belong to mode. Moves may leave the mover's king in check; castling is
// already fully checked. ml is cleared first.
func (p *Position) Generate(mode GenMode, ml *MoveList) {
	ml.Clear()
	us := p.SideToMove
	p.KingSquare(us)

	var targets Bitboard
	switch mode {
	case GenAll:
		targets = ^p.Occupied[us]
	case GenCaptures:
		targets = p.Occupied[us.Other()]
	case GenQuiets:
		targets = ^p.AllOccupied
	}

	p.generatePawnMoves(ml, mode)

	for pt := Knight; pt <= King; pt++ {
		mover := NewPiece(pt, us)
		pieces := p.Pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			attacks := p.pieceAttacks(pt, from) & targets
			for attacks != 0 {
				to := attacks.PopLSB()
				ml.Add(NewMove(from, to, mover, p.Board[to], NoPiece))
			}
		}
	}

	if mode != GenCaptures {
		p.generateCastles(ml)
	}
}

// GenerateLegal is Generate with moves that expose the mover's king removed.
func (p *Position) GenerateLegal(mode GenMode, ml *MoveList) {
	p.Generate(mode, ml)
	n := 0
	for i := 0; i < ml.count; i++ {
		if m := ml.moves[i]; p.IsLegal(m) {
			ml.moves[n] = m
			n++
		}
	}
	ml.count = n
}

// IsLegal reports whether the pseudo-legal move m keeps the mover's king
// out of check. The position is unchanged on return.
func (p *Position) IsLegal(m Move) bool {
	us := p.SideToMove
	p.MakeMove(m)
	ok := !p.IsSquareAttacked(p.KingSquare(us), us.Other())
	p.UnmakeMove(m)
	return ok
}

func (p *Position) pieceAttacks(pt PieceType, from Square) Bitboard {
	switch pt {
	case Knight:
		return knightAttacks[from]
	case Bishop:
		return BishopAttacks(from, p.AllOccupied)
	case Rook:
		return RookAttacks(from, p.AllOccupied)
	case Queen:
		return QueenAttacks(from, p.AllOccupied)
	case King:
		return kingAttacks[from]
	}
	return Empty
}

func (p *Position) generatePawnMoves(ml *MoveList, mode GenMode) {
	us := p.SideToMove
	pawn := NewPiece(Pawn, us)
	pawns := p.Pieces[us][Pawn]
	enemies := p.Occupied[us.Other()]
	empty := ^p.AllOccupied

	var push1, push2, attackL, attackR, promotionRank Bitboard
	var fwd int
	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		fwd = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		fwd = -8
	}

	if mode != GenCaptures {
		for push1 != 0 {
			to := push1.PopLSB()
			p.addPawnMove(ml, Square(int(to)-fwd), to, pawn, promotionRank)
		}
		for push2 != 0 {
			to := push2.PopLSB()
			ml.Add(NewMove(Square(int(to)-2*fwd), to, pawn, NoPiece, NoPiece))
		}
	}

	if mode == GenQuiets {
		return
	}

	for attackL != 0 {
		to := attackL.PopLSB()
		p.addPawnMove(ml, Square(int(to)-fwd+1), to, pawn, promotionRank)
	}
	for attackR != 0 {
		to := attackR.PopLSB()
		p.addPawnMove(ml, Square(int(to)-fwd-1), to, pawn, promotionRank)
	}

	// The target must sit behind an enemy pawn; a FEN may claim otherwise.
	if ep := p.EnPassant; ep != NoSquare && p.Board[ep.behind(us)] == NewPiece(Pawn, us.Other()) {
		attackers := pawnAttacks[us.Other()][ep] & pawns
		for attackers != 0 {
			ml.Add(NewEnPassant(attackers.PopLSB(), ep, pawn))
		}
	}
}

// addPawnMove adds a push or capture, expanding it into the four
// promotions when it reaches the last rank.
func (p *Position) addPawnMove(ml *MoveList, from, to Square, pawn Piece, promotionRank Bitboard) {
	captured := p.Board[to]
	if promotionRank&SquareBB(to) == 0 {
		ml.Add(NewMove(from, to, pawn, captured, NoPiece))
		return
	}
	for _, pt := range promotionTypes {
		ml.Add(NewMove(from, to, pawn, captured, NewPiece(pt, pawn.Color())))
	}
}

// generateCastles adds castling moves whose right is held, whose path is
// empty and whose king squares are not attacked.
func (p *Position) generateCastles(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	king := NewPiece(King, us)
	rook := NewPiece(Rook, us)

	for side := KingSide; side <= QueenSide; side++ {
		t := &castleTemplates[us][side]
		if p.CastlingRights&t.Right == 0 || p.AllOccupied&t.Path != 0 {
			continue
		}
		if p.Board[t.KingFrom] != king || p.Board[t.RookFrom] != rook {
			continue
		}
		safe := true
		for _, sq := range t.Safe {
			if p.IsSquareAttacked(sq, them) {
				safe = false
				break
			}
		}
		if safe {
			ml.Add(NewCastle(t.KingFrom, t.KingTo, king))
		}
	}
}
