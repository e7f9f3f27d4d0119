package board

import (
	"errors"
	"fmt"
	"strings"
)

// ErrIllegalMove is wrapped when coordinate notation matches no legal move.
var ErrIllegalMove = errors.New("illegal move")

// ParseMove resolves coordinate notation ("e2e4", "e7e8q", "e1g1") against
// the legal moves of the current position.
func (p *Position) ParseMove(s string) (Move, error) {
	s = strings.ToLower(s)
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("%w: %q is not coordinate notation", ErrIllegalMove, s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, fmt.Errorf("%w: %v", ErrIllegalMove, err)
	}

	promo := NoPieceType
	if len(s) == 5 {
		switch s[4] {
		case 'q':
			promo = Queen
		case 'r':
			promo = Rook
		case 'b':
			promo = Bishop
		case 'n':
			promo = Knight
		default:
			return NoMove, fmt.Errorf("%w: promotion piece %q", ErrIllegalMove, s[4])
		}
	}

	var ml MoveList
	p.GenerateLegal(GenAll, &ml)
	for _, m := range ml.Slice() {
		if m.From() != from || m.To() != to {
			continue
		}
		if m.IsPromotion() {
			if m.PromotedPiece().Type() == promo {
				return m, nil
			}
		} else if promo == NoPieceType {
			return m, nil
		}
	}

	return NoMove, fmt.Errorf("%w: %s in %s", ErrIllegalMove, s, p.ToFEN())
}

// ApplyMove resolves s with ParseMove and plays it. On error the position
// is untouched.
func (p *Position) ApplyMove(s string) (Move, error) {
	m, err := p.ParseMove(s)
	if err != nil {
		return NoMove, err
	}
	p.MakeMove(m)
	return m, nil
}
