package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrInvalidFEN is wrapped by every ParseFEN failure.
var ErrInvalidFEN = errors.New("invalid FEN")

// ParseFEN builds a Position from a FEN string. The half-move and full-move
// fields are optional. A rejected string never yields a partial position.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 || len(parts) > 6 {
		return nil, fmt.Errorf("%w: need 4 to 6 fields, got %d", ErrInvalidFEN, len(parts))
	}

	pos := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}

	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("%w: side to move %q", ErrInvalidFEN, parts[1])
	}

	if err := parseCastlingRights(pos, parts[2]); err != nil {
		return nil, err
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("%w: en passant square %q", ErrInvalidFEN, parts[3])
		}
		if sq.RelativeRank(pos.SideToMove) != 5 {
			return nil, fmt.Errorf("%w: en passant square %s is not on the %s capture rank", ErrInvalidFEN, sq, pos.SideToMove)
		}
		pos.EnPassant = sq
	}

	if len(parts) > 4 {
		n, err := strconv.Atoi(parts[4])
		if err != nil || n < 0 {
			return nil, fmt.Errorf("%w: half-move clock %q", ErrInvalidFEN, parts[4])
		}
		pos.HalfMoveClock = n
	}

	if len(parts) > 5 {
		n, err := strconv.Atoi(parts[5])
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: full-move number %q", ErrInvalidFEN, parts[5])
		}
		pos.FullMoveNumber = n
	}

	if err := checkPlacement(pos); err != nil {
		return nil, err
	}

	pos.Hash = pos.ComputeHash()
	return pos, nil
}

func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("%w: need 8 ranks, got %d", ErrInvalidFEN, len(ranks))
	}

	for i, row := range ranks {
		rank := 7 - i
		file := 0
		for _, c := range row {
			if file > 7 {
				return fmt.Errorf("%w: too many squares in rank %d", ErrInvalidFEN, rank+1)
			}
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece := PieceFromChar(byte(c))
			if piece == NoPiece {
				return fmt.Errorf("%w: piece character %q", ErrInvalidFEN, c)
			}
			pos.setPiece(piece, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return fmt.Errorf("%w: rank %d has %d squares", ErrInvalidFEN, rank+1, file)
		}
	}
	return nil
}

func parseCastlingRights(pos *Position, castling string) error {
	if castling == "-" {
		return nil
	}
	for _, c := range castling {
		i := strings.IndexRune("KQkq", c)
		if i < 0 {
			return fmt.Errorf("%w: castling character %q", ErrInvalidFEN, c)
		}
		pos.CastlingRights |= 1 << i
	}
	return nil
}

// checkPlacement rejects what the engine cannot play from: a missing or
// doubled king, pawns on a back rank, or a side to move that could take
// the enemy king.
func checkPlacement(pos *Position) error {
	for c := White; c <= Black; c++ {
		if n := pos.Pieces[c][King].PopCount(); n != 1 {
			return fmt.Errorf("%w: %s must have exactly one king, has %d", ErrInvalidFEN, c, n)
		}
	}
	if (pos.Pieces[White][Pawn]|pos.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("%w: pawns on rank 1 or 8", ErrInvalidFEN)
	}
	them := pos.SideToMove.Other()
	if pos.IsSquareAttacked(pos.KingSquare(them), pos.SideToMove) {
		return fmt.Errorf("%w: %s king is in check with %s to move", ErrInvalidFEN, them, pos.SideToMove)
	}
	return nil
}

// ToFEN renders the position as a FEN string.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.Board[NewSquare(file, rank)]
			if piece == NoPiece {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteString(piece.String())
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	if p.SideToMove == White {
		sb.WriteString(" w ")
	} else {
		sb.WriteString(" b ")
	}
	sb.WriteString(p.CastlingRights.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))

	return sb.String()
}
