package board

// magic holds the fancy-magic lookup parameters for one square.
type magic struct {
	mask   Bitboard
	number uint64
	shift  uint8
	offset uint32
}

type direction struct{ df, dr int }

var (
	bishopDirections = [4]direction{{1, 1}, {-1, 1}, {1, -1}, {-1, -1}}
	rookDirections   = [4]direction{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
)

var (
	bishopMagics [64]magic
	rookMagics   [64]magic

	bishopTable [5248]Bitboard
	rookTable   [102400]Bitboard
)

var bishopMagicNumbers = [64]uint64{
	0x0002020202020200, 0x0002020202020000, 0x0004010202000000, 0x0004040080000000,
	0x0001104000000000, 0x0000821040000000, 0x0000410410400000, 0x0000104104104000,
	0x0000040404040400, 0x0000020202020200, 0x0000040102020000, 0x0000040400800000,
	0x0000011040000000, 0x0000008210400000, 0x0000004104104000, 0x0000002082082000,
	0x0004000808080800, 0x0002000404040400, 0x0001000202020200, 0x0000800802004000,
	0x0000800400A00000, 0x0000200100884000, 0x0000400082082000, 0x0000200041041000,
	0x0002080010101000, 0x0001040008080800, 0x0000208004010400, 0x0000404004010200,
	0x0000840000802000, 0x0000404002011000, 0x0000808001041000, 0x0000404000820800,
	0x0001041000202000, 0x0000820800101000, 0x0000104400080800, 0x0000020080080080,
	0x0000404040040100, 0x0000808100020100, 0x0001010100020800, 0x0000808080010400,
	0x0000820820004000, 0x0000410410002000, 0x0000082088001000, 0x0000002011000800,
	0x0000080100400400, 0x0001010101000200, 0x0002020202000400, 0x0001010101000200,
	0x0000410410400000, 0x0000208208200000, 0x0000002084100000, 0x0000000020880000,
	0x0000001002020000, 0x0000040408020000, 0x0004040404040000, 0x0002020202020000,
	0x0000104104104000, 0x0000002082082000, 0x0000000020841000, 0x0000000000208800,
	0x0000000010020200, 0x0000000404080200, 0x0000040404040400, 0x0002020202020200,
}

var rookMagicNumbers = [64]uint64{
	0x0080001020400080, 0x0040001000200040, 0x0080081000200080, 0x0080040800100080,
	0x0080020400080080, 0x0080010200040080, 0x0080008001000200, 0x0080002040800100,
	0x0000800020400080, 0x0000400020005000, 0x0000801000200080, 0x0000800800100080,
	0x0000800400080080, 0x0000800200040080, 0x0000800100020080, 0x0000800040800100,
	0x0000208000400080, 0x0000404000201000, 0x0000808010002000, 0x0000808008001000,
	0x0000808004000800, 0x0000808002000400, 0x0000010100020004, 0x0000020000408104,
	0x0000208080004000, 0x0000200040005000, 0x0000100080200080, 0x0000080080100080,
	0x0000040080080080, 0x0000020080040080, 0x0000010080800200, 0x0000800080004100,
	0x0000204000800080, 0x0000200040401000, 0x0000100080802000, 0x0000080080801000,
	0x0000040080800800, 0x0000020080800400, 0x0000020001010004, 0x0000800040800100,
	0x0000204000808000, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000010002008080, 0x0000004081020004,
	0x0000204000800080, 0x0000200040008080, 0x0000100020008080, 0x0000080010008080,
	0x0000040008008080, 0x0000020004008080, 0x0000800100020080, 0x0000800041000080,
	0x00FFFCDDFCED714A, 0x007FFCDDFCED714A, 0x003FFFCDFFD88096, 0x0000040810002101,
	0x0001000204080011, 0x0001000204000801, 0x0001000082000401, 0x0001FFFAABFAD1A2,
}

func initMagics() {
	initSliderMagics(&bishopMagics, bishopTable[:], &bishopMagicNumbers, bishopMask, bishopDirections[:])
	initSliderMagics(&rookMagics, rookTable[:], &rookMagicNumbers, rookMask, rookDirections[:])
}

// initSliderMagics fills table with the ray-cast attack set of every
// relevant occupancy of every square, indexed through its magic number.
func initSliderMagics(magics *[64]magic, table []Bitboard, numbers *[64]uint64,
	maskFn func(Square) Bitboard, dirs []direction) {
	var offset uint32
	for sq := A1; sq <= H8; sq++ {
		mask := maskFn(sq)
		n := mask.PopCount()
		magics[sq] = magic{
			mask:   mask,
			number: numbers[sq],
			shift:  uint8(64 - n),
			offset: offset,
		}

		// Walk every subset of mask (Carry-Rippler).
		occ := Empty
		for {
			idx := (uint64(occ) * numbers[sq]) >> (64 - n)
			table[offset+uint32(idx)] = slidingAttacksSlow(sq, occ, dirs)
			occ = (occ - mask) & mask
			if occ == 0 {
				break
			}
		}
		offset += 1 << n
	}
}

// slidingAttacksSlow casts a ray in each direction, stopping on and including
// the first occupied square.
func slidingAttacksSlow(sq Square, occupied Bitboard, dirs []direction) Bitboard {
	var attacks Bitboard
	for _, d := range dirs {
		f, r := sq.File()+d.df, sq.Rank()+d.dr
		for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
			s := SquareBB(NewSquare(f, r))
			attacks |= s
			if occupied&s != 0 {
				break
			}
			f += d.df
			r += d.dr
		}
	}
	return attacks
}

// bishopMask drops board edges, which never change a diagonal's reach.
func bishopMask(sq Square) Bitboard {
	return slidingAttacksSlow(sq, Empty, bishopDirections[:]) &^ (Rank1 | Rank8 | FileA | FileH)
}

// rookMask drops the far end of each ray.
func rookMask(sq Square) Bitboard {
	file, rank := sq.File(), sq.Rank()
	var mask Bitboard
	for i := 1; i < 7; i++ {
		if i != file {
			mask |= SquareBB(NewSquare(i, rank))
		}
		if i != rank {
			mask |= SquareBB(NewSquare(file, i))
		}
	}
	return mask
}

// BishopAttacks returns bishop attacks from sq given the board occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &bishopMagics[sq]
	idx := (uint64(occupied&m.mask) * m.number) >> m.shift
	return bishopTable[m.offset+uint32(idx)]
}

// RookAttacks returns rook attacks from sq given the board occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	m := &rookMagics[sq]
	idx := (uint64(occupied&m.mask) * m.number) >> m.shift
	return rookTable[m.offset+uint32(idx)]
}

// QueenAttacks is the union of bishop and rook attacks.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return BishopAttacks(sq, occupied) | RookAttacks(sq, occupied)
}
