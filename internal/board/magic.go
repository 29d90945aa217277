package board

// Sliding-piece attacks via fancy magic bitboards: per-square tables
// indexed by (occupancy & mask) * magic >> shift. The tables are filled
// once at init from a slow ray-walking generator; after that every
// bishop/rook lookup is two loads and a multiply.

type magicEntry struct {
	mask   Bitboard // relevant occupancy (edges stripped)
	magic  uint64
	shift  uint8
	offset uint32 // start of this square's slice in the shared table
}

var (
	bishopMagics [64]magicEntry
	rookMagics   [64]magicEntry

	bishopTable [5248]Bitboard
	rookTable   [102400]Bitboard
)

// Widely used magic multipliers; finding fresh ones buys nothing, so
// these are the standard published constants.
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

type rayDelta struct {
	df, dr int
}

var (
	bishopRays = [4]rayDelta{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
	rookRays   = [4]rayDelta{{0, 1}, {0, -1}, {1, 0}, {-1, 0}}
)

func initMagics() {
	fillMagicTables(&bishopMagics, bishopTable[:], &bishopMagicNumbers, bishopRays)
	fillMagicTables(&rookMagics, rookTable[:], &rookMagicNumbers, rookRays)
}

func fillMagicTables(magics *[64]magicEntry, table []Bitboard, numbers *[64]uint64, rays [4]rayDelta) {
	var offset uint32
	for sq := A1; sq <= H8; sq++ {
		mask := relevantMask(sq, rays)
		bits := mask.PopCount()

		magics[sq] = magicEntry{
			mask:   mask,
			magic:  numbers[sq],
			shift:  uint8(64 - bits),
			offset: offset,
		}

		// Enumerate every subset of the mask and store its attack set.
		size := 1 << bits
		for i := 0; i < size; i++ {
			occ := occupancyFromIndex(i, bits, mask)
			idx := (uint64(occ) * numbers[sq]) >> (64 - bits)
			table[offset+uint32(idx)] = castRays(sq, occ, rays)
		}
		offset += uint32(size)
	}
}

// relevantMask is the slider's empty-board attack set with the last
// square of each ray removed; border blockers never change the result.
func relevantMask(sq Square, rays [4]rayDelta) Bitboard {
	var mask Bitboard
	for _, d := range rays {
		f, r := sq.File()+d.df, sq.Rank()+d.dr
		for f+d.df >= 0 && f+d.df <= 7 && r+d.dr >= 0 && r+d.dr <= 7 {
			mask |= SquareBB(NewSquare(f, r))
			f += d.df
			r += d.dr
		}
	}
	return mask
}

// occupancyFromIndex expands subset index i over the set bits of mask.
func occupancyFromIndex(i, bits int, mask Bitboard) Bitboard {
	var occ Bitboard
	for b := 0; b < bits; b++ {
		sq := mask.PopLSB()
		if i&(1<<b) != 0 {
			occ |= SquareBB(sq)
		}
	}
	return occ
}

// castRays walks each ray until it leaves the board or hits a blocker,
// including the blocker's square. Only used to build the tables.
func castRays(sq Square, occupied Bitboard, rays [4]rayDelta) Bitboard {
	var attacks Bitboard
	for _, d := range rays {
		f, r := sq.File()+d.df, sq.Rank()+d.dr
		for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
			s := NewSquare(f, r)
			attacks |= SquareBB(s)
			if occupied.IsSet(s) {
				break
			}
			f += d.df
			r += d.dr
		}
	}
	return attacks
}

func bishopAttackBB(sq Square, occupied Bitboard) Bitboard {
	m := &bishopMagics[sq]
	idx := (uint64(occupied&m.mask) * m.magic) >> m.shift
	return bishopTable[m.offset+uint32(idx)]
}

func rookAttackBB(sq Square, occupied Bitboard) Bitboard {
	m := &rookMagics[sq]
	idx := (uint64(occupied&m.mask) * m.magic) >> m.shift
	return rookTable[m.offset+uint32(idx)]
}
