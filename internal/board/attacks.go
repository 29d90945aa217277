package board

// Attack tables for the fixed-pattern pieces, plus the between/line
// geometry used for pin and check reasoning. Built once at init.
var (
	knightAttacks [64]Bitboard
	kingAttacks   [64]Bitboard
	pawnAttacks   [2][64]Bitboard

	betweenBB [64][64]Bitboard // strictly between two aligned squares
	lineBB    [64][64]Bitboard // the full line through two aligned squares
)

func init() {
	for sq := A1; sq <= H8; sq++ {
		bb := SquareBB(sq)

		knightAttacks[sq] = (bb << 17 & NotFileA) | (bb << 15 & NotFileH) |
			(bb >> 17 & NotFileH) | (bb >> 15 & NotFileA) |
			(bb << 10 & NotFileAB) | (bb << 6 & NotFileGH) |
			(bb >> 10 & NotFileGH) | (bb >> 6 & NotFileAB)

		kingAttacks[sq] = bb.North() | bb.South() | bb.East() | bb.West() |
			bb.NorthEast() | bb.NorthWest() | bb.SouthEast() | bb.SouthWest()

		pawnAttacks[White][sq] = bb.NorthEast() | bb.NorthWest()
		pawnAttacks[Black][sq] = bb.SouthEast() | bb.SouthWest()
	}

	initGeometry()
	initMagics()
}

// initGeometry fills betweenBB and lineBB by walking the eight rays out
// of every square once.
func initGeometry() {
	dirs := [8]rayDelta{
		{0, 1}, {0, -1}, {1, 0}, {-1, 0},
		{1, 1}, {1, -1}, {-1, 1}, {-1, -1},
	}

	for sq := A1; sq <= H8; sq++ {
		for _, d := range dirs {
			// Full ray through sq in this direction (both ways).
			var ray Bitboard
			for f, r := sq.File(), sq.Rank(); f >= 0 && f <= 7 && r >= 0 && r <= 7; f, r = f+d.df, r+d.dr {
				ray |= SquareBB(NewSquare(f, r))
			}
			for f, r := sq.File(), sq.Rank(); f >= 0 && f <= 7 && r >= 0 && r <= 7; f, r = f-d.df, r-d.dr {
				ray |= SquareBB(NewSquare(f, r))
			}

			// Walk outward, recording the gap to each square reached.
			var gap Bitboard
			f, r := sq.File()+d.df, sq.Rank()+d.dr
			for f >= 0 && f <= 7 && r >= 0 && r <= 7 {
				to := NewSquare(f, r)
				betweenBB[sq][to] = gap
				lineBB[sq][to] = ray
				gap |= SquareBB(to)
				f += d.df
				r += d.dr
			}
		}
	}
}

// KnightAttacks returns the attack set of a knight on sq.
func KnightAttacks(sq Square) Bitboard {
	return knightAttacks[sq]
}

// KingAttacks returns the attack set of a king on sq.
func KingAttacks(sq Square) Bitboard {
	return kingAttacks[sq]
}

// PawnAttacks returns the capture squares of a c-colored pawn on sq.
func PawnAttacks(sq Square, c Color) Bitboard {
	return pawnAttacks[c][sq]
}

// BishopAttacks returns bishop attacks from sq with the given occupancy.
func BishopAttacks(sq Square, occupied Bitboard) Bitboard {
	return bishopAttackBB(sq, occupied)
}

// RookAttacks returns rook attacks from sq with the given occupancy.
func RookAttacks(sq Square, occupied Bitboard) Bitboard {
	return rookAttackBB(sq, occupied)
}

// QueenAttacks returns combined bishop and rook attacks from sq.
func QueenAttacks(sq Square, occupied Bitboard) Bitboard {
	return bishopAttackBB(sq, occupied) | rookAttackBB(sq, occupied)
}

// Between returns the squares strictly between two squares, or empty if
// they do not share a rank, file, or diagonal.
func Between(sq1, sq2 Square) Bitboard {
	return betweenBB[sq1][sq2]
}

// Line returns the full line through two aligned squares, endpoints
// included; empty if unaligned.
func Line(sq1, sq2 Square) Bitboard {
	return lineBB[sq1][sq2]
}

// Aligned reports whether sq3 lies on the line through sq1 and sq2.
func Aligned(sq1, sq2, sq3 Square) bool {
	return lineBB[sq1][sq2].IsSet(sq3)
}

// AttackersTo returns every piece of either color attacking sq under the
// given occupancy.
func (p *Position) AttackersTo(sq Square, occupied Bitboard) Bitboard {
	bishopsQueens := p.Pieces[White][Bishop] | p.Pieces[Black][Bishop] |
		p.Pieces[White][Queen] | p.Pieces[Black][Queen]
	rooksQueens := p.Pieces[White][Rook] | p.Pieces[Black][Rook] |
		p.Pieces[White][Queen] | p.Pieces[Black][Queen]

	return (pawnAttacks[Black][sq] & p.Pieces[White][Pawn]) |
		(pawnAttacks[White][sq] & p.Pieces[Black][Pawn]) |
		(knightAttacks[sq] & (p.Pieces[White][Knight] | p.Pieces[Black][Knight])) |
		(kingAttacks[sq] & (p.Pieces[White][King] | p.Pieces[Black][King])) |
		(bishopAttackBB(sq, occupied) & bishopsQueens) |
		(rookAttackBB(sq, occupied) & rooksQueens)
}

// AttackersByColor returns the c-colored pieces attacking sq under the
// given occupancy. A pawn attacks sq if sq is one of its capture
// squares, hence the reversed pawn table lookup.
func (p *Position) AttackersByColor(sq Square, c Color, occupied Bitboard) Bitboard {
	return (pawnAttacks[c.Other()][sq] & p.Pieces[c][Pawn]) |
		(knightAttacks[sq] & p.Pieces[c][Knight]) |
		(kingAttacks[sq] & p.Pieces[c][King]) |
		(bishopAttackBB(sq, occupied) & (p.Pieces[c][Bishop] | p.Pieces[c][Queen])) |
		(rookAttackBB(sq, occupied) & (p.Pieces[c][Rook] | p.Pieces[c][Queen]))
}

// IsSquareAttacked reports whether byColor attacks sq.
func (p *Position) IsSquareAttacked(sq Square, byColor Color) bool {
	return p.AttackersByColor(sq, byColor, p.AllOccupied) != 0
}

// UpdateCheckers recomputes the pieces giving check to the side to move.
func (p *Position) UpdateCheckers() {
	kingBB := p.Pieces[p.SideToMove][King]
	if kingBB == 0 {
		p.Checkers = 0
		return
	}
	p.Checkers = p.AttackersByColor(kingBB.LSB(), p.SideToMove.Other(), p.AllOccupied)
}
