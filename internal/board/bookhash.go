package board

// Opening books key positions independently of the search hash, so a
// table rebuild or key reshuffle never invalidates a book on disk. The
// key set is derived from a fixed seed; books and probing code agree
// as long as both use this table.
var (
	bookPieces     [12][64]uint64
	bookCastling   [4]uint64
	bookEnPassant  [8]uint64
	bookSideToMove uint64
)

func init() {
	s := uint64(0x37b4a4b3f0d1c0d0)
	next := func() uint64 {
		s ^= s >> 12
		s ^= s << 25
		s ^= s >> 27
		return s * 0x2545F4914F6CDD1D
	}

	for piece := 0; piece < 12; piece++ {
		for sq := 0; sq < 64; sq++ {
			bookPieces[piece][sq] = next()
		}
	}
	for i := range bookCastling {
		bookCastling[i] = next()
	}
	for i := range bookEnPassant {
		bookEnPassant[i] = next()
	}
	bookSideToMove = next()
}

// BookHash returns the opening-book key for the position. Unlike the
// search hash, the en-passant file only contributes when a capture is
// actually possible, so transpositions that differ by a dead en-passant
// right share a key.
func (p *Position) BookHash() uint64 {
	var hash uint64

	// Black pieces occupy kinds 0-5, white 6-11, pawns first.
	for c := White; c <= Black; c++ {
		kind := 6 - 6*int(c)
		for pt := Pawn; pt <= King; pt++ {
			for bb := p.Pieces[c][pt]; bb != 0; {
				hash ^= bookPieces[kind+int(pt)][bb.PopLSB()]
			}
		}
	}

	if p.CastlingRights&CastleWhiteKing != 0 {
		hash ^= bookCastling[0]
	}
	if p.CastlingRights&CastleWhiteQueen != 0 {
		hash ^= bookCastling[1]
	}
	if p.CastlingRights&CastleBlackKing != 0 {
		hash ^= bookCastling[2]
	}
	if p.CastlingRights&CastleBlackQueen != 0 {
		hash ^= bookCastling[3]
	}

	if p.EnPassant != NoSquare {
		if pawnAttacks[p.SideToMove.Other()][p.EnPassant]&p.Pieces[p.SideToMove][Pawn] != 0 {
			hash ^= bookEnPassant[p.EnPassant.File()]
		}
	}

	if p.SideToMove == White {
		hash ^= bookSideToMove
	}

	return hash
}
