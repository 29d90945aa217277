package board

// Zobrist keys. Generated once at init from a fixed seed so hashes are
// stable across runs; the transposition table and repetition detection
// both rely on that stability.
var (
	zobristPiece   [12][64]uint64 // indexed by Piece, Square
	zobristEP      [8]uint64      // en-passant file
	zobristCastle  [16]uint64     // castling-rights mask
	zobristSideKey uint64         // xored in when Black is to move
)

// xorshift64* with a fixed seed; quality is plenty for hashing keys and
// the fixed seed keeps every run reproducible.
type keyGen struct {
	state uint64
}

func (g *keyGen) next() uint64 {
	g.state ^= g.state >> 12
	g.state ^= g.state << 25
	g.state ^= g.state >> 27
	return g.state * 0x2545F4914F6CDD1D
}

func init() {
	g := keyGen{state: 0x6C07899E3AF1B2D5}

	for p := WhitePawn; p <= BlackKing; p++ {
		for sq := A1; sq <= H8; sq++ {
			zobristPiece[p][sq] = g.next()
		}
	}
	for file := range zobristEP {
		zobristEP[file] = g.next()
	}
	for mask := range zobristCastle {
		zobristCastle[mask] = g.next()
	}
	zobristSideKey = g.next()
}

// ZobristPiece returns the key for a piece standing on sq.
func ZobristPiece(c Color, pt PieceType, sq Square) uint64 {
	return zobristPiece[NewPiece(pt, c)][sq]
}

// ZobristEnPassant returns the key for an en-passant target on the file.
func ZobristEnPassant(file int) uint64 {
	return zobristEP[file]
}

// ZobristCastling returns the key for a castling-rights combination.
func ZobristCastling(cr CastlingRights) uint64 {
	return zobristCastle[cr]
}

// ZobristSideToMove returns the key distinguishing the side to move.
func ZobristSideToMove() uint64 {
	return zobristSideKey
}
