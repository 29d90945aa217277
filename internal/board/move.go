package board

import "fmt"

// Move packs a half-move into 16 bits:
//
//	bits 0-5   origin square
//	bits 6-11  destination square
//	bits 12-13 promotion piece index (0=Knight .. 3=Queen)
//	bits 14-15 kind flag
//
// Double pawn pushes carry no flag; they are recognized by geometry.
// Castling is encoded as the king's two-square step. The zero value is
// NoMove.
type Move uint16

// MoveFlag selects the special-move kind in the top two bits.
type MoveFlag uint16

const (
	FlagNone      MoveFlag = 0 << 14
	FlagPromotion MoveFlag = 1 << 14
	FlagEnPassant MoveFlag = 2 << 14
	FlagCastle    MoveFlag = 3 << 14
)

// NoMove is the null move value.
const NoMove Move = 0

// NewMove builds a plain move from one square to another.
func NewMove(from, to Square) Move {
	return Move(from) | Move(to)<<6
}

// NewPromotion builds a promotion; promo must be Knight..Queen.
func NewPromotion(from, to Square, promo PieceType) Move {
	return Move(from) | Move(to)<<6 | Move(promo-Knight)<<12 | Move(FlagPromotion)
}

// NewEnPassant builds an en-passant capture landing on the target square.
func NewEnPassant(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(FlagEnPassant)
}

// NewCastle builds a castling move, given as the king's path.
func NewCastle(from, to Square) Move {
	return Move(from) | Move(to)<<6 | Move(FlagCastle)
}

// From returns the origin square.
func (m Move) From() Square {
	return Square(m & 0x3F)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square(m>>6) & 0x3F
}

// Flag returns the special-move kind.
func (m Move) Flag() MoveFlag {
	return MoveFlag(m) & (3 << 14)
}

// Promotion returns the piece promoted to; meaningful only when
// IsPromotion reports true.
func (m Move) Promotion() PieceType {
	return Knight + PieceType(m>>12&3)
}

func (m Move) IsPromotion() bool { return m.Flag() == FlagPromotion }
func (m Move) IsEnPassant() bool { return m.Flag() == FlagEnPassant }
func (m Move) IsCastle() bool    { return m.Flag() == FlagCastle }

// IsCapture reports whether m takes a piece in the given position.
func (m Move) IsCapture(pos *Position) bool {
	return m.IsEnPassant() || !pos.IsEmpty(m.To())
}

// IsQuiet reports whether m is neither a capture nor a promotion.
func (m Move) IsQuiet(pos *Position) bool {
	return !m.IsCapture(pos) && !m.IsPromotion()
}

// String renders coordinate notation: "e2e4", "e7e8q", "0000" for NoMove.
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}
	s := m.From().String() + m.To().String()
	if m.IsPromotion() {
		s += string(pieceGlyphs[int(m.Promotion())+6])
	}
	return s
}

// ParseMove reads coordinate notation against a position. The position is
// needed to classify castling and en-passant, which the text alone does
// not distinguish from plain king and pawn moves.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) != 4 && len(s) != 5 {
		return NoMove, fmt.Errorf("invalid move %q", s)
	}
	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}
	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece %q", s[4])
		}
		return NewPromotion(from, to, promo), nil
	}

	p := pos.PieceAt(from)
	if p == NoPiece {
		return NoMove, fmt.Errorf("no piece on %s", from)
	}
	switch {
	case p.Type() == King && (int(to)-int(from) == 2 || int(from)-int(to) == 2):
		return NewCastle(from, to), nil
	case p.Type() == Pawn && to == pos.EnPassant && pos.EnPassant != NoSquare:
		return NewEnPassant(from, to), nil
	}
	return NewMove(from, to), nil
}

// MoveList collects moves in a fixed array so generation never allocates.
// 256 comfortably exceeds the maximum move count of any legal position.
type MoveList struct {
	moves [256]Move
	count int
}

// Add appends a move.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of stored moves.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set replaces the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap exchanges two entries.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear resets the list to empty.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains reports whether m is in the list.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice exposes the stored moves; valid until the next Add or Clear.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// Undo is the saved state returned by MakeMove and consumed by UnmakeMove.
// It snapshots everything a move can touch, so unmaking is a plain copy
// back and the restored position is bit-identical to the original.
type Undo struct {
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	FullMoveNumber int
	Hash           uint64
	PawnKey        uint64
	Checkers       Bitboard
	KingSquare     [2]Square
	Pieces         [2][6]Bitboard
	Occupied       [2]Bitboard
	AllOccupied    Bitboard

	// Valid is false when MakeMove detected the move left the mover's own
	// king attacked; such probes must be unmade immediately.
	Valid bool
}
