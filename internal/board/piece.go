package board

// Color is the side a piece belongs to.
type Color uint8

const (
	White Color = iota
	Black
	NoColor
)

// Other returns the opposing color.
func (c Color) Other() Color {
	return c ^ 1
}

func (c Color) String() string {
	switch c {
	case White:
		return "White"
	case Black:
		return "Black"
	}
	return "NoColor"
}

// PieceType identifies a kind of chessman independent of color.
// The set is closed: Pawn through King, plus NoPieceType for empty squares.
type PieceType uint8

const (
	Pawn PieceType = iota
	Knight
	Bishop
	Rook
	Queen
	King
	NoPieceType
)

var pieceTypeNames = [7]string{"Pawn", "Knight", "Bishop", "Rook", "Queen", "King", "None"}

func (pt PieceType) String() string {
	if pt > NoPieceType {
		return "None"
	}
	return pieceTypeNames[pt]
}

// Char returns the lowercase FEN letter for the piece type.
func (pt PieceType) Char() byte {
	if pt >= NoPieceType {
		return ' '
	}
	return pieceGlyphs[int(pt)+6]
}

// PieceValue holds the conventional material value per piece type in
// centipawns, indexed by PieceType. The king's value only matters for
// move-ordering heuristics, never for evaluation totals.
var PieceValue = [7]int{100, 320, 330, 500, 900, 20000, 0}

// Piece packs a PieceType and a Color into one byte: type + 6*color.
type Piece uint8

const (
	WhitePawn Piece = iota
	WhiteKnight
	WhiteBishop
	WhiteRook
	WhiteQueen
	WhiteKing
	BlackPawn
	BlackKnight
	BlackBishop
	BlackRook
	BlackQueen
	BlackKing
	NoPiece
)

// pieceGlyphs maps Piece to its FEN letter, uppercase white first.
const pieceGlyphs = "PNBRQKpnbrqk"

// NewPiece combines a type and color. Invalid inputs yield NoPiece.
func NewPiece(pt PieceType, c Color) Piece {
	if pt >= NoPieceType || c >= NoColor {
		return NoPiece
	}
	return Piece(pt) + Piece(c)*6
}

// Type returns the colorless kind of the piece.
func (p Piece) Type() PieceType {
	if p >= NoPiece {
		return NoPieceType
	}
	return PieceType(p % 6)
}

// Color returns which side the piece belongs to.
func (p Piece) Color() Color {
	if p >= NoPiece {
		return NoColor
	}
	return Color(p / 6)
}

// String returns the single FEN letter, uppercase for White.
func (p Piece) String() string {
	if p >= NoPiece {
		return " "
	}
	return string(pieceGlyphs[p])
}

// Value returns the material value of the piece in centipawns.
func (p Piece) Value() int {
	return PieceValue[p.Type()]
}

// PieceFromChar decodes a FEN piece letter; anything else is NoPiece.
func PieceFromChar(c byte) Piece {
	for i := 0; i < len(pieceGlyphs); i++ {
		if pieceGlyphs[i] == c {
			return Piece(i)
		}
	}
	return NoPiece
}
