package board

import (
	"fmt"
	"strings"
)

// CastlingRights is a four-bit mask of the castling options still
// available. The bit layout matches the FEN field order KQkq.
type CastlingRights uint8

const (
	CastleWhiteKing CastlingRights = 1 << iota
	CastleWhiteQueen
	CastleBlackKing
	CastleBlackQueen

	NoCastling  CastlingRights = 0
	AllCastling                = CastleWhiteKing | CastleWhiteQueen | CastleBlackKing | CastleBlackQueen
)

// CanCastle reports whether color c still has the right on the given wing.
func (cr CastlingRights) CanCastle(c Color, kingSide bool) bool {
	bit := CastleWhiteKing
	if !kingSide {
		bit = CastleWhiteQueen
	}
	if c == Black {
		bit <<= 2
	}
	return cr&bit != 0
}

// String renders the FEN castling field ("KQkq", "-", ...).
func (cr CastlingRights) String() string {
	if cr == NoCastling {
		return "-"
	}
	var sb strings.Builder
	for i, ch := range []byte{'K', 'Q', 'k', 'q'} {
		if cr&(1<<i) != 0 {
			sb.WriteByte(ch)
		}
	}
	return sb.String()
}

// Position is the complete game state: piece placement as bitboards plus
// the side to move, castling rights, en-passant target, the fifty-move
// and full-move counters, and the incrementally maintained Zobrist keys.
// It is mutated in place by MakeMove/UnmakeMove during search; the Undo
// record restores it exactly.
type Position struct {
	Pieces [2][6]Bitboard // [Color][PieceType]

	// Occupancy caches, kept in sync with Pieces.
	Occupied    [2]Bitboard
	AllOccupied Bitboard

	SideToMove     Color
	CastlingRights CastlingRights
	EnPassant      Square // capture target square, NoSquare when unset
	HalfMoveClock  int
	FullMoveNumber int

	Hash    uint64 // full position key
	PawnKey uint64 // pawns-only key, for the pawn structure cache

	KingSquare [2]Square
	Checkers   Bitboard // enemy pieces currently checking the side to move
}

// NewPosition returns the standard starting position.
func NewPosition() *Position {
	pos, _ := ParseFEN(StartFEN)
	return pos
}

// Copy returns an independent copy, safe to mutate separately.
func (p *Position) Copy() *Position {
	cp := *p
	return &cp
}

// PieceAt returns the piece on sq, or NoPiece.
func (p *Position) PieceAt(sq Square) Piece {
	bb := SquareBB(sq)
	if p.AllOccupied&bb == 0 {
		return NoPiece
	}
	c := White
	if p.Occupied[Black]&bb != 0 {
		c = Black
	}
	for pt := Pawn; pt <= King; pt++ {
		if p.Pieces[c][pt]&bb != 0 {
			return NewPiece(pt, c)
		}
	}
	return NoPiece
}

// IsEmpty reports whether sq holds no piece.
func (p *Position) IsEmpty(sq Square) bool {
	return p.AllOccupied&SquareBB(sq) == 0
}

// setPiece drops a piece on an empty square. Hash not touched.
func (p *Position) setPiece(piece Piece, sq Square) {
	if piece == NoPiece {
		return
	}
	c, pt := piece.Color(), piece.Type()
	bb := SquareBB(sq)
	p.Pieces[c][pt] |= bb
	p.Occupied[c] |= bb
	p.AllOccupied |= bb
	if pt == King {
		p.KingSquare[c] = sq
	}
}

// removePiece lifts whatever stands on sq. Hash not touched.
func (p *Position) removePiece(sq Square) Piece {
	piece := p.PieceAt(sq)
	if piece == NoPiece {
		return NoPiece
	}
	bb := SquareBB(sq)
	p.Pieces[piece.Color()][piece.Type()] &^= bb
	p.Occupied[piece.Color()] &^= bb
	p.AllOccupied &^= bb
	return piece
}

// movePiece slides the piece on from to the empty square to. Hash not
// touched.
func (p *Position) movePiece(from, to Square) {
	piece := p.PieceAt(from)
	if piece == NoPiece {
		return
	}
	c, pt := piece.Color(), piece.Type()
	span := SquareBB(from) | SquareBB(to)
	p.Pieces[c][pt] ^= span
	p.Occupied[c] ^= span
	p.AllOccupied ^= span
	if pt == King {
		p.KingSquare[c] = to
	}
}

// updateOccupied rebuilds the occupancy caches from the piece bitboards.
func (p *Position) updateOccupied() {
	p.Occupied[White] = 0
	p.Occupied[Black] = 0
	for pt := Pawn; pt <= King; pt++ {
		p.Occupied[White] |= p.Pieces[White][pt]
		p.Occupied[Black] |= p.Pieces[Black][pt]
	}
	p.AllOccupied = p.Occupied[White] | p.Occupied[Black]
}

// findKings refreshes the cached king squares.
func (p *Position) findKings() {
	p.KingSquare[White] = p.Pieces[White][King].LSB()
	p.KingSquare[Black] = p.Pieces[Black][King].LSB()
}

// Clear empties the board and resets all state fields.
func (p *Position) Clear() {
	*p = Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	p.KingSquare[White] = NoSquare
	p.KingSquare[Black] = NoSquare
}

// InCheck reports whether the side to move is in check.
func (p *Position) InCheck() bool {
	return p.Checkers != 0
}

// KingAttacked reports whether color c's king is currently attacked.
// Unlike InCheck it is not tied to the side to move.
func (p *Position) KingAttacked(c Color) bool {
	kingBB := p.Pieces[c][King]
	if kingBB == 0 {
		return false
	}
	return p.IsSquareAttacked(kingBB.LSB(), c.Other())
}

// Validate enforces the reachability invariants: one king per side, no
// pawns on the back ranks, a sane en-passant square, and the side not on
// move may not be left in check.
func (p *Position) Validate() error {
	if n := p.Pieces[White][King].PopCount(); n != 1 {
		return fmt.Errorf("white has %d kings", n)
	}
	if n := p.Pieces[Black][King].PopCount(); n != 1 {
		return fmt.Errorf("black has %d kings", n)
	}
	if (p.Pieces[White][Pawn]|p.Pieces[Black][Pawn])&(Rank1|Rank8) != 0 {
		return fmt.Errorf("pawn on a back rank")
	}
	if p.EnPassant != NoSquare {
		wantRank := 5
		if p.SideToMove == Black {
			wantRank = 2
		}
		if p.EnPassant.Rank() != wantRank {
			return fmt.Errorf("en passant square %s unreachable for %s to move", p.EnPassant, p.SideToMove)
		}
	}
	if p.KingAttacked(p.SideToMove.Other()) {
		return fmt.Errorf("%s is to move but %s's king is already attacked", p.SideToMove, p.SideToMove.Other())
	}
	return nil
}

// ComputePinned returns the side to move's pieces that are absolutely
// pinned to their king, found by scanning enemy sliders that x-ray the
// king with exactly one friendly blocker in between.
func (p *Position) ComputePinned() Bitboard {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]

	var pinned Bitboard
	snipers := (RookAttacks(ksq, 0) & (p.Pieces[them][Rook] | p.Pieces[them][Queen])) |
		(BishopAttacks(ksq, 0) & (p.Pieces[them][Bishop] | p.Pieces[them][Queen]))
	for snipers != 0 {
		sq := snipers.PopLSB()
		blockers := Between(sq, ksq) & p.AllOccupied
		if blockers.PopCount() == 1 && blockers&p.Occupied[us] != 0 {
			pinned |= blockers
		}
	}
	return pinned
}

// NullUndo is the saved state for unmaking a null move.
type NullUndo struct {
	EnPassant Square
	Hash      uint64
	Checkers  Bitboard
}

// MakeNullMove passes the turn without moving, for null-move pruning.
func (p *Position) MakeNullMove() NullUndo {
	undo := NullUndo{
		EnPassant: p.EnPassant,
		Hash:      p.Hash,
		Checkers:  p.Checkers,
	}

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEP[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare
	p.SideToMove = p.SideToMove.Other()
	p.Hash ^= zobristSideKey
	p.UpdateCheckers()

	return undo
}

// UnmakeNullMove restores the state saved by MakeNullMove.
func (p *Position) UnmakeNullMove(undo NullUndo) {
	p.EnPassant = undo.EnPassant
	p.Hash = undo.Hash
	p.Checkers = undo.Checkers
	p.SideToMove = p.SideToMove.Other()
}

// HasNonPawnMaterial reports whether the side to move has any piece
// besides pawns and the king. Null-move pruning is unsound without it.
func (p *Position) HasNonPawnMaterial() bool {
	us := p.SideToMove
	return p.Pieces[us][Knight]|p.Pieces[us][Bishop]|p.Pieces[us][Rook]|p.Pieces[us][Queen] != 0
}

// Mirror returns the color-flipped position: every piece moves to its
// vertically mirrored square with the opposite color, side to move,
// castling rights, and en-passant target all swapped. Mirroring twice
// yields the original position.
func (p *Position) Mirror() *Position {
	m := &Position{}
	m.Clear()

	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				m.setPiece(NewPiece(pt, c.Other()), sq.Mirror())
			}
		}
	}
	m.updateOccupied()
	m.findKings()

	m.SideToMove = p.SideToMove.Other()
	cr := p.CastlingRights
	m.CastlingRights = (cr>>2)&(CastleWhiteKing|CastleWhiteQueen) | (cr&(CastleWhiteKing|CastleWhiteQueen))<<2
	if p.EnPassant != NoSquare {
		m.EnPassant = p.EnPassant.Mirror()
	}
	m.HalfMoveClock = p.HalfMoveClock
	m.FullMoveNumber = p.FullMoveNumber

	m.Hash = m.ComputeHash()
	m.PawnKey = m.ComputePawnKey()
	m.UpdateCheckers()
	return m
}

// String is a debug dump: board diagram plus the state fields.
func (p *Position) String() string {
	var sb strings.Builder
	sb.WriteByte('\n')
	for rank := 7; rank >= 0; rank-- {
		fmt.Fprintf(&sb, "%d  ", rank+1)
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
			if piece == NoPiece {
				sb.WriteString(". ")
			} else {
				sb.WriteString(piece.String() + " ")
			}
		}
		sb.WriteByte('\n')
	}
	sb.WriteString("\n   a b c d e f g h\n\n")
	fmt.Fprintf(&sb, "Side to move: %s\n", p.SideToMove)
	fmt.Fprintf(&sb, "Castling: %s\n", p.CastlingRights)
	fmt.Fprintf(&sb, "En passant: %s\n", p.EnPassant)
	fmt.Fprintf(&sb, "Half-move clock: %d\n", p.HalfMoveClock)
	fmt.Fprintf(&sb, "Full move: %d\n", p.FullMoveNumber)
	fmt.Fprintf(&sb, "Hash: %016x\n", p.Hash)
	return sb.String()
}
