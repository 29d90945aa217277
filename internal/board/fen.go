package board

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// StartFEN is the standard initial position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ErrMalformedPosition is wrapped by every ParseFEN failure, whether the
// string is syntactically broken or describes an unreachable position.
// Test with errors.Is.
var ErrMalformedPosition = errors.New("malformed position")

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedPosition, fmt.Sprintf(format, args...))
}

// ParseFEN builds a Position from Forsyth-Edwards notation. The clock
// fields are optional and default to 0 and 1. The returned position has
// all derived state filled in: occupancy, king squares, checkers, and
// both Zobrist keys.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, malformed("need at least 4 fields, got %d", len(parts))
	}

	pos := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	pos.KingSquare[White] = NoSquare
	pos.KingSquare[Black] = NoSquare

	if err := parsePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, malformed("side to move %q", parts[1])
	}

	if err := parseCastling(pos, parts[2]); err != nil {
		return nil, err
	}

	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, malformed("en passant square %q", parts[3])
		}
		pos.EnPassant = sq
	}

	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil || hmc < 0 {
			return nil, malformed("half-move clock %q", parts[4])
		}
		pos.HalfMoveClock = hmc
	}
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil || fmn < 0 {
			return nil, malformed("full-move number %q", parts[5])
		}
		pos.FullMoveNumber = fmn
	}

	pos.updateOccupied()
	pos.findKings()
	pos.UpdateCheckers()

	if err := pos.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPosition, err)
	}

	pos.Hash = pos.ComputeHash()
	pos.PawnKey = pos.ComputePawnKey()
	return pos, nil
}

func parsePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return malformed("need 8 ranks, got %d", len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN lists rank 8 first
		file := 0
		for _, c := range rankStr {
			if file > 7 {
				return malformed("rank %d overflows", rank+1)
			}
			if c >= '1' && c <= '8' {
				file += int(c - '0')
				continue
			}
			piece := PieceFromChar(byte(c))
			if piece == NoPiece {
				return malformed("piece character %q", c)
			}
			pos.setPiece(piece, NewSquare(file, rank))
			file++
		}
		if file != 8 {
			return malformed("rank %d has %d squares", rank+1, file)
		}
	}
	return nil
}

func parseCastling(pos *Position, castling string) error {
	if castling == "-" {
		pos.CastlingRights = NoCastling
		return nil
	}
	for _, c := range castling {
		switch c {
		case 'K':
			pos.CastlingRights |= CastleWhiteKing
		case 'Q':
			pos.CastlingRights |= CastleWhiteQueen
		case 'k':
			pos.CastlingRights |= CastleBlackKing
		case 'q':
			pos.CastlingRights |= CastleBlackQueen
		default:
			return malformed("castling character %q", c)
		}
	}
	return nil
}

// ToFEN renders the position as a FEN string; ParseFEN(p.ToFEN())
// reproduces p exactly.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			piece := p.PieceAt(NewSquare(file, rank))
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

	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}
	sb.WriteByte(' ')
	sb.WriteString(p.CastlingRights.String())
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))

	return sb.String()
}

// ComputeHash builds the Zobrist key from scratch. MakeMove maintains
// the key incrementally; this is the reference the increments must
// agree with.
func (p *Position) ComputeHash() uint64 {
	var hash uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			piece := NewPiece(pt, c)
			for bb := p.Pieces[c][pt]; bb != 0; {
				hash ^= zobristPiece[piece][bb.PopLSB()]
			}
		}
	}
	if p.SideToMove == Black {
		hash ^= zobristSideKey
	}
	hash ^= zobristCastle[p.CastlingRights]
	if p.EnPassant != NoSquare {
		hash ^= zobristEP[p.EnPassant.File()]
	}
	return hash
}

// ComputePawnKey builds the pawn-structure key, covering pawns only.
func (p *Position) ComputePawnKey() uint64 {
	var key uint64
	for c := White; c <= Black; c++ {
		piece := NewPiece(Pawn, c)
		for bb := p.Pieces[c][Pawn]; bb != 0; {
			key ^= zobristPiece[piece][bb.PopLSB()]
		}
	}
	return key
}
