package board

import (
	"fmt"
	"strings"
)

// ToSAN renders m in Standard Algebraic Notation for the given
// position. The position must be the one the move is played from;
// disambiguation and the check suffix depend on it.
func (m Move) ToSAN(pos *Position) string {
	if m == NoMove {
		return "-"
	}

	from, to := m.From(), m.To()
	piece := pos.PieceAt(from)
	if piece == NoPiece {
		return m.String()
	}

	var sb strings.Builder

	if m.IsCastle() {
		if to > from {
			sb.WriteString("O-O")
		} else {
			sb.WriteString("O-O-O")
		}
	} else {
		pt := piece.Type()
		if pt != Pawn {
			sb.WriteByte("PNBRQK"[pt])
			sb.WriteString(disambiguation(pos, m, pt))
		}

		if m.IsCapture(pos) {
			if pt == Pawn {
				sb.WriteByte('a' + byte(from.File()))
			}
			sb.WriteByte('x')
		}

		sb.WriteString(to.String())

		if m.IsPromotion() {
			sb.WriteByte('=')
			sb.WriteByte("PNBRQK"[m.Promotion()])
		}
	}

	next := pos.Copy()
	next.MakeMove(m)
	if next.IsCheckmate() {
		sb.WriteByte('#')
	} else if next.InCheck() {
		sb.WriteByte('+')
	}

	return sb.String()
}

// disambiguation returns the origin qualifier needed when another
// piece of the same type can reach the same square: file if that
// settles it, else rank, else both.
func disambiguation(pos *Position, m Move, pt PieceType) string {
	from, to := m.From(), m.To()
	pieces := pos.Pieces[pos.SideToMove][pt]

	var rivals []Square
	legal := pos.LegalMoves()
	for i := 0; i < legal.Len(); i++ {
		other := legal.Get(i)
		if other.To() != to || other.From() == from {
			continue
		}
		if pieces.IsSet(other.From()) {
			rivals = append(rivals, other.From())
		}
	}
	if len(rivals) == 0 {
		return ""
	}

	fileClash, rankClash := false, false
	for _, sq := range rivals {
		if sq.File() == from.File() {
			fileClash = true
		}
		if sq.Rank() == from.Rank() {
			rankClash = true
		}
	}
	switch {
	case !fileClash:
		return string('a' + byte(from.File()))
	case !rankClash:
		return string('1' + byte(from.Rank()))
	default:
		return from.String()
	}
}

// ParseSAN resolves a SAN string against the position's legal moves.
// Check and mate suffixes are accepted and ignored.
func ParseSAN(s string, pos *Position) (Move, error) {
	orig := s
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "#")
	s = strings.TrimSuffix(s, "+")

	if s == "O-O" || s == "0-0" || s == "O-O-O" || s == "0-0-0" {
		long := len(s) == 5
		legal := pos.LegalMoves()
		for i := 0; i < legal.Len(); i++ {
			m := legal.Get(i)
			if m.IsCastle() && (m.To() < m.From()) == long {
				return m, nil
			}
		}
		return NoMove, fmt.Errorf("illegal move %q", orig)
	}

	var promo PieceType = NoPieceType
	if idx := strings.IndexByte(s, '='); idx >= 0 && idx+1 < len(s) {
		switch s[idx+1] {
		case 'N':
			promo = Knight
		case 'B':
			promo = Bishop
		case 'R':
			promo = Rook
		case 'Q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion in %q", orig)
		}
		s = s[:idx]
	}

	wantCapture := strings.ContainsRune(s, 'x')
	s = strings.ReplaceAll(s, "x", "")

	pt := Pawn
	if len(s) > 0 && s[0] >= 'A' && s[0] <= 'Z' {
		switch s[0] {
		case 'N':
			pt = Knight
		case 'B':
			pt = Bishop
		case 'R':
			pt = Rook
		case 'Q':
			pt = Queen
		case 'K':
			pt = King
		default:
			return NoMove, fmt.Errorf("invalid piece in %q", orig)
		}
		s = s[1:]
	}

	if len(s) < 2 {
		return NoMove, fmt.Errorf("invalid move %q", orig)
	}
	dest, err := ParseSquare(s[len(s)-2:])
	if err != nil {
		return NoMove, fmt.Errorf("invalid move %q", orig)
	}
	s = s[:len(s)-2]

	fromFile, fromRank := -1, -1
	for _, c := range s {
		switch {
		case c >= 'a' && c <= 'h':
			fromFile = int(c - 'a')
		case c >= '1' && c <= '8':
			fromRank = int(c - '1')
		default:
			return NoMove, fmt.Errorf("invalid move %q", orig)
		}
	}

	var found Move
	matches := 0
	legal := pos.LegalMoves()
	for i := 0; i < legal.Len(); i++ {
		m := legal.Get(i)
		if m.To() != dest || m.IsCastle() {
			continue
		}
		from := m.From()
		if pos.PieceAt(from).Type() != pt {
			continue
		}
		if fromFile >= 0 && from.File() != fromFile {
			continue
		}
		if fromRank >= 0 && from.Rank() != fromRank {
			continue
		}
		if wantCapture != m.IsCapture(pos) {
			continue
		}
		if promo == NoPieceType {
			if m.IsPromotion() {
				continue
			}
		} else if !m.IsPromotion() || m.Promotion() != promo {
			continue
		}
		found = m
		matches++
	}

	switch matches {
	case 1:
		return found, nil
	case 0:
		return NoMove, fmt.Errorf("illegal move %q", orig)
	default:
		return NoMove, fmt.Errorf("ambiguous move %q", orig)
	}
}

// MovesToSAN renders a line of moves, each in the position its
// predecessors produce.
func MovesToSAN(pos *Position, moves []Move) []string {
	out := make([]string, len(moves))
	p := pos.Copy()
	for i, m := range moves {
		out[i] = m.ToSAN(p)
		p.MakeMove(m)
	}
	return out
}
