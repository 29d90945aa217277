package board

import "log"

// DebugChecks enables invariant logging in MakeMove. Move generation
// bugs surface as king captures or vanished kings; the checks stay out
// of release runs.
var DebugChecks = false

// castleMask[sq] clears the rights a move touching sq revokes. Rights
// survive a move exactly when neither endpoint is the king's or the
// relevant rook's home square.
var castleMask = func() [64]CastlingRights {
	var m [64]CastlingRights
	for sq := range m {
		m[sq] = AllCastling
	}
	m[A1] &^= CastleWhiteQueen
	m[H1] &^= CastleWhiteKing
	m[E1] &^= CastleWhiteKing | CastleWhiteQueen
	m[A8] &^= CastleBlackQueen
	m[H8] &^= CastleBlackKing
	m[E8] &^= CastleBlackKing | CastleBlackQueen
	return m
}()

// GenerateLegalMoves fills ml with every legal move in the position.
// The order is deterministic for a given position: pawns, knights,
// bishops, rooks, queens, king, castling, each walked in square order.
func (p *Position) GenerateLegalMoves(ml *MoveList) {
	var pseudo MoveList
	p.generateAll(&pseudo)
	p.filterLegal(&pseudo, ml)
}

// LegalMoves is the allocating convenience form of GenerateLegalMoves.
func (p *Position) LegalMoves() *MoveList {
	ml := &MoveList{}
	p.GenerateLegalMoves(ml)
	return ml
}

// GenerateCaptures fills ml with legal captures and promotions, the
// move set quiescence search explores.
func (p *Position) GenerateCaptures(ml *MoveList) {
	var pseudo MoveList
	p.generateCaptures(&pseudo)
	p.filterLegal(&pseudo, ml)
}

// GenerateQuietChecks fills ml with legal non-capture moves that give
// check.
func (p *Position) GenerateQuietChecks(ml *MoveList) {
	var pseudo MoveList
	p.generateQuietChecks(&pseudo)
	p.filterLegal(&pseudo, ml)
}

// generateAll produces the pseudo-legal move set.
func (p *Position) generateAll(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied
	targets := ^p.Occupied[us]

	p.generatePawnMoves(ml, us)

	for _, pt := range [4]PieceType{Knight, Bishop, Rook, Queen} {
		pieces := p.Pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			attacks := pieceAttacks(pt, from, occupied) & targets
			for attacks != 0 {
				ml.Add(NewMove(from, attacks.PopLSB()))
			}
		}
	}

	kingBB := p.Pieces[us][King]
	if kingBB != 0 {
		from := kingBB.LSB()
		attacks := KingAttacks(from) & targets
		for attacks != 0 {
			ml.Add(NewMove(from, attacks.PopLSB()))
		}
	}

	p.generateCastles(ml, us)
}

func pieceAttacks(pt PieceType, sq Square, occupied Bitboard) Bitboard {
	switch pt {
	case Knight:
		return KnightAttacks(sq)
	case Bishop:
		return bishopAttackBB(sq, occupied)
	case Rook:
		return rookAttackBB(sq, occupied)
	default:
		return bishopAttackBB(sq, occupied) | rookAttackBB(sq, occupied)
	}
}

// generatePawnMoves produces pushes, captures, promotions and en
// passant with set-wise shifts; origin squares are recovered from the
// shift deltas.
func (p *Position) generatePawnMoves(ml *MoveList, us Color) {
	pawns := p.Pieces[us][Pawn]
	enemies := p.Occupied[us.Other()]
	empty := ^p.AllOccupied

	var push1, push2, capL, capR, promoRank Bitboard
	var up int
	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		capL = pawns.NorthWest() & enemies
		capR = pawns.NorthEast() & enemies
		promoRank = Rank8
		up = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		capL = pawns.SouthWest() & enemies
		capR = pawns.SouthEast() & enemies
		promoRank = Rank1
		up = -8
	}

	for bb := push1 &^ promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-up), to))
	}
	for bb := push2; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-2*up), to))
	}
	for bb := capL &^ promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-up+1), to))
	}
	for bb := capR &^ promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-up-1), to))
	}

	for bb := push1 & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-up), to)
	}
	for bb := capL & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-up+1), to)
	}
	for bb := capR & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-up-1), to)
	}

	if p.EnPassant != NoSquare {
		// Pawns that could capture onto the EP square.
		for bb := pawnAttacks[us.Other()][p.EnPassant] & pawns; bb != 0; {
			ml.Add(NewEnPassant(bb.PopLSB(), p.EnPassant))
		}
	}
}

func addPromotions(ml *MoveList, from, to Square) {
	ml.Add(NewPromotion(from, to, Queen))
	ml.Add(NewPromotion(from, to, Rook))
	ml.Add(NewPromotion(from, to, Bishop))
	ml.Add(NewPromotion(from, to, Knight))
}

// generateCastles adds castling king-steps whose rights are intact,
// whose path is empty, and whose king squares are unattacked.
func (p *Position) generateCastles(ml *MoveList, us Color) {
	them := us.Other()

	rank := 0
	if us == Black {
		rank = 7
	}
	kingFrom := NewSquare(4, rank)

	if p.CastlingRights.CanCastle(us, true) {
		f, g := NewSquare(5, rank), NewSquare(6, rank)
		if p.AllOccupied&(SquareBB(f)|SquareBB(g)) == 0 &&
			!p.IsSquareAttacked(kingFrom, them) &&
			!p.IsSquareAttacked(f, them) &&
			!p.IsSquareAttacked(g, them) {
			ml.Add(NewCastle(kingFrom, g))
		}
	}
	if p.CastlingRights.CanCastle(us, false) {
		b, c, d := NewSquare(1, rank), NewSquare(2, rank), NewSquare(3, rank)
		if p.AllOccupied&(SquareBB(b)|SquareBB(c)|SquareBB(d)) == 0 &&
			!p.IsSquareAttacked(kingFrom, them) &&
			!p.IsSquareAttacked(d, them) &&
			!p.IsSquareAttacked(c, them) {
			ml.Add(NewCastle(kingFrom, c))
		}
	}
}

// generateCaptures produces pseudo-legal captures plus promotions.
func (p *Position) generateCaptures(ml *MoveList) {
	us := p.SideToMove
	enemies := p.Occupied[us.Other()]
	occupied := p.AllOccupied

	pawns := p.Pieces[us][Pawn]
	var capL, capR, pushPromo, promoRank Bitboard
	var up int
	if us == White {
		capL = pawns.NorthWest() & enemies
		capR = pawns.NorthEast() & enemies
		pushPromo = pawns.North() & ^occupied & Rank8
		promoRank = Rank8
		up = 8
	} else {
		capL = pawns.SouthWest() & enemies
		capR = pawns.SouthEast() & enemies
		pushPromo = pawns.South() & ^occupied & Rank1
		promoRank = Rank1
		up = -8
	}

	for bb := capL &^ promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-up+1), to))
	}
	for bb := capR &^ promoRank; bb != 0; {
		to := bb.PopLSB()
		ml.Add(NewMove(Square(int(to)-up-1), to))
	}
	for bb := capL & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-up+1), to)
	}
	for bb := capR & promoRank; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-up-1), to)
	}
	for bb := pushPromo; bb != 0; {
		to := bb.PopLSB()
		addPromotions(ml, Square(int(to)-up), to)
	}

	if p.EnPassant != NoSquare {
		for bb := pawnAttacks[us.Other()][p.EnPassant] & pawns; bb != 0; {
			ml.Add(NewEnPassant(bb.PopLSB(), p.EnPassant))
		}
	}

	for _, pt := range [4]PieceType{Knight, Bishop, Rook, Queen} {
		pieces := p.Pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			attacks := pieceAttacks(pt, from, occupied) & enemies
			for attacks != 0 {
				ml.Add(NewMove(from, attacks.PopLSB()))
			}
		}
	}

	from := p.KingSquare[us]
	for attacks := KingAttacks(from) & enemies; attacks != 0; {
		ml.Add(NewMove(from, attacks.PopLSB()))
	}
}

// generateQuietChecks produces pseudo-legal non-captures that attack
// the enemy king from the landing square.
func (p *Position) generateQuietChecks(ml *MoveList) {
	us := p.SideToMove
	enemyKing := p.KingSquare[us.Other()]
	occupied := p.AllOccupied
	empty := ^occupied

	checkSquares := [4]Bitboard{
		KnightAttacks(enemyKing) & empty,
		bishopAttackBB(enemyKing, occupied) & empty,
		rookAttackBB(enemyKing, occupied) & empty,
		0,
	}
	checkSquares[3] = checkSquares[1] | checkSquares[2]

	for i, pt := range [4]PieceType{Knight, Bishop, Rook, Queen} {
		pieces := p.Pieces[us][pt]
		for pieces != 0 {
			from := pieces.PopLSB()
			attacks := pieceAttacks(pt, from, occupied) & checkSquares[i]
			for attacks != 0 {
				ml.Add(NewMove(from, attacks.PopLSB()))
			}
		}
	}
}

// filterLegal copies the legal subset of pseudo into out. Most moves
// take the fast path: when not in check, a move by a non-pinned piece
// that is neither a king step nor en passant cannot expose the king.
func (p *Position) filterLegal(pseudo, out *MoveList) {
	pinned := p.ComputePinned()
	for i := 0; i < pseudo.Len(); i++ {
		if m := pseudo.Get(i); p.isLegal(m, pinned) {
			out.Add(m)
		}
	}
}

// isLegal decides legality without making the move, except for en
// passant where two pawns leave the rank at once and only a simulation
// catches the discovered rook check.
func (p *Position) isLegal(m Move, pinned Bitboard) bool {
	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	ksq := p.KingSquare[us]

	if from == ksq {
		if m.IsCastle() {
			// Transit squares were checked at generation; the rest is
			// refusing to castle out of check.
			return p.Checkers == 0
		}
		occ := p.AllOccupied &^ SquareBB(from)
		return p.AttackersByColor(to, them, occ) == 0
	}

	if p.Checkers != 0 {
		if p.Checkers.PopCount() > 1 {
			return false // double check, king had to move
		}
		checker := p.Checkers.LSB()

		if m.IsEnPassant() {
			epVictim := epCapturedSquare(us, to)
			if epVictim != checker {
				return false
			}
			return p.epLegal(m)
		}

		// Capture the checker or block the checking ray.
		if (SquareBB(checker)|Between(checker, ksq))&SquareBB(to) == 0 {
			return false
		}
		return pinned&SquareBB(from) == 0 || Aligned(from, to, ksq)
	}

	if m.IsEnPassant() {
		return p.epLegal(m)
	}
	if pinned&SquareBB(from) == 0 {
		return true
	}
	return Aligned(from, to, ksq)
}

// epCapturedSquare is where the pawn taken en passant actually stands.
func epCapturedSquare(us Color, to Square) Square {
	if us == White {
		return to - 8
	}
	return to + 8
}

// epLegal checks an en-passant capture for a discovered check. Two
// pawns leave their squares at once, so the usual pin logic does not
// apply; instead the occupancy is patched and the slider rays from the
// king re-tested. Non-slider checks cannot appear: the king stays put
// and both vanished pieces were pawns.
func (p *Position) epLegal(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	ksq := p.KingSquare[us]
	capSq := epCapturedSquare(us, m.To())

	occ := p.AllOccupied ^ SquareBB(m.From()) ^ SquareBB(m.To()) ^ SquareBB(capSq)
	if bishopAttackBB(ksq, occ)&(p.Pieces[them][Bishop]|p.Pieces[them][Queen]) != 0 {
		return false
	}
	return rookAttackBB(ksq, occ)&(p.Pieces[them][Rook]|p.Pieces[them][Queen]) == 0
}

// MakeMove applies m, returning the undo record. The full state is
// snapshotted first, incremental updates follow: hash keys for moved
// and captured pieces, castling rights via castleMask, the one-ply
// en-passant window, both clocks, and the checkers of the new side to
// move. Undo.Valid is false if m was pseudo-legal only and left the
// mover's king attacked; callers must unmake immediately in that case.
func (p *Position) MakeMove(m Move) Undo {
	undo := Undo{
		CapturedPiece:  NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		FullMoveNumber: p.FullMoveNumber,
		Hash:           p.Hash,
		PawnKey:        p.PawnKey,
		Checkers:       p.Checkers,
		KingSquare:     p.KingSquare,
		Pieces:         p.Pieces,
		Occupied:       p.Occupied,
		AllOccupied:    p.AllOccupied,
	}

	us := p.SideToMove
	them := us.Other()
	from, to := m.From(), m.To()
	piece := p.PieceAt(from)

	if piece == NoPiece || piece.Color() != us {
		// Corrupt move (stale TT entry or caller bug); position untouched.
		return undo
	}
	undo.Valid = true
	pt := piece.Type()

	if DebugChecks {
		if p.Pieces[them][King] == 0 {
			log.Printf("[BOARD] make %v: %v king missing, hash=%x", m, them, p.Hash)
		}
		if victim := p.PieceAt(to); victim != NoPiece && victim.Type() == King {
			log.Printf("[BOARD] make %v: captures the %v king, hash=%x", m, victim.Color(), p.Hash)
		}
	}

	p.Hash ^= zobristSideKey
	p.Hash ^= zobristCastle[p.CastlingRights]
	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEP[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	if m.IsEnPassant() {
		capSq := epCapturedSquare(us, to)
		undo.CapturedPiece = p.removePiece(capSq)
		p.Hash ^= zobristPiece[NewPiece(Pawn, them)][capSq]
		p.PawnKey ^= zobristPiece[NewPiece(Pawn, them)][capSq]
	} else if captured := p.PieceAt(to); captured != NoPiece {
		undo.CapturedPiece = captured
		p.removePiece(to)
		p.Hash ^= zobristPiece[captured][to]
		if captured.Type() == Pawn {
			p.PawnKey ^= zobristPiece[captured][to]
		}
	}

	p.movePiece(from, to)
	p.Hash ^= zobristPiece[piece][from] ^ zobristPiece[piece][to]
	if pt == Pawn {
		p.PawnKey ^= zobristPiece[piece][from] ^ zobristPiece[piece][to]
	}

	if m.IsPromotion() {
		promo := m.Promotion()
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][promo] |= SquareBB(to)
		p.Hash ^= zobristPiece[piece][to] ^ zobristPiece[NewPiece(promo, us)][to]
		p.PawnKey ^= zobristPiece[piece][to]
	}

	if m.IsCastle() {
		var rookFrom, rookTo Square
		if to > from {
			rookFrom, rookTo = NewSquare(7, from.Rank()), NewSquare(5, from.Rank())
		} else {
			rookFrom, rookTo = NewSquare(0, from.Rank()), NewSquare(3, from.Rank())
		}
		p.movePiece(rookFrom, rookTo)
		rook := NewPiece(Rook, us)
		p.Hash ^= zobristPiece[rook][rookFrom] ^ zobristPiece[rook][rookTo]
	}

	p.CastlingRights &= castleMask[from] & castleMask[to]
	p.Hash ^= zobristCastle[p.CastlingRights]

	if d := int(to) - int(from); pt == Pawn && (d == 16 || d == -16) {
		p.EnPassant = Square(int(from) + d/2)
		p.Hash ^= zobristEP[p.EnPassant.File()]
	}

	if pt == Pawn || undo.CapturedPiece != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}
	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.UpdateCheckers()

	if p.IsSquareAttacked(p.KingSquare[us], them) {
		undo.Valid = false
	}

	return undo
}

// UnmakeMove restores the position saved in undo; the result is
// bit-identical to the position before the matching MakeMove.
func (p *Position) UnmakeMove(m Move, undo Undo) {
	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.FullMoveNumber = undo.FullMoveNumber
	p.Hash = undo.Hash
	p.PawnKey = undo.PawnKey
	p.Checkers = undo.Checkers
	p.KingSquare = undo.KingSquare
	p.Pieces = undo.Pieces
	p.Occupied = undo.Occupied
	p.AllOccupied = undo.AllOccupied
	p.SideToMove = p.SideToMove.Other()
}

// HasLegalMoves reports whether the side to move has any legal reply.
func (p *Position) HasLegalMoves() bool {
	var pseudo MoveList
	p.generateAll(&pseudo)
	pinned := p.ComputePinned()
	for i := 0; i < pseudo.Len(); i++ {
		if p.isLegal(pseudo.Get(i), pinned) {
			return true
		}
	}
	return false
}

// IsCheckmate reports check with no legal reply.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate reports no legal reply without check.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsDraw reports stalemate, the fifty-move rule, or dead material.
// Repetition needs the game history and is detected by the search.
func (p *Position) IsDraw() bool {
	return p.IsStalemate() || p.HalfMoveClock >= 100 || p.IsInsufficientMaterial()
}

// IsInsufficientMaterial reports positions no sequence of legal moves
// can win: bare kings, or king and one minor piece against a bare king.
func (p *Position) IsInsufficientMaterial() bool {
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wMinors := (p.Pieces[White][Knight] | p.Pieces[White][Bishop]).PopCount()
	bMinors := (p.Pieces[Black][Knight] | p.Pieces[Black][Bishop]).PopCount()
	switch {
	case wMinors+bMinors == 0:
		return true
	case wMinors <= 1 && bMinors == 0:
		return true
	case bMinors <= 1 && wMinors == 0:
		return true
	}
	return false
}
