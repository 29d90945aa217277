package engine

import "github.com/velara/skirmish/internal/board"

// Game phase weights per piece type. A full set of minor and major
// pieces sums to 24; the tapered eval interpolates between middlegame
// and endgame scores on this scale.
var phaseWeight = [6]int{0, 1, 1, 2, 4, 0}

const maxPhase = 24

// Passed pawn bonus by relative rank.
var passedPawnBonus = [8]int{0, 10, 20, 40, 70, 120, 200, 0}

const (
	passedConnectedBonus = 20
	passedProtectedBonus = 15
	passedFreePathBonus  = 30
	passedUnstoppable    = 200
)

// Bonus for king proximity in pawn endings, indexed by closeness.
var kingDistanceBonus = [8]int{0, 0, 10, 20, 30, 40, 50, 60}

// Mobility weight per safe destination square.
var (
	mobilityMg = [6]int{0, 4, 5, 2, 1, 0}
	mobilityEg = [6]int{0, 3, 4, 4, 2, 0}
)

// King safety: weight of each attacker type on the king zone.
var attackerWeight = [6]int{0, 20, 20, 40, 80, 0}

const (
	pawnShieldBonus      = 10
	pawnShieldMissing    = -15
	openFileNearKing     = -20
	semiOpenFileNearKing = -10
)

const (
	bishopPairMg = 25
	bishopPairEg = 50
)

const (
	rookOpenFileMg     = 20
	rookOpenFileEg     = 25
	rookSemiOpenFileMg = 10
	rookSemiOpenFileEg = 15
)

const (
	doubledPawnMg  = -15
	doubledPawnEg  = -20
	isolatedPawnMg = -20
	isolatedPawnEg = -25
	backwardPawnMg = -15
	backwardPawnEg = -10
)

// Piece-square tables, white's view; black squares are mirrored before
// lookup. The king uses separate middlegame and endgame tables: castled
// safety early, central activity late.

var pawnPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	50, 50, 50, 50, 50, 50, 50, 50,
	10, 10, 20, 30, 30, 20, 10, 10,
	5, 5, 10, 25, 25, 10, 5, 5,
	0, 0, 0, 20, 20, 0, 0, 0,
	5, -5, -10, 0, 0, -10, -5, 5,
	5, 10, 10, -20, -20, 10, 10, 5,
	0, 0, 0, 0, 0, 0, 0, 0,
}

var knightPST = [64]int{
	-50, -40, -30, -30, -30, -30, -40, -50,
	-40, -20, 0, 0, 0, 0, -20, -40,
	-30, 0, 10, 15, 15, 10, 0, -30,
	-30, 5, 15, 20, 20, 15, 5, -30,
	-30, 0, 15, 20, 20, 15, 0, -30,
	-30, 5, 10, 15, 15, 10, 5, -30,
	-40, -20, 0, 5, 5, 0, -20, -40,
	-50, -40, -30, -30, -30, -30, -40, -50,
}

var bishopPST = [64]int{
	-20, -10, -10, -10, -10, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 10, 10, 5, 0, -10,
	-10, 5, 5, 10, 10, 5, 5, -10,
	-10, 0, 10, 10, 10, 10, 0, -10,
	-10, 10, 10, 10, 10, 10, 10, -10,
	-10, 5, 0, 0, 0, 0, 5, -10,
	-20, -10, -10, -10, -10, -10, -10, -20,
}

var rookPST = [64]int{
	0, 0, 0, 0, 0, 0, 0, 0,
	5, 10, 10, 10, 10, 10, 10, 5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	-5, 0, 0, 0, 0, 0, 0, -5,
	0, 0, 0, 5, 5, 0, 0, 0,
}

var queenPST = [64]int{
	-20, -10, -10, -5, -5, -10, -10, -20,
	-10, 0, 0, 0, 0, 0, 0, -10,
	-10, 0, 5, 5, 5, 5, 0, -10,
	-5, 0, 5, 5, 5, 5, 0, -5,
	0, 0, 5, 5, 5, 5, 0, -5,
	-10, 5, 5, 5, 5, 5, 0, -10,
	-10, 0, 5, 0, 0, 0, 0, -10,
	-20, -10, -10, -5, -5, -10, -10, -20,
}

var kingMidgamePST = [64]int{
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-30, -40, -40, -50, -50, -40, -40, -30,
	-20, -30, -30, -40, -40, -30, -30, -20,
	-10, -20, -20, -20, -20, -20, -20, -10,
	20, 20, 0, 0, 0, 0, 20, 20,
	20, 30, 10, 0, 0, 10, 30, 20,
}

var kingEndgamePST = [64]int{
	-50, -40, -30, -20, -20, -30, -40, -50,
	-30, -20, -10, 0, 0, -10, -20, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 30, 40, 40, 30, -10, -30,
	-30, -10, 20, 30, 30, 20, -10, -30,
	-30, -30, 0, 0, 0, 0, -30, -30,
	-50, -30, -30, -30, -30, -30, -30, -50,
}

// psts indexes the non-king tables by piece type.
var psts = [5][64]int{pawnPST, knightPST, bishopPST, rookPST, queenPST}

// Evaluate returns the static score of pos in centipawns from the side
// to move's point of view. The evaluation is antisymmetric: mirroring
// the position flips the sign exactly, so there is no tempo term and no
// other side-to-move bonus. Terminal positions are not special-cased
// here; mate and stalemate detection belongs to the search.
func Evaluate(pos *board.Position) int {
	return evaluate(pos, nil)
}

// evaluate is the working implementation; a non-nil pawn table caches
// the pawn-structure terms across calls.
func evaluate(pos *board.Position, pawns *PawnTable) int {
	var mg, eg, phase int

	for c := board.White; c <= board.Black; c++ {
		sign := 1 - 2*int(c)
		for pt := board.Pawn; pt <= board.King; pt++ {
			for bb := pos.Pieces[c][pt]; bb != 0; {
				sq := bb.PopLSB()
				psq := sq
				if c == board.Black {
					psq = sq.Mirror()
				}
				if pt == board.King {
					mg += sign * kingMidgamePST[psq]
					eg += sign * kingEndgamePST[psq]
					continue
				}
				v := board.PieceValue[pt] + psts[pt][psq]
				mg += sign * v
				eg += sign * v
				phase += phaseWeight[pt]
			}
		}
	}

	psMg, psEg := pawnStructure(pos, pawns)
	mg += psMg
	eg += psEg

	ppMg, ppEg := passedPawns(pos)
	mg += ppMg
	eg += ppEg

	mobMg, mobEg := mobility(pos)
	mg += mobMg
	eg += mobEg

	mg += kingSafety(pos)

	bpMg, bpEg := bishopPair(pos)
	mg += bpMg
	eg += bpEg

	rfMg, rfEg := rookFiles(pos)
	mg += rfMg
	eg += rfEg

	if phase > maxPhase {
		phase = maxPhase
	}
	score := (mg*phase + eg*(maxPhase-phase)) / maxPhase

	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// materialBalance is the bare material count, used as a cheap bound in
// quiescence before paying for a full evaluation.
func materialBalance(pos *board.Position) int {
	score := 0
	for pt := board.Pawn; pt < board.King; pt++ {
		score += pos.Pieces[board.White][pt].PopCount() * board.PieceValue[pt]
		score -= pos.Pieces[board.Black][pt].PopCount() * board.PieceValue[pt]
	}
	if pos.SideToMove == board.Black {
		return -score
	}
	return score
}

// pawnStructure scores doubled, isolated and backward pawns, memoized
// by the pawn key when a table is supplied.
func pawnStructure(pos *board.Position, pt *PawnTable) (mg, eg int) {
	if pt != nil {
		if mg, eg, ok := pt.Probe(pos.PawnKey); ok {
			return mg, eg
		}
		defer func() { pt.Store(pos.PawnKey, mg, eg) }()
	}

	for c := board.White; c <= board.Black; c++ {
		sign := 1 - 2*int(c)
		own := pos.Pieces[c][board.Pawn]
		enemy := pos.Pieces[c.Other()][board.Pawn]

		for f := 0; f < 8; f++ {
			if extra := (own & board.FileMasks[f]).PopCount() - 1; extra > 0 {
				mg += sign * doubledPawnMg * extra
				eg += sign * doubledPawnEg * extra
			}
		}

		for bb := own; bb != 0; {
			sq := bb.PopLSB()
			adj := adjacentFiles(sq.File())

			if own&adj == 0 {
				mg += sign * isolatedPawnMg
				eg += sign * isolatedPawnEg
				continue
			}

			// Backward: no pawn beside or behind on a neighbour file,
			// and the stop square is covered by an enemy pawn.
			if own&adj&behindOrEqual(c, sq.Rank()) == 0 {
				var stop board.Square
				if c == board.White {
					stop = sq + 8
				} else {
					stop = sq - 8
				}
				if stop.IsValid() && board.PawnAttacks(stop, c)&enemy != 0 {
					mg += sign * backwardPawnMg
					eg += sign * backwardPawnEg
				}
			}
		}
	}
	return mg, eg
}

// passedPawns scores pawns with a clear run at promotion. King
// distances and the unstoppable-runner test depend on more than pawn
// placement, so this term stays outside the pawn cache.
func passedPawns(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1 - 2*int(c)
		own := pos.Pieces[c][board.Pawn]
		ourKing := pos.KingSquare[c]
		theirKing := pos.KingSquare[c.Other()]

		for bb := own; bb != 0; {
			sq := bb.PopLSB()
			if !isPassed(pos, c, sq) {
				continue
			}

			relRank := sq.RelativeRank(c)
			file := sq.File()
			bonus := passedPawnBonus[relRank]
			egExtra := 0

			promoRank := 7
			if c == board.Black {
				promoRank = 0
			}
			promoSq := board.NewSquare(file, promoRank)

			egExtra += kingDistanceBonus[7-min(distance(ourKing, sq), 7)]
			egExtra += kingDistanceBonus[min(distance(theirKing, promoSq), 7)]

			if board.PawnAttacks(sq, c.Other())&own != 0 {
				bonus += passedProtectedBonus
			}

			for adj := own & adjacentFiles(file); adj != 0; {
				if isPassed(pos, c, adj.PopLSB()) {
					bonus += passedConnectedBonus
					break
				}
			}

			path := frontSpan(c, sq) & board.FileMasks[file]
			if path&pos.AllOccupied == 0 {
				bonus += passedFreePathBonus

				// A runner the defending king cannot catch.
				if relRank >= 4 {
					toGo := 7 - relRank
					tempo := 0
					if pos.SideToMove == c {
						tempo = 1
					}
					if distance(theirKing, sq) > toGo+1-tempo {
						egExtra += passedUnstoppable
					}
				}
			}

			mg += sign * bonus
			eg += sign * (bonus*3/2 + egExtra)
		}
	}
	return mg, eg
}

// isPassed reports whether no enemy pawn stands on sq's file or a
// neighbour file anywhere ahead of it.
func isPassed(pos *board.Position, c board.Color, sq board.Square) bool {
	zone := (board.FileMasks[sq.File()] | adjacentFiles(sq.File())) & frontSpan(c, sq)
	return pos.Pieces[c.Other()][board.Pawn]&zone == 0
}

// mobility counts safe destination squares per piece: not occupied by
// a friendly piece and not covered by an enemy pawn.
func mobility(pos *board.Position) (mg, eg int) {
	occupied := pos.AllOccupied

	for c := board.White; c <= board.Black; c++ {
		sign := 1 - 2*int(c)
		enemyPawns := pos.Pieces[c.Other()][board.Pawn]

		var unsafe board.Bitboard
		if c == board.White {
			unsafe = enemyPawns.SouthEast() | enemyPawns.SouthWest()
		} else {
			unsafe = enemyPawns.NorthEast() | enemyPawns.NorthWest()
		}
		blocked := unsafe | pos.Occupied[c]

		for pt := board.Knight; pt <= board.Queen; pt++ {
			for bb := pos.Pieces[c][pt]; bb != 0; {
				sq := bb.PopLSB()
				var attacks board.Bitboard
				switch pt {
				case board.Knight:
					attacks = board.KnightAttacks(sq)
				case board.Bishop:
					attacks = board.BishopAttacks(sq, occupied)
				case board.Rook:
					attacks = board.RookAttacks(sq, occupied)
				default:
					attacks = board.QueenAttacks(sq, occupied)
				}
				n := (attacks &^ blocked).PopCount()
				mg += sign * mobilityMg[pt] * n
				eg += sign * mobilityEg[pt] * n
			}
		}
	}
	return mg, eg
}

// kingSafety charges for enemy pieces bearing on the king zone and for
// holes in the pawn shield. Middlegame only; a cornered king is an
// asset once the queens are off.
func kingSafety(pos *board.Position) int {
	var score int
	occupied := pos.AllOccupied

	for c := board.White; c <= board.Black; c++ {
		sign := 1 - 2*int(c)
		them := c.Other()
		kingSq := pos.KingSquare[c]

		zone := board.KingAttacks(kingSq) | board.SquareBB(kingSq)
		if c == board.White {
			zone |= zone.North()
		} else {
			zone |= zone.South()
		}

		attackers := 0
		weight := 0
		for pt := board.Knight; pt <= board.Queen; pt++ {
			for bb := pos.Pieces[them][pt]; bb != 0; {
				sq := bb.PopLSB()
				var attacks board.Bitboard
				switch pt {
				case board.Knight:
					attacks = board.KnightAttacks(sq)
				case board.Bishop:
					attacks = board.BishopAttacks(sq, occupied)
				case board.Rook:
					attacks = board.RookAttacks(sq, occupied)
				default:
					attacks = board.QueenAttacks(sq, occupied)
				}
				if attacks&zone != 0 {
					attackers++
					weight += attackerWeight[pt]
				}
			}
		}
		if attackers >= 2 {
			weight = weight * attackers / 2
		}
		score -= sign * weight

		ownPawns := pos.Pieces[c][board.Pawn]
		enemyPawns := pos.Pieces[them][board.Pawn]
		shieldRank := 1
		if c == board.Black {
			shieldRank = 6
		}

		for f := kingSq.File() - 1; f <= kingSq.File()+1; f++ {
			if f < 0 || f > 7 {
				continue
			}
			fileMask := board.FileMasks[f]

			if ownPawns&fileMask&board.RankMasks[shieldRank] != 0 {
				score += sign * pawnShieldBonus
			} else if ownPawns&fileMask == 0 {
				score += sign * pawnShieldMissing
			}

			if ownPawns&fileMask == 0 {
				if enemyPawns&fileMask == 0 {
					score += sign * openFileNearKing
				} else {
					score += sign * semiOpenFileNearKing
				}
			}
		}
	}
	return score
}

func bishopPair(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1 - 2*int(c)
		if pos.Pieces[c][board.Bishop].PopCount() >= 2 {
			mg += sign * bishopPairMg
			eg += sign * bishopPairEg
		}
	}
	return mg, eg
}

func rookFiles(pos *board.Position) (mg, eg int) {
	for c := board.White; c <= board.Black; c++ {
		sign := 1 - 2*int(c)
		own := pos.Pieces[c][board.Pawn]
		enemy := pos.Pieces[c.Other()][board.Pawn]

		for bb := pos.Pieces[c][board.Rook]; bb != 0; {
			fileMask := board.FileMasks[bb.PopLSB().File()]
			if own&fileMask != 0 {
				continue
			}
			if enemy&fileMask == 0 {
				mg += sign * rookOpenFileMg
				eg += sign * rookOpenFileEg
			} else {
				mg += sign * rookSemiOpenFileMg
				eg += sign * rookSemiOpenFileEg
			}
		}
	}
	return mg, eg
}

func adjacentFiles(f int) board.Bitboard {
	var bb board.Bitboard
	if f > 0 {
		bb |= board.FileMasks[f-1]
	}
	if f < 7 {
		bb |= board.FileMasks[f+1]
	}
	return bb
}

// frontSpan is every square strictly ahead of sq from c's view, all
// files.
func frontSpan(c board.Color, sq board.Square) board.Bitboard {
	bb := board.SquareBB(sq)
	if c == board.White {
		return bb.NorthFill() &^ bb
	}
	return bb.SouthFill() &^ bb
}

// behindOrEqual covers the ranks at or behind rank from c's view.
func behindOrEqual(c board.Color, rank int) board.Bitboard {
	var bb board.Bitboard
	if c == board.White {
		for r := 0; r <= rank; r++ {
			bb |= board.RankMasks[r]
		}
	} else {
		for r := rank; r < 8; r++ {
			bb |= board.RankMasks[r]
		}
	}
	return bb
}

// distance is the Chebyshev metric: king steps between squares.
func distance(a, b board.Square) int {
	df := a.File() - b.File()
	if df < 0 {
		df = -df
	}
	dr := a.Rank() - b.Rank()
	if dr < 0 {
		dr = -dr
	}
	return max(df, dr)
}
