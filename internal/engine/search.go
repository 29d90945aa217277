package engine

import "github.com/velara/skirmish/internal/board"

// Score bounds. Mate scores occupy (MateScore-MaxPly, MateScore] so a
// forced mate always outranks any positional score, and the distance
// to mate is recoverable as MateScore minus the absolute value.
const (
	Infinity  = 30000
	MateScore = 29000
	MaxPly    = 128
)

// lazyMargin bounds how far the full evaluation can stray from the
// bare material count; quiescence uses it to skip hopeless evals.
const lazyMargin = 150

// lmpThreshold[d] is the move count after which quiet moves are
// pruned at depth d.
var lmpThreshold = [8]int{0, 3, 5, 9, 15, 23, 33, 45}

func isMateScore(score int) bool {
	return abs(score) > MateScore-MaxPly
}

// MateIn converts a mate score to full moves until mate, positive when
// the side to move mates, negative when it is mated. Returns 0 for
// non-mate scores.
func MateIn(score int) int {
	if !isMateScore(score) {
		return 0
	}
	plies := MateScore - abs(score)
	mate := (plies + 1) / 2
	if score < 0 {
		return -mate
	}
	return mate
}

// PVTable stores the principal variation as a triangular array: row
// ply holds the best line found from that ply.
type PVTable struct {
	length [MaxPly]int
	moves  [MaxPly][MaxPly]board.Move
}

// update records m as the best move at ply and pulls up the line
// found below it.
func (pv *PVTable) update(ply int, m board.Move) {
	pv.moves[ply][ply] = m
	copy(pv.moves[ply][ply+1:pv.length[ply+1]], pv.moves[ply+1][ply+1:pv.length[ply+1]])
	pv.length[ply] = pv.length[ply+1]
	if pv.length[ply] <= ply {
		pv.length[ply] = ply + 1
	}
}

// line returns a copy of the principal variation from the root.
func (pv *PVTable) line() []board.Move {
	out := make([]board.Move, pv.length[0])
	copy(out, pv.moves[0][:pv.length[0]])
	return out
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
