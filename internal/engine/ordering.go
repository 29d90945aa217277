package engine

import (
	"sync/atomic"

	"github.com/velara/skirmish/internal/board"
)

// Ordering score bands. Moves are picked highest first, so the bands
// put the hash move ahead of captures, captures ahead of killers, and
// everything else on history.
const (
	ttMoveScore     = 10000000
	goodCaptureBase = 1000000
	killerScore1    = 900000
	killerScore2    = 800000
	counterScore    = 790000
)

// mvvLva[victim][attacker]: prefer big victims, then cheap attackers.
var mvvLva = [6][6]int{
	{15, 14, 14, 13, 12, 11}, // pawn victim
	{25, 24, 24, 23, 22, 21}, // knight victim
	{35, 34, 34, 33, 32, 31}, // bishop victim
	{45, 44, 44, 43, 42, 41}, // rook victim
	{55, 54, 54, 53, 52, 51}, // queen victim
	{0, 0, 0, 0, 0, 0},
}

// MoveOrderer holds the per-worker ordering heuristics: two killer
// moves per ply, butterfly history, and a counter-move table keyed by
// the previous move's piece and destination.
type MoveOrderer struct {
	killers      [MaxPly][2]board.Move
	history      [64][64]int
	counterMoves [12][64]board.Move
}

func NewMoveOrderer() *MoveOrderer {
	return &MoveOrderer{}
}

// Clear forgets killers and counters and decays history between
// searches, so old games bias but do not dominate new ones.
func (mo *MoveOrderer) Clear() {
	for i := range mo.killers {
		mo.killers[i][0] = board.NoMove
		mo.killers[i][1] = board.NoMove
	}
	for i := range mo.history {
		for j := range mo.history[i] {
			mo.history[i][j] /= 2
		}
	}
	for i := range mo.counterMoves {
		for j := range mo.counterMoves[i] {
			mo.counterMoves[i][j] = board.NoMove
		}
	}
}

// ScoreMoves assigns an ordering score to every move in ml.
func (mo *MoveOrderer) ScoreMoves(pos *board.Position, ml *board.MoveList, ply int, ttMove, prevMove board.Move) []int {
	counter := mo.counterMove(pos, prevMove)
	scores := make([]int, ml.Len())
	for i := 0; i < ml.Len(); i++ {
		scores[i] = mo.scoreMove(pos, ml.Get(i), ply, ttMove, counter)
	}
	return scores
}

func (mo *MoveOrderer) scoreMove(pos *board.Position, m board.Move, ply int, ttMove, counter board.Move) int {
	if m == ttMove {
		return ttMoveScore
	}

	if m.IsCapture(pos) {
		attacker := pos.PieceAt(m.From())
		if attacker == board.NoPiece {
			return goodCaptureBase
		}

		victim := board.Pawn
		if !m.IsEnPassant() {
			captured := pos.PieceAt(m.To())
			if captured == board.NoPiece || captured.Type() >= board.King {
				return goodCaptureBase
			}
			victim = captured.Type()
		}

		score := goodCaptureBase + mvvLva[victim][attacker.Type()]*1000
		if board.PieceValue[attacker.Type()] < board.PieceValue[victim] {
			score += 10000 // capturing up never loses material
		}
		return score
	}

	if m.IsPromotion() {
		return goodCaptureBase - 1000 + int(m.Promotion())*100
	}

	if m == mo.killers[ply][0] {
		return killerScore1
	}
	if m == mo.killers[ply][1] {
		return killerScore2
	}
	if m == counter && counter != board.NoMove {
		return counterScore
	}

	return mo.history[m.From()][m.To()]
}

// PickMove swaps the best remaining move into index, sorting lazily:
// a beta cutoff on the first move never pays for a full sort.
func PickMove(ml *board.MoveList, scores []int, index int) {
	best := index
	for j := index + 1; j < ml.Len(); j++ {
		if scores[j] > scores[best] {
			best = j
		}
	}
	if best != index {
		ml.Swap(index, best)
		scores[index], scores[best] = scores[best], scores[index]
	}
}

// UpdateKillers records a quiet move that caused a beta cutoff.
func (mo *MoveOrderer) UpdateKillers(m board.Move, ply int) {
	if ply >= MaxPly || mo.killers[ply][0] == m {
		return
	}
	mo.killers[ply][1] = mo.killers[ply][0]
	mo.killers[ply][0] = m
}

// UpdateHistory credits or debits a quiet move by depth squared.
func (mo *MoveOrderer) UpdateHistory(m board.Move, depth int, good bool) {
	from, to := m.From(), m.To()
	bonus := depth * depth
	if good {
		mo.history[from][to] += bonus
		if mo.history[from][to] > 400000 {
			for i := range mo.history {
				for j := range mo.history[i] {
					mo.history[i][j] /= 2
				}
			}
		}
	} else {
		mo.history[from][to] -= bonus
		if mo.history[from][to] < -400000 {
			mo.history[from][to] = -400000
		}
	}
}

// UpdateCounterMove remembers m as the refutation of prevMove.
func (mo *MoveOrderer) UpdateCounterMove(pos *board.Position, prevMove, m board.Move) {
	if prevMove == board.NoMove {
		return
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return
	}
	mo.counterMoves[piece][prevMove.To()] = m
}

func (mo *MoveOrderer) counterMove(pos *board.Position, prevMove board.Move) board.Move {
	if prevMove == board.NoMove {
		return board.NoMove
	}
	piece := pos.PieceAt(prevMove.To())
	if piece == board.NoPiece {
		return board.NoMove
	}
	return mo.counterMoves[piece][prevMove.To()]
}

// HistoryScore exposes the raw history value, used by the late move
// reduction formula.
func (mo *MoveOrderer) HistoryScore(m board.Move) int {
	return mo.history[m.From()][m.To()]
}

// SharedHistory is a from-to history table all workers write to, so a
// refutation one worker finds steers every worker's ordering. Entries
// are atomics; racing updates may drop a bonus, which is acceptable
// for a heuristic.
type SharedHistory struct {
	table [64][64]atomic.Int32
}

func NewSharedHistory() *SharedHistory {
	return &SharedHistory{}
}

func (sh *SharedHistory) Get(m board.Move) int {
	return int(sh.table[m.From()][m.To()].Load())
}

func (sh *SharedHistory) Update(m board.Move, bonus int) {
	cell := &sh.table[m.From()][m.To()]
	if v := cell.Add(int32(bonus)); v > 400000 {
		cell.Store(v / 2)
	}
}

func (sh *SharedHistory) Clear() {
	for i := range sh.table {
		for j := range sh.table[i] {
			sh.table[i][j].Store(0)
		}
	}
}
