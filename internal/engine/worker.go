package engine

import (
	"math"
	"sync/atomic"

	"github.com/velara/skirmish/internal/board"
)

// lmrTable[depth][moveNumber] holds the late-move-reduction amounts.
var lmrTable [64][64]int

func init() {
	for d := 1; d < 64; d++ {
		for m := 1; m < 64; m++ {
			lmrTable[d][m] = int(0.5 + math.Log(float64(d))*math.Log(float64(m))/2.25)
		}
	}
}

// worker runs one search thread. It owns a private copy of the
// position and all per-thread state; only the transposition table,
// the shared history, the stop flag and the node counter are shared.
type worker struct {
	id  int
	pos *board.Position

	orderer *MoveOrderer
	corr    *CorrectionHistory

	nodes     uint64
	pv        PVTable
	evalStack [MaxPly]int
	undoStack [MaxPly]board.Undo

	// Hashes of every position from the game start through the current
	// search path, for repetition detection.
	history    []uint64
	rootHashes []uint64

	tt         *TranspositionTable
	pawnTable  *PawnTable
	sharedHist *SharedHistory
	stop       *atomic.Bool
	published  *atomic.Uint64
	nodeLimit  uint64
}

func newWorker(id int, tt *TranspositionTable, pt *PawnTable, sh *SharedHistory, stop *atomic.Bool, published *atomic.Uint64) *worker {
	return &worker{
		id:         id,
		orderer:    NewMoveOrderer(),
		corr:       NewCorrectionHistory(),
		tt:         tt,
		pawnTable:  pt,
		sharedHist: sh,
		stop:       stop,
		published:  published,
	}
}

// prepare clones the position and seeds the repetition history for a
// new search.
func (w *worker) prepare(pos *board.Position, rootHashes []uint64) {
	w.pos = pos.Copy()
	w.rootHashes = rootHashes
	w.history = make([]uint64, 0, len(rootHashes)+MaxPly)
	w.history = append(w.history, rootHashes...)
	w.history = append(w.history, w.pos.Hash)
	w.nodes = 0
	w.pv = PVTable{}
}

// countNode ticks the node counter and, every 4096 nodes, publishes
// the batch and polls the stop flag. Returns true when the search
// should unwind.
func (w *worker) countNode() bool {
	w.nodes++
	if w.nodes&4095 == 0 {
		w.published.Add(4096)
		if w.nodeLimit > 0 && w.published.Load() >= w.nodeLimit {
			w.stop.Store(true)
		}
		return w.stop.Load()
	}
	return false
}

func (w *worker) evaluate() int {
	return evaluate(w.pos, w.pawnTable)
}

// searchRoot runs one depth iteration and returns the best move and
// its score. When the iteration was cut short by the stop flag the
// result is unreliable and the caller must discard it.
func (w *worker) searchRoot(depth, alpha, beta int) (board.Move, int) {
	score := w.negamax(depth, 0, alpha, beta, board.NoMove)

	var best board.Move
	if w.pv.length[0] > 0 {
		best = w.pv.moves[0][0]
	}
	if best == board.NoMove && !w.stop.Load() {
		var moves board.MoveList
		w.pos.GenerateLegalMoves(&moves)
		if moves.Len() > 0 {
			best = moves.Get(0)
		}
	}
	return best, score
}

// isRepetition reports whether the current position occurred earlier
// on the game or search path.
func (w *worker) isRepetition() bool {
	cur := w.pos.Hash
	for i := len(w.history) - 2; i >= 0; i-- {
		if w.history[i] == cur {
			return true
		}
	}
	return false
}

func (w *worker) isDraw() bool {
	return w.pos.HalfMoveClock >= 100 || w.pos.IsInsufficientMaterial() || w.isRepetition()
}

func (w *worker) negamax(depth, ply, alpha, beta int, prevMove board.Move) int {
	w.pv.length[ply] = ply

	if ply >= MaxPly-1 {
		return w.evaluate()
	}
	if w.countNode() {
		return 0
	}

	if ply > 0 && w.isDraw() {
		return 0
	}

	// Transposition table probe. A deep-enough entry can answer the
	// node outright; a shallow one still donates its move for ordering.
	var ttMove board.Move
	ttPV := false
	ttEntry, ttHit := w.tt.Probe(w.pos.Hash)
	if ttHit {
		ttMove = ttEntry.BestMove
		ttPV = ttEntry.IsPV

		if ttMove != board.NoMove {
			piece := w.pos.PieceAt(ttMove.From())
			if piece == board.NoPiece || piece.Color() != w.pos.SideToMove {
				ttMove = board.NoMove // stale entry from a colliding position
			}
		}

		if ply > 0 && int(ttEntry.Depth) >= depth {
			score := AdjustScoreFromTT(int(ttEntry.Score), ply)
			switch ttEntry.Flag {
			case TTExact:
				return score
			case TTLowerBound:
				if score >= beta {
					return score
				}
			case TTUpperBound:
				if score <= alpha {
					return score
				}
			}
		}
	}

	// Internal iterative deepening: without a hash move, a reduced
	// search plants one for ordering.
	if depth >= 4 && ttMove == board.NoMove {
		w.negamax(depth-2, ply, alpha, beta, prevMove)
		if entry, ok := w.tt.Probe(w.pos.Hash); ok {
			ttMove = entry.BestMove
		}
	}

	if depth <= 0 {
		return w.quiescence(ply, 0, alpha, beta)
	}

	inCheck := w.pos.InCheck()
	extension := 0
	if inCheck {
		extension = 1
	}

	rawEval := w.evaluate()
	staticEval := rawEval + w.corr.Get(w.pos)
	w.evalStack[ply] = staticEval

	improving := ply >= 2 && !inCheck && staticEval > w.evalStack[ply-2]

	// Razoring: hopeless nodes drop straight into quiescence.
	if depth <= 2 && !inCheck && ply > 0 {
		if staticEval+300+100*depth <= alpha {
			if score := w.quiescence(ply, 0, alpha, beta); score <= alpha {
				return score
			}
		}
	}

	// Null move pruning: hand over the move and search shallower. If
	// the position still busts beta, a real move surely will. Skipped
	// without non-pawn material, where zugzwang breaks the logic.
	if !inCheck && depth >= 3 && ply > 0 && !ttPV && w.pos.HasNonPawnMaterial() {
		r := 2 + depth/4
		if r > depth-1 {
			r = depth - 1
		}
		undo := w.pos.MakeNullMove()
		nullScore := -w.negamax(depth-1-r, ply+1, -beta, -beta+1, board.NoMove)
		w.pos.UnmakeNullMove(undo)
		if nullScore >= beta {
			return beta
		}
	}

	// Futility: near the horizon with an eval far below alpha, quiet
	// moves are not going to save the node.
	futile := false
	if depth <= 3 && !inCheck && ply > 0 {
		margin := [4]int{0, 200, 300, 500}
		futile = staticEval+margin[depth] <= alpha
	}

	var moves board.MoveList
	w.pos.GenerateLegalMoves(&moves)
	if moves.Len() == 0 {
		if inCheck {
			return -MateScore + ply
		}
		return 0
	}

	scores := w.orderer.ScoreMoves(w.pos, &moves, ply, ttMove, prevMove)

	bestScore := -Infinity
	bestMove := board.NoMove
	flag := TTUpperBound
	searched := 0

	for i := 0; i < moves.Len(); i++ {
		PickMove(&moves, scores, i)
		move := moves.Get(i)

		isCapture := move.IsCapture(w.pos)
		isPromotion := move.IsPromotion()
		quiet := !isCapture && !isPromotion

		if futile && quiet && bestMove != board.NoMove {
			continue
		}

		// Late move pruning: deep in the list, quiet moves stop being
		// worth a search at shallow depths.
		if quiet && !inCheck && ply > 0 && depth <= 7 && searched > 0 && move != ttMove {
			threshold := lmpThreshold[depth]
			if !improving {
				threshold = threshold * 2 / 3
			}
			if searched >= threshold {
				continue
			}
		}

		w.undoStack[ply] = w.pos.MakeMove(move)
		if !w.undoStack[ply].Valid {
			w.pos.UnmakeMove(move, w.undoStack[ply])
			continue
		}
		w.history = append(w.history, w.pos.Hash)
		searched++

		newDepth := depth - 1 + extension
		var score int

		if searched == 1 {
			score = -w.negamax(newDepth, ply+1, -beta, -alpha, move)
		} else {
			// Principal variation search with late move reductions:
			// later quiet moves get a reduced null-window probe first
			// and a full re-search only when they surprise us.
			reduced := newDepth
			if quiet && !inCheck && depth >= 3 && searched > 4 {
				d, m := depth, searched
				if d > 63 {
					d = 63
				}
				if m > 63 {
					m = 63
				}
				reduction := lmrTable[d][m]
				if !improving {
					reduction++
				}
				hist := (w.orderer.HistoryScore(move) + w.sharedHist.Get(move)) / 2
				reduction -= hist / 8192
				if reduction < 1 {
					reduction = 1
				}
				reduced = newDepth - reduction
				if reduced < 1 {
					reduced = 1
				}
			}

			score = -w.negamax(reduced, ply+1, -alpha-1, -alpha, move)
			if score > alpha && (reduced < newDepth || score < beta) {
				score = -w.negamax(newDepth, ply+1, -beta, -alpha, move)
			}
		}

		w.history = w.history[:len(w.history)-1]
		w.pos.UnmakeMove(move, w.undoStack[ply])

		if w.stop.Load() {
			return 0
		}

		if score > bestScore {
			bestScore = score
			bestMove = move
			if score > alpha {
				alpha = score
				flag = TTExact
				w.pv.update(ply, move)
			}
		}

		if score >= beta {
			if ply == 0 {
				w.pv.moves[0][0] = bestMove
				w.pv.length[0] = 1
			}
			w.tt.Store(w.pos.Hash, depth, AdjustScoreToTT(score, ply), TTLowerBound, bestMove, false)

			if quiet {
				w.orderer.UpdateKillers(move, ply)
				w.orderer.UpdateHistory(move, depth, true)
				w.orderer.UpdateCounterMove(w.pos, prevMove, move)
				w.sharedHist.Update(move, depth*depth)
			}
			return score
		}
	}

	if bestMove == board.NoMove {
		bestMove = moves.Get(0)
		if bestScore == -Infinity {
			bestScore = alpha
		}
	}

	if flag == TTExact && !inCheck && depth >= 2 && !isMateScore(bestScore) {
		w.corr.Update(w.pos, bestScore, rawEval, depth)
	}

	w.tt.Store(w.pos.Hash, depth, AdjustScoreToTT(bestScore, ply), flag, bestMove, flag == TTExact)
	return bestScore
}

// quiescence resolves captures (and, in check, every evasion) until
// the position quiets down, so the horizon never cuts a capture
// sequence in half.
func (w *worker) quiescence(ply, qPly, alpha, beta int) int {
	const maxQuiescencePly = 32
	if ply >= MaxPly || qPly > maxQuiescencePly {
		return w.evaluate()
	}
	if w.countNode() {
		return 0
	}

	inCheck := w.pos.InCheck()

	if inCheck {
		// No standing pat while in check: every evasion is searched
		// and a silent node here is mate.
		var moves board.MoveList
		w.pos.GenerateLegalMoves(&moves)
		if moves.Len() == 0 {
			return -MateScore + ply
		}
		scores := w.orderer.ScoreMoves(w.pos, &moves, ply, board.NoMove, board.NoMove)
		for i := 0; i < moves.Len(); i++ {
			PickMove(&moves, scores, i)
			move := moves.Get(i)

			undo := w.pos.MakeMove(move)
			if !undo.Valid {
				w.pos.UnmakeMove(move, undo)
				continue
			}
			score := -w.quiescence(ply+1, qPly+1, -beta, -alpha)
			w.pos.UnmakeMove(move, undo)

			if score >= beta {
				return beta
			}
			if score > alpha {
				alpha = score
			}
		}
		return alpha
	}

	// A cheap material bound before paying for the full evaluation.
	lazy := materialBalance(w.pos)
	if lazy-lazyMargin >= beta {
		return beta
	}

	standPat := w.evaluate()
	if standPat >= beta {
		return beta
	}
	if standPat > alpha {
		alpha = standPat
	}
	if standPat+board.PieceValue[board.Queen] < alpha {
		return alpha // even winning a queen cannot raise alpha
	}

	var moves board.MoveList
	w.pos.GenerateCaptures(&moves)
	scores := w.orderer.ScoreMoves(w.pos, &moves, ply, board.NoMove, board.NoMove)

	for i := 0; i < moves.Len(); i++ {
		PickMove(&moves, scores, i)
		move := moves.Get(i)

		// Delta pruning: skip captures that cannot close the gap to
		// alpha even if the captured piece comes for free.
		gain := board.PieceValue[board.Pawn]
		if !move.IsEnPassant() {
			if captured := w.pos.PieceAt(move.To()); captured != board.NoPiece {
				gain = board.PieceValue[captured.Type()]
			}
		}
		if move.IsPromotion() {
			gain += board.PieceValue[board.Queen] - board.PieceValue[board.Pawn]
		}
		if standPat+gain+200 < alpha {
			continue
		}

		undo := w.pos.MakeMove(move)
		if !undo.Valid {
			w.pos.UnmakeMove(move, undo)
			continue
		}
		score := -w.quiescence(ply+1, qPly+1, -beta, -alpha)
		w.pos.UnmakeMove(move, undo)

		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}

	// At the quiescence entry ply, quiet checking moves get one look:
	// they are the tactics captures alone miss.
	if qPly == 0 {
		var checks board.MoveList
		w.pos.GenerateQuietChecks(&checks)
		for i := 0; i < checks.Len(); i++ {
			move := checks.Get(i)

			undo := w.pos.MakeMove(move)
			if !undo.Valid {
				w.pos.UnmakeMove(move, undo)
				continue
			}
			score := -w.quiescence(ply+1, qPly+1, -beta, -alpha)
			w.pos.UnmakeMove(move, undo)

			if score >= beta {
				return beta
			}
			if score > alpha {
				alpha = score
			}
		}
	}

	return alpha
}
