package engine

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/velara/skirmish/internal/board"
)

// ErrNoLegalMoves is returned when the searched position is already
// checkmate or stalemate.
var ErrNoLegalMoves = errors.New("no legal moves")

// Limits constrains a search. Zero values mean unbounded; a search
// with no limits at all runs until the context is cancelled or Stop
// is called.
type Limits struct {
	Depth    int           // maximum iteration depth
	MoveTime time.Duration // wall-clock allowance for this search
	Nodes    uint64        // node ceiling, summed across threads
	Threads  int           // worker count, 0 or 1 searches single-threaded

	// History holds the Zobrist hashes of earlier game positions so
	// the search can recognize repetitions that span the root.
	History []uint64
}

// SearchInfo is a progress report issued after each completed
// iteration.
type SearchInfo struct {
	Depth    int
	Score    int
	Nodes    uint64
	Time     time.Duration
	PV       []board.Move
	HashFull int
}

// SearchResult is the outcome of one search.
type SearchResult struct {
	Move  board.Move
	Score int
	Depth int
	Nodes uint64
	Time  time.Duration
	PV    []board.Move

	// Interrupted is true when the search was cut short by the
	// context, a limit, or Stop, rather than finishing on its own.
	Interrupted bool
}

// ScoredMove pairs a root move with its search score.
type ScoredMove struct {
	Move  board.Move
	Score int
}

// Engine searches chess positions. One Engine runs one search at a
// time; the transposition table, pawn cache and shared history persist
// across searches so later moves of a game profit from earlier work.
type Engine struct {
	tt         *TranspositionTable
	pawnTable  *PawnTable
	sharedHist *SharedHistory

	workers []*worker
	stop    atomic.Bool
	nodes   atomic.Uint64
	budget  Budget

	// OnInfo, when set, receives a progress report after every
	// completed iteration of the main worker.
	OnInfo func(SearchInfo)
}

// NewEngine creates an engine with a transposition table of the given
// size in megabytes.
func NewEngine(ttSizeMB int) *Engine {
	return &Engine{
		tt:         NewTranspositionTable(ttSizeMB),
		pawnTable:  NewPawnTable(1),
		sharedHist: NewSharedHistory(),
	}
}

func (e *Engine) ensureWorkers(n int) {
	for len(e.workers) < n {
		e.workers = append(e.workers, newWorker(len(e.workers), e.tt, e.pawnTable, e.sharedHist, &e.stop, &e.nodes))
	}
}

// Search runs an iterative-deepening search and returns the best move
// found. It returns ErrNoLegalMoves when the position is checkmate or
// stalemate. The position is not modified.
func (e *Engine) Search(ctx context.Context, pos *board.Position, limits Limits) (SearchResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var rootMoves board.MoveList
	pos.GenerateLegalMoves(&rootMoves)
	if rootMoves.Len() == 0 {
		return SearchResult{}, ErrNoLegalMoves
	}

	e.stop.Store(false)
	e.nodes.Store(0)
	e.tt.NewSearch()
	e.budget.Init(limits.MoveTime)

	threads := limits.Threads
	if threads < 1 {
		threads = 1
	}
	e.ensureWorkers(threads)

	maxDepth := limits.Depth
	if maxDepth <= 0 || maxDepth >= MaxPly {
		maxDepth = MaxPly - 1
	}

	for _, w := range e.workers[:threads] {
		w.nodeLimit = limits.Nodes
		w.prepare(pos, limits.History)
		w.orderer.Clear()
		w.corr.Age()
	}

	// The watchdog turns the context and the hard deadline into stop
	// flag trips, so the search loop itself never checks the clock.
	watchdogDone := make(chan struct{})
	go func() {
		var deadline <-chan time.Time
		if e.budget.Armed() {
			t := time.NewTimer(e.budget.Remaining())
			defer t.Stop()
			deadline = t.C
		}
		select {
		case <-ctx.Done():
			e.stop.Store(true)
		case <-deadline:
			e.stop.Store(true)
		case <-watchdogDone:
		}
	}()

	// Helpers run their own deepening loops and contribute through the
	// shared transposition table and history.
	var wg sync.WaitGroup
	for _, w := range e.workers[1:threads] {
		wg.Add(1)
		go func(w *worker) {
			defer wg.Done()
			for depth := 1 + w.id%2; depth <= maxDepth; depth++ {
				w.searchRoot(depth, -Infinity, Infinity)
				if e.stop.Load() {
					return
				}
			}
		}(w)
	}

	result := e.deepen(e.workers[0], maxDepth)

	e.stop.Store(true)
	wg.Wait()
	close(watchdogDone)

	var total uint64
	for _, w := range e.workers[:threads] {
		total += w.nodes
	}
	result.Nodes = total
	result.Time = e.budget.Elapsed()

	if result.Move == board.NoMove {
		result.Move = rootMoves.Get(0)
	}
	if len(result.PV) == 0 {
		result.PV = []board.Move{result.Move}
	}
	return result, nil
}

// deepen drives the main worker through the iterative-deepening loop
// with aspiration windows and owns all time-allocation decisions.
func (e *Engine) deepen(w *worker, maxDepth int) SearchResult {
	const initialWindow = 50

	var result SearchResult
	prevBest := board.NoMove
	stability := 0
	changes := 0

	for depth := 1; depth <= maxDepth; depth++ {
		iterStart := time.Now()

		var move board.Move
		var score int

		if depth >= 5 && result.Move != board.NoMove {
			// Aspiration: search in a narrow window around the last
			// score and widen the failing side on a miss.
			alpha := result.Score - initialWindow
			beta := result.Score + initialWindow
			for {
				move, score = w.searchRoot(depth, alpha, beta)
				if e.stop.Load() {
					break
				}
				if score <= alpha {
					alpha = -Infinity
				} else if score >= beta {
					beta = Infinity
				} else {
					break
				}
			}
		} else {
			move, score = w.searchRoot(depth, -Infinity, Infinity)
		}

		if e.stop.Load() {
			// The interrupted iteration searched an arbitrary subset
			// of the root moves; its answer cannot be trusted.
			result.Interrupted = true
			break
		}

		result.Move = move
		result.Score = score
		result.Depth = depth
		result.PV = w.pv.line()

		if move == prevBest {
			stability++
			if changes > 0 {
				changes--
			}
		} else {
			stability = 0
			changes++
		}
		prevBest = move
		e.budget.AdjustForStability(stability)
		e.budget.AdjustForInstability(changes)

		if e.OnInfo != nil {
			e.OnInfo(SearchInfo{
				Depth:    depth,
				Score:    score,
				Nodes:    e.nodes.Load() + (w.nodes & 4095),
				Time:     e.budget.Elapsed(),
				PV:       result.PV,
				HashFull: e.tt.HashFull(),
			})
		}

		if isMateScore(score) {
			break
		}
		if e.budget.PastOptimum() {
			break
		}
		// An iteration tends to cost several times its predecessor;
		// starting one that cannot finish only wastes the remainder.
		if e.budget.Armed() && e.budget.Remaining() < time.Since(iterStart) {
			break
		}
	}

	return result
}

// SearchMoves scores every legal root move by a fixed-depth search and
// returns the top n, best first. n <= 0 returns all moves. Only the
// Depth, Threads and History limits apply; cancel the context to abort.
func (e *Engine) SearchMoves(ctx context.Context, pos *board.Position, n int, limits Limits) ([]ScoredMove, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	var rootMoves board.MoveList
	pos.GenerateLegalMoves(&rootMoves)
	if rootMoves.Len() == 0 {
		return nil, ErrNoLegalMoves
	}

	depth := limits.Depth
	if depth <= 0 {
		depth = 6
	}
	threads := limits.Threads
	if threads < 1 {
		threads = 1
	}
	if threads > rootMoves.Len() {
		threads = rootMoves.Len()
	}

	e.stop.Store(false)
	e.nodes.Store(0)
	e.tt.NewSearch()

	watchdogDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			e.stop.Store(true)
		case <-watchdogDone:
		}
	}()

	tasks := make(chan board.Move)
	results := make(chan ScoredMove, rootMoves.Len())

	var wg sync.WaitGroup
	for i := 0; i < threads; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			w := newWorker(id, e.tt, e.pawnTable, e.sharedHist, &e.stop, &e.nodes)
			w.prepare(pos, limits.History)
			for m := range tasks {
				if e.stop.Load() {
					continue
				}
				undo := w.pos.MakeMove(m)
				w.history = append(w.history, w.pos.Hash)
				score := -w.negamax(depth-1, 1, -Infinity, Infinity, m)
				w.history = w.history[:len(w.history)-1]
				w.pos.UnmakeMove(m, undo)
				if !e.stop.Load() {
					results <- ScoredMove{Move: m, Score: score}
				}
			}
		}(i)
	}

	for i := 0; i < rootMoves.Len(); i++ {
		tasks <- rootMoves.Get(i)
	}
	close(tasks)
	wg.Wait()
	close(watchdogDone)
	close(results)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	scored := make([]ScoredMove, 0, rootMoves.Len())
	for sm := range results {
		scored = append(scored, sm)
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if n > 0 && n < len(scored) {
		scored = scored[:n]
	}
	return scored, nil
}

// Stop aborts the search in progress, if any.
func (e *Engine) Stop() {
	e.stop.Store(true)
}

// Clear wipes the transposition table and every other cache, as after
// loading an unrelated position.
func (e *Engine) Clear() {
	e.tt.Clear()
	e.pawnTable.Clear()
	e.sharedHist.Clear()
	for _, w := range e.workers {
		w.orderer.Clear()
		w.corr.Clear()
	}
}

// Evaluate returns the static evaluation of the position in
// centipawns from the side to move's perspective.
func (e *Engine) Evaluate(pos *board.Position) int {
	return evaluate(pos, e.pawnTable)
}

// Perft counts the leaf nodes of the legal move tree to the given
// depth. It exercises move generation and make/unmake and nothing
// else, which makes it the standard cross-check for both.
func Perft(pos *board.Position, depth int) uint64 {
	if depth == 0 {
		return 1
	}

	var moves board.MoveList
	pos.GenerateLegalMoves(&moves)
	if depth == 1 {
		return uint64(moves.Len())
	}

	var nodes uint64
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		nodes += Perft(pos, depth-1)
		pos.UnmakeMove(move, undo)
	}
	return nodes
}

// Divide returns the perft count below each root move, keyed by the
// move in coordinate notation. Comparing a Divide against a known-good
// engine pins a generation bug to the square it starts from.
func Divide(pos *board.Position, depth int) map[string]uint64 {
	out := make(map[string]uint64)
	var moves board.MoveList
	pos.GenerateLegalMoves(&moves)
	for i := 0; i < moves.Len(); i++ {
		move := moves.Get(i)
		undo := pos.MakeMove(move)
		out[move.String()] = Perft(pos, depth-1)
		pos.UnmakeMove(move, undo)
	}
	return out
}

// ScoreToString renders a score the way chess players read them:
// pawns with two decimals, or moves to mate.
func ScoreToString(score int) string {
	if m := MateIn(score); m != 0 {
		if m > 0 {
			return "Mate in " + itoa(m)
		}
		return "Mated in " + itoa(-m)
	}

	sign := ""
	if score < 0 {
		sign = "-"
		score = -score
	}
	cp := score % 100
	tail := itoa(cp)
	if cp < 10 {
		tail = "0" + tail
	}
	return sign + itoa(score/100) + "." + tail
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	s := ""
	for n > 0 {
		s = string('0'+byte(n%10)) + s
		n /= 10
	}
	return s
}
