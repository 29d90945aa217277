// Package cli implements the interactive analysis shell: a line-based
// loop that owns a position, plays moves on it, and drives the engine
// for search, ranking and perft.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/velara/skirmish/internal/board"
	"github.com/velara/skirmish/internal/book"
	"github.com/velara/skirmish/internal/engine"
	"github.com/velara/skirmish/internal/storage"
)

// Version stamps the banner and saved analysis records.
const Version = "0.3.0"

// defaultDepth bounds searches started without an explicit limit.
const defaultDepth = 8

// Options carries the shell's optional collaborators. A nil field
// disables the corresponding command or behavior.
type Options struct {
	Book    *book.Book     // opening book backing the book command
	Store   *storage.Store // analysis cache, consulted and refreshed best-effort
	Threads int            // search worker count, 0 for single-threaded
}

// Shell is the interactive analysis loop.
type Shell struct {
	engine  *engine.Engine
	pos     *board.Position
	book    *book.Book
	store   *storage.Store
	threads int
	out     io.Writer

	// Moves played since the last new/position command, with the hash
	// of every earlier position. played drives undo; hashes feeds the
	// search so repetitions across the shell's own moves count.
	played []playedMove
	hashes []uint64
}

type playedMove struct {
	move board.Move
	undo board.Undo
}

// New builds a shell around an engine, writing to stdout.
func New(eng *engine.Engine, opts Options) *Shell {
	s := &Shell{
		engine:  eng,
		pos:     board.NewPosition(),
		book:    opts.Book,
		store:   opts.Store,
		threads: opts.Threads,
		out:     os.Stdout,
	}
	eng.OnInfo = s.printInfo
	return s
}

// SetOutput redirects the shell's output. Tests use this.
func (s *Shell) SetOutput(w io.Writer) { s.out = w }

// SetPosition replaces the shell position, discarding any played
// moves.
func (s *Shell) SetPosition(fen string) error {
	pos, err := board.ParseFEN(fen)
	if err != nil {
		return err
	}
	s.reset(pos)
	return nil
}

// Run reads commands from r until quit or EOF.
func (s *Shell) Run(r io.Reader) {
	fmt.Fprintf(s.out, "skirmish %s (type help for commands)\n", Version)
	s.printBoard()
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if !s.dispatch(line) {
			return
		}
	}
}

// dispatch executes one command line and reports whether the loop
// should keep running.
func (s *Shell) dispatch(line string) bool {
	fields := strings.Fields(line)
	switch fields[0] {
	case "quit", "exit":
		return false
	case "help":
		s.printHelp()
	case "new":
		s.reset(board.NewPosition())
		s.engine.Clear()
		s.printBoard()
	case "d":
		s.printBoard()
	case "fen":
		fmt.Fprintln(s.out, s.pos.ToFEN())
	case "eval":
		score := s.engine.Evaluate(s.pos)
		fmt.Fprintf(s.out, "static eval %s (%s to move)\n",
			engine.ScoreToString(score), s.pos.SideToMove)
	case "moves":
		s.handleMoves()
	case "perft":
		s.handlePerft(fields)
	case "search":
		s.handleSearch(fields)
	case "go":
		s.handleGo(fields)
	case "rank":
		s.handleRank(fields)
	case "position":
		s.handlePosition(fields)
	case "undo":
		s.handleUndo()
	case "book":
		s.handleBook()
	default:
		if !s.playMove(fields[0]) {
			fmt.Fprintf(s.out, "unknown command %q (try help)\n", fields[0])
		}
	}
	return true
}

// playMove interprets text as a move, coordinate notation first, SAN
// second. It reports whether the text named a move at all; an illegal
// but well-formed move counts as handled.
func (s *Shell) playMove(text string) bool {
	m, err := board.ParseMove(text, s.pos)
	if err == nil && !s.pos.LegalMoves().Contains(m) {
		fmt.Fprintf(s.out, "illegal move %s\n", text)
		return true
	}
	if err != nil {
		if m, err = board.ParseSAN(text, s.pos); err != nil {
			return false
		}
	}
	s.apply(m)
	return true
}

// apply plays a legal move on the shell position and reports the
// resulting state.
func (s *Shell) apply(m board.Move) {
	san := m.ToSAN(s.pos)
	s.hashes = append(s.hashes, s.pos.Hash)
	undo := s.pos.MakeMove(m)
	s.played = append(s.played, playedMove{m, undo})
	fmt.Fprintf(s.out, "played %s (%s)\n", san, m)
	s.printBoard()
	s.reportState()
}

// reportState announces check and game-over conditions on the current
// position.
func (s *Shell) reportState() {
	switch {
	case s.pos.IsCheckmate():
		fmt.Fprintf(s.out, "checkmate, %s wins\n", s.pos.SideToMove.Other())
	case s.pos.IsStalemate():
		fmt.Fprintln(s.out, "stalemate")
	case s.pos.IsDraw():
		fmt.Fprintln(s.out, "draw by rule")
	case s.pos.InCheck():
		fmt.Fprintln(s.out, "check")
	}
}

func (s *Shell) handleMoves() {
	legal := s.pos.LegalMoves()
	names := make([]string, 0, legal.Len())
	for i := 0; i < legal.Len(); i++ {
		names = append(names, legal.Get(i).String())
	}
	sort.Strings(names)
	fmt.Fprintln(s.out, strings.Join(names, " "))
	fmt.Fprintf(s.out, "%d legal moves\n", len(names))
}

func (s *Shell) handlePerft(fields []string) {
	if len(fields) < 2 {
		fmt.Fprintln(s.out, "usage: perft <depth>")
		return
	}
	depth, err := strconv.Atoi(fields[1])
	if err != nil || depth < 1 {
		fmt.Fprintf(s.out, "bad depth %q\n", fields[1])
		return
	}

	start := time.Now()
	counts := engine.Divide(s.pos, depth)
	elapsed := time.Since(start)

	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	var total uint64
	for _, name := range names {
		fmt.Fprintf(s.out, "%-6s %d\n", name, counts[name])
		total += counts[name]
	}
	fmt.Fprintf(s.out, "\nNodes: %d\n", total)
	fmt.Fprintf(s.out, "Time: %v\n", elapsed.Round(time.Millisecond))
	if sec := elapsed.Seconds(); sec > 0 {
		fmt.Fprintf(s.out, "NPS: %.0f\n", float64(total)/sec)
	}
}

func (s *Shell) handleSearch(fields []string) {
	depth := defaultDepth
	if len(fields) > 1 {
		d, err := strconv.Atoi(fields[1])
		if err != nil || d < 1 {
			fmt.Fprintf(s.out, "bad depth %q\n", fields[1])
			return
		}
		depth = d
	}
	s.runSearch(engine.Limits{Depth: depth, Threads: s.threads})
}

// handleGo accepts UCI-flavored limit syntax: go depth 6, go movetime
// 2000, go nodes 500000, in any combination.
func (s *Shell) handleGo(fields []string) {
	var limits engine.Limits
	for i := 1; i < len(fields); i++ {
		switch fields[i] {
		case "depth":
			if i+1 < len(fields) {
				i++
				limits.Depth, _ = strconv.Atoi(fields[i])
			}
		case "movetime":
			if i+1 < len(fields) {
				i++
				ms, _ := strconv.Atoi(fields[i])
				limits.MoveTime = time.Duration(ms) * time.Millisecond
			}
		case "nodes":
			if i+1 < len(fields) {
				i++
				limits.Nodes, _ = strconv.ParseUint(fields[i], 10, 64)
			}
		default:
			fmt.Fprintf(s.out, "unknown go option %q\n", fields[i])
			return
		}
	}
	if limits.Depth == 0 && limits.MoveTime == 0 && limits.Nodes == 0 {
		limits.Depth = defaultDepth
	}
	limits.Threads = s.threads
	s.runSearch(limits)
}

// runSearch drives one engine search and prints the result. Plain
// fixed-depth searches go through the analysis cache when one is open:
// a stored record is reused only when its depth covers the request and
// its FEN matches, and completed searches are written back.
func (s *Shell) runSearch(limits engine.Limits) {
	cacheable := s.store != nil && limits.Depth > 0 &&
		limits.MoveTime == 0 && limits.Nodes == 0
	if cacheable {
		rec, err := s.store.LoadAnalysis(s.pos.Hash)
		if err == nil && rec.Depth >= limits.Depth && rec.FEN == s.pos.ToFEN() {
			fmt.Fprintf(s.out, "cached depth %d  score %s  pv %s\n",
				rec.Depth, engine.ScoreToString(rec.Score), strings.Join(rec.PV, " "))
			fmt.Fprintf(s.out, "best move %s\n", rec.BestMove)
			return
		}
	}

	limits.History = s.hashes
	res, err := s.engine.Search(context.Background(), s.pos, limits)
	if err != nil {
		if errors.Is(err, engine.ErrNoLegalMoves) {
			s.reportState()
			return
		}
		fmt.Fprintf(s.out, "search failed: %v\n", err)
		return
	}

	fmt.Fprintf(s.out, "best move %s (%s)  score %s  depth %d  nodes %d  time %v\n",
		res.Move, res.Move.ToSAN(s.pos), engine.ScoreToString(res.Score),
		res.Depth, res.Nodes, res.Time.Round(time.Millisecond))

	if cacheable && !res.Interrupted {
		rec := &storage.AnalysisRecord{
			FEN:      s.pos.ToFEN(),
			Depth:    res.Depth,
			Score:    res.Score,
			BestMove: res.Move.String(),
			PV:       moveStrings(res.PV),
			Nodes:    res.Nodes,
			Elapsed:  res.Time,
			Version:  Version,
		}
		if err := s.store.SaveAnalysis(s.pos.Hash, rec); err != nil {
			log.Printf("[STORE] save analysis: %v", err)
		}
	}
}

func (s *Shell) handleRank(fields []string) {
	if len(fields) < 2 {
		fmt.Fprintln(s.out, "usage: rank <count> [depth]")
		return
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 {
		fmt.Fprintf(s.out, "bad count %q\n", fields[1])
		return
	}
	depth := defaultDepth
	if len(fields) > 2 {
		d, err := strconv.Atoi(fields[2])
		if err != nil || d < 1 {
			fmt.Fprintf(s.out, "bad depth %q\n", fields[2])
			return
		}
		depth = d
	}

	limits := engine.Limits{Depth: depth, Threads: s.threads, History: s.hashes}
	ranked, err := s.engine.SearchMoves(context.Background(), s.pos, n, limits)
	if err != nil {
		if errors.Is(err, engine.ErrNoLegalMoves) {
			s.reportState()
			return
		}
		fmt.Fprintf(s.out, "rank failed: %v\n", err)
		return
	}
	for i, sm := range ranked {
		fmt.Fprintf(s.out, "%2d. %-6s %-8s %s\n",
			i+1, sm.Move, sm.Move.ToSAN(s.pos), engine.ScoreToString(sm.Score))
	}
}

// handlePosition rebuilds the shell position. Accepted forms:
// position startpos, position <fen>, position fen <fen>, each with an
// optional trailing "moves e2e4 ..." list in coordinate notation.
func (s *Shell) handlePosition(fields []string) {
	args := fields[1:]
	if len(args) > 0 && args[0] == "fen" {
		args = args[1:]
	}
	if len(args) == 0 {
		fmt.Fprintln(s.out, "usage: position startpos|<fen> [moves ...]")
		return
	}

	var moveText []string
	for i, f := range args {
		if f == "moves" {
			moveText = args[i+1:]
			args = args[:i]
			break
		}
	}

	var pos *board.Position
	if len(args) == 1 && args[0] == "startpos" {
		pos = board.NewPosition()
	} else {
		p, err := board.ParseFEN(strings.Join(args, " "))
		if err != nil {
			fmt.Fprintf(s.out, "bad position: %v\n", err)
			return
		}
		pos = p
	}

	s.reset(pos)
	for _, text := range moveText {
		m, err := board.ParseMove(text, s.pos)
		if err != nil {
			fmt.Fprintf(s.out, "bad move %q: %v\n", text, err)
			return
		}
		if !s.pos.LegalMoves().Contains(m) {
			fmt.Fprintf(s.out, "illegal move %s\n", text)
			return
		}
		s.hashes = append(s.hashes, s.pos.Hash)
		undo := s.pos.MakeMove(m)
		s.played = append(s.played, playedMove{m, undo})
	}
	s.printBoard()
}

func (s *Shell) handleUndo() {
	if len(s.played) == 0 {
		fmt.Fprintln(s.out, "nothing to undo")
		return
	}
	last := s.played[len(s.played)-1]
	s.played = s.played[:len(s.played)-1]
	s.hashes = s.hashes[:len(s.hashes)-1]
	s.pos.UnmakeMove(last.move, last.undo)
	s.printBoard()
}

// handleBook lists the book entries stored for the current position.
// Display only: move selection always goes through the search.
func (s *Shell) handleBook() {
	if s.book == nil {
		fmt.Fprintln(s.out, "no book loaded (start with -book FILE)")
		return
	}
	entries := s.book.ProbeAll(s.pos)
	if len(entries) == 0 {
		fmt.Fprintln(s.out, "position not in book")
		return
	}
	for _, e := range entries {
		fmt.Fprintf(s.out, "%-6s weight %d\n", e.Move, e.Weight)
	}
}

func (s *Shell) reset(pos *board.Position) {
	s.pos = pos
	s.played = s.played[:0]
	s.hashes = s.hashes[:0]
}

func (s *Shell) printBoard() {
	fmt.Fprint(s.out, s.pos)
}

// printInfo reports one completed iteration: depth, score, counters,
// then the PV validated move by move so a malformed line never
// reaches the user.
func (s *Shell) printInfo(info engine.SearchInfo) {
	parts := []string{
		fmt.Sprintf("depth %d", info.Depth),
		fmt.Sprintf("score %s", engine.ScoreToString(info.Score)),
		fmt.Sprintf("nodes %d", info.Nodes),
		fmt.Sprintf("time %v", info.Time.Round(time.Millisecond)),
	}
	if sec := info.Time.Seconds(); sec > 0.001 {
		parts = append(parts, fmt.Sprintf("nps %.0f", float64(info.Nodes)/sec))
	}
	if info.HashFull > 0 {
		parts = append(parts, fmt.Sprintf("hashfull %d", info.HashFull))
	}
	if pv := s.validatePV(info.PV); len(pv) > 0 {
		parts = append(parts, "pv "+strings.Join(pv, " "))
	}
	fmt.Fprintln(s.out, strings.Join(parts, "  "))
}

// validatePV walks the PV on a scratch copy of the position and cuts
// it at the first move that is not legal there.
func (s *Shell) validatePV(pv []board.Move) []string {
	test := s.pos.Copy()
	out := make([]string, 0, len(pv))
	for _, m := range pv {
		if !test.LegalMoves().Contains(m) {
			break
		}
		out = append(out, m.String())
		test.MakeMove(m)
	}
	return out
}

func moveStrings(moves []board.Move) []string {
	out := make([]string, len(moves))
	for i, m := range moves {
		out[i] = m.String()
	}
	return out
}

func (s *Shell) printHelp() {
	fmt.Fprint(s.out, `commands:
  <move>             play a move (e2e4, e7e8q, or SAN: Nf3, O-O)
  moves              list the legal moves
  search [depth]     search the position (default depth 8)
  go [depth D] [movetime MS] [nodes N]
                     search with explicit limits
  rank <n> [depth]   score and rank the top n moves
  eval               static evaluation of the position
  perft <depth>      node count per root move
  position startpos|<fen> [moves e2e4 ...]
                     set up a position
  undo               take back the last played move
  new                fresh game, engine state cleared
  fen                print the position as FEN
  d                  redraw the board
  book               show book entries for this position
  quit               leave
`)
}
