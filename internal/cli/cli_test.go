package cli

import (
	"bytes"
	"strings"
	"testing"

	"github.com/velara/skirmish/internal/board"
	"github.com/velara/skirmish/internal/book"
	"github.com/velara/skirmish/internal/engine"
	"github.com/velara/skirmish/internal/storage"
)

func newTestShell(t *testing.T, opts Options) (*Shell, *bytes.Buffer) {
	t.Helper()
	s := New(engine.NewEngine(1), opts)
	buf := &bytes.Buffer{}
	s.SetOutput(buf)
	return s, buf
}

func TestPositionCommand(t *testing.T) {
	s, _ := newTestShell(t, Options{})

	s.dispatch("position startpos moves e2e4 e7e5")
	want := "rnbqkbnr/pppp1ppp/8/4p3/4P3/8/PPPP1PPP/RNBQKBNR w KQkq e6 0 2"
	if got := s.pos.ToFEN(); got != want {
		t.Fatalf("after position command:\n got %s\nwant %s", got, want)
	}
	if len(s.hashes) != 2 || len(s.played) != 2 {
		t.Fatalf("history not tracked: %d hashes, %d played", len(s.hashes), len(s.played))
	}
}

func TestPositionBareFEN(t *testing.T) {
	s, _ := newTestShell(t, Options{})

	fen := "r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1"
	s.dispatch("position " + fen)
	if got := s.pos.ToFEN(); got != fen {
		t.Fatalf("bare FEN not accepted:\n got %s\nwant %s", got, fen)
	}
}

func TestBareMovesAndUndo(t *testing.T) {
	s, _ := newTestShell(t, Options{})

	s.dispatch("e2e4")
	if got := s.pos.ToFEN(); got != "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1" {
		t.Fatalf("after e2e4: %s", got)
	}

	// SAN works for input too.
	s.dispatch("Nf6")
	if got := s.pos.ToFEN(); got != "rnbqkb1r/pppppppp/5n2/8/4P3/8/PPPP1PPP/RNBQKBNR w KQkq - 1 2" {
		t.Fatalf("after Nf6: %s", got)
	}

	s.dispatch("undo")
	s.dispatch("undo")
	if got := s.pos.ToFEN(); got != board.StartFEN {
		t.Fatalf("undo did not restore the start position: %s", got)
	}
	if len(s.played) != 0 {
		t.Fatalf("played stack not empty after undo: %d", len(s.played))
	}
}

func TestUndoOnFreshGame(t *testing.T) {
	s, buf := newTestShell(t, Options{})

	s.dispatch("undo")
	if !strings.Contains(buf.String(), "nothing to undo") {
		t.Fatalf("missing message, got: %s", buf.String())
	}
}

func TestIllegalMoveKeepsPosition(t *testing.T) {
	s, buf := newTestShell(t, Options{})

	s.dispatch("e2e5")
	if !strings.Contains(buf.String(), "illegal move") {
		t.Fatalf("expected illegal move message, got: %s", buf.String())
	}
	if got := s.pos.ToFEN(); got != board.StartFEN {
		t.Fatalf("position changed by illegal move: %s", got)
	}
}

func TestUnknownCommandKeepsRunning(t *testing.T) {
	s, buf := newTestShell(t, Options{})

	if !s.dispatch("xyzzy") {
		t.Fatal("unknown command must not stop the loop")
	}
	if !strings.Contains(buf.String(), "unknown command") {
		t.Fatalf("missing error, got: %s", buf.String())
	}
	if s.dispatch("quit") {
		t.Fatal("quit must stop the loop")
	}
}

func TestMovesCommand(t *testing.T) {
	s, buf := newTestShell(t, Options{})

	s.dispatch("moves")
	out := buf.String()
	if !strings.Contains(out, "20 legal moves") {
		t.Fatalf("expected 20 legal moves, got: %s", out)
	}
	if !strings.Contains(out, "a2a3 a2a4 b1a3 b1c3") {
		t.Fatalf("move list not sorted: %s", out)
	}
}

func TestPerftCommand(t *testing.T) {
	s, buf := newTestShell(t, Options{})

	s.dispatch("perft 2")
	out := buf.String()
	if !strings.Contains(out, "Nodes: 400") {
		t.Fatalf("wrong perft total: %s", out)
	}
	if !strings.Contains(out, "e2e4   20") {
		t.Fatalf("missing divide entry: %s", out)
	}
}

func TestSearchCommand(t *testing.T) {
	s, buf := newTestShell(t, Options{})

	s.dispatch("search 3")
	out := buf.String()
	if !strings.Contains(out, "best move ") {
		t.Fatalf("no best move reported: %s", out)
	}
	if !strings.Contains(out, "depth 3") {
		t.Fatalf("no iteration info printed: %s", out)
	}
}

func TestSearchReportsMate(t *testing.T) {
	s, buf := newTestShell(t, Options{})

	s.dispatch("position R6k/6pp/8/8/8/8/8/K7 b - - 0 1")
	buf.Reset()
	s.dispatch("search 3")
	if !strings.Contains(buf.String(), "checkmate, White wins") {
		t.Fatalf("mate not reported: %s", buf.String())
	}
}

func TestGoCommand(t *testing.T) {
	s, buf := newTestShell(t, Options{})

	s.dispatch("go depth 2")
	if !strings.Contains(buf.String(), "best move ") {
		t.Fatalf("go depth found no move: %s", buf.String())
	}

	buf.Reset()
	s.dispatch("go nodes 2000")
	if !strings.Contains(buf.String(), "best move ") {
		t.Fatalf("go nodes found no move: %s", buf.String())
	}

	buf.Reset()
	s.dispatch("go banana")
	if !strings.Contains(buf.String(), "unknown go option") {
		t.Fatalf("bad option not rejected: %s", buf.String())
	}
}

func TestRankCommand(t *testing.T) {
	s, buf := newTestShell(t, Options{})

	s.dispatch("rank 3 2")
	out := buf.String()
	if !strings.Contains(out, " 1. ") || !strings.Contains(out, " 3. ") {
		t.Fatalf("expected three ranked moves, got: %s", out)
	}
}

func TestBookCommand(t *testing.T) {
	b := book.New()
	start := board.NewPosition()
	m, err := board.ParseMove("e2e4", start)
	if err != nil {
		t.Fatal(err)
	}
	b.Add(start.BookHash(), m, 25)

	s, buf := newTestShell(t, Options{Book: b})
	s.dispatch("book")
	out := buf.String()
	if !strings.Contains(out, "e2e4") || !strings.Contains(out, "weight 25") {
		t.Fatalf("book entry not listed: %s", out)
	}

	buf.Reset()
	s.dispatch("e2e4")
	buf.Reset()
	s.dispatch("book")
	if !strings.Contains(buf.String(), "position not in book") {
		t.Fatalf("expected book miss, got: %s", buf.String())
	}
}

func TestBookCommandWithoutBook(t *testing.T) {
	s, buf := newTestShell(t, Options{})

	s.dispatch("book")
	if !strings.Contains(buf.String(), "no book loaded") {
		t.Fatalf("missing message, got: %s", buf.String())
	}
}

func TestAnalysisCache(t *testing.T) {
	store, err := storage.Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	s, buf := newTestShell(t, Options{Store: store})

	s.dispatch("search 3")
	if strings.Contains(buf.String(), "cached") {
		t.Fatalf("first search must not hit the cache: %s", buf.String())
	}

	buf.Reset()
	s.dispatch("search 3")
	if !strings.Contains(buf.String(), "cached depth 3") {
		t.Fatalf("second search should reuse the record: %s", buf.String())
	}

	// A shallower request is covered by the stored depth too.
	buf.Reset()
	s.dispatch("search 2")
	if !strings.Contains(buf.String(), "cached depth 3") {
		t.Fatalf("deeper record should cover a shallower request: %s", buf.String())
	}
}
