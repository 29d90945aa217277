package engine

import (
	"testing"

	"github.com/velara/skirmish/internal/board"
)

func TestEvaluateStartingPosition(t *testing.T) {
	if score := Evaluate(board.NewPosition()); score != 0 {
		t.Errorf("Starting position evaluates to %d, want exactly 0", score)
	}
}

// Mirroring a position swaps the colors and the side to move, so the
// score seen by the mover must come out identical. Any color-specific
// leak in an evaluation term breaks this.
func TestEvaluateMirrorSymmetry(t *testing.T) {
	fens := []string{
		board.StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
		"r4rk1/1pp1qppp/p1np1n2/2b1p1B1/2B1P1b1/P1NP1N2/1PP1QPPP/R4RK1 w - - 0 10",
		"4k3/8/8/3pP3/8/8/8/4K3 w - d6 0 2",
		"8/8/8/8/3k4/8/3P4/3K4 w - - 0 1",
		"r1bqkbnr/pppp1ppp/2n5/1B2p3/4P3/5N2/PPPP1PPP/RNBQK2R b KQkq - 3 3",
		"2r3k1/5ppp/8/8/8/8/5PPP/3R2K1 w - - 0 1",
	}
	for _, fen := range fens {
		pos, err := board.ParseFEN(fen)
		if err != nil {
			t.Fatalf("%s: %v", fen, err)
		}
		mirror := pos.Mirror()
		if a, b := Evaluate(pos), Evaluate(mirror); a != b {
			t.Errorf("Mirror asymmetry for %s: %d vs %d", fen, a, b)
		}
	}
}

func TestEvaluateMaterialAdvantage(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/8/8/8/8/Q3K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if score := Evaluate(pos); score < 400 {
		t.Errorf("Queen-up position evaluates to %d for the mover, want clearly positive", score)
	}
	// The same board with the defender to move.
	pos, err = board.ParseFEN("4k3/8/8/8/8/8/8/Q3K3 b - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if score := Evaluate(pos); score > -400 {
		t.Errorf("Queen-down position evaluates to %d for the mover, want clearly negative", score)
	}
}

func TestEvaluateAdvancedPassedPawn(t *testing.T) {
	back, err := board.ParseFEN("4k3/8/8/8/8/8/P7/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	front, err := board.ParseFEN("4k3/P7/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if a, b := Evaluate(front), Evaluate(back); a <= b {
		t.Errorf("Pawn on the 7th (%d) not preferred over the 2nd (%d)", a, b)
	}
}

func TestEvaluateBishopPair(t *testing.T) {
	pair, err := board.ParseFEN("4k3/8/8/8/8/8/8/2B1KB2 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	mixed, err := board.ParseFEN("4k3/8/8/8/8/8/8/1N2KB2 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if a, b := Evaluate(pair), Evaluate(mixed); a <= b {
		t.Errorf("Bishop pair (%d) not preferred over bishop and knight (%d)", a, b)
	}
}

func TestEvaluateRookOpenFile(t *testing.T) {
	// Identical material: one rook owns the open a-file, the other is
	// buried behind its own e-pawn.
	open, err := board.ParseFEN("4k3/4p3/8/8/8/8/4P3/R3K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	buried, err := board.ParseFEN("4k3/4p3/8/8/8/8/4P3/3KR3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if a, b := Evaluate(open), Evaluate(buried); a <= b {
		t.Errorf("Open-file rook (%d) not preferred over buried rook (%d)", a, b)
	}
}

func TestMaterialBalance(t *testing.T) {
	if got := materialBalance(board.NewPosition()); got != 0 {
		t.Errorf("Starting position material balance = %d, want 0", got)
	}

	pos, err := board.ParseFEN("rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNB1KBNR b KQkq - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	if got := materialBalance(pos); got != board.PieceValue[board.Queen] {
		t.Errorf("Queen-odds balance for the mover = %d, want %d", got, board.PieceValue[board.Queen])
	}
}

func TestEvaluateUsesPawnCache(t *testing.T) {
	pos, err := board.ParseFEN("4k3/pp5p/8/8/8/8/PPP4P/4K3 w - - 0 1")
	if err != nil {
		t.Fatal(err)
	}
	pt := NewPawnTable(1)

	first := evaluate(pos, pt)
	if _, _, found := pt.Probe(pos.PawnKey); !found {
		t.Fatal("Pawn-structure terms not cached after evaluation")
	}
	second := evaluate(pos, pt)
	if first != second {
		t.Errorf("Cached evaluation differs: %d then %d", first, second)
	}
	if plain := evaluate(pos, nil); plain != first {
		t.Errorf("Uncached evaluation %d differs from cached %d", plain, first)
	}
}
