package board

import (
	"math/rand"
	"testing"
)

func mustMakeUCI(t *testing.T, pos *Position, moves ...string) {
	t.Helper()
	for _, s := range moves {
		m, err := ParseMove(s, pos)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", s, err)
		}
		if undo := pos.MakeMove(m); !undo.Valid {
			t.Fatalf("MakeMove(%q) rejected", s)
		}
	}
}

// Two move orders reaching the same position must agree on the key.
// Single pawn pushes are used so neither line leaves an en passant
// square behind.
func TestHashTransposition(t *testing.T) {
	a := NewPosition()
	mustMakeUCI(t, a, "e2e3", "d7d6", "d2d3")

	b := NewPosition()
	mustMakeUCI(t, b, "d2d3", "d7d6", "e2e3")

	if a.ToFEN() != b.ToFEN() {
		t.Fatalf("positions differ: %s vs %s", a.ToFEN(), b.ToFEN())
	}
	if a.Hash != b.Hash {
		t.Errorf("transposed positions hash %x vs %x", a.Hash, b.Hash)
	}
	if a.PawnKey != b.PawnKey {
		t.Errorf("transposed positions pawn key %x vs %x", a.PawnKey, b.PawnKey)
	}
}

// The en passant file is part of the key, so the same placement with
// and without a usable target square must hash apart.
func TestHashEnPassantFile(t *testing.T) {
	after, err := ParseFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	plain, err := ParseFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if after.Hash == plain.Hash {
		t.Error("en passant square not reflected in the hash")
	}
}

func TestHashSideToMove(t *testing.T) {
	w, err := ParseFEN("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	b, err := ParseFEN("4k3/8/8/8/8/8/8/4K3 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if w.Hash == b.Hash {
		t.Error("side to move not reflected in the hash")
	}
	if w.Hash^b.Hash != ZobristSideToMove() {
		t.Error("side keys differ by something other than the side key")
	}
}

func TestNullMoveRestoresHash(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	hash, ep, checkers := pos.Hash, pos.EnPassant, pos.Checkers

	undo := pos.MakeNullMove()
	if pos.Hash == hash {
		t.Error("null move left the hash unchanged")
	}
	if pos.EnPassant != NoSquare {
		t.Error("null move must clear the en passant square")
	}
	if pos.SideToMove != White {
		t.Error("null move did not pass the turn")
	}
	if pos.Hash != pos.ComputeHash() {
		t.Errorf("null move hash %x != recomputed %x", pos.Hash, pos.ComputeHash())
	}

	pos.UnmakeNullMove(undo)
	if pos.Hash != hash || pos.EnPassant != ep || pos.Checkers != checkers || pos.SideToMove != Black {
		t.Error("null move state not restored")
	}
}

// Long random walks keep the incremental keys honest over chains of
// captures, castles, promotions, and en passant.
func TestHashIncrementalWalk(t *testing.T) {
	fens := []string{
		StartFEN,
		"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
		"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	}
	rng := rand.New(rand.NewSource(99))

	for _, fen := range fens {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		for ply := 0; ply < 60; ply++ {
			moves := pos.LegalMoves()
			if moves.Len() == 0 {
				break
			}
			m := moves.Get(rng.Intn(moves.Len()))
			if undo := pos.MakeMove(m); !undo.Valid {
				t.Fatalf("%s ply %d: legal move %v rejected", fen, ply, m)
			}
			if pos.Hash != pos.ComputeHash() {
				t.Fatalf("%s ply %d after %v: hash drifted", fen, ply, m)
			}
			if pos.PawnKey != pos.ComputePawnKey() {
				t.Fatalf("%s ply %d after %v: pawn key drifted", fen, ply, m)
			}
		}
	}
}

// Book keys ignore the en passant square unless a capture is actually
// possible, so openings reached with and without a dead target square
// collapse to one entry.
func TestBookHashEnPassantGating(t *testing.T) {
	// e4 with no black pawn in reach: dead target square.
	dead, err := ParseFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	noEP, err := ParseFEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if dead.BookHash() != noEP.BookHash() {
		t.Error("dead en passant square changed the book key")
	}
	if dead.Hash == noEP.Hash {
		t.Error("search hash should still see the en passant file")
	}

	// Same shape with a black pawn on d4: the capture is live.
	live, err := ParseFEN("rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	liveNoEP, err := ParseFEN("rnbqkbnr/ppp1pppp/8/8/3pP3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if live.BookHash() == liveNoEP.BookHash() {
		t.Error("live en passant square must change the book key")
	}
}

func TestBookHashSideToMove(t *testing.T) {
	w, err := ParseFEN("4k3/8/8/8/8/8/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	b, err := ParseFEN("4k3/8/8/8/8/8/8/4K3 b - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if w.BookHash() == b.BookHash() {
		t.Error("book key ignores the side to move")
	}
}
