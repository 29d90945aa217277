package board

import "testing"

// Positions with castling, en passant, promotions, pins, and checks in
// various combinations. Shared by the round-trip and generator subset
// tests below.
var workoutFENs = []string{
	StartFEN,
	"r3k2r/p1ppqpb1/bn2pnp1/3PN3/1p2P3/2N2Q1p/PPPBBPPP/R3K2R w KQkq - 0 1",
	"8/2p5/3p4/KP5r/1R3p1k/8/4P1P1/8 w - - 0 1",
	"r3k2r/Pppp1ppp/1b3nbN/nP6/BBP1P3/q4N2/Pp1P2PP/R2Q1RK1 w kq - 0 1",
	"rnbq1k1r/pp1Pbppp/2p5/8/2B5/8/PPP1NnPP/RNBQK2R w KQ - 1 8",
	"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3",
	"8/8/8/2k5/3Pp3/8/8/4KQ2 b - d3 0 1",
}

// TestMakeUnmakeRoundTrip makes every legal move in each position and
// verifies that UnmakeMove restores the full state bit for bit, and
// that the incrementally maintained keys agree with a from-scratch
// recomputation after every make.
func TestMakeUnmakeRoundTrip(t *testing.T) {
	for _, fen := range workoutFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		before := *pos

		moves := pos.LegalMoves()
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			undo := pos.MakeMove(m)
			if !undo.Valid {
				t.Errorf("%s: MakeMove(%v) rejected a legal move", fen, m)
				pos.UnmakeMove(m, undo)
				continue
			}
			if pos.Hash != pos.ComputeHash() {
				t.Errorf("%s: after %v incremental hash %x != recomputed %x", fen, m, pos.Hash, pos.ComputeHash())
			}
			if pos.PawnKey != pos.ComputePawnKey() {
				t.Errorf("%s: after %v incremental pawn key %x != recomputed %x", fen, m, pos.PawnKey, pos.ComputePawnKey())
			}
			pos.UnmakeMove(m, undo)
			if *pos != before {
				t.Fatalf("%s: position not restored after %v, now %s", fen, m, pos.ToFEN())
			}
		}
	}
}

func TestCastlingRightsRevocation(t *testing.T) {
	const fen = "r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1"

	tests := []struct {
		move string
		want CastlingRights
	}{
		{"e1g1", CastleBlackKing | CastleBlackQueen},                      // castling spends both white rights
		{"e1c1", CastleBlackKing | CastleBlackQueen},
		{"e1e2", CastleBlackKing | CastleBlackQueen},                      // king step spends them too
		{"h1h2", CastleWhiteQueen | CastleBlackKing | CastleBlackQueen},   // kingside rook leaves home
		{"a1b1", CastleWhiteKing | CastleBlackKing | CastleBlackQueen},    // queenside rook leaves home
		{"h1h8", CastleWhiteQueen | CastleBlackQueen},                     // capture on h8 also strips black's kingside
		{"a1a8", CastleWhiteKing | CastleBlackKing},                       // capture on a8 strips black's queenside
	}

	for _, tc := range tests {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN: %v", err)
		}
		m, err := ParseMove(tc.move, pos)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", tc.move, err)
		}
		undo := pos.MakeMove(m)
		if !undo.Valid {
			t.Fatalf("MakeMove(%s) invalid", tc.move)
		}
		if pos.CastlingRights != tc.want {
			t.Errorf("after %s: rights %v, want %v", tc.move, pos.CastlingRights, tc.want)
		}
		pos.UnmakeMove(m, undo)
		if pos.CastlingRights != AllCastling {
			t.Errorf("after unmaking %s: rights %v, want KQkq", tc.move, pos.CastlingRights)
		}
	}
}

func TestEnPassantSquareLifecycle(t *testing.T) {
	pos := NewPosition()

	m, _ := ParseMove("e2e4", pos)
	undo1 := pos.MakeMove(m)
	if pos.EnPassant != E3 {
		t.Errorf("after e2e4: en passant %v, want e3", pos.EnPassant)
	}

	reply, _ := ParseMove("g8f6", pos)
	undo2 := pos.MakeMove(reply)
	if pos.EnPassant != NoSquare {
		t.Errorf("after g8f6: en passant %v, want -", pos.EnPassant)
	}

	pos.UnmakeMove(reply, undo2)
	if pos.EnPassant != E3 {
		t.Errorf("unmake g8f6: en passant %v, want e3", pos.EnPassant)
	}
	pos.UnmakeMove(m, undo1)
	if pos.EnPassant != NoSquare {
		t.Errorf("unmake e2e4: en passant %v, want -", pos.EnPassant)
	}
}

func TestEnPassantCaptureRemovesPawn(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}

	m, err := ParseMove("e5f6", pos)
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if !m.IsEnPassant() {
		t.Fatal("e5f6 should classify as en passant")
	}

	undo := pos.MakeMove(m)
	if !undo.Valid {
		t.Fatal("en passant capture rejected")
	}
	if pos.PieceAt(F5) != NoPiece {
		t.Error("captured pawn still on f5")
	}
	if got := pos.PieceAt(F6); got != NewPiece(Pawn, White) {
		t.Errorf("capturing pawn not on f6, got %v", got)
	}
	if undo.CapturedPiece != NewPiece(Pawn, Black) {
		t.Errorf("undo records captured %v, want black pawn", undo.CapturedPiece)
	}
}

// GenerateCaptures must produce exactly the legal captures and
// promotions, nothing more and nothing fewer.
func TestGenerateCapturesSubset(t *testing.T) {
	for _, fen := range workoutFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}

		legal := pos.LegalMoves()
		var captures MoveList
		pos.GenerateCaptures(&captures)

		for i := 0; i < captures.Len(); i++ {
			m := captures.Get(i)
			if !legal.Contains(m) {
				t.Errorf("%s: capture %v is not legal", fen, m)
			}
			if !m.IsCapture(pos) && !m.IsPromotion() {
				t.Errorf("%s: %v is neither capture nor promotion", fen, m)
			}
		}

		want := 0
		for i := 0; i < legal.Len(); i++ {
			if m := legal.Get(i); m.IsCapture(pos) || m.IsPromotion() {
				want++
				if !captures.Contains(m) {
					t.Errorf("%s: legal capture %v missing from GenerateCaptures", fen, m)
				}
			}
		}
		if captures.Len() != want {
			t.Errorf("%s: GenerateCaptures returned %d moves, want %d", fen, captures.Len(), want)
		}
	}
}

// Quiet check generation covers direct piece checks only; every move it
// yields must be legal, quiet, and leave the opponent in check.
func TestGenerateQuietChecksGiveCheck(t *testing.T) {
	for _, fen := range workoutFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}

		legal := pos.LegalMoves()
		var checks MoveList
		pos.GenerateQuietChecks(&checks)

		for i := 0; i < checks.Len(); i++ {
			m := checks.Get(i)
			if !legal.Contains(m) {
				t.Errorf("%s: quiet check %v is not legal", fen, m)
				continue
			}
			if m.IsCapture(pos) || m.IsPromotion() {
				t.Errorf("%s: %v is not quiet", fen, m)
			}
			undo := pos.MakeMove(m)
			if !pos.InCheck() {
				t.Errorf("%s: %v does not give check", fen, m)
			}
			pos.UnmakeMove(m, undo)
		}
	}
}

// MakeMove must reject garbage without corrupting the position; stale
// transposition entries route through this path.
func TestMakeMoveRejectsCorruptMoves(t *testing.T) {
	pos := NewPosition()
	before := *pos

	for _, m := range []Move{
		NewMove(E4, E5), // empty origin
		NewMove(E7, E6), // enemy piece on origin
	} {
		undo := pos.MakeMove(m)
		if undo.Valid {
			t.Errorf("MakeMove(%v) accepted a corrupt move", m)
			pos.UnmakeMove(m, undo)
			continue
		}
		if *pos != before {
			t.Fatalf("MakeMove(%v) mutated the position despite rejecting it", m)
		}
	}
}
