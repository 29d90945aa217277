package book

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/velara/skirmish/internal/board"
)

func TestBookHashStability(t *testing.T) {
	pos := board.NewPosition()
	hash1 := pos.BookHash()
	hash2 := pos.BookHash()

	if hash1 != hash2 {
		t.Errorf("BookHash not consistent: %x != %x", hash1, hash2)
	}

	undo := pos.MakeMove(board.NewMove(board.E2, board.E4))
	hash3 := pos.BookHash()

	if hash1 == hash3 {
		t.Error("BookHash should change after move")
	}

	pos.UnmakeMove(board.NewMove(board.E2, board.E4), undo)
	hash4 := pos.BookHash()

	if hash1 != hash4 {
		t.Errorf("BookHash not restored after unmake: %x != %x", hash1, hash4)
	}

	t.Logf("Starting position BookHash: %016x", hash1)
}

func TestBookLoadAndProbe(t *testing.T) {
	// Build a one-record book by hand.
	// Entry format: 8 bytes key + 2 bytes move + 2 bytes weight + 4 bytes learn
	pos := board.NewPosition()
	key := pos.BookHash()

	// e2e4: to_file | (to_rank << 3) | (from_file << 6) | (from_rank << 9)
	e2e4Encoded := uint16(4 | (3 << 3) | (4 << 6) | (1 << 9))

	var buf bytes.Buffer
	binary.Write(&buf, binary.BigEndian, key)
	binary.Write(&buf, binary.BigEndian, e2e4Encoded)
	binary.Write(&buf, binary.BigEndian, uint16(100)) // weight
	binary.Write(&buf, binary.BigEndian, uint32(0))   // learn

	bk, err := LoadReader(&buf)
	if err != nil {
		t.Fatalf("Failed to load book: %v", err)
	}

	if bk.Size() != 1 {
		t.Errorf("Expected book size 1, got %d", bk.Size())
	}

	move, found := bk.Probe(pos)
	if !found {
		t.Fatal("Expected to find move in book")
	}

	if move.From() != board.E2 || move.To() != board.E4 {
		t.Errorf("Expected e2e4, got %s", move.String())
	}

	t.Logf("Book move: %s", move.String())
}

func TestBookMiss(t *testing.T) {
	bk := New()
	pos := board.NewPosition()

	move, found := bk.Probe(pos)
	if found {
		t.Error("Expected book miss on empty book")
	}
	if move != board.NoMove {
		t.Errorf("Expected NoMove on miss, got %s", move.String())
	}
}

// A stored move that is no longer legal in the probed position must not
// escape the book.
func TestProbeRejectsIllegalEntry(t *testing.T) {
	pos := board.NewPosition()

	bk := New()
	bk.Add(pos.BookHash(), board.NewMove(board.E2, board.E5), 10)

	if move, found := bk.Probe(pos); found {
		t.Errorf("illegal entry probed successfully as %s", move)
	}
}

func TestDecodeMove(t *testing.T) {
	// e2 = file 4, rank 1; e4 = file 4, rank 3
	e2e4 := uint16(4 | (3 << 3) | (4 << 6) | (1 << 9))
	move := decodeMove(e2e4)

	if move.From() != board.E2 {
		t.Errorf("Expected from=e2, got %s", move.From().String())
	}
	if move.To() != board.E4 {
		t.Errorf("Expected to=e4, got %s", move.To().String())
	}

	// d7 = file 3, rank 6; d5 = file 3, rank 4
	d7d5 := uint16(3 | (4 << 3) | (3 << 6) | (6 << 9))
	move = decodeMove(d7d5)

	if move.From() != board.D7 {
		t.Errorf("Expected from=d7, got %s", move.From().String())
	}
	if move.To() != board.D5 {
		t.Errorf("Expected to=d5, got %s", move.To().String())
	}
}

// Castling crosses the wire as king-takes-rook; promotions carry the
// piece in the top bits. Both must survive encode/decode.
func TestEncodeDecodeSpecialMoves(t *testing.T) {
	tests := []struct {
		move board.Move
		from board.Square
		to   board.Square
	}{
		{board.NewCastle(board.E1, board.G1), board.E1, board.G1},
		{board.NewCastle(board.E1, board.C1), board.E1, board.C1},
		{board.NewCastle(board.E8, board.G8), board.E8, board.G8},
		{board.NewCastle(board.E8, board.C8), board.E8, board.C8},
		{board.NewPromotion(board.A7, board.A8, board.Queen), board.A7, board.A8},
		{board.NewPromotion(board.H2, board.H1, board.Knight), board.H2, board.H1},
	}

	for _, tc := range tests {
		decoded := decodeMove(encodeMove(tc.move))
		if decoded.From() != tc.from || decoded.To() != tc.to {
			t.Errorf("%s came back as %s", tc.move, decoded)
		}
		if tc.move.IsPromotion() {
			if !decoded.IsPromotion() || decoded.Promotion() != tc.move.Promotion() {
				t.Errorf("%s lost its promotion piece", tc.move)
			}
		}
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	pos := board.NewPosition()
	key := pos.BookHash()

	bk := New()
	bk.Add(key, board.NewMove(board.E2, board.E4), 120)
	bk.Add(key, board.NewMove(board.D2, board.D4), 100)
	bk.Add(key, board.NewMove(board.G1, board.F3), 40)

	afterE4 := pos.Copy()
	afterE4.MakeMove(board.NewMove(board.E2, board.E4))
	bk.Add(afterE4.BookHash(), board.NewMove(board.E7, board.E5), 80)

	var buf bytes.Buffer
	if err := bk.SaveWriter(&buf); err != nil {
		t.Fatalf("SaveWriter failed: %v", err)
	}
	if buf.Len() != 4*16 {
		t.Errorf("wrote %d bytes, want %d", buf.Len(), 4*16)
	}

	loaded, err := LoadReader(&buf)
	if err != nil {
		t.Fatalf("LoadReader failed: %v", err)
	}
	if loaded.Size() != 2 {
		t.Errorf("loaded book has %d positions, want 2", loaded.Size())
	}

	all := loaded.ProbeAll(pos)
	if len(all) != 3 {
		t.Fatalf("ProbeAll returned %d entries, want 3", len(all))
	}
	if all[0].Weight != 120 || all[0].Move.To() != board.E4 {
		t.Errorf("heaviest entry is %s at weight %d, want e2e4 at 120", all[0].Move, all[0].Weight)
	}
	for i := 1; i < len(all); i++ {
		if all[i].Weight > all[i-1].Weight {
			t.Error("ProbeAll not sorted by weight")
		}
	}

	move, found := loaded.Probe(afterE4)
	if !found || move.From() != board.E7 || move.To() != board.E5 {
		t.Errorf("probe after e4 = %s %v, want e7e5", move, found)
	}

	// All stored moves for the start position are legal openings, so a
	// probe must return one of them.
	move, found = loaded.Probe(pos)
	if !found {
		t.Fatal("probe missed the start position")
	}
	if got := move.String(); got != "e2e4" && got != "d2d4" && got != "g1f3" {
		t.Errorf("probe returned %s, not a stored move", got)
	}
}
