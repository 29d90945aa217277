package board

import "testing"

func TestToSAN(t *testing.T) {
	tests := []struct {
		fen  string
		uci  string
		want string
	}{
		{StartFEN, "e2e4", "e4"},
		{StartFEN, "g1f3", "Nf3"},
		{"rnbqkbnr/ppp1pppp/8/3p4/4P3/8/PPPP1PPP/RNBQKBNR w KQkq d6 0 2", "e4d5", "exd5"},
		{"rnbqkbnr/ppp1p1pp/8/3pPp2/8/8/PPPP1PPP/RNBQKBNR w KQkq f6 0 3", "e5f6", "exf6"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1g1", "O-O"},
		{"r3k2r/8/8/8/8/8/8/R3K2R w KQkq - 0 1", "e1c1", "O-O-O"},
		{"7k/P7/8/8/8/8/8/K7 w - - 0 1", "a7a8q", "a8=Q+"},
		{"8/P6k/8/8/8/8/8/K7 w - - 0 1", "a7a8n", "a8=N"},
		{"4k3/8/8/8/8/2N1N3/8/4K3 w - - 0 1", "c3d5", "Ncd5"},
		{"4k3/8/8/8/4N3/8/4N3/K7 w - - 0 1", "e4c3", "N4c3"},
		{"3k4/8/8/8/8/Q7/8/Q1Q4K w - - 0 1", "a1b2", "Qa1b2"},
		{"rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq g3 0 2", "d8h4", "Qh4#"},
		{"6k1/R7/1R6/8/8/8/8/4K3 w - - 0 1", "b6b8", "Rb8#"},
	}

	for _, tc := range tests {
		pos, err := ParseFEN(tc.fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", tc.fen, err)
		}
		m, err := ParseMove(tc.uci, pos)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", tc.uci, err)
		}
		if got := m.ToSAN(pos); got != tc.want {
			t.Errorf("%s at %s: SAN %q, want %q", tc.uci, tc.fen, got, tc.want)
		}
	}
}

// Every legal move must survive a render-and-parse cycle unchanged.
func TestSANRoundTrip(t *testing.T) {
	for _, fen := range workoutFENs {
		pos, err := ParseFEN(fen)
		if err != nil {
			t.Fatalf("ParseFEN(%q): %v", fen, err)
		}
		moves := pos.LegalMoves()
		for i := 0; i < moves.Len(); i++ {
			m := moves.Get(i)
			san := m.ToSAN(pos)
			back, err := ParseSAN(san, pos)
			if err != nil {
				t.Errorf("%s: ParseSAN(%q) from %v: %v", fen, san, m, err)
				continue
			}
			if back != m {
				t.Errorf("%s: %v rendered %q but parsed back %v", fen, m, san, back)
			}
		}
	}
}

func TestParseSANErrors(t *testing.T) {
	pos := NewPosition()
	if _, err := ParseSAN("Ke3", pos); err == nil {
		t.Error("Ke3 from the start should be illegal")
	}
	if _, err := ParseSAN("xyz", pos); err == nil {
		t.Error("garbage should not parse")
	}
	if _, err := ParseSAN("", pos); err == nil {
		t.Error("empty string should not parse")
	}

	twoKnights, err := ParseFEN("4k3/8/8/8/8/2N1N3/8/4K3 w - - 0 1")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	if _, err := ParseSAN("Nd5", twoKnights); err == nil {
		t.Error("Nd5 with knights on c3 and e3 should be ambiguous")
	}
	if m, err := ParseSAN("Ncd5", twoKnights); err != nil || m.From() != C3 {
		t.Errorf("Ncd5 = %v, %v; want the c3 knight", m, err)
	}
}

func TestParseSANAcceptsSuffixes(t *testing.T) {
	pos, err := ParseFEN("rnbqkbnr/pppp1ppp/8/4p3/6P1/5P2/PPPPP2P/RNBQKBNR b KQkq g3 0 2")
	if err != nil {
		t.Fatalf("ParseFEN: %v", err)
	}
	for _, san := range []string{"Qh4#", "Qh4+", "Qh4"} {
		m, err := ParseSAN(san, pos)
		if err != nil {
			t.Errorf("ParseSAN(%q): %v", san, err)
			continue
		}
		if m.From() != D8 || m.To() != H4 {
			t.Errorf("ParseSAN(%q) = %v, want d8h4", san, m)
		}
	}
}

func TestMovesToSAN(t *testing.T) {
	pos := NewPosition()
	var line []Move
	p := pos.Copy()
	for _, s := range []string{"e2e4", "e7e5", "g1f3"} {
		m, err := ParseMove(s, p)
		if err != nil {
			t.Fatalf("ParseMove(%q): %v", s, err)
		}
		line = append(line, m)
		p.MakeMove(m)
	}

	got := MovesToSAN(pos, line)
	want := []string{"e4", "e5", "Nf3"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("move %d: SAN %q, want %q", i, got[i], want[i])
		}
	}
}
