package engine

import "github.com/velara/skirmish/internal/board"

const (
	corrHistSize = 1 << 18
	corrHistMask = corrHistSize - 1
)

// CorrectionHistory tracks how far static evaluation tends to be from
// the searched score per position bucket, and feeds the running error
// back into later evaluations of similar positions. Each worker owns
// one, so updates need no locking.
type CorrectionHistory struct {
	table [corrHistSize]int16
}

func NewCorrectionHistory() *CorrectionHistory {
	return &CorrectionHistory{}
}

func corrIndex(hash uint64) int {
	return int((hash ^ (hash >> 18)) & corrHistMask)
}

// Get returns the correction to add to the static eval of pos.
func (ch *CorrectionHistory) Get(pos *board.Position) int {
	return int(ch.table[corrIndex(pos.Hash)])
}

// Update nudges the stored correction toward the observed error
// between the search result and the raw static eval. Deeper searches
// push harder; the gravity form old+(target-old)/16 keeps single
// observations from swinging the entry.
func (ch *CorrectionHistory) Update(pos *board.Position, searchScore, staticEval, depth int) {
	if depth < 1 {
		return
	}

	bonus := (searchScore - staticEval) * depth / 8
	if bonus > 256 {
		bonus = 256
	} else if bonus < -256 {
		bonus = -256
	}

	idx := corrIndex(pos.Hash)
	old := int(ch.table[idx])
	next := old + (bonus-old)/16
	if next > 16000 {
		next = 16000
	} else if next < -16000 {
		next = -16000
	}
	ch.table[idx] = int16(next)
}

// Age halves every entry, fading corrections between searches.
func (ch *CorrectionHistory) Age() {
	for i := range ch.table {
		ch.table[i] /= 2
	}
}

// Clear resets the table.
func (ch *CorrectionHistory) Clear() {
	for i := range ch.table {
		ch.table[i] = 0
	}
}
