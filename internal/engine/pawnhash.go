package engine

import "math/bits"

// PawnEntry caches the pawn-structure scores for one pawn key.
type PawnEntry struct {
	Key uint64
	Mg  int16
	Eg  int16
}

// PawnTable memoizes pawn-structure evaluation. Pawn keys change on a
// small fraction of moves, so hit rates in search are high. Keyed by
// Position.PawnKey; always-replace on collision.
type PawnTable struct {
	entries []PawnEntry
	mask    uint64
}

// NewPawnTable allocates roughly sizeMB megabytes of entries, rounded
// down to a power of two.
func NewPawnTable(sizeMB int) *PawnTable {
	const entrySize = 16
	n := uint64(sizeMB) * 1024 * 1024 / entrySize
	if n == 0 {
		n = 1
	}
	n = 1 << (63 - bits.LeadingZeros64(n))
	return &PawnTable{
		entries: make([]PawnEntry, n),
		mask:    n - 1,
	}
}

// Probe returns the cached middlegame and endgame scores for key.
func (pt *PawnTable) Probe(key uint64) (mg, eg int, found bool) {
	entry := &pt.entries[key&pt.mask]
	if entry.Key == key {
		return int(entry.Mg), int(entry.Eg), true
	}
	return 0, 0, false
}

// Store caches the scores for key.
func (pt *PawnTable) Store(key uint64, mg, eg int) {
	entry := &pt.entries[key&pt.mask]
	entry.Key = key
	entry.Mg = int16(mg)
	entry.Eg = int16(eg)
}

// Clear wipes the table.
func (pt *PawnTable) Clear() {
	for i := range pt.entries {
		pt.entries[i] = PawnEntry{}
	}
}
