package engine

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/velara/skirmish/internal/board"
)

// TTFlag classifies the score stored in a table entry.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // score is exact
	TTLowerBound               // score failed high, real value >= Score
	TTUpperBound               // score failed low, real value <= Score
)

// Striped locking: workers hash to one of these locks, so concurrent
// probes of unrelated entries never contend.
const (
	ttShardCount = 256
	ttShardMask  = ttShardCount - 1
)

// TTEntry is one transposition table slot, 16 bytes. The full 64-bit
// key is kept so a hash collision can never smuggle in a foreign move.
type TTEntry struct {
	Key      uint64
	BestMove board.Move
	Score    int16
	Depth    int8
	Flag     TTFlag
	Age      uint8
	IsPV     bool
}

// TranspositionTable caches search results across iterations and
// workers. Safe for concurrent use.
type TranspositionTable struct {
	entries []TTEntry
	shards  [ttShardCount]sync.RWMutex
	mask    uint64
	age     atomic.Uint32

	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable allocates a table of roughly sizeMB megabytes,
// rounded down to a power of two entries.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	const entrySize = 16
	n := uint64(sizeMB) * 1024 * 1024 / entrySize
	if n == 0 {
		n = 1
	}
	n = 1 << (63 - bits.LeadingZeros64(n))

	return &TranspositionTable{
		entries: make([]TTEntry, n),
		mask:    n - 1,
	}
}

// Probe returns the cached entry for hash, if one is present.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes.Add(1)

	idx := hash & tt.mask
	shard := &tt.shards[idx&ttShardMask]

	shard.RLock()
	entry := tt.entries[idx]
	shard.RUnlock()

	if entry.Key == hash && entry.Depth > 0 {
		tt.hits.Add(1)
		return entry, true
	}
	return TTEntry{}, false
}

// Store writes an entry. An occupant survives only if it is from the
// current search generation and deeper than the newcomer.
func (tt *TranspositionTable) Store(hash uint64, depth, score int, flag TTFlag, bestMove board.Move, isPV bool) {
	idx := hash & tt.mask
	shard := &tt.shards[idx&ttShardMask]

	shard.Lock()
	entry := &tt.entries[idx]
	currentAge := uint8(tt.age.Load())
	if entry.Age != currentAge || depth >= int(entry.Depth) {
		entry.Key = hash
		entry.BestMove = bestMove
		entry.Score = int16(score)
		entry.Depth = int8(depth)
		entry.Flag = flag
		entry.Age = currentAge
		entry.IsPV = isPV
	}
	shard.Unlock()
}

// NewSearch advances the generation counter so stale entries become
// replaceable.
func (tt *TranspositionTable) NewSearch() {
	tt.age.Add(1)
}

// Clear wipes the table and statistics.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age.Store(0)
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// HashFull estimates table occupancy in permille by sampling the first
// thousand slots.
func (tt *TranspositionTable) HashFull() int {
	sample := 1000
	if uint64(sample) > uint64(len(tt.entries)) {
		sample = len(tt.entries)
	}
	currentAge := uint8(tt.age.Load())
	used := 0
	for i := 0; i < sample; i++ {
		if tt.entries[i].Depth > 0 && tt.entries[i].Age == currentAge {
			used++
		}
	}
	return used * 1000 / sample
}

// HitRate reports the probe hit percentage since the last Clear.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the entry count.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.entries))
}

// Mate scores are stored relative to the current node, not the root,
// so a "mate in 3" found at ply 4 stays correct when the entry is hit
// at a different ply. AdjustScoreToTT converts root-relative to
// node-relative on store, AdjustScoreFromTT undoes it on probe.

func AdjustScoreToTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}

func AdjustScoreFromTT(score, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}
