package engine

import (
	"sync"
	"sync/atomic"
)

// Number of shards for table locking (power of 2 for fast modulo)
const ttShardCount = 256
const ttShardMask = ttShardCount - 1

// TTEntry is one cached subtree: the leaf count below a position at a
// given remaining depth.
type TTEntry struct {
	Key   uint64 // Full zobrist hash, compared on probe
	Nodes uint64
	Depth int32
	Age   uint8
}

// TranspositionTable caches perft subtree counts by zobrist hash and depth.
// Sharded locks let parallel divide workers share one table.
type TranspositionTable struct {
	entries []TTEntry
	shards  [ttShardCount]sync.RWMutex
	size    uint64
	mask    uint64
	age     atomic.Uint32

	hits   atomic.Uint64
	probes atomic.Uint64
}

// NewTranspositionTable creates a table of roughly sizeMB megabytes.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	if sizeMB < 1 {
		sizeMB = 1
	}
	entrySize := uint64(24)
	numEntries := roundDownToPowerOf2((uint64(sizeMB) * 1024 * 1024) / entrySize)

	return &TranspositionTable{
		entries: make([]TTEntry, numEntries),
		size:    numEntries,
		mask:    numEntries - 1,
	}
}

// roundDownToPowerOf2 rounds n down to the nearest power of 2.
func roundDownToPowerOf2(n uint64) uint64 {
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return (n + 1) >> 1
}

func (tt *TranspositionTable) shardIndex(idx uint64) int {
	return int(idx & ttShardMask)
}

// Probe returns the stored count for hash at depth.
func (tt *TranspositionTable) Probe(hash uint64, depth int) (uint64, bool) {
	tt.probes.Add(1)

	idx := hash & tt.mask
	shard := tt.shardIndex(idx)

	tt.shards[shard].RLock()
	entry := tt.entries[idx]
	tt.shards[shard].RUnlock()

	if entry.Key == hash && entry.Depth == int32(depth) && depth > 0 {
		tt.hits.Add(1)
		return entry.Nodes, true
	}
	return 0, false
}

// Store records the count for hash at depth. An entry from the current
// traversal is only replaced by one at least as deep.
func (tt *TranspositionTable) Store(hash uint64, depth int, nodes uint64) {
	idx := hash & tt.mask
	shard := tt.shardIndex(idx)

	tt.shards[shard].Lock()
	entry := &tt.entries[idx]
	currentAge := uint8(tt.age.Load())
	if entry.Age != currentAge || int32(depth) >= entry.Depth {
		entry.Key = hash
		entry.Nodes = nodes
		entry.Depth = int32(depth)
		entry.Age = currentAge
	}
	tt.shards[shard].Unlock()
}

// NewSearch starts a new generation for replacement decisions.
func (tt *TranspositionTable) NewSearch() {
	tt.age.Add(1)
}

// Clear empties the table and resets the statistics.
func (tt *TranspositionTable) Clear() {
	for i := range tt.entries {
		tt.entries[i] = TTEntry{}
	}
	tt.age.Store(0)
	tt.hits.Store(0)
	tt.probes.Store(0)
}

// HashFull returns the permille of sampled entries written this generation.
func (tt *TranspositionTable) HashFull() int {
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > tt.size {
		sampleSize = int(tt.size)
	}

	currentAge := uint8(tt.age.Load())
	for i := 0; i < sampleSize; i++ {
		if tt.entries[i].Depth > 0 && tt.entries[i].Age == currentAge {
			used++
		}
	}
	return (used * 1000) / sampleSize
}

// HitRate returns the probe hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	probes := tt.probes.Load()
	if probes == 0 {
		return 0
	}
	return float64(tt.hits.Load()) / float64(probes) * 100
}

// Size returns the number of entries in the table.
func (tt *TranspositionTable) Size() uint64 {
	return tt.size
}
