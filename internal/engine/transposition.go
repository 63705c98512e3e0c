package engine

import (
	"fmt"

	"github.com/hailam/chessplay/internal/board"
	"github.com/hailam/chessplay/internal/engineerr"
	"github.com/seekerror/logw"
)

// TTFlag indicates the node type stored in a transposition entry.
type TTFlag uint8

const (
	TTExact      TTFlag = iota // PV node: score is exact
	TTLowerBound               // CUT node: failed high, score is a lower bound
	TTUpperBound               // ALL node: failed low, score is an upper bound
)

// ttBucketSize is the number of entries probed/replaced together. Grouping
// entries into small buckets instead of one slot per hash index absorbs most
// index collisions without the cost of a fully associative table.
const ttBucketSize = 4

// ttPayload packs best move, node type, depth, age, and score into a single
// 64-bit word. The stored key is zhash XOR payload, so a torn read (key and
// payload updated by different concurrent stores) fails the verification
// check and resolves as a miss rather than corrupt data.
type ttPayload uint64

const (
	payloadMoveBits  = 24 // board.Move fits in 24 bits (see move.go)
	payloadFlagBits  = 2
	payloadDepthBits = 7
	payloadAgeBits   = 9 // mod 512
	payloadScoreBits = 16 // signed, offset-biased

	payloadMoveShift  = 0
	payloadFlagShift  = payloadMoveShift + payloadMoveBits
	payloadDepthShift = payloadFlagShift + payloadFlagBits
	payloadAgeShift   = payloadDepthShift + payloadDepthBits
	payloadScoreShift = payloadAgeShift + payloadAgeBits

	payloadMoveMask  = (1 << payloadMoveBits) - 1
	payloadFlagMask  = (1 << payloadFlagBits) - 1
	payloadDepthMask = (1 << payloadDepthBits) - 1
	payloadAgeMask   = (1 << payloadAgeBits) - 1

	scoreBias = 1 << 15 // shift signed 16-bit score into an unsigned field
)

func packPayload(move board.Move, flag TTFlag, depth int, age uint16, score int) ttPayload {
	biased := uint64(score+scoreBias) & ((1 << payloadScoreBits) - 1)
	return ttPayload(
		uint64(move)&payloadMoveMask<<payloadMoveShift |
			uint64(flag)&payloadFlagMask<<payloadFlagShift |
			uint64(depth)&payloadDepthMask<<payloadDepthShift |
			uint64(age)&payloadAgeMask<<payloadAgeShift |
			biased<<payloadScoreShift,
	)
}

func (p ttPayload) move() board.Move {
	return board.Move(uint64(p) >> payloadMoveShift & payloadMoveMask)
}

func (p ttPayload) flag() TTFlag {
	return TTFlag(uint64(p) >> payloadFlagShift & payloadFlagMask)
}

func (p ttPayload) depth() int {
	return int(uint64(p) >> payloadDepthShift & payloadDepthMask)
}

func (p ttPayload) age() uint16 {
	return uint16(uint64(p) >> payloadAgeShift & payloadAgeMask)
}

func (p ttPayload) score() int {
	biased := int(uint64(p) >> payloadScoreShift & ((1 << payloadScoreBits) - 1))
	return biased - scoreBias
}

// ttSlot is one lane of a bucket: key is zhash XOR payload, not zhash itself.
type ttSlot struct {
	key     uint64
	payload ttPayload
}

// TTEntry is the decoded, verified view of a transposition probe result.
type TTEntry struct {
	BestMove board.Move
	Score    int
	Depth    int
	Flag     TTFlag
}

// TranspositionTable is a shared, bucketed, XOR-checksummed hash table.
// It is accessed without synchronization from multiple search threads; the
// XOR checksum is what keeps a torn concurrent read safe (it resolves to a
// probe miss rather than a corrupted hit).
type TranspositionTable struct {
	buckets []ttBucket
	mask    uint64
	age     uint16

	hits   uint64
	probes uint64
}

type ttBucket [ttBucketSize]ttSlot

// NewTranspositionTable creates a transposition table sized in MB.
func NewTranspositionTable(sizeMB int) *TranspositionTable {
	bucketSize := uint64(ttBucketSize * 16) // 2 x uint64 per slot
	numBuckets := (uint64(sizeMB) * 1024 * 1024) / bucketSize
	numBuckets = roundDownToPowerOf2(numBuckets)
	if numBuckets == 0 {
		numBuckets = 1
	}

	buckets := allocBuckets(numBuckets)
	return &TranspositionTable{
		buckets: buckets,
		mask:    uint64(len(buckets)) - 1,
	}
}

// allocBuckets allocates the bucket slice, halving the request and retrying
// on allocation failure (make panics rather than returning an error) until
// it succeeds or falls back to a single bucket. A requested Hash size large
// enough to exhaust available memory degrades the table rather than taking
// the process down with it.
func allocBuckets(numBuckets uint64) (buckets []ttBucket) {
	defer func() {
		if r := recover(); r != nil {
			logw.Errorf(bgCtx, "%v", fmt.Errorf("%w: failed to allocate %d TT buckets (%v), retrying smaller", engineerr.ErrOutOfMemory, numBuckets, r))
			if numBuckets > 1 {
				buckets = allocBuckets(numBuckets / 2)
			} else {
				buckets = make([]ttBucket, 1)
			}
		}
	}()
	return make([]ttBucket, numBuckets)
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

// Probe looks up zhash. A hit requires key^payload == zhash for some slot in
// the bucket; that equality is what makes a torn read fail closed.
func (tt *TranspositionTable) Probe(hash uint64) (TTEntry, bool) {
	tt.probes++
	bucket := &tt.buckets[hash&tt.mask]

	for i := range bucket {
		slot := &bucket[i]
		if slot.payload != 0 && slot.key^uint64(slot.payload) == hash {
			tt.hits++
			p := slot.payload
			return TTEntry{
				BestMove: p.move(),
				Score:    p.score(),
				Depth:    p.depth(),
				Flag:     p.flag(),
			}, true
		}
	}

	return TTEntry{}, false
}

// effectiveDepth computes the replacement-priority depth for a stored slot:
// entries stale by more than one age epoch are treated as worthless (-1),
// otherwise the stored depth is boosted according to node type so PV nodes
// are kept longest and ALL nodes are the first to go.
func effectiveDepth(p ttPayload, currentAge uint16) int {
	if p == 0 {
		return -1
	}
	staleness := (currentAge - p.age()) & payloadAgeMask
	if staleness > 1 {
		return -1
	}
	switch p.flag() {
	case TTExact:
		return p.depth() + 2
	case TTLowerBound:
		return p.depth() + 1
	default:
		return p.depth()
	}
}

// Store saves a search result. If any slot in the bucket already holds this
// key it is overwritten; otherwise the slot with the lowest effective depth
// is replaced.
func (tt *TranspositionTable) Store(hash uint64, depth int, score int, flag TTFlag, bestMove board.Move) {
	bucket := &tt.buckets[hash&tt.mask]
	payload := packPayload(bestMove, flag, depth, tt.age, score)

	for i := range bucket {
		slot := &bucket[i]
		if slot.payload != 0 && slot.key^uint64(slot.payload) == hash {
			slot.payload = payload
			slot.key = hash ^ uint64(payload)
			return
		}
	}

	worst := 0
	worstDepth := effectiveDepth(bucket[0].payload, tt.age)
	for i := 1; i < len(bucket); i++ {
		d := effectiveDepth(bucket[i].payload, tt.age)
		if d < worstDepth {
			worstDepth = d
			worst = i
		}
	}
	bucket[worst].payload = payload
	bucket[worst].key = hash ^ uint64(payload)
}

// NewSearch bumps the age counter (mod 512) for a new search iteration or a
// new game; stale entries from prior ages lose replacement priority.
func (tt *TranspositionTable) NewSearch() {
	tt.age = (tt.age + 1) & payloadAgeMask
}

// Clear empties the table and resets age and statistics (called on ucinewgame).
func (tt *TranspositionTable) Clear() {
	for i := range tt.buckets {
		tt.buckets[i] = ttBucket{}
	}
	tt.age = 0
	tt.hits = 0
	tt.probes = 0
}

// HashFull returns the permille of the table currently occupied, sampled
// from the first 1000 buckets' first slot.
func (tt *TranspositionTable) HashFull() int {
	used := 0
	sampleSize := 1000
	if uint64(sampleSize) > uint64(len(tt.buckets)) {
		sampleSize = len(tt.buckets)
	}

	for i := 0; i < sampleSize; i++ {
		if tt.buckets[i][0].payload != 0 && tt.buckets[i][0].payload.age() == tt.age {
			used++
		}
	}

	return (used * 1000) / sampleSize
}

// HitRate returns the cache hit rate as a percentage.
func (tt *TranspositionTable) HitRate() float64 {
	if tt.probes == 0 {
		return 0
	}
	return float64(tt.hits) / float64(tt.probes) * 100
}

// Size returns the number of addressable buckets.
func (tt *TranspositionTable) Size() uint64 {
	return uint64(len(tt.buckets))
}

// AdjustScoreFromTT converts a stored mate-distance-from-root score back to
// mate-distance-from-current-ply when reading a probe result.
func AdjustScoreFromTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score - ply
	}
	if score < -MateScore+MaxPly {
		return score + ply
	}
	return score
}

// AdjustScoreToTT converts a mate-distance-from-current-ply score to a
// ply-independent form before storing, so later probes at different ply
// remain meaningful.
func AdjustScoreToTT(score int, ply int) int {
	if score > MateScore-MaxPly {
		return score + ply
	}
	if score < -MateScore+MaxPly {
		return score - ply
	}
	return score
}
