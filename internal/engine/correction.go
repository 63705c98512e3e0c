package engine

import (
	"github.com/hailam/chessplay/internal/board"
)

// Correction-history grain and bounds. Entries are stored scaled up by
// corrHistGrain so the EMA keeps sub-centipawn precision; Correction()
// descales back down when summing the four tables into a static-eval
// adjustment. Clamped to +-150cp per table, matching the teacher's
// single-table gravity-update idiom generalized to four structure-keyed
// tables (pawn, minor, major, material) instead of one full-position table.
const (
	corrHistGrain = 512
	corrHistMax   = 150 * corrHistGrain
	corrHistBits  = 14
	corrHistSize  = 1 << corrHistBits
	corrHistMask  = corrHistSize - 1
)

// CorrectionHistory adjusts static evaluation based on realized search
// results. When the search discovers the static eval was wrong, it records
// the error in whichever of the four structure tables apply and the next
// static eval for a position with the same pawn/minor/major/material
// skeleton is nudged toward the correction.
type CorrectionHistory struct {
	pawn     [2][corrHistSize]int32
	minor    [2][corrHistSize]int32
	major    [2][corrHistSize]int32
	material [2][corrHistSize]int32
}

// NewCorrectionHistory creates a new correction history table set.
func NewCorrectionHistory() *CorrectionHistory {
	return &CorrectionHistory{}
}

func clampCorr(v int32) int32 {
	if v > corrHistMax {
		return corrHistMax
	}
	if v < -corrHistMax {
		return -corrHistMax
	}
	return v
}

// Correction returns the centipawn adjustment to add to the raw static
// evaluation for side-to-move `side` at position pos: the summed quarter of
// the four structure tables, descaled from the internal fixed-point grain.
func (ch *CorrectionHistory) Correction(side board.Color, pos *board.Position) int {
	sum := ch.pawn[side][pos.PawnKey&corrHistMask] +
		ch.minor[side][pos.MinorKey&corrHistMask] +
		ch.major[side][pos.MajorKey&corrHistMask] +
		ch.material[side][pos.MaterialKey&corrHistMask]
	return int(sum) / (4 * corrHistGrain)
}

// updateTable applies one EMA step toward the depth-weighted realized error.
func updateTable(table *[corrHistSize]int32, key uint64, bestScore, rawEval, depth int) {
	weight := depth
	if weight > 16 {
		weight = 16
	}
	if weight < 1 {
		weight = 1
	}
	bonus := (bestScore - rawEval) * weight / 256

	idx := key & corrHistMask
	old := table[idx]
	target := int32(bonus) * corrHistGrain
	newVal := old + (target-old)/16
	table[idx] = clampCorr(newVal)
}

// Update records a correction based on the difference between the search's
// best score and the raw (pre-correction) static evaluation, weighted by
// min(depth,16)/256, in all four structure tables for `side`.
func (ch *CorrectionHistory) Update(side board.Color, pos *board.Position, bestScore, rawEval, depth int) {
	updateTable(&ch.pawn[side], pos.PawnKey, bestScore, rawEval, depth)
	updateTable(&ch.minor[side], pos.MinorKey, bestScore, rawEval, depth)
	updateTable(&ch.major[side], pos.MajorKey, bestScore, rawEval, depth)
	updateTable(&ch.material[side], pos.MaterialKey, bestScore, rawEval, depth)
}

// Clear resets all correction values (called on ucinewgame).
func (ch *CorrectionHistory) Clear() {
	*ch = CorrectionHistory{}
}
