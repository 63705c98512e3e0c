package engine

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestMovePickerStageOrder verifies that the staged picker always yields the
// TT move first, and that every legal move is eventually yielded exactly
// once across the remaining stages.
func TestMovePickerStageOrder(t *testing.T) {
	pos, err := board.ParseFEN("r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	require.NoError(t, err)

	moves := pos.GenerateLegalMoves()
	require.Greater(t, moves.Len(), 0)

	ttMove := moves.Get(moves.Len() - 1)
	orderer := NewMoveOrderer()

	picker := NewMovePicker(pos, orderer, moves, ttMove, [2]board.Move{}, [2]board.Move{}, board.NoMove, board.NoMove)

	first, ok := picker.Next()
	require.True(t, ok)
	assert.Equal(t, ttMove, first)

	seen := map[board.Move]bool{ttMove: true}
	count := 1
	for {
		m, ok := picker.Next()
		if !ok {
			break
		}
		assert.False(t, seen[m], "move %v yielded more than once", m)
		seen[m] = true
		count++
	}

	assert.Equal(t, moves.Len(), count, "every legal move should be yielded exactly once")
}

// TestMovePickerSkipQuiets verifies that SkipQuiets stops GOOD_QUIET and
// BAD_QUIET from yielding any further moves, while captures already queued
// still come out.
func TestMovePickerSkipQuiets(t *testing.T) {
	pos, err := board.ParseFEN("r1bqkbnr/pppp1ppp/2n5/4p3/4P3/5N2/PPPP1PPP/RNBQKB1R w KQkq - 2 3")
	require.NoError(t, err)

	moves := pos.GenerateLegalMoves()
	orderer := NewMoveOrderer()
	picker := NewMovePicker(pos, orderer, moves, board.NoMove, [2]board.Move{}, [2]board.Move{}, board.NoMove, board.NoMove)

	picker.SkipQuiets()

	for {
		m, ok := picker.Next()
		if !ok {
			break
		}
		assert.True(t, m.IsCapture() || m.IsPromotion(), "quiet move %v yielded after SkipQuiets", m)
	}
}

// TestMovePickerGoodCaptureCap verifies the good-capture bucket never grows
// past its cap of 20, regardless of how many non-negative-SEE captures a
// position has.
func TestMovePickerGoodCaptureCap(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/3p4/8/8/8/3QK3 w - - 0 1")
	require.NoError(t, err)

	// The same undefended capture (SEE +100) listed five times more than the cap.
	moves := board.NewMoveList()
	for i := 0; i < goodCaptureCap+5; i++ {
		moves.Add(board.NewMove(board.D1, board.D5, board.WhiteQueen, board.BlackPawn))
	}
	orderer := NewMoveOrderer()
	picker := NewMovePicker(pos, orderer, moves, board.NoMove, [2]board.Move{}, [2]board.Move{}, board.NoMove, board.NoMove)

	assert.LessOrEqual(t, len(picker.goodCaptures), goodCaptureCap)
	assert.Len(t, picker.badCaptures, 5)
	assert.LessOrEqual(t, len(picker.goodQuiets), goodQuietCap)
}
