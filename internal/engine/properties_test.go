package engine

import (
	"testing"

	"github.com/hailam/chessplay/internal/board"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestSEEDefendedPawn checks the static exchange evaluator against a
// hand-crafted position with a known exchange value: a lone queen capturing
// a pawn that is defended only by another pawn must return 100 - 900 = -800.
func TestSEEDefendedPawn(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/2p5/3p4/8/8/8/3QK3 w - - 0 1")
	require.NoError(t, err)

	move := board.NewMove(board.D1, board.D5, board.WhiteQueen, board.BlackPawn)
	assert.Equal(t, -800, SEE(pos, move))
}

// TestSEEWinningCapture checks that an undefended capture returns the full
// value of the captured piece.
func TestSEEWinningCapture(t *testing.T) {
	pos, err := board.ParseFEN("4k3/8/8/3p4/8/8/8/3QK3 w - - 0 1")
	require.NoError(t, err)

	move := board.NewMove(board.D1, board.D5, board.WhiteQueen, board.BlackPawn)
	assert.Equal(t, PawnValue, SEE(pos, move))
}

// TestTranspositionKeyXORInvariant verifies that every stored slot satisfies
// key ^ payload == hash at the moment of the store, and that a probe for
// that hash returns the same depth/score/flag/move that were stored.
func TestTranspositionKeyXORInvariant(t *testing.T) {
	tt := NewTranspositionTable(1)

	type stored struct {
		hash  uint64
		depth int
		score int
		flag  TTFlag
		move  board.Move
	}

	cases := []stored{
		{0x1111111111111111, 5, 120, TTExact, board.NewMove(board.E2, board.E4, board.WhitePawn, board.NoPiece)},
		{0x2222222222222222, 8, -300, TTLowerBound, board.NewMove(board.G1, board.F3, board.WhiteKnight, board.NoPiece)},
		{0x3333333333333333, 1, 0, TTUpperBound, board.NoMove},
	}

	for _, c := range cases {
		tt.Store(c.hash, c.depth, c.score, c.flag, c.move)
	}

	for _, c := range cases {
		entry, ok := tt.Probe(c.hash)
		require.True(t, ok, "expected probe hit for hash %x", c.hash)
		assert.Equal(t, c.depth, entry.Depth)
		assert.Equal(t, c.score, entry.Score)
		assert.Equal(t, c.flag, entry.Flag)
		assert.Equal(t, c.move, entry.BestMove)
	}

	// A hash that was never stored must miss rather than alias another slot.
	_, ok := tt.Probe(0x4444444444444444)
	assert.False(t, ok, "expected probe miss for unstored hash")
}

// TestMovePickerOrdering verifies that the TT move is always ordered first,
// every yielded move is pseudo-legal for the position it was generated from,
// and no move repeats within a single scoring pass.
func TestMovePickerOrdering(t *testing.T) {
	pos := board.NewPosition()
	moves := pos.GenerateLegalMoves()
	require.Greater(t, moves.Len(), 0)

	ttMove := moves.Get(moves.Len() - 1) // pick a move that isn't naturally first
	orderer := NewMoveOrderer()
	scores := orderer.ScoreMoves(pos, moves, 0, ttMove)
	board.SortMoves(moves, scores)

	// After sorting, PickMove always selects index 0 next - simulate a full
	// pick pass and confirm the TT move comes out first with no duplicates.
	seen := make(map[board.Move]bool, moves.Len())
	var order []board.Move
	for i := 0; i < moves.Len(); i++ {
		board.PickMove(moves, scores, i)
		m := moves.Get(i)
		assert.False(t, seen[m], "move %v yielded more than once", m)
		seen[m] = true
		order = append(order, m)
	}

	require.NotEmpty(t, order)
	assert.Equal(t, ttMove, order[0], "TT move should be ordered first")
	assert.Equal(t, moves.Len(), len(seen), "every legal move should be yielded exactly once")
}
