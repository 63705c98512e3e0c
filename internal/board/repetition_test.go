package board

import "testing"

// TestRepetitionCount plays the same four-move shuffle twice from the
// starting position and checks that the resulting position is counted as a
// threefold repetition (the starting position itself is the third
// occurrence).
func TestRepetitionCount(t *testing.T) {
	pos := NewPosition()

	knightShuffle := []struct{ from, to Square }{
		{G1, F3}, {G8, F6},
		{F3, G1}, {F6, G8},
		{G1, F3}, {G8, F6},
		{F3, G1}, {F6, G8},
	}

	for _, mv := range knightShuffle {
		piece := pos.PieceAt(mv.from)
		move := NewMove(mv.from, mv.to, piece, NoPiece)
		undo := pos.MakeMove(move)
		if !undo.Valid {
			t.Fatalf("move %v->%v was not valid", mv.from, mv.to)
		}
	}

	if got := pos.RepetitionCount(); got != 3 {
		t.Errorf("RepetitionCount() = %d, want 3", got)
	}
}
