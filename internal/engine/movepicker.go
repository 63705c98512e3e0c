package engine

import "github.com/hailam/chessplay/internal/board"

// pickerStage names a state in the move picker's state machine.
type pickerStage int

const (
	stageTT pickerStage = iota
	stageGoodCapture
	stagePromotion
	stageKiller
	stageGoodQuiet
	stageBadCapture
	stageBadQuiet
	stageDone
)

// Bucket caps and the quiet good/bad split threshold.
const (
	goodCaptureCap     = 20
	goodQuietCap       = 40
	goodQuietThreshold = 0
)

// Threats-bonus constants (§4.5.1). Not separately named in the glossary
// text carried into this repo, so these are sized in the same order of
// magnitude as the existing history/killer scores in ordering.go.
const (
	threatEscapeBonus     = 16384
	threatAttackBonus     = 8192
	threatKingAttackBonus = 12288
	threatNullEscapeBonus = 4096
)

type scoredMove struct {
	move  board.Move
	score int
}

// MovePicker is a staged move iterator:
//
//	TT -> GOOD_CAPTURE -> PROMOTION -> KILLER -> GOOD_QUIET -> BAD_CAPTURE -> BAD_QUIET
//
// It partitions the position's legal moves into these buckets once at
// construction (all moves are already known, so "on first entry, generates"
// reduces to "bucket once, drain in stage order") and yields them in stage
// sequence, applying skip_quiets() to bypass the quiet stages entirely.
type MovePicker struct {
	stage     pickerStage
	ttMove    board.Move
	ttYielded bool

	goodCaptures []scoredMove
	badCaptures  []scoredMove
	promotions   []scoredMove
	killerMoves  []scoredMove
	goodQuiets   []scoredMove
	badQuiets    []scoredMove

	cursor int

	skipQuietsFlag bool

	// Whether the most recently yielded move was a capture (see WasCapture).
	lastWasCapture bool
}

// NewMovePicker buckets every move in legalMoves into the picker's stages.
// killers and killers2 are this ply's and the ply-2 killer slots, counter is
// the countermove reply to prevMove, and threatMove is the previous null-move
// search's reply (moving a piece off its destination square earns a bonus).
func NewMovePicker(
	pos *board.Position,
	orderer *MoveOrderer,
	legalMoves *board.MoveList,
	ttMove board.Move,
	killers [2]board.Move,
	killers2 [2]board.Move,
	counter board.Move,
	threatMove board.Move,
) *MovePicker {
	mp := &MovePicker{ttMove: ttMove}

	isKiller := func(m board.Move) bool {
		return m == killers[0] || m == killers[1] || m == killers2[0] || m == killers2[1] || m == counter
	}

	for i := 0; i < legalMoves.Len(); i++ {
		m := legalMoves.Get(i)
		if m == ttMove {
			continue
		}

		if m.IsCapture() {
			score := SEE(pos, m) + orderer.GetCaptureHistoryScore(m.MovingPiece(), m.To(), captureVictimType(m))/32
			sm := scoredMove{move: m, score: score}
			if score >= 0 {
				mp.goodCaptures = append(mp.goodCaptures, sm)
			} else {
				mp.badCaptures = append(mp.badCaptures, sm)
			}
			continue
		}

		if m.IsPromotion() {
			score := orderer.GetHistoryScore(m) + int(m.Promotion())*100
			mp.promotions = append(mp.promotions, scoredMove{move: m, score: score})
			continue
		}

		threat := threatsBonus(pos, m, threatMove)
		if isKiller(m) {
			mp.killerMoves = append(mp.killerMoves, scoredMove{move: m, score: orderer.GetHistoryScore(m) + threat})
			continue
		}

		score := orderer.GetHistoryScore(m) + threat
		sm := scoredMove{move: m, score: score}
		if score > goodQuietThreshold {
			mp.goodQuiets = append(mp.goodQuiets, sm)
		} else {
			mp.badQuiets = append(mp.badQuiets, sm)
		}
	}

	sortScoredMovesDesc(mp.goodCaptures)
	sortScoredMovesDesc(mp.badCaptures)
	sortScoredMovesDesc(mp.promotions)
	sortScoredMovesDesc(mp.killerMoves)
	sortScoredMovesDesc(mp.goodQuiets)
	sortScoredMovesDesc(mp.badQuiets)

	if len(mp.goodCaptures) > goodCaptureCap {
		spill := mp.goodCaptures[goodCaptureCap:]
		mp.badCaptures = append(append([]scoredMove{}, spill...), mp.badCaptures...)
		sortScoredMovesDesc(mp.badCaptures)
		mp.goodCaptures = mp.goodCaptures[:goodCaptureCap]
	}
	if len(mp.goodQuiets) > goodQuietCap {
		spill := mp.goodQuiets[goodQuietCap:]
		mp.badQuiets = append(append([]scoredMove{}, spill...), mp.badQuiets...)
		sortScoredMovesDesc(mp.badQuiets)
		mp.goodQuiets = mp.goodQuiets[:goodQuietCap]
	}

	return mp
}

// SkipQuiets causes subsequent Next calls to bypass GOOD_QUIET and BAD_QUIET,
// matching a late-move-pruning decision made mid-iteration.
func (mp *MovePicker) SkipQuiets() {
	mp.skipQuietsFlag = true
}

// PreviousPickWasSkipped has no effect: the picker keeps no per-move
// quiet/capture counts, so there is nothing to undo for a move that Next
// yielded but the caller pruned without searching.
func (mp *MovePicker) PreviousPickWasSkipped() {}

// WasCapture reports whether the most recently yielded move was a capture.
func (mp *MovePicker) WasCapture() bool {
	return mp.lastWasCapture
}

// Next returns the next move in stage order, or (NoMove, false) when every
// stage is exhausted.
func (mp *MovePicker) Next() (board.Move, bool) {
	for {
		switch mp.stage {
		case stageTT:
			mp.stage = stageGoodCapture
			if mp.ttMove != board.NoMove && !mp.ttYielded {
				mp.ttYielded = true
				mp.lastWasCapture = mp.ttMove.IsCapture()
				return mp.ttMove, true
			}
		case stageGoodCapture:
			if mp.cursor < len(mp.goodCaptures) {
				m := mp.goodCaptures[mp.cursor].move
				mp.cursor++
				mp.lastWasCapture = true
				return m, true
			}
			mp.cursor = 0
			mp.stage = stagePromotion
		case stagePromotion:
			if mp.cursor < len(mp.promotions) {
				m := mp.promotions[mp.cursor].move
				mp.cursor++
				mp.lastWasCapture = false
				return m, true
			}
			mp.cursor = 0
			mp.stage = stageKiller
		case stageKiller:
			if mp.cursor < len(mp.killerMoves) {
				m := mp.killerMoves[mp.cursor].move
				mp.cursor++
				mp.lastWasCapture = false
				return m, true
			}
			mp.cursor = 0
			mp.stage = stageGoodQuiet
		case stageGoodQuiet:
			if mp.skipQuietsFlag {
				mp.cursor = 0
				mp.stage = stageBadCapture
				continue
			}
			if mp.cursor < len(mp.goodQuiets) {
				m := mp.goodQuiets[mp.cursor].move
				mp.cursor++
				mp.lastWasCapture = false
				return m, true
			}
			mp.cursor = 0
			mp.stage = stageBadCapture
		case stageBadCapture:
			if mp.cursor < len(mp.badCaptures) {
				m := mp.badCaptures[mp.cursor].move
				mp.cursor++
				mp.lastWasCapture = true
				return m, true
			}
			mp.cursor = 0
			mp.stage = stageBadQuiet
		case stageBadQuiet:
			if mp.skipQuietsFlag {
				mp.stage = stageDone
				continue
			}
			if mp.cursor < len(mp.badQuiets) {
				m := mp.badQuiets[mp.cursor].move
				mp.cursor++
				mp.lastWasCapture = false
				return m, true
			}
			mp.stage = stageDone
		case stageDone:
			return board.NoMove, false
		}
	}
}

func sortScoredMovesDesc(s []scoredMove) {
	for i := 0; i < len(s)-1; i++ {
		best := i
		for j := i + 1; j < len(s); j++ {
			if s[j].score > s[best].score {
				best = j
			}
		}
		if best != i {
			s[i], s[best] = s[best], s[i]
		}
	}
}

// captureVictimType returns the type of the piece captured by m, as encoded
// on the move itself (this also covers en passant, whose captured pawn does
// not sit on the destination square).
func captureVictimType(m board.Move) board.PieceType {
	captured := m.CapturedPiece()
	if captured == board.NoPiece {
		return board.Pawn
	}
	return captured.Type()
}

// threatsBonus implements §4.5.1: escape/attack/king-attack/null-move-escape
// bonuses for quiet moves, computed from the position before the move is
// made.
func threatsBonus(pos *board.Position, m board.Move, threatMove board.Move) int {
	piece := m.MovingPiece()
	pt := piece.Type()
	us := piece.Color()
	them := us.Other()
	from, to := m.From(), m.To()
	occ := pos.AllOccupied

	bonus := 0

	isMinor := pt == board.Knight || pt == board.Bishop
	isMajor := pt == board.Rook || pt == board.Queen

	if isMinor {
		if attackedByPawn(pos, from, them) {
			bonus += threatEscapeBonus
		}
		if attackedByPawn(pos, to, them) {
			bonus -= threatEscapeBonus
		}
	} else if isMajor {
		if attackedByPawn(pos, from, them) || attackedByMinor(pos, from, them, occ) {
			bonus += threatEscapeBonus
		}
		if attackedByPawn(pos, to, them) || attackedByMinor(pos, to, them, occ) {
			bonus -= threatEscapeBonus
		}
	}

	if isMinor || isMajor {
		attacks := attacksFromAsPiece(pt, to, occ)
		enemyTargets := attacks &^ pos.Pieces[us][board.Pawn]
		for sq := board.A1; sq <= board.H8; sq++ {
			if enemyTargets&board.SquareBB(sq) == 0 {
				continue
			}
			target := pos.PieceAt(sq)
			if target == board.NoPiece || target.Color() != them {
				continue
			}
			if pieceValues[target.Type()] >= pieceValues[pt] {
				if !pos.IsSquareAttacked(to, them) {
					bonus += threatAttackBonus
				}
				if target.Type() == board.King {
					bonus += threatKingAttackBonus
				}
			}
		}
	}

	if threatMove != board.NoMove && from == threatMove.To() {
		bonus += threatNullEscapeBonus
	}

	return bonus
}

func attackedByPawn(pos *board.Position, sq board.Square, byColor board.Color) bool {
	return board.PawnAttacks(sq, byColor.Other())&pos.Pieces[byColor][board.Pawn] != 0
}

func attackedByMinor(pos *board.Position, sq board.Square, byColor board.Color, occ board.Bitboard) bool {
	if board.KnightAttacks(sq)&pos.Pieces[byColor][board.Knight] != 0 {
		return true
	}
	return board.BishopAttacks(sq, occ)&pos.Pieces[byColor][board.Bishop] != 0
}

func attacksFromAsPiece(pt board.PieceType, sq board.Square, occ board.Bitboard) board.Bitboard {
	switch pt {
	case board.Knight:
		return board.KnightAttacks(sq)
	case board.Bishop:
		return board.BishopAttacks(sq, occ)
	case board.Rook:
		return board.RookAttacks(sq, occ)
	case board.Queen:
		return board.QueenAttacks(sq, occ)
	default:
		return 0
	}
}
