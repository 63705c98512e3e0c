package board

import "fmt"

// Move encodes a chess move in 24 of 32 bits:
// bits 0-5:   from square (0-63)
// bits 6-11:  to square (0-63)
// bits 12-14: promotion piece type (0=none, else Knight..Queen)
// bits 15-18: moving piece (Piece, 0-12; 12=NoPiece for a null move)
// bits 19-22: captured piece (Piece, 0-12; 12=NoPiece means not a capture)
// bit  23:    en-passant flag
//
// A move is a capture iff its encoded captured piece is non-empty, and a
// promotion iff its promotion field is non-empty. Castling is not a distinct
// tag: it is recognized as a king move whose file delta exceeds one. The
// en-passant flag exists only because the captured pawn does not sit on the
// destination square, so make() needs to know which square to clear.
type Move uint32

const (
	moveFromShift      = 0
	moveToShift        = 6
	movePromoShift     = 12
	moveMovingShift    = 15
	moveCapturedShift  = 19
	moveEnPassantShift = 23

	moveSquareMask = 0x3F
	movePromoMask  = 0x7
	movePieceMask  = 0xF
)

// NoMove represents an invalid or null move (from == to).
const NoMove Move = 0

// NewMove creates a normal (non-promotion, non-en-passant) move.
func NewMove(from, to Square, moving, captured Piece) Move {
	return Move(from)<<moveFromShift |
		Move(to)<<moveToShift |
		Move(moving)<<moveMovingShift |
		Move(captured)<<moveCapturedShift
}

// NewPromotion creates a promotion move, optionally also a capture.
func NewPromotion(from, to Square, moving Piece, promo PieceType, captured Piece) Move {
	return Move(from)<<moveFromShift |
		Move(to)<<moveToShift |
		Move(promo)<<movePromoShift |
		Move(moving)<<moveMovingShift |
		Move(captured)<<moveCapturedShift
}

// NewEnPassant creates an en passant capture move. captured is the opposing
// pawn Piece value; it does not sit on `to`.
func NewEnPassant(from, to Square, moving, captured Piece) Move {
	return Move(from)<<moveFromShift |
		Move(to)<<moveToShift |
		Move(moving)<<moveMovingShift |
		Move(captured)<<moveCapturedShift |
		Move(1)<<moveEnPassantShift
}

// NewCastling creates a castling move (the king's own movement).
func NewCastling(from, to Square, moving Piece) Move {
	return Move(from)<<moveFromShift |
		Move(to)<<moveToShift |
		Move(moving)<<moveMovingShift |
		Move(NoPiece)<<moveCapturedShift
}

// From returns the origin square.
func (m Move) From() Square {
	return Square((m >> moveFromShift) & moveSquareMask)
}

// To returns the destination square.
func (m Move) To() Square {
	return Square((m >> moveToShift) & moveSquareMask)
}

// Promotion returns the promotion piece type (valid only if IsPromotion()).
func (m Move) Promotion() PieceType {
	return PieceType((m >> movePromoShift) & movePromoMask)
}

// MovingPiece returns the piece that is moving.
func (m Move) MovingPiece() Piece {
	return Piece((m >> moveMovingShift) & movePieceMask)
}

// CapturedPiece returns the captured piece, or NoPiece if this is not a capture.
func (m Move) CapturedPiece() Piece {
	return Piece((m >> moveCapturedShift) & movePieceMask)
}

// IsPromotion returns true if this is a promotion move.
func (m Move) IsPromotion() bool {
	return m.Promotion() != Pawn
}

// IsEnPassant returns true if this is an en passant capture.
func (m Move) IsEnPassant() bool {
	return (m>>moveEnPassantShift)&1 != 0
}

// IsCapture returns true if this move captures a piece.
func (m Move) IsCapture() bool {
	return m.CapturedPiece() != NoPiece
}

// IsCastling returns true if this is a king move whose file delta exceeds one.
func (m Move) IsCastling() bool {
	if m.MovingPiece().Type() != King {
		return false
	}
	delta := int(m.To().File()) - int(m.From().File())
	if delta < 0 {
		delta = -delta
	}
	return delta > 1
}

// IsQuiet returns true if this is neither a capture nor a promotion.
func (m Move) IsQuiet() bool {
	return !m.IsCapture() && !m.IsPromotion()
}

// String returns the UCI format of the move (e.g., "e2e4", "e7e8q").
func (m Move) String() string {
	if m == NoMove {
		return "0000"
	}

	s := m.From().String() + m.To().String()

	if m.IsPromotion() {
		promoChars := []byte{0, 'n', 'b', 'r', 'q'}
		s += string(promoChars[m.Promotion()])
	}

	return s
}

// ParseMove parses a UCI format move string against a position to recover
// the moving/captured piece fields and special-move flags.
func ParseMove(s string, pos *Position) (Move, error) {
	if len(s) < 4 {
		return NoMove, fmt.Errorf("invalid move string: %s", s)
	}

	from, err := ParseSquare(s[0:2])
	if err != nil {
		return NoMove, err
	}

	to, err := ParseSquare(s[2:4])
	if err != nil {
		return NoMove, err
	}

	moving := pos.PieceAt(from)
	if moving == NoPiece {
		return NoMove, fmt.Errorf("no piece at %s", from)
	}
	pt := moving.Type()

	if len(s) == 5 {
		var promo PieceType
		switch s[4] {
		case 'n':
			promo = Knight
		case 'b':
			promo = Bishop
		case 'r':
			promo = Rook
		case 'q':
			promo = Queen
		default:
			return NoMove, fmt.Errorf("invalid promotion piece: %c", s[4])
		}
		return NewPromotion(from, to, moving, promo, pos.PieceAt(to)), nil
	}

	if pt == King {
		delta := int(to) - int(from)
		if delta < 0 {
			delta = -delta
		}
		if delta == 2 {
			return NewCastling(from, to, moving), nil
		}
	}

	if pt == Pawn && to == pos.EnPassant && pos.EnPassant != NoSquare {
		captured := NewPiece(Pawn, pos.SideToMove.Other())
		return NewEnPassant(from, to, moving, captured), nil
	}

	return NewMove(from, to, moving, pos.PieceAt(to)), nil
}

// MoveList is a fixed-size list of moves to avoid allocations.
type MoveList struct {
	moves [256]Move
	count int
}

// NewMoveList creates an empty move list.
func NewMoveList() *MoveList {
	return &MoveList{}
}

// Add adds a move to the list.
func (ml *MoveList) Add(m Move) {
	ml.moves[ml.count] = m
	ml.count++
}

// Len returns the number of moves in the list.
func (ml *MoveList) Len() int {
	return ml.count
}

// Get returns the move at index i.
func (ml *MoveList) Get(i int) Move {
	return ml.moves[i]
}

// Set sets the move at index i.
func (ml *MoveList) Set(i int, m Move) {
	ml.moves[i] = m
}

// Swap swaps two moves in the list.
func (ml *MoveList) Swap(i, j int) {
	ml.moves[i], ml.moves[j] = ml.moves[j], ml.moves[i]
}

// Clear clears the list.
func (ml *MoveList) Clear() {
	ml.count = 0
}

// Contains returns true if the list contains the move.
func (ml *MoveList) Contains(m Move) bool {
	for i := 0; i < ml.count; i++ {
		if ml.moves[i] == m {
			return true
		}
	}
	return false
}

// Slice returns the moves as a slice.
func (ml *MoveList) Slice() []Move {
	return ml.moves[:ml.count]
}

// UndoInfo stores information needed to undo a move.
type UndoInfo struct {
	CapturedPiece  Piece
	CastlingRights CastlingRights
	EnPassant      Square
	HalfMoveClock  int
	Hash           uint64
	PawnKey        uint64
	MinorKey       uint64
	MajorKey       uint64
	MaterialKey    uint64
	Checkers       Bitboard
	KingSquare     [2]Square
	Pieces         [2][6]Bitboard
	Occupied       [2]Bitboard
	AllOccupied    Bitboard
	Valid          bool
}
