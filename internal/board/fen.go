package board

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/hailam/chessplay/internal/engineerr"
)

// StartFEN is the FEN string for the starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// ParseFEN parses a FEN string and returns a Position.
func ParseFEN(fen string) (*Position, error) {
	parts := strings.Fields(fen)
	if len(parts) < 4 {
		return nil, fmt.Errorf("invalid FEN: need at least 4 fields, got %d", len(parts))
	}

	pos := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	pos.KingSquare[White] = NoSquare
	pos.KingSquare[Black] = NoSquare

	// Parse piece placement (field 0)
	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, err
	}

	// Parse side to move (field 1)
	switch parts[1] {
	case "w":
		pos.SideToMove = White
	case "b":
		pos.SideToMove = Black
	default:
		return nil, fmt.Errorf("invalid side to move: %s", parts[1])
	}

	// Parse castling rights (field 2)
	if err := parseCastlingRights(pos, parts[2]); err != nil {
		return nil, err
	}

	// Parse en passant square (field 3)
	if parts[3] != "-" {
		sq, err := ParseSquare(parts[3])
		if err != nil {
			return nil, fmt.Errorf("invalid en passant square: %s", parts[3])
		}
		pos.EnPassant = sq
	}

	// Parse half-move clock (field 4, optional)
	if len(parts) > 4 {
		hmc, err := strconv.Atoi(parts[4])
		if err != nil {
			return nil, fmt.Errorf("invalid half-move clock: %s", parts[4])
		}
		pos.HalfMoveClock = hmc
	}

	// Parse full-move number (field 5, optional)
	if len(parts) > 5 {
		fmn, err := strconv.Atoi(parts[5])
		if err != nil {
			return nil, fmt.Errorf("invalid full-move number: %s", parts[5])
		}
		pos.FullMoveNumber = fmn
	}

	// Update derived state
	pos.updateOccupied()
	pos.findKings()
	pos.Hash = pos.ComputeHash()
	pos.PawnKey = pos.ComputePawnKey()
	pos.MinorKey = pos.ComputeMinorKey()
	pos.MajorKey = pos.ComputeMajorKey()
	pos.MaterialKey = pos.ComputeMaterialKey()
	pos.UpdateCheckers()
	pos.RepetitionRing = append(pos.RepetitionRing, pos.Hash)

	return pos, nil
}

// ParseFENTolerant is a best-effort FEN parser: unrecognized tokens in the
// castling, en-passant, half-move, and full-move fields are skipped rather
// than treated as fatal, and missing trailing fields fall back to sensible
// defaults. Piece placement must still be well-formed (a malformed board is
// not a position any search can start from); legality is not checked beyond
// the basic per-rank square count. Returns the best partial parse plus any
// field-level warnings that were swallowed.
func ParseFENTolerant(fen string) (*Position, []error) {
	var warnings []error
	parts := strings.Fields(fen)
	if len(parts) < 1 {
		parts = strings.Fields(StartFEN)
	}

	pos := &Position{
		EnPassant:      NoSquare,
		FullMoveNumber: 1,
	}
	pos.KingSquare[White] = NoSquare
	pos.KingSquare[Black] = NoSquare

	if err := parsePiecePlacement(pos, parts[0]); err != nil {
		return nil, []error{fmt.Errorf("unparseable piece placement, cannot continue: %w", err)}
	}

	pos.SideToMove = White
	if len(parts) > 1 {
		switch parts[1] {
		case "w":
			pos.SideToMove = White
		case "b":
			pos.SideToMove = Black
		default:
			warnings = append(warnings, fmt.Errorf("%w: invalid side to move %q, defaulting to white", engineerr.ErrParseWarning, parts[1]))
		}
	}

	pos.CastlingRights = NoCastling
	if len(parts) > 2 {
		if err := parseCastlingRights(pos, parts[2]); err != nil {
			warnings = append(warnings, fmt.Errorf("%w: malformed castling field %q, best-effort applied: %v", engineerr.ErrParseWarning, parts[2], err))
			pos.CastlingRights = parseCastlingRightsLenient(parts[2])
		}
	}

	if len(parts) > 3 && parts[3] != "-" {
		if sq, err := ParseSquare(parts[3]); err == nil {
			pos.EnPassant = sq
		} else {
			warnings = append(warnings, fmt.Errorf("%w: invalid en passant square %q, ignoring", engineerr.ErrParseWarning, parts[3]))
		}
	}

	if len(parts) > 4 {
		if hmc, err := strconv.Atoi(parts[4]); err == nil && hmc >= 0 {
			pos.HalfMoveClock = hmc
		} else {
			warnings = append(warnings, fmt.Errorf("%w: invalid half-move clock %q, defaulting to 0", engineerr.ErrParseWarning, parts[4]))
		}
	}

	if len(parts) > 5 {
		if fmn, err := strconv.Atoi(parts[5]); err == nil && fmn >= 1 {
			pos.FullMoveNumber = fmn
		} else {
			warnings = append(warnings, fmt.Errorf("%w: invalid full-move number %q, defaulting to 1", engineerr.ErrParseWarning, parts[5]))
		}
	}

	pos.updateOccupied()
	pos.findKings()
	pos.Hash = pos.ComputeHash()
	pos.PawnKey = pos.ComputePawnKey()
	pos.MinorKey = pos.ComputeMinorKey()
	pos.MajorKey = pos.ComputeMajorKey()
	pos.MaterialKey = pos.ComputeMaterialKey()
	pos.UpdateCheckers()
	pos.RepetitionRing = append(pos.RepetitionRing, pos.Hash)

	return pos, warnings
}

// parseCastlingRightsLenient applies whichever castling characters are
// recognized and silently skips the rest, for use after a hard parse failure.
func parseCastlingRightsLenient(castling string) CastlingRights {
	var cr CastlingRights
	for _, c := range castling {
		switch c {
		case 'K':
			cr |= WhiteKingSideCastle
		case 'Q':
			cr |= WhiteQueenSideCastle
		case 'k':
			cr |= BlackKingSideCastle
		case 'q':
			cr |= BlackQueenSideCastle
		}
	}
	return cr
}

// parsePiecePlacement parses the piece placement section of a FEN string.
func parsePiecePlacement(pos *Position, placement string) error {
	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return fmt.Errorf("invalid piece placement: need 8 ranks, got %d", len(ranks))
	}

	for i, rankStr := range ranks {
		rank := 7 - i // FEN starts from rank 8
		file := 0

		for _, c := range rankStr {
			if file > 7 {
				return fmt.Errorf("too many squares in rank %d", rank+1)
			}

			if c >= '1' && c <= '8' {
				// Skip empty squares
				file += int(c - '0')
			} else {
				// Place a piece
				piece := PieceFromChar(byte(c))
				if piece == NoPiece {
					return fmt.Errorf("invalid piece character: %c", c)
				}
				sq := NewSquare(file, rank)
				pos.setPiece(piece, sq)
				file++
			}
		}

		if file != 8 {
			return fmt.Errorf("invalid number of squares in rank %d: got %d", rank+1, file)
		}
	}

	return nil
}

// parseCastlingRights parses the castling rights section of a FEN string.
func parseCastlingRights(pos *Position, castling string) error {
	if castling == "-" {
		pos.CastlingRights = NoCastling
		return nil
	}

	for _, c := range castling {
		switch c {
		case 'K':
			pos.CastlingRights |= WhiteKingSideCastle
		case 'Q':
			pos.CastlingRights |= WhiteQueenSideCastle
		case 'k':
			pos.CastlingRights |= BlackKingSideCastle
		case 'q':
			pos.CastlingRights |= BlackQueenSideCastle
		default:
			return fmt.Errorf("invalid castling character: %c", c)
		}
	}

	return nil
}

// ToFEN returns the FEN representation of the position.
func (p *Position) ToFEN() string {
	var sb strings.Builder

	// Piece placement
	for rank := 7; rank >= 0; rank-- {
		empty := 0
		for file := 0; file < 8; file++ {
			sq := NewSquare(file, rank)
			piece := p.PieceAt(sq)
			if piece == NoPiece {
				empty++
			} else {
				if empty > 0 {
					sb.WriteString(strconv.Itoa(empty))
					empty = 0
				}
				sb.WriteString(piece.String())
			}
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
		if rank > 0 {
			sb.WriteByte('/')
		}
	}

	// Side to move
	sb.WriteByte(' ')
	if p.SideToMove == White {
		sb.WriteByte('w')
	} else {
		sb.WriteByte('b')
	}

	// Castling rights
	sb.WriteByte(' ')
	sb.WriteString(p.CastlingRights.String())

	// En passant
	sb.WriteByte(' ')
	sb.WriteString(p.EnPassant.String())

	// Half-move clock and full-move number
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.HalfMoveClock))
	sb.WriteByte(' ')
	sb.WriteString(strconv.Itoa(p.FullMoveNumber))

	return sb.String()
}

// ComputeHash computes the Zobrist hash for the position from scratch.
func (p *Position) ComputeHash() uint64 {
	var hash uint64

	// Hash pieces
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= King; pt++ {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				hash ^= zobristPiece[c][pt][sq]
			}
		}
	}

	// Hash side to move
	if p.SideToMove == Black {
		hash ^= zobristSideToMove
	}

	// Hash castling rights
	hash ^= zobristCastling[p.CastlingRights]

	// Hash en passant
	if p.EnPassant != NoSquare {
		hash ^= zobristEnPassant[p.EnPassant.File()]
	}

	return hash
}

// ComputePawnKey computes the pawn hash key from scratch.
// Only includes pawn positions for pawn structure caching.
func (p *Position) ComputePawnKey() uint64 {
	var key uint64

	for c := White; c <= Black; c++ {
		bb := p.Pieces[c][Pawn]
		for bb != 0 {
			sq := bb.PopLSB()
			key ^= zobristPiece[c][Pawn][sq]
		}
	}

	return key
}

// ComputeMinorKey computes the minor-piece structure hash from scratch:
// a Zobrist sum over knight/bishop squares with each side's king position
// mixed in via a band-specific table.
func (p *Position) ComputeMinorKey() uint64 {
	var key uint64
	for c := White; c <= Black; c++ {
		for _, pt := range [2]PieceType{Knight, Bishop} {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				key ^= zobristPiece[c][pt][sq]
			}
		}
		key ^= zobristKingMinor[c][p.KingSquare[c]]
	}
	return key
}

// ComputeMajorKey computes the major-piece structure hash from scratch:
// a Zobrist sum over rook/queen squares with each side's king position
// mixed in via a band-specific table.
func (p *Position) ComputeMajorKey() uint64 {
	var key uint64
	for c := White; c <= Black; c++ {
		for _, pt := range [2]PieceType{Rook, Queen} {
			bb := p.Pieces[c][pt]
			for bb != 0 {
				sq := bb.PopLSB()
				key ^= zobristPiece[c][pt][sq]
			}
		}
		key ^= zobristKingMajor[c][p.KingSquare[c]]
	}
	return key
}

// ComputeMaterialKey computes the material hash from scratch: a Zobrist sum
// keyed purely by per-side, per-piece-type counts (no square information),
// reusing the piece-square table with the count as a fake square index.
func (p *Position) ComputeMaterialKey() uint64 {
	var key uint64
	for c := White; c <= Black; c++ {
		for pt := Pawn; pt <= Queen; pt++ {
			count := p.Pieces[c][pt].PopCount()
			for i := 0; i < count; i++ {
				key ^= zobristPiece[c][pt][i]
			}
		}
	}
	return key
}
