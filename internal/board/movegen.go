package board

// GenerateLegalMoves generates all legal moves for the position.
func (p *Position) GenerateLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return p.filterLegalMoves(ml)
}

// GeneratePseudoLegalMoves generates all pseudo-legal moves (may leave king in check).
func (p *Position) GeneratePseudoLegalMoves() *MoveList {
	ml := NewMoveList()
	p.generateAllMoves(ml)
	return ml
}

// GenerateCaptures generates all capture moves (and capture/push promotions).
func (p *Position) GenerateCaptures() *MoveList {
	ml := NewMoveList()
	p.generateCaptures(ml)
	return p.filterLegalMoves(ml)
}

// GenerateQuietChecks generates non-capture moves that give check, including
// discovered checks, by simulating each quiet move and testing the enemy king.
func (p *Position) GenerateQuietChecks() *MoveList {
	ml := NewMoveList()
	all := NewMoveList()
	p.generateAllMoves(all)
	us := p.SideToMove
	them := us.Other()
	for i := 0; i < all.Len(); i++ {
		m := all.Get(i)
		if m.IsCapture() || m.IsPromotion() {
			continue
		}
		if p.CausesCheck(m, them) {
			ml.Add(m)
		}
	}
	return p.filterLegalMoves(ml)
}

// generateAllMoves generates all pseudo-legal moves.
func (p *Position) generateAllMoves(ml *MoveList) {
	us := p.SideToMove
	occupied := p.AllOccupied
	enemies := p.Occupied[us.Other()]

	p.generatePawnMoves(ml, us, enemies, occupied)

	knights := p.Pieces[us][Knight]
	moving := NewPiece(Knight, us)
	for knights != 0 {
		from := knights.PopLSB()
		attacks := KnightAttacks(from) & ^p.Occupied[us]
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, moving, p.PieceAt(to)))
		}
	}

	bishops := p.Pieces[us][Bishop]
	moving = NewPiece(Bishop, us)
	for bishops != 0 {
		from := bishops.PopLSB()
		attacks := BishopAttacks(from, occupied) & ^p.Occupied[us]
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, moving, p.PieceAt(to)))
		}
	}

	rooks := p.Pieces[us][Rook]
	moving = NewPiece(Rook, us)
	for rooks != 0 {
		from := rooks.PopLSB()
		attacks := RookAttacks(from, occupied) & ^p.Occupied[us]
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, moving, p.PieceAt(to)))
		}
	}

	queens := p.Pieces[us][Queen]
	moving = NewPiece(Queen, us)
	for queens != 0 {
		from := queens.PopLSB()
		attacks := QueenAttacks(from, occupied) & ^p.Occupied[us]
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, moving, p.PieceAt(to)))
		}
	}

	p.generateKingMoves(ml, us)
	p.generateCastlingMoves(ml, us)
}

// generatePawnMoves generates all pawn moves.
func (p *Position) generatePawnMoves(ml *MoveList, us Color, enemies, occupied Bitboard) {
	them := us.Other()
	pawns := p.Pieces[us][Pawn]
	empty := ^occupied
	moving := NewPiece(Pawn, us)

	var push1, push2, attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		push1 = pawns.North() & empty
		push2 = (push1 & Rank3).North() & empty
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		push1 = pawns.South() & empty
		push2 = (push1 & Rank6).South() & empty
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	nonPromo := push1 & ^promotionRank
	for nonPromo != 0 {
		to := nonPromo.PopLSB()
		from := Square(int(to) - pushDir)
		ml.Add(NewMove(from, to, moving, NoPiece))
	}

	for push2 != 0 {
		to := push2.PopLSB()
		from := Square(int(to) - 2*pushDir)
		ml.Add(NewMove(from, to, moving, NoPiece))
	}

	nonPromoL := attackL & ^promotionRank
	for nonPromoL != 0 {
		to := nonPromoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		ml.Add(NewMove(from, to, moving, p.PieceAt(to)))
	}

	nonPromoR := attackR & ^promotionRank
	for nonPromoR != 0 {
		to := nonPromoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		ml.Add(NewMove(from, to, moving, p.PieceAt(to)))
	}

	promoPush := push1 & promotionRank
	for promoPush != 0 {
		to := promoPush.PopLSB()
		from := Square(int(to) - pushDir)
		addPromotions(ml, from, to, moving, NoPiece)
	}

	promoL := attackL & promotionRank
	for promoL != 0 {
		to := promoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		addPromotions(ml, from, to, moving, p.PieceAt(to))
	}

	promoR := attackR & promotionRank
	for promoR != 0 {
		to := promoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		addPromotions(ml, from, to, moving, p.PieceAt(to))
	}

	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var epAttackers Bitboard
		if us == White {
			epAttackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
		} else {
			epAttackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
		}
		captured := NewPiece(Pawn, them)
		for epAttackers != 0 {
			from := epAttackers.PopLSB()
			ml.Add(NewEnPassant(from, p.EnPassant, moving, captured))
		}
	}
}

// addPromotions adds all four promotion moves.
func addPromotions(ml *MoveList, from, to Square, moving, captured Piece) {
	ml.Add(NewPromotion(from, to, moving, Queen, captured))
	ml.Add(NewPromotion(from, to, moving, Rook, captured))
	ml.Add(NewPromotion(from, to, moving, Bishop, captured))
	ml.Add(NewPromotion(from, to, moving, Knight, captured))
}

// generateKingMoves generates king moves (non-castling).
func (p *Position) generateKingMoves(ml *MoveList, us Color) {
	from := p.KingSquare[us]
	moving := NewPiece(King, us)
	attacks := KingAttacks(from) & ^p.Occupied[us]

	for attacks != 0 {
		to := attacks.PopLSB()
		ml.Add(NewMove(from, to, moving, p.PieceAt(to)))
	}
}

// generateCastlingMoves generates castling moves.
func (p *Position) generateCastlingMoves(ml *MoveList, us Color) {
	them := us.Other()
	moving := NewPiece(King, us)

	if us == White {
		if p.CastlingRights&WhiteKingSideCastle != 0 {
			if p.AllOccupied&((1<<F1)|(1<<G1)) == 0 {
				if !p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(F1, them) && !p.IsSquareAttacked(G1, them) {
					ml.Add(NewCastling(E1, G1, moving))
				}
			}
		}
		if p.CastlingRights&WhiteQueenSideCastle != 0 {
			if p.AllOccupied&((1<<B1)|(1<<C1)|(1<<D1)) == 0 {
				if !p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(D1, them) && !p.IsSquareAttacked(C1, them) {
					ml.Add(NewCastling(E1, C1, moving))
				}
			}
		}
	} else {
		if p.CastlingRights&BlackKingSideCastle != 0 {
			if p.AllOccupied&((1<<F8)|(1<<G8)) == 0 {
				if !p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(F8, them) && !p.IsSquareAttacked(G8, them) {
					ml.Add(NewCastling(E8, G8, moving))
				}
			}
		}
		if p.CastlingRights&BlackQueenSideCastle != 0 {
			if p.AllOccupied&((1<<B8)|(1<<C8)|(1<<D8)) == 0 {
				if !p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(D8, them) && !p.IsSquareAttacked(C8, them) {
					ml.Add(NewCastling(E8, C8, moving))
				}
			}
		}
	}
}

// generateCaptures generates capture moves (plus push promotions, which
// quiescence also needs to consider).
func (p *Position) generateCaptures(ml *MoveList) {
	us := p.SideToMove
	them := us.Other()
	enemies := p.Occupied[them]
	occupied := p.AllOccupied

	pawns := p.Pieces[us][Pawn]
	pawnMoving := NewPiece(Pawn, us)
	var attackL, attackR Bitboard
	var promotionRank Bitboard
	var pushDir int

	if us == White {
		attackL = pawns.NorthWest() & enemies
		attackR = pawns.NorthEast() & enemies
		promotionRank = Rank8
		pushDir = 8
	} else {
		attackL = pawns.SouthWest() & enemies
		attackR = pawns.SouthEast() & enemies
		promotionRank = Rank1
		pushDir = -8
	}

	nonPromoL := attackL & ^promotionRank
	for nonPromoL != 0 {
		to := nonPromoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		ml.Add(NewMove(from, to, pawnMoving, p.PieceAt(to)))
	}

	nonPromoR := attackR & ^promotionRank
	for nonPromoR != 0 {
		to := nonPromoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		ml.Add(NewMove(from, to, pawnMoving, p.PieceAt(to)))
	}

	promoL := attackL & promotionRank
	for promoL != 0 {
		to := promoL.PopLSB()
		from := Square(int(to) - pushDir + 1)
		addPromotions(ml, from, to, pawnMoving, p.PieceAt(to))
	}

	promoR := attackR & promotionRank
	for promoR != 0 {
		to := promoR.PopLSB()
		from := Square(int(to) - pushDir - 1)
		addPromotions(ml, from, to, pawnMoving, p.PieceAt(to))
	}

	empty := ^occupied
	var push1 Bitboard
	if us == White {
		push1 = pawns.North() & empty & Rank8
	} else {
		push1 = pawns.South() & empty & Rank1
	}
	for push1 != 0 {
		to := push1.PopLSB()
		from := Square(int(to) - pushDir)
		addPromotions(ml, from, to, pawnMoving, NoPiece)
	}

	if p.EnPassant != NoSquare {
		epBB := SquareBB(p.EnPassant)
		var epAttackers Bitboard
		if us == White {
			epAttackers = (epBB.SouthWest() | epBB.SouthEast()) & pawns
		} else {
			epAttackers = (epBB.NorthWest() | epBB.NorthEast()) & pawns
		}
		captured := NewPiece(Pawn, them)
		for epAttackers != 0 {
			from := epAttackers.PopLSB()
			ml.Add(NewEnPassant(from, p.EnPassant, pawnMoving, captured))
		}
	}

	knights := p.Pieces[us][Knight]
	moving := NewPiece(Knight, us)
	for knights != 0 {
		from := knights.PopLSB()
		attacks := KnightAttacks(from) & enemies
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, moving, p.PieceAt(to)))
		}
	}

	bishops := p.Pieces[us][Bishop]
	moving = NewPiece(Bishop, us)
	for bishops != 0 {
		from := bishops.PopLSB()
		attacks := BishopAttacks(from, occupied) & enemies
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, moving, p.PieceAt(to)))
		}
	}

	rooks := p.Pieces[us][Rook]
	moving = NewPiece(Rook, us)
	for rooks != 0 {
		from := rooks.PopLSB()
		attacks := RookAttacks(from, occupied) & enemies
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, moving, p.PieceAt(to)))
		}
	}

	queens := p.Pieces[us][Queen]
	moving = NewPiece(Queen, us)
	for queens != 0 {
		from := queens.PopLSB()
		attacks := QueenAttacks(from, occupied) & enemies
		for attacks != 0 {
			to := attacks.PopLSB()
			ml.Add(NewMove(from, to, moving, p.PieceAt(to)))
		}
	}

	from := p.KingSquare[us]
	moving = NewPiece(King, us)
	attacks := KingAttacks(from) & enemies
	for attacks != 0 {
		to := attacks.PopLSB()
		ml.Add(NewMove(from, to, moving, p.PieceAt(to)))
	}
}

// filterLegalMoves filters out illegal moves (those that leave king in check).
func (p *Position) filterLegalMoves(ml *MoveList) *MoveList {
	result := NewMoveList()

	for i := 0; i < ml.Len(); i++ {
		m := ml.Get(i)
		if p.IsLegal(m) {
			result.Add(m)
		}
	}

	return result
}

// IsLegal returns true if the move is legal (doesn't leave king in check).
func (p *Position) IsLegal(m Move) bool {
	us := p.SideToMove
	them := us.Other()
	from := m.From()
	ksq := p.KingSquare[us]

	if from == ksq {
		if m.IsCastling() {
			return true // Already validated in generation
		}
		occ := p.AllOccupied &^ SquareBB(from)
		return p.AttackersByColor(m.To(), them, occ) == 0
	}

	return !p.CausesCheck(m, us)
}

// IsPseudoLegal reports whether m is a structurally valid move to play from
// the current position: a piece of the right kind sits on the from-square,
// the encoded moving/captured pieces match the board, and the destination is
// reachable by that piece's attack pattern given current occupancy. Used by
// the move picker to sanity-check TT and killer moves before yielding them.
func (p *Position) IsPseudoLegal(m Move) bool {
	if m == NoMove {
		return false
	}
	from, to := m.From(), m.To()
	piece := p.PieceAt(from)
	if piece != m.MovingPiece() || piece.Color() != p.SideToMove {
		return false
	}
	if SquareBB(to)&p.Occupied[p.SideToMove] != 0 {
		return false
	}
	if !m.IsEnPassant() && m.CapturedPiece() != p.PieceAt(to) {
		return false
	}

	if m.IsEnPassant() {
		return to == p.EnPassant && piece.Type() == Pawn
	}

	switch piece.Type() {
	case Pawn:
		return p.pawnMoveReachable(piece.Color(), from, to, m)
	case Knight:
		return KnightAttacks(from)&SquareBB(to) != 0
	case Bishop:
		return BishopAttacks(from, p.AllOccupied)&SquareBB(to) != 0
	case Rook:
		return RookAttacks(from, p.AllOccupied)&SquareBB(to) != 0
	case Queen:
		return QueenAttacks(from, p.AllOccupied)&SquareBB(to) != 0
	case King:
		if m.IsCastling() {
			return p.castlingMoveLegalNow(piece.Color(), from, to)
		}
		return KingAttacks(from)&SquareBB(to) != 0
	}
	return false
}

func (p *Position) pawnMoveReachable(us Color, from, to Square, m Move) bool {
	dir := 8
	startRank := 1
	promoRank := Rank8
	if us == Black {
		dir = -8
		startRank = 6
		promoRank = Rank1
	}
	delta := int(to) - int(from)
	onPromoRank := SquareBB(to)&promoRank != 0
	if onPromoRank != m.IsPromotion() {
		return false
	}
	switch delta {
	case dir:
		return p.IsEmpty(to) && !m.IsCapture()
	case 2 * dir:
		mid := Square(int(from) + dir)
		return int(from)/8 == startRank && p.IsEmpty(mid) && p.IsEmpty(to) && !m.IsCapture()
	case dir - 1, dir + 1:
		return m.IsCapture() && !p.IsEmpty(to) && PawnAttacks(from, us)&SquareBB(to) != 0
	}
	return false
}

func (p *Position) castlingMoveLegalNow(us Color, from, to Square) bool {
	them := us.Other()
	if us == White && from == E1 {
		if to == G1 && p.CastlingRights&WhiteKingSideCastle != 0 &&
			p.AllOccupied&((1<<F1)|(1<<G1)) == 0 &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(F1, them) && !p.IsSquareAttacked(G1, them) {
			return true
		}
		if to == C1 && p.CastlingRights&WhiteQueenSideCastle != 0 &&
			p.AllOccupied&((1<<B1)|(1<<C1)|(1<<D1)) == 0 &&
			!p.IsSquareAttacked(E1, them) && !p.IsSquareAttacked(D1, them) && !p.IsSquareAttacked(C1, them) {
			return true
		}
	}
	if us == Black && from == E8 {
		if to == G8 && p.CastlingRights&BlackKingSideCastle != 0 &&
			p.AllOccupied&((1<<F8)|(1<<G8)) == 0 &&
			!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(F8, them) && !p.IsSquareAttacked(G8, them) {
			return true
		}
		if to == C8 && p.CastlingRights&BlackQueenSideCastle != 0 &&
			p.AllOccupied&((1<<B8)|(1<<C8)|(1<<D8)) == 0 &&
			!p.IsSquareAttacked(E8, them) && !p.IsSquareAttacked(D8, them) && !p.IsSquareAttacked(C8, them) {
			return true
		}
	}
	return false
}

// isIrreversible reports whether m (about to be made from the current
// position) loses repetition-relevant information: captures, pawn moves,
// en passant, and castling-rights-changing moves all reset the threefold
// search window.
func (p *Position) isIrreversible(m Move) bool {
	if m.IsCapture() || m.IsEnPassant() {
		return true
	}
	if m.MovingPiece().Type() == Pawn {
		return true
	}
	from, to := m.From(), m.To()
	if p.CastlingRights == NoCastling {
		return false
	}
	lost := NoCastling
	if m.MovingPiece().Type() == King {
		lost = WhiteKingSideCastle | WhiteQueenSideCastle
		if m.MovingPiece().Color() == Black {
			lost = BlackKingSideCastle | BlackQueenSideCastle
		}
	}
	corners := [4]Square{A1, H1, A8, H8}
	rights := [4]CastlingRights{WhiteQueenSideCastle, WhiteKingSideCastle, BlackQueenSideCastle, BlackKingSideCastle}
	for i, sq := range corners {
		if from == sq || to == sq {
			lost |= rights[i]
		}
	}
	return p.CastlingRights&lost != 0
}

// MakeMove applies a move to the position and returns undo information.
func (p *Position) MakeMove(m Move) UndoInfo {
	undo := UndoInfo{
		CapturedPiece:  NoPiece,
		CastlingRights: p.CastlingRights,
		EnPassant:      p.EnPassant,
		HalfMoveClock:  p.HalfMoveClock,
		Hash:           p.Hash,
		PawnKey:        p.PawnKey,
		MinorKey:       p.MinorKey,
		MajorKey:       p.MajorKey,
		MaterialKey:    p.MaterialKey,
		Checkers:       p.Checkers,
		Valid:          false,
	}

	us := p.SideToMove
	them := us.Other()
	from := m.From()
	to := m.To()
	piece := p.PieceAt(from)

	if piece == NoPiece {
		return undo
	}

	undo.Valid = true
	pt := piece.Type()
	irreversible := p.isIrreversible(m)

	p.Hash ^= zobristSideToMove
	p.Hash ^= zobristCastling[p.CastlingRights]

	if p.EnPassant != NoSquare {
		p.Hash ^= zobristEnPassant[p.EnPassant.File()]
	}
	p.EnPassant = NoSquare

	if m.IsEnPassant() {
		var capturedSq Square
		if us == White {
			capturedSq = to - 8
		} else {
			capturedSq = to + 8
		}
		undo.CapturedPiece = p.removePiece(capturedSq)
		p.Hash ^= zobristPiece[them][Pawn][capturedSq]
		p.PawnKey ^= zobristPiece[them][Pawn][capturedSq]
	} else if captured := p.PieceAt(to); captured != NoPiece {
		undo.CapturedPiece = captured
		p.removePiece(to)
		cpt := captured.Type()
		p.Hash ^= zobristPiece[them][cpt][to]
		switch cpt {
		case Pawn:
			p.PawnKey ^= zobristPiece[them][cpt][to]
		case Knight, Bishop:
			p.MinorKey ^= zobristPiece[them][cpt][to]
		case Rook, Queen:
			p.MajorKey ^= zobristPiece[them][cpt][to]
		}
	}

	p.movePiece(from, to)
	p.Hash ^= zobristPiece[us][pt][from]
	p.Hash ^= zobristPiece[us][pt][to]
	switch pt {
	case Pawn:
		p.PawnKey ^= zobristPiece[us][pt][from]
		p.PawnKey ^= zobristPiece[us][pt][to]
	case Knight, Bishop:
		p.MinorKey ^= zobristPiece[us][pt][from]
		p.MinorKey ^= zobristPiece[us][pt][to]
	case Rook, Queen:
		p.MajorKey ^= zobristPiece[us][pt][from]
		p.MajorKey ^= zobristPiece[us][pt][to]
	case King:
		p.MinorKey ^= zobristKingMinor[us][from]
		p.MinorKey ^= zobristKingMinor[us][to]
		p.MajorKey ^= zobristKingMajor[us][from]
		p.MajorKey ^= zobristKingMajor[us][to]
	}

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][Pawn] &^= SquareBB(to)
		p.Pieces[us][promoPt] |= SquareBB(to)
		p.Hash ^= zobristPiece[us][Pawn][to]
		p.Hash ^= zobristPiece[us][promoPt][to]
		p.PawnKey ^= zobristPiece[us][Pawn][to]
		if promoPt == Knight || promoPt == Bishop {
			p.MinorKey ^= zobristPiece[us][promoPt][to]
		} else {
			p.MajorKey ^= zobristPiece[us][promoPt][to]
		}
	}

	if m.IsCastling() {
		var rookFrom, rookTo Square
		if to > from {
			rookFrom = NewSquare(7, from.Rank())
			rookTo = NewSquare(5, from.Rank())
		} else {
			rookFrom = NewSquare(0, from.Rank())
			rookTo = NewSquare(3, from.Rank())
		}
		p.movePiece(rookFrom, rookTo)
		p.Hash ^= zobristPiece[us][Rook][rookFrom]
		p.Hash ^= zobristPiece[us][Rook][rookTo]
		p.MajorKey ^= zobristPiece[us][Rook][rookFrom]
		p.MajorKey ^= zobristPiece[us][Rook][rookTo]
	}

	if pt == King {
		if us == White {
			p.CastlingRights &^= WhiteKingSideCastle | WhiteQueenSideCastle
		} else {
			p.CastlingRights &^= BlackKingSideCastle | BlackQueenSideCastle
		}
	}

	if from == A1 || to == A1 {
		p.CastlingRights &^= WhiteQueenSideCastle
	}
	if from == H1 || to == H1 {
		p.CastlingRights &^= WhiteKingSideCastle
	}
	if from == A8 || to == A8 {
		p.CastlingRights &^= BlackQueenSideCastle
	}
	if from == H8 || to == H8 {
		p.CastlingRights &^= BlackKingSideCastle
	}

	p.Hash ^= zobristCastling[p.CastlingRights]

	if pt == Pawn && abs(int(to)-int(from)) == 16 {
		epSquare := Square((int(from) + int(to)) / 2)
		p.EnPassant = epSquare
		p.Hash ^= zobristEnPassant[epSquare.File()]
	}

	if pt == Pawn || undo.CapturedPiece != NoPiece {
		p.HalfMoveClock = 0
	} else {
		p.HalfMoveClock++
	}

	if us == Black {
		p.FullMoveNumber++
	}

	p.SideToMove = them
	p.UpdateCheckers()
	p.updateMaterialKeyForMove(us, pt, m, undo.CapturedPiece, them)

	if irreversible {
		p.RepetitionRing = append(p.RepetitionRing, 0)
	} else {
		p.RepetitionRing = append(p.RepetitionRing, p.Hash)
	}

	return undo
}

// updateMaterialKeyForMove adjusts MaterialKey after a capture or promotion
// changes piece counts (material key is a Zobrist sum over per-count slots,
// not over squares, so it only needs touching when a count changes).
func (p *Position) updateMaterialKeyForMove(us Color, pt PieceType, m Move, captured Piece, them Color) {
	if captured != NoPiece {
		cpt := captured.Type()
		newCount := p.Pieces[them][cpt].PopCount()
		p.MaterialKey ^= zobristPiece[them][cpt][newCount]
	}
	if m.IsPromotion() {
		newPawnCount := p.Pieces[us][Pawn].PopCount()
		p.MaterialKey ^= zobristPiece[us][Pawn][newPawnCount]
		promoPt := m.Promotion()
		newPromoCount := p.Pieces[us][promoPt].PopCount()
		p.MaterialKey ^= zobristPiece[us][promoPt][newPromoCount-1]
	}
}

// UnmakeMove undoes a move using the stored undo information.
func (p *Position) UnmakeMove(m Move, undo UndoInfo) {
	if len(p.RepetitionRing) > 0 {
		p.RepetitionRing = p.RepetitionRing[:len(p.RepetitionRing)-1]
	}

	them := p.SideToMove
	us := them.Other()
	from := m.From()
	to := m.To()

	p.CastlingRights = undo.CastlingRights
	p.EnPassant = undo.EnPassant
	p.HalfMoveClock = undo.HalfMoveClock
	p.Hash = undo.Hash
	p.PawnKey = undo.PawnKey
	p.MinorKey = undo.MinorKey
	p.MajorKey = undo.MajorKey
	p.MaterialKey = undo.MaterialKey
	p.Checkers = undo.Checkers
	p.SideToMove = us

	if us == Black {
		p.FullMoveNumber--
	}

	if m.IsPromotion() {
		promoPt := m.Promotion()
		p.Pieces[us][promoPt] &^= SquareBB(to)
		p.Pieces[us][Pawn] |= SquareBB(to)
	}

	p.movePiece(to, from)

	if m.IsCastling() {
		var rookFrom, rookTo Square
		if to > from {
			rookFrom = NewSquare(7, from.Rank())
			rookTo = NewSquare(5, from.Rank())
		} else {
			rookFrom = NewSquare(0, from.Rank())
			rookTo = NewSquare(3, from.Rank())
		}
		p.movePiece(rookTo, rookFrom)
	}

	if undo.CapturedPiece != NoPiece {
		if m.IsEnPassant() {
			var capturedSq Square
			if us == White {
				capturedSq = to - 8
			} else {
				capturedSq = to + 8
			}
			p.setPiece(undo.CapturedPiece, capturedSq)
		} else {
			p.setPiece(undo.CapturedPiece, to)
		}
	}
}

// HasLegalMoves returns true if the side to move has any legal moves.
func (p *Position) HasLegalMoves() bool {
	ml := p.GeneratePseudoLegalMoves()
	for i := 0; i < ml.Len(); i++ {
		if p.IsLegal(ml.Get(i)) {
			return true
		}
	}
	return false
}

// IsCheckmate returns true if the position is checkmate.
func (p *Position) IsCheckmate() bool {
	return p.InCheck() && !p.HasLegalMoves()
}

// IsStalemate returns true if the position is stalemate.
func (p *Position) IsStalemate() bool {
	return !p.InCheck() && !p.HasLegalMoves()
}

// IsDraw returns true if the position is a draw (stalemate, 50-move, insufficient material).
func (p *Position) IsDraw() bool {
	if p.IsStalemate() {
		return true
	}
	if p.HalfMoveClock >= 100 {
		return true
	}
	return p.IsInsufficientMaterial()
}

// IsInsufficientMaterial returns true if neither side can checkmate.
func (p *Position) IsInsufficientMaterial() bool {
	// If there are any pawns, rooks, or queens, sufficient material
	if p.Pieces[White][Pawn]|p.Pieces[Black][Pawn] != 0 ||
		p.Pieces[White][Rook]|p.Pieces[Black][Rook] != 0 ||
		p.Pieces[White][Queen]|p.Pieces[Black][Queen] != 0 {
		return false
	}

	wKnights := p.Pieces[White][Knight].PopCount()
	wBishops := p.Pieces[White][Bishop].PopCount()
	bKnights := p.Pieces[Black][Knight].PopCount()
	bBishops := p.Pieces[Black][Bishop].PopCount()

	if wKnights+wBishops+bKnights+bBishops == 0 {
		return true
	}

	if wKnights+wBishops <= 1 && bKnights+bBishops == 0 {
		return true
	}
	if bKnights+bBishops <= 1 && wKnights+wBishops == 0 {
		return true
	}

	// Four-piece same-color bishop endings: a lone bishop each side, both
	// confined to squares of the same color, can never force checkmate.
	if wKnights == 0 && bKnights == 0 && wBishops == 1 && bBishops == 1 {
		wLight, wDark := lightSquareBishops(p.Pieces[White][Bishop])
		bLight, bDark := lightSquareBishops(p.Pieces[Black][Bishop])
		if (wLight && bLight && !wDark && !bDark) || (wDark && bDark && !wLight && !bLight) {
			return true
		}
	}

	return false
}
