// Package rules adapts the chess rules engine to the interpreter's view of
// a position: the legal-move set and the conversation context. The set is
// rebuilt from the live position on every call, positions change each ply
// so nothing here is cached.
package rules

import (
	"strings"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/voicechess/internal/domain"
)

func pieceType(pt nchess.PieceType) domain.PieceType {
	switch pt {
	case nchess.Pawn:
		return domain.Pawn
	case nchess.Knight:
		return domain.Knight
	case nchess.Bishop:
		return domain.Bishop
	case nchess.Rook:
		return domain.Rook
	case nchess.Queen:
		return domain.Queen
	case nchess.King:
		return domain.King
	default:
		return domain.PieceNone
	}
}

// LegalMoves converts every valid move of the position. Victim is filled
// from the board so spoken captures like "knight takes pawn" can filter on
// the captured piece.
func LegalMoves(pos *nchess.Position) []domain.LegalMove {
	valid := pos.ValidMoves()
	board := pos.Board()
	san := nchess.AlgebraicNotation{}
	uci := nchess.UCINotation{}

	out := make([]domain.LegalMove, 0, len(valid))
	for i := range valid {
		mv := &valid[i]

		lm := domain.LegalMove{
			Piece:     pieceType(board.Piece(mv.S1()).Type()),
			From:      domain.Square(mv.S1().String()),
			To:        domain.Square(mv.S2().String()),
			Promotion: pieceType(mv.Promo()),
			SAN:       san.Encode(pos, mv),
			UCI:       uci.Encode(pos, mv),
		}

		switch {
		case mv.HasTag(nchess.KingSideCastle):
			lm.Castle = domain.CastleKingside
		case mv.HasTag(nchess.QueenSideCastle):
			lm.Castle = domain.CastleQueenside
		}

		switch {
		case mv.HasTag(nchess.EnPassant):
			lm.Capture = true
			lm.Victim = domain.Pawn
		case mv.HasTag(nchess.Capture):
			lm.Capture = true
			lm.Victim = pieceType(board.Piece(mv.S2()).Type())
		}

		out = append(out, lm)
	}
	return out
}

// Snapshot derives the interpreter input from the live game: the fresh
// legal-move set and the context for pronoun resolution.
func Snapshot(game *nchess.Game) ([]domain.LegalMove, domain.Context) {
	pos := game.Position()
	ctx := domain.Context{SideToMove: domain.White}
	if pos.Turn() == nchess.Black {
		ctx.SideToMove = domain.Black
	}

	moves := game.Moves()
	positions := game.Positions()
	if n := len(moves); n > 0 && n < len(positions) {
		last := moves[n-1]
		before := positions[n-1]
		ctx.LastMovedPiece = pieceType(before.Board().Piece(last.S1()).Type())
		ctx.LastMoveTo = domain.Square(last.S2().String())
	}

	return LegalMoves(pos), ctx
}

// Apply plays a resolved move on the game. The move came out of the
// position's own legal set, so a push failure means the game advanced
// between snapshot and apply.
func Apply(game *nchess.Game, mv domain.LegalMove) error {
	return game.PushNotationMove(mv.UCI, nchess.UCINotation{}, nil)
}

// FEN is the position string handed to the remote assistant.
func FEN(game *nchess.Game) string {
	return strings.TrimSpace(game.FEN())
}
