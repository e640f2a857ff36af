package rules

import (
	"testing"

	nchess "github.com/corentings/chess/v2"

	"github.com/park285/voicechess/internal/domain"
)

func findUCI(t *testing.T, moves []domain.LegalMove, uci string) domain.LegalMove {
	t.Helper()
	for _, mv := range moves {
		if mv.UCI == uci {
			return mv
		}
	}
	t.Fatalf("move %s not in legal set", uci)
	return domain.LegalMove{}
}

func TestLegalMovesStartPosition(t *testing.T) {
	game := nchess.NewGame()
	moves := LegalMoves(game.Position())
	if len(moves) != 20 {
		t.Fatalf("start position has %d legal moves, want 20", len(moves))
	}

	e4 := findUCI(t, moves, "e2e4")
	if e4.Piece != domain.Pawn || e4.From != "e2" || e4.To != "e4" || e4.Capture {
		t.Fatalf("e2e4 = %+v", e4)
	}
	nf3 := findUCI(t, moves, "g1f3")
	if nf3.Piece != domain.Knight || nf3.SAN != "Nf3" {
		t.Fatalf("g1f3 = %+v", nf3)
	}
}

func TestLegalMovesCaptureVictim(t *testing.T) {
	game := nchess.NewGame()
	for _, mv := range []string{"e2e4", "d7d5"} {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			t.Fatalf("push %s: %v", mv, err)
		}
	}

	moves := LegalMoves(game.Position())
	exd5 := findUCI(t, moves, "e4d5")
	if !exd5.Capture || exd5.Victim != domain.Pawn {
		t.Fatalf("e4d5 = %+v", exd5)
	}
}

func TestLegalMovesCastle(t *testing.T) {
	game := nchess.NewGame()
	for _, mv := range []string{"e2e4", "e7e5", "g1f3", "b8c6", "f1c4", "g8f6"} {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			t.Fatalf("push %s: %v", mv, err)
		}
	}

	moves := LegalMoves(game.Position())
	oo := findUCI(t, moves, "e1g1")
	if oo.Castle != domain.CastleKingside || oo.Piece != domain.King {
		t.Fatalf("e1g1 = %+v", oo)
	}
}

func TestSnapshotContext(t *testing.T) {
	game := nchess.NewGame()
	legal, ctx := Snapshot(game)
	if len(legal) != 20 {
		t.Fatalf("legal = %d", len(legal))
	}
	if ctx.SideToMove != domain.White || ctx.LastMovedPiece != domain.PieceNone {
		t.Fatalf("ctx = %+v", ctx)
	}

	if err := game.PushNotationMove("g1f3", nchess.UCINotation{}, nil); err != nil {
		t.Fatalf("push: %v", err)
	}
	_, ctx = Snapshot(game)
	if ctx.SideToMove != domain.Black {
		t.Fatalf("ctx = %+v", ctx)
	}
	if ctx.LastMovedPiece != domain.Knight || ctx.LastMoveTo != "f3" {
		t.Fatalf("ctx = %+v", ctx)
	}
}

func TestApplyResolvedMove(t *testing.T) {
	game := nchess.NewGame()
	moves := LegalMoves(game.Position())
	if err := Apply(game, findUCI(t, moves, "e2e4")); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if game.Position().Turn() != nchess.Black {
		t.Fatal("move not applied")
	}
}

func TestPromotionMove(t *testing.T) {
	fen, err := nchess.FEN("8/P6k/8/8/8/8/7K/8 w - - 0 1")
	if err != nil {
		t.Fatalf("fen: %v", err)
	}
	game := nchess.NewGame(fen)
	moves := LegalMoves(game.Position())
	promo := findUCI(t, moves, "a7a8q")
	if promo.Promotion != domain.Queen || promo.Piece != domain.Pawn {
		t.Fatalf("a7a8q = %+v", promo)
	}
}
