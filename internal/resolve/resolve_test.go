package resolve

import (
	"testing"

	"github.com/park285/voicechess/internal/domain"
)

func mv(piece domain.PieceType, from, to domain.Square, opts ...func(*domain.LegalMove)) domain.LegalMove {
	m := domain.LegalMove{Piece: piece, From: from, To: to, UCI: string(from) + string(to)}
	for _, o := range opts {
		o(&m)
	}
	return m
}

func capture(victim domain.PieceType) func(*domain.LegalMove) {
	return func(m *domain.LegalMove) { m.Capture = true; m.Victim = victim }
}

func castle(side domain.CastleSide) func(*domain.LegalMove) {
	return func(m *domain.LegalMove) { m.Castle = side }
}

func TestResolveExactDeparture(t *testing.T) {
	legal := []domain.LegalMove{
		mv(domain.Pawn, "e2", "e4"),
		mv(domain.Pawn, "e2", "e3"),
		mv(domain.Knight, "g1", "f3"),
	}
	spec := domain.PartialMoveSpec{From: "e2", Target: "e4"}
	r := Resolve(spec, legal, domain.Context{}, SquareContinuity)
	if r.Kind != Resolved || r.Move.UCI != "e2e4" {
		t.Fatalf("got %+v", r)
	}
}

func TestResolveSingleKnightCapture(t *testing.T) {
	legal := []domain.LegalMove{
		mv(domain.Knight, "f3", "e5", capture(domain.Pawn)),
		mv(domain.Knight, "f3", "g5"),
		mv(domain.Bishop, "c4", "e5", capture(domain.Pawn)),
	}
	spec := domain.PartialMoveSpec{
		Piece:   domain.Knight,
		Capture: domain.CaptureRequired,
		Victim:  domain.Pawn,
		Target:  "e5",
	}
	r := Resolve(spec, legal, domain.Context{}, SquareContinuity)
	if r.Kind != Resolved || r.Move.UCI != "f3e5" {
		t.Fatalf("got %+v", r)
	}
}

func TestResolveTwoKnightCapturesAmbiguous(t *testing.T) {
	legal := []domain.LegalMove{
		mv(domain.Knight, "f3", "e5", capture(domain.Pawn)),
		mv(domain.Knight, "c4", "e5", capture(domain.Pawn)),
	}
	spec := domain.PartialMoveSpec{
		Piece:   domain.Knight,
		Capture: domain.CaptureRequired,
		Victim:  domain.Pawn,
		Target:  "e5",
	}
	r := Resolve(spec, legal, domain.Context{}, SquareContinuity)
	if r.Kind != Ambiguous || len(r.Candidates) != 2 {
		t.Fatalf("got %+v", r)
	}
}

func TestResolveTwoRooksAmbiguous(t *testing.T) {
	legal := []domain.LegalMove{
		mv(domain.Rook, "a1", "a5"),
		mv(domain.Rook, "a8", "a5"),
	}
	spec := domain.PartialMoveSpec{Piece: domain.Rook, Target: "a5"}
	r := Resolve(spec, legal, domain.Context{}, SquareContinuity)
	if r.Kind != Ambiguous || len(r.Candidates) != 2 {
		t.Fatalf("got %+v", r)
	}
}

func TestResolveCastleOnlyKingsideLegal(t *testing.T) {
	legal := []domain.LegalMove{
		mv(domain.King, "e1", "g1", castle(domain.CastleKingside)),
		mv(domain.King, "e1", "f1"),
	}
	spec := domain.PartialMoveSpec{Castle: domain.CastleAny}
	r := Resolve(spec, legal, domain.Context{}, SquareContinuity)
	if r.Kind != Resolved || r.Move.Castle != domain.CastleKingside {
		t.Fatalf("got %+v", r)
	}
}

func TestResolveCastleBothSidesDeterministic(t *testing.T) {
	legal := []domain.LegalMove{
		mv(domain.King, "e1", "g1", castle(domain.CastleKingside)),
		mv(domain.King, "e1", "c1", castle(domain.CastleQueenside)),
	}
	spec := domain.PartialMoveSpec{Castle: domain.CastleAny}
	first := Resolve(spec, legal, domain.Context{}, SquareContinuity)
	if first.Kind != Ambiguous {
		t.Fatalf("got %+v", first)
	}
	for i := 0; i < 5; i++ {
		r := Resolve(spec, legal, domain.Context{}, SquareContinuity)
		if r.Kind != first.Kind || len(r.Candidates) != len(first.Candidates) {
			t.Fatalf("resolution not deterministic: %+v vs %+v", r, first)
		}
	}
}

func TestResolveCastleSideNamed(t *testing.T) {
	legal := []domain.LegalMove{
		mv(domain.King, "e1", "g1", castle(domain.CastleKingside)),
		mv(domain.King, "e1", "c1", castle(domain.CastleQueenside)),
	}
	spec := domain.PartialMoveSpec{Castle: domain.CastleQueenside}
	r := Resolve(spec, legal, domain.Context{}, SquareContinuity)
	if r.Kind != Resolved || r.Move.To != "c1" {
		t.Fatalf("got %+v", r)
	}
}

func TestResolveIllegalMove(t *testing.T) {
	legal := []domain.LegalMove{mv(domain.Pawn, "e2", "e4")}
	spec := domain.PartialMoveSpec{Piece: domain.Queen, Target: "h5"}
	r := Resolve(spec, legal, domain.Context{}, SquareContinuity)
	if r.Kind != NoLegalMatch {
		t.Fatalf("got %+v", r)
	}
}

func TestSquareContinuityBreaksTie(t *testing.T) {
	legal := []domain.LegalMove{
		mv(domain.Knight, "f3", "d4"),
		mv(domain.Knight, "b3", "d4"),
	}
	ctx := domain.Context{LastMovedPiece: domain.Knight, LastMoveTo: "f3"}
	spec := domain.PartialMoveSpec{Piece: domain.Knight, Target: "d4"}
	r := Resolve(spec, legal, ctx, SquareContinuity)
	if r.Kind != Resolved || r.Move.From != "f3" {
		t.Fatalf("got %+v", r)
	}
}

func TestNilTieBreakYieldsAmbiguous(t *testing.T) {
	legal := []domain.LegalMove{
		mv(domain.Knight, "f3", "d4"),
		mv(domain.Knight, "b3", "d4"),
	}
	ctx := domain.Context{LastMoveTo: "f3"}
	spec := domain.PartialMoveSpec{Piece: domain.Knight, Target: "d4"}
	if r := Resolve(spec, legal, ctx, nil); r.Kind != Ambiguous {
		t.Fatalf("got %+v", r)
	}
}

func TestResolveIdempotent(t *testing.T) {
	legal := []domain.LegalMove{
		mv(domain.Rook, "a1", "a5"),
		mv(domain.Rook, "a8", "a5"),
		mv(domain.Pawn, "e2", "e4"),
	}
	spec := domain.PartialMoveSpec{Piece: domain.Rook, Target: "a5"}
	first := Resolve(spec, legal, domain.Context{}, SquareContinuity)
	for i := 0; i < 10; i++ {
		r := Resolve(spec, legal, domain.Context{}, SquareContinuity)
		if r.Kind != first.Kind || len(r.Candidates) != len(first.Candidates) {
			t.Fatalf("resolution changed across runs")
		}
	}
}
