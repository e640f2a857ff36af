// Package grammar matches normalized utterance tokens against move
// templates and produces a partial move specification for the resolver.
//
// Grammar, most specific first:
//
//	<piece> at <square> to <square>
//	<piece> takes <piece> [at <square>] | <piece> takes at <square> | <piece> takes
//	<piece> to <square>
//	castle [king side | queen side]
//	promote to <piece>
//	<square> [to] <square> | <square>
//
// Pronoun forms ("it", "that piece") stand in for a piece word and take
// their type from Context.LastMovedPiece.
package grammar

import (
	"github.com/park285/voicechess/internal/domain"
	"github.com/park285/voicechess/internal/normalize"
)

// Result is the outcome of one parse attempt: a spec plus the token span it
// consumed, or Matched=false for the normal NoMatch branch.
type Result struct {
	Spec    domain.PartialMoveSpec
	Matched bool
	Start   int
	Span    int
}

type template func(toks normalize.Tokens, at int, ctx domain.Context) (domain.PartialMoveSpec, int)

// ParseMove scans the tokens with every template in priority order. Earlier
// templates win outright; within one template the longest consumed span
// wins. The same tokens and context always produce the same result.
func ParseMove(toks normalize.Tokens, ctx domain.Context) Result {
	templates := []template{
		matchPieceFromTo,
		matchCapture,
		matchPieceTo,
		matchCastle,
		matchPromotion,
		matchSquareMove,
	}
	for _, tpl := range templates {
		best := Result{}
		for start := 0; start < len(toks); start++ {
			spec, span := tpl(toks, start, ctx)
			if span > best.Span {
				best = Result{Spec: spec, Matched: true, Start: start, Span: span}
			}
		}
		if best.Matched {
			return best
		}
	}
	return Result{}
}

// pieceAt reads a piece word or a pronoun standing in for the last moved
// piece. Pronouns with no context yield no match.
func pieceAt(toks normalize.Tokens, i int, ctx domain.Context) (domain.PieceType, int) {
	if i >= len(toks) {
		return domain.PieceNone, 0
	}
	if pt, ok := domain.ParsePiece(toks[i]); ok {
		return pt, 1
	}
	switch toks[i] {
	case "it":
		if ctx.LastMovedPiece != domain.PieceNone {
			return ctx.LastMovedPiece, 1
		}
	case "that", "this":
		if i+1 < len(toks) && toks[i+1] == "piece" && ctx.LastMovedPiece != domain.PieceNone {
			return ctx.LastMovedPiece, 2
		}
	}
	return domain.PieceNone, 0
}

func squareAt(toks normalize.Tokens, i int) (domain.Square, bool) {
	if i >= len(toks) {
		return "", false
	}
	return domain.ParseSquare(toks[i])
}

func wordAt(toks normalize.Tokens, i int, word string) bool {
	return i < len(toks) && toks[i] == word
}

// <piece> at <square> to <square>. "from" is accepted in place of "at".
func matchPieceFromTo(toks normalize.Tokens, at int, ctx domain.Context) (domain.PartialMoveSpec, int) {
	piece, n := pieceAt(toks, at, ctx)
	if n == 0 {
		return domain.PartialMoveSpec{}, 0
	}
	i := at + n
	if !wordAt(toks, i, "at") && !wordAt(toks, i, "from") {
		return domain.PartialMoveSpec{}, 0
	}
	from, ok := squareAt(toks, i+1)
	if !ok {
		return domain.PartialMoveSpec{}, 0
	}
	if !wordAt(toks, i+2, "to") {
		return domain.PartialMoveSpec{}, 0
	}
	target, ok := squareAt(toks, i+3)
	if !ok {
		return domain.PartialMoveSpec{}, 0
	}
	return domain.PartialMoveSpec{
		Piece:   piece,
		From:    from,
		Target:  target,
		Capture: domain.CaptureUnspecified,
	}, i + 4 - at
}

// <piece> takes <piece> [at <square>] / <piece> takes at <square> /
// <piece> takes. Target stays open unless spoken; the resolver narrows it.
func matchCapture(toks normalize.Tokens, at int, ctx domain.Context) (domain.PartialMoveSpec, int) {
	piece, n := pieceAt(toks, at, ctx)
	if n == 0 {
		return domain.PartialMoveSpec{}, 0
	}
	i := at + n
	if !wordAt(toks, i, "takes") {
		return domain.PartialMoveSpec{}, 0
	}
	spec := domain.PartialMoveSpec{Piece: piece, Capture: domain.CaptureRequired}
	i++

	// <piece> takes at <square>
	if wordAt(toks, i, "at") {
		if target, ok := squareAt(toks, i+1); ok {
			spec.Target = target
			return spec, i + 2 - at
		}
		return domain.PartialMoveSpec{}, 0
	}

	// victim piece, optionally located
	if victim, vn := pieceAt(toks, i, ctx); vn == 1 {
		spec.Victim = victim
		i++
		if wordAt(toks, i, "at") {
			if target, ok := squareAt(toks, i+1); ok {
				spec.Target = target
				i += 2
			}
		}
		return spec, i - at
	}

	// bare "<piece> takes"
	return spec, i - at
}

// <piece> to <square>
func matchPieceTo(toks normalize.Tokens, at int, ctx domain.Context) (domain.PartialMoveSpec, int) {
	piece, n := pieceAt(toks, at, ctx)
	if n == 0 {
		return domain.PartialMoveSpec{}, 0
	}
	i := at + n
	if !wordAt(toks, i, "to") {
		return domain.PartialMoveSpec{}, 0
	}
	target, ok := squareAt(toks, i+1)
	if !ok {
		return domain.PartialMoveSpec{}, 0
	}
	return domain.PartialMoveSpec{Piece: piece, Target: target}, i + 2 - at
}

// castle [king side | queen side]
func matchCastle(toks normalize.Tokens, at int, _ domain.Context) (domain.PartialMoveSpec, int) {
	if !wordAt(toks, at, "castle") {
		return domain.PartialMoveSpec{}, 0
	}
	spec := domain.PartialMoveSpec{Castle: domain.CastleAny}
	if wordAt(toks, at+1, "king") && wordAt(toks, at+2, "side") {
		spec.Castle = domain.CastleKingside
		return spec, 3
	}
	if wordAt(toks, at+1, "queen") && wordAt(toks, at+2, "side") {
		spec.Castle = domain.CastleQueenside
		return spec, 3
	}
	return spec, 1
}

// promote to <piece>. The pawn is implied; the resolver requires a legal
// promotion to exist, covering the "continuation" phrasing.
func matchPromotion(toks normalize.Tokens, at int, _ domain.Context) (domain.PartialMoveSpec, int) {
	if !wordAt(toks, at, "promote") || !wordAt(toks, at+1, "to") {
		return domain.PartialMoveSpec{}, 0
	}
	piece, ok := domain.ParsePiece(tokenOr(toks, at+2))
	if !ok {
		return domain.PartialMoveSpec{}, 0
	}
	return domain.PartialMoveSpec{Piece: domain.Pawn, Promotion: piece}, 3
}

// <square> [to] <square> as a from/to move, or a bare <square> shorthand for
// a pawn move.
func matchSquareMove(toks normalize.Tokens, at int, _ domain.Context) (domain.PartialMoveSpec, int) {
	from, ok := squareAt(toks, at)
	if !ok {
		return domain.PartialMoveSpec{}, 0
	}
	i := at + 1
	if wordAt(toks, i, "to") {
		i++
	}
	if target, ok := squareAt(toks, i); ok {
		return domain.PartialMoveSpec{From: from, Target: target}, i + 1 - at
	}
	return domain.PartialMoveSpec{Piece: domain.Pawn, Target: from}, 1
}

func tokenOr(toks normalize.Tokens, i int) string {
	if i < len(toks) {
		return toks[i]
	}
	return ""
}
