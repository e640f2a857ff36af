// Package resolve reconciles a partial move specification against the legal
// move set supplied by the rules engine for the current position.
package resolve

import "github.com/park285/voicechess/internal/domain"

// Kind discriminates resolution outcomes. All outcomes are values; an
// illegal or ambiguous request is a normal branch, not an error.
type Kind int

const (
	NoLegalMatch Kind = iota
	Resolved
	Ambiguous
)

// Resolution is the outcome of one resolve call. Candidates is populated
// for Ambiguous so the caller can phrase a clarification.
type Resolution struct {
	Kind       Kind
	Move       *domain.LegalMove
	Candidates []domain.LegalMove
}

// TieBreak picks one move out of several equally valid candidates, or
// declines. Policies are injectable so the default can be swapped without
// touching the filtering logic.
type TieBreak func(ctx domain.Context, candidates []domain.LegalMove) (*domain.LegalMove, bool)

// SquareContinuity is the default tie-break: prefer the candidate that moves
// the piece which arrived last turn (its departure equals the last
// destination). It declines whenever that preference is not unique.
func SquareContinuity(ctx domain.Context, candidates []domain.LegalMove) (*domain.LegalMove, bool) {
	if ctx.LastMoveTo == "" {
		return nil, false
	}
	var pick *domain.LegalMove
	for i := range candidates {
		if candidates[i].From != ctx.LastMoveTo {
			continue
		}
		if pick != nil {
			return nil, false
		}
		pick = &candidates[i]
	}
	return pick, pick != nil
}

// Resolve filters legalMoves by every constraint present in spec. Absent
// constraints do not filter. Re-resolving the same spec against the same
// move set always returns the same outcome.
func Resolve(spec domain.PartialMoveSpec, legalMoves []domain.LegalMove, ctx domain.Context, tieBreak TieBreak) Resolution {
	candidates := make([]domain.LegalMove, 0, len(legalMoves))
	for _, mv := range legalMoves {
		if matches(spec, mv) {
			candidates = append(candidates, mv)
		}
	}

	switch len(candidates) {
	case 0:
		return Resolution{Kind: NoLegalMatch}
	case 1:
		return Resolution{Kind: Resolved, Move: &candidates[0]}
	}

	if tieBreak != nil {
		if mv, ok := tieBreak(ctx, candidates); ok {
			return Resolution{Kind: Resolved, Move: mv, Candidates: candidates}
		}
	}
	return Resolution{Kind: Ambiguous, Candidates: candidates}
}

func matches(spec domain.PartialMoveSpec, mv domain.LegalMove) bool {
	if spec.Castle != domain.CastleNone {
		switch spec.Castle {
		case domain.CastleAny:
			if mv.Castle == domain.CastleNone {
				return false
			}
		default:
			if mv.Castle != spec.Castle {
				return false
			}
		}
	} else if spec.Piece != domain.PieceNone && mv.Piece != spec.Piece {
		return false
	}
	if spec.From != "" && mv.From != spec.From {
		return false
	}
	if spec.FromFile != 0 && mv.From.File() != spec.FromFile {
		return false
	}
	if spec.FromRank != 0 && mv.From.Rank() != spec.FromRank {
		return false
	}
	if spec.Target != "" && mv.To != spec.Target {
		return false
	}
	switch spec.Capture {
	case domain.CaptureRequired:
		if !mv.Capture {
			return false
		}
	case domain.CaptureForbidden:
		if mv.Capture {
			return false
		}
	}
	// The captured piece filters only when the supplier reported it.
	if spec.Victim != domain.PieceNone && mv.Victim != domain.PieceNone && mv.Victim != spec.Victim {
		return false
	}
	if spec.Promotion != domain.PieceNone && mv.Promotion != spec.Promotion {
		return false
	}
	return true
}
