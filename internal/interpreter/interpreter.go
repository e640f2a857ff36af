// Package interpreter wires the utterance pipeline together: normalize,
// parse, resolve, classify, and when everything declines, escalate through
// the offline intent tier and the remote assistant. Every input produces
// exactly one Action.
package interpreter

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/park285/voicechess/internal/assist"
	"github.com/park285/voicechess/internal/command"
	"github.com/park285/voicechess/internal/domain"
	"github.com/park285/voicechess/internal/grammar"
	"github.com/park285/voicechess/internal/intent"
	"github.com/park285/voicechess/internal/msgcat"
	"github.com/park285/voicechess/internal/normalize"
	"github.com/park285/voicechess/internal/obslog"
	"github.com/park285/voicechess/internal/resolve"
	"github.com/park285/voicechess/internal/speechtext"
)

// AssistantClient is the remote tier. *assist.Client satisfies it; tests
// substitute fakes.
type AssistantClient interface {
	Ask(ctx context.Context, req domain.AssistantRequest) (domain.AssistantResponse, error)
}

// Input is one interpretation request. LegalMoves and Context are read-only
// snapshots taken by the caller at dispatch time.
type Input struct {
	Text       string
	Confidence float64
	FEN        string
	LegalMoves []domain.LegalMove
	Context    domain.Context
	Assistant  domain.AssistantConfig
}

type Interpreter struct {
	messages *msgcat.Catalog
	intent   *intent.Classifier
	remote   AssistantClient

	useLocalIntent bool
	remoteEnabled  bool
	tieBreak       resolve.TieBreak
	newID          func() string
}

type Option func(*Interpreter)

// WithLocalIntent enables the offline tier. A nil classifier leaves the
// tier skipped, which is how a missing catalog file degrades.
func WithLocalIntent(c *intent.Classifier) Option {
	return func(it *Interpreter) {
		it.intent = c
		it.useLocalIntent = c != nil
	}
}

// WithRemoteAssistant enables the remote tier.
func WithRemoteAssistant(client AssistantClient) Option {
	return func(it *Interpreter) {
		it.remote = client
		it.remoteEnabled = client != nil
	}
}

// WithTieBreak replaces the default square-continuity ambiguity policy.
func WithTieBreak(tb resolve.TieBreak) Option {
	return func(it *Interpreter) { it.tieBreak = tb }
}

func New(messages *msgcat.Catalog, opts ...Option) *Interpreter {
	it := &Interpreter{
		messages: messages,
		tieBreak: resolve.SquareContinuity,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(it)
	}
	return it
}

// Interpret runs the whole pipeline for one utterance. It blocks on the
// fallback tiers; use Dispatcher to keep it off an event loop.
func (it *Interpreter) Interpret(ctx context.Context, in Input) domain.Action {
	toks := normalize.Normalize(in.Text)
	if len(toks) == 0 {
		return domain.UnrecognizedAction(it.messages.Text("feedback.unrecognized"))
	}

	if parsed := grammar.ParseMove(toks, in.Context); parsed.Matched {
		return it.resolveMove(parsed.Spec, toks, in)
	}

	if cmd, ok := command.Classify(toks); ok {
		return domain.CommandAction(cmd)
	}

	return it.fallback(ctx, in)
}

// resolveMove turns a parsed spec into an Action.
func (it *Interpreter) resolveMove(spec domain.PartialMoveSpec, toks normalize.Tokens, in Input) domain.Action {
	res := resolve.Resolve(spec, in.LegalMoves, in.Context, it.tieBreak)
	switch res.Kind {
	case resolve.Resolved:
		return domain.MoveAction(*res.Move)
	case resolve.Ambiguous:
		return domain.SpeakAction(it.clarify(res.Candidates))
	}

	// A well-formed move that is illegal right now. Commands get one more
	// look first in case the move reading was a false positive.
	if cmd, ok := command.Classify(toks); ok {
		return domain.CommandAction(cmd)
	}
	return domain.SpeakAction(it.messages.Text("feedback.illegal_move"))
}

// clarify phrases an ambiguity question. Candidates sharing a departure
// square are told apart by piece name, otherwise by departure square, the
// same way a person would.
func (it *Interpreter) clarify(candidates []domain.LegalMove) string {
	sameFrom := true
	for _, mv := range candidates[1:] {
		if mv.From != candidates[0].From {
			sameFrom = false
			break
		}
	}

	described := make([]string, len(candidates))
	for i, mv := range candidates {
		described[i] = speechtext.Describe(mv, !sameFrom)
	}

	s, err := it.messages.Render("clarify.did_you_mean", map[string]string{
		"Head": strings.Join(described[:len(described)-1], "; "),
		"Tail": described[len(described)-1],
	})
	if err != nil {
		return it.messages.Text("feedback.unrecognized")
	}
	return s
}

// fallback walks the escalation chain: local intent, then the remote
// assistant, then the terminal Unrecognized.
func (it *Interpreter) fallback(ctx context.Context, in Input) domain.Action {
	if it.useLocalIntent && it.intent != nil {
		if r, ok := it.intent.Classify(in.Text); ok {
			if cmd, ok := r.Command(); ok {
				obslog.L().Debug("intent_resolved",
					zap.String("label", r.Label),
					zap.Float64("confidence", r.Confidence))
				return domain.CommandAction(cmd)
			}
		}
	}

	if !it.remoteEnabled || it.remote == nil {
		return domain.UnrecognizedAction(it.messages.Text("feedback.unrecognized"))
	}

	req := domain.AssistantRequest{
		ID:         it.newID(),
		Utterance:  domain.Utterance{Text: in.Text, Confidence: in.Confidence},
		Context:    in.Context,
		FEN:        in.FEN,
		LegalMoves: in.LegalMoves,
		Config:     in.Assistant,
	}
	resp, err := it.remote.Ask(ctx, req)
	if err != nil {
		obslog.L().Warn("assistant_failed",
			zap.String("request_id", req.ID),
			zap.String("kind", assist.Classify(err).String()),
			zap.Error(err))
		return domain.UnrecognizedAction(it.messages.Text("feedback.assistant_down"))
	}
	return it.applyAssistant(resp, in)
}

// applyAssistant maps a successful remote reply onto an Action. Structured
// moves are re-resolved against the current legal-move set; the assistant
// never gets to play a move the rules engine does not list.
func (it *Interpreter) applyAssistant(resp domain.AssistantResponse, in Input) domain.Action {
	if resp.Kind == domain.AssistantFreeText {
		return domain.SpeakAction(speechtext.Substitute(resp.Text, speechtext.Capitalized()))
	}

	switch resp.Action {
	case "move":
		if mv, ok := findByNotation(resp.Move, in.LegalMoves); ok {
			return domain.MoveAction(mv)
		}
		if parsed := grammar.ParseMove(normalize.Normalize(resp.Move), in.Context); parsed.Matched {
			res := resolve.Resolve(parsed.Spec, in.LegalMoves, in.Context, it.tieBreak)
			if res.Kind == resolve.Resolved {
				return domain.MoveAction(*res.Move)
			}
		}
		return domain.SpeakAction(it.messages.Text("feedback.illegal_move"))
	case "command":
		if kind, ok := domain.ParseCommandKind(resp.Command); ok {
			return domain.CommandAction(domain.Command{Kind: kind, Arg: resp.Arg})
		}
	}
	return domain.UnrecognizedAction(it.messages.Text("feedback.unrecognized"))
}

func findByNotation(notation string, legal []domain.LegalMove) (domain.LegalMove, bool) {
	notation = strings.TrimSpace(notation)
	if notation == "" {
		return domain.LegalMove{}, false
	}
	for _, mv := range legal {
		if strings.EqualFold(mv.SAN, notation) || strings.EqualFold(mv.UCI, notation) {
			return mv, true
		}
	}
	return domain.LegalMove{}, false
}
