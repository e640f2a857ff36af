package interpreter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/park285/voicechess/internal/assist"
	"github.com/park285/voicechess/internal/domain"
	"github.com/park285/voicechess/internal/intent"
	"github.com/park285/voicechess/internal/msgcat"
)

type fakeAssistant struct {
	mu    sync.Mutex
	calls int
	resp  domain.AssistantResponse
	err   error
	block chan struct{} // when set, Ask waits for it to close
}

func (f *fakeAssistant) Ask(ctx context.Context, req domain.AssistantRequest) (domain.AssistantResponse, error) {
	f.mu.Lock()
	f.calls++
	block := f.block
	f.mu.Unlock()
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return domain.AssistantResponse{}, ctx.Err()
		}
	}
	return f.resp, f.err
}

func (f *fakeAssistant) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func testMessages(t *testing.T) *msgcat.Catalog {
	t.Helper()
	c, err := msgcat.New("")
	if err != nil {
		t.Fatalf("msgcat.New: %v", err)
	}
	return c
}

func openingMoves() []domain.LegalMove {
	return []domain.LegalMove{
		{Piece: domain.Pawn, From: "e2", To: "e4", SAN: "e4", UCI: "e2e4"},
		{Piece: domain.Pawn, From: "e2", To: "e3", SAN: "e3", UCI: "e2e3"},
		{Piece: domain.Pawn, From: "d2", To: "d4", SAN: "d4", UCI: "d2d4"},
		{Piece: domain.Knight, From: "g1", To: "f3", SAN: "Nf3", UCI: "g1f3"},
		{Piece: domain.Knight, From: "b1", To: "c3", SAN: "Nc3", UCI: "b1c3"},
	}
}

func interpret(t *testing.T, it *Interpreter, text string, legal []domain.LegalMove) domain.Action {
	t.Helper()
	return it.Interpret(context.Background(), Input{
		Text:       text,
		LegalMoves: legal,
		Context:    domain.Context{SideToMove: domain.White},
	})
}

func TestInterpretResolvesMove(t *testing.T) {
	it := New(testMessages(t))
	act := interpret(t, it, "e2 to e4", openingMoves())
	if act.Kind != domain.ActionMove || act.Move.UCI != "e2e4" {
		t.Fatalf("got %+v", act)
	}
}

func TestInterpretSpokenMove(t *testing.T) {
	it := New(testMessages(t))
	act := interpret(t, it, "Knight to f three", openingMoves())
	if act.Kind != domain.ActionMove || act.Move.UCI != "g1f3" {
		t.Fatalf("got %+v", act)
	}
}

func TestInterpretAmbiguousCaptureAsksClarification(t *testing.T) {
	legal := []domain.LegalMove{
		{Piece: domain.Knight, From: "f3", To: "e5", Capture: true, Victim: domain.Pawn, SAN: "Nfxe5", UCI: "f3e5"},
		{Piece: domain.Knight, From: "c4", To: "e5", Capture: true, Victim: domain.Pawn, SAN: "Ncxe5", UCI: "c4e5"},
	}
	it := New(testMessages(t))
	act := interpret(t, it, "knight takes pawn at e5", legal)
	if act.Kind != domain.ActionSpeak {
		t.Fatalf("got %+v", act)
	}
	if !strings.HasPrefix(act.Text, "Did you mean:") {
		t.Fatalf("clarification = %q", act.Text)
	}
	// candidates share no departure square, so they are told apart by it
	if !strings.Contains(act.Text, "F3") || !strings.Contains(act.Text, "C4") {
		t.Fatalf("clarification = %q", act.Text)
	}
}

func TestInterpretIllegalMove(t *testing.T) {
	it := New(testMessages(t))
	act := interpret(t, it, "queen to h5", openingMoves())
	if act.Kind != domain.ActionSpeak || act.Text != "The move is incorrect." {
		t.Fatalf("got %+v", act)
	}
}

func TestInterpretCommand(t *testing.T) {
	it := New(testMessages(t))
	act := interpret(t, it, "start a new game", openingMoves())
	if act.Kind != domain.ActionCommand || act.Command.Kind != domain.CmdNewGame {
		t.Fatalf("got %+v", act)
	}
}

func TestInterpretUnrecognizedWithoutTiers(t *testing.T) {
	it := New(testMessages(t))
	act := interpret(t, it, "tell me a story", openingMoves())
	if act.Kind != domain.ActionUnrecognized || act.Reason == "" {
		t.Fatalf("got %+v", act)
	}
}

func TestInterpretLocalIntentTier(t *testing.T) {
	cls, err := intent.NewDefault()
	if err != nil {
		t.Fatalf("intent.NewDefault: %v", err)
	}
	fake := &fakeAssistant{}
	it := New(testMessages(t), WithLocalIntent(cls), WithRemoteAssistant(fake))

	act := interpret(t, it, "suggest a good move", openingMoves())
	if act.Kind != domain.ActionCommand || act.Command.Kind != domain.CmdAnalyze {
		t.Fatalf("got %+v", act)
	}
	if fake.callCount() != 0 {
		t.Fatalf("remote tier consulted despite local hit")
	}
}

func TestInterpretRemoteFreeText(t *testing.T) {
	fake := &fakeAssistant{resp: domain.AssistantResponse{
		Kind: domain.AssistantFreeText,
		Text: "Develop your knight with Nf3.",
	}}
	it := New(testMessages(t), WithRemoteAssistant(fake))

	act := interpret(t, it, "tell me what you think", openingMoves())
	if act.Kind != domain.ActionSpeak {
		t.Fatalf("got %+v", act)
	}
	// SAN in prose is rewritten for the synthesizer
	if !strings.Contains(act.Text, "knight to F3") {
		t.Fatalf("speak text = %q", act.Text)
	}
}

func TestInterpretRemoteStructuredMove(t *testing.T) {
	fake := &fakeAssistant{resp: domain.AssistantResponse{
		Kind:   domain.AssistantAction,
		Action: "move",
		Move:   "Nf3",
	}}
	it := New(testMessages(t), WithRemoteAssistant(fake))

	act := interpret(t, it, "do something sensible", openingMoves())
	if act.Kind != domain.ActionMove || act.Move.UCI != "g1f3" {
		t.Fatalf("got %+v", act)
	}
}

func TestInterpretRemoteStructuredMoveNotLegal(t *testing.T) {
	fake := &fakeAssistant{resp: domain.AssistantResponse{
		Kind:   domain.AssistantAction,
		Action: "move",
		Move:   "Qh5",
	}}
	it := New(testMessages(t), WithRemoteAssistant(fake))

	act := interpret(t, it, "do something sensible", openingMoves())
	if act.Kind != domain.ActionSpeak || act.Text != "The move is incorrect." {
		t.Fatalf("got %+v", act)
	}
}

func TestInterpretRemoteStructuredCommand(t *testing.T) {
	fake := &fakeAssistant{resp: domain.AssistantResponse{
		Kind:    domain.AssistantAction,
		Action:  "command",
		Command: "play_opening",
		Arg:     "ruy lopez",
	}}
	it := New(testMessages(t), WithRemoteAssistant(fake))

	act := interpret(t, it, "let us try something classical", openingMoves())
	if act.Kind != domain.ActionCommand || act.Command.Kind != domain.CmdPlayOpening || act.Command.Arg != "ruy lopez" {
		t.Fatalf("got %+v", act)
	}
}

func TestInterpretRemoteFailure(t *testing.T) {
	fake := &fakeAssistant{err: &assist.Error{
		Kind: domain.FailureTransient,
		Err:  errors.New("connection refused"),
	}}
	it := New(testMessages(t), WithRemoteAssistant(fake))

	act := interpret(t, it, "tell me a story", openingMoves())
	if act.Kind != domain.ActionUnrecognized {
		t.Fatalf("got %+v", act)
	}
	if act.Reason != "The assistant is not available right now." {
		t.Fatalf("reason = %q", act.Reason)
	}
}

func TestDispatcherLatestWins(t *testing.T) {
	block := make(chan struct{})
	fake := &fakeAssistant{
		resp:  domain.AssistantResponse{Kind: domain.AssistantFreeText, Text: "late answer"},
		block: block,
	}
	it := New(testMessages(t), WithRemoteAssistant(fake))

	var mu sync.Mutex
	var applied []domain.Action
	d := NewDispatcher(it, func(a domain.Action) {
		mu.Lock()
		applied = append(applied, a)
		mu.Unlock()
	})

	ctx := context.Background()
	in := Input{LegalMoves: openingMoves(), Context: domain.Context{}}

	// A escalates to the blocked remote tier, B resolves locally.
	inA := in
	inA.Text = "tell me a story"
	d.Dispatch(ctx, inA)

	inB := in
	inB.Text = "e2 to e4"
	d.Dispatch(ctx, inB)

	// let B land before A's remote call completes
	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		n := len(applied)
		mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(time.Millisecond)
	}

	close(block)
	d.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(applied) != 1 {
		t.Fatalf("applied %d results, want 1: %+v", len(applied), applied)
	}
	if applied[0].Kind != domain.ActionMove || applied[0].Move.UCI != "e2e4" {
		t.Fatalf("applied %+v", applied[0])
	}
}

func TestDispatcherAppliesLatest(t *testing.T) {
	it := New(testMessages(t))

	done := make(chan domain.Action, 1)
	d := NewDispatcher(it, func(a domain.Action) { done <- a })

	d.Dispatch(context.Background(), Input{Text: "knight to f3", LegalMoves: openingMoves()})
	select {
	case a := <-done:
		if a.Kind != domain.ActionMove || a.Move.UCI != "g1f3" {
			t.Fatalf("got %+v", a)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("no result applied")
	}
	d.Wait()
}
