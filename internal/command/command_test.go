package command

import (
	"testing"

	"github.com/park285/voicechess/internal/domain"
	"github.com/park285/voicechess/internal/normalize"
)

func classify(t *testing.T, text string) (domain.Command, bool) {
	t.Helper()
	return Classify(normalize.Normalize(text))
}

func TestClassifyFixedPhrases(t *testing.T) {
	cases := []struct {
		text string
		kind domain.CommandKind
	}{
		{"start a new game", domain.CmdNewGame},
		{"New game", domain.CmdNewGame},
		{"undo", domain.CmdUndo},
		{"take that back", domain.CmdUndo},
		{"redo", domain.CmdRedo},
		{"analyze", domain.CmdAnalyze},
		{"evaluate the position", domain.CmdAnalyze},
		{"who is winning", domain.CmdEvaluate},
		{"show me a hint", domain.CmdHint},
		{"replay the game", domain.CmdReplay},
		{"show me puzzles", domain.CmdShowPuzzles},
		{"I resign", domain.CmdResign},
		{"flip the board", domain.CmdFlipBoard},
		{"switch sides", domain.CmdSwitchSides},
	}
	for _, c := range cases {
		cmd, ok := classify(t, c.text)
		if !ok {
			t.Errorf("%q: no match", c.text)
			continue
		}
		if cmd.Kind != c.kind {
			t.Errorf("%q: got %v, want %v", c.text, cmd.Kind, c.kind)
		}
	}
}

func TestClassifyLongestPhraseWins(t *testing.T) {
	// "evaluate position" must not be shadowed by the bare "evaluation"
	// entry, and "take that back" must beat "take back".
	cmd, ok := classify(t, "please evaluate the position")
	if !ok || cmd.Kind != domain.CmdAnalyze {
		t.Fatalf("got %+v ok=%v", cmd, ok)
	}
}

func TestClassifyPlayOpening(t *testing.T) {
	cmd, ok := classify(t, "play the Sicilian Defense opening")
	if !ok || cmd.Kind != domain.CmdPlayOpening {
		t.Fatalf("got %+v ok=%v", cmd, ok)
	}
	if cmd.Arg != "sicilian defense" {
		t.Fatalf("arg = %q", cmd.Arg)
	}
}

func TestClassifySetUpOpening(t *testing.T) {
	cmd, ok := classify(t, "set up the ruy lopez")
	if !ok || cmd.Kind != domain.CmdPlayOpening || cmd.Arg != "ruy lopez" {
		t.Fatalf("got %+v ok=%v", cmd, ok)
	}
}

func TestClassifyLookupOpening(t *testing.T) {
	cmd, ok := classify(t, "search king's gambit")
	if !ok || cmd.Kind != domain.CmdLookupOpening || cmd.Arg != "king s gambit" {
		t.Fatalf("got %+v ok=%v", cmd, ok)
	}
}

func TestClassifyPracticePuzzles(t *testing.T) {
	cmd, ok := classify(t, "practice back rank mate puzzles")
	if !ok || cmd.Kind != domain.CmdPracticePuzzles || cmd.Arg != "back rank mate" {
		t.Fatalf("got %+v ok=%v", cmd, ok)
	}
}

func TestClassifyNoArgFormRejected(t *testing.T) {
	// Parameterized forms need at least one argument token.
	if cmd, ok := classify(t, "practice"); ok {
		t.Fatalf("bare practice matched: %+v", cmd)
	}
}

func TestClassifyNoMatch(t *testing.T) {
	for _, text := range []string{"", "hello there", "knight takes at e5", "what would Magnus do"} {
		if cmd, ok := classify(t, text); ok {
			t.Errorf("%q: unexpected match %+v", text, cmd)
		}
	}
}
