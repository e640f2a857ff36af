// Package command recognizes fixed-vocabulary application commands in
// normalized utterances. Matching is exact phrase membership over the token
// sequence; there is no fuzzy scoring here, anything partial falls through
// to the fallback tiers.
package command

import (
	"strings"

	"github.com/park285/voicechess/internal/domain"
	"github.com/park285/voicechess/internal/normalize"
)

type phrase struct {
	words []string
	kind  domain.CommandKind
}

// phrases map post-normalization token sequences to commands. Order matters:
// when two phrases of equal length match, the earlier one wins. Note "the"
// is stripped by normalization, so "evaluate the position" appears here as
// "evaluate position".
var phrases = []phrase{
	{words: []string{"start", "a", "new", "game"}, kind: domain.CmdNewGame},
	{words: []string{"new", "game"}, kind: domain.CmdNewGame},
	{words: []string{"start", "over"}, kind: domain.CmdNewGame},
	{words: []string{"restart"}, kind: domain.CmdNewGame},

	// "take" folds to "takes" during normalization.
	{words: []string{"takes", "that", "back"}, kind: domain.CmdUndo},
	{words: []string{"takes", "back"}, kind: domain.CmdUndo},
	{words: []string{"undo"}, kind: domain.CmdUndo},
	{words: []string{"go", "back"}, kind: domain.CmdUndo},

	{words: []string{"redo"}, kind: domain.CmdRedo},
	{words: []string{"go", "forward"}, kind: domain.CmdRedo},

	{words: []string{"evaluate", "position"}, kind: domain.CmdAnalyze},
	{words: []string{"analyze", "position"}, kind: domain.CmdAnalyze},
	{words: []string{"run", "analysis"}, kind: domain.CmdAnalyze},
	{words: []string{"analyze"}, kind: domain.CmdAnalyze},

	{words: []string{"who", "is", "winning"}, kind: domain.CmdEvaluate},
	{words: []string{"show", "evaluation"}, kind: domain.CmdEvaluate},
	{words: []string{"evaluation"}, kind: domain.CmdEvaluate},

	{words: []string{"show", "me", "a", "hint"}, kind: domain.CmdHint},
	{words: []string{"give", "me", "a", "hint"}, kind: domain.CmdHint},
	{words: []string{"show", "hint"}, kind: domain.CmdHint},
	{words: []string{"hint"}, kind: domain.CmdHint},

	{words: []string{"replay", "game"}, kind: domain.CmdReplay},
	{words: []string{"replay", "moves"}, kind: domain.CmdReplay},
	{words: []string{"replay"}, kind: domain.CmdReplay},

	{words: []string{"show", "me", "puzzles"}, kind: domain.CmdShowPuzzles},
	{words: []string{"show", "puzzles"}, kind: domain.CmdShowPuzzles},

	{words: []string{"i", "resign"}, kind: domain.CmdResign},
	{words: []string{"resign"}, kind: domain.CmdResign},
	{words: []string{"give", "up"}, kind: domain.CmdResign},

	{words: []string{"flip", "board"}, kind: domain.CmdFlipBoard},
	{words: []string{"rotate", "board"}, kind: domain.CmdFlipBoard},
	{words: []string{"flip"}, kind: domain.CmdFlipBoard},

	{words: []string{"switch", "sides"}, kind: domain.CmdSwitchSides},
	{words: []string{"swap", "sides"}, kind: domain.CmdSwitchSides},
	{words: []string{"change", "sides"}, kind: domain.CmdSwitchSides},
}

// form is a parameterized phrase: fixed head tokens, an argument span, and
// optional tail tokens. "practice <theme> puzzles" and friends live here.
type form struct {
	head []string
	tail []string
	kind domain.CommandKind
}

var forms = []form{
	{head: []string{"practice"}, tail: []string{"puzzles"}, kind: domain.CmdPracticePuzzles},
	{head: []string{"practice"}, tail: []string{"puzzle"}, kind: domain.CmdPracticePuzzles},
	{head: []string{"practice"}, kind: domain.CmdPracticePuzzles},
	{head: []string{"play"}, tail: []string{"opening"}, kind: domain.CmdPlayOpening},
	{head: []string{"set", "up"}, kind: domain.CmdPlayOpening},
	{head: []string{"open"}, kind: domain.CmdPlayOpening},
	{head: []string{"search"}, kind: domain.CmdLookupOpening},
	{head: []string{"lookup"}, kind: domain.CmdLookupOpening},
}

// Classify matches the token sequence against the command vocabulary. The
// most specific match wins: longer phrases beat shorter ones, and on equal
// length table order decides. The second return is false when nothing in
// the vocabulary matches.
func Classify(toks normalize.Tokens) (domain.Command, bool) {
	if len(toks) == 0 {
		return domain.Command{}, false
	}

	best := domain.Command{}
	bestLen := 0

	for _, p := range phrases {
		if len(p.words) > bestLen && contains(toks, p.words) {
			best = domain.Command{Kind: p.kind}
			bestLen = len(p.words)
		}
	}
	for _, f := range forms {
		arg, n := matchForm(toks, f)
		if n > bestLen && arg != "" {
			best = domain.Command{Kind: f.kind, Arg: arg}
			bestLen = n
		}
	}

	if bestLen == 0 {
		return domain.Command{}, false
	}
	return best, true
}

func contains(toks normalize.Tokens, words []string) bool {
	for i := 0; i+len(words) <= len(toks); i++ {
		if equal(toks[i:i+len(words)], words) {
			return true
		}
	}
	return false
}

func equal(a normalize.Tokens, b []string) bool {
	for i := range b {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// matchForm looks for head ... tail with at least one argument token in
// between, and returns the argument plus the total matched span.
func matchForm(toks normalize.Tokens, f form) (string, int) {
	for i := 0; i+len(f.head) < len(toks); i++ {
		if !equal(toks[i:i+len(f.head)], f.head) {
			continue
		}
		argStart := i + len(f.head)
		argEnd := len(toks)
		if len(f.tail) > 0 {
			argEnd = -1
			for j := argStart + 1; j+len(f.tail) <= len(toks); j++ {
				if equal(toks[j:j+len(f.tail)], f.tail) {
					argEnd = j
					break
				}
			}
			if argEnd < 0 {
				continue
			}
		}
		if argEnd <= argStart {
			continue
		}
		arg := strings.Join(toks[argStart:argEnd], " ")
		return arg, len(f.head) + len(f.tail) + (argEnd - argStart)
	}
	return "", 0
}
