// Package normalize canonicalizes raw utterance text before parsing:
// casing, punctuation, filler words, synonym folding, and the common
// speech-recognition mistakes seen in the wild ("night" for "knight").
package normalize

import (
	"regexp"
	"strings"
)

// Tokens is the normalized token sequence of one utterance.
type Tokens []string

func (t Tokens) String() string { return strings.Join(t, " ") }

// fillers are dropped entirely. "a" stays because it doubles as a file
// letter; "piece" stays because "that piece" is a pronoun form the grammar
// handles.
var fillers = map[string]struct{}{
	"the":    {},
	"an":     {},
	"please": {},
	"uh":     {},
	"um":     {},
}

// synonyms fold word variants onto the single form the grammar matches.
var synonyms = map[string]string{
	"captures":  "takes",
	"capture":   "takes",
	"take":      "takes",
	"on":        "at",
	"promotes":  "promote",
	"knights":   "knight",
	"rooks":     "rook",
	"bishops":   "bishop",
	"pawns":     "pawn",
	"queens":    "queen",
	"kingside":  "king side",
	"queenside": "queen side",
}

// rankWords turn spoken rank digits into numerals before square assembly.
var rankWords = map[string]string{
	"one":   "1",
	"two":   "2",
	"too":   "2",
	"three": "3",
	"for":   "4",
	"four":  "4",
	"five":  "5",
	"fine":  "5",
	"six":   "6",
	"seven": "7",
	"ate":   "8",
	"eight": "8",
}

type rewrite struct {
	re  *regexp.Regexp
	out string
}

// corrections repair frequent speech-recognition mistakes. Applied to the
// whole lowercased text before tokenization, in order.
var corrections = []rewrite{
	{regexp.MustCompile(`\b284\b`), "to a4"},
	{regexp.MustCompile(`\b288\b`), "to h8"},
	{regexp.MustCompile(`\bage\s*([1-8])`), "h$1"},
	{regexp.MustCompile(`\banyone\b`), "e1"},
	{regexp.MustCompile(`\bbakes\b`), "takes"},
	{regexp.MustCompile(`\bbe\s*([1-8])`), "b$1"},
	{regexp.MustCompile(`\bbe ate\b`), "b8"},
	{regexp.MustCompile(`\bbe too?\b`), "b2"},
	{regexp.MustCompile(`\bbee\s*([1-8])`), "b$1"},
	{regexp.MustCompile(`\bbefore\b`), "b4"},
	{regexp.MustCompile(`\bborn\b`), "pawn"},
	{regexp.MustCompile(`\bbrooke?\b`), "rook"},
	{regexp.MustCompile(`\bbrooks\b`), "rook"},
	{regexp.MustCompile(`\bcakes\b`), "takes"},
	{regexp.MustCompile(`\bdefine\b`), "e5"},
	{regexp.MustCompile(`\beat\s*3\b`), "e3"},
	{regexp.MustCompile(`\besex\b`), "e6"},
	{regexp.MustCompile(`\bfakes\b`), "takes"},
	{regexp.MustCompile(`\bknight\s?stakes\b`), "knight takes"},
	{regexp.MustCompile(`\bnightsticks\b`), "knight takes"},
	{regexp.MustCompile(`\blook\b`), "rook"},
	{regexp.MustCompile(`\bmight\b`), "knight"},
	{regexp.MustCompile(`\bnight\b`), "knight"},
	{regexp.MustCompile(`\bpage\s*([1-8])`), "h$1"},
	{regexp.MustCompile(`\bpain\b`), "pawn"},
	{regexp.MustCompile(`\bpay for\b`), "a4"},
	{regexp.MustCompile(`\bpoem\b`), "pawn"},
	{regexp.MustCompile(`\bpoint\b`), "pawn"},
	{regexp.MustCompile(`\bpromote the\b`), "promote to"},
	{regexp.MustCompile(`\bremote\b`), "promote"},
	{regexp.MustCompile(`\brocks?\b`), "rook"},
	{regexp.MustCompile(`\broute\b`), "rook"},
	{regexp.MustCompile(`\bruk\b`), "rook"},
	{regexp.MustCompile(`\bsee\s*([1-8])`), "c$1"},
	{regexp.MustCompile(`\bsee too?\b`), "c2"},
	{regexp.MustCompile(`\bsite\b`), "side"},
	{regexp.MustCompile(`\bsize\b`), "side"},
	{regexp.MustCompile(`\btake screen\b`), "takes queen"},
	{regexp.MustCompile(`\bthe ford\b`), "d4"},
	{regexp.MustCompile(`\bto eat\b`), "to e2"},
	{regexp.MustCompile(`\bv8\b`), "b8"},
}

var punct = regexp.MustCompile(`[^\w\s]`)

// Normalize canonicalizes raw text into a token sequence. It never fails;
// words it does not understand pass through as opaque tokens.
func Normalize(text string) Tokens {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return nil
	}
	text = punct.ReplaceAllString(text, " ")
	for _, c := range corrections {
		text = c.re.ReplaceAllString(text, c.out)
	}

	words := strings.Fields(text)
	toks := make(Tokens, 0, len(words))
	for _, w := range words {
		if _, skip := fillers[w]; skip {
			continue
		}
		if folded, ok := synonyms[w]; ok {
			toks = append(toks, strings.Fields(folded)...)
			continue
		}
		toks = append(toks, w)
	}
	return assembleSquares(toks)
}

// assembleSquares merges a bare file letter followed by a rank token into a
// square token, and turns spoken rank words into digits first ("e four" ->
// "e4"). Rank words are only folded next to a file so that phrases like
// "show one hint" survive intact.
func assembleSquares(in Tokens) Tokens {
	out := make(Tokens, 0, len(in))
	for i := 0; i < len(in); i++ {
		tok := in[i]
		if isFile(tok) && i+1 < len(in) {
			next := in[i+1]
			if d, ok := rankWords[next]; ok {
				next = d
			}
			if isRank(next) {
				out = append(out, tok+next)
				i++
				continue
			}
		}
		out = append(out, tok)
	}
	return out
}

func isFile(tok string) bool {
	return len(tok) == 1 && tok[0] >= 'a' && tok[0] <= 'h'
}

func isRank(tok string) bool {
	return len(tok) == 1 && tok[0] >= '1' && tok[0] <= '8'
}
