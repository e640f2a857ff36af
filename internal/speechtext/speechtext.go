// Package speechtext converts between algebraic chess notation and text
// that a speech synthesizer can pronounce. The output of Describe satisfies
// the utterance grammar, so a spoken clarification can be answered by
// repeating one of the choices back.
package speechtext

import (
	"regexp"
	"strings"

	"github.com/park285/voicechess/internal/domain"
)

var pieceLetters = map[byte]string{
	'K': "king",
	'Q': "queen",
	'B': "bishop",
	'N': "knight",
	'R': "rook",
}

var rankNames = map[byte]string{
	'1': "one", '2': "two", '3': "three", '4': "four",
	'5': "five", '6': "six", '7': "seven", '8': "eight",
}

// sanRe matches one SAN move with an optional move-number prefix. Group 1 is
// the move including a trailing check/mate marker.
var sanRe = regexp.MustCompile(
	`\b(?:[1-9][0-9]*\.\s*)?(([KQBNR]?[a-hA-H1-8]?[xX]?[a-hA-H][1-8](?:=[QRBN])?|O-O(?:-O)?)\b[+#]?)`)

// notMoveBefore lists the four-character contexts that mark the "move" as
// ordinary prose: "knight to f3", "pawn on c3", "the c3 pawn", "from g1".
var notMoveBefore = [...]string{" to ", " on ", "the ", "rom "}

type config struct {
	delim       string
	capitalize  bool
	spellDigits bool
}

// Option adjusts how moves are rendered.
type Option func(*config)

// WithDelimiter appends d after every substituted move.
func WithDelimiter(d string) Option { return func(c *config) { c.delim = d } }

// Capitalized renders destination squares as "E4" instead of "e4", which
// keeps synthesizers from reading the file letter "a" as the article.
func Capitalized() Option { return func(c *config) { c.capitalize = true } }

// SpelledDigits renders ranks as words, "e4" becomes "e four".
func SpelledDigits() Option { return func(c *config) { c.spellDigits = true } }

// Substitute replaces every SAN move in text with its pronounceable form.
// Prose that merely looks like a square ("the c3 pawn") is left alone.
func Substitute(text string, opts ...Option) string {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}

	var b strings.Builder
	last := 0
	for _, m := range sanRe.FindAllStringSubmatchIndex(text, -1) {
		start, end := m[0], m[1]
		if proseContext(text, start) {
			continue
		}
		b.WriteString(text[last:start])
		b.WriteString(TranslateSAN(text[m[2]:m[3]], opts...))
		b.WriteString(cfg.delim)
		last = end
	}
	b.WriteString(text[last:])
	return b.String()
}

func proseContext(text string, start int) bool {
	if start < 4 {
		return false
	}
	before := text[start-4 : start]
	for _, p := range notMoveBefore {
		if before == p {
			return true
		}
	}
	return false
}

// TranslateSAN renders a single SAN move as pronounceable text, e.g.
// "dxc8=R+" becomes "pawn to c8, promoting to rook, check".
func TranslateSAN(san string, opts ...Option) string {
	cfg := config{}
	for _, o := range opts {
		o(&cfg)
	}

	status := ""
	switch {
	case strings.HasSuffix(san, "+"):
		status = ", check"
		san = san[:len(san)-1]
	case strings.HasSuffix(san, "#"):
		status = ", checkmate"
		san = san[:len(san)-1]
	}

	switch san {
	case "O-O":
		return "castle kingside" + status
	case "O-O-O":
		return "castle queenside" + status
	}

	san = strings.ReplaceAll(san, "x", "")
	san = strings.ReplaceAll(san, "X", "")

	promotion := ""
	if i := strings.IndexByte(san, '='); i >= 0 {
		if name, ok := pieceLetters[san[i+1]]; ok {
			promotion = ", promoting to " + name
		}
		san = san[:i]
	}

	dest := san[len(san)-2:]
	piece := "pawn"
	if name, ok := pieceLetters[san[0]]; ok {
		piece = name
	}

	return piece + " to " + renderSquare(dest, cfg) + promotion + status
}

func renderSquare(sq string, cfg config) string {
	file, rank := sq[0], sq[1]
	if cfg.capitalize {
		file = byte(strings.ToUpper(string(file))[0])
	}
	if cfg.spellDigits {
		return string(file) + " " + rankNames[rank]
	}
	return string(file) + string(rank)
}

var parenSANRe = regexp.MustCompile(
	`\s+?\((O-O-O|O-O|[KQBNR]?[a-h1-8]?x?[a-h][1-8](?:=[QRBN])?)\)`)

// StripRedundantSAN removes a parenthesized SAN that merely repeats the
// English move right before it: "Knight to f3 (Nf3)" becomes "Knight to
// f3". Parentheses that do not restate the preceding text are kept.
func StripRedundantSAN(text string) string {
	lower := strings.ToLower(text)
	return parenSANRe.ReplaceAllStringFunc(text, func(match string) string {
		san := parenSANRe.FindStringSubmatch(match)[1]
		restated := TranslateSAN(san) + " (" + strings.ToLower(san) + ")"
		if strings.Contains(collapseSpaces(lower), restated) {
			return ""
		}
		return match
	})
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Describe renders a legal move as an utterance the grammar can parse back.
// When useFromSquare is set the departure square names the piece instead of
// its type, which is how ambiguous candidates are told apart. Promotions
// always use the departure square, the shorter phrasing.
func Describe(m domain.LegalMove, useFromSquare bool) string {
	switch m.Castle {
	case domain.CastleKingside:
		return "castle king side"
	case domain.CastleQueenside:
		return "castle queen side"
	}

	if m.Promotion != domain.PieceNone {
		useFromSquare = true
	}

	to := strings.ToUpper(string(m.To))
	var text string
	switch {
	case useFromSquare:
		// "G1 to F3" parses back as a square move even when capturing.
		text = strings.ToUpper(string(m.From)) + " to " + to
	case m.Capture && m.Victim != domain.PieceNone:
		text = m.Piece.String() + " takes " + m.Victim.String() + " on " + to
	default:
		text = m.Piece.String() + " to " + to
	}

	if m.Promotion != domain.PieceNone {
		text += ", promote to " + m.Promotion.String()
	}
	return text
}
