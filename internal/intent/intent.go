// Package intent is the offline fallback tier: a TF-IDF nearest-phrase
// classifier over a small labeled catalog. Labels carry their payload in
// the name ("puzzle:fork", "open:ruy lopez:C60"), the "None" label marks
// phrases the tier must decline so they escalate to the remote assistant.
package intent

import (
	"embed"
	"fmt"
	"io/fs"
	"math"
	"os"
	"regexp"
	"sort"
	"strings"

	yaml "gopkg.in/yaml.v3"

	"github.com/park285/voicechess/internal/domain"
)

//go:embed phrases.yaml
var defaultCatalog embed.FS

// similarity below this is treated as no match. Equivalent to an angular
// distance cutoff of 1.0 over unit vectors.
const minSimilarity = 0.5

// searchPrefixes are stripped before matching so "what is the ruy lopez"
// and "ruy lopez" land on the same phrase.
var searchPrefixes = []string{"find", "look up", "lookup", "search", "what is"}

// Result is one classification outcome.
type Result struct {
	Label      string
	Confidence float64
}

type entry struct {
	label string
	vec   map[string]float64
	norm  float64
}

// Classifier holds the vectorized catalog. Build it once, Classify is
// read-only and safe for concurrent use.
type Classifier struct {
	idf     map[string]float64
	entries []entry
}

// NewDefault builds a classifier from the embedded catalog.
func NewDefault() (*Classifier, error) {
	raw, err := fs.ReadFile(defaultCatalog, "phrases.yaml")
	if err != nil {
		return nil, err
	}
	return NewFromCatalog(raw)
}

// Load builds a classifier from a catalog file on disk. A missing file is
// not an error to the caller's fallback chain; it returns (nil, err) and
// the tier is skipped.
func Load(path string) (*Classifier, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read intent catalog: %w", err)
	}
	return NewFromCatalog(raw)
}

// NewFromCatalog parses a label -> phrases YAML mapping and vectorizes it.
func NewFromCatalog(raw []byte) (*Classifier, error) {
	var catalog map[string][]string
	if err := yaml.Unmarshal(raw, &catalog); err != nil {
		return nil, fmt.Errorf("parse intent catalog: %w", err)
	}
	if len(catalog) == 0 {
		return nil, fmt.Errorf("intent catalog is empty")
	}

	type doc struct {
		label  string
		tokens []string
	}
	var docs []doc
	labels := make([]string, 0, len(catalog))
	for label := range catalog {
		labels = append(labels, label)
	}
	sort.Strings(labels) // deterministic entry order
	for _, label := range labels {
		for _, phrase := range catalog[label] {
			docs = append(docs, doc{label: label, tokens: tokenize(phrase)})
		}
	}

	df := make(map[string]int)
	for _, d := range docs {
		seen := make(map[string]struct{}, len(d.tokens))
		for _, t := range d.tokens {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			df[t]++
		}
	}
	idf := make(map[string]float64, len(df))
	n := float64(len(docs))
	for t, c := range df {
		idf[t] = math.Log(n / float64(c))
	}

	c := &Classifier{idf: idf, entries: make([]entry, 0, len(docs))}
	for _, d := range docs {
		vec, norm := c.vectorize(d.tokens)
		if norm == 0 {
			continue
		}
		c.entries = append(c.entries, entry{label: d.label, vec: vec, norm: norm})
	}
	return c, nil
}

// Classify returns the nearest catalog label, or false when nothing is
// close enough or the nearest phrase is labeled "None".
func (c *Classifier) Classify(text string) (Result, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	for _, p := range searchPrefixes {
		if strings.HasPrefix(text, p+" ") {
			text = strings.TrimSpace(text[len(p):])
			break
		}
	}

	qvec, qnorm := c.vectorize(tokenize(text))
	if qnorm == 0 {
		return Result{}, false
	}

	bestLabel := ""
	bestSim := 0.0
	for _, e := range c.entries {
		dot := 0.0
		for t, w := range qvec {
			dot += w * e.vec[t]
		}
		sim := dot / (qnorm * e.norm)
		if sim > bestSim {
			bestSim = sim
			bestLabel = e.label
		}
	}

	if bestSim < minSimilarity || bestLabel == "None" {
		return Result{}, false
	}
	return Result{Label: bestLabel, Confidence: bestSim}, true
}

func (c *Classifier) vectorize(tokens []string) (map[string]float64, float64) {
	tf := make(map[string]float64)
	for _, t := range tokens {
		tf[t]++
	}
	var sq float64
	vec := make(map[string]float64, len(tf))
	for t, f := range tf {
		w := f * c.idf[t]
		if w == 0 {
			continue
		}
		vec[t] = w
		sq += w * w
	}
	return vec, math.Sqrt(sq)
}

var tokenRe = regexp.MustCompile(`\b\d+\b|\w+`)

var digitWords = [...]string{"zero", "one", "two", "three", "four", "five", "six", "seven", "eight", "nine"}

func tokenize(text string) []string {
	raw := tokenRe.FindAllString(strings.ToLower(text), -1)
	out := make([]string, 0, len(raw))
	for _, t := range raw {
		out = append(out, foldDigits(t))
	}
	return out
}

// foldDigits spells numeric tokens out so "e4" from typed input and "e
// four" from speech vectorize identically.
func foldDigits(token string) string {
	if !strings.ContainsAny(token, "0123456789") {
		return token
	}
	var b strings.Builder
	for _, r := range token {
		if r >= '0' && r <= '9' {
			b.WriteString(digitWords[r-'0'])
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Command maps a recognized label onto the application command vocabulary.
// Returns false for labels the command set cannot express.
func (r Result) Command() (domain.Command, bool) {
	switch {
	case r.Label == "analyze":
		return domain.Command{Kind: domain.CmdAnalyze}, true
	case strings.HasPrefix(r.Label, "puzzle:"):
		return domain.Command{Kind: domain.CmdPracticePuzzles, Arg: strings.TrimPrefix(r.Label, "puzzle:")}, true
	case strings.HasPrefix(r.Label, "open:"):
		return domain.Command{Kind: domain.CmdPlayOpening, Arg: labelArg(r.Label)}, true
	case strings.HasPrefix(r.Label, "search:"):
		return domain.Command{Kind: domain.CmdLookupOpening, Arg: labelArg(r.Label)}, true
	}
	return domain.Command{}, false
}

// PuzzleThemes lists the puzzle themes the catalog knows, sorted.
func (c *Classifier) PuzzleThemes() []string {
	seen := make(map[string]bool)
	var themes []string
	for _, e := range c.entries {
		if !strings.HasPrefix(e.label, "puzzle:") {
			continue
		}
		theme := strings.TrimPrefix(e.label, "puzzle:")
		if !seen[theme] {
			seen[theme] = true
			themes = append(themes, theme)
		}
	}
	sort.Strings(themes)
	return themes
}

// labelArg extracts the name from "open:<name>:<eco>" and "search:<name>".
func labelArg(label string) string {
	parts := strings.Split(label, ":")
	if len(parts) < 2 {
		return ""
	}
	return parts[1]
}
