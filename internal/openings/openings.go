// Package openings answers "play the ruy lopez" and "what is the sicilian
// defense": a small name index over well-known lines, plus ECO labeling of
// the live game.
package openings

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"

	nchess "github.com/corentings/chess/v2"
	"github.com/corentings/chess/v2/opening"
	yaml "gopkg.in/yaml.v3"
)

//go:embed openings.yaml
var defaultIndex embed.FS

// Opening is one named line.
type Opening struct {
	Name  string   `yaml:"name"`
	ECO   string   `yaml:"eco"`
	Line  string   `yaml:"line"`
	Moves []string `yaml:"moves"` // UCI, from the start position
}

// Index resolves spoken opening names. Lookup is tolerant of partial
// names: "the najdorf" finds the Najdorf Variation.
type Index struct {
	entries []Opening
	book    *opening.BookECO
}

func NewIndex() (*Index, error) {
	raw, err := fs.ReadFile(defaultIndex, "openings.yaml")
	if err != nil {
		return nil, err
	}
	var entries []Opening
	if err := yaml.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parse openings index: %w", err)
	}
	return &Index{entries: entries, book: opening.NewBookECO()}, nil
}

// Lookup finds the entry whose name best covers the spoken words. Every
// query word must occur in the name; among full covers the shortest name
// wins, so "sicilian defense" prefers the main line over the Najdorf.
func (ix *Index) Lookup(spoken string) (Opening, bool) {
	words := strings.Fields(normalizeName(spoken))
	if len(words) == 0 {
		return Opening{}, false
	}

	best := -1
	for i, e := range ix.entries {
		name := normalizeName(e.Name)
		covered := true
		for _, w := range words {
			if !containsWord(name, w) {
				covered = false
				break
			}
		}
		if !covered {
			continue
		}
		if best < 0 || len(ix.entries[i].Name) < len(ix.entries[best].Name) {
			best = i
		}
	}
	if best < 0 {
		return Opening{}, false
	}
	return ix.entries[best], true
}

// SetUp builds a fresh game with the named line already played.
func (ix *Index) SetUp(o Opening) (*nchess.Game, error) {
	game := nchess.NewGame()
	for _, mv := range o.Moves {
		if err := game.PushNotationMove(mv, nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("apply %s of %s: %w", mv, o.Name, err)
		}
	}
	return game, nil
}

// Label matches the game so far against the ECO book. Empty strings when
// the position left known theory.
func (ix *Index) Label(game *nchess.Game) (code, title string) {
	if ix.book == nil {
		return "", ""
	}
	if eco := ix.book.Find(game.Moves()); eco != nil {
		return eco.Code(), eco.Title()
	}
	return "", ""
}

func normalizeName(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

func containsWord(name, word string) bool {
	for _, w := range strings.Fields(name) {
		if w == word {
			return true
		}
	}
	return false
}
