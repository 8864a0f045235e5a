// README: In-memory gazetteer; exact lookup over case forms, then edit-distance scoring.
package gazetteer

import (
	_ "embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
	"gopkg.in/yaml.v3"
)

//go:embed cities.yaml
var citiesYAML []byte

var segmentSep = regexp.MustCompile(`[,;]+`)

type entry struct {
	form string // normalized
	city string
}

type Gazetteer struct {
	names   []string
	entries []entry
	index   map[string]string
}

// Parse decodes a YAML city list.
func Parse(data []byte) ([]City, error) {
	var cities []City
	if err := yaml.Unmarshal(data, &cities); err != nil {
		return nil, fmt.Errorf("gazetteer: decode cities: %w", err)
	}
	for i, c := range cities {
		if strings.TrimSpace(c.Name) == "" {
			return nil, fmt.Errorf("gazetteer: city #%d has no name", i)
		}
	}
	return cities, nil
}

func New(cities []City) *Gazetteer {
	g := &Gazetteer{index: make(map[string]string)}
	for _, c := range cities {
		g.names = append(g.names, c.Name)
		for _, f := range append([]string{c.Name}, c.Forms...) {
			key := normalize(f)
			if key == "" {
				continue
			}
			if _, dup := g.index[key]; dup {
				continue
			}
			g.index[key] = c.Name
			g.entries = append(g.entries, entry{form: key, city: c.Name})
		}
	}
	return g
}

var (
	defaultOnce sync.Once
	defaultGaz  *Gazetteer
)

// Default returns the gazetteer built from the embedded city list.
func Default() *Gazetteer {
	defaultOnce.Do(func() {
		cities, err := Parse(citiesYAML)
		if err != nil {
			panic(err)
		}
		defaultGaz = New(cities)
	})
	return defaultGaz
}

// Cities lists the canonical names in gazetteer order.
func (g *Gazetteer) Cities() []string {
	out := make([]string, len(g.names))
	copy(out, g.names)
	return out
}

// Lookup finds an exact, case-insensitive hit on a canonical name or one of its forms.
func (g *Gazetteer) Lookup(s string) (string, bool) {
	city, ok := g.index[normalize(s)]
	return city, ok
}

// Resolve maps noisy city text to a canonical name.
func (g *Gazetteer) Resolve(text string) Match {
	pieces := candidatePieces(text)
	for _, p := range pieces {
		if city, ok := g.Lookup(p); ok {
			return Match{City: city, Tier: TierExact, Input: p}
		}
	}

	best := Match{Tier: TierNone, Score: 1}
	for _, p := range pieces {
		np := normalize(p)
		if utf8.RuneCountInString(np) < 2 {
			continue
		}
		for _, e := range g.entries {
			if s := score(np, e.form); s < best.Score {
				best = Match{City: e.city, Score: s, Input: p}
			}
		}
	}

	switch {
	case best.City == "" || best.Score >= FuzzyThreshold:
		return Match{Tier: TierNone, Score: best.Score, Input: strings.TrimSpace(text)}
	case best.Score == 0 || normalize(best.Input) == normalize(best.City):
		best.Tier = TierExact
	default:
		best.Tier = TierFuzzy
	}
	return best
}

// candidatePieces splits text on commas and semicolons, then yields each segment,
// its 2-word windows and its single words, in reading order and without duplicates.
func candidatePieces(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" || seen[s] {
			return
		}
		seen[s] = true
		out = append(out, s)
	}
	for _, seg := range segmentSep.Split(text, -1) {
		seg = strings.TrimSpace(seg)
		if seg == "" {
			continue
		}
		add(seg)
		words := strings.Fields(seg)
		for i := range words {
			if i+1 < len(words) {
				add(words[i] + " " + words[i+1])
			}
			add(words[i])
		}
	}
	return out
}

func score(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longest := la
	if lb > longest {
		longest = lb
	}
	if longest == 0 {
		return 1
	}
	return float64(levenshtein.ComputeDistance(a, b)) / float64(longest)
}

func normalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.ReplaceAll(s, "ё", "е")
}
