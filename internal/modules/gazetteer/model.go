// README: Match tiers returned by the city resolver.
package gazetteer

// FuzzyThreshold is the exclusive upper bound of a normalized score accepted as a fuzzy match.
const FuzzyThreshold = 0.3

type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierFuzzy
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierFuzzy:
		return "fuzzy"
	default:
		return "none"
	}
}

// Match is the outcome of resolving free text against the gazetteer.
// City is canonical-cased; Input is the cleaned piece of text that produced the match.
type Match struct {
	City  string
	Tier  Tier
	Score float64
	Input string
}

type City struct {
	Name  string   `yaml:"name"`
	Forms []string `yaml:"forms"`
}
