package slots

import (
	"regexp"
	"strings"
	"unicode"

	"tripchat/internal/modules/gazetteer"
)

// Extractor proposes slot values for one message. expected is the slot the dialog
// just asked for, or "" when there is no hint. Extractors never fail: no match is
// an empty Update.
type Extractor interface {
	Extract(message string, expected Name) Update
}

var (
	originPattern      = regexp.MustCompile(`(?:^|[^\p{L}])(?:из|откуда)\s+([\p{L}\- ]+)`)
	destinationPattern = regexp.MustCompile(`(?:^|[^\p{L}])(?:поехать в|в|куда)\s+([\p{L}\- ]+)`)
	cityText           = regexp.MustCompile(`^[\p{L}\- ]+$`)
)

// A capture stops at the first of these words: "из Минска в Москву" must not
// hand "в Москву" to the origin resolver.
var stopWords = map[string]bool{
	"в": true, "во": true, "из": true, "откуда": true, "куда": true,
	"на": true, "для": true, "до": true, "с": true, "со": true, "и": true,
	"поехать": true, "хочу": true,
}

type cityExtractor struct {
	slot    Name
	gaz     *gazetteer.Gazetteer
	pattern *regexp.Regexp
	other   *regexp.Regexp
	// keepRaw records unresolved bare text as a candidate instead of dropping it.
	keepRaw bool
	// lastWord resolves only the final word of a bare multi-word reply.
	lastWord bool
}

func NewFromCityExtractor(g *gazetteer.Gazetteer) Extractor {
	return &cityExtractor{slot: FromCity, gaz: g, pattern: originPattern, other: destinationPattern, keepRaw: true}
}

func NewToCityExtractor(g *gazetteer.Gazetteer) Extractor {
	return &cityExtractor{slot: ToCity, gaz: g, pattern: destinationPattern, other: originPattern, lastWord: true}
}

func (e *cityExtractor) Extract(message string, expected Name) Update {
	lower := strings.ToLower(message)
	if m := e.pattern.FindStringSubmatch(lower); m != nil {
		capture := cutAtStopWord(m[1])
		if capture == "" {
			return Update{}
		}
		return e.fromMatch(e.gaz.Resolve(capture))
	}
	if expected != e.slot {
		return Update{}
	}
	return e.bare(message)
}

func (e *cityExtractor) bare(message string) Update {
	text := strings.TrimSpace(message)
	if len([]rune(text)) <= 1 || ParseAnswer(text) != AnswerOther {
		return Update{}
	}
	if e.other.MatchString(strings.ToLower(text)) {
		return Update{}
	}
	if e.lastWord {
		words := strings.Fields(text)
		text = words[len(words)-1]
	}
	m := e.gaz.Resolve(text)
	if m.Tier == gazetteer.TierNone {
		if e.keepRaw && cityText.MatchString(text) {
			return Update{CityCandidate: strPtr(capitalize(text)), CityCandidateType: e.slot}
		}
		return Update{}
	}
	return e.fromMatch(m)
}

func (e *cityExtractor) fromMatch(m gazetteer.Match) Update {
	switch m.Tier {
	case gazetteer.TierExact:
		if e.slot == FromCity {
			return Update{FromCity: strPtr(m.City)}
		}
		return Update{ToCity: strPtr(m.City)}
	case gazetteer.TierFuzzy:
		return Update{CityCandidate: strPtr(m.City), CityCandidateType: e.slot}
	}
	return Update{}
}

func cutAtStopWord(capture string) string {
	words := strings.Fields(capture)
	for i, w := range words {
		if stopWords[w] {
			words = words[:i]
			break
		}
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	r := []rune(strings.ToLower(s))
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
