// README: Slot-filling orchestrator; runs the five extractors and merges their proposals.
package slots

import (
	"strings"
	"time"

	"tripchat/internal/modules/gazetteer"
)

// Parser runs the extractors in the fixed order from, to, date, passengers,
// transport. It has no side effects.
type Parser struct {
	from       Extractor
	to         Extractor
	date       Extractor
	passengers Extractor
	transport  Extractor
}

func NewParser(g *gazetteer.Gazetteer, now func() time.Time) *Parser {
	return &Parser{
		from:       NewFromCityExtractor(g),
		to:         NewToCityExtractor(g),
		date:       NewDateExtractor(now),
		passengers: NewPassengerExtractor(),
		transport:  NewTransportExtractor(),
	}
}

// Parse proposes slot values for message; expected is the slot the dialog is
// waiting for, or "".
func (p *Parser) Parse(message string, expected Name) Update {
	nonTrivial := len([]rune(strings.TrimSpace(message))) > 1

	u := p.from.Extract(message, expected)
	if u.FromCity == nil && u.CityCandidate == nil && expected == FromCity && nonTrivial {
		u = u.Merge(p.from.Extract(message, ""))
	}

	u = u.Merge(p.to.Extract(message, expected))
	if u.ToCity == nil && u.CityCandidate == nil && expected == ToCity && nonTrivial {
		u = u.Merge(p.to.Extract(message, ""))
	}

	u = u.Merge(p.date.Extract(message, expected))
	u = u.Merge(p.passengers.Extract(message, expected))
	u = u.Merge(p.transport.Extract(message, expected))
	return u
}
