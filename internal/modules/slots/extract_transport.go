package slots

import "strings"

// transportKeywords is checked in order; the first substring hit wins.
var transportKeywords = []struct {
	keyword string
	label   Transport
}{
	{"поезд", TransportTrain},
	{"автобус", TransportBus},
	{"самолет", TransportAirplane},
	{"самолёт", TransportAirplane},
	{"plane", TransportAirplane},
}

type transportExtractor struct{}

func NewTransportExtractor() Extractor {
	return transportExtractor{}
}

func (transportExtractor) Extract(message string, expected Name) Update {
	lower := strings.ToLower(message)
	for _, k := range transportKeywords {
		if strings.Contains(lower, k.keyword) {
			label := k.label
			return Update{TransportType: &label}
		}
	}
	if expected == TransportType {
		trimmed := strings.TrimSpace(lower)
		for _, k := range transportKeywords {
			if trimmed == k.keyword {
				label := k.label
				return Update{TransportType: &label}
			}
		}
	}
	return Update{}
}
