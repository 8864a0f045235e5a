package slots

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	passengersPattern = regexp.MustCompile(`(\d+)\s?(пассажир|чел|человека|людей)`)
	digitsOnly        = regexp.MustCompile(`^\d+$`)
)

type passengerExtractor struct{}

func NewPassengerExtractor() Extractor {
	return passengerExtractor{}
}

func (passengerExtractor) Extract(message string, expected Name) Update {
	lower := strings.ToLower(message)
	if m := passengersPattern.FindStringSubmatch(lower); m != nil {
		return passengersUpdate(m[1])
	}
	if expected == Passengers {
		if trimmed := strings.TrimSpace(lower); digitsOnly.MatchString(trimmed) {
			return passengersUpdate(trimmed)
		}
	}
	return Update{}
}

func passengersUpdate(digits string) Update {
	n, err := strconv.Atoi(digits)
	if err != nil || n < 1 {
		return Update{}
	}
	return Update{Passengers: &n}
}
