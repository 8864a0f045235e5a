package slots

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	monthDatePattern   = regexp.MustCompile(`(\d{1,2})\s?(января|февраля|марта|апреля|мая|июня|июля|августа|сентября|октября|ноября|декабря)`)
	numericDatePattern = regexp.MustCompile(`(\d{1,2})[.\-/](\d{1,2})`)
)

var genitiveMonths = map[string]time.Month{
	"января":   time.January,
	"февраля":  time.February,
	"марта":    time.March,
	"апреля":   time.April,
	"мая":      time.May,
	"июня":     time.June,
	"июля":     time.July,
	"августа":  time.August,
	"сентября": time.September,
	"октября":  time.October,
	"ноября":   time.November,
	"декабря":  time.December,
}

// dateExtractor always stamps the current calendar year; dates already past this
// year are not rolled forward.
type dateExtractor struct {
	now func() time.Time
}

func NewDateExtractor(now func() time.Time) Extractor {
	if now == nil {
		now = time.Now
	}
	return &dateExtractor{now: now}
}

func (e *dateExtractor) Extract(message string, _ Name) Update {
	lower := strings.ToLower(message)
	year := e.now().Year()

	if m := monthDatePattern.FindStringSubmatch(lower); m != nil {
		day, _ := strconv.Atoi(m[1])
		return dateUpdate(day, genitiveMonths[m[2]], year)
	}
	if m := numericDatePattern.FindStringSubmatch(lower); m != nil {
		day, _ := strconv.Atoi(m[1])
		month, _ := strconv.Atoi(m[2])
		return dateUpdate(day, time.Month(month), year)
	}
	return Update{}
}

func dateUpdate(day int, month time.Month, year int) Update {
	if month < time.January || month > time.December || day < 1 {
		return Update{}
	}
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if t.Day() != day || t.Month() != month {
		return Update{}
	}
	return Update{Date: strPtr(fmt.Sprintf("%02d-%02d-%d", day, int(month), year))}
}
