// README: Slot names, slot state, partial updates and the closed vocabularies of the dialog.
package slots

import (
	"strconv"
	"strings"
)

type Name string

const (
	FromCity      Name = "from_city"
	ToCity        Name = "to_city"
	Date          Name = "date"
	Passengers    Name = "passengers"
	TransportType Name = "transport_type"
)

// Order is the fixed order in which missing slots are asked for.
var Order = []Name{FromCity, ToCity, Date, Passengers, TransportType}

// DateLayout is the representation of the date slot.
const DateLayout = "02-01-2006"

// Transport is stored in the label form the user typed it in.
type Transport string

const (
	TransportTrain    Transport = "поезд"
	TransportBus      Transport = "автобус"
	TransportAirplane Transport = "самолет"
)

var transportCodes = map[Transport]string{
	TransportTrain:    "train",
	TransportBus:      "bus",
	TransportAirplane: "airplane",
}

// Code returns the catalog code for the label, or "" for an unknown label.
func (t Transport) Code() string {
	return transportCodes[t]
}

func (t Transport) Valid() bool {
	_, ok := transportCodes[t]
	return ok
}

// TransportFromAny accepts a label ("поезд", "самолёт") or a code ("train").
func TransportFromAny(v string) (Transport, bool) {
	v = strings.ToLower(strings.TrimSpace(v))
	for label, code := range transportCodes {
		if v == string(label) || v == code {
			return label, true
		}
	}
	if v == "самолёт" || v == "plane" {
		return TransportAirplane, true
	}
	return "", false
}

// State is the per-session slot record plus the dialog-mode flags.
type State struct {
	FromCity          string    `json:"from_city,omitempty"`
	ToCity            string    `json:"to_city,omitempty"`
	Date              string    `json:"date,omitempty"`
	Passengers        int       `json:"passengers,omitempty"`
	TransportType     Transport `json:"transport_type,omitempty"`
	CorrectionMode    bool      `json:"correction_mode,omitempty"`
	ConfirmationStage bool      `json:"confirmation_stage,omitempty"`
	CityCandidate     string    `json:"city_candidate,omitempty"`
	CityCandidateType Name      `json:"city_candidate_type,omitempty"`
}

// Missing returns the first empty slot in Order.
func (s State) Missing() (Name, bool) {
	for _, n := range Order {
		if !s.Filled(n) {
			return n, true
		}
	}
	return "", false
}

func (s State) Complete() bool {
	_, missing := s.Missing()
	return !missing
}

func (s State) Filled(n Name) bool {
	return s.Value(n) != ""
}

// Value renders a slot for summaries; empty means unset.
func (s State) Value(n Name) string {
	switch n {
	case FromCity:
		return s.FromCity
	case ToCity:
		return s.ToCity
	case Date:
		return s.Date
	case Passengers:
		if s.Passengers <= 0 {
			return ""
		}
		return strconv.Itoa(s.Passengers)
	case TransportType:
		return string(s.TransportType)
	}
	return ""
}

func (s *State) Clear(n Name) {
	switch n {
	case FromCity:
		s.FromCity = ""
	case ToCity:
		s.ToCity = ""
	case Date:
		s.Date = ""
	case Passengers:
		s.Passengers = 0
	case TransportType:
		s.TransportType = ""
	}
}

func (s State) HasCandidate() bool {
	return s.CityCandidate != ""
}

func (s *State) ClearCandidate() {
	s.CityCandidate = ""
	s.CityCandidateType = ""
}

// CommitCandidate moves the pending city into its slot. It reports false when the
// candidate does not name a city slot.
func (s *State) CommitCandidate() bool {
	switch s.CityCandidateType {
	case FromCity:
		s.FromCity = s.CityCandidate
	case ToCity:
		s.ToCity = s.CityCandidate
	default:
		return false
	}
	s.ClearCandidate()
	return true
}

// Apply merges the non-nil fields of u into a copy of s.
func (s State) Apply(u Update) State {
	if u.FromCity != nil {
		s.FromCity = *u.FromCity
	}
	if u.ToCity != nil {
		s.ToCity = *u.ToCity
	}
	if u.Date != nil {
		s.Date = *u.Date
	}
	if u.Passengers != nil {
		s.Passengers = *u.Passengers
	}
	if u.TransportType != nil {
		s.TransportType = *u.TransportType
	}
	if u.CityCandidate != nil {
		s.CityCandidate = *u.CityCandidate
		s.CityCandidateType = u.CityCandidateType
	}
	return s
}

// Update is a proposed partial change produced by extraction. Nil means "no value found".
type Update struct {
	FromCity          *string
	ToCity            *string
	Date              *string
	Passengers        *int
	TransportType     *Transport
	CityCandidate     *string
	CityCandidateType Name
}

// Merge overlays next on u; fields set in next win.
func (u Update) Merge(next Update) Update {
	if next.FromCity != nil {
		u.FromCity = next.FromCity
	}
	if next.ToCity != nil {
		u.ToCity = next.ToCity
	}
	if next.Date != nil {
		u.Date = next.Date
	}
	if next.Passengers != nil {
		u.Passengers = next.Passengers
	}
	if next.TransportType != nil {
		u.TransportType = next.TransportType
	}
	if next.CityCandidate != nil {
		u.CityCandidate = next.CityCandidate
		u.CityCandidateType = next.CityCandidateType
	}
	return u
}

func (u Update) Empty() bool {
	return u.FromCity == nil && u.ToCity == nil && u.Date == nil &&
		u.Passengers == nil && u.TransportType == nil && u.CityCandidate == nil
}

// Answer is a yes/no reply to a confirmation question.
type Answer int

const (
	AnswerOther Answer = iota
	AnswerYes
	AnswerNo
)

var answers = map[string]Answer{
	"да":  AnswerYes,
	"yes": AnswerYes,
	"нет": AnswerNo,
	"no":  AnswerNo,
}

func ParseAnswer(message string) Answer {
	return answers[strings.ToLower(strings.TrimSpace(message))]
}

var correctionTargets = map[string]Name{
	"город отправления":     FromCity,
	"город прибытия":        ToCity,
	"дата":                  Date,
	"количество пассажиров": Passengers,
	"тип транспорта":        TransportType,
}

// CorrectionTarget maps the phrase a user names a slot by to the slot.
func CorrectionTarget(message string) (Name, bool) {
	n, ok := correctionTargets[strings.ToLower(strings.TrimSpace(message))]
	return n, ok
}

func strPtr(s string) *string { return &s }
