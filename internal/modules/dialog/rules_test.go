package dialog

import (
	"context"
	"testing"

	"tripchat/internal/modules/slots"
)

func TestRouteForPriority(t *testing.T) {
	full := slots.State{FromCity: "Минск", ToCity: "Москва", Date: "15-08-2026", Passengers: 2, TransportType: slots.TransportBus}
	withCandidate := func(s slots.State) slots.State {
		s.CityCandidate, s.CityCandidateType = "Минск", slots.FromCity
		return s
	}

	cases := []struct {
		name  string
		state slots.State
		want  Route
	}{
		{"empty", slots.State{}, RouteAskingSlot},
		{"partial", slots.State{FromCity: "Минск"}, RouteAskingSlot},
		{"complete", full, RouteAllFilled},
		{"confirmation", func() slots.State { s := full; s.ConfirmationStage = true; return s }(), RouteFinalConfirmation},
		{"correction beats confirmation", func() slots.State {
			s := full
			s.ConfirmationStage, s.CorrectionMode = true, true
			return s
		}(), RouteCorrecting},
		{"candidate beats confirmation", func() slots.State {
			s := withCandidate(full)
			s.ConfirmationStage = true
			return s
		}(), RouteCityConfirmation},
		{"candidate beats correction", func() slots.State {
			s := withCandidate(slots.State{})
			s.CorrectionMode = true
			return s
		}(), RouteCityConfirmation},
	}
	for _, tc := range cases {
		if got := RouteFor(tc.state); got != tc.want {
			t.Errorf("%s: RouteFor = %s, want %s", tc.name, got, tc.want)
		}
	}
}

func TestCandidateWithConfirmationStageNeverBooks(t *testing.T) {
	h := newHarness(t)
	sess, _ := h.sessions.Create(context.Background(), slots.State{
		FromCity: "Минск", ToCity: "Москва", Date: "15-08-2026", Passengers: 2,
		TransportType: slots.TransportTrain, ConfirmationStage: true,
		CityCandidate: "Брест", CityCandidateType: slots.ToCity,
	})
	h.id = sess.ID

	r := h.send(t, "да")
	if r.Finished || len(h.bookings.created) != 0 {
		t.Fatalf("yes to a city question booked the trip: %+v", r)
	}
	if !r.Confirmation {
		t.Fatalf("reply = %+v, want summary after the city is committed", r)
	}
	if st := h.sessions.state(t, h.id); st.ToCity != "Брест" {
		t.Fatalf("to_city = %q, want Брест", st.ToCity)
	}
}
