// README: Routing table; the first matching rule owns the turn.
package dialog

import "tripchat/internal/modules/slots"

type rule struct {
	route Route
	when  func(slots.State) bool
}

// routingRules is ordered by priority: pending city, correction, final
// confirmation, completeness, missing slot.
var routingRules = []rule{
	{RouteCityConfirmation, func(s slots.State) bool { return s.HasCandidate() }},
	{RouteCorrecting, func(s slots.State) bool { return s.CorrectionMode }},
	{RouteFinalConfirmation, func(s slots.State) bool { return s.ConfirmationStage }},
	{RouteAllFilled, func(s slots.State) bool { return s.Complete() }},
	{RouteAskingSlot, func(s slots.State) bool { _, missing := s.Missing(); return missing }},
}

// RouteFor picks the route for a state, or RouteFallback when no rule matches.
func RouteFor(s slots.State) Route {
	for _, r := range routingRules {
		if r.when(s) {
			return r.route
		}
	}
	return RouteFallback
}
