package telemetry

import "strings"

// Enrich fills identity fields the simulator could not provide from a stored
// flight plan. Live values that are neither blank nor a sentinel are kept.
func Enrich(s Snapshot, plan *FlightPlan) Snapshot {
	if plan == nil {
		return s
	}
	if blank(s.DepartureICAO) && plan.DepartureICAO != "" {
		s.DepartureICAO = plan.DepartureICAO
	}
	if blank(s.ArrivalICAO) && plan.ArrivalICAO != "" {
		s.ArrivalICAO = plan.ArrivalICAO
	}
	if (blank(s.Callsign) || s.Callsign == UnknownCallsign) && plan.Callsign != "" {
		s.Callsign = plan.Callsign
	}
	if (blank(s.AircraftICAO) || s.AircraftICAO == UnknownAircraft) && plan.AircraftICAO != "" {
		s.AircraftICAO = truncate(plan.AircraftICAO, 4)
	}
	return s
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
