package telemetry

import "math"

// FlightPhase is a coarse classification of what the aircraft is doing.
type FlightPhase string

const (
	PhaseParked      FlightPhase = "PARKED"
	PhaseTaxi        FlightPhase = "TAXI"
	PhaseTakeoffRoll FlightPhase = "TAKEOFF_ROLL"
	PhaseClimb       FlightPhase = "CLIMB"
	PhaseCruise      FlightPhase = "CRUISE"
	PhaseDescent     FlightPhase = "DESCENT"
	PhaseApproach    FlightPhase = "APPROACH"
	PhaseEnRoute     FlightPhase = "EN_ROUTE"
)

// Phase derives the flight phase from a single snapshot. Checks run in
// order; the first match wins.
func Phase(s Snapshot) FlightPhase {
	gs, alt, vs := s.GroundSpeed, s.Altitude, s.VerticalSpeed

	if s.OnGround {
		switch {
		case gs < 5:
			return PhaseParked
		case gs < 30:
			return PhaseTaxi
		default:
			return PhaseTakeoffRoll
		}
	}

	switch {
	case alt < 10000 && vs > 300:
		return PhaseClimb
	case alt >= 10000 && vs > 200:
		return PhaseClimb
	case math.Abs(vs) < 200:
		return PhaseCruise
	case vs < -300 && alt > 3000:
		return PhaseDescent
	case alt <= 3000 && vs < -200:
		return PhaseApproach
	default:
		return PhaseEnRoute
	}
}
