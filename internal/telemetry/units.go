package telemetry

import "math"

// Unit conversion factors. The fuel density is the jet fuel assumption used
// for every gallon-reporting simulator.
const (
	MetersPerSecondToKnots = 1.94384
	FeetPerSecondToKnots   = 0.592484
	MetersPerSecondToFpm   = 196.85
	FeetPerMeter           = 3.28084
	LitresPerGallon        = 3.78541
	JetFuelKgPerLitre      = 0.8
	KgPerPound             = 0.453592
)

// GallonsToKg converts a fuel volume to mass.
func GallonsToKg(gal float64) float64 {
	return gal * LitresPerGallon * JetFuelKgPerLitre
}

// PoundsToKg converts a fuel weight in pounds to kilograms.
func PoundsToKg(lb float64) float64 {
	return lb * KgPerPound
}

// NonNegative clamps v to zero from below.
func NonNegative(v float64) float64 {
	return math.Max(v, 0)
}

// NormalizeHeading maps any heading into [0,360).
func NormalizeHeading(h float64) float64 {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	return h
}
