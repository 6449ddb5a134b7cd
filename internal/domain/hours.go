package domain

import "math"

const (
	// StandardHours is the regular shift (7h45m).
	StandardHours = 7.75
	// OvertimeThreshold is where bolsa hours stop and extra hours start.
	OvertimeThreshold = 10.0
)

// HourBuckets splits a day's total into regular, bolsa and extra hours.
type HourBuckets struct {
	Total   float64
	Regular float64
	Bolsa   float64
	Extra   float64
}

// SplitHours applies the bolsa/extra rules to total. Bolsa and extra values
// are rounded half away from zero to two decimals because they are written
// verbatim into the report.
func SplitHours(total float64) HourBuckets {
	b := HourBuckets{Total: total, Regular: math.Min(total, StandardHours)}
	switch {
	case total <= StandardHours:
	case total <= OvertimeThreshold:
		b.Bolsa = Round2(total - StandardHours)
	default:
		b.Bolsa = Round2(OvertimeThreshold - StandardHours)
		b.Extra = Round2(total - OvertimeThreshold)
	}
	return b
}

// Round2 rounds to two decimals, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
