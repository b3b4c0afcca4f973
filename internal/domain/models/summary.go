// internal/domain/models/summary.go
package models

import "strconv"

// Summary holds the statistics derived from one infection curve.
type Summary struct {
	PeakInfections     float64 `bson:"peak_infections" json:"peakInfections"`
	DayOfPeak          int     `bson:"day_of_peak" json:"dayOfPeak"`
	TotalInfections    float64 `bson:"total_infections" json:"totalInfections"`
	PercentageInfected string  `bson:"percentage_infected" json:"percentageInfected"`
}

// Summarize derives the summary for curve given the population size and the
// number of simulated days from the request. DayOfPeak is the first index
// holding the maximum. The percentage is "0.00" whenever the denominator or
// the curve is empty.
func Summarize(curve []float64, population, days float64) Summary {
	s := Summary{PercentageInfected: "0.00"}
	if len(curve) == 0 {
		return s
	}

	s.PeakInfections = curve[0]
	for i, v := range curve {
		if v > s.PeakInfections {
			s.PeakInfections = v
			s.DayOfPeak = i
		}
		s.TotalInfections += v
	}

	if days > 0 && population > 0 {
		pct := s.TotalInfections / (population * days) * 100
		s.PercentageInfected = strconv.FormatFloat(pct, 'f', 2, 64)
	}
	return s
}

// FormatNumber renders a float without trailing zeros ("12", "0.01").
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
