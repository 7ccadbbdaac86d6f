// Package domain defines the revenue forecast output. The projection is a
// heuristic linear trend over recent months, not a statistical guarantee;
// callers should treat the bounds and confidence as planning hints.
package domain

// Point is one projected future period.
type Point struct {
	Period     int     `json:"period"`
	Forecast   float64 `json:"forecast"`
	LowerBound float64 `json:"lower_bound"`
	UpperBound float64 `json:"upper_bound"`
	// Confidence is on a 50-85 scale and decreases both with forecast
	// distance and with the volatility of the input series.
	Confidence float64 `json:"confidence"`
}

type Service interface {
	// Project forecasts the next periods from a chronological monthly
	// revenue series. Fewer than three input points produce an empty
	// result; that is an expected condition, not an error.
	Project(series []float64, periods int) []Point
}
