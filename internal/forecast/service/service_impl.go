package service

import (
	"math"

	"go.uber.org/fx"
	"go.uber.org/zap"

	forecastdomain "github.com/municipay/municipay/internal/forecast/domain"
	"github.com/municipay/municipay/pkg/money"
)

const (
	minimumPoints    = 3
	regressionWindow = 6
	baseConfidence   = 85.0
	floorConfidence  = 50.0
	maxStabilityPen  = 20.0
	stepPenalty      = 3.0
)

type Service struct {
	log *zap.Logger
}

type ServiceParam struct {
	fx.In

	Log *zap.Logger
}

func NewService(p ServiceParam) forecastdomain.Service {
	return &Service{log: p.Log.Named("forecast.service")}
}

func (s *Service) Project(series []float64, periods int) []forecastdomain.Point {
	if len(series) < minimumPoints || periods <= 0 {
		return []forecastdomain.Point{}
	}

	window := regressionWindow
	if len(series) < window {
		window = len(series)
	}
	values := series[len(series)-window:]

	slope, intercept := fitLine(values)
	stdDev := stdDeviation(values)
	stability := stabilityPenalty(values, stdDev)

	points := make([]forecastdomain.Point, 0, periods)
	for step := 1; step <= periods; step++ {
		forecast := money.ClampNonNegative(money.Round2(intercept + slope*float64(window+step)))

		confidence := baseConfidence - stability - stepPenalty*float64(step)
		if confidence < floorConfidence {
			confidence = floorConfidence
		}

		points = append(points, forecastdomain.Point{
			Period:     step,
			Forecast:   forecast,
			LowerBound: money.ClampNonNegative(money.Round2(forecast - stdDev)),
			UpperBound: money.Round2(forecast + stdDev),
			Confidence: math.Round(confidence),
		})
	}
	return points
}

// fitLine runs ordinary least squares over index positions 1..n.
func fitLine(values []float64) (slope, intercept float64) {
	n := float64(len(values))
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range values {
		x := float64(i + 1)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0, sumY / n
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

func stdDeviation(values []float64) float64 {
	n := float64(len(values))
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / n
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return math.Sqrt(sq / n)
}

// stabilityPenalty scales with relative volatility, capped so a noisy
// series cannot push confidence below the floor on its own.
func stabilityPenalty(values []float64, stdDev float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	if mean == 0 {
		if stdDev == 0 {
			return 0
		}
		return maxStabilityPen
	}
	penalty := stdDev / mean * 100
	if penalty > maxStabilityPen {
		return maxStabilityPen
	}
	if penalty < 0 {
		return 0
	}
	return penalty
}
