package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	return NewService(ServiceParam{Log: zap.NewNop()}).(*Service)
}

func TestProjectNeedsThreePoints(t *testing.T) {
	svc := newTestService(t)

	assert.Empty(t, svc.Project(nil, 3))
	assert.Empty(t, svc.Project([]float64{100}, 3))
	assert.Empty(t, svc.Project([]float64{100, 200}, 3))
	assert.Empty(t, svc.Project([]float64{100, 200, 300}, 0))
}

func TestProjectLinearTrend(t *testing.T) {
	svc := newTestService(t)

	points := svc.Project([]float64{100, 200, 300, 400, 500, 600}, 3)
	require.Len(t, points, 3)

	assert.Equal(t, 1, points[0].Period)
	assert.Equal(t, 700.0, points[0].Forecast)
	assert.Equal(t, 800.0, points[1].Forecast)
	assert.Equal(t, 900.0, points[2].Forecast)
}

func TestProjectFlatSeries(t *testing.T) {
	svc := newTestService(t)

	points := svc.Project([]float64{500, 500, 500, 500}, 2)
	require.Len(t, points, 2)

	for _, p := range points {
		assert.Equal(t, 500.0, p.Forecast)
		assert.Equal(t, 500.0, p.LowerBound)
		assert.Equal(t, 500.0, p.UpperBound)
	}
	// no volatility penalty, so only the horizon discount applies
	assert.Equal(t, 82.0, points[0].Confidence)
	assert.Equal(t, 79.0, points[1].Confidence)
}

func TestProjectConfidenceDecaysWithHorizon(t *testing.T) {
	svc := newTestService(t)

	points := svc.Project([]float64{900, 1100, 950, 1050, 1000, 980}, 6)
	require.Len(t, points, 6)

	for i := 1; i < len(points); i++ {
		assert.GreaterOrEqual(t, points[i-1].Confidence, points[i].Confidence,
			"confidence must not rise further out")
	}
	for _, p := range points {
		assert.GreaterOrEqual(t, p.Confidence, 50.0)
		assert.LessOrEqual(t, p.Confidence, 85.0)
	}
}

func TestProjectConfidenceFloor(t *testing.T) {
	svc := newTestService(t)

	// volatile series maxes the stability penalty; long horizons then
	// bottom out at the floor instead of sliding further
	points := svc.Project([]float64{10, 2000, 5, 1800, 20}, 8)
	require.Len(t, points, 8)
	assert.Equal(t, 50.0, points[7].Confidence)
}

func TestProjectClampsNegativeForecasts(t *testing.T) {
	svc := newTestService(t)

	points := svc.Project([]float64{600, 400, 200, 50}, 4)
	require.Len(t, points, 4)

	for _, p := range points {
		assert.GreaterOrEqual(t, p.Forecast, 0.0)
		assert.GreaterOrEqual(t, p.LowerBound, 0.0)
	}
	assert.Equal(t, 0.0, points[3].Forecast)
}

func TestProjectBoundsBracketForecast(t *testing.T) {
	svc := newTestService(t)

	points := svc.Project([]float64{800, 1000, 900, 1100}, 3)
	for _, p := range points {
		assert.LessOrEqual(t, p.LowerBound, p.Forecast)
		assert.GreaterOrEqual(t, p.UpperBound, p.Forecast)
	}
}

func TestProjectUsesTrailingWindow(t *testing.T) {
	svc := newTestService(t)

	// an ancient spike outside the six-point window must not skew the fit
	withSpike := svc.Project([]float64{99999, 100, 200, 300, 400, 500, 600}, 1)
	clean := svc.Project([]float64{100, 200, 300, 400, 500, 600}, 1)
	require.Len(t, withSpike, 1)
	require.Len(t, clean, 1)
	assert.Equal(t, clean[0].Forecast, withSpike[0].Forecast)
}
