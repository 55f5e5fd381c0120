package calib

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarizeExactFit(t *testing.T) {
	points := []Point{{0, 32}, {50, 122}, {100, 212}}
	cal, err := Fit(points)
	require.NoError(t, err)

	rep, err := Summarize(points, cal)
	require.NoError(t, err)
	require.Equal(t, 3, rep.N)
	require.InDelta(t, 1.0, rep.RSquared, 1e-9)
	require.InDelta(t, 0.0, rep.RMSE, 1e-9)
	require.InDelta(t, 0.0, rep.MaxResidual, 1e-9)
}

func TestSummarizeResiduals(t *testing.T) {
	// Unit slope, zero offset, one point off by 3.
	cal := Calibration{Slope: 1, Offset: 0, Valid: true}
	points := []Point{{1, 1}, {2, 2}, {3, 6}}

	rep, err := Summarize(points, cal)
	require.NoError(t, err)
	require.InDelta(t, 3.0, rep.MaxResidual, 1e-12)
	require.Greater(t, rep.RMSE, 0.0)
	require.Less(t, rep.RSquared, 1.0)
}

func TestSummarizeUnset(t *testing.T) {
	_, err := Summarize([]Point{{1, 1}, {2, 2}}, Calibration{})
	require.ErrorIs(t, err, ErrNotCalibrated)
}

func TestSummarizeNoPoints(t *testing.T) {
	_, err := Summarize(nil, Calibration{Slope: 1, Valid: true})
	require.Error(t, err)
}
