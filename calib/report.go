package calib

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/stat"
)

// Report summarizes how well a calibration explains the data it was (or could
// have been) fitted from.
type Report struct {
	N           int
	RSquared    float64
	RMSE        float64
	MaxResidual float64
}

// Summarize evaluates cal against points and reports the residual statistics.
// Returns an error for an unset calibration or an empty point set.
func Summarize(points []Point, cal Calibration) (Report, error) {
	if !cal.Valid {
		return Report{}, ErrNotCalibrated
	}
	if len(points) == 0 {
		return Report{}, fmt.Errorf("no points to summarize")
	}

	values := make([]float64, len(points))
	estimates := make([]float64, len(points))
	var sumSq, maxAbs float64
	for i, p := range points {
		values[i] = p.Reference
		estimates[i] = cal.Slope*p.Raw + cal.Offset
		r := p.Reference - estimates[i]
		sumSq += r * r
		if a := math.Abs(r); a > maxAbs {
			maxAbs = a
		}
	}

	return Report{
		N:           len(points),
		RSquared:    stat.RSquaredFrom(estimates, values, nil),
		RMSE:        math.Sqrt(sumSq / float64(len(points))),
		MaxResidual: maxAbs,
	}, nil
}
