// Package calib fits and applies linear sensor calibrations of the form
//
//	real value = Slope * raw reading + Offset
//
// The package holds no state of its own: Fit returns a fresh Calibration and
// the caller decides whether to replace whatever record it currently holds.
package calib

import (
	"errors"
	"fmt"
	"math"
)

// MinPoints is the smallest data set a fit accepts.
const MinPoints = 2

// degenerateTol is the absolute tolerance on the least-squares denominator.
// Kept at the historical value for file/behavior compatibility, even though
// an absolute test is scale-dependent for very large raw readings.
const degenerateTol = 1e-10

var (
	// ErrNotCalibrated is returned when a conversion or save is attempted
	// before any calibration has been fitted or loaded.
	ErrNotCalibrated = errors.New("no calibration set")

	// ErrDegenerate is returned by Fit when all raw readings are numerically
	// identical, leaving the slope undefined.
	ErrDegenerate = errors.New("all raw readings are identical")

	// ErrTooFewPoints is returned by Fit for data sets smaller than MinPoints.
	ErrTooFewPoints = fmt.Errorf("need at least %d data points", MinPoints)
)

// Point pairs one raw sensor reading with the reference value measured for it.
type Point struct {
	Raw       float64
	Reference float64
}

// Calibration is the pair of coefficients mapping raw readings to real values.
// The zero value is an unset record: Valid is false and Convert refuses it.
type Calibration struct {
	Slope  float64
	Offset float64
	Valid  bool
}

// Fit computes the least-squares line through the given points, with the raw
// reading on the x axis and the reference value on the y axis.
//
// It never mutates points and has no side effects; on error the caller's
// existing calibration is untouched because no record is produced at all.
func Fit(points []Point) (Calibration, error) {
	if len(points) < MinPoints {
		return Calibration{}, ErrTooFewPoints
	}

	var sumX, sumY, sumXY, sumX2 float64
	for _, p := range points {
		sumX += p.Raw
		sumY += p.Reference
		sumXY += p.Raw * p.Reference
		sumX2 += p.Raw * p.Raw
	}

	n := float64(len(points))
	numerator := n*sumXY - sumX*sumY
	denominator := n*sumX2 - sumX*sumX
	if math.Abs(denominator) < degenerateTol {
		return Calibration{}, ErrDegenerate
	}

	slope := numerator / denominator
	offset := (sumY - slope*sumX) / n
	return Calibration{Slope: slope, Offset: offset, Valid: true}, nil
}

// Convert maps a raw reading to its real-world value.
func (c Calibration) Convert(raw float64) (float64, error) {
	if !c.Valid {
		return 0, ErrNotCalibrated
	}
	return c.Slope*raw + c.Offset, nil
}

// String renders the calibration formula the way the tool displays it.
func (c Calibration) String() string {
	if !c.Valid {
		return "not calibrated"
	}
	return fmt.Sprintf("real = %.4f * raw + %.4f", c.Slope, c.Offset)
}
