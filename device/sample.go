package device

import (
	"context"
	"fmt"
)

// Source is anything that can produce raw readings one at a time.
type Source interface {
	ReadRaw() (float64, error)
}

type SamplePhase string

const (
	SamplePhaseIgnoring  SamplePhase = "ignoring"
	SamplePhaseAveraging SamplePhase = "averaging"
	SamplePhaseFinished  SamplePhase = "finished"
)

type SampleUpdate struct {
	Phase        SamplePhase
	IgnoreDone   int
	IgnoreTarget int
	AvgDone      int
	AvgTarget    int
	// Most recent raw reading, or the final average when Phase == finished.
	Current float64
}

// Average discards ignoreTarget readings to let the sensor settle, then
// averages avgTarget readings. It is UI-agnostic and cancellable; onUpdate
// (optional) is called after every reading with the current progress.
func Average(
	ctx context.Context,
	src Source,
	ignoreTarget int,
	avgTarget int,
	onUpdate func(SampleUpdate),
) (float64, error) {
	if src == nil {
		return 0, fmt.Errorf("no reading source")
	}
	if ignoreTarget < 0 {
		ignoreTarget = 0
	}
	if avgTarget <= 0 {
		return 0, fmt.Errorf("avgTarget must be > 0")
	}

	ignoreDone := 0
	for ignoreDone < ignoreTarget {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		v, err := src.ReadRaw()
		if err != nil {
			return 0, err
		}
		ignoreDone++
		if onUpdate != nil {
			onUpdate(SampleUpdate{
				Phase:        SamplePhaseIgnoring,
				IgnoreDone:   ignoreDone,
				IgnoreTarget: ignoreTarget,
				AvgTarget:    avgTarget,
				Current:      v,
			})
		}
	}

	var sum float64
	avgDone := 0
	for avgDone < avgTarget {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		default:
		}
		v, err := src.ReadRaw()
		if err != nil {
			return 0, err
		}
		avgDone++
		sum += v
		if onUpdate != nil {
			onUpdate(SampleUpdate{
				Phase:        SamplePhaseAveraging,
				IgnoreDone:   ignoreTarget,
				IgnoreTarget: ignoreTarget,
				AvgDone:      avgDone,
				AvgTarget:    avgTarget,
				Current:      v,
			})
		}
	}

	avg := sum / float64(avgTarget)
	if onUpdate != nil {
		onUpdate(SampleUpdate{
			Phase:        SamplePhaseFinished,
			IgnoreDone:   ignoreTarget,
			IgnoreTarget: ignoreTarget,
			AvgDone:      avgTarget,
			AvgTarget:    avgTarget,
			Current:      avg,
		})
	}
	return avg, nil
}
