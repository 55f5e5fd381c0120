package device

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	readings []float64
	pos      int
}

func (f *fakeSource) ReadRaw() (float64, error) {
	if f.pos >= len(f.readings) {
		return 0, io.EOF
	}
	v := f.readings[f.pos]
	f.pos++
	return v, nil
}

func TestAverageIgnoresThenAverages(t *testing.T) {
	// First two readings are settle noise and must not affect the average.
	src := &fakeSource{readings: []float64{999, -999, 10, 20, 30}}

	var updates []SampleUpdate
	avg, err := Average(context.Background(), src, 2, 3, func(u SampleUpdate) {
		updates = append(updates, u)
	})
	require.NoError(t, err)
	require.InDelta(t, 20.0, avg, 1e-12)

	// 2 ignore + 3 average + 1 finished
	require.Len(t, updates, 6)
	require.Equal(t, SamplePhaseIgnoring, updates[0].Phase)
	require.Equal(t, SamplePhaseAveraging, updates[2].Phase)
	last := updates[len(updates)-1]
	require.Equal(t, SamplePhaseFinished, last.Phase)
	require.InDelta(t, 20.0, last.Current, 1e-12)
}

func TestAverageNoIgnore(t *testing.T) {
	src := &fakeSource{readings: []float64{1, 2, 3, 4}}
	avg, err := Average(context.Background(), src, 0, 4, nil)
	require.NoError(t, err)
	require.InDelta(t, 2.5, avg, 1e-12)
}

func TestAverageSourceError(t *testing.T) {
	src := &fakeSource{readings: []float64{1}}
	_, err := Average(context.Background(), src, 0, 3, nil)
	require.ErrorIs(t, err, io.EOF)
}

func TestAverageCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	src := &fakeSource{readings: []float64{1, 2, 3}}
	_, err := Average(ctx, src, 0, 3, nil)
	require.ErrorIs(t, err, context.Canceled)
}

func TestAverageBadTargets(t *testing.T) {
	src := &fakeSource{readings: []float64{1, 2}}

	_, err := Average(context.Background(), src, 0, 0, nil)
	require.Error(t, err)

	// Negative ignore is clamped rather than rejected.
	avg, err := Average(context.Background(), src, -5, 2, nil)
	require.NoError(t, err)
	require.InDelta(t, 1.5, avg, 1e-12)
}

func TestAverageNilSource(t *testing.T) {
	_, err := Average(context.Background(), nil, 0, 1, nil)
	require.Error(t, err)
}
