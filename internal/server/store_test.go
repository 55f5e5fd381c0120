package server

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CK6170/Sensorcal-go/calib"
)

func TestStoreCurrentFollowsPut(t *testing.T) {
	s := NewStore()

	_, ok := s.Current()
	require.False(t, ok)

	first, err := s.Put("a", calib.Calibration{Slope: 1, Valid: true}, nil)
	require.NoError(t, err)
	second, err := s.Put("b", calib.Calibration{Slope: 2, Valid: true}, nil)
	require.NoError(t, err)
	require.NotEqual(t, first.ID, second.ID)

	cur, ok := s.Current()
	require.True(t, ok)
	require.Equal(t, second.ID, cur.ID)

	require.NoError(t, s.SetCurrent(first.ID))
	cur, ok = s.Current()
	require.True(t, ok)
	require.Equal(t, "a", cur.Name)

	require.Error(t, s.SetCurrent("missing"))
}

func TestStoreRejectsUnset(t *testing.T) {
	s := NewStore()
	_, err := s.Put("bad", calib.Calibration{}, nil)
	require.ErrorIs(t, err, calib.ErrNotCalibrated)
}

func TestStoreGet(t *testing.T) {
	s := NewStore()
	rec, err := s.Put("x", calib.Calibration{Slope: 3, Offset: 4, Valid: true}, nil)
	require.NoError(t, err)

	got, ok := s.Get(rec.ID)
	require.True(t, ok)
	require.Equal(t, 3.0, got.Cal.Slope)

	_, ok = s.Get("missing")
	require.False(t, ok)
}
