package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/CK6170/Sensorcal-go/calib"
)

func writeCSV(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "points.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestReadPointsCSV(t *testing.T) {
	path := writeCSV(t, "1,10\n2,20\n3,30\n")
	points, err := readPointsCSV(path)
	require.NoError(t, err)
	require.Equal(t, []calib.Point{{Raw: 1, Reference: 10}, {Raw: 2, Reference: 20}, {Raw: 3, Reference: 30}}, points)
}

func TestReadPointsCSVSkipsHeader(t *testing.T) {
	path := writeCSV(t, "raw,reference\n0,32\n100,212\n")
	points, err := readPointsCSV(path)
	require.NoError(t, err)
	require.Len(t, points, 2)

	cal, err := calib.Fit(points)
	require.NoError(t, err)
	require.InDelta(t, 1.8, cal.Slope, 1e-6)
	require.InDelta(t, 32.0, cal.Offset, 1e-6)
}

func TestReadPointsCSVBadField(t *testing.T) {
	path := writeCSV(t, "1,10\ntwo,20\n")
	_, err := readPointsCSV(path)
	require.Error(t, err)
}

func TestReadPointsCSVShortRow(t *testing.T) {
	path := writeCSV(t, "1\n")
	_, err := readPointsCSV(path)
	require.Error(t, err)
}

func TestReadPointsCSVMissingFile(t *testing.T) {
	_, err := readPointsCSV(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
}
