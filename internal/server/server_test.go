package server

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)
	ts := httptest.NewServer(New(log, "").Handler())
	t.Cleanup(ts.Close)
	return ts
}

func postJSON(t *testing.T, url string, body interface{}) *http.Response {
	t.Helper()
	b, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(url, "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
}

func TestFitAndConvert(t *testing.T) {
	ts := newTestServer(t)

	resp := postJSON(t, ts.URL+"/api/fit", fitRequest{
		Name: "bench",
		Points: []pointPayload{
			{Raw: 1, Reference: 10},
			{Raw: 2, Reference: 20},
			{Raw: 3, Reference: 30},
		},
	})
	require.Equal(t, 200, resp.StatusCode)
	var cal calibrationResponse
	decode(t, resp, &cal)
	require.InDelta(t, 10.0, cal.Slope, 1e-6)
	require.InDelta(t, 0.0, cal.Offset, 1e-6)
	require.NotNil(t, cal.Report)
	require.InDelta(t, 1.0, cal.Report.RSquared, 1e-9)

	raw := 4.0
	resp = postJSON(t, ts.URL+"/api/convert", convertRequest{Raw: &raw})
	require.Equal(t, 200, resp.StatusCode)
	var conv convertResponse
	decode(t, resp, &conv)
	require.Len(t, conv.Values, 1)
	require.InDelta(t, 40.0, conv.Values[0], 1e-6)
}

func TestFitDegenerate(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/fit", fitRequest{
		Points: []pointPayload{{Raw: 5, Reference: 1}, {Raw: 5, Reference: 2}},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
}

func TestFitTooFewPoints(t *testing.T) {
	ts := newTestServer(t)
	resp := postJSON(t, ts.URL+"/api/fit", fitRequest{
		Points: []pointPayload{{Raw: 1, Reference: 1}},
	})
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestConvertWithoutCalibration(t *testing.T) {
	ts := newTestServer(t)
	raw := 1.0
	resp := postJSON(t, ts.URL+"/api/convert", convertRequest{Raw: &raw})
	defer resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Post(ts.URL+"/api/upload", "text/plain",
		strings.NewReader("1.8000000000\n32.0000000000\n"))
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	var cal calibrationResponse
	decode(t, resp, &cal)
	require.InDelta(t, 1.8, cal.Slope, 1e-9)

	resp, err = http.Get(ts.URL + "/api/download")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, "1.8000000000\n32.0000000000\n", string(body))
}

func TestUploadMalformed(t *testing.T) {
	ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/upload", "text/plain", strings.NewReader("1.5"))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCalibrationGetPut(t *testing.T) {
	ts := newTestServer(t)

	resp, err := http.Get(ts.URL + "/api/calibration")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	req, err := http.NewRequest(http.MethodPut, ts.URL+"/api/calibration",
		strings.NewReader(`{"name":"manual","slope":2.5,"offset":-1}`))
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/api/calibration")
	require.NoError(t, err)
	require.Equal(t, 200, resp.StatusCode)
	var cal calibrationResponse
	decode(t, resp, &cal)
	require.Equal(t, "manual", cal.Name)
	require.Equal(t, 2.5, cal.Slope)
	require.Equal(t, -1.0, cal.Offset)
}
