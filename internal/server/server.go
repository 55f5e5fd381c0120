// Package server exposes the calibration engine to a local browser frontend
// over a small HTTP API plus a WebSocket feed of calibration changes.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/CK6170/Sensorcal-go/calib"
)

type Server struct {
	mux   *http.ServeMux
	store *Store
	hub   *Hub
	log   *logrus.Logger
}

// New builds a server serving the API and, when webRoot is non-empty, a
// static frontend from that directory.
func New(log *logrus.Logger, webRoot string) *Server {
	if log == nil {
		log = logrus.StandardLogger()
	}
	s := &Server{
		mux:   http.NewServeMux(),
		store: NewStore(),
		hub:   NewHub(),
		log:   log,
	}

	// API
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/fit", s.handleFit)
	s.mux.HandleFunc("/api/convert", s.handleConvert)
	s.mux.HandleFunc("/api/calibration", s.handleCalibration)
	s.mux.HandleFunc("/api/upload", s.handleUpload)
	s.mux.HandleFunc("/api/download", s.handleDownload)

	// WS
	s.mux.HandleFunc("/ws", s.handleWS)

	// Static frontend
	if webRoot != "" {
		s.mux.Handle("/", http.FileServer(http.Dir(webRoot)))
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

type healthResponse struct {
	OK        bool      `json:"ok"`
	Timestamp time.Time `json:"timestamp"`
}

type pointPayload struct {
	Raw       float64 `json:"raw"`
	Reference float64 `json:"reference"`
}

type fitRequest struct {
	Name   string         `json:"name,omitempty"`
	Points []pointPayload `json:"points"`
}

type calibrationResponse struct {
	ID     string        `json:"id,omitempty"`
	Name   string        `json:"name,omitempty"`
	Slope  float64       `json:"slope"`
	Offset float64       `json:"offset"`
	Report *calib.Report `json:"report,omitempty"`
}

type convertRequest struct {
	Raw  *float64  `json:"raw,omitempty"`
	Raws []float64 `json:"raws,omitempty"`
}

type convertResponse struct {
	Values []float64 `json:"values"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func recordPayload(rec *Record) calibrationResponse {
	return calibrationResponse{
		ID:     rec.ID,
		Name:   rec.Name,
		Slope:  rec.Cal.Slope,
		Offset: rec.Cal.Offset,
		Report: rec.Report,
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, err error) {
	s.log.WithError(err).Warn("request failed")
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	b, err := io.ReadAll(io.LimitReader(r.Body, 2<<20))
	if err != nil {
		return err
	}
	return json.Unmarshal(b, v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	s.writeJSON(w, 200, healthResponse{OK: true, Timestamp: time.Now()})
}

func (s *Server) handleFit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req fitRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	points := make([]calib.Point, len(req.Points))
	for i, p := range req.Points {
		points[i] = calib.Point{Raw: p.Raw, Reference: p.Reference}
	}
	cal, err := calib.Fit(points)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, calib.ErrDegenerate) {
			status = http.StatusUnprocessableEntity
		}
		s.writeError(w, status, err)
		return
	}
	report, err := calib.Summarize(points, cal)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	rec, err := s.store.Put(req.Name, cal, &report)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.log.WithFields(logrus.Fields{
		"id":     rec.ID,
		"points": len(points),
		"slope":  cal.Slope,
		"offset": cal.Offset,
	}).Info("fitted calibration")
	s.broadcastCurrent(rec)
	s.writeJSON(w, 200, recordPayload(rec))
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	rec, ok := s.store.Current()
	if !ok {
		s.writeError(w, http.StatusConflict, calib.ErrNotCalibrated)
		return
	}
	var req convertRequest
	if err := s.readJSON(r, &req); err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	raws := req.Raws
	if req.Raw != nil {
		raws = append([]float64{*req.Raw}, raws...)
	}
	if len(raws) == 0 {
		s.writeError(w, http.StatusBadRequest, fmt.Errorf("no raw values given"))
		return
	}
	values := make([]float64, len(raws))
	for i, raw := range raws {
		v, err := rec.Cal.Convert(raw)
		if err != nil {
			s.writeError(w, http.StatusConflict, err)
			return
		}
		values[i] = v
	}
	s.writeJSON(w, 200, convertResponse{Values: values})
}

func (s *Server) handleCalibration(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		rec, ok := s.store.Current()
		if !ok {
			s.writeError(w, http.StatusNotFound, calib.ErrNotCalibrated)
			return
		}
		s.writeJSON(w, 200, recordPayload(rec))

	case http.MethodPut:
		var req calibrationResponse
		if err := s.readJSON(r, &req); err != nil {
			s.writeError(w, http.StatusBadRequest, err)
			return
		}
		cal := calib.Calibration{Slope: req.Slope, Offset: req.Offset, Valid: true}
		rec, err := s.store.Put(req.Name, cal, nil)
		if err != nil {
			s.writeError(w, http.StatusInternalServerError, err)
			return
		}
		s.log.WithField("id", rec.ID).Info("calibration set manually")
		s.broadcastCurrent(rec)
		s.writeJSON(w, 200, recordPayload(rec))

	default:
		http.NotFound(w, r)
	}
}

// handleUpload accepts the two-number text format as the request body.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	defer r.Body.Close()
	cal, err := calib.Parse(io.LimitReader(r.Body, 1<<16))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err)
		return
	}
	rec, err := s.store.Put(r.URL.Query().Get("name"), cal, nil)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err)
		return
	}
	s.log.WithField("id", rec.ID).Info("calibration uploaded")
	s.broadcastCurrent(rec)
	s.writeJSON(w, 200, recordPayload(rec))
}

// handleDownload returns the current calibration in the two-number text
// format, ready to be saved as calibration.txt.
func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.NotFound(w, r)
		return
	}
	rec, ok := s.store.Current()
	if !ok {
		s.writeError(w, http.StatusNotFound, calib.ErrNotCalibrated)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="calibration.txt"`)
	if err := rec.Cal.Write(w); err != nil {
		s.log.WithError(err).Warn("download write failed")
	}
}

func (s *Server) broadcastCurrent(rec *Record) {
	s.hub.Broadcast(Message{Type: "calibration", Data: recordPayload(rec)})
}
