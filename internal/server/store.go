package server

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"sync"
	"time"

	"github.com/CK6170/Sensorcal-go/calib"
)

// Record is one stored calibration, carrying the fit report when it came
// from a fit rather than an upload or manual edit.
type Record struct {
	ID        string
	Name      string
	Cal       calib.Calibration
	Report    *calib.Report
	CreatedAt time.Time
}

// Store keeps calibration records in memory and tracks which one is current.
// Nothing here is durable; clients download the text form to persist.
type Store struct {
	mu      sync.RWMutex
	m       map[string]*Record
	current string
}

func NewStore() *Store {
	return &Store{m: make(map[string]*Record)}
}

// Put stores a new record and makes it current.
func (s *Store) Put(name string, cal calib.Calibration, report *calib.Report) (*Record, error) {
	if !cal.Valid {
		return nil, calib.ErrNotCalibrated
	}
	id, err := newID()
	if err != nil {
		return nil, err
	}
	rec := &Record{ID: id, Name: name, Cal: cal, Report: report, CreatedAt: time.Now()}
	s.mu.Lock()
	s.m[id] = rec
	s.current = id
	s.mu.Unlock()
	return rec, nil
}

func (s *Store) Get(id string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.m[id]
	return r, ok
}

// Current returns the active record, or false while nothing has been fitted,
// uploaded, or set.
func (s *Store) Current() (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.current == "" {
		return nil, false
	}
	r, ok := s.m[s.current]
	return r, ok
}

// SetCurrent switches the active record to an existing ID.
func (s *Store) SetCurrent(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.m[id]; !ok {
		return fmt.Errorf("no record %q", id)
	}
	s.current = id
	return nil
}

func newID() (string, error) {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", fmt.Errorf("rand: %w", err)
	}
	return hex.EncodeToString(b[:]), nil
}
