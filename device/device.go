// Package device captures raw readings from a sensor attached over a serial
// port. The expected wire format is one decimal number per line, which is
// what the bench sensors this tool is used with emit in their debug mode.
package device

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"
	"time"

	goserial "github.com/tarm/serial"
)

// Config describes the serial link. Zero ReadTimeout gets a sane default.
type Config struct {
	Port        string
	Baud        int
	ReadTimeout time.Duration
}

// Session is an open serial link delivering raw readings.
type Session struct {
	cfg  Config
	port *goserial.Port
	sc   *bufio.Scanner
}

// Connect opens the configured serial port (8N1, matching the sensor
// firmware) and returns a reading session.
func Connect(cfg Config) (*Session, error) {
	if strings.TrimSpace(cfg.Port) == "" {
		return nil, fmt.Errorf("serial port not set")
	}
	if cfg.Baud <= 0 {
		return nil, fmt.Errorf("invalid baud rate %d", cfg.Baud)
	}
	if cfg.ReadTimeout <= 0 {
		cfg.ReadTimeout = 300 * time.Millisecond
	}
	port, err := goserial.OpenPort(&goserial.Config{
		Name:        cfg.Port,
		Baud:        cfg.Baud,
		Parity:      goserial.ParityNone,
		Size:        8,
		StopBits:    goserial.Stop1,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Port, err)
	}
	return &Session{cfg: cfg, port: port, sc: bufio.NewScanner(port)}, nil
}

// Port reports the device path the session is connected on.
func (s *Session) Port() string { return s.cfg.Port }

func (s *Session) Close() error {
	if s == nil || s.port == nil {
		return nil
	}
	return s.port.Close()
}

// ReadRaw returns the next parseable reading from the device. Non-numeric
// lines (boot banners, status chatter) are skipped; a stalled or disconnected
// device surfaces as an error once the read timeout drains the scanner.
func (s *Session) ReadRaw() (float64, error) {
	for s.sc.Scan() {
		line := strings.TrimSpace(s.sc.Text())
		if line == "" {
			continue
		}
		v, err := strconv.ParseFloat(line, 64)
		if err != nil {
			continue
		}
		return v, nil
	}
	if err := s.sc.Err(); err != nil {
		return 0, fmt.Errorf("read %s: %w", s.cfg.Port, err)
	}
	return 0, fmt.Errorf("no reading from %s", s.cfg.Port)
}
