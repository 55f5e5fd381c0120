package calib

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
)

// ErrMalformed is wrapped by Parse errors so callers can tell a bad file body
// apart from a file that could not be opened at all.
var ErrMalformed = errors.New("malformed calibration data")

// Parse reads a calibration from its text form: two whitespace-separated
// decimal numbers, slope first, then offset. Anything after the second number
// is ignored. strconv's float syntax applies, so signs, decimal points and
// exponents are all accepted.
func Parse(r io.Reader) (Calibration, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)

	read := func(name string) (float64, error) {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return 0, err
			}
			return 0, fmt.Errorf("%w: missing %s", ErrMalformed, name)
		}
		v, err := strconv.ParseFloat(sc.Text(), 64)
		if err != nil {
			return 0, fmt.Errorf("%w: bad %s %q", ErrMalformed, name, sc.Text())
		}
		return v, nil
	}

	slope, err := read("slope")
	if err != nil {
		return Calibration{}, err
	}
	offset, err := read("offset")
	if err != nil {
		return Calibration{}, err
	}
	return Calibration{Slope: slope, Offset: offset, Valid: true}, nil
}

// Write emits the calibration in its text form, slope and offset each on its
// own line with 10 fractional digits. The format is locale-independent.
func (c Calibration) Write(w io.Writer) error {
	if !c.Valid {
		return ErrNotCalibrated
	}
	_, err := fmt.Fprintf(w, "%.10f\n%.10f\n", c.Slope, c.Offset)
	return err
}

// Load reads a calibration file. Open failures come back as the original os
// error so callers can report "cannot open" separately from "cannot parse".
func Load(path string) (Calibration, error) {
	f, err := os.Open(path)
	if err != nil {
		return Calibration{}, err
	}
	defer f.Close()

	c, err := Parse(f)
	if err != nil {
		return Calibration{}, fmt.Errorf("%s: %w", path, err)
	}
	return c, nil
}

// Save writes the calibration to path, replacing any existing file.
func Save(path string, c Calibration) error {
	if !c.Valid {
		return ErrNotCalibrated
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := c.Write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	return f.Close()
}
