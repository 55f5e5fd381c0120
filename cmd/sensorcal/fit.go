package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/CK6170/Sensorcal-go/calib"
)

func NewFitCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "fit <points.csv>",
		Short: "Fit a calibration from a CSV of raw,reference pairs",
		Long: `Fit a calibration headlessly from a CSV file.

Each row holds a raw reading followed by its reference value. A header row is
skipped when its first field is not numeric. At least two rows with distinct
raw readings are required.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			points, err := readPointsCSV(args[0])
			if err != nil {
				return err
			}
			cal, err := calib.Fit(points)
			if err != nil {
				return fmt.Errorf("fit %s: %w", args[0], err)
			}
			report, err := calib.Summarize(points, cal)
			if err != nil {
				return err
			}

			cmd.Printf("Slope:  %.10f\n", cal.Slope)
			cmd.Printf("Offset: %.10f\n", cal.Offset)
			cmd.Printf("R²:     %.6f  RMSE: %.6f  MaxResidual: %.6f  (n=%d)\n",
				report.RSquared, report.RMSE, report.MaxResidual, report.N)

			if outPath != "" {
				if err := calib.Save(outPath, cal); err != nil {
					return err
				}
				logrus.Infof("saved calibration to %s", outPath)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "write the fitted calibration to this file")
	return cmd
}

func readPointsCSV(path string) ([]calib.Point, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var points []calib.Point
	line := 0
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		line++
		if len(rec) < 2 {
			return nil, fmt.Errorf("%s line %d: need raw,reference", path, line)
		}
		raw, rawErr := strconv.ParseFloat(rec[0], 64)
		ref, refErr := strconv.ParseFloat(rec[1], 64)
		if rawErr != nil || refErr != nil {
			if line == 1 {
				// header row
				continue
			}
			return nil, fmt.Errorf("%s line %d: non-numeric field", path, line)
		}
		points = append(points, calib.Point{Raw: raw, Reference: ref})
	}
	return points, nil
}
