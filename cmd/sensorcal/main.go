package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/CK6170/Sensorcal-go/calib"
)

var (
	serialPort   string
	serialBaud   int
	sampleIgnore int
	sampleAvg    int
)

func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sensorcal [calibration.txt]",
		Short: "Interactive sensor calibration tool",
		Long: `Fits a linear calibration (real = slope * raw + offset) from measured
data points, converts raw readings, and saves/loads the coefficients as a
two-line text file.

Run without a subcommand for the interactive UI. A calibration file given as
an argument is loaded at startup. With --port set (or --port auto), raw
readings can be sampled straight from a serial-attached sensor with Ctrl+S.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(_ *cobra.Command, args []string) error {
			m := initialModel()
			if len(args) > 0 {
				cal, err := calib.Load(args[0])
				if err != nil {
					m.lastErr = err
				} else {
					m.cal = cal
					m.infoLine = fmt.Sprintf("Loaded calibration from '%s'", args[0])
				}
			}
			p := tea.NewProgram(m, tea.WithAltScreen())
			_, err := p.Run()
			return err
		},
	}

	cmd.PersistentFlags().StringVar(&serialPort, "port", "", "serial port of the sensor ('auto' to scan)")
	cmd.PersistentFlags().IntVar(&serialBaud, "baud", 115200, "serial baud rate")
	cmd.PersistentFlags().IntVar(&sampleIgnore, "ignore", 3, "readings to discard before averaging a sample")
	cmd.PersistentFlags().IntVar(&sampleAvg, "avg", 10, "readings to average per sample")

	cmd.AddCommand(NewFitCommand())
	cmd.AddCommand(NewConvertCommand())
	return cmd
}

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
