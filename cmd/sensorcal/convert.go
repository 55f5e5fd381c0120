package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/CK6170/Sensorcal-go/calib"
)

func NewConvertCommand() *cobra.Command {
	var calPath string

	cmd := &cobra.Command{
		Use:   "convert <raw>...",
		Short: "Convert raw readings using a saved calibration",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cal, err := calib.Load(calPath)
			if err != nil {
				return err
			}
			for _, arg := range args {
				raw, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return fmt.Errorf("invalid raw reading %q", arg)
				}
				value, err := cal.Convert(raw)
				if err != nil {
					return err
				}
				cmd.Printf("%.4f\n", value)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&calPath, "cal", "c", "calibration.txt", "calibration file to apply")
	return cmd
}
