package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smazurov/livecast/internal/devices"
)

// CreateCamerasCmd creates the cameras command.
func CreateCamerasCmd() *cobra.Command {
	return newCamerasCmd(devices.NewDetector)
}

func newCamerasCmd(newDetector func() devices.DeviceDetector) *cobra.Command {
	return &cobra.Command{
		Use:   "cameras",
		Short: "List detected cameras",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			found, err := newDetector().FindDevices()
			if err != nil {
				return fmt.Errorf("find cameras: %w", err)
			}
			if len(found) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No cameras found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "PATH\tNAME\tFACING\tID")
			for _, d := range found {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.DevicePath, d.DeviceName, devices.InferFacing(d.DeviceName), d.DeviceID)
			}
			return w.Flush()
		},
	}
}
