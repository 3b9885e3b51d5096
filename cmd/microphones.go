package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/smazurov/livecast/internal/audio"
)

// CreateMicrophonesCmd creates the microphones command.
func CreateMicrophonesCmd() *cobra.Command {
	return newMicrophonesCmd(audio.NewDetector)
}

func newMicrophonesCmd(newDetector func() audio.Detector) *cobra.Command {
	return &cobra.Command{
		Use:   "microphones",
		Short: "List ALSA capture devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			found, err := newDetector().ListDevices()
			if err != nil {
				return fmt.Errorf("list microphones: %w", err)
			}
			if len(found) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No microphones found")
				return nil
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "DEVICE\tCARD\tNAME\tSTATUS")
			for _, d := range found {
				status := "free"
				if d.Busy {
					status = "busy"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", d.ALSADevice, d.CardID, d.CardName, status)
			}
			return w.Flush()
		},
	}
}
