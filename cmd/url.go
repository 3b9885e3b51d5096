// Package cmd holds the livecast subcommands.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smazurov/livecast/internal/settings"
)

// CreateURLCmd creates the url command, which prints the publish URL the
// session would dial for a settings file.
func CreateURLCmd() *cobra.Command {
	var settingsFile string

	cmd := &cobra.Command{
		Use:   "url",
		Short: "Print the stream URL",
		Long:  `Loads the stream settings and prints the URL a stream would be published to. Credentials are included.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := settings.Load(settingsFile)
			if err != nil {
				return err
			}
			url := s.StreamURL()
			if url == "" {
				return fmt.Errorf("no stream address configured in %s", settingsFile)
			}
			fmt.Fprintln(cmd.OutOrStdout(), url)
			return nil
		},
	}

	cmd.Flags().StringVarP(&settingsFile, "settings", "s", "settings.toml", "Stream settings file")
	return cmd
}
