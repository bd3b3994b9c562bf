package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sstent/garminclient/internal/config"
)

func newDownloadActivityCmd(a *app, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   config.CommandDownloadActivity,
		Short: "Download one activity as FIT, GPX or TCX",
		Long: `Downloads the activity given by --activity-id. With --output the file is
written there and a confirmation line is printed; otherwise the raw bytes
go to stdout. Unknown --format values fall back to the original FIT file.`,
		Example: "  garmin-client download-activity --username me@example.com --password secret --activity-id 123 --output ride.fit",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd.Context(), v, config.CommandDownloadActivity)
		},
	}
}
