package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/sstent/garminclient/internal/config"
)

func newGetActivitiesCmd(a *app, v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   config.CommandGetActivities,
		Short: "List one day's cycling activities as JSON",
		Long: `Lists the activities that started on --date and prints the cycling ones
(type key containing "cycling", "bike" or "biking") as an indented JSON array.`,
		Example: "  garmin-client get-activities --username me@example.com --password secret --date 2024-03-01",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd.Context(), v, config.CommandGetActivities)
		},
	}
}
