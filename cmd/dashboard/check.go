package main

import (
	"servicedeck/pkg/dashboard"
	"servicedeck/pkg/log"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newCheckCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check every service once and print a status table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd, v)
			if err != nil {
				return err
			}
			if err := a.dashboard.Refresh(cmd.Context()); err != nil {
				return err
			}

			view := a.dashboard.Snapshot()
			dashboard.Render(cmd.OutOrStdout(), view)

			if unhealthy := view.Unhealthy(); len(unhealthy) > 0 {
				log.Warn().Strs("services", unhealthy).Msg("Unhealthy services")
				return errUnhealthy
			}
			return nil
		},
	}
}
