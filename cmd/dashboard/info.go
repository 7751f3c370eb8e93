package main

import (
	"errors"
	"fmt"

	"servicedeck/pkg/dashboard"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errInfoFailed = errors.New("service info request failed")

func newInfoCommand(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "info <service-id>",
		Short: "Check health, then request /info from a healthy service",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(cmd, v)
			if err != nil {
				return err
			}
			if err := a.dashboard.Refresh(cmd.Context()); err != nil {
				return err
			}

			resp, err := a.dashboard.RequestInfo(cmd.Context(), args[0])
			if errors.Is(err, dashboard.ErrServiceNotHealthy) {
				if st, ok := a.dashboard.Status(args[0]); ok && st.Error != "" {
					return fmt.Errorf("%w: %s", err, st.Error)
				}
			}
			if err != nil {
				return err
			}

			if err := dashboard.RenderResponse(cmd.OutOrStdout(), resp); err != nil {
				return err
			}
			if resp.Error != "" {
				return errInfoFailed
			}
			return nil
		},
	}
}
