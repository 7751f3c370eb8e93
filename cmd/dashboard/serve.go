package main

import (
	"context"

	"servicedeck/pkg/config"
	"servicedeck/pkg/dashboard"
	"servicedeck/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newServeCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard state over HTTP with live websocket updates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd, v)
			if err != nil {
				return err
			}
			a.registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			metrics.Serve(ctx, a.cfg.MetricsAddr, a.registry)

			server := dashboard.NewServer(a.dashboard, a.registry, a.cfg.Refresh)
			return server.Start(config.ListenAddr(a.cfg.Port))
		},
	}

	flags := cmd.Flags()
	flags.Int(config.KeyPort, config.DefaultDashboardPort, "Listen port (also PORT)")
	flags.Duration(config.KeyRefresh, 0, "Refresh interval after the initial check, disabled when 0")
	flags.String(config.KeyMetricsAddr, "", "Address of the Prometheus metrics listener, disabled when empty")
	return cmd
}
