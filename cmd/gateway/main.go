package main

import (
	"context"
	"os"

	"servicedeck/pkg/config"
	"servicedeck/pkg/gateway"
	"servicedeck/pkg/log"
	"servicedeck/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

func main() {
	// Initialize logger
	_ = log.Logger

	if err := newRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("Gateway failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:           "gateway",
		Short:         "Route /api/<service> prefixes to backend services and serve the dashboard",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.LoadGateway(v)
			if err != nil {
				return err
			}
			cfg.Logging.Apply()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			metrics.Serve(ctx, cfg.MetricsAddr, reg)

			server, err := gateway.NewServer(cfg, reg)
			if err != nil {
				return err
			}
			log.Info().
				Int("routes", len(server.Routes().Routes())).
				Bool("embedded_static", cfg.StaticDir == "").
				Msg("Gateway configured")
			return server.Start(config.ListenAddr(cfg.Port))
		},
	}

	flags := cmd.Flags()
	flags.Int(config.KeyPort, config.DefaultGatewayPort, "Listen port (also PORT)")
	flags.String(config.KeyConfigFile, "", "YAML config file with the route table")
	flags.String(config.KeyStaticDir, "", "Directory with the built dashboard; the embedded page is used when empty")
	flags.Duration(config.KeyUpstreamTimeout, config.DefaultUpstreamTimeout, "Dial and response header timeout for upstreams")
	flags.Duration(config.KeyShutdownTimeout, config.DefaultShutdownTimeout, "Graceful shutdown timeout")
	flags.String(config.KeyMetricsAddr, "", "Address of the Prometheus metrics listener, disabled when empty")
	flags.String(config.KeyLogLevel, "", "Log level (debug, info, warn, error)")
	flags.Bool(config.KeyLogJSON, false, "Log JSON lines instead of console output")
	flags.Bool(config.KeyDebug, false, "Enable debug logging")

	return cmd
}
