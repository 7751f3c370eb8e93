package main

import (
	"context"
	"os"

	"servicedeck/pkg/config"
	"servicedeck/pkg/infosvc"
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
		log.Error().Err(err).Msg("Info service failed")
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	v := config.New()

	cmd := &cobra.Command{
		Use:           "infosvc",
		Short:         "Backend service exposing /health and /info",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := v.BindPFlags(cmd.Flags()); err != nil {
				return err
			}
			cfg, err := config.LoadInfoService(v)
			if err != nil {
				return err
			}
			cfg.Logging.Apply()

			reg := prometheus.NewRegistry()
			reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			metrics.Serve(ctx, cfg.MetricsAddr, reg)

			server := infosvc.NewServer(infosvc.Options{
				ServiceName:     cfg.ServiceName,
				Language:        cfg.Language,
				ShutdownTimeout: cfg.ShutdownTimeout,
				Registerer:      reg,
			})
			return server.Start(config.ListenAddr(cfg.Port))
		},
	}

	flags := cmd.Flags()
	flags.Int(config.KeyPort, config.DefaultInfoServicePort, "Listen port (also PORT)")
	flags.String(config.KeyConfigFile, "", "Optional YAML config file")
	flags.String(config.KeyServiceName, "nodejs-service", "Service name reported by /health and /info")
	flags.String(config.KeyLanguage, "Go", "Language reported by /info")
	flags.Duration(config.KeyShutdownTimeout, config.DefaultShutdownTimeout, "Graceful shutdown timeout")
	flags.String(config.KeyMetricsAddr, "", "Address of the Prometheus metrics listener, disabled when empty")
	flags.String(config.KeyLogLevel, "", "Log level (debug, info, warn, error)")
	flags.Bool(config.KeyLogJSON, false, "Log JSON lines instead of console output")
	flags.Bool(config.KeyDebug, false, "Enable debug logging")

	return cmd
}
