package main

import (
	"errors"

	"servicedeck/pkg/config"
	"servicedeck/pkg/dashboard"
	"servicedeck/pkg/log"
	"servicedeck/pkg/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errUnhealthy = errors.New("one or more services are unhealthy")

func newRootCommand() *cobra.Command {
	v := config.New()

	root := &cobra.Command{
		Use:           "dashboard",
		Short:         "Check service health and request service info through the gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := root.PersistentFlags()
	flags.String(config.KeyGatewayURL, config.DefaultGatewayURL, "Gateway base URL")
	flags.String(config.KeyServicesFile, "", "YAML file with service descriptors; the default four services when empty")
	flags.Duration(config.KeyTimeout, config.DefaultTimeout, "Per-request timeout")
	flags.Int(config.KeyRetryMax, 0, "Retries for transport errors")
	flags.String(config.KeyConfigFile, "", "Optional YAML config file")
	flags.String(config.KeyLogLevel, "", "Log level (debug, info, warn, error)")
	flags.Bool(config.KeyLogJSON, false, "Log JSON lines instead of console output")
	flags.Bool(config.KeyDebug, false, "Enable debug logging")

	root.AddCommand(newCheckCommand(v), newInfoCommand(v), newServeCommand(v))
	return root
}

// app is the dashboard wired from flags, environment and config file.
type app struct {
	cfg       config.Dashboard
	registry  *prometheus.Registry
	dashboard *dashboard.Dashboard
}

func setup(cmd *cobra.Command, v *viper.Viper) (*app, error) {
	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, err
	}
	cfg, err := config.LoadDashboard(v)
	if err != nil {
		return nil, err
	}
	cfg.Logging.Apply()

	services, err := config.LoadDescriptors(cfg.Services)
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("gateway", cfg.GatewayURL).
		Int("services", len(services)).
		Dur("timeout", cfg.Timeout).
		Msg("Dashboard configured")

	reg := prometheus.NewRegistry()
	client := dashboard.NewClient(cfg.GatewayURL, cfg.Timeout, cfg.RetryMax)
	d, err := dashboard.New(services, client, dashboard.WithMetrics(metrics.NewChecks(reg)))
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, registry: reg, dashboard: d}, nil
}
