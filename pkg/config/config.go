package config

import (
	"errors"
	"fmt"
	"strings"

	"servicedeck/pkg/log"

	"github.com/spf13/viper"
)

const (
	KeyPort        = "port"
	KeyConfigFile  = "config"
	KeyMetricsAddr = "metrics-addr"
	KeyLogLevel    = "log-level"
	KeyLogJSON     = "log-json"
	KeyDebug       = "debug"

	envPrefix = "SERVICEDECK"
)

var ErrInvalidPort = errors.New("port must be between 1 and 65535")

// New returns a viper instance that resolves keys from flags, SERVICEDECK_* variables and an optional
// file. The listening port is read from the unprefixed PORT variable.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(KeyPort, "PORT")
	return v
}

// ReadFile loads the file named by the "config" key, if any.
func ReadFile(v *viper.Viper) error {
	path := v.GetString(KeyConfigFile)
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// Logging holds the log settings shared by every binary.
type Logging struct {
	Level string
	JSON  bool
	Debug bool
}

func loadLogging(v *viper.Viper) Logging {
	return Logging{
		Level: v.GetString(KeyLogLevel),
		JSON:  v.GetBool(KeyLogJSON),
		Debug: v.GetBool(KeyDebug),
	}
}

// Apply configures the process logger.
func (l Logging) Apply() {
	if l.JSON {
		log.SetJSON(true)
	}
	if l.Level != "" {
		log.SetLevel(l.Level)
	}
	if l.Debug {
		log.SetDebugMode()
		log.Debug().Msg("Debug mode enabled")
	}
}

// ListenAddr turns a port into a listen address for all interfaces.
func ListenAddr(port int) string {
	return fmt.Sprintf(":%d", port)
}

func validatePort(port int) error {
	if port < 1 || port > 65535 {
		return fmt.Errorf("%w: %d", ErrInvalidPort, port)
	}
	return nil
}
