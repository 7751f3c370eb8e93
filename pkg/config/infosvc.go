package config

import (
	"time"

	"github.com/spf13/viper"
)

const (
	KeyServiceName = "service-name"
	KeyLanguage    = "language"

	DefaultInfoServicePort = 8083
)

// InfoService is the resolved configuration of a backend info service.
type InfoService struct {
	Port            int
	ServiceName     string
	Language        string
	ShutdownTimeout time.Duration
	MetricsAddr     string
	Logging         Logging
}

func LoadInfoService(v *viper.Viper) (InfoService, error) {
	v.SetDefault(KeyPort, DefaultInfoServicePort)
	v.SetDefault(KeyShutdownTimeout, DefaultShutdownTimeout)

	if err := ReadFile(v); err != nil {
		return InfoService{}, err
	}

	cfg := InfoService{
		Port:            v.GetInt(KeyPort),
		ServiceName:     v.GetString(KeyServiceName),
		Language:        v.GetString(KeyLanguage),
		ShutdownTimeout: v.GetDuration(KeyShutdownTimeout),
		MetricsAddr:     v.GetString(KeyMetricsAddr),
		Logging:         loadLogging(v),
	}
	if err := validatePort(cfg.Port); err != nil {
		return InfoService{}, err
	}
	return cfg, nil
}
