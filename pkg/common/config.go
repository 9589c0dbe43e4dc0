package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type ServiceConfig struct {
	DBType string
	DBPath string
	DBDSN  string

	HttpHostPort string
	GrpcHostPort string

	DefaultRate  float64
	DefaultBurst int

	SeedPath string

	LiveRequirePin   bool
	LiveWriteTimeout time.Duration
	MeterCacheTTL    time.Duration

	AmqpURL      string
	AmqpExchange string
}

const (
	DefaultHttpHostPort     = ":1080"
	DefaultLiveWriteTimeout = 2 * time.Second
	DefaultMeterCacheTTL    = 30 * time.Second
	DefaultAmqpExchange     = "flow-meter.readings"
)

// LoadServiceConfig reads the service configuration from the environment.
// Unset keys fall back to defaults; malformed values are reported.
func LoadServiceConfig() (*ServiceConfig, error) {
	cfg := &ServiceConfig{
		DBType:       envOr(EnvKeyIOTDBType, "file"),
		DBPath:       envOr(EnvKeyIOTDbPath, "meters.db"),
		DBDSN:        os.Getenv(EnvKeyIOTDbDSN),
		HttpHostPort: envOr(EnvKeyIOTHttpHostPort, DefaultHttpHostPort),
		GrpcHostPort: strings.TrimSpace(os.Getenv(EnvKeyIOTGrpcHostPort)),
		SeedPath:     strings.TrimSpace(os.Getenv(EnvKeyIOTSeedPath)),
		AmqpURL:      strings.TrimSpace(os.Getenv(EnvKeyIOTAmqpURL)),
		AmqpExchange: envOr(EnvKeyIOTAmqpExchange, DefaultAmqpExchange),
	}

	var err error

	if cfg.DefaultRate, err = strconv.ParseFloat(envOr(EnvKeyIOTDefaultRate, "5"), 64); err != nil {
		return nil, fmt.Errorf("invalid %s, should be a float64 value: %w", EnvKeyIOTDefaultRate, err)
	}

	if cfg.DefaultBurst, err = strconv.Atoi(envOr(EnvKeyIOTDefaultBurst, "10")); err != nil {
		return nil, fmt.Errorf("invalid %s, should be an int value: %w", EnvKeyIOTDefaultBurst, err)
	}

	if cfg.LiveRequirePin, err = strconv.ParseBool(envOr(EnvKeyIOTLiveRequirePin, "true")); err != nil {
		return nil, fmt.Errorf("invalid %s, should be a bool value: %w", EnvKeyIOTLiveRequirePin, err)
	}

	cfg.LiveWriteTimeout = DefaultLiveWriteTimeout
	if v := os.Getenv(EnvKeyIOTLiveWriteTimeout); v != "" {
		ms, err := strconv.Atoi(v)
		if err != nil || ms <= 0 {
			return nil, fmt.Errorf("invalid %s, should be a positive int of milliseconds", EnvKeyIOTLiveWriteTimeout)
		}
		cfg.LiveWriteTimeout = time.Duration(ms) * time.Millisecond
	}

	cfg.MeterCacheTTL = DefaultMeterCacheTTL
	if v := os.Getenv(EnvKeyIOTMeterCacheTTLSecs); v != "" {
		secs, err := strconv.Atoi(v)
		if err != nil || secs < 0 {
			return nil, fmt.Errorf("invalid %s, should be a non-negative int of seconds", EnvKeyIOTMeterCacheTTLSecs)
		}
		cfg.MeterCacheTTL = time.Duration(secs) * time.Second
	}

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
