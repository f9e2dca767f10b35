// Package config loads scheduler process configuration from the
// environment.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/bretmckee/game-scheduler/internal/schedulerloop"
)

// Config is everything cmd/scheduler needs to wire the process together.
type Config struct {
	DatabaseURL   string
	RedisAddr     string
	KafkaBrokers  []string
	DiagnosticsAddr string
	PublishRate   float64
	PublishBurst  int
	Loop          schedulerloop.Config
}

// Load reads Config from the environment. DATABASE_URL is required;
// everything else has a production-sane default.
func Load() (Config, error) {
	cfg := Config{
		DiagnosticsAddr: ":9090",
		PublishRate:     100,
		PublishBurst:    20,
		Loop:            schedulerloop.DefaultConfig(),
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return Config{}, fmt.Errorf("config: DATABASE_URL is required")
	}

	if v := os.Getenv("REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}

	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		cfg.KafkaBrokers = strings.Split(v, ",")
	}

	if v := os.Getenv("DIAGNOSTICS_ADDR"); v != "" {
		cfg.DiagnosticsAddr = v
	}

	if v := os.Getenv("SCHEDULER_BATCH_LIMIT"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			cfg.Loop.BatchLimit = n
		}
	}
	if v := os.Getenv("SCHEDULER_GRACE_SECONDS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			cfg.Loop.Grace = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("SCHEDULER_SAFETY_TIMEOUT_SECONDS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			cfg.Loop.SafetyTimeout = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("SCHEDULER_SMALL_LEAD_SECONDS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			cfg.Loop.SmallLead = time.Duration(n) * time.Second
		}
	}
	if v := os.Getenv("SCHEDULER_MAX_ATTEMPTS"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			cfg.Loop.MaxAttempts = n
		}
	}
	if v := os.Getenv("SCHEDULER_PUBLISH_RATE"); v != "" {
		var f float64
		fmt.Sscanf(v, "%f", &f)
		if f > 0 {
			cfg.PublishRate = f
		}
	}
	if v := os.Getenv("SCHEDULER_PUBLISH_BURST"); v != "" {
		var n int
		fmt.Sscanf(v, "%d", &n)
		if n > 0 {
			cfg.PublishBurst = n
		}
	}

	return cfg, nil
}
