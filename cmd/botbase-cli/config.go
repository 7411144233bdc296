package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/pior/botbase"
)

type fileConfig struct {
	Host              string        `toml:"host"`
	Port              int           `toml:"port"`
	MaxTransferSize   int           `toml:"max_transfer_size"`
	DelayFactor       int           `toml:"delay_factor"`
	BaseDelay         string        `toml:"base_delay"`
	MaxAttempts       int           `toml:"max_attempts"`
	RetryDelay        string        `toml:"retry_delay"`
	ReconnectDelay    string        `toml:"reconnect_delay"`
	ReceiveTimeout    string        `toml:"receive_timeout"`
	ReceiveBufferSize int           `toml:"receive_buffer_size"`
	CircuitBreaker    breakerConfig `toml:"circuit_breaker"`
}

type breakerConfig struct {
	Enabled     bool   `toml:"enabled"`
	MaxRequests uint32 `toml:"max_requests"`
	Interval    string `toml:"interval"`
	Timeout     string `toml:"timeout"`
}

// loadClientConfig builds the client configuration from the optional TOML
// file at path. Non-empty host and non-zero port override the file.
func loadClientConfig(path, host string, port int) (botbase.Config, error) {
	cfg := botbase.DefaultConfig("")

	if path != "" {
		var raw fileConfig
		meta, err := toml.DecodeFile(path, &raw)
		if err != nil {
			return botbase.Config{}, fmt.Errorf("load botbase config: %w", err)
		}
		if err := applyFileConfig(&cfg, raw, meta); err != nil {
			return botbase.Config{}, err
		}
	}

	if host = strings.TrimSpace(host); host != "" {
		cfg.Host = host
	}
	if port != 0 {
		cfg.Port = port
	}
	if cfg.Host == "" {
		return botbase.Config{}, fmt.Errorf("no host configured: set --host or host in the config file")
	}
	return cfg, nil
}

func applyFileConfig(cfg *botbase.Config, raw fileConfig, meta toml.MetaData) error {
	if meta.IsDefined("host") {
		cfg.Host = strings.TrimSpace(raw.Host)
	}
	if meta.IsDefined("port") {
		cfg.Port = raw.Port
	}
	if meta.IsDefined("max_transfer_size") {
		cfg.MaximumTransferSize = raw.MaxTransferSize
	}
	if meta.IsDefined("delay_factor") {
		cfg.DelayFactor = raw.DelayFactor
	}
	if meta.IsDefined("max_attempts") {
		cfg.MaxAttempts = raw.MaxAttempts
	}
	if meta.IsDefined("receive_buffer_size") {
		cfg.ReceiveBufferSize = raw.ReceiveBufferSize
	}

	durations := []struct {
		key   string
		value string
		dst   *time.Duration
	}{
		{"base_delay", raw.BaseDelay, &cfg.BaseDelay},
		{"retry_delay", raw.RetryDelay, &cfg.RetryDelay},
		{"reconnect_delay", raw.ReconnectDelay, &cfg.ReconnectDelay},
		{"receive_timeout", raw.ReceiveTimeout, &cfg.ReceiveTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.value))
		if err != nil {
			return fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("circuit_breaker", "enabled") && raw.CircuitBreaker.Enabled {
		b := raw.CircuitBreaker
		interval, timeout := time.Minute, 30*time.Second
		if meta.IsDefined("circuit_breaker", "interval") {
			v, err := time.ParseDuration(strings.TrimSpace(b.Interval))
			if err != nil {
				return fmt.Errorf("parse circuit_breaker.interval: %w", err)
			}
			interval = v
		}
		if meta.IsDefined("circuit_breaker", "timeout") {
			v, err := time.ParseDuration(strings.TrimSpace(b.Timeout))
			if err != nil {
				return fmt.Errorf("parse circuit_breaker.timeout: %w", err)
			}
			timeout = v
		}
		maxRequests := b.MaxRequests
		if maxRequests == 0 {
			maxRequests = 1
		}
		cfg.NewCircuitBreaker = botbase.NewCircuitBreakerConfig(maxRequests, interval, timeout)
	}
	return nil
}
