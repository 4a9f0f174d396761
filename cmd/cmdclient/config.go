package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/danmuck/cmdclient/internal/client"
	"github.com/danmuck/cmdclient/internal/logging"
)

type fileConfig struct {
	NetworkName      string        `toml:"network_name"`
	ServerAddress    string        `toml:"server_address"`
	ConnectTimeout   string        `toml:"connect_timeout"`
	HandshakeTimeout string        `toml:"handshake_timeout"`
	WriteTimeout     string        `toml:"write_timeout"`
	InboundBuffer    int           `toml:"inbound_buffer"`
	MaxMetadataBytes int32         `toml:"max_metadata_bytes"`
	MetricsAddr      string        `toml:"metrics_addr"`
	EventLog         bool          `toml:"event_log"`
	LogLevel         string        `toml:"log_level"`
	TLS              tlsFileConfig `toml:"tls"`
}

type tlsFileConfig struct {
	Enabled            bool   `toml:"enabled"`
	Mutual             bool   `toml:"mutual"`
	CAFile             string `toml:"ca_file"`
	CertFile           string `toml:"cert_file"`
	KeyFile            string `toml:"key_file"`
	ServerName         string `toml:"server_name"`
	InsecureSkipVerify bool   `toml:"insecure_skip_verify"`
}

// runConfig is everything main needs beyond the client itself.
type runConfig struct {
	Client      client.Config
	MetricsAddr string
	EventLog    bool
	LogLevel    string
}

func defaultRunConfig() runConfig {
	return runConfig{Client: client.DefaultConfig()}
}

func loadRunConfig(path string) (runConfig, error) {
	cfg := defaultRunConfig()

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return runConfig{}, fmt.Errorf("load cmdclient config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return runConfig{}, fmt.Errorf("load cmdclient config: unknown keys %v", undecoded)
	}

	if meta.IsDefined("network_name") {
		cfg.Client.NetworkName = strings.TrimSpace(raw.NetworkName)
	}
	if meta.IsDefined("server_address") {
		cfg.Client.Address = strings.TrimSpace(raw.ServerAddress)
	}

	durations := []struct {
		key string
		raw string
		dst *time.Duration
	}{
		{"connect_timeout", raw.ConnectTimeout, &cfg.Client.ConnectTimeout},
		{"handshake_timeout", raw.HandshakeTimeout, &cfg.Client.HandshakeTimeout},
		{"write_timeout", raw.WriteTimeout, &cfg.Client.WriteTimeout},
	}
	for _, d := range durations {
		if !meta.IsDefined(d.key) {
			continue
		}
		v, err := time.ParseDuration(strings.TrimSpace(d.raw))
		if err != nil {
			return runConfig{}, fmt.Errorf("parse %s: %w", d.key, err)
		}
		*d.dst = v
	}

	if meta.IsDefined("inbound_buffer") {
		cfg.Client.InboundBuffer = raw.InboundBuffer
	}
	if meta.IsDefined("max_metadata_bytes") {
		cfg.Client.Limits.MaxMetadataBytes = raw.MaxMetadataBytes
	}
	if meta.IsDefined("metrics_addr") {
		cfg.MetricsAddr = strings.TrimSpace(raw.MetricsAddr)
	}
	if meta.IsDefined("event_log") {
		cfg.EventLog = raw.EventLog
	}
	if meta.IsDefined("log_level") {
		level := strings.TrimSpace(raw.LogLevel)
		if _, ok := logging.ParseLevel(level); !ok {
			return runConfig{}, fmt.Errorf("load cmdclient config: %w: %q", logging.ErrUnknownLevel, level)
		}
		cfg.LogLevel = level
	}
	if meta.IsDefined("tls") {
		cfg.Client.TLS = client.TLSConfig{
			Enabled:            raw.TLS.Enabled,
			Mutual:             raw.TLS.Mutual,
			CAFile:             strings.TrimSpace(raw.TLS.CAFile),
			CertFile:           strings.TrimSpace(raw.TLS.CertFile),
			KeyFile:            strings.TrimSpace(raw.TLS.KeyFile),
			ServerName:         strings.TrimSpace(raw.TLS.ServerName),
			InsecureSkipVerify: raw.TLS.InsecureSkipVerify,
		}
		if err := cfg.Client.TLS.Validate(); err != nil {
			return runConfig{}, fmt.Errorf("load cmdclient config: %w", err)
		}
	}

	cfg.Client = cfg.Client.WithDefaults()
	return cfg, nil
}
