package client

import (
	"errors"
	"strings"
	"time"

	"github.com/danmuck/cmdclient/internal/protocol"
	"github.com/rs/zerolog"
)

var (
	ErrTLSRequired         = errors.New("client: tls required for mutual tls")
	ErrTLSCAFileRequired   = errors.New("client: tls ca file required")
	ErrTLSCertFileRequired = errors.New("client: tls cert file required")
	ErrTLSKeyFileRequired  = errors.New("client: tls key file required")
)

// TLSConfig controls the optional TLS layer of Connect.
type TLSConfig struct {
	Enabled            bool
	Mutual             bool
	CAFile             string
	CertFile           string
	KeyFile            string
	ServerName         string
	InsecureSkipVerify bool
}

// Config defines one client connection.
type Config struct {
	Address          string
	NetworkName      string
	ConnectTimeout   time.Duration
	HandshakeTimeout time.Duration
	// WriteTimeout bounds each individual write and flush; 0 disables it.
	WriteTimeout  time.Duration
	InboundBuffer int
	Limits        protocol.Limits
	TLS           TLSConfig
	// EventLog receives per-send events; nil discards them.
	EventLog *zerolog.Logger
}

func DefaultConfig() Config {
	return Config{
		ConnectTimeout:   5 * time.Second,
		HandshakeTimeout: 5 * time.Second,
		WriteTimeout:     15 * time.Second,
		InboundBuffer:    16,
		Limits:           protocol.DefaultLimits(),
	}
}

// WithDefaults fills zero-valued fields from DefaultConfig. WriteTimeout is
// left alone so that 0 can mean "no deadline".
func (c Config) WithDefaults() Config {
	def := DefaultConfig()
	c.Address = strings.TrimSpace(c.Address)
	c.NetworkName = strings.TrimSpace(c.NetworkName)
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = def.ConnectTimeout
	}
	if c.HandshakeTimeout <= 0 {
		c.HandshakeTimeout = def.HandshakeTimeout
	}
	if c.InboundBuffer <= 0 {
		c.InboundBuffer = def.InboundBuffer
	}
	if c.Limits.MaxAddressBytes <= 0 {
		c.Limits.MaxAddressBytes = def.Limits.MaxAddressBytes
	}
	if c.Limits.MaxMetadataBytes <= 0 {
		c.Limits.MaxMetadataBytes = def.Limits.MaxMetadataBytes
	}
	return c
}

func (t TLSConfig) Validate() error {
	if !t.Enabled {
		if t.Mutual {
			return ErrTLSRequired
		}
		return nil
	}
	if strings.TrimSpace(t.CAFile) == "" && !t.InsecureSkipVerify {
		return ErrTLSCAFileRequired
	}
	if t.Mutual {
		if strings.TrimSpace(t.CertFile) == "" {
			return ErrTLSCertFileRequired
		}
		if strings.TrimSpace(t.KeyFile) == "" {
			return ErrTLSKeyFileRequired
		}
	}
	return nil
}
