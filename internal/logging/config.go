package logging

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	logs "github.com/danmuck/smplog"
)

const (
	EnvLogConfig    = "SMPLOG_CONFIG"
	EnvLogLevel     = "CMDCLIENT_LOG_LEVEL"
	EnvLogTimestamp = "CMDCLIENT_LOG_TIMESTAMP"
	EnvLogNoColor   = "CMDCLIENT_LOG_NOCOLOR"
	EnvLogBypass    = "CMDCLIENT_LOG_BYPASS"
)

var ErrUnknownLevel = errors.New("logging: unknown level")

type Profile int

const (
	ProfileRuntime Profile = iota
	ProfileTest
)

// Settings selects the process log setup. Precedence, lowest first: profile
// defaults, the SMPLOG_CONFIG file, Level, then CMDCLIENT_LOG_* variables.
type Settings struct {
	Profile Profile
	Level   string
}

var configureOnce sync.Once

func ConfigureRuntime(level string) error {
	return Configure(Settings{Profile: ProfileRuntime, Level: level})
}

func ConfigureTests() {
	_ = Configure(Settings{Profile: ProfileTest})
}

// Configure installs the process-wide smplog config once. On error the
// profile defaults are installed and the error is returned; later calls are
// no-ops returning nil.
func Configure(s Settings) error {
	var err error
	configureOnce.Do(func() {
		var cfg logs.Config
		cfg, err = Resolve(s)
		if err != nil {
			cfg = defaultConfig(s.Profile)
			applyEnvOverrides(&cfg)
		}
		logs.Configure(cfg)
	})
	return err
}

// Resolve builds the smplog config for s without installing it.
func Resolve(s Settings) (logs.Config, error) {
	cfg := defaultConfig(s.Profile)
	if path := strings.TrimSpace(os.Getenv(EnvLogConfig)); path != "" {
		fileCfg, err := logs.ConfigFromFile(path)
		if err != nil {
			return logs.Config{}, fmt.Errorf("logging: %s %s: %w", EnvLogConfig, path, err)
		}
		cfg = fileCfg
	}
	if strings.TrimSpace(s.Level) != "" {
		lvl, ok := ParseLevel(s.Level)
		if !ok {
			return logs.Config{}, fmt.Errorf("%w: %q", ErrUnknownLevel, s.Level)
		}
		cfg.Level = lvl
	}
	applyEnvOverrides(&cfg)
	return cfg, nil
}

func defaultConfig(profile Profile) logs.Config {
	cfg := logs.DefaultConfig()
	switch profile {
	case ProfileTest:
		cfg.Level = logs.DebugLevel
		cfg.Timestamp = false
	default:
		cfg.Level = logs.InfoLevel
		cfg.Timestamp = true
	}
	return cfg
}

func applyEnvOverrides(cfg *logs.Config) {
	if lvl, ok := ParseLevel(os.Getenv(EnvLogLevel)); ok {
		cfg.Level = lvl
	}
	if v, ok := parseBool(os.Getenv(EnvLogTimestamp)); ok {
		cfg.Timestamp = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogNoColor)); ok {
		cfg.NoColor = v
	}
	if v, ok := parseBool(os.Getenv(EnvLogBypass)); ok {
		cfg.Bypass = v
	}
}

// ParseLevel maps a level name onto a smplog level. Send failures are logged
// at warn, so "quiet" keeps those and drops per-connection chatter.
func ParseLevel(raw string) (logs.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "trace":
		return logs.TraceLevel, true
	case "debug", "verbose":
		return logs.DebugLevel, true
	case "info":
		return logs.InfoLevel, true
	case "warn", "warning", "quiet":
		return logs.WarnLevel, true
	case "error":
		return logs.ErrorLevel, true
	case "disabled", "off", "none", "silent":
		return logs.Disabled, true
	default:
		return logs.InfoLevel, false
	}
}

func parseBool(raw string) (bool, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, false
	}
	return v, true
}
