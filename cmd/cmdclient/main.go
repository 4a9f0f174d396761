package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/netip"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/danmuck/cmdclient/internal/client"
	"github.com/danmuck/cmdclient/internal/command"
	"github.com/danmuck/cmdclient/internal/logging"
	"github.com/danmuck/cmdclient/internal/metadata"
	"github.com/danmuck/cmdclient/internal/observability"
	logs "github.com/danmuck/smplog"
	"github.com/rs/zerolog"
)

const defaultConfigPath = "cmd/cmdclient/config.toml"

type options struct {
	configPath  string
	address     string
	networkName string
	kind        string
	target      string
	text        string
	timer       uint32
	fields      map[string]any
	waitInbound time.Duration
	logLevel    string
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		logs.Errorf(err, "cmdclient")
		os.Exit(1)
	}
}

func run(args []string) error {
	opts, err := parseFlags(args)
	if err != nil {
		return err
	}

	cfg := defaultRunConfig()
	if _, statErr := os.Stat(opts.configPath); statErr == nil || opts.configPath != defaultConfigPath {
		cfg, err = loadRunConfig(opts.configPath)
		if err != nil {
			return err
		}
		logs.Infof("cmdclient: loaded config path=%s", opts.configPath)
	}
	if opts.address != "" {
		cfg.Client.Address = opts.address
	}
	if opts.networkName != "" {
		cfg.Client.NetworkName = opts.networkName
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := logging.ConfigureRuntime(cfg.LogLevel); err != nil {
		return err
	}
	eventLog := observability.InitLogger("cmdclient")
	if cfg.EventLog {
		cfg.Client.EventLog = &eventLog
	}
	if cfg.MetricsAddr != "" {
		go serveMetrics(cfg.MetricsAddr, eventLog, cfg.Client.NetworkName)
	}

	kind, err := command.ParseKind(opts.kind)
	if err != nil {
		return err
	}
	payload, err := buildMetadata(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.New(cfg.Client)
	if err := c.Connect(ctx); err != nil {
		return err
	}

	target := c.LocalAddr()
	if opts.target != "" {
		target, err = netip.ParseAddr(opts.target)
		if err != nil {
			_ = c.Disconnect(context.Background())
			return fmt.Errorf("parse target: %w", err)
		}
	}

	cmd := command.New(kind, target, payload)
	sendErr := c.SendCommand(ctx, cmd)
	if sendErr == nil {
		logs.Infof("cmdclient: sent %s", cmd)
		drainInbound(ctx, c, opts.waitInbound)
	}

	disconnectErr := c.Disconnect(context.Background())
	return errors.Join(sendErr, disconnectErr)
}

func parseFlags(args []string) (options, error) {
	opts := options{fields: map[string]any{}}
	fs := flag.NewFlagSet("cmdclient", flag.ContinueOnError)
	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "path to TOML config")
	fs.StringVar(&opts.address, "addr", "", "server host:port (overrides config)")
	fs.StringVar(&opts.networkName, "name", "", "client network name (overrides config)")
	fs.StringVar(&opts.kind, "kind", command.KindUserExit.String(), "command kind, e.g. pc_lock, message")
	fs.StringVar(&opts.target, "target", "", "command address (default: local address)")
	fs.StringVar(&opts.text, "text", "", "message text metadata")
	fs.Func("timer", "timer seconds metadata (0-4294967295)", func(raw string) error {
		seconds, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 32)
		if err != nil {
			return fmt.Errorf("timer seconds: %w", err)
		}
		opts.timer = uint32(seconds)
		return nil
	})
	fs.Func("meta", "free-form key=value metadata (repeatable)", func(raw string) error {
		key, value, ok := strings.Cut(raw, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return fmt.Errorf("expected key=value, got %q", raw)
		}
		opts.fields[strings.TrimSpace(key)] = parseValue(value)
		return nil
	})
	fs.StringVar(&opts.logLevel, "log-level", "", "trace, debug, info, quiet, error or off (overrides config)")
	fs.DurationVar(&opts.waitInbound, "wait", 0, "time to print server commands before disconnecting")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if len(opts.fields) > 0 && (opts.text != "" || opts.timer > 0) {
		return options{}, errors.New("-meta cannot be combined with -text or -timer")
	}
	return opts, nil
}

// buildMetadata picks the payload encoding: protobuf Struct for -meta pairs,
// TLV fields for -text/-timer, nothing otherwise.
func buildMetadata(opts options) ([]byte, error) {
	if len(opts.fields) > 0 {
		return metadata.EncodeStruct(opts.fields)
	}
	var fields []metadata.Field
	if opts.timer > 0 {
		fields = append(fields, metadata.U32(metadata.FieldTimerSeconds, opts.timer))
	}
	if opts.text != "" {
		fields = append(fields, metadata.String(metadata.FieldMessageText, opts.text))
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return metadata.EncodeFields(fields...)
}

func parseValue(raw string) any {
	raw = strings.TrimSpace(raw)
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func drainInbound(ctx context.Context, c *client.Client, wait time.Duration) {
	if wait <= 0 {
		return
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	inbound := c.Received()
	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			return
		case cmd, ok := <-inbound:
			if !ok {
				logs.Warnf("cmdclient: server closed the connection")
				return
			}
			logs.Infof("cmdclient: received %s", cmd)
		}
	}
}

func serveMetrics(addr string, logger zerolog.Logger, network string) {
	router := observability.NewRouter(logger, network)
	logs.Infof("cmdclient: metrics listening addr=%s", addr)
	if err := router.Run(addr); err != nil {
		logs.Warnf("cmdclient: metrics server stopped: %v", err)
	}
}
