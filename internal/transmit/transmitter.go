package transmit

import (
	"context"
	"strings"
	"sync/atomic"
	"time"

	"github.com/danmuck/cmdclient/internal/command"
	"github.com/danmuck/cmdclient/internal/observability"
	"github.com/danmuck/cmdclient/internal/protocol"
	logs "github.com/danmuck/smplog"
	"github.com/rs/zerolog"
)

const defaultNetwork = "default"

type Option func(*Transmitter)

// WithLogger sets the per-send event logger. The default discards events.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Transmitter) {
		t.log = logger
	}
}

// WithNetwork labels metrics and events with the client's network name.
func WithNetwork(name string) Option {
	return func(t *Transmitter) {
		if name = strings.TrimSpace(name); name != "" {
			t.network = name
		}
	}
}

// Transmitter writes commands to one stream. The stream is owned by the
// caller; nothing else may write to it while a Send is in progress.
type Transmitter struct {
	stream  protocol.Stream
	guard   Guard
	log     zerolog.Logger
	network string
	seq     atomic.Uint64
}

// New binds a transmitter to stream. A nil guard gets NewGuard().
func New(stream protocol.Stream, guard Guard, opts ...Option) *Transmitter {
	if guard == nil {
		guard = NewGuard()
	}
	t := &Transmitter{
		stream:  stream,
		guard:   guard,
		log:     zerolog.Nop(),
		network: defaultNetwork,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Send writes cmd, waiting as long as needed for the guard. The stream error,
// if any, is returned unchanged.
func (t *Transmitter) Send(cmd command.Command) error {
	return t.SendContext(context.Background(), cmd)
}

// SendContext is Send with a bounded guard wait: if ctx ends before the guard
// is acquired, nothing is written and ctx.Err() is returned. ctx does not
// interrupt a write already in progress.
func (t *Transmitter) SendContext(ctx context.Context, cmd command.Command) error {
	seq := t.seq.Add(1)
	waitStart := time.Now()
	if err := t.guard.Acquire(ctx); err != nil {
		logs.Warnf("transmit.Send network=%s seq=%d kind=%s acquire: %v", t.network, seq, cmd.Kind(), err)
		return err
	}
	defer t.guard.Release()

	observability.RecordGuardWait(t.network, time.Since(waitStart))
	return t.transmit(seq, cmd)
}

// transmit runs with the guard held.
func (t *Transmitter) transmit(seq uint64, cmd command.Command) error {
	start := time.Now()
	field, err := protocol.WriteCommand(t.stream, cmd)
	elapsed := time.Since(start)
	observability.RecordSend(t.network, cmd.Kind().String(), field.String(), protocol.EncodedLen(cmd), elapsed, err == nil)

	if err != nil {
		t.log.Warn().
			Str("network", t.network).
			Uint64("seq", seq).
			Str("kind", cmd.Kind().String()).
			Str("field", field.String()).
			Err(err).
			Msg("command.failed")
		return err
	}
	t.log.Debug().
		Str("network", t.network).
		Uint64("seq", seq).
		Str("kind", cmd.Kind().String()).
		Str("address", cmd.Address().String()).
		Int("metadata_bytes", cmd.MetadataLen()).
		Dur("duration", elapsed).
		Msg("command.sent")
	return nil
}

// Network reports the label set by WithNetwork.
func (t *Transmitter) Network() string {
	return t.network
}
