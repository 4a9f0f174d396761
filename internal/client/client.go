package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/netip"
	"sync"

	"github.com/danmuck/cmdclient/internal/command"
	"github.com/danmuck/cmdclient/internal/metadata"
	"github.com/danmuck/cmdclient/internal/protocol"
	"github.com/danmuck/cmdclient/internal/transmit"
	logs "github.com/danmuck/smplog"
	"github.com/rs/zerolog"
)

var (
	ErrServerAddressRequired = errors.New("client: server address required")
	ErrAlreadyConnected      = errors.New("client: already connected")
	ErrNotConnected          = errors.New("client: not connected")
)

// noInbound is handed out by Received before the first Attach.
var noInbound = func() chan command.Command {
	ch := make(chan command.Command)
	close(ch)
	return ch
}()

// Client owns one command connection. Sends from any number of goroutines
// are serialized by the connection's transmitter.
type Client struct {
	cfg Config

	mu       sync.Mutex
	conn     net.Conn
	tx       *transmit.Transmitter
	received chan command.Command
	done     chan struct{}
	readErr  error
	wg       sync.WaitGroup
}

// New builds a disconnected client. An empty address is allowed until
// Connect.
func New(cfg Config) *Client {
	return &Client{cfg: cfg.WithDefaults()}
}

func (c *Client) NetworkName() string {
	return c.cfg.NetworkName
}

func (c *Client) Address() string {
	return c.cfg.Address
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn != nil
}

// LocalAddr reports the local IP of the connection, or the unspecified IPv4
// address when there is none.
func (c *Client) LocalAddr() netip.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	return localAddr(c.conn)
}

// Received delivers commands pushed by the server. The channel is replaced on
// every Attach and closed when that connection's read side ends; before the
// first Attach it is already closed.
func (c *Client) Received() <-chan command.Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.received == nil {
		return noInbound
	}
	return c.received
}

// Err reports the decode error that tore down the last connection, if any.
func (c *Client) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.readErr
}

// Connect dials the server and announces this client with a login command
// carrying its network name.
func (c *Client) Connect(ctx context.Context) error {
	if c.cfg.Address == "" {
		return ErrServerAddressRequired
	}
	if c.Connected() {
		return ErrAlreadyConnected
	}

	conn, err := c.dial(ctx)
	if err != nil {
		return fmt.Errorf("client: dial %s: %w", c.cfg.Address, err)
	}
	if err := c.Attach(conn); err != nil {
		_ = conn.Close()
		return err
	}
	if err := c.login(ctx); err != nil {
		_ = c.drop()
		return fmt.Errorf("client: login: %w", err)
	}
	logs.Infof("client.Connect network=%q addr=%s local=%s", c.cfg.NetworkName, c.cfg.Address, c.LocalAddr())
	return nil
}

// Attach adopts an established connection. The client owns conn from here on
// and closes it on Disconnect.
func (c *Client) Attach(conn net.Conn) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return ErrAlreadyConnected
	}

	eventLog := zerolog.Nop()
	if c.cfg.EventLog != nil {
		eventLog = *c.cfg.EventLog
	}
	c.conn = conn
	c.tx = transmit.New(
		newConnStream(conn, c.cfg.WriteTimeout),
		transmit.NewGuard(),
		transmit.WithNetwork(c.cfg.NetworkName),
		transmit.WithLogger(eventLog),
	)
	c.received = make(chan command.Command, c.cfg.InboundBuffer)
	c.done = make(chan struct{})
	c.readErr = nil

	c.wg.Add(1)
	go c.receiveLoop(conn, c.received, c.done)
	logs.Debugf("client.Attach network=%q remote=%s", c.cfg.NetworkName, conn.RemoteAddr())
	return nil
}

// SendCommand sends cmd and waits for it to be written and flushed. The
// guard wait honours ctx; the stream error is returned unchanged.
func (c *Client) SendCommand(ctx context.Context, cmd command.Command) error {
	tx := c.transmitter()
	if tx == nil {
		return ErrNotConnected
	}
	return tx.SendContext(ctx, cmd)
}

// SendCommandAsync runs SendCommand on its own goroutine. The returned
// channel yields exactly one result.
func (c *Client) SendCommandAsync(cmd command.Command) <-chan error {
	result := make(chan error, 1)
	go func() {
		err := c.SendCommand(context.Background(), cmd)
		if err != nil {
			logs.Warnf("client.SendCommandAsync kind=%s err=%v", cmd.Kind(), err)
		}
		result <- err
	}()
	return result
}

// Disconnect sends a user-exit command, closes the connection and waits for
// the read side to finish. The connection is closed even if the exit command
// cannot be written.
func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	conn, tx, done := c.conn, c.tx, c.done
	if conn == nil {
		c.mu.Unlock()
		return ErrNotConnected
	}
	c.conn, c.tx = nil, nil
	c.mu.Unlock()

	exitErr := tx.SendContext(ctx, command.New(command.KindUserExit, localAddr(conn), nil))
	if exitErr != nil {
		logs.Warnf("client.Disconnect network=%q user_exit: %v", c.cfg.NetworkName, exitErr)
		exitErr = fmt.Errorf("client: send user exit: %w", exitErr)
	}
	close(done)
	closeErr := conn.Close()
	c.wg.Wait()
	logs.Infof("client.Disconnect network=%q addr=%s", c.cfg.NetworkName, c.cfg.Address)
	return errors.Join(exitErr, closeErr)
}

func (c *Client) login(ctx context.Context) error {
	meta, err := metadata.EncodeFields(metadata.String(metadata.FieldNetworkName, c.cfg.NetworkName))
	if err != nil {
		return err
	}
	return c.SendCommand(ctx, command.New(command.KindClientLoginInform, c.LocalAddr(), meta))
}

// drop closes the connection without the user-exit bookend.
func (c *Client) drop() error {
	c.mu.Lock()
	conn, done := c.conn, c.done
	c.conn, c.tx = nil, nil
	c.mu.Unlock()
	if conn == nil {
		return nil
	}
	close(done)
	err := conn.Close()
	c.wg.Wait()
	return err
}

func (c *Client) transmitter() *transmit.Transmitter {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.tx
}

func (c *Client) receiveLoop(conn net.Conn, out chan<- command.Command, done <-chan struct{}) {
	defer c.wg.Done()
	defer close(out)

	reader := bufio.NewReader(conn)
	for {
		cmd, err := protocol.ReadCommand(reader, c.cfg.Limits)
		if err != nil {
			switch {
			case errors.Is(err, io.EOF), errors.Is(err, net.ErrClosed):
				logs.Debugf("client.receiveLoop network=%q closed", c.cfg.NetworkName)
			default:
				select {
				case <-done:
				default:
					logs.Warnf("client.receiveLoop network=%q read: %v", c.cfg.NetworkName, err)
					c.abandon(conn, err)
				}
			}
			return
		}
		logs.Debugf("client.receiveLoop network=%q received %s", c.cfg.NetworkName, cmd)
		select {
		case out <- cmd:
		case <-done:
			return
		}
	}
}

// abandon closes conn after an undecodable read, unless Disconnect or drop
// already claimed it. The stream cannot be resynchronized.
func (c *Client) abandon(conn net.Conn, err error) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn, c.tx = nil, nil
	c.readErr = err
	done := c.done
	c.mu.Unlock()

	close(done)
	if closeErr := conn.Close(); closeErr != nil {
		logs.Debugf("client.receiveLoop network=%q close: %v", c.cfg.NetworkName, closeErr)
	}
}

func localAddr(conn net.Conn) netip.Addr {
	if conn == nil {
		return netip.IPv4Unspecified()
	}
	if ap, err := netip.ParseAddrPort(conn.LocalAddr().String()); err == nil {
		return ap.Addr().Unmap().WithZone("")
	}
	return netip.IPv4Unspecified()
}
