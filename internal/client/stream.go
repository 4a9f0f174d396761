package client

import (
	"bufio"
	"net"
	"time"
)

// connStream buffers writes to conn and re-arms the write deadline before
// every write and flush.
type connStream struct {
	conn    net.Conn
	w       *bufio.Writer
	timeout time.Duration
}

func newConnStream(conn net.Conn, timeout time.Duration) *connStream {
	return &connStream{
		conn:    conn,
		w:       bufio.NewWriter(conn),
		timeout: timeout,
	}
}

func (s *connStream) Write(p []byte) (int, error) {
	if err := s.arm(); err != nil {
		return 0, err
	}
	return s.w.Write(p)
}

func (s *connStream) Flush() error {
	if err := s.arm(); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *connStream) arm() error {
	if s.timeout <= 0 {
		return nil
	}
	return s.conn.SetWriteDeadline(time.Now().Add(s.timeout))
}
