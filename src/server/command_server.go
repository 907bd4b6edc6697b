package server

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"signal-tracker/src/logger"
	"signal-tracker/src/models"
)

// A command line has a short verb plus one argument; anything near this
// limit is garbage, not a command.
const maxCommandBytes = 512

// Once command bytes start arriving, a client that never sends the
// terminator should not stall its reply for the whole idle window.
const lineSettleTimeout = time.Second

// -----------------------------------------------------------------------------
// CommandServer
// -----------------------------------------------------------------------------

// CommandServer accepts one inbound TCP connection per request, reads
// exactly one command, writes exactly one response and closes. Each
// connection is handled on its own goroutine with bounded read/write
// deadlines, so a stalled client cannot wedge the accept loop.
type CommandServer struct {
	Config     *models.MConfig
	Dispatcher *Dispatcher
	Logger     *logger.Logger

	listener net.Listener
}

// -----------------------------------------------------------------------------

func NewCommandServer(cfg *models.MConfig, dispatcher *Dispatcher, log *logger.Logger) *CommandServer {
	return &CommandServer{Config: cfg, Dispatcher: dispatcher, Logger: log}
}

// -----------------------------------------------------------------------------

// Listen binds the configured address. Returned errors are fatal startup
// failures.
func (s *CommandServer) Listen() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("bind %s: %w", addr, err)
	}
	s.listener = listener
	s.Logger.Info("command server listening on %s", addr)
	return nil
}

// -----------------------------------------------------------------------------

// Addr returns the bound address; valid after Listen.
func (s *CommandServer) Addr() net.Addr {
	return s.listener.Addr()
}

// -----------------------------------------------------------------------------

// Serve runs the accept loop until ctx is cancelled. Listen must have
// been called first.
func (s *CommandServer) Serve(ctx context.Context) error {
	go func() {
		<-ctx.Done()
		s.listener.Close()
	}()

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.Logger.Warning("accept failed: %v", err)
			continue
		}
		go s.handleConn(ctx, conn)
	}
}

// -----------------------------------------------------------------------------

func (s *CommandServer) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	defer func() {
		// A command must never take the server down.
		if r := recover(); r != nil {
			s.Logger.Error("panic handling %s: %v", conn.RemoteAddr(), r)
		}
	}()

	readTimeout := time.Duration(s.Config.Server.ReadTimeoutSeconds) * time.Second
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := time.Duration(s.Config.Server.WriteTimeoutSeconds) * time.Second
	if writeTimeout <= 0 {
		writeTimeout = 10 * time.Second
	}

	line, err := readCommand(conn, readTimeout)
	if err != nil && line == "" {
		// No command within the window: drop the connection.
		s.Logger.Debug("read from %s failed: %v", conn.RemoteAddr(), err)
		return
	}

	resp := s.Dispatcher.Execute(ctx, line)

	conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if _, err := conn.Write(resp.Encode()); err != nil {
		s.Logger.Debug("write to %s failed: %v", conn.RemoteAddr(), err)
	}
}

// -----------------------------------------------------------------------------

// readCommand reads one command line. Framing is a trailing newline or a
// half-close (EOF); a client that sends neither still gets an answer
// once the settle window after its last bytes expires, rather than after
// the full idle timeout.
func readCommand(conn net.Conn, timeout time.Duration) (string, error) {
	conn.SetReadDeadline(time.Now().Add(timeout))
	reader := bufio.NewReaderSize(conn, maxCommandBytes)

	var line []byte
	for len(line) < maxCommandBytes {
		b, err := reader.ReadByte()
		if err != nil {
			return string(line), err
		}
		conn.SetReadDeadline(time.Now().Add(lineSettleTimeout))
		line = append(line, b)
		if b == '\n' {
			break
		}
	}
	return string(line), nil
}
