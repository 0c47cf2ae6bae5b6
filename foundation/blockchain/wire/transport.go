package wire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// Request dials the host, sends the message and waits for one reply. The
// deadline of the context bounds the whole exchange.
func Request(ctx context.Context, host string, msg Message) (Message, error) {
	conn, err := dial(ctx, host)
	if err != nil {
		return nil, err
	}
	defer conn.Close()

	if err := Send(conn, msg); err != nil {
		return nil, fmt.Errorf("%s: send %s: %w", host, msg.Kind(), err)
	}

	reply, err := Receive(conn)
	if err != nil {
		return nil, fmt.Errorf("%s: receive reply to %s: %w", host, msg.Kind(), err)
	}

	return reply, nil
}

// Notify dials the host and sends a message that has no reply.
func Notify(ctx context.Context, host string, msg Message) error {
	conn, err := dial(ctx, host)
	if err != nil {
		return err
	}
	defer conn.Close()

	if err := Send(conn, msg); err != nil {
		return fmt.Errorf("%s: send %s: %w", host, msg.Kind(), err)
	}

	return nil
}

// dial opens a connection that honors the deadline of the context.
func dial(ctx context.Context, host string) (net.Conn, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", host)
	if err != nil {
		return nil, err
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return nil, err
		}
	}

	return conn, nil
}

// =============================================================================

// HandlerFunc processes a received message. A nil reply means nothing is
// written back. Returning an error closes the connection.
type HandlerFunc func(ctx context.Context, msg Message) (Message, error)

// Server accepts connections and hands every message received on them to
// the handler. A connection can carry any number of messages.
type Server struct {
	listener  net.Listener
	handler   HandlerFunc
	evHandler func(v string, args ...any)
	idle      time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

// NewServer starts listening on the host. Call Serve to start accepting.
func NewServer(host string, idle time.Duration, handler HandlerFunc, evHandler func(v string, args ...any)) (*Server, error) {
	listener, err := net.Listen("tcp", host)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	s := Server{
		listener:  listener,
		handler:   handler,
		evHandler: evHandler,
		idle:      idle,
		ctx:       ctx,
		cancel:    cancel,
		conns:     make(map[net.Conn]struct{}),
	}

	return &s, nil
}

// Addr returns the address the server is listening on.
func (s *Server) Addr() string {
	return s.listener.Addr().String()
}

// Serve accepts connections until Shutdown is called.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil {
				return nil
			}
			return err
		}

		s.track(conn, true)
		if s.ctx.Err() != nil {
			s.track(conn, false)
			conn.Close()
			return nil
		}
		s.wg.Add(1)

		go func() {
			defer func() {
				s.track(conn, false)
				conn.Close()
				s.wg.Done()
			}()

			s.serveConn(conn)
		}()
	}
}

// Shutdown stops accepting connections, closes the open ones and waits for
// their handlers to return.
func (s *Server) Shutdown(ctx context.Context) error {
	s.cancel()
	err := s.listener.Close()

	s.mu.Lock()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// serveConn processes messages on the connection until it closes.
func (s *Server) serveConn(conn net.Conn) {
	remote := conn.RemoteAddr().String()

	for {
		if s.idle > 0 {
			conn.SetReadDeadline(time.Now().Add(s.idle))
		}

		msg, err := Receive(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) && s.ctx.Err() == nil {
				s.evHandler("wire: serveConn: remote[%s]: ERROR: %s", remote, err)
			}
			return
		}

		reply, err := s.handler(s.ctx, msg)
		if err != nil {
			s.evHandler("wire: serveConn: remote[%s]: %s: ERROR: %s", remote, msg.Kind(), err)
			return
		}

		if reply == nil {
			continue
		}

		if err := Send(conn, reply); err != nil {
			s.evHandler("wire: serveConn: remote[%s]: send %s: ERROR: %s", remote, reply.Kind(), err)
			return
		}
	}
}

// track adds or removes an open connection.
func (s *Server) track(conn net.Conn, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if open {
		s.conns[conn] = struct{}{}
		return
	}
	delete(s.conns, conn)
}
