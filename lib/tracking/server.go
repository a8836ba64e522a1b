package tracking

import (
	"errors"
	"log/slog"
	"net"
	"sync"

	"github.com/google/uuid"

	"arzone/lib/osc"
	"arzone/lib/switchboard"
)

// Server accepts tracker connections and delivers their events in arrival
// order per connection.
type Server struct {
	listener net.Listener
	events   chan switchboard.Event
	log      *slog.Logger

	mu     sync.Mutex
	conns  map[net.Conn]struct{}
	closed bool
	done   chan struct{}
	wg     sync.WaitGroup
}

func Listen(addr string, log *slog.Logger) (*Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	s := &Server{
		listener: ln,
		events:   make(chan switchboard.Event, 256),
		log:      log,
		conns:    make(map[net.Conn]struct{}),
		done:     make(chan struct{}),
	}
	s.wg.Add(1)
	go s.serve()
	return s, nil
}

func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Events is closed after Close once every connection has drained.
func (s *Server) Events() <-chan switchboard.Event {
	return s.events
}

func (s *Server) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	close(s.done)
	err := s.listener.Close()
	for conn := range s.conns {
		conn.Close()
	}
	s.mu.Unlock()

	s.wg.Wait()
	close(s.events)
	return err
}

func (s *Server) serve() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				s.log.Warn("tracking accept failed", slog.Any("error", err))
			}
			return
		}
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			conn.Close()
			return
		}
		s.conns[conn] = struct{}{}
		s.wg.Add(1)
		s.mu.Unlock()
		go s.handleConn(conn)
	}
}

func (s *Server) handleConn(conn net.Conn) {
	defer s.wg.Done()
	defer func() {
		s.mu.Lock()
		delete(s.conns, conn)
		s.mu.Unlock()
		conn.Close()
	}()

	log := s.log.With(
		slog.String("session", uuid.NewString()),
		slog.String("remote", conn.RemoteAddr().String()))
	log.Info("tracker connected")
	dropped := func(n int) {
		log.Warn("discarding oversized osc data", slog.Int("bytes", n))
	}
	osc.ReadFrames(conn, dropped, func(frame []byte) {
		addr, args, err := osc.Parse(frame)
		if err != nil {
			log.Warn("dropping malformed osc frame", slog.Any("error", err))
			return
		}
		ev, err := Decode(addr, args)
		if err != nil {
			log.Warn("dropping tracking message", slog.Any("error", err))
			return
		}
		select {
		case s.events <- ev:
		case <-s.done:
		}
	})
	log.Info("tracker disconnected")
}
