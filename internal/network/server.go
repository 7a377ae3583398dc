// Package network serves the namespace over TCP as newline-delimited JSON
package network

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"strings"
	"sync"

	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/executor"
	"github.com/leengari/mini-tables/internal/metrics"
)

// OpSubscribe streams the named table, one response per tick
const OpSubscribe = "subscribe"

// Request is one line sent by a client
type Request = executor.Command

// Server accepts client connections for one engine
type Server struct {
	eng      *engine.Engine
	listener net.Listener

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

// NewServer creates a server for eng; call Listen then Serve
func NewServer(eng *engine.Engine) *Server {
	return &Server{eng: eng, conns: make(map[net.Conn]struct{})}
}

// Listen binds addr, e.g. ":4444" or "127.0.0.1:0"
func (s *Server) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", addr, err)
	}
	s.listener = listener
	return nil
}

// Addr is the bound address
func (s *Server) Addr() net.Addr {
	return s.listener.Addr()
}

// Serve accepts connections until ctx is cancelled, then closes every
// open connection and waits for the handlers
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		return errors.New("serve: not listening")
	}
	go func() {
		<-ctx.Done()
		s.listener.Close()
		s.mu.Lock()
		for conn := range s.conns {
			conn.Close()
		}
		s.mu.Unlock()
	}()

	slog.Info("Running on address", "addr", s.listener.Addr().String())

	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				s.wg.Wait()
				return nil
			}
			slog.Error("Failed to accept connection", "error", err)
			continue
		}
		s.track(conn, true)
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			defer s.track(conn, false)
			s.handleConnection(ctx, conn)
		}()
	}
}

// Start listens on addr and serves until ctx is cancelled
func Start(ctx context.Context, addr string, eng *engine.Engine) error {
	s := NewServer(eng)
	if err := s.Listen(addr); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) track(conn net.Conn, open bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if open {
		s.conns[conn] = struct{}{}
		return
	}
	delete(s.conns, conn)
	conn.Close()
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	decoder := json.NewDecoder(conn)
	encoder := json.NewEncoder(conn)

	for {
		var req Request
		if err := decoder.Decode(&req); err != nil {
			if err == io.EOF || ctx.Err() != nil {
				return // Connection closed gracefully
			}
			slog.Error("decode error", "error", err)
			metrics.ServerRequests.WithLabelValues("invalid", "error").Inc()
			_ = encoder.Encode(executor.ErrorResult(fmt.Errorf("invalid request format: %v", err)))
			return
		}

		op := strings.ToLower(req.Op)
		if op == "exit" || op == "\\q" {
			return
		}
		if op == OpSubscribe {
			s.subscribe(ctx, conn, decoder, encoder, req)
			return
		}

		result, err := executor.Execute(ctx, s.eng, req)
		if err != nil {
			metrics.ServerRequests.WithLabelValues(op, "error").Inc()
			result = executor.ErrorResult(err)
		} else {
			metrics.ServerRequests.WithLabelValues(op, "ok").Inc()
		}
		if err := encoder.Encode(result); err != nil {
			slog.Error("encode error", "error", err)
			return
		}
	}
}

// latest is a table observer that keeps only the newest unread tick
type latest struct {
	ch chan table.Event
}

func (l *latest) OnEvent(event table.Event) {
	select {
	case l.ch <- event:
	default:
		select {
		case <-l.ch:
		default:
		}
		select {
		case l.ch <- event:
		default:
		}
	}
}

// subscribe owns the connection until the client goes away. Slow
// clients skip intermediate ticks and always receive the newest one.
func (s *Server) subscribe(ctx context.Context, conn net.Conn, decoder *json.Decoder, encoder *json.Encoder, req Request) {
	t, err := s.eng.Table(req.Name)
	if err != nil {
		metrics.ServerRequests.WithLabelValues(OpSubscribe, "error").Inc()
		_ = encoder.Encode(executor.ErrorResult(err))
		return
	}
	metrics.ServerRequests.WithLabelValues(OpSubscribe, "ok").Inc()

	obs := &latest{ch: make(chan table.Event, 1)}
	initial, initialTick := t.AddObserverWithSnapshot(obs)
	defer t.RemoveObserver(obs)

	// any further input, or EOF, ends the subscription
	gone := make(chan struct{})
	go func() {
		defer close(gone)
		var ignored json.RawMessage
		_ = decoder.Decode(&ignored)
	}()

	send := func(snap *table.Snapshot, tick uint64) bool {
		query, err := executor.Query(s.eng, snap, req)
		var res *executor.Result
		if err != nil {
			res = executor.ErrorResult(err)
		} else {
			res = executor.TableResult(query, req.Limit)
			res.Tick = tick
		}
		if err := encoder.Encode(res); err != nil {
			slog.Debug("subscriber gone", "table", req.Name, "error", err)
			return false
		}
		return true
	}

	if !send(initial, initialTick) {
		return
	}
	for {
		select {
		case <-ctx.Done():
			return
		case <-gone:
			return
		case event := <-obs.ch:
			if !send(event.Current, event.Tick) {
				return
			}
		}
	}
}
