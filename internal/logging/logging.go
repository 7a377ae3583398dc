// Package logging wires slog to the console and, optionally, to Seq
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	slogseq "github.com/sokkalf/slog-seq"
)

// multiHandler forwards log records to multiple handlers
type multiHandler struct {
	handlers []slog.Handler
}

func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	// Enable if any handler is enabled for this level
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithAttrs(attrs)
	}
	return &multiHandler{handlers: handlers}
}

func (m *multiHandler) WithGroup(name string) slog.Handler {
	handlers := make([]slog.Handler, len(m.handlers))
	for i, h := range m.handlers {
		handlers[i] = h.WithGroup(name)
	}
	return &multiHandler{handlers: handlers}
}

// Options selects the log level and the optional Seq sink
type Options struct {
	Level  slog.Level
	SeqURL string    // empty disables Seq
	Output io.Writer // console output, os.Stdout when nil
}

// SetupLogger builds the logger and returns a cleanup function that
// flushes the Seq sink
func SetupLogger(opts Options) (*slog.Logger, func()) {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     opts.Level,
		AddSource: opts.Level <= slog.LevelDebug,
	}

	// Console handler
	consoleHandler := slog.NewTextHandler(out, handlerOpts)
	if opts.SeqURL == "" {
		return slog.New(consoleHandler), func() {}
	}

	// Seq handler
	_, seqHandler := slogseq.NewLogger(
		opts.SeqURL,
		slogseq.WithBatchSize(50),
		slogseq.WithFlushInterval(500*time.Millisecond),
		slogseq.WithHandlerOptions(handlerOpts),
	)

	// If Seq is not available, use console only
	if seqHandler == nil {
		return slog.New(consoleHandler), func() {}
	}

	multi := &multiHandler{
		handlers: []slog.Handler{consoleHandler, seqHandler},
	}

	return slog.New(multi), func() { seqHandler.Close() }
}
