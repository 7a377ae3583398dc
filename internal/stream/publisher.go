// Package stream bridges pushed batches into tables: a publisher feeds a
// blink table, and BlinkToAppendOnly accumulates a blink table's batches.
package stream

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/leengari/mini-tables/internal/domain/errors"
	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/metrics"
)

// Publisher writes batches to exactly one blink table
type Publisher struct {
	id     string
	mu     sync.Mutex // serializes Add and Close
	writer *table.Writer
	closed bool
}

// TablePublisher creates a blink table with schema s and its publisher.
// The blink table starts empty.
func TablePublisher(name string, s *schema.TableSchema) (*table.Table, *Publisher) {
	blink, writer := table.NewLive(name, table.KindBlink, table.Empty(s))
	p := &Publisher{
		id:     uuid.New().String(),
		writer: writer,
	}
	slog.Debug("publisher created", "table", name, "publisher_id", p.id)
	return blink, p
}

// ID identifies the publisher in logs
func (p *Publisher) ID() string { return p.id }

// Table returns the blink table this publisher writes to
func (p *Publisher) Table() *table.Table { return p.writer.Table() }

// Add publishes one batch as the blink table's new contents. The previous
// batch is dropped and observers see the batch as one tick.
func (p *Publisher) Add(batch *table.Snapshot) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return errors.ErrPublisherClosed
	}

	blink := p.writer.Table()
	if !blink.Schema().Equal(batch.Schema()) {
		return &errors.SchemaMismatchError{
			Target:   blink.Name(),
			Expected: blink.Schema().String(),
			Got:      batch.Schema().String(),
		}
	}

	if err := p.writer.Replace(batch, batch); err != nil {
		return fmt.Errorf("publish to %s: %w", blink.Name(), err)
	}
	metrics.PublishedRows.WithLabelValues(blink.Name()).Add(float64(batch.NumRows()))
	return nil
}

// Close stops the publisher. The blink table keeps its last batch.
func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	p.closed = true
	slog.Debug("publisher closed", "table", p.writer.Table().Name(), "publisher_id", p.id)
}

// IsAlive reports whether Add still accepts batches
func (p *Publisher) IsAlive() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return !p.closed
}
