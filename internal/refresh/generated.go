package refresh

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/metrics"
)

// Generator builds the complete contents of a generated table
type Generator func(ctx context.Context) (*table.Snapshot, error)

// GeneratedTable is a table whose snapshot is rebuilt by a generator
type GeneratedTable struct {
	*table.Table
	mu        sync.Mutex // one regeneration at a time
	writer    *table.Writer
	generator Generator
}

// FunctionGeneratedTable runs generator once now, publishes the result,
// and schedules it to run again every interval. Later snapshots must keep
// the first snapshot's schema.
func FunctionGeneratedTable(ctx context.Context, sched *Scheduler, name string, generator Generator, interval time.Duration) (*GeneratedTable, error) {
	first, err := generate(ctx, name, generator)
	if err != nil {
		return nil, fmt.Errorf("function_generated_table %s: %w", name, err)
	}

	t, writer := table.NewLive(name, table.KindGenerated, first)
	g := &GeneratedTable{Table: t, writer: writer, generator: generator}

	if sched != nil {
		err := sched.Every(name, interval, func(ctx context.Context) {
			if err := g.Refresh(ctx); err != nil {
				slog.Warn("generated table refresh failed, keeping previous snapshot",
					"table", name,
					"error", err,
				)
			}
		})
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Refresh regenerates the table now. On error the current snapshot stays.
func (g *GeneratedTable) Refresh(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	next, err := generate(ctx, g.Name(), g.generator)
	if err != nil {
		metrics.GeneratorErrors.WithLabelValues(g.Name()).Inc()
		return err
	}
	if err := g.writer.Replace(next, next); err != nil {
		metrics.GeneratorErrors.WithLabelValues(g.Name()).Inc()
		return err
	}
	return nil
}

func generate(ctx context.Context, name string, generator Generator) (*table.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	start := time.Now()
	snap, err := generator(ctx)
	metrics.GeneratorDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("generator returned no table")
	}
	return snap, nil
}
