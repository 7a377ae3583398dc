package refresh

import (
	"context"
	"log/slog"
	"time"

	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
)

// TimestampColumn is the single column of a time table
const TimestampColumn = "Timestamp"

var timeSchema = schema.MustNew(schema.Column{Name: TimestampColumn, Type: schema.ColumnTypeInstant, NotNull: true})

// TimeTable gains one row per period holding the tick time
type TimeTable struct {
	*table.Table
	writer *table.Writer
	clock  func() time.Time
}

// NewTimeTable creates a time table whose first row is start (or now when
// start is zero) and schedules a row every period
func NewTimeTable(sched *Scheduler, name string, period time.Duration, start time.Time) (*TimeTable, error) {
	return newTimeTable(sched, name, period, start, time.Now)
}

func newTimeTable(sched *Scheduler, name string, period time.Duration, start time.Time, clock func() time.Time) (*TimeTable, error) {
	if start.IsZero() {
		start = clock()
	}
	first, err := table.NewSnapshot(timeSchema, [][]any{{start.UTC()}})
	if err != nil {
		return nil, err
	}

	t, writer := table.NewLive(name, table.KindTime, first)
	tt := &TimeTable{Table: t, writer: writer, clock: clock}

	if sched != nil {
		if err := sched.Every(name, period, func(ctx context.Context) {
			if err := tt.Tick(ctx); err != nil {
				slog.Warn("time table tick failed", "table", name, "error", err)
			}
		}); err != nil {
			return nil, err
		}
	}
	return tt, nil
}

// Tick appends one row with the current time
func (tt *TimeTable) Tick(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row, err := table.NewSnapshot(timeSchema, [][]any{{tt.clock().UTC()}})
	if err != nil {
		return err
	}
	return tt.writer.Append(row)
}

// Refresh ticks once, so time tables can be forced like generated ones
func (tt *TimeTable) Refresh(ctx context.Context) error {
	return tt.Tick(ctx)
}
