package stream

import (
	"fmt"
	"log/slog"

	"github.com/leengari/mini-tables/internal/domain/table"
)

// appender copies every blink batch onto the end of an append-only table
type appender struct {
	writer *table.Writer
}

func (a *appender) OnEvent(event table.Event) {
	if event.Added == nil || event.Added.NumRows() == 0 {
		return
	}
	if err := a.writer.Append(event.Added); err != nil {
		slog.Error("append-only update failed",
			"table", a.writer.Table().Name(),
			"source", event.Table,
			"error", err,
		)
	}
}

// BlinkToAppendOnly returns a table that retains every batch the blink
// table receives from now on, in arrival order. Rows already in the blink
// table are not copied.
func BlinkToAppendOnly(blink *table.Table) (*table.Table, error) {
	if blink.Kind() != table.KindBlink {
		return nil, fmt.Errorf("blink_to_append_only: %s is a %s table, not blink", blink.Name(), blink.Kind())
	}

	out, writer := table.NewLive(blink.Name()+"_append_only", table.KindAppendOnly, table.Empty(blink.Schema()))
	blink.AddObserver(&appender{writer: writer})
	return out, nil
}
