package operations

import (
	"log/slog"
	"sync"

	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/formula"
)

// derived re-applies formulas to each new parent snapshot
type derived struct {
	mu       sync.Mutex
	seen     bool
	writer   *table.Writer
	scope    *formula.Scope
	formulas []string
}

func (d *derived) OnEvent(event table.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.seen = true
	d.apply(event.Current)
}

func (d *derived) apply(parent *table.Snapshot) {
	next, err := Update(parent, d.scope, d.formulas...)
	if err == nil {
		err = d.writer.Replace(next, next)
	}
	if err != nil {
		slog.Error("derived table update failed",
			"table", d.writer.Table().Name(),
			"error", err,
		)
	}
}

// UpdateLive applies formulas to a table. A static parent yields a static
// result; otherwise the result is a derived table that recomputes every
// time the parent ticks.
func UpdateLive(parent *table.Table, scope *formula.Scope, formulas ...string) (*table.Table, error) {
	name := parent.Name() + "_update"

	initial := parent.Snapshot()
	first, err := Update(initial, scope, formulas...)
	if err != nil {
		return nil, err
	}
	if !parent.IsRefreshing() {
		return table.NewStatic(name, first), nil
	}

	out, writer := table.NewLive(name, table.KindDerived, first)
	d := &derived{writer: writer, scope: scope, formulas: formulas}
	current, _ := parent.AddObserverWithSnapshot(d)

	// catch up on a parent tick that landed before registration
	d.mu.Lock()
	if !d.seen && current != initial {
		d.apply(current)
	}
	d.mu.Unlock()

	return out, nil
}
