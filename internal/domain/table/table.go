package table

import (
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/leengari/mini-tables/internal/domain/errors"
	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/metrics"
)

// Kind identifies how a table's contents change over time
type Kind string

const (
	KindStatic     Kind = "static"
	KindBlink      Kind = "blink"
	KindAppendOnly Kind = "append_only"
	KindGenerated  Kind = "generated"
	KindTime       Kind = "time"
	KindDerived    Kind = "derived"
)

// Table is a named live handle on a sequence of snapshots.
// Readers load the current snapshot without locking; writers go through
// the Writer returned by NewLive and are serialized.
type Table struct {
	mu        sync.Mutex // serializes writers and guards observers
	name      string
	kind      Kind
	schema    *schema.TableSchema
	current   atomic.Pointer[Snapshot]
	tick      atomic.Uint64
	observers []Observer
}

// NewStatic wraps a snapshot in a table that never changes
func NewStatic(name string, snap *Snapshot) *Table {
	t := &Table{name: name, kind: KindStatic, schema: snap.Schema()}
	t.current.Store(snap)
	return t
}

// NewLive creates a refreshing table and the only Writer for it
func NewLive(name string, kind Kind, initial *Snapshot) (*Table, *Writer) {
	t := &Table{name: name, kind: kind, schema: initial.Schema()}
	t.current.Store(initial)
	return t, &Writer{table: t}
}

func (t *Table) Name() string { return t.name }

func (t *Table) Kind() Kind { return t.kind }

func (t *Table) Schema() *schema.TableSchema { return t.schema }

// IsRefreshing reports whether the table can change after creation
func (t *Table) IsRefreshing() bool { return t.kind != KindStatic }

// Snapshot returns the currently published snapshot
func (t *Table) Snapshot() *Snapshot {
	return t.current.Load()
}

// Size returns the row count of the current snapshot
func (t *Table) Size() int {
	return t.current.Load().NumRows()
}

// Tick returns how many ticks have been published
func (t *Table) Tick() uint64 {
	return t.tick.Load()
}

// AddObserver registers an observer to receive table ticks
func (t *Table) AddObserver(observer Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, observer)
}

// RemoveObserver unregisters an observer
func (t *Table) RemoveObserver(observer Observer) {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, o := range t.observers {
		if o == observer {
			t.observers = append(t.observers[:i:i], t.observers[i+1:]...)
			return
		}
	}
}

// AddObserverWithSnapshot registers an observer and returns the snapshot
// and tick current at registration, so no tick is missed or seen twice
func (t *Table) AddObserverWithSnapshot(observer Observer) (*Snapshot, uint64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.observers = append(t.observers, observer)
	return t.current.Load(), t.tick.Load()
}

// Writer publishes new snapshots to one table
type Writer struct {
	table *Table
}

func (w *Writer) Table() *Table { return w.table }

// Replace swaps the whole snapshot. added is what observers receive as
// the tick's new rows; pass next when every row is new.
func (w *Writer) Replace(next, added *Snapshot) error {
	t := w.table
	if !t.schema.Equal(next.Schema()) {
		return &errors.SchemaMismatchError{Target: t.name, Expected: t.schema.String(), Got: next.Schema().String()}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	prev := t.current.Load()
	t.current.Store(next)
	t.notifyUnsafe(Event{
		Type:    EventReplaced,
		Added:   added,
		Current: next,
		Removed: prev.NumRows(),
	})
	return nil
}

// Append adds rows after the current snapshot's rows
func (w *Writer) Append(rows *Snapshot) error {
	t := w.table
	if !t.schema.Equal(rows.Schema()) {
		return &errors.SchemaMismatchError{Target: t.name, Expected: t.schema.String(), Got: rows.Schema().String()}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	next, err := t.current.Load().Concat(rows)
	if err != nil {
		return err
	}
	t.current.Store(next)
	t.notifyUnsafe(Event{
		Type:    EventAppended,
		Added:   rows,
		Current: next,
	})
	return nil
}

// notifyUnsafe sends an event to all registered observers
// IMPORTANT: Must be called while holding t.mu
func (t *Table) notifyUnsafe(event Event) {
	event.Table = t.name
	event.Tick = t.tick.Add(1)
	event.Timestamp = time.Now()

	slog.Debug("table tick",
		"table", t.name,
		"type", event.Type,
		"tick", event.Tick,
		"rows", event.Current.NumRows(),
	)
	metrics.TableTicks.WithLabelValues(t.name, string(t.kind)).Inc()
	metrics.TableRows.WithLabelValues(t.name).Set(float64(event.Current.NumRows()))

	for _, observer := range t.observers {
		observer.OnEvent(event)
	}
}
