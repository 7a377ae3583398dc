package table

import (
	stderrors "errors"
	"sync"
	"testing"

	"github.com/leengari/mini-tables/internal/domain/errors"
	"github.com/leengari/mini-tables/internal/domain/schema"
)

// MockObserver is a test observer that records events
type MockObserver struct {
	mu     sync.Mutex
	Events []Event
}

func (m *MockObserver) OnEvent(event Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

var xySchema = schema.MustNew(
	schema.Column{Name: "x", Type: schema.ColumnTypeString},
	schema.Column{Name: "y", Type: schema.ColumnTypeInt},
)

func batch(t *testing.T, label string, n int) *Snapshot {
	t.Helper()
	xs := make([]any, n)
	ys := make([]any, n)
	for i := 0; i < n; i++ {
		xs[i] = label
		ys[i] = i
	}
	snap, err := NewSnapshot(xySchema, [][]any{xs, ys})
	if err != nil {
		t.Fatalf("NewSnapshot failed: %v", err)
	}
	return snap
}

func TestNewSnapshotCoercesAndValidates(t *testing.T) {
	snap := batch(t, "a", 3)
	if snap.NumRows() != 3 || snap.NumColumns() != 2 {
		t.Fatalf("Expected 3x2, got %dx%d", snap.NumRows(), snap.NumColumns())
	}
	v, _ := snap.Value("y", 2)
	if v != int32(2) {
		t.Errorf("Expected int32 2, got %T %v", v, v)
	}

	_, err := NewSnapshot(xySchema, [][]any{{"a"}, {"not a number"}})
	var ce *errors.ConstraintError
	if !stderrors.As(err, &ce) || ce.Constraint != "type_mismatch" {
		t.Errorf("Expected type_mismatch, got %v", err)
	}

	_, err = NewSnapshot(xySchema, [][]any{{"a"}})
	var sme *errors.SchemaMismatchError
	if !stderrors.As(err, &sme) {
		t.Errorf("Expected SchemaMismatchError, got %v", err)
	}

	notNull := schema.MustNew(schema.Column{Name: "n", Type: schema.ColumnTypeInt, NotNull: true})
	_, err = NewSnapshot(notNull, [][]any{{1, nil}})
	if !stderrors.As(err, &ce) || ce.Constraint != "not_null" {
		t.Errorf("Expected not_null violation, got %v", err)
	}
}

func TestSnapshotSliceAndConcat(t *testing.T) {
	a := batch(t, "a", 5)
	b := batch(t, "b", 3)

	joined, err := a.Concat(b)
	if err != nil {
		t.Fatalf("Concat failed: %v", err)
	}
	if joined.NumRows() != 8 {
		t.Fatalf("Expected 8 rows, got %d", joined.NumRows())
	}
	if x, _ := joined.Value("x", 5); x != "b" {
		t.Errorf("Expected b at row 5, got %v", x)
	}
	// inputs are untouched
	if a.NumRows() != 5 {
		t.Errorf("Concat modified its receiver")
	}

	if got := joined.Slice(3, 6).NumRows(); got != 3 {
		t.Errorf("Expected 3 rows, got %d", got)
	}
	if got := joined.Head(100).NumRows(); got != 8 {
		t.Errorf("Expected Head to clamp, got %d", got)
	}
	if got := joined.Slice(6, 2).NumRows(); got != 0 {
		t.Errorf("Expected empty slice, got %d", got)
	}

	other := NoColumns(2)
	if _, err := a.Concat(other); err == nil {
		t.Error("Expected schema mismatch on concat")
	}
}

func TestWithColumnKeepsPosition(t *testing.T) {
	snap := batch(t, "a", 2)
	next, err := snap.WithColumn(schema.Column{Name: "x", Type: schema.ColumnTypeLong}, []any{int64(7), int64(8)})
	if err != nil {
		t.Fatalf("WithColumn failed: %v", err)
	}
	if names := next.Schema().Names(); names[0] != "x" || names[1] != "y" {
		t.Errorf("Expected [x y], got %v", names)
	}
	if v, _ := next.Value("x", 1); v != int64(8) {
		t.Errorf("Expected 8, got %v", v)
	}
	if v, _ := snap.Value("x", 1); v != "a" {
		t.Errorf("Original snapshot changed: %v", v)
	}

	if _, err := snap.WithColumn(schema.Column{Name: "z", Type: schema.ColumnTypeInt}, []any{int32(1)}); err == nil {
		t.Error("Expected error on wrong row count")
	}
}

func TestAddObserver(t *testing.T) {
	tbl, _ := NewLive("t", KindBlink, Empty(xySchema))
	observer := &MockObserver{}

	tbl.AddObserver(observer)

	if len(tbl.observers) != 1 {
		t.Errorf("Expected 1 observer, got %d", len(tbl.observers))
	}
}

func TestRemoveObserver(t *testing.T) {
	tbl, w := NewLive("t", KindBlink, Empty(xySchema))
	observer := &MockObserver{}

	tbl.AddObserver(observer)
	tbl.RemoveObserver(observer)

	if len(tbl.observers) != 0 {
		t.Errorf("Expected 0 observers, got %d", len(tbl.observers))
	}
	if err := w.Replace(batch(t, "a", 1), nil); err != nil {
		t.Fatal(err)
	}
	if len(observer.Events) != 0 {
		t.Errorf("Removed observer received %d events", len(observer.Events))
	}
}

func TestAddObserverWithSnapshotTick(t *testing.T) {
	tbl, w := NewLive("t", KindBlink, Empty(xySchema))

	batches := make([]*Snapshot, 200)
	for i := range batches {
		batches[i] = batch(t, "a", i%5)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for _, b := range batches {
			if err := w.Replace(b, nil); err != nil {
				t.Error(err)
				return
			}
		}
	}()

	type registration struct {
		observer *MockObserver
		snap     *Snapshot
		tick     uint64
	}
	var regs []registration
	for i := 0; i < 50; i++ {
		observer := &MockObserver{}
		snap, tick := tbl.AddObserverWithSnapshot(observer)
		regs = append(regs, registration{observer, snap, tick})
	}
	<-done

	for i, reg := range regs {
		reg.observer.mu.Lock()
		events := reg.observer.Events
		reg.observer.mu.Unlock()
		if uint64(len(events)) != 200-reg.tick {
			t.Errorf("registration %d at tick %d got %d events", i, reg.tick, len(events))
		}
		if len(events) > 0 && events[0].Tick != reg.tick+1 {
			t.Errorf("registration %d at tick %d first saw tick %d", i, reg.tick, events[0].Tick)
		}
	}
	if last := regs[len(regs)-1]; last.tick == 200 && last.snap != tbl.Snapshot() {
		t.Errorf("Expected the final snapshot at tick 200")
	}
}

func TestReplaceNotifiesInOrder(t *testing.T) {
	tbl, w := NewLive("blink", KindBlink, Empty(xySchema))
	observer1 := &MockObserver{}
	observer2 := &MockObserver{}
	tbl.AddObserver(observer1)
	tbl.AddObserver(observer2)

	first := batch(t, "a", 4)
	second := batch(t, "b", 2)
	if err := w.Replace(first, first); err != nil {
		t.Fatal(err)
	}
	if err := w.Replace(second, second); err != nil {
		t.Fatal(err)
	}

	if tbl.Size() != 2 || tbl.Tick() != 2 {
		t.Errorf("Expected 2 rows at tick 2, got %d rows at tick %d", tbl.Size(), tbl.Tick())
	}
	for _, o := range []*MockObserver{observer1, observer2} {
		if len(o.Events) != 2 {
			t.Fatalf("Expected 2 events, got %d", len(o.Events))
		}
		if o.Events[0].Tick != 1 || o.Events[1].Tick != 2 {
			t.Errorf("Expected ticks 1,2 got %d,%d", o.Events[0].Tick, o.Events[1].Tick)
		}
		if o.Events[1].Removed != 4 || o.Events[1].Added != second {
			t.Errorf("Unexpected second event %+v", o.Events[1])
		}
		if o.Events[0].Timestamp.IsZero() || o.Events[0].Table != "blink" {
			t.Errorf("Expected table name and timestamp to be set")
		}
	}
}

func TestAppendGrows(t *testing.T) {
	tbl, w := NewLive("log", KindAppendOnly, Empty(xySchema))
	observer := &MockObserver{}
	tbl.AddObserver(observer)

	for i := 0; i < 3; i++ {
		if err := w.Append(batch(t, "a", 10)); err != nil {
			t.Fatal(err)
		}
	}
	if tbl.Size() != 30 {
		t.Errorf("Expected 30 rows, got %d", tbl.Size())
	}
	if observer.Events[2].Type != EventAppended || observer.Events[2].Added.NumRows() != 10 {
		t.Errorf("Unexpected append event %+v", observer.Events[2])
	}
}

func TestWriterRejectsOtherSchemas(t *testing.T) {
	tbl, w := NewLive("t", KindBlink, Empty(xySchema))
	err := w.Replace(NoColumns(3), nil)
	var sme *errors.SchemaMismatchError
	if !stderrors.As(err, &sme) {
		t.Errorf("Expected SchemaMismatchError, got %v", err)
	}
	if tbl.Tick() != 0 {
		t.Errorf("Rejected write must not tick")
	}
}

func TestStaticTable(t *testing.T) {
	tbl := NewStatic("s", batch(t, "a", 3))
	if tbl.IsRefreshing() || tbl.Kind() != KindStatic || tbl.Size() != 3 {
		t.Errorf("Unexpected static table state")
	}
}
