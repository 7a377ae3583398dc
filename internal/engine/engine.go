package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leengari/mini-tables/internal/domain/errors"
	"github.com/leengari/mini-tables/internal/domain/schema"
	"github.com/leengari/mini-tables/internal/domain/table"
	"github.com/leengari/mini-tables/internal/formula"
	"github.com/leengari/mini-tables/internal/metrics"
	"github.com/leengari/mini-tables/internal/plot"
	"github.com/leengari/mini-tables/internal/query/operations"
	"github.com/leengari/mini-tables/internal/refresh"
	"github.com/leengari/mini-tables/internal/stream"
	"github.com/leengari/mini-tables/internal/timeconv"
)

// Function is a callable namespace variable, e.g. add_more_rows
type Function func(ctx context.Context) error

// refresher is implemented by tables that can be ticked on demand
type refresher interface {
	Refresh(ctx context.Context) error
}

// Engine is the main entry point: it owns the scripting namespace and
// every live table created through it
type Engine struct {
	mu         sync.RWMutex
	vars       map[string]any // *table.Table, *plot.Figure or Function
	refreshers map[*table.Table]refresher
	publishers []*stream.Publisher
	closed     bool

	obsMu     sync.Mutex
	observers []Observer // Observers for lifecycle events

	sched *refresh.Scheduler
	scope *formula.Scope
}

// New creates an engine with a running refresh scheduler
func New() *Engine {
	e := &Engine{
		vars:       make(map[string]any),
		refreshers: make(map[*table.Table]refresher),
		sched:      refresh.NewScheduler(),
		scope: &formula.Scope{
			Vars:         map[string]any{},
			Now:          time.Now,
			ParseInstant: timeconv.ParseInstant,
		},
		observers: make([]Observer, 0),
	}
	e.sched.Start()
	return e
}

// Scope returns the query scope formulas are compiled in
func (e *Engine) Scope() *formula.Scope { return e.scope }

// EmptyTable returns a static table of n rows and no columns
func (e *Engine) EmptyTable(n int) *table.Table {
	return table.NewStatic("empty_table", operations.EmptyTable(n))
}

// NewTable builds a static table from literal columns
func (e *Engine) NewTable(cols ...operations.ColumnSpec) (*table.Table, error) {
	snap, err := operations.NewTable(cols...)
	if err != nil {
		return nil, err
	}
	return table.NewStatic("new_table", snap), nil
}

// TimeTable creates a table that gains a Timestamp row every period
func (e *Engine) TimeTable(period time.Duration) (*table.Table, error) {
	tt, err := refresh.NewTimeTable(e.sched, "time_table", period, time.Time{})
	if err != nil {
		return nil, err
	}
	e.track(tt.Table, tt)
	return tt.Table, nil
}

// Update applies formulas; the result follows t if t is refreshing
func (e *Engine) Update(t *table.Table, formulas ...string) (*table.Table, error) {
	return operations.UpdateLive(t, e.scope, formulas...)
}

// TablePublisher creates a blink table and the publisher that feeds it.
// The publisher is closed by Close.
func (e *Engine) TablePublisher(name string, s *schema.TableSchema) (*table.Table, *stream.Publisher) {
	blink, pub := stream.TablePublisher(name, s)
	e.mu.Lock()
	e.publishers = append(e.publishers, pub)
	e.mu.Unlock()
	return blink, pub
}

// BlinkToAppendOnly accumulates a blink table's future batches
func (e *Engine) BlinkToAppendOnly(blink *table.Table) (*table.Table, error) {
	return stream.BlinkToAppendOnly(blink)
}

// FunctionGeneratedTable creates a table rebuilt by gen every interval
func (e *Engine) FunctionGeneratedTable(ctx context.Context, name string, gen refresh.Generator, interval time.Duration) (*table.Table, error) {
	g, err := refresh.FunctionGeneratedTable(ctx, e.sched, name, gen, interval)
	if err != nil {
		return nil, err
	}
	e.track(g.Table, g)
	return g.Table, nil
}

// Figure starts a figure builder
func (e *Engine) Figure() *plot.Builder {
	return plot.NewFigure()
}

// ParseInstant converts "2021-06-02T08:00:02 ET" style literals
func (e *Engine) ParseInstant(s string) (time.Time, error) {
	return timeconv.ParseInstant(s)
}

func (e *Engine) track(t *table.Table, r refresher) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.refreshers[t] = r
}

// Refresh forces one tick of a generated or time table
func (e *Engine) Refresh(ctx context.Context, name string) error {
	t, err := e.Table(name)
	if err != nil {
		return err
	}
	e.mu.RLock()
	r, ok := e.refreshers[t]
	e.mu.RUnlock()
	if !ok {
		return fmt.Errorf("table %s is not refreshable", name)
	}
	return r.Refresh(ctx)
}

// Set registers a table, figure or function under name, replacing any
// existing variable of that name
func (e *Engine) Set(name string, v any) error {
	if fn, ok := v.(func(context.Context) error); ok {
		v = Function(fn)
	}
	kind := kindOf(v)
	if kind == "" {
		return fmt.Errorf("set %s: unsupported variable type %T", name, v)
	}

	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return fmt.Errorf("set %s: engine closed", name)
	}
	_, replaced := e.vars[name]
	e.vars[name] = v
	count := len(e.vars)
	e.mu.Unlock()

	metrics.NamespaceVariables.Set(float64(count))
	eventType := EventVariableSet
	if replaced {
		eventType = EventVariableReplaced
	}
	e.notify(Event{Type: eventType, Name: name, Data: kind})
	return nil
}

func kindOf(v any) string {
	switch v.(type) {
	case *table.Table:
		return "table"
	case *plot.Figure:
		return "figure"
	case Function:
		return "function"
	}
	return ""
}

// Get returns the variable registered under name
func (e *Engine) Get(name string) (any, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.vars[name]
	return v, ok
}

// Table returns the named table
func (e *Engine) Table(name string) (*table.Table, error) {
	v, ok := e.Get(name)
	t, isTable := v.(*table.Table)
	if !ok || !isTable {
		return nil, &errors.VariableNotFoundError{Name: name, Kind: "table"}
	}
	return t, nil
}

// FigureByName returns the named figure
func (e *Engine) FigureByName(name string) (*plot.Figure, error) {
	v, ok := e.Get(name)
	f, isFigure := v.(*plot.Figure)
	if !ok || !isFigure {
		return nil, &errors.VariableNotFoundError{Name: name, Kind: "figure"}
	}
	return f, nil
}

// Call runs the named function variable
func (e *Engine) Call(ctx context.Context, name string) error {
	v, ok := e.Get(name)
	fn, isFunc := v.(Function)
	if !ok || !isFunc {
		return &errors.VariableNotFoundError{Name: name, Kind: "function"}
	}

	runID := uuid.New().String()
	e.notify(Event{Type: EventCallStart, RunID: runID, Name: name})
	err := fn(ctx)
	e.notify(Event{Type: EventCallEnd, RunID: runID, Name: name, Data: errString(err)})
	if err != nil {
		return fmt.Errorf("call %s: %w", name, err)
	}
	return nil
}

// Variable describes one namespace entry
type Variable struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Names returns all variable names in sorted order
func (e *Engine) Names() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.vars))
	for name := range e.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Variables lists the namespace with each variable's kind
func (e *Engine) Variables() []Variable {
	names := e.Names()
	out := make([]Variable, 0, len(names))
	for _, name := range names {
		if v, ok := e.Get(name); ok {
			out = append(out, Variable{Name: name, Type: kindOf(v)})
		}
	}
	return out
}

// RunScript runs one start-up script, bracketed by script events
func (e *Engine) RunScript(ctx context.Context, name string, fn func(ctx context.Context, e *Engine) error) error {
	runID := uuid.New().String()
	e.notify(Event{Type: EventScriptStart, RunID: runID, Name: name})
	err := fn(ctx, e)
	e.notify(Event{Type: EventScriptEnd, RunID: runID, Name: name, Data: errString(err)})
	if err != nil {
		return fmt.Errorf("script %s: %w", name, err)
	}
	return nil
}

// Close stops refreshing and closes every publisher. Tables keep their
// last snapshot.
func (e *Engine) Close() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	pubs := e.publishers
	e.mu.Unlock()

	e.sched.Stop()
	for _, p := range pubs {
		p.Close()
	}
	e.notify(Event{Type: EventClose})
	slog.Info("engine closed", "publishers", len(pubs))
}

func errString(err error) interface{} {
	if err == nil {
		return nil
	}
	return err.Error()
}

// AddObserver registers an observer to receive lifecycle events
func (e *Engine) AddObserver(observer Observer) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	e.observers = append(e.observers, observer)
}

// RemoveObserver unregisters an observer
func (e *Engine) RemoveObserver(observer Observer) {
	e.obsMu.Lock()
	defer e.obsMu.Unlock()
	for i, o := range e.observers {
		if o == observer {
			e.observers = append(e.observers[:i], e.observers[i+1:]...)
			return
		}
	}
}

// notify sends an event to all registered observers
func (e *Engine) notify(event Event) {
	event.Timestamp = time.Now()
	e.obsMu.Lock()
	observers := append([]Observer(nil), e.observers...)
	e.obsMu.Unlock()
	for _, observer := range observers {
		observer.OnEvent(event)
	}
}
