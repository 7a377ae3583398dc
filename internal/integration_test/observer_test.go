package integration

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/leengari/mini-tables/internal/engine"
	"github.com/leengari/mini-tables/internal/fixtures"
)

// MockObserver records namespace events for inspection
type MockObserver struct {
	mu     sync.Mutex
	Events []engine.Event
}

func (m *MockObserver) OnEvent(event engine.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}

func (m *MockObserver) snapshot() []engine.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]engine.Event(nil), m.Events...)
}

// setupEngine runs every fixture script with ticks far enough apart that
// only explicit refreshes change generated tables
func setupEngine(t *testing.T, observers ...engine.Observer) *engine.Engine {
	t.Helper()
	eng := engine.New()
	t.Cleanup(eng.Close)
	for _, o := range observers {
		eng.AddObserver(o)
	}
	if err := fixtures.RunAll(context.Background(), eng, fixtures.Options{RefreshInterval: time.Hour}); err != nil {
		t.Fatalf("fixtures failed: %v", err)
	}
	return eng
}

// TestScriptLifecycleEvents verifies each script is bracketed by start and
// end events sharing a run ID
func TestScriptLifecycleEvents(t *testing.T) {
	observer := &MockObserver{}
	setupEngine(t, observer)

	open := map[string]string{}
	var order []string
	for _, event := range observer.snapshot() {
		switch event.Type {
		case engine.EventScriptStart:
			open[event.Name] = event.RunID
			order = append(order, event.Name)
		case engine.EventScriptEnd:
			runID, ok := open[event.Name]
			if !ok {
				t.Fatalf("script %s ended without starting", event.Name)
			}
			if runID != event.RunID {
				t.Errorf("script %s: RunID mismatch. Expected %s, got %s", event.Name, runID, event.RunID)
			}
			if event.Data != nil {
				t.Errorf("script %s failed: %v", event.Name, event.Data)
			}
			delete(open, event.Name)
		}
	}

	if len(open) != 0 {
		t.Errorf("scripts never ended: %v", open)
	}
	want := fixtures.Names()
	if len(order) != len(want) {
		t.Fatalf("Expected %d scripts, got %d: %v", len(want), len(order), order)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Errorf("Script %d: Expected %s, got %s", i, want[i], order[i])
		}
	}
}

// TestAllTypesReplaced checks the second registration of all_types is
// reported as a replacement
func TestAllTypesReplaced(t *testing.T) {
	observer := &MockObserver{}
	setupEngine(t, observer)

	var kinds []engine.EventType
	for _, event := range observer.snapshot() {
		if event.Name == "all_types" && (event.Type == engine.EventVariableSet || event.Type == engine.EventVariableReplaced) {
			kinds = append(kinds, event.Type)
		}
	}
	if len(kinds) != 2 || kinds[0] != engine.EventVariableSet || kinds[1] != engine.EventVariableReplaced {
		t.Errorf("Expected set then replaced, got %v", kinds)
	}
}
