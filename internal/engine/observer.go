package engine

import "time"

// EventType represents different lifecycle phases of the namespace
type EventType string

const (
	EventScriptStart EventType = "script_start"
	EventScriptEnd   EventType = "script_end"
	EventVariableSet EventType = "variable_set"
	// EventVariableReplaced fires when Set overwrites an existing name
	EventVariableReplaced EventType = "variable_replaced"
	EventCallStart        EventType = "call_start"
	EventCallEnd          EventType = "call_end"
	EventClose            EventType = "close"
)

// Event represents a lifecycle event of the engine
type Event struct {
	Type      EventType   // Type of event
	RunID     string      // Script run or call ID for tracing
	Name      string      // Variable, script or function name
	Timestamp time.Time   // When the event occurred
	Data      interface{} // Phase-specific data (e.g., variable kind, error)
}

// Observer interface for event subscribers
type Observer interface {
	OnEvent(event Event)
}
