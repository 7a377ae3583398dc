package table

import "time"

// EventType represents the kind of change a table tick carried
type EventType string

const (
	// EventReplaced: the whole snapshot was swapped (generated, blink, derived)
	EventReplaced EventType = "replaced"
	// EventAppended: rows were appended to the previous snapshot
	EventAppended EventType = "appended"
)

// Event describes one table tick
type Event struct {
	Type      EventType
	Table     string    // table name
	Tick      uint64    // 1-based tick counter of the table
	Added     *Snapshot // rows delivered by this tick (the batch for blink tables)
	Current   *Snapshot // snapshot visible after the tick
	Removed   int       // rows no longer visible after the tick
	Timestamp time.Time
}

// Observer receives table ticks. OnEvent is called synchronously while
// the writer lock is held, in the order ticks are published; it must not
// write to the same table.
type Observer interface {
	OnEvent(event Event)
}
