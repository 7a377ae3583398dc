package engine

import "log/slog"

// LoggingObserver is a simple observer that logs all events using structured logging
type LoggingObserver struct {
	logger *slog.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver() *LoggingObserver {
	return &LoggingObserver{
		logger: slog.Default(),
	}
}

// OnEvent implements the Observer interface
func (lo *LoggingObserver) OnEvent(event Event) {
	lo.logger.Info("namespace_lifecycle",
		"event", event.Type,
		"run_id", event.RunID,
		"name", event.Name,
		"data", event.Data,
	)
}
