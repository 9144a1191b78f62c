package events

import "log/slog"

// LogEmitter forwards events to an slog logger before handing them to the
// next emitter in the chain. Attribute maps are flattened into log fields.
type LogEmitter struct {
	logger *slog.Logger
	next   Emitter
}

// NewLogEmitter wraps next with structured event logging. A nil logger falls
// back to slog.Default and a nil next becomes a no-op sink.
func NewLogEmitter(logger *slog.Logger, next Emitter) *LogEmitter {
	if logger == nil {
		logger = slog.Default()
	}
	if next == nil {
		next = NoopEmitter{}
	}
	return &LogEmitter{logger: logger, next: next}
}

// Emit implements the Emitter interface.
func (l *LogEmitter) Emit(evt Event) {
	if l == nil || evt == nil {
		return
	}
	args := []any{slog.String("event", evt.EventType())}
	if payloader, ok := evt.(Payloader); ok {
		if payload := payloader.Event(); payload != nil {
			for key, value := range payload.Attributes {
				args = append(args, slog.String(key, value))
			}
		}
	}
	l.logger.Info("event emitted", args...)
	l.next.Emit(evt)
}
