package observability

import (
	"context"
	"fmt"
	"log/slog"
)

// SlogObserver provides structured logging for engine and transport events
// using Go's slog package.
//
// Each event is written at the slog level matching its Level, with the event
// type as the message and Source plus every Data key as attributes. Handler
// level filtering therefore decides which events surface: node and edge events
// are emitted at LevelVerbose and only appear with a debug-level handler.
//
// Example:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
//	observer := observability.NewSlogObserver(logger)
//	svc := workflow.New(workflow.WithObserver(observer))
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates a SlogObserver writing to logger.
//
// The logger parameter selects the handler, output destination and level
// filter. A nil logger means slog.Default.
//
// Example with debug output:
//
//	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})
//	observer := observability.NewSlogObserver(slog.New(handler))
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

// OnEvent logs the event with structured attributes:
//   - source: the component that emitted the event (e.g. "engine")
//   - one attribute per Data key (e.g. run_id, node, step)
//
// The log record time is the logging time; Timestamp is not duplicated. The
// context is passed to LogAttrs for handlers that extract trace information.
func (o *SlogObserver) OnEvent(ctx context.Context, event Event) {
	attrs := make([]slog.Attr, 0, len(event.Data)+1)
	attrs = append(attrs, slog.String("source", event.Source))
	for k, v := range event.Data {
		attrs = append(attrs, slog.Any(k, v))
	}

	o.logger.LogAttrs(ctx, event.Level.SlogLevel(), string(event.Type), attrs...)
}

// NewObserver resolves an observer by configuration name: "slog" (or empty)
// logs to logger, "noop" discards. Any other name is an error.
//
// Example:
//
//	observer, err := observability.NewObserver(cfg.Observer, logger)
//	if err != nil {
//	    log.Fatalf("Invalid config: %v", err)
//	}
func NewObserver(name string, logger *slog.Logger) (Observer, error) {
	switch name {
	case "slog", "":
		return NewSlogObserver(logger), nil
	case "noop":
		return NoOpObserver{}, nil
	default:
		return nil, fmt.Errorf("unknown observer: %s", name)
	}
}
