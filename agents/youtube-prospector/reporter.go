package youtubeprospector

import (
	"log/slog"
)

// Reporter receives human-readable progress messages during a run.
// Implementations must return promptly; the pipeline does not wait on them.
type Reporter interface {
	Notify(msg string)
}

// NopReporter discards every message.
type NopReporter struct{}

func (NopReporter) Notify(string) {}

// LogReporter forwards progress messages to the structured logger.
type LogReporter struct {
	Logger *slog.Logger
}

func (r LogReporter) Notify(msg string) {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info(msg, slog.String("component", "prospector"))
}

// FuncReporter adapts a plain function to the Reporter interface.
type FuncReporter func(msg string)

func (f FuncReporter) Notify(msg string) {
	if f != nil {
		f(msg)
	}
}
