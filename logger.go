package gpuboot

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
)

// nopHandler is a slog.Handler that silently discards all log records.
// The Enabled method returns false so the caller skips message formatting
// entirely, making disabled logging effectively zero-cost.
type nopHandler struct{}

func (nopHandler) Enabled(context.Context, slog.Level) bool  { return false }
func (nopHandler) Handle(context.Context, slog.Record) error { return nil }
func (nopHandler) WithAttrs([]slog.Attr) slog.Handler        { return nopHandler{} }
func (nopHandler) WithGroup(string) slog.Handler             { return nopHandler{} }

// newNopLogger creates a logger that silently discards all output.
func newNopLogger() *slog.Logger { return slog.New(nopHandler{}) }

// loggerPtr stores the active logger. Accessed atomically so that
// SetLogger can be called concurrently with logging from any goroutine,
// including backend callback goroutines.
var loggerPtr atomic.Pointer[slog.Logger]

func init() {
	l := newNopLogger()
	loggerPtr.Store(l)
}

// SetLogger configures the logger for gpuboot.
// By default, gpuboot produces no log output. Call SetLogger to enable logging.
//
// SetLogger is safe for concurrent use: it stores the new logger atomically.
// Pass nil to disable logging (restore default silent behavior).
// The logger also reaches the backends of live Managers that accept one.
//
// Log levels used by gpuboot:
//   - [slog.LevelDebug]: request plumbing, handles, released objects
//   - [slog.LevelInfo]: lifecycle milestones (adapter selected, device ready)
//   - [slog.LevelWarn]: non-fatal issues (limits query failed, late completions)
//   - [slog.LevelError]: device loss and uncaptured device errors
//
// Example:
//
//	gpuboot.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
//	    Level: slog.LevelDebug,
//	})))
func SetLogger(l *slog.Logger) {
	if l == nil {
		l = newNopLogger()
	}
	loggerPtr.Store(l)

	sinksMu.Lock()
	live := make([]loggerSetter, 0, len(sinks))
	for s := range sinks {
		live = append(live, s.ls)
	}
	sinksMu.Unlock()
	for _, ls := range live {
		ls.SetLogger(l)
	}
}

// Logger returns the current logger used by gpuboot.
//
// Logger is safe for concurrent use.
func Logger() *slog.Logger {
	return loggerPtr.Load()
}

// loggerSetter is implemented by backends that accept a logger.
type loggerSetter interface {
	SetLogger(*slog.Logger)
}

// sink is one backend that follows SetLogger.
type sink struct{ ls loggerSetter }

var (
	sinksMu sync.Mutex
	sinks   = map[*sink]struct{}{}
)

// attachLogger passes the current logger to b if it implements
// loggerSetter and keeps passing later ones until detach is called.
func attachLogger(b any) (detach func()) {
	ls, ok := b.(loggerSetter)
	if !ok {
		return func() {}
	}
	s := &sink{ls: ls}
	sinksMu.Lock()
	sinks[s] = struct{}{}
	sinksMu.Unlock()
	ls.SetLogger(Logger())

	var once sync.Once
	return func() {
		once.Do(func() {
			sinksMu.Lock()
			delete(sinks, s)
			sinksMu.Unlock()
		})
	}
}
