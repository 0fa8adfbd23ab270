// internal/pkg/toast/toast.go
package toast

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Level is the severity of a toast
type Level string

const (
	LevelSuccess Level = "success"
	LevelInfo    Level = "info"
	LevelError   Level = "error"
)

// Toast is a transient, non-blocking user notification
type Toast struct {
	Level   Level
	Message string
	At      time.Time
}

// Notifier receives toasts raised by stores and pages
type Notifier interface {
	Notify(t Toast)
}

// Success raises a success toast
func Success(n Notifier, format string, args ...any) {
	send(n, LevelSuccess, format, args...)
}

// Info raises an informational toast
func Info(n Notifier, format string, args ...any) {
	send(n, LevelInfo, format, args...)
}

// Error raises an error toast
func Error(n Notifier, format string, args ...any) {
	send(n, LevelError, format, args...)
}

func send(n Notifier, level Level, format string, args ...any) {
	if n == nil {
		return
	}
	n.Notify(Toast{
		Level:   level,
		Message: fmt.Sprintf(format, args...),
		At:      time.Now().UTC(),
	})
}

// Console prints toasts to a terminal
type Console struct {
	mu  sync.Mutex
	out io.Writer
}

// NewConsole creates a console notifier
func NewConsole(out io.Writer) *Console {
	return &Console{out: out}
}

// Notify implements Notifier
func (c *Console) Notify(t Toast) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := "·"
	switch t.Level {
	case LevelSuccess:
		prefix = "✓"
	case LevelError:
		prefix = "✗"
	}
	fmt.Fprintf(c.out, "%s %s\n", prefix, t.Message)
}

// Log forwards toasts to a logrus logger
type Log struct {
	logger logrus.FieldLogger
}

// NewLog creates a logging notifier
func NewLog(logger logrus.FieldLogger) *Log {
	return &Log{logger: logger}
}

// Notify implements Notifier
func (l *Log) Notify(t Toast) {
	entry := l.logger.WithField("toast", string(t.Level))
	if t.Level == LevelError {
		entry.Warn(t.Message)
		return
	}
	entry.Debug(t.Message)
}

// Multi fans a toast out to several notifiers
type Multi []Notifier

// Notify implements Notifier
func (m Multi) Notify(t Toast) {
	for _, n := range m {
		if n != nil {
			n.Notify(t)
		}
	}
}

// Recorder keeps every toast it receives
type Recorder struct {
	mu     sync.Mutex
	toasts []Toast
}

// Notify implements Notifier
func (r *Recorder) Notify(t Toast) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.toasts = append(r.toasts, t)
}

// Toasts returns a copy of the recorded toasts
func (r *Recorder) Toasts() []Toast {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Toast, len(r.toasts))
	copy(out, r.toasts)
	return out
}

// Count returns how many toasts of the given level were recorded
func (r *Recorder) Count(level Level) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.toasts {
		if t.Level == level {
			n++
		}
	}
	return n
}
