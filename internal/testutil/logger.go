package testutil

import (
	"sync"
)

// LogEntry is one call captured by RecordingLogger.
type LogEntry struct {
	Level  string
	Msg    string
	Fields map[string]any
}

// RecordingLogger captures log calls for assertions. Safe for concurrent use.
type RecordingLogger struct {
	mu      sync.Mutex
	entries []LogEntry
}

func NewRecordingLogger() *RecordingLogger {
	return &RecordingLogger{}
}

func (l *RecordingLogger) record(level, msg string, kv []any) {
	fields := make(map[string]any, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		if k, ok := kv[i].(string); ok {
			fields[k] = kv[i+1]
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, LogEntry{Level: level, Msg: msg, Fields: fields})
}

func (l *RecordingLogger) Debug(msg string, kv ...any) { l.record("debug", msg, kv) }
func (l *RecordingLogger) Info(msg string, kv ...any)  { l.record("info", msg, kv) }
func (l *RecordingLogger) Warn(msg string, kv ...any)  { l.record("warn", msg, kv) }
func (l *RecordingLogger) Error(msg string, kv ...any) { l.record("error", msg, kv) }

// Entries returns the captured entries at level, or all of them when level
// is empty.
func (l *RecordingLogger) Entries(level string) []LogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	var out []LogEntry
	for _, e := range l.entries {
		if level == "" || e.Level == level {
			out = append(out, e)
		}
	}
	return out
}
