package pkm

// Logger is the structured logger the engine writes to.
// Arguments are alternating key/value pairs, e.g.
//
//	logger.Warn("tag usage clamped", "tag_id", id, "owner_id", owner)
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// NopLogger drops everything. Handy in tests and as a nil default.
type NopLogger struct{}

func NewNopLogger() *NopLogger { return &NopLogger{} }

func (*NopLogger) Debug(string, ...any) {}
func (*NopLogger) Info(string, ...any)  {}
func (*NopLogger) Warn(string, ...any)  {}
func (*NopLogger) Error(string, ...any) {}
