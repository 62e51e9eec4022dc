package app

import (
	"time"

	"pkm/internal/pkm"
)

// Operation is one CLI invocation. Its ID tags every log line written
// while it runs.
type Operation struct {
	ID        string
	Name      string
	StartedAt time.Time
	Status    string // "running", "success" or "error"
}

// NewOperation starts an operation named after the command being run.
func NewOperation(name string, clock pkm.Clock) *Operation {
	now := clock.Now().UTC()
	return &Operation{
		ID:        now.Format("20060102T150405Z"),
		Name:      name,
		StartedAt: now,
		Status:    "running",
	}
}

// Finish records the outcome and logs it. Only the first call counts.
func (op *Operation) Finish(logger pkm.Logger, clock pkm.Clock, err error) {
	if op.Status != "running" {
		return
	}
	elapsed := clock.Now().Sub(op.StartedAt).Truncate(time.Millisecond).String()
	if err != nil {
		op.Status = "error"
		logger.Error("operation failed", "operation", op.Name, "duration", elapsed, "error", err)
		return
	}
	op.Status = "success"
	logger.Info("operation finished", "operation", op.Name, "duration", elapsed)
}
