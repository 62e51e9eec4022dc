// Package scheduler runs periodic maintenance against the pkm service.
package scheduler

import (
	"context"
	"sync"
	"time"

	"pkm/internal/pkm"
)

// TagRecounter is the slice of *pkm.Service the recount job needs.
type TagRecounter interface {
	RecountTagUsage(ctx context.Context, ownerID string) (int, error)
}

// Recounter periodically repairs tag usage counts for one owner.
type Recounter struct {
	svc      TagRecounter
	ownerID  string
	logger   pkm.Logger
	interval time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	done     chan struct{}
}

func NewRecounter(svc TagRecounter, ownerID string, logger pkm.Logger, interval time.Duration) *Recounter {
	if logger == nil {
		logger = pkm.NewNopLogger()
	}
	return &Recounter{
		svc:      svc,
		ownerID:  ownerID,
		logger:   logger,
		interval: interval,
		stopCh:   make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start runs one recount immediately, then one per interval until Stop is
// called or ctx is done. A non-positive interval only runs the first pass.
func (r *Recounter) Start(ctx context.Context) {
	if _, err := r.RunOnce(ctx); err != nil {
		r.logger.Warn("initial tag recount failed", "error", err)
	}
	if r.interval <= 0 {
		close(r.done)
		return
	}

	ticker := time.NewTicker(r.interval)
	go func() {
		defer close(r.done)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if _, err := r.RunOnce(ctx); err != nil {
					r.logger.Error("tag recount failed", "error", err)
				}
			case <-r.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop ends the loop and waits for a running pass to finish. It must only
// be called after Start.
func (r *Recounter) Stop() {
	r.stopOnce.Do(func() { close(r.stopCh) })
	<-r.done
}

// RunOnce performs a single recount and returns how many tags it fixed.
func (r *Recounter) RunOnce(ctx context.Context) (int, error) {
	start := time.Now()
	fixed, err := r.svc.RecountTagUsage(ctx, r.ownerID)
	if err != nil {
		return 0, err
	}
	if fixed > 0 {
		r.logger.Info("tag recount completed", "owner_id", r.ownerID, "fixed", fixed, "duration", time.Since(start).String())
	} else {
		r.logger.Debug("tag usage counts consistent", "owner_id", r.ownerID)
	}
	return fixed, nil
}
