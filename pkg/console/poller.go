package console

import (
	"context"
	"time"
)

// poller is the owned, cancellable handle of the live-status refresh loop.
// It is scoped to the view's lifetime: entering edit mode or tearing down
// the view stops it, including any scheduled tick.
type poller struct {
	cancel context.CancelFunc
	done   chan struct{}
}

func (p *poller) stop() {
	p.cancel()
	<-p.done
}

// StartPolling begins the fixed-interval live refresh. Poll failures are
// transient: they are logged and swallowed, the previous snapshot stays
// displayed and the next cycle retries. Calling it while polling is already
// active or while editing is a no-op.
func (v *View) StartPolling(ctx context.Context) {
	v.mu.Lock()

	if v.poller != nil || v.editing {
		v.pollWanted = true
		v.mu.Unlock()

		return
	}

	pollCtx, cancel := context.WithCancel(ctx)
	p := &poller{cancel: cancel, done: make(chan struct{})}
	v.poller = p
	v.pollWanted = true
	v.mu.Unlock()

	go v.pollLoop(pollCtx, p)
}

// StopPolling cancels the refresh loop and waits for it to exit.
func (v *View) StopPolling() {
	v.mu.Lock()
	p := v.poller
	v.poller = nil
	v.pollWanted = false
	v.mu.Unlock()

	if p != nil {
		p.stop()
	}
}

func (v *View) pollLoop(ctx context.Context, p *poller) {
	defer close(p.done)

	ticker := time.NewTicker(v.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			v.pollOnce(ctx)
		}
	}
}

func (v *View) pollOnce(ctx context.Context) {
	instance, err := v.api.GetInstance(ctx, v.instanceID)
	if err != nil {
		v.logger.WarnContext(ctx, "poll cycle failed, keeping previous snapshot", "error", err)

		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	// A poll response that lands after edit mode began is stale: applying
	// it would clobber unsaved client state.
	if v.editing {
		return
	}

	v.applySnapshotLocked(instance)
}
