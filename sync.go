package offcache

import (
	"context"
	"fmt"
)

// handleTransition is the monitor subscription. Coming back online starts a
// background sync; going offline only flips the flag.
func (c *cache) handleTransition(online bool) {
	if c.closed.Load() {
		return
	}

	if prev := c.online.Swap(online); prev == online {
		return
	}

	c.metrics.SetOnline(online)

	if !online {
		c.l.Info("network unreachable, serving from cache")

		return
	}

	c.l.Info("network reachable, syncing queued actions")

	c.bgMu.Lock()
	defer c.bgMu.Unlock()

	if c.closed.Load() {
		return
	}

	c.wg.Add(1)

	go func() {
		defer c.wg.Done()

		report := c.Sync(c.ctx)

		if report.Err != nil {
			c.l.Warnf("sync after reconnect: %v", report.Err)

			return
		}

		c.l.Infof("sync after reconnect. replayed: %d failed: %d dead lettered: %d remaining: %d",
			report.Replayed, report.Failed, report.DeadLettered, report.Remaining)
	}()
}

// Sync replays the queue in FIFO order. Confirmed actions are removed, failed
// ones stay in place for the next sync until they run out of attempts.
// A sync that starts while another is running returns with Skipped set and
// asks the running one for another pass.
func (c *cache) Sync(ctx context.Context) SyncReport {
	if c.closed.Load() {
		return SyncReport{Err: ErrClosed}
	}

	if !c.syncMu.TryLock() {
		c.rerun.Store(true)

		// the running sync may have released the lock before seeing the request
		if !c.syncMu.TryLock() {
			return SyncReport{Skipped: true}
		}
	}

	var report SyncReport

	for {
		c.rerun.Store(false)

		pass := c.syncPass(ctx)

		c.syncMu.Unlock()

		report.Replayed += pass.Replayed
		report.Failed += pass.Failed
		report.DeadLettered += pass.DeadLettered
		report.Remaining = pass.Remaining
		report.Interrupted = pass.Interrupted
		report.Err = pass.Err

		if !c.rerun.Load() || pass.Err != nil || ctx.Err() != nil || !c.IsOnline() || c.closed.Load() {
			return report
		}

		c.l.Debug("sync requested while running, syncing again")

		if !c.syncMu.TryLock() {
			return report
		}
	}
}

// syncPass replays a snapshot of the queue once. The caller holds c.syncMu.
func (c *cache) syncPass(ctx context.Context) SyncReport {
	actions := c.queued()

	report := SyncReport{Remaining: len(actions)}

	if len(actions) == 0 {
		return report
	}

	if c.replayer == nil {
		c.l.Warnf("%d queued actions kept: %v", len(actions), ErrNoReplayer)

		report.Err = ErrNoReplayer

		return report
	}

	for _, action := range actions {
		if ctx.Err() != nil || !c.IsOnline() {
			report.Interrupted = true

			break
		}

		err := c.replayer.Replay(ctx, action)

		switch {
		case err == nil:
			report.Replayed++
			c.metrics.ObserveReplay("ok")
			c.l.Debugf("replayed action %s", action.ID)

			c.dropAction(action.ID)

		case IsPermanent(err) || action.Attempts+1 >= c.maxAttempts:
			report.DeadLettered++
			c.metrics.ObserveReplay("dead_letter")
			c.l.Errorf("dropping action %s after %d attempts: %v", action.ID, action.Attempts+1, err)

			action.Attempts++
			action.LastError = err.Error()

			c.dropAction(action.ID)
			c.deadLetter(action, err)

		default:
			report.Failed++
			c.metrics.ObserveReplay("failed")
			c.l.Warnf("replaying action %s (attempt %d/%d): %v", action.ID, action.Attempts+1, c.maxAttempts, err)

			c.recordFailure(action.ID, err)
		}
	}

	report.Remaining = len(c.queued())

	return report
}

// dropAction removes the action with id from the stored queue, keeping
// anything queued since the sync started.
func (c *cache) dropAction(id string) {
	err := c.updateQueue(func(actions []PendingAction) []PendingAction {
		out := actions[:0]

		for _, a := range actions {
			if a.ID != id {
				out = append(out, a)
			}
		}

		return out
	})

	if err != nil {
		c.storeFailure("sync", fmt.Errorf("removing action %s: %w", id, err))
	}
}

// recordFailure bumps the attempt counter of the action with id in place.
func (c *cache) recordFailure(id string, cause error) {
	err := c.updateQueue(func(actions []PendingAction) []PendingAction {
		for i := range actions {
			if actions[i].ID == id {
				actions[i].Attempts++
				actions[i].LastError = cause.Error()
			}
		}

		return actions
	})

	if err != nil {
		c.storeFailure("sync", fmt.Errorf("recording failure of action %s: %w", id, err))
	}
}
