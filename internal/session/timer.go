package session

import (
	"context"
	"time"
)

func (c *Controller) startTimerLocked() {
	if c.cfg.ManualTick || c.stopTimer != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.stopTimer = cancel
	go c.runTimer(ctx)
}

func (c *Controller) stopTimerLocked() {
	if c.stopTimer != nil {
		c.stopTimer()
		c.stopTimer = nil
	}
}

func (c *Controller) runTimer(ctx context.Context) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// Expiry cancels ctx mid-tick; the submission that follows must outlive it.
			if err := c.Tick(context.WithoutCancel(ctx)); err != nil {
				c.log.Warn().Err(err).Msg("Timer tick failed")
			}
		}
	}
}
