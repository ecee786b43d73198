package ui

import "time"

type pollLoop struct {
	stop chan struct{}
}

// startPolling schedules fetchState every poll interval. Ticks do not
// wait for an earlier fetch to finish.
func (c *Controller) startPolling() {
	if c.poll != nil {
		return
	}
	p := &pollLoop{stop: make(chan struct{})}
	c.poll = p
	go func() {
		t := time.NewTicker(c.every)
		defer t.Stop()
		for {
			select {
			case <-p.stop:
				return
			case <-c.quit:
				return
			case <-t.C:
				c.post(func() {
					// A tick queued before the loop was cancelled must not
					// issue a request.
					if c.poll != p {
						return
					}
					c.fetchState(nil)
				})
			}
		}
	}()
}

func (c *Controller) stopPolling() {
	if c.poll == nil {
		return
	}
	close(c.poll.stop)
	c.poll = nil
}
