package ui

import "devtycoon.app/internal/protocol"

// stateStore holds the latest snapshot from the server. Every successful
// fetch or action replaces it whole; it is never patched locally.
type stateStore struct {
	state protocol.PlayerState
	ok    bool
}

func (s *stateStore) replace(st protocol.PlayerState) {
	st.Upgrades = append([]string(nil), st.Upgrades...)
	s.state = st
	s.ok = true
}

func (s *stateStore) current() (protocol.PlayerState, bool) {
	if !s.ok {
		return protocol.PlayerState{}, false
	}
	st := s.state
	st.Upgrades = append([]string(nil), st.Upgrades...)
	return st, true
}

// fetchState pulls a fresh snapshot and refreshes the HUD. A failure
// stops polling for good.
func (c *Controller) fetchState(next func()) {
	await(c, c.api.GameState, func(st protocol.PlayerState, err error) {
		if err != nil {
			c.log.Printf("fetch state: %v", err)
			c.logFeedback("Lost connection to the server. Reload to reconnect.")
			c.stopPolling()
		} else {
			c.store.replace(st)
			c.refreshHUD()
		}
		if next != nil {
			next()
		}
	})
}
