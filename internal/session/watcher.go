package session

import (
	"context"
	"time"

	"github.com/inkflow/inkwell/internal/logger"
)

// DefaultWatchInterval is how often the expiry watch checks tokens.
const DefaultWatchInterval = time.Second

// StartExpiryWatch starts the periodic token check. Starting an
// already running watch is a no-op.
func (m *Manager) StartExpiryWatch(interval time.Duration) {
	if interval <= 0 {
		interval = DefaultWatchInterval
	}

	m.mu.Lock()
	if m.watchStop != nil {
		m.mu.Unlock()
		return
	}
	stop := make(chan struct{})
	m.watchStop = stop
	m.mu.Unlock()

	go m.watchLoop(interval, stop)
}

// StopExpiryWatch cancels the periodic check. Safe to call when the
// watch is not running.
func (m *Manager) StopExpiryWatch() {
	m.mu.Lock()
	if m.watchStop != nil {
		close(m.watchStop)
		m.watchStop = nil
	}
	m.mu.Unlock()
}

func (m *Manager) watchLoop(interval time.Duration, stop <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.watchTick()
		case <-stop:
			return
		}
	}
}

// watchTick runs one expiry check: a dead refresh token forces
// logout, a stale access token triggers a single refresh. The
// in-flight flag keeps later ticks from piling onto a refresh that
// has not settled yet.
func (m *Manager) watchTick() {
	m.mu.Lock()
	sess := m.session
	m.mu.Unlock()

	if !sess.Authenticated() {
		m.StopExpiryWatch()
		return
	}

	if sess.RefreshTokenExpiresAt != 0 && time.Now().Unix() >= sess.RefreshTokenExpiresAt {
		logger.Info("refresh token expired, ending session")
		m.teardown()
		return
	}

	if !IsTokenExpired(sess.AccessToken) {
		return
	}

	m.refreshing.Lock()
	if m.inFlight {
		m.refreshing.Unlock()
		return
	}
	m.inFlight = true
	m.refreshing.Unlock()

	go func() {
		defer func() {
			m.refreshing.Lock()
			m.inFlight = false
			m.refreshing.Unlock()
		}()

		if _, err := m.Refresh(context.Background()); Terminal(err) {
			logger.Warn("scheduled refresh ended session", logger.F("error", err))
		}
	}()
}
