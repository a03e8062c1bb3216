package session

import "context"

// Signal is a host environment event that affects the session.
type Signal int

const (
	// SignalActivity is user interaction; it postpones auto-lock.
	SignalActivity Signal = iota
	// SignalHidden means the application went to the background.
	SignalHidden
	// SignalTerminate means the process is shutting down.
	SignalTerminate
)

func (s Signal) String() string {
	switch s {
	case SignalActivity:
		return "activity"
	case SignalHidden:
		return "hidden"
	case SignalTerminate:
		return "terminate"
	default:
		return "unknown"
	}
}

// HandleSignal locks on hidden and terminate signals and resets the
// inactivity timer on activity.
func (m *Manager) HandleSignal(sig Signal) {
	switch sig {
	case SignalHidden, SignalTerminate:
		m.mu.Lock()
		defer m.mu.Unlock()
		m.lockLocked(context.Background(), EventLock)
	case SignalActivity:
		m.Touch()
	}
}

// Touch records activity. It only has an effect while unlocked.
func (m *Manager) Touch() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state.Status == StatusUnlocked {
		m.timer.Reset()
	}
}
