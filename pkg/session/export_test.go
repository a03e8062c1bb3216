package session

var (
	RegisterTransition   = registerTransition
	UnlockTransition     = unlockTransition
	PassphraseTransition = passphraseTransition
	LockTransition       = lockTransition
	ResetTransition      = resetTransition
	InitTransition       = initTransition
	StateFromRecord      = stateFromRecord
)

// Secret exposes the volatile committed secret.
func (s State) Secret() string {
	return s.secret
}

// ExpireInactivity runs the auto-lock callback as if the timer armed with gen fired.
func (m *Manager) ExpireInactivity(gen uint64) {
	m.autoLock(gen)
}

// InactivityGeneration returns the generation of the current timer arming.
func (m *Manager) InactivityGeneration() uint64 {
	m.timer.mu.Lock()
	defer m.timer.mu.Unlock()
	return m.timer.gen
}
