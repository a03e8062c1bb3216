package session

// Event triggers a status transition.
type Event string

const (
	EventRegister         Event = "register"
	EventUnlock           Event = "unlock"
	EventUnlockPassphrase Event = "unlock_passphrase"
	EventRestore          Event = "restore"
	EventLock             Event = "lock"
	EventExpire           Event = "expire"
	EventReset            Event = "reset"
)

func (e Event) String() string {
	return string(e)
}

// transitionTable maps [from][event] to the target status.
// Unregistered is reachable again only through reset.
var transitionTable = map[Status]map[Event]Status{
	StatusUnregistered: {
		EventRegister: StatusUnlocked,
		EventLock:     StatusUnregistered,
		EventReset:    StatusUnregistered,
	},
	StatusLocked: {
		EventUnlock:           StatusUnlocked,
		EventUnlockPassphrase: StatusUnlocked,
		EventRestore:          StatusUnlocked,
		EventLock:             StatusLocked,
		EventExpire:           StatusLocked,
		EventReset:            StatusUnregistered,
	},
	StatusUnlocked: {
		EventUnlock: StatusUnlocked,
		EventLock:   StatusLocked,
		EventExpire: StatusLocked,
		EventReset:  StatusUnregistered,
	},
}

// Fire returns the status reached from `from` on event.
func Fire(from Status, event Event) (Status, error) {
	if to, ok := transitionTable[from][event]; ok {
		return to, nil
	}
	return from, &ErrNoTransitionAvailable{Status: from, Event: event}
}

// CanFire reports whether from accepts event.
func CanFire(from Status, event Event) bool {
	_, ok := transitionTable[from][event]
	return ok
}
