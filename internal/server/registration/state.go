package registration

// State is a step of the registration state machine:
//
//	Idle -> Validating -> CreatingAccount -> CreatingProfile -> Succeeded
//
// Any step may end in Failed.
type State int

const (
	StateIdle State = iota
	StateValidating
	StateCreatingAccount
	StateCreatingProfile
	StateSucceeded
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateValidating:
		return "validating"
	case StateCreatingAccount:
		return "creating_account"
	case StateCreatingProfile:
		return "creating_profile"
	case StateSucceeded:
		return "succeeded"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (s State) Terminal() bool {
	return s == StateSucceeded || s == StateFailed
}
