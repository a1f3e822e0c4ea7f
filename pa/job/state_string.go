package job

// String renders a job State as the fsm.FSM state name. Hand-written
// instead of `go generate`d, since stringer cannot run as part of this
// build; keep in sync with the State const block above.
func (s State) String() string {
	switch s {
	case Pending:
		return "Pending"
	case PendingHeld:
		return "PendingHeld"
	case Processing:
		return "Processing"
	case ProcessingStopped:
		return "ProcessingStopped"
	case Canceled:
		return "Canceled"
	case Aborted:
		return "Aborted"
	case Completed:
		return "Completed"
	default:
		return "Unknown"
	}
}
