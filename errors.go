package pa

import "errors"

// Sentinel errors of package pa. No function in this module returns them;
// pa/printer and pa/router report failures with their own errors.
var (
	ErrNotFound      = errors.New("pa: not found")
	ErrAlreadyExists = errors.New("pa: already exists")
	ErrBusy          = errors.New("pa: busy")
	ErrNotAccepting  = errors.New("pa: printer is not accepting jobs")
	ErrStopped       = errors.New("pa: system is stopped")
)
