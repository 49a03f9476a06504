// v0
// internal/plant/errors.go
package plant

import "errors"

var (
	// ErrInvalidArgument reports a slot outside [0, MaxPlants) or a missing destination.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound reports a load from a slot that was never saved.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable reports a persistence backend that is closed or failed.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrArithmeticGuard reports a profile channel configured with a zero tolerance range.
	ErrArithmeticGuard = errors.New("tolerance range must be greater than zero")
	// ErrCorruptSnapshot reports a persisted blob that cannot be decoded.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
)
