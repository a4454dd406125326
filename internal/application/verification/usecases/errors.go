package usecases

import "errors"

var (
	// ErrCallPollFailed means the provider could not be asked for the call status.
	ErrCallPollFailed = errors.New("call status poll failed")
	// ErrCallTimeout means the call did not end within the polling budget.
	ErrCallTimeout = errors.New("call did not end before the polling timeout")
)
