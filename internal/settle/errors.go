package settle

import "errors"

var (
	// ErrDeadlineExpired means the request deadline was already past at entry.
	ErrDeadlineExpired = errors.New("deadline expired")
	// ErrPairNotFound means the registry has no pair for the token pair.
	ErrPairNotFound = errors.New("pair not found")
	// ErrTransferFailed means a downstream transfer-like call reported failure.
	ErrTransferFailed = errors.New("transfer failed")
	// ErrInvalidToken means the output token is the zero address or the
	// wrapped-native asset itself.
	ErrInvalidToken = errors.New("invalid token")
	// ErrReentrancy means a funds-moving operation was entered while
	// another one was still in progress on the same instance.
	ErrReentrancy = errors.New("reentrant call")
)
