package shield

import "errors"

var (
	// ErrEngineNotReady is returned when a method is called on a nil or
	// unbuilt Engine.
	ErrEngineNotReady = errors.New("engine not initialized")
	// ErrSessionCreationFailed wraps any store or signing failure during
	// CreateSession. Creation is the one session path where store errors are
	// fatal to the request.
	ErrSessionCreationFailed = errors.New("session creation failed")
	// ErrTokenInvalid is returned by ParseCredential for any credential that
	// fails signature, shape, or time checks. The cause is never broken out
	// further to the caller.
	ErrTokenInvalid = errors.New("invalid token")
	// ErrSessionRefreshFailed wraps store or signing failures while extending
	// a session inside the refresh window.
	ErrSessionRefreshFailed = errors.New("session refresh failed")
)
