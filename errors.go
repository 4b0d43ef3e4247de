package sqlback

import "errors"

// Operation outcomes are fixed sentinel values. They deliberately
// carry no engine detail; that goes to the log through Report.
var (
	// ErrBackendNotFound is returned when no backend is registered
	// under the requested name.
	ErrBackendNotFound = errors.New("sqlback: backend not registered")

	// ErrConnectFailed is returned when a session could not be opened.
	ErrConnectFailed = errors.New("sqlback: connect failed")

	// ErrQueryFailed is returned when a statement could not be executed.
	ErrQueryFailed = errors.New("sqlback: query failed")

	// ErrSessionClosed is returned when a freed session is used.
	ErrSessionClosed = errors.New("sqlback: session is closed")
)
