package keychain

import (
	"encoding/json"
	"errors"
)

// MethodConnect names the keychain method in connect error payloads.
const MethodConnect = "connect"

var (
	// ErrNotConnected means no controller exists for the session. It is
	// never retried.
	ErrNotConnected = errors.New("not connected")
	// ErrTimeout means no approval was observed before the deadline.
	ErrTimeout = errors.New("timeout")

	ErrInvalidOrigin = errors.New("invalid origin")
)

// Error kinds as rendered to the requesting origin.
const (
	KindNotConnected = "not_connected"
	KindTimeout      = "timeout"
)

// ConnectError is the single failure shape of a connect attempt. It
// unwraps to ErrNotConnected or ErrTimeout.
type ConnectError struct {
	Method string
	Err    error
}

func (e *ConnectError) Error() string { return e.Method + ": " + e.Err.Error() }

func (e *ConnectError) Unwrap() error { return e.Err }

func (e *ConnectError) Kind() string {
	switch {
	case errors.Is(e.Err, ErrTimeout):
		return KindTimeout
	case errors.Is(e.Err, ErrNotConnected):
		return KindNotConnected
	default:
		return "unknown"
	}
}

func (e *ConnectError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Method string `json:"method"`
		Error  string `json:"error"`
	}{e.Method, e.Kind()})
}

func notConnected() error { return &ConnectError{Method: MethodConnect, Err: ErrNotConnected} }

func timedOut() error { return &ConnectError{Method: MethodConnect, Err: ErrTimeout} }
