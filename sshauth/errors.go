package sshauth

import "errors"

// ErrBadCall is returned when a driver is invoked while a different
// method's request is in flight (PendingCall doesn't match). The
// session's wire state is untouched (§4.7).
var ErrBadCall = errors.New("sshauth: another authentication method is in flight")

// ErrProtocol wraps a fatal, session-level protocol violation: a
// short read, an oversize keyboard-interactive prompt count, or an
// unsolicited packet. It always accompanies AuthError.
type ErrProtocol struct {
	Msg string
}

func (e *ErrProtocol) Error() string { return "sshauth: protocol error: " + e.Msg }

func protocolError(msg string) error { return &ErrProtocol{Msg: msg} }

// ErrOutOfMemory is returned when request construction fails to
// allocate or append to the outbound buffer (§4.1, §4.7). The caller
// has already reset the outbound buffer.
var ErrOutOfMemory = errors.New("sshauth: out of memory building request")
