package sshauth

// AuthState is the step a single in-flight USERAUTH_REQUEST has
// reached. It lives on the Session: drivers reset it (or set
// StateKbdintSent) when they send a request, the Response Listener
// (see listener.go) moves it to a terminal state, and awaitResponse
// sets StateError when the transport fails.
type AuthState int

const (
	// StateNone means no terminal outcome has arrived yet for the
	// current request (or no request is in flight).
	StateNone AuthState = iota
	// StateFailed means the server sent USERAUTH_FAILURE with
	// partial=false.
	StateFailed
	// StatePartial means the server sent USERAUTH_FAILURE with
	// partial=true: this method was accepted but more are required.
	StatePartial
	// StateInfo means a keyboard-interactive INFO_REQUEST was parsed
	// into Session.Kbdint.
	StateInfo
	// StatePkOk means the server answered a "publickey" query (§4.4.2)
	// with code 60 interpreted as USERAUTH_PK_OK.
	StatePkOk
	// StateSuccess means the server sent USERAUTH_SUCCESS.
	StateSuccess
	// StateKbdintSent means a keyboard-interactive request was the
	// last one sent; it is the only state in which code 60 must be
	// interpreted as INFO_REQUEST rather than PK_OK.
	StateKbdintSent
	// StateError means a protocol violation occurred: a short read,
	// an oversize prompt count, or an unsolicited packet.
	StateError
)

func (s AuthState) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateFailed:
		return "failed"
	case StatePartial:
		return "partial"
	case StateInfo:
		return "info"
	case StatePkOk:
		return "pk-ok"
	case StateSuccess:
		return "success"
	case StateKbdintSent:
		return "kbdint-sent"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// pending reports whether the predicate in await_response (§4.3) is
// still waiting: the state is StateNone (no response yet) or
// StateKbdintSent (a keyboard-interactive request awaits its reply).
func (s AuthState) pending() bool {
	return s == StateNone || s == StateKbdintSent
}

// PendingCall records which public driver owns the in-flight request.
// At most one non-None value may be set at a time; a call whose tag
// doesn't match the caller aborts with ErrBadCall (§4.3, §4.7).
type PendingCall int

const (
	PendingNone PendingCall = iota
	PendingAuthNone
	PendingAuthOfferPubkey
	PendingAuthPubkey
	PendingAuthAgent
	PendingAuthPassword
	PendingAuthKbdint
)

func (p PendingCall) String() string {
	switch p {
	case PendingNone:
		return "none"
	case PendingAuthNone:
		return "auth-none"
	case PendingAuthOfferPubkey:
		return "auth-offer-pubkey"
	case PendingAuthPubkey:
		return "auth-pubkey"
	case PendingAuthAgent:
		return "auth-agent"
	case PendingAuthPassword:
		return "auth-password"
	case PendingAuthKbdint:
		return "auth-kbdint"
	default:
		return "unknown"
	}
}

// AuthResult is the outcome a public driver returns (§7). It is a
// small value type rather than a bare error so AuthAgain/AuthPartial
// read as control flow, not failure; AuthResult still implements
// error so callers that want to treat anything but AuthSuccess as
// fatal can do so with a single type assertion free conversion.
type AuthResult int

const (
	AuthSuccess AuthResult = iota
	AuthPartial
	AuthDenied
	AuthInfo
	AuthAgain
	AuthError
)

func (r AuthResult) Error() string {
	switch r {
	case AuthSuccess:
		return "authentication succeeded"
	case AuthPartial:
		return "authentication partially accepted, more methods required"
	case AuthDenied:
		return "authentication denied"
	case AuthInfo:
		return "keyboard-interactive prompts pending"
	case AuthAgain:
		return "authentication operation incomplete, call again"
	case AuthError:
		return "authentication error"
	default:
		return "unknown authentication result"
	}
}

func (r AuthResult) String() string { return r.Error() }
