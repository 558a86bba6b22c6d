package sshauth

// SSH message numbers used by the ssh-userauth (RFC 4252) and
// keyboard-interactive (RFC 4256) protocols. Code 60 is shared between
// USERAUTH_PK_OK and USERAUTH_INFO_REQUEST; the session's AuthState
// disambiguates it (see Session.handleCode60).
const (
	msgUserAuthRequest  = 50
	msgUserAuthFailure  = 51
	msgUserAuthSuccess  = 52
	msgUserAuthBanner   = 53
	msgUserAuthPkOkOrInfoRequest = 60
	msgUserAuthInfoResponse      = 61
)

// ServiceName is the service requested in every USERAUTH_REQUEST, in
// the field after the username: the connection protocol to start once
// authentication succeeds.
const ServiceName = "ssh-connection"

// KbdIntMaxPrompt bounds the number of prompts a keyboard-interactive
// INFO_REQUEST may carry. A hostile or buggy server that claims more
// prompts than this is rejected rather than trusted to size an
// allocation.
const KbdIntMaxPrompt = 32

// AuthMethods is a bitset of server-advertised continuable methods,
// populated from the comma-separated list in USERAUTH_FAILURE.
type AuthMethods uint8

const (
	MethodPassword AuthMethods = 1 << iota
	MethodPublicKey
	MethodHostBased
	MethodKeyboardInteractive
	// MethodGSSAPI is tracked for parity with libssh's method bitset
	// (see SPEC_FULL.md §11) but has no driver in this module: no
	// GSSAPI collaborator exists to sign or negotiate a context.
	MethodGSSAPI
)

func (m AuthMethods) Has(f AuthMethods) bool { return m&f != 0 }

// method name strings as they appear on the wire / in the
// comma-separated USERAUTH_FAILURE method list.
const (
	methodNameNone      = "none"
	methodNamePassword  = "password"
	methodNamePublicKey = "publickey"
	methodNameHostBased = "hostbased"
	methodNameKbdInt    = "keyboard-interactive"
	methodNameGSSAPI    = "gssapi-with-mic"
)
