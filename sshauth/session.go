package sshauth

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/ssh"
)

// Session is the per-connection authentication context (§3). It is
// owned by the caller (normally the ssh.Client-equivalent that also
// owns the Transport); this subsystem only ever reads and mutates the
// fields below, all on the caller's goroutine.
type Session struct {
	Transport  Transport
	KeyManager KeyManager
	Agent      Agent

	// Username is the default identity offered to the server.
	Username string
	// Identity lists candidate private key paths for PublicKeyAuto,
	// tried in order (§4.5).
	Identity []string
	// PromptPassphrase is invoked by PublicKeyAuto when an identity
	// file is encrypted and no passphrase was supplied up front.
	PromptPassphrase PassphrasePrompt
	// Logger receives non-fatal diagnostics (a skipped identity, a
	// best-effort pubkey-file write that failed). Nil is safe.
	Logger *slog.Logger

	authState   AuthState
	pendingCall PendingCall
	authMethods AuthMethods
	methodsSeen bool // auth_methods is meaningful only after a FAILURE (§3)

	banner  []byte
	banners []string // supplemented: last-wins plus full history for a CLI (SPEC_FULL.md §11)

	kbdint *KbdInt

	lastErr error

	// autoIdx/autoHalf track PublicKeyAuto's position across
	// AuthAgain-resumed calls: which identity it's on, and whether the
	// try-then-sign pair is past the try step (§4.3, §4.5, §5).
	autoIdx         int
	autoHalf        bool
	pendingIdentity pendingIdentity

	delayedCompressOut bool
	delayedCompressIn  bool
	authenticated      bool
}

// pendingIdentity caches the public/private key pair PublicKeyAuto was
// working on when a driver returned AuthAgain, so the resumed call
// doesn't have to reload or re-derive them (§4.5, §5).
type pendingIdentity struct {
	pub  ssh.PublicKey
	priv ssh.Signer
}

// NewSession constructs a Session bound to its collaborators.
// Transport and KeyManager are required; Agent may be nil when no
// agent is available.
func NewSession(transport Transport, keyManager KeyManager, agent Agent, username string) *Session {
	return &Session{
		Transport:  transport,
		KeyManager: keyManager,
		Agent:      agent,
		Username:   username,
	}
}

// AuthMethodsList returns the server-advertised continuable methods.
// Undefined (returns 0, false) before the first FAILURE (§6.2).
func (s *Session) AuthMethodsList() (AuthMethods, bool) {
	return s.authMethods, s.methodsSeen
}

// Banner returns the most recent USERAUTH_BANNER payload, or nil.
func (s *Session) Banner() []byte { return s.banner }

// Banners returns every banner text seen this session, oldest first
// (supplemented feature, SPEC_FULL.md §11).
func (s *Session) Banners() []string { return s.banners }

// Kbdint returns the current keyboard-interactive challenge, or nil.
func (s *Session) Kbdint() *KbdInt { return s.kbdint }

// LastError returns the session-level error message set by the
// Response Listener or a failed driver (§4.7).
func (s *Session) LastError() error { return s.lastErr }

// Authenticated reports whether USERAUTH_SUCCESS has been received.
func (s *Session) Authenticated() bool { return s.authenticated }

// runDriver implements the shared pattern every public driver follows
// (§4.3): send the request if nothing is in flight, fall through to
// the wait if this driver already owns the in-flight request, or fail
// with ErrBadCall if a different driver owns it.
func (s *Session) runDriver(ctx context.Context, call PendingCall, blocking bool, send func() error) (AuthResult, error) {
	if s.pendingCall == PendingNone {
		s.authState = StateNone
		if err := send(); err != nil {
			return AuthError, err
		}
		s.pendingCall = call
	} else if s.pendingCall != call {
		return AuthError, ErrBadCall
	}

	result, err := s.awaitResponse(ctx, blocking)
	if result != AuthAgain {
		s.pendingCall = PendingNone
	}
	return result, err
}

// awaitResponse drives one packet exchange (§4.3): pump the transport
// until the AuthState is neither StateNone nor StateKbdintSent, or
// until a non-blocking read would block.
func (s *Session) awaitResponse(ctx context.Context, blocking bool) (AuthResult, error) {
	for s.authState.pending() {
		packet, err := s.Transport.ReadPacket(ctx, blocking)
		if err != nil {
			if err == ErrWouldBlock && !blocking {
				return AuthAgain, nil
			}
			s.authState = StateError
			s.lastErr = err
			return AuthError, err
		}
		if len(packet) < 1 {
			s.authState = StateError
			s.lastErr = protocolError("empty packet")
			return AuthError, s.lastErr
		}
		s.dispatch(packet[0], packet[1:])
	}

	switch s.authState {
	case StateError:
		return AuthError, s.lastErr
	case StateFailed:
		return AuthDenied, nil
	case StateInfo:
		return AuthInfo, nil
	case StatePartial:
		return AuthPartial, nil
	case StatePkOk, StateSuccess:
		return AuthSuccess, nil
	default:
		return AuthError, protocolError(fmt.Sprintf("unexpected auth state %s", s.authState))
	}
}

func (s *Session) logWarn(msg string, args ...any) {
	if s.Logger != nil {
		s.Logger.Warn(msg, args...)
	}
}
