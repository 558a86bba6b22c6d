package sshauth

import (
	"fmt"
	"strings"
)

// dispatch routes one inbound packet to the Response Listener
// callback for its message number (§4.2). Inbound packets change
// authState only through here; callbacks never move authState back to
// StateNone or StateKbdintSent (§8).
func (s *Session) dispatch(msgType byte, payload []byte) {
	switch msgType {
	case msgUserAuthBanner:
		s.handleBanner(payload)
	case msgUserAuthFailure:
		s.handleFailure(payload)
	case msgUserAuthSuccess:
		s.handleSuccess()
	case msgUserAuthPkOkOrInfoRequest:
		s.handleCode60(payload)
	default:
		s.authState = StateError
		s.lastErr = protocolError(fmt.Sprintf("unsolicited message %d", msgType))
	}
}

// handleBanner parses USERAUTH_BANNER (53): string text, string
// language. Only the text field is required for acceptance; a missing
// or malformed language field never vetoes an otherwise well-formed
// text. A malformed banner is dropped, not fatal (§4.2).
func (s *Session) handleBanner(payload []byte) {
	r := newResponseReader(payload)
	text := r.ReadBytes()
	if r.Err() != nil {
		return
	}
	s.banner = append([]byte(nil), text...)
	s.banners = append(s.banners, string(text))
}

// handleFailure parses USERAUTH_FAILURE (51): string auth_methods_csv,
// bool partial (§4.2, §6.1).
func (s *Session) handleFailure(payload []byte) {
	r := newResponseReader(payload)
	methodsCSV := r.ReadString()
	partial := r.ReadBool()
	if r.Err() != nil {
		s.authState = StateError
		s.lastErr = r.Err()
		return
	}

	parsed := parseAuthMethods(methodsCSV)
	if partial {
		s.authMethods |= parsed
		s.methodsSeen = true
		s.authState = StatePartial
		return
	}

	s.authMethods = parsed
	s.methodsSeen = true
	s.authState = StateFailed
	s.lastErr = fmt.Errorf("Access denied. Authentication that can continue: %s", methodsCSV)
}

// parseAuthMethods rebuilds the method bitset from a comma-separated
// list using substring matching, intentionally preserved from the
// source for compatibility (§4.2, §9): a future method name that
// happens to contain "password" as a substring would false-positive.
func parseAuthMethods(csv string) AuthMethods {
	var m AuthMethods
	if strings.Contains(csv, methodNamePassword) {
		m |= MethodPassword
	}
	if strings.Contains(csv, methodNameKbdInt) {
		m |= MethodKeyboardInteractive
	}
	if strings.Contains(csv, methodNamePublicKey) {
		m |= MethodPublicKey
	}
	if strings.Contains(csv, methodNameHostBased) {
		m |= MethodHostBased
	}
	if strings.Contains(csv, methodNameGSSAPI) {
		m |= MethodGSSAPI
	}
	return m
}

// handleSuccess processes USERAUTH_SUCCESS (52): the session is
// authenticated, and any delayed-compression flags registered at
// transport setup activate now (§3, §4.2).
func (s *Session) handleSuccess() {
	s.authState = StateSuccess
	s.authenticated = true
	if s.delayedCompressOut || s.delayedCompressIn {
		s.activateDelayedCompression()
	}
}

// activateDelayedCompression is a hook for the transport layer's
// delayed-compression directions (e.g. zlib@openssh.com), which only
// take effect after authentication succeeds. This subsystem only
// flips the flags it was told about at setup; the transport itself is
// out of scope (§1, §3).
func (s *Session) activateDelayedCompression() {
	// Transport collaborator: out of scope for this subsystem. A real
	// integration calls back into the transport's compressor setup
	// here; this module only tracks that the moment has arrived.
}

// SetDelayedCompression records that compression should activate only
// after a successful authentication, for the given directions.
func (s *Session) SetDelayedCompression(out, in bool) {
	s.delayedCompressOut = out
	s.delayedCompressIn = in
}

// handleCode60 disambiguates message number 60 (§3, §4.2, §9):
// USERAUTH_PK_OK when no keyboard-interactive request is in flight,
// USERAUTH_INFO_REQUEST when StateKbdintSent is set.
func (s *Session) handleCode60(payload []byte) {
	if s.authState == StateKbdintSent {
		s.handleInfoRequest(payload)
		return
	}
	s.authState = StatePkOk
}

// handleInfoRequest parses USERAUTH_INFO_REQUEST: string name, string
// instruction, string language, uint32 nprompts, then nprompts pairs
// of (string prompt, byte echo) (§4.2, §6.1).
func (s *Session) handleInfoRequest(payload []byte) {
	r := newResponseReader(payload)
	name := r.ReadString()
	instruction := r.ReadString()
	_ = r.ReadString() // language, unused
	n := r.ReadUint32()
	if r.Err() != nil {
		s.authState = StateError
		s.lastErr = r.Err()
		return
	}
	if n == 0 || n > KbdIntMaxPrompt {
		s.authState = StateError
		s.lastErr = protocolError(fmt.Sprintf("invalid prompt count %d", n))
		return
	}

	prompts := make([]string, n)
	echo := make([]bool, n)
	for i := uint32(0); i < n; i++ {
		prompts[i] = r.ReadString()
		echo[i] = r.ReadBool()
		if r.Err() != nil {
			s.authState = StateError
			s.lastErr = r.Err()
			return
		}
	}

	if s.kbdint != nil {
		s.kbdint.wipe()
	}
	k, err := newKbdInt(name, instruction, prompts, echo)
	if err != nil {
		s.authState = StateError
		s.lastErr = err
		return
	}
	s.kbdint = k
	s.authState = StateInfo
}
