package sshauth

import (
	"context"
	"fmt"

	"golang.org/x/crypto/ssh"
)

// None sends the "none" method (§4.4.1) purely to elicit the server's
// advertised methods via the expected FAILURE. Every public driver
// follows the same at-most-one-in-flight pattern (§4.3).
func (s *Session) None(ctx context.Context, blocking bool) (AuthResult, error) {
	return s.runDriver(ctx, PendingAuthNone, blocking, func() error {
		w := buildCommonPrefix(s.Username, methodNameNone)
		return s.send(w)
	})
}

// TryPublicKey asks the server whether pub would be accepted, without
// proving possession of the private key (§4.4.2). A PK_OK response
// maps to AuthSuccess.
func (s *Session) TryPublicKey(ctx context.Context, pub ssh.PublicKey, blocking bool) (AuthResult, error) {
	return s.runDriver(ctx, PendingAuthOfferPubkey, blocking, func() error {
		w := buildCommonPrefix(s.Username, methodNamePublicKey)
		w.WriteBool(false)
		w.WriteString(s.KeyManager.Algorithm(pub))
		w.WriteBytes(s.KeyManager.PubkeyBlob(pub))
		return s.send(w)
	})
}

// PublicKey authenticates with priv, signing the request with the PKI
// collaborator (§4.4.3).
func (s *Session) PublicKey(ctx context.Context, priv ssh.Signer, blocking bool) (AuthResult, error) {
	return s.runDriver(ctx, PendingAuthPubkey, blocking, func() error {
		pub := s.KeyManager.PublicKeyFromPrivate(priv)
		w := buildCommonPrefix(s.Username, methodNamePublicKey)
		w.WriteBool(true)
		w.WriteString(s.KeyManager.Algorithm(pub))
		w.WriteBytes(s.KeyManager.PubkeyBlob(pub))
		if w.Err() != nil {
			return w.Err()
		}

		sig, err := s.KeyManager.Sign(priv, s.Transport.SessionID(), w.Bytes())
		if err != nil {
			return fmt.Errorf("sshauth: signing request: %w", err)
		}
		w.WriteBytes(sig)
		return s.send(w)
	})
}

// AgentPublicKey is identical on the wire to PublicKey but delegates
// signing to the key agent, which signs using key material it never
// discloses (§4.4.4). It is only usable when an agent is available;
// the caller probes that capability rather than the state machine
// forking on a compile-time platform switch (§9).
func (s *Session) AgentPublicKey(ctx context.Context, pub ssh.PublicKey, blocking bool) (AuthResult, error) {
	if s.Agent == nil || !s.Agent.Available() {
		return AuthError, fmt.Errorf("sshauth: no ssh-agent available")
	}
	return s.runDriver(ctx, PendingAuthAgent, blocking, func() error {
		w := buildCommonPrefix(s.Username, methodNamePublicKey)
		w.WriteBool(true)
		w.WriteString(s.KeyManager.Algorithm(pub))
		w.WriteBytes(s.KeyManager.PubkeyBlob(pub))
		if w.Err() != nil {
			return w.Err()
		}

		sig, err := s.Agent.Sign(pub, s.Transport.SessionID(), w.Bytes())
		if err != nil {
			return fmt.Errorf("sshauth: agent signing request: %w", err)
		}
		w.WriteBytes(sig)
		return s.send(w)
	})
}

// Password authenticates with a password that must already be UTF-8
// encoded; this module performs no re-encoding (§4.4.5).
func (s *Session) Password(ctx context.Context, password string, blocking bool) (AuthResult, error) {
	result, err := s.runDriver(ctx, PendingAuthPassword, blocking, func() error {
		w := buildCommonPrefix(s.Username, methodNamePassword)
		w.WriteBool(false)
		w.WriteString(password)
		return s.send(w)
	})
	return result, err
}

// KeyboardInteractiveInit starts a keyboard-interactive exchange
// (§4.4.6 init phase). submethods may be empty. Typical outcomes are
// AuthInfo (prompts populated in Session.Kbdint()), AuthSuccess,
// AuthPartial, or AuthDenied.
func (s *Session) KeyboardInteractiveInit(ctx context.Context, submethods string, blocking bool) (AuthResult, error) {
	return s.runDriver(ctx, PendingAuthKbdint, blocking, func() error {
		w := buildCommonPrefix(s.Username, methodNameKbdInt)
		w.WriteString("") // language
		w.WriteString(submethods)
		if err := s.send(w); err != nil {
			return err
		}
		s.authState = StateKbdintSent
		return nil
	})
}

// KeyboardInteractiveSend submits the answers the caller has filled
// into Session.Kbdint() via KbdInt.SetAnswer, then wipes the challenge
// (§4.4.6 send phase).
func (s *Session) KeyboardInteractiveSend(ctx context.Context, blocking bool) (AuthResult, error) {
	if s.kbdint == nil {
		return AuthError, fmt.Errorf("sshauth: no keyboard-interactive challenge pending")
	}
	return s.runDriver(ctx, PendingAuthKbdint, blocking, func() error {
		answers := s.kbdint.Answers
		if answers == nil {
			answers = make([]string, len(s.kbdint.Prompts))
		}
		w := buildInfoResponse(answers)
		if err := s.send(w); err != nil {
			return err
		}
		s.kbdint.wipe()
		s.kbdint = nil
		s.authState = StateKbdintSent
		return nil
	})
}

// send flushes a built request to the transport, surfacing a build
// failure (e.g. an oversized encoded field) without ever touching the
// wire.
func (s *Session) send(w *requestWriter) error {
	if err := w.Err(); err != nil {
		return err
	}
	return s.Transport.SendPacket(w.Bytes())
}
