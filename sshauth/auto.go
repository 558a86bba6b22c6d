package sshauth

import (
	"context"
	"errors"
	"os"

	"github.com/hashicorp/go-multierror"
	"golang.org/x/crypto/ssh"
)

// PublicKeyAuto walks the agent's identities, then the configured
// identity list, trying each until one succeeds (§4.5). Identities
// are tried in iteration order; within the agent, in the agent's
// enumeration order (tie-break, §4.5).
//
// Like every driver, it is resumable under AuthAgain (§4.3): a fresh
// call (no driver currently in flight) starts at identity 0; a
// resuming call (one of this strategy's own drivers is in flight)
// continues from the identity and try/sign half it last left off at,
// tracked on the session rather than restarted from scratch.
func (s *Session) PublicKeyAuto(ctx context.Context, passphrase []byte, blocking bool) (AuthResult, error) {
	if s.pendingCall == PendingNone {
		s.autoIdx = 0
		s.autoHalf = false
	}

	if s.Agent != nil && s.Agent.Available() {
		return s.publicKeyAutoAgent(ctx, blocking)
	}
	return s.publicKeyAutoFiles(ctx, passphrase, blocking)
}

func (s *Session) publicKeyAutoAgent(ctx context.Context, blocking bool) (AuthResult, error) {
	idents, err := s.Agent.Identities()
	if err != nil {
		return AuthError, err
	}

	for ; s.autoIdx < len(idents); s.autoIdx++ {
		ident := idents[s.autoIdx]

		if !s.autoHalf {
			result, err := s.TryPublicKey(ctx, ident.PublicKey, blocking)
			if result == AuthAgain {
				return result, err
			}
			if result == AuthError {
				return result, err
			}
			if result != AuthSuccess {
				continue
			}
			s.autoHalf = true
		}

		result, err := s.AgentPublicKey(ctx, ident.PublicKey, blocking)
		if result == AuthAgain {
			return result, err
		}
		s.autoHalf = false
		if result == AuthSuccess || result == AuthError {
			return result, err
		}
	}

	return AuthDenied, nil
}

func (s *Session) publicKeyAutoFiles(ctx context.Context, passphrase []byte, blocking bool) (AuthResult, error) {
	var skipped *multierror.Error

	for ; s.autoIdx < len(s.Identity); s.autoIdx++ {
		path := s.Identity[s.autoIdx]
		pub, priv := s.pendingIdentity.pub, s.pendingIdentity.priv

		if pub == nil && priv == nil {
			var err error
			pub, priv, err = s.loadIdentity(path, passphrase)
			if err != nil {
				s.logWarn("skipping identity", "path", path, "error", err)
				skipped = multierror.Append(skipped, err)
				continue
			}
			if pub == nil && priv == nil {
				// file does not exist: skip silently, not an error (§4.5)
				continue
			}
			s.pendingIdentity = pendingIdentity{pub: pub, priv: priv}
		}

		if !s.autoHalf {
			result, err := s.TryPublicKey(ctx, pub, blocking)
			if result == AuthAgain {
				return result, err
			}
			if result == AuthError {
				s.pendingIdentity = pendingIdentity{}
				return result, err
			}
			if result != AuthSuccess {
				s.pendingIdentity = pendingIdentity{}
				continue
			}
			s.autoHalf = true
		}

		if priv == nil {
			var err error
			priv, err = s.loadPrivateKey(path, passphrase)
			if err != nil {
				s.logWarn("skipping identity after PK_OK", "path", path, "error", err)
				skipped = multierror.Append(skipped, err)
				s.autoHalf = false
				s.pendingIdentity = pendingIdentity{}
				continue
			}
			s.pendingIdentity = pendingIdentity{pub: pub, priv: priv}
		}

		result, err := s.PublicKey(ctx, priv, blocking)
		if result == AuthAgain {
			return result, err
		}
		s.autoHalf = false
		s.pendingIdentity = pendingIdentity{}
		if result == AuthSuccess || result == AuthError {
			return result, err
		}
	}

	if skipped != nil && skipped.Len() > 0 {
		s.logWarn("all identities skipped or denied", "count", skipped.Len())
	}
	return AuthDenied, nil
}

// loadIdentity tries "<path>.pub" first; if present it is used
// directly without touching the private key. Otherwise it loads and
// decrypts the private key at path and derives the public half,
// persisting it to "<path>.pub" best-effort (§4.5).
func (s *Session) loadIdentity(path string, passphrase []byte) (pub ssh.PublicKey, priv ssh.Signer, err error) {
	pubPath := path + ".pub"
	if pub, err = s.KeyManager.ImportPublicKeyFile(pubPath); err == nil {
		return pub, nil, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		s.logWarn("malformed public key file", "path", pubPath, "error", err)
	}

	priv, err = s.loadPrivateKey(path, passphrase)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	pub = s.KeyManager.PublicKeyFromPrivate(priv)
	if err := s.KeyManager.ExportPublicKeyFile(pubPath, pub); err != nil {
		s.logWarn("could not persist derived public key", "path", pubPath, "error", err)
	}
	return pub, priv, nil
}

func (s *Session) loadPrivateKey(path string, passphrase []byte) (ssh.Signer, error) {
	return s.KeyManager.ImportPrivateKeyFile(path, passphrase, s.PromptPassphrase)
}
