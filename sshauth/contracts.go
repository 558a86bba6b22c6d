package sshauth

import (
	"context"
	"errors"

	"golang.org/x/crypto/ssh"
)

// ErrWouldBlock is returned by Transport.ReadPacket when the session
// is non-blocking and no inbound packet is available yet. Drivers
// surface this as AuthAgain (§4.3, §5).
var ErrWouldBlock = errors.New("sshauth: would block")

// Transport is the packet-layer collaborator (§6.3). Key exchange,
// framing, and encryption are entirely out of this subsystem's scope;
// a Transport just moves already-framed ssh-userauth messages.
type Transport interface {
	// ServiceRequest sends SSH_MSG_SERVICE_REQUEST("ssh-userauth")
	// exactly once per session, before any USERAUTH_REQUEST.
	ServiceRequest(ctx context.Context) error
	// SendPacket writes one full packet; packet[0] is the SSH message
	// number, as produced by the Wire Encoder. A write failure is
	// always fatal to the in-flight request.
	SendPacket(packet []byte) error
	// ReadPacket returns the next inbound packet (packet[0] is its
	// message number). When blocking is false and nothing is
	// available yet, it returns ErrWouldBlock without waiting; when
	// blocking is true it waits for either a packet or ctx's deadline.
	ReadPacket(ctx context.Context, blocking bool) (packet []byte, err error)
	// SessionID returns the opaque session identifier established at
	// key exchange, mixed into every public-key signature.
	SessionID() []byte
}

// KeyManager is the PKI collaborator (§6.3): key import/export and
// signing. It never hands the authentication layer raw private-key
// bytes, only ssh.Signer/ssh.PublicKey handles.
type KeyManager interface {
	// Algorithm returns the wire algorithm name for pub (e.g.
	// "ssh-ed25519", "rsa-sha2-512").
	Algorithm(pub ssh.PublicKey) string
	// PubkeyBlob returns the wire-format public key blob.
	PubkeyBlob(pub ssh.PublicKey) []byte
	// PublicKeyFromPrivate derives the public half of priv
	// (export_privkey_to_pubkey).
	PublicKeyFromPrivate(priv ssh.Signer) ssh.PublicKey
	// Sign signs sessionID||signedData with priv (do_sign). signedData
	// is everything written to the request buffer before the
	// signature field, per §4.4.3.
	Sign(priv ssh.Signer, sessionID, signedData []byte) ([]byte, error)
	// ImportPublicKeyFile reads a single public key from an
	// authorized_keys-format file (import_pubkey_file).
	ImportPublicKeyFile(path string) (ssh.PublicKey, error)
	// ImportPrivateKeyFile reads a private key, invoking prompt up to
	// three times if it is encrypted and no passphrase was supplied
	// (import_privkey_file). A missing file is a plain os.IsNotExist
	// error so callers can distinguish "skip" from "malformed".
	ImportPrivateKeyFile(path string, passphrase []byte, prompt PassphrasePrompt) (ssh.Signer, error)
	// ExportPublicKeyFile writes pub to path in authorized_keys format
	// (export_pubkey_file). Best-effort: failures are for the caller
	// to log, not to treat as fatal (§4.5).
	ExportPublicKeyFile(path string, pub ssh.PublicKey) error
}

// PassphrasePrompt requests a passphrase for the encrypted key at
// path from the user.
type PassphrasePrompt func(path string) ([]byte, error)

// AgentIdentity is one identity advertised by a running ssh-agent.
type AgentIdentity struct {
	PublicKey ssh.PublicKey
	Comment   string
}

// Agent is the optional key-agent collaborator (§6.3). The
// authentication layer never sees agent-held private key material;
// Sign performs the signature remotely.
type Agent interface {
	// Available reports whether an agent is reachable (is_running).
	Available() bool
	// Identities enumerates the agent's advertised identities
	// (first_ident/next_ident folded into one call).
	Identities() ([]AgentIdentity, error)
	// Sign signs sessionID||signedData using the agent-held key
	// matching pub (do_sign_agent).
	Sign(pub ssh.PublicKey, sessionID, signedData []byte) ([]byte, error)
}
