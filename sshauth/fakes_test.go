package sshauth

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"os"

	"golang.org/x/crypto/ssh"

	"github.com/jingweno/sshauth/pki"
)

// fakeKeyManager is a KeyManager double for package-internal tests.
// Signing, algorithm, and blob derivation are delegated to a real
// pki.Manager (ssh.Signer/ssh.PublicKey already do the real work);
// only the file-backed import/export calls are faked so tests don't
// need keys on disk.
type fakeKeyManager struct {
	*pki.Manager

	privFiles map[string]fakePrivEntry
	pubFiles  map[string]ssh.PublicKey
	exported  map[string]ssh.PublicKey
}

type fakePrivEntry struct {
	signer     ssh.Signer
	encrypted  bool
	passphrase []byte
}

func newFakeKeyManager() *fakeKeyManager {
	return &fakeKeyManager{
		Manager:   pki.New(nil),
		privFiles: map[string]fakePrivEntry{},
		pubFiles:  map[string]ssh.PublicKey{},
		exported:  map[string]ssh.PublicKey{},
	}
}

func (m *fakeKeyManager) ImportPublicKeyFile(path string) (ssh.PublicKey, error) {
	pub, ok := m.pubFiles[path]
	if !ok {
		return nil, fmt.Errorf("fakekm: %s: %w", path, os.ErrNotExist)
	}
	return pub, nil
}

func (m *fakeKeyManager) ExportPublicKeyFile(path string, pub ssh.PublicKey) error {
	m.exported[path] = pub
	return nil
}

func (m *fakeKeyManager) ImportPrivateKeyFile(path string, passphrase []byte, prompt PassphrasePrompt) (ssh.Signer, error) {
	e, ok := m.privFiles[path]
	if !ok {
		return nil, fmt.Errorf("fakekm: %s: %w", path, os.ErrNotExist)
	}
	if !e.encrypted {
		return e.signer, nil
	}
	if len(passphrase) > 0 {
		if bytes.Equal(passphrase, e.passphrase) {
			return e.signer, nil
		}
		return nil, fmt.Errorf("fakekm: %s: incorrect passphrase", path)
	}
	if prompt == nil {
		return nil, fmt.Errorf("fakekm: %s: encrypted, no passphrase prompt configured", path)
	}
	for i := 0; i < 3; i++ {
		pass, err := prompt(path)
		if err != nil {
			return nil, err
		}
		if bytes.Equal(pass, e.passphrase) {
			return e.signer, nil
		}
	}
	return nil, fmt.Errorf("fakekm: %s: too many incorrect passphrase attempts", path)
}

// addUnencryptedIdentity registers an unencrypted private key at path
// (no path+".pub" file), returning the generated public key.
func (m *fakeKeyManager) addUnencryptedIdentity(path string) ssh.PublicKey {
	signer := newTestSigner()
	m.privFiles[path] = fakePrivEntry{signer: signer}
	return signer.PublicKey()
}

func (m *fakeKeyManager) addEncryptedIdentity(path string, passphrase []byte) {
	signer := newTestSigner()
	m.privFiles[path] = fakePrivEntry{signer: signer, encrypted: true, passphrase: passphrase}
}

func (m *fakeKeyManager) addPubFile(path string, pub ssh.PublicKey) {
	m.pubFiles[path] = pub
}

func newTestSigner() ssh.Signer {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		panic(err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		panic(err)
	}
	return signer
}

// fakeAgent is an Agent double backed by in-memory signers rather
// than a live ssh-agent connection.
type fakeAgent struct {
	available bool
	idents    []AgentIdentity
	signers   map[string]ssh.Signer
	listErr   error
}

func newFakeAgent() *fakeAgent {
	return &fakeAgent{available: true, signers: map[string]ssh.Signer{}}
}

func (a *fakeAgent) addIdentity(comment string) ssh.PublicKey {
	signer := newTestSigner()
	pub := signer.PublicKey()
	a.idents = append(a.idents, AgentIdentity{PublicKey: pub, Comment: comment})
	a.signers[string(pub.Marshal())] = signer
	return pub
}

func (a *fakeAgent) Available() bool { return a.available }

func (a *fakeAgent) Identities() ([]AgentIdentity, error) {
	if a.listErr != nil {
		return nil, a.listErr
	}
	return a.idents, nil
}

func (a *fakeAgent) Sign(pub ssh.PublicKey, sessionID, signedData []byte) ([]byte, error) {
	signer, ok := a.signers[string(pub.Marshal())]
	if !ok {
		return nil, fmt.Errorf("fakeagent: no such identity")
	}

	var buf []byte
	buf = appendSSHString(buf, sessionID)
	buf = append(buf, signedData...)

	sig, err := signer.Sign(rand.Reader, buf)
	if err != nil {
		return nil, err
	}
	return ssh.Marshal(sig), nil
}

func appendSSHString(dst, b []byte) []byte {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(b)))
	dst = append(dst, length[:]...)
	return append(dst, b...)
}
