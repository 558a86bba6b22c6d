// Package pki adapts golang.org/x/crypto/ssh to the sshauth.KeyManager
// contract: key import/export, session-id-bound signing, and the
// encrypted-private-key passphrase retry policy.
package pki

import (
	"bytes"
	"crypto/rand"
	"crypto/x509"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"syscall"

	"github.com/avast/retry-go/v4"
	"golang.org/x/crypto/ssh"
	"golang.org/x/term"

	"github.com/jingweno/sshauth/sshauth"
)

const errCannotDecodeEncryptedPrivateKeys = "cannot decode encrypted private keys"

// passphraseRetries mirrors a real ssh client's retry count for a
// wrong passphrase before giving up on an identity.
const passphraseRetries = 3

// Manager implements sshauth.KeyManager on top of golang.org/x/crypto/ssh.
type Manager struct {
	Logger *slog.Logger
}

func New(logger *slog.Logger) *Manager {
	return &Manager{Logger: logger}
}

func (m *Manager) Algorithm(pub ssh.PublicKey) string {
	return pub.Type()
}

func (m *Manager) PubkeyBlob(pub ssh.PublicKey) []byte {
	return pub.Marshal()
}

func (m *Manager) PublicKeyFromPrivate(priv ssh.Signer) ssh.PublicKey {
	return priv.PublicKey()
}

// Sign signs string(sessionID) || signedData with priv and returns the
// wire-format signature blob, matching the shape golang.org/x/crypto/ssh's
// own client auth code produces for USERAUTH_REQUEST publickey proofs.
func (m *Manager) Sign(priv ssh.Signer, sessionID, signedData []byte) ([]byte, error) {
	var buf bytes.Buffer
	writeSSHString(&buf, sessionID)
	buf.Write(signedData)

	sig, err := priv.Sign(rand.Reader, buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("pki: sign: %w", err)
	}
	return ssh.Marshal(sig), nil
}

func writeSSHString(buf *bytes.Buffer, b []byte) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(b)))
	buf.Write(length[:])
	buf.Write(b)
}

func (m *Manager) ImportPublicKeyFile(path string) (ssh.PublicKey, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	pub, _, _, _, err := ssh.ParseAuthorizedKey(b)
	if err != nil {
		return nil, fmt.Errorf("pki: parsing public key %s: %w", path, err)
	}
	return pub, nil
}

func (m *Manager) ExportPublicKeyFile(path string, pub ssh.PublicKey) error {
	return os.WriteFile(path, ssh.MarshalAuthorizedKey(pub), 0o644)
}

// ImportPrivateKeyFile reads and, if necessary, decrypts the private
// key at path, prompting for a passphrase up to passphraseRetries
// times when one wasn't supplied (import_privkey_file, §6.3).
func (m *Manager) ImportPrivateKeyFile(path string, passphrase []byte, prompt sshauth.PassphrasePrompt) (ssh.Signer, error) {
	pb, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	key, err := ssh.ParseRawPrivateKey(pb)
	if err == nil {
		return ssh.NewSignerFromKey(key)
	}

	var missing *ssh.PassphraseMissingError
	if !errors.As(err, &missing) && !strings.Contains(err.Error(), errCannotDecodeEncryptedPrivateKeys) {
		return nil, fmt.Errorf("pki: parsing private key %s: %w", path, err)
	}

	if len(passphrase) > 0 {
		key, err := ssh.ParseRawPrivateKeyWithPassphrase(pb, passphrase)
		if err != nil {
			return nil, fmt.Errorf("pki: decrypting private key %s: %w", path, err)
		}
		return ssh.NewSignerFromKey(key)
	}

	if prompt == nil {
		return nil, fmt.Errorf("pki: private key %s is encrypted and no passphrase prompt was configured", path)
	}

	var signer ssh.Signer
	attempt := 0
	retryErr := retry.Do(
		func() error {
			attempt++
			pass, err := prompt(path)
			if err != nil {
				return retry.Unrecoverable(err)
			}

			key, err := ssh.ParseRawPrivateKeyWithPassphrase(pb, bytes.TrimSpace(pass))
			if err == nil {
				signer, err = ssh.NewSignerFromKey(key)
				return err
			}
			if !errors.Is(err, x509.IncorrectPasswordError) {
				return retry.Unrecoverable(err)
			}
			return err
		},
		retry.Attempts(passphraseRetries),
		retry.LastErrorOnly(true),
	)
	if retryErr != nil {
		return nil, fmt.Errorf("pki: decrypting private key %s after %d attempts: %w", path, attempt, retryErr)
	}
	return signer, nil
}

// TerminalPrompt reads a passphrase from the controlling terminal,
// matching host/signer.go's promptForPassphrase.
func TerminalPrompt(path string) ([]byte, error) {
	defer fmt.Println("")

	fmt.Printf("Enter passphrase for key '%s': ", path)
	return term.ReadPassword(int(syscall.Stdin))
}
