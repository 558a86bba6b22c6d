// Package sshagent adapts a running ssh-agent, reached over
// $SSH_AUTH_SOCK, to the sshauth.Agent contract.
package sshagent

import (
	"fmt"
	"net"
	"os"

	"golang.org/x/crypto/ssh"
	"golang.org/x/crypto/ssh/agent"

	"github.com/jingweno/sshauth/sshauth"
)

// Client is a sshauth.Agent backed by a live connection to ssh-agent.
type Client struct {
	conn  net.Conn
	agent agent.ExtendedAgent
}

// Dial connects to the agent listening on socket (typically
// os.Getenv("SSH_AUTH_SOCK")). The returned Client must be closed when
// no longer needed.
func Dial(socket string) (*Client, error) {
	conn, err := net.Dial("unix", socket)
	if err != nil {
		return nil, fmt.Errorf("sshagent: connecting to %s: %w", socket, err)
	}
	return &Client{conn: conn, agent: agent.NewClient(conn)}, nil
}

// DialFromEnvironment connects using $SSH_AUTH_SOCK, returning
// (nil, nil) when the variable is unset so callers can treat "no
// agent configured" as a non-error, expected condition.
func DialFromEnvironment() (*Client, error) {
	socket := os.Getenv("SSH_AUTH_SOCK")
	if socket == "" {
		return nil, nil
	}
	return Dial(socket)
}

func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}
	return c.conn.Close()
}

// Available reports whether the agent connection is usable. A Client
// obtained via Dial is always available for its lifetime; this exists
// so a nil *Client (no agent configured) satisfies sshauth.Agent's
// Available() == false without the caller special-casing nil.
func (c *Client) Available() bool {
	return c != nil && c.conn != nil
}

func (c *Client) Identities() ([]sshauth.AgentIdentity, error) {
	if !c.Available() {
		return nil, fmt.Errorf("sshagent: not connected")
	}

	keys, err := c.agent.List()
	if err != nil {
		return nil, fmt.Errorf("sshagent: listing identities: %w", err)
	}

	idents := make([]sshauth.AgentIdentity, len(keys))
	for i, k := range keys {
		idents[i] = sshauth.AgentIdentity{PublicKey: k, Comment: k.Comment}
	}
	return idents, nil
}

// Sign asks the agent to sign string(sessionID)||signedData with the
// private key matching pub, mirroring ssh.PublicKeysCallback's use of
// agentClient.Signers in host/auth.go but scoped to a single identity
// rather than handing the whole set to the net/ssh client.
func (c *Client) Sign(pub ssh.PublicKey, sessionID, signedData []byte) ([]byte, error) {
	if !c.Available() {
		return nil, fmt.Errorf("sshagent: not connected")
	}

	var buf []byte
	buf = appendSSHString(buf, sessionID)
	buf = append(buf, signedData...)

	sig, err := c.agent.Sign(pub, buf)
	if err != nil {
		return nil, fmt.Errorf("sshagent: sign: %w", err)
	}
	return ssh.Marshal(sig), nil
}

func appendSSHString(dst, b []byte) []byte {
	var length [4]byte
	n := uint32(len(b))
	length[0] = byte(n >> 24)
	length[1] = byte(n >> 16)
	length[2] = byte(n >> 8)
	length[3] = byte(n)
	dst = append(dst, length[:]...)
	return append(dst, b...)
}
