// Package transport provides Transport implementations for
// sshauth.Session: a minimal length-prefixed packet mover over
// net.Conn, and an in-memory fake for tests.
//
// Neither performs key exchange or packet encryption. Real SSH
// traffic is protected by the binary packet protocol negotiated
// during KEX (RFC 4253 §6), which is explicitly out of scope for this
// module (§1, §6.3): golang.org/x/crypto/ssh's own Client performs
// KEX and userauth as one inseparable step and does not expose a
// hook to drive userauth independently afterward. Conn here backs a
// local loopback practice server (cmd/sshauth) that speaks the same
// ssh-userauth messages in the clear; it is not interoperable with a
// real sshd.
package transport

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"time"

	"github.com/jingweno/sshauth/sshauth"
)

const maxPacketSize = 256 * 1024

// Conn frames ssh-userauth packets as a 4-byte big-endian length
// prefix followed by the payload (packet[0] is the message number,
// matching sshauth.Transport's contract).
type Conn struct {
	nc        net.Conn
	sessionID []byte
}

// New wraps nc. sessionID stands in for the value KEX would have
// established; callers of the real protocol derive it from the
// exchange hash, but this module never computes one itself (§6.3).
func New(nc net.Conn, sessionID []byte) *Conn {
	return &Conn{nc: nc, sessionID: sessionID}
}

func (c *Conn) ServiceRequest(ctx context.Context) error {
	var buf []byte
	buf = appendString(buf, "ssh-userauth")
	return c.SendPacket(append([]byte{6}, buf...)) // SSH_MSG_SERVICE_REQUEST
}

func (c *Conn) SendPacket(packet []byte) error {
	if len(packet) > maxPacketSize {
		return fmt.Errorf("transport: packet too large (%d bytes)", len(packet))
	}

	var header [4]byte
	binary.BigEndian.PutUint32(header[:], uint32(len(packet)))
	if _, err := c.nc.Write(header[:]); err != nil {
		return fmt.Errorf("transport: writing length: %w", err)
	}
	if _, err := c.nc.Write(packet); err != nil {
		return fmt.Errorf("transport: writing packet: %w", err)
	}
	return nil
}

// ReadPacket reads one framed packet. When blocking is false it polls
// with a short deadline and maps a timeout to sshauth.ErrWouldBlock;
// when true it honors ctx's deadline, if any, and otherwise blocks
// indefinitely.
func (c *Conn) ReadPacket(ctx context.Context, blocking bool) ([]byte, error) {
	if !blocking {
		if err := c.nc.SetReadDeadline(time.Now().Add(time.Millisecond)); err != nil {
			return nil, fmt.Errorf("transport: set read deadline: %w", err)
		}
	} else if deadline, ok := ctx.Deadline(); ok {
		if err := c.nc.SetReadDeadline(deadline); err != nil {
			return nil, fmt.Errorf("transport: set read deadline: %w", err)
		}
	} else {
		if err := c.nc.SetReadDeadline(time.Time{}); err != nil {
			return nil, fmt.Errorf("transport: clear read deadline: %w", err)
		}
	}

	var header [4]byte
	if _, err := io.ReadFull(c.nc, header[:]); err != nil {
		if isTimeout(err) {
			return nil, sshauth.ErrWouldBlock
		}
		return nil, fmt.Errorf("transport: reading length: %w", err)
	}

	n := binary.BigEndian.Uint32(header[:])
	if n > maxPacketSize {
		return nil, fmt.Errorf("transport: peer sent oversized packet (%d bytes)", n)
	}

	packet := make([]byte, n)
	if _, err := io.ReadFull(c.nc, packet); err != nil {
		if isTimeout(err) {
			return nil, sshauth.ErrWouldBlock
		}
		return nil, fmt.Errorf("transport: reading packet: %w", err)
	}
	return packet, nil
}

func (c *Conn) SessionID() []byte { return c.sessionID }

func (c *Conn) Close() error { return c.nc.Close() }

func isTimeout(err error) bool {
	ne, ok := err.(net.Error)
	return ok && ne.Timeout()
}

func appendString(dst []byte, s string) []byte {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(s)))
	dst = append(dst, length[:]...)
	return append(dst, s...)
}
