package transport

import (
	"context"
	"sync"

	"github.com/jingweno/sshauth/sshauth"
)

// Fake is an in-memory sshauth.Transport double. Tests queue
// responses with QueueInbound and inspect what the driver sent via
// Sent. It is safe for the sequential, single-goroutine use a
// Session expects.
type Fake struct {
	mu            sync.Mutex
	sessionID     []byte
	inbound       [][]byte
	sent          [][]byte
	serviceReqs   int
	serviceReqErr error
	sendErr       error
}

// NewFake returns a Fake bound to sessionID (used verbatim by
// KeyManager/Agent fakes that need to assert what was signed over).
func NewFake(sessionID []byte) *Fake {
	return &Fake{sessionID: sessionID}
}

// QueueInbound appends packet to the queue ReadPacket drains from, in
// FIFO order.
func (f *Fake) QueueInbound(packet []byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.inbound = append(f.inbound, packet)
}

// Sent returns every packet handed to SendPacket, oldest first.
func (f *Fake) Sent() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.sent))
	copy(out, f.sent)
	return out
}

// FailNextSend makes the next SendPacket call return err.
func (f *Fake) FailNextSend(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sendErr = err
}

func (f *Fake) ServiceRequest(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.serviceReqs++
	return f.serviceReqErr
}

func (f *Fake) SendPacket(packet []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.sendErr != nil {
		err := f.sendErr
		f.sendErr = nil
		return err
	}

	cp := make([]byte, len(packet))
	copy(cp, packet)
	f.sent = append(f.sent, cp)
	return nil
}

// ReadPacket pops the next queued packet. With blocking == false and
// nothing queued, it returns sshauth.ErrWouldBlock, matching what a
// non-blocking Session expects from a real Transport.
func (f *Fake) ReadPacket(ctx context.Context, blocking bool) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.inbound) == 0 {
		if blocking {
			panic("transport.Fake: blocking ReadPacket with nothing queued (tests must queue ahead of time)")
		}
		return nil, sshauth.ErrWouldBlock
	}

	packet := f.inbound[0]
	f.inbound = f.inbound[1:]
	return packet, nil
}

func (f *Fake) SessionID() []byte { return f.sessionID }
