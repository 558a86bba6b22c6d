package sshauth

import (
	"bytes"
	"encoding/binary"
)

// maxRequestSize bounds how large a single USERAUTH_REQUEST body this
// module will build. It exists so the "allocation or append failure"
// path in §4.1 is reachable and testable without actually exhausting
// process memory; no legitimate request (a password, a key blob, a
// signature) comes close to it.
const maxRequestSize = 256 * 1024

// requestWriter serializes the SSH primitive types used by
// USERAUTH_REQUEST and USERAUTH_INFO_RESPONSE bodies: uint8, big-endian
// uint32, and length-prefixed strings. Every authentication request
// starts from buildCommonPrefix; method drivers append their own
// fields on top.
type requestWriter struct {
	buf bytes.Buffer
	err error
}

func newRequestWriter() *requestWriter {
	return &requestWriter{}
}

func (w *requestWriter) fits(n int) bool {
	return w.err == nil && w.buf.Len()+n <= maxRequestSize
}

// WriteUint8 appends a single byte, commonly a boolean (0/1) or a
// message number.
func (w *requestWriter) WriteUint8(v uint8) *requestWriter {
	if !w.fits(1) {
		w.fail()
		return w
	}
	w.buf.WriteByte(v)
	return w
}

func (w *requestWriter) WriteBool(v bool) *requestWriter {
	if v {
		return w.WriteUint8(1)
	}
	return w.WriteUint8(0)
}

// WriteUint32 appends a big-endian uint32.
func (w *requestWriter) WriteUint32(v uint32) *requestWriter {
	if !w.fits(4) {
		w.fail()
		return w
	}
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
	return w
}

// WriteBytes appends an SSH string: a uint32 length prefix followed
// by the raw bytes.
func (w *requestWriter) WriteBytes(b []byte) *requestWriter {
	if !w.fits(4 + len(b)) {
		w.fail()
		return w
	}
	w.WriteUint32(uint32(len(b)))
	if w.err != nil {
		return w
	}
	w.buf.Write(b)
	return w
}

// WriteString appends an SSH string built from a Go string.
func (w *requestWriter) WriteString(s string) *requestWriter {
	return w.WriteBytes([]byte(s))
}

// fail resets the outbound buffer and marks the writer with
// ErrOutOfMemory, mirroring the source's "reset buffer, set oom
// error" recovery path (§4.1, §4.7).
func (w *requestWriter) fail() {
	w.buf.Reset()
	w.err = ErrOutOfMemory
}

// Bytes returns the accumulated request body. Only valid when Err()
// is nil.
func (w *requestWriter) Bytes() []byte {
	return w.buf.Bytes()
}

func (w *requestWriter) Err() error {
	return w.err
}

// buildCommonPrefix starts a USERAUTH_REQUEST body shared by every
// method: (u8=50, string username, string "ssh-connection", string
// method) (§4.1, §6.1).
func buildCommonPrefix(username, method string) *requestWriter {
	w := newRequestWriter()
	w.WriteUint8(msgUserAuthRequest)
	w.WriteString(username)
	w.WriteString(ServiceName)
	w.WriteString(method)
	return w
}

// responseReader parses the SSH primitive types out of an inbound
// packet payload. Any short read is reported through Err() so callers
// can abort to StateError without panicking on attacker-controlled
// input (§4.2, §4.7).
type responseReader struct {
	b   []byte
	err error
}

func newResponseReader(b []byte) *responseReader {
	return &responseReader{b: b}
}

func (r *responseReader) ReadUint8() uint8 {
	if r.err != nil || len(r.b) < 1 {
		r.err = protocolError("short read: uint8")
		return 0
	}
	v := r.b[0]
	r.b = r.b[1:]
	return v
}

func (r *responseReader) ReadBool() bool {
	return r.ReadUint8() != 0
}

func (r *responseReader) ReadUint32() uint32 {
	if r.err != nil || len(r.b) < 4 {
		r.err = protocolError("short read: uint32")
		return 0
	}
	v := binary.BigEndian.Uint32(r.b[:4])
	r.b = r.b[4:]
	return v
}

func (r *responseReader) ReadBytes() []byte {
	n := r.ReadUint32()
	if r.err != nil {
		return nil
	}
	if uint32(len(r.b)) < n {
		r.err = protocolError("short read: string")
		return nil
	}
	v := r.b[:n]
	r.b = r.b[n:]
	return v
}

func (r *responseReader) ReadString() string {
	return string(r.ReadBytes())
}

func (r *responseReader) Err() error {
	return r.err
}

// buildInfoResponse serializes USERAUTH_INFO_RESPONSE (61):
// uint32 nprompts, string answer[nprompts]. An empty answer is
// encoded as a zero-length string, never omitted (§4.4.6, §6.1).
func buildInfoResponse(answers []string) *requestWriter {
	w := newRequestWriter()
	w.WriteUint8(msgUserAuthInfoResponse)
	w.WriteUint32(uint32(len(answers)))
	for _, a := range answers {
		w.WriteString(a)
	}
	return w
}
