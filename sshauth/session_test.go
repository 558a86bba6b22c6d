package sshauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jingweno/sshauth/transport"
)

func TestNewSessionDefaults(t *testing.T) {
	tr := transport.NewFake([]byte("sid"))
	s, _, _ := newTestSession(tr)

	require.Equal(t, "alice", s.Username)
	_, seen := s.AuthMethodsList()
	require.False(t, seen, "auth_methods is undefined before the first FAILURE")
	require.Nil(t, s.Banner())
	require.Nil(t, s.Kbdint())
	require.False(t, s.Authenticated())
	require.NoError(t, s.LastError())
}

func TestAwaitResponseRejectsEmptyPacket(t *testing.T) {
	tr := transport.NewFake([]byte("sid"))
	s, _, _ := newTestSession(tr)

	tr.QueueInbound([]byte{}) // empty packet: len(packet) < 1
	result, err := s.None(context.Background(), true)
	require.Equal(t, AuthError, result)
	require.Error(t, err)
}

func TestRunDriverDistinctCallsAfterCompletion(t *testing.T) {
	tr := transport.NewFake([]byte("sid"))
	s, _, _ := newTestSession(tr)

	tr.QueueInbound(packetWithType(msgUserAuthFailure, packetFailure("password", false)))
	result, err := s.None(context.Background(), true)
	require.NoError(t, err)
	require.Equal(t, AuthDenied, result)

	// The pending call was cleared on a terminal result, so a different
	// driver may now run without ErrBadCall.
	tr.QueueInbound(packetWithType(msgUserAuthFailure, packetFailure("publickey", true)))
	result, err = s.Password(context.Background(), "hunter2", true)
	require.NoError(t, err)
	require.Equal(t, AuthPartial, result)
}

func TestLastErrorReflectsMostRecentFailure(t *testing.T) {
	tr := transport.NewFake([]byte("sid"))
	s, _, _ := newTestSession(tr)

	tr.QueueInbound(packetWithType(msgUserAuthFailure, packetFailure("password", false)))
	_, err := s.None(context.Background(), true)
	require.NoError(t, err)
	require.Error(t, s.LastError())
	require.Contains(t, s.LastError().Error(), "password")
}

func TestSetDelayedCompressionNoopWithoutSuccess(t *testing.T) {
	s := &Session{}
	s.SetDelayedCompression(true, true)
	require.False(t, s.Authenticated())
}
