package sshauth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jingweno/sshauth/transport"
)

func TestPublicKeyAutoPrefersAvailableAgent(t *testing.T) {
	tr := transport.NewFake([]byte("sid"))
	s, km, ag := newTestSession(tr)
	ag.addIdentity("agent-key")
	km.addUnencryptedIdentity("/home/alice/.ssh/id_ed25519") // must be ignored while the agent is available

	tr.QueueInbound(packetWithType(msgUserAuthPkOkOrInfoRequest, nil))
	tr.QueueInbound(packetWithType(msgUserAuthSuccess, nil))

	result, err := s.PublicKeyAuto(context.Background(), nil, true)
	require.NoError(t, err)
	require.Equal(t, AuthSuccess, result)
	require.Len(t, tr.Sent(), 2, "agent path: one TryPublicKey, one AgentPublicKey")
}

func TestPublicKeyAutoAgentSkipsDeniedThenSucceeds(t *testing.T) {
	tr := transport.NewFake([]byte("sid"))
	s, _, ag := newTestSession(tr)
	ag.addIdentity("first")
	ag.addIdentity("second")

	// first identity: TryPublicKey denied
	tr.QueueInbound(packetWithType(msgUserAuthFailure, packetFailure("publickey", false)))
	// second identity: TryPublicKey ok, AgentPublicKey success
	tr.QueueInbound(packetWithType(msgUserAuthPkOkOrInfoRequest, nil))
	tr.QueueInbound(packetWithType(msgUserAuthSuccess, nil))

	result, err := s.PublicKeyAuto(context.Background(), nil, true)
	require.NoError(t, err)
	require.Equal(t, AuthSuccess, result)
	require.Len(t, tr.Sent(), 3)
}

func TestPublicKeyAutoAgentAllDenied(t *testing.T) {
	tr := transport.NewFake([]byte("sid"))
	s, _, ag := newTestSession(tr)
	ag.addIdentity("only")

	tr.QueueInbound(packetWithType(msgUserAuthFailure, packetFailure("publickey", false)))

	result, err := s.PublicKeyAuto(context.Background(), nil, true)
	require.NoError(t, err)
	require.Equal(t, AuthDenied, result)
}

func TestPublicKeyAutoFilesHappyPath(t *testing.T) {
	tr := transport.NewFake([]byte("sid"))
	s, km, ag := newTestSession(tr)
	ag.available = false
	path := "/home/alice/.ssh/id_ed25519"
	km.addUnencryptedIdentity(path)
	s.Identity = []string{path}

	tr.QueueInbound(packetWithType(msgUserAuthPkOkOrInfoRequest, nil))
	tr.QueueInbound(packetWithType(msgUserAuthSuccess, nil))

	result, err := s.PublicKeyAuto(context.Background(), nil, true)
	require.NoError(t, err)
	require.Equal(t, AuthSuccess, result)
	require.Contains(t, km.exported, path+".pub", "derived public key should be persisted best-effort")
}

func TestPublicKeyAutoFilesResumesAcrossAuthAgain(t *testing.T) {
	tr := transport.NewFake([]byte("sid"))
	s, km, ag := newTestSession(tr)
	ag.available = false
	path := "/home/alice/.ssh/id_ed25519"
	km.addUnencryptedIdentity(path)
	s.Identity = []string{path}

	// Nothing queued yet: the TryPublicKey send happens, then blocks.
	result, err := s.PublicKeyAuto(context.Background(), nil, false)
	require.NoError(t, err)
	require.Equal(t, AuthAgain, result)
	require.Len(t, tr.Sent(), 1)

	tr.QueueInbound(packetWithType(msgUserAuthPkOkOrInfoRequest, nil))
	result, err = s.PublicKeyAuto(context.Background(), nil, false)
	require.NoError(t, err)
	require.Equal(t, AuthAgain, result, "AgentPublicKey/PublicKey leg is sent but the response isn't queued yet")
	require.Len(t, tr.Sent(), 2)

	tr.QueueInbound(packetWithType(msgUserAuthSuccess, nil))
	result, err = s.PublicKeyAuto(context.Background(), nil, false)
	require.NoError(t, err)
	require.Equal(t, AuthSuccess, result)
}

func TestPublicKeyAutoFilesSkipsMissingFile(t *testing.T) {
	tr := transport.NewFake([]byte("sid"))
	s, km, ag := newTestSession(tr)
	ag.available = false
	s.Identity = []string{"/home/alice/.ssh/does-not-exist"}
	_ = km

	result, err := s.PublicKeyAuto(context.Background(), nil, true)
	require.NoError(t, err)
	require.Equal(t, AuthDenied, result)
	require.Empty(t, tr.Sent(), "a missing identity file must be skipped silently")
}

func TestPublicKeyAutoFilesUsesPubFileWithoutPrivateKey(t *testing.T) {
	tr := transport.NewFake([]byte("sid"))
	s, km, ag := newTestSession(tr)
	ag.available = false
	path := "/home/alice/.ssh/id_ed25519"

	// Only the .pub file is registered; no private key for this path.
	pub := newTestSigner().PublicKey()
	km.addPubFile(path+".pub", pub)
	s.Identity = []string{path}

	tr.QueueInbound(packetWithType(msgUserAuthFailure, packetFailure("publickey", false)))
	result, err := s.PublicKeyAuto(context.Background(), nil, true)
	require.NoError(t, err)
	require.Equal(t, AuthDenied, result)
}
