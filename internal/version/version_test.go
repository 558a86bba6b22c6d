package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFromSSHVersion(t *testing.T) {
	tests := []struct {
		name        string
		sshVersion  string
		expectedVer string
		expectError bool
	}{
		{
			name:        "valid sshauth SSH version",
			sshVersion:  "SSH-2.0-sshauth-0.14.3",
			expectedVer: "0.14.3",
			expectError: false,
		},
		{
			name:        "SSH version without numeric version",
			sshVersion:  "SSH-2.0-openssh",
			expectedVer: "",
			expectError: true,
		},
		{
			name:        "malformed version",
			sshVersion:  "SSH-2.0-sshauth-invalid",
			expectedVer: "",
			expectError: true,
		},
		{
			name:        "no version suffix",
			sshVersion:  "SSH-2.0-sshauth",
			expectedVer: "",
			expectError: true,
		},
		{
			name:        "complex semantic version with prerelease",
			sshVersion:  "SSH-2.0-sshauth-1.0.0-beta.1",
			expectedVer: "1.0.0-beta.1",
			expectError: false,
		},
		{
			name:        "complex semantic version with build metadata",
			sshVersion:  "SSH-2.0-sshauth-1.0.0+build.123",
			expectedVer: "1.0.0+build.123",
			expectError: false,
		},
		{
			name:        "complex semantic version with both prerelease and build",
			sshVersion:  "SSH-2.0-sshauth-2.0.0-rc.1+20220101",
			expectedVer: "2.0.0-rc.1+20220101",
			expectError: false,
		},
		{
			name:        "wrong client name - should fail",
			sshVersion:  "SSH-2.0-openssh-sshauth-0.14.3",
			expectedVer: "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseFromSSHVersion(tt.sshVersion)

			if tt.expectError {
				assert.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expectedVer, v.String())
		})
	}
}

func TestCheckCompatibility(t *testing.T) {
	tests := []struct {
		name         string
		sshVersion   string
		expectedComp bool
		expectedOurs string
		expectedPeer string
		expectedMsg  string
	}{
		{
			name:         "same versions",
			sshVersion:   "SSH-2.0-sshauth-" + Version,
			expectedComp: true,
			expectedOurs: "v" + Version,
			expectedPeer: "v" + Version,
			expectedMsg:  "",
		},
		{
			name:         "same major, different minor",
			sshVersion:   "SSH-2.0-sshauth-0.15.0",
			expectedComp: true,
			expectedOurs: "v" + Version,
			expectedPeer: "v0.15.0",
			expectedMsg:  "",
		},
		{
			name:         "different major versions",
			sshVersion:   "SSH-2.0-sshauth-1.0.0",
			expectedComp: false,
			expectedOurs: "v" + Version,
			expectedPeer: "v1.0.0",
			expectedMsg:  "major version mismatch: ours v" + Version + ", peer v1.0.0",
		},
		{
			name:         "different peer (openssh) - treated as unknown",
			sshVersion:   "SSH-2.0-openssh-8.0",
			expectedComp: false,
			expectedOurs: "v" + Version,
			expectedPeer: "unknown",
			expectedMsg:  "peer does not advertise a recognizable sshauth version",
		},
		{
			name:         "malformed SSH version - incompatible",
			sshVersion:   "invalid-version-string",
			expectedComp: false,
			expectedOurs: "v" + Version,
			expectedPeer: "unknown",
			expectedMsg:  "peer does not advertise a recognizable sshauth version",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := CheckCompatibility(tt.sshVersion)

			assert.Equal(t, tt.expectedComp, result.Compatible)
			assert.Equal(t, tt.expectedOurs, result.OurVersion)
			assert.Equal(t, tt.expectedPeer, result.PeerVersion)
			assert.Equal(t, tt.expectedMsg, result.Message)
		})
	}
}

func TestSSHVersion(t *testing.T) {
	expected := "SSH-2.0-sshauth-" + Version
	assert.Equal(t, expected, SSHVersion())
}

func TestCurrent(t *testing.T) {
	v := Current()
	assert.NotNil(t, v)
	assert.Equal(t, Version, v.String())
}

func TestCurrentDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		Current()
	})
}
