// Package version centralizes this module's version constant and the
// semantic-version comparison used to warn when a CLI build is
// talking to a server whose advertised SSH identification string
// looks incompatible.
package version

import (
	"fmt"
	"regexp"

	"github.com/hashicorp/go-version"
)

// Version is the semantic version of this module.
const Version = "0.1.0"

// ClientVersionPrefix is the prefix of the identification string
// SSHVersion builds, and the prefix ParseFromSSHVersion expects a
// peer's identification string to carry.
const ClientVersionPrefix = "SSH-2.0-sshauth"

// Parse parses a version string using hashicorp's go-version library.
func Parse(v string) (*version.Version, error) {
	return version.NewVersion(v)
}

// ParseFromSSHVersion extracts a version from identification strings
// like "SSH-2.0-sshauth-0.1.0".
func ParseFromSSHVersion(sshVersion string) (*version.Version, error) {
	escaped := regexp.QuoteMeta(ClientVersionPrefix)
	re := regexp.MustCompile(fmt.Sprintf(`^%s-(.+)$`, escaped))

	matches := re.FindStringSubmatch(sshVersion)
	if len(matches) != 2 {
		return nil, fmt.Errorf("not a recognized sshauth SSH version string: %s", sshVersion)
	}

	v, err := Parse(matches[1])
	if err != nil {
		return nil, fmt.Errorf("invalid version format in SSH string %s: %w", sshVersion, err)
	}
	return v, nil
}

// Current returns the current version as a parsed version object.
// Panics if Version is not valid semver.
func Current() *version.Version {
	v, err := Parse(Version)
	if err != nil {
		panic(fmt.Sprintf("invalid version constant %q: %v", Version, err))
	}
	return v
}

// String returns the current version as a string.
func String() string {
	return Version
}

// SSHVersion returns the SSH identification string a client built on
// this module should send.
func SSHVersion() string {
	return fmt.Sprintf("%s-%s", ClientVersionPrefix, Version)
}

// CompatibilityResult is the result of comparing this build's version
// against a peer's advertised SSH version string.
type CompatibilityResult struct {
	Compatible  bool
	OurVersion  string
	PeerVersion string
	Message     string
}

// CheckCompatibility compares this build's version with a peer's SSH
// identification string. Any peer that doesn't embed a recognizable
// sshauth version (a non-demo server, or one built from a different
// client) is reported incompatible without being treated as an error:
// this is advisory logging, never a reason to refuse the connection.
func CheckCompatibility(peerSSHVersion string) *CompatibilityResult {
	ours := Current()
	oursStr := "v" + ours.String()

	peer, err := ParseFromSSHVersion(peerSSHVersion)
	if err != nil {
		return &CompatibilityResult{
			Compatible:  false,
			OurVersion:  oursStr,
			PeerVersion: "unknown",
			Message:     "peer does not advertise a recognizable sshauth version",
		}
	}

	peerStr := "v" + peer.String()
	if ours.Segments()[0] != peer.Segments()[0] {
		return &CompatibilityResult{
			Compatible:  false,
			OurVersion:  oursStr,
			PeerVersion: peerStr,
			Message:     fmt.Sprintf("major version mismatch: ours %s, peer %s", oursStr, peerStr),
		}
	}

	return &CompatibilityResult{
		Compatible:  true,
		OurVersion:  oursStr,
		PeerVersion: peerStr,
	}
}
