package command

import (
	"context"
	"fmt"
	"net"
	"os/user"
	"time"

	gokitmetrics "github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/provider"
	"github.com/oklog/run"
	"github.com/rs/xid"
	"github.com/spf13/cobra"

	sshauthctx "github.com/jingweno/sshauth/internal/context"
	"github.com/jingweno/sshauth/metrics"
	"github.com/jingweno/sshauth/pki"
	"github.com/jingweno/sshauth/sshagent"
	"github.com/jingweno/sshauth/sshauth"
	"github.com/jingweno/sshauth/transport"
	"github.com/jingweno/sshauth/utils"
)

// probeCmd drives the auto public-key strategy, falling back to a
// password, against a loopback practice server. It exists to exercise
// the state machine end to end; the practice server's framing is not
// interoperable with real sshd (see the transport package doc).
func probeCmd() *cobra.Command {
	var (
		host       string
		username   string
		identities []string
		password   string
		useAgent   bool
	)

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Authenticate against a practice ssh-userauth server",
		Long: `probe dials a loopback practice server speaking a minimal,
non-interoperable ssh-userauth framing and drives the "auto"
public-key strategy, falling back to a password if one is given.`,
		Example: `  # Try the agent and default identities, no password fallback:
  $ sshauth probe --host 127.0.0.1:2222 --user alice

  # Fall back to a password if every identity is denied:
  $ sshauth probe --user alice --password hunter2`,
		RunE: func(c *cobra.Command, args []string) error {
			return runProbe(c, host, username, identities, password, useAgent)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1:2222", "practice server address")
	cmd.Flags().StringVar(&username, "user", currentUsername(), "username to authenticate as")
	cmd.Flags().StringSliceVar(&identities, "identity", nil, "private key file to try (repeatable); defaults to ~/.ssh/id_*")
	cmd.Flags().StringVar(&password, "password", "", "password to fall back to if public-key methods are denied")
	cmd.Flags().BoolVar(&useAgent, "agent", true, "use a running ssh-agent ($SSH_AUTH_SOCK) if available")

	return cmd
}

// probeInstruments is a per-subsystem instruments struct, scoped to a
// single CLI invocation's authentication attempt instead of a
// long-lived server.
type probeInstruments struct {
	authDuration gokitmetrics.Histogram
}

func newProbeInstruments(p provider.Provider) *probeInstruments {
	return &probeInstruments{
		authDuration: p.NewHistogram("sshauth_probe_auth_duration_ms", 50),
	}
}

func currentUsername() string {
	u, err := user.Current()
	if err != nil {
		return ""
	}
	return u.Username
}

func runProbe(c *cobra.Command, host, username string, identities []string, password string, useAgent bool) error {
	ctx := c.Context()
	logger := sshauthctx.Logger(ctx)

	corrID := xid.New().String()
	if logger != nil {
		logger.Info("probing", "correlation_id", corrID, "host", host, "user", username)
	}

	conn, err := net.Dial("tcp", host)
	if err != nil {
		return fmt.Errorf("sshauth: dialing %s: %w", host, err)
	}
	defer conn.Close()

	tr := transport.New(conn, []byte(corrID))
	if err := tr.ServiceRequest(ctx); err != nil {
		return fmt.Errorf("sshauth: service request: %w", err)
	}

	km := pki.New(nil)

	var agentClient *sshagent.Client
	if useAgent {
		agentClient, err = sshagent.DialFromEnvironment()
		if err != nil {
			return fmt.Errorf("sshauth: connecting to ssh-agent: %w", err)
		}
		defer agentClient.Close()
	}

	if len(identities) == 0 {
		identities = utils.DefaultIdentityFiles()
	}

	session := sshauth.NewSession(tr, km, agentClient, username)
	session.Identity = identities
	session.PromptPassphrase = pki.TerminalPrompt
	if logger != nil {
		session.Logger = logger.Logger
	}

	instruments := newProbeInstruments(provider.NewDiscardProvider())

	var g run.Group
	authCtx, cancel := context.WithCancel(ctx)
	g.Add(func() error {
		return driveAuth(authCtx, session, password, instruments.authDuration)
	}, func(error) {
		cancel()
	})

	return g.Run()
}

// driveAuth pumps the auto strategy (polling on AuthAgain, the same
// shape a non-blocking event loop would use) until a terminal result,
// then falls back to a password if one was given and every identity
// was denied.
func driveAuth(ctx context.Context, session *sshauth.Session, password string, h gokitmetrics.Histogram) error {
	start := time.Now()
	defer metrics.MeasureSince(h, start)

	for {
		result, err := session.PublicKeyAuto(ctx, nil, true)
		switch result {
		case sshauth.AuthSuccess:
			fmt.Println("publickey authentication succeeded")
			return nil
		case sshauth.AuthPartial:
			methods, _ := session.AuthMethodsList()
			fmt.Printf("publickey accepted, more methods required (bitset %d)\n", methods)
			return nil
		case sshauth.AuthAgain:
			continue
		case sshauth.AuthDenied:
			if password == "" {
				return fmt.Errorf("sshauth: public-key authentication denied, no password given")
			}
			return drivePassword(ctx, session, password)
		default:
			return err
		}
	}
}

func drivePassword(ctx context.Context, session *sshauth.Session, password string) error {
	for {
		result, err := session.Password(ctx, password, true)
		switch result {
		case sshauth.AuthSuccess:
			fmt.Println("password authentication succeeded")
			return nil
		case sshauth.AuthPartial:
			fmt.Println("password accepted, more methods required")
			return nil
		case sshauth.AuthAgain:
			continue
		case sshauth.AuthDenied:
			return fmt.Errorf("sshauth: password authentication denied")
		default:
			return err
		}
	}
}
