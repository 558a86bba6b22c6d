package command

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	sshauthctx "github.com/jingweno/sshauth/internal/context"
	"github.com/jingweno/sshauth/internal/logging"
	"github.com/jingweno/sshauth/utils"
)

// Root builds the sshauth command tree: a thin CLI over the sshauth
// library, config, and version commands, with cobra/viper flag, env,
// and config-file precedence.
func Root() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "sshauth",
		Short: "Client-side ssh-userauth/keyboard-interactive driver",
		Long: `sshauth drives RFC 4252 ssh-userauth and RFC 4256
keyboard-interactive authentication against a transport, PKI, and
agent collaborator, independent of key exchange and the connection
protocol.

Configuration Priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (SSHAUTH_ prefix)
  3. Config file (see below)
  4. Default values

Config File:
  Run 'sshauth config path' to see your config file location.
  Run 'sshauth config edit' to create and edit the config file.`,
		Example: `  # Authenticate against a practice server using the auto strategy:
  $ sshauth probe --host 127.0.0.1:2222 --user alice

  # Set flags via environment variables:
  $ SSHAUTH_USER=alice sshauth probe`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := bindFlagsToEnv(cmd); err != nil {
				return err
			}

			debug, _ := cmd.Flags().GetBool("debug")

			logOptions := []logging.Option{logging.File(utils.LogFilePath())}
			if debug {
				logOptions = append(logOptions, logging.Debug())
			}

			logger, err := logging.New(logOptions...)
			if err != nil {
				return err
			}

			cmd.SetContext(sshauthctx.WithLogger(cmd.Context(), logger))

			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if logger := sshauthctx.Logger(cmd.Context()); logger != nil {
				return logger.Close()
			}
			return nil
		},
	}

	logPath := utils.LogFilePath()
	rootCmd.PersistentFlags().Bool("debug", os.Getenv("DEBUG") != "",
		fmt.Sprintf("enable debug level logging (log file: %s).", logPath))

	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(probeCmd())
	rootCmd.AddCommand(versionCmd())

	return rootCmd
}

// bindFlagsToEnv binds all command flags to config file and environment
// variables under the SSHAUTH_ prefix.
func bindFlagsToEnv(cmd *cobra.Command) error {
	v := viper.New()

	configPath := utils.ConfigFilePath()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		if _, statErr := os.Stat(configPath); statErr == nil {
			if logger := sshauthctx.Logger(cmd.Context()); logger != nil {
				logger.Warn("failed to read config file", "path", configPath, "error", err)
			}
		}
	}

	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if flag.Name != "help" {
			_ = v.BindPFlag(flag.Name, flag)
		}
	})

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.SetEnvPrefix("SSHAUTH")

	cmd.Flags().VisitAll(func(flag *pflag.Flag) {
		if flag.Name != "help" && !flag.Changed && v.IsSet(flag.Name) {
			val := v.Get(flag.Name)
			_ = cmd.Flags().Set(flag.Name, toString(val))
		}
	})

	return nil
}

func toString(val any) string {
	switch v := val.(type) {
	case bool:
		if v {
			return "true"
		}
		return "false"
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, len(v))
		for i, e := range v {
			parts[i] = fmt.Sprintf("%v", e)
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprintf("%v", v)
	}
}
