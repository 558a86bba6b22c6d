package command

import (
	"fmt"
	"os"
	"os/exec"
	"runtime"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jingweno/sshauth/utils"
)

func configCmd() *cobra.Command {
	configPath := utils.ConfigFilePath()
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage sshauth configuration",
		Long: fmt.Sprintf(`Manage sshauth configuration file.

Config file: %s

This follows the XDG Base Directory Specification.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (SSHAUTH_ prefix)
  3. Config file
  4. Default values`, configPath),
	}

	cmd.AddCommand(configPathCmd())
	cmd.AddCommand(configViewCmd())
	cmd.AddCommand(configEditCmd())

	return cmd
}

func configPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Show the path to the config file",
		RunE:  configPathRunE,
	}
}

func configViewCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "view",
		Short: "View the config file contents",
		RunE:  configViewRunE,
	}
}

func configEditCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edit",
		Short: "Edit the config file",
		RunE:  configEditRunE,
	}
}

func configPathRunE(c *cobra.Command, args []string) error {
	fmt.Println(utils.ConfigFilePath())
	return nil
}

func configViewRunE(c *cobra.Command, args []string) error {
	configPath := utils.ConfigFilePath()

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		fmt.Println("# Config file does not exist. Example config:")
		fmt.Println()
		fmt.Print(exampleConfig())
		return nil
	}

	content, err := os.ReadFile(configPath)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	fmt.Print(string(content))
	return nil
}

func configEditRunE(c *cobra.Command, args []string) error {
	configPath := utils.ConfigFilePath()
	configDir := utils.ConfigDir()

	if err := os.MkdirAll(configDir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		if err := os.WriteFile(configPath, []byte(exampleConfig()), 0600); err != nil {
			return fmt.Errorf("failed to create config file: %w", err)
		}
	}

	editor := getEditor()

	cmd := exec.Command(editor, configPath)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}

	if err := validateConfig(configPath); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: config file has syntax errors: %v\n", err)
		fmt.Fprintf(os.Stderr, "Edit again with 'sshauth config edit' or view with 'sshauth config view'.\n")
	}

	return nil
}

func getEditor() string {
	if editor := os.Getenv("VISUAL"); editor != "" {
		return editor
	}
	if editor := os.Getenv("EDITOR"); editor != "" {
		return editor
	}

	switch runtime.GOOS {
	case "windows":
		return "notepad"
	default:
		if _, err := exec.LookPath("nano"); err == nil {
			return "nano"
		}
		return "vi"
	}
}

func validateConfig(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	return v.ReadInConfig()
}

func exampleConfig() string {
	return `# sshauth Configuration File
#
# This file follows the XDG Base Directory Specification.
# Settings here are overridden by environment variables (SSHAUTH_* prefix)
# and command-line flags.

# Debug logging (default: false)
# debug: true

# Practice server address for 'sshauth probe' (default: 127.0.0.1:2222)
# host: 127.0.0.1:2222

# Username to authenticate as (default: current OS user)
# user: alice

# Private key files to try, in order (default: ~/.ssh/id_*)
# identity:
#   - /path/to/private/key1
#   - /path/to/private/key2

# Use a running ssh-agent if one is reachable via $SSH_AUTH_SOCK (default: true)
# agent: true
`
}
