package command

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jingweno/sshauth/internal/version"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version",
		RunE: func(c *cobra.Command, args []string) error {
			_, err := fmt.Printf("sshauth version v%s (%s)\n", version.Version, version.SSHVersion())
			return err
		},
	}
}
