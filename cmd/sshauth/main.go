package main

import (
	"fmt"
	"os"

	"github.com/jingweno/sshauth/cmd/sshauth/command"
)

func main() {
	if err := command.Root().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
