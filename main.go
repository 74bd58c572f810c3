package main

import (
	"os"

	"github.com/stackmesh/template-agent/cli"
)

func main() {
	cmd := cli.RootCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
