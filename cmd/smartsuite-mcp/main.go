package main

import (
	"os"

	"github.com/Grupo-AFAL/smartsuite-mcp-server-sub002/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
