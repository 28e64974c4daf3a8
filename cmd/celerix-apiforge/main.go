package main

import (
	"os"

	"github.com/celerix-dev/celerix-apiforge/internal/cli"
)

func main() {
	if err := cli.RootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
