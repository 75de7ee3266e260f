package main

import (
	"os"

	"github.com/harun/toolpilot/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
