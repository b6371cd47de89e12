package main

import (
	"context"
	"os"

	"github.com/charmbracelet/fang"
)

// version is set at build time.
var version = "dev"

func main() {
	c := newCLI(os.Stdin, os.Stdout, os.Stderr, os.Getenv)
	err := fang.Execute(
		context.Background(),
		c.rootCommand(),
		fang.WithVersion(version),
		fang.WithNotifySignal(os.Interrupt),
	)
	c.close()
	if err != nil {
		os.Exit(1)
	}
}
