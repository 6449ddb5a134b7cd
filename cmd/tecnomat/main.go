package main

import (
	"fmt"
	"os"

	"github.com/Povusa/TECNOMAT/internal/cli"
	"github.com/Povusa/TECNOMAT/internal/webapi"
	"github.com/mattn/go-isatty"
)

// version is overridden with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	webapi.Version = version

	app := cli.NewApp(version)
	defer app.Close()

	// Detect interactive terminal so chat can use full-screen forms.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	return cli.NewRootCmd(app).Execute()
}
