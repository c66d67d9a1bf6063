package main

import (
	"context"
	"fmt"
	"os"

	"github.com/yndnr/sesskeep-go/internal/cli/command"
)

func main() {
	app := command.App()

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %s\n", command.Describe(err))
		os.Exit(command.ExitCode(err))
	}
}
