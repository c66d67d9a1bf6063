package command

import (
	"context"
	"io"
	"path/filepath"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sesskeep-go/internal/cli/config"
	"github.com/yndnr/sesskeep-go/internal/cli/repl"
)

// ShellCommand returns the interactive shell command.
func ShellCommand() *cli.Command {
	return &cli.Command{
		Name:  "shell",
		Usage: "Run commands interactively against one loaded session",
		Description: "Global flags given to the shell apply to every command typed in it.\n" +
			"Type \"help\" for the command list and \"exit\" to leave.",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "no-history",
				Usage: "Do not read or write ~/.sesskeep/history",
			},
		},
		Action: runShell,
	}
}

func runShell(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	historyFile := filepath.Join(config.DefaultHome(), "history")
	if c.Bool("no-history") {
		historyFile = ""
	}

	var names []string
	for _, cmd := range App().Commands {
		names = append(names, cmd.Name)
	}
	names = append(names, "help")

	r := repl.New(repl.Config{
		Input:    c.App.Reader,
		Output:   c.App.Writer,
		Commands: names,
		History:  repl.NewHistory(historyFile, repl.DefaultHistorySize),
		Describe: Describe,
		Exec: func(ctx context.Context, args []string, in io.Reader) error {
			return runInShell(ctx, c.App, rt, args, in)
		},
	})
	return r.Run(c.Context)
}

// runInShell runs one command line on a fresh App that shares rt. The
// runtime outlives the line, and exit-coder errors never terminate the
// process.
func runInShell(ctx context.Context, parent *cli.App, rt *Runtime, args []string, in io.Reader) error {
	app := App()
	app.Writer = parent.Writer
	app.ErrWriter = parent.ErrWriter
	app.Reader = in
	app.Metadata = map[string]any{runtimeKey: rt}
	app.After = nil
	app.ExitErrHandler = func(*cli.Context, error) {}

	if len(args) > 0 && args[0] == "shell" {
		return usageError("already in a shell")
	}
	return app.RunContext(ctx, append([]string{app.Name}, args...))
}
