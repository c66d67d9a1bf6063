package command

import (
	"github.com/urfave/cli/v2"

	"github.com/yndnr/sesskeep-go/internal/infra/buildinfo"
	"github.com/yndnr/sesskeep-go/internal/telemetry/logger"
)

const runtimeKey = "runtime"

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "sesskeep-cli",
		Usage:   "Sign in to an auth API and keep the session fresh",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			LoginCommand(),
			SignupCommand(),
			LogoutCommand(),
			RefreshCommand(),
			WhoamiCommand(),
			StatusCommand(),
			PasswordCommand(),
			InviteCommand(),
			WatchCommand(),
			ShellCommand(),
			VersionCommand(),
		},
		HideVersion: true,
		After: func(c *cli.Context) error {
			if rt, ok := c.App.Metadata[runtimeKey].(*Runtime); ok {
				delete(c.App.Metadata, runtimeKey)
				return rt.Close()
			}
			return nil
		},
	}
}

// globalFlags returns the global CLI flags. Their values override the
// configuration file and SESSKEEP_* environment variables.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Configuration file (default ~/.sesskeep/config.yaml)",
		},
		&cli.StringFlag{
			Name:    "server",
			Aliases: []string{"s"},
			Usage:   "Auth server base URL (e.g., https://auth.example.com)",
		},
		&cli.StringFlag{
			Name:  "data-dir",
			Usage: "Directory holding the persisted session",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output format: table, json, yaml",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level: debug, info, warn, error",
		},
	}
}

// flagOverrides maps explicitly set global flags onto configuration keys.
func flagOverrides(c *cli.Context) map[string]any {
	keys := map[string]string{
		"server":    "gateway.base_url",
		"data-dir":  "storage.data_dir",
		"output":    "output",
		"log-level": "log.level",
	}

	overrides := make(map[string]any)
	for flag, key := range keys {
		if c.IsSet(flag) {
			overrides[key] = c.String(flag)
		}
	}
	return overrides
}

// GetRuntime returns the shared runtime, building it on first use.
func GetRuntime(c *cli.Context) (*Runtime, error) {
	app := c.App
	if app.Metadata == nil {
		app.Metadata = make(map[string]any)
	}
	if rt, ok := app.Metadata[runtimeKey].(*Runtime); ok {
		c.Context = logger.WithLogger(c.Context, rt.Logger)
		return rt, nil
	}

	rt, err := NewRuntime(c.Context, RuntimeOptions{
		ConfigPath: c.String("config"),
		Overrides:  flagOverrides(c),
		Stdout:     app.Writer,
		Stderr:     app.ErrWriter,
	})
	if err != nil {
		return nil, err
	}
	app.Metadata[runtimeKey] = rt
	c.Context = logger.WithLogger(c.Context, rt.Logger)
	return rt, nil
}
