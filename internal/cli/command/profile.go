package command

import (
	"github.com/urfave/cli/v2"
)

// WhoamiCommand returns the whoami command.
func WhoamiCommand() *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the signed-in user",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "local",
				Usage: "Print the cached profile without contacting the server",
			},
		},
		Action: runWhoami,
	}
}

// StatusCommand returns the status command.
func StatusCommand() *cli.Command {
	return &cli.Command{
		Name:   "status",
		Usage:  "Show the persisted session without contacting the server",
		Action: runStatus,
	}
}

func runWhoami(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	snapshot := rt.Manager.Snapshot()
	if !snapshot.IsAuthenticated {
		return ErrNotLoggedIn
	}

	if c.Bool("local") {
		return rt.Print(newUserView(snapshot.User, snapshot.Organization))
	}

	user, err := rt.Manager.GetCurrentUser(c.Context)
	if err != nil {
		return err
	}
	return rt.Print(newUserView(user, nil))
}

func runStatus(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	return rt.Print(newStatusView(rt.Manager.Snapshot(), rt.Gateway.BaseURL()))
}
