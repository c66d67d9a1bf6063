package command

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sesskeep-go/internal/core/domain"
)

// LoginCommand returns the login command.
func LoginCommand() *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Sign in and persist the session",
		Flags: append(credentialFlags(),
			&cli.BoolFlag{
				Name:  "remember-me",
				Usage: "Ask the server for a long-lived session",
			},
		),
		Action: runLogin,
	}
}

// SignupCommand returns the signup command.
func SignupCommand() *cli.Command {
	return &cli.Command{
		Name:  "signup",
		Usage: "Register a user together with a new organization",
		Flags: append(credentialFlags(),
			&cli.StringFlag{
				Name:  "confirm-password",
				Usage: "Password confirmation (defaults to the password)",
			},
			&cli.StringFlag{
				Name:     "org-name",
				Usage:    "Organization name",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "org-domain",
				Usage: "Organization domain",
			},
			&cli.StringFlag{
				Name:  "first-name",
				Usage: "First name",
			},
			&cli.StringFlag{
				Name:  "last-name",
				Usage: "Last name",
			},
		),
		Action: runSignup,
	}
}

// LogoutCommand returns the logout command.
func LogoutCommand() *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "End the session and clear persisted credentials",
		Action: runLogout,
	}
}

// RefreshCommand returns the refresh command.
func RefreshCommand() *cli.Command {
	return &cli.Command{
		Name:   "refresh",
		Usage:  "Exchange the refresh token for a new token pair",
		Action: runRefresh,
	}
}

func credentialFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:     "email",
			Aliases:  []string{"e"},
			Usage:    "Account email",
			Required: true,
		},
		&cli.StringFlag{
			Name:    "password",
			Aliases: []string{"p"},
			Usage:   "Account password (visible in the process list; prefer --password-stdin)",
		},
		&cli.BoolFlag{
			Name:  "password-stdin",
			Usage: "Read the password from stdin",
		},
	}
}

// readSecret returns the value of flag, or the first line of stdin when
// stdinFlag is set.
func readSecret(c *cli.Context, flag, stdinFlag string) (string, error) {
	if !c.Bool(stdinFlag) {
		return c.String(flag), nil
	}
	if c.IsSet(flag) {
		return "", usageError("--%s and --%s are mutually exclusive", flag, stdinFlag)
	}

	line, err := bufio.NewReader(c.App.Reader).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("read %s from stdin: %w", flag, err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func runLogin(c *cli.Context) error {
	password, err := readSecret(c, "password", "password-stdin")
	if err != nil {
		return err
	}

	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Progress("Signing in")()

	user, err := rt.Manager.Login(c.Context, domain.LoginRequest{
		Email:      c.String("email"),
		Password:   password,
		RememberMe: c.Bool("remember-me"),
	})
	if err != nil {
		return err
	}

	return rt.Print(newUserView(user, rt.Manager.Snapshot().Organization))
}

func runSignup(c *cli.Context) error {
	password, err := readSecret(c, "password", "password-stdin")
	if err != nil {
		return err
	}
	confirm := password
	if c.IsSet("confirm-password") {
		confirm = c.String("confirm-password")
	}

	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}
	defer rt.Progress("Creating account")()

	user, err := rt.Manager.Signup(c.Context, domain.SignupRequest{
		Email:              c.String("email"),
		Password:           password,
		ConfirmPassword:    confirm,
		OrganizationName:   c.String("org-name"),
		OrganizationDomain: c.String("org-domain"),
		FirstName:          c.String("first-name"),
		LastName:           c.String("last-name"),
	})
	if err != nil {
		return err
	}

	return rt.Print(newUserView(user, rt.Manager.Snapshot().Organization))
}

func runLogout(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	wasAuthenticated := rt.Manager.Snapshot().IsAuthenticated
	rt.Manager.Logout(c.Context)

	if !wasAuthenticated {
		return rt.Message("Not logged in")
	}
	return rt.Message("Logged out")
}

func runRefresh(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	tokens, err := rt.Manager.RefreshToken(c.Context)
	if err != nil {
		return err
	}

	return rt.Print(newTokenView(tokens))
}
