package command

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/sesskeep-go/internal/core/domain"
)

// PasswordCommand returns the password command group.
func PasswordCommand() *cli.Command {
	return &cli.Command{
		Name:  "password",
		Usage: "Password reset",
		Subcommands: []*cli.Command{
			{
				Name:  "request",
				Usage: "Send a password reset email",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "email",
						Aliases:  []string{"e"},
						Usage:    "Account email",
						Required: true,
					},
				},
				Action: runPasswordRequest,
			},
			{
				Name:  "reset",
				Usage: "Set a new password using a reset token",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "token",
						Aliases:  []string{"t"},
						Usage:    "Reset token from the email",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "password",
						Aliases: []string{"p"},
						Usage:   "New password",
					},
					&cli.BoolFlag{
						Name:  "password-stdin",
						Usage: "Read the new password from stdin",
					},
					&cli.StringFlag{
						Name:  "confirm-password",
						Usage: "Password confirmation (defaults to the password)",
					},
				},
				Action: runPasswordReset,
			},
		},
	}
}

// InviteCommand returns the invite command.
func InviteCommand() *cli.Command {
	return &cli.Command{
		Name:  "invite",
		Usage: "Invite a user into your organization",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "email",
				Aliases:  []string{"e"},
				Usage:    "Invitee email",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "role",
				Aliases: []string{"r"},
				Usage:   "Role: ADMIN or USER",
				Value:   string(domain.RoleUser),
			},
			&cli.StringFlag{
				Name:  "first-name",
				Usage: "First name",
			},
			&cli.StringFlag{
				Name:  "last-name",
				Usage: "Last name",
			},
		},
		Action: runInvite,
	}
}

func runPasswordRequest(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	err = rt.Manager.RequestPasswordReset(c.Context, domain.PasswordResetRequest{
		Email: c.String("email"),
	})
	if err != nil {
		return err
	}
	return rt.Message("Password reset email sent")
}

func runPasswordReset(c *cli.Context) error {
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

	err = rt.Manager.ResetPassword(c.Context, domain.NewPasswordRequest{
		Token:           c.String("token"),
		NewPassword:     password,
		ConfirmPassword: confirm,
	})
	if err != nil {
		return err
	}
	return rt.Message("Password updated")
}

func runInvite(c *cli.Context) error {
	rt, err := GetRuntime(c)
	if err != nil {
		return err
	}

	err = rt.Manager.InviteUser(c.Context, domain.InviteUserRequest{
		Email:     c.String("email"),
		Role:      domain.Role(strings.ToUpper(c.String("role"))),
		FirstName: c.String("first-name"),
		LastName:  c.String("last-name"),
	})
	if err != nil {
		return err
	}
	return rt.Message("Invitation sent to " + c.String("email"))
}
