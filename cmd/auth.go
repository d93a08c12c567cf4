package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/amverse/songbook/internal/shared"
)

// Login authenticates against the server. The playlist migration sweep runs
// before the command returns, so its report is printed with the greeting.
func (r *Runner) Login(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	password := cmd.String("password")
	if username == "" || password == "" {
		return fmt.Errorf("%w: username and password are required", shared.ErrMissingArgument)
	}

	session, err := r.session.Login(ctx, username, password)
	if err != nil {
		return err
	}

	r.writePlainln("✓ Logged in as %s (%s)", session.Username, session.Role)

	if report := r.lastMigration; report != nil {
		r.printMigrationReport(report)
	}

	return nil
}

// Logout invalidates the session server-side when reachable and always
// clears the local credential.
func (r *Runner) Logout(ctx context.Context, cmd *cli.Command) error {
	if err := r.session.Logout(ctx); err != nil {
		return err
	}

	return r.writePlainln("✓ Logged out")
}

// Register creates an account and logs in.
func (r *Runner) Register(ctx context.Context, cmd *cli.Command) error {
	username := cmd.String("username")
	email := cmd.String("email")
	password := cmd.String("password")
	if username == "" || email == "" || password == "" {
		return fmt.Errorf("%w: username, email and password are required", shared.ErrMissingArgument)
	}

	session, err := r.session.Register(ctx, username, email, password)
	if err != nil {
		return err
	}

	return r.writePlainln("✓ Registered and logged in as %s", session.Username)
}

// Whoami prints the active session's identity.
func (r *Runner) Whoami(ctx context.Context, cmd *cli.Command) error {
	if err := r.resume(ctx); err != nil {
		return err
	}

	if cmd.Bool("refresh") {
		if _, err := r.session.Profile(ctx); err != nil {
			return err
		}
	}

	current := r.session.Current()

	if cmd.Bool("json") {
		return r.writeJSON(current, true)
	}

	r.writePlainln("User: %s", current.Username)
	r.writePlainln("Role: %s", current.Role)
	if current.Profile != nil && current.Profile.Email != "" {
		r.writePlainln("Email: %s", current.Profile.Email)
	}

	return nil
}

// ForgotPassword requests a password reset email.
func (r *Runner) ForgotPassword(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	if email == "" {
		return fmt.Errorf("%w: email is required", shared.ErrMissingArgument)
	}

	if err := r.auth.ForgotPassword(ctx, email); err != nil {
		return err
	}

	return r.writePlainln("✓ Reset instructions sent to %s", email)
}

// ResetPassword completes a reset with an emailed token.
func (r *Runner) ResetPassword(ctx context.Context, cmd *cli.Command) error {
	token := cmd.String("token")
	password := cmd.String("password")
	if token == "" || password == "" {
		return fmt.Errorf("%w: token and password are required", shared.ErrMissingArgument)
	}

	if err := r.auth.ResetPassword(ctx, token, password); err != nil {
		return err
	}

	return r.writePlainln("✓ Password reset, you can log in now")
}

func loginCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "login",
		Usage: "Authenticate and sync local playlists to your account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Required: true},
		},
		Action: r.Login,
	}
}

func logoutCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "logout",
		Usage:  "Clear the stored session",
		Action: r.Logout,
	}
}

func registerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "register",
		Usage: "Create an account",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "username", Aliases: []string{"u"}, Usage: "Account username", Required: true},
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "Account password", Required: true},
		},
		Action: r.Register,
	}
}

func whoamiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "whoami",
		Usage: "Show the active session",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "json", Usage: "Output as JSON"},
			&cli.BoolFlag{Name: "refresh", Usage: "Fetch the profile from the server first"},
		},
		Action: r.Whoami,
	}
}

func forgotPasswordCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "forgot-password",
		Usage: "Request a password reset email",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "email", Aliases: []string{"e"}, Usage: "Account email", Required: true},
		},
		Action: r.ForgotPassword,
	}
}

func resetPasswordCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "reset-password",
		Usage: "Complete a password reset",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "token", Aliases: []string{"t"}, Usage: "Reset token from the email", Required: true},
			&cli.StringFlag{Name: "password", Aliases: []string{"p"}, Usage: "New password", Required: true},
		},
		Action: r.ResetPassword,
	}
}
