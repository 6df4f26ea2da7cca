package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"Strimoid/models"
	utils "Strimoid/pkg/utills"
)

type UserCmd struct {
	flags *Flags

	name     string
	email    string
	password string
	admin    bool

	source string
	target string

	unban bool
}

func NewUserCmd(flags *Flags) *UserCmd {
	return &UserCmd{flags: flags}
}

// Register adds the user commands to the application.
func (cmd *UserCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands,
		&cli.Command{
			Name:  "create-user",
			Usage: "Create an activated account",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: "name", Required: true, Destination: &cmd.name},
				&cli.StringFlag{Name: "email", Required: true, Destination: &cmd.email},
				&cli.StringFlag{Name: "password", Required: true, Destination: &cmd.password},
				&cli.BoolFlag{Name: "admin", Usage: "grant the admin type", Destination: &cmd.admin},
			},
			Action: cmd.runCreate,
		},
		&cli.Command{
			Name:      "block",
			Usage:     "Make --source block --target",
			UsageText: "msgctl block --source <name> --target <name>",
			Flags:     cmd.pairFlags(),
			Action:    cmd.runBlock,
		},
		&cli.Command{
			Name:   "unblock",
			Usage:  "Remove a block",
			Flags:  cmd.pairFlags(),
			Action: cmd.runUnblock,
		},
		&cli.Command{
			Name:      "ban",
			Usage:     "Stop an account from logging in",
			UsageText: "msgctl ban [--unban] <name>",
			Flags:     []cli.Flag{
				&cli.BoolFlag{Name: "unban", Usage: "lift an existing ban", Destination: &cmd.unban},
			},
			Action: cmd.runBan,
		},
	)
	return app
}

func (cmd *UserCmd) pairFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "source", Required: true, Destination: &cmd.source},
		&cli.StringFlag{Name: "target", Required: true, Destination: &cmd.target},
	}
}

func (cmd *UserCmd) runCreate(ctx context.Context, c *cli.Command) error {
	if !utils.ValidUsername(cmd.name) {
		return fmt.Errorf("invalid username %q", cmd.name)
	}
	if !utils.ValidPassword(cmd.password) {
		return fmt.Errorf("password must be at least 6 characters")
	}
	email := strings.ToLower(strings.TrimSpace(cmd.email))
	if !utils.ValidEmail(email) {
		return fmt.Errorf("invalid email %q", cmd.email)
	}

	u := models.User{
		Name:        cmd.name,
		ShadowName:  models.ShadowNameOf(cmd.name),
		Email:       email,
		Type:        models.UserTypeUser,
		IsActivated: true,
		Settings:    models.DefaultUserSettings(),
	}
	if cmd.admin {
		u.Type = models.UserTypeAdmin
	}
	if err := u.SetPassword(cmd.password); err != nil {
		return err
	}
	if err := cmd.flags.Env.DB.WithContext(ctx).Create(&u).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}
	fmt.Fprintf(c.Root().Writer, "created user %s (id %d)\n", u.Name, u.ID)
	return nil
}

func (cmd *UserCmd) resolvePair(ctx context.Context) (uint, uint, error) {
	users := cmd.flags.Env.Users
	src, err := users.ResolveByName(ctx, cmd.source)
	if err != nil {
		return 0, 0, fmt.Errorf("source %q: %w", cmd.source, err)
	}
	dst, err := users.ResolveByName(ctx, cmd.target)
	if err != nil {
		return 0, 0, fmt.Errorf("target %q: %w", cmd.target, err)
	}
	return src.ID, dst.ID, nil
}

func (cmd *UserCmd) runBlock(ctx context.Context, c *cli.Command) error {
	src, dst, err := cmd.resolvePair(ctx)
	if err != nil {
		return err
	}
	if err := cmd.flags.Env.Users.Block(ctx, src, dst); err != nil {
		return err
	}
	fmt.Fprintf(c.Root().Writer, "%s now blocks %s\n", cmd.source, cmd.target)
	return nil
}

func (cmd *UserCmd) runUnblock(ctx context.Context, c *cli.Command) error {
	src, dst, err := cmd.resolvePair(ctx)
	if err != nil {
		return err
	}
	if err := cmd.flags.Env.Users.Unblock(ctx, src, dst); err != nil {
		return err
	}
	fmt.Fprintf(c.Root().Writer, "%s no longer blocks %s\n", cmd.source, cmd.target)
	return nil
}

func (cmd *UserCmd) runBan(ctx context.Context, c *cli.Command) error {
	name := c.Args().First()
	if name == "" {
		return fmt.Errorf("a user name is required")
	}
	users := cmd.flags.Env.Users
	u, err := users.ResolveByName(ctx, name)
	if err != nil {
		return fmt.Errorf("user %q: %w", name, err)
	}
	if err := users.SetBanned(ctx, u.ID, !cmd.unban); err != nil {
		return err
	}
	if cmd.unban {
		fmt.Fprintf(c.Root().Writer, "%s is no longer banned\n", u.Name)
	} else {
		fmt.Fprintf(c.Root().Writer, "%s is banned\n", u.Name)
	}
	return nil
}
