package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"
)

type SendCmd struct {
	flags *Flags
	from  string
	to    string
}

func NewSendCmd(flags *Flags) *SendCmd {
	return &SendCmd{flags: flags}
}

func (cmd *SendCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "send",
		Usage:     "Send a private message as --from to --to",
		UsageText: "msgctl send --from <name> --to <name> <text...>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "from", Required: true, Destination: &cmd.from},
			&cli.StringFlag{Name: "to", Required: true, Destination: &cmd.to},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *SendCmd) run(ctx context.Context, c *cli.Command) error {
	env := cmd.flags.Env
	sender, err := env.Users.ResolveByName(ctx, cmd.from)
	if err != nil {
		return fmt.Errorf("sender %q: %w", cmd.from, err)
	}

	text := strings.Join(c.Args().Slice(), " ")
	msg, conv, err := env.Messaging.StartOrContinueConversation(ctx, sender.ID, cmd.to, text)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.Root().Writer, "sent message %d in conversation %s\n", msg.ID, conv.ID)
	return nil
}
