// Command msgctl administers the messaging database directly: it creates
// users, manages blocks, sends messages and exports a user's messages.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v3"
)

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func setupLogger(level string) error {
	parsedLevel, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("failed to parse log level: %w", err)
	}
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr}).Level(parsedLevel)
	return nil
}

func newApp() *cli.Command {
	flags := &Flags{}
	app := &cli.Command{
		Name:      "msgctl",
		Usage:     "Administer users and private messages",
		UsageText: "msgctl [global options] command [command options]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:        "log-level",
				Usage:       "log level (debug, info, warn, error)",
				Sources:     cli.EnvVars("LOG_LEVEL"),
				Value:       "info",
				Destination: &flags.LogLevel,
			},
			&cli.StringFlag{
				Name:        "db-driver",
				Usage:       "database driver (sqlite, mysql); defaults to DB_DRIVER",
				Destination: &flags.DBDriver,
			},
			&cli.StringFlag{
				Name:        "db-dsn",
				Usage:       "database DSN; defaults to DB_DSN",
				Destination: &flags.DBDSN,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := setupLogger(flags.LogLevel); err != nil {
				return ctx, err
			}
			return ctx, flags.open()
		},
		After: func(ctx context.Context, c *cli.Command) error {
			return flags.close()
		},
	}

	app = NewUserCmd(flags).Register(app)
	app = NewSendCmd(flags).Register(app)
	app = NewExportCmd(flags).Register(app)
	return app
}
