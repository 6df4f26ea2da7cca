package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v3"

	"Strimoid/models"
)

// ExportRow is one exported message.
type ExportRow struct {
	ConversationID string    `json:"conversation_id"`
	MessageID      uint      `json:"message_id"`
	From           string    `json:"from"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
}

type ExportCmd struct {
	flags  *Flags
	user   string
	format string
	out    string
}

func NewExportCmd(flags *Flags) *ExportCmd {
	return &ExportCmd{flags: flags}
}

func (cmd *ExportCmd) Register(app *cli.Command) *cli.Command {
	app.Commands = append(app.Commands, &cli.Command{
		Name:      "export",
		Usage:     "Export every message of a user's conversations",
		UsageText: "msgctl export --user <name> [--format json|csv] [--out file]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Required: true, Destination: &cmd.user},
			&cli.StringFlag{Name: "format", Value: "json", Usage: "json or csv", Destination: &cmd.format},
			&cli.StringFlag{Name: "out", Usage: "output file (default stdout)", Destination: &cmd.out},
		},
		Action: cmd.run,
	})
	return app
}

func (cmd *ExportCmd) run(ctx context.Context, c *cli.Command) error {
	if cmd.format != "json" && cmd.format != "csv" {
		return fmt.Errorf("unknown format %q", cmd.format)
	}
	env := cmd.flags.Env
	user, err := env.Users.ResolveByName(ctx, cmd.user)
	if err != nil {
		return fmt.Errorf("user %q: %w", cmd.user, err)
	}

	var rows []ExportRow
	for page := 1; ; page++ {
		msgs, err := env.Messaging.AllMessages(ctx, user.ID, page)
		if err != nil {
			return err
		}
		rows = append(rows, exportRows(msgs)...)
		if len(msgs) < env.Messaging.PageSize() {
			break
		}
	}

	var w io.Writer = c.Root().Writer
	if cmd.out != "" {
		f, err := os.Create(cmd.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}

	if cmd.format == "csv" {
		return writeCSV(w, rows)
	}
	return writeJSON(w, rows)
}

func exportRows(msgs []models.ConversationMessage) []ExportRow {
	rows := make([]ExportRow, 0, len(msgs))
	for _, m := range msgs {
		rows = append(rows, ExportRow{
			ConversationID: m.ConversationID,
			MessageID:      m.ID,
			From:           m.User.Name,
			Text:           m.Text,
			CreatedAt:      m.CreatedAt,
		})
	}
	return rows
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCSV(w io.Writer, rows []ExportRow) error {
	cw := csv.NewWriter(w)
	// header
	_ = cw.Write([]string{"conversation_id", "message_id", "from", "text", "created_at"})
	for _, r := range rows {
		_ = cw.Write([]string{
			r.ConversationID,
			strconv.FormatUint(uint64(r.MessageID), 10),
			r.From,
			r.Text,
			r.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	cw.Flush()
	return cw.Error()
}
