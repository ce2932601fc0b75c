package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/hpungsan/tally/internal/config"
	"github.com/hpungsan/tally/internal/errors"
	"github.com/hpungsan/tally/internal/mcp"
	"github.com/hpungsan/tally/internal/ops"
	"github.com/hpungsan/tally/internal/web"
)

// newCLIApp creates the CLI application with all commands.
func newCLIApp(store ops.Store, cfg *config.Config) *cli.App {
	app := &cli.App{
		Name:    "tally",
		Usage:   "Append-only activity log with session and ratio projections",
		Version: Version,
		Commands: []*cli.Command{
			appendCmd(store),
			eventsCmd(store),
			sessionsCmd(store),
			currentCmd(store),
			ratiosCmd(store),
			queryCmd(store),
			reportCmd(store),
			importSQLiteCmd(store),
			exportCmd(store, cfg),
			serveCmd(store, cfg),
			mcpCmd(store, cfg),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// appendCmd creates the append command.
func appendCmd(store ops.Store) *cli.Command {
	return &cli.Command{
		Name:      "append",
		Usage:     "Append an event line (from args, or one per stdin line)",
		ArgsUsage: "[VERB CATEGORY activity...]",
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				output, err := ops.Append(c.Context, store, ops.AppendInput{
					Event: strings.Join(c.Args().Slice(), " "),
				})
				if err != nil {
					return outputError(err)
				}
				return outputJSON(output)
			}

			if !stdinHasData() {
				return outputError(errors.NewInvalidRequest("event must be given as arguments or piped via stdin"))
			}

			lines, err := readStdinLines()
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			if len(lines) == 0 {
				return outputError(errors.NewInvalidRequest("event is required"))
			}

			outputs := make([]*ops.AppendOutput, 0, len(lines))
			for _, line := range lines {
				output, err := ops.Append(c.Context, store, ops.AppendInput{Event: line})
				if err != nil {
					return outputError(err)
				}
				outputs = append(outputs, output)
			}
			return outputJSON(outputs)
		},
	}
}

// eventsCmd creates the events command.
func eventsCmd(store ops.Store) *cli.Command {
	return &cli.Command{
		Name:  "events",
		Usage: "List every event line in log order",
		Action: func(c *cli.Context) error {
			output, err := ops.ListEvents(c.Context, store)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// sessionsCmd creates the sessions command.
func sessionsCmd(store ops.Store) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "Show the session timeline",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "category", Aliases: []string{"c"}, Usage: "Only sessions with this category"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Sessions(c.Context, store, ops.SessionsInput{Category: c.String("category")})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// currentCmd creates the current command.
func currentCmd(store ops.Store) *cli.Command {
	return &cli.Command{
		Name:  "current",
		Usage: "Show the active session",
		Action: func(c *cli.Context) error {
			output, err := ops.CurrentSession(c.Context, store)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"session": output})
		},
	}
}

// ratiosCmd creates the ratios command.
func ratiosCmd(store ops.Store) *cli.Command {
	return &cli.Command{
		Name:  "ratios",
		Usage: "Count events per category",
		Action: func(c *cli.Context) error {
			output, err := ops.Ratios(c.Context, store)
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// queryCmd creates the query command.
func queryCmd(store ops.Store) *cli.Command {
	return &cli.Command{
		Name:      "query",
		Usage:     "Free-text query (ratio, session/timeline, or recent events)",
		ArgsUsage: "<text>",
		Action: func(c *cli.Context) error {
			output, err := ops.Query(c.Context, store, ops.QueryInput{
				Query: strings.Join(c.Args().Slice(), " "),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// reportCmd creates the report command.
func reportCmd(store ops.Store) *cli.Command {
	return &cli.Command{
		Name:  "report",
		Usage: "Print a markdown report of sessions and ratios",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "html", Usage: "Render the report as HTML"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Report(c.Context, store)
			if err != nil {
				return outputError(err)
			}
			if c.Bool("html") {
				_, err = fmt.Fprint(os.Stdout, web.RenderMarkdown(output.Markdown))
				return err
			}
			_, err = fmt.Fprint(os.Stdout, output.Markdown)
			return err
		},
	}
}

// importSQLiteCmd creates the import-sqlite command.
func importSQLiteCmd(store ops.Store) *cli.Command {
	return &cli.Command{
		Name:  "import-sqlite",
		Usage: "Replay events from a legacy SQLite context database",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "db", Usage: "Path to the legacy database", Required: true},
			&cli.BoolFlag{Name: "dry-run", Usage: "Convert rows without appending"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.ImportSQLite(c.Context, store, ops.ImportSQLiteInput{
				Path:   c.String("db"),
				DryRun: c.Bool("dry-run"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(store ops.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export classified events to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Export file path (default: ~/.tally/exports/events-<timestamp>.jsonl)"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, store, ops.ExportInput{
				Path:        c.String("path"),
				ExportDir:   cfg.ExportDir,
				AllowedDirs: cfg.AllowedPaths,
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(store ops.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the HTTP event API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Usage: "Address to bind (default from config)"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Usage: "Port to listen on (default from config)"},
		},
		Action: func(c *cli.Context) error {
			serveCfg := *cfg
			if c.IsSet("bind") {
				serveCfg.Bind = c.String("bind")
			}
			if c.IsSet("port") {
				serveCfg.Port = c.Int("port")
			}
			if serveCfg.Port < 1 || serveCfg.Port > 65535 {
				return outputError(errors.NewInvalidRequest(fmt.Sprintf("invalid port: %d", serveCfg.Port)))
			}

			srv := web.NewServer(store, &serveCfg, Version)
			if err := web.Run(srv); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// mcpCmd creates the mcp command.
func mcpCmd(store ops.Store, cfg *config.Config) *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Run the MCP server on stdio",
		Action: func(c *cli.Context) error {
			if err := mcp.Run(store, cfg, Version); err != nil {
				return outputError(errors.NewInternal(err))
			}
			return nil
		},
	}
}

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if tErr := errors.As(err); tErr != nil {
		return cli.Exit(fmt.Sprintf("[%s] %s", tErr.Code, tErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdinLines reads stdin and returns its non-empty lines, trimmed.
func readStdinLines() ([]string, error) {
	return splitLines(os.Stdin)
}

func splitLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}
