package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/hpungsan/handoff/internal/clock"
	"github.com/hpungsan/handoff/internal/config"
	"github.com/hpungsan/handoff/internal/deeplink"
	"github.com/hpungsan/handoff/internal/errors"
	"github.com/hpungsan/handoff/internal/host"
	"github.com/hpungsan/handoff/internal/opener"
	"github.com/hpungsan/handoff/internal/ops"
	"github.com/hpungsan/handoff/internal/platform"
	"github.com/hpungsan/handoff/internal/share"
	"github.com/hpungsan/handoff/internal/social"
	"github.com/hpungsan/handoff/internal/web"
)

// maxStdinBytes caps text piped to share and copy.
const maxStdinBytes = 1 << 20

// newCLIApp creates the CLI application with all commands.
func newCLIApp(db *sql.DB, cfg *config.Config, h host.Host, logger *zap.Logger) *cli.App {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	app := &cli.App{
		Name:    "handoff",
		Usage:   "Share and deep-link handoff",
		Version: Version,
		Commands: []*cli.Command{
			deeplinkCmd(),
			platformCmd(),
			osCmd(h),
			socialCmd(),
			openCmd(cfg, h, logger),
			shareCmd(db, cfg, h, logger),
			copyCmd(cfg, h, logger),
			historyCmd(db),
			serveCmd(db, cfg, logger),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	app.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return app
}

// deeplinkCmd creates the deeplink command.
func deeplinkCmd() *cli.Command {
	return &cli.Command{
		Name:      "deeplink",
		Usage:     "Resolve a web URL to its native app URIs",
		ArgsUsage: "<url>",
		Action: func(c *cli.Context) error {
			url, err := requireArg(c, "url")
			if err != nil {
				return outputError(err)
			}
			return outputJSON(deeplink.Generate(url))
		},
	}
}

// platformCmd creates the platform command.
func platformCmd() *cli.Command {
	return &cli.Command{
		Name:      "platform",
		Usage:     "Print the platform tag of a URL",
		ArgsUsage: "<url>",
		Action: func(c *cli.Context) error {
			url, err := requireArg(c, "url")
			if err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{
				"url":      url,
				"platform": platform.DetectPlatform(url),
			})
		},
	}
}

// osCmd creates the os command.
func osCmd(h host.Host) *cli.Command {
	return &cli.Command{
		Name:  "os",
		Usage: "Classify a user agent (default: the configured user_agent)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user-agent", Aliases: []string{"u"}, Usage: "User agent to classify"},
		},
		Action: func(c *cli.Context) error {
			ua := host.UserAgent(h)
			if c.IsSet("user-agent") {
				ua = c.String("user-agent")
			}
			return outputJSON(map[string]any{
				"os":         platform.DetectOS(ua),
				"user_agent": ua,
			})
		},
	}
}

// socialCmd creates the social command.
func socialCmd() *cli.Command {
	return &cli.Command{
		Name:      "social",
		Usage:     "Build a social share URL (no platform lists the catalog)",
		ArgsUsage: "[platform]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "Link to share"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title"},
			&cli.StringFlag{Name: "text", Usage: "Message text"},
			&cli.StringFlag{Name: "via", Usage: "Twitter handle to attribute"},
			&cli.StringFlag{Name: "hashtags", Usage: "Comma-separated hashtags"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return outputJSON(map[string]any{"platforms": social.Catalog()})
			}

			p := social.Platform(strings.ToLower(c.Args().First()))
			if !p.Valid() {
				return outputError(errors.NewInvalidRequest("unknown platform: " + c.Args().First()))
			}

			href := social.BuildURL(p, social.Params{
				URL:      c.String("url"),
				Title:    c.String("title"),
				Text:     c.String("text"),
				Via:      c.String("via"),
				Hashtags: parseList(c.String("hashtags")),
			})
			return outputJSON(map[string]any{
				"platform": p,
				"url":      href,
				"fields":   social.Fields(p),
			})
		},
	}
}

// openCmd creates the open command.
func openCmd(cfg *config.Config, h host.Host, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:      "open",
		Usage:     "Open a link: the native app first on mobile hosts, then the web",
		ArgsUsage: "<url>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-fallback", Usage: "Do not open the web URL after the native attempt"},
			&cli.IntFlag{Name: "delay", Usage: "Milliseconds before the web fallback (default: config)"},
			&cli.BoolFlag{Name: "same-tab", Usage: "Open the web URL in the current window"},
			&cli.BoolFlag{Name: "dry-run", Usage: "Print the plan without navigating"},
		},
		Action: func(c *cli.Context) error {
			url, err := requireArg(c, "url")
			if err != nil {
				return outputError(err)
			}

			opts := ops.OpenOptions(cfg)
			if c.Bool("no-fallback") {
				opts.FallbackToWeb = config.Bool(false)
			}
			if c.IsSet("delay") {
				if c.Int("delay") < 0 {
					return outputError(errors.NewInvalidRequest("delay must be >= 0"))
				}
				opts.FallbackDelay = opener.Delay(time.Duration(c.Int("delay")) * time.Millisecond)
			}
			if c.Bool("same-tab") {
				opts.OpenInNewTab = config.Bool(false)
			}

			if c.Bool("dry-run") {
				return outputJSON(opener.PlanFor(url, platform.DetectHostOS(h), opts))
			}

			// Stay alive until the web fallback has fired.
			clk := clock.NewWaiter(clock.Real())
			plan := opener.New(h, clk, logger).Open(url, opts)
			clk.Wait()
			return outputJSON(plan)
		},
	}
}

// shareCmd creates the share command.
func shareCmd(db *sql.DB, cfg *config.Config, h host.Host, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "share",
		Usage: "Share through the best available channel (text may be piped via stdin)",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Usage: "URL to share"},
			&cli.StringFlag{Name: "title", Aliases: []string{"t"}, Usage: "Title"},
			&cli.StringFlag{Name: "text", Usage: "Text to share"},
		},
		Action: func(c *cli.Context) error {
			payload := share.Record{
				URL:   c.String("url"),
				Title: c.String("title"),
				Text:  c.String("text"),
			}
			if payload.Text == "" && stdinHasData() {
				text, err := readStdin(maxStdinBytes)
				if err != nil {
					return outputError(err)
				}
				payload.Text = text
			}
			if payload.Normalize().IsEmpty() {
				return outputError(errors.NewInvalidRequest("one of --url, --title, --text, or stdin is required"))
			}

			var message string
			d, err := ops.NewDispatcher(h, cfg, share.Options{
				Logger: logger,
				Toast: share.Toast{
					Success: func(msg string) { message = msg },
				},
			})
			if err != nil {
				return outputError(err)
			}
			defer d.Reset()

			recorder := &ops.Recorder{Logger: logger}
			if config.BoolValue(cfg.HistoryEnabled, true) {
				recorder.DB = db
			}

			res, event := recorder.Share(c.Context, d, payload, share.ShareOptions{})
			if !res.OK {
				return outputError(res.Err)
			}

			out := map[string]any{
				"ok":      true,
				"method":  res.Method,
				"message": message,
			}
			if event != nil {
				out["event_id"] = event.ID
			}
			return outputJSON(out)
		},
	}
}

// copyCmd creates the copy command.
func copyCmd(cfg *config.Config, h host.Host, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:      "copy",
		Usage:     "Copy text to the clipboard (argument or stdin)",
		ArgsUsage: "[text]",
		Action: func(c *cli.Context) error {
			text := strings.Join(c.Args().Slice(), " ")
			if text == "" {
				if !stdinHasData() {
					return outputError(errors.NewInvalidRequest("text must be given or piped via stdin"))
				}
				var err error
				if text, err = readStdin(maxStdinBytes); err != nil {
					return outputError(err)
				}
			}

			d, err := ops.NewDispatcher(h, cfg, share.Options{Logger: logger})
			if err != nil {
				return outputError(err)
			}
			defer d.Reset()

			if err := d.CopyToClipboard(c.Context, text); err != nil {
				return outputError(err)
			}
			return outputJSON(map[string]any{"copied": true, "chars": len([]rune(text))})
		},
	}
}

// historyCmd creates the history command group.
func historyCmd(db *sql.DB) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Inspect recorded share events",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List share events, newest first",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "platform", Aliases: []string{"p"}, Usage: "Filter by platform tag"},
					&cli.StringFlag{Name: "ok", Usage: "Filter by outcome: true|false"},
					&cli.IntFlag{Name: "limit", Aliases: []string{"l"}, Value: ops.DefaultListLimit, Usage: "Max items to return"},
					&cli.IntFlag{Name: "offset", Aliases: []string{"o"}, Value: 0, Usage: "Pagination offset"},
				},
				Action: func(c *cli.Context) error {
					input := ops.ListInput{
						Platform: c.String("platform"),
						Limit:    c.Int("limit"),
						Offset:   c.Int("offset"),
					}
					if s := c.String("ok"); s != "" {
						ok, err := strconv.ParseBool(s)
						if err != nil {
							return outputError(errors.NewInvalidRequest("ok must be true or false"))
						}
						input.OK = &ok
					}

					output, err := ops.List(c.Context, db, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:      "fetch",
				Usage:     "Fetch one share event by ID",
				ArgsUsage: "<id>",
				Action: func(c *cli.Context) error {
					id, err := requireArg(c, "id")
					if err != nil {
						return outputError(err)
					}
					output, err := ops.Fetch(c.Context, db, id)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
			{
				Name:  "purge",
				Usage: "Permanently delete share events",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "older-than", Usage: "Only purge events recorded more than N days ago (e.g., 7d)"},
				},
				Action: func(c *cli.Context) error {
					input := ops.PurgeInput{}
					if olderThan := c.String("older-than"); olderThan != "" {
						days, err := parseDuration(olderThan)
						if err != nil {
							return outputError(errors.NewInvalidRequest(err.Error()))
						}
						input.OlderThanDays = &days
					}

					output, err := ops.Purge(c.Context, db, input)
					if err != nil {
						return outputError(err)
					}
					return outputJSON(output)
				},
			},
		},
	}
}

// serveCmd creates the serve command.
func serveCmd(db *sql.DB, cfg *config.Config, logger *zap.Logger) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the local link inspector and /open redirector",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "bind", Value: "127.0.0.1", Usage: "Address to bind"},
			&cli.IntFlag{Name: "port", Value: 8787, Usage: "Port to listen on"},
		},
		Action: func(c *cli.Context) error {
			srv, err := web.NewServer(db, cfg, logger, Version, c.String("bind"), c.Int("port"))
			if err != nil {
				return outputError(errors.NewInternal(err))
			}
			return web.Run(srv, logger)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if hErr := errors.As(err); hErr != nil {
		return cli.Exit(fmt.Sprintf("[%s] %s", hErr.Code, hErr.Message), 1)
	}
	return cli.Exit("unknown error", 1)
}

// requireArg returns the first positional argument or an INVALID_REQUEST error.
func requireArg(c *cli.Context, name string) (string, error) {
	v := strings.TrimSpace(c.Args().First())
	if v == "" {
		return "", errors.NewInvalidRequest(name + " is required")
	}
	return v, nil
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdin reads up to limit bytes from stdin.
func readStdin(limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(os.Stdin, limit+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("stdin exceeds %d bytes", limit))
	}
	return strings.TrimSpace(string(data)), nil
}

// parseList splits a comma-separated string, dropping empty items.
func parseList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	items := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			items = append(items, t)
		}
	}
	return items
}

// parseDuration parses "7d" format to days.
func parseDuration(s string) (int, error) {
	if numStr, ok := strings.CutSuffix(s, "d"); ok {
		days, err := strconv.Atoi(numStr)
		if err != nil {
			return 0, fmt.Errorf("invalid duration: %s", s)
		}
		if days < 0 {
			return 0, fmt.Errorf("duration must be non-negative")
		}
		return days, nil
	}
	return 0, fmt.Errorf("duration must end with 'd' (days), e.g., 7d")
}
