package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"yadro.com/xkcd/adapters/cache"
	"yadro.com/xkcd/adapters/xkcd"
	"yadro.com/xkcd/config"
	"yadro.com/xkcd/core"
)

type app struct {
	configPath string
	asJSON     bool

	cfg config.Config
	log *slog.Logger
	svc core.Fetcher
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd(&app{}).ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "xkcd [text...]",
		Short:         "Fetch xkcd comic metadata",
		Long:          "Without arguments prints a random comic, with arguments searches comics for the text.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return a.search(cmd, args)
			}
			return a.print(cmd, a.svc.Random)
		},
	}
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		return a.init()
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "configuration file")
	root.PersistentFlags().BoolVar(&a.asJSON, "json", false, "print raw comic fields as JSON")

	root.AddCommand(
		&cobra.Command{
			Use:   "get NUMBER",
			Short: "Print the comic with the given number",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := strconv.Atoi(args[0])
				if err != nil {
					return fmt.Errorf("%w: %q is not a comic number", core.ErrBadArguments, args[0])
				}
				return a.print(cmd, func(ctx context.Context) (core.Comic, error) {
					return a.svc.Comic(ctx, id)
				})
			},
		},
		&cobra.Command{
			Use:   "latest",
			Short: "Print the most recent comic",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.print(cmd, a.svc.Latest)
			},
		},
		&cobra.Command{
			Use:   "random",
			Short: "Print a randomly chosen comic",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return a.print(cmd, a.svc.Random)
			},
		},
		&cobra.Command{
			Use:   "numbers",
			Short: "Print every known comic number",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				nums, err := a.svc.Numbers(cmd.Context())
				if err != nil {
					return a.fail(err)
				}
				out := cmd.OutOrStdout()
				for _, id := range nums.Sorted() {
					fmt.Fprintln(out, id)
				}
				return nil
			},
		},
		&cobra.Command{
			Use:   "search TEXT...",
			Short: "Print the newest comic mentioning the text",
			Args:  cobra.MinimumNArgs(1),
			RunE:  a.search,
		},
		newCacheCmd(a),
	)
	return root
}

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the HTTP response cache",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "path",
			Short: "Print the cache directory",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				dir, err := a.cacheDir()
				if err != nil {
					return a.fail(err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
				return nil
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Remove all cached responses",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				dir, err := a.cacheDir()
				if err != nil {
					return a.fail(err)
				}
				n, err := cache.Clear(dir)
				if err != nil {
					return a.fail(err)
				}
				a.log.Info("cache cleared", "dir", dir, "entries", n)
				fmt.Fprintf(cmd.OutOrStdout(), "cleared %d cached entries\n", n)
				return nil
			},
		},
	)
	return cmd
}

func (a *app) init() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot read config %s: %s\n", a.configPath, err)
		return err
	}
	a.cfg = cfg
	a.log = mustMakeLogger(cfg.LogLevel)
	a.log.Debug("debug messages are enabled")

	svc, err := buildService(cfg, a.log)
	if err != nil {
		return a.fail(err)
	}
	a.svc = svc
	return nil
}

func buildService(cfg config.Config, log *slog.Logger) (*core.Service, error) {
	transport, err := cache.NewTransport(log, cfg.CacheDir, cfg.CacheTTL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create http cache: %w", err)
	}
	client, err := xkcd.NewClient(cfg.BaseURL, cfg.Timeout, transport, log)
	if err != nil {
		return nil, fmt.Errorf("failed to create xkcd client: %w", err)
	}
	svc, err := core.NewService(log, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create xkcd service: %w", err)
	}
	return svc, nil
}

func (a *app) cacheDir() (string, error) {
	if a.cfg.CacheDir != "" {
		return a.cfg.CacheDir, nil
	}
	return cache.DefaultDir()
}

func (a *app) search(cmd *cobra.Command, args []string) error {
	text := strings.Join(args, " ")
	c, ok, err := a.svc.Search(cmd.Context(), text)
	if err != nil {
		return a.fail(err)
	}
	if !ok {
		a.log.Info("no comic matched", "text", text)
		return a.fail(fmt.Errorf("%w: nothing matches %q", core.ErrNotFound, text))
	}
	return a.write(cmd.OutOrStdout(), c)
}

func (a *app) print(cmd *cobra.Command, fetch func(context.Context) (core.Comic, error)) error {
	c, err := fetch(cmd.Context())
	if err != nil {
		return a.fail(err)
	}
	return a.write(cmd.OutOrStdout(), c)
}

func (a *app) write(w io.Writer, c core.Comic) error {
	if a.asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	}
	_, err := fmt.Fprintln(w, c)
	return err
}

func (a *app) fail(err error) error {
	a.log.Error("command failed", "error", err)
	return err
}

func mustMakeLogger(levelStr string) *slog.Logger {
	var level slog.Level
	switch levelStr {
	case "DEBUG":
		level = slog.LevelDebug
	case "INFO":
		level = slog.LevelInfo
	case "ERROR":
		level = slog.LevelError
	default:
		panic("unknown log level: " + levelStr)
	}
	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(handler)
}
