package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/sstent/garminclient/internal/config"
	"github.com/sstent/garminclient/internal/db"
	"github.com/sstent/garminclient/internal/garmin"
	"github.com/sstent/garminclient/internal/runner"
)

// app carries the process boundary so tests can swap it.
type app struct {
	stdout io.Writer
	stderr io.Writer
	login  runner.LoginFunc
}

func newRootCmd(a *app) *cobra.Command {
	v := viper.New()
	config.SetDefaults(v)

	rootCmd := &cobra.Command{
		Use:   "garmin-client",
		Short: "garmin-client fetches cycling activities and activity files from Garmin Connect",
		Long: `garmin-client is a one-shot command meant to be run as a subprocess:
1. Authenticates with Garmin Connect
2. Lists one day's cycling activities as JSON (get-activities)
3. Downloads a single activity as FIT, GPX or TCX (download-activity)

Results are written to stdout; failures print one line to stderr and exit 1.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.execute(cmd.Context(), v, "")
		},
	}

	flags := rootCmd.PersistentFlags()
	addFlags(flags)
	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Sprintf("failed to bind flags: %v", err))
	}

	rootCmd.AddCommand(newGetActivitiesCmd(a, v))
	rootCmd.AddCommand(newDownloadActivityCmd(a, v))

	return rootCmd
}

func addFlags(flags *pflag.FlagSet) {
	flags.String("username", "", "Garmin Connect username")
	flags.String("password", "", "Garmin Connect password")
	flags.String("command", "", "Command to execute: get-activities or download-activity")
	flags.String("date", "", "Date for get-activities (YYYY-MM-DD)")
	flags.Int64("activity-id", 0, "Activity ID for download-activity")
	flags.String("output", "", "Output file for download-activity (default: stdout)")
	flags.String("format", "FIT", "Download format for activity: FIT, GPX or TCX")
	flags.String("db", "", "Optional SQLite ledger of listed and downloaded activities")
	flags.Duration("rate-limit", time.Second, "Minimum interval between activity list pages")
	flags.Int("page-size", 100, "Activities requested per list page")
	flags.Bool("verify", false, "Check downloaded payloads decode as the requested format")
	flags.String("log-level", "warn", "Log level on stderr: debug, info, warn or error")
	flags.String("config", "", "Optional config file")
}

// execute loads the configuration and hands it to the runner. subcommand is
// the command implied by a subcommand invocation, or empty.
func (a *app) execute(ctx context.Context, v *viper.Viper, subcommand string) error {
	cfg, err := config.LoadConfig(v)
	if err != nil {
		return &runner.Error{Kind: runner.KindValidation, Cause: err}
	}

	if subcommand != "" {
		if cfg.Command != "" && cfg.Command != subcommand {
			return &runner.Error{
				Kind:  runner.KindValidation,
				Cause: fmt.Errorf("--command %q conflicts with subcommand %q", cfg.Command, subcommand),
			}
		}
		cfg.Command = subcommand
	}

	logger := newLogger(a.stderr, cfg.LogLevel).With("run_id", uuid.NewString(), "command", cfg.Command)

	r := &runner.Runner{
		Login:  a.login,
		Stdout: a.stdout,
		Logger: logger,
	}

	if cfg.DatabasePath != "" && cfg.Validate() == nil {
		database, err := db.NewDatabase(cfg.DatabasePath)
		if err != nil {
			logger.Warn("ledger disabled", "path", cfg.DatabasePath, "error", err)
		} else {
			defer database.Close()
			r.Ledger = database
		}
	}

	return r.Run(ctx, cfg)
}

func newLogger(w io.Writer, level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: lvl}))
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// run executes the CLI and returns the process exit code.
func run(ctx context.Context, a *app, args []string) int {
	rootCmd := newRootCmd(a)
	rootCmd.SetArgs(args)
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(a.stderr, lineBreaks.Replace(err.Error()))
		return 1
	}
	return 0
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, &app{stdout: os.Stdout, stderr: os.Stderr, login: garmin.Login}, os.Args[1:])
	stop()
	os.Exit(code)
}
