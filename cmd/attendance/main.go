// Command attendance marks sign-in or sign-out on the greytHR portal.
// It is meant to be invoked twice a day by cron; see -crontab.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nikshitha/greythr-attendance/attendance"
	"github.com/nikshitha/greythr-attendance/config"
	"github.com/nikshitha/greythr-attendance/logger"
	"github.com/nikshitha/greythr-attendance/runner"
	"github.com/nikshitha/greythr-attendance/schedule"
)

type options struct {
	configPath string
	verbose    bool
	crontab    bool
	action     attendance.Action
}

func main() {
	os.Exit(realMain(os.Args, os.Stdout, os.Stderr))
}

func usage(w io.Writer, fs *flag.FlagSet) {
	fmt.Fprintln(w, "usage: attendance [flags] Signin|Signout")
	fmt.Fprintln(w, "       attendance -crontab")
	fmt.Fprintln(w)
	fs.SetOutput(w)
	fs.PrintDefaults()
}

// parseArgs rejects anything but exactly one valid action, unless -crontab is set.
func parseArgs(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("attendance", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.configPath, "config", "config.yaml", "Path to configuration file")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.crontab, "crontab", false, "Print crontab lines for the configured schedule and exit")

	if err := fs.Parse(args[1:]); err != nil {
		usage(stderr, fs)
		return opts, err
	}

	if opts.crontab {
		if fs.NArg() != 0 {
			usage(stderr, fs)
			return opts, errors.New("-crontab takes no action argument")
		}
		return opts, nil
	}

	if fs.NArg() != 1 {
		usage(stderr, fs)
		return opts, errors.New("exactly one action is required (Signin or Signout)")
	}
	action, err := attendance.ParseAction(fs.Arg(0))
	if err != nil {
		usage(stderr, fs)
		return opts, err
	}
	opts.action = action
	return opts, nil
}

func realMain(args []string, stdout, stderr io.Writer) int {
	opts, err := parseArgs(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "error: %v\n", err)
		return 2
	}

	if err := godotenv.Load(); err != nil {
		fmt.Fprintln(stderr, "Note: No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load configuration: %v\n", err)
		return 1
	}
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}

	if opts.crontab {
		if err := schedule.Write(stdout, cfg.Schedule, time.Now()); err != nil {
			fmt.Fprintf(stderr, "error: %v\n", err)
			return 1
		}
		return 0
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputFile: cfg.Logging.OutputFile,
		Console:    stdout,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to initialize logger: %v\n", err)
		return 1
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := attendance.NewClient(cfg.Portal.BaseURL, cfg.Portal.AttendancePath, cfg.HTTPTimeout(), log)
	r := runner.New(cfg, log, runner.RodLauncher(cfg.Browser, log), client)
	if err := r.MarkAttendance(ctx, opts.action); err != nil {
		return 1
	}
	return 0
}
