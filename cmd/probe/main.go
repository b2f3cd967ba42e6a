// Command probe logs into the portal, waits, and logs out again.
// It never calls the attendance API and is used to verify credentials and selectors.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nikshitha/greythr-attendance/config"
	"github.com/nikshitha/greythr-attendance/logger"
	"github.com/nikshitha/greythr-attendance/runner"
)

var (
	configPath = flag.String("config", "config.yaml", "Path to configuration file")
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
)

func main() {
	flag.Parse()
	if flag.NArg() != 0 {
		fmt.Fprintln(os.Stderr, "usage: probe [-config path] [-verbose]")
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		fmt.Println("Note: No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	log, err := logger.New(logger.Config{
		Level:      cfg.Logging.Level,
		Format:     cfg.Logging.Format,
		OutputFile: cfg.Logging.OutputFile,
	})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err = runner.New(cfg, log, runner.RodLauncher(cfg.Browser, log), nil).Probe(ctx)
	stop()
	log.Close()
	if err != nil {
		os.Exit(1)
	}
}
