// Command inspect opens the login page and prints its form controls together
// with the result of resolving each configured selector. Use it to fill in
// the selectors section of config.yaml for a new deployment.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/nikshitha/greythr-attendance/auth"
	"github.com/nikshitha/greythr-attendance/browser"
	"github.com/nikshitha/greythr-attendance/config"
	"github.com/nikshitha/greythr-attendance/diagnostics"
	"github.com/nikshitha/greythr-attendance/logger"
)

var (
	configPath  = flag.String("config", "config.yaml", "Path to configuration file")
	pageFlag    = flag.String("url", "", "Page to inspect (defaults to the configured login URL)")
	visible     = flag.Bool("visible", false, "Show the browser window")
	hold        = flag.Duration("hold", 0, "Keep the browser open this long after printing")
	writeConfig = flag.String("write-config", "", "Write the effective configuration (without credentials) to this path")
)

func main() {
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		fmt.Println("Note: No .env file found, using environment variables")
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *visible {
		cfg.Browser.Headless = false
	}

	if *writeConfig != "" {
		if err := cfg.SaveConfig(*writeConfig); err != nil {
			fmt.Printf("Failed to write configuration: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Configuration written to %s\n", *writeConfig)
	}

	target := *pageFlag
	if target == "" {
		target = cfg.LoginURL()
	}

	log, err := logger.New(logger.Config{Level: cfg.Logging.Level, Format: cfg.Logging.Format})
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := inspect(ctx, cfg, target, log)
	stop()
	os.Exit(code)
}

func inspect(ctx context.Context, cfg *config.Config, target string, log *logger.Logger) int {
	b, err := browser.Launch(ctx, cfg.Browser, log)
	if err != nil {
		log.WithError(err).Error("Failed to launch browser")
		return 1
	}
	defer b.Close()

	if err := b.Navigate(ctx, target); err != nil {
		log.WithError(err).Error("Failed to open page")
		return 1
	}
	auth.Sleep(ctx, cfg.LoadSettle()+time.Second)

	pageURL, _ := b.URL(ctx)
	title, _ := b.Title(ctx)
	fmt.Println("\nCurrent URL:", pageURL)
	fmt.Println("Page Title:", title)
	fmt.Println()

	controls, err := diagnostics.Inventory(ctx, b)
	if err != nil {
		log.WithError(err).Error("Failed to list page controls")
		return 1
	}
	diagnostics.PrintInventory(os.Stdout, controls, diagnostics.CheckSelectors(ctx, b, cfg.Selectors))

	if *hold > 0 {
		fmt.Printf("\nKeeping browser open for %s...\n", *hold)
		auth.Sleep(ctx, *hold)
	}
	return 0
}
