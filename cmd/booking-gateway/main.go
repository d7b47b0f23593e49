// ABOUTME: Entry point for the booking-gateway bot
// ABOUTME: Polls Telegram, books appointment slots, persists bookings on disk

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/pflag"

	"github.com/2389/booking-gateway/internal/agent"
	"github.com/2389/booking-gateway/internal/bookings"
	"github.com/2389/booking-gateway/internal/config"
	"github.com/2389/booking-gateway/internal/gateway"
	"github.com/2389/booking-gateway/internal/ledger"
	"github.com/2389/booking-gateway/internal/schedule"
	"github.com/2389/booking-gateway/internal/telegram"
)

// Version is set by goreleaser at build time.
var version = "dev"

const banner = `
 _                 _    _
| |__   ___   ___ | | _(_)_ __   __ _        __ _ __ _| |_ _____      ____ _ _   _
| '_ \ / _ \ / _ \| |/ / | '_ \ / _' |_____ / _' / _' | __/ _ \ \ /\ / / _' | | | |
| |_) | (_) | (_) |   <| | | | | (_| |_____| (_| (_| | ||  __/\ V  V / (_| | |_| |
|_.__/ \___/ \___/|_|\_\_|_| |_|\__, |      \__, \__,_|\__\___| \_/\_/ \__,_|\__, |
                                |___/       |___/                            |___/
`

// defaultConfigPath resolves the config file location.
// Priority: BOOKING_CONFIG env var > XDG_CONFIG_HOME > ~/.config.
func defaultConfigPath() string {
	if envPath := os.Getenv("BOOKING_CONFIG"); envPath != "" {
		return envPath
	}

	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "gateway.yaml" // fallback
		}
		configDir = filepath.Join(homeDir, ".config")
	}

	return filepath.Join(configDir, "booking-gateway", "gateway.yaml")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: booking-gateway <command>")
		fmt.Println()
		fmt.Println("Commands:")
		fmt.Println("  serve      Start the bot")
		fmt.Println("  init       Write an example config file")
		fmt.Println("  bookings   List booked slots")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch os.Args[1] {
	case "serve":
		err = runServe(ctx, os.Args[2:])
	case "init":
		err = runInit(os.Args[2:])
	case "bookings":
		err = runBookings(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runServe(ctx context.Context, args []string) error {
	flags := pflag.NewFlagSet("serve", pflag.ContinueOnError)
	configPath := flags.String("config", defaultConfigPath(), "path to gateway.yaml")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cyan := color.New(color.FgCyan)
	cyan.Print(banner)

	gray := color.New(color.FgHiBlack)
	gray.Printf("    version: %s\n\n", version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging)

	green := color.New(color.FgGreen)
	green.Print("    ▶ ")
	fmt.Printf("Config:    %s\n", *configPath)
	green.Print("    ▶ ")
	fmt.Printf("Bookings:  %s\n", cfg.Bookings.Dir)
	green.Print("    ▶ ")
	fmt.Printf("Ledger:    %s\n", cfg.Ledger.Path)
	fmt.Println()

	logger.Info("starting booking-gateway",
		"config", *configPath,
		"bookings_dir", cfg.Bookings.Dir,
		"ledger_path", cfg.Ledger.Path,
	)

	recordStore, err := bookings.NewStore(cfg.Bookings.Dir, logger)
	if err != nil {
		return fmt.Errorf("opening booking store: %w", err)
	}

	engine, err := schedule.NewEngine(scheduleSpec(cfg), recordStore, logger)
	if err != nil {
		return fmt.Errorf("building reservation engine: %w", err)
	}
	free, _, booked := engine.Counts()
	logger.Info("schedule loaded", "free", free, "booked", booked)

	transcript, err := ledger.Open(cfg.Ledger.Path, logger)
	if err != nil {
		return fmt.Errorf("opening transcript ledger: %w", err)
	}
	defer transcript.Close()

	loc := agent.DefaultLocale()
	if cfg.Agent.LocaleFile != "" {
		loc, err = agent.LoadLocale(cfg.Agent.LocaleFile)
		if err != nil {
			return fmt.Errorf("loading locale: %w", err)
		}
	}

	client := telegram.New(cfg.Telegram.APIBase, cfg.Telegram.Token, logger)
	booker := agent.New(engine, loc, logger)

	gw := gateway.New(client, client, func(conv *gateway.Conversation) {
		booker.Run(ctx, conv)
	}, transcript, logger)
	gw.PollTimeout = cfg.Telegram.PollTimeout

	if err := gw.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("running gateway: %w", err)
	}

	logger.Info("shutting down")
	return nil
}

func runInit(args []string) error {
	flags := pflag.NewFlagSet("init", pflag.ContinueOnError)
	configPath := flags.String("config", defaultConfigPath(), "where to write the config file")
	if err := flags.Parse(args); err != nil {
		return err
	}

	if _, err := os.Stat(*configPath); err == nil {
		return fmt.Errorf("config file already exists: %s", *configPath)
	}

	if err := os.MkdirAll(filepath.Dir(*configPath), 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	example := `telegram:
  token: ${BOOKING_BOT_TOKEN}
  poll_timeout: 50s

schedule:
  slot_duration: 30m
  openings:
    - begin: 2026-09-14T09:00:00Z
      end: 2026-09-14T12:00:00Z

bookings:
  dir: ` + filepath.Join(defaultDataPath(), "bookings") + `

ledger:
  path: ` + filepath.Join(defaultDataPath(), "ledger.db") + `

logging:
  level: info
  format: text
`
	if err := os.WriteFile(*configPath, []byte(example), 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	fmt.Printf("Wrote %s\n", *configPath)
	fmt.Println("Set BOOKING_BOT_TOKEN and adjust the schedule, then run: booking-gateway serve")
	return nil
}

func runBookings(args []string) error {
	flags := pflag.NewFlagSet("bookings", pflag.ContinueOnError)
	configPath := flags.String("config", defaultConfigPath(), "path to gateway.yaml")
	from := flags.String("from", "", "start of range (RFC 3339), default beginning of schedule")
	to := flags.String("to", "", "end of range (RFC 3339), default end of schedule")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(config.LoggingConfig{Level: "warn", Format: cfg.Logging.Format})

	recordStore, err := bookings.NewStore(cfg.Bookings.Dir, logger)
	if err != nil {
		return fmt.Errorf("opening booking store: %w", err)
	}
	engine, err := schedule.NewEngine(scheduleSpec(cfg), recordStore, logger)
	if err != nil {
		return fmt.Errorf("building reservation engine: %w", err)
	}

	rangeFrom := cfg.Schedule.Openings[0].Begin
	rangeTo := cfg.Schedule.Openings[len(cfg.Schedule.Openings)-1].End
	if *from != "" {
		if rangeFrom, err = time.Parse(time.RFC3339, *from); err != nil {
			return fmt.Errorf("parsing --from: %w", err)
		}
	}
	if *to != "" {
		if rangeTo, err = time.Parse(time.RFC3339, *to); err != nil {
			return fmt.Errorf("parsing --to: %w", err)
		}
	}

	booked := engine.ListBooked(rangeFrom, rangeTo)
	if len(booked) == 0 {
		fmt.Println("No bookings in range.")
		return nil
	}

	bold := color.New(color.Bold)
	for _, slot := range booked {
		bold.Print(slot.Begin.Format("2006-01-02 15:04"))
		fmt.Printf("  chat=%s\n", slot.Payload["id"])
	}
	return nil
}

// defaultDataPath resolves the data directory.
// Priority: XDG_DATA_HOME > ~/.local/share.
func defaultDataPath() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "data" // fallback
		}
		dataDir = filepath.Join(homeDir, ".local", "share")
	}

	return filepath.Join(dataDir, "booking-gateway")
}

func scheduleSpec(cfg *config.Config) schedule.Spec {
	spec := schedule.Spec{SlotDuration: cfg.Schedule.SlotDuration}
	for _, o := range cfg.Schedule.Openings {
		spec.Openings = append(spec.Openings, schedule.Interval{Begin: o.Begin, End: o.End})
	}
	return spec
}
