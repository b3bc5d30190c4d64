// doorpanel is the door lock front end: a 16x2 display and keypad rendered on
// the terminal. It holds no secrets; every decision is made by the authority
// (doorlockd) at the other end of the serial link.
//
// Keys: digits 0-9, Enter to submit, '+' to open the door and '-' to change
// the password from the main menu.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/nerrad567/gray-logic-doorlock/internal/frontend"
	"github.com/nerrad567/gray-logic-doorlock/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-doorlock/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-doorlock/internal/link"
)

// Version information, set at build time via ldflags.
var (
	version = "dev"
	commit  = "unknown"
)

const (
	service           = "doorpanel"
	defaultConfigPath = "configs/doorpanel.yaml"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	console, err := frontend.NewConsole()
	if err != nil {
		return fmt.Errorf("opening console: %w", err)
	}
	defer console.Close()

	log := panelLogger(cfg.Logging, console).With("unit", cfg.Unit.ID)
	log.Info("starting door panel", "version", version, "commit", commit, "config", configPath)

	ch, err := link.Open(ctx, cfg.Link.URL, link.Options{
		ReadTimeout: cfg.GetLinkReadTimeout(),
		Logger:      log.With("component", "link"),
	})
	if err != nil {
		return fmt.Errorf("opening link: %w", err)
	}
	defer ch.Close()

	machine, err := frontend.New(frontend.Options{
		Config:  machineConfig(cfg),
		Link:    ch,
		Keypad:  console,
		Display: console,
		Logger:  log.With("component", "frontend"),
	})
	if err != nil {
		return fmt.Errorf("creating front end: %w", err)
	}

	err = machine.Run(ctx)
	if errors.Is(err, frontend.ErrConsoleClosed) {
		log.Info("console closed")
		return nil
	}
	if err != nil {
		return fmt.Errorf("front end stopped: %w", err)
	}
	log.Info("door panel stopped")
	return nil
}

// getConfigPath returns DOORLOCK_CONFIG or the default path.
func getConfigPath() string {
	if path := os.Getenv("DOORLOCK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}

// machineConfig maps the timing, panel and policy sections onto the state
// machine.
func machineConfig(cfg *config.Config) frontend.Config {
	return frontend.Config{
		LockingTime:   cfg.GetLockingTime(),
		LockoutTime:   cfg.GetLockoutTime(),
		ReadyPause:    config.Pause(cfg.Panel.ReadyPauseMS),
		MismatchPause: config.Pause(cfg.Panel.MismatchPauseMS),
		RejectPause:   config.Pause(cfg.Panel.RejectPauseMS),
		SavedPause:    config.Pause(cfg.Panel.SavedPauseMS),
		MaxAttempts:   cfg.Policy.MaxAttempts,
		Mode:          cfg.CounterMode(),
	}
}

// panelLogger keeps log records off the display. Output "stdout" is moved to
// the console's stderr.
func panelLogger(cfg config.LoggingConfig, console *frontend.Console) *logging.Logger {
	if cfg.Output == "" || strings.EqualFold(cfg.Output, "stdout") {
		return logging.NewWriter(cfg, service, version, console.Stderr())
	}
	return logging.New(cfg, service, version)
}
