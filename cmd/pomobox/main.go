// Package main provides the pomobox terminal entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"syscall"

	"github.com/alecthomas/kingpin/v2"
	"github.com/cockroachdb/errors"
	"github.com/joho/godotenv"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/pomobox/internal/app/notification"
	"github.com/osa030/pomobox/internal/app/notifier"
	"github.com/osa030/pomobox/internal/app/session"
	"github.com/osa030/pomobox/internal/app/timer"
	"github.com/osa030/pomobox/internal/infra/config"
	"github.com/osa030/pomobox/internal/infra/logger"
	"github.com/osa030/pomobox/internal/infra/settings"
)

var (
	app        = kingpin.New("pomobox", "Pomodoro timer for the terminal")
	configPath = app.Flag("config", "Path to config file").Default(config.DefaultPath).String()
	verbose    = app.Flag("verbose", "Enable verbose (DEBUG) logging").Short('v').Bool()
	logfile    = app.Flag("logfile", `Path to log file, or "stderr" (default: user cache dir)`).String()

	workFlag       = app.Flag("work", "Work phase length, e.g. 25m").Duration()
	breakFlag      = app.Flag("break", "Break phase length, e.g. 5m").Duration()
	iterationsFlag = app.Flag("iterations", "Number of work phases").Uint8()

	// list-notifiers command
	listNotifiersCmd = app.Command("list-notifiers", "List available notifiers and exit")
)

func init() {
	// start command (default) - no need to store the command
	app.Command("start", "Start a session (default)").Default()
}

func main() {
	// Load .env file if it exists (errors are ignored)
	_ = godotenv.Load()

	// Parse command
	command := kingpin.MustParse(app.Parse(os.Args[1:]))

	// Handle list-notifiers command
	if command == listNotifiersCmd.FullCommand() {
		printNotifiers()
		return
	}

	// Load config; the default path is optional
	explicit := *configPath != config.DefaultPath
	cfg, err := config.Load(*configPath, explicit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	closeLog, err := initLogger(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = closeLog() }()

	zlog.Info().Msgf("Loaded config from %s", *configPath)

	if err := run(cfg); err != nil {
		zlog.Error().Msgf("pomobox error: %v", err)
		fmt.Fprintf(os.Stderr, "pomobox: %v\n", err)
		_ = closeLog()
		os.Exit(1)
	}
}

func initLogger(cfg *config.Config) (func() error, error) {
	loggerConfig := logger.Config{
		Output: "file",
		Level:  cfg.Log.Level,
		File:   cfg.Log.File,
	}
	// Override with command-line flags if specified
	if *verbose {
		loggerConfig.Level = "debug"
	}
	if *logfile != "" {
		loggerConfig.File = *logfile
	}
	switch loggerConfig.File {
	case "stderr", "stdout":
		loggerConfig.Output = loggerConfig.File
	case "":
		path, err := logger.DefaultFile()
		if err != nil {
			return nil, err
		}
		loggerConfig.File = path
	}
	return logger.Init(loggerConfig)
}

// run executes the session. Using a separate function ensures defer
// statements are executed even when returning with an error.
func run(cfg *config.Config) error {
	// Build notifiers first so bad settings fail before anything starts
	dispatcher, err := notifier.Build(cfg.EnabledNotifiers())
	if err != nil {
		return errors.Wrap(err, "invalid notifier config")
	}

	prefs, store, err := loadSettings(cfg)
	if err != nil {
		return err
	}

	engine, err := timer.New(timer.Config{
		Settings: timer.Settings{
			WorkSeconds:  prefs.WorkSeconds,
			BreakSeconds: prefs.BreakSeconds,
			Iterations:   prefs.Iterations,
		},
		TickInterval: cfg.TickInterval(),
	})
	if err != nil {
		return errors.Wrap(err, "failed to create timer engine")
	}

	notifications := notification.NewManager()
	opts := []session.Option{
		session.WithEventSink(dispatcher),
		session.WithNotifications(notifications),
	}
	if store != nil {
		opts = append(opts, session.WithSettingsStore(store))
	}

	ticks := make(chan int64, cfg.Timer.TickBuffer)
	commands := make(chan timer.Command, cfg.Timer.CommandBuffer)
	intents := make(chan session.Intent)

	coordinator := session.New(session.Config{
		PauseAfterPhaseChange: prefs.PauseAfterPhaseChange,
		SkipFinalBreak:        cfg.Session.SkipFinalBreak,
		WorkStep:              cfg.Session.WorkStepSeconds,
		BreakStep:             cfg.Session.BreakStepSeconds,
		IterationStep:         uint8(cfg.Session.IterationStep),
		Defaults: timer.Settings{
			WorkSeconds:  cfg.Timer.WorkSeconds,
			BreakSeconds: cfg.Timer.BreakSeconds,
			Iterations:   uint8(cfg.Timer.Iterations),
		},
	}, engine, commands, opts...)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Display
	_, updates := notifications.Subscribe(64)
	disp := newDisplay(os.Stdout, prefs.HideWorkCountdown)
	var displayDone sync.WaitGroup
	displayDone.Add(1)
	go func() {
		defer displayDone.Done()
		disp.run(updates)
	}()
	disp.welcome(engine.Snapshot().Settings())

	// Engine and coordinator
	engineErrCh := make(chan error, 1)
	go func() {
		engineErrCh <- engine.Run(ctx, ticks, commands)
	}()
	sessionErrCh := make(chan error, 1)
	go func() {
		sessionErrCh <- coordinator.Run(ctx, ticks, intents)
	}()

	// Input
	quitCh := make(chan struct{})
	go readInput(ctx, os.Stdin, intents, coordinator, disp, quitCh)

	zlog.Info().Msgf("Session ready: id=%s", coordinator.ID())
	executeHooks(cfg.Hooks.OnStarted, "on_started")

	// Wait for shutdown signal, quit, or the coordinator ending
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	var runErr error
	select {
	case sig := <-sigCh:
		zlog.Info().Msgf("Received %s, shutting down...", sig)
	case <-quitCh:
		zlog.Info().Msg("Quit requested, shutting down...")
	case err := <-sessionErrCh:
		runErr = err
	}

	cancel()
	if err := <-engineErrCh; err != nil && !errors.Is(err, context.Canceled) {
		zlog.Error().Err(err).Msg("Timer engine stopped with error")
	}
	if runErr != nil {
		if !errors.Is(runErr, context.Canceled) {
			zlog.Error().Err(runErr).Msg("Session stopped with error")
		}
	} else if err := <-sessionErrCh; err != nil && !errors.Is(err, context.Canceled) {
		zlog.Error().Err(err).Msg("Session stopped with error")
	}

	dispatcher.Wait()
	notifications.Close()
	displayDone.Wait()
	disp.goodbye(coordinator.Status())

	zlog.Info().Msgf("Session closed: id=%s", coordinator.ID())

	// Execute shutdown hook if configured
	executeHooks(cfg.Hooks.OnStopped, "on_stopped")

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}

// loadSettings merges config defaults, persisted settings and flags.
// The returned store is nil when persistence is disabled.
func loadSettings(cfg *config.Config) (settings.Settings, *settings.Store, error) {
	prefs := settings.Settings{
		WorkSeconds:           cfg.Timer.WorkSeconds,
		BreakSeconds:          cfg.Timer.BreakSeconds,
		Iterations:            uint8(cfg.Timer.Iterations),
		HideWorkCountdown:     cfg.UI.HideWorkCountdown,
		PauseAfterPhaseChange: cfg.Session.PauseAfterPhaseChange,
	}

	var store *settings.Store
	if cfg.PersistSettings() {
		var err error
		store, err = settings.NewStore(cfg.Settings.Path)
		if err != nil {
			return prefs, nil, errors.Wrap(err, "failed to open settings store")
		}
		loaded, err := store.Load(prefs)
		if err != nil {
			// Fall back to config values
			zlog.Warn().Err(err).Msgf("Ignoring settings file %s", store.Path())
		} else {
			prefs = loaded
		}
		zlog.Info().Msgf("Settings: path=%s work=%d break=%d iterations=%d",
			store.Path(), prefs.WorkSeconds, prefs.BreakSeconds, prefs.Iterations)
	}

	// Command-line flags win
	if *workFlag > 0 {
		prefs.WorkSeconds = int64(workFlag.Seconds())
	}
	if *breakFlag > 0 {
		prefs.BreakSeconds = int64(breakFlag.Seconds())
	}
	if *iterationsFlag > 0 {
		prefs.Iterations = *iterationsFlag
	}
	return prefs, store, nil
}

// printNotifiers prints available notifiers.
func printNotifiers() {
	fmt.Println("Available Notifiers:")
	registry := notifier.GetRegistered()
	for _, name := range notifier.Names() {
		n := registry[name]()
		fmt.Printf("  %-20s - %s\n", n.Name(), n.Description())
	}
}

// executeHooks runs a list of shell commands.
func executeHooks(hooks []string, stage string) {
	if len(hooks) == 0 {
		return
	}

	zlog.Info().Msgf("Executing %s hooks (%d commands)", stage, len(hooks))

	for _, hook := range hooks {
		zlog.Info().Msgf("Executing hook: %s", hook)
		// Use sh -c to allow shell features like redirection or pipes
		cmd := exec.Command("sh", "-c", hook)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr

		if err := cmd.Run(); err != nil {
			zlog.Error().Err(err).Msgf("Failed to execute hook: %s", hook)
		}
	}
}
