// Command brewbar is a terminal menu for Homebrew services.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	brewsvc "github.com/axondata/go-brewsvc"
)

const (
	logFileName      = "brewbar.log"
	watchRefreshRate = 2 * time.Second
	shutdownTimeout  = 5 * time.Second
)

func main() {
	var (
		configPath  = flag.String("config", "", "Preference file (default <user config dir>/brewbar/config.yaml)")
		showVersion = flag.Bool("version", false, "Print version and exit")
	)
	flag.Parse()

	if *showVersion {
		v := brewsvc.GetVersion()
		fmt.Printf("brewbar %s (protocol %s)\n", v.Version, v.Protocol)
		return
	}

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "brewbar: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	if configPath == "" {
		var err error
		if configPath, err = brewsvc.DefaultPreferencesPath(); err != nil {
			return err
		}
	}

	initial, err := brewsvc.NewPreferenceStore(configPath, zerolog.Nop()).Parse()
	if err != nil {
		return err
	}
	logCfg := initial.Log
	if logCfg.Output == "" || logCfg.Output == "stderr" || logCfg.Output == "stdout" {
		// the terminal belongs to the menu
		logCfg.Output = filepath.Join(filepath.Dir(configPath), logFileName)
		if err := os.MkdirAll(filepath.Dir(logCfg.Output), brewsvc.DirMode); err != nil {
			return fmt.Errorf("creating log dir: %w", err)
		}
	}
	log, closeLog, err := brewsvc.NewLogger(logCfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	store := brewsvc.NewPreferenceStore(configPath, log)
	prefs, err := store.Load()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if unwatch, err := store.Watch(ctx); err != nil {
		log.Warn().Err(err).Msg("preference watch disabled")
	} else {
		defer func() { _ = unwatch() }()
	}

	surface := newTermSurface()
	var program *tea.Program
	engine := brewsvc.NewEngine(
		brewsvc.WithPreferences(store),
		brewsvc.WithSurface(surface),
		brewsvc.WithNotifier(surface),
		brewsvc.WithLogger(log),
		brewsvc.WithQuitFunc(func() {
			// never block the engine loop on the program
			go program.Quit()
		}),
	)
	program = tea.NewProgram(newModel(engine, surface), tea.WithAltScreen(), tea.WithContext(ctx))

	refresher := newRefresher(engine.Refresh, log)
	refresher.apply(prefs.Refresh)
	defer refresher.stop()
	go refresher.follow(ctx, store)

	throttle := brewsvc.NewThrottle(watchRefreshRate, 1, engine.Refresh)
	if dirs := prefs.ExpandedWatchDirs(); len(dirs) > 0 {
		w := &brewsvc.DirWatcher{
			Dirs:  dirs,
			Match: brewsvc.MatchSuffix(".plist"),
			OnChange: func() {
				throttle.Trigger()
			},
			Log: log,
		}
		if unwatch, err := w.Start(ctx); err != nil {
			log.Warn().Err(err).Strs("dirs", dirs).Msg("launchd watch disabled")
		} else {
			defer func() { _ = unwatch() }()
		}
	}

	engineErr := make(chan error, 1)
	go func() {
		engineErr <- engine.Run(ctx)
	}()

	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		err = nil
	}

	engine.Quit()
	stop()
	select {
	case <-engine.Done():
	case <-time.After(shutdownTimeout):
		log.Warn().Msg("engine did not stop in time")
	}
	select {
	case runErr := <-engineErr:
		if err == nil {
			err = runErr
		}
	default:
	}
	return err
}
