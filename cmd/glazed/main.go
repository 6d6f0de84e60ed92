// glazed applies transparency and blur effects to the Windows taskbar
// based on what is on screen. It watches desktop state through win32
// event hooks, re-evaluates the configured appearance on every change,
// and exposes a tray menu plus a control socket for glazectl.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"glaze/internal/autostart"
	"glaze/internal/config"
	"glaze/internal/ipc"
	"glaze/internal/journal"
	"glaze/internal/logging"
	"glaze/internal/singleinstance"
	"glaze/internal/taskbar"
	"glaze/internal/tray"
	"glaze/internal/winapi"
)

const version = "1.0.0"

var (
	configPath = flag.String("config", "", "path to config file")
	logLevel   = flag.String("log-level", "", "override log level (debug, info, warn, error)")
	noTray     = flag.Bool("no-tray", false, "run without the tray icon")
	replace    = flag.Bool("replace", false, "ask a running instance to exit and take over")
)

func main() {
	flag.Parse()
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "glazed: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	path := *configPath
	if path == "" {
		path = config.ConfigPath()
	}

	cfg, created, err := config.LoadOrCreate(path)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}

	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Close()
	logging.SetDefault(logger)
	defer logging.RecoverAndReport(logger, crashDir(), version)

	log := logger.Logger
	log.Info("glazed starting", "version", version, "config", path)
	if created {
		log.Info("wrote default config", "path", path)
		go winapi.Notify("Glaze",
			"Glaze is now running in the notification area.\n\nConfiguration: "+path)
	}

	socketPath := cfg.IPC.SocketPath
	if socketPath == "" {
		socketPath = ipc.DefaultSocketPath()
	}

	lock, err := acquireInstance(socketPath, log)
	if err != nil {
		return err
	}
	defer lock.Release()

	env, source, err := winapi.New(log)
	if err != nil {
		return fmt.Errorf("initialize desktop environment: %w", err)
	}

	var recorder taskbar.Recorder
	var jnl *journal.Journal
	if cfg.Journal.Enabled {
		jnl, err = journal.Open(cfg.Journal.ResolvedPath(), journal.Options{
			RetentionDays: cfg.Journal.RetentionDays,
			Logger:        log,
		})
		if err != nil {
			log.Warn("transition journal disabled", "error", err)
		} else {
			recorder = jnl
			defer jnl.Close()
		}
	}

	worker, err := taskbar.NewWorker(taskbar.WorkerConfig{
		Env:      env,
		Source:   source,
		Config:   cfg,
		Logger:   log,
		Recorder: recorder,
	})
	if err != nil {
		return err
	}
	if err := worker.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	loader := config.NewLoader(path)
	if _, err := loader.Load(); err != nil {
		return fmt.Errorf("reload config: %w", err)
	}
	defer loader.Close()

	loader.OnChange(func(c *config.Config) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := worker.SetConfig(ctx, c); err != nil {
			log.Warn("config update not applied", "error", err)
			return
		}
		if err := logger.SetLevel(c.Logging.Level); err != nil {
			log.Warn("bad log level in config", "error", err)
		}
		log.Info("configuration updated", "config", c.Summary())
	})
	if err := loader.Watch(); err != nil {
		log.Warn("config watching disabled", "error", err)
	}
	go func() {
		for err := range loader.Errors() {
			log.Warn("config reload failed", "error", err)
		}
	}()

	// quit is closed exactly once, by whichever exit path fires first.
	quit := make(chan struct{})
	var quitOnce sync.Once
	requestQuit := func() { quitOnce.Do(func() { close(quit) }) }

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info("signal received", "signal", sig.String())
		requestQuit()
	}()

	var server *ipc.Server
	if cfg.IPC.Enabled {
		handler := &ipc.DaemonHandler{
			Version:    version,
			StartedAt:  time.Now(),
			Worker:     worker,
			Loader:     loader,
			History:    historySource(jnl),
			OnShutdown: requestQuit,
			Logger:     log,
		}
		srvCfg := ipc.DefaultServerConfig(socketPath)
		srvCfg.Logger = log
		server, err = ipc.NewServer(srvCfg, handler)
		if err != nil {
			return err
		}
		if err := server.Start(); err != nil {
			return fmt.Errorf("start control socket: %w", err)
		}
		defer server.Stop()
	}

	if cfg.HideTray || *noTray {
		<-quit
	} else {
		go func() {
			<-quit
			tray.Quit()
		}()
		// Blocks the main goroutine until requestQuit or Exit in the menu.
		tray.Run(tray.Options{
			Loader:       loader,
			Worker:       worker,
			Logger:       log,
			Version:      version,
			Autostart:    autostart.New(),
			OnOpenConfig: func() { openConfigFile(path, log) },
			OnQuit:       requestQuit,
		})
	}

	log.Info("glazed shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := worker.Revert(ctx); err != nil {
		log.Warn("revert failed", "error", err)
	}
	if err := worker.Stop(); err != nil {
		log.Warn("worker stop failed", "error", err)
	}
	return nil
}

// acquireInstance claims the single-instance lock, optionally asking a
// running daemon to exit first.
func acquireInstance(socketPath string, log *slog.Logger) (*singleinstance.Lock, error) {
	lock, err := singleinstance.Acquire()
	if err == nil {
		return lock, nil
	}
	if !errors.Is(err, singleinstance.ErrAlreadyRunning) || !*replace {
		return nil, err
	}

	log.Info("asking running instance to exit")
	client, dialErr := ipc.Dial(ipc.DefaultClientConfig(socketPath))
	if dialErr != nil {
		return nil, fmt.Errorf("another instance is running and unreachable: %w", dialErr)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	shutdownErr := client.Shutdown(ctx)
	client.Close()
	if shutdownErr != nil {
		return nil, fmt.Errorf("shutdown running instance: %w", shutdownErr)
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) {
		time.Sleep(200 * time.Millisecond)
		if lock, err = singleinstance.Acquire(); err == nil {
			return lock, nil
		}
	}
	return nil, singleinstance.ErrAlreadyRunning
}

// historySource keeps the handler's nil check honest: a nil *Journal
// inside a non-nil interface would pass for a live one.
func historySource(jnl *journal.Journal) ipc.HistorySource {
	if jnl == nil {
		return nil
	}
	return jnl
}

func crashDir() string {
	return filepath.Join(config.PlatformDataDir(), "crashes")
}
