package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/hajba/sslproxy/internal/config"
	"github.com/hajba/sslproxy/internal/credentials"
	"github.com/hajba/sslproxy/internal/daemon"
	"github.com/hajba/sslproxy/internal/docker"
	"github.com/hajba/sslproxy/internal/engine"
	"github.com/hajba/sslproxy/internal/logging"
	"github.com/hajba/sslproxy/internal/monitor"
	"github.com/hajba/sslproxy/internal/paths"
	"github.com/hajba/sslproxy/internal/privilege"
	"github.com/hajba/sslproxy/internal/resolve"
	"github.com/spf13/cobra"
)

// runCmd is the hidden re-exec target daemon.Start forks into a detached
// session. Its body, runForeground, is also what the root command's RunE
// calls directly when -d keeps the process in the foreground.
var runCmd = &cobra.Command{
	Use:    "run",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		return runForeground(cfg)
	},
}

// startDaemon re-execs the current binary as a detached "run" child carrying
// cfg's fully-resolved values, so the child doesn't need to re-discover
// layered -f/flag precedence itself.
func startDaemon(cfg *config.Config) error {
	d := daemon.New()

	if err := d.Start(daemonArgs(cfg)); err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			fmt.Println("sslproxy is already running")
			os.Exit(1)
		}
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Println("sslproxy started")
	return nil
}

func daemonArgs(cfg *config.Config) []string {
	args := []string{
		"--listen", cfg.Listen,
		"--backend", cfg.Backend,
		"--cert", cfg.CertFile,
		"--key", cfg.KeyFile,
		"--max-conn", strconv.Itoa(cfg.MaxConn),
	}
	if cfg.User != "" {
		args = append(args, "--user", cfg.User)
	}
	if cfg.ChrootDir != "" {
		args = append(args, "--chroot", cfg.ChrootDir)
	}
	if cfg.Monitor != "" {
		args = append(args, "--monitor", cfg.Monitor)
	}
	return args
}

// runForeground runs the proxy engine to completion. It is used both by
// -d (directly from the root command) and by the daemonized "run" child.
func runForeground(cfg *config.Config) error {
	level := logging.LevelInfo
	if cfg.Debug {
		level = logging.LevelDebug
	}

	if cfg.Debug {
		logging.Setup(level, os.Stderr)
	} else {
		logFile := paths.LogFile()
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		if err := logging.SetupFile(level, logFile); err != nil {
			return fmt.Errorf("failed to initialize logging: %w", err)
		}
	}
	logger := slog.Default()

	// Resolve the target user before any privileged work, so a typo in -u
	// fails fast instead of after the listener is already bound.
	var privInfo *privilege.Info
	if cfg.User != "" {
		info, err := privilege.Lookup(cfg.User)
		if err != nil {
			return err
		}
		privInfo = info
	}

	creds, err := credentials.Load(cfg.CertFile, cfg.KeyFile)
	if err != nil {
		return fmt.Errorf("failed to load TLS credentials: %w", err)
	}
	logger.Info("TLS credentials loaded", "cert", cfg.CertFile)

	connector, closeDocker, err := buildConnector(cfg, logger)
	if err != nil {
		return err
	}
	if closeDocker != nil {
		defer closeDocker()
	}

	if err := connector.Resolve(context.Background()); err != nil {
		return fmt.Errorf("failed to resolve backend: %w", err)
	}

	d := daemon.New()
	if err := d.WritePID(); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}

	shutdown := daemon.NewShutdownHandler()
	ctx := shutdown.Context()
	shutdown.OnShutdown(func() {
		logger.Info("shutting down")
		if err := d.RemovePID(); err != nil {
			logger.Error("failed to remove PID file", "error", err)
		}
	})
	shutdown.Start()
	defer shutdown.Stop()

	var mon *monitor.Monitor
	if cfg.Monitor != "" {
		mon = monitor.New(logger)
		go func() {
			if err := monitor.ListenAndServe(cfg.Monitor, mon); err != nil {
				logger.Error("monitor endpoint stopped", "error", err)
			}
		}()
		logger.Info("monitor endpoint started", "address", cfg.Monitor)
	}

	eng, err := engine.New(engine.Config{
		Listen:    cfg.Listen,
		TLSConfig: creds.Config,
		MaxConn:   cfg.MaxConn,
		Connector: connector,
		Logger:    logger,
		Monitor:   mon,
	})
	if err != nil {
		return fmt.Errorf("failed to bind listener: %w", err)
	}

	// Privileged work (binding <1024, opening the log file, writing the PID)
	// is done; chroot and privilege drop happen last, in that order, while
	// still root.
	if cfg.ChrootDir != "" {
		if err := privilege.Chroot(cfg.ChrootDir); err != nil {
			return err
		}
		logger.Info("chrooted", "dir", cfg.ChrootDir)
	}
	if privInfo != nil {
		if err := privilege.Drop(privInfo); err != nil {
			return err
		}
		logger.Info("dropped privileges", "user", privInfo.Username, "uid", privInfo.UID)
	}

	logger.Info("sslproxy started", "pid", os.Getpid(), "listen", cfg.Listen, "backend", cfg.Backend, "max_conn", cfg.MaxConn)

	return eng.Run(ctx)
}

// buildConnector parses cfg.Backend and wires the resolver the backend kind
// needs. The returned close func tears down the Docker client, if one was
// created; it is nil otherwise.
func buildConnector(cfg *config.Config, logger *slog.Logger) (*engine.BackendConnector, func(), error) {
	spec, err := engine.ParseBackendSpec(cfg.Backend)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid backend address: %w", err)
	}

	if spec.Kind != engine.BackendDocker {
		return engine.NewBackendConnector(spec, resolve.New(""), nil), nil, nil
	}

	dockerClient, err := docker.NewClient(logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create Docker client: %w", err)
	}
	dockerResolver := docker.NewContainerResolver(dockerClient)

	connector := engine.NewBackendConnector(spec, resolve.New(""), dockerResolver)
	closeDocker := func() {
		if err := dockerClient.Close(); err != nil {
			logger.Error("failed to close Docker client", "error", err)
		}
	}
	return connector, closeDocker, nil
}
