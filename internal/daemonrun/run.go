package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"github.com/google/uuid"

	"ascbridge/internal/config"
	"ascbridge/internal/connector"
	"ascbridge/internal/daemon"
	"ascbridge/internal/daemonctl"
	"ascbridge/internal/ipc"
	"ascbridge/internal/journal"
	"ascbridge/internal/logging"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel    string
	Development bool
	Diagnostic  bool
}

// Run starts the ascbridge daemon and blocks until a signal or an IPC
// shutdown request arrives.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	runID := time.Now().UTC().Format("20060102T150405.000Z")
	logPath := filepath.Join(cfg.Paths.LogDir, fmt.Sprintf("ascbridge-%s.log", runID))
	level := opts.LogLevel
	if level == "" {
		level = cfg.Logging.Level
	}
	logger, err := logging.New(logging.Options{
		Level:       level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", logPath},
		Development: opts.Development,
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	if opts.Diagnostic {
		logger = withDiagnosticLog(logger, cfg, runID)
	}

	if err := ensureCurrentLogPointer(cfg.Paths.LogDir, logPath); err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to update ascbridge.log link: %v\n", err)
	}
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: cfg.Paths.LogDir, Pattern: "ascbridge-*.log", Exclude: []string{logPath}},
		logging.RetentionTarget{Dir: filepath.Join(cfg.Paths.LogDir, "debug"), Pattern: "ascbridge-*.log"},
	)
	logPeerSnapshot(logger, cfg)

	pidPath := filepath.Join(cfg.Paths.LogDir, daemonctl.PIDFileName)
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	var store *journal.Store
	if cfg.Journal.Enabled {
		store, err = journal.Open(cfg.Journal.Path)
		if err != nil {
			logger.Error("open exchange journal", logging.Error(err))
			return err
		}
	}

	connOpts, err := daemon.ConnectorOptions(cfg, logger)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return fmt.Errorf("configure connector: %w", err)
	}
	conn := connector.Shared(connOpts)
	defer connector.ReleaseShared()

	d, err := daemon.New(cfg, conn, store, logger)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	select {
	case <-signalCtx.Done():
	case <-ipcServer.ShutdownRequested():
	}
	logger.Info("ascbridge daemon shutting down", logging.String(logging.FieldEventType, "daemon_shutdown"))
	return nil
}

// withDiagnosticLog tees every record at debug level into a JSON file under
// log_dir/debug.
func withDiagnosticLog(logger *slog.Logger, cfg *config.Config, runID string) *slog.Logger {
	debugDir := filepath.Join(cfg.Paths.LogDir, "debug")
	debugLogPath := filepath.Join(debugDir, fmt.Sprintf("ascbridge-%s.log", runID))
	debugLogger, err := logging.New(logging.Options{
		Level:       "debug",
		Format:      "json",
		OutputPaths: []string{debugLogPath},
		Development: true,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warn: unable to initialize debug logger: %v\n", err)
		return logger
	}
	diagnosticID := uuid.NewString()
	logger = logging.TeeLogger(logger, debugLogger.Handler()).With(logging.String("diagnostic_id", diagnosticID))
	logger.Info("diagnostic mode enabled",
		logging.String(logging.FieldEventType, "diagnostic_mode_enabled"),
		logging.String("debug_log_path", debugLogPath),
	)
	return logger
}

func ensureCurrentLogPointer(logDir, target string) error {
	if logDir == "" || target == "" {
		return nil
	}
	current := filepath.Join(logDir, "ascbridge.log")
	if err := os.Remove(current); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove existing log pointer: %w", err)
	}
	if err := os.Symlink(target, current); err == nil {
		return nil
	}
	if err := os.Link(target, current); err != nil {
		return fmt.Errorf("link log pointer: %w", err)
	}
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logPeerSnapshot(logger *slog.Logger, cfg *config.Config) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "peer_snapshot"),
		logging.String("peer_mode", cfg.Peer.Mode),
		logging.String("pipe_dir", cfg.Paths.PipeDir),
		logging.String("rx", cfg.Pipes.RxName),
		logging.String("tx", cfg.Pipes.TxName),
		logging.String("connection_type", cfg.Connection.Type),
		logging.Bool("auto_connect", cfg.Connection.AutoConnect),
		logging.Bool("journal_enabled", cfg.Journal.Enabled),
	}
	if cfg.Peer.Mode == config.PeerModeProcess {
		attrs = append(attrs,
			logging.String("peer_executable", cfg.Peer.Executable),
			logging.Bool("peer_available", binaryAvailable(cfg.Peer.Executable)),
		)
	}
	logger.Info("peer snapshot", logging.Args(attrs...)...)
}

func binaryAvailable(path string) bool {
	if path == "" {
		return false
	}
	_, err := exec.LookPath(path)
	return err == nil
}
