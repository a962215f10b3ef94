package daemon

import (
	"fmt"
	"log/slog"
	"time"

	"ascbridge/internal/channel"
	"ascbridge/internal/config"
	"ascbridge/internal/connector"
	"ascbridge/internal/imitator"
	"ascbridge/internal/peer"
	"ascbridge/internal/pipe"
)

// imitatorSamples is the capture length the in-process peer generates.
const imitatorSamples = 64

// ConnectorOptions derives connector options from cfg. In imitator mode the
// peer process is the in-process simulated peer and every parameter set is
// accepted; in process mode the configured executable is launched.
func ConnectorOptions(cfg *config.Config, logger *slog.Logger) (connector.Options, error) {
	if cfg == nil {
		return connector.Options{}, fmt.Errorf("config is required")
	}
	names := channel.Names{Inbound: cfg.Pipes.RxName, Outbound: cfg.Pipes.TxName}
	stopTimeout := time.Duration(cfg.Peer.StopTimeout) * time.Second

	opts := connector.Options{
		Names:    names,
		Opener:   pipe.NewOpener(pipe.Options{Dir: cfg.Paths.PipeDir, Role: pipe.RoleConnector, Logger: logger}),
		Validate: connector.DefaultValidator,
		Params:   cfg.Params(),
		Logger:   logger,
	}

	switch cfg.Peer.Mode {
	case config.PeerModeImitator:
		opts.Process = imitator.New(imitator.Options{
			Names:       names,
			Opener:      pipe.NewOpener(pipe.Options{Dir: cfg.Paths.PipeDir, Role: pipe.RolePeer, Logger: logger}),
			Samples:     imitatorSamples,
			StopTimeout: stopTimeout,
			Logger:      logger,
		})
		opts.Validate = connector.AcceptAll
	case config.PeerModeProcess:
		launcher, err := peer.New(peer.Options{
			Executable:  cfg.Peer.Executable,
			WorkDir:     cfg.Paths.PipeDir,
			StdoutPath:  cfg.Peer.StdoutPath,
			StderrPath:  cfg.Peer.StderrPath,
			RxName:      cfg.Pipes.RxName,
			TxName:      cfg.Pipes.TxName,
			StopTimeout: stopTimeout,
			Logger:      logger,
		})
		if err != nil {
			return connector.Options{}, fmt.Errorf("configure peer: %w", err)
		}
		opts.Process = launcher
		if cfg.Connection.Type == config.ConnectionTest {
			opts.Validate = connector.AcceptAll
		}
	default:
		return connector.Options{}, fmt.Errorf("peer.mode: unsupported value %q", cfg.Peer.Mode)
	}
	return opts, nil
}
