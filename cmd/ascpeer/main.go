package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"ascbridge/internal/channel"
	"ascbridge/internal/imitator"
	"ascbridge/internal/logging"
	"ascbridge/internal/peer"
	"ascbridge/internal/pipe"
)

const (
	defaultRxName  = "asc_rx"
	defaultTxName  = "asc_tx"
	defaultSamples = 64
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "ascpeer: %v\n", err)
		os.Exit(1)
	}
}

type settings struct {
	dir   string
	names channel.Names
}

// resolveSettings reads the pipe layout exported by the launcher. Names are
// the connector's; the imitator reverses them itself.
func resolveSettings(getenv func(string) string) (settings, error) {
	dir := getenv(peer.EnvPipeDir)
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return settings{}, fmt.Errorf("resolve working directory: %w", err)
		}
		dir = wd
	}
	rx := getenv(peer.EnvPipeRx)
	if rx == "" {
		rx = defaultRxName
	}
	tx := getenv(peer.EnvPipeTx)
	if tx == "" {
		tx = defaultTxName
	}
	if rx == tx {
		return settings{}, fmt.Errorf("%s and %s must differ (both %q)", peer.EnvPipeRx, peer.EnvPipeTx, rx)
	}
	return settings{dir: dir, names: channel.Names{Inbound: rx, Outbound: tx}}, nil
}

func run(ctx context.Context, getenv func(string) string) error {
	s, err := resolveSettings(getenv)
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{
		Level:       getenv("ASCPEER_LOG_LEVEL"),
		Format:      "console",
		OutputPaths: []string{"stdout"},
	})
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	logger.Info("ascpeer starting",
		logging.String(logging.FieldEventType, "peer_starting"),
		logging.String("pipe_dir", s.dir),
	)

	im := imitator.New(imitator.Options{
		Names:   s.names,
		Opener:  pipe.NewOpener(pipe.Options{Dir: s.dir, Role: pipe.RolePeer, Logger: logger}),
		Samples: defaultSamples,
		Logger:  logger,
	})
	if err := im.Run(ctx); err != nil && ctx.Err() == nil {
		return err
	}
	logger.Info("ascpeer exiting", logging.String(logging.FieldEventType, "peer_exiting"))
	return nil
}
