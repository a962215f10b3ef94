package testsupport

import (
	"path/filepath"
	"testing"

	"ascbridge/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The peer defaults to the in-process imitator and the connection to the
// test type, so no external executable is needed.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.PipeDir = filepath.Join(base, "pipes")
	cfgVal.Paths.SocketPath = filepath.Join(base, "logs", "ascbridge.sock")
	cfgVal.Peer.Mode = config.PeerModeImitator
	cfgVal.Peer.Executable = filepath.Join(base, "bin", "peer")
	cfgVal.Peer.StdoutPath = filepath.Join(base, "logs", "stdout.txt")
	cfgVal.Peer.StderrPath = filepath.Join(base, "logs", "stderr.txt")
	cfgVal.Connection.Type = config.ConnectionTest
	cfgVal.Connection.AutoConnect = false
	cfgVal.Journal.Path = filepath.Join(base, "logs", "journal.db")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithPeerExecutable switches the config to process mode with the given binary.
func WithPeerExecutable(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Peer.Mode = config.PeerModeProcess
		b.cfg.Peer.Executable = path
	}
}

// WithConnection overrides the connection parameters.
func WithConnection(conn config.Connection) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Connection = conn
	}
}

// WithAutoConnect enables connecting when the daemon starts.
func WithAutoConnect() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Connection.AutoConnect = true
	}
}

// WithoutJournal disables the exchange journal.
func WithoutJournal() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journal.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.LogDir)
}
