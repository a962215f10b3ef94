package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Paths contains directory and socket locations.
type Paths struct {
	LogDir     string `toml:"log_dir"`
	PipeDir    string `toml:"pipe_dir"`
	SocketPath string `toml:"socket_path"`
}

// Pipes names the two channels from the controlling process's point of view.
// The peer uses the same names with the directions reversed.
type Pipes struct {
	RxName string `toml:"rx_name"`
	TxName string `toml:"tx_name"`
}

// Peer describes how the external peer process is run.
type Peer struct {
	// Mode is "process" (launch Executable) or "imitator" (in-process simulated peer).
	Mode        string `toml:"mode"`
	Executable  string `toml:"executable"`
	StdoutPath  string `toml:"stdout_path"`
	StderrPath  string `toml:"stderr_path"`
	StopTimeout int    `toml:"stop_timeout"`
}

// Serial holds serial-line parameters forwarded to the peer.
type Serial struct {
	Port     string `toml:"port"`
	BaudRate int    `toml:"baud_rate"`
}

// Ethernet holds network parameters forwarded to the peer.
type Ethernet struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// Connection selects the link the peer drives and whether the daemon connects
// on startup.
type Connection struct {
	Type        string   `toml:"type"`
	AutoConnect bool     `toml:"auto_connect"`
	Serial      Serial   `toml:"serial"`
	Ethernet    Ethernet `toml:"ethernet"`
}

// Journal controls the SQLite exchange journal.
type Journal struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for ascbridge.
//
// Configuration sections by subsystem:
//   - Paths: log directory, FIFO directory, control socket
//   - Pipes: channel names
//   - Peer: external peer executable or in-process imitator
//   - Connection: link parameters validated before each connect
//   - Journal: exchange history database
//   - Logging: log format and level
type Config struct {
	Paths      Paths      `toml:"paths"`
	Pipes      Pipes      `toml:"pipes"`
	Peer       Peer       `toml:"peer"`
	Connection Connection `toml:"connection"`
	Journal    Journal    `toml:"journal"`
	Logging    Logging    `toml:"logging"`
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Paths.LogDir, c.Paths.PipeDir}
	if c.Journal.Enabled && c.Journal.Path != "" {
		dirs = append(dirs, filepath.Dir(c.Journal.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SocketPath returns the daemon control socket location.
func (c *Config) SocketPath() string {
	if c.Paths.SocketPath != "" {
		return c.Paths.SocketPath
	}
	return filepath.Join(c.Paths.LogDir, "ascbridge.sock")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.LogDir, "ascbridge.lock")
}
