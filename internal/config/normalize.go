package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizePeer(); err != nil {
		return err
	}
	c.normalizePipes()
	c.normalizeConnection()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.Paths.LogDir, err = ExpandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.PipeDir) == "" {
		c.Paths.PipeDir = defaultPipeDir
	}
	if c.Paths.PipeDir, err = ExpandPath(c.Paths.PipeDir); err != nil {
		return fmt.Errorf("paths.pipe_dir: %w", err)
	}
	if c.Paths.SocketPath, err = ExpandPath(strings.TrimSpace(c.Paths.SocketPath)); err != nil {
		return fmt.Errorf("paths.socket_path: %w", err)
	}
	if c.Journal.Path == "" {
		c.Journal.Path = filepath.Join(c.Paths.LogDir, "journal.db")
	}
	if c.Journal.Path, err = ExpandPath(c.Journal.Path); err != nil {
		return fmt.Errorf("journal.path: %w", err)
	}
	return nil
}

func (c *Config) normalizePeer() error {
	c.Peer.Mode = strings.ToLower(strings.TrimSpace(c.Peer.Mode))
	if c.Peer.Mode == "" {
		c.Peer.Mode = defaultPeerMode
	}
	executable := strings.TrimSpace(c.Peer.Executable)
	if executable != "" && runtime.GOOS == "windows" && filepath.Ext(executable) == "" {
		executable += ".exe"
	}
	var err error
	if c.Peer.Executable, err = ExpandPath(executable); err != nil {
		return fmt.Errorf("peer.executable: %w", err)
	}
	if c.Peer.StdoutPath, err = ExpandPath(strings.TrimSpace(c.Peer.StdoutPath)); err != nil {
		return fmt.Errorf("peer.stdout_path: %w", err)
	}
	if c.Peer.StderrPath, err = ExpandPath(strings.TrimSpace(c.Peer.StderrPath)); err != nil {
		return fmt.Errorf("peer.stderr_path: %w", err)
	}
	if c.Peer.StopTimeout <= 0 {
		c.Peer.StopTimeout = defaultStopTimeout
	}
	return nil
}

func (c *Config) normalizePipes() {
	c.Pipes.RxName = strings.TrimSpace(c.Pipes.RxName)
	if c.Pipes.RxName == "" {
		c.Pipes.RxName = defaultRxName
	}
	c.Pipes.TxName = strings.TrimSpace(c.Pipes.TxName)
	if c.Pipes.TxName == "" {
		c.Pipes.TxName = defaultTxName
	}
}

func (c *Config) normalizeConnection() {
	c.Connection.Type = strings.ToLower(strings.TrimSpace(c.Connection.Type))
	c.Connection.Serial.Port = strings.TrimSpace(c.Connection.Serial.Port)
	c.Connection.Ethernet.Host = strings.TrimSpace(c.Connection.Ethernet.Host)
}

func (c *Config) normalizeLogging() {
	format := strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch format {
	case "", "console", "text", "pretty":
		c.Logging.Format = "console"
	default:
		c.Logging.Format = format
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
