package main

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"ascbridge/internal/config"
	"ascbridge/internal/ipc"
)

// globalFlags are the persistent flags shared by every subcommand.
type globalFlags struct {
	socket   string
	config   string
	logLevel string
}

// commandContext resolves configuration once per invocation and hands out
// daemon clients.
type commandContext struct {
	flags *globalFlags

	load       func() (loadedConfig, error)
	configPath string
}

type loadedConfig struct {
	cfg  *config.Config
	path string
}

func newCommandContext(flags *globalFlags) *commandContext {
	c := &commandContext{flags: flags}
	c.load = sync.OnceValues(func() (loadedConfig, error) {
		cfg, path, _, err := config.Load(c.configFlagValue())
		if err != nil {
			return loadedConfig{path: path}, err
		}
		if err := cfg.EnsureDirectories(); err != nil {
			return loadedConfig{path: path}, err
		}
		return loadedConfig{cfg: cfg, path: path}, nil
	})
	return c
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	loaded, err := c.load()
	c.configPath = loaded.path
	return loaded.cfg, err
}

func (c *commandContext) configFlagValue() string {
	return strings.TrimSpace(c.flags.config)
}

// resolvedLogLevel is --log-level when given, else logging.level.
func (c *commandContext) resolvedLogLevel(cfg *config.Config) string {
	if level := strings.TrimSpace(c.flags.logLevel); level != "" {
		return level
	}
	if cfg == nil {
		return ""
	}
	return cfg.Logging.Level
}

// socketPath prefers --socket, then the loaded config, then defaults.
func (c *commandContext) socketPath() string {
	if socket := strings.TrimSpace(c.flags.socket); socket != "" {
		return socket
	}
	if cfg, err := c.ensureConfig(); err == nil {
		return cfg.SocketPath()
	}
	fallback := config.Default()
	return fallback.SocketPath()
}

func (c *commandContext) withClient(fn func(*ipc.Client) error) error {
	socket := c.socketPath()
	client, err := ipc.Dial(socket)
	if err != nil {
		return explainDialError(socket, err)
	}
	defer client.Close()
	return fn(client)
}

func explainDialError(socket string, err error) error {
	if errors.Is(err, syscall.ENOENT) || errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("connect to daemon: no socket at %s; run `ascbridge daemon start` first", socket)
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return fmt.Errorf("connect to daemon: %s refused the connection; the daemon may have exited", socket)
	}
	return fmt.Errorf("connect to daemon: %w", err)
}

const skipConfigAnnotation = "skipConfigLoad"

func skipsConfig(cmd *cobra.Command) bool {
	for ; cmd != nil; cmd = cmd.Parent() {
		if cmd.Annotations[skipConfigAnnotation] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
