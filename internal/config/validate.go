package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable. Connection parameters are not
// checked here: they are validated by the connector before every connect so an
// invalid link does not prevent the daemon from starting.
func (c *Config) Validate() error {
	if err := c.validatePipes(); err != nil {
		return err
	}
	if err := c.validatePeer(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePipes() error {
	if c.Pipes.RxName == c.Pipes.TxName {
		return errors.New("pipes.rx_name and pipes.tx_name must differ")
	}
	for key, name := range map[string]string{"pipes.rx_name": c.Pipes.RxName, "pipes.tx_name": c.Pipes.TxName} {
		if strings.ContainsAny(name, `/\`) {
			return fmt.Errorf("%s must be a bare name, got %q", key, name)
		}
	}
	return nil
}

func (c *Config) validatePeer() error {
	switch c.Peer.Mode {
	case PeerModeProcess:
		if strings.TrimSpace(c.Peer.Executable) == "" {
			return errors.New("peer.executable must be set when peer.mode is process")
		}
	case PeerModeImitator:
	default:
		return fmt.Errorf("peer.mode: unsupported value %q (want %s or %s)", c.Peer.Mode, PeerModeProcess, PeerModeImitator)
	}
	if c.Peer.StopTimeout <= 0 {
		return errors.New("peer.stop_timeout must be positive (seconds)")
	}
	return nil
}

func (c *Config) validateLogging() error {
	if c.Logging.RetentionDays < 0 {
		return errors.New("logging.retention_days must be >= 0")
	}
	switch c.Logging.Format {
	case "console", "json":
		return nil
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
}
