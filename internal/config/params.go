package config

import (
	"errors"
	"fmt"
)

// ConnectionParams is the link description the connector validates before it
// launches the peer.
type ConnectionParams struct {
	Type     string   `json:"type"`
	Serial   Serial   `json:"serial"`
	Ethernet Ethernet `json:"ethernet"`
}

// Params returns the connection parameters carried by the config.
func (c *Config) Params() ConnectionParams {
	return ConnectionParams{
		Type:     c.Connection.Type,
		Serial:   c.Connection.Serial,
		Ethernet: c.Connection.Ethernet,
	}
}

// Validate reports every problem with the parameters; an empty result means
// the parameters are usable.
func (p ConnectionParams) Validate() []error {
	var errs []error
	switch p.Type {
	case ConnectionSerial:
		if p.Serial.Port == "" {
			errs = append(errs, errors.New("connection.serial.port must be set"))
		}
		if p.Serial.BaudRate <= 0 {
			errs = append(errs, fmt.Errorf("connection.serial.baud_rate must be positive, got %d", p.Serial.BaudRate))
		}
	case ConnectionEthernet:
		if p.Ethernet.Host == "" {
			errs = append(errs, errors.New("connection.ethernet.host must be set"))
		}
		if p.Ethernet.Port <= 0 || p.Ethernet.Port > 65535 {
			errs = append(errs, fmt.Errorf("connection.ethernet.port must be within 1-65535, got %d", p.Ethernet.Port))
		}
	case ConnectionTest:
	case "":
		errs = append(errs, errors.New("connection.type must be set"))
	default:
		errs = append(errs, fmt.Errorf("connection.type: unsupported value %q", p.Type))
	}
	return errs
}
