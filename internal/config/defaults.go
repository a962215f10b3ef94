package config

const (
	defaultConfigPath     = "~/.config/ascbridge/config.toml"
	defaultLogDir         = "~/.local/share/ascbridge/logs"
	defaultPipeDir        = "~/.local/share/ascbridge/pipes"
	defaultRxName         = "asc_rx"
	defaultTxName         = "asc_tx"
	defaultPeerMode       = PeerModeProcess
	defaultPeerExecutable = "bin/JsonRpcPipesConnector/JsonRpcPipesConnector"
	defaultPeerStdout     = "stdout.txt"
	defaultPeerStderr     = "stderr.txt"
	defaultStopTimeout    = 5
	defaultConnectionType = ConnectionSerial
	defaultSerialPort     = "/dev/ttyUSB0"
	defaultBaudRate       = 115200
	defaultEthernetPort   = 502
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
	defaultRetentionDays  = 30
)

// Peer modes.
const (
	PeerModeProcess  = "process"
	PeerModeImitator = "imitator"
)

// Connection types.
const (
	ConnectionSerial   = "serial"
	ConnectionEthernet = "ethernet"
	ConnectionTest     = "test"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			PipeDir: defaultPipeDir,
		},
		Pipes: Pipes{
			RxName: defaultRxName,
			TxName: defaultTxName,
		},
		Peer: Peer{
			Mode:        defaultPeerMode,
			Executable:  defaultPeerExecutable,
			StdoutPath:  defaultPeerStdout,
			StderrPath:  defaultPeerStderr,
			StopTimeout: defaultStopTimeout,
		},
		Connection: Connection{
			Type:        defaultConnectionType,
			AutoConnect: true,
			Serial: Serial{
				Port:     defaultSerialPort,
				BaudRate: defaultBaudRate,
			},
			Ethernet: Ethernet{
				Port: defaultEthernetPort,
			},
		},
		Journal: Journal{
			Enabled: true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultRetentionDays,
		},
	}
}
