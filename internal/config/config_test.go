package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"ascbridge/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv(config.EnvConfigPath, "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantLogs := filepath.Join(tempHome, ".local", "share", "ascbridge", "logs")
	if cfg.Paths.LogDir != wantLogs {
		t.Fatalf("unexpected log dir: got %q want %q", cfg.Paths.LogDir, wantLogs)
	}
	if cfg.Pipes.RxName != "asc_rx" || cfg.Pipes.TxName != "asc_tx" {
		t.Fatalf("unexpected pipe names: %+v", cfg.Pipes)
	}
	if cfg.Journal.Path != filepath.Join(wantLogs, "journal.db") {
		t.Fatalf("unexpected journal path: %q", cfg.Journal.Path)
	}
	if cfg.SocketPath() != filepath.Join(wantLogs, "ascbridge.sock") {
		t.Fatalf("unexpected socket path: %q", cfg.SocketPath())
	}
	if !filepath.IsAbs(cfg.Peer.Executable) {
		t.Fatalf("expected absolute peer executable, got %q", cfg.Peer.Executable)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories failed: %v", err)
	}
	for _, dir := range []string{cfg.Paths.LogDir, cfg.Paths.PipeDir} {
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("expected directory %q to exist: %v", dir, err)
		}
		if !info.IsDir() {
			t.Fatalf("expected %q to be directory", dir)
		}
	}
}

func TestLoadCustomPath(t *testing.T) {
	tempDir := t.TempDir()
	configPath := filepath.Join(tempDir, "ascbridge.toml")

	type payload struct {
		Paths struct {
			LogDir string `toml:"log_dir"`
		} `toml:"paths"`
		Peer struct {
			Mode string `toml:"mode"`
		} `toml:"peer"`
		Connection struct {
			Type     string `toml:"type"`
			Ethernet struct {
				Host string `toml:"host"`
				Port int    `toml:"port"`
			} `toml:"ethernet"`
		} `toml:"connection"`
		Logging struct {
			Format string `toml:"format"`
		} `toml:"logging"`
	}
	custom := payload{}
	custom.Paths.LogDir = filepath.Join(tempDir, "logs")
	custom.Peer.Mode = "Imitator"
	custom.Connection.Type = "Ethernet"
	custom.Connection.Ethernet.Host = " 10.0.0.5 "
	custom.Connection.Ethernet.Port = 1502
	custom.Logging.Format = "JSON"

	data, err := toml.Marshal(custom)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected custom config to be used, got resolved=%q exists=%v", resolved, exists)
	}
	if cfg.Peer.Mode != config.PeerModeImitator {
		t.Fatalf("expected imitator mode, got %q", cfg.Peer.Mode)
	}
	if cfg.Logging.Format != "json" {
		t.Fatalf("expected json log format, got %q", cfg.Logging.Format)
	}
	params := cfg.Params()
	if params.Type != config.ConnectionEthernet || params.Ethernet.Host != "10.0.0.5" || params.Ethernet.Port != 1502 {
		t.Fatalf("unexpected params: %+v", params)
	}
	if errs := params.Validate(); len(errs) != 0 {
		t.Fatalf("expected valid params, got %v", errs)
	}
}

func TestLoadRejectsIdenticalPipeNames(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "ascbridge.toml")
	content := "[pipes]\nrx_name = \"same\"\ntx_name = \"same\"\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "must differ") {
		t.Fatalf("expected pipe name error, got %v", err)
	}
}

func TestLoadRejectsUnknownPeerMode(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "ascbridge.toml")
	if err := os.WriteFile(configPath, []byte("[peer]\nmode = \"socket\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "peer.mode") {
		t.Fatalf("expected peer mode error, got %v", err)
	}
}

func TestConnectionParamsValidate(t *testing.T) {
	tests := []struct {
		name   string
		params config.ConnectionParams
		errors int
	}{
		{name: "serial ok", params: config.ConnectionParams{Type: config.ConnectionSerial, Serial: config.Serial{Port: "/dev/ttyS0", BaudRate: 9600}}},
		{name: "serial missing both", params: config.ConnectionParams{Type: config.ConnectionSerial}, errors: 2},
		{name: "ethernet bad port", params: config.ConnectionParams{Type: config.ConnectionEthernet, Ethernet: config.Ethernet{Host: "h", Port: 70000}}, errors: 1},
		{name: "test always valid", params: config.ConnectionParams{Type: config.ConnectionTest}},
		{name: "missing type", params: config.ConnectionParams{}, errors: 1},
		{name: "unknown type", params: config.ConnectionParams{Type: "usb"}, errors: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.params.Validate(); len(got) != tt.errors {
				t.Fatalf("expected %d errors, got %v", tt.errors, got)
			}
		})
	}
}

func TestCreateSampleLoads(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample to exist")
	}
	if cfg.Connection.Type != config.ConnectionSerial {
		t.Fatalf("unexpected sample connection type %q", cfg.Connection.Type)
	}
}

func TestLoadUsesEnvironmentPath(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "env.toml")
	if err := os.WriteFile(path, []byte("[pipes]\nrx_name = \"in\"\ntx_name = \"out\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	t.Setenv(config.EnvConfigPath, path)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !exists || resolved != path {
		t.Fatalf("expected %s to be used, got %s (exists=%v)", path, resolved, exists)
	}
	if cfg.Pipes.RxName != "in" || cfg.Pipes.TxName != "out" {
		t.Fatalf("unexpected pipe names %+v", cfg.Pipes)
	}
}

func TestLoadReportsSyntaxPosition(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "broken.toml")
	if err := os.WriteFile(path, []byte("[pipes]\nrx_name = \n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	_, _, _, err := config.Load(path)
	if err == nil || !strings.Contains(err.Error(), path+":2:") {
		t.Fatalf("expected positioned parse error, got %v", err)
	}
}
