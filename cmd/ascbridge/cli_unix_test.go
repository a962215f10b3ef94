//go:build !windows

package main

import (
	"encoding/json"
	"testing"

	"ascbridge/internal/ipc"
)

func TestCLIConnectSendAndDisconnect(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "disconnected")
	requireContains(t, out, "locked")

	out, _, err = runCLI(t, []string{"connect"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	requireContains(t, out, "Connection connected")

	out, _, err = runCLI(t, []string{
		"send", "Scope", "n1", "setup",
		"--arg", `Values=["s1","s2"]`,
		"--arg", "PreTrigger=0.5",
		"--arg", "PostTrigger=0.5",
		"--wait", "5s",
	}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("send setup: %v", err)
	}
	requireContains(t, out, `Queued: {"Type":"Scope","Name":"n1","Method":"setup"`)
	requireContains(t, out, "Answer: ")
	requireContains(t, out, "true")

	out, _, err = runCLI(t, []string{"send", "Scope", "n1", "request", "--wait", "5s", "--json"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("send request: %v", err)
	}
	var resp ipc.SendResponse
	if err := json.Unmarshal([]byte(out), &resp); err != nil {
		t.Fatalf("decode send output %q: %v", out, err)
	}
	if !resp.Answered || len(resp.Value) == 0 {
		t.Fatalf("expected capture answer, got %+v", resp)
	}

	out, _, err = runCLI(t, []string{"status"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "connected since")
	requireContains(t, out, "s1, s2")

	out, _, err = runCLI(t, []string{"history", "-n", "10"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	requireContains(t, out, "received")
	requireContains(t, out, "setup")

	out, _, err = runCLI(t, []string{"restart"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("restart: %v", err)
	}
	requireContains(t, out, "Connection connected")

	out, _, err = runCLI(t, []string{"disconnect"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("disconnect: %v", err)
	}
	requireContains(t, out, "Connection disconnected")
}

func TestCLISendFailsWhileDisconnected(t *testing.T) {
	env := setupCLITestEnv(t)
	if _, _, err := runCLI(t, []string{"send", "Scope", "n1", "reset"}, env.socketPath, env.configPath); err == nil {
		t.Fatal("expected send to fail while disconnected")
	}
}

func TestCLIParamsSetAndShow(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"params", "set", "--type", "ethernet", "--host", "10.1.2.3", "--port", "5020"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("params set: %v", err)
	}
	requireContains(t, out, "Parameters updated")

	out, _, err = runCLI(t, []string{"params", "show"}, env.socketPath, env.configPath)
	if err != nil {
		t.Fatalf("params show: %v", err)
	}
	requireContains(t, out, "ethernet")
	requireContains(t, out, "10.1.2.3")
	requireContains(t, out, "5020")

	params := env.daemon.Params()
	if params.Serial.BaudRate != env.cfg.Connection.Serial.BaudRate {
		t.Fatalf("expected untouched serial settings to survive, got %+v", params)
	}
}

func TestCLIStatusWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"status"}, env.socketPath+".missing", env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "[ERROR] not running")

	if _, _, err := runCLI(t, []string{"connect"}, env.socketPath+".missing", env.configPath); err == nil {
		t.Fatal("expected connect without daemon to fail")
	}
}

func TestCLIDaemonStopWithoutDaemon(t *testing.T) {
	env := setupCLITestEnv(t)
	out, _, err := runCLI(t, []string{"daemon", "stop"}, env.socketPath+".missing", env.configPath)
	if err != nil {
		t.Fatalf("daemon stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}
