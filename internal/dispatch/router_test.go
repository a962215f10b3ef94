package dispatch_test

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"ascbridge/internal/dispatch"
	"ascbridge/internal/logging"
	"ascbridge/internal/scope"
	"ascbridge/internal/wire"
)

type scopeRecorder struct {
	armed    map[string]bool
	captures map[string]scope.DataAnswer
	resets   []string
}

func newScopeRecorder() *scopeRecorder {
	return &scopeRecorder{armed: map[string]bool{}, captures: map[string]scope.DataAnswer{}}
}

func (s *scopeRecorder) TriggerSet(name string, armed bool) { s.armed[name] = armed }

func (s *scopeRecorder) CaptureReady(name string, capture scope.DataAnswer) {
	s.captures[name] = capture
}

func (s *scopeRecorder) TriggerReset(name string) { s.resets = append(s.resets, name) }

func answerFor(t *testing.T, req wire.Request, value string) wire.Answer {
	t.Helper()
	key, err := wire.Encode(req)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	line, err := wire.EncodeEnvelope(key, json.RawMessage(value))
	if err != nil {
		t.Fatalf("EncodeEnvelope: %v", err)
	}
	answer, err := wire.DecodeAnswer(line)
	if err != nil {
		t.Fatalf("DecodeAnswer: %v", err)
	}
	return answer
}

func TestScopeAnswersReachEvents(t *testing.T) {
	router := dispatch.NewRouter(logging.NewNop())
	rec := newScopeRecorder()
	dispatch.RegisterScope(router, rec)

	setup, _ := scope.Setup("n1", []string{"s1"}, 0, 1)
	router.Deliver(answerFor(t, setup, `{"value":true}`))
	if !rec.armed["n1"] {
		t.Fatal("expected trigger armed")
	}

	request, _ := scope.Request("n1")
	router.Deliver(answerFor(t, request, `{"data":{"s1":[1,2]},"start":-0.5,"time":[0,1]}`))
	capture, ok := rec.captures["n1"]
	if !ok || len(capture.Data["s1"]) != 2 || *capture.Start != -0.5 {
		t.Fatalf("unexpected capture %+v", capture)
	}

	download, _ := scope.Download("n2")
	router.Deliver(answerFor(t, download, `{"data":{"s1":[1]}}`))
	if _, ok := rec.captures["n2"]; ok {
		t.Fatal("incomplete capture must not be reported")
	}

	reset, _ := scope.Reset("n1")
	router.Deliver(answerFor(t, reset, `null`))
	if len(rec.resets) != 1 || rec.resets[0] != "n1" {
		t.Fatalf("unexpected resets %v", rec.resets)
	}
}

func TestUnknownTypeLogsCritical(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "dispatch.log")
	logger, err := logging.New(logging.Options{Level: "debug", Format: "json", OutputPaths: []string{logPath}})
	if err != nil {
		t.Fatalf("logging.New: %v", err)
	}
	router := dispatch.NewRouter(logger)
	dispatch.RegisterScope(router, newScopeRecorder())

	router.Deliver(answerFor(t, wire.Request{Type: "Motor", Name: "m1", Method: "spin"}, `1`))
	router.Deliver(answerFor(t, wire.Request{Type: scope.Type, Name: "n1", Method: "calibrate"}, `1`))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"level":"critical"`) || !strings.Contains(out, "answer_type_unknown") {
		t.Fatalf("expected critical log for unknown type, got %s", out)
	}
	if !strings.Contains(out, "answer_unrouted") {
		t.Fatalf("expected warning for unknown method, got %s", out)
	}
}

func TestHandlerErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	router := dispatch.NewRouter(logger)
	dispatch.RegisterScope(router, newScopeRecorder())

	setup, _ := scope.Setup("n1", []string{"s1"}, 0, 1)
	router.Deliver(answerFor(t, setup, `[1,2]`))
	if !strings.Contains(buf.String(), "answer_handler_failed") {
		t.Fatalf("expected handler failure log, got %s", buf.String())
	}
}
