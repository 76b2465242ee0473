package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nao1215/privacylens/internal/bridge"
	"github.com/nao1215/privacylens/internal/config"
	"github.com/nao1215/privacylens/internal/database"
	"github.com/nao1215/privacylens/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func tabID(n int) *int {
	return &n
}

// runHostWith serves requests through runHost and returns the responses
// keyed by request id.
func runHostWith(t *testing.T, cfg *config.Config, opts hostOptions, requests ...bridge.Request) map[string]bridge.Response {
	t.Helper()

	var in bytes.Buffer
	enc := bridge.NewEncoder(&in)
	for _, req := range requests {
		if err := enc.Encode(req); err != nil {
			t.Fatal(err)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var out bytes.Buffer
	if err := runHost(ctx, cfg, opts, &in, &out, discardLogger()); err != nil {
		t.Fatalf("runHost() error = %v", err)
	}

	responses := make(map[string]bridge.Response)
	for {
		raw, err := bridge.ReadMessage(&out)
		if errors.Is(err, io.EOF) {
			return responses
		}
		if err != nil {
			t.Fatal(err)
		}
		var resp bridge.Response
		if err := json.Unmarshal(raw, &resp); err != nil {
			t.Fatal(err)
		}
		responses[string(resp.RequestID)] = resp
	}
}

func TestNewHostCmd(t *testing.T) {
	t.Parallel()

	cmd := NewHostCmd()
	for _, name := range []string{"store", "db-dir", "analyze", "renderer", "window", "timeout", "domain-mode", "chrome-path", "proxy", "config"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
	if err := cmd.Args(cmd, []string{"chrome-extension://abcdef/"}); err != nil {
		t.Errorf("host must accept the caller origin argument: %v", err)
	}
}

func TestHostCmdRejectsUnknownStore(t *testing.T) {
	t.Parallel()

	configPath := writeConfigFile(t, "sites: {}\n")
	_, _, err := executeCommand(t, "host", "-c", configPath, "--store", "redis")
	if err == nil || !errors.Is(err, config.ErrUnknownStore) {
		t.Errorf("expected ErrUnknownStore, got %v", err)
	}
}

func TestRunHostMemoryStore(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	report := model.NewAnalysisReport("https://news.example/", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	report.AddThirdPartyDomain("doubleclick.net")

	responses := runHostWith(t, cfg, hostOptions{},
		bridge.Request{Type: bridge.TypeAnalysisComplete, RequestID: json.RawMessage(`1`), TabID: tabID(3), Data: report},
		bridge.Request{Type: bridge.TypeTabActivated, RequestID: json.RawMessage(`2`), TabID: tabID(3), WindowID: tabID(1)},
		bridge.Request{Type: bridge.TypeGetAnalysis, RequestID: json.RawMessage(`3`)},
		bridge.Request{Type: bridge.TypeAnalyze, RequestID: json.RawMessage(`4`), TabID: tabID(3), URL: "https://news.example/"},
	)

	got := responses["3"]
	if got.Data == nil || got.Data.URL != "https://news.example/" {
		t.Errorf("GET_ANALYSIS = %+v, want the stored report", got)
	}

	analyze := responses["4"]
	if analyze.Success == nil || *analyze.Success {
		t.Errorf("ANALYZE without --analyze must fail, got %+v", analyze)
	}
}

func TestRunHostSQLiteStore(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := config.NewConfig()
	cfg.StoreBackend = config.StoreSQLite
	cfg.DBDir = dir

	report := model.NewAnalysisReport("https://news.example/", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	responses := runHostWith(t, cfg, hostOptions{},
		bridge.Request{Type: bridge.TypeAnalysisComplete, RequestID: json.RawMessage(`1`), TabID: tabID(9), Data: report},
		bridge.Request{Type: bridge.TypeGetAnalysis, RequestID: json.RawMessage(`2`), TabID: tabID(9)},
	)
	if got := responses["2"]; got.Data == nil || got.Data.URL != "https://news.example/" {
		t.Errorf("GET_ANALYSIS = %+v, want the stored report", got)
	}

	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	tabs, err := db.List(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(tabs) != 1 || tabs[0].TabID != 9 {
		t.Errorf("List() = %+v, want tab 9", tabs)
	}
	if err := db.Close(); err != nil {
		t.Fatal(err)
	}

	// A new host session starts with an empty store.
	responses = runHostWith(t, cfg, hostOptions{},
		bridge.Request{Type: bridge.TypeGetAnalysis, RequestID: json.RawMessage(`3`), TabID: tabID(9)},
	)
	if got := responses["3"]; !got.HasData || got.Data != nil {
		t.Errorf("GET_ANALYSIS after restart = %+v, want data null", got)
	}
}

func TestRunHostAnalyze(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(trackingPage))
	}))
	t.Cleanup(srv.Close)

	cfg := config.NewConfig()
	cfg.ObservationWindow = 100 * time.Millisecond
	cfg.Timeout = 5 * time.Second

	responses := runHostWith(t, cfg, hostOptions{analyze: true},
		bridge.Request{Type: bridge.TypeAnalyze, RequestID: json.RawMessage(`"a"`), TabID: tabID(4), URL: srv.URL},
	)

	got := responses[`"a"`]
	if got.Success == nil || !*got.Success {
		t.Fatalf("ANALYZE failed: %+v", got)
	}
	if got.Data == nil || !got.Data.CanvasFingerprinting {
		t.Errorf("ANALYZE data = %+v, want canvas fingerprinting", got.Data)
	}
}
