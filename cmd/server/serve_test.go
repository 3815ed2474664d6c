package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/example/genai-gateway/internal/config"
	"github.com/example/genai-gateway/internal/logging"
)

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"serve", "version"} {
		cmd, _, err := rootCmd.Find([]string{name})
		if err != nil || cmd.Name() != name {
			t.Errorf("expected %q command, got %v (%v)", name, cmd, err)
		}
	}
}

func TestVersionCommand(t *testing.T) {
	var buf bytes.Buffer
	versionCmd.SetOut(&buf)
	versionCmd.Run(versionCmd, nil)
	if !strings.Contains(buf.String(), "gateway "+Version) {
		t.Errorf("expected version line, got %q", buf.String())
	}
}

func TestBuildHandler(t *testing.T) {
	cfg := config.Default()
	cfg.Metrics.Enabled = true

	h := buildHandler(cfg, logging.Discard())

	t.Run("health", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
		if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("expected CORS headers")
		}
	})

	t.Run("metrics", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, cfg.Metrics.Path, nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("subtasks_without_key", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/generate-subtasks", strings.NewReader(`{"taskTitle":"x"}`))
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("expected 503, got %d", rec.Code)
		}
	})
}

func TestBuildHandlerMockUpstream(t *testing.T) {
	cfg := config.Default()
	cfg.Upstream.Mock = true

	h := buildHandler(cfg, logging.Discard())

	t.Run("stream", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/generate-stream", strings.NewReader(`{"userPrompt":"hi"}`))
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if want := strings.Join(mockFragments, ""); rec.Body.String() != want {
			t.Errorf("expected %q, got %q", want, rec.Body.String())
		}
	})

	t.Run("subtasks", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/generate-subtasks", strings.NewReader(`{"taskTitle":"x"}`))
		h.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		var got []string
		if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(got) != len(mockSubtasks) || got[0] != mockSubtasks[0] {
			t.Errorf("expected %v, got %v", mockSubtasks, got)
		}
	})
}
