package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/yungbote/wealthquest-backend/internal/platform/logger"
)

func newTestClient(t *testing.T, url string) *client {
	t.Helper()
	c, err := NewClient(logger.Nop(), Config{APIKey: "g-test", BaseURL: url, Model: "gemini-test", MaxRetries: 2})
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	cc := c.(*client)
	cc.retryBase = time.Millisecond
	return cc
}

func TestGenerateText(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/models/gemini-test:generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-goog-api-key") != "g-test" {
			t.Errorf("missing api key header")
		}
		var req generateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode: %v", err)
		}
		if req.SystemInstruction == nil || len(req.Contents) != 1 {
			t.Errorf("unexpected request: %+v", req)
		}
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Build the "},{"text":"emergency fund."}]}}]}`))
	}))
	defer srv.Close()

	got, err := newTestClient(t, srv.URL).GenerateText(context.Background(), "mentor", "question")
	if err != nil {
		t.Fatalf("GenerateText: %v", err)
	}
	if got != "Build the emergency fund." {
		t.Fatalf("GenerateText=%q", got)
	}
	if calls != 2 {
		t.Fatalf("calls=%d want 2", calls)
	}
}

func TestGenerateTextEmptyCandidates(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{name: "no candidates", body: `{"candidates":[]}`},
		{name: "blocked", body: `{"promptFeedback":{"blockReason":"SAFETY"}}`},
		{name: "blank text", body: `{"candidates":[{"content":{"parts":[{"text":"  "}]}}]}`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tc.body))
			}))
			defer srv.Close()
			if _, err := newTestClient(t, srv.URL).GenerateText(context.Background(), "", "q"); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
