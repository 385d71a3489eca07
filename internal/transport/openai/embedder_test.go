package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/arkwith7/abekm/internal/domain"
	"github.com/arkwith7/abekm/internal/metrics"
)

func TestMain(m *testing.M) {
	metrics.RegisterEmbeddingMetrics(prometheus.NewRegistry())
	os.Exit(m.Run())
}

// vectorServer answers /embeddings with vec and the given token usage,
// passing the decoded request body to inspect.
func vectorServer(t *testing.T, vec []float32, tokens int, inspect func(map[string]any)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s, want /embeddings", r.URL.Path)
		}
		var body map[string]any
		_ = json.NewDecoder(r.Body).Decode(&body)
		if inspect != nil {
			inspect(body)
		}
		data := []map[string]any{}
		if vec != nil {
			data = append(data, map[string]any{"object": "embedding", "embedding": vec, "index": 0})
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   data,
			"model":  "m",
			"usage":  map[string]int{"prompt_tokens": tokens, "total_tokens": tokens},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestEmbed_ReturnsVectorAndUsage(t *testing.T) {
	srv := vectorServer(t, []float32{0.1, 0.2, 0.3, 0.4}, 12, func(body map[string]any) {
		if body["model"] != "text-embedding-3-small" {
			t.Errorf("model = %v", body["model"])
		}
		if body["dimensions"] != float64(4) {
			t.Errorf("dimensions = %v, want 4", body["dimensions"])
		}
	})

	emb := NewEmbedder(&Config{
		APIKey: "k", BaseURL: srv.URL, Model: "text-embedding-3-small",
		Dimensions: 4, Provider: "t-ok", SendDimensions: true,
	})
	res, err := emb.Embed(context.Background(), "pump maintenance")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	if len(res.Embedding) != 4 || res.Embedding[3] != 0.4 {
		t.Errorf("embedding = %v", res.Embedding)
	}
	if res.PromptTokens != 12 || res.TotalTokens != 12 {
		t.Errorf("usage = %d/%d, want 12/12", res.PromptTokens, res.TotalTokens)
	}
	if got := testutil.ToFloat64(metrics.EmbeddingCallsTotal.WithLabelValues("t-ok", "text-embedding-3-small", metrics.EmbedOK)); got != 1 {
		t.Errorf("ok calls = %v, want 1", got)
	}
}

func TestEmbed_OmitsDimensionsForCLIP(t *testing.T) {
	srv := vectorServer(t, []float32{0.1, 0.2}, 1, func(body map[string]any) {
		if _, ok := body["dimensions"]; ok {
			t.Error("dimensions sent without SendDimensions")
		}
	})

	emb := NewEmbedder(&Config{APIKey: "k", BaseURL: srv.URL, Model: "clip", Dimensions: 512, Provider: "t-dim"})
	_, err := emb.Embed(context.Background(), "a pump diagram")
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
	if !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
	if got := testutil.ToFloat64(metrics.EmbeddingCallsTotal.WithLabelValues("t-dim", "clip", metrics.EmbedDimensionMismatch)); got != 1 {
		t.Errorf("dimension_mismatch calls = %v, want 1", got)
	}
}

func TestEmbed_EmptyResponse(t *testing.T) {
	srv := vectorServer(t, nil, 0, nil)

	emb := NewEmbedder(&Config{APIKey: "k", BaseURL: srv.URL, Model: "m", Provider: "t-empty"})
	if _, err := emb.Embed(context.Background(), "x"); !errors.Is(err, domain.ErrEmbeddingProviderError) {
		t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
	}
}

func TestEmbed_APIErrors(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   string
	}{
		{
			name:   "openai error envelope",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"rate limit exceeded","type":"rate_limit_error"}}`,
			want:   "rate limit exceeded",
		},
		{
			name:   "detail body",
			status: http.StatusBadGateway,
			body:   `{"detail":"upstream model offline"}`,
			want:   "upstream model offline",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			emb := NewEmbedder(&Config{APIKey: "k", BaseURL: srv.URL, Model: "m", Provider: "t-err"})
			_, err := emb.Embed(context.Background(), "hello")
			if !errors.Is(err, domain.ErrEmbeddingProviderError) {
				t.Fatalf("expected ErrEmbeddingProviderError, got %v", err)
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestHealthCheck(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	}))
	defer srv.Close()

	emb := NewEmbedder(&Config{APIKey: "k", BaseURL: srv.URL, Model: "m", Provider: "t-health"})
	if err := emb.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
	if emb.Model() != "m" {
		t.Errorf("Model() = %q", emb.Model())
	}
}
