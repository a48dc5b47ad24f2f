package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/poiesic/recembed/ai"
	"github.com/poiesic/recembed/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const okBody = `{
	"object": "list",
	"data": [{"object": "embedding", "index": 0, "embedding": [0.25, -0.5, 1.0]}],
	"model": "test-model",
	"usage": {"prompt_tokens": 2, "total_tokens": 2}
}`

func newTestEmbedder(t *testing.T, handler http.HandlerFunc, opts ...ai.ConfigOption) ai.Embedder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	base := []ai.ConfigOption{
		ai.WithEmbeddingHost(server.URL),
		ai.WithEmbeddingModel("test-model"),
		ai.WithAPIKey("sk-test"),
		ai.WithTimeout(2 * time.Second),
	}
	embedder, err := NewEmbedder(ai.NewConfig(append(base, opts...)...))
	require.NoError(t, err)
	return embedder
}

func TestNewEmbedder_MissingCredential(t *testing.T) {
	_, err := NewEmbedder(ai.NewConfig(ai.WithAPIKey("")))
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrMissingCredential)
}

func TestEmbedText_WireContract(t *testing.T) {
	var (
		gotMethod string
		gotPath   string
		gotAuth   string
		gotType   string
		gotBody   map[string]any
	)

	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotType = r.Header.Get("Content-Type")
		data, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(data, &gotBody)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, okBody)
	})

	vector, err := embedder.EmbedText(context.Background(), "Hello World")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1.0}, vector)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/v1/embeddings", gotPath)
	assert.Equal(t, "Bearer sk-test", gotAuth)
	assert.Contains(t, gotType, "application/json")
	assert.Equal(t, "test-model", gotBody["model"])
	assert.Contains(t, gotBody["input"], "Hello World")
}

func TestEmbedText_OneRequestPerCall(t *testing.T) {
	var calls atomic.Int32
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, okBody)
	})

	for i := 0; i < 3; i++ {
		_, err := embedder.EmbedText(context.Background(), "text")
		require.NoError(t, err)
	}
	assert.Equal(t, int32(3), calls.Load())
}

func TestEmbedText_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "server error",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = io.WriteString(w, `{"error": {"message": "boom"}}`)
			},
		},
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "malformed body",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `not json`)
			},
		},
		{
			name: "empty data",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"object": "list", "data": []}`)
			},
		},
		{
			name: "empty vector",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = io.WriteString(w, `{"object": "list", "data": [{"index": 0, "embedding": []}]}`)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			embedder := newTestEmbedder(t, tt.handler)

			vector, err := embedder.EmbedText(context.Background(), "text")
			require.Error(t, err)
			assert.ErrorIs(t, err, core.ErrEmbeddingRequest)
			assert.Nil(t, vector)
		})
	}
}

func TestEmbedText_Timeout(t *testing.T) {
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
		_, _ = io.WriteString(w, okBody)
	}, ai.WithTimeout(50*time.Millisecond))

	_, err := embedder.EmbedText(context.Background(), "slow")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmbeddingRequest)
}

func TestEmbedText_ContextCanceled(t *testing.T) {
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, okBody)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := embedder.EmbedText(ctx, "text")
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrEmbeddingRequest)
}

func TestEmbedText_RequestPacing(t *testing.T) {
	embedder := newTestEmbedder(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, okBody)
	}, ai.WithRequestsPerSecond(20))

	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := embedder.EmbedText(context.Background(), "text")
		require.NoError(t, err)
	}

	// burst of one: the 2nd and 3rd calls each wait ~50ms
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
}
