package rerank

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ScoreAlignsWithPassages(t *testing.T) {
	var got rerankRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/rerank", r.URL.Path)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		// Results come back sorted by score, not by input position.
		_, _ = w.Write([]byte(`[{"index":2,"score":4.5},{"index":0,"score":1.25},{"index":1,"score":-3}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "ms-marco-MiniLM-L-6-v2", time.Second)
	scores, err := c.Score(context.Background(), "roth limits", []string{"a", "b", "c"})
	require.NoError(t, err)

	assert.Equal(t, []float64{1.25, -3, 4.5}, scores)
	assert.Equal(t, "roth limits", got.Query)
	assert.Equal(t, []string{"a", "b", "c"}, got.Texts)
	assert.True(t, got.RawScores)
}

func TestClient_ScoreErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		payload string
	}{
		{"server error", http.StatusServiceUnavailable, `[]`},
		{"bad json", http.StatusOK, `[{"index":`},
		{"index out of range", http.StatusOK, `[{"index":0,"score":1},{"index":5,"score":1}]`},
		{"missing score", http.StatusOK, `[{"index":0,"score":1}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.payload))
			}))
			defer srv.Close()

			_, err := NewClient(srv.URL, "", time.Second).Score(context.Background(), "q", []string{"a", "b"})
			assert.Error(t, err)
		})
	}
}

func TestClient_RespectsContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewClient(srv.URL, "", 5*time.Second).Score(ctx, "q", []string{"a"})
	assert.Error(t, err)
}
