package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/wattlelabs/advisord/internal/retrieval"
	"github.com/wattlelabs/advisord/internal/vectorstore"
)

// stubStore serves canned search results.
type stubStore struct {
	results   []vectorstore.SearchResult
	searchErr error
}

func (s *stubStore) AddDocuments(ctx context.Context, docs []vectorstore.Document) ([]string, error) {
	ids := make([]string, len(docs))
	for i, doc := range docs {
		ids[i] = doc.ID
	}
	return ids, nil
}

func (s *stubStore) Search(ctx context.Context, query string, k int, filters map[string]string) ([]vectorstore.SearchResult, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	return s.results, nil
}

func (s *stubStore) Count(ctx context.Context) (int, error) { return len(s.results), nil }

func (s *stubStore) Close() error { return nil }

// setupTestServer builds a server over a stub store with no configured
// sources, so ingestion degrades to a no-op.
func setupTestServer(t *testing.T, store vectorstore.Store) *Server {
	t.Helper()

	retriever, err := retrieval.NewService(store, nil, retrieval.Config{
		SkillsFile:    "/nonexistent/skills.json",
		MaterialsFile: "/nonexistent/materials.json",
	}, zap.NewNop())
	require.NoError(t, err)

	server, err := NewServer(retriever, zap.NewNop(), &Config{
		Host: "localhost",
		Port: 8088,
	})
	require.NoError(t, err)

	return server
}

func TestNewServer(t *testing.T) {
	t.Run("uses defaults when config is nil", func(t *testing.T) {
		retriever, err := retrieval.NewService(&stubStore{}, nil, retrieval.Config{}, zap.NewNop())
		require.NoError(t, err)

		server, err := NewServer(retriever, zap.NewNop(), nil)
		require.NoError(t, err)
		assert.Equal(t, "localhost", server.config.Host)
		assert.Equal(t, 8088, server.config.Port)
	})

	t.Run("returns error when retriever is nil", func(t *testing.T) {
		_, err := NewServer(nil, zap.NewNop(), nil)
		assert.ErrorContains(t, err, "retrieval service cannot be nil")
	})

	t.Run("returns error when logger is nil", func(t *testing.T) {
		retriever, err := retrieval.NewService(&stubStore{}, nil, retrieval.Config{}, zap.NewNop())
		require.NoError(t, err)

		_, err = NewServer(retriever, nil, nil)
		assert.ErrorContains(t, err, "logger is required")
	})
}

func TestHandleHealth(t *testing.T) {
	server := setupTestServer(t, &stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()

	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}

func TestHandleMetrics(t *testing.T) {
	server := setupTestServer(t, &stubStore{})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	server.echo.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestHandleQuery(t *testing.T) {
	t.Run("returns scored results", func(t *testing.T) {
		server := setupTestServer(t, &stubStore{
			results: []vectorstore.SearchResult{
				{ID: "a", Content: "Skill: Python", Distance: 0.5, Metadata: map[string]string{"type": "skill"}},
			},
		})

		body, err := json.Marshal(QueryRequest{Query: "python skills", K: 3})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusOK, rec.Code)

		var resp QueryResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, 1, resp.Count)
		require.Len(t, resp.Results, 1)
		assert.Equal(t, "Skill: Python", resp.Results[0].Content)
		assert.InDelta(t, 75.0, resp.Results[0].SimilarityPercent, 1e-9)
	})

	t.Run("rejects empty query", func(t *testing.T) {
		server := setupTestServer(t, &stubStore{})

		body, err := json.Marshal(QueryRequest{Query: ""})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects invalid json", func(t *testing.T) {
		server := setupTestServer(t, &stubStore{})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader([]byte("not json")))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("reports store failures", func(t *testing.T) {
		server := setupTestServer(t, &stubStore{searchErr: assert.AnError})

		body, err := json.Marshal(QueryRequest{Query: "anything"})
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/api/v1/query", bytes.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestHandleIngest(t *testing.T) {
	server := setupTestServer(t, &stubStore{})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest", nil)
	rec := httptest.NewRecorder()

	server.echo.ServeHTTP(rec, req)

	// No catalog and missing source files all degrade to no-ops.
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp IngestResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "completed", resp.Status)
	assert.Empty(t, resp.Failed)
}

func TestServerLifecycle(t *testing.T) {
	retriever, err := retrieval.NewService(&stubStore{}, nil, retrieval.Config{}, zap.NewNop())
	require.NoError(t, err)

	server, err := NewServer(retriever, zap.NewNop(), &Config{
		Host: "localhost",
		Port: 0, // random available port
	})
	require.NoError(t, err)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, server.Shutdown(ctx))

	select {
	case err := <-errChan:
		assert.True(t, err == nil || err == http.ErrServerClosed)
	case <-time.After(6 * time.Second):
		t.Fatal("server did not shut down in time")
	}
}

func TestMiddleware(t *testing.T) {
	t.Run("adds request ID to response", func(t *testing.T) {
		server := setupTestServer(t, &stubStore{})

		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()

		server.echo.ServeHTTP(rec, req)

		assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))
	})

	t.Run("recovers from panic", func(t *testing.T) {
		server := setupTestServer(t, &stubStore{})

		server.echo.GET("/panic", func(c echo.Context) error {
			panic("test panic")
		})

		req := httptest.NewRequest(http.MethodGet, "/panic", nil)
		rec := httptest.NewRecorder()

		assert.NotPanics(t, func() {
			server.echo.ServeHTTP(rec, req)
		})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}
