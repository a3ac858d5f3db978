package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reslib/paper-metadata-api/internal/utils"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(Config{
		BaseURL: srv.URL + "/v1",
		APIKey:  "test-key",
		Model:   "test-model",
		Timeout: 5 * time.Second,
	}, utils.NewLogger("error"))
}

func completionBody(content string) string {
	body, _ := json.Marshal(map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
	})
	return string(body)
}

func TestQueryReturnsContent(t *testing.T) {
	var gotPath, gotAuth string
	var gotReq chatRequest

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody(`{"title": "T", "authors": []}`)))
	})

	content, err := client.Query(context.Background(), "excerpt text")
	require.NoError(t, err)
	assert.Equal(t, `{"title": "T", "authors": []}`, content)
	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 2)
	assert.Equal(t, "system", gotReq.Messages[0].Role)
	assert.Equal(t, DefaultSystemPrompt, gotReq.Messages[0].Content)
	assert.Equal(t, "excerpt text", gotReq.Messages[1].Content)
}

func TestQueryNon2xxIsServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream unavailable", http.StatusServiceUnavailable)
	})

	_, err := client.Query(context.Background(), "excerpt")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Equal(t, http.StatusServiceUnavailable, svcErr.StatusCode)
}

func TestQueryProviderErrorIsServiceError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": {"message": "model overloaded", "code": "overloaded"}}`))
	})

	_, err := client.Query(context.Background(), "excerpt")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Contains(t, svcErr.Error(), "model overloaded")
}

func TestQueryMalformedBodyIsModelBehaviorError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json at all"))
	})

	_, err := client.Query(context.Background(), "excerpt")
	var modelErr *ModelBehaviorError
	require.ErrorAs(t, err, &modelErr)
	assert.Equal(t, "not json at all", modelErr.Raw)
}

func TestQueryNoChoicesIsModelBehaviorError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := client.Query(context.Background(), "excerpt")
	var modelErr *ModelBehaviorError
	require.ErrorAs(t, err, &modelErr)
}

func TestQueryEmptyContentIsModelBehaviorError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionBody("   ")))
	})

	_, err := client.Query(context.Background(), "excerpt")
	var modelErr *ModelBehaviorError
	require.ErrorAs(t, err, &modelErr)
}

func TestQueryTransportFailureIsServiceError(t *testing.T) {
	client := NewClient(Config{
		BaseURL: "http://127.0.0.1:1", // nothing listens here
		Model:   "test-model",
		Timeout: time.Second,
	}, utils.NewLogger("error"))

	_, err := client.Query(context.Background(), "excerpt")
	var svcErr *ServiceError
	require.ErrorAs(t, err, &svcErr)
	assert.Zero(t, svcErr.StatusCode)
}

func TestQueryOmitsAuthHeaderWithoutKey(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(completionBody("ok")))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(Config{BaseURL: srv.URL, Model: "m"}, utils.NewLogger("error"))
	_, err := client.Query(context.Background(), "excerpt")
	require.NoError(t, err)
	assert.Empty(t, gotAuth)
}
