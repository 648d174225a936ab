package retriever

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/productrecommend/backend/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	statuses []string
}

func (o *recordingObserver) ObserveRetrieverRequest(status string) {
	o.statuses = append(o.statuses, status)
}

func newTestClient(baseURL string) *Client {
	c := NewClient(ClientConfig{
		BaseURL:       baseURL,
		APIKey:        "test-key",
		TopK:          2,
		RatePerSecond: 1000,
		Burst:         100,
	})
	c.backoff = func(int) time.Duration { return 0 }
	return c
}

func TestNewClient(t *testing.T) {
	client := NewClient(ClientConfig{BaseURL: "https://retriever.example.com/"})

	assert.NotNil(t, client)
	assert.Equal(t, "https://retriever.example.com", client.baseURL)
	assert.Equal(t, 1, client.topK)
	assert.Equal(t, 3, client.maxRetries)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.NotNil(t, client.rateLimiter)
	assert.False(t, client.debug)
}

func TestExponentialBackoff(t *testing.T) {
	tests := []struct {
		attempt  int
		expected time.Duration
	}{
		{1, 500 * time.Millisecond},
		{2, 1000 * time.Millisecond},
		{3, 2000 * time.Millisecond},
		{7, 32 * time.Second},
		{8, 32 * time.Second},
		{100, 32 * time.Second},
		{0, 500 * time.Millisecond},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, exponentialBackoff(tt.attempt))
	}
}

func TestRetrieve_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/retrieve", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req retrieveRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ワイヤレスイヤホン", req.Query)
		assert.Equal(t, 2, req.K)

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode([]domain.Document{
			{Content: "商品ID: 42\n商品名: ワイヤレスイヤホン\n価格: 3000円"},
		})
	}))
	defer server.Close()

	observer := &recordingObserver{}
	client := newTestClient(server.URL)
	client.SetObserver(observer)

	docs, err := client.Retrieve(context.Background(), "ワイヤレスイヤホン")

	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].PageContent(), "商品ID: 42")
	assert.Equal(t, []string{StatusOK}, observer.statuses)
}

func TestRetrieve_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[{"page_content":"id: 1"}]`))
	}))
	defer server.Close()

	observer := &recordingObserver{}
	client := newTestClient(server.URL)
	client.SetObserver(observer)

	docs, err := client.Retrieve(context.Background(), "lamp")

	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{StatusServerError, StatusServerError, StatusOK}, observer.statuses)
}

func TestRetrieve_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Retrieve(context.Background(), "lamp")

	assert.ErrorIs(t, err, domain.ErrRetrieverFailure)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRetrieve_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad key"}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Retrieve(context.Background(), "lamp")

	assert.ErrorIs(t, err, domain.ErrRetrieverFailure)
	assert.Contains(t, err.Error(), "401")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRetrieve_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "object instead of list", body: `{"page_content":"id: 1"}`},
		{name: "list of strings", body: `["id: 1"]`},
		{name: "not JSON", body: `id: 1`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.Write([]byte(tt.body))
			}))
			defer server.Close()

			_, err := newTestClient(server.URL).Retrieve(context.Background(), "lamp")

			assert.ErrorIs(t, err, domain.ErrEmptyOrMalformedResponse)
			var parseErr *domain.ParseError
			assert.ErrorAs(t, err, &parseErr)
		})
	}
}

func TestRetrieve_EmptyListIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer server.Close()

	docs, err := newTestClient(server.URL).Retrieve(context.Background(), "lamp")

	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestRetrieve_ContextCancelled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := newTestClient(server.URL)
	client.backoff = func(int) time.Duration { return time.Hour }

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Retrieve(ctx, "lamp")

	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
