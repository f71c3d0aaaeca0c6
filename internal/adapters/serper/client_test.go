package serper

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"diligence/pkg/errors"
)

func TestSearch_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "test-key", r.Header.Get("X-API-KEY"))
		assert.Equal(t, "/search", r.URL.Path)

		var req map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "acme corp funding", req["q"])

		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"organic": []map[string]string{
				{"title": "Acme raises $10M", "link": "https://news.example.com/acme", "snippet": "Series A"},
			},
		})
	}))
	defer server.Close()

	client := NewClient("test-key", 60, 5*time.Second)
	client.baseURL = server.URL

	payload, err := client.Search(context.Background(), "acme corp funding")
	require.NoError(t, err)

	parsed, err := ParseSearch(payload)
	require.NoError(t, err)
	require.Len(t, parsed.Organic, 1)
	assert.Equal(t, "Acme raises $10M", parsed.Organic[0].Title)
}

func TestScrape_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/scrape", r.URL.Path)
		_, _ = w.Write([]byte(`{"text":"About Acme"}`))
	}))
	defer server.Close()

	client := NewClient("test-key", 60, 5*time.Second)
	client.baseURL = server.URL

	payload, err := client.Scrape(context.Background(), "https://acme.example.com/about")
	require.NoError(t, err)
	assert.Contains(t, payload, "About Acme")
}

func TestSearch_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusPaymentRequired)
		_, _ = w.Write([]byte("quota exceeded"))
	}))
	defer server.Close()

	client := NewClient("test-key", 60, 5*time.Second)
	client.baseURL = server.URL

	_, err := client.Search(context.Background(), "anything")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrExternal))
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestSearch_MissingKey(t *testing.T) {
	client := NewClient("", 60, time.Second)

	_, err := client.Search(context.Background(), "anything")
	assert.True(t, errors.Is(err, errors.ErrInvalidInput))
}

func TestParseSearch_Invalid(t *testing.T) {
	_, err := ParseSearch("not json")
	assert.Error(t, err)
}
