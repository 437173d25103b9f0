package enrich

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPMetadataFetcherValidDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Fluence #1","description":"a token","image":"https://example.com/1.png"}`))
	}))
	defer server.Close()

	fetcher := NewHTTPMetadataFetcher(time.Second)
	m, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "Fluence #1", m.Name)
	assert.Equal(t, "a token", m.Description)
	assert.Equal(t, "https://example.com/1.png", m.Image)
}

func TestHTTPMetadataFetcherMissingFieldIsInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"name":"Fluence #1"}`))
	}))
	defer server.Close()

	fetcher := NewHTTPMetadataFetcher(time.Second)
	_, err := fetcher.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrInvalidMetadata)
}

func TestHTTPMetadataFetcherNon2xxIsInvalid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	fetcher := NewHTTPMetadataFetcher(time.Second)
	_, err := fetcher.Fetch(context.Background(), server.URL)
	assert.ErrorIs(t, err, ErrInvalidMetadata)
}

func TestFakeMetadataFetcher(t *testing.T) {
	fake := NewFakeMetadataFetcher()
	fake.Responses["https://x/1"] = &Metadata{Name: "n", Description: "d", Image: "i"}

	m, err := fake.Fetch(context.Background(), "https://x/1")
	require.NoError(t, err)
	assert.Equal(t, "n", m.Name)

	_, err = fake.Fetch(context.Background(), "https://x/missing")
	assert.Error(t, err)
}
