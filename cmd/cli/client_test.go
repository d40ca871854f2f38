package main

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPIClient_PostDecodesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/playlists", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Mix", body["name"])

		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":"p1","name":"Mix","songIds":[]}`))
	}))
	defer server.Close()

	var created playlist
	err := newAPIClient(server.URL+"/", time.Second).post("/api/v1/playlists", map[string]string{"name": "Mix"}, &created)

	require.NoError(t, err)
	assert.Equal(t, "p1", created.ID)
}

func TestAPIClient_ErrorMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error":"cookie file not found"}`))
	}))
	defer server.Close()

	err := newAPIClient(server.URL, time.Second).get("/api/v1/cookies/expiry", nil, nil)

	var apiErr *apiError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "cookie file not found", apiErr.Message)
}

func TestAPIClient_QueryAndPlainTextError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "2024-01-02", r.URL.Query().Get("date"))
		http.Error(w, "Rate limit exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	err := newAPIClient(server.URL, time.Second).get("/api/v1/logs/pipeline", url.Values{"date": {"2024-01-02"}}, nil)

	assert.EqualError(t, err, "server returned 429: Rate limit exceeded")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 8))
	assert.Equal(t, "abcde...", truncate("abcdefghijkl", 8))
}
