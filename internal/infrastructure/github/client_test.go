package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClient_FetchRepoStats(t *testing.T) {
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		if r.URL.Path != "/repos/paritytech/polkadot-sdk" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"polkadot-sdk","stargazers_count":1900,"forks_count":700,"open_issues_count":1200}`))
	}))
	defer srv.Close()

	client, err := NewClient(Config{Token: "ghp_test", BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	stats, err := client.FetchRepoStats(context.Background(), "paritytech", "polkadot-sdk")

	require.NoError(t, err)
	assert.Equal(t, 1900, stats.Stars)
	assert.Equal(t, 700, stats.Forks)
	assert.Equal(t, 1200, stats.OpenIssues)
	assert.Equal(t, "Bearer ghp_test", auth)
}

func TestClient_FetchRepoStats_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	client, err := NewClient(Config{BaseURL: srv.URL}, zap.NewNop())
	require.NoError(t, err)

	_, err = client.FetchRepoStats(context.Background(), "paritytech", "gone")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "paritytech/gone")
}
