package adapters

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/gitfolio/engine/internal/errors"
	"github.com/gitfolio/engine/internal/monitoring"
)

func newTestAdapter(t *testing.T, handler http.HandlerFunc) *GitHubAdapter {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	a := NewGitHubAdapter("test-token", monitoring.NewLogger(), monitoring.NewMetrics())
	a.endpoint = srv.URL
	return a
}

func TestFetchUserPayload(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		var req graphQLRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "alice", req.Variables["login"])

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": {
				"user": {
					"login": "alice",
					"name": "Alice Example",
					"createdAt": "2016-03-01T00:00:00Z",
					"followers": {"totalCount": 250},
					"repositories": {
						"nodes": [
							{
								"name": "engine",
								"nameWithOwner": "alice/engine",
								"url": "https://github.com/alice/engine",
								"stargazerCount": 420,
								"primaryLanguage": {"name": "Go"}
							}
						]
					},
					"contributionsCollection": {
						"totalCommitContributions": 1200,
						"commitContributionsByRepository": [
							{
								"repository": {"nameWithOwner": "alice/engine"},
								"contributions": {"totalCount": 800}
							}
						]
					}
				}
			}
		}`))
	})

	payload, err := adapter.FetchUserPayload(context.Background(), "alice")
	require.NoError(t, err)

	assert.Equal(t, "alice", payload.User.Login)
	assert.Equal(t, 250, payload.User.Followers.Count())
	require.Len(t, payload.Repositories, 1)
	assert.Equal(t, "alice/engine", payload.Repositories[0].NameWithOwner)
	assert.Equal(t, "Go", payload.Repositories[0].PrimaryLanguage.Name)
	assert.Equal(t, 1200, payload.Contributions.TotalCommitContributions)
	require.Len(t, payload.Contributions.CommitsByRepository, 1)
	assert.Equal(t, 800, payload.Contributions.CommitsByRepository[0].Contributions.TotalCount)
}

func TestFetchUserPayloadNotFound(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": {"user": null}, "errors": [{"type": "NOT_FOUND", "message": "no such user"}]}`))
	})

	_, err := adapter.FetchUserPayload(context.Background(), "ghost")
	require.Error(t, err)

	appErr := apperrors.ToAppError(err)
	assert.Equal(t, apperrors.CategoryNotFound, appErr.Category)
}

func TestFetchUserPayloadBadCredentialsIsStructural(t *testing.T) {
	adapter := newTestAdapter(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := adapter.FetchUserPayload(context.Background(), "alice")
	require.Error(t, err)
	assert.True(t, apperrors.IsStructural(err))
}

func TestFetchUserPayloadEmptyUsername(t *testing.T) {
	adapter := NewGitHubAdapter("t", monitoring.NewLogger(), nil)

	_, err := adapter.FetchUserPayload(context.Background(), "")
	require.Error(t, err)
}
