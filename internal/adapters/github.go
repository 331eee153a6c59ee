package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	apperrors "github.com/gitfolio/engine/internal/errors"
	"github.com/gitfolio/engine/internal/monitoring"
	"github.com/gitfolio/engine/internal/resilience"
	"github.com/gitfolio/engine/internal/types"
)

const githubGraphQLEndpoint = "https://api.github.com/graphql"

// DataSource supplies the raw user payload consumed by the engine. The
// production implementation talks to the GitHub GraphQL API; tests wire in
// fixtures.
type DataSource interface {
	FetchUserPayload(ctx context.Context, username string) (types.UserPayload, error)
}

// userQuery pulls the profile, repository list and contribution summary in
// one round trip. Field shapes match the optional-field contract of the
// extractor: everything beyond name/url/timestamps may be null.
const userQuery = `
query($login: String!) {
  user(login: $login) {
    login
    name
    bio
    location
    websiteUrl
    avatarUrl
    createdAt
    followers { totalCount }
    following { totalCount }
    organizations(first: 1) { totalCount }
    sponsors { totalCount }
    sponsoring { totalCount }
    repositories(first: 100, ownerAffiliations: [OWNER, COLLABORATOR], orderBy: {field: STARGAZERS, direction: DESC}) {
      nodes {
        name
        nameWithOwner
        description
        url
        createdAt
        updatedAt
        pushedAt
        stargazerCount
        forkCount
        isFork
        isArchived
        isEmpty
        isTemplate
        watchers { totalCount }
        deployments { totalCount }
        primaryLanguage { name }
        languages(first: 10, orderBy: {field: SIZE, direction: DESC}) {
          totalSize
          totalCount
          edges { size node { name } }
        }
      }
    }
    contributionsCollection {
      totalCommitContributions
      totalIssueContributions
      totalPullRequestContributions
      totalPullRequestReviewContributions
      commitContributionsByRepository(maxRepositories: 100) {
        repository { nameWithOwner }
        contributions { totalCount }
      }
    }
  }
}`

// GitHubAdapter fetches user payloads from the GitHub GraphQL API with retry
// and circuit breaker protection.
type GitHubAdapter struct {
	token    string
	endpoint string
	client   *http.Client
	breaker  *resilience.CircuitBreaker
	retry    resilience.RetryConfig
	logger   *monitoring.Logger
	metrics  *monitoring.Metrics
}

// NewGitHubAdapter creates a GitHub adapter
func NewGitHubAdapter(token string, logger *monitoring.Logger, metrics *monitoring.Metrics) *GitHubAdapter {
	if logger == nil {
		logger = monitoring.NewLogger()
	}
	return &GitHubAdapter{
		token:    token,
		endpoint: githubGraphQLEndpoint,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		breaker: resilience.NewCircuitBreaker(resilience.CircuitBreakerConfig{
			FailureThreshold: 5,
			RecoveryTimeout:  30 * time.Second,
			SuccessThreshold: 3,
		}),
		retry:   resilience.DefaultRetryConfig(),
		logger:  logger,
		metrics: metrics,
	}
}

type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

type graphQLError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type userQueryResponse struct {
	Data struct {
		User *struct {
			types.RawUser
			Repositories struct {
				Nodes []types.RawRepository `json:"nodes"`
			} `json:"repositories"`
			ContributionsCollection types.ContributionSummary `json:"contributionsCollection"`
		} `json:"user"`
	} `json:"data"`
	Errors []graphQLError `json:"errors"`
}

// FetchUserPayload fetches everything the engine needs for one user.
func (g *GitHubAdapter) FetchUserPayload(ctx context.Context, username string) (types.UserPayload, error) {
	if username == "" {
		return types.UserPayload{}, apperrors.NewValidationError("username is required")
	}

	var payload types.UserPayload
	err := g.breaker.Call(func() error {
		fetched, err := g.fetch(ctx, username)
		if err != nil {
			return err
		}
		payload = fetched
		return nil
	})
	return payload, err
}

func (g *GitHubAdapter) fetch(ctx context.Context, username string) (types.UserPayload, error) {
	body, err := json.Marshal(graphQLRequest{
		Query:     userQuery,
		Variables: map[string]interface{}{"login": username},
	})
	if err != nil {
		return types.UserPayload{}, apperrors.NewInternalError("failed to encode query", err)
	}

	start := time.Now()
	resp, err := resilience.RetryHTTP(ctx, g.retry, func() (*http.Response, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+g.token)
		req.Header.Set("Content-Type", "application/json")

		if g.metrics != nil {
			g.metrics.IncrementGitHubCalls()
		}
		return g.client.Do(req)
	})
	if err != nil {
		g.logger.ExternalAPILogger("github", http.MethodPost, g.endpoint, 0, time.Since(start), false)
		return types.UserPayload{}, apperrors.NewNetworkError("github request failed", err)
	}
	defer resp.Body.Close()

	g.logger.ExternalAPILogger("github", http.MethodPost, g.endpoint,
		resp.StatusCode, time.Since(start), resp.StatusCode == http.StatusOK)

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return types.UserPayload{}, apperrors.NewStructuralError(
			fmt.Sprintf("github rejected credentials (status %d)", resp.StatusCode), nil)
	case http.StatusTooManyRequests:
		return types.UserPayload{}, apperrors.NewRateLimitError(resp.Header.Get("Retry-After"))
	default:
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return types.UserPayload{}, apperrors.NewNetworkError(
			fmt.Sprintf("github API error: status %d, body: %s", resp.StatusCode, string(raw)), nil)
	}

	var decoded userQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return types.UserPayload{}, apperrors.NewNetworkError("failed to decode github response", err)
	}

	if len(decoded.Errors) > 0 {
		first := decoded.Errors[0]
		if first.Type == "NOT_FOUND" {
			return types.UserPayload{}, apperrors.NewNotFoundError(
				fmt.Sprintf("github user %q not found", username))
		}
		return types.UserPayload{}, apperrors.NewNetworkError(
			fmt.Sprintf("github query failed: %s", first.Message), nil)
	}
	if decoded.Data.User == nil {
		return types.UserPayload{}, apperrors.NewNotFoundError(
			fmt.Sprintf("github user %q not found", username))
	}

	return types.UserPayload{
		User:          decoded.Data.User.RawUser,
		Repositories:  decoded.Data.User.Repositories.Nodes,
		Contributions: decoded.Data.User.ContributionsCollection,
	}, nil
}
