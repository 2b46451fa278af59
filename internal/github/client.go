// Package github is the fetch collaborator: it runs paginated GraphQL
// search queries and REST lookups against the GitHub API and returns raw
// nested records for the core pipeline to normalize.
package github

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/spiffcs/activity/internal/log"
	"golang.org/x/oauth2"
)

// Remaining requests below which a warning is logged
const rateLimitLowWatermark = 100

// rateLimitTransport wraps an http.RoundTripper to surface GitHub rate
// limit exhaustion as an error instead of a stream of 403s.
type rateLimitTransport struct {
	base http.RoundTripper
}

func (t *rateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}

	if remaining := rateLimitRemaining(resp); remaining >= 0 && remaining <= rateLimitLowWatermark {
		resetAt := rateLimitReset(resp)
		log.Debug("rate limit low", "remaining", remaining, "resets_at", resetAt.Format(time.RFC3339))
	}

	if resp.StatusCode == http.StatusForbidden || resp.StatusCode == http.StatusTooManyRequests {
		if resp.Header.Get("X-RateLimit-Remaining") == "0" || resp.StatusCode == http.StatusTooManyRequests {
			resetAt := rateLimitReset(resp)
			_ = resp.Body.Close()
			return nil, fmt.Errorf("GitHub rate limit exceeded, resets at %s", resetAt.Format(time.RFC3339))
		}
	}

	return resp, nil
}

// rateLimitRemaining parses X-RateLimit-Remaining, returning -1 if absent.
func rateLimitRemaining(resp *http.Response) int {
	s := resp.Header.Get("X-RateLimit-Remaining")
	if s == "" {
		return -1
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return -1
	}
	return n
}

// rateLimitReset parses X-RateLimit-Reset into a time.
func rateLimitReset(resp *http.Response) time.Time {
	s := resp.Header.Get("X-RateLimit-Reset")
	if s == "" {
		return time.Time{}
	}
	unix, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(unix, 0)
}

// Client wraps the GitHub REST and GraphQL APIs.
type Client struct {
	rest *gh.Client
	http *http.Client
	// token is intentionally unexported. NEVER add String(), MarshalJSON(),
	// or any method that could expose this value in logs or serialized output.
	token string
}

// NewClient creates a client from a personal access token.
func NewClient(ctx context.Context, token string) (*Client, error) {
	if token == "" {
		return nil, fmt.Errorf("GitHub token not provided. Set the GITHUB_TOKEN environment variable or pass --auth")
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)

	// Wrap transport with rate limit handling
	tc.Transport = &rateLimitTransport{
		base: tc.Transport,
	}

	return &Client{
		rest:  gh.NewClient(tc),
		http:  tc,
		token: token,
	}, nil
}

// AuthenticatedUser returns the authenticated user's login.
func (c *Client) AuthenticatedUser(ctx context.Context) (string, error) {
	user, _, err := c.rest.Users.Get(ctx, "")
	if err != nil {
		return "", fmt.Errorf("failed to get authenticated user: %w", err)
	}
	return user.GetLogin(), nil
}
