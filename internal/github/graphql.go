package github

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/spiffcs/activity/internal/log"
)

const (
	graphqlEndpoint = "https://api.github.com/graphql"
	// Items per search page (GitHub's complexity limits make larger pages
	// unreliable when comment and commit edges are requested too)
	graphqlPageSize = 50
	// Hard cap on pages per query
	graphqlMaxPages = 100
)

// graphqlRequest represents a GraphQL request payload.
type graphqlRequest struct {
	Query string `json:"query"`
}

// graphqlResponse represents a generic GraphQL response.
type graphqlResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphqlError  `json:"errors"`
}

type graphqlError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Actor is any author/merger/reviewer/committer identity in the GraphQL
// response. Typename is the platform's authoritative account type
// ("User", "Bot", "Organization", ...).
type Actor struct {
	Typename string `json:"__typename"`
	Login    string `json:"login"`
}

// Node is one raw issue or pull request as returned by the search API.
// PR-only fields are zero-valued on issues. The author is nil when the
// platform account has been deleted.
type Node struct {
	ID        string     `json:"id"`
	State     string     `json:"state"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Number    int        `json:"number"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ClosedAt  *time.Time `json:"closedAt"`
	Author    *Actor     `json:"author"`
	Labels    struct {
		Edges []struct {
			Node struct {
				Name string `json:"name"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"labels"`
	Reactions struct {
		TotalCount int `json:"totalCount"`
	} `json:"reactions"`

	// PR-only
	MergedBy    *Actor `json:"mergedBy"`
	MergeCommit *struct {
		OID string `json:"oid"`
	} `json:"mergeCommit"`
	BaseRefName string `json:"baseRefName"`
	Commits     struct {
		Edges []struct {
			Node struct {
				Commit struct {
					Author struct {
						Name string `json:"name"`
						User *Actor `json:"user"`
					} `json:"author"`
				} `json:"commit"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"commits"`
	Reviews struct {
		Edges []struct {
			Node struct {
				Author *Actor `json:"author"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"reviews"`

	Comments struct {
		Edges []struct {
			Node struct {
				CreatedAt time.Time `json:"createdAt"`
				URL       string    `json:"url"`
				Author    *Actor    `json:"author"`
			} `json:"node"`
		} `json:"edges"`
	} `json:"comments"`
}

const baseElements = `      state
      id
      title
      url
      number
      createdAt
      updatedAt
      closedAt
      labels(first: 10) {
        edges {
          node {
            name
          }
        }
      }
      author {
        __typename
        login
      }
      reactions(content: THUMBS_UP) {
        totalCount
      }
`

const commentsQuery = `      comments(last: 100) {
        edges {
          node {
            createdAt
            url
            author {
              __typename
              login
            }
          }
        }
      }
`

// buildSearchQuery assembles one page of the search query.
func buildSearchQuery(search, cursor string) string {
	args := []string{
		fmt.Sprintf("first: %d", graphqlPageSize),
		fmt.Sprintf("query: %q", search),
		"type: ISSUE",
	}
	if cursor != "" {
		args = append(args, fmt.Sprintf("after: %q", cursor))
	}

	var sb strings.Builder
	sb.WriteString("{\n")
	sb.WriteString(fmt.Sprintf("  search(%s) {\n", strings.Join(args, ", ")))
	sb.WriteString(`    issueCount
    pageInfo {
      endCursor
      hasNextPage
    }
    nodes {
      ... on PullRequest {
`)
	sb.WriteString(baseElements)
	sb.WriteString(`      mergedBy {
        __typename
        login
      }
      mergeCommit {
        oid
      }
      baseRefName
      commits(first: 100) {
        edges {
          node {
            commit {
              author {
                name
                user {
                  __typename
                  login
                }
              }
            }
          }
        }
      }
      reviews(first: 100) {
        edges {
          node {
            author {
              __typename
              login
            }
          }
        }
      }
`)
	sb.WriteString(commentsQuery)
	sb.WriteString(`      }
      ... on Issue {
`)
	sb.WriteString(baseElements)
	sb.WriteString(commentsQuery)
	sb.WriteString(`      }
    }
  }
}`)
	return sb.String()
}

// searchPage is the decoded "search" object of one response page.
type searchPage struct {
	IssueCount int `json:"issueCount"`
	PageInfo   struct {
		EndCursor   string `json:"endCursor"`
		HasNextPage bool   `json:"hasNextPage"`
	} `json:"pageInfo"`
	Nodes []Node `json:"nodes"`
}

// Search runs a GitHub search query and returns every matching issue and
// pull request as raw nodes. Pages are requested strictly in order; each
// page must complete before the next is asked for. Individual page
// requests are retried with backoff, but a page that keeps failing aborts
// the whole search.
func (c *Client) Search(ctx context.Context, search string) ([]Node, error) {
	var nodes []Node
	cursor := ""
	total := -1

	for page := 0; page < graphqlMaxPages; page++ {
		query := buildSearchQuery(search, cursor)

		var sp searchPage
		err := retryWithBackoff(ctx, "graphql search", func() error {
			data, err := c.executeGraphQL(ctx, query)
			if err != nil {
				return err
			}
			var body struct {
				Search searchPage `json:"search"`
			}
			if err := json.Unmarshal(data, &body); err != nil {
				return fmt.Errorf("failed to parse search response: %w", err)
			}
			sp = body.Search
			return nil
		})
		if err != nil {
			return nil, err
		}

		if page == 0 {
			total = sp.IssueCount
			if total == 0 {
				log.Info("found no entries for query", "query", search)
				return nil, nil
			}
			log.Info("found items", "count", total, "query", search)
		}

		nodes = append(nodes, sp.Nodes...)
		log.Progress("Downloading: %d/%d", len(nodes), total)

		if !sp.PageInfo.HasNextPage {
			break
		}
		cursor = sp.PageInfo.EndCursor
	}
	log.ProgressDone()

	return nodes, nil
}

// executeGraphQL posts one query against GitHub's GraphQL endpoint.
func (c *Client) executeGraphQL(ctx context.Context, query string) (json.RawMessage, error) {
	bodyBytes, err := json.Marshal(graphqlRequest{Query: query})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal GraphQL request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, graphqlEndpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create GraphQL request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GraphQL request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read GraphQL response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GraphQL request failed with status %d: %s", resp.StatusCode, string(respBody))
	}

	var gqlResp graphqlResponse
	if err := json.Unmarshal(respBody, &gqlResp); err != nil {
		return nil, fmt.Errorf("failed to parse GraphQL response: %w", err)
	}

	if len(gqlResp.Errors) > 0 {
		return nil, fmt.Errorf("GraphQL query failed: %s", gqlResp.Errors[0].Message)
	}

	return gqlResp.Data, nil
}
