package github

import (
	"context"
	"fmt"
	"time"

	gh "github.com/google/go-github/v57/github"
	"github.com/spiffcs/activity/internal/log"
)

// Tag is one release tag with the commit it points at.
type Tag struct {
	SHA  string
	Name string
}

// CommitDate resolves a git reference (SHA, tag, or branch) to its
// committer timestamp. Single-shot probe, no retry: the window resolver
// falls back to date parsing on any failure.
func (c *Client) CommitDate(ctx context.Context, org, repo, ref string) (time.Time, error) {
	if repo == "" {
		return time.Time{}, fmt.Errorf("cannot resolve ref %q without a repository", ref)
	}

	commit, _, err := c.rest.Repositories.GetCommit(ctx, org, repo, ref, nil)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to resolve ref %q: %w", ref, err)
	}

	committer := commit.GetCommit().GetCommitter()
	if committer == nil {
		return time.Time{}, fmt.Errorf("ref %q has no committer date", ref)
	}
	return committer.GetDate().Time, nil
}

// ListTags returns every tag of the repository in the API's
// most-recent-first order.
func (c *Client) ListTags(ctx context.Context, org, repo string) ([]Tag, error) {
	opts := &gh.ListOptions{PerPage: 100}

	var tags []Tag
	for {
		page, resp, err := c.rest.Repositories.ListTags(ctx, org, repo, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to list tags for %s/%s: %w", org, repo, err)
		}
		for _, t := range page {
			tags = append(tags, Tag{
				SHA:  t.GetCommit().GetSHA(),
				Name: t.GetName(),
			})
		}
		if resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	log.Debug("listed tags", "org", org, "repo", repo, "count", len(tags))
	return tags, nil
}

// LatestReleaseDate returns the publish date of the repository's latest
// release, used as the default lower window bound when no since value is
// given.
func (c *Client) LatestReleaseDate(ctx context.Context, org, repo string) (time.Time, string, error) {
	release, _, err := c.rest.Repositories.GetLatestRelease(ctx, org, repo)
	if err != nil {
		return time.Time{}, "", fmt.Errorf("failed to get latest release for %s/%s: %w", org, repo, err)
	}
	return release.GetPublishedAt().Time, release.GetTagName(), nil
}
