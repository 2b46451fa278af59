package activity

import (
	"strings"

	"github.com/spiffcs/activity/internal/github"
	"github.com/spiffcs/activity/internal/log"
	"github.com/spiffcs/activity/internal/model"
)

// Normalize flattens raw search nodes into activity items and drops
// duplicate records. The search runs as two overlapping queries, so the
// same node can appear twice; the first occurrence wins. Ordering is
// otherwise preserved.
func Normalize(nodes []github.Node) []model.ActivityItem {
	items := make([]model.ActivityItem, 0, len(nodes))
	seen := make(map[string]struct{}, len(nodes))
	for i := range nodes {
		if _, ok := seen[nodes[i].ID]; ok {
			continue
		}
		seen[nodes[i].ID] = struct{}{}
		items = append(items, normalizeNode(&nodes[i]))
	}
	if dropped := len(nodes) - len(items); dropped > 0 {
		log.Debug("dropped duplicate nodes", "count", dropped)
	}
	return items
}

func normalizeNode(n *github.Node) model.ActivityItem {
	item := model.ActivityItem{
		ID:          n.ID,
		Kind:        kindFromURL(n.URL),
		Title:       n.Title,
		URL:         n.URL,
		Number:      n.Number,
		State:       model.State(n.State),
		CreatedAt:   n.CreatedAt,
		UpdatedAt:   n.UpdatedAt,
		ClosedAt:    n.ClosedAt,
		ThumbsUp:    n.Reactions.TotalCount,
		BaseRefName: n.BaseRefName,
	}
	item.Org, item.Repo = ownerFromURL(n.URL)

	if n.Author != nil {
		item.Author = n.Author.Login
	}
	if n.MergedBy != nil {
		item.MergedBy = n.MergedBy.Login
	}
	if n.MergeCommit != nil {
		item.MergeCommitOID = n.MergeCommit.OID
	}

	for _, e := range n.Labels.Edges {
		item.Labels = append(item.Labels, e.Node.Name)
	}

	// Committers keep duplicates so every commit shows up; identities
	// without a platform account fall back to the git author name.
	for _, e := range n.Commits.Edges {
		author := e.Node.Commit.Author
		switch {
		case author.User != nil && author.User.Login != "":
			item.Committers = append(item.Committers, author.User.Login)
		case author.Name != "":
			item.Committers = append(item.Committers, author.Name)
		}
	}

	reviewerSeen := make(map[string]struct{})
	for _, e := range n.Reviews.Edges {
		if e.Node.Author == nil || e.Node.Author.Login == "" {
			continue
		}
		if _, ok := reviewerSeen[e.Node.Author.Login]; ok {
			continue
		}
		reviewerSeen[e.Node.Author.Login] = struct{}{}
		item.Reviewers = append(item.Reviewers, e.Node.Author.Login)
	}

	for _, e := range n.Comments.Edges {
		c := model.Comment{
			CreatedAt: e.Node.CreatedAt,
			URL:       e.Node.URL,
		}
		if e.Node.Author != nil {
			c.Author = e.Node.Author.Login
		}
		item.Comments = append(item.Comments, c)
	}

	return item
}

// kindFromURL derives the item kind from the canonical URL path, which
// is the only place the search payload distinguishes issues from PRs.
func kindFromURL(url string) model.Kind {
	if strings.Contains(url, "/issues/") {
		return model.KindIssue
	}
	return model.KindPullRequest
}

func ownerFromURL(url string) (org, repo string) {
	parts := strings.Split(url, "/")
	if len(parts) >= 5 {
		return parts[3], parts[4]
	}
	return "", ""
}
