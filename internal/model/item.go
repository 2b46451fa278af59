// Package model contains domain types for the activity changelog generator.
// These types are independent of any external GitHub library.
package model

import "time"

// Kind discriminates issues from pull requests. It is assigned once during
// normalization and never re-derived downstream.
type Kind string

const (
	KindIssue       Kind = "issue"
	KindPullRequest Kind = "pr"
)

// State is the lifecycle state reported by the platform.
type State string

const (
	StateOpen   State = "OPEN"
	StateClosed State = "CLOSED"
	StateMerged State = "MERGED"
)

// Target identifies the org (and optionally repo) being queried.
// An empty Repo means the query spans every repository under the org.
type Target struct {
	Org  string
	Repo string
}

// String returns the search-friendly form of the target.
func (t Target) String() string {
	if t.Repo == "" {
		return t.Org
	}
	return t.Org + "/" + t.Repo
}

// Window bounds queried activity by time. SinceIsRef/UntilIsRef record
// whether each bound was resolved from a git reference, which changes how
// the comparison URL is built during rendering. SinceLabel/UntilLabel keep
// the caller's original strings for headings and URLs.
type Window struct {
	Since      time.Time
	Until      time.Time
	SinceIsRef bool
	UntilIsRef bool
	SinceLabel string
	UntilLabel string
}

// Contains reports whether t falls inside the window, inclusive on both ends.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Since) && !t.After(w.Until)
}

// Comment is a single issue or PR comment.
type Comment struct {
	Author    string    `json:"author,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	URL       string    `json:"url"`
}

// ActivityItem is one issue or pull request, flattened from the raw
// GraphQL search result. PR-only fields are zero for issues. An empty
// Author means the platform account was deleted.
type ActivityItem struct {
	ID        string     `json:"id"`
	Kind      Kind       `json:"kind"`
	Org       string     `json:"org"`
	Repo      string     `json:"repo"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Number    int        `json:"number"`
	State     State      `json:"state"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
	ClosedAt  *time.Time `json:"closedAt,omitempty"`
	Author    string     `json:"author,omitempty"`
	Labels    []string   `json:"labels,omitempty"`
	ThumbsUp  int        `json:"thumbsUp,omitempty"`

	// PR-only fields
	BaseRefName    string   `json:"baseRefName,omitempty"`
	MergedBy       string   `json:"mergedBy,omitempty"`
	MergeCommitOID string   `json:"mergeCommitOid,omitempty"`
	Reviewers      []string `json:"reviewers,omitempty"`
	// Committers intentionally keeps duplicates: repeats reflect repeat
	// commits by the same user.
	Committers []string `json:"committers,omitempty"`

	Comments []Comment `json:"comments,omitempty"`

	// Contributors is derived during aggregation: ordered, unique,
	// author first.
	Contributors []string `json:"contributors,omitempty"`
}

// HasLabel reports whether the item carries the exact label.
func (a *ActivityItem) HasLabel(label string) bool {
	for _, l := range a.Labels {
		if l == label {
			return true
		}
	}
	return false
}

// BotSet is the set of usernames the platform reports as automation
// accounts for one query's result set. It rides alongside the item batch
// and must be propagated explicitly through every merge step.
type BotSet map[string]struct{}

// Add records a bot username.
func (b BotSet) Add(name string) {
	if name != "" {
		b[name] = struct{}{}
	}
}

// Contains reports whether name is in the set.
func (b BotSet) Contains(name string) bool {
	_, ok := b[name]
	return ok
}

// Union merges other into b.
func (b BotSet) Union(other BotSet) {
	for name := range other {
		b[name] = struct{}{}
	}
}
