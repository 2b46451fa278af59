package activity

import (
	"errors"
	"strings"

	"github.com/spiffcs/activity/internal/model"
)

// Category describes one changelog section and the signals that route a
// merged PR into it: exact label matches and case-sensitive title
// prefixes followed by a colon.
type Category struct {
	Key         string
	Labels      []string
	Prefixes    []string
	Description string
}

// Matches reports whether the item carries one of the category's labels
// or starts a colon prefix with one of its markers anywhere in the
// title.
func (c Category) Matches(item *model.ActivityItem) bool {
	for _, label := range c.Labels {
		if item.HasLabel(label) {
			return true
		}
	}
	for _, prefix := range c.Prefixes {
		if strings.Contains(item.Title, prefix+":") {
			return true
		}
	}
	return false
}

// DefaultCategories returns a fresh copy of the built-in category list.
// Callers may reorder or trim their copy without affecting later runs.
// Declaration order is the classification precedence.
func DefaultCategories() []Category {
	return []Category{
		{
			Key:         "api_change",
			Labels:      []string{"api-change", "apichange", "breaking"},
			Prefixes:    []string{"BREAK", "BREAKING", "BRK", "UPGRADE"},
			Description: "API and Breaking Changes",
		},
		{
			Key:         "new",
			Labels:      []string{"feature", "new"},
			Prefixes:    []string{"NEW", "FEAT", "FEATURE"},
			Description: "New features added",
		},
		{
			Key:         "deprecate",
			Labels:      []string{"deprecation", "deprecate"},
			Prefixes:    []string{"DEPRECATE", "DEPRECATION", "DEP"},
			Description: "Deprecated features",
		},
		{
			Key:         "enhancement",
			Labels:      []string{"enhancement", "enhancements"},
			Prefixes:    []string{"ENH", "ENHANCEMENT", "IMPROVE", "IMP"},
			Description: "Enhancements made",
		},
		{
			Key:         "bug",
			Labels:      []string{"bug", "bugfix", "bugs"},
			Prefixes:    []string{"FIX", "BUG"},
			Description: "Bugs fixed",
		},
		{
			Key:         "maintenance",
			Labels:      []string{"maintenance", "maint"},
			Prefixes:    []string{"MAINT", "MNT"},
			Description: "Maintenance and upkeep improvements",
		},
		{
			Key:         "documentation",
			Labels:      []string{"documentation", "docs", "doc"},
			Prefixes:    []string{"DOC", "DOCS"},
			Description: "Documentation improvements",
		},
		{
			Key:         "ci",
			Labels:      []string{"ci", "continuous-integration"},
			Prefixes:    []string{"CI"},
			Description: "Continuous integration improvements",
		},
	}
}

// SelectCategories filters the built-in list down to the requested keys,
// preserving the built-in precedence order regardless of how the keys
// were given. A nil or empty request selects every category.
func SelectCategories(keys []string) ([]Category, error) {
	all := DefaultCategories()
	if len(keys) == 0 {
		return all, nil
	}

	known := make([]string, 0, len(all))
	for _, c := range all {
		known = append(known, c.Key)
	}

	requested := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		found := false
		for _, c := range all {
			if c.Key == key {
				found = true
				break
			}
		}
		if !found {
			return nil, &UnknownCategoryError{Key: key, Known: known}
		}
		requested[key] = struct{}{}
	}

	selected := make([]Category, 0, len(requested))
	for _, c := range all {
		if _, ok := requested[c.Key]; ok {
			selected = append(selected, c)
		}
	}
	return selected, nil
}

// CategoryBucket is one changelog section and the merged PRs routed to
// it.
type CategoryBucket struct {
	Category
	Items []model.ActivityItem
}

// Buckets is the classified working set for one report.
type Buckets struct {
	ClosedPRs    []model.ActivityItem
	ClosedIssues []model.ActivityItem
	OpenedPRs    []model.ActivityItem
	OpenedIssues []model.ActivityItem

	Tagged []CategoryBucket
	// Merged PRs no category claimed
	Others []model.ActivityItem
	// Section title for Others: "Merged PRs" when no category matched
	// anything, "Other merged PRs" otherwise
	OthersTitle string
}

// Classify splits items into the changelog sections. PRs not based on
// the given branch are discarded first (empty branch keeps everything);
// if that empties the working set the whole run reports no activity.
// Closed membership is decided by close date, opened by creation date,
// both inclusive of the window bounds, and items both opened and closed
// in the window count only as closed. Closed PRs that were never merged
// are dropped. Each remaining merged PR lands in the first category that
// matches it.
func Classify(items []model.ActivityItem, w model.Window, branch string, categories []Category) (*Buckets, error) {
	if branch != "" {
		kept := make([]model.ActivityItem, 0, len(items))
		for _, item := range items {
			if item.Kind == model.KindPullRequest && item.BaseRefName != branch {
				continue
			}
			kept = append(kept, item)
		}
		items = kept
	}
	if len(items) == 0 {
		return nil, ErrNoActivity
	}

	b := &Buckets{}
	closedIDs := make(map[string]struct{})
	for _, item := range items {
		if item.ClosedAt == nil || !w.Contains(*item.ClosedAt) {
			continue
		}
		closedIDs[item.ID] = struct{}{}
		switch item.Kind {
		case model.KindPullRequest:
			if item.State == model.StateClosed {
				// closed without merging, not reportable
				continue
			}
			b.ClosedPRs = append(b.ClosedPRs, item)
		default:
			b.ClosedIssues = append(b.ClosedIssues, item)
		}
	}
	for _, item := range items {
		if !w.Contains(item.CreatedAt) {
			continue
		}
		if _, closed := closedIDs[item.ID]; closed {
			continue
		}
		switch item.Kind {
		case model.KindPullRequest:
			b.OpenedPRs = append(b.OpenedPRs, item)
		default:
			b.OpenedIssues = append(b.OpenedIssues, item)
		}
	}

	assigned := make(map[string]struct{})
	for _, cat := range categories {
		bucket := CategoryBucket{Category: cat}
		for _, pr := range b.ClosedPRs {
			if _, ok := assigned[pr.ID]; ok {
				continue
			}
			if cat.Matches(&pr) {
				assigned[pr.ID] = struct{}{}
				bucket.Items = append(bucket.Items, pr)
			}
		}
		b.Tagged = append(b.Tagged, bucket)
	}
	for _, pr := range b.ClosedPRs {
		if _, ok := assigned[pr.ID]; !ok {
			b.Others = append(b.Others, pr)
		}
	}
	if len(b.Others) == len(b.ClosedPRs) {
		b.OthersTitle = "Merged PRs"
	} else {
		b.OthersTitle = "Other merged PRs"
	}

	return b, nil
}

// IsNoActivity reports whether err is the empty-result sentinel.
func IsNoActivity(err error) bool {
	return errors.Is(err, ErrNoActivity)
}
