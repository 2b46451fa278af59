package activity

import (
	"path"
	"sort"
	"strings"

	"github.com/spiffcs/activity/internal/model"
)

// Thresholds are the comment-count cutoffs that promote a commenter into
// the release contributor list. Each is applied independently.
type Thresholds struct {
	// Comments on a single item
	ItemResponses int
	// Distinct items commented on that the commenter did not author
	HelperItems int
	// Total comments on items somebody else authored
	OthersComments int
}

// DefaultThresholds returns the standard cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		ItemResponses:  6,
		HelperItems:    6,
		OthersComments: 2,
	}
}

// IgnorePredicate reports whether a username is excluded from
// attribution.
type IgnorePredicate func(username string) bool

// NewIgnorePredicate builds the exclusion rule for one run: platform
// detected automation accounts first, then naming-pattern fallbacks,
// then user-supplied glob patterns. Bots often appear as `username` in
// the API and `username[bot]` in commits, so the bracket suffix is
// stripped before the set lookup.
func NewIgnorePredicate(bots model.BotSet, ignored []string) IgnorePredicate {
	return func(username string) bool {
		if username == "" {
			return false
		}

		normalized := strings.ReplaceAll(username, "[bot]", "")
		if bots.Contains(username) || bots.Contains(normalized) {
			return true
		}

		lower := strings.ToLower(username)
		if strings.Contains(lower, "[bot]") || strings.Contains(lower, "-bot") {
			return true
		}

		for _, pattern := range ignored {
			if ok, err := path.Match(pattern, username); err == nil && ok {
				return true
			}
		}
		return false
	}
}

// contributorSet is an ordered unique set of usernames with the item
// author pinned first.
type contributorSet struct {
	author string
	other  map[string]struct{}
}

func newContributorSet() *contributorSet {
	return &contributorSet{other: map[string]struct{}{}}
}

func (s *contributorSet) add(username string) {
	s.other[username] = struct{}{}
}

// list yields the author first, then the remaining names sorted
// case-insensitively.
func (s *contributorSet) list() []string {
	rest := make([]string, 0, len(s.other))
	for name := range s.other {
		if name != s.author {
			rest = append(rest, name)
		}
	}
	sortUsers(rest)

	if s.author == "" {
		return rest
	}
	return append([]string{s.author}, rest...)
}

func sortUsers(users []string) {
	sort.Slice(users, func(i, j int) bool {
		return strings.ToLower(users[i]) < strings.ToLower(users[j])
	})
}

// Aggregator accumulates contributor attribution across one run. Feed
// every normalized item through ItemContributors before any filtering so
// cross-item comment statistics cover the full window, then mark the
// reportable merged PRs with AddReportable.
type Aggregator struct {
	ignore     IgnorePredicate
	thresholds Thresholds

	// commenter -> distinct item IDs they commented on without authoring
	helperItems map[string]map[string]struct{}
	// commenter -> total comments on items somebody else authored
	othersCount map[string]int
	release     map[string]struct{}
}

// NewAggregator returns an empty aggregator. Zero-valued thresholds fall
// back to the defaults.
func NewAggregator(ignore IgnorePredicate, thresholds Thresholds) *Aggregator {
	defaults := DefaultThresholds()
	if thresholds.ItemResponses <= 0 {
		thresholds.ItemResponses = defaults.ItemResponses
	}
	if thresholds.HelperItems <= 0 {
		thresholds.HelperItems = defaults.HelperItems
	}
	if thresholds.OthersComments <= 0 {
		thresholds.OthersComments = defaults.OthersComments
	}
	return &Aggregator{
		ignore:      ignore,
		thresholds:  thresholds,
		helperItems: map[string]map[string]struct{}{},
		othersCount: map[string]int{},
		release:     map[string]struct{}{},
	}
}

// ItemContributors computes the ordered contributor list for one item
// and folds its commenter activity into the cross-item statistics.
// Contributor order: author, committers, merger, reviewers, commenters.
func (a *Aggregator) ItemContributors(item *model.ActivityItem) []string {
	set := newContributorSet()
	if !a.ignore(item.Author) {
		set.author = item.Author
	}

	if item.Kind == model.KindPullRequest {
		for _, committer := range item.Committers {
			if !a.ignore(committer) {
				set.add(committer)
			}
		}
		if item.MergedBy != "" && item.MergedBy != item.Author && !a.ignore(item.MergedBy) {
			set.add(item.MergedBy)
		}
		for _, reviewer := range item.Reviewers {
			if !a.ignore(reviewer) {
				set.add(reviewer)
			}
		}
	}

	// Duplicates per commenter are meaningful here: they count toward
	// the response threshold.
	itemCounts := map[string]int{}
	for _, comment := range item.Comments {
		if comment.Author == "" {
			// deleted platform account
			continue
		}
		if a.ignore(comment.Author) {
			continue
		}

		if comment.Author != item.Author {
			a.othersCount[comment.Author]++
			items, ok := a.helperItems[comment.Author]
			if !ok {
				items = map[string]struct{}{}
				a.helperItems[comment.Author] = items
			}
			items[item.ID] = struct{}{}
		}

		itemCounts[comment.Author]++
		set.add(comment.Author)
	}

	for commenter, n := range itemCounts {
		if n >= a.thresholds.ItemResponses {
			a.release[commenter] = struct{}{}
		}
	}

	return set.list()
}

// AddReportable credits every contributor of a reportable merged PR to
// the release set.
func (a *Aggregator) AddReportable(item model.ActivityItem) {
	for _, contributor := range item.Contributors {
		a.release[contributor] = struct{}{}
	}
}

// ReleaseContributors returns the final release-level contributor list:
// reportable PR contributors plus commenters over any threshold, with
// exclusions applied and sorted case-insensitively.
func (a *Aggregator) ReleaseContributors() []string {
	final := make(map[string]struct{}, len(a.release))
	for name := range a.release {
		final[name] = struct{}{}
	}
	for commenter, items := range a.helperItems {
		if len(items) >= a.thresholds.HelperItems {
			final[commenter] = struct{}{}
		}
	}
	for commenter, n := range a.othersCount {
		if n >= a.thresholds.OthersComments {
			final[commenter] = struct{}{}
		}
	}

	names := make([]string, 0, len(final))
	for name := range final {
		if name == "" || a.ignore(name) {
			continue
		}
		names = append(names, name)
	}
	sortUsers(names)
	return names
}
