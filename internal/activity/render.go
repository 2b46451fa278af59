package activity

import (
	"fmt"
	"strings"
	"time"

	"github.com/spiffcs/activity/internal/model"
)

// RenderOptions control the shape of the markdown report.
type RenderOptions struct {
	// Top heading level, 1 renders "#", 2 renders "##", and so on
	HeadingLevel int
	// Include closed issue sections
	IncludeIssues bool
	// Include opened issue/PR sections
	IncludeOpened bool
	// Drop a leading "[...]" tag from item titles
	StripBrackets bool
	// Branch used for the compare-URL placeholder refs
	Branch string
}

// Render assembles the markdown changelog for one window. Sections
// appear in category precedence order, then uncategorized merged PRs,
// then the optional issue and opened sections, then the contributor
// roll-up. Items from multiple orgs are grouped under per-org
// subheadings.
func Render(target model.Target, w model.Window, b *Buckets, contributors []string, ignore IgnorePredicate, opts RenderOptions) string {
	if opts.HeadingLevel < 1 {
		opts.HeadingLevel = 1
	}
	head := strings.Repeat("#", opts.HeadingLevel-1)

	type section struct {
		title string
		items []model.ActivityItem
	}
	sections := make([]section, 0, len(b.Tagged)+4)
	for _, bucket := range b.Tagged {
		sections = append(sections, section{title: bucket.Description, items: bucket.Items})
	}
	sections = append(sections, section{title: b.OthersTitle, items: b.Others})
	if opts.IncludeIssues {
		sections = append(sections, section{title: "Closed issues", items: b.ClosedIssues})
		if opts.IncludeOpened {
			sections = append(sections, section{title: "Opened issues", items: b.OpenedIssues})
		}
	}
	if opts.IncludeOpened {
		sections = append(sections, section{title: "Opened PRs", items: b.OpenedPRs})
	}

	sinceLabel, sinceRef := compareRef(w.Since, w.SinceIsRef, w.SinceLabel, b.ClosedPRs, opts.Branch)
	untilLabel, untilRef := compareRef(w.Until, w.UntilIsRef, w.UntilLabel, b.ClosedPRs, opts.Branch)
	compareURL := fmt.Sprintf("https://github.com/%s/%s/compare/%s...%s", target.Org, target.Repo, sinceRef, untilRef)

	var md []string
	md = append(md,
		fmt.Sprintf("%s# %s...%s", head, sinceLabel, untilLabel),
		"",
		fmt.Sprintf("([full changelog](%s))", compareURL),
	)

	for _, s := range sections {
		if len(s.items) == 0 {
			continue
		}
		md = append(md, "", fmt.Sprintf("%s## %s", head, s.title), "")
		md = append(md, renderItems(s.items, ignore, opts, head)...)
	}

	md = append(md, "", fmt.Sprintf("%s## Contributors to this release", head), "")
	md = append(md,
		"The following people contributed discussions, new ideas, code and documentation contributions, and review.",
		"",
	)
	graphURL := fmt.Sprintf("https://github.com/%s/%s/graphs/contributors?from=%s&to=%s&type=c",
		target.Org, target.Repo, w.Since.Format("2006-01-02"), w.Until.Format("2006-01-02"))
	md = append(md, fmt.Sprintf("([GitHub contributors page for this release](%s))", graphURL), "")

	links := make([]string, 0, len(contributors))
	for _, user := range contributors {
		searchURL := fmt.Sprintf(
			"https://github.com/search?q=repo%%3A%s%%2F%s+involves%%3A%s+updated%%3A%s..%s&type=Issues",
			target.Org, target.Repo, user, w.Since.Format("2006-01-02"), w.Until.Format("2006-01-02"))
		links = append(links, fmt.Sprintf("@%s ([activity](%s))", user, searchURL))
	}
	md = append(md, strings.Join(links, " | "), "")

	return strings.Join(md, "\n")
}

func renderItems(items []model.ActivityItem, ignore IgnorePredicate, opts RenderOptions, head string) []string {
	orgs := map[string]struct{}{}
	for _, item := range items {
		orgs[item.Org] = struct{}{}
	}

	var lines []string
	appendGroup := func(group []model.ActivityItem) {
		for _, item := range group {
			lines = append(lines, itemLine(item, ignore, opts.StripBrackets))
		}
	}

	if len(orgs) <= 1 {
		appendGroup(items)
		return lines
	}

	// Group under per-org subheadings, preserving first-seen org order.
	var order []string
	grouped := map[string][]model.ActivityItem{}
	for _, item := range items {
		if _, ok := grouped[item.Org]; !ok {
			order = append(order, item.Org)
		}
		grouped[item.Org] = append(grouped[item.Org], item)
	}
	for _, org := range order {
		lines = append(lines, fmt.Sprintf("%s## %s", head, org), "")
		appendGroup(grouped[org])
	}
	return lines
}

func itemLine(item model.ActivityItem, ignore IgnorePredicate, stripBrackets bool) string {
	title := item.Title
	if stripBrackets {
		trimmed := strings.TrimSpace(title)
		if strings.HasPrefix(trimmed, "[") {
			if _, rest, ok := strings.Cut(title, "]"); ok {
				title = strings.TrimSpace(rest)
			}
		}
	}

	var links []string
	for _, user := range item.Contributors {
		if ignore != nil && ignore(user) {
			continue
		}
		links = append(links, fmt.Sprintf("[@%s](https://github.com/%s)", user, user))
	}
	return fmt.Sprintf("- %s [#%d](%s) (%s)", title, item.Number, item.URL, strings.Join(links, ", "))
}

// compareRef resolves one window bound to the label shown in the report
// heading and the git reference used in the compare URL. Ref-derived
// bounds pass through verbatim. Date-derived bounds are labeled with
// branch@{date} syntax and anchored to the merge commit of the merged PR
// closed nearest the bound, falling back to the label itself when no
// merged PR is in range.
func compareRef(bound time.Time, isRef bool, label string, closedPRs []model.ActivityItem, branch string) (string, string) {
	if isRef {
		return label, label
	}

	refBranch := branch
	if refBranch == "" {
		refBranch = "main"
	}
	placeholder := fmt.Sprintf("%s@{%s}", refBranch, bound.Format("2006-01-02"))

	ref := placeholder
	var best time.Duration
	found := false
	for _, pr := range closedPRs {
		if pr.ClosedAt == nil || pr.MergeCommitOID == "" {
			continue
		}
		delta := pr.ClosedAt.Sub(bound)
		if delta < 0 {
			delta = -delta
		}
		if !found || delta < best {
			ref = pr.MergeCommitOID
			best = delta
			found = true
		}
	}
	return placeholder, ref
}
