package activity

import (
	"strings"
	"testing"

	"github.com/spiffcs/activity/internal/model"
)

func renderTarget() model.Target {
	return model.Target{Org: "jupyter", Repo: "notebook"}
}

func mergedPR(id string, number int, oid string, closedDay int, contributors ...string) model.ActivityItem {
	item := makeTestItem(id, model.KindPullRequest, number, &itemOpts{
		state:    model.StateMerged,
		closedAt: closedOn(closedDay),
		mergeOID: oid,
	})
	item.Contributors = contributors
	return item
}

func TestRenderHeadingAndCompareURL(t *testing.T) {
	w := testWindow()
	b := &Buckets{
		ClosedPRs:   []model.ActivityItem{mergedPR("p1", 1, "abc123", 2, "alice"), mergedPR("p2", 2, "def456", 30, "bob")},
		Others:      []model.ActivityItem{mergedPR("p1", 1, "abc123", 2, "alice"), mergedPR("p2", 2, "def456", 30, "bob")},
		OthersTitle: "Merged PRs",
	}

	t.Run("date-derived bounds use branch placeholders and nearest merge commits", func(t *testing.T) {
		md := Render(renderTarget(), w, b, nil, nil, RenderOptions{HeadingLevel: 1})

		if !strings.HasPrefix(md, "# main@{2019-09-01}...main@{2019-11-01}") {
			t.Errorf("unexpected heading: %q", strings.SplitN(md, "\n", 2)[0])
		}
		// p1 closed Oct 2 is nearest the since bound, p2 closed Oct 30
		// nearest the until bound
		if !strings.Contains(md, "https://github.com/jupyter/notebook/compare/abc123...def456") {
			t.Errorf("compare URL missing or wrong:\n%s", md)
		}
	})

	t.Run("custom branch appears in placeholders", func(t *testing.T) {
		md := Render(renderTarget(), w, b, nil, nil, RenderOptions{HeadingLevel: 1, Branch: "master"})
		if !strings.Contains(md, "master@{2019-09-01}") {
			t.Errorf("expected master placeholder:\n%s", md)
		}
	})

	t.Run("ref-derived bounds pass through verbatim", func(t *testing.T) {
		refWindow := w
		refWindow.SinceIsRef = true
		refWindow.SinceLabel = "v1.0.0"
		refWindow.UntilIsRef = true
		refWindow.UntilLabel = "v1.1.0"

		md := Render(renderTarget(), refWindow, b, nil, nil, RenderOptions{HeadingLevel: 1})
		if !strings.HasPrefix(md, "# v1.0.0...v1.1.0") {
			t.Errorf("unexpected heading: %q", strings.SplitN(md, "\n", 2)[0])
		}
		if !strings.Contains(md, "compare/v1.0.0...v1.1.0") {
			t.Errorf("compare URL should use the literal refs:\n%s", md)
		}
	})

	t.Run("no merged PRs falls back to placeholder refs", func(t *testing.T) {
		empty := &Buckets{OthersTitle: "Merged PRs"}
		md := Render(renderTarget(), w, empty, nil, nil, RenderOptions{HeadingLevel: 1})
		if !strings.Contains(md, "compare/main@{2019-09-01}...main@{2019-11-01}") {
			t.Errorf("expected placeholder compare URL:\n%s", md)
		}
	})

	t.Run("heading level indents every heading", func(t *testing.T) {
		md := Render(renderTarget(), w, b, nil, nil, RenderOptions{HeadingLevel: 2})
		if !strings.HasPrefix(md, "## ") {
			t.Errorf("expected level-2 heading, got %q", strings.SplitN(md, "\n", 2)[0])
		}
		if !strings.Contains(md, "### Merged PRs") {
			t.Errorf("section headings should shift with the top level:\n%s", md)
		}
	})
}

func TestRenderItemLines(t *testing.T) {
	w := testWindow()

	t.Run("item line format", func(t *testing.T) {
		pr := mergedPR("p1", 17, "abc", 5, "alice", "bob")
		pr.Title = "Fix the widget"
		pr.URL = "https://github.com/jupyter/notebook/pull/17"
		b := &Buckets{ClosedPRs: []model.ActivityItem{pr}, Others: []model.ActivityItem{pr}, OthersTitle: "Merged PRs"}

		md := Render(renderTarget(), w, b, nil, nil, RenderOptions{HeadingLevel: 1})
		want := "- Fix the widget [#17](https://github.com/jupyter/notebook/pull/17) ([@alice](https://github.com/alice), [@bob](https://github.com/bob))"
		if !strings.Contains(md, want) {
			t.Errorf("missing item line %q in:\n%s", want, md)
		}
	})

	t.Run("bracket stripping", func(t *testing.T) {
		pr := mergedPR("p1", 1, "abc", 5, "alice")
		pr.Title = " [docs] Improve the intro"
		b := &Buckets{ClosedPRs: []model.ActivityItem{pr}, Others: []model.ActivityItem{pr}, OthersTitle: "Merged PRs"}

		md := Render(renderTarget(), w, b, nil, nil, RenderOptions{HeadingLevel: 1, StripBrackets: true})
		if !strings.Contains(md, "- Improve the intro [#1]") {
			t.Errorf("bracket prefix should be stripped:\n%s", md)
		}
	})

	t.Run("titles without bracket prefix are untouched", func(t *testing.T) {
		pr := mergedPR("p1", 1, "abc", 5, "alice")
		pr.Title = "Keep [inner] markers"
		b := &Buckets{ClosedPRs: []model.ActivityItem{pr}, Others: []model.ActivityItem{pr}, OthersTitle: "Merged PRs"}

		md := Render(renderTarget(), w, b, nil, nil, RenderOptions{HeadingLevel: 1, StripBrackets: true})
		if !strings.Contains(md, "- Keep [inner] markers [#1]") {
			t.Errorf("non-leading brackets should survive:\n%s", md)
		}
	})

	t.Run("ignored users dropped from contributor links", func(t *testing.T) {
		pr := mergedPR("p1", 1, "abc", 5, "alice", "renovate-bot")
		b := &Buckets{ClosedPRs: []model.ActivityItem{pr}, Others: []model.ActivityItem{pr}, OthersTitle: "Merged PRs"}

		ignore := NewIgnorePredicate(model.BotSet{}, nil)
		md := Render(renderTarget(), w, b, nil, ignore, RenderOptions{HeadingLevel: 1})
		if strings.Contains(md, "renovate-bot") {
			t.Errorf("ignored user should not be linked:\n%s", md)
		}
	})
}

func TestRenderSections(t *testing.T) {
	w := testWindow()
	pr := mergedPR("p1", 1, "abc", 5, "alice")
	issue := makeTestItem("i1", model.KindIssue, 2, &itemOpts{closedAt: closedOn(6)})
	issue.Contributors = []string{"bob"}
	openedPR := makeTestItem("p2", model.KindPullRequest, 3, nil)
	openedPR.Contributors = []string{"carol"}

	b := &Buckets{
		ClosedPRs:    []model.ActivityItem{pr},
		ClosedIssues: []model.ActivityItem{issue},
		OpenedPRs:    []model.ActivityItem{openedPR},
		Others:       []model.ActivityItem{pr},
		OthersTitle:  "Merged PRs",
	}

	t.Run("issue and opened sections are opt-in", func(t *testing.T) {
		md := Render(renderTarget(), w, b, nil, nil, RenderOptions{HeadingLevel: 1})
		if strings.Contains(md, "## Closed issues") || strings.Contains(md, "## Opened PRs") {
			t.Errorf("optional sections should be absent by default:\n%s", md)
		}

		md = Render(renderTarget(), w, b, nil, nil, RenderOptions{HeadingLevel: 1, IncludeIssues: true, IncludeOpened: true})
		for _, section := range []string{"## Merged PRs", "## Closed issues", "## Opened PRs"} {
			if !strings.Contains(md, section) {
				t.Errorf("missing section %q:\n%s", section, md)
			}
		}
	})

	t.Run("empty sections are omitted", func(t *testing.T) {
		md := Render(renderTarget(), w, b, nil, nil, RenderOptions{HeadingLevel: 1, IncludeIssues: true, IncludeOpened: true})
		if strings.Contains(md, "## Opened issues") {
			t.Errorf("empty opened-issues section should be omitted:\n%s", md)
		}
	})

	t.Run("category sections appear in precedence order", func(t *testing.T) {
		bugPR := mergedPR("p9", 9, "xyz", 7, "dana")
		withTags := &Buckets{
			ClosedPRs: []model.ActivityItem{pr, bugPR},
			Tagged: []CategoryBucket{
				{Category: Category{Key: "new", Description: "New features added"}},
				{Category: Category{Key: "bug", Description: "Bugs fixed"}, Items: []model.ActivityItem{bugPR}},
			},
			Others:      []model.ActivityItem{pr},
			OthersTitle: "Other merged PRs",
		}

		md := Render(renderTarget(), w, withTags, nil, nil, RenderOptions{HeadingLevel: 1})
		if strings.Contains(md, "## New features added") {
			t.Errorf("empty category section should be omitted:\n%s", md)
		}
		bugIx := strings.Index(md, "## Bugs fixed")
		othersIx := strings.Index(md, "## Other merged PRs")
		if bugIx == -1 || othersIx == -1 || bugIx > othersIx {
			t.Errorf("sections out of order:\n%s", md)
		}
	})
}

func TestRenderMultiOrgGrouping(t *testing.T) {
	w := testWindow()
	pr1 := mergedPR("p1", 1, "abc", 5, "alice")
	pr2 := mergedPR("p2", 2, "def", 6, "bob")
	pr2.Org = "jupyterhub"
	pr2.Repo = "oauthenticator"

	b := &Buckets{
		ClosedPRs:   []model.ActivityItem{pr1, pr2},
		Others:      []model.ActivityItem{pr1, pr2},
		OthersTitle: "Merged PRs",
	}

	md := Render(model.Target{Org: "jupyter"}, w, b, nil, nil, RenderOptions{HeadingLevel: 1})
	if !strings.Contains(md, "## jupyter\n") || !strings.Contains(md, "## jupyterhub\n") {
		t.Errorf("expected per-org subheadings:\n%s", md)
	}

	// Each org heading should be followed by that org's items only.
	jupyterIx := strings.Index(md, "## jupyter\n")
	hubIx := strings.Index(md, "## jupyterhub\n")
	p1Ix := strings.Index(md, "[#1]")
	p2Ix := strings.Index(md, "[#2]")
	if !(jupyterIx < p1Ix && p1Ix < hubIx && hubIx < p2Ix) {
		t.Errorf("items grouped under wrong org:\n%s", md)
	}
}

func TestRenderContributorsSection(t *testing.T) {
	w := testWindow()
	b := &Buckets{OthersTitle: "Merged PRs"}

	md := Render(renderTarget(), w, b, []string{"alice", "Bob"}, nil, RenderOptions{HeadingLevel: 1})

	if !strings.Contains(md, "## Contributors to this release") {
		t.Fatalf("missing contributors heading:\n%s", md)
	}
	if !strings.Contains(md, "https://github.com/jupyter/notebook/graphs/contributors?from=2019-09-01&to=2019-11-01&type=c") {
		t.Errorf("missing contributors graph link:\n%s", md)
	}
	wantLink := "@alice ([activity](https://github.com/search?q=repo%3Ajupyter%2Fnotebook+involves%3Aalice+updated%3A2019-09-01..2019-11-01&type=Issues))"
	if !strings.Contains(md, wantLink) {
		t.Errorf("missing involves link %q:\n%s", wantLink, md)
	}
	if !strings.Contains(md, "| @Bob") {
		t.Errorf("contributor links should be pipe-joined:\n%s", md)
	}
}

func TestRenderSingleMergedPRAnchorsBothBounds(t *testing.T) {
	w := testWindow()
	mid := w.Since.Add(w.Until.Sub(w.Since) / 2)
	pr := makeTestItem("p1", model.KindPullRequest, 1, &itemOpts{state: model.StateMerged, mergeOID: "abc123"})
	pr.ClosedAt = &mid
	pr.Contributors = []string{"alice"}
	b := &Buckets{ClosedPRs: []model.ActivityItem{pr}, Others: []model.ActivityItem{pr}, OthersTitle: "Merged PRs"}

	md := Render(renderTarget(), w, b, nil, nil, RenderOptions{HeadingLevel: 1})
	if !strings.Contains(md, "compare/abc123...abc123") {
		t.Errorf("single merged PR should anchor both bounds:\n%s", md)
	}
}
