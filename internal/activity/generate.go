package activity

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/spiffcs/activity/internal/github"
	"github.com/spiffcs/activity/internal/log"
	"github.com/spiffcs/activity/internal/model"
)

// DefaultTagPattern matches conventional semver release tags with an
// optional leading v. The first capture group becomes the release
// heading.
const DefaultTagPattern = `(v?\d+\.\d+\.\d+)$`

// Fetcher runs one search query against the platform and returns every
// matching raw node across all pages.
type Fetcher interface {
	Search(ctx context.Context, query string) ([]github.Node, error)
}

// TagLister enumerates a repository's tags, newest first.
type TagLister interface {
	ListTags(ctx context.Context, org, repo string) ([]github.Tag, error)
}

// ReleaseDater reports the publish date and tag name of the latest
// release.
type ReleaseDater interface {
	LatestReleaseDate(ctx context.Context, org, repo string) (time.Time, string, error)
}

// Source is the full platform surface the generator needs. A
// github.Client satisfies it.
type Source interface {
	Fetcher
	RefDater
	TagLister
	ReleaseDater
}

// Store receives fetched items for later offline inspection.
type Store interface {
	Put(items []model.ActivityItem) error
}

// Options configure one changelog entry.
type Options struct {
	// Window bounds, each a git ref or a date; empty since defaults to
	// the latest release, empty until to now
	Since string
	Until string
	// Restrict the search to "issue" or "pr", empty for both
	Kind string
	// Category keys to report, nil for all
	Tags []string

	IncludeIssues bool
	IncludeOpened bool
	StripBrackets bool
	HeadingLevel  int
	Branch        string

	IgnoredContributors []string
	Thresholds          Thresholds
}

// Generator runs the changelog pipeline against a platform source.
type Generator struct {
	source Source
	store  Store
}

// NewGenerator returns a generator reading from src.
func NewGenerator(src Source) *Generator {
	return &Generator{source: src}
}

// SetStore attaches an optional sink that receives every fetched item.
func (g *Generator) SetStore(s Store) {
	g.store = s
}

// Entry generates the markdown changelog for a single window. It
// returns ErrNoActivity when nothing matched the query or the branch
// filter emptied the result.
func (g *Generator) Entry(ctx context.Context, target string, opts Options) (string, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return "", err
	}

	switch opts.Kind {
	case "", string(model.KindIssue), string(model.KindPullRequest):
	default:
		return "", fmt.Errorf("kind must be %q or %q, got %q", model.KindIssue, model.KindPullRequest, opts.Kind)
	}

	since := opts.Since
	if since == "" {
		date, tag, err := g.source.LatestReleaseDate(ctx, t.Org, t.Repo)
		if err != nil {
			return "", fmt.Errorf("no --since given and the latest release could not be determined: %w", err)
		}
		log.Info("using latest release as window start", "tag", tag, "published", date.Format("2006-01-02"))
		since = tag
	}

	resolver := NewWindowResolver(g.source)
	window, err := resolver.ResolveWindow(ctx, t, since, opts.Until)
	if err != nil {
		return "", err
	}

	nodes, bots, err := g.fetch(ctx, t, opts.Kind, window)
	if err != nil {
		return "", err
	}

	items := Normalize(nodes)

	if g.store != nil && len(items) > 0 {
		if err := g.store.Put(items); err != nil {
			log.Warn("could not store fetched activity", "error", err)
		}
	}

	if len(items) == 0 {
		return "", ErrNoActivity
	}

	categories, err := SelectCategories(opts.Tags)
	if err != nil {
		return "", err
	}

	ignore := NewIgnorePredicate(bots, opts.IgnoredContributors)
	agg := NewAggregator(ignore, opts.Thresholds)
	// Attribution runs over the full window, before the branch filter,
	// so cross-item comment statistics are not distorted by it.
	for i := range items {
		items[i].Contributors = agg.ItemContributors(&items[i])
	}

	buckets, err := Classify(items, window, opts.Branch, categories)
	if err != nil {
		return "", err
	}
	for _, pr := range buckets.ClosedPRs {
		agg.AddReportable(pr)
	}

	md := Render(t, window, buckets, agg.ReleaseContributors(), ignore, RenderOptions{
		HeadingLevel:  opts.HeadingLevel,
		IncludeIssues: opts.IncludeIssues,
		IncludeOpened: opts.IncludeOpened,
		StripBrackets: opts.StripBrackets,
		Branch:        opts.Branch,
	})
	return md, nil
}

// fetch runs the created and closed searches concurrently and
// concatenates the results in a fixed order so later dedup is
// deterministic. Bot identities are detected per batch and returned as
// an explicit side value; they must be carried through every later
// merge step.
func (g *Generator) fetch(ctx context.Context, t model.Target, kind string, w model.Window) ([]github.Node, model.BotSet, error) {
	base := fmt.Sprintf("repo:%s/%s", t.Org, t.Repo)
	if t.Repo == "" {
		base = fmt.Sprintf("user:%s", t.Org)
	}
	if kind != "" {
		base += fmt.Sprintf(" type:%s", kind)
	}

	const stamp = "2006-01-02T15:04:05Z"
	activityTypes := []string{"created", "closed"}
	results := make([][]github.Node, len(activityTypes))

	eg, egCtx := errgroup.WithContext(ctx)
	for i, activityType := range activityTypes {
		query := fmt.Sprintf("%s %s:%s..%s", base, activityType, w.Since.UTC().Format(stamp), w.Until.UTC().Format(stamp))
		log.Info("running search query", "query", query)
		eg.Go(func() error {
			nodes, err := g.source.Search(egCtx, query)
			if err != nil {
				return &FetchError{Query: query, Err: err}
			}
			results[i] = nodes
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, nil, err
	}

	bots := model.BotSet{}
	var all []github.Node
	for _, nodes := range results {
		bots.Union(DetectBots(nodes))
		all = append(all, nodes...)
	}
	return all, bots, nil
}

// GenerateAll generates one changelog entry per release: it enumerates
// the repository's tags, keeps those matching pattern, and runs the
// single-window pipeline for each adjacent pair. Pairs with no activity
// are skipped; any other failure aborts.
func (g *Generator) GenerateAll(ctx context.Context, target, pattern string, opts Options) (string, error) {
	t, err := ParseTarget(target)
	if err != nil {
		return "", err
	}
	if t.Repo == "" {
		return "", fmt.Errorf("%w: a full org/repo target is required to enumerate release tags", ErrInvalidTarget)
	}

	if pattern == "" {
		pattern = DefaultTagPattern
	}
	// Anchor at the start to mirror prefix matching on tag names.
	re, err := regexp.Compile("^(?:" + pattern + ")")
	if err != nil {
		return "", fmt.Errorf("invalid tag pattern %q: %w", pattern, err)
	}

	tags, err := g.source.ListTags(ctx, t.Org, t.Repo)
	if err != nil {
		return "", fmt.Errorf("listing tags for %s: %w", t, err)
	}

	var releases []github.Tag
	for _, tag := range tags {
		if re.MatchString(tag.Name) {
			releases = append(releases, tag)
		}
	}
	if len(releases) < 2 {
		log.Warn("need at least two matching release tags to build a changelog", "matched", len(releases))
		return "", nil
	}
	log.Info("generating changelog entries", "releases", len(releases)-1)

	var out strings.Builder
	for i := 0; i < len(releases)-1; i++ {
		newer, older := releases[i], releases[i+1]

		entryOpts := opts
		entryOpts.Since = older.SHA
		entryOpts.Until = newer.SHA
		entryOpts.HeadingLevel = 2

		entry, err := g.Entry(ctx, target, entryOpts)
		if err != nil {
			if IsNoActivity(err) {
				log.Debug("no activity between releases", "since", older.Name, "until", newer.Name)
				continue
			}
			return "", err
		}

		// Drop the window heading, the release tag becomes the heading.
		if _, body, ok := strings.Cut(entry, "\n"); ok {
			entry = body
		}
		fmt.Fprintf(&out, "\n## %s\n%s\n", releaseLabel(re, newer.Name), entry)
	}
	return out.String(), nil
}

// releaseLabel extracts the version portion of a tag name using the
// pattern's first capture group when one is present.
func releaseLabel(re *regexp.Regexp, name string) string {
	m := re.FindStringSubmatch(name)
	if len(m) > 1 && m[1] != "" {
		return m[1]
	}
	return name
}
