// Package cache persists fetched activity on disk so reports can be
// re-rendered or inspected without refetching.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spiffcs/activity/internal/log"
	"github.com/spiffcs/activity/internal/model"
)

// Version identifies the on-disk format. Entries written with a
// different version are discarded on read.
const Version = 1

// entry is the on-disk payload for one org/repo and kind.
type entry struct {
	Version  int                  `json:"version"`
	CachedAt time.Time            `json:"cachedAt"`
	Items    []model.ActivityItem `json:"items"`
}

// RepoStats summarizes the cached activity for one repository.
type RepoStats struct {
	Org           string
	Repo          string
	Issues        int
	PullRequests  int
	LastUpdatedAt time.Time
}

// Cache stores normalized activity items grouped by repository and kind.
type Cache struct {
	dir string
}

// NewCache opens the cache under the user cache directory.
func NewCache() (*Cache, error) {
	cacheDir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return At(filepath.Join(cacheDir, "activity"))
}

// At opens a cache rooted at dir, creating it if needed.
func At(dir string) (*Cache, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir}, nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) fileFor(org, repo string, kind model.Kind) string {
	name := fmt.Sprintf("%s_%s_%s.json", org, repo, kind)
	// Org-wide fetches can produce repo names with unexpected characters
	name = strings.ReplaceAll(name, string(filepath.Separator), "_")
	return filepath.Join(c.dir, name)
}

// Put merges items into the cache. Items are grouped by repository and
// kind; within each file an incoming item replaces any cached record
// with the same URL.
func (c *Cache) Put(items []model.ActivityItem) error {
	type group struct {
		org, repo string
		kind      model.Kind
	}
	grouped := map[group][]model.ActivityItem{}
	for _, item := range items {
		g := group{org: item.Org, repo: item.Repo, kind: item.Kind}
		grouped[g] = append(grouped[g], item)
	}

	for g, incoming := range grouped {
		path := c.fileFor(g.org, g.repo, g.kind)

		existing, err := c.read(path)
		if err != nil && !os.IsNotExist(err) {
			log.Debug("discarding unreadable cache file", "path", path, "error", err)
		}

		byURL := make(map[string]int, len(existing))
		merged := make([]model.ActivityItem, 0, len(existing)+len(incoming))
		for _, item := range existing {
			byURL[item.URL] = len(merged)
			merged = append(merged, item)
		}
		for _, item := range incoming {
			if ix, ok := byURL[item.URL]; ok {
				merged[ix] = item
				continue
			}
			byURL[item.URL] = len(merged)
			merged = append(merged, item)
		}

		data, err := json.MarshalIndent(entry{
			Version:  Version,
			CachedAt: time.Now().UTC(),
			Items:    merged,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal cache entry: %w", err)
		}
		if err := os.WriteFile(path, data, 0600); err != nil {
			return fmt.Errorf("failed to write cache file: %w", err)
		}
	}
	return nil
}

// Get returns every cached item for one repository, issues then PRs.
func (c *Cache) Get(org, repo string) ([]model.ActivityItem, error) {
	var items []model.ActivityItem
	for _, kind := range []model.Kind{model.KindIssue, model.KindPullRequest} {
		cached, err := c.read(c.fileFor(org, repo, kind))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, err
		}
		items = append(items, cached...)
	}
	return items, nil
}

func (c *Cache) read(path string) ([]model.ActivityItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var e entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, fmt.Errorf("failed to parse cache file %s: %w", path, err)
	}
	if e.Version != Version {
		log.Debug("cache version mismatch", "cached", e.Version, "current", Version, "path", path)
		return nil, nil
	}
	return e.Items, nil
}

// Stats summarizes the cache contents per repository, sorted by
// org/repo.
func (c *Cache) Stats() ([]RepoStats, error) {
	files, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return nil, err
	}

	byRepo := map[string]*RepoStats{}
	for _, path := range files {
		parts := strings.SplitN(strings.TrimSuffix(filepath.Base(path), ".json"), "_", 3)
		if len(parts) != 3 {
			continue
		}
		org, repo, kind := parts[0], parts[1], parts[2]

		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var e entry
		if err := json.Unmarshal(data, &e); err != nil {
			continue
		}

		key := org + "/" + repo
		stats, ok := byRepo[key]
		if !ok {
			stats = &RepoStats{Org: org, Repo: repo}
			byRepo[key] = stats
		}
		switch model.Kind(kind) {
		case model.KindIssue:
			stats.Issues += len(e.Items)
		case model.KindPullRequest:
			stats.PullRequests += len(e.Items)
		}
		if e.CachedAt.After(stats.LastUpdatedAt) {
			stats.LastUpdatedAt = e.CachedAt
		}
	}

	out := make([]RepoStats, 0, len(byRepo))
	for _, stats := range byRepo {
		out = append(out, *stats)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Org != out[j].Org {
			return out[i].Org < out[j].Org
		}
		return out[i].Repo < out[j].Repo
	})
	return out, nil
}

// Clear removes every cached file.
func (c *Cache) Clear() error {
	files, err := filepath.Glob(filepath.Join(c.dir, "*.json"))
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove cache file: %w", err)
		}
	}
	log.Debug("cache cleared", "files", len(files))
	return nil
}
