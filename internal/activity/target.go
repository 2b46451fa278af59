package activity

import (
	"fmt"
	"strings"

	"github.com/spiffcs/activity/internal/model"
)

// ParseTarget interprets a target string as an org, an org/repo pair, or
// a GitHub URL in either https or ssh form. A bare org yields a Target
// with an empty Repo, which widens queries to every repository the org
// owns.
func ParseTarget(s string) (model.Target, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return model.Target{}, fmt.Errorf("%w: empty target", ErrInvalidTarget)
	}

	path := raw
	switch {
	case strings.HasPrefix(raw, "http://"), strings.HasPrefix(raw, "https://"):
		trimmed := strings.TrimPrefix(strings.TrimPrefix(raw, "https://"), "http://")
		host, rest, ok := strings.Cut(trimmed, "/")
		if !ok || host == "" {
			return model.Target{}, fmt.Errorf("%w: %q", ErrInvalidTarget, raw)
		}
		path = rest
	case strings.Contains(raw, "@") && strings.Contains(raw, ":"):
		// ssh form, e.g. git@github.com:org/repo.git
		_, rest, _ := strings.Cut(raw, ":")
		path = rest
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	if path == "" {
		return model.Target{}, fmt.Errorf("%w: %q", ErrInvalidTarget, raw)
	}

	parts := strings.Split(path, "/")
	switch len(parts) {
	case 1:
		return model.Target{Org: parts[0]}, nil
	case 2:
		if parts[0] == "" || parts[1] == "" {
			return model.Target{}, fmt.Errorf("%w: %q", ErrInvalidTarget, raw)
		}
		return model.Target{Org: parts[0], Repo: parts[1]}, nil
	default:
		return model.Target{}, fmt.Errorf("%w: %q has too many path segments", ErrInvalidTarget, raw)
	}
}
