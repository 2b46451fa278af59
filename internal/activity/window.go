package activity

import (
	"context"
	"time"

	"github.com/araddon/dateparse"

	"github.com/spiffcs/activity/internal/log"
	"github.com/spiffcs/activity/internal/model"
)

// RefDater resolves a git reference within a repository to the committer
// date of the commit it points at.
type RefDater interface {
	CommitDate(ctx context.Context, org, repo, ref string) (time.Time, error)
}

// WindowResolver turns user-supplied window bounds into concrete
// timestamps. A bound is probed as a git reference first; when that
// fails it is parsed as a date in any common format.
type WindowResolver struct {
	refs RefDater
}

// NewWindowResolver returns a resolver backed by the given ref dater,
// which may be nil for date-only resolution.
func NewWindowResolver(refs RefDater) *WindowResolver {
	return &WindowResolver{refs: refs}
}

// Resolve converts one window bound to a timestamp and reports whether
// the value resolved as a git reference. An empty value means "now".
func (r *WindowResolver) Resolve(ctx context.Context, target model.Target, value string) (time.Time, bool, error) {
	if value == "" {
		return time.Now().UTC(), false, nil
	}

	if r.refs != nil && target.Repo != "" {
		if ts, err := r.refs.CommitDate(ctx, target.Org, target.Repo, value); err == nil {
			log.Debug("resolved window bound as ref", "value", value, "date", ts.Format(time.RFC3339))
			return ts.UTC(), true, nil
		}
	}

	ts, err := dateparse.ParseAny(value)
	if err != nil {
		return time.Time{}, false, &InvalidWindowError{Value: value}
	}
	return ts.UTC(), false, nil
}

// ResolveWindow resolves both bounds into a Window. The labels keep the
// original user-supplied strings so the renderer can show them verbatim;
// an empty until bound is labeled with the resolved date.
func (r *WindowResolver) ResolveWindow(ctx context.Context, target model.Target, since, until string) (model.Window, error) {
	sinceTime, sinceIsRef, err := r.Resolve(ctx, target, since)
	if err != nil {
		return model.Window{}, err
	}
	untilTime, untilIsRef, err := r.Resolve(ctx, target, until)
	if err != nil {
		return model.Window{}, err
	}

	untilLabel := until
	if untilLabel == "" {
		untilLabel = untilTime.Format("2006-01-02")
	}

	return model.Window{
		Since:      sinceTime,
		Until:      untilTime,
		SinceIsRef: sinceIsRef,
		UntilIsRef: untilIsRef,
		SinceLabel: since,
		UntilLabel: untilLabel,
	}, nil
}
