// Package activity implements the changelog pipeline: it resolves query
// windows, normalizes raw platform records, classifies issue and PR
// activity into changelog sections, attributes contributors, and renders
// the markdown report.
package activity

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNoActivity is the "no content" outcome: nothing matched the query,
// or a filtering stage emptied the working set. It is not a failure; the
// caller renders nothing and the multi-release driver skips the pair.
var ErrNoActivity = errors.New("no activity found")

// ErrInvalidTarget reports a target string that is not an org, org/repo,
// or a recognized GitHub URL.
var ErrInvalidTarget = errors.New("invalid target")

// InvalidWindowError reports a window bound that is neither a resolvable
// git reference nor a parseable date.
type InvalidWindowError struct {
	Value string
}

func (e *InvalidWindowError) Error() string {
	return fmt.Sprintf("%q not found as a git ref or valid date format", e.Value)
}

// UnknownCategoryError reports a requested tag category outside the known
// set. This is a configuration error and aborts the run.
type UnknownCategoryError struct {
	Key   string
	Known []string
}

func (e *UnknownCategoryError) Error() string {
	return fmt.Sprintf("unsupported tag category %q, must be one of: %s", e.Key, strings.Join(e.Known, ", "))
}

// FetchError wraps a failure from the fetch collaborator. The pipeline
// never retries it; the run is aborted.
type FetchError struct {
	Query string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("activity query %q failed: %v", e.Query, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
