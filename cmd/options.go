package cmd

// Options holds the shared command-line options for the activity CLI.
type Options struct {
	Target string
	Since  string
	Until  string
	Kind   string
	Auth   string
	Output string
	Branch string

	Tags                []string
	IgnoredContributors []string

	IncludeIssues bool
	IncludeOpened bool
	StripBrackets bool
	HeadingLevel  int

	// Generate one entry per release tag instead of a single window
	All        bool
	TagPattern string

	// Store fetched activity in the local cache
	Cache bool

	Verbosity int
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options with defaults and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{
		HeadingLevel: 1,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithTarget sets the org or org/repo to report on.
func WithTarget(target string) Option {
	return func(o *Options) {
		o.Target = target
	}
}

// WithSince sets the start of the window (date or git ref).
func WithSince(since string) Option {
	return func(o *Options) {
		o.Since = since
	}
}

// WithUntil sets the end of the window (date or git ref).
func WithUntil(until string) Option {
	return func(o *Options) {
		o.Until = until
	}
}

// WithKind restricts the report to "issue" or "pr".
func WithKind(kind string) Option {
	return func(o *Options) {
		o.Kind = kind
	}
}

// WithTags restricts the report to the given category keys.
func WithTags(tags []string) Option {
	return func(o *Options) {
		o.Tags = tags
	}
}

// WithBranch restricts merged PRs to the given base branch.
func WithBranch(branch string) Option {
	return func(o *Options) {
		o.Branch = branch
	}
}

// WithHeadingLevel sets the top markdown heading level.
func WithHeadingLevel(level int) Option {
	return func(o *Options) {
		o.HeadingLevel = level
	}
}

// WithOutput sets the output file path (default stdout).
func WithOutput(path string) Option {
	return func(o *Options) {
		o.Output = path
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}
