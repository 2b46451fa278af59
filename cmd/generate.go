package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/spiffcs/activity/config"
	"github.com/spiffcs/activity/internal/activity"
	"github.com/spiffcs/activity/internal/cache"
	"github.com/spiffcs/activity/internal/github"
	"github.com/spiffcs/activity/internal/log"
)

// addGenerateFlags adds the changelog flags to a command.
func addGenerateFlags(cmd *cobra.Command, opts *Options) {
	cmd.Flags().StringVarP(&opts.Target, "target", "t", "", "GitHub org or org/repo (default: detected from git remotes)")
	cmd.Flags().StringVarP(&opts.Since, "since", "s", "", "Activity since this date or git ref (default: latest release)")
	cmd.Flags().StringVarP(&opts.Until, "until", "u", "", "Activity until this date or git ref (default: now)")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "Only return issues or PRs (issue, pr)")
	cmd.Flags().StringVar(&opts.Auth, "auth", "", "GitHub access token (default: GITHUB_ACCESS_TOKEN, GITHUB_TOKEN, or gh cli)")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "Write the markdown to this file (default: stdout)")
	cmd.Flags().StringSliceVar(&opts.Tags, "tags", nil, "Only include these activity categories")
	cmd.Flags().BoolVar(&opts.IncludeIssues, "include-issues", false, "Include closed issues as well as merged PRs")
	cmd.Flags().BoolVar(&opts.IncludeOpened, "include-opened", false, "Include opened issues and PRs")
	cmd.Flags().BoolVar(&opts.StripBrackets, "strip-brackets", false, "Strip leading [tag] markers from titles")
	cmd.Flags().IntVar(&opts.HeadingLevel, "heading-level", 1, "Top heading level for the markdown output")
	cmd.Flags().StringVarP(&opts.Branch, "branch", "b", "", "Only report PRs merged into this branch")
	cmd.Flags().BoolVar(&opts.All, "all", false, "Generate one changelog entry per release tag")
	cmd.Flags().StringVar(&opts.TagPattern, "tag-pattern", "", "Regexp selecting release tags for --all (default: semver)")
	cmd.Flags().StringSliceVar(&opts.IgnoredContributors, "ignore-contributor", nil, "Contributors to exclude (glob patterns allowed)")
	cmd.Flags().BoolVar(&opts.Cache, "cache", false, "Store fetched activity in the local cache")
	cmd.Flags().CountVarP(&opts.Verbosity, "verbose", "v", "Increase verbosity (-v info, -vv debug)")
}

func runGenerate(cmd *cobra.Command, args []string, opts *Options) error {
	log.Initialize(opts.Verbosity, os.Stderr)
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	applyConfig(cmd, opts, cfg)

	target := opts.Target
	if len(args) > 0 {
		target = args[0]
	}
	if target == "" {
		target, err = detectTarget()
		if err != nil {
			return err
		}
		log.Info("detected target from git remotes", "target", target)
	}

	token, err := config.GetToken(opts.Auth)
	if err != nil {
		return err
	}

	client, err := github.NewClient(ctx, token)
	if err != nil {
		return err
	}

	generator := activity.NewGenerator(client)
	if opts.Cache {
		store, err := cache.NewCache()
		if err != nil {
			return fmt.Errorf("failed to open cache: %w", err)
		}
		generator.SetStore(store)
	}

	genOpts := activity.Options{
		Since:               opts.Since,
		Until:               opts.Until,
		Kind:                opts.Kind,
		Tags:                opts.Tags,
		IncludeIssues:       opts.IncludeIssues,
		IncludeOpened:       opts.IncludeOpened,
		StripBrackets:       opts.StripBrackets,
		HeadingLevel:        opts.HeadingLevel,
		Branch:              opts.Branch,
		IgnoredContributors: opts.IgnoredContributors,
		Thresholds:          cfg.GetThresholds(),
	}

	var md string
	if opts.All {
		md, err = generator.GenerateAll(ctx, target, opts.TagPattern, genOpts)
	} else {
		md, err = generator.Entry(ctx, target, genOpts)
	}
	if err != nil {
		if activity.IsNoActivity(err) {
			color.New(color.FgYellow).Fprintf(os.Stderr, "No activity found for %s in this window.\n", target)
			return nil
		}
		return err
	}
	if md == "" {
		return nil
	}

	return writeOutput(md, opts.Output)
}

// applyConfig fills options from the config file for flags the user did
// not set explicitly.
func applyConfig(cmd *cobra.Command, opts *Options, cfg *config.Config) {
	flags := cmd.Flags()
	if !flags.Changed("target") && cfg.Target != "" {
		opts.Target = cfg.Target
	}
	if !flags.Changed("branch") && cfg.Branch != "" {
		opts.Branch = cfg.Branch
	}
	if !flags.Changed("heading-level") && cfg.HeadingLevel != 0 {
		opts.HeadingLevel = cfg.HeadingLevel
	}
	if !flags.Changed("tags") && len(cfg.Tags) > 0 {
		opts.Tags = cfg.Tags
	}
	if !flags.Changed("ignore-contributor") && len(cfg.IgnoredContributors) > 0 {
		opts.IgnoredContributors = cfg.IgnoredContributors
	}
	if !flags.Changed("tag-pattern") && cfg.TagPattern != "" {
		opts.TagPattern = cfg.TagPattern
	}
	if !flags.Changed("include-issues") && cfg.IncludeIssues != nil {
		opts.IncludeIssues = *cfg.IncludeIssues
	}
	if !flags.Changed("include-opened") && cfg.IncludeOpened != nil {
		opts.IncludeOpened = *cfg.IncludeOpened
	}
	if !flags.Changed("strip-brackets") && cfg.StripBrackets != nil {
		opts.StripBrackets = *cfg.StripBrackets
	}
}

// detectTarget reads the git remotes of the current directory and picks
// one to report on, preferring upstream over origin over anything else.
func detectTarget() (string, error) {
	out, err := exec.Command("git", "remote", "-v").Output()
	if err != nil {
		return "", fmt.Errorf("no target given and git remotes could not be read (run inside a repository or pass a target): %w", err)
	}

	remotes := map[string]string{}
	var order []string
	for _, line := range strings.Split(string(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if _, ok := remotes[fields[0]]; !ok {
			remotes[fields[0]] = fields[1]
			order = append(order, fields[0])
		}
	}
	if len(remotes) == 0 {
		return "", fmt.Errorf("no target given and no git remotes found")
	}

	for _, name := range []string{"upstream", "origin"} {
		if url, ok := remotes[name]; ok {
			return url, nil
		}
	}
	return remotes[order[0]], nil
}

func writeOutput(md, path string) error {
	if path == "" {
		fmt.Println(md)
		return nil
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(md), 0644); err != nil {
		return fmt.Errorf("failed to write output file: %w", err)
	}
	color.New(color.FgGreen).Fprintf(os.Stderr, "Finished writing markdown to %s\n", path)
	return nil
}
