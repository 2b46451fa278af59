package cmd

import (
	"github.com/spf13/cobra"
)

// New creates the root command with all subcommands registered.
func New() *cobra.Command {
	opts := &Options{}

	rootCmd := &cobra.Command{
		Use:   "activity [target]",
		Short: "Generate a markdown changelog of GitHub activity",
		Long: `A CLI tool that grabs recent issue and pull request activity for a
GitHub org or repository and renders it as a categorized markdown
changelog with contributor attribution.

The target may be an org (jupyter), an org/repo pair (jupyter/notebook),
or a GitHub URL. When omitted, the target is detected from the git
remotes of the current directory.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, opts)
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	addGenerateFlags(rootCmd, opts)

	rootCmd.AddCommand(NewCmdConfig())
	rootCmd.AddCommand(NewCmdCache())
	rootCmd.AddCommand(NewCmdVersion())

	return rootCmd
}
