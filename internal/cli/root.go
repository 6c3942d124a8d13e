// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version information, set by main from build flags.
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Execute runs the command tree against os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "docchat",
		Short: "Chat with a document-grounded AI service from the terminal",
		Long: "docchat talks to a document question-answering service. Without a " +
			"subcommand it opens a full-screen client with several named " +
			"conversations; ask, chat and health work on plain terminals and pipes.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runTUI(cmd, opts)
		},
	}
	rootCmd.SetVersionTemplate(fmt.Sprintf("docchat %s (commit %s, built %s)\n", Version, GitCommit, BuildDate))

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ~/.docchat/config.toml)")
	flags.StringVar(&opts.baseURL, "base-url", "", "chat service base URL (overrides api.base_url)")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "log at debug level")

	rootCmd.AddCommand(
		newAskCmd(opts),
		newChatCmd(opts),
		newHealthCmd(opts),
		newConfigCmd(opts),
		newDevServerCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "docchat %s\ncommit: %s\nbuilt:  %s\n", Version, GitCommit, BuildDate)
			return err
		},
	}
}
