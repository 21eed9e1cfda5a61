/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2020-2026 Wind River Systems, Inc. */

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version info variables are set in the Makefile
var GitLastTag string
var GitHead string
var GitBranch string
var GitPatch string

func VersionToString() string {
	if GitPatch == "" {
		return fmt.Sprintf("%s (%s: %s)", GitLastTag, GitBranch, GitHead)
	}
	return fmt.Sprintf("%s-%s (%s: %s)", GitLastTag, GitPatch, GitBranch, GitHead)
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Display version information",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil
	},
	Run: func(cmd *cobra.Command, args []string) {
		_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Version: %s\n", VersionToString())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
