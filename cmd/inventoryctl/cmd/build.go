/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2019-2026 Wind River Systems, Inc. */

package cmd

import (
	"io"
	"os"

	perrors "github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/crowbar/node-inventory/build"
	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/nic"
)

const (
	OutputFileNameArg = "output-file"
	NoLiveArg         = "no-live"
	PhysicalOnlyArg   = "physical-only"
	ClaimedOnlyArg    = "claimed-only"
)

// BuildCmdRun builds the inventory report of the node.
func BuildCmdRun(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	outputFilename, _ := flags.GetString(OutputFileNameArg)
	noLive, _ := flags.GetBool(NoLiveArg)
	physicalOnly, _ := flags.GetBool(PhysicalOnlyArg)
	claimedOnly, _ := flags.GetBool(ClaimedOnlyArg)

	node, err := openNode(cmd)
	if err != nil {
		return err
	}

	var registry *nic.Registry
	if !noLive {
		var closer func()
		registry, closer, err = openRegistry()
		if err != nil {
			return err
		}
		defer closer()
	}

	builder := build.NewReportBuilder(node, registry, utils.GetString(utils.DevRootKey), cmd.ErrOrStderr())

	filters := make([]build.Filter, 0)
	if physicalOnly {
		filters = append(filters, build.NewVirtualInterfaceFilter())
	}
	if claimedOnly {
		filters = append(filters, build.NewUnclaimedDiskFilter())
	}
	builder.AddFilters(filters)

	report, err := builder.Build()
	if err != nil {
		return perrors.Wrap(err, "failed to build inventory report")
	}

	data, err := report.ToYAML()
	if err != nil {
		return err
	}

	var out io.Writer = cmd.OutOrStdout()
	if outputFilename != "" {
		file, err := os.Create(outputFilename)
		if err != nil {
			return perrors.Wrap(err, "failed to open output file")
		}
		defer file.Close()
		out = file
	}

	_, err = io.WriteString(out, data)
	return err
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build an inventory report of the node",
	Args:  cobra.NoArgs,
	RunE:  BuildCmdRun,
}

func init() {
	buildCmd.Flags().StringP(OutputFileNameArg, "o", "", "output file, standard output by default")
	buildCmd.Flags().Bool(NoLiveArg, false, "leave the live network devices out of the report")
	buildCmd.Flags().Bool(PhysicalOnlyArg, false, "only report physical plain devices")
	buildCmd.Flags().Bool(ClaimedOnlyArg, false, "only report claimed disks")
	rootCmd.AddCommand(buildCmd)
}
