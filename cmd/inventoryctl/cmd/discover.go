/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package cmd

import (
	"fmt"

	perrors "github.com/pkg/errors"
	"github.com/spf13/cobra"
	"k8s.io/utils/exec"

	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/discovery"
	"github.com/crowbar/node-inventory/metrics"
)

const (
	DryRunArg   = "dry-run"
	TextfileArg = "textfile"
)

// DiscoverCmdRun refreshes the automatic attributes of the node.  Detectors
// that succeed are recorded even if others fail.
func DiscoverCmdRun(cmd *cobra.Command, args []string) error {
	dryRun, _ := cmd.Flags().GetBool(DryRunArg)
	textfile, _ := cmd.Flags().GetString(TextfileArg)

	node, err := openNode(cmd)
	if err != nil {
		return err
	}

	d := discovery.New(utils.GetString(utils.SysfsRootKey), utils.GetString(utils.DevRootKey), exec.New())

	runErr := d.Run(node)
	if runErr != nil {
		setupLog.Error(runErr, "discovery is incomplete", "node", node.Name)
	}

	if !dryRun {
		if err := node.Save(); err != nil {
			return perrors.Wrap(err, "failed to save discovered attributes")
		}
	}

	if utils.IsFeatureEnabled(utils.Metrics) {
		if textfile == "" {
			textfile = utils.GetFeatureOptionString(utils.Metrics, utils.Textfile, "")
		}
		if err := metrics.WriteTextfile(textfile, node, utils.GetString(utils.DevRootKey)); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%d interfaces, %d block devices\n",
		len(node.DetectedInterfaces()), len(node.BlockDeviceNames()))

	return runErr
}

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "Record the hardware of the node in its attribute store",
	Args:  cobra.NoArgs,
	RunE:  DiscoverCmdRun,
}

func init() {
	discoverCmd.Flags().Bool(DryRunArg, false, "do not save the discovered attributes")
	discoverCmd.Flags().String(TextfileArg, "", "metrics textfile, overrides the configured path")
	rootCmd.AddCommand(discoverCmd)
}
