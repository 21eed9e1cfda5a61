/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package cmd

import (
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"k8s.io/utils/exec"

	"github.com/crowbar/node-inventory/build"
	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/nic"
)

const AllArg = "all"

func openRegistry() (*nic.Registry, func(), error) {
	sys, err := nic.NewLinuxSystem(utils.GetString(utils.SysfsRootKey), utils.GetString(utils.ProcRootKey), exec.New())
	if err != nil {
		return nil, nil, err
	}
	return nic.NewRegistry(sys), sys.Close, nil
}

// NicsCmdRun prints the live network devices in the order they must be
// brought up.
func NicsCmdRun(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool(AllArg)

	node, err := openNode(cmd)
	if err != nil {
		return err
	}

	registry, closer, err := openRegistry()
	if err != nil {
		return err
	}
	defer closer()

	nics, err := build.DescribeNics(registry, node)
	if err != nil {
		return err
	}

	if !all {
		nics = lo.Filter(nics, func(info build.NicInfo, _ int) bool {
			return !info.Loopback
		})
	}

	return printYAML(cmd, nics)
}

var nicsCmd = &cobra.Command{
	Use:   "nics",
	Short: "Display the live network devices of the node",
	Args:  cobra.NoArgs,
	RunE:  NicsCmdRun,
}

func init() {
	nicsCmd.Flags().Bool(AllArg, false, "include the loopback device")
	rootCmd.AddCommand(nicsCmd)
}
