/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package cmd

import (
	"fmt"

	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/crowbar/node-inventory/build"
	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/disk"
)

const (
	UnclaimedArg = "unclaimed"
	OwnerArg     = "owner"
)

// DisksCmdRun prints the block devices of the node.
func DisksCmdRun(cmd *cobra.Command, args []string) error {
	unclaimed, _ := cmd.Flags().GetBool(UnclaimedArg)
	owner, _ := cmd.Flags().GetString(OwnerArg)

	node, err := openNode(cmd)
	if err != nil {
		return err
	}

	disks := build.DescribeDisks(node, utils.GetString(utils.DevRootKey))
	disks = lo.Filter(disks, func(info build.BlockDeviceInfo, _ int) bool {
		switch {
		case unclaimed:
			return info.Fixed && info.Owner == ""
		case owner != "":
			return info.Owner == owner
		}
		return true
	})

	return printYAML(cmd, disks)
}

// ClaimCmdRun claims a disk for an owner.  Claiming a disk the owner already
// holds succeeds.
func ClaimCmdRun(cmd *cobra.Command, args []string) error {
	owner, device := args[0], args[1]

	node, err := openNode(cmd)
	if err != nil {
		return err
	}

	devRoot := utils.GetString(utils.DevRootKey)
	d := disk.New(node, disk.DeviceName(devRoot, device), devRoot)

	if !d.Claim(owner) {
		return fmt.Errorf("disk %s is claimed by %s", d.UniqueName(), d.Owner())
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s claimed by %s\n", d.UniqueName(), owner)

	return nil
}

// ReleaseCmdRun releases a disk held by an owner.
func ReleaseCmdRun(cmd *cobra.Command, args []string) error {
	owner, device := args[0], args[1]

	node, err := openNode(cmd)
	if err != nil {
		return err
	}

	devRoot := utils.GetString(utils.DevRootKey)
	d := disk.New(node, disk.DeviceName(devRoot, device), devRoot)

	if !d.Release(owner) {
		return fmt.Errorf("disk %s is not claimed by %s", d.UniqueName(), owner)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s released by %s\n", d.UniqueName(), owner)

	return nil
}

var disksCmd = &cobra.Command{
	Use:   "disks",
	Short: "Display the block devices of the node",
	Args:  cobra.NoArgs,
	RunE:  DisksCmdRun,
}

var claimCmd = &cobra.Command{
	Use:   "claim OWNER DEVICE",
	Short: "Claim a disk for an owner",
	Args:  cobra.ExactArgs(2),
	RunE:  ClaimCmdRun,
}

var releaseCmd = &cobra.Command{
	Use:   "release OWNER DEVICE",
	Short: "Release a disk held by an owner",
	Args:  cobra.ExactArgs(2),
	RunE:  ReleaseCmdRun,
}

func init() {
	disksCmd.Flags().Bool(UnclaimedArg, false, "only display fixed disks nobody holds")
	disksCmd.Flags().String(OwnerArg, "", "only display disks held by this owner")
	rootCmd.AddCommand(disksCmd)
	rootCmd.AddCommand(claimCmd)
	rootCmd.AddCommand(releaseCmd)
}
