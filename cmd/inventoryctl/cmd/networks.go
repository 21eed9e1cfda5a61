/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/crowbar/node-inventory/inventory"
)

const UsageArg = "usage"

// NetworksCmdRun prints the networks of the node with the interfaces that
// carry them.  Bonds needed by the networks are allocated and saved.
func NetworksCmdRun(cmd *cobra.Command, args []string) error {
	usage, _ := cmd.Flags().GetString(UsageArg)

	node, err := openNode(cmd)
	if err != nil {
		return err
	}

	if usage != "" {
		network, found := inventory.GetNetworkByType(node, usage)
		if !found {
			return fmt.Errorf("no network for usage %q", usage)
		}
		return printYAML(cmd, network)
	}

	return printYAML(cmd, inventory.ListNetworks(node))
}

// BondsCmdRun prints the allocated bonds of the node.
func BondsCmdRun(cmd *cobra.Command, args []string) error {
	node, err := openNode(cmd)
	if err != nil {
		return err
	}

	return printYAML(cmd, node.BondList())
}

var networksCmd = &cobra.Command{
	Use:   "networks",
	Short: "Display the networks of the node",
	Args:  cobra.NoArgs,
	RunE:  NetworksCmdRun,
}

var bondsCmd = &cobra.Command{
	Use:   "bonds",
	Short: "Display the bonds allocated for the node",
	Args:  cobra.NoArgs,
	RunE:  BondsCmdRun,
}

func init() {
	networksCmd.Flags().String(UsageArg, "", "only display the network with this usage, or admin")
	rootCmd.AddCommand(networksCmd)
	rootCmd.AddCommand(bondsCmd)
}
