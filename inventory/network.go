/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

// Package inventory resolves a node's configured networks and disks: it
// maps physical interfaces to stable designators, resolves conduits to the
// interfaces or bonds carrying them and exposes Network and DiskInfo value
// objects built from the node's attributes.
package inventory

import (
	"fmt"

	logf "sigs.k8s.io/controller-runtime/pkg/log"

	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/platform"
)

var log = logf.Log.WithName("inventory")

// Network is a network the node is attached to together with the interface
// that carries it.
type Network struct {
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Broadcast string `json:"broadcast,omitempty"`
	MAC       string `json:"mac,omitempty"`
	Netmask   string `json:"netmask,omitempty"`
	Subnet    string `json:"subnet,omitempty"`
	Router    string `json:"router,omitempty"`
	Usage     string `json:"usage,omitempty"`
	VLAN      int    `json:"vlan,omitempty"`
	UseVLAN   bool   `json:"use_vlan"`
	AddBridge bool   `json:"add_bridge"`
	Conduit   string `json:"conduit,omitempty"`
	// Interface is the device the network is configured on; the VLAN
	// sub-interface of BaseInterface when UseVLAN is set.
	Interface string `json:"interface,omitempty"`
	// BaseInterface is the member interface or bond carrying the conduit.
	BaseInterface string   `json:"base_interface,omitempty"`
	InterfaceList []string `json:"interface_list,omitempty"`
	TeamMode      string   `json:"team_mode,omitempty"`
}

func newNetwork(name string, config *platform.NetworkConfig, info InterfaceInfo) Network {
	network := Network{
		Name:          name,
		Address:       config.Address,
		Broadcast:     config.Broadcast,
		MAC:           config.MAC,
		Netmask:       config.Netmask,
		Subnet:        config.Subnet,
		Router:        config.Router,
		Usage:         config.Usage,
		VLAN:          config.VLAN,
		UseVLAN:       config.UseVLAN,
		AddBridge:     config.AddBridge,
		Conduit:       config.Conduit,
		BaseInterface: info.Interface,
		Interface:     info.Interface,
		InterfaceList: info.InterfaceList,
		TeamMode:      info.TeamMode,
	}

	if network.UseVLAN && network.BaseInterface != "" {
		network.Interface = fmt.Sprintf("%s.%d", network.BaseInterface, network.VLAN)
	}

	return network
}

// resolveNetwork resolves the conduit of a single network and records any
// newly assigned bond immediately so that later networks sharing the same
// interfaces reuse it.
func resolveNetwork(node *platform.NodeInfo, name string, nodeMap map[string]Conduit) (Network, bool) {
	config, ok := node.NetworkConfig(name)
	if !ok {
		return Network{}, false
	}

	info := LookupInterfaceInfo(node, config.Conduit, nodeMap)
	if err := PersistBond(node, info); err != nil {
		// The in-memory bond list already holds the assignment so the pass
		// continues; the failure has been logged.
		log.V(1).Info("continuing with unsaved bond assignment", "network", name)
	}

	return newNetwork(name, config, info), true
}

// ListNetworks returns every network the node is attached to, in name order.
// Bonds assigned along the way are persisted as a side effect.
func ListNetworks(node *platform.NodeInfo) []Network {
	nodeMap := BuildNodeMap(node)

	result := make([]Network, 0)
	for _, name := range node.NetworkNames() {
		if network, ok := resolveNetwork(node, name, nodeMap); ok {
			result = append(result, network)
		}
	}

	return result
}

// GetNetworkByType returns the first network (in name order) whose usage
// equals 'usage'.  If there is none the admin network is returned instead.
// The second return value is false if neither exists.  Only the returned
// network is resolved, so no bond is assigned for other conduits.
func GetNetworkByType(node *platform.NodeInfo, usage string) (*Network, bool) {
	names := node.NetworkNames()

	for _, want := range []string{usage, utils.AdminNetworkUsage} {
		for _, name := range names {
			config, ok := node.NetworkConfig(name)
			if !ok || config.Usage != want {
				continue
			}

			network, ok := resolveNetwork(node, name, BuildNodeMap(node))
			if !ok {
				return nil, false
			}
			return &network, true
		}
	}

	return nil, false
}
