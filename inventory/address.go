/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package inventory

import (
	"fmt"
	"net"
	"strings"

	"github.com/samber/lo"
	"github.com/vishvananda/netlink"

	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/nic"
	"github.com/crowbar/node-inventory/platform"
)

// parseAddr accepts "a.b.c.d", "a.b.c.d/len" and "a.b.c.d/netmask" forms as
// well as their IPv6 equivalents.  A bare address is a host address.
func parseAddr(value string) (*netlink.Addr, error) {
	value = strings.TrimSpace(value)

	if !strings.Contains(value, "/") {
		ip := net.ParseIP(value)
		if ip == nil {
			return nil, utils.NewInvalidArgument(fmt.Sprintf("invalid address %q", value))
		}
		if ip.To4() != nil {
			value += "/32"
		} else {
			value += "/128"
		}
	}

	parts := strings.SplitN(value, "/", 2)
	if mask := net.ParseIP(parts[1]); mask != nil && mask.To4() != nil {
		ones, bits := net.IPMask(mask.To4()).Size()
		if bits == 0 {
			return nil, utils.NewInvalidArgument(fmt.Sprintf("invalid netmask %q", parts[1]))
		}
		value = fmt.Sprintf("%s/%d", parts[0], ones)
	}

	addr, err := netlink.ParseAddr(value)
	if err != nil {
		return nil, utils.NewInvalidArgument(fmt.Sprintf("invalid address %q", value))
	}

	return addr, nil
}

func matchesFamily(addr *netlink.Addr, family int) bool {
	switch family {
	case netlink.FAMILY_V4:
		return utils.IsIPv4(addr.IP.String())
	case netlink.FAMILY_V6:
		return utils.IsIPv6(addr.IP.String())
	default:
		return true
	}
}

// NodeAddresses returns the addresses recorded on the node for a network,
// restricted to an address family (netlink.FAMILY_V4, netlink.FAMILY_V6 or
// netlink.FAMILY_ALL).  Unparsable entries are skipped.
func NodeAddresses(node *platform.NodeInfo, network string, family int) []*netlink.Addr {
	values := node.GetStringList(utils.AttrCrowbarWall, utils.AttrNetwork, utils.AttrAddrs, network)

	return lo.FilterMap(values, func(value string, _ int) (*netlink.Addr, bool) {
		addr, err := parseAddr(value)
		if err != nil {
			log.V(1).Info("skipping address", "node", node.Name, "network", network, "error", err.Error())
			return nil, false
		}
		return addr, matchesFamily(addr, family)
	})
}

// NodeAddress returns the first address of the node on a network.  Without a
// recorded address the configured network address and netmask are used,
// then the node's primary address.
func NodeAddress(node *platform.NodeInfo, network string, family int) (*netlink.Addr, bool) {
	if addrs := NodeAddresses(node, network, family); len(addrs) > 0 {
		return addrs[0], true
	}

	address := node.GetString(utils.AttrNetwork, network, "address")
	netmask := node.GetString(utils.AttrNetwork, network, "netmask")
	if address != "" && netmask != "" {
		if addr, err := parseAddr(address + "/" + netmask); err == nil {
			return addr, true
		}
	}

	if primary := node.GetString(utils.AttrIPAddress); primary != "" {
		if addr, err := parseAddr(primary); err == nil {
			return addr, true
		}
	}

	return nil, false
}

// NodeInterfaces returns the live devices recorded on the node for a
// network.  Devices missing from the system are skipped.
func NodeInterfaces(node *platform.NodeInfo, network string, reg *nic.Registry) []nic.Nic {
	values := node.GetStringList(utils.AttrCrowbarWall, utils.AttrNetwork, utils.AttrNets, network)

	return lo.FilterMap(values, func(name string, _ int) (nic.Nic, bool) {
		n, err := reg.Get(name)
		if err != nil {
			log.V(1).Info("skipping interface", "node", node.Name, "network", network, "error", err.Error())
			return nil, false
		}
		return n, true
	})
}

// NodeInterface returns the topmost device carrying a network, i.e. the last
// one recorded.
func NodeInterface(node *platform.NodeInfo, network string, reg *nic.Registry) (nic.Nic, bool) {
	nics := NodeInterfaces(node, network, reg)
	if len(nics) == 0 {
		return nil, false
	}
	return nics[len(nics)-1], true
}
