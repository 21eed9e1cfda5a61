/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package nic

import (
	"github.com/vishvananda/netlink"
)

// VlanConfig is one entry of the kernel's VLAN configuration table.
type VlanConfig struct {
	Name   string
	VID    int
	Parent string
}

// Sysfs defines the per-device attribute view of the network devices on the
// system.  Attribute names are paths relative to the device directory, e.g.
// "ifindex", "bonding/slaves" or "brport/bridge".
type Sysfs interface {
	// ListDevices returns the names of all network devices.
	ListDevices() ([]string, error)
	// Exists returns whether the named network device exists.
	Exists(name string) bool
	// ReadAttr returns the trimmed content of a device attribute.
	ReadAttr(name, attr string) (string, error)
	// WriteAttr writes a device attribute.
	WriteAttr(name, attr, value string) error
	// HasAttr returns whether a device attribute is present.
	HasAttr(name, attr string) bool
	// ReadLinkAttr returns the base name of the target of a symlink
	// attribute, e.g. the master of a bond slave.
	ReadLinkAttr(name, attr string) (string, error)
	// ListAttrDir returns the valid entries of a directory attribute, e.g.
	// the ports of a bridge under "brif".
	ListAttrDir(name, attr string) ([]string, error)
	// BondingMasters returns the bonds known to the bonding driver.
	BondingMasters() ([]string, error)
	// IsVlan returns whether the named device is a VLAN sub-interface.
	IsVlan(name string) bool
	// VlanConfig returns the kernel VLAN configuration table.
	VlanConfig() ([]VlanConfig, error)
}

// LinkControl defines the operations that change the live state of the
// network devices on the system.
type LinkControl interface {
	Addresses(name string) ([]netlink.Addr, error)
	AddAddress(name string, addr netlink.Addr) error
	RemoveAddress(name string, addr netlink.Addr) error
	FlushAddresses(name string) error
	Routes(name string) ([]netlink.Route, error)
	AddRoute(name string, route netlink.Route) error
	FlushRoutes(name string) error

	SetUp(name string) error
	SetDown(name string) error
	SetMTU(name string, mtu int) error
	SetOffload(name, feature string, on bool) error
	SetMaster(name, master string) error
	SetNoMaster(name string) error

	AddBond(name string) error
	AddBridge(name string) error
	AddVlan(parent string, vid int) error
	DeleteLink(name string) error

	ModuleLoaded(module string) bool
	LoadModule(module string) error
}

// VSwitch defines the Open vSwitch operations.
type VSwitch interface {
	OvsAvailable() bool
	OvsBridgeExists(name string) bool
	OvsBridgeOf(port string) (string, bool)
	OvsPorts(bridge string) ([]string, error)
	OvsAddBridge(name string) error
	OvsDeleteBridge(name string) error
	OvsAddPort(bridge, port string) error
	OvsDeletePort(bridge, port string) error
}

// System is the complete operating system surface used by the live
// interface control layer.
type System interface {
	Sysfs
	LinkControl
	VSwitch
}
