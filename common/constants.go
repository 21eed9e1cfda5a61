/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2023-2026 Wind River Systems, Inc. */

package common

// Top level attribute namespaces
const AttrCrowbar = "crowbar"
const AttrCrowbarWall = "crowbar_wall"
const AttrCrowbarOhai = "crowbar_ohai"
const AttrNetwork = "network"
const AttrBlockDevice = "block_device"
const AttrDMI = "dmi"
const AttrRoles = "roles"
const AttrPlatform = "platform"
const AttrPlatformVersion = "platform_version"
const AttrIPAddress = "ipaddress"
const AttrUEFI = "uefi"

// Second level attribute names
const AttrBondList = "bond_list"
const AttrDisks = "disks"
const AttrClaimedDisks = "claimed_disks"
const AttrOwner = "owner"
const AttrDetected = "detected"
const AttrAddrs = "addrs"
const AttrNets = "nets"
const AttrMode = "mode"
const AttrInterfaceMap = "interface_map"
const AttrConduitMap = "conduit_map"
const AttrSystem = "system"

// Network usage that is used when no network of the requested usage exists.
const AdminNetworkUsage = "admin"

// Speed assumed for interfaces without a detected speed list.
const DefaultInterfaceSpeed = "1g"

// Rank given to interfaces which do not match any bus order entry.
const NoBusIndex = 999

// Default bond parameters; mode 6 is balance-alb.
const DefaultBondMode = 6
const DefaultBondMiimon = 100

// Valid VLAN id range.
const MinVlanID = 1
const MaxVlanID = 4094
