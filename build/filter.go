/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2019-2026 Wind River Systems, Inc. */

package build

import (
	"github.com/samber/lo"

	"github.com/crowbar/node-inventory/nic"
)

// Filter defines an interface from which concrete report filters can be
// defined.  The purpose of a filter is to look at a given report and remove
// any entries that are not necessary or relevant to the report consumer.
type Filter interface {
	Filter(report *Report) error
}

// LoopbackFilter defines a filter which removes the loopback device from the
// live interfaces since it is present on every node and never configured by
// the inventory.
type LoopbackFilter struct {
}

func NewLoopbackFilter() *LoopbackFilter {
	return &LoopbackFilter{}
}

func (in *LoopbackFilter) Filter(report *Report) error {
	report.Nics = lo.Filter(report.Nics, func(info NicInfo, _ int) bool {
		return !info.Loopback
	})

	return nil
}

// VirtualInterfaceFilter defines a filter which removes plain devices that
// are not physical interfaces (tap, veth, dummy devices and the like).
// Bonds, bridges and VLANs are kept since the inventory creates those.
type VirtualInterfaceFilter struct {
}

func NewVirtualInterfaceFilter() *VirtualInterfaceFilter {
	return &VirtualInterfaceFilter{}
}

func (in *VirtualInterfaceFilter) Filter(report *Report) error {
	report.Nics = lo.Filter(report.Nics, func(info NicInfo, _ int) bool {
		return info.Kind != nic.KindPlain || info.Physical
	})

	return nil
}

// RemovableDiskFilter defines a filter which removes block devices that can
// never be claimed: removable media, block storage volumes and devices
// without media.
type RemovableDiskFilter struct {
}

func NewRemovableDiskFilter() *RemovableDiskFilter {
	return &RemovableDiskFilter{}
}

func (in *RemovableDiskFilter) Filter(report *Report) error {
	report.BlockDevices = lo.Filter(report.BlockDevices, func(info BlockDeviceInfo, _ int) bool {
		return info.Fixed
	})

	return nil
}

// UnclaimedDiskFilter defines a filter which keeps only the block devices
// held by an owner, for reports that are only interested in the claims.
type UnclaimedDiskFilter struct {
}

func NewUnclaimedDiskFilter() *UnclaimedDiskFilter {
	return &UnclaimedDiskFilter{}
}

func (in *UnclaimedDiskFilter) Filter(report *Report) error {
	report.BlockDevices = lo.Filter(report.BlockDevices, func(info BlockDeviceInfo, _ int) bool {
		return info.Owner != ""
	})

	return nil
}
