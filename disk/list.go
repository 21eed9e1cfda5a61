/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package disk

import (
	"github.com/samber/lo"

	"github.com/crowbar/node-inventory/platform"
)

// All returns every block device recorded for the node, in name order.
func All(node *platform.NodeInfo, devRoot string) []*Disk {
	return lo.Map(node.BlockDeviceNames(), func(name string, _ int) *Disk {
		return New(node, name, devRoot)
	})
}

// FixedDisks returns the fixed disks of the node.
func FixedDisks(node *platform.NodeInfo, devRoot string) []*Disk {
	return lo.Filter(All(node, devRoot), func(d *Disk, _ int) bool {
		return d.Fixed()
	})
}

// Unclaimed returns the fixed disks nobody holds.
func Unclaimed(node *platform.NodeInfo, devRoot string) []*Disk {
	return lo.Filter(FixedDisks(node, devRoot), func(d *Disk, _ int) bool {
		return d.Owner() == ""
	})
}

// Claimed returns the disks held by 'owner'.
func Claimed(node *platform.NodeInfo, devRoot string, owner string) []*Disk {
	return lo.Filter(All(node, devRoot), func(d *Disk, _ int) bool {
		return d.Owner() == owner
	})
}
