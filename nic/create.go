/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package nic

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"k8s.io/apimachinery/pkg/util/wait"

	utils "github.com/crowbar/node-inventory/common"
)

// Kernel modules backing the composite devices.
const (
	BondingModule = "bonding"
	BridgeModule  = "bridge"
	VlanModule    = "8021q"
)

// createBackoff bounds the wait for the kernel to materialize a newly
// created device.
var createBackoff = wait.Backoff{
	Duration: 100 * time.Millisecond,
	Factor:   1,
	Steps:    5,
}

func ensureModule(sys System, module string) error {
	if sys.ModuleLoaded(module) {
		return nil
	}

	log.Info("loading kernel module", "module", module)

	return sys.LoadModule(module)
}

// waitFor polls until the named device appears and returns it.
func waitFor(reg *Registry, name string, kind Kind) (Nic, error) {
	err := wait.ExponentialBackoff(createBackoff, func() (bool, error) {
		return reg.Exists(name), nil
	})
	if err != nil {
		if wait.Interrupted(err) {
			return nil, utils.NewDeviceTimeout(name, string(kind))
		}
		return nil, err
	}

	return reg.Get(name)
}

// CreateBond creates a bond with the given mode and link monitoring
// interval.  Loading the bonding driver creates a default bond which is
// removed again.
func CreateBond(reg *Registry, name string, mode, miimon int) (*Bond, error) {
	sys := reg.System()

	if sys.Exists(name) {
		return nil, utils.NewDeviceExists(name)
	}

	if !sys.ModuleLoaded(BondingModule) {
		if err := ensureModule(sys, BondingModule); err != nil {
			return nil, err
		}

		masters, err := sys.BondingMasters()
		if err != nil {
			return nil, err
		}

		for _, master := range masters {
			log.V(1).Info("removing default bond", "bond", master)
			if err := sys.DeleteLink(master); err != nil {
				return nil, err
			}
		}
	}

	log.Info("creating bond", "bond", name, "mode", mode, "miimon", miimon)

	if err := sys.AddBond(name); err != nil {
		return nil, err
	}

	n, err := waitFor(reg, name, KindBond)
	if err != nil {
		return nil, err
	}

	bond, ok := n.(*Bond)
	if !ok {
		return nil, utils.NewInvalidArgument(fmt.Sprintf("%s is a %s, not a bond", name, n.Kind()))
	}

	if err := bond.SetMode(mode); err != nil {
		return nil, err
	}

	if err := bond.SetMiimon(miimon); err != nil {
		return nil, err
	}

	return bond, nil
}

// CreateBridge creates a Linux bridge, adds the given ports and brings it up.
func CreateBridge(reg *Registry, name string, slaves []Nic) (*Bridge, error) {
	sys := reg.System()

	if sys.Exists(name) {
		return nil, utils.NewDeviceExists(name)
	}

	if err := ensureModule(sys, BridgeModule); err != nil {
		return nil, err
	}

	log.Info("creating bridge", "bridge", name)

	if err := sys.AddBridge(name); err != nil {
		return nil, err
	}

	n, err := waitFor(reg, name, KindBridge)
	if err != nil {
		return nil, err
	}

	bridge, ok := n.(*Bridge)
	if !ok {
		return nil, utils.NewInvalidArgument(fmt.Sprintf("%s is a %s, not a bridge", name, n.Kind()))
	}

	for _, slave := range slaves {
		if err := bridge.AddSlave(slave); err != nil {
			return nil, err
		}
	}

	if err := bridge.Up(); err != nil {
		return nil, err
	}

	return bridge, nil
}

// CreateOvsBridge creates an Open vSwitch bridge, attaches the given devices
// and brings it up.
func CreateOvsBridge(reg *Registry, name string, slaves []Nic) (*OvsBridge, error) {
	sys := reg.System()

	if !sys.OvsAvailable() {
		return nil, utils.NewInvalidArgument("open vswitch is not installed")
	}

	if sys.Exists(name) {
		return nil, utils.NewDeviceExists(name)
	}

	log.Info("creating vswitch bridge", "bridge", name)

	if err := sys.OvsAddBridge(name); err != nil {
		return nil, err
	}

	n, err := waitFor(reg, name, KindOvsBridge)
	if err != nil {
		return nil, err
	}

	bridge, ok := n.(*OvsBridge)
	if !ok {
		return nil, utils.NewInvalidArgument(fmt.Sprintf("%s is a %s, not a vswitch bridge", name, n.Kind()))
	}

	for _, slave := range slaves {
		if err := bridge.AddSlave(slave); err != nil {
			return nil, err
		}
	}

	if err := bridge.Up(); err != nil {
		return nil, err
	}

	return bridge, nil
}

// CreateVlan creates the VLAN sub-interface 'vid' on parent.  The parent is
// brought up first and the new sub-interface after it.
func CreateVlan(reg *Registry, parent Nic, vid int) (*Vlan, error) {
	if vid < utils.MinVlanID || vid > utils.MaxVlanID {
		return nil, utils.NewInvalidArgument(fmt.Sprintf("vlan id %d out of range %d-%d",
			vid, utils.MinVlanID, utils.MaxVlanID))
	}

	sys := reg.System()
	name := VlanName(parent.Name(), vid)

	if sys.Exists(name) {
		return nil, utils.NewDeviceExists(name)
	}

	if !sys.Exists(parent.Name()) {
		return nil, utils.NewDeviceNotFound(parent.Name())
	}

	if err := ensureModule(sys, VlanModule); err != nil {
		return nil, err
	}

	if err := parent.Up(); err != nil {
		return nil, err
	}

	log.Info("creating vlan", "vlan", name, "parent", parent.Name(), "vid", vid)

	if err := sys.AddVlan(parent.Name(), vid); err != nil {
		return nil, err
	}

	n, err := waitFor(reg, name, KindVlan)
	if err != nil {
		return nil, err
	}

	vlan, ok := n.(*Vlan)
	if !ok {
		return nil, utils.NewInvalidArgument(fmt.Sprintf("%s is a %s, not a vlan", name, n.Kind()))
	}

	if err := vlan.Up(); err != nil {
		return nil, err
	}

	return vlan, nil
}

// FindBond returns the bond whose slaves are exactly the given devices, in
// any order.
func FindBond(reg *Registry, slaves []Nic) (*Bond, bool, error) {
	want := lo.Map(slaves, func(n Nic, _ int) string { return n.Name() })

	nics, err := reg.all()
	if err != nil {
		return nil, false, err
	}

	for _, n := range nics {
		bond, ok := n.(*Bond)
		if !ok {
			continue
		}

		members, err := bond.Slaves()
		if err != nil {
			return nil, false, err
		}

		have := lo.Map(members, func(n Nic, _ int) string { return n.Name() })
		if !utils.ListChanged(have, want) {
			return bond, true, nil
		}
	}

	return nil, false, nil
}
