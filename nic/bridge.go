/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package nic

import (
	"strconv"

	utils "github.com/crowbar/node-inventory/common"
)

const (
	bridgePortsAttr   = "brif"
	bridgeStpAttr     = "bridge/stp_state"
	bridgeForwardAttr = "bridge/forward_delay"
)

// Bridge is a Linux bridge.
type Bridge struct {
	base
}

var _ Master = &Bridge{}

// Slaves returns the ports of the bridge.
func (in *Bridge) Slaves() ([]Nic, error) {
	names, err := in.sys().ListAttrDir(in.name, bridgePortsAttr)
	if err != nil {
		return nil, err
	}
	return in.reg.lookup(names)
}

func (in *Bridge) ports() []string {
	names, err := in.sys().ListAttrDir(in.name, bridgePortsAttr)
	if err != nil {
		return []string{}
	}
	return names
}

// AddSlave adds a port to the bridge, taking it from its current master if
// it has one.  The port is brought up and its addresses and routes move to
// the bridge.
func (in *Bridge) AddSlave(slave Nic) error {
	if utils.ContainsString(in.ports(), slave.Name()) {
		return nil
	}

	if err := in.release(slave); err != nil {
		return err
	}

	if err := slave.Up(); err != nil {
		return err
	}

	if _, _, err := in.Usurp(slave); err != nil {
		return err
	}

	log.Info("adding bridge port", "bridge", in.name, "port", slave.Name())

	if err := in.sys().SetMaster(slave.Name(), in.name); err != nil {
		return err
	}

	in.cached = false

	return nil
}

// RemoveSlave removes a port from the bridge and brings it down.
func (in *Bridge) RemoveSlave(slave Nic) error {
	if !utils.ContainsString(in.ports(), slave.Name()) {
		return utils.NewNotMember(slave.Name(), in.name)
	}

	log.Info("removing bridge port", "bridge", in.name, "port", slave.Name())

	if err := in.sys().SetNoMaster(slave.Name()); err != nil {
		return err
	}

	in.cached = false

	return slave.Down()
}

// STP returns whether the spanning tree protocol is enabled.
func (in *Bridge) STP() bool {
	return in.attr(bridgeStpAttr) == "1"
}

// SetSTP enables or disables the spanning tree protocol.
func (in *Bridge) SetSTP(on bool) error {
	value := "0"
	if on {
		value = "1"
	}
	return in.sys().WriteAttr(in.name, bridgeStpAttr, value)
}

// ForwardDelay returns the forwarding delay in hundredths of a second.
func (in *Bridge) ForwardDelay() int {
	return in.intAttr(bridgeForwardAttr)
}

// SetForwardDelay changes the forwarding delay.
func (in *Bridge) SetForwardDelay(delay int) error {
	return in.sys().WriteAttr(in.name, bridgeForwardAttr, strconv.Itoa(delay))
}

// Up brings the ports up followed by the bridge.
func (in *Bridge) Up() error {
	slaves, err := in.Slaves()
	if err != nil {
		return err
	}

	for _, slave := range slaves {
		if err := slave.Up(); err != nil {
			return err
		}
	}

	return in.base.Up()
}

// Down brings the ports down followed by the bridge.
func (in *Bridge) Down() error {
	slaves, err := in.Slaves()
	if err != nil {
		return err
	}

	for _, slave := range slaves {
		if err := slave.Down(); err != nil {
			return err
		}
	}

	return in.base.Down()
}

// Destroy removes every port and deletes the bridge.
func (in *Bridge) Destroy() error {
	slaves, err := in.Slaves()
	if err != nil {
		return err
	}

	for _, slave := range slaves {
		if err := in.RemoveSlave(slave); err != nil {
			return err
		}
	}

	if err := in.base.Destroy(); err != nil {
		return err
	}

	return in.sys().DeleteLink(in.name)
}
