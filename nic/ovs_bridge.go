/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package nic

import (
	utils "github.com/crowbar/node-inventory/common"
)

// OvsBridge is an Open vSwitch bridge.  Its internal port carries the same
// name as the bridge and is not reported as a slave.
type OvsBridge struct {
	base
}

var _ Master = &OvsBridge{}

func (in *OvsBridge) ports() ([]string, error) {
	ports, err := in.sys().OvsPorts(in.name)
	if err != nil {
		return nil, err
	}
	return utils.RemoveString(ports, in.name), nil
}

// Slaves returns the devices attached to the bridge.
func (in *OvsBridge) Slaves() ([]Nic, error) {
	ports, err := in.ports()
	if err != nil {
		return nil, err
	}
	return in.reg.lookup(ports)
}

// AddSlave attaches a device to the bridge, taking it from its current
// master if it has one.  The device is brought up and its addresses and
// routes move to the bridge.
func (in *OvsBridge) AddSlave(slave Nic) error {
	ports, err := in.ports()
	if err != nil {
		return err
	}

	if utils.ContainsString(ports, slave.Name()) {
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

	log.Info("adding vswitch port", "bridge", in.name, "port", slave.Name())

	if err := in.sys().OvsAddPort(in.name, slave.Name()); err != nil {
		return err
	}

	in.cached = false

	return nil
}

// RemoveSlave detaches a device from the bridge and brings it down.
func (in *OvsBridge) RemoveSlave(slave Nic) error {
	ports, err := in.ports()
	if err != nil {
		return err
	}

	if !utils.ContainsString(ports, slave.Name()) {
		return utils.NewNotMember(slave.Name(), in.name)
	}

	log.Info("removing vswitch port", "bridge", in.name, "port", slave.Name())

	if err := in.sys().OvsDeletePort(in.name, slave.Name()); err != nil {
		return err
	}

	in.cached = false

	return slave.Down()
}

// Replug detaches and re-attaches a device so that the switch relearns it.
func (in *OvsBridge) Replug(slave Nic) error {
	if err := in.RemoveSlave(slave); err != nil {
		return err
	}
	return in.AddSlave(slave)
}

// Up brings the attached devices up followed by the bridge.
func (in *OvsBridge) Up() error {
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

// Destroy detaches every device and deletes the bridge.
func (in *OvsBridge) Destroy() error {
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

	return in.sys().OvsDeleteBridge(in.name)
}
