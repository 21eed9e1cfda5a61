/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package nic

import (
	"fmt"
)

// VlanName returns the name given to the VLAN sub-interface 'vid' of parent.
func VlanName(parent string, vid int) string {
	return fmt.Sprintf("%s.%d", parent, vid)
}

// Vlan is an 802.1q VLAN sub-interface.
type Vlan struct {
	base
}

func (in *Vlan) config() (VlanConfig, bool) {
	entries, err := in.sys().VlanConfig()
	if err != nil {
		log.Error(err, "failed to read vlan configuration", "device", in.name)
		return VlanConfig{}, false
	}

	for _, entry := range entries {
		if entry.Name == in.name {
			return entry, true
		}
	}

	return VlanConfig{}, false
}

// VLAN returns the VLAN id, or 0 if it is not known.
func (in *Vlan) VLAN() int {
	entry, _ := in.config()
	return entry.VID
}

// Parent returns the device the sub-interface is stacked on.
func (in *Vlan) Parent() (Nic, error) {
	entry, ok := in.config()
	if !ok {
		return nil, nil
	}
	return in.reg.Get(entry.Parent)
}

// Parents returns the device the sub-interface is stacked on.
func (in *Vlan) Parents() ([]Nic, error) {
	parent, err := in.Parent()
	if err != nil || parent == nil {
		return []Nic{}, err
	}
	return []Nic{parent}, nil
}

// Up brings the parent up followed by the sub-interface.
func (in *Vlan) Up() error {
	parents, err := in.Parents()
	if err != nil {
		return err
	}

	for _, parent := range parents {
		if err := parent.Up(); err != nil {
			return err
		}
	}

	return in.base.Up()
}

// Destroy deletes the sub-interface.
func (in *Vlan) Destroy() error {
	if err := in.base.Destroy(); err != nil {
		return err
	}
	return in.sys().DeleteLink(in.name)
}

// String describes the sub-interface.
func (in *Vlan) String() string {
	entry, ok := in.config()
	if !ok {
		return in.name
	}
	return fmt.Sprintf("%s (vlan %d on %s)", in.name, entry.VID, entry.Parent)
}
