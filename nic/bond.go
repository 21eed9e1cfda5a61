/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package nic

import (
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/multierr"

	utils "github.com/crowbar/node-inventory/common"
)

const (
	bondSlavesAttr = "bonding/slaves"
	bondModeAttr   = "bonding/mode"
	bondMiimonAttr = "bonding/miimon"
)

// BondModes holds the kernel names of the bonding modes, indexed by mode
// number.
var BondModes = []string{
	"balance-rr",
	"active-backup",
	"balance-xor",
	"broadcast",
	"802.3ad",
	"balance-tlb",
	"balance-alb",
}

// Bond is a Linux bonding device.
type Bond struct {
	base
}

var _ Master = &Bond{}

// Slaves returns the devices enslaved to the bond.
func (in *Bond) Slaves() ([]Nic, error) {
	return in.reg.lookup(utils.SplitFields(in.attr(bondSlavesAttr)))
}

// Mode returns the numeric bonding mode, or -1 if it cannot be read.  The
// kernel reports the mode as "<name> <number>".
func (in *Bond) Mode() int {
	fields := utils.SplitFields(in.attr(bondModeAttr))
	if len(fields) != 2 {
		return -1
	}

	mode, err := strconv.Atoi(fields[1])
	if err != nil {
		return -1
	}

	return mode
}

// Miimon returns the link monitoring interval in milliseconds.
func (in *Bond) Miimon() int {
	return in.intAttr(bondMiimonAttr)
}

// SetMiimon changes the link monitoring interval.
func (in *Bond) SetMiimon(interval int) error {
	return in.sys().WriteAttr(in.name, bondMiimonAttr, strconv.Itoa(interval))
}

// SetMode changes the bonding mode.  The kernel only accepts a mode change
// on a downed bond without slaves, so the slaves are removed first and added
// back once the bond is up again.
func (in *Bond) SetMode(mode int) error {
	if mode < 0 || mode >= len(BondModes) {
		return utils.NewInvalidArgument(fmt.Sprintf("unknown bonding mode %d", mode))
	}

	if in.Mode() == mode {
		return nil
	}

	slaves, err := in.Slaves()
	if err != nil {
		return err
	}

	for _, slave := range slaves {
		if err := in.RemoveSlave(slave); err != nil {
			return err
		}
	}

	if err := in.base.Down(); err != nil {
		return err
	}

	log.Info("changing bond mode", "bond", in.name, "mode", mode)

	var errs error
	if err := in.sys().WriteAttr(in.name, bondModeAttr, BondModes[mode]); err != nil {
		errs = multierr.Append(errs, err)
	}

	if err := in.base.Up(); err != nil {
		errs = multierr.Append(errs, err)
	}

	for _, slave := range slaves {
		errs = multierr.Append(errs, in.AddSlave(slave))
	}

	return errs
}

// AddSlave enslaves a device, taking it from its current master if it has
// one.  The addresses and routes of the slave move to the bond, then the
// slave is brought down as the kernel refuses to enslave a running device.
func (in *Bond) AddSlave(slave Nic) error {
	if utils.ContainsString(utils.SplitFields(in.attr(bondSlavesAttr)), slave.Name()) {
		return nil
	}

	if err := in.release(slave); err != nil {
		return err
	}

	if _, _, err := in.Usurp(slave); err != nil {
		return err
	}

	if err := slave.Down(); err != nil {
		return err
	}

	log.Info("adding bond slave", "bond", in.name, "slave", slave.Name())

	if err := in.sys().WriteAttr(in.name, bondSlavesAttr, "+"+slave.Name()); err != nil {
		return err
	}

	in.cached = false

	return slave.Up()
}

// RemoveSlave releases an enslaved device.
func (in *Bond) RemoveSlave(slave Nic) error {
	if !utils.ContainsString(utils.SplitFields(in.attr(bondSlavesAttr)), slave.Name()) {
		return utils.NewNotMember(slave.Name(), in.name)
	}

	log.Info("removing bond slave", "bond", in.name, "slave", slave.Name())

	if err := in.sys().WriteAttr(in.name, bondSlavesAttr, "-"+slave.Name()); err != nil {
		return err
	}

	in.cached = false

	return nil
}

// Up brings the bond up followed by its slaves.
func (in *Bond) Up() error {
	if err := in.base.Up(); err != nil {
		return err
	}

	slaves, err := in.Slaves()
	if err != nil {
		return err
	}

	for _, slave := range slaves {
		if err := slave.Up(); err != nil {
			return err
		}
	}

	return nil
}

// Down brings the slaves down followed by the bond.
func (in *Bond) Down() error {
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

// Destroy releases the slaves and deletes the bond.
func (in *Bond) Destroy() error {
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

// String describes the bond and its slaves.
func (in *Bond) String() string {
	slaves := utils.SplitFields(in.attr(bondSlavesAttr))
	return fmt.Sprintf("%s (bond mode %d: %s)", in.name, in.Mode(), strings.Join(slaves, ","))
}
