/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

// Package nic queries and changes the live network devices of a node: plain
// interfaces, bonds, Linux bridges, Open vSwitch bridges and VLAN
// sub-interfaces.  Devices are obtained from a Registry, which classifies
// each device once and hands out the same instance for the remainder of a
// discovery pass.
package nic

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	utils "github.com/crowbar/node-inventory/common"
)

var log = logf.Log.WithName("nic")

// Kind identifies the variant of a network device.
type Kind string

const (
	KindPlain     Kind = "nic"
	KindBond      Kind = "bond"
	KindBridge    Kind = "bridge"
	KindOvsBridge Kind = "ovs-bridge"
	KindVlan      Kind = "vlan"
)

// Interface flags as reported by the kernel in the "flags" attribute.
const (
	FlagUp           uint64 = 0x1
	FlagBroadcast    uint64 = 0x2
	FlagDebug        uint64 = 0x4
	FlagLoopback     uint64 = 0x8
	FlagPointToPoint uint64 = 0x10
	FlagNoTrailers   uint64 = 0x20
	FlagRunning      uint64 = 0x40
	FlagNoARP        uint64 = 0x80
	FlagPromisc      uint64 = 0x100
	FlagAllMulti     uint64 = 0x200
	FlagMaster       uint64 = 0x400
	FlagSlave        uint64 = 0x800
	FlagMulticast    uint64 = 0x1000
	FlagPortSel      uint64 = 0x2000
	FlagAutoMedia    uint64 = 0x4000
	FlagDynamic      uint64 = 0x8000
)

// ARPHRD_LOOPBACK
const loopbackType = "772"

const loopbackName = "lo"

const noMAC = "00:00:00:00:00:00"

// Nic is a live network device.
type Nic interface {
	fmt.Stringer

	Name() string
	Kind() Kind

	// Refresh reloads the cached address list and forgets the cached
	// dependency information.
	Refresh() error
	// Addresses returns the cached non link-scoped addresses.
	Addresses() []netlink.Addr
	// Routes returns the routes through the device that were not installed
	// by the kernel itself.
	Routes() ([]netlink.Route, error)
	AddAddress(addr netlink.Addr) error
	RemoveAddress(addr netlink.Addr) error
	// Flush removes all routes and addresses from the device.
	Flush() error

	IfIndex() int
	IfLink() int
	LinkUp() bool
	MAC() string
	Speed() int
	MTU() int
	SetMTU(mtu int) error
	SetRxOffload(on bool) error
	SetTxOffload(on bool) error

	Flags() uint64
	IsUp() bool
	IsLoopback() bool
	IsMaster() bool
	IsSlave() bool
	IsRunning() bool
	IsPromisc() bool
	IsMulticast() bool

	Up() error
	Down() error

	// Parents returns the devices this device is stacked on.
	Parents() ([]Nic, error)
	// Children returns the devices stacked on this device.
	Children() ([]Nic, error)
	// Slaves returns the devices enslaved to this device.
	Slaves() ([]Nic, error)
	// Master returns the bond, bridge or Open vSwitch bridge this device is
	// enslaved to, or nil.
	Master() (Nic, error)
	// Dependents returns every device that must be up for this device to
	// work: parents and slaves, transitively.
	Dependents() ([]Nic, error)

	// Usurp moves the addresses and the routes of a victim device onto this
	// device.  The moved addresses and routes are returned.
	Usurp(victim Nic) ([]netlink.Addr, []netlink.Route, error)
	// UsurpAll usurps every slave, recursively.
	UsurpAll() error

	// Destroy tears the device down: children first, then removal from its
	// master, flush and down.
	Destroy() error
}

// Master is a device that can enslave other devices.
type Master interface {
	Nic
	AddSlave(slave Nic) error
	RemoveSlave(slave Nic) error
}

// base holds the state and the behaviour common to all device variants.
// Variants embed it and set self so that the shared methods dispatch to the
// variant's overrides.
type base struct {
	self Nic
	reg  *Registry
	name string
	kind Kind

	addrs      []netlink.Addr
	dependents []string
	cached     bool
}

func (in *base) sys() System {
	return in.reg.sys
}

func (in *base) String() string {
	return in.name
}

func (in *base) Name() string {
	return in.name
}

func (in *base) Kind() Kind {
	return in.kind
}

func (in *base) attr(attr string) string {
	value, err := in.sys().ReadAttr(in.name, attr)
	if err != nil {
		return ""
	}
	return value
}

func (in *base) intAttr(attr string) int {
	value, err := strconv.Atoi(in.attr(attr))
	if err != nil {
		return 0
	}
	return value
}

func (in *base) Refresh() error {
	addrs, err := in.sys().Addresses(in.name)
	if err != nil {
		return err
	}

	in.addrs = make([]netlink.Addr, 0, len(addrs))
	for _, addr := range addrs {
		if addr.Scope == unix.RT_SCOPE_LINK {
			continue
		}
		in.addrs = append(in.addrs, addr)
	}

	in.dependents = nil
	in.cached = false

	return nil
}

func (in *base) Addresses() []netlink.Addr {
	return append([]netlink.Addr(nil), in.addrs...)
}

func (in *base) Routes() ([]netlink.Route, error) {
	routes, err := in.sys().Routes(in.name)
	if err != nil {
		return nil, err
	}

	result := make([]netlink.Route, 0, len(routes))
	for _, route := range routes {
		if int(route.Protocol) == unix.RTPROT_KERNEL {
			continue
		}
		result = append(result, route)
	}

	return result, nil
}

func addrKey(addr netlink.Addr) string {
	if addr.IPNet == nil {
		return ""
	}
	return addr.IPNet.String()
}

func routeKey(route netlink.Route) string {
	return fmt.Sprintf("%v|%v|%v|%d|%d", route.Dst, route.Gw, route.Src, route.Priority, route.Table)
}

func (in *base) hasAddress(addr netlink.Addr) bool {
	for _, a := range in.addrs {
		if addrKey(a) == addrKey(addr) {
			return true
		}
	}
	return false
}

func (in *base) AddAddress(addr netlink.Addr) error {
	if in.hasAddress(addr) {
		return nil
	}

	if err := in.sys().AddAddress(in.name, addr); err != nil {
		return err
	}

	in.addrs = append(in.addrs, addr)

	return nil
}

func (in *base) RemoveAddress(addr netlink.Addr) error {
	if !in.hasAddress(addr) {
		return nil
	}

	if err := in.sys().RemoveAddress(in.name, addr); err != nil {
		return err
	}

	result := in.addrs[:0]
	for _, a := range in.addrs {
		if addrKey(a) != addrKey(addr) {
			result = append(result, a)
		}
	}
	in.addrs = result

	return nil
}

func (in *base) Flush() error {
	if err := in.sys().FlushRoutes(in.name); err != nil {
		return err
	}

	if err := in.sys().FlushAddresses(in.name); err != nil {
		return err
	}

	in.addrs = nil

	return nil
}

func (in *base) IfIndex() int {
	return in.intAttr("ifindex")
}

func (in *base) IfLink() int {
	return in.intAttr("iflink")
}

func (in *base) LinkUp() bool {
	return in.attr("carrier") == "1"
}

func (in *base) MAC() string {
	if mac := in.attr("address"); mac != "" {
		return mac
	}
	return noMAC
}

func (in *base) Speed() int {
	return in.intAttr("speed")
}

func (in *base) MTU() int {
	return in.intAttr("mtu")
}

func (in *base) SetMTU(mtu int) error {
	return in.sys().SetMTU(in.name, mtu)
}

func (in *base) SetRxOffload(on bool) error {
	return in.sys().SetOffload(in.name, "rx", on)
}

func (in *base) SetTxOffload(on bool) error {
	return in.sys().SetOffload(in.name, "tx", on)
}

func (in *base) Flags() uint64 {
	value, err := strconv.ParseUint(strings.TrimPrefix(in.attr("flags"), "0x"), 16, 64)
	if err != nil {
		return 0
	}
	return value
}

func (in *base) IsUp() bool {
	return in.Flags()&FlagUp != 0
}

func (in *base) IsLoopback() bool {
	return in.attr("type") == loopbackType
}

func (in *base) IsMaster() bool {
	return in.Flags()&FlagMaster != 0
}

func (in *base) IsSlave() bool {
	return in.Flags()&FlagSlave != 0
}

func (in *base) IsRunning() bool {
	return in.Flags()&FlagRunning != 0
}

func (in *base) IsPromisc() bool {
	return in.Flags()&FlagPromisc != 0
}

func (in *base) IsMulticast() bool {
	return in.Flags()&FlagMulticast != 0
}

func (in *base) Up() error {
	if in.self.IsUp() {
		return nil
	}
	log.V(1).Info("bringing device up", "device", in.name)
	return in.sys().SetUp(in.name)
}

func (in *base) Down() error {
	if !in.self.IsUp() {
		return nil
	}
	log.V(1).Info("bringing device down", "device", in.name)
	return in.sys().SetDown(in.name)
}

func (in *base) Parents() ([]Nic, error) {
	index, link := in.IfIndex(), in.IfLink()
	if index == link {
		return []Nic{}, nil
	}

	return in.reg.filter(func(n Nic) bool {
		return n.Name() != in.name && n.IfIndex() == link
	})
}

func (in *base) Children() ([]Nic, error) {
	index := in.IfIndex()
	return in.reg.filter(func(n Nic) bool {
		return n.Name() != in.name && n.IfLink() == index
	})
}

func (in *base) Slaves() ([]Nic, error) {
	return []Nic{}, nil
}

func (in *base) bondMaster() (Nic, error) {
	if !in.sys().HasAttr(in.name, "master") {
		return nil, nil
	}

	name, err := in.sys().ReadLinkAttr(in.name, "master")
	if err != nil {
		return nil, err
	}

	if !in.reg.isBond(name) {
		return nil, nil
	}

	return in.reg.Get(name)
}

func (in *base) bridgeMaster() (Nic, error) {
	if !in.sys().HasAttr(in.name, "brport/bridge") {
		return nil, nil
	}

	name, err := in.sys().ReadLinkAttr(in.name, "brport/bridge")
	if err != nil {
		return nil, err
	}

	return in.reg.Get(name)
}

func (in *base) ovsMaster() (Nic, error) {
	name, ok := in.sys().OvsBridgeOf(in.name)
	if !ok {
		return nil, nil
	}

	return in.reg.Get(name)
}

func (in *base) Master() (Nic, error) {
	for _, lookup := range []func() (Nic, error){in.bondMaster, in.bridgeMaster, in.ovsMaster} {
		master, err := lookup()
		if err != nil || master != nil {
			return master, err
		}
	}
	return nil, nil
}

func (in *base) Dependents() ([]Nic, error) {
	if !in.cached {
		names, err := in.collectDependents()
		if err != nil {
			return nil, err
		}
		in.dependents = names
		in.cached = true
	}

	result := make([]Nic, 0, len(in.dependents))
	for _, name := range in.dependents {
		n, err := in.reg.Get(name)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}

	return result, nil
}

func (in *base) collectDependents() ([]string, error) {
	names := make([]string, 0)

	parents, err := in.self.Parents()
	if err != nil {
		return nil, err
	}

	slaves, err := in.self.Slaves()
	if err != nil {
		return nil, err
	}

	for _, group := range [][]Nic{parents, slaves} {
		for _, n := range group {
			names = append(names, n.Name())
			deps, err := n.Dependents()
			if err != nil {
				return nil, err
			}
			for _, d := range deps {
				names = append(names, d.Name())
			}
		}
	}

	return utils.DedupeSlice(names), nil
}

func (in *base) Usurp(victim Nic) ([]netlink.Addr, []netlink.Route, error) {
	if err := in.self.Up(); err != nil {
		return nil, nil, err
	}

	if err := victim.Refresh(); err != nil {
		return nil, nil, err
	}

	victimRoutes, err := victim.Routes()
	if err != nil {
		return nil, nil, err
	}

	ownRoutes, err := in.self.Routes()
	if err != nil {
		return nil, nil, err
	}

	own := make(map[string]bool, len(ownRoutes))
	for _, route := range ownRoutes {
		own[routeKey(route)] = true
	}

	routes := make([]netlink.Route, 0)
	for _, route := range victimRoutes {
		if !own[routeKey(route)] {
			routes = append(routes, route)
		}
	}

	addrs := victim.Addresses()

	if len(addrs) == 0 && len(routes) == 0 {
		return []netlink.Addr{}, []netlink.Route{}, nil
	}

	log.Info("usurping addresses and routes", "device", in.name, "victim", victim.Name(),
		"addresses", len(addrs), "routes", len(routes))

	if err := victim.Flush(); err != nil {
		return nil, nil, err
	}

	for _, addr := range addrs {
		if err := in.self.AddAddress(addr); err != nil {
			return nil, nil, err
		}
	}

	for _, route := range routes {
		if err := in.sys().AddRoute(in.name, route); err != nil {
			return nil, nil, err
		}
	}

	return addrs, routes, nil
}

// release frees 'slave' from a master other than this device so that it can
// be enslaved here.
func (in *base) release(slave Nic) error {
	if !in.reg.Exists(slave.Name()) {
		return utils.NewDeviceNotFound(slave.Name())
	}

	master, err := slave.Master()
	if err != nil {
		return err
	}

	m, ok := master.(Master)
	if !ok || m.Name() == in.name {
		return nil
	}

	log.Info("moving device to a new master", "device", slave.Name(), "from", m.Name(), "to", in.name)

	return m.RemoveSlave(slave)
}

func (in *base) UsurpAll() error {
	slaves, err := in.self.Slaves()
	if err != nil {
		return err
	}

	for _, slave := range slaves {
		if err := slave.UsurpAll(); err != nil {
			return err
		}
		if _, _, err := in.self.Usurp(slave); err != nil {
			return err
		}
	}

	return nil
}

func (in *base) Destroy() error {
	log.Info("destroying device", "device", in.name, "kind", in.kind)

	children, err := in.self.Children()
	if err != nil {
		return err
	}

	for _, child := range children {
		if err := child.Destroy(); err != nil {
			return err
		}
	}

	master, err := in.self.Master()
	if err != nil {
		return err
	}

	if m, ok := master.(Master); ok {
		if err := m.RemoveSlave(in.self); err != nil {
			return err
		}
	}

	if err := in.self.Flush(); err != nil {
		return err
	}

	if err := in.self.Down(); err != nil {
		return err
	}

	in.reg.forget(in.name)

	return nil
}

// Plain is a network device that is neither a bond, a bridge nor a VLAN.
type Plain struct {
	base
}
