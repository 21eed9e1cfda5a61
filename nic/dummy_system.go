/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package nic

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/vishvananda/netlink"

	utils "github.com/crowbar/node-inventory/common"
)

// DummyDevice is a network device simulated by DummySystem.
type DummyDevice struct {
	Name    string
	Index   int
	Link    int
	Type    string
	Flags   uint64
	MAC     string
	Speed   int
	MTU     int
	Carrier bool
	Kind    Kind
	Master  string
	Slaves  []string
	VlanID  int
	Parent  string
	Addrs   []netlink.Addr
	Routes  []netlink.Route
	Attrs   map[string]string
	Offload map[string]bool
}

// DummySystem is an in-memory System used to exercise the live interface
// layer without touching the host.
type DummySystem struct {
	Devices map[string]*DummyDevice
	Modules map[string]bool

	// OvsInstalled reports whether Open vSwitch is available.
	OvsInstalled bool
	// NeverCreate makes device creation succeed without the device ever
	// appearing.
	NeverCreate bool
	// Fail holds errors returned by the named operations, e.g. "AddAddress".
	Fail map[string]error
	// Calls records every mutating operation as "<operation> <args>".
	Calls []string
}

var _ System = &DummySystem{}

// NewDummySystem returns a system holding the given devices and the loopback
// device.
func NewDummySystem(devices ...*DummyDevice) *DummySystem {
	in := &DummySystem{
		Devices: make(map[string]*DummyDevice),
		Modules: make(map[string]bool),
		Fail:    make(map[string]error),
	}

	in.Add(&DummyDevice{Name: loopbackName, Type: loopbackType, Flags: FlagUp | FlagLoopback, MTU: 65536})
	for _, device := range devices {
		in.Add(device)
	}

	return in
}

// Add inserts a device, filling in defaults for its index and kind.
func (in *DummySystem) Add(device *DummyDevice) *DummyDevice {
	if device.Index == 0 {
		device.Index = 1
		for _, d := range in.Devices {
			if d.Index >= device.Index {
				device.Index = d.Index + 1
			}
		}
	}
	if device.Link == 0 {
		device.Link = device.Index
	}
	if device.Type == "" {
		device.Type = "1"
	}
	if device.Kind == "" {
		device.Kind = KindPlain
	}
	if device.MTU == 0 {
		device.MTU = 1500
	}
	if device.Attrs == nil {
		device.Attrs = make(map[string]string)
	}
	if device.Offload == nil {
		device.Offload = make(map[string]bool)
	}
	in.Devices[device.Name] = device
	return device
}

func (in *DummySystem) record(op string, args ...interface{}) error {
	call := op
	for _, arg := range args {
		call = fmt.Sprintf("%s %v", call, arg)
	}
	in.Calls = append(in.Calls, call)
	return in.Fail[op]
}

func (in *DummySystem) device(name string) (*DummyDevice, error) {
	device, ok := in.Devices[name]
	if !ok {
		return nil, utils.NewDeviceNotFound(name)
	}
	return device, nil
}

func (in *DummySystem) masterKind(device *DummyDevice) Kind {
	if master, ok := in.Devices[device.Master]; ok {
		return master.Kind
	}
	return ""
}

func (in *DummySystem) flags(device *DummyDevice) uint64 {
	flags := device.Flags
	if device.Kind == KindBond {
		flags |= FlagMaster
	}
	if in.masterKind(device) == KindBond {
		flags |= FlagSlave
	}
	return flags
}

func boolAttr(value bool) string {
	if value {
		return "1"
	}
	return "0"
}

// ListDevices implements Sysfs.
func (in *DummySystem) ListDevices() ([]string, error) {
	names := lo.Keys(in.Devices)
	sort.Strings(names)
	return names, nil
}

// Exists implements Sysfs.
func (in *DummySystem) Exists(name string) bool {
	_, ok := in.Devices[name]
	return ok
}

// ReadAttr implements Sysfs.
func (in *DummySystem) ReadAttr(name, attr string) (string, error) {
	device, err := in.device(name)
	if err != nil {
		return "", err
	}

	switch attr {
	case "ifindex":
		return strconv.Itoa(device.Index), nil
	case "iflink":
		return strconv.Itoa(device.Link), nil
	case "type":
		return device.Type, nil
	case "flags":
		return fmt.Sprintf("0x%x", in.flags(device)), nil
	case "address":
		return device.MAC, nil
	case "speed":
		return strconv.Itoa(device.Speed), nil
	case "mtu":
		return strconv.Itoa(device.MTU), nil
	case "carrier":
		return boolAttr(device.Carrier), nil
	case bondSlavesAttr:
		if device.Kind == KindBond {
			return strings.Join(device.Slaves, " "), nil
		}
	}

	value, ok := device.Attrs[attr]
	if !ok {
		return "", utils.NewCommandFailed("read "+attr, "", fmt.Errorf("no such attribute"))
	}

	return value, nil
}

// WriteAttr implements Sysfs.
func (in *DummySystem) WriteAttr(name, attr, value string) error {
	device, err := in.device(name)
	if err != nil {
		return err
	}

	if err := in.record("WriteAttr", name, attr, value); err != nil {
		return err
	}

	if attr == bondSlavesAttr {
		slave, err := in.device(value[1:])
		if err != nil {
			return err
		}

		if strings.HasPrefix(value, "+") {
			device.Slaves = append(device.Slaves, slave.Name)
			slave.Master = device.Name
		} else {
			device.Slaves = utils.RemoveString(device.Slaves, slave.Name)
			slave.Master = ""
		}

		return nil
	}

	if attr == bondModeAttr {
		value = fmt.Sprintf("%s %d", value, lo.IndexOf(BondModes, value))
	}

	device.Attrs[attr] = value

	return nil
}

// HasAttr implements Sysfs.
func (in *DummySystem) HasAttr(name, attr string) bool {
	device, ok := in.Devices[name]
	if !ok {
		return false
	}

	switch attr {
	case "bonding":
		return device.Kind == KindBond
	case "bridge":
		return device.Kind == KindBridge
	case "master":
		return device.Master != "" && in.masterKind(device) != KindOvsBridge
	case "brport/bridge":
		return in.masterKind(device) == KindBridge
	}

	_, ok = device.Attrs[attr]
	return ok
}

// ReadLinkAttr implements Sysfs.
func (in *DummySystem) ReadLinkAttr(name, attr string) (string, error) {
	if !in.HasAttr(name, attr) {
		return "", utils.NewCommandFailed("readlink "+attr, "", fmt.Errorf("no such attribute"))
	}
	return in.Devices[name].Master, nil
}

// ListAttrDir implements Sysfs.
func (in *DummySystem) ListAttrDir(name, attr string) ([]string, error) {
	device, err := in.device(name)
	if err != nil {
		return nil, err
	}

	if attr == bridgePortsAttr && device.Kind == KindBridge {
		return append([]string{}, device.Slaves...), nil
	}

	return []string{}, nil
}

// BondingMasters implements Sysfs.
func (in *DummySystem) BondingMasters() ([]string, error) {
	names := make([]string, 0)
	for _, name := range lo.Keys(in.Devices) {
		if in.Devices[name].Kind == KindBond {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// IsVlan implements Sysfs.
func (in *DummySystem) IsVlan(name string) bool {
	device, ok := in.Devices[name]
	return ok && device.Kind == KindVlan
}

// VlanConfig implements Sysfs.
func (in *DummySystem) VlanConfig() ([]VlanConfig, error) {
	result := make([]VlanConfig, 0)
	names, _ := in.ListDevices()
	for _, name := range names {
		device := in.Devices[name]
		if device.Kind == KindVlan {
			result = append(result, VlanConfig{Name: name, VID: device.VlanID, Parent: device.Parent})
		}
	}
	return result, nil
}

// Addresses implements LinkControl.
func (in *DummySystem) Addresses(name string) ([]netlink.Addr, error) {
	device, err := in.device(name)
	if err != nil {
		return nil, err
	}
	return append([]netlink.Addr{}, device.Addrs...), nil
}

// AddAddress implements LinkControl.
func (in *DummySystem) AddAddress(name string, addr netlink.Addr) error {
	device, err := in.device(name)
	if err != nil {
		return err
	}

	if err := in.record("AddAddress", name, addr.IPNet); err != nil {
		return err
	}

	device.Addrs = append(device.Addrs, addr)

	return nil
}

// RemoveAddress implements LinkControl.
func (in *DummySystem) RemoveAddress(name string, addr netlink.Addr) error {
	device, err := in.device(name)
	if err != nil {
		return err
	}

	if err := in.record("RemoveAddress", name, addr.IPNet); err != nil {
		return err
	}

	device.Addrs = lo.Filter(device.Addrs, func(a netlink.Addr, _ int) bool {
		return addrKey(a) != addrKey(addr)
	})

	return nil
}

// FlushAddresses implements LinkControl.
func (in *DummySystem) FlushAddresses(name string) error {
	device, err := in.device(name)
	if err != nil {
		return err
	}

	if err := in.record("FlushAddresses", name); err != nil {
		return err
	}

	device.Addrs = nil

	return nil
}

// Routes implements LinkControl.
func (in *DummySystem) Routes(name string) ([]netlink.Route, error) {
	device, err := in.device(name)
	if err != nil {
		return nil, err
	}
	return append([]netlink.Route{}, device.Routes...), nil
}

// AddRoute implements LinkControl.
func (in *DummySystem) AddRoute(name string, route netlink.Route) error {
	device, err := in.device(name)
	if err != nil {
		return err
	}

	if err := in.record("AddRoute", name, route.Dst); err != nil {
		return err
	}

	device.Routes = append(device.Routes, route)

	return nil
}

// FlushRoutes implements LinkControl.
func (in *DummySystem) FlushRoutes(name string) error {
	device, err := in.device(name)
	if err != nil {
		return err
	}

	if err := in.record("FlushRoutes", name); err != nil {
		return err
	}

	device.Routes = nil

	return nil
}

// SetUp implements LinkControl.
func (in *DummySystem) SetUp(name string) error {
	device, err := in.device(name)
	if err != nil {
		return err
	}

	if err := in.record("SetUp", name); err != nil {
		return err
	}

	device.Flags |= FlagUp

	return nil
}

// SetDown implements LinkControl.
func (in *DummySystem) SetDown(name string) error {
	device, err := in.device(name)
	if err != nil {
		return err
	}

	if err := in.record("SetDown", name); err != nil {
		return err
	}

	device.Flags &^= FlagUp

	return nil
}

// SetMTU implements LinkControl.
func (in *DummySystem) SetMTU(name string, mtu int) error {
	device, err := in.device(name)
	if err != nil {
		return err
	}

	if err := in.record("SetMTU", name, mtu); err != nil {
		return err
	}

	device.MTU = mtu

	return nil
}

// SetOffload implements LinkControl.
func (in *DummySystem) SetOffload(name, feature string, on bool) error {
	device, err := in.device(name)
	if err != nil {
		return err
	}

	if err := in.record("SetOffload", name, feature, on); err != nil {
		return err
	}

	device.Offload[feature] = on

	return nil
}

// SetMaster implements LinkControl.
func (in *DummySystem) SetMaster(name, master string) error {
	device, err := in.device(name)
	if err != nil {
		return err
	}

	masterDevice, err := in.device(master)
	if err != nil {
		return err
	}

	if err := in.record("SetMaster", name, master); err != nil {
		return err
	}

	device.Master = master
	masterDevice.Slaves = append(masterDevice.Slaves, name)

	return nil
}

// SetNoMaster implements LinkControl.
func (in *DummySystem) SetNoMaster(name string) error {
	device, err := in.device(name)
	if err != nil {
		return err
	}

	if err := in.record("SetNoMaster", name); err != nil {
		return err
	}

	if master, ok := in.Devices[device.Master]; ok {
		master.Slaves = utils.RemoveString(master.Slaves, name)
	}
	device.Master = ""

	return nil
}

func (in *DummySystem) create(op string, device *DummyDevice, args ...interface{}) error {
	if err := in.record(op, args...); err != nil {
		return err
	}

	if in.Exists(device.Name) {
		return utils.NewDeviceExists(device.Name)
	}

	if !in.NeverCreate {
		in.Add(device)
	}

	return nil
}

// AddBond implements LinkControl.
func (in *DummySystem) AddBond(name string) error {
	return in.create("AddBond", &DummyDevice{
		Name:  name,
		Kind:  KindBond,
		Attrs: map[string]string{bondModeAttr: "balance-rr 0", bondMiimonAttr: "0"},
	}, name)
}

// AddBridge implements LinkControl.
func (in *DummySystem) AddBridge(name string) error {
	return in.create("AddBridge", &DummyDevice{
		Name:  name,
		Kind:  KindBridge,
		Attrs: map[string]string{bridgeStpAttr: "0", bridgeForwardAttr: "1500"},
	}, name)
}

// AddVlan implements LinkControl.
func (in *DummySystem) AddVlan(parent string, vid int) error {
	parentDevice, err := in.device(parent)
	if err != nil {
		return err
	}

	return in.create("AddVlan", &DummyDevice{
		Name:   VlanName(parent, vid),
		Kind:   KindVlan,
		Link:   parentDevice.Index,
		VlanID: vid,
		Parent: parent,
	}, parent, vid)
}

// DeleteLink implements LinkControl.
func (in *DummySystem) DeleteLink(name string) error {
	device, err := in.device(name)
	if err != nil {
		return err
	}

	if err := in.record("DeleteLink", name); err != nil {
		return err
	}

	if master, ok := in.Devices[device.Master]; ok {
		master.Slaves = utils.RemoveString(master.Slaves, name)
	}
	delete(in.Devices, name)

	return nil
}

// ModuleLoaded implements LinkControl.
func (in *DummySystem) ModuleLoaded(module string) bool {
	return in.Modules[module]
}

// LoadModule implements LinkControl.
func (in *DummySystem) LoadModule(module string) error {
	if err := in.record("LoadModule", module); err != nil {
		return err
	}
	in.Modules[module] = true
	return nil
}

// OvsAvailable implements VSwitch.
func (in *DummySystem) OvsAvailable() bool {
	return in.OvsInstalled
}

// OvsBridgeExists implements VSwitch.
func (in *DummySystem) OvsBridgeExists(name string) bool {
	device, ok := in.Devices[name]
	return ok && device.Kind == KindOvsBridge
}

// OvsBridgeOf implements VSwitch.
func (in *DummySystem) OvsBridgeOf(port string) (string, bool) {
	device, ok := in.Devices[port]
	if !ok || in.masterKind(device) != KindOvsBridge {
		return "", false
	}
	return device.Master, true
}

// OvsPorts implements VSwitch.  The internal port is reported first.
func (in *DummySystem) OvsPorts(bridge string) ([]string, error) {
	if !in.OvsBridgeExists(bridge) {
		return nil, utils.NewDeviceNotFound(bridge)
	}
	return append([]string{bridge}, in.Devices[bridge].Slaves...), nil
}

// OvsAddBridge implements VSwitch.
func (in *DummySystem) OvsAddBridge(name string) error {
	return in.create("OvsAddBridge", &DummyDevice{Name: name, Kind: KindOvsBridge}, name)
}

// OvsDeleteBridge implements VSwitch.
func (in *DummySystem) OvsDeleteBridge(name string) error {
	if !in.OvsBridgeExists(name) {
		return utils.NewDeviceNotFound(name)
	}

	if err := in.record("OvsDeleteBridge", name); err != nil {
		return err
	}

	delete(in.Devices, name)

	return nil
}

// OvsAddPort implements VSwitch.
func (in *DummySystem) OvsAddPort(bridge, port string) error {
	if !in.OvsBridgeExists(bridge) {
		return utils.NewDeviceNotFound(bridge)
	}

	device, err := in.device(port)
	if err != nil {
		return err
	}

	if err := in.record("OvsAddPort", bridge, port); err != nil {
		return err
	}

	device.Master = bridge
	in.Devices[bridge].Slaves = append(in.Devices[bridge].Slaves, port)

	return nil
}

// OvsDeletePort implements VSwitch.
func (in *DummySystem) OvsDeletePort(bridge, port string) error {
	if !in.OvsBridgeExists(bridge) {
		return utils.NewDeviceNotFound(bridge)
	}

	device, err := in.device(port)
	if err != nil {
		return err
	}

	if err := in.record("OvsDeletePort", bridge, port); err != nil {
		return err
	}

	device.Master = ""
	in.Devices[bridge].Slaves = utils.RemoveString(in.Devices[bridge].Slaves, port)

	return nil
}
