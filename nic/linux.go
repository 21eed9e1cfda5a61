/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package nic

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/vishvananda/netlink"
	"k8s.io/utils/exec"

	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/nic/ovs"
)

// Directories, relative to the sysfs root, holding network device entries.
var deviceDirs = []string{"class/net", "devices/virtual/net"}

// LinuxSystem implements System on a Linux host: device attributes are read
// from sysfs, links are changed over netlink and external tools (ovs-vsctl,
// ethtool, modprobe) are run through an exec.Interface.
type LinuxSystem struct {
	SysfsRoot string
	ProcRoot  string

	handle *netlink.Handle
	execer exec.Interface
	ovs    *ovs.Client
}

// NewLinuxSystem opens a netlink handle in the current network namespace.
func NewLinuxSystem(sysfsRoot, procRoot string, execer exec.Interface) (*LinuxSystem, error) {
	handle, err := netlink.NewHandle()
	if err != nil {
		return nil, utils.NewCommandFailed("netlink open", "", err)
	}

	return &LinuxSystem{
		SysfsRoot: sysfsRoot,
		ProcRoot:  procRoot,
		handle:    handle,
		execer:    execer,
		ovs:       ovs.New(execer),
	}, nil
}

// Close releases the netlink handle.
func (in *LinuxSystem) Close() {
	in.handle.Close()
}

func (in *LinuxSystem) deviceDir(name string) (string, bool) {
	for _, dir := range deviceDirs {
		path := filepath.Join(in.SysfsRoot, dir, name)
		if info, err := os.Stat(path); err == nil && info.IsDir() {
			return path, true
		}
	}
	return "", false
}

func (in *LinuxSystem) attrPath(name, attr string) (string, error) {
	dir, ok := in.deviceDir(name)
	if !ok {
		return "", utils.NewDeviceNotFound(name)
	}
	return filepath.Join(dir, attr), nil
}

// ListDevices implements Sysfs.
func (in *LinuxSystem) ListDevices() ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(in.SysfsRoot, deviceDirs[0]))
	if err != nil {
		return nil, utils.NewCommandFailed("list network devices", "", err)
	}

	result := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		if _, ok := in.deviceDir(entry.Name()); ok {
			result = append(result, entry.Name())
		}
	}

	return result, nil
}

// Exists implements Sysfs.
func (in *LinuxSystem) Exists(name string) bool {
	_, ok := in.deviceDir(name)
	return ok
}

// ReadAttr implements Sysfs.
func (in *LinuxSystem) ReadAttr(name, attr string) (string, error) {
	path, err := in.attrPath(name, attr)
	if err != nil {
		return "", err
	}

	buffer, err := os.ReadFile(path)
	if err != nil {
		return "", utils.NewCommandFailed("read "+path, "", err)
	}

	return strings.TrimSpace(string(buffer)), nil
}

// WriteAttr implements Sysfs.
func (in *LinuxSystem) WriteAttr(name, attr, value string) error {
	path, err := in.attrPath(name, attr)
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, []byte(value), 0644); err != nil {
		return utils.NewCommandFailed(fmt.Sprintf("echo %s > %s", value, path), "", err)
	}

	return nil
}

// HasAttr implements Sysfs.
func (in *LinuxSystem) HasAttr(name, attr string) bool {
	path, err := in.attrPath(name, attr)
	if err != nil {
		return false
	}
	_, err = os.Lstat(path)
	return err == nil
}

// ReadLinkAttr implements Sysfs.
func (in *LinuxSystem) ReadLinkAttr(name, attr string) (string, error) {
	path, err := in.attrPath(name, attr)
	if err != nil {
		return "", err
	}

	target, err := os.Readlink(path)
	if err != nil {
		return "", utils.NewCommandFailed("readlink "+path, "", err)
	}

	return filepath.Base(target), nil
}

// ListAttrDir implements Sysfs.  Dangling entries are skipped.
func (in *LinuxSystem) ListAttrDir(name, attr string) ([]string, error) {
	path, err := in.attrPath(name, attr)
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(path)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, utils.NewCommandFailed("list "+path, "", err)
	}

	result := make([]string, 0, len(entries))
	for _, entry := range entries {
		if _, err := os.Stat(filepath.Join(path, entry.Name())); err == nil {
			result = append(result, entry.Name())
		}
	}

	return result, nil
}

// BondingMasters implements Sysfs.
func (in *LinuxSystem) BondingMasters() ([]string, error) {
	path := filepath.Join(in.SysfsRoot, deviceDirs[0], "bonding_masters")
	buffer, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return []string{}, nil
	} else if err != nil {
		return nil, utils.NewCommandFailed("read "+path, "", err)
	}

	return utils.SplitFields(string(buffer)), nil
}

// IsVlan implements Sysfs.
func (in *LinuxSystem) IsVlan(name string) bool {
	_, err := os.Stat(filepath.Join(in.ProcRoot, "net", "vlan", name))
	return err == nil
}

// VlanConfig implements Sysfs.  The table has two header lines followed by
// "<name> | <vid> | <parent>" entries.
func (in *LinuxSystem) VlanConfig() ([]VlanConfig, error) {
	path := filepath.Join(in.ProcRoot, "net", "vlan", "config")
	file, err := os.Open(path)
	if os.IsNotExist(err) {
		return []VlanConfig{}, nil
	} else if err != nil {
		return nil, utils.NewCommandFailed("read "+path, "", err)
	}
	defer file.Close()

	return parseVlanConfig(bufio.NewScanner(file))
}

func parseVlanConfig(scanner *bufio.Scanner) ([]VlanConfig, error) {
	result := make([]VlanConfig, 0)
	for line := 0; scanner.Scan(); line++ {
		if line < 2 {
			continue
		}

		parts := strings.Split(scanner.Text(), "|")
		if len(parts) != 3 {
			continue
		}

		vid, err := strconv.Atoi(strings.TrimSpace(parts[1]))
		if err != nil {
			continue
		}

		result = append(result, VlanConfig{
			Name:   strings.TrimSpace(parts[0]),
			VID:    vid,
			Parent: strings.TrimSpace(parts[2]),
		})
	}

	return result, scanner.Err()
}

func (in *LinuxSystem) link(name string) (netlink.Link, error) {
	link, err := in.handle.LinkByName(name)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return nil, utils.NewDeviceNotFound(name)
		}
		return nil, utils.NewCommandFailed("ip link show "+name, "", err)
	}
	return link, nil
}

// Addresses implements LinkControl.
func (in *LinuxSystem) Addresses(name string) ([]netlink.Addr, error) {
	link, err := in.link(name)
	if err != nil {
		return nil, err
	}

	addrs, err := in.handle.AddrList(link, netlink.FAMILY_ALL)
	if err != nil {
		return nil, utils.NewCommandFailed("ip addr show dev "+name, "", err)
	}

	return addrs, nil
}

// AddAddress implements LinkControl.
func (in *LinuxSystem) AddAddress(name string, addr netlink.Addr) error {
	link, err := in.link(name)
	if err != nil {
		return err
	}

	addr.Label = ""
	addr.LinkIndex = link.Attrs().Index
	if err := in.handle.AddrAdd(link, &addr); err != nil {
		return utils.NewCommandFailed(fmt.Sprintf("ip addr add %s dev %s", addr.IPNet, name), "", err)
	}

	return nil
}

// RemoveAddress implements LinkControl.
func (in *LinuxSystem) RemoveAddress(name string, addr netlink.Addr) error {
	link, err := in.link(name)
	if err != nil {
		return err
	}

	if err := in.handle.AddrDel(link, &addr); err != nil {
		return utils.NewCommandFailed(fmt.Sprintf("ip addr del %s dev %s", addr.IPNet, name), "", err)
	}

	return nil
}

// FlushAddresses implements LinkControl.
func (in *LinuxSystem) FlushAddresses(name string) error {
	addrs, err := in.Addresses(name)
	if err != nil {
		return err
	}

	for _, addr := range addrs {
		if err := in.RemoveAddress(name, addr); err != nil {
			return err
		}
	}

	return nil
}

// Routes implements LinkControl.
func (in *LinuxSystem) Routes(name string) ([]netlink.Route, error) {
	link, err := in.link(name)
	if err != nil {
		return nil, err
	}

	routes, err := in.handle.RouteList(link, netlink.FAMILY_ALL)
	if err != nil {
		return nil, utils.NewCommandFailed("ip route show dev "+name, "", err)
	}

	return routes, nil
}

// AddRoute implements LinkControl.
func (in *LinuxSystem) AddRoute(name string, route netlink.Route) error {
	link, err := in.link(name)
	if err != nil {
		return err
	}

	route.LinkIndex = link.Attrs().Index
	if err := in.handle.RouteAdd(&route); err != nil {
		return utils.NewCommandFailed(fmt.Sprintf("ip route add %s dev %s", route.String(), name), "", err)
	}

	return nil
}

// FlushRoutes implements LinkControl.
func (in *LinuxSystem) FlushRoutes(name string) error {
	routes, err := in.Routes(name)
	if err != nil {
		return err
	}

	for i := range routes {
		if err := in.handle.RouteDel(&routes[i]); err != nil {
			return utils.NewCommandFailed("ip route flush dev "+name, "", err)
		}
	}

	return nil
}

// SetUp implements LinkControl.
func (in *LinuxSystem) SetUp(name string) error {
	link, err := in.link(name)
	if err != nil {
		return err
	}

	if err := in.handle.LinkSetUp(link); err != nil {
		return utils.NewCommandFailed("ip link set "+name+" up", "", err)
	}

	return nil
}

// SetDown implements LinkControl.
func (in *LinuxSystem) SetDown(name string) error {
	link, err := in.link(name)
	if err != nil {
		return err
	}

	if err := in.handle.LinkSetDown(link); err != nil {
		return utils.NewCommandFailed("ip link set "+name+" down", "", err)
	}

	return nil
}

// SetMTU implements LinkControl.
func (in *LinuxSystem) SetMTU(name string, mtu int) error {
	link, err := in.link(name)
	if err != nil {
		return err
	}

	if err := in.handle.LinkSetMTU(link, mtu); err != nil {
		return utils.NewCommandFailed(fmt.Sprintf("ip link set %s mtu %d", name, mtu), "", err)
	}

	return nil
}

// SetOffload implements LinkControl by running ethtool.
func (in *LinuxSystem) SetOffload(name, feature string, on bool) error {
	state := "off"
	if on {
		state = "on"
	}

	args := []string{"-K", name, feature, state}
	output, err := in.execer.Command("ethtool", args...).CombinedOutput()
	if err != nil {
		return utils.NewCommandFailed("ethtool "+strings.Join(args, " "), string(output), err)
	}

	return nil
}

// SetMaster implements LinkControl.
func (in *LinuxSystem) SetMaster(name, master string) error {
	link, err := in.link(name)
	if err != nil {
		return err
	}

	masterLink, err := in.link(master)
	if err != nil {
		return err
	}

	if err := in.handle.LinkSetMaster(link, masterLink); err != nil {
		return utils.NewCommandFailed(fmt.Sprintf("ip link set %s master %s", name, master), "", err)
	}

	return nil
}

// SetNoMaster implements LinkControl.
func (in *LinuxSystem) SetNoMaster(name string) error {
	link, err := in.link(name)
	if err != nil {
		return err
	}

	if err := in.handle.LinkSetNoMaster(link); err != nil {
		return utils.NewCommandFailed("ip link set "+name+" nomaster", "", err)
	}

	return nil
}

// AddBond implements LinkControl.
func (in *LinuxSystem) AddBond(name string) error {
	bond := netlink.NewLinkBond(netlink.LinkAttrs{Name: name})
	if err := in.handle.LinkAdd(bond); err != nil {
		return utils.NewCommandFailed("ip link add "+name+" type bond", "", err)
	}
	return nil
}

// AddBridge implements LinkControl.
func (in *LinuxSystem) AddBridge(name string) error {
	bridge := &netlink.Bridge{LinkAttrs: netlink.LinkAttrs{Name: name}}
	if err := in.handle.LinkAdd(bridge); err != nil {
		return utils.NewCommandFailed("ip link add "+name+" type bridge", "", err)
	}
	return nil
}

// AddVlan implements LinkControl.  The sub-interface is named
// "<parent>.<vid>".
func (in *LinuxSystem) AddVlan(parent string, vid int) error {
	parentLink, err := in.link(parent)
	if err != nil {
		return err
	}

	name := VlanName(parent, vid)
	vlan := &netlink.Vlan{
		LinkAttrs: netlink.LinkAttrs{Name: name, ParentIndex: parentLink.Attrs().Index},
		VlanId:    vid,
	}

	if err := in.handle.LinkAdd(vlan); err != nil {
		return utils.NewCommandFailed(fmt.Sprintf("ip link add link %s name %s type vlan id %d", parent, name, vid), "", err)
	}

	return nil
}

// DeleteLink implements LinkControl.
func (in *LinuxSystem) DeleteLink(name string) error {
	link, err := in.link(name)
	if err != nil {
		return err
	}

	if err := in.handle.LinkDel(link); err != nil {
		return utils.NewCommandFailed("ip link del "+name, "", err)
	}

	return nil
}

// ModuleLoaded implements LinkControl.
func (in *LinuxSystem) ModuleLoaded(module string) bool {
	_, err := os.Stat(filepath.Join(in.SysfsRoot, "module", module))
	return err == nil
}

// LoadModule implements LinkControl.
func (in *LinuxSystem) LoadModule(module string) error {
	output, err := in.execer.Command("modprobe", module).CombinedOutput()
	if err != nil {
		return utils.NewCommandFailed("modprobe "+module, string(output), err)
	}
	return nil
}

// OvsAvailable implements VSwitch.
func (in *LinuxSystem) OvsAvailable() bool {
	return in.ovs.Available()
}

// OvsBridgeExists implements VSwitch.
func (in *LinuxSystem) OvsBridgeExists(name string) bool {
	return in.ovs.BridgeExists(name)
}

// OvsBridgeOf implements VSwitch.
func (in *LinuxSystem) OvsBridgeOf(port string) (string, bool) {
	return in.ovs.BridgeOf(port)
}

// OvsPorts implements VSwitch.
func (in *LinuxSystem) OvsPorts(bridge string) ([]string, error) {
	return in.ovs.ListPorts(bridge)
}

// OvsAddBridge implements VSwitch.
func (in *LinuxSystem) OvsAddBridge(name string) error {
	return in.ovs.AddBridge(name)
}

// OvsDeleteBridge implements VSwitch.
func (in *LinuxSystem) OvsDeleteBridge(name string) error {
	return in.ovs.DeleteBridge(name)
}

// OvsAddPort implements VSwitch.
func (in *LinuxSystem) OvsAddPort(bridge, port string) error {
	return in.ovs.AddPort(bridge, port)
}

// OvsDeletePort implements VSwitch.
func (in *LinuxSystem) OvsDeletePort(bridge, port string) error {
	return in.ovs.DeletePort(bridge, port)
}
