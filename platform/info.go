/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2019-2026 Wind River Systems, Inc. */

package platform

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/pkg/errors"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/crowbar/node-inventory/attributes"
	utils "github.com/crowbar/node-inventory/common"
)

var log = logf.Log.WithName("platform")

// NodeInfo defines a typed view over the attribute store of a single node.
// Since the inventory resolvers need related information from several
// attribute namespaces (DMI data, the conduit configuration, detected
// hardware and the persisted bond and claim records) those accessors are
// aggregated into a single type to facilitate passing the data around.
type NodeInfo struct {
	attributes.Store
	Name string
}

// InterfaceMapEntry is one element of network.interface_map; it selects a bus
// order for nodes whose DMI product name matches Pattern.
type InterfaceMapEntry struct {
	Pattern      string   `mapstructure:"pattern"`
	SerialNumber string   `mapstructure:"serial_number"`
	BusOrder     []string `mapstructure:"bus_order"`
}

// ConduitMapEntry is one element of network.conduit_map; Pattern has the
// form "<mode>/<nic-count>/<role>" where each part is a regular expression.
type ConduitMapEntry struct {
	Pattern     string                            `mapstructure:"pattern"`
	ConduitList map[string]map[string]interface{} `mapstructure:"conduit_list"`
}

// DetectedInterface is a physical interface as recorded by discovery.
type DetectedInterface struct {
	Path   string   `mapstructure:"path"`
	Speeds []string `mapstructure:"speeds"`
	MAC    string   `mapstructure:"mac"`
}

// NetworkConfig is the configuration of a network the node is attached to.
type NetworkConfig struct {
	Address   string `mapstructure:"address"`
	Broadcast string `mapstructure:"broadcast"`
	MAC       string `mapstructure:"mac"`
	Netmask   string `mapstructure:"netmask"`
	Subnet    string `mapstructure:"subnet"`
	Router    string `mapstructure:"router"`
	Usage     string `mapstructure:"usage"`
	VLAN      int    `mapstructure:"vlan"`
	UseVLAN   bool   `mapstructure:"use_vlan"`
	Conduit   string `mapstructure:"conduit"`
	AddBridge bool   `mapstructure:"add_bridge"`
}

// DiskConfig is a disk as recorded under crowbar.disks.
type DiskConfig struct {
	Model     string `mapstructure:"model"`
	Removable string `mapstructure:"removable"`
	Rev       string `mapstructure:"rev"`
	Size      string `mapstructure:"size"`
	State     string `mapstructure:"state"`
	Timeout   string `mapstructure:"timeout"`
	Vendor    string `mapstructure:"vendor"`
	Usage     string `mapstructure:"usage"`
}

// BlockDevice is a block device as recorded by discovery under block_device.
type BlockDevice struct {
	Size       int64               `mapstructure:"size"`
	Removable  string              `mapstructure:"removable"`
	Model      string              `mapstructure:"model"`
	Rev        string              `mapstructure:"rev"`
	State      string              `mapstructure:"state"`
	Timeout    string              `mapstructure:"timeout"`
	Vendor     string              `mapstructure:"vendor"`
	Rotational string              `mapstructure:"rotational"`
	Disks      map[string][]string `mapstructure:"disks"`
}

// NewNodeInfo wraps an attribute store.
func NewNodeInfo(name string, store attributes.Store) *NodeInfo {
	return &NodeInfo{Store: store, Name: name}
}

// decode converts a generic attribute value into a typed structure, accepting
// the loose typing of hand written attribute documents (e.g., "100" for 100).
func decode(input interface{}, output interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           output,
	})
	if err != nil {
		return errors.Wrap(err, "failed to create attribute decoder")
	}

	return errors.Wrap(decoder.Decode(input), "failed to decode attribute")
}

// GetString returns the string form of a scalar attribute or "" if absent.
func (in *NodeInfo) GetString(path ...string) string {
	value, ok := in.Get(path...)
	if !ok || value == nil {
		return ""
	}

	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetMap returns a map attribute or nil if absent or not a map.
func (in *NodeInfo) GetMap(path ...string) map[string]interface{} {
	value, _ := in.Get(path...)
	if m, ok := value.(map[string]interface{}); ok {
		return m
	}
	return nil
}

// GetList returns a list attribute or nil if absent or not a list.
func (in *NodeInfo) GetList(path ...string) []interface{} {
	value, _ := in.Get(path...)
	if l, ok := value.([]interface{}); ok {
		return l
	}
	return nil
}

// GetStringList returns a list attribute with each element converted to a
// string.  A scalar attribute is returned as a single element list.
func (in *NodeInfo) GetStringList(path ...string) []string {
	value, ok := in.Get(path...)
	if !ok || value == nil {
		return nil
	}

	return toStringList(value)
}

func toStringList(value interface{}) []string {
	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		result := make([]string, 0, len(v))
		for _, item := range v {
			if item == nil {
				continue
			}
			result = append(result, fmt.Sprintf("%v", item))
		}
		return result
	case string:
		return []string{v}
	default:
		return nil
	}
}

// ProductName returns the DMI system product name.
func (in *NodeInfo) ProductName() string {
	return in.GetString(utils.AttrDMI, utils.AttrSystem, "product_name")
}

// SerialNumber returns the DMI system serial number with surrounding blanks
// removed.
func (in *NodeInfo) SerialNumber() string {
	return strings.TrimSpace(in.GetString(utils.AttrDMI, utils.AttrSystem, "serial_number"))
}

// Manufacturer returns the DMI system manufacturer.
func (in *NodeInfo) Manufacturer() string {
	return in.GetString(utils.AttrDMI, utils.AttrSystem, "manufacturer")
}

// Roles returns the role names assigned to the node.
func (in *NodeInfo) Roles() []string {
	return in.GetStringList(utils.AttrRoles)
}

// NetworkMode returns the configured conduit mode (e.g., single, dual, team).
func (in *NodeInfo) NetworkMode() string {
	return in.GetString(utils.AttrNetwork, utils.AttrMode)
}

// Platform returns the operating system platform identity.
func (in *NodeInfo) Platform() string {
	return in.GetString(utils.AttrPlatform)
}

// PlatformVersion returns the operating system platform version.
func (in *NodeInfo) PlatformVersion() string {
	return in.GetString(utils.AttrPlatformVersion)
}

// InterfaceMap returns the decodable entries of network.interface_map in
// order.  Malformed entries are skipped.
func (in *NodeInfo) InterfaceMap() []InterfaceMapEntry {
	result := make([]InterfaceMapEntry, 0)
	for _, item := range in.GetList(utils.AttrNetwork, utils.AttrInterfaceMap) {
		entry := InterfaceMapEntry{}
		if err := decode(item, &entry); err != nil {
			log.Info("skipping malformed interface map entry", "node", in.Name, "error", err.Error())
			continue
		}
		result = append(result, entry)
	}
	return result
}

// ConduitMap returns the decodable entries of network.conduit_map in order.
// Malformed entries are skipped.
func (in *NodeInfo) ConduitMap() []ConduitMapEntry {
	result := make([]ConduitMapEntry, 0)
	for _, item := range in.GetList(utils.AttrNetwork, utils.AttrConduitMap) {
		entry := ConduitMapEntry{}
		if err := decode(item, &entry); err != nil {
			log.Info("skipping malformed conduit map entry", "node", in.Name, "error", err.Error())
			continue
		}
		result = append(result, entry)
	}
	return result
}

// DetectedInterfaces returns the physical interfaces recorded by discovery
// keyed by interface name.  A bare string value is the legacy form holding
// only the bus path.
func (in *NodeInfo) DetectedInterfaces() map[string]DetectedInterface {
	result := make(map[string]DetectedInterface)
	detected := in.GetMap(utils.AttrCrowbarOhai, utils.AttrDetected, utils.AttrNetwork)
	for name, value := range detected {
		if path, ok := value.(string); ok {
			result[name] = DetectedInterface{Path: path}
			continue
		}

		info := DetectedInterface{}
		if err := decode(value, &info); err != nil {
			log.Info("skipping malformed detected interface", "node", in.Name, "interface", name)
			continue
		}
		result[name] = info
	}
	return result
}

// BondList returns the persisted bond name to member list mapping.
func (in *NodeInfo) BondList() map[string][]string {
	result := make(map[string][]string)
	for name, value := range in.GetMap(utils.AttrCrowbar, utils.AttrBondList) {
		result[name] = toStringList(value)
	}
	return result
}

// NetworkNames returns the names of the networks the node is attached to in
// ascending order.
func (in *NodeInfo) NetworkNames() []string {
	return utils.SortedKeys(in.GetMap(utils.AttrCrowbar, utils.AttrNetwork))
}

// NetworkConfig returns the configuration of the named network.
func (in *NodeInfo) NetworkConfig(name string) (*NetworkConfig, bool) {
	value, ok := in.Get(utils.AttrCrowbar, utils.AttrNetwork, name)
	if !ok {
		return nil, false
	}

	config := &NetworkConfig{}
	if err := decode(value, config); err != nil {
		log.Info("skipping malformed network", "node", in.Name, "network", name, "error", err.Error())
		return nil, false
	}

	return config, true
}

// DiskNames returns the names of the disks under crowbar.disks in ascending
// order.
func (in *NodeInfo) DiskNames() []string {
	return utils.SortedKeys(in.GetMap(utils.AttrCrowbar, utils.AttrDisks))
}

// DiskConfig returns the crowbar.disks record of the named disk.
func (in *NodeInfo) DiskConfig(name string) (*DiskConfig, bool) {
	value, ok := in.Get(utils.AttrCrowbar, utils.AttrDisks, name)
	if !ok {
		return nil, false
	}

	config := &DiskConfig{}
	if err := decode(value, config); err != nil {
		log.Info("skipping malformed disk", "node", in.Name, "disk", name, "error", err.Error())
		return nil, false
	}

	return config, true
}

// BlockDeviceNames returns the names of the discovered block devices in
// ascending order.
func (in *NodeInfo) BlockDeviceNames() []string {
	return utils.SortedKeys(in.GetMap(utils.AttrBlockDevice))
}

// BlockDevice returns the discovered metadata of the named block device.
func (in *NodeInfo) BlockDevice(name string) (*BlockDevice, bool) {
	value, ok := in.Get(utils.AttrBlockDevice, name)
	if !ok {
		return nil, false
	}

	device := &BlockDevice{}
	if err := decode(value, device); err != nil {
		log.Info("skipping malformed block device", "node", in.Name, "device", name, "error", err.Error())
		return nil, false
	}

	return device, true
}

// ClaimedDisks returns the unique names of all claimed disks mapped to their
// owner.
func (in *NodeInfo) ClaimedDisks() map[string]string {
	result := make(map[string]string)
	for name := range in.GetMap(utils.AttrCrowbarWall, utils.AttrClaimedDisks) {
		result[name] = in.GetString(utils.AttrCrowbarWall, utils.AttrClaimedDisks, name, utils.AttrOwner)
	}
	return result
}
