/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2019-2026 Wind River Systems, Inc. */

package build

import (
	"bytes"
	"fmt"
	"io"
	"sort"

	"github.com/ghodss/yaml"
	perrors "github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/vishvananda/netlink"

	"github.com/crowbar/node-inventory/disk"
	"github.com/crowbar/node-inventory/inventory"
	"github.com/crowbar/node-inventory/nic"
	"github.com/crowbar/node-inventory/platform"
)

const yamlSeparator = "---\n"

// Builder is the report builder interface which exists to allow easier
// mocking for unit test development.
type Builder interface {
	Build() (*Report, error)
	AddFilters(filters []Filter)
}

// ReportBuilder is the concrete implementation of the builder interface
// which is capable of building a full inventory report of a node from its
// attributes and, optionally, from its live network devices.
type ReportBuilder struct {
	node           *platform.NodeInfo
	registry       *nic.Registry
	devRoot        string
	progressWriter io.Writer
	filters        []Filter
}

var defaultFilters = []Filter{
	NewLoopbackFilter(),
	NewRemovableDiskFilter(),
}

// NewReportBuilder returns an instantiation of a report builder structure.
// A nil registry leaves the live devices out of the report.
func NewReportBuilder(node *platform.NodeInfo, registry *nic.Registry, devRoot string, progressWriter io.Writer) *ReportBuilder {
	return &ReportBuilder{
		node:           node,
		registry:       registry,
		devRoot:        devRoot,
		progressWriter: progressWriter,
		filters:        append([]Filter{}, defaultFilters...)}
}

// NodeSummary identifies the node a report was built for.
type NodeSummary struct {
	Name            string   `json:"name"`
	Manufacturer    string   `json:"manufacturer,omitempty"`
	ProductName     string   `json:"productName,omitempty"`
	SerialNumber    string   `json:"serialNumber,omitempty"`
	Platform        string   `json:"platform,omitempty"`
	PlatformVersion string   `json:"platformVersion,omitempty"`
	Roles           []string `json:"roles,omitempty"`
	NetworkMode     string   `json:"networkMode,omitempty"`
}

// BondInfo is an allocated bond and its members in allocation order.
type BondInfo struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// BlockDeviceInfo is a discovered block device with its stable name and
// claim holder.
type BlockDeviceInfo struct {
	Device       string `json:"device"`
	Name         string `json:"name"`
	UniqueName   string `json:"uniqueName"`
	Model        string `json:"model,omitempty"`
	Vendor       string `json:"vendor,omitempty"`
	Size         int64  `json:"size"`
	Fixed        bool   `json:"fixed"`
	Removable    bool   `json:"removable"`
	Rotational   bool   `json:"rotational"`
	CinderVolume bool   `json:"cinderVolume,omitempty"`
	Owner        string `json:"owner,omitempty"`
}

// NicInfo is a live network device.
type NicInfo struct {
	Name      string   `json:"name"`
	Kind      nic.Kind `json:"kind"`
	MAC       string   `json:"mac,omitempty"`
	MTU       int      `json:"mtu"`
	Up        bool     `json:"up"`
	Loopback  bool     `json:"loopback,omitempty"`
	Physical  bool     `json:"physical"`
	Master    string   `json:"master,omitempty"`
	Slaves    []string `json:"slaves,omitempty"`
	Parents   []string `json:"parents,omitempty"`
	Addresses []string `json:"addresses,omitempty"`
}

// Report defines the structure used to store all of the details of a node
// inventory.
type Report struct {
	Node         NodeSummary          `json:"node"`
	Networks     []inventory.Network  `json:"networks"`
	Bonds        []BondInfo           `json:"bonds"`
	Disks        []inventory.DiskInfo `json:"disks"`
	BlockDevices []BlockDeviceInfo    `json:"blockDevices"`
	Nics         []NicInfo            `json:"nics,omitempty"`
}

// progressUpdate is a utility method to write a progress log to the provided
// i/o writer interface.
func (db *ReportBuilder) progressUpdate(messagefmt string, args ...interface{}) {
	if db.progressWriter == nil {
		return
	}
	_, _ = fmt.Fprintf(db.progressWriter, messagefmt, args...)
	// Suppress errors
}

// AddFilters adds a list of report filters to the set already present on the
// report builder.
func (db *ReportBuilder) AddFilters(filters []Filter) {
	db.filters = append(db.filters, filters...)
}

// Build is the main method which produces a report for the node.  Building
// the network section allocates bond names for conduits that have none yet,
// exactly as resolving the networks does.
func (db *ReportBuilder) Build() (*Report, error) {
	report := Report{}

	db.progressUpdate("building inventory report for node %q\n", db.node.Name)

	db.buildNode(&report)

	db.progressUpdate("building network configuration\n")
	if err := inventory.ValidateConduits(db.node); err != nil {
		return nil, err
	}
	report.Networks = inventory.ListNetworks(db.node)
	db.buildBonds(&report)

	db.progressUpdate("building disk configuration\n")
	report.Disks = inventory.ListDisks(db.node)
	db.buildBlockDevices(&report)

	if db.registry != nil {
		db.progressUpdate("building live interface configuration\n")
		if err := db.buildNics(&report); err != nil {
			return nil, err
		}
	}

	db.progressUpdate("filtering report\n")
	for _, f := range db.filters {
		if err := f.Filter(&report); err != nil {
			return nil, err
		}
	}

	return &report, nil
}

func (db *ReportBuilder) buildNode(r *Report) {
	r.Node = NodeSummary{
		Name:            db.node.Name,
		Manufacturer:    db.node.Manufacturer(),
		ProductName:     db.node.ProductName(),
		SerialNumber:    db.node.SerialNumber(),
		Platform:        db.node.Platform(),
		PlatformVersion: db.node.PlatformVersion(),
		Roles:           db.node.Roles(),
		NetworkMode:     db.node.NetworkMode(),
	}
}

func (db *ReportBuilder) buildBonds(r *Report) {
	bonds := db.node.BondList()

	r.Bonds = make([]BondInfo, 0, len(bonds))
	for _, name := range lo.Keys(bonds) {
		r.Bonds = append(r.Bonds, BondInfo{Name: name, Members: bonds[name]})
	}

	sort.Slice(r.Bonds, func(i, j int) bool {
		return r.Bonds[i].Name < r.Bonds[j].Name
	})
}

func (db *ReportBuilder) buildBlockDevices(r *Report) {
	r.BlockDevices = DescribeDisks(db.node, db.devRoot)
}

// DescribeDisks returns the discovered block devices of 'node' in name order.
func DescribeDisks(node *platform.NodeInfo, devRoot string) []BlockDeviceInfo {
	return lo.Map(disk.All(node, devRoot), func(d *disk.Disk, _ int) BlockDeviceInfo {
		return BlockDeviceInfo{
			Device:       d.Device(),
			Name:         d.Name(),
			UniqueName:   d.UniqueName(),
			Model:        d.Model(),
			Vendor:       d.Vendor(),
			Size:         d.Size() * disk.SectorSize,
			Fixed:        d.Fixed(),
			Removable:    d.Removable(),
			Rotational:   d.Rotational(),
			CinderVolume: d.CinderVolume(),
			Owner:        d.Owner(),
		}
	})
}

func names(nics []nic.Nic) []string {
	return lo.Map(nics, func(n nic.Nic, _ int) string { return n.Name() })
}

func (db *ReportBuilder) buildNics(r *Report) error {
	nics, err := DescribeNics(db.registry, db.node)
	if err != nil {
		return err
	}

	r.Nics = nics

	return nil
}

// DescribeNics returns the live network devices of 'registry' in dependency
// order.  A device is physical if discovery recorded it for 'node'.
func DescribeNics(registry *nic.Registry, node *platform.NodeInfo) ([]NicInfo, error) {
	nics, err := registry.Nics()
	if err != nil {
		return nil, perrors.Wrap(err, "failed to list live interfaces")
	}

	detected := node.DetectedInterfaces()

	result := make([]NicInfo, 0, len(nics))
	for _, n := range nics {
		info := NicInfo{
			Name:     n.Name(),
			Kind:     n.Kind(),
			MAC:      n.MAC(),
			MTU:      n.MTU(),
			Up:       n.IsUp(),
			Loopback: n.IsLoopback(),
		}
		_, info.Physical = detected[n.Name()]

		info.Addresses = lo.Map(n.Addresses(), func(a netlink.Addr, _ int) string {
			return a.IPNet.String()
		})

		master, err := n.Master()
		if err != nil {
			return nil, perrors.Wrapf(err, "failed to find the master of %s", n.Name())
		}
		if master != nil {
			info.Master = master.Name()
		}

		slaves, err := n.Slaves()
		if err != nil {
			return nil, perrors.Wrapf(err, "failed to list the slaves of %s", n.Name())
		}
		info.Slaves = names(slaves)

		parents, err := n.Parents()
		if err != nil {
			return nil, perrors.Wrapf(err, "failed to list the parents of %s", n.Name())
		}
		info.Parents = names(parents)

		result = append(result, info)
	}

	return result, nil
}

// ToYAML is a utility method to publish the report as a YAML document.
func (r *Report) ToYAML() (string, error) {
	var b bytes.Buffer

	b.Write([]byte(yamlSeparator))

	buf, err := yaml.Marshal(r)
	if err != nil {
		err = perrors.Wrap(err, "failed to render report to YAML")
		return "", err
	}

	b.Write(buf)

	return b.String(), nil
}
