/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

// Package metrics exposes the inventory of a node as Prometheus gauges.  The
// node agent has no listener of its own, so the gauges are written to a
// node-exporter textfile collector directory.
package metrics

import (
	"os"
	"path/filepath"

	perrors "github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	"github.com/crowbar/node-inventory/disk"
	"github.com/crowbar/node-inventory/platform"
)

var log = logf.Log.WithName("metrics")

const namespace = "node_inventory"

var _ prometheus.Collector = &InventoryCollector{}

// InventoryCollector computes the inventory gauges from the node attributes
// each time it is collected.
type InventoryCollector struct {
	node    *platform.NodeInfo
	devRoot string

	Interfaces   *prometheus.Desc
	Networks     *prometheus.Desc
	Bonds        *prometheus.Desc
	FixedDisks   *prometheus.Desc
	DiskSize     *prometheus.Desc
	ClaimedDisks *prometheus.Desc
}

// NewInventoryCollector returns a collector for 'node'.
func NewInventoryCollector(node *platform.NodeInfo, devRoot string) *InventoryCollector {
	return &InventoryCollector{
		node:    node,
		devRoot: devRoot,
		Interfaces: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "physical_interfaces"),
			"Number of physical network interfaces detected on the node", []string{"node"}, nil),
		Networks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "networks"),
			"Number of networks the node is attached to", []string{"node"}, nil),
		Bonds: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "bonds"),
			"Number of bonds allocated for the node", []string{"node"}, nil),
		FixedDisks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "fixed_disks"),
			"Number of fixed disks on the node", []string{"node"}, nil),
		DiskSize: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "disk", "size_bytes"),
			"Size of a fixed disk", []string{"node", "disk"}, nil),
		ClaimedDisks: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "", "claimed_disks"),
			"Number of disks held by an owner, unclaimed fixed disks have an empty owner",
			[]string{"node", "owner"}, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *InventoryCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.Interfaces
	ch <- c.Networks
	ch <- c.Bonds
	ch <- c.FixedDisks
	ch <- c.DiskSize
	ch <- c.ClaimedDisks
}

// Collect implements prometheus.Collector.
func (c *InventoryCollector) Collect(ch chan<- prometheus.Metric) {
	name := c.node.Name

	ch <- prometheus.MustNewConstMetric(c.Interfaces, prometheus.GaugeValue,
		float64(len(c.node.DetectedInterfaces())), name)
	ch <- prometheus.MustNewConstMetric(c.Networks, prometheus.GaugeValue,
		float64(len(c.node.NetworkNames())), name)
	ch <- prometheus.MustNewConstMetric(c.Bonds, prometheus.GaugeValue,
		float64(len(c.node.BondList())), name)

	fixed := disk.FixedDisks(c.node, c.devRoot)
	ch <- prometheus.MustNewConstMetric(c.FixedDisks, prometheus.GaugeValue, float64(len(fixed)), name)

	for _, d := range fixed {
		ch <- prometheus.MustNewConstMetric(c.DiskSize, prometheus.GaugeValue,
			float64(d.Size()*disk.SectorSize), name, d.Name())
	}

	owners := map[string]int{"": len(disk.Unclaimed(c.node, c.devRoot))}
	for _, owner := range c.node.ClaimedDisks() {
		owners[owner]++
	}
	for owner, count := range owners {
		ch <- prometheus.MustNewConstMetric(c.ClaimedDisks, prometheus.GaugeValue, float64(count), name, owner)
	}
}

// WriteTextfile writes the inventory gauges of 'node' to 'path' in the text
// exposition format.  The file is replaced atomically.
func WriteTextfile(path string, node *platform.NodeInfo, devRoot string) error {
	registry := prometheus.NewRegistry()
	if err := registry.Register(NewInventoryCollector(node, devRoot)); err != nil {
		return perrors.Wrap(err, "failed to register inventory collector")
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return perrors.Wrapf(err, "failed to create textfile directory for %s", path)
	}

	if err := prometheus.WriteToTextfile(path, registry); err != nil {
		return perrors.Wrapf(err, "failed to write metrics to %s", path)
	}

	log.V(1).Info("metrics written", "node", node.Name, "path", path)

	return nil
}
