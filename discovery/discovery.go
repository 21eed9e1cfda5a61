/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

// Package discovery collects the automatic hardware attributes of the local
// node (physical network interfaces, block devices, DMI system data and UEFI
// boot entries) and records them in the node's attribute store.
package discovery

import (
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/multierr"
	"k8s.io/utils/exec"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/platform"
)

var log = logf.Log.WithName("discovery")

// Discoverer reads hardware information below a sysfs and a device root so
// that it can be pointed at a fabricated tree.
type Discoverer struct {
	SysfsRoot string
	DevRoot   string

	execer exec.Interface
}

// New returns a discoverer for the given roots.  External tools (ethtool,
// efibootmgr) are run through 'execer'.
func New(sysfsRoot, devRoot string, execer exec.Interface) *Discoverer {
	return &Discoverer{SysfsRoot: sysfsRoot, DevRoot: devRoot, execer: execer}
}

// detector binds a discovery function to the feature gating it and to the
// attribute path its result replaces.
type detector struct {
	feature utils.FeatureName
	path    []string
	detect  func() (map[string]interface{}, error)
}

func (in *Discoverer) detectors() []detector {
	return []detector{
		{utils.NetworkDiscovery, []string{utils.AttrCrowbarOhai, utils.AttrDetected, utils.AttrNetwork}, in.Network},
		{utils.BlockDiscovery, []string{utils.AttrBlockDevice}, in.BlockDevices},
		{utils.DMIDiscovery, []string{utils.AttrDMI, utils.AttrSystem}, in.DMI},
		{utils.UEFIDiscovery, []string{utils.AttrUEFI}, in.UEFI},
	}
}

// Run refreshes every enabled class of automatic attributes on 'node'.  A
// failing detector does not prevent the others from running; partial results
// are still recorded and all failures are returned together.  The caller is
// responsible for saving the store.
func (in *Discoverer) Run(node *platform.NodeInfo) error {
	var errs error

	for _, d := range in.detectors() {
		if !utils.IsFeatureEnabled(d.feature) {
			continue
		}

		value, err := d.detect()
		if err != nil {
			log.Error(err, "discovery failed", "node", node.Name, "feature", string(d.feature))
			errs = multierr.Append(errs, err)
		}

		if value == nil {
			continue
		}

		node.Set(d.path, value)
		log.V(1).Info("attributes refreshed", "node", node.Name,
			"path", strings.Join(d.path, "."), "count", len(value))
	}

	return errs
}

// readAttr returns the trimmed content of a sysfs attribute file.
func readAttr(path ...string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(path...))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

func exists(path ...string) bool {
	_, err := os.Stat(filepath.Join(path...))
	return err == nil
}
