/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package discovery

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	perrors "github.com/pkg/errors"
)

// Attributes of a block device and the sysfs sub-directory holding them.
var blockAttrs = map[string][]string{
	"":       {"size", "removable"},
	"device": {"model", "rev", "state", "timeout", "vendor"},
	"queue":  {"rotational"},
}

// BlockDevices detects the block devices and their /dev/disk aliases.
// Devices are keyed by their kernel name, with "/" shown as "!" as sysfs
// does (e.g. "cciss!c0d0").
func (in *Discoverer) BlockDevices() (map[string]interface{}, error) {
	dir := filepath.Join(in.SysfsRoot, "block")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, perrors.Wrapf(err, "failed to list block devices in %s", dir)
	}

	result := make(map[string]interface{})
	for _, entry := range entries {
		device := make(map[string]interface{})
		for sub, attrs := range blockAttrs {
			for _, attr := range attrs {
				if value, ok := readAttr(dir, entry.Name(), sub, attr); ok {
					device[attr] = value
				}
			}
		}
		result[entry.Name()] = device
	}

	in.diskAliases(result)

	return result, nil
}

// diskAliases records the /dev/disk/<type>/<alias> links of each known
// device under "disks.<type>", sorted.
func (in *Discoverer) diskAliases(devices map[string]interface{}) {
	root := filepath.Join(in.DevRoot, "disk")

	types, err := os.ReadDir(root)
	if err != nil {
		log.V(1).Info("no disk aliases", "path", root)
		return
	}

	for _, kind := range types {
		typeDir := filepath.Join(root, kind.Name())

		aliases, err := os.ReadDir(typeDir)
		if err != nil {
			continue
		}

		for _, alias := range aliases {
			target, err := os.Readlink(filepath.Join(typeDir, alias.Name()))
			if err != nil {
				continue
			}
			if !filepath.IsAbs(target) {
				target = filepath.Join(typeDir, target)
			}

			rel, err := filepath.Rel(in.DevRoot, target)
			if err != nil {
				continue
			}

			device, ok := devices[strings.ReplaceAll(rel, "/", "!")].(map[string]interface{})
			if !ok {
				continue
			}

			disks, ok := device["disks"].(map[string]interface{})
			if !ok {
				disks = make(map[string]interface{})
				device["disks"] = disks
			}

			names, _ := disks[kind.Name()].([]string)
			names = append(names, alias.Name())
			sort.Strings(names)
			disks[kind.Name()] = names
		}
	}
}
