/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

// Package disk selects stable names for the block devices of a node and
// arbitrates their ownership.  A disk is claimed under its unique name, the
// most stable /dev/disk alias pointing at it, so that a claim survives the
// kernel renaming the device across reboots.
package disk

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/platform"
)

var log = logf.Log.WithName("disk")

// DefaultDevRoot is the directory holding device nodes.
const DefaultDevRoot = "/dev"

// SectorSize is the unit of the size reported by sysfs.
const SectorSize = 512

const (
	byID   = "by-id"
	byPath = "by-path"
)

var fixedRe = regexp.MustCompile(`^([hsv]d[a-z]+|xvd[a-z]+|cciss!c\d+d\d+|nvme\d+n\d+)$`)

var virtioRe = regexp.MustCompile(`^vd[a-z]+$`)

// Alias preference, most preferred first.  Names not matching any of these
// come last in directory order.
var aliasPreference = []*regexp.Regexp{
	regexp.MustCompile(`^scsi-[a-zA-Z]`),
	regexp.MustCompile(`^scsi-[^1]`),
	regexp.MustCompile(`^scsi-`),
	regexp.MustCompile(`^ata-`),
	regexp.MustCompile(`^cciss-`),
}

// Disk is a block device of a node.
type Disk struct {
	node    *platform.NodeInfo
	device  string
	devRoot string
}

// New returns the disk for a kernel block device name such as "sda" or
// "cciss!c0d0".
func New(node *platform.NodeInfo, device string, devRoot string) *Disk {
	if devRoot == "" {
		devRoot = DefaultDevRoot
	}
	return &Disk{node: node, device: device, devRoot: devRoot}
}

// DeviceName returns the kernel name for a device given either by name or by
// its node path below 'devRoot', e.g. "/dev/cciss/c0d0" is "cciss!c0d0".
func DeviceName(devRoot, device string) string {
	if devRoot == "" {
		devRoot = DefaultDevRoot
	}
	if rel, err := filepath.Rel(devRoot, device); err == nil && filepath.IsAbs(device) && !strings.HasPrefix(rel, "..") {
		device = rel
	}
	return strings.ReplaceAll(device, "/", "!")
}

// Device returns the kernel name of the disk.
func (in *Disk) Device() string {
	return in.device
}

// Name returns the device node path, e.g. /dev/cciss/c0d0.
func (in *Disk) Name() string {
	return filepath.Join(in.devRoot, strings.ReplaceAll(in.device, "!", "/"))
}

func (in *Disk) info() *platform.BlockDevice {
	if info, ok := in.node.BlockDevice(in.device); ok {
		return info
	}
	return &platform.BlockDevice{}
}

// Model returns the model reported by the device.
func (in *Disk) Model() string {
	return in.info().Model
}

// Vendor returns the vendor reported by the device.
func (in *Disk) Vendor() string {
	return in.info().Vendor
}

// Size returns the size in 512 byte sectors.
func (in *Disk) Size() int64 {
	return in.info().Size
}

// State returns the device state, e.g. "running".
func (in *Disk) State() string {
	return in.info().State
}

// Removable returns whether the device has removable media.
func (in *Disk) Removable() bool {
	return in.info().Removable == "1"
}

// Rotational returns whether the device is a spinning disk.
func (in *Disk) Rotational() bool {
	return in.info().Rotational == "1"
}

// CinderVolume returns whether the disk is an iSCSI volume exported by a
// block storage service rather than local storage.
func (in *Disk) CinderVolume() bool {
	info := in.info()
	return info.Vendor == "LIO-ORG" || strings.HasPrefix(info.Model, "IET")
}

// Fixed returns whether the disk is local, non-removable storage with media
// present (a non-zero size).  Rotation is not considered: solid-state and
// NVMe disks are fixed too.
func (in *Disk) Fixed() bool {
	return fixedRe.MatchString(in.device) &&
		!in.Removable() &&
		!in.CinderVolume() &&
		in.Size() > 0
}

func resolve(path string) (string, bool) {
	target, err := filepath.EvalSymlinks(path)
	if err != nil {
		return "", false
	}
	return target, true
}

func (in *Disk) hyperV() bool {
	return in.node.Manufacturer() == "Microsoft Corporation" &&
		in.node.ProductName() == "Virtual Machine"
}

func (in *Disk) lacksVirtioPaths() bool {
	if !virtioRe.MatchString(in.device) || in.node.Platform() != "suse" {
		return false
	}

	version := strings.SplitN(in.node.PlatformVersion(), ".", 2)[0]
	major, err := strconv.Atoi(version)
	return err == nil && major < 12
}

func (in *Disk) aliasDirs() []string {
	dirs := make([]string, 0, 2)

	if in.hyperV() && utils.GetFeatureOptionBool(utils.DiskClaims, utils.SkipHyperVIDs, true) {
		log.V(1).Info("skipping unstable ids on hyper-v", "disk", in.device)
	} else {
		dirs = append(dirs, byID)
	}

	if !in.lacksVirtioPaths() {
		dirs = append(dirs, byPath)
	}

	return dirs
}

func (in *Disk) aliases(dir, target string) []string {
	path := filepath.Join(in.devRoot, "disk", dir)

	entries, err := os.ReadDir(path)
	if err != nil {
		return nil
	}

	names := make([]string, 0)
	for _, entry := range entries {
		if resolved, ok := resolve(filepath.Join(path, entry.Name())); ok && resolved == target {
			names = append(names, entry.Name())
		}
	}
	sort.Strings(names)

	return names
}

func preferredAlias(names []string) string {
	for _, re := range aliasPreference {
		if name, ok := lo.Find(names, re.MatchString); ok {
			return name
		}
	}
	return names[0]
}

// UniqueName returns the most stable name of the disk.  A name the disk is
// already claimed under is kept.  Otherwise the /dev/disk/by-id aliases are
// searched, then the /dev/disk/by-path aliases; SCSI ids are preferred over
// ATA ids and those over CCISS ids.  The device node path is used when the
// disk has no alias.
func (in *Disk) UniqueName() string {
	target, ok := resolve(in.Name())
	if !ok {
		target = in.Name()
	}

	for _, name := range utils.SortedKeys(in.node.ClaimedDisks()) {
		if name == in.Name() {
			return name
		}
		if resolved, ok := resolve(name); ok && resolved == target {
			return name
		}
	}

	for _, dir := range in.aliasDirs() {
		if names := in.aliases(dir, target); len(names) > 0 {
			return filepath.Join(in.devRoot, "disk", dir, preferredAlias(names))
		}
	}

	return in.Name()
}

func ownerPath(name string) []string {
	return []string{utils.AttrCrowbarWall, utils.AttrClaimedDisks, name, utils.AttrOwner}
}

// Owner returns the current claim holder of the disk, or "" if unclaimed.
func (in *Disk) Owner() string {
	return in.node.GetString(ownerPath(in.UniqueName())...)
}

func (in *Disk) save(action, owner string) {
	if !utils.IsFeatureEnabled(utils.DiskClaims) {
		return
	}

	if err := in.node.Save(); err != nil {
		log.Error(err, "failed to persist disk claim", "node", in.node.Name,
			"disk", in.device, "action", action, "owner", owner)
	}
}

// Claim records 'owner' as the holder of the disk.  It returns true if the
// disk is now held by 'owner', including when it already was, and false if
// somebody else holds it.
func (in *Disk) Claim(owner string) bool {
	name := in.UniqueName()

	if !in.node.CompareAndSwap(ownerPath(name), nil, owner) {
		current := in.node.GetString(ownerPath(name)...)
		if current != owner {
			log.Info("disk already claimed", "disk", name, "owner", current, "requester", owner)
		}
		return current == owner
	}

	log.Info("disk claimed", "node", in.node.Name, "disk", name, "owner", owner)
	in.save("claim", owner)

	return true
}

// Release clears the claim of 'owner' on the disk.  It returns false, and
// leaves the claim untouched, unless 'owner' holds the disk.
func (in *Disk) Release(owner string) bool {
	name := in.UniqueName()

	if owner == "" || !in.node.CompareAndSwap(ownerPath(name), owner, nil) {
		return false
	}

	in.node.Delete([]string{utils.AttrCrowbarWall, utils.AttrClaimedDisks, name})

	log.Info("disk released", "node", in.node.Name, "disk", name, "owner", owner)
	in.save("release", owner)

	return true
}
