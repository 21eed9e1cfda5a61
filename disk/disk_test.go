/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package disk

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/samber/lo"

	"github.com/crowbar/node-inventory/attributes"
	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/platform"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func newNodeData() map[string]interface{} {
	return map[string]interface{}{
		"platform":         "suse",
		"platform_version": "12.3",
		"dmi": map[string]interface{}{
			"system": map[string]interface{}{
				"manufacturer": "Dell Inc.",
				"product_name": "PowerEdge R720",
			},
		},
		"block_device": map[string]interface{}{
			"sda":        map[string]interface{}{"size": "1953525168", "removable": "0", "vendor": "ATA", "model": "ST91000640NS", "rotational": "1"},
			"sdb":        map[string]interface{}{"size": "15240576", "removable": "1", "vendor": "Kingston"},
			"sdc":        map[string]interface{}{"size": "0", "removable": "0"},
			"sdd":        map[string]interface{}{"size": "2097152", "removable": "0", "vendor": "LIO-ORG"},
			"sde":        map[string]interface{}{"size": "2097152", "removable": "0", "model": "IET VIRTUAL-DISK"},
			"vda":        map[string]interface{}{"size": "41943040", "removable": "0", "rotational": "0"},
			"cciss!c0d0": map[string]interface{}{"size": "286677120", "removable": "0"},
			"loop0":      map[string]interface{}{"size": "1024", "removable": "0"},
			"sr0":        map[string]interface{}{"size": "2097151", "removable": "1"},
		},
	}
}

func touch(path string) {
	Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
	Expect(os.WriteFile(path, nil, 0644)).To(Succeed())
}

func link(devRoot, dir, name, device string) {
	path := filepath.Join(devRoot, "disk", dir, name)
	Expect(os.MkdirAll(filepath.Dir(path), 0755)).To(Succeed())
	Expect(os.Symlink(filepath.Join("..", "..", device), path)).To(Succeed())
}

var _ = Describe("Disk", func() {
	var devRoot string
	var store *attributes.MapStore
	var node *platform.NodeInfo

	BeforeEach(func() {
		devRoot = GinkgoT().TempDir()
		for _, name := range []string{"sda", "sdb", "sdc", "vda", "cciss/c0d0"} {
			touch(filepath.Join(devRoot, name))
		}

		store = attributes.NewMapStore(newNodeData())
		node = platform.NewNodeInfo("node1", store)
	})

	AfterEach(func() {
		utils.SetValue(utils.FeatureStatePath(utils.DiskClaims), true)
		utils.SetValue(utils.FeatureOptionPath(utils.DiskClaims, utils.SkipHyperVIDs), true)
	})

	names := func(disks []*Disk) []string {
		return lo.Map(disks, func(d *Disk, _ int) string { return d.Device() })
	}

	Context("metadata", func() {
		It("exposes the discovered attributes", func() {
			d := New(node, "sda", devRoot)
			Expect(d.Name()).To(Equal(filepath.Join(devRoot, "sda")))
			Expect(d.Size()).To(Equal(int64(1953525168)))
			Expect(d.Vendor()).To(Equal("ATA"))
			Expect(d.Model()).To(Equal("ST91000640NS"))
			Expect(d.Rotational()).To(BeTrue())
			Expect(d.Removable()).To(BeFalse())
		})

		It("maps cciss names to their device path", func() {
			Expect(New(node, "cciss!c0d0", devRoot).Name()).To(Equal(filepath.Join(devRoot, "cciss", "c0d0")))
		})

		It("derives the kernel name from a device path", func() {
			Expect(DeviceName("/dev", "/dev/cciss/c0d0")).To(Equal("cciss!c0d0"))
			Expect(DeviceName("", "/dev/sda")).To(Equal("sda"))
			Expect(DeviceName("/dev", "sdb")).To(Equal("sdb"))
			Expect(DeviceName("/dev", "cciss/c0d1")).To(Equal("cciss!c0d1"))
		})

		It("defaults to /dev", func() {
			Expect(New(node, "sda", "").Name()).To(Equal("/dev/sda"))
		})

		It("treats unknown devices as empty", func() {
			d := New(node, "sdz", devRoot)
			Expect(d.Size()).To(BeZero())
			Expect(d.Fixed()).To(BeFalse())
		})
	})

	Context("classification", func() {
		It("recognizes block storage volumes", func() {
			Expect(New(node, "sdd", devRoot).CinderVolume()).To(BeTrue())
			Expect(New(node, "sde", devRoot).CinderVolume()).To(BeTrue())
			Expect(New(node, "sda", devRoot).CinderVolume()).To(BeFalse())
		})

		It("selects local non-removable disks with media", func() {
			Expect(names(FixedDisks(node, devRoot))).To(Equal([]string{"cciss!c0d0", "sda", "vda"}))
		})

		It("counts solid-state disks with media as fixed", func() {
			node.Set([]string{"block_device", "nvme0n1"},
				map[string]interface{}{"size": "1000215216", "removable": "0", "rotational": "0"})

			for _, device := range []string{"vda", "nvme0n1"} {
				d := New(node, device, devRoot)
				Expect(d.Rotational()).To(BeFalse(), device)
				Expect(d.Fixed()).To(BeTrue(), device)
			}
			Expect(New(node, "sdc", devRoot).Fixed()).To(BeFalse())
		})

		It("lists every device in name order", func() {
			Expect(names(All(node, devRoot))).To(HaveLen(9))
			Expect(names(All(node, devRoot))[0]).To(Equal("cciss!c0d0"))
		})
	})

	Context("unique names", func() {
		It("falls back to the device path without aliases", func() {
			Expect(New(node, "sda", devRoot).UniqueName()).To(Equal(filepath.Join(devRoot, "sda")))
		})

		It("prefers vendor scsi ids", func() {
			link(devRoot, "by-id", "ata-ST91000640NS_9XG3", "sda")
			link(devRoot, "by-id", "scsi-1ATA_ST91000640NS", "sda")
			link(devRoot, "by-id", "scsi-35000c500", "sda")
			link(devRoot, "by-id", "scsi-SATA_ST91000640NS", "sda")
			link(devRoot, "by-id", "wwn-0x5000c500", "sda")
			link(devRoot, "by-id", "ata-OTHER", "sdb")

			Expect(New(node, "sda", devRoot).UniqueName()).To(
				Equal(filepath.Join(devRoot, "disk", "by-id", "scsi-SATA_ST91000640NS")))
		})

		It("orders the remaining scsi and ata ids", func() {
			link(devRoot, "by-id", "scsi-1ATA_ST91000640NS", "sda")
			link(devRoot, "by-id", "scsi-35000c500", "sda")
			link(devRoot, "by-id", "ata-ST91000640NS_9XG3", "sda")
			Expect(filepath.Base(New(node, "sda", devRoot).UniqueName())).To(Equal("scsi-35000c500"))

			link(devRoot, "by-id", "ata-ST2000", "sdc")
			link(devRoot, "by-id", "wwn-0x11", "sdc")
			Expect(filepath.Base(New(node, "sdc", devRoot).UniqueName())).To(Equal("ata-ST2000"))

			link(devRoot, "by-id", "wwn-0x22", "vda")
			link(devRoot, "by-id", "virtio-abc", "vda")
			Expect(filepath.Base(New(node, "vda", devRoot).UniqueName())).To(Equal("virtio-abc"))
		})

		It("uses path aliases when there are no ids", func() {
			link(devRoot, "by-path", "pci-0000:00:1f.2-ata-1", "sda")
			Expect(New(node, "sda", devRoot).UniqueName()).To(
				Equal(filepath.Join(devRoot, "disk", "by-path", "pci-0000:00:1f.2-ata-1")))
		})

		It("ignores path aliases of virtio disks on old suse releases", func() {
			link(devRoot, "by-path", "virtio-pci-0000:00:05.0", "vda")
			Expect(filepath.Base(New(node, "vda", devRoot).UniqueName())).To(Equal("virtio-pci-0000:00:05.0"))

			node.Set([]string{"platform_version"}, "11.4")
			Expect(New(node, "vda", devRoot).UniqueName()).To(Equal(filepath.Join(devRoot, "vda")))
		})

		It("ignores ids on hyper-v guests", func() {
			link(devRoot, "by-id", "scsi-360022480", "sda")
			node.Set([]string{"dmi", "system", "manufacturer"}, "Microsoft Corporation")
			node.Set([]string{"dmi", "system", "product_name"}, "Virtual Machine")
			Expect(New(node, "sda", devRoot).UniqueName()).To(Equal(filepath.Join(devRoot, "sda")))

			utils.SetValue(utils.FeatureOptionPath(utils.DiskClaims, utils.SkipHyperVIDs), false)
			Expect(filepath.Base(New(node, "sda", devRoot).UniqueName())).To(Equal("scsi-360022480"))
		})

		It("keeps the name of an existing claim", func() {
			link(devRoot, "by-path", "pci-0000:00:1f.2-ata-1", "sda")
			claimed := filepath.Join(devRoot, "disk", "by-path", "pci-0000:00:1f.2-ata-1")
			node.Set([]string{"crowbar_wall", "claimed_disks", claimed, "owner"}, "LVM_DRBD")

			link(devRoot, "by-id", "scsi-SATA_ST91000640NS", "sda")
			Expect(New(node, "sda", devRoot).UniqueName()).To(Equal(claimed))
		})
	})

	Context("claims", func() {
		It("claims a free disk once", func() {
			d := New(node, "sda", devRoot)
			Expect(d.Owner()).To(BeEmpty())

			Expect(d.Claim("Cinder")).To(BeTrue())
			Expect(d.Owner()).To(Equal("Cinder"))
			Expect(node.ClaimedDisks()).To(Equal(map[string]string{d.UniqueName(): "Cinder"}))
			Expect(store.Saves()).To(Equal(1))

			Expect(d.Claim("Cinder")).To(BeTrue())
			Expect(d.Claim("Swift")).To(BeFalse())
			Expect(d.Owner()).To(Equal("Cinder"))
			Expect(store.Saves()).To(Equal(1))
		})

		It("releases only for the owner", func() {
			d := New(node, "sda", devRoot)
			Expect(d.Release("Cinder")).To(BeFalse())

			Expect(d.Claim("Cinder")).To(BeTrue())
			Expect(d.Release("Swift")).To(BeFalse())
			Expect(d.Release("")).To(BeFalse())
			Expect(d.Owner()).To(Equal("Cinder"))

			Expect(d.Release("Cinder")).To(BeTrue())
			Expect(d.Owner()).To(BeEmpty())
			Expect(node.ClaimedDisks()).To(BeEmpty())
			Expect(store.Saves()).To(Equal(2))

			Expect(d.Claim("Swift")).To(BeTrue())
		})

		It("keeps the claim when saving fails", func() {
			store.SaveError = errors.New("read-only file system")
			d := New(node, "sda", devRoot)
			Expect(d.Claim("Cinder")).To(BeTrue())
			Expect(d.Owner()).To(Equal("Cinder"))
		})

		It("does not save when claims are not persisted", func() {
			utils.SetValue(utils.FeatureStatePath(utils.DiskClaims), false)
			d := New(node, "sda", devRoot)
			Expect(d.Claim("Cinder")).To(BeTrue())
			Expect(store.Saves()).To(BeZero())
		})

		It("tracks claims through a renamed device", func() {
			link(devRoot, "by-id", "scsi-SATA_ST91000640NS", "sda")
			Expect(New(node, "sda", devRoot).Claim("Cinder")).To(BeTrue())

			Expect(os.Remove(filepath.Join(devRoot, "disk", "by-id", "scsi-SATA_ST91000640NS"))).To(Succeed())
			link(devRoot, "by-id", "scsi-SATA_ST91000640NS", "vda")

			Expect(New(node, "vda", devRoot).Owner()).To(Equal("Cinder"))
			Expect(New(node, "sda", devRoot).Owner()).To(BeEmpty())
		})

		It("lists claimed and unclaimed disks", func() {
			Expect(New(node, "vda", devRoot).Claim("Swift")).To(BeTrue())
			Expect(names(Unclaimed(node, devRoot))).To(Equal([]string{"cciss!c0d0", "sda"}))
			Expect(names(Claimed(node, devRoot, "Swift"))).To(Equal([]string{"vda"}))
			Expect(Claimed(node, devRoot, "Cinder")).To(BeEmpty())
		})
	})
})
