/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package inventory

import (
	"github.com/crowbar/node-inventory/attributes"
	"github.com/crowbar/node-inventory/platform"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Disk inventory", func() {
	It("fills in defaults for missing fields", func() {
		node := platform.NewNodeInfo("node1", attributes.NewMapStore(map[string]interface{}{
			"crowbar": map[string]interface{}{
				"disks": map[string]interface{}{
					"sdb": map[string]interface{}{},
					"sda": map[string]interface{}{
						"model":     "ST91000640NS",
						"removable": "0",
						"rev":       "AA09",
						"size":      "1953525168",
						"state":     "running",
						"timeout":   "30 seconds",
						"vendor":    "ATA",
						"usage":     "OS",
					},
				},
			},
		}))

		Expect(ListDisks(node)).To(Equal([]DiskInfo{
			{
				Name:      "/dev/sda",
				Model:     "ST91000640NS",
				Removable: false,
				Rev:       "AA09",
				Size:      1953525168,
				State:     "running",
				Timeout:   30,
				Vendor:    "ATA",
				Usage:     "OS",
			},
			{
				Name:      "/dev/sdb",
				Model:     "Unknown",
				Removable: true,
				Rev:       "Unknown",
				Size:      0,
				State:     "Unknown",
				Timeout:   0,
				Vendor:    "NA",
				Usage:     "Unknown",
			},
		}))
	})

	It("returns no disks for a node without any", func() {
		node := platform.NewNodeInfo("node1", attributes.NewMapStore(nil))
		Expect(ListDisks(node)).To(BeEmpty())
	})

	It("converts sizes to bytes", func() {
		tests := []struct {
			size string
			want int64
		}{
			{"0", 0},
			{"512", 512},
			{"64KB", 64 * 1024},
			{"64kb", 64 * 1024},
			{"20GB", 20 * 1024 * 1024 * 1024},
			{"3MB", 3 * 1024 * 1024},
			{"2TB", 2 * 1024 * 1024 * 1024 * 1024},
			{"", -1},
			{"-5", -1},
			{"1PB", -1},
			{"GB", -1},
			{"1.5GB", -1},
			{"12 GB", -1},
			{"10G", -1},
			{"ten", -1},
		}
		for _, tt := range tests {
			Expect(SizeToBytes(tt.size)).To(Equal(tt.want), tt.size)
		}
	})
})
