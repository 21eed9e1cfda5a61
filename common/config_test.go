/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package common

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Inventory config", func() {
	Describe("feature paths", func() {
		It("should build nested viper paths", func() {
			Expect(FeatureStatePath(NetworkDiscovery)).To(Equal("features.discovery.network.enabled"))
			Expect(FeatureOptionPath(Metrics, Textfile)).To(Equal("features.metrics.textfile"))
		})
	})

	Describe("defaults", func() {
		It("should enable discovery and disable metrics", func() {
			Expect(IsFeatureEnabled(BlockDiscovery)).To(BeTrue())
			Expect(IsFeatureEnabled(Metrics)).To(BeFalse())
			Expect(GetFeatureOptionBool(NetworkDiscovery, UseEthtool, false)).To(BeTrue())
			Expect(GetString(SysfsRootKey)).To(Equal("/sys"))
		})

		It("should fall back to the caller default for unknown options", func() {
			Expect(GetFeatureOptionBool(BondPersistence, UseEthtool, true)).To(BeTrue())
			Expect(GetFeatureOptionString(BondPersistence, Textfile, "x")).To(Equal("x"))
		})
	})

	Describe("ReadConfig", func() {
		var dir string

		BeforeEach(func() {
			var err error
			dir, err = os.MkdirTemp("", "inventory-config")
			Expect(err).To(BeNil())
		})

		AfterEach(func() {
			cfg = newConfig()
			os.RemoveAll(dir)
		})

		It("should ignore a missing file", func() {
			Expect(ReadConfig(filepath.Join(dir, "missing.yaml"))).To(Succeed())
		})

		It("should load settings and cascade parent feature state", func() {
			path := filepath.Join(dir, "config.yaml")
			content := []byte("features:\n  discovery:\n    enabled: false\npaths:\n  dev: /tmp/dev\n")
			Expect(os.WriteFile(path, content, 0600)).To(Succeed())

			Expect(ReadConfig(path)).To(Succeed())
			Expect(GetString(DevRootKey)).To(Equal("/tmp/dev"))
			Expect(IsFeatureEnabled(Discovery)).To(BeFalse())
			Expect(IsFeatureEnabled(NetworkDiscovery)).To(BeFalse())
		})

		It("should report malformed files", func() {
			path := filepath.Join(dir, "broken.yaml")
			Expect(os.WriteFile(path, []byte("features: [\n"), 0600)).To(Succeed())
			Expect(ReadConfig(path)).NotTo(Succeed())
		})
	})
})
