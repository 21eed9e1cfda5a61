/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package discovery

import (
	"os"
	"path/filepath"

	"k8s.io/utils/exec"
	testingexec "k8s.io/utils/exec/testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type result struct {
	output string
	err    error
}

// fakeExec replies to successive commands with the given results and records
// the command lines it was invoked with.
func fakeExec(calls *[][]string, results ...result) *testingexec.FakeExec {
	fexec := &testingexec.FakeExec{}

	for _, r := range results {
		r := r
		fcmd := &testingexec.FakeCmd{
			CombinedOutputScript: []testingexec.FakeAction{
				func() ([]byte, []byte, error) { return []byte(r.output), nil, r.err },
			},
		}
		fexec.CommandScript = append(fexec.CommandScript,
			func(cmd string, args ...string) exec.Cmd {
				*calls = append(*calls, append([]string{cmd}, args...))
				return testingexec.InitFakeCmd(fcmd, cmd, args...)
			})
	}

	return fexec
}

// tree fabricates files and symlinks below a root directory.
type tree string

func (t tree) path(elem ...string) string {
	return filepath.Join(append([]string{string(t)}, elem...)...)
}

func (t tree) file(path, content string) {
	full := t.path(path)
	Expect(os.MkdirAll(filepath.Dir(full), 0755)).To(Succeed())
	Expect(os.WriteFile(full, []byte(content+"\n"), 0644)).To(Succeed())
}

func (t tree) dir(path string) {
	Expect(os.MkdirAll(t.path(path), 0755)).To(Succeed())
}

func (t tree) link(path, target string) {
	full := t.path(path)
	Expect(os.MkdirAll(filepath.Dir(full), 0755)).To(Succeed())
	Expect(os.Symlink(target, full)).To(Succeed())
}

// nic creates a PCI network device the way the kernel lays it out.
func (t tree) nic(name, bus, device, mac, speed string) {
	dir := filepath.Join("devices", "pci0000:00", bus, device, "net", name)
	t.file(filepath.Join(dir, "type"), "1")
	t.file(filepath.Join(dir, "address"), mac)
	t.file(filepath.Join(dir, "speed"), speed)
	t.link(filepath.Join(dir, "device"), filepath.Join("..", "..", "..", device))
	t.link(filepath.Join("class", "net", name), filepath.Join("..", "..", dir))
}

func newSysfs() tree {
	sys := tree(filepath.Join(GinkgoT().TempDir(), "sys"))

	sys.nic("eth0", "0000:00:01.0", "0000:01:00.0", "00:1E:67:AA:BB:01", "1000")
	sys.nic("eth1", "0000:00:03.0", "0000:03:00.0", "00:1e:67:aa:bb:02", "10000")

	// VLAN on a physical device, loopback and a virtual device.
	sys.link(filepath.Join("class", "net", "eth0.100"), filepath.Join("..", "..", "devices", "virtual", "net", "eth0.100"))
	sys.file(filepath.Join("devices", "virtual", "net", "eth0.100", "type"), "1")
	sys.file(filepath.Join("devices", "virtual", "net", "lo", "type"), "772")
	sys.link(filepath.Join("class", "net", "lo"), filepath.Join("..", "..", "devices", "virtual", "net", "lo"))
	sys.file(filepath.Join("devices", "virtual", "net", "br0", "type"), "1")
	sys.link(filepath.Join("class", "net", "br0"), filepath.Join("..", "..", "devices", "virtual", "net", "br0"))

	sys.file("block/sda/size", "1953525168")
	sys.file("block/sda/removable", "0")
	sys.file("block/sda/device/model", "ST91000640NS")
	sys.file("block/sda/device/vendor", "ATA")
	sys.file("block/sda/queue/rotational", "1")
	sys.file("block/cciss!c0d0/size", "286677120")

	sys.file("class/dmi/id/sys_vendor", "Dell Inc.")
	sys.file("class/dmi/id/product_name", "PowerEdge R720")
	sys.file("class/dmi/id/product_serial", "ABC123")

	return sys
}

func newDevRoot() tree {
	dev := tree(filepath.Join(GinkgoT().TempDir(), "dev"))

	dev.file("sda", "")
	dev.file("cciss/c0d0", "")
	dev.link("disk/by-id/scsi-SATA_ST91000640NS", "../../sda")
	dev.link("disk/by-id/ata-ST91000640NS_9XG3", "../../sda")
	dev.link("disk/by-id/ata-GONE", "../../sdz")
	dev.link("disk/by-path/pci-0000:00:1f.2-scsi-0:0:0:0", "../../cciss/c0d0")

	return dev
}
