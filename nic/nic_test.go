/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package nic

import (
	"bufio"
	"net"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/vishvananda/netlink"
	"golang.org/x/sys/unix"
	"k8s.io/apimachinery/pkg/util/wait"

	utils "github.com/crowbar/node-inventory/common"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func names(nics []Nic) []string {
	return lo.Map(nics, func(n Nic, _ int) string { return n.Name() })
}

func mustGet(reg *Registry, name string) Nic {
	n, err := reg.Get(name)
	Expect(err).ToNot(HaveOccurred())
	return n
}

func mustAddr(cidr string) netlink.Addr {
	addr, err := netlink.ParseAddr(cidr)
	Expect(err).ToNot(HaveOccurred())
	return *addr
}

func newSystem() *DummySystem {
	return NewDummySystem(
		&DummyDevice{
			Name:    "eth0",
			MAC:     "52:54:00:00:00:01",
			Speed:   1000,
			Carrier: true,
			Flags:   FlagUp | FlagBroadcast | FlagMulticast,
		},
		&DummyDevice{Name: "eth1", MAC: "52:54:00:00:00:02", Speed: 1000},
		&DummyDevice{Name: "eth2"},
	)
}

func newBond(reg *Registry, slaves ...string) *Bond {
	bond, err := CreateBond(reg, "bond0", utils.DefaultBondMode, utils.DefaultBondMiimon)
	Expect(err).ToNot(HaveOccurred())
	for _, slave := range slaves {
		Expect(bond.AddSlave(mustGet(reg, slave))).To(Succeed())
	}
	return bond
}

var _ = Describe("Live network devices", func() {
	var sys *DummySystem
	var reg *Registry
	var savedBackoff wait.Backoff

	BeforeEach(func() {
		sys = newSystem()
		sys.Modules[BondingModule] = true
		reg = NewRegistry(sys)
		savedBackoff = createBackoff
		createBackoff = wait.Backoff{Duration: time.Millisecond, Factor: 1, Steps: 5}
	})

	AfterEach(func() {
		createBackoff = savedBackoff
	})

	Describe("Registry", func() {
		It("classifies every kind of device", func() {
			sys.OvsInstalled = true
			sys.Add(&DummyDevice{Name: "bond0", Kind: KindBond})
			sys.Add(&DummyDevice{Name: "br0", Kind: KindBridge})
			sys.Add(&DummyDevice{Name: "ovsbr0", Kind: KindOvsBridge})
			sys.Add(&DummyDevice{Name: "eth0.100", Kind: KindVlan, VlanID: 100, Parent: "eth0"})

			tests := []struct {
				name string
				kind Kind
			}{
				{"eth0", KindPlain},
				{"bond0", KindBond},
				{"br0", KindBridge},
				{"ovsbr0", KindOvsBridge},
				{"eth0.100", KindVlan},
			}
			for _, tt := range tests {
				Expect(mustGet(reg, tt.name).Kind()).To(Equal(tt.kind), tt.name)
			}
		})

		It("hands out the same device until reset", func() {
			first := mustGet(reg, "eth0")
			Expect(mustGet(reg, "eth0")).To(BeIdenticalTo(first))

			reg.Reset()
			Expect(mustGet(reg, "eth0")).ToNot(BeIdenticalTo(first))
		})

		It("reports missing devices", func() {
			_, err := reg.Get("eth9")
			Expect(utils.IsDeviceNotFound(err)).To(BeTrue())
			Expect(reg.Exists("eth9")).To(BeFalse())
		})
	})

	Describe("Device attributes", func() {
		It("reads the sysfs attributes", func() {
			eth0 := mustGet(reg, "eth0")
			Expect(eth0.MAC()).To(Equal("52:54:00:00:00:01"))
			Expect(eth0.Speed()).To(Equal(1000))
			Expect(eth0.MTU()).To(Equal(1500))
			Expect(eth0.LinkUp()).To(BeTrue())
			Expect(eth0.IsUp()).To(BeTrue())
			Expect(eth0.IsMulticast()).To(BeTrue())
			Expect(eth0.IsPromisc()).To(BeFalse())
			Expect(eth0.IsLoopback()).To(BeFalse())
			Expect(eth0.IfIndex()).To(Equal(eth0.IfLink()))

			eth2 := mustGet(reg, "eth2")
			Expect(eth2.MAC()).To(Equal("00:00:00:00:00:00"))
			Expect(eth2.LinkUp()).To(BeFalse())
			Expect(eth2.IsUp()).To(BeFalse())

			Expect(mustGet(reg, "lo").IsLoopback()).To(BeTrue())
		})

		It("changes the MTU and the offload settings", func() {
			eth0 := mustGet(reg, "eth0")
			Expect(eth0.SetMTU(9000)).To(Succeed())
			Expect(eth0.MTU()).To(Equal(9000))

			Expect(eth0.SetRxOffload(false)).To(Succeed())
			Expect(eth0.SetTxOffload(true)).To(Succeed())
			Expect(sys.Devices["eth0"].Offload).To(Equal(map[string]bool{"rx": false, "tx": true}))
		})

		It("hides link scoped addresses", func() {
			local := mustAddr("fe80::1/64")
			local.Scope = unix.RT_SCOPE_LINK
			sys.Devices["eth1"].Addrs = []netlink.Addr{mustAddr("10.0.0.5/24"), local}

			eth1 := mustGet(reg, "eth1")
			Expect(eth1.Addresses()).To(HaveLen(1))
			Expect(eth1.Addresses()[0].IPNet.String()).To(Equal("10.0.0.5/24"))
		})

		It("adds and removes addresses once", func() {
			eth1 := mustGet(reg, "eth1")
			addr := mustAddr("10.0.0.5/24")

			Expect(eth1.AddAddress(addr)).To(Succeed())
			Expect(eth1.AddAddress(addr)).To(Succeed())
			Expect(sys.Devices["eth1"].Addrs).To(HaveLen(1))

			Expect(eth1.RemoveAddress(addr)).To(Succeed())
			Expect(eth1.RemoveAddress(addr)).To(Succeed())
			Expect(sys.Devices["eth1"].Addrs).To(BeEmpty())
			Expect(lo.Count(sys.Calls, "RemoveAddress eth1 10.0.0.5/24")).To(Equal(1))
		})

		It("returns address failures", func() {
			sys.Fail["AddAddress"] = utils.NewCommandFailed("ip addr add", "RTNETLINK answers: File exists", nil)
			err := mustGet(reg, "eth1").AddAddress(mustAddr("10.0.0.5/24"))
			Expect(utils.IsCommandFailed(err)).To(BeTrue())
		})
	})

	Describe("Ordering", func() {
		It("puts the loopback device first and dependencies before dependents", func() {
			bond := newBond(reg, "eth0", "eth1")
			_, err := CreateVlan(reg, bond, 100)
			Expect(err).ToNot(HaveOccurred())

			nics, err := reg.Nics()
			Expect(err).ToNot(HaveOccurred())
			Expect(names(nics)).To(Equal([]string{"lo", "eth0", "eth1", "eth2", "bond0", "bond0.100"}))

			lo0, eth0 := mustGet(reg, "lo"), mustGet(reg, "eth0")
			Expect(Compare(lo0, eth0)).To(BeNumerically("<", 0))
			Expect(Compare(eth0, lo0)).To(BeNumerically(">", 0))
			Expect(Compare(lo0, lo0)).To(Equal(0))
			Expect(Compare(bond, eth0)).To(BeNumerically(">", 0))
			Expect(Compare(eth0, mustGet(reg, "eth1"))).To(BeNumerically("<", 0))
		})

		It("sorts the same way twice", func() {
			newBond(reg, "eth1", "eth2")
			first, err := reg.Nics()
			Expect(err).ToNot(HaveOccurred())

			second, err := Sort(first)
			Expect(err).ToNot(HaveOccurred())
			Expect(names(second)).To(Equal(names(first)))
		})
	})

	Describe("Bonds", func() {
		It("creates a bond with the requested mode", func() {
			bond := newBond(reg)
			Expect(bond.Mode()).To(Equal(6))
			Expect(bond.Miimon()).To(Equal(100))
			Expect(bond.IsUp()).To(BeTrue())
			Expect(bond.IsMaster()).To(BeTrue())
		})

		It("removes the default bond when loading the driver", func() {
			sys.Modules[BondingModule] = false
			sys.Add(&DummyDevice{Name: "bond0", Kind: KindBond})

			_, err := CreateBond(reg, "bond1", 1, 100)
			Expect(err).ToNot(HaveOccurred())
			Expect(sys.Calls).To(ContainElements("LoadModule bonding", "DeleteLink bond0"))
			Expect(sys.Exists("bond0")).To(BeFalse())
		})

		It("refuses to create an existing bond", func() {
			newBond(reg)
			_, err := CreateBond(reg, "bond0", 6, 100)
			Expect(err).To(BeAssignableToTypeOf(utils.ErrDeviceExists{}))
		})

		It("adds and removes slaves", func() {
			bond := newBond(reg, "eth0", "eth1")

			slaves, err := bond.Slaves()
			Expect(err).ToNot(HaveOccurred())
			Expect(names(slaves)).To(Equal([]string{"eth0", "eth1"}))

			eth0 := mustGet(reg, "eth0")
			Expect(eth0.IsSlave()).To(BeTrue())
			master, err := eth0.Master()
			Expect(err).ToNot(HaveOccurred())
			Expect(master).To(BeIdenticalTo(Nic(bond)))

			Expect(bond.RemoveSlave(eth0)).To(Succeed())
			Expect(sys.Devices["eth0"].Master).To(BeEmpty())

			err = bond.RemoveSlave(mustGet(reg, "eth2"))
			Expect(err).To(BeAssignableToTypeOf(utils.ErrNotMember{}))
			Expect(err.Error()).To(Equal("eth2 is not a member of bond0"))
		})

		It("takes a device from the bridge holding it", func() {
			eth0 := mustGet(reg, "eth0")
			_, err := CreateBridge(reg, "br0", []Nic{eth0})
			Expect(err).ToNot(HaveOccurred())

			bond := newBond(reg, "eth0")
			Expect(sys.Devices["br0"].Slaves).To(BeEmpty())
			Expect(sys.Devices["bond0"].Slaves).To(Equal([]string{"eth0"}))

			master, err := eth0.Master()
			Expect(err).ToNot(HaveOccurred())
			Expect(master).To(BeIdenticalTo(Nic(bond)))
		})

		It("gives a slave up to a bridge", func() {
			newBond(reg, "eth0", "eth1")
			eth1 := mustGet(reg, "eth1")

			bridge, err := CreateBridge(reg, "br0", []Nic{eth1})
			Expect(err).ToNot(HaveOccurred())
			Expect(sys.Devices["bond0"].Slaves).To(Equal([]string{"eth0"}))
			Expect(sys.Devices["br0"].Slaves).To(Equal([]string{"eth1"}))

			master, err := eth1.Master()
			Expect(err).ToNot(HaveOccurred())
			Expect(master).To(BeIdenticalTo(Nic(bridge)))
		})

		It("moves the addresses and routes of a new slave to the bond", func() {
			gateway := netlink.Route{Gw: net.ParseIP("10.0.0.1"), Protocol: 4}
			sys.Devices["eth1"].Addrs = []netlink.Addr{mustAddr("10.0.0.6/24")}
			sys.Devices["eth1"].Routes = []netlink.Route{gateway}

			bond := newBond(reg, "eth1")

			bond0 := sys.Devices["bond0"]
			Expect(bond0.Addrs).To(HaveLen(1))
			Expect(bond0.Addrs[0].IPNet.String()).To(Equal("10.0.0.6/24"))
			Expect(bond0.Routes).To(HaveLen(1))
			Expect(sys.Devices["eth1"].Addrs).To(BeEmpty())
			Expect(bond.IsUp()).To(BeTrue())

			flush := lo.IndexOf(sys.Calls, "FlushAddresses eth1")
			enslave := lo.IndexOf(sys.Calls, "WriteAttr bond0 bonding/slaves +eth1")
			Expect(flush).To(BeNumerically(">=", 0))
			Expect(flush).To(BeNumerically("<", enslave))
		})

		It("refuses a slave that no longer exists", func() {
			bond := newBond(reg)
			eth2 := mustGet(reg, "eth2")
			delete(sys.Devices, "eth2")

			err := bond.AddSlave(eth2)
			Expect(err).To(BeAssignableToTypeOf(utils.ErrDeviceNotFound{}))
			Expect(sys.Devices["bond0"].Slaves).To(BeEmpty())
		})

		It("keeps the slaves across a mode change", func() {
			bond := newBond(reg, "eth0", "eth1")
			Expect(bond.SetMode(1)).To(Succeed())
			Expect(bond.Mode()).To(Equal(1))
			Expect(sys.Devices["bond0"].Slaves).To(Equal([]string{"eth0", "eth1"}))

			Expect(bond.SetMode(9)).To(BeAssignableToTypeOf(utils.ErrInvalidArgument{}))
		})

		It("finds a bond by its slaves in any order", func() {
			newBond(reg, "eth0", "eth1")

			bond, found, err := FindBond(reg, []Nic{mustGet(reg, "eth1"), mustGet(reg, "eth0")})
			Expect(err).ToNot(HaveOccurred())
			Expect(found).To(BeTrue())
			Expect(bond.Name()).To(Equal("bond0"))

			_, found, err = FindBond(reg, []Nic{mustGet(reg, "eth0")})
			Expect(err).ToNot(HaveOccurred())
			Expect(found).To(BeFalse())
		})

		It("releases the slaves and destroys the children before the bond", func() {
			bond := newBond(reg, "eth0", "eth1")
			_, err := CreateVlan(reg, bond, 100)
			Expect(err).ToNot(HaveOccurred())

			Expect(bond.Destroy()).To(Succeed())
			Expect(sys.Exists("bond0")).To(BeFalse())
			Expect(sys.Exists("bond0.100")).To(BeFalse())
			Expect(sys.Devices["eth0"].Master).To(BeEmpty())
			Expect(sys.Devices["eth1"].Master).To(BeEmpty())

			release := lo.IndexOf(sys.Calls, "WriteAttr bond0 bonding/slaves -eth0")
			vlan := lo.IndexOf(sys.Calls, "DeleteLink bond0.100")
			destroy := lo.IndexOf(sys.Calls, "DeleteLink bond0")
			Expect(release).To(BeNumerically(">=", 0))
			Expect(release).To(BeNumerically("<", destroy))
			Expect(vlan).To(BeNumerically("<", destroy))
		})
	})

	Describe("Bridges", func() {
		BeforeEach(func() {
			gateway := netlink.Route{Gw: net.ParseIP("192.168.124.1"), Protocol: 4}
			_, subnet, _ := net.ParseCIDR("192.168.124.0/24")
			connected := netlink.Route{Dst: subnet, Protocol: unix.RTPROT_KERNEL}

			sys.Devices["eth0"].Addrs = []netlink.Addr{mustAddr("192.168.124.10/24")}
			sys.Devices["eth0"].Routes = []netlink.Route{connected, gateway}
		})

		It("moves the addresses and routes of a new port", func() {
			bridge, err := CreateBridge(reg, "br0", []Nic{mustGet(reg, "eth0")})
			Expect(err).ToNot(HaveOccurred())
			Expect(sys.Calls).To(ContainElement("LoadModule bridge"))

			br0 := sys.Devices["br0"]
			Expect(br0.Addrs).To(HaveLen(1))
			Expect(br0.Addrs[0].IPNet.String()).To(Equal("192.168.124.10/24"))
			Expect(br0.Routes).To(HaveLen(1))
			Expect(br0.Routes[0].Gw.String()).To(Equal("192.168.124.1"))
			Expect(sys.Devices["eth0"].Addrs).To(BeEmpty())
			Expect(bridge.IsUp()).To(BeTrue())

			master, err := mustGet(reg, "eth0").Master()
			Expect(err).ToNot(HaveOccurred())
			Expect(master.Name()).To(Equal("br0"))
		})

		It("does nothing when there is nothing to usurp", func() {
			bridge, err := CreateBridge(reg, "br0", nil)
			Expect(err).ToNot(HaveOccurred())

			addrs, routes, err := bridge.Usurp(mustGet(reg, "eth1"))
			Expect(err).ToNot(HaveOccurred())
			Expect(addrs).To(BeEmpty())
			Expect(routes).To(BeEmpty())
			Expect(sys.Calls).ToNot(ContainElement("FlushAddresses eth1"))
		})

		It("brings the port down when removing it", func() {
			eth0 := mustGet(reg, "eth0")
			bridge, err := CreateBridge(reg, "br0", []Nic{eth0})
			Expect(err).ToNot(HaveOccurred())

			Expect(bridge.RemoveSlave(eth0)).To(Succeed())
			Expect(eth0.IsUp()).To(BeFalse())
			Expect(sys.Devices["br0"].Slaves).To(BeEmpty())
		})

		It("brings a new bridge up", func() {
			bridge, err := CreateBridge(reg, "br0", nil)
			Expect(err).ToNot(HaveOccurred())
			Expect(bridge.IsUp()).To(BeTrue())
		})

		It("changes the spanning tree settings", func() {
			bridge, err := CreateBridge(reg, "br0", nil)
			Expect(err).ToNot(HaveOccurred())

			Expect(bridge.STP()).To(BeFalse())
			Expect(bridge.SetSTP(true)).To(Succeed())
			Expect(bridge.STP()).To(BeTrue())
			Expect(bridge.SetForwardDelay(200)).To(Succeed())
			Expect(bridge.ForwardDelay()).To(Equal(200))
		})

		It("gives up when the bridge never appears", func() {
			sys.NeverCreate = true
			_, err := CreateBridge(reg, "br0", nil)
			Expect(utils.IsDeviceTimeout(err)).To(BeTrue())
			Expect(err.Error()).To(Equal(`bridge "br0" was not created`))
		})
	})

	Describe("Open vSwitch bridges", func() {
		It("requires open vswitch", func() {
			_, err := CreateOvsBridge(reg, "ovsbr0", nil)
			Expect(err).To(BeAssignableToTypeOf(utils.ErrInvalidArgument{}))
		})

		It("attaches and replugs ports", func() {
			sys.OvsInstalled = true
			eth1 := mustGet(reg, "eth1")

			bridge, err := CreateOvsBridge(reg, "ovsbr0", []Nic{eth1})
			Expect(err).ToNot(HaveOccurred())

			slaves, err := bridge.Slaves()
			Expect(err).ToNot(HaveOccurred())
			Expect(names(slaves)).To(Equal([]string{"eth1"}))

			master, err := eth1.Master()
			Expect(err).ToNot(HaveOccurred())
			Expect(master.Name()).To(Equal("ovsbr0"))
			Expect(bridge.IsUp()).To(BeTrue())

			Expect(bridge.Replug(eth1)).To(Succeed())
			Expect(sys.Calls).To(ContainElements("OvsDeletePort ovsbr0 eth1", "OvsAddPort ovsbr0 eth1"))
			Expect(sys.Devices["ovsbr0"].Slaves).To(Equal([]string{"eth1"}))
		})
	})

	Describe("VLANs", func() {
		It("validates the vlan id", func() {
			eth0 := mustGet(reg, "eth0")
			for _, vid := range []int{0, 4095} {
				_, err := CreateVlan(reg, eth0, vid)
				Expect(err).To(BeAssignableToTypeOf(utils.ErrInvalidArgument{}), "vid %d", vid)
			}
		})

		It("requires the parent to exist", func() {
			eth2 := mustGet(reg, "eth2")
			delete(sys.Devices, "eth2")

			_, err := CreateVlan(reg, eth2, 100)
			Expect(err).To(BeAssignableToTypeOf(utils.ErrDeviceNotFound{}))
		})

		It("creates a sub-interface on its parent", func() {
			eth1 := mustGet(reg, "eth1")
			Expect(eth1.IsUp()).To(BeFalse())

			vlan, err := CreateVlan(reg, eth1, 300)
			Expect(err).ToNot(HaveOccurred())
			Expect(vlan.Name()).To(Equal("eth1.300"))
			Expect(eth1.IsUp()).To(BeTrue())
			Expect(vlan.IsUp()).To(BeTrue())
			Expect(lo.IndexOf(sys.Calls, "SetUp eth1")).To(
				BeNumerically("<", lo.IndexOf(sys.Calls, "AddVlan eth1 300")))
			Expect(vlan.VLAN()).To(Equal(300))
			Expect(vlan.String()).To(Equal("eth1.300 (vlan 300 on eth1)"))

			parent, err := vlan.Parent()
			Expect(err).ToNot(HaveOccurred())
			Expect(parent).To(BeIdenticalTo(eth1))

			children, err := eth1.Children()
			Expect(err).ToNot(HaveOccurred())
			Expect(names(children)).To(Equal([]string{"eth1.300"}))

			Expect(vlan.Up()).To(Succeed())
			Expect(eth1.IsUp()).To(BeTrue())

			_, err = CreateVlan(reg, eth1, 300)
			Expect(err).To(BeAssignableToTypeOf(utils.ErrDeviceExists{}))
		})
	})

	Describe("Vlan configuration table", func() {
		It("skips the header lines", func() {
			table := "VLAN Dev name    | VLAN ID\n" +
				"Name-Type: VLAN_NAME_TYPE_RAW_PLUS_VID_NO_PAD\n" +
				"eth0.100       | 100  | eth0\n" +
				"bond0.200      | 200  | bond0\n" +
				"garbage\n"

			entries, err := parseVlanConfig(bufio.NewScanner(strings.NewReader(table)))
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(Equal([]VlanConfig{
				{Name: "eth0.100", VID: 100, Parent: "eth0"},
				{Name: "bond0.200", VID: 200, Parent: "bond0"},
			}))
		})
	})
})
