/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package ovs

import (
	"errors"

	"k8s.io/utils/exec"
	testingexec "k8s.io/utils/exec/testing"

	utils "github.com/crowbar/node-inventory/common"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

type result struct {
	output string
	err    error
}

// fakeExec returns an exec fake that replies to successive commands with the
// given results and records the argument lists it was invoked with.
func fakeExec(calls *[][]string, results ...result) *testingexec.FakeExec {
	fexec := &testingexec.FakeExec{
		LookPathFunc: func(cmd string) (string, error) { return "/usr/bin/" + cmd, nil },
	}

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

var _ = Describe("ovs-vsctl client", func() {
	var calls [][]string

	BeforeEach(func() {
		calls = nil
	})

	It("should list ports", func() {
		client := New(fakeExec(&calls, result{output: "eth0\neth1\n"}))
		ports, err := client.ListPorts("br-ex")
		Expect(err).To(BeNil())
		Expect(ports).To(Equal([]string{"eth0", "eth1"}))
		Expect(calls).To(Equal([][]string{{"ovs-vsctl", "list-ports", "br-ex"}}))
	})

	It("should resolve the bridge of a port", func() {
		client := New(fakeExec(&calls,
			result{output: "br-ex\n"},
			result{output: "no interface named eth9", err: &testingexec.FakeExitError{Status: 1}}))

		bridge, ok := client.BridgeOf("eth0")
		Expect(ok).To(BeTrue())
		Expect(bridge).To(Equal("br-ex"))

		_, ok = client.BridgeOf("eth9")
		Expect(ok).To(BeFalse())
	})

	It("should report failures with the command output", func() {
		client := New(fakeExec(&calls, result{output: "cannot create a bridge", err: errors.New("exit status 1")}))
		err := client.AddBridge("br0")
		Expect(utils.IsCommandFailed(err)).To(BeTrue())
		Expect(err.Error()).To(ContainSubstring("ovs-vsctl add-br br0"))
		Expect(err.Error()).To(ContainSubstring("cannot create a bridge"))
	})

	It("should treat a missing ovs-vsctl as no bridge", func() {
		client := New(&testingexec.FakeExec{
			LookPathFunc: func(cmd string) (string, error) { return "", exec.ErrExecutableNotFound },
		})
		Expect(client.Available()).To(BeFalse())
		Expect(client.BridgeExists("br0")).To(BeFalse())
		_, ok := client.BridgeOf("eth0")
		Expect(ok).To(BeFalse())
	})

	It("should attach and detach ports", func() {
		client := New(fakeExec(&calls, result{}, result{}))
		Expect(client.AddPort("br0", "eth0")).To(Succeed())
		Expect(client.DeletePort("br0", "eth0")).To(Succeed())
		Expect(calls).To(Equal([][]string{
			{"ovs-vsctl", "add-port", "br0", "eth0"},
			{"ovs-vsctl", "del-port", "br0", "eth0"},
		}))
	})
})
