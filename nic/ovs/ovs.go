/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

// Package ovs provides a wrapper around ovs-vsctl for the bridge and port
// operations needed to manage Open vSwitch bridges on a node.
package ovs

import (
	"strings"

	"k8s.io/utils/exec"
	logf "sigs.k8s.io/controller-runtime/pkg/log"

	utils "github.com/crowbar/node-inventory/common"
)

var log = logf.Log.WithName("ovs")

// OvsVsctl is the name of the Open vSwitch configuration utility.
const OvsVsctl = "ovs-vsctl"

// Client runs ovs-vsctl commands.
type Client struct {
	execer exec.Interface
}

// New returns a new ovs Client.
func New(execer exec.Interface) *Client {
	return &Client{execer: execer}
}

// Available returns whether Open vSwitch is installed.
func (in *Client) Available() bool {
	_, err := in.execer.LookPath(OvsVsctl)
	return err == nil
}

func (in *Client) exec(args ...string) (string, error) {
	log.V(2).Info("executing", "command", OvsVsctl, "args", args)
	output, err := in.execer.Command(OvsVsctl, args...).CombinedOutput()
	if err != nil {
		log.V(2).Info("command failed", "command", OvsVsctl, "output", string(output))
		return "", utils.NewCommandFailed(OvsVsctl+" "+strings.Join(args, " "), string(output), err)
	}

	return strings.TrimRight(string(output), "\n"), nil
}

// BridgeExists returns whether the named bridge exists.
func (in *Client) BridgeExists(name string) bool {
	if !in.Available() {
		return false
	}
	_, err := in.exec("br-exists", name)
	return err == nil
}

// BridgeOf returns the bridge that the named port is attached to.  The
// second return value is false if the port is not attached to any bridge.
func (in *Client) BridgeOf(port string) (string, bool) {
	if !in.Available() {
		return "", false
	}

	out, err := in.exec("iface-to-br", port)
	if err != nil || out == "" {
		return "", false
	}

	return out, true
}

// ListPorts returns the ports attached to the named bridge.
func (in *Client) ListPorts(bridge string) ([]string, error) {
	out, err := in.exec("list-ports", bridge)
	if err != nil {
		return nil, err
	}

	return utils.SplitFields(out), nil
}

// AddBridge creates the named bridge.  (It is an error if the bridge already
// exists.)
func (in *Client) AddBridge(name string) error {
	_, err := in.exec("add-br", name)
	return err
}

// DeleteBridge deletes the named bridge.  (It is an error if the bridge does
// not exist.)
func (in *Client) DeleteBridge(name string) error {
	_, err := in.exec("del-br", name)
	return err
}

// AddPort attaches a port to a bridge.
func (in *Client) AddPort(bridge, port string) error {
	_, err := in.exec("add-port", bridge, port)
	return err
}

// DeletePort detaches a port from a bridge.
func (in *Client) DeletePort(bridge, port string) error {
	_, err := in.exec("del-port", bridge, port)
	return err
}
