/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package nic

import (
	"sort"
	"strings"
	"sync"

	"github.com/samber/lo"

	utils "github.com/crowbar/node-inventory/common"
)

// Registry hands out one Nic per device name for the lifetime of a discovery
// pass.  A device is classified the first time it is requested.
type Registry struct {
	sys System

	mu   sync.Mutex
	nics map[string]Nic
}

// NewRegistry returns an empty registry backed by sys.
func NewRegistry(sys System) *Registry {
	return &Registry{
		sys:  sys,
		nics: make(map[string]Nic),
	}
}

// System returns the operating system surface the registry is backed by.
func (in *Registry) System() System {
	return in.sys
}

// Reset forgets every device so that the next pass reclassifies them.
func (in *Registry) Reset() {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.nics = make(map[string]Nic)
}

// Exists returns whether the named device is present on the system.
func (in *Registry) Exists(name string) bool {
	return in.sys.Exists(name)
}

func (in *Registry) isBond(name string) bool {
	return in.sys.HasAttr(name, "bonding")
}

func (in *Registry) classify(name string) Kind {
	switch {
	case in.sys.IsVlan(name):
		return KindVlan
	case in.sys.HasAttr(name, "bridge"):
		return KindBridge
	case in.sys.OvsBridgeExists(name):
		return KindOvsBridge
	case in.isBond(name):
		return KindBond
	default:
		return KindPlain
	}
}

func (in *Registry) build(name string, kind Kind) Nic {
	b := base{reg: in, name: name, kind: kind}

	switch kind {
	case KindVlan:
		n := &Vlan{base: b}
		n.self = n
		return n
	case KindBridge:
		n := &Bridge{base: b}
		n.self = n
		return n
	case KindOvsBridge:
		n := &OvsBridge{base: b}
		n.self = n
		return n
	case KindBond:
		n := &Bond{base: b}
		n.self = n
		return n
	default:
		n := &Plain{base: b}
		n.self = n
		return n
	}
}

// Get returns the device with the given name, classifying it on first use.
func (in *Registry) Get(name string) (Nic, error) {
	in.mu.Lock()
	n, ok := in.nics[name]
	in.mu.Unlock()

	if ok {
		return n, nil
	}

	if !in.sys.Exists(name) {
		return nil, utils.NewDeviceNotFound(name)
	}

	kind := in.classify(name)
	n = in.build(name, kind)

	if err := n.Refresh(); err != nil {
		return nil, err
	}

	log.V(1).Info("device classified", "device", name, "kind", kind)

	in.mu.Lock()
	defer in.mu.Unlock()

	// Another caller may have classified the same device meanwhile.
	if existing, ok := in.nics[name]; ok {
		return existing, nil
	}
	in.nics[name] = n

	return n, nil
}

func (in *Registry) forget(name string) {
	in.mu.Lock()
	defer in.mu.Unlock()
	delete(in.nics, name)
}

func (in *Registry) lookup(names []string) ([]Nic, error) {
	result := make([]Nic, 0, len(names))
	for _, name := range names {
		n, err := in.Get(name)
		if err != nil {
			return nil, err
		}
		result = append(result, n)
	}
	return result, nil
}

func (in *Registry) all() ([]Nic, error) {
	names, err := in.sys.ListDevices()
	if err != nil {
		return nil, err
	}
	sort.Strings(names)
	return in.lookup(names)
}

func (in *Registry) filter(predicate func(Nic) bool) ([]Nic, error) {
	nics, err := in.all()
	if err != nil {
		return nil, err
	}
	return lo.Filter(nics, func(n Nic, _ int) bool { return predicate(n) }), nil
}

// Nics returns every device on the system in bring-up order.
func (in *Registry) Nics() ([]Nic, error) {
	nics, err := in.all()
	if err != nil {
		return nil, err
	}
	return Sort(nics)
}

// Sort orders devices for bring-up: devices are grouped by the number of
// devices they depend on and each group is sorted with Compare.  A device
// always depends on fewer devices than any of its dependents, so every
// dependency precedes its dependents.
func Sort(nics []Nic) ([]Nic, error) {
	groups := make(map[int][]Nic)
	for _, n := range nics {
		deps, err := n.Dependents()
		if err != nil {
			return nil, err
		}
		groups[len(deps)] = append(groups[len(deps)], n)
	}

	counts := lo.Keys(groups)
	sort.Ints(counts)

	result := make([]Nic, 0, len(nics))
	for _, count := range counts {
		group := groups[count]
		sort.SliceStable(group, func(i, j int) bool {
			return Compare(group[i], group[j]) < 0
		})
		result = append(result, group...)
	}

	return result, nil
}

func dependsOn(n, other Nic) bool {
	deps, err := n.Dependents()
	if err != nil {
		log.Error(err, "failed to resolve dependents", "device", n.Name())
		return false
	}
	return lo.SomeBy(deps, func(d Nic) bool { return d.Name() == other.Name() })
}

// Compare orders devices for bring-up: the loopback device comes first, a
// device comes after every device it depends on and the name breaks ties.
func Compare(a, b Nic) int {
	switch {
	case a.Name() == b.Name():
		return 0
	case a.Name() == loopbackName:
		return -1
	case b.Name() == loopbackName:
		return 1
	case dependsOn(a, b):
		return 1
	case dependsOn(b, a):
		return -1
	}
	return strings.Compare(a.Name(), b.Name())
}
