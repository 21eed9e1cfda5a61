/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package inventory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	perrors "github.com/pkg/errors"
	"github.com/samber/lo"

	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/platform"
)

const ifListKey = "if_list"
const teamModeKey = "team_mode"

// ConduitSpec is a conduit as configured: its designator list plus any other
// metadata (e.g., team_mode).
type ConduitSpec map[string]interface{}

// IfList returns the designators of the conduit.
func (in ConduitSpec) IfList() []string {
	value, ok := in[ifListKey]
	if !ok {
		return nil
	}

	switch v := value.(type) {
	case []string:
		return v
	case []interface{}:
		return lo.FilterMap(v, func(item interface{}, _ int) (string, bool) {
			s, ok := item.(string)
			return s, ok
		})
	default:
		return nil
	}
}

// Conduit is a conduit whose designators have been resolved to the interface
// names of a particular node.
type Conduit struct {
	Name string
	// IfList holds the resolved interface names in designator order;
	// designators that could not be satisfied are omitted.
	IfList []string
	// Extra holds all other conduit metadata untouched.
	Extra map[string]interface{}
}

// TeamMode returns the bonding mode configured for the conduit, or "" if
// none.
func (in Conduit) TeamMode() string {
	value, ok := in.Extra[teamModeKey]
	if !ok || value == nil {
		return ""
	}

	switch v := value.(type) {
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// GetConduits returns the conduit list of the first conduit map entry whose
// "<mode>/<nic-count>/<role>" pattern matches the node: the mode against the
// configured network mode, the count against the number of detected
// interfaces and the role against any of the node's roles.  Nil is returned if
// no entry matches.
func GetConduits(node *platform.NodeInfo) map[string]ConduitSpec {
	mode := node.NetworkMode()
	count := strconv.Itoa(len(node.DetectedInterfaces()))
	roles := node.Roles()

	for _, entry := range node.ConduitMap() {
		parts := strings.Split(entry.Pattern, "/")
		if len(parts) != 3 {
			log.Info("ignoring conduit map entry with malformed pattern", "pattern", entry.Pattern)
			continue
		}

		res := make([]*regexp.Regexp, 0, len(parts))
		for _, part := range parts {
			re, err := regexp.Compile(part)
			if err != nil {
				log.Info("ignoring conduit map entry with invalid pattern",
					"pattern", entry.Pattern, "error", err.Error())
				break
			}
			res = append(res, re)
		}

		if len(res) != len(parts) {
			continue
		}

		if !res[0].MatchString(mode) || !res[1].MatchString(count) {
			continue
		}

		if !lo.SomeBy(roles, res[2].MatchString) {
			continue
		}

		result := make(map[string]ConduitSpec, len(entry.ConduitList))
		for name, spec := range entry.ConduitList {
			result[name] = ConduitSpec(spec)
		}

		return result
	}

	return nil
}

// ValidateConduits checks every designator of the conduits selected for the
// node so that configuration errors surface as errors rather than panics when
// the conduits are resolved.
func ValidateConduits(node *platform.NodeInfo) error {
	conduits := GetConduits(node)
	for _, name := range utils.SortedKeys(conduits) {
		for _, ref := range conduits[name].IfList() {
			if _, err := ParseDesignator(ref); err != nil {
				return perrors.Wrapf(err, "conduit %q", name)
			}
		}
	}
	return nil
}

// BuildDesignatorMap assigns every detected interface one designator per
// speed it supports.  Interfaces are visited in bus order so that "1g1" is
// the first 1 Gb/s interface in that order, "1g2" the second, and so on.
// Interfaces without a speed list are assumed to be 1 Gb/s.
func BuildDesignatorMap(node *platform.NodeInfo) map[string]string {
	detected := node.DetectedInterfaces()
	sorted := SortInterfaces(detected, GetBusOrder(node))

	ifMap := make(map[string]string)
	counters := make(map[string]int)
	for _, name := range sorted {
		speeds := detected[name].Speeds
		if len(speeds) == 0 {
			speeds = []string{utils.DefaultInterfaceSpeed}
		}

		for _, speed := range speeds {
			counters[speed]++
			ifMap[fmt.Sprintf("%s%d", speed, counters[speed])] = name
		}
	}

	return ifMap
}

// BuildNodeMap resolves the designators of every conduit of the node to
// interface names.  Nil is returned if no conduit map entry matches the node.
func BuildNodeMap(node *platform.NodeInfo) map[string]Conduit {
	conduits := GetConduits(node)
	if conduits == nil {
		return nil
	}

	ifMap := BuildDesignatorMap(node)

	result := make(map[string]Conduit, len(conduits))
	for name, spec := range conduits {
		conduit := Conduit{
			Name:   name,
			IfList: make([]string, 0),
			Extra:  make(map[string]interface{}),
		}

		for key, value := range spec {
			if key != ifListKey {
				conduit.Extra[key] = value
			}
		}

		for _, ref := range spec.IfList() {
			if intf, ok := MapInterfaceRef(ifMap, ref); ok {
				conduit.IfList = append(conduit.IfList, intf)
			} else {
				log.Info("no interface satisfies designator",
					"node", node.Name, "conduit", name, "designator", ref)
			}
		}

		result[name] = conduit
	}

	return result
}
