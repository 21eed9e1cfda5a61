/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package inventory

import (
	"regexp"
	"sort"
	"strings"

	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/platform"
)

// BusIndex returns the rank of a device bus path within a bus order list; the
// index of the first matching entry, or NoBusIndex if nothing matches.
//
// Two entry formats are supported.  An entry holding a "." is in the new
// format and names full PCI addresses: the entry and the device path must have
// the same number of "/" separated components and every component must be
// equal, so a device behind a bridge does not match the bridge entry.  An
// entry without a "." is in the old format: the device path is truncated at
// its first "." and the leading components are compared for as long as the
// truncated path has components left.
func BusIndex(busOrder []string, path string) int {
	if busOrder == nil {
		return utils.NoBusIndex
	}

	for index, entry := range busOrder {
		if strings.Contains(entry, ".") {
			if matchFullPath(entry, path) {
				return index
			}
		} else if matchTruncatedPath(entry, path) {
			return index
		}
	}

	return utils.NoBusIndex
}

func matchFullPath(entry, path string) bool {
	want := strings.Split(entry, "/")
	have := strings.Split(path, "/")
	if len(have) != len(want) {
		return false
	}

	for i := range want {
		if want[i] != have[i] {
			return false
		}
	}

	return true
}

func matchTruncatedPath(entry, path string) bool {
	have := strings.Split(strings.SplitN(path, ".", 2)[0], "/")
	want := strings.Split(strings.SplitN(entry, ".", 2)[0], "/")

	for i, component := range want {
		if i >= len(have) {
			break
		}
		if component != have[i] {
			return false
		}
	}

	return true
}

// SortInterfaces orders interface names by their bus order rank and then by
// name.
func SortInterfaces(detected map[string]platform.DetectedInterface, busOrder []string) []string {
	names := utils.SortedKeys(detected)
	ranks := make(map[string]int, len(names))
	for _, name := range names {
		ranks[name] = BusIndex(busOrder, detected[name].Path)
	}

	sort.SliceStable(names, func(i, j int) bool {
		a, b := names[i], names[j]
		if ranks[a] != ranks[b] {
			return ranks[a] < ranks[b]
		}
		return a < b
	})

	return names
}

// GetBusOrder returns the bus order of the first interface map entry whose
// pattern matches the node's product name and, when the entry names a serial
// number, whose serial number equals the node's.  Nil is returned if no entry
// matches.
func GetBusOrder(node *platform.NodeInfo) []string {
	product := node.ProductName()
	serial := node.SerialNumber()

	for _, entry := range node.InterfaceMap() {
		re, err := regexp.Compile(entry.Pattern)
		if err != nil {
			log.Info("ignoring interface map entry with invalid pattern",
				"pattern", entry.Pattern, "error", err.Error())
			continue
		}

		if !re.MatchString(product) {
			continue
		}

		if entry.SerialNumber != "" && strings.TrimSpace(entry.SerialNumber) != serial {
			continue
		}

		return entry.BusOrder
	}

	return nil
}
