/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2019-2026 Wind River Systems, Inc. */

package common

import (
	"net"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// IsIPv4 reports whether 'address' is a plain IPv4 address, including the
// IPv4-mapped IPv6 form.
func IsIPv4(address string) bool {
	ip := net.ParseIP(address)
	return ip != nil && ip.To4() != nil
}

// IsIPv6 reports whether 'address' is an IPv6 address that does not map to
// an IPv4 one.
func IsIPv6(address string) bool {
	ip := net.ParseIP(address)
	return ip != nil && ip.To4() == nil
}

// ListDelta is a utility function which calculates the difference between two
// lists.  If elements in 'b' are not present in 'a' then they will appear in
// the 'added' list.  If elements in a are not present in b then they will
// appear in the 'removed' list.
func ListDelta(a, b []string) (added []string, removed []string, same []string) {
	added = make([]string, 0)
	removed = make([]string, 0)
	same = make([]string, 0)
	present := make(map[string]bool)

	for _, s := range a {
		if lo.Contains(b, s) {
			present[s] = true
		} else {
			removed = append(removed, s)
		}
	}

	for _, x := range b {
		if !present[x] {
			added = append(added, x)
		} else {
			same = append(same, x)
		}
	}

	return added, removed, same
}

// ListChanged is a utility function which determines if two lists of names
// hold different members, ignoring their order.  A nil list is considered
// equivalent to an empty list.
func ListChanged(a, b []string) bool {
	if len(a) != len(b) {
		return true
	}

	added, removed, _ := ListDelta(a, b)

	return len(added) > 0 || len(removed) > 0
}

// ContainsString is a utility function that determines whether a string is
// included in the list of elements of a slice.
func ContainsString(slice []string, s string) bool {
	return lo.Contains(slice, s)
}

// RemoveString is a utility function that removes a string from the list of
// elements of a slice.
func RemoveString(slice []string, s string) (result []string) {
	return lo.Without(slice, s)
}

// DedupeSlice is a utility function that removes a duplicated element from
// a slice while preserving the order of first appearance.
func DedupeSlice[T comparable](sliceList []T) []T {
	return lo.Uniq(sliceList)
}

// SortedKeys returns the keys of a string keyed map in ascending order.
func SortedKeys[V any](m map[string]V) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}

// SplitFields splits a whitespace separated sysfs value into its fields.  An
// empty or blank value yields an empty list.
func SplitFields(value string) []string {
	return strings.Fields(strings.TrimSpace(value))
}
