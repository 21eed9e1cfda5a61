/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package inventory

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/alecthomas/units"

	"github.com/crowbar/node-inventory/platform"
)

// DiskInfo is a disk as recorded under the node's crowbar.disks attribute.
type DiskInfo struct {
	Name      string `json:"name"`
	Model     string `json:"model"`
	Removable bool   `json:"removable"`
	Rev       string `json:"rev"`
	Size      int64  `json:"size"`
	State     string `json:"state"`
	Timeout   int64  `json:"timeout"`
	Vendor    string `json:"vendor"`
	Usage     string `json:"usage"`
}

var leadingIntRe = regexp.MustCompile(`^\s*[-+]?\d+`)

// leadingInt returns the integer prefix of a value, or 0 if there is none.
func leadingInt(value string) int64 {
	n, err := strconv.ParseInt(strings.TrimSpace(leadingIntRe.FindString(value)), 10, 64)
	if err != nil {
		return 0
	}
	return n
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func newDiskInfo(name string, config *platform.DiskConfig) DiskInfo {
	return DiskInfo{
		Name:      "/dev/" + name,
		Model:     defaultString(config.Model, "Unknown"),
		Removable: config.Removable != "0",
		Rev:       defaultString(config.Rev, "Unknown"),
		Size:      leadingInt(config.Size),
		State:     defaultString(config.State, "Unknown"),
		Timeout:   leadingInt(config.Timeout),
		Vendor:    defaultString(config.Vendor, "NA"),
		Usage:     defaultString(config.Usage, "Unknown"),
	}
}

// ListDisks returns the disks recorded for the node in name order.  Missing
// fields take their documented defaults; a disk is considered removable
// unless its removable field is exactly "0".
func ListDisks(node *platform.NodeInfo) []DiskInfo {
	result := make([]DiskInfo, 0)
	for _, name := range node.DiskNames() {
		if config, ok := node.DiskConfig(name); ok {
			result = append(result, newDiskInfo(name, config))
		}
	}
	return result
}

// SizeToBytes converts a size such as "500", "64KB", "20gb" or "2TB" to
// bytes using binary multiples.  It returns -1 for anything else.
func SizeToBytes(size string) int64 {
	if size == "" {
		return -1
	}

	if n, err := strconv.ParseInt(size, 10, 64); err == nil {
		if n < 0 {
			return -1
		}
		return n
	}

	upper := strings.ToUpper(size)
	if len(upper) < 3 || !strings.HasSuffix(upper, "B") ||
		!strings.ContainsRune("KMGT", rune(upper[len(upper)-2])) {
		return -1
	}

	for _, c := range upper[:len(upper)-2] {
		if c < '0' || c > '9' {
			return -1
		}
	}

	n, err := units.ParseBase2Bytes(upper)
	if err != nil {
		return -1
	}

	return int64(n)
}
