/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package discovery

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	utils "github.com/crowbar/node-inventory/common"
)

var (
	bootEntryRe = regexp.MustCompile(`^Boot([0-9a-fA-F]{1,4})`)
	bootMACRe   = regexp.MustCompile(`(?i)[/)]MAC\(([0-9a-f]{12})`)
)

// BootEntry is a UEFI boot variable.
type BootEntry struct {
	Title  string
	Device string
	Active bool
}

// BootInfo is the UEFI boot configuration.  Current and Next are -1 when not
// reported.  LastMAC is the MAC address of the network device the node booted
// from, if any.
type BootInfo struct {
	Entries map[int]BootEntry
	Order   []int
	Current int
	Next    int
	LastMAC string
}

func parseHex(value string) (int, bool) {
	n, err := strconv.ParseInt(strings.TrimSpace(value), 16, 32)
	return int(n), err == nil
}

// ParseEFIBootMgr parses the output of "efibootmgr -v".
func ParseEFIBootMgr(output string) *BootInfo {
	info := &BootInfo{
		Entries: make(map[int]BootEntry),
		Order:   []int{},
		Current: -1,
		Next:    -1,
	}

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		key, value, _ := strings.Cut(scanner.Text(), " ")
		key = strings.TrimSuffix(key, ":")
		value = strings.TrimSpace(value)

		switch {
		case key == "BootCurrent":
			if n, ok := parseHex(value); ok {
				info.Current = n
			}
		case key == "BootNext":
			if n, ok := parseHex(value); ok {
				info.Next = n
			}
		case key == "BootOrder":
			info.Order = lo.FilterMap(strings.Split(value, ","), func(item string, _ int) (int, bool) {
				return parseHex(item)
			})
		case bootEntryRe.MatchString(key):
			n, _ := parseHex(bootEntryRe.FindStringSubmatch(key)[1])
			title, device, _ := strings.Cut(value, "\t")
			info.Entries[n] = BootEntry{
				Title:  strings.TrimSpace(title),
				Device: strings.TrimSpace(device),
				Active: strings.HasSuffix(key, "*"),
			}
		}
	}

	if entry, ok := info.Entries[info.Current]; ok {
		if m := bootMACRe.FindStringSubmatch(entry.Device); m != nil {
			mac := strings.ToLower(m[1])
			info.LastMAC = strings.Join(lo.ChunkString(mac, 2), ":")
		}
	}

	return info
}

func optionalInt(n int) interface{} {
	if n < 0 {
		return nil
	}
	return n
}

// Attributes returns the attribute form of the boot configuration.
func (in *BootInfo) Attributes() map[string]interface{} {
	entries := make(map[string]interface{}, len(in.Entries))
	for n, entry := range in.Entries {
		entries[strconv.Itoa(n)] = map[string]interface{}{
			"title":  entry.Title,
			"device": entry.Device,
			"active": entry.Active,
		}
	}

	var lastMAC interface{}
	if in.LastMAC != "" {
		lastMAC = in.LastMAC
	}

	return map[string]interface{}{
		"entries": entries,
		"boot": map[string]interface{}{
			"order":    lo.Map(in.Order, func(n int, _ int) interface{} { return n }),
			"current":  optionalInt(in.Current),
			"next":     optionalInt(in.Next),
			"last_mac": lastMAC,
		},
	}
}

// UEFI reads the boot entries of a node booted through UEFI.  Nodes booted
// through a legacy BIOS yield no attributes.
func (in *Discoverer) UEFI() (map[string]interface{}, error) {
	if !exists(in.SysfsRoot, "firmware", "efi") {
		log.V(1).Info("node was not booted through UEFI")
		return nil, nil
	}

	output, err := in.execer.Command("efibootmgr", "-v").CombinedOutput()
	if err != nil {
		return nil, utils.NewCommandFailed("efibootmgr -v", string(output), err)
	}

	return ParseEFIBootMgr(string(output)).Attributes(), nil
}
