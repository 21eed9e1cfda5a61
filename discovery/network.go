/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package discovery

import (
	"bufio"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	perrors "github.com/pkg/errors"
	"github.com/samber/lo"
	"go.uber.org/multierr"

	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/inventory"
)

// ARPHRD_ETHER
const etherType = "1"

var (
	busPrefixRe = regexp.MustCompile(`.*pci`)
	busSuffixRe = regexp.MustCompile(`/net/.*`)
	linkModeRe  = regexp.MustCompile(`^(\d+)base`)
)

// Mb/s value of each speed class, in the order of inventory.Speeds.
var speedValues = []int{10, 100, 1000, 10000}

// BusPath reduces a sysfs device link to the PCI bus path used for bus
// ordering, e.g. "../../devices/pci0000:00/0000:00:1c.0/0000:02:00.0/net/eth0"
// becomes "0000:00/0000:00:1c.0/0000:02:00.0".
func BusPath(link string) string {
	return busSuffixRe.ReplaceAllString(busPrefixRe.ReplaceAllString(link, ""), "")
}

// SpeedClass returns the fastest speed class not exceeding 'mbps'.
func SpeedClass(mbps int) (string, bool) {
	class := ""
	for i, value := range speedValues {
		if mbps >= value {
			class = inventory.Speeds[i]
		}
	}
	return class, class != ""
}

func sortSpeeds(speeds []string) []string {
	speeds = lo.Uniq(speeds)
	sort.SliceStable(speeds, func(i, j int) bool {
		return lo.IndexOf(inventory.Speeds, speeds[i]) < lo.IndexOf(inventory.Speeds, speeds[j])
	})
	return speeds
}

// ParseEthtoolSpeeds extracts the speed classes of the supported link modes
// from the output of "ethtool <interface>".
func ParseEthtoolSpeeds(output string) []string {
	speeds := make([]string, 0)
	inModes := false

	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		var modes string
		switch {
		case strings.HasPrefix(line, "Supported link modes:"):
			inModes = true
			modes = strings.TrimPrefix(line, "Supported link modes:")
		case inModes && !strings.Contains(line, ":"):
			modes = line
		default:
			inModes = false
			continue
		}

		for _, mode := range strings.Fields(modes) {
			m := linkModeRe.FindStringSubmatch(mode)
			if m == nil {
				continue
			}
			mbps, _ := strconv.Atoi(m[1])
			if class, ok := SpeedClass(mbps); ok {
				speeds = append(speeds, class)
			}
		}
	}

	return sortSpeeds(speeds)
}

func (in *Discoverer) speeds(name string) []string {
	if utils.GetFeatureOptionBool(utils.NetworkDiscovery, utils.UseEthtool, true) {
		output, err := in.execer.Command("ethtool", name).CombinedOutput()
		if err == nil {
			if speeds := ParseEthtoolSpeeds(string(output)); len(speeds) > 0 {
				return speeds
			}
		} else {
			log.V(1).Info("ethtool failed, falling back to sysfs", "interface", name, "error", err.Error())
		}
	}

	value, ok := readAttr(in.SysfsRoot, "class", "net", name, "speed")
	if !ok {
		return []string{}
	}

	mbps, err := strconv.Atoi(value)
	if err != nil {
		return []string{}
	}

	if class, ok := SpeedClass(mbps); ok {
		return []string{class}
	}

	return []string{}
}

// Network detects the physical ethernet interfaces.  Each is recorded with
// its bus path, supported speed classes and MAC address.
func (in *Discoverer) Network() (map[string]interface{}, error) {
	dir := filepath.Join(in.SysfsRoot, "class", "net")

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, perrors.Wrapf(err, "failed to list network interfaces in %s", dir)
	}

	var errs error
	result := make(map[string]interface{})

	for _, entry := range entries {
		name := entry.Name()
		if strings.Contains(name, ".") || !exists(dir, name, "device") {
			continue
		}

		if kind, ok := readAttr(dir, name, "type"); !ok || kind != etherType {
			log.V(1).Info("skipping non-ethernet interface", "interface", name, "type", kind)
			continue
		}

		mac, ok := readAttr(dir, name, "address")
		if !ok {
			errs = multierr.Append(errs, perrors.Errorf("failed to read the address of %s", name))
			continue
		}

		path, err := os.Readlink(filepath.Join(dir, name, "device"))
		if err != nil {
			path = "Unknown"
		}
		if link, err := os.Readlink(filepath.Join(dir, name)); err == nil && strings.Contains(link, "pci") {
			path = link
		}

		speeds := in.speeds(name)

		result[name] = map[string]interface{}{
			"path":   BusPath(path),
			"speeds": speeds,
			"mac":    strings.ToLower(mac),
		}

		log.V(1).Info("detected interface", "interface", name, "path", BusPath(path), "speeds", speeds)
	}

	return result, errs
}
