/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package discovery

import (
	"path/filepath"
)

// DMI identification files below class/dmi/id mapped to their attribute name.
var dmiFields = map[string]string{
	"sys_vendor":      "manufacturer",
	"product_name":    "product_name",
	"product_serial":  "serial_number",
	"product_version": "version",
	"product_uuid":    "uuid",
	"board_vendor":    "board_vendor",
	"board_name":      "board_name",
	"bios_vendor":     "bios_vendor",
	"bios_version":    "bios_version",
}

// DMI reads the system identification exported by the firmware.  Files that
// are absent or unreadable (the serial number and uuid need privileges) are
// left out.  A node without DMI support yields no attributes.
func (in *Discoverer) DMI() (map[string]interface{}, error) {
	dir := filepath.Join(in.SysfsRoot, "class", "dmi", "id")
	if !exists(dir) {
		log.Info("DMI information is not available", "path", dir)
		return nil, nil
	}

	result := make(map[string]interface{})
	for file, attr := range dmiFields {
		if value, ok := readAttr(dir, file); ok {
			result[attr] = value
		}
	}

	return result, nil
}
