/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package main

import (
	"github.com/crowbar/node-inventory/cmd/inventoryctl/cmd"
)

func main() {
	cmd.Execute()
}
