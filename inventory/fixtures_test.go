/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package inventory

import (
	"github.com/crowbar/node-inventory/attributes"
	"github.com/crowbar/node-inventory/platform"
)

// Bus order of the test platform: the slot 1 card ranks before the slot 3
// card, the onboard interface is not listed.
//
//	eth1 1g,10g  slot 1  -> 1g1, 10g1
//	eth2 10g     slot 1  -> 10g2
//	eth0 1g      slot 3  -> 1g2
//	eth3 (none)  onboard -> 1g3
func newNodeData() map[string]interface{} {
	return map[string]interface{}{
		"dmi": map[string]interface{}{
			"system": map[string]interface{}{
				"product_name":  "PowerEdge R720",
				"serial_number": "ABC123 ",
				"manufacturer":  "Dell Inc.",
			},
		},
		"roles":     []interface{}{"deployer-client", "nova-compute"},
		"ipaddress": "192.168.124.81",
		"network": map[string]interface{}{
			"mode": "team",
			"interface_map": []interface{}{
				map[string]interface{}{
					"pattern":       "PowerEdge R720",
					"serial_number": "OTHER",
					"bus_order":     []interface{}{"0000:00/0000:00:19"},
				},
				map[string]interface{}{
					"pattern":   "PowerEdge R7.*",
					"bus_order": []interface{}{"0000:00/0000:00:01", "0000:00/0000:00:03"},
				},
			},
			"conduit_map": []interface{}{
				map[string]interface{}{
					"pattern": "single/.*/.*",
					"conduit_list": map[string]interface{}{
						"intf0": map[string]interface{}{"if_list": []interface{}{"1g1"}},
					},
				},
				map[string]interface{}{
					"pattern": "team/.*/nova-.*",
					"conduit_list": map[string]interface{}{
						"intf0": map[string]interface{}{
							"if_list":   []interface{}{"?1g1", "?1g2"},
							"team_mode": 5,
						},
						"intf1": map[string]interface{}{"if_list": []interface{}{"10g2"}},
						"intf2": map[string]interface{}{"if_list": []interface{}{"+1g3"}},
						"intf3": map[string]interface{}{"if_list": []interface{}{"10g5"}},
					},
				},
			},
		},
		"crowbar_ohai": map[string]interface{}{
			"detected": map[string]interface{}{
				"network": map[string]interface{}{
					"eth0": map[string]interface{}{
						"path":   "0000:00/0000:00:03.0/0000:02:00.0",
						"speeds": []interface{}{"1g"},
						"mac":    "52:54:00:00:00:01",
					},
					"eth1": map[string]interface{}{
						"path":   "0000:00/0000:00:01.0/0000:01:00.0",
						"speeds": []interface{}{"1g", "10g"},
					},
					"eth2": map[string]interface{}{
						"path":   "0000:00/0000:00:01.0/0000:01:00.1",
						"speeds": []interface{}{"10g"},
					},
					"eth3": "0000:00/0000:00:19.0",
				},
			},
		},
		"crowbar": map[string]interface{}{
			"network": map[string]interface{}{
				"admin": map[string]interface{}{
					"conduit": "intf1",
					"usage":   "admin",
					"address": "192.168.124.81",
					"netmask": "255.255.255.0",
					"vlan":    "100",
				},
				"public": map[string]interface{}{
					"conduit":  "intf0",
					"usage":    "public",
					"vlan":     300,
					"use_vlan": "true",
				},
				"storage": map[string]interface{}{
					"conduit":  "intf0",
					"usage":    "storage",
					"vlan":     200,
					"use_vlan": true,
				},
				"nowhere": map[string]interface{}{
					"conduit": "intf3",
					"usage":   "nowhere",
				},
			},
		},
	}
}

func newNode() (*platform.NodeInfo, *attributes.MapStore) {
	store := attributes.NewMapStore(newNodeData())
	return platform.NewNodeInfo("d52-54-00-00-00-01.example.com", store), store
}
