/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package inventory

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/google/go-cmp/cmp"
	perrors "github.com/pkg/errors"

	utils "github.com/crowbar/node-inventory/common"
	"github.com/crowbar/node-inventory/platform"
)

const bondPrefix = "bond"

// InterfaceInfo is the result of resolving a conduit to the interface that
// carries its traffic.
type InterfaceInfo struct {
	// Interface is the single member interface or the bond name.
	Interface string
	// InterfaceList holds the resolved member interfaces.
	InterfaceList []string
	// TeamMode is the bonding mode configured on the conduit; only set when
	// the conduit is carried by a bond.
	TeamMode string
	// Found is false if the conduit is unknown or resolved to no interface.
	Found bool
	// NewBond is set when Interface is a bond name that is not yet recorded
	// in the node's bond list and must be persisted with PersistBond.
	NewBond bool
}

// bondNames returns the recorded bond names ordered by their number, so that
// bond2 comes before bond10.  Names without a number follow in lexical order.
func bondNames(bonds map[string][]string) []string {
	number := func(name string) (int, bool) {
		n, err := strconv.Atoi(strings.TrimPrefix(name, bondPrefix))
		return n, err == nil && strings.HasPrefix(name, bondPrefix)
	}

	names := utils.SortedKeys(bonds)
	sort.SliceStable(names, func(i, j int) bool {
		a, aok := number(names[i])
		b, bok := number(names[j])
		if aok && bok {
			return a < b
		}
		return aok && !bok
	})

	return names
}

// LookupInterfaceInfo resolves a conduit to its carrying interface without
// modifying the node.  A conduit resolving to a single interface is carried by
// that interface.  A conduit resolving to several interfaces is carried by the
// bond whose recorded member list equals them (in order); if no such bond is
// recorded a new name "bond<N>" is proposed, N being the number of recorded
// bonds, and NewBond is set.  If nodeMap is nil it is built from the node.
func LookupInterfaceInfo(node *platform.NodeInfo, conduit string, nodeMap map[string]Conduit) InterfaceInfo {
	if nodeMap == nil {
		nodeMap = BuildNodeMap(node)
	}

	c, ok := nodeMap[conduit]
	if !ok || len(c.IfList) == 0 {
		return InterfaceInfo{}
	}

	info := InterfaceInfo{
		InterfaceList: c.IfList,
		Found:         true,
	}

	if len(c.IfList) == 1 {
		info.Interface = c.IfList[0]
		return info
	}

	info.TeamMode = c.TeamMode()

	bonds := node.BondList()
	for _, name := range bondNames(bonds) {
		if cmp.Equal(bonds[name], c.IfList) {
			info.Interface = name
			return info
		}
	}

	// Existing bond names are never renumbered; skip any name already taken
	// when bonds were removed from the list out of order.
	for n := len(bonds); ; n++ {
		name := fmt.Sprintf("%s%d", bondPrefix, n)
		if _, taken := bonds[name]; !taken {
			info.Interface = name
			break
		}
	}

	info.NewBond = true

	return info
}

// PersistBond records a newly proposed bond in the node's bond list and saves
// the node.  It does nothing unless info.NewBond is set.  A save failure is
// logged and returned; the in-memory record is kept so that later lookups in
// the same pass agree on the bond name.
func PersistBond(node *platform.NodeInfo, info InterfaceInfo) error {
	if !info.NewBond {
		return nil
	}

	node.Set([]string{utils.AttrCrowbar, utils.AttrBondList, info.Interface}, info.InterfaceList)

	if !utils.IsFeatureEnabled(utils.BondPersistence) {
		return nil
	}

	if err := node.Save(); err != nil {
		log.Error(err, "failed to persist bond", "node", node.Name,
			"bond", info.Interface, "interfaces", info.InterfaceList)
		return perrors.Wrapf(err, "failed to persist bond %s", info.Interface)
	}

	log.Info("bond assigned", "node", node.Name, "bond", info.Interface,
		"interfaces", info.InterfaceList)

	return nil
}
