/* SPDX-License-Identifier: Apache-2.0 */
/* Copyright(c) 2026 Wind River Systems, Inc. */

package inventory

import (
	"fmt"
	"regexp"

	"github.com/samber/lo"

	utils "github.com/crowbar/node-inventory/common"
)

// Speeds lists the known interface speed classes from slowest to fastest.
var Speeds = []string{"10m", "100m", "1g", "10g"}

var designatorRe = regexp.MustCompile(`^([-+?]?)(\d{1,3}[mg])(\d+)$`)

// Designator selectors.
const (
	SelectExact   = ""
	SelectFaster  = "+"
	SelectSlower  = "-"
	SelectNearest = "?"
)

// Designator is a speed relative interface reference such as "1g1" (the first
// 1 Gb/s interface) or "+1g2" (the second interface of at least 1 Gb/s).
type Designator struct {
	Selector string
	Speed    string
	Index    string
}

// String returns the designator in its textual form.
func (in Designator) String() string {
	return fmt.Sprintf("%s%s%s", in.Selector, in.Speed, in.Index)
}

// key returns the interface map key of the designator at another speed.
func (in Designator) key(speed string) string {
	return speed + in.Index
}

// ParseDesignator parses a designator.  The speed must be one of the known
// speed classes unless no selector is given, in which case the designator is
// looked up verbatim.
func ParseDesignator(ref string) (Designator, error) {
	m := designatorRe.FindStringSubmatch(ref)
	if m == nil {
		msg := fmt.Sprintf("malformed interface designator %q", ref)
		return Designator{}, utils.NewInvalidArgument(msg)
	}

	d := Designator{Selector: m[1], Speed: m[2], Index: m[3]}
	if d.Selector != SelectExact && !lo.Contains(Speeds, d.Speed) {
		msg := fmt.Sprintf("unknown speed %q in interface designator %q", d.Speed, ref)
		return Designator{}, utils.NewInvalidArgument(msg)
	}

	return d, nil
}

// MapInterfaceRef resolves a designator against a map of designators to
// interface names.  With no selector the designator is looked up exactly; "+"
// searches the requested speed and then faster speeds, "-" the requested
// speed and then slower speeds, and "?" searches faster speeds first and
// falls back to slower ones.  The second return value is false if no
// interface satisfies the designator.
//
// A malformed designator is a configuration error and causes a panic; use
// ParseDesignator to validate configuration beforehand.
func MapInterfaceRef(ifMap map[string]string, ref string) (string, bool) {
	d, err := ParseDesignator(ref)
	if err != nil {
		panic(err)
	}

	if d.Selector == SelectExact {
		name, ok := ifMap[d.String()]
		return name, ok
	}

	desired := lo.IndexOf(Speeds, d.Speed)

	faster := func() (string, bool) {
		for i := desired; i < len(Speeds); i++ {
			if name, ok := ifMap[d.key(Speeds[i])]; ok {
				return name, true
			}
		}
		return "", false
	}

	slower := func() (string, bool) {
		for i := desired; i >= 0; i-- {
			if name, ok := ifMap[d.key(Speeds[i])]; ok {
				return name, true
			}
		}
		return "", false
	}

	switch d.Selector {
	case SelectFaster:
		return faster()
	case SelectSlower:
		return slower()
	default:
		if name, ok := faster(); ok {
			return name, ok
		}
		return slower()
	}
}
