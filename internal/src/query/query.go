// Package query filters and orders normalized unit snapshots.
package query

import (
	"sort"
	"strings"

	"github.com/mirfatif/systemd-svc-status/src/entity"
)

// SortKey names the column Select orders by. SortNone keeps manager order.
type SortKey string

const (
	SortNone       SortKey = ""
	SortLoaded     SortKey = "loaded"
	SortActive     SortKey = "active"
	SortSubActive  SortKey = "sub-active"
	SortFileState  SortKey = "file-state"
	SortFilePreset SortKey = "file-preset"
)

func SortKeys() []SortKey {
	return []SortKey{SortLoaded, SortActive, SortSubActive, SortFileState, SortFilePreset}
}

// Filter holds one optional allow-set per field. A nil/empty set passes every
// value. Membership is literal string comparison, so a manager value outside
// the documented enum only matches when the filter carries the exact string.
type Filter struct {
	Types       []entity.UnitType
	Loaded      []entity.LoadState
	Active      []entity.ActiveState
	SubActive   []entity.SubState
	FileStates  []entity.FileState
	FilePresets []entity.FilePreset
}

// TypesDisabled reports whether the type set contains the "all" sentinel,
// which turns type filtering off entirely.
func (f Filter) TypesDisabled() bool {
	for _, t := range f.Types {
		if t == entity.TypeAll {
			return true
		}
	}
	return false
}

func (f Filter) matchType(t entity.UnitType) bool {
	if len(f.Types) == 0 || f.TypesDisabled() {
		return true
	}
	return contains(f.Types, t)
}

// Pass applies every active filter except the unit-file ones.
func (f Filter) Pass(u entity.Unit) bool {
	return f.matchType(u.Type) &&
		(len(f.Loaded) == 0 || contains(f.Loaded, u.Loaded)) &&
		(len(f.Active) == 0 || contains(f.Active, u.Active)) &&
		(len(f.SubActive) == 0 || contains(f.SubActive, u.Sub))
}

// PassFile applies the unit-file filters. Split out from Pass because the file
// properties cost one bus round trip each and are only fetched for units that
// already passed the cheap filters.
func (f Filter) PassFile(u entity.Unit) bool {
	return (len(f.FileStates) == 0 || contains(f.FileStates, u.FileState)) &&
		(len(f.FilePresets) == 0 || contains(f.FilePresets, u.FilePreset))
}

// NeedsFileInfo reports whether PassFile can reject anything.
func (f Filter) NeedsFileInfo() bool {
	return len(f.FileStates) > 0 || len(f.FilePresets) > 0
}

// Select returns the units passing all filters, ordered by key. Sorting is
// stable: equal keys keep the manager-reported order.
func Select(units []entity.Unit, f Filter, key SortKey) []entity.Unit {
	out := make([]entity.Unit, 0, len(units))
	for _, u := range units {
		if f.Pass(u) && f.PassFile(u) {
			out = append(out, u)
		}
	}
	Sort(out, key)
	return out
}

// Sort orders units in place by the key's lowercased string value, ascending.
func Sort(units []entity.Unit, key SortKey) {
	if key == SortNone {
		return
	}
	sort.SliceStable(units, func(i, j int) bool {
		return sortVal(units[i], key) < sortVal(units[j], key)
	})
}

func sortVal(u entity.Unit, key SortKey) string {
	var v string
	switch key {
	case SortLoaded:
		v = string(u.Loaded)
	case SortActive:
		v = string(u.Active)
	case SortSubActive:
		v = string(u.Sub)
	case SortFileState:
		v = string(u.FileState)
	case SortFilePreset:
		v = string(u.FilePreset)
	default:
		v = u.Name
	}
	return strings.ToLower(v)
}

func contains[T ~string](set []T, v T) bool {
	for _, s := range set {
		if s == v {
			return true
		}
	}
	return false
}
