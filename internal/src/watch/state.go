package watch

import (
	"github.com/mirfatif/systemd-svc-status/src/entity"
)

// State is the watcher's per-unit derived condition.
type State int

const (
	StateUnknown State = iota
	StateOK
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateOK:
		return "ok"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Rule decides whether an (active, sub) pair counts as failed for one unit
// type.
type Rule func(active entity.ActiveState, sub entity.SubState) bool

// RuleTable maps unit types to their failure predicate. Types without an
// entry use Default.
type RuleTable struct {
	Default Rule
	PerType map[entity.UnitType]Rule
}

// defaultRule matches systemd's convention: ActiveState failed, or the types
// that report failure only through SubState while nominally active.
func defaultRule(active entity.ActiveState, sub entity.SubState) bool {
	if active == entity.ActiveFailed {
		return true
	}
	return active == entity.ActiveActive && sub == entity.SubFailed
}

// DefaultRules builds the stock table. The explicit per-type entries are
// where deviating semantics belong should a manager version need them.
func DefaultRules() RuleTable {
	return RuleTable{
		Default: defaultRule,
		PerType: map[entity.UnitType]Rule{
			entity.TypeService: defaultRule,
			entity.TypeMount:   defaultRule,
			entity.TypeTimer:   defaultRule,
		},
	}
}

// Derive computes the watcher state for a unit of the given type.
func (t RuleTable) Derive(typ entity.UnitType, active entity.ActiveState, sub entity.SubState) State {
	rule := t.Default
	if r, ok := t.PerType[typ]; ok {
		rule = r
	}
	if rule != nil && rule(active, sub) {
		return StateFailed
	}
	return StateOK
}

// ShouldNotify is the edge trigger: fire only when a unit enters failed from
// any non-failed state. failed -> failed stays quiet, failed -> ok re-arms.
func ShouldNotify(prev, next State) bool {
	return next == StateFailed && prev != StateFailed
}
