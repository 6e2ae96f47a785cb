package watch

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mirfatif/systemd-svc-status/src/entity"
)

func TestShouldNotify(t *testing.T) {
	tests := []struct {
		prev, next State
		want       bool
	}{
		{StateOK, StateFailed, true},
		{StateUnknown, StateFailed, true},
		{StateFailed, StateFailed, false},
		{StateFailed, StateOK, false},
		{StateOK, StateOK, false},
		{StateUnknown, StateOK, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ShouldNotify(tt.prev, tt.next),
			"%v -> %v", tt.prev, tt.next)
	}
}

func TestDerive(t *testing.T) {
	rules := DefaultRules()

	assert.Equal(t, StateFailed,
		rules.Derive(entity.TypeService, entity.ActiveFailed, "failed"))
	assert.Equal(t, StateFailed,
		rules.Derive(entity.TypeMount, entity.ActiveActive, entity.SubFailed),
		"failure reported via sub-state only")
	assert.Equal(t, StateOK,
		rules.Derive(entity.TypeService, entity.ActiveActive, "running"))
	assert.Equal(t, StateOK,
		rules.Derive(entity.TypeService, entity.ActiveInactive, "dead"))
	assert.Equal(t, StateOK,
		rules.Derive(entity.TypeTimer, entity.ActiveActive, "waiting"))
	// Types without an explicit entry fall back to the default rule.
	assert.Equal(t, StateFailed,
		rules.Derive(entity.TypeSocket, entity.ActiveFailed, "failed"))
}

func TestDerivePerTypeOverride(t *testing.T) {
	rules := DefaultRules()
	rules.PerType[entity.TypeDevice] = func(entity.ActiveState, entity.SubState) bool {
		return false
	}

	assert.Equal(t, StateOK,
		rules.Derive(entity.TypeDevice, entity.ActiveFailed, "failed"))
	assert.Equal(t, StateFailed,
		rules.Derive(entity.TypeService, entity.ActiveFailed, "failed"))
}
