package entity

import (
	"testing"

	"github.com/coreos/go-systemd/v22/dbus"
	"github.com/stretchr/testify/assert"
)

func TestFromStatus(t *testing.T) {
	u := FromStatus(dbus.UnitStatus{
		Name:        "nginx.service",
		Description: "A high performance web server",
		LoadState:   "loaded",
		ActiveState: "active",
		SubState:    "running",
	})

	assert.Equal(t, "nginx.service", u.Name)
	assert.Equal(t, TypeService, u.Type)
	assert.Equal(t, "A high performance web server", u.Description)
	assert.Equal(t, LoadLoaded, u.Loaded)
	assert.Equal(t, ActiveActive, u.Active)
	assert.Equal(t, SubState("running"), u.Sub)
	assert.Empty(t, u.FileState)
	assert.Empty(t, u.FilePreset)
	assert.Empty(t, u.Path)
}

func TestFromStatusUnknownStates(t *testing.T) {
	// Values systemd may grow in the future must pass through verbatim.
	u := FromStatus(dbus.UnitStatus{
		Name:        "weird.container",
		LoadState:   "quantum",
		ActiveState: "superposed",
		SubState:    "entangled",
	})

	assert.Equal(t, UnitType("container"), u.Type)
	assert.Equal(t, LoadState("quantum"), u.Loaded)
	assert.Equal(t, ActiveState("superposed"), u.Active)
	assert.Equal(t, SubState("entangled"), u.Sub)
}

func TestTypeOf(t *testing.T) {
	tests := []struct {
		name string
		want UnitType
	}{
		{"cron.service", TypeService},
		{"dbus.socket", TypeSocket},
		{"home.mount", TypeMount},
		{"getty@tty1.service", TypeService},
		{"dev-sda1.device", TypeDevice},
		{"logrotate.timer", TypeTimer},
		{"noext", UnitType("noext")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, TypeOf(tt.name), tt.name)
	}
}

func TestKnownTypesIncludesAllSentinel(t *testing.T) {
	assert.Contains(t, KnownTypes(), TypeAll)
}
