package sysbus

import (
	"context"
	"errors"
	"testing"

	sddbus "github.com/coreos/go-systemd/v22/dbus"
	godbus "github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mirfatif/systemd-svc-status/src/entity"
)

type mockConn struct {
	units   []sddbus.UnitStatus
	props   map[string]map[string]string
	listErr error
	propErr error
	closed  bool
}

func (m *mockConn) Close() { m.closed = true }

func (m *mockConn) ListUnitsContext(context.Context) ([]sddbus.UnitStatus, error) {
	return m.units, m.listErr
}

func (m *mockConn) GetUnitPropertyContext(_ context.Context, unit, name string) (*sddbus.Property, error) {
	if m.propErr != nil {
		return nil, m.propErr
	}
	return &sddbus.Property{
		Name:  name,
		Value: godbus.MakeVariant(m.props[unit][name]),
	}, nil
}

func TestUnitsNormalized(t *testing.T) {
	conn := &mockConn{units: []sddbus.UnitStatus{
		{Name: "nginx.service", Description: "web server", LoadState: "loaded", ActiveState: "active", SubState: "running"},
		{Name: "cron.service", LoadState: "loaded", ActiveState: "failed", SubState: "failed"},
	}}
	client := NewClient(conn, ScopeSystem)

	units, err := client.Units(context.Background())
	require.NoError(t, err)
	require.Len(t, units, 2)

	assert.Equal(t, entity.TypeService, units[0].Type)
	assert.Equal(t, entity.ActiveActive, units[0].Active)
	assert.Equal(t, entity.ActiveFailed, units[1].Active)
}

func TestUnitsConnectionError(t *testing.T) {
	conn := &mockConn{listErr: errors.New("dial unix: no such file")}
	client := NewClient(conn, ScopeSystem)

	_, err := client.Units(context.Background())
	assert.ErrorIs(t, err, ErrConnection)
}

func TestUnitsPermissionError(t *testing.T) {
	conn := &mockConn{listErr: godbus.Error{
		Name: "org.freedesktop.DBus.Error.AccessDenied",
		Body: []interface{}{"rejected"},
	}}
	client := NewClient(conn, ScopeUser)

	_, err := client.Units(context.Background())
	assert.ErrorIs(t, err, ErrPermission)
	assert.Contains(t, err.Error(), "user scope")
}

func TestFileInfo(t *testing.T) {
	conn := &mockConn{props: map[string]map[string]string{
		"nginx.service": {
			"UnitFileState":  "enabled",
			"UnitFilePreset": "disabled",
			"FragmentPath":   "/usr/lib/systemd/system/nginx.service",
		},
	}}
	client := NewClient(conn, ScopeSystem)

	u := entity.Unit{Name: "nginx.service", Type: entity.TypeService}
	require.NoError(t, client.FileInfo(context.Background(), &u))

	// Variant string rendering wraps values in quotes; they must not leak.
	assert.Equal(t, entity.FileEnabled, u.FileState)
	assert.Equal(t, entity.PresetDisabled, u.FilePreset)
	assert.Equal(t, "/usr/lib/systemd/system/nginx.service", u.Path)
}

func TestFileInfoError(t *testing.T) {
	conn := &mockConn{propErr: errors.New("unit gone")}
	client := NewClient(conn, ScopeSystem)

	u := entity.Unit{Name: "gone.service"}
	err := client.FileInfo(context.Background(), &u)
	assert.ErrorIs(t, err, ErrConnection)
	assert.Contains(t, err.Error(), "gone.service")
}

func TestClose(t *testing.T) {
	conn := &mockConn{}
	NewClient(conn, ScopeSystem).Close()
	assert.True(t, conn.closed)
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "system", ScopeSystem.String())
	assert.Equal(t, "user", ScopeUser.String())
}
