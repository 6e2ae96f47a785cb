package sysbus

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	sddbus "github.com/coreos/go-systemd/v22/dbus"
	godbus "github.com/godbus/dbus/v5"

	"github.com/mirfatif/systemd-svc-status/src/entity"
)

const (
	propUnitFileState  = "UnitFileState"
	propUnitFilePreset = "UnitFilePreset"
	propFragmentPath   = "FragmentPath"

	dbusErrAccessDenied = "org.freedesktop.DBus.Error.AccessDenied"
)

var (
	// ErrConnection wraps failures to reach or query the manager bus.
	ErrConnection = errors.New("systemd bus unreachable")

	// ErrPermission wraps access-denied responses for the requested scope.
	ErrPermission = errors.New("permission denied on systemd bus")
)

// Scope selects which manager instance to talk to. Chosen at connect time,
// never switched mid-run.
type Scope int

const (
	ScopeSystem Scope = iota
	ScopeUser
)

func (s Scope) String() string {
	if s == ScopeUser {
		return "user"
	}
	return "system"
}

// Connection is the slice of go-systemd's dbus.Conn the listing path needs.
// Tests substitute a mock.
type Connection interface {
	Close()
	ListUnitsContext(ctx context.Context) ([]sddbus.UnitStatus, error)
	GetUnitPropertyContext(ctx context.Context, unit string, propertyName string) (*sddbus.Property, error)
}

// Client owns one manager bus connection.
type Client struct {
	conn  Connection
	scope Scope
}

// Connect opens a connection to the manager in the given scope.
func Connect(ctx context.Context, scope Scope) (*Client, error) {
	var conn *sddbus.Conn
	var err error

	if scope == ScopeUser {
		conn, err = sddbus.NewUserConnectionContext(ctx)
	} else {
		conn, err = sddbus.NewSystemConnectionContext(ctx)
	}
	if err != nil {
		return nil, wrapBusErr(err, scope)
	}

	return &Client{conn: conn, scope: scope}, nil
}

// NewClient wraps an existing connection. Used by tests.
func NewClient(conn Connection, scope Scope) *Client {
	return &Client{conn: conn, scope: scope}
}

func (c *Client) Close() {
	c.conn.Close()
}

func (c *Client) Scope() Scope {
	return c.scope
}

// Units fetches and normalizes all currently known units in one round trip.
// File state, preset and fragment path are left empty; see FileInfo.
func (c *Client) Units(ctx context.Context) ([]entity.Unit, error) {
	raw, err := c.conn.ListUnitsContext(ctx)
	if err != nil {
		return nil, wrapBusErr(err, c.scope)
	}

	units := make([]entity.Unit, 0, len(raw))
	for _, st := range raw {
		units = append(units, entity.FromStatus(st))
	}
	return units, nil
}

// FileInfo reads the unit-file properties for one unit and fills them into u.
// Separate from Units because each call is a bus round trip; callers fetch it
// only for units that survive the cheap filters.
func (c *Client) FileInfo(ctx context.Context, u *entity.Unit) error {
	state, err := c.stringProperty(ctx, u.Name, propUnitFileState)
	if err != nil {
		return err
	}
	preset, err := c.stringProperty(ctx, u.Name, propUnitFilePreset)
	if err != nil {
		return err
	}
	path, err := c.stringProperty(ctx, u.Name, propFragmentPath)
	if err != nil {
		return err
	}

	u.FileState = entity.FileState(state)
	u.FilePreset = entity.FilePreset(preset)
	u.Path = path
	return nil
}

func (c *Client) stringProperty(ctx context.Context, unit, name string) (string, error) {
	prop, err := c.conn.GetUnitPropertyContext(ctx, unit, name)
	if err != nil {
		return "", wrapBusErr(fmt.Errorf("get %s of %s: %w", name, unit, err), c.scope)
	}
	return strings.Trim(prop.Value.String(), `"`), nil
}

func wrapBusErr(err error, scope Scope) error {
	var derr godbus.Error
	if errors.As(err, &derr) && derr.Name == dbusErrAccessDenied {
		return fmt.Errorf("%w (%s scope): %v", ErrPermission, scope, err)
	}
	return fmt.Errorf("%w (%s scope): %v", ErrConnection, scope, err)
}

// UnitEvent is one observed state change. Removed is set when the manager no
// longer knows the unit.
type UnitEvent struct {
	Name    string             `json:"name"`
	Active  entity.ActiveState `json:"active_state"`
	Sub     entity.SubState    `json:"sub_state"`
	Removed bool               `json:"removed,omitempty"`
}

// SubscribeEvents subscribes to unit state changes and converts them into
// UnitEvent batches. Delivery order within a batch follows the manager; no
// de-duplication happens here. Closing the client terminates the stream.
func (c *Client) SubscribeEvents(interval time.Duration, buffer int) (<-chan []UnitEvent, <-chan error) {
	conn, ok := c.conn.(*sddbus.Conn)
	if !ok {
		panic("sysbus: SubscribeEvents needs a real bus connection")
	}

	updates, errs := conn.SubscribeUnitsCustom(interval, buffer,
		func(a, b *sddbus.UnitStatus) bool { return *a != *b }, nil)

	out := make(chan []UnitEvent, buffer)
	go func() {
		defer close(out)
		for changed := range updates {
			batch := make([]UnitEvent, 0, len(changed))
			for name, st := range changed {
				if st == nil {
					batch = append(batch, UnitEvent{Name: name, Removed: true})
					continue
				}
				batch = append(batch, UnitEvent{
					Name:   st.Name,
					Active: entity.ActiveState(st.ActiveState),
					Sub:    entity.SubState(st.SubState),
				})
			}
			out <- batch
		}
	}()

	return out, errs
}
