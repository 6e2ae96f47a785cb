// Package notify raises desktop notifications over the session bus
// (org.freedesktop.Notifications).
package notify

import (
	"fmt"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = "/org/freedesktop/Notifications"
	method     = busName + ".Notify"
)

// Urgency levels per the freedesktop notification spec.
type Urgency byte

const (
	UrgencyLow      Urgency = 0
	UrgencyNormal   Urgency = 1
	UrgencyCritical Urgency = 2
)

// Notification is one desktop bubble. ReplacesID of zero creates a new one;
// a prior id replaces it in place. Timeout is in milliseconds, zero means
// never expire.
type Notification struct {
	Title      string
	Body       string
	Icon       string
	Urgency    Urgency
	ReplacesID uint32
	Timeout    int32
}

// Notifier delivers a notification and returns its server-assigned id.
type Notifier interface {
	Notify(n Notification) (uint32, error)
}

// DBus talks to the session notification daemon. The connection is dialed on
// first use so a watcher started before the desktop session still works once
// the daemon appears.
type DBus struct {
	appName string

	mu   sync.Mutex
	conn *dbus.Conn
}

func NewDBus(appName string) *DBus {
	return &DBus{appName: appName}
}

func (d *DBus) Notify(n Notification) (uint32, error) {
	conn, err := d.session()
	if err != nil {
		return 0, fmt.Errorf("session bus: %w", err)
	}

	hints := map[string]dbus.Variant{
		"urgency": dbus.MakeVariant(byte(n.Urgency)),
	}

	call := conn.Object(busName, objectPath).Call(method, 0,
		d.appName, n.ReplacesID, n.Icon, n.Title, n.Body,
		[]string{}, hints, n.Timeout)
	if call.Err != nil {
		d.reset()
		return 0, fmt.Errorf("notify call: %w", call.Err)
	}

	var id uint32
	if err := call.Store(&id); err != nil {
		return 0, fmt.Errorf("notify reply: %w", err)
	}
	return id, nil
}

func (d *DBus) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn == nil {
		return nil
	}
	err := d.conn.Close()
	d.conn = nil
	return err
}

func (d *DBus) session() (*dbus.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		return d.conn, nil
	}
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	d.conn = conn
	return conn, nil
}

// reset drops a connection that returned an error so the next call redials.
func (d *DBus) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.conn != nil {
		d.conn.Close()
		d.conn = nil
	}
}
