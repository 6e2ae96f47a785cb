// Package watch turns the manager's unit change stream into edge-triggered
// failure notifications.
package watch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/mirfatif/systemd-svc-status/internal/src/notify"
	"github.com/mirfatif/systemd-svc-status/internal/src/sysbus"
	"github.com/mirfatif/systemd-svc-status/src/entity"
)

const notifTitle = "Service state changed"

// maxSubErrors is how many consecutive subscription errors, with no event
// batch in between, count as the bus connection being gone. The underlying
// subscription never closes its channels on connection loss; it keeps
// reporting a poll error every interval instead.
const maxSubErrors = 5

// Matcher reports whether a unit is on the ignore list. Implementations must
// be safe for concurrent use; the list may be reloaded from another goroutine.
type Matcher interface {
	Match(name string) bool
}

type matchNone struct{}

func (matchNone) Match(string) bool { return false }

// Watcher tracks the last observed derived state per unit and notifies once
// per failure edge. The state map is only touched from Run's goroutine, so it
// needs no lock.
type Watcher struct {
	rules    RuleTable
	notifier notify.Notifier
	ignore   Matcher

	icon    string
	timeout int32

	last       map[string]State
	replaceIDs map[string]uint32

	stream *Broadcaster
}

// Option configures a Watcher.
type Option func(*Watcher)

// WithIgnoreList skips notifications for matching units. They are still
// tracked so a later removal from the list needs no warm-up.
func WithIgnoreList(m Matcher) Option {
	return func(w *Watcher) {
		if m != nil {
			w.ignore = m
		}
	}
}

// WithNotification sets the icon and expiry passed to the notifier.
func WithNotification(icon string, timeoutMS int32) Option {
	return func(w *Watcher) {
		w.icon = icon
		w.timeout = timeoutMS
	}
}

// WithRules replaces the failure predicate table.
func WithRules(t RuleTable) Option {
	return func(w *Watcher) {
		w.rules = t
	}
}

func New(notifier notify.Notifier, opts ...Option) *Watcher {
	w := &Watcher{
		rules:      DefaultRules(),
		notifier:   notifier,
		ignore:     matchNone{},
		icon:       "text-x-systemd-unit",
		last:       make(map[string]State),
		replaceIDs: make(map[string]uint32),
		stream:     NewBroadcaster(),
	}
	for _, o := range opts {
		o(w)
	}
	return w
}

// Stream exposes the event fan-out for the diagnostics endpoint.
func (w *Watcher) Stream() *Broadcaster {
	return w.stream
}

// Run consumes event batches until the context is canceled or the connection
// is lost. A transient subscription error is logged and tolerated; sustained
// errors with no intervening batch, or the stream closing, report connection
// loss so the process can exit for its supervisor to restart.
func (w *Watcher) Run(ctx context.Context, events <-chan []sysbus.UnitEvent, errs <-chan error) error {
	subErrs := 0
	for {
		select {
		case <-ctx.Done():
			return nil
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			subErrs++
			if subErrs >= maxSubErrors {
				return fmt.Errorf("%w: %d consecutive subscription errors, last: %v",
					sysbus.ErrConnection, subErrs, err)
			}
			log.Err(err).Msgf("subscription error")
		case batch, ok := <-events:
			if !ok {
				return fmt.Errorf("%w: event stream closed", sysbus.ErrConnection)
			}
			subErrs = 0
			for _, ev := range batch {
				w.handle(ev)
			}
			w.stream.Publish(batch)
		}
	}
}

func (w *Watcher) handle(ev sysbus.UnitEvent) {
	if ev.Removed {
		delete(w.last, ev.Name)
		delete(w.replaceIDs, ev.Name)
		return
	}

	next := w.rules.Derive(entity.TypeOf(ev.Name), ev.Active, ev.Sub)
	prev := w.last[ev.Name] // StateUnknown when never seen
	w.last[ev.Name] = next

	if !ShouldNotify(prev, next) {
		return
	}

	msg := fmt.Sprintf("%s becomes %s", ev.Name, ev.Active)
	if string(ev.Sub) != string(ev.Active) {
		msg += fmt.Sprintf(" (%s)", ev.Sub)
	}

	if w.ignore.Match(ev.Name) {
		log.Info().Msgf("Ignoring: %s", msg)
		return
	}

	log.Info().Msgf("%s", msg)

	id, err := w.notifier.Notify(notify.Notification{
		Title:      notifTitle,
		Body:       msg,
		Icon:       w.icon,
		Urgency:    notify.UrgencyCritical,
		ReplacesID: w.replaceIDs[ev.Name],
		Timeout:    w.timeout,
	})
	if err != nil {
		log.Err(err).Msgf("failed to notify for %s", ev.Name)
		return
	}
	if id != 0 {
		w.replaceIDs[ev.Name] = id
	}
}
