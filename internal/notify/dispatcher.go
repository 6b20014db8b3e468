package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"bookinghub/backend/internal/domain"
	"bookinghub/backend/internal/monitoring"
)

const DefaultNotifyTimeout = 10 * time.Second

// Dispatcher fans an event out to every notifier. Dispatch never blocks the
// caller and never reports failure back to it; failures are logged and
// counted.
type Dispatcher struct {
	notifiers []Notifier
	timeout   time.Duration
	log       *slog.Logger
	metrics   *monitoring.Metrics
	now       func() time.Time

	mu     sync.Mutex
	closed bool
	wg     sync.WaitGroup
}

type DispatcherOption func(*Dispatcher)

func WithTimeout(d time.Duration) DispatcherOption {
	return func(x *Dispatcher) {
		if d > 0 {
			x.timeout = d
		}
	}
}

func WithLogger(log *slog.Logger) DispatcherOption {
	return func(x *Dispatcher) {
		if log != nil {
			x.log = log
		}
	}
}

func WithMetrics(m *monitoring.Metrics) DispatcherOption {
	return func(x *Dispatcher) { x.metrics = m }
}

func WithClock(now func() time.Time) DispatcherOption {
	return func(x *Dispatcher) {
		if now != nil {
			x.now = now
		}
	}
}

func NewDispatcher(notifiers []Notifier, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{
		notifiers: notifiers,
		timeout:   DefaultNotifyTimeout,
		log:       slog.Default(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(d)
	}
	d.log = d.log.With(slog.String("component", "notify.dispatcher"))
	return d
}

func (d *Dispatcher) event(kind Kind, a domain.Appointment) Event {
	return Event{Kind: kind, Appointment: a, OccurredAt: d.now().UTC()}
}

// Dispatch sends kind for a in the background. It is a no-op once Close has
// been called.
func (d *Dispatcher) Dispatch(kind Kind, a domain.Appointment) {
	if d == nil {
		return
	}
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		d.log.Warn("dispatcher closed, dropping notification",
			slog.String("kind", string(kind)),
			slog.String("appointment_id", a.ID),
		)
		return
	}
	d.wg.Add(len(d.notifiers))
	d.mu.Unlock()

	ev := d.event(kind, a)
	for _, n := range d.notifiers {
		go func(n Notifier) {
			defer d.wg.Done()
			_ = d.deliver(context.Background(), n, ev)
		}(n)
	}
}

// Send delivers kind for a to every notifier and waits for all of them.
func (d *Dispatcher) Send(ctx context.Context, kind Kind, a domain.Appointment) error {
	if d == nil {
		return nil
	}
	ev := d.event(kind, a)

	var (
		mu   sync.Mutex
		errs []error
		wg   sync.WaitGroup
	)
	for _, n := range d.notifiers {
		wg.Add(1)
		go func(n Notifier) {
			defer wg.Done()
			if err := d.deliver(ctx, n, ev); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		}(n)
	}
	wg.Wait()
	return errors.Join(errs...)
}

func (d *Dispatcher) deliver(ctx context.Context, n Notifier, ev Event) error {
	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	err := n.Notify(ctx, ev)
	d.metrics.ObserveNotification(n.Name(), string(ev.Kind), err)

	attrs := []any{
		slog.String("notifier", n.Name()),
		slog.String("kind", string(ev.Kind)),
		slog.String("appointment_id", ev.Appointment.ID),
	}
	if err != nil {
		d.log.Error("notification failed", append(attrs, slog.Any("err", err))...)
		return err
	}
	d.log.Debug("notification delivered", attrs...)
	return nil
}

// Close stops accepting new events, waits for in-flight ones and then closes
// notifiers that hold resources.
func (d *Dispatcher) Close(ctx context.Context) error {
	if d == nil {
		return nil
	}
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	var errs []error
	for _, n := range d.notifiers {
		if c, ok := n.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
