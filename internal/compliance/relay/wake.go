package relay

import (
	"context"
	"log/slog"
	"time"

	"github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/rotisserie/eris"
)

// Waker coalesces wake-up signals; a pending signal absorbs further ones.
type Waker struct {
	ch chan struct{}
}

func NewWaker() *Waker {
	return &Waker{ch: make(chan struct{}, 1)}
}

func (w *Waker) Wake() {
	select {
	case w.ch <- struct{}{}:
	default:
	}
}

func (w *Waker) C() <-chan struct{} { return w.ch }

// Schedule wakes w on a cron expression such as "@every 30s". The returned
// function stops the schedule.
func Schedule(expr string, w *Waker) (func(), error) {
	c := cron.New()
	if _, err := c.AddFunc(expr, w.Wake); err != nil {
		return nil, eris.Wrapf(err, "relay: invalid sweep schedule %q", expr)
	}
	c.Start()
	return func() { <-c.Stop().Done() }, nil
}

const listenerPing = 90 * time.Second

// Listen wakes w on every NOTIFY on channel until ctx is cancelled.
// Reconnects are handled by the listener; a reconnect also wakes w since
// notifications may have been missed.
func Listen(ctx context.Context, dsn, channel string, w *Waker, logger *slog.Logger) error {
	listener := pq.NewListener(dsn, time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			logger.Warn("compliance listener event", "event", int(ev), "error", err)
		}
	})
	if err := listener.Listen(channel); err != nil {
		_ = listener.Close()
		return eris.Wrapf(err, "relay: listen on %s", channel)
	}

	go func() {
		defer listener.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case <-listener.Notify:
				w.Wake()
			case <-time.After(listenerPing):
				go func() { _ = listener.Ping() }()
			}
		}
	}()
	return nil
}
