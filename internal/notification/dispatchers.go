package notification

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"examreg/pkg/platform/circuit"
)

// ErrCircuitOpen is returned while the breaker rejects sends.
var ErrCircuitOpen = errors.New("notification circuit open")

// LogDispatcher writes messages to the log instead of sending them. Used in
// development when no SMTP host is configured.
type LogDispatcher struct {
	logger *slog.Logger
}

func NewLogDispatcher(logger *slog.Logger) *LogDispatcher {
	return &LogDispatcher{logger: logger}
}

func (d *LogDispatcher) Send(ctx context.Context, to, subject, _ string) error {
	d.logger.InfoContext(ctx, "confirmation email (log only)",
		"to", to,
		"subject", subject,
	)
	return nil
}

// BreakerDispatcher stops calling a failing relay for a cooldown so a mail
// outage does not pile up blocked goroutines.
type BreakerDispatcher struct {
	next    Dispatcher
	breaker *circuit.Breaker
	logger  *slog.Logger
}

func NewBreakerDispatcher(next Dispatcher, breaker *circuit.Breaker, logger *slog.Logger) *BreakerDispatcher {
	return &BreakerDispatcher{next: next, breaker: breaker, logger: logger}
}

func (d *BreakerDispatcher) Send(ctx context.Context, to, subject, body string) error {
	if !d.breaker.Allow() {
		return ErrCircuitOpen
	}
	if err := d.next.Send(ctx, to, subject, body); err != nil {
		if _, change := d.breaker.RecordFailure(); change.Opened {
			d.logger.WarnContext(ctx, "notification circuit opened", "breaker", d.breaker.Name())
		}
		return err
	}
	if _, change := d.breaker.RecordSuccess(); change.Closed {
		d.logger.InfoContext(ctx, "notification circuit closed", "breaker", d.breaker.Name())
	}
	return nil
}

// Sent is one message captured by RecordingDispatcher.
type Sent struct {
	To      string
	Subject string
	Body    string
}

// RecordingDispatcher keeps sent messages in memory; Err, when set, is
// returned from every Send after recording the attempt.
type RecordingDispatcher struct {
	mu   sync.Mutex
	sent []Sent
	Err  error
}

func (d *RecordingDispatcher) Send(_ context.Context, to, subject, body string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, Sent{To: to, Subject: subject, Body: body})
	return d.Err
}

// Sent returns a copy of every attempted message.
func (d *RecordingDispatcher) Sent() []Sent {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Sent(nil), d.sent...)
}
