package alerting

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/healthassist/platform/internal/shared/types"
)

// Provider delivers an alert over one channel.
type Provider interface {
	Send(ctx context.Context, alert *Alert) error
}

// Config tunes the dispatcher.
type Config struct {
	Workers       int
	BufferSize    int
	RetryAttempts int
	RetryDelay    time.Duration
	// Alerts below this urgency are ignored.
	UrgencyThreshold int
}

// DefaultConfig returns the default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:          2,
		BufferSize:       256,
		RetryAttempts:    3,
		RetryDelay:       5 * time.Second,
		UrgencyThreshold: 4,
	}
}

// Dispatcher fans urgent alerts out to channel providers through a
// bounded queue and a fixed worker pool. A full queue drops the alert
// rather than blocking the request path.
type Dispatcher struct {
	providers map[Channel]Provider
	config    Config
	log       *zap.Logger

	alertCh chan *Alert
	stopCh  chan struct{}
	wg      sync.WaitGroup

	mu      sync.Mutex
	started bool

	enqueued atomic.Int64
	sent     atomic.Int64
	failed   atomic.Int64
	dropped  atomic.Int64
}

// NewDispatcher creates a dispatcher over the given channel providers.
func NewDispatcher(providers map[Channel]Provider, config Config, log *zap.Logger) *Dispatcher {
	if config.Workers <= 0 {
		config.Workers = DefaultConfig().Workers
	}
	if config.BufferSize <= 0 {
		config.BufferSize = DefaultConfig().BufferSize
	}
	if config.UrgencyThreshold <= 0 {
		config.UrgencyThreshold = DefaultConfig().UrgencyThreshold
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Dispatcher{
		providers: providers,
		config:    config,
		log:       log,
		alertCh:   make(chan *Alert, config.BufferSize),
		stopCh:    make(chan struct{}),
	}
}

// Start launches the worker pool.
func (d *Dispatcher) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started {
		return fmt.Errorf("dispatcher already started")
	}
	d.started = true

	for i := 0; i < d.config.Workers; i++ {
		d.wg.Add(1)
		go d.worker(ctx)
	}
	return nil
}

// Stop drains the workers and waits for in-flight deliveries.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.started {
		d.mu.Unlock()
		return
	}
	d.started = false
	d.mu.Unlock()

	close(d.stopCh)
	d.wg.Wait()
}

// NotifyUrgent enqueues an alert for a processed input at or above the
// urgency threshold. Returns the alert, or nil when below threshold or
// the queue is full.
func (d *Dispatcher) NotifyUrgent(patientID types.ID, urgency int, summary string) *Alert {
	if urgency < d.config.UrgencyThreshold {
		return nil
	}

	alert := &Alert{
		ID:        uuid.New().String(),
		PatientID: patientID,
		Channel:   ChannelPush,
		Status:    StatusPending,
		Subject:   "Urgent health alert",
		Body:      summary,
		Urgency:   urgency,
		CreatedAt: time.Now().UTC(),
	}

	select {
	case d.alertCh <- alert:
		d.enqueued.Add(1)
		return alert
	default:
		d.dropped.Add(1)
		d.log.Warn("alert queue full, dropping alert",
			zap.String("patient_id", patientID.String()),
			zap.Int("urgency", urgency),
		)
		return nil
	}
}

// Stats returns a snapshot of dispatcher counters.
func (d *Dispatcher) Stats() Stats {
	return Stats{
		Enqueued: d.enqueued.Load(),
		Sent:     d.sent.Load(),
		Failed:   d.failed.Load(),
		Dropped:  d.dropped.Load(),
	}
}

func (d *Dispatcher) worker(ctx context.Context) {
	defer d.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		case <-d.stopCh:
			return
		case alert := <-d.alertCh:
			d.deliver(ctx, alert)
		}
	}
}

func (d *Dispatcher) deliver(ctx context.Context, alert *Alert) {
	provider, ok := d.providers[alert.Channel]
	if !ok {
		alert.Status = StatusFailed
		alert.LastError = fmt.Sprintf("no provider for channel %s", alert.Channel)
		d.failed.Add(1)
		return
	}

	var lastErr error
	for attempt := 0; attempt <= d.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			// An interrupted retry wait still settles the alert;
			// Stats must account for every dequeued alert.
			select {
			case <-ctx.Done():
				d.fail(alert, lastErr)
				return
			case <-d.stopCh:
				d.fail(alert, lastErr)
				return
			case <-time.After(d.config.RetryDelay):
			}
		}

		alert.Attempts++
		if lastErr = provider.Send(ctx, alert); lastErr == nil {
			now := time.Now().UTC()
			alert.Status = StatusSent
			alert.SentAt = &now
			d.sent.Add(1)
			return
		}
	}

	d.fail(alert, lastErr)
}

func (d *Dispatcher) fail(alert *Alert, err error) {
	alert.Status = StatusFailed
	if err != nil {
		alert.LastError = err.Error()
	} else {
		alert.LastError = "delivery interrupted"
	}
	d.failed.Add(1)
	d.log.Warn("alert delivery failed",
		zap.String("alert_id", alert.ID),
		zap.Int("attempts", alert.Attempts),
		zap.Error(err),
	)
}
