package alerting

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// LogProvider writes alerts to the log. It is the default provider when
// no real push/SMS/email gateway is configured.
type LogProvider struct {
	log *zap.Logger
}

// NewLogProvider creates a log-backed provider.
func NewLogProvider(log *zap.Logger) *LogProvider {
	if log == nil {
		log = zap.NewNop()
	}
	return &LogProvider{log: log}
}

// Send logs the alert.
func (p *LogProvider) Send(_ context.Context, alert *Alert) error {
	p.log.Info("urgent health alert",
		zap.String("alert_id", alert.ID),
		zap.String("patient_id", alert.PatientID.String()),
		zap.Int("urgency", alert.Urgency),
		zap.String("body", alert.Body),
	)
	return nil
}

// MemoryProvider records alerts in memory for tests.
type MemoryProvider struct {
	mu    sync.Mutex
	sent  []*Alert
	errFn func(*Alert) error
}

// NewMemoryProvider creates an in-memory provider. errFn, when set,
// decides per alert whether Send fails.
func NewMemoryProvider(errFn func(*Alert) error) *MemoryProvider {
	return &MemoryProvider{errFn: errFn}
}

// Send records the alert, or fails per errFn.
func (p *MemoryProvider) Send(_ context.Context, alert *Alert) error {
	if p.errFn != nil {
		if err := p.errFn(alert); err != nil {
			return err
		}
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sent = append(p.sent, alert)
	return nil
}

// Sent returns a copy of the recorded alerts.
func (p *MemoryProvider) Sent() []*Alert {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*Alert, len(p.sent))
	copy(out, p.sent)
	return out
}
