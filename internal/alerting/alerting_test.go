package alerting

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/healthassist/platform/internal/shared/types"
)

func testConfig() Config {
	return Config{
		Workers:          1,
		BufferSize:       8,
		RetryAttempts:    1,
		RetryDelay:       time.Millisecond,
		UrgencyThreshold: 4,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met in time")
}

func TestDispatcherDelivers(t *testing.T) {
	provider := NewMemoryProvider(nil)
	d := NewDispatcher(map[Channel]Provider{ChannelPush: provider}, testConfig(), nil)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	patientID := types.NewID()
	alert := d.NotifyUrgent(patientID, 5, "chest pain reported")
	if alert == nil {
		t.Fatal("Urgency 5 should enqueue an alert")
	}

	waitFor(t, func() bool { return len(provider.Sent()) == 1 })

	sent := provider.Sent()[0]
	if sent.PatientID != patientID {
		t.Error("Alert should carry the patient ID")
	}
	if sent.Status != StatusSent {
		t.Errorf("Expected status sent, got '%s'", sent.Status)
	}
	if sent.SentAt == nil {
		t.Error("Sent alerts should carry a delivery timestamp")
	}
}

func TestDispatcherBelowThreshold(t *testing.T) {
	provider := NewMemoryProvider(nil)
	d := NewDispatcher(map[Channel]Provider{ChannelPush: provider}, testConfig(), nil)

	if alert := d.NotifyUrgent(types.NewID(), 3, "mild headache"); alert != nil {
		t.Error("Urgency below threshold should not enqueue an alert")
	}

	if d.Stats().Enqueued != 0 {
		t.Error("Nothing should be enqueued")
	}
}

func TestDispatcherRetries(t *testing.T) {
	attempts := 0
	provider := NewMemoryProvider(func(*Alert) error {
		attempts++
		if attempts == 1 {
			return errors.New("transient failure")
		}
		return nil
	})

	d := NewDispatcher(map[Channel]Provider{ChannelPush: provider}, testConfig(), nil)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	d.NotifyUrgent(types.NewID(), 4, "high heart rate")

	waitFor(t, func() bool { return len(provider.Sent()) == 1 })

	if provider.Sent()[0].Attempts != 2 {
		t.Errorf("Expected 2 attempts, got %d", provider.Sent()[0].Attempts)
	}
	if d.Stats().Sent != 1 {
		t.Errorf("Expected 1 sent, got %d", d.Stats().Sent)
	}
}

func TestDispatcherExhaustsRetries(t *testing.T) {
	provider := NewMemoryProvider(func(*Alert) error {
		return errors.New("gateway down")
	})

	d := NewDispatcher(map[Channel]Provider{ChannelPush: provider}, testConfig(), nil)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	d.NotifyUrgent(types.NewID(), 5, "emergency")

	waitFor(t, func() bool { return d.Stats().Failed == 1 })
}

func TestDispatcherStopDuringRetryMarksFailed(t *testing.T) {
	var attempts atomic.Int64
	provider := NewMemoryProvider(func(*Alert) error {
		attempts.Add(1)
		return errors.New("gateway down")
	})

	cfg := testConfig()
	cfg.RetryAttempts = 3
	cfg.RetryDelay = time.Hour
	d := NewDispatcher(map[Channel]Provider{ChannelPush: provider}, cfg, nil)

	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	alert := d.NotifyUrgent(types.NewID(), 5, "blood pressure spike")
	if alert == nil {
		t.Fatal("Urgency 5 should enqueue an alert")
	}

	waitFor(t, func() bool { return attempts.Load() == 1 })

	// Stop interrupts the retry wait; the alert must still settle.
	d.Stop()

	if alert.Status != StatusFailed {
		t.Errorf("Expected status failed, got '%s'", alert.Status)
	}
	if alert.LastError == "" {
		t.Error("Failed alerts should record the last error")
	}
	if got := d.Stats().Failed; got != 1 {
		t.Errorf("Expected 1 failed in stats, got %d", got)
	}
}

func TestDispatcherQueueFullDrops(t *testing.T) {
	cfg := testConfig()
	cfg.BufferSize = 1

	// Not started: nothing drains the queue.
	d := NewDispatcher(map[Channel]Provider{ChannelPush: NewMemoryProvider(nil)}, cfg, nil)

	if d.NotifyUrgent(types.NewID(), 5, "first") == nil {
		t.Fatal("First alert should fit the queue")
	}
	if d.NotifyUrgent(types.NewID(), 5, "second") != nil {
		t.Error("Second alert should be dropped, not block")
	}

	if d.Stats().Dropped != 1 {
		t.Errorf("Expected 1 dropped, got %d", d.Stats().Dropped)
	}
}

func TestDispatcherDoubleStart(t *testing.T) {
	d := NewDispatcher(nil, testConfig(), nil)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	if err := d.Start(context.Background()); err == nil {
		t.Error("Second Start should fail")
	}
}
