package alerting

import (
	"time"

	"github.com/healthassist/platform/internal/shared/types"
)

// Channel is the delivery channel for an alert.
type Channel string

const (
	ChannelPush  Channel = "push"
	ChannelSMS   Channel = "sms"
	ChannelEmail Channel = "email"
)

// Status is the delivery state of an alert.
type Status string

const (
	StatusPending Status = "pending"
	StatusSent    Status = "sent"
	StatusFailed  Status = "failed"
)

// Alert is one urgent-care notification derived from a processed
// health input.
type Alert struct {
	ID        string    `json:"id"`
	PatientID types.ID  `json:"patient_id"`
	Channel   Channel   `json:"channel"`
	Status    Status    `json:"status"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Urgency   int       `json:"urgency"`
	CreatedAt time.Time `json:"created_at"`
	SentAt    *time.Time `json:"sent_at,omitempty"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
}

// Stats counts dispatcher outcomes.
type Stats struct {
	Enqueued int64 `json:"enqueued"`
	Sent     int64 `json:"sent"`
	Failed   int64 `json:"failed"`
	Dropped  int64 `json:"dropped"`
}
