package onboarding

import (
	"context"
	"time"
)

// AccountRecord is what the host application stores about a completed
// provisioning run. It never contains the initial password.
type AccountRecord struct {
	RequestID     string
	Username      string
	Provisioned   bool
	Detail        string
	ProvisionedAt time.Time
}

// Recorder persists the provisioning outcome on the employee record.
// Implementations belong to the host application.
type Recorder interface {
	RecordOutcome(ctx context.Context, record AccountRecord) error
}

// Notifier announces the outcome to people, e.g. on the employee's
// activity feed. Messages never contain the initial password.
type Notifier interface {
	Notify(ctx context.Context, requestID, message string) error
}

// NopRecorder discards records.
type NopRecorder struct{}

func (NopRecorder) RecordOutcome(context.Context, AccountRecord) error { return nil }

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, string, string) error { return nil }
