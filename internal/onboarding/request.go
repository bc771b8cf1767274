package onboarding

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Employee carries the fields of an employee record that account
// provisioning reads.
type Employee struct {
	FullName  string
	WorkEmail string
	WorkPhone string
}

// Validate checks the employee record before any directory contact.
// Requests failing here never open a session.
func (e Employee) Validate() error {
	if strings.TrimSpace(e.FullName) == "" {
		return fmt.Errorf("employee has no name")
	}
	email := strings.TrimSpace(e.WorkEmail)
	if email == "" {
		return fmt.Errorf("employee %s has no work email", e.FullName)
	}
	if !strings.Contains(email, "@") || strings.HasPrefix(email, "@") {
		return fmt.Errorf("employee %s has an invalid work email %q", e.FullName, email)
	}
	return nil
}

// AccountRequest is one provisioning request. Each request gets a
// unique ID that ties log lines, the stored record and the
// notification together.
type AccountRequest struct {
	RequestID  string
	Employee   Employee
	ReceivedAt time.Time
}

// NewAccountRequest stamps an employee record into a request.
func NewAccountRequest(employee Employee) AccountRequest {
	return AccountRequest{
		RequestID:  uuid.NewString(),
		Employee:   employee,
		ReceivedAt: time.Now().UTC(),
	}
}
