package events

import (
	"time"

	"github.com/spec-kit/restaurant-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventOtpRequested     EventType = "otp_requested"
	EventCustomerVerified EventType = "customer_verified"
	EventStaffLoggedIn    EventType = "staff_logged_in"
	EventSessionRefreshed EventType = "session_refreshed"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID            string               `json:"id"`
	Type          EventType            `json:"type"`
	PrincipalType domain.PrincipalType `json:"principal_type"`
	SubjectID     string               `json:"subject_id,omitempty"`
	Timestamp     time.Time            `json:"timestamp"`
	Payload       interface{}          `json:"payload"`
}

// OtpRequestedPayload payload.
type OtpRequestedPayload struct {
	Phone   string `json:"phone"`
	Counter int64  `json:"counter"`
}

// CustomerVerifiedPayload payload.
type CustomerVerifiedPayload struct {
	Phone string `json:"phone"`
}

// StaffLoggedInPayload payload.
type StaffLoggedInPayload struct {
	Role domain.StaffRole `json:"role"`
}

// SessionRefreshedPayload payload.
type SessionRefreshedPayload struct {
	Audience string `json:"audience"`
}
