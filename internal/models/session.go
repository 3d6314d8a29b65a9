package models

import "time"

// SessionStatus is the lifecycle state of a training session.
// SCHEDULED is the only non-terminal state; cancellation keeps a single
// CANCELLED status and records the cancelling role separately.
type SessionStatus string

const (
	SessionScheduled SessionStatus = "SCHEDULED"
	SessionCompleted SessionStatus = "COMPLETED"
	SessionCancelled SessionStatus = "CANCELLED"
)

// Terminal reports whether no further transition is permitted.
func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// Session is a booked training slot between a member and a trainer.
// Sessions are never deleted; cancellation is a status change.
// Date is an ISO calendar day (YYYY-MM-DD), times are zero-padded HH:MM.
type Session struct {
	ID                 string        `db:"id" json:"id"`
	TrainerID          string        `db:"trainer_id" json:"trainer_id"`
	MemberID           string        `db:"member_id" json:"member_id"`
	Date               string        `db:"session_date" json:"date"`
	StartTime          string        `db:"start_time" json:"start_time"`
	EndTime            string        `db:"end_time" json:"end_time"`
	Status             SessionStatus `db:"status" json:"status"`
	Notes              *string       `db:"notes" json:"notes,omitempty"`
	CancelledBy        *UserRole     `db:"cancelled_by" json:"cancelled_by,omitempty"`
	CancellationReason *string       `db:"cancellation_reason" json:"cancellation_reason,omitempty"`
	CancelledAt        *time.Time    `db:"cancelled_at" json:"cancelled_at,omitempty"`
	CompletedAt        *time.Time    `db:"completed_at" json:"completed_at,omitempty"`
	CreatedAt          time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt          time.Time     `db:"updated_at" json:"updated_at"`
}

// SessionScope selects the canonical upcoming/recent list orderings.
type SessionScope string

const (
	ScopeUpcoming SessionScope = "upcoming"
	ScopeRecent   SessionScope = "recent"
)

// SessionFilter describes query params for listing sessions.
type SessionFilter struct {
	MemberID  string
	TrainerID string
	Status    SessionStatus
	DateFrom  string
	DateTo    string
	Scope     SessionScope
	// Today anchors the upcoming/recent scopes; set by the service.
	Today    string
	Page     int
	PageSize int
}

// TrainerSessionCount is a per-trainer session tally for a member.
type TrainerSessionCount struct {
	TrainerID string `db:"trainer_id" json:"trainer_id"`
	Count     int    `db:"count" json:"count"`
}

// TrainerRanking ranks a trainer by completed session count.
type TrainerRanking struct {
	TrainerID   string `db:"trainer_id" json:"trainer_id"`
	TrainerName string `db:"trainer_name" json:"trainer_name"`
	Completed   int    `db:"completed" json:"completed"`
}
