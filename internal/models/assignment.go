package models

import "time"

// AssignmentStatus is the lifecycle state of a member/trainer link.
type AssignmentStatus string

const (
	AssignmentActive   AssignmentStatus = "ACTIVE"
	AssignmentInactive AssignmentStatus = "INACTIVE"
)

// TrainerAssignment links a member to a trainer they may book sessions with.
// At most one assignment per member is marked primary.
type TrainerAssignment struct {
	ID        string           `db:"id" json:"id"`
	MemberID  string           `db:"member_id" json:"member_id"`
	TrainerID string           `db:"trainer_id" json:"trainer_id"`
	IsPrimary bool             `db:"is_primary" json:"is_primary"`
	Status    AssignmentStatus `db:"status" json:"status"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt time.Time        `db:"updated_at" json:"updated_at"`
}

// TrainerAssignmentDetail enriches assignments with trainer descriptive fields.
type TrainerAssignmentDetail struct {
	TrainerAssignment
	TrainerName   string `db:"trainer_name" json:"trainer_name"`
	TrainerActive bool   `db:"trainer_active" json:"trainer_active"`
}
