package dto

import "github.com/ardiwn/gymflow-api/internal/models"

// MemberDashboard summarizes a member's training activity.
type MemberDashboard struct {
	MemberID          string                       `json:"member_id"`
	UpcomingCount     int                          `json:"upcoming_count"`
	TotalSessions     int                          `json:"total_sessions"`
	CompletedSessions int                          `json:"completed_sessions"`
	CancelledSessions int                          `json:"cancelled_sessions"`
	SessionsByTrainer []models.TrainerSessionCount `json:"sessions_by_trainer"`
}

// TrainerDashboard summarizes a trainer's workload.
type TrainerDashboard struct {
	TrainerID         string `json:"trainer_id"`
	UpcomingCount     int    `json:"upcoming_count"`
	TotalSessions     int    `json:"total_sessions"`
	CompletedSessions int    `json:"completed_sessions"`
	CancelledSessions int    `json:"cancelled_sessions"`
}

// TopTrainers ranks trainers by completed sessions.
type TopTrainers struct {
	Rankings []models.TrainerRanking `json:"rankings"`
}
