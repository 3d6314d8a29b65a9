package models

import "time"

// ScheduleDay is one working window of a trainer's weekly template.
// A weekday with no row is a day off, so off days carry no dangling times.
type ScheduleDay struct {
	TrainerID string       `db:"trainer_id" json:"-"`
	Weekday   time.Weekday `db:"weekday" json:"weekday"`
	StartTime string       `db:"start_time" json:"start_time"`
	EndTime   string       `db:"end_time" json:"end_time"`
}

// WeeklySchedule is a trainer's full template keyed by weekday.
type WeeklySchedule map[time.Weekday]ScheduleDay
