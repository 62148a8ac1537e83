package application

import (
	"database/sql"
	"time"
)

type ReviewStatus string

const (
	StatusPending  ReviewStatus = "PENDING"
	StatusAccepted ReviewStatus = "ACCEPTED"
	StatusDenied   ReviewStatus = "DENIED"
)

// SpeechApplication represents the speech_applications table. The ID is the
// booking uid supplied by the form provider and doubles as the idempotency
// key for persistence and for every external correlation.
type SpeechApplication struct {
	ID            string `gorm:"primaryKey"`
	Title         string
	Description   string
	SpeakerName   string
	SpeakerChatID string
	SpeakerEmail  string

	EventStartTime time.Time
	EventEndTime   time.Time
	DurationMins   int

	ReviewStatus ReviewStatus `gorm:"type:varchar(16);default:'PENDING'"`
	DenyReason   sql.NullString
	AppliedAt    time.Time

	// Populated only after a successful accept.
	ScheduledEventID  sql.NullString
	ScheduledEventURL sql.NullString
	CalendarEventID   sql.NullString
}

func (SpeechApplication) TableName() string {
	return "speech_applications"
}

// Reviewed reports whether the application reached a terminal review state.
func (a *SpeechApplication) Reviewed() bool {
	return a.ReviewStatus != StatusPending
}

// FullyScheduled reports whether both external correlations exist.
func (a *SpeechApplication) FullyScheduled() bool {
	return a.ScheduledEventID.Valid && a.CalendarEventID.Valid
}
