package httpdto

import (
	"time"

	"podium/internal/domain/application"
)

type SubmitApplicationRequest struct {
	ID             string    `json:"id"`
	Title          string    `json:"title" binding:"required"`
	Description    string    `json:"description"`
	SpeakerName    string    `json:"speaker_name"`
	SpeakerChatID  string    `json:"speaker_chat_id" binding:"required"`
	SpeakerEmail   string    `json:"speaker_email"`
	EventStartTime time.Time `json:"event_start_time" binding:"required"`
	EventEndTime   time.Time `json:"event_end_time"`
	DurationMins   int       `json:"duration_in_mins"`
}

type ApplicationResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	SpeakerName    string    `json:"speaker_name"`
	SpeakerChatID  string    `json:"speaker_chat_id"`
	EventStartTime time.Time `json:"event_start_time"`
	EventEndTime   time.Time `json:"event_end_time"`
	DurationMins   int       `json:"duration_in_mins"`
	ReviewStatus   string    `json:"review_status"`
	DenyReason     string    `json:"deny_reason,omitempty"`
	AppliedAt      time.Time `json:"applied_at"`
	EventURL       string    `json:"event_url,omitempty"`
}

func NewApplicationResponse(app application.SpeechApplication) ApplicationResponse {
	return ApplicationResponse{
		ID:             app.ID,
		Title:          app.Title,
		Description:    app.Description,
		SpeakerName:    app.SpeakerName,
		SpeakerChatID:  app.SpeakerChatID,
		EventStartTime: app.EventStartTime,
		EventEndTime:   app.EventEndTime,
		DurationMins:   app.DurationMins,
		ReviewStatus:   string(app.ReviewStatus),
		DenyReason:     app.DenyReason.String,
		AppliedAt:      app.AppliedAt,
		EventURL:       app.ScheduledEventURL.String,
	}
}
