package review

import (
	"fmt"
	"time"

	"podium/internal/chat"
	"podium/internal/domain/application"
)

func summaryBody(app *application.SpeechApplication) string {
	hours := app.DurationMins / 60
	mins := app.DurationMins % 60
	return fmt.Sprintf(`## %s

%s
---
Application ID: %s
Speaker: <@%s>
Time: %s
Duration: %d h %d min
`, app.Title, app.Description, app.ID, app.SpeakerChatID,
		app.EventStartTime.UTC().Format("Jan 2, 2006 15:04 MST"), hours, mins)
}

func moderationEmbed(app *application.SpeechApplication) *chat.Embed {
	return &chat.Embed{
		Title:       "Speech Application Review",
		Description: summaryBody(app),
		Color:       chat.ColorBlurple,
	}
}

func acceptedEmbed(app *application.SpeechApplication, moderatorID string, at time.Time) *chat.Embed {
	return &chat.Embed{
		Title: "🙆 Speech Application Review (accepted)",
		Description: fmt.Sprintf("%s---\nReviewed by: <@%s>\nReviewed at: %s\n",
			summaryBody(app), moderatorID, at.Format("Jan 2, 2006 15:04 MST")),
		Color: chat.ColorGreen,
	}
}

func deniedEmbed(app *application.SpeechApplication, moderatorID, reason string, at time.Time) *chat.Embed {
	return &chat.Embed{
		Title: "🙅 Speech Application Review (denied)",
		Description: fmt.Sprintf("%s---\nReviewed by: <@%s>\nReviewed at: %s\nDeny reason: %s\n",
			summaryBody(app), moderatorID, at.Format("Jan 2, 2006 15:04 MST"), reason),
		Color: chat.ColorRed,
	}
}
