package repository

import (
	"context"

	"podium/internal/domain/application"
)

type ApplicationRepository interface {
	// Save upserts the application by its ID.
	Save(ctx context.Context, app *application.SpeechApplication) error

	// UpdateStatus transitions a PENDING application into the terminal state
	// the review decided. It is a compare-and-set: only a row whose
	// review_status is still PENDING matches, so at most one of two racing
	// decisions wins. Returns ErrNotFound when the id is absent and
	// ErrAlreadyReviewed when the application is already in a terminal state.
	UpdateStatus(ctx context.Context, id string, review application.ReviewResult) error

	// UpdateScheduling persists whichever external correlation ids are
	// non-empty. Returns ErrNotFound when the id is absent.
	UpdateScheduling(ctx context.Context, id, eventID, eventURL, calendarID string) error

	FindByID(ctx context.Context, id string) (application.SpeechApplication, error)

	// DeleteByID is idempotent: deleting an absent row is not an error.
	DeleteByID(ctx context.Context, id string) error
}
