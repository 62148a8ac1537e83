package repository

import (
	"context"
	"database/sql"
	"errors"

	"podium/internal/domain/application"
	podium_errors "podium/pkg/errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PostgresApplicationRepository struct {
	db *gorm.DB
}

func NewApplicationRepository(db *gorm.DB) ApplicationRepository {
	return &PostgresApplicationRepository{db: db}
}

func (r *PostgresApplicationRepository) Save(ctx context.Context, app *application.SpeechApplication) error {
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			UpdateAll: true,
		}).
		Create(app)
	return res.Error
}

func (r *PostgresApplicationRepository) UpdateStatus(ctx context.Context, id string, review application.ReviewResult) error {
	values := map[string]any{"review_status": review.Status}
	if review.Status == application.StatusDenied {
		values["deny_reason"] = sql.NullString{String: review.DenyReason, Valid: review.DenyReason != ""}
	}

	res := r.db.WithContext(ctx).
		Model(&application.SpeechApplication{}).
		Where("id = ? AND review_status = ?", id, application.StatusPending).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}

	// Zero rows matched: either the record is gone (concurrent cancellation)
	// or another moderator's decision landed first.
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&application.SpeechApplication{}).
		Where("id = ?", id).
		Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return podium_errors.ErrNotFound
	}
	return podium_errors.ErrAlreadyReviewed
}

func (r *PostgresApplicationRepository) UpdateScheduling(ctx context.Context, id, eventID, eventURL, calendarID string) error {
	values := map[string]any{}
	if eventID != "" {
		values["scheduled_event_id"] = sql.NullString{String: eventID, Valid: true}
	}
	if eventURL != "" {
		values["scheduled_event_url"] = sql.NullString{String: eventURL, Valid: true}
	}
	if calendarID != "" {
		values["calendar_event_id"] = sql.NullString{String: calendarID, Valid: true}
	}
	if len(values) == 0 {
		return nil
	}

	res := r.db.WithContext(ctx).
		Model(&application.SpeechApplication{}).
		Where("id = ?", id).
		Updates(values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return podium_errors.ErrNotFound
	}
	return nil
}

func (r *PostgresApplicationRepository) FindByID(ctx context.Context, id string) (application.SpeechApplication, error) {
	var app application.SpeechApplication
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&app).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return application.SpeechApplication{}, podium_errors.ErrNotFound
		}
		return application.SpeechApplication{}, err
	}
	return app, nil
}

func (r *PostgresApplicationRepository) DeleteByID(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).
		Delete(&application.SpeechApplication{}, "id = ?", id).Error
}
