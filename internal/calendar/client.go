package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"podium/config"
	podium_errors "podium/pkg/errors"
)

// Client mirrors accepted speeches onto the community's Google Calendar.
type Client struct {
	svc        *gcal.Service
	calendarID string
}

func NewClient(ctx context.Context, cfg config.CalendarConfig) (*Client, error) {
	svc, err := gcal.NewService(ctx,
		option.WithCredentialsFile(cfg.CredentialsFile),
		option.WithScopes(gcal.CalendarScope),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to calendar service: %w", err)
	}
	return &Client{svc: svc, calendarID: cfg.CalendarID}, nil
}

// CreateEvent inserts a calendar event and returns its id.
func (c *Client) CreateEvent(ctx context.Context, summary, description string, start, end time.Time, location string) (string, error) {
	ev := &gcal.Event{
		Summary:     summary,
		Description: description,
		Location:    location,
		Start: &gcal.EventDateTime{
			DateTime: start.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &gcal.EventDateTime{
			DateTime: end.UTC().Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}

	created, err := c.svc.Events.Insert(c.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("%w: insert calendar event: %v", podium_errors.ErrExternalService, err)
	}
	return created.Id, nil
}

// DeleteEvent removes a calendar event. An event that is already gone counts
// as deleted.
func (c *Client) DeleteEvent(ctx context.Context, eventID string) error {
	err := c.svc.Events.Delete(c.calendarID, eventID).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && (gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone) {
			return nil
		}
		return fmt.Errorf("%w: delete calendar event: %v", podium_errors.ErrExternalService, err)
	}
	return nil
}
