package scheduling

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"podium/internal/chat"
	"podium/internal/domain/application"
	"podium/pkg/logger"
)

// EventHost is the chat platform's scheduled-event surface. It is the source
// of truth for timing and location.
type EventHost interface {
	CreateScheduledEvent(ctx context.Context, ev chat.ScheduledEvent) (id, url string, err error)
	DeleteScheduledEvent(ctx context.Context, eventID string) error
}

// Mirror is the external calendar the scheduled event is copied onto,
// best-effort and derived from the host event.
type Mirror interface {
	CreateEvent(ctx context.Context, summary, description string, start, end time.Time, location string) (string, error)
	DeleteEvent(ctx context.Context, eventID string) error
}

// Result carries whichever external ids a sync attempt obtained. On partial
// failure the ids gathered so far are still returned so the caller can
// persist them before reporting the error.
type Result struct {
	EventID    string
	EventURL   string
	CalendarID string
}

// Syncer materializes an accepted application on both external systems and
// tears both down on cancellation.
type Syncer struct {
	host     EventHost
	mirror   Mirror
	location string
	log      *logger.Logger
}

func NewSyncer(host EventHost, mirror Mirror, location string, log *logger.Logger) *Syncer {
	return &Syncer{host: host, mirror: mirror, location: location, log: log}
}

// ScheduleAccepted creates the chat-platform scheduled event first (its url
// is embedded in the calendar mirror's description), then the calendar
// event. Either step is skipped when the application already carries its
// correlation id, so a moderator re-click after a partial failure converges
// instead of duplicating events.
func (s *Syncer) ScheduleAccepted(ctx context.Context, app *application.SpeechApplication) (Result, error) {
	res := Result{
		EventID:    app.ScheduledEventID.String,
		EventURL:   app.ScheduledEventURL.String,
		CalendarID: app.CalendarEventID.String,
	}

	if !app.ScheduledEventID.Valid {
		id, url, err := s.host.CreateScheduledEvent(ctx, chat.ScheduledEvent{
			Name:        app.Title,
			Description: app.Description,
			Start:       app.EventStartTime,
			End:         app.EventEndTime,
			Location:    s.location,
		})
		if err != nil {
			return res, fmt.Errorf("create scheduled event: %w", err)
		}
		res.EventID, res.EventURL = id, url
	}

	if !app.CalendarEventID.Valid {
		description := fmt.Sprintf("%s\n\nSpeaker: %s\nEvent: %s", app.Description, app.SpeakerName, res.EventURL)
		id, err := s.mirror.CreateEvent(ctx, app.Title, description, app.EventStartTime, app.EventEndTime, s.location)
		if err != nil {
			return res, fmt.Errorf("mirror calendar event: %w", err)
		}
		res.CalendarID = id
	}

	return res, nil
}

// UnscheduleCancelled deletes both external events. The deletes run
// concurrently and independently: an orphaned calendar entry is preferable
// to a cancellation stuck behind one failing service.
func (s *Syncer) UnscheduleCancelled(ctx context.Context, app *application.SpeechApplication) error {
	var wg sync.WaitGroup
	errs := make([]error, 2)

	if app.ScheduledEventID.Valid {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.host.DeleteScheduledEvent(ctx, app.ScheduledEventID.String); err != nil {
				s.log.Errorf("delete scheduled event %s: %s", app.ScheduledEventID.String, err)
				errs[0] = err
			}
		}()
	}

	if app.CalendarEventID.Valid {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.mirror.DeleteEvent(ctx, app.CalendarEventID.String); err != nil {
				s.log.Errorf("delete calendar event %s: %s", app.CalendarEventID.String, err)
				errs[1] = err
			}
		}()
	}

	wg.Wait()
	return errors.Join(errs...)
}
