package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"podium/internal/agent"
	"podium/internal/domain/application"
	"podium/internal/events"
	"podium/internal/repository"
	podium_errors "podium/pkg/errors"
	"podium/pkg/logger"
)

// Unscheduler tears down the external events of an accepted application.
type Unscheduler interface {
	UnscheduleCancelled(ctx context.Context, app *application.SpeechApplication) error
}

// Drafter generates prefilled application fields from an abstract.
type Drafter interface {
	Draft(ctx context.Context, abstract string) (agent.Draft, error)
}

// MemberDirectory resolves chat-platform users to display names.
type MemberDirectory interface {
	FetchMemberName(ctx context.Context, userID string) (string, error)
}

// ApplyRequest is a validated, normalized submission. The ID is the booking
// uid from the form provider; a fresh uuid is assigned when it is absent.
type ApplyRequest struct {
	ID             string
	Title          string
	Description    string
	SpeakerName    string
	SpeakerChatID  string
	SpeakerEmail   string
	EventStartTime time.Time
	EventEndTime   time.Time
	DurationMins   int
}

// Prefill is a drafted starting point for the application form.
type Prefill struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	SpeakerName string `json:"speaker_name"`
}

// ApplicationService is the façade in front of the review machinery: it
// persists submissions, emits lifecycle events, and exposes cancel/find.
type ApplicationService struct {
	repo        repository.ApplicationRepository
	bus         *events.Bus
	unscheduler Unscheduler
	drafter     Drafter
	members     MemberDirectory
	log         *logger.Logger
}

func NewApplicationService(repo repository.ApplicationRepository, bus *events.Bus, unscheduler Unscheduler, drafter Drafter, members MemberDirectory, log *logger.Logger) *ApplicationService {
	return &ApplicationService{
		repo:        repo,
		bus:         bus,
		unscheduler: unscheduler,
		drafter:     drafter,
		members:     members,
		log:         log,
	}
}

// Apply validates and persists a submission, then announces it on the bus.
// The bus is synchronous, so a listener failure surfaces to the caller; the
// record is already saved at that point and a redelivery of the same booking
// uid upserts rather than duplicates.
func (s *ApplicationService) Apply(ctx context.Context, req ApplyRequest) (*application.SpeechApplication, error) {
	app, err := buildApplication(req)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, app); err != nil {
		return nil, fmt.Errorf("save application: %w", err)
	}

	if err := s.bus.Publish(ctx, events.TopicNewApplication, app); err != nil {
		return nil, fmt.Errorf("announce application: %w", err)
	}

	s.log.Infof("application %s submitted by %s", app.ID, app.SpeakerChatID)
	return app, nil
}

func buildApplication(req ApplyRequest) (*application.SpeechApplication, error) {
	if req.Title == "" || req.SpeakerChatID == "" {
		return nil, fmt.Errorf("%w: title and speaker chat id are required", podium_errors.ErrInvalidInput)
	}
	if req.EventStartTime.IsZero() {
		return nil, fmt.Errorf("%w: event start time is required", podium_errors.ErrInvalidInput)
	}

	start := req.EventStartTime.UTC()
	end := req.EventEndTime.UTC()
	mins := req.DurationMins
	switch {
	case req.EventEndTime.IsZero() && mins > 0:
		end = start.Add(time.Duration(mins) * time.Minute)
	case !req.EventEndTime.IsZero() && end.After(start):
		mins = int(end.Sub(start).Minutes())
	default:
		return nil, fmt.Errorf("%w: an end time after the start or a positive duration is required", podium_errors.ErrInvalidInput)
	}

	id := req.ID
	if id == "" {
		id = uuid.NewString()
	}

	return &application.SpeechApplication{
		ID:             id,
		Title:          req.Title,
		Description:    req.Description,
		SpeakerName:    req.SpeakerName,
		SpeakerChatID:  req.SpeakerChatID,
		SpeakerEmail:   req.SpeakerEmail,
		EventStartTime: start,
		EventEndTime:   end,
		DurationMins:   mins,
		ReviewStatus:   application.StatusPending,
		AppliedAt:      time.Now().UTC(),
	}, nil
}

// Cancel removes an application. For an accepted one, both external events
// are torn down first; their failures are logged and never block the record
// deletion. Cancelling an unknown id is a no-op.
func (s *ApplicationService) Cancel(ctx context.Context, id string) error {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, podium_errors.ErrNotFound) {
			return nil
		}
		return err
	}

	if app.ReviewStatus == application.StatusAccepted {
		if err := s.unscheduler.UnscheduleCancelled(ctx, &app); err != nil {
			s.log.Errorf("cancel %s: external cleanup: %s", id, err)
		}
	}

	if err := s.repo.DeleteByID(ctx, id); err != nil {
		return fmt.Errorf("delete application: %w", err)
	}
	s.log.Infof("application %s cancelled", id)
	return nil
}

func (s *ApplicationService) Find(ctx context.Context, id string) (application.SpeechApplication, error) {
	return s.repo.FindByID(ctx, id)
}

// PrefillFromAbstract drafts title and description from an abstract and
// resolves the speaker's display name on the chat platform.
func (s *ApplicationService) PrefillFromAbstract(ctx context.Context, abstract, speakerChatID string) (Prefill, error) {
	if abstract == "" || speakerChatID == "" {
		return Prefill{}, fmt.Errorf("%w: abstract and speaker id are required", podium_errors.ErrInvalidInput)
	}

	name, err := s.members.FetchMemberName(ctx, speakerChatID)
	if err != nil {
		return Prefill{}, fmt.Errorf("resolve speaker: %w", err)
	}

	draft, err := s.drafter.Draft(ctx, abstract)
	if err != nil {
		return Prefill{}, err
	}

	return Prefill{Title: draft.Title, Description: draft.Description, SpeakerName: name}, nil
}
