package review

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"podium/internal/chat"
	"podium/internal/domain/application"
	"podium/internal/repository"
	"podium/internal/scheduling"
	podium_errors "podium/pkg/errors"
	"podium/pkg/logger"
)

// Gateway is the slice of the chat platform the workflow talks to.
type Gateway interface {
	SendDirectMessage(ctx context.Context, userID, content string) error
	PostModerationMessage(ctx context.Context, channelID string, m chat.Message) (string, error)
	EditMessage(ctx context.Context, channelID, messageID string, m chat.Message) error
	RespondEphemeral(ctx context.Context, ic chat.Interaction, content string) error
	OpenModal(ctx context.Context, ic chat.Interaction, m chat.Modal) error
}

// Scheduler fans an accepted application out to the external systems.
type Scheduler interface {
	ScheduleAccepted(ctx context.Context, app *application.SpeechApplication) (scheduling.Result, error)
}

// Workflow drives a speech application from PENDING to a terminal state: it
// posts the moderation message when an application is submitted, and handles
// the moderator's accept/deny interactions. All failures at the interaction
// boundary are converted into ephemeral messages to the acting moderator.
type Workflow struct {
	repo      repository.ApplicationRepository
	gateway   Gateway
	scheduler Scheduler
	channelID string
	log       *logger.Logger

	// Accept sequences in flight, keyed by application id. Protects the
	// exactly-one-event guarantee while the winner of the status CAS is
	// still creating external events.
	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewWorkflow(repo repository.ApplicationRepository, gateway Gateway, scheduler Scheduler, moderationChannelID string, log *logger.Logger) *Workflow {
	return &Workflow{
		repo:      repo,
		gateway:   gateway,
		scheduler: scheduler,
		channelID: moderationChannelID,
		log:       log,
		inflight:  make(map[string]struct{}),
	}
}

// HandleEvent reacts to a newly submitted application: confirm receipt to
// the speaker via DM, then post the moderation message with the decision
// controls stamped with the correlation payload. Implements events.Listener;
// errors propagate to the publisher.
func (w *Workflow) HandleEvent(ctx context.Context, _ string, payload any) error {
	app, ok := payload.(*application.SpeechApplication)
	if !ok {
		return fmt.Errorf("%w: unexpected event payload %T", podium_errors.ErrInvalidInput, payload)
	}

	if err := w.gateway.SendDirectMessage(ctx, app.SpeakerChatID,
		fmt.Sprintf("Hi! Your speech application %q has been submitted and is waiting for review.", app.Title)); err != nil {
		return fmt.Errorf("confirm submission to speaker: %w", err)
	}

	msg := chat.Message{
		Embed: moderationEmbed(app),
		Buttons: []chat.Button{
			{
				Label: "Accept", Style: chat.StyleSuccess, Emoji: "🙆",
				Correlation: chat.Correlation{Action: chat.ActionAccept, ApplicationID: app.ID, SpeakerID: app.SpeakerChatID},
			},
			{
				Label: "Deny", Style: chat.StylePrimary, Emoji: "🙅",
				Correlation: chat.Correlation{Action: chat.ActionDeny, ApplicationID: app.ID, SpeakerID: app.SpeakerChatID},
			},
		},
	}
	if _, err := w.gateway.PostModerationMessage(ctx, w.channelID, msg); err != nil {
		return fmt.Errorf("post moderation message: %w", err)
	}

	w.log.Infof("application %s routed for review", app.ID)
	return nil
}

// HandleAccept processes an Accept button click.
func (w *Workflow) HandleAccept(ctx context.Context, ic chat.Interaction) {
	id := ic.Correlation.ApplicationID

	if !w.begin(id) {
		w.respond(ctx, ic, "This application is already being processed.")
		return
	}
	defer w.end(id)

	err := w.repo.UpdateStatus(ctx, id, application.ReviewResult{Status: application.StatusAccepted})
	switch {
	case errors.Is(err, podium_errors.ErrNotFound):
		w.respond(ctx, ic, fmt.Sprintf("Application %s no longer exists; it was probably cancelled.", id))
		return
	case errors.Is(err, podium_errors.ErrAlreadyReviewed):
		// A previous accept may have failed partway through scheduling. If
		// so, retry the scheduling; otherwise the decision stands.
		app, ferr := w.repo.FindByID(ctx, id)
		if ferr != nil || app.ReviewStatus != application.StatusAccepted || app.FullyScheduled() {
			w.respond(ctx, ic, fmt.Sprintf("Application %s was already reviewed.", id))
			return
		}
		w.finishAccept(ctx, ic, app)
		return
	case err != nil:
		w.log.Errorf("accept %s: update status: %s", id, err)
		w.respond(ctx, ic, "Could not update the application, please try again.")
		return
	}

	app, err := w.repo.FindByID(ctx, id)
	if err != nil {
		w.log.Errorf("accept %s: load after transition: %s", id, err)
		w.respond(ctx, ic, fmt.Sprintf("Application %s no longer exists; it was probably cancelled.", id))
		return
	}

	w.finishAccept(ctx, ic, app)
}

// finishAccept runs the acceptance side-effects: external scheduling, the
// terminal moderation rendering and the speaker DM. The status is already
// ACCEPTED when we get here; a scheduling failure leaves it that way and is
// reported as retryable.
func (w *Workflow) finishAccept(ctx context.Context, ic chat.Interaction, app application.SpeechApplication) {
	res, syncErr := w.scheduler.ScheduleAccepted(ctx, &app)

	if res != (scheduling.Result{}) {
		if err := w.repo.UpdateScheduling(ctx, app.ID, res.EventID, res.EventURL, res.CalendarID); err != nil {
			w.log.Errorf("accept %s: persist scheduling ids: %s", app.ID, err)
		}
	}

	if syncErr != nil {
		w.log.Errorf("accept %s: scheduling: %s", app.ID, syncErr)
		w.respond(ctx, ic, fmt.Sprintf("Application %s is accepted but scheduling failed (%s). Click Accept again to retry.", app.ID, syncErr))
		return
	}

	terminal := chat.Message{Embed: acceptedEmbed(&app, ic.ModeratorID, time.Now().UTC())}
	if err := w.gateway.EditMessage(ctx, ic.ChannelID, ic.MessageID, terminal); err != nil {
		w.log.Errorf("accept %s: edit moderation message: %s", app.ID, err)
	}

	dm := fmt.Sprintf("Hi! Your speech %q has been accepted. Event: %s", app.Title, res.EventURL)
	if err := w.gateway.SendDirectMessage(ctx, app.SpeakerChatID, dm); err != nil {
		w.log.Errorf("accept %s: notify speaker: %s", app.ID, err)
	}

	w.respond(ctx, ic, fmt.Sprintf("✅ Application %s accepted.", app.ID))
	w.log.Infof("application %s accepted", app.ID)
}

// HandleDeny opens the deny-reason modal in response to a Deny click. The
// status transition happens on modal submit, not here.
func (w *Workflow) HandleDeny(ctx context.Context, ic chat.Interaction) {
	err := w.gateway.OpenModal(ctx, ic, chat.Modal{
		Title:            "Deny application",
		InputLabel:       "Reason for denying this application",
		InputPlaceholder: "Enter the reason...",
		Correlation: chat.Correlation{
			Action:        chat.ActionDenySubmit,
			ApplicationID: ic.Correlation.ApplicationID,
			SpeakerID:     ic.Correlation.SpeakerID,
		},
	})
	if err != nil {
		w.log.Errorf("deny %s: open modal: %s", ic.Correlation.ApplicationID, err)
		w.respond(ctx, ic, "Could not open the deny prompt, please try again.")
	}
}

// HandleDenySubmit processes the deny-reason modal submission.
func (w *Workflow) HandleDenySubmit(ctx context.Context, ic chat.Interaction) {
	id := ic.Correlation.ApplicationID
	reason := strings.TrimSpace(ic.InputValue)
	if reason == "" {
		w.respond(ctx, ic, "A deny reason is required.")
		return
	}

	err := w.repo.UpdateStatus(ctx, id, application.ReviewResult{Status: application.StatusDenied, DenyReason: reason})
	switch {
	case errors.Is(err, podium_errors.ErrNotFound):
		w.respond(ctx, ic, fmt.Sprintf("Application %s no longer exists; it was probably cancelled.", id))
		return
	case errors.Is(err, podium_errors.ErrAlreadyReviewed):
		w.respond(ctx, ic, fmt.Sprintf("Application %s was already reviewed.", id))
		return
	case err != nil:
		w.log.Errorf("deny %s: update status: %s", id, err)
		w.respond(ctx, ic, "Could not update the application, please try again.")
		return
	}

	app, err := w.repo.FindByID(ctx, id)
	if err != nil {
		w.log.Errorf("deny %s: load after transition: %s", id, err)
	} else {
		terminal := chat.Message{Embed: deniedEmbed(&app, ic.ModeratorID, reason, time.Now().UTC())}
		if err := w.gateway.EditMessage(ctx, ic.ChannelID, ic.MessageID, terminal); err != nil {
			w.log.Errorf("deny %s: edit moderation message: %s", id, err)
		}
	}

	dm := fmt.Sprintf("Hi! Your speech application was denied. Reason: %s", reason)
	if err := w.gateway.SendDirectMessage(ctx, ic.Correlation.SpeakerID, dm); err != nil {
		w.log.Errorf("deny %s: notify speaker: %s", id, err)
	}

	w.respond(ctx, ic, fmt.Sprintf("✅ Application %s denied.", id))
	w.log.Infof("application %s denied", id)
}

func (w *Workflow) respond(ctx context.Context, ic chat.Interaction, content string) {
	if err := w.gateway.RespondEphemeral(ctx, ic, content); err != nil {
		w.log.Errorf("ephemeral response: %s", err)
	}
}

func (w *Workflow) begin(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, busy := w.inflight[id]; busy {
		return false
	}
	w.inflight[id] = struct{}{}
	return true
}

func (w *Workflow) end(id string) {
	w.mu.Lock()
	delete(w.inflight, id)
	w.mu.Unlock()
}
