package review

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"podium/internal/chat"
	"podium/internal/domain/application"
	"podium/internal/scheduling"
	podium_errors "podium/pkg/errors"
	"podium/pkg/logger"
)

type fakeRepo struct {
	mu   sync.Mutex
	apps map[string]application.SpeechApplication
}

func newFakeRepo(apps ...application.SpeechApplication) *fakeRepo {
	r := &fakeRepo{apps: make(map[string]application.SpeechApplication)}
	for _, a := range apps {
		r.apps[a.ID] = a
	}
	return r
}

func (r *fakeRepo) Save(_ context.Context, app *application.SpeechApplication) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.apps[app.ID] = *app
	return nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, review application.ReviewResult) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return podium_errors.ErrNotFound
	}
	if app.ReviewStatus != application.StatusPending {
		return podium_errors.ErrAlreadyReviewed
	}
	app.ReviewStatus = review.Status
	if review.Status == application.StatusDenied {
		app.DenyReason = sql.NullString{String: review.DenyReason, Valid: review.DenyReason != ""}
	}
	r.apps[id] = app
	return nil
}

func (r *fakeRepo) UpdateScheduling(_ context.Context, id, eventID, eventURL, calendarID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return podium_errors.ErrNotFound
	}
	if eventID != "" {
		app.ScheduledEventID = sql.NullString{String: eventID, Valid: true}
	}
	if eventURL != "" {
		app.ScheduledEventURL = sql.NullString{String: eventURL, Valid: true}
	}
	if calendarID != "" {
		app.CalendarEventID = sql.NullString{String: calendarID, Valid: true}
	}
	r.apps[id] = app
	return nil
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (application.SpeechApplication, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	app, ok := r.apps[id]
	if !ok {
		return application.SpeechApplication{}, podium_errors.ErrNotFound
	}
	return app, nil
}

func (r *fakeRepo) DeleteByID(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.apps, id)
	return nil
}

func (r *fakeRepo) get(t *testing.T, id string) application.SpeechApplication {
	t.Helper()
	app, err := r.FindByID(context.Background(), id)
	require.NoError(t, err)
	return app
}

type sentDM struct {
	userID  string
	content string
}

type fakeGateway struct {
	mu         sync.Mutex
	dms        []sentDM
	posts      []chat.Message
	edits      []chat.Message
	ephemerals []string
	modals     []chat.Modal

	dmErr   error
	postErr error
}

func (g *fakeGateway) SendDirectMessage(_ context.Context, userID, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.dmErr != nil {
		return g.dmErr
	}
	g.dms = append(g.dms, sentDM{userID: userID, content: content})
	return nil
}

func (g *fakeGateway) PostModerationMessage(_ context.Context, _ string, m chat.Message) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.postErr != nil {
		return "", g.postErr
	}
	g.posts = append(g.posts, m)
	return "msg-1", nil
}

func (g *fakeGateway) EditMessage(_ context.Context, _, _ string, m chat.Message) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.edits = append(g.edits, m)
	return nil
}

func (g *fakeGateway) RespondEphemeral(_ context.Context, _ chat.Interaction, content string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.ephemerals = append(g.ephemerals, content)
	return nil
}

func (g *fakeGateway) OpenModal(_ context.Context, _ chat.Interaction, m chat.Modal) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.modals = append(g.modals, m)
	return nil
}

type schedOutcome struct {
	res scheduling.Result
	err error
}

type fakeScheduler struct {
	mu       sync.Mutex
	calls    []application.SpeechApplication
	outcomes []schedOutcome

	entered chan struct{}
	release chan struct{}
}

func (s *fakeScheduler) ScheduleAccepted(_ context.Context, app *application.SpeechApplication) (scheduling.Result, error) {
	s.mu.Lock()
	s.calls = append(s.calls, *app)
	var out schedOutcome
	if len(s.outcomes) > 0 {
		out = s.outcomes[0]
		s.outcomes = s.outcomes[1:]
	}
	entered, release := s.entered, s.release
	s.mu.Unlock()

	if entered != nil {
		entered <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return out.res, out.err
}

func (s *fakeScheduler) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

func pendingApp() application.SpeechApplication {
	start := time.Date(2026, 10, 12, 18, 0, 0, 0, time.UTC)
	return application.SpeechApplication{
		ID:             "abc",
		Title:          "Designing resilient workflows",
		Description:    "How to survive flaky external services.",
		SpeakerName:    "Sam",
		SpeakerChatID:  "speaker-42",
		EventStartTime: start,
		EventEndTime:   start.Add(time.Hour),
		DurationMins:   60,
		ReviewStatus:   application.StatusPending,
		AppliedAt:      time.Now().UTC(),
	}
}

func acceptInteraction(id, speakerID string) chat.Interaction {
	return chat.Interaction{
		ID:          "ic-1",
		Token:       "tok",
		ChannelID:   "mod-channel",
		MessageID:   "msg-1",
		ModeratorID: "mod-7",
		Correlation: chat.Correlation{Action: chat.ActionAccept, ApplicationID: id, SpeakerID: speakerID},
	}
}

func newWorkflow(repo *fakeRepo, gw *fakeGateway, sched *fakeScheduler) *Workflow {
	return NewWorkflow(repo, gw, sched, "mod-channel", logger.NewNop())
}

func TestNewApplicationRoutesForReview(t *testing.T) {
	app := pendingApp()
	repo := newFakeRepo(app)
	gw := &fakeGateway{}
	wf := newWorkflow(repo, gw, &fakeScheduler{})

	err := wf.HandleEvent(context.Background(), "speech.application.submitted", &app)

	require.NoError(t, err)
	require.Len(t, gw.dms, 1)
	assert.Equal(t, "speaker-42", gw.dms[0].userID)

	require.Len(t, gw.posts, 1)
	msg := gw.posts[0]
	require.NotNil(t, msg.Embed)
	assert.Contains(t, msg.Embed.Description, app.Title)
	assert.Contains(t, msg.Embed.Description, "abc")

	require.Len(t, msg.Buttons, 2)
	assert.Equal(t, chat.ActionAccept, msg.Buttons[0].Correlation.Action)
	assert.Equal(t, chat.ActionDeny, msg.Buttons[1].Correlation.Action)
	for _, b := range msg.Buttons {
		assert.Equal(t, "abc", b.Correlation.ApplicationID)
		assert.Equal(t, "speaker-42", b.Correlation.SpeakerID)
	}
}

func TestNewApplicationFailurePropagatesToPublisher(t *testing.T) {
	app := pendingApp()
	boom := errors.New("channel unavailable")
	gw := &fakeGateway{postErr: boom}
	wf := newWorkflow(newFakeRepo(app), gw, &fakeScheduler{})

	err := wf.HandleEvent(context.Background(), "speech.application.submitted", &app)

	require.ErrorIs(t, err, boom)
}

func TestAcceptSchedulesAndNotifies(t *testing.T) {
	repo := newFakeRepo(pendingApp())
	gw := &fakeGateway{}
	sched := &fakeScheduler{outcomes: []schedOutcome{{
		res: scheduling.Result{EventID: "ev-1", EventURL: "https://chat.example.com/events/ev-1", CalendarID: "cal-1"},
	}}}
	wf := newWorkflow(repo, gw, sched)

	wf.HandleAccept(context.Background(), acceptInteraction("abc", "speaker-42"))

	app := repo.get(t, "abc")
	assert.Equal(t, application.StatusAccepted, app.ReviewStatus)
	assert.Equal(t, "ev-1", app.ScheduledEventID.String)
	assert.Equal(t, "cal-1", app.CalendarEventID.String)

	require.Len(t, gw.dms, 1)
	assert.Contains(t, gw.dms[0].content, "https://chat.example.com/events/ev-1")

	require.Len(t, gw.edits, 1)
	assert.Empty(t, gw.edits[0].Buttons)
	assert.Contains(t, gw.edits[0].Embed.Title, "accepted")

	require.Len(t, gw.ephemerals, 1)
	assert.Contains(t, gw.ephemerals[0], "accepted")
}

func TestAcceptMissingApplication(t *testing.T) {
	repo := newFakeRepo()
	gw := &fakeGateway{}
	sched := &fakeScheduler{}
	wf := newWorkflow(repo, gw, sched)

	wf.HandleAccept(context.Background(), acceptInteraction("gone", "speaker-42"))

	assert.Zero(t, sched.callCount())
	assert.Empty(t, gw.edits)
	require.Len(t, gw.ephemerals, 1)
	assert.Contains(t, gw.ephemerals[0], "no longer exists")
}

func TestAcceptAfterDecisionLanded(t *testing.T) {
	app := pendingApp()
	app.ReviewStatus = application.StatusAccepted
	app.ScheduledEventID = sql.NullString{String: "ev-1", Valid: true}
	app.ScheduledEventURL = sql.NullString{String: "https://chat.example.com/events/ev-1", Valid: true}
	app.CalendarEventID = sql.NullString{String: "cal-1", Valid: true}
	repo := newFakeRepo(app)
	gw := &fakeGateway{}
	sched := &fakeScheduler{}
	wf := newWorkflow(repo, gw, sched)

	wf.HandleAccept(context.Background(), acceptInteraction("abc", "speaker-42"))

	assert.Zero(t, sched.callCount())
	require.Len(t, gw.ephemerals, 1)
	assert.Contains(t, gw.ephemerals[0], "already reviewed")
}

func TestConcurrentAcceptsScheduleExactlyOnce(t *testing.T) {
	repo := newFakeRepo(pendingApp())
	gw := &fakeGateway{}
	sched := &fakeScheduler{
		outcomes: []schedOutcome{{res: scheduling.Result{EventID: "ev-1", EventURL: "u", CalendarID: "cal-1"}}},
		entered:  make(chan struct{}, 1),
		release:  make(chan struct{}),
	}
	wf := newWorkflow(repo, gw, sched)

	done := make(chan struct{})
	go func() {
		defer close(done)
		wf.HandleAccept(context.Background(), acceptInteraction("abc", "speaker-42"))
	}()

	// Wait for the first accept to be mid-scheduling, then race a second one.
	<-sched.entered
	wf.HandleAccept(context.Background(), acceptInteraction("abc", "speaker-42"))

	close(sched.release)
	<-done

	assert.Equal(t, 1, sched.callCount())
	assert.Equal(t, application.StatusAccepted, repo.get(t, "abc").ReviewStatus)

	gw.mu.Lock()
	defer gw.mu.Unlock()
	require.NotEmpty(t, gw.ephemerals)
	assert.Contains(t, gw.ephemerals[0], "already being processed")
}

func TestAcceptRetryAfterPartialFailure(t *testing.T) {
	repo := newFakeRepo(pendingApp())
	gw := &fakeGateway{}
	sched := &fakeScheduler{outcomes: []schedOutcome{
		{
			res: scheduling.Result{EventID: "ev-1", EventURL: "https://chat.example.com/events/ev-1"},
			err: errors.New("calendar unavailable"),
		},
		{
			res: scheduling.Result{EventID: "ev-1", EventURL: "https://chat.example.com/events/ev-1", CalendarID: "cal-1"},
		},
	}}
	wf := newWorkflow(repo, gw, sched)
	ic := acceptInteraction("abc", "speaker-42")

	// First click: status commits, scheduling fails halfway.
	wf.HandleAccept(context.Background(), ic)

	app := repo.get(t, "abc")
	assert.Equal(t, application.StatusAccepted, app.ReviewStatus)
	assert.Equal(t, "ev-1", app.ScheduledEventID.String)
	assert.False(t, app.CalendarEventID.Valid)
	assert.Empty(t, gw.edits)
	require.Len(t, gw.ephemerals, 1)
	assert.Contains(t, gw.ephemerals[0], "retry")

	// Second click converges: the already-created event is not recreated.
	wf.HandleAccept(context.Background(), ic)

	require.Equal(t, 2, sched.callCount())
	assert.True(t, sched.calls[1].ScheduledEventID.Valid)

	app = repo.get(t, "abc")
	assert.Equal(t, "cal-1", app.CalendarEventID.String)
	require.Len(t, gw.edits, 1)
	require.Len(t, gw.dms, 1)
}

func TestDenyOpensReasonModal(t *testing.T) {
	repo := newFakeRepo(pendingApp())
	gw := &fakeGateway{}
	wf := newWorkflow(repo, gw, &fakeScheduler{})

	ic := acceptInteraction("abc", "speaker-42")
	ic.Correlation.Action = chat.ActionDeny
	wf.HandleDeny(context.Background(), ic)

	require.Len(t, gw.modals, 1)
	assert.Equal(t, chat.ActionDenySubmit, gw.modals[0].Correlation.Action)
	assert.Equal(t, "abc", gw.modals[0].Correlation.ApplicationID)
	assert.Equal(t, application.StatusPending, repo.get(t, "abc").ReviewStatus)
}

func TestDenySubmitStoresReasonAndNotifies(t *testing.T) {
	repo := newFakeRepo(pendingApp())
	gw := &fakeGateway{}
	sched := &fakeScheduler{}
	wf := newWorkflow(repo, gw, sched)

	ic := acceptInteraction("abc", "speaker-42")
	ic.Correlation.Action = chat.ActionDenySubmit
	ic.InputValue = "time conflict"
	wf.HandleDenySubmit(context.Background(), ic)

	app := repo.get(t, "abc")
	assert.Equal(t, application.StatusDenied, app.ReviewStatus)
	assert.Equal(t, "time conflict", app.DenyReason.String)

	require.Len(t, gw.dms, 1)
	assert.Contains(t, gw.dms[0].content, "time conflict")

	require.Len(t, gw.edits, 1)
	assert.Empty(t, gw.edits[0].Buttons)
	assert.Contains(t, gw.edits[0].Embed.Description, "time conflict")

	assert.Zero(t, sched.callCount())
}

func TestDenySubmitRequiresReason(t *testing.T) {
	repo := newFakeRepo(pendingApp())
	gw := &fakeGateway{}
	wf := newWorkflow(repo, gw, &fakeScheduler{})

	ic := acceptInteraction("abc", "speaker-42")
	ic.Correlation.Action = chat.ActionDenySubmit
	ic.InputValue = "   "
	wf.HandleDenySubmit(context.Background(), ic)

	assert.Equal(t, application.StatusPending, repo.get(t, "abc").ReviewStatus)
	require.Len(t, gw.ephemerals, 1)
	assert.Contains(t, gw.ephemerals[0], "required")
	assert.Empty(t, gw.dms)
}

func TestDenySubmitMissingApplication(t *testing.T) {
	repo := newFakeRepo()
	gw := &fakeGateway{}
	wf := newWorkflow(repo, gw, &fakeScheduler{})

	ic := acceptInteraction("gone", "speaker-42")
	ic.Correlation.Action = chat.ActionDenySubmit
	ic.InputValue = "too short notice"
	wf.HandleDenySubmit(context.Background(), ic)

	require.Len(t, gw.ephemerals, 1)
	assert.Contains(t, gw.ephemerals[0], "no longer exists")
	assert.Empty(t, gw.dms)
}
