package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fluentprep/exam-engine/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// State enumerates the controller's lifecycle.
type State string

const (
	StateCreated     State = "created"
	StateInProgress  State = "in_progress"
	StateSubmitting  State = "submitting"
	StateCompleted   State = "completed"
	StateUnavailable State = "unavailable"
)

// Trigger identifies what pushed the session into submission.
type Trigger string

const (
	TriggerExpiry Trigger = "expiry"
	TriggerManual Trigger = "manual"
	TriggerReload Trigger = "reload"
)

// Controller errors.
var (
	// ErrSessionLocked is returned for answer and navigation mutations once
	// the submitting barrier has been entered.
	ErrSessionLocked = errors.New("session is locked for submission")
	// ErrNotRunning is returned for operations that require a loaded,
	// in-progress session.
	ErrNotRunning = errors.New("session is not in progress")
	// ErrSessionUnavailable is returned by Load when the session or its
	// questions cannot be fetched, or the session is already terminal.
	ErrSessionUnavailable = errors.New("session is not available")
)

// SessionAPI is the external collaborator the controller talks to. The wire
// shape is owned by the platform API; internal/api provides the HTTP
// implementation.
type SessionAPI interface {
	FetchSession(ctx context.Context, sessionID uuid.UUID) (*model.Session, error)
	FetchQuestions(ctx context.Context, sessionID uuid.UUID) ([]model.Question, error)
	SubmitAPI
}

// Controller runs one candidate through one timed session: it loads session
// and question data once, derives the remaining time, drives the Clock,
// applies answer and navigation mutations from user events, and hands off to
// the SubmitCoordinator on terminal transitions — exactly once per session,
// whether triggered by expiry, manual submission, or a reload with no time
// left.
//
// One Controller owns one session. Opening the same session from two
// controllers (or two tabs of the web client) is unsupported by design:
// behavior is undefined and no detection is attempted.
type Controller struct {
	api SessionAPI
	sub *SubmitCoordinator
	log zerolog.Logger

	// OnTick, if set, receives remaining seconds after every clock tick.
	// Called without the controller lock held; set before Load.
	OnTick func(remaining int)
	// OnState, if set, observes every state transition. Same rules as OnTick.
	OnState func(State)

	now          func() time.Time // injected in tests
	tickInterval time.Duration    // 0 means one second

	mu        sync.Mutex
	state     State
	session   *model.Session
	nav       *Navigator
	answers   *AnswerStore
	clock     *Clock
	remaining int
	submitErr error
	report    *SubmitReport
}

// NewController creates a controller in the created state.
func NewController(api SessionAPI, sub *SubmitCoordinator, log zerolog.Logger) *Controller {
	return &Controller{
		api:     api,
		sub:     sub,
		log:     log.With().Str("component", "session_controller").Logger(),
		now:     time.Now,
		state:   StateCreated,
		answers: NewAnswerStore(),
	}
}

// Load fetches the session and its question sequence, derives the remaining
// time budget and starts the countdown. Load failures and terminal sessions
// are themselves terminal: the controller moves to unavailable and no retry
// is attempted. A session whose budget is already exhausted (a reload after
// expiry) skips straight to submission.
func (c *Controller) Load(ctx context.Context, sessionID uuid.UUID) error {
	c.mu.Lock()
	if c.state != StateCreated {
		c.mu.Unlock()
		return fmt.Errorf("load from state %s: %w", c.state, ErrSessionUnavailable)
	}
	c.mu.Unlock()

	session, err := c.api.FetchSession(ctx, sessionID)
	if err != nil {
		c.fail(err, "Fetch session failed")
		return fmt.Errorf("fetch session: %w", ErrSessionUnavailable)
	}
	if !session.Status.Active() {
		c.fail(nil, "Session status is terminal")
		return fmt.Errorf("session status %s: %w", session.Status, ErrSessionUnavailable)
	}

	questions, err := c.api.FetchQuestions(ctx, sessionID)
	if err != nil {
		c.fail(err, "Fetch questions failed")
		return fmt.Errorf("fetch questions: %w", ErrSessionUnavailable)
	}

	nav, err := NewNavigator(questions)
	if err != nil {
		c.fail(err, "Empty question sequence")
		return fmt.Errorf("%v: %w", err, ErrSessionUnavailable)
	}

	remaining := session.Remaining(c.now())

	c.mu.Lock()
	c.session = session
	c.nav = nav
	c.remaining = remaining
	c.state = StateInProgress
	c.clock = NewClock(c.handleTick, c.handleExpiry)
	if c.tickInterval > 0 {
		c.clock.interval = c.tickInterval
	}
	c.mu.Unlock()
	c.notify(StateInProgress)

	c.log.Info().
		Str("session_id", session.ID.String()).
		Str("exam_type", string(session.ExamType)).
		Int("questions", nav.Len()).
		Int("remaining_seconds", remaining).
		Msg("Session loaded")

	if remaining <= 0 {
		// The budget ran out while the engine was detached. Submit whatever
		// answers the server state allows — here that is none, since answers
		// live server-side once persisted; the completion call still runs.
		return c.beginSubmit(ctx, TriggerReload)
	}

	c.clock.Start(remaining)
	return nil
}

// SetAnswer records the user's answer for a question. Rejected once the
// submitting barrier has been entered so the drained snapshot stays fixed.
func (c *Controller) SetAnswer(questionID uuid.UUID, value string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireInProgress(); err != nil {
		return err
	}
	c.answers.Set(questionID, value)
	return nil
}

// Answer returns the current answer for a question, if any.
func (c *Controller) Answer(questionID uuid.UUID) (string, bool) {
	return c.answers.Get(questionID)
}

// Answered reports whether a question has an answer (progress markers).
func (c *Controller) Answered(questionID uuid.UUID) bool {
	return c.answers.Answered(questionID)
}

// Progress returns answered and total question counts.
func (c *Controller) Progress() (answered, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nav == nil {
		return 0, 0
	}
	return c.answers.Count(), c.nav.Len()
}

// Next advances focus to the following question.
func (c *Controller) Next() error { return c.navigate(func(n *Navigator) { n.Next() }) }

// Prev moves focus to the preceding question.
func (c *Controller) Prev() error { return c.navigate(func(n *Navigator) { n.Prev() }) }

// JumpTo moves focus directly to a question by position.
func (c *Controller) JumpTo(idx int) error {
	return c.navigate(func(n *Navigator) { n.JumpTo(idx) })
}

func (c *Controller) navigate(move func(*Navigator)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.requireInProgress(); err != nil {
		return err
	}
	move(c.nav)
	return nil
}

// Current returns the question in focus and its position.
func (c *Controller) Current() (model.Question, int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nav == nil {
		return model.Question{}, 0, ErrNotRunning
	}
	return c.nav.Current(), c.nav.Index(), nil
}

// Questions returns the fixed question sequence.
func (c *Controller) Questions() []model.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.nav == nil {
		return nil
	}
	return c.nav.Questions()
}

// Remaining returns the seconds left on the budget as of the last tick.
func (c *Controller) Remaining() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.remaining
}

// State returns the controller's current lifecycle state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// SubmitErr returns the surfaced completion-call error, if the last
// submission run failed. The controller stays in submitting in that case;
// there is no automatic retry beyond the coordinator's bounded attempts.
func (c *Controller) SubmitErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitErr
}

// Report returns the submission report of the last run, or nil.
func (c *Controller) Report() *SubmitReport {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.report
}

// Session returns the loaded session, or nil before Load.
func (c *Controller) Session() *model.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session
}

// Submit is the user-confirmed manual submission trigger. Submitting with
// zero answers recorded is valid: the completion endpoint is still called.
// Once the submitting barrier has been entered by any trigger, further calls
// are a no-op.
func (c *Controller) Submit(ctx context.Context) error {
	return c.beginSubmit(ctx, TriggerManual)
}

// Close releases the clock on teardown. It does not submit: abandoning a
// session is silent, the server keeps it in_progress until its own retention
// policy marks it abandoned.
func (c *Controller) Close() {
	c.mu.Lock()
	clock := c.clock
	c.mu.Unlock()
	if clock != nil {
		clock.Stop()
	}
}

// ────────────────────────────────────────────────────────────────────────────
// Internals
// ────────────────────────────────────────────────────────────────────────────

// requireInProgress must be called with the lock held.
func (c *Controller) requireInProgress() error {
	switch c.state {
	case StateInProgress:
		return nil
	case StateSubmitting, StateCompleted:
		return ErrSessionLocked
	default:
		return ErrNotRunning
	}
}

func (c *Controller) handleTick(remaining int) {
	c.mu.Lock()
	// Remaining time never increases; a tick that lost a race with the
	// submitting barrier is dropped.
	if c.state == StateInProgress && remaining < c.remaining {
		c.remaining = remaining
	} else {
		remaining = c.remaining
	}
	hook := c.OnTick
	c.mu.Unlock()

	if hook != nil {
		hook(remaining)
	}
}

// handleExpiry runs on the clock goroutine. Expiry and manual submit
// converge on the same barrier; whichever fires second is a no-op.
func (c *Controller) handleExpiry() {
	if err := c.beginSubmit(context.Background(), TriggerExpiry); err != nil &&
		!errors.Is(err, ErrSessionLocked) {
		c.log.Error().Err(err).Msg("Submission after expiry failed")
	}
}

// beginSubmit enters the submitting barrier at most once per session
// instance, snapshots the answer store at the instant of the trigger, and
// runs the coordinator outside the lock.
func (c *Controller) beginSubmit(ctx context.Context, trigger Trigger) error {
	c.mu.Lock()
	if c.state != StateInProgress {
		state := c.state
		c.mu.Unlock()
		// Second trigger after the barrier: deliberate no-op.
		if state == StateSubmitting || state == StateCompleted {
			return nil
		}
		return ErrNotRunning
	}
	c.state = StateSubmitting
	clock := c.clock
	session := c.session
	snapshot := c.answers.Snapshot(c.nav.Questions())
	c.mu.Unlock()
	c.notify(StateSubmitting)

	// Barrier: no further answer mutations are accepted and the clock is
	// stopped, so the drained snapshot is fixed.
	if clock != nil {
		clock.Stop()
	}

	c.log.Info().
		Str("session_id", session.ID.String()).
		Str("trigger", string(trigger)).
		Int("answers", len(snapshot)).
		Msg("Submitting session")

	report, err := c.sub.Submit(ctx, session.ID, snapshot)

	c.mu.Lock()
	c.report = report
	c.submitErr = err
	if err != nil {
		// Stay in submitting: the error is surfaced to the caller and the
		// only recovery is a reload, which re-derives remaining time as zero
		// and re-attempts submission.
		c.mu.Unlock()
		return err
	}
	now := c.now()
	c.state = StateCompleted
	c.session.Status = model.SessionStatusCompleted
	c.session.FinishedAt = &now
	c.mu.Unlock()
	c.notify(StateCompleted)
	return nil
}

func (c *Controller) fail(err error, msg string) {
	c.mu.Lock()
	c.state = StateUnavailable
	c.mu.Unlock()
	c.notify(StateUnavailable)
	c.log.Error().Err(err).Msg(msg)
}

func (c *Controller) notify(s State) {
	if c.OnState != nil {
		c.OnState(s)
	}
}
