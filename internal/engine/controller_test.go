package engine

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/fluentprep/exam-engine/internal/model"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

func testSession(examType model.ExamType, startedAt time.Time) *model.Session {
	return &model.Session{
		ID:        uuid.New(),
		ExamType:  examType,
		Status:    model.SessionStatusInProgress,
		StartedAt: startedAt,
	}
}

func newTestController(f *fakeAPI, now time.Time) *Controller {
	sub := NewSubmitCoordinator(f, 1, 0, zerolog.Nop())
	c := NewController(f, sub, zerolog.Nop())
	c.now = func() time.Time { return now }
	c.tickInterval = 5 * time.Millisecond
	return c
}

func TestControllerDerivesRemainingFromBudget(t *testing.T) {
	// A 165-minute budget loaded 10 minutes after start leaves 155 minutes.
	start := time.Now().Add(-10 * time.Minute)
	f := &fakeAPI{
		session:   testSession(model.ExamTypeFullMock, start),
		questions: makeQuestions(3),
	}
	c := newTestController(f, start.Add(10*time.Minute))
	defer c.Close()

	if err := c.Load(context.Background(), f.session.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := c.Remaining(); got != 9300 {
		t.Fatalf("Remaining = %d, want 9300", got)
	}
	if c.State() != StateInProgress {
		t.Fatalf("State = %s, want in_progress", c.State())
	}
}

func TestControllerLoadFailureIsTerminal(t *testing.T) {
	f := &fakeAPI{fetchSessionErr: errors.New("boom")}
	c := newTestController(f, time.Now())
	defer c.Close()

	err := c.Load(context.Background(), uuid.New())
	if !errors.Is(err, ErrSessionUnavailable) {
		t.Fatalf("Load err = %v, want ErrSessionUnavailable", err)
	}
	if c.State() != StateUnavailable {
		t.Fatalf("State = %s, want unavailable", c.State())
	}

	// No retry path: a second Load is rejected.
	if err := c.Load(context.Background(), uuid.New()); !errors.Is(err, ErrSessionUnavailable) {
		t.Fatalf("second Load err = %v", err)
	}
}

func TestControllerRejectsTerminalSession(t *testing.T) {
	s := testSession(model.ExamTypeReading, time.Now())
	s.Status = model.SessionStatusCompleted
	f := &fakeAPI{session: s, questions: makeQuestions(1)}
	c := newTestController(f, time.Now())
	defer c.Close()

	if err := c.Load(context.Background(), s.ID); !errors.Is(err, ErrSessionUnavailable) {
		t.Fatalf("Load err = %v, want ErrSessionUnavailable", err)
	}
}

func TestControllerManualSubmitWithNoAnswers(t *testing.T) {
	// Confirming submission with zero answers recorded still calls the
	// completion endpoint.
	f := &fakeAPI{
		session:   testSession(model.ExamTypeWriting, time.Now()),
		questions: makeQuestions(2),
	}
	c := newTestController(f, time.Now())
	defer c.Close()

	if err := c.Load(context.Background(), f.session.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	if c.State() != StateCompleted {
		t.Fatalf("State = %s, want completed", c.State())
	}
	if len(f.savedAnswers()) != 0 {
		t.Fatal("no answers should have been persisted")
	}
	if f.completeCalls() != 1 {
		t.Fatalf("completion called %d times, want 1", f.completeCalls())
	}
	if s := c.Session(); s.Status != model.SessionStatusCompleted || s.FinishedAt == nil {
		t.Fatalf("session not marked completed: %+v", s)
	}
}

func TestControllerSubmitBarrierLocksMutations(t *testing.T) {
	qs := makeQuestions(3)
	f := &fakeAPI{session: testSession(model.ExamTypeReading, time.Now()), questions: qs}
	c := newTestController(f, time.Now())
	defer c.Close()

	if err := c.Load(context.Background(), f.session.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}

	// An edit committed before the trigger is part of the snapshot.
	if err := c.SetAnswer(qs[0].ID, "kept"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// No new edits after the barrier.
	if err := c.SetAnswer(qs[1].ID, "late"); !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("late SetAnswer err = %v, want ErrSessionLocked", err)
	}
	if err := c.Next(); !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("late Next err = %v, want ErrSessionLocked", err)
	}

	saved := f.savedAnswers()
	if len(saved) != 1 || saved[0].Value != "kept" {
		t.Fatalf("drained snapshot = %+v, want the pre-trigger edit only", saved)
	}
}

func TestControllerDoubleTriggerSubmitsOnce(t *testing.T) {
	f := &fakeAPI{
		session:   testSession(model.ExamTypeListening, time.Now()),
		questions: makeQuestions(2),
	}
	c := newTestController(f, time.Now())
	defer c.Close()

	if err := c.Load(context.Background(), f.session.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	// Second trigger (either path) is a no-op.
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("second Submit err = %v, want nil no-op", err)
	}
	c.handleExpiry()

	if f.completeCalls() != 1 {
		t.Fatalf("completion called %d times, want 1", f.completeCalls())
	}
}

func TestControllerExpiryTriggersSubmission(t *testing.T) {
	start := time.Now()
	f := &fakeAPI{
		session:   testSession(model.ExamTypeSpeaking, start),
		questions: makeQuestions(2),
	}
	// One second left on the budget; ticks run every 5ms.
	c := newTestController(f, start.Add(model.ExamTypeSpeaking.Budget()-time.Second))
	defer c.Close()

	completed := make(chan struct{})
	c.OnState = func(s State) {
		if s == StateCompleted {
			close(completed)
		}
	}

	if err := c.Load(context.Background(), f.session.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}

	select {
	case <-completed:
	case <-time.After(2 * time.Second):
		t.Fatal("expiry never submitted the session")
	}

	if f.completeCalls() != 1 {
		t.Fatalf("completion called %d times, want 1", f.completeCalls())
	}
	if got := c.Remaining(); got != 0 {
		t.Fatalf("Remaining after expiry = %d, want 0", got)
	}

	// A manual submit racing in after expiry is a no-op.
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("post-expiry Submit err = %v", err)
	}
	if f.completeCalls() != 1 {
		t.Fatal("post-expiry Submit re-ran the completion call")
	}
}

func TestControllerExhaustedBudgetOnLoadSubmitsImmediately(t *testing.T) {
	// A reload after the budget ran out re-derives remaining time as zero
	// and re-attempts submission without starting the clock.
	start := time.Now().Add(-3 * time.Hour)
	f := &fakeAPI{
		session:   testSession(model.ExamTypeFullMock, start),
		questions: makeQuestions(2),
	}
	c := newTestController(f, time.Now())
	defer c.Close()

	if err := c.Load(context.Background(), f.session.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if c.State() != StateCompleted {
		t.Fatalf("State = %s, want completed", c.State())
	}
	if f.completeCalls() != 1 {
		t.Fatalf("completion called %d times, want 1", f.completeCalls())
	}
}

func TestControllerCompletionFailureStaysSubmitting(t *testing.T) {
	qs := makeQuestions(2)
	f := &fakeAPI{
		session:     testSession(model.ExamTypeReading, time.Now()),
		questions:   qs,
		completeErr: errors.New("504"),
	}
	c := newTestController(f, time.Now())
	defer c.Close()

	if err := c.Load(context.Background(), f.session.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := c.SetAnswer(qs[0].ID, "x"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}

	if err := c.Submit(context.Background()); err == nil {
		t.Fatal("completion failure not surfaced")
	}
	if c.State() != StateSubmitting {
		t.Fatalf("State = %s, want submitting", c.State())
	}
	if c.SubmitErr() == nil {
		t.Fatal("SubmitErr not recorded")
	}

	// Controls stay disabled and no automatic retry happens.
	if err := c.SetAnswer(qs[1].ID, "y"); !errors.Is(err, ErrSessionLocked) {
		t.Fatalf("SetAnswer err = %v, want ErrSessionLocked", err)
	}
	if err := c.Submit(context.Background()); err != nil {
		t.Fatalf("re-Submit err = %v, want nil no-op", err)
	}
	if f.completeCalls() != 1 {
		t.Fatalf("completion called %d times, want 1 (manual reload is the recovery path)", f.completeCalls())
	}
}

func TestControllerNavigationAndProgress(t *testing.T) {
	qs := makeQuestions(4)
	f := &fakeAPI{session: testSession(model.ExamTypeReading, time.Now()), questions: qs}
	c := newTestController(f, time.Now())
	defer c.Close()

	if err := c.Load(context.Background(), f.session.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}

	if err := c.JumpTo(2); err != nil {
		t.Fatalf("JumpTo: %v", err)
	}
	q, idx, err := c.Current()
	if err != nil || idx != 2 || q.ID != qs[2].ID {
		t.Fatalf("Current = %v/%d/%v", q.ID, idx, err)
	}

	if err := c.SetAnswer(q.ID, "b"); err != nil {
		t.Fatalf("SetAnswer: %v", err)
	}
	if !c.Answered(q.ID) {
		t.Fatal("answered marker not set")
	}
	answered, total := c.Progress()
	if answered != 1 || total != 4 {
		t.Fatalf("Progress = %d/%d, want 1/4", answered, total)
	}
}

func TestControllerTicksAreMonotonic(t *testing.T) {
	start := time.Now()
	f := &fakeAPI{
		session:   testSession(model.ExamTypeSpeaking, start),
		questions: makeQuestions(1),
	}
	c := newTestController(f, start.Add(model.ExamTypeSpeaking.Budget()-3*time.Second))
	defer c.Close()

	done := make(chan struct{})
	var got []int
	c.OnTick = func(r int) {
		got = append(got, r)
		if r == 0 {
			close(done)
		}
	}

	if err := c.Load(context.Background(), f.session.ID); err != nil {
		t.Fatalf("Load: %v", err)
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("countdown never reached zero")
	}

	prev := 3
	for _, r := range got {
		if r > prev || r < 0 {
			t.Fatalf("tick sequence not monotone non-negative: %v", got)
		}
		prev = r
	}
}
