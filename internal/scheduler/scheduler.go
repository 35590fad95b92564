// Package scheduler sends the daily writing prompt and the reminder ladder
// that follows it.
//
// Timers never do work themselves: each firing is posted to the bot's event
// loop, so prompts, reminders and conversation events are serialized.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/journalbot/internal/chat"
	"github.com/julianstephens/journalbot/internal/clock"
	"github.com/julianstephens/journalbot/internal/constants"
	"github.com/julianstephens/journalbot/internal/logger"
	"github.com/julianstephens/journalbot/internal/models"
	"github.com/julianstephens/journalbot/internal/utils"
)

const promptText = "👋 Good evening! Time for your daily diary entry."

// Sender delivers a message to the principal.
type Sender interface {
	Send(ctx context.Context, r chat.Reply) error
}

// Entries answers whether a date already has a diary entry.
type Entries interface {
	Has(date string) bool
}

// Config controls when and how often the user is nudged.
type Config struct {
	ChatID   int64
	PromptAt string // HH:MM in Location
	Location *time.Location

	RetryDelay     time.Duration
	MaxAttempts    int
	FirstReminder  time.Duration
	Reminders      []string
	ReminderDelays []time.Duration
	DisableCatchUp bool
}

func (c *Config) defaults() {
	if c.PromptAt == "" {
		c.PromptAt = constants.DefaultPromptTime
	}
	if c.Location == nil {
		c.Location = time.Local
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = constants.PromptRetryDelay
	}
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = constants.MaxPromptAttempts
	}
	if c.FirstReminder <= 0 {
		c.FirstReminder = constants.FirstReminderDelay
	}
	if c.Reminders == nil {
		c.Reminders = constants.ReminderMessages
	}
	if c.ReminderDelays == nil {
		c.ReminderDelays = constants.ReminderDelays
	}
}

// Status is a snapshot for diagnostics.
type Status struct {
	NextPrompt    time.Time           `json:"next_prompt"`
	RetryAt       *time.Time          `json:"retry_at,omitempty"`
	PromptAttempt int                 `json:"prompt_attempt,omitempty"`
	Reminder      *models.ReminderJob `json:"reminder,omitempty"`
}

type Scheduler struct {
	cfg     Config
	clock   clock.Clock
	sender  Sender
	entries Entries
	post    func(func())

	mu       sync.Mutex
	ctx      context.Context
	stopped  bool
	daily    *clock.Timer
	next     time.Time
	retry    *clock.Timer
	retryAt  time.Time
	attempt  int
	reminder *clock.Timer
	job      *models.ReminderJob
}

// New builds a scheduler. post hands a job to the event loop; it must not
// run the job on the caller's goroutine unless that is the loop itself.
func New(cfg Config, clk clock.Clock, sender Sender, entries Entries, post func(func())) (*Scheduler, error) {
	cfg.defaults()
	if !utils.ValidateTimeFormat(cfg.PromptAt) {
		return nil, fmt.Errorf("invalid prompt time %q (expected HH:MM)", cfg.PromptAt)
	}
	return &Scheduler{
		cfg:     cfg,
		clock:   clk,
		sender:  sender,
		entries: entries,
		post:    post,
	}, nil
}

// Start arms the daily trigger. If today's trigger time has already passed
// without an entry, one prompt attempt is fired right away.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	s.ctx = ctx
	s.stopped = false
	s.mu.Unlock()

	now := s.clock.Now()
	if err := s.armDaily(now); err != nil {
		return err
	}

	if s.cfg.DisableCatchUp {
		return nil
	}
	trigger, err := utils.AtTimeOfDay(now, s.cfg.PromptAt, s.cfg.Location)
	if err != nil {
		return err
	}
	date := s.today()
	if !now.Before(trigger) && !s.entries.Has(date) {
		logger.Info("missed today's prompt, sending it now", "date", date)
		s.post(func() { s.promptAttempt(date, 1) })
	}
	return nil
}

// Stop cancels every pending timer. Jobs already posted become no-ops.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	for _, t := range []*clock.Timer{s.daily, s.retry, s.reminder} {
		if t != nil {
			t.Stop()
		}
	}
	s.daily, s.retry, s.reminder = nil, nil, nil
	s.job = nil
}

func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	st := Status{NextPrompt: s.next, PromptAttempt: s.attempt}
	if s.retry != nil {
		at := s.retryAt
		st.RetryAt = &at
	}
	if s.job != nil {
		job := *s.job
		st.Reminder = &job
	}
	return st
}

func (s *Scheduler) today() string {
	return utils.DateKey(s.clock.Now(), s.cfg.Location)
}

func (s *Scheduler) active() (context.Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ctx, !s.stopped && s.ctx != nil && s.ctx.Err() == nil
}

func (s *Scheduler) armDaily(now time.Time) error {
	next, err := utils.NextOccurrence(now, s.cfg.PromptAt, s.cfg.Location)
	if err != nil {
		return err
	}
	timer := s.clock.AfterFunc(next.Sub(now), func() {
		s.post(s.fireDaily)
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		timer.Stop()
		return nil
	}
	s.daily = timer
	s.next = next
	logger.Debug("daily prompt armed", "at", next)
	return nil
}

func (s *Scheduler) fireDaily() {
	if _, ok := s.active(); !ok {
		return
	}
	if err := s.armDaily(s.clock.Now()); err != nil {
		logger.Error("failed to re-arm daily prompt", "error", err)
	}
	s.promptAttempt(s.today(), 1)
}

// promptAttempt sends the daily prompt for date unless an entry exists.
// Transient failures are retried up to the attempt limit.
func (s *Scheduler) promptAttempt(date string, attempt int) {
	ctx, ok := s.active()
	if !ok {
		return
	}
	s.mu.Lock()
	s.retry = nil
	s.attempt = attempt
	s.mu.Unlock()

	if s.entries.Has(date) {
		logger.Debug("entry exists, skipping prompt", "date", date)
		return
	}

	err := s.sender.Send(ctx, chat.Reply{Text: promptText, Options: []string{"/start"}})
	if err == nil {
		logger.Info("daily prompt sent", "date", date, "attempt", attempt)
		s.mu.Lock()
		s.attempt = 0
		s.mu.Unlock()
		s.scheduleReminder(date, 0, s.cfg.FirstReminder)
		return
	}

	if !chat.IsTransient(err) {
		logger.Error("daily prompt failed, not retrying", "date", date, "attempt", attempt, "error", err)
		return
	}
	if attempt >= s.cfg.MaxAttempts {
		logger.Error("daily prompt abandoned", "date", date, "attempts", attempt, "error", err)
		return
	}

	logger.Warn("daily prompt failed, will retry", "date", date, "attempt", attempt, "in", s.cfg.RetryDelay, "error", err)
	timer := s.clock.AfterFunc(s.cfg.RetryDelay, func() {
		s.post(func() { s.promptAttempt(date, attempt+1) })
	})
	s.mu.Lock()
	if s.stopped {
		timer.Stop()
	} else {
		s.retry = timer
		s.retryAt = s.clock.Now().Add(s.cfg.RetryDelay)
	}
	s.mu.Unlock()
}

// scheduleReminder replaces any pending rung with step of the ladder for
// date, due after d.
func (s *Scheduler) scheduleReminder(date string, step int, d time.Duration) {
	now := s.clock.Now()
	job := &models.ReminderJob{
		ID:        uuid.NewString(),
		ChatID:    s.cfg.ChatID,
		Date:      date,
		Step:      step,
		FireAt:    now.Add(d),
		CreatedAt: now,
	}
	timer := s.clock.AfterFunc(d, func() {
		s.post(func() { s.fireReminder(job) })
	})

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		timer.Stop()
		return
	}
	if s.reminder != nil {
		s.reminder.Stop()
	}
	s.reminder = timer
	s.job = job
	logger.Debug("reminder scheduled", "job", job.ID, "date", date, "step", step, "at", job.FireAt)
}

func (s *Scheduler) fireReminder(job *models.ReminderJob) {
	ctx, ok := s.active()
	if !ok {
		return
	}
	s.mu.Lock()
	current := s.job != nil && s.job.ID == job.ID
	if current {
		s.reminder = nil
		s.job = nil
	}
	s.mu.Unlock()
	if !current {
		return
	}

	log := logger.With("job", job.ID, "date", job.Date, "step", job.Step)
	if s.entries.Has(job.Date) {
		log.Debug("entry written, reminder ladder stopped")
		return
	}

	if job.Step < len(s.cfg.Reminders) {
		if err := s.sender.Send(ctx, chat.Reply{Text: s.cfg.Reminders[job.Step]}); err != nil {
			log.Warn("reminder send failed", "error", err)
		} else {
			log.Info("reminder sent")
		}
	}
	if job.Step < len(s.cfg.ReminderDelays) {
		s.scheduleReminder(job.Date, job.Step+1, s.cfg.ReminderDelays[job.Step])
	}
}
