// Package syncer keeps the ledger in step with the backend: an initial fetch
// per owner, periodic polling, and a push subscription feeding the reconciler.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"budgetwise/internal/backend"
	"budgetwise/internal/ledger"
	"budgetwise/internal/logger"
	"budgetwise/internal/models"
)

// State is the scheduler's lifecycle state.
type State int

const (
	Idle State = iota
	Fetching
	Synced
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Fetching:
		return "fetching"
	case Synced:
		return "synced"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// DefaultInterval is the polling cadence used when Options.Interval is unset.
const DefaultInterval = 30 * time.Second

// ErrIdle is returned by Refresh when no owner is signed in.
var ErrIdle = errors.New("syncer: no active owner")

// Options tune a Scheduler.
type Options struct {
	// Interval between polls. cron rounds it to whole seconds, minimum 1s.
	Interval time.Duration
	// OnFetchError is called when a current fetch fails.
	OnFetchError func(error)
	// OnChange is called after a fetch or pushed event changed held state.
	OnChange func()
}

type session struct {
	owner       string
	ctx         context.Context
	cancel      context.CancelFunc
	cron        *cron.Cron
	unsubscribe backend.Unsubscribe
}

// Scheduler drives fetches through a ledger.Reconciler. Every session it
// starts (one per owner) is torn down exactly once.
type Scheduler struct {
	backend backend.Backend
	rec     *ledger.Reconciler
	opts    Options
	log     *zap.SugaredLogger

	// lifecycle serializes session start, arming and teardown.
	lifecycle sync.Mutex

	mu        sync.Mutex
	state     State
	sess      *session
	dateRange *backend.DateRange
	lastErr   error
}

// New returns an idle scheduler.
func New(b backend.Backend, rec *ledger.Reconciler, opts Options) *Scheduler {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	return &Scheduler{
		backend: b,
		rec:     rec,
		opts:    opts,
		log:     logger.Named("syncer"),
	}
}

// State returns the current lifecycle state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Owner returns the owner of the active session, or "" when idle.
func (s *Scheduler) Owner() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess == nil {
		return ""
	}
	return s.sess.owner
}

// LastError returns the error of the most recent fetch, nil if it succeeded.
func (s *Scheduler) LastError() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// DateRange returns the active transaction filter.
func (s *Scheduler) DateRange() *backend.DateRange {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dateRange == nil {
		return nil
	}
	r := *s.dateRange
	return &r
}

// SetOwner tears down any running session and, for a non-empty owner, starts
// a new one: it fetches, then arms polling and the push subscription. It
// returns the initial fetch error, if any; the session stays up regardless.
// A fetch still in flight for a previous owner is discarded when it lands.
func (s *Scheduler) SetOwner(ctx context.Context, owner string) error {
	sess := s.start(ctx, owner)
	if sess == nil {
		return nil
	}
	err := s.fetch(sess)
	s.arm(sess)
	return err
}

func (s *Scheduler) start(ctx context.Context, owner string) *session {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.teardown()
	s.rec.Reset(owner)
	if owner == "" {
		return nil
	}

	sessCtx, cancel := context.WithCancel(ctx)
	sess := &session{owner: owner, ctx: sessCtx, cancel: cancel}
	s.mu.Lock()
	s.sess = sess
	s.lastErr = nil
	s.mu.Unlock()
	return sess
}

// arm starts polling and the push subscription, unless sess was torn down
// while its first fetch was in flight.
func (s *Scheduler) arm(sess *session) {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()

	s.mu.Lock()
	current := s.sess == sess
	s.mu.Unlock()
	if !current {
		return
	}

	c := cron.New(cron.WithLogger(cronLogger{s.log}), cron.WithChain(cron.SkipIfStillRunning(cronLogger{s.log})))
	if _, err := c.AddFunc(fmt.Sprintf("@every %s", s.opts.Interval), func() {
		_ = s.fetch(sess)
	}); err != nil {
		s.log.Errorw("failed to schedule polling", "error", err, "interval", s.opts.Interval)
	}
	c.Start()
	sess.cron = c

	unsubscribe, err := s.backend.Subscribe(sess.ctx, sess.owner, s.onEvent)
	if err != nil {
		// Polling still converges without push.
		s.log.Warnw("push subscription unavailable", "owner_id", sess.owner, "error", err)
	}
	sess.unsubscribe = unsubscribe

	s.log.Infow("sync session started", "owner_id", sess.owner, "interval", s.opts.Interval)
}

// SetDateRange changes the transaction filter and refetches. A nil range
// fetches everything. Pushed and confirmed records outside the range are
// kept out of the ledger from now on.
func (s *Scheduler) SetDateRange(r *backend.DateRange) error {
	s.mu.Lock()
	if r != nil {
		cp := *r
		r = &cp
	}
	s.dateRange = r
	s.mu.Unlock()

	if r == nil {
		s.rec.SetDateRange(time.Time{}, time.Time{})
	} else {
		s.rec.SetDateRange(r.From, r.To)
	}
	return s.Refresh()
}

// Refresh runs a fetch for the active owner and waits for it.
func (s *Scheduler) Refresh() error {
	s.mu.Lock()
	sess := s.sess
	s.mu.Unlock()
	if sess == nil {
		return ErrIdle
	}
	return s.fetch(sess)
}

// Stop tears down the active session and clears held state.
func (s *Scheduler) Stop() {
	s.lifecycle.Lock()
	defer s.lifecycle.Unlock()
	s.teardown()
	s.rec.Reset("")
}

// teardown must be called with s.lifecycle held.
func (s *Scheduler) teardown() {
	s.mu.Lock()
	sess := s.sess
	s.sess = nil
	s.state = Idle
	s.mu.Unlock()
	if sess == nil {
		return
	}

	sess.cancel()
	if sess.cron != nil {
		<-sess.cron.Stop().Done()
	}
	if sess.unsubscribe != nil {
		sess.unsubscribe()
	}
	s.log.Infow("sync session stopped", "owner_id", sess.owner)
}

func (s *Scheduler) fetch(sess *session) error {
	if !s.enter(sess, Fetching) {
		return nil
	}

	ticket := s.rec.BeginFetch()
	r := s.DateRange()

	err := s.fetchAll(sess, ticket, r)
	if err != nil {
		if s.rec.FailFetch(ticket, err) && s.opts.OnFetchError != nil {
			s.opts.OnFetchError(err)
		}
	}

	s.mu.Lock()
	if s.sess == sess {
		s.state = Synced
		s.lastErr = err
	}
	s.mu.Unlock()
	return err
}

func (s *Scheduler) fetchAll(sess *session, ticket ledger.Ticket, r *backend.DateRange) error {
	txs, err := s.backend.FetchTransactions(sess.ctx, sess.owner, r)
	if err != nil {
		return fmt.Errorf("fetch transactions: %w", err)
	}
	budgets, err := s.backend.FetchBudgets(sess.ctx, sess.owner)
	if err != nil {
		return fmt.Errorf("fetch budgets: %w", err)
	}
	investments, err := s.backend.FetchInvestments(sess.ctx, sess.owner)
	if err != nil {
		return fmt.Errorf("fetch investments: %w", err)
	}

	applied := s.rec.ApplyFetch(ticket, txs)
	applied = s.rec.ApplyBudgets(ticket, budgets) && applied
	applied = s.rec.ApplyInvestments(ticket, investments) && applied
	if applied && s.opts.OnChange != nil {
		s.opts.OnChange()
	}
	return nil
}

func (s *Scheduler) enter(sess *session, state State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sess != sess {
		return false
	}
	s.state = state
	return true
}

func (s *Scheduler) onEvent(ev models.ChangeEvent) {
	if s.rec.ApplyEvent(ev) && s.opts.OnChange != nil {
		s.opts.OnChange()
	}
}

// cronLogger routes cron's own logging to zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
