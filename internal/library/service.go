// Package library is the operation set of the application. Every exported
// method takes the caller's SessionIdentity explicitly, checks it through
// a single authorization guard, and returns read-model projections rather
// than ORM entities.
//
// # Usage
//
//	svc := library.NewService(db.DB, authService, library.Options{Loans: cfg.Loans, Stats: cfg.Stats})
//	identity, err := svc.Authenticate(ctx, "a@x.com", "secret123")
//	record, err := svc.Borrow(ctx, identity, bookID)
package library

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/library/internal/apperr"
	"github.com/mrlokans/library/internal/audit"
	"github.com/mrlokans/library/internal/auth"
	"github.com/mrlokans/library/internal/config"
	"github.com/mrlokans/library/internal/database/accounts"
	"github.com/mrlokans/library/internal/database/catalog"
	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/database/stats"
	"github.com/mrlokans/library/internal/entities"
)

var ErrForbidden = apperr.New(apperr.Forbidden, "forbidden", "you do not have permission to perform this action")

// SessionIdentity is the authenticated caller of an operation. A nil
// identity is an anonymous caller.
type SessionIdentity struct {
	UserID uint `json:"user_id"`
}

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	Loans config.Loans
	Stats config.Stats
	Audit *audit.Service
	Now   func() time.Time
}

// Service implements the library operations.
type Service struct {
	catalog  *catalog.Repository
	loans    *loans.Repository
	accounts *accounts.Repository
	stats    *stats.Repository
	auth     *auth.Service
	audit    *audit.Service
	delays   DelayQueue

	loanPeriodDays       int
	reminderWindowDays   int
	reminderCriticalDays int
	topBooks             int
	now                  func() time.Time
}

// NewService wires the repositories over db.
func NewService(db *gorm.DB, authService *auth.Service, opts Options) *Service {
	s := &Service{
		catalog:  catalog.NewRepository(db),
		loans:    loans.NewRepository(db),
		accounts: accounts.NewRepository(db),
		stats:    stats.NewRepository(db),
		auth:     authService,
		audit:    opts.Audit,

		loanPeriodDays:       opts.Loans.PeriodDays,
		reminderWindowDays:   opts.Loans.ReminderWindowDays,
		reminderCriticalDays: opts.Loans.ReminderCriticalDays,
		topBooks:             opts.Stats.TopBooks,
		now:                  opts.Now,
	}
	if s.loanPeriodDays <= 0 {
		s.loanPeriodDays = config.DefaultLoanPeriodDays
	}
	if s.reminderWindowDays <= 0 {
		s.reminderWindowDays = 30
	}
	if s.reminderCriticalDays <= 0 {
		s.reminderCriticalDays = 5
	}
	if s.topBooks <= 0 {
		s.topBooks = config.DefaultTopBooks
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

// DelayQueue schedules a delay sweep to run in the background.
type DelayQueue interface {
	EnqueueDelaySweep(ctx context.Context) (string, error)
}

// SetDelayQueue makes RequestDelaySweep enqueue instead of sweeping inline.
func (s *Service) SetDelayQueue(q DelayQueue) {
	s.delays = q
}

// authenticated checks that identity refers to an existing user.
func (s *Service) authenticated(identity *SessionIdentity) error {
	if identity == nil {
		return auth.ErrAuthRequired
	}
	exists, err := s.auth.UserExists(identity.UserID)
	if err != nil {
		return err
	}
	if !exists {
		return auth.ErrAuthRequired
	}
	return nil
}

// authorize is the guard every protected operation goes through. Rights
// are resolved from the database on each call.
func (s *Service) authorize(identity *SessionIdentity, right string) error {
	if err := s.authenticated(identity); err != nil {
		return err
	}
	ok, err := s.accounts.HasRight(identity.UserID, right)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

func (s *Service) record(ctx context.Context, identity *SessionIdentity, eventType entities.AuditEventType, action, entityType string, entityID uint, description string, err error) {
	var userID uint
	if identity != nil {
		userID = identity.UserID
	}
	s.audit.Record(ctx, userID, eventType, action, entityType, entityID, description, err)
}
