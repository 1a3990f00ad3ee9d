package library

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/entities"
)

// Borrow lends one copy of bookID to the caller for the configured loan
// period, starting today.
func (s *Service) Borrow(ctx context.Context, identity *SessionIdentity, bookID uint) (*BorrowRecord, error) {
	if err := s.authenticated(identity); err != nil {
		return nil, err
	}

	now := s.now()
	start := loans.Day(now)
	due := start.AddDate(0, 0, s.loanPeriodDays)

	loan, err := s.loans.Borrow(identity.UserID, bookID, start, due)
	s.record(ctx, identity, entities.AuditEventBorrow, "book_borrow", "book", bookID, "", err)
	if err != nil {
		return nil, err
	}

	return &BorrowRecord{
		ID:        loan.ID,
		UserID:    loan.UserID,
		BookID:    loan.BookID,
		StartDate: loan.StartDate,
		DueDate:   loan.DueDate,
	}, nil
}

// ReturnBook closes a loan. The borrower may return their own loans;
// anyone else needs the manage_loans right.
func (s *Service) ReturnBook(ctx context.Context, identity *SessionIdentity, borrowID uint) error {
	if err := s.authenticated(identity); err != nil {
		return err
	}

	loan, err := s.loans.GetBorrow(borrowID)
	if err != nil {
		return err
	}
	if loan.UserID != identity.UserID {
		if err := s.authorize(identity, entities.RightManageLoans); err != nil {
			return err
		}
	}

	now := s.now()
	returned, err := s.loans.Return(borrowID, now)
	s.record(ctx, identity, entities.AuditEventReturn, "book_return", "borrow", borrowID, "", err)
	if err != nil {
		return err
	}
	if loans.Day(now).After(returned.DueDate) {
		s.record(ctx, identity, entities.AuditEventDelay, "late_return", "borrow", borrowID,
			fmt.Sprintf("Book %d returned after %s", returned.BookID, returned.DueDate.Format("2006-01-02")), nil)
	}
	return nil
}

// MyBorrowed lists the caller's loans, newest first.
func (s *Service) MyBorrowed(ctx context.Context, identity *SessionIdentity) ([]BorrowRecord, error) {
	if err := s.authenticated(identity); err != nil {
		return nil, err
	}
	rows, err := s.loans.ListForUser(identity.UserID)
	if err != nil {
		return nil, err
	}
	return newBorrowRecords(rows, loans.Day(s.now())), nil
}

// AllBorrowed lists every loan ordered by due date, or only the active ones.
func (s *Service) AllBorrowed(ctx context.Context, identity *SessionIdentity, activeOnly bool) ([]BorrowRecord, error) {
	if err := s.authorize(identity, entities.RightManageLoans); err != nil {
		return nil, err
	}
	rows, err := s.loans.ListAll(activeOnly)
	if err != nil {
		return nil, err
	}
	return newBorrowRecords(rows, loans.Day(s.now())), nil
}

// RecordDelays stores a delay for every active loan past its due date that
// does not have one yet. Failures for individual loans do not stop the
// sweep; they are returned together.
func (s *Service) RecordDelays(ctx context.Context) (int, error) {
	now := s.now()
	overdue, err := s.loans.OverdueWithoutDelay(loans.Day(now))
	if err != nil {
		return 0, fmt.Errorf("failed to find overdue loans: %w", err)
	}

	var result *multierror.Error
	recorded := 0
	for i := range overdue {
		if err := ctx.Err(); err != nil {
			result = multierror.Append(result, err)
			break
		}
		created, err := s.loans.RecordDelay(&overdue[i], now)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("loan %d: %w", overdue[i].ID, err))
			continue
		}
		if created {
			recorded++
		}
	}
	if recorded > 0 {
		s.audit.Record(ctx, 0, entities.AuditEventDelay, "delay_sweep", "borrow", 0,
			fmt.Sprintf("Recorded %d delay(s)", recorded), result.ErrorOrNil())
	}
	return recorded, result.ErrorOrNil()
}

// DelaySweep reports the outcome of RequestDelaySweep. TaskID is set when
// the sweep was queued, Recorded when it ran inline.
type DelaySweep struct {
	Queued   bool   `json:"queued"`
	TaskID   string `json:"task_id,omitempty"`
	Recorded int    `json:"recorded"`
}

// RequestDelaySweep triggers RecordDelays on behalf of a loan manager.
func (s *Service) RequestDelaySweep(ctx context.Context, identity *SessionIdentity) (*DelaySweep, error) {
	if err := s.authorize(identity, entities.RightManageLoans); err != nil {
		return nil, err
	}
	if s.delays != nil {
		id, err := s.delays.EnqueueDelaySweep(ctx)
		if err != nil {
			return nil, err
		}
		s.record(ctx, identity, entities.AuditEventDelay, "delay_sweep_queued", "task", 0, "Delay sweep queued as "+id, nil)
		return &DelaySweep{Queued: true, TaskID: id}, nil
	}
	recorded, err := s.RecordDelays(ctx)
	if err != nil {
		return nil, err
	}
	return &DelaySweep{Recorded: recorded}, nil
}
