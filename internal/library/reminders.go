package library

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/mrlokans/library/internal/database/loans"
)

// DueReminders lists the caller's active loans due within the reminder
// window, overdue ones included, ordered by due date. The result is
// critical when any listed loan is overdue or due within the critical
// window.
func (s *Service) DueReminders(ctx context.Context, identity *SessionIdentity) (*DueReminders, error) {
	if err := s.authenticated(identity); err != nil {
		return nil, err
	}

	today := loans.Day(s.now())
	rows, err := s.loans.ActiveDueBy(identity.UserID, today.AddDate(0, 0, s.reminderWindowDays))
	if err != nil {
		return nil, err
	}

	details := lo.Map(rows, func(row loans.BorrowRow, _ int) ReminderDetail {
		daysLeft := int(row.DueDate.Sub(today).Hours() / 24)
		return ReminderDetail{
			BorrowID: row.ID,
			BookID:   row.BookID,
			BookName: row.BookName,
			DueDate:  row.DueDate,
			DaysLeft: daysLeft,
			Overdue:  daysLeft < 0,
		}
	})

	result := &DueReminders{Details: details}
	if len(details) == 0 {
		return result, nil
	}
	result.HasReminder = true

	overdue := lo.CountBy(details, func(d ReminderDetail) bool { return d.Overdue })
	critical := lo.CountBy(details, func(d ReminderDetail) bool {
		return !d.Overdue && d.DaysLeft <= s.reminderCriticalDays
	})
	result.IsCritical = overdue > 0 || critical > 0

	switch {
	case overdue > 0:
		result.Message = fmt.Sprintf("You have %d overdue loan(s). Please return them as soon as possible.", overdue)
	case critical > 0:
		result.Message = fmt.Sprintf("%d loan(s) due within %d days.", critical, s.reminderCriticalDays)
	default:
		result.Message = fmt.Sprintf("%d loan(s) due within %d days.", len(details), s.reminderWindowDays)
	}
	return result, nil
}
