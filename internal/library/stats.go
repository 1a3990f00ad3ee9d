package library

import (
	"context"
	"fmt"

	"github.com/mrlokans/library/internal/database/loans"
	"github.com/mrlokans/library/internal/database/stats"
	"github.com/mrlokans/library/internal/entities"
)

// Statistics aggregates the dashboard counters. Nothing is cached; every
// call reads the current tables.
func (s *Service) Statistics(ctx context.Context, identity *SessionIdentity) (*StatisticsSummary, error) {
	if err := s.authorize(identity, entities.RightViewStatistics); err != nil {
		return nil, err
	}

	counts, err := s.stats.Counts(loans.Day(s.now()))
	if err != nil {
		return nil, err
	}
	popular, err := s.stats.PopularBooks(s.topBooks)
	if err != nil {
		return nil, err
	}
	stock, err := s.stats.Stock()
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}

	return &StatisticsSummary{
		TotalBooks:        counts.TotalBooks,
		TotalUsers:        counts.TotalUsers,
		TotalBorrowings:   counts.TotalBorrowings,
		ActiveBorrowings:  counts.ActiveBorrowings,
		OverdueBorrowings: counts.OverdueBorrowings,
		TotalDelays:       counts.TotalDelays,
		DelayRate:         stats.DelayRate(counts.TotalDelays, counts.TotalBorrowings),
		PopularBooks:      popular,
		Stock:             *stock,
		StockByState:      stock.ByState(),
	}, nil
}
