package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"expensed/internal/core"
)

// AnalyticsService derives read-only views from the ledger: date-windowed
// summaries, per-category totals and calendar-bucketed trends. Every query is
// scoped to the resolved user.
type AnalyticsService struct {
	store      Store
	dateFormat string
}

type (
	// SummaryItem is one record of a windowed summary. A summary is a
	// selection, not a rollup.
	SummaryItem struct {
		Amount      core.Money
		Description string
		Category    string
		Date        core.Date
	}

	// TrendPoint is one bucket of a trend rollup with its display label.
	TrendPoint struct {
		Period string
		Start  core.Date
		Total  core.Money
	}
)

// NewAnalyticsService builds the engine. dateFormat is the layout used to
// parse window boundaries; it is fixed at startup.
func NewAnalyticsService(store Store, dateFormat string) *AnalyticsService {
	if dateFormat == "" {
		dateFormat = "2006-01-02"
	}
	return &AnalyticsService{store: store, dateFormat: dateFormat}
}

// Summary returns the user's records inside the inclusive window, newest
// expense date first.
func (s *AnalyticsService) Summary(ctx context.Context, userID, startDate, endDate string) ([]SummaryItem, error) {
	user, window, err := s.resolveScope(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpenses(ctx, user.UserID, &window)
	if err != nil {
		return nil, fmt.Errorf("list expenses in window: %w", err)
	}

	items := make([]SummaryItem, len(expenses))
	for i, e := range expenses {
		items[i] = SummaryItem{
			Amount:      e.Amount,
			Description: e.Description,
			Category:    e.Category,
			Date:        e.Date,
		}
	}
	return items, nil
}

// Categories sums the user's records inside the window per category, ordered
// alphabetically.
func (s *AnalyticsService) Categories(ctx context.Context, userID, startDate, endDate string) ([]core.CategoryTotal, error) {
	user, window, err := s.resolveScope(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, err
	}

	totals, err := s.store.SumByCategory(ctx, user.UserID, window)
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	return totals, nil
}

// Trend rolls the user's ledger up into calendar buckets. Unrecognized trend
// types fall back to yearly granularity.
func (s *AnalyticsService) Trend(ctx context.Context, userID, trendType string) ([]TrendPoint, error) {
	user, err := s.store.GetUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("resolve user %q: %w", userID, err)
	}

	granularity := core.ParseGranularity(trendType)
	totals, err := s.store.SumByPeriod(ctx, user.UserID, granularity)
	if err != nil {
		return nil, fmt.Errorf("sum by period: %w", err)
	}

	points := make([]TrendPoint, len(totals))
	for i, t := range totals {
		points[i] = TrendPoint{
			Period: core.BucketLabel(t.Period, granularity),
			Start:  t.Period,
			Total:  t.Total,
		}
	}
	return points, nil
}

// resolveScope validates the window inputs, resolves the user and builds the
// inclusive time window.
func (s *AnalyticsService) resolveScope(ctx context.Context, userID, startDate, endDate string) (core.User, core.TimeWindow, error) {
	startDate = strings.TrimSpace(startDate)
	endDate = strings.TrimSpace(endDate)
	if startDate == "" || endDate == "" {
		return core.User{}, core.TimeWindow{}, fmt.Errorf("%w: start_date and end_date are required", core.ErrValidation)
	}

	start, err := s.parseWindowDate(startDate)
	if err != nil {
		return core.User{}, core.TimeWindow{}, err
	}
	end, err := s.parseWindowDate(endDate)
	if err != nil {
		return core.User{}, core.TimeWindow{}, err
	}

	user, err := s.store.GetUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return core.User{}, core.TimeWindow{}, fmt.Errorf("resolve user %q: %w", userID, err)
	}

	return user, core.NewTimeWindow(start, end), nil
}

func (s *AnalyticsService) parseWindowDate(v string) (core.Date, error) {
	t, err := time.ParseInLocation(s.dateFormat, v, time.UTC)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: date %q is not in %s format", core.ErrValidation, v, s.dateFormat)
	}
	return core.NewDate(t.Year(), int(t.Month()), t.Day()), nil
}
