package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cppla/autoblog/models"
	"github.com/cppla/autoblog/store"
)

const dateLayout = "2006-01-02"

// BreakdownReporter counts comments per calendar day.
type BreakdownReporter struct {
	comments store.CommentStore
	loc      *time.Location
}

// NewBreakdownReporter reports days in loc (UTC when nil).
func NewBreakdownReporter(comments store.CommentStore, loc *time.Location) *BreakdownReporter {
	if loc == nil {
		loc = time.UTC
	}
	return &BreakdownReporter{comments: comments, loc: loc}
}

// Breakdown returns one summary per day in [dateFrom, dateTo] that has comments, oldest first.
// Both bounds are whole days.
func (r *BreakdownReporter) Breakdown(ctx context.Context, dateFrom, dateTo string) ([]models.DailyCommentSummary, error) {
	from, err := time.ParseInLocation(dateLayout, dateFrom, r.loc)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	to, err := time.ParseInLocation(dateLayout, dateTo, r.loc)
	if err != nil {
		return nil, ErrInvalidDateFormat
	}
	if from.After(to) {
		return nil, ErrInvalidDateRange
	}
	end := to.AddDate(0, 0, 1)

	stamps, err := r.comments.CommentStamps(ctx, from.UTC(), end.UTC())
	if err != nil {
		return nil, fmt.Errorf("breakdown: %w", err)
	}

	byDay := map[string]*models.DailyCommentSummary{}
	for _, s := range stamps {
		day := s.CreatedAt.In(r.loc).Format(dateLayout)
		sum, ok := byDay[day]
		if !ok {
			sum = &models.DailyCommentSummary{Date: day}
			byDay[day] = sum
		}
		sum.TotalComments++
		if s.IsBlocked {
			sum.BlockedComments++
		}
	}

	out := make([]models.DailyCommentSummary, 0, len(byDay))
	for _, sum := range byDay {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}
