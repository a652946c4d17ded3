package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cppla/autoblog/models"
	"github.com/cppla/autoblog/store/storetest"
)

func TestBreakdownCountsPerDay(t *testing.T) {
	st := storetest.Open(t)
	ctx := context.Background()
	day := func(d, h int) time.Time { return time.Date(2024, 3, d, h, 0, 0, 0, time.UTC) }
	fixtures := []struct {
		at      time.Time
		blocked bool
	}{
		{day(1, 9), false},
		{day(1, 23), true},
		{day(2, 0), false},
		{day(4, 12), true},
		{day(4, 13), true},
		{day(5, 0), false}, // outside the range
		{day(29, 0), false},
	}
	for _, f := range fixtures {
		c := &models.Comment{PostID: 1, AuthorID: 1, Content: "c", IsBlocked: f.blocked}
		c.CreatedAt = f.at
		if err := st.CreateComment(ctx, c); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	r := NewBreakdownReporter(st, nil)
	got, err := r.Breakdown(ctx, "2024-03-01", "2024-03-04")
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	want := []models.DailyCommentSummary{
		{Date: "2024-03-01", TotalComments: 2, BlockedComments: 1},
		{Date: "2024-03-02", TotalComments: 1, BlockedComments: 0},
		{Date: "2024-03-04", TotalComments: 2, BlockedComments: 2},
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d days, got %+v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("day %d: got %+v, want %+v", i, got[i], want[i])
		}
	}

	single, err := r.Breakdown(ctx, "2024-03-05", "2024-03-05")
	if err != nil {
		t.Fatalf("single day: %v", err)
	}
	if len(single) != 1 || single[0].TotalComments != 1 {
		t.Fatalf("single day range should include the whole day, got %+v", single)
	}

	empty, err := r.Breakdown(ctx, "2023-01-01", "2023-01-31")
	if err != nil || len(empty) != 0 {
		t.Fatalf("expected empty report, got %+v err=%v", empty, err)
	}
}

func TestBreakdownReportLocation(t *testing.T) {
	st := storetest.Open(t)
	ctx := context.Background()
	c := &models.Comment{PostID: 1, AuthorID: 1, Content: "late"}
	c.CreatedAt = time.Date(2024, 3, 1, 23, 30, 0, 0, time.UTC)
	if err := st.CreateComment(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}

	plus2 := time.FixedZone("UTC+2", 2*60*60)
	got, err := NewBreakdownReporter(st, plus2).Breakdown(ctx, "2024-03-02", "2024-03-02")
	if err != nil {
		t.Fatalf("breakdown: %v", err)
	}
	if len(got) != 1 || got[0].Date != "2024-03-02" {
		t.Fatalf("expected the comment on the local day, got %+v", got)
	}
}

func TestBreakdownValidation(t *testing.T) {
	r := NewBreakdownReporter(storetest.Open(t), nil)
	ctx := context.Background()
	for _, bad := range [][2]string{
		{"2024-13-40", "2024-12-31"},
		{"2024-01-01", "yesterday"},
		{"2024-1-5", "2024-01-06"},
		{"", "2024-01-01"},
	} {
		if _, err := r.Breakdown(ctx, bad[0], bad[1]); !errors.Is(err, ErrInvalidDateFormat) {
			t.Fatalf("%v: expected ErrInvalidDateFormat, got %v", bad, err)
		}
	}
	if _, err := r.Breakdown(ctx, "2024-02-02", "2024-02-01"); !errors.Is(err, ErrInvalidDateRange) {
		t.Fatalf("expected ErrInvalidDateRange, got %v", err)
	}
}
