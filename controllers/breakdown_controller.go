package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/cppla/autoblog/services"
	"github.com/cppla/autoblog/utils"
)

// BreakdownController serves the daily comment report.
type BreakdownController struct {
	reporter *services.BreakdownReporter
}

// NewBreakdownController creates a new BreakdownController instance.
func NewBreakdownController(reporter *services.BreakdownReporter) *BreakdownController {
	return &BreakdownController{reporter: reporter}
}

// GetBreakdown returns per-day totals for ?date_from..?date_to, both inclusive.
func (b *BreakdownController) GetBreakdown(ctx *gin.Context) {
	days, err := b.reporter.Breakdown(ctx.Request.Context(), ctx.Query("date_from"), ctx.Query("date_to"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	utils.Success(ctx, gin.H{"items": days})
}
