package handlers

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/report"
	"github.com/gin-gonic/gin"
)

type ReportEngine interface {
	FinancialSummary(ctx context.Context, callerID int64, year, month int) (report.Summary, error)
	ExpensesByCategory(ctx context.Context, callerID int64, year, month int) ([]report.CategoryTotal, error)
}

type ReportsHandler struct {
	engine  ReportEngine
	timeout time.Duration
	log     *slog.Logger
}

func NewReportsHandler(engine ReportEngine, timeout time.Duration, log *slog.Logger) *ReportsHandler {
	return &ReportsHandler{engine: engine, timeout: timeout, log: log}
}

func (h *ReportsHandler) Summary(ctx *gin.Context) {
	callerID, year, month, ok := h.reportParams(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	s, err := h.engine.FinancialSummary(cctx, callerID, year, month)
	if err != nil {
		RespondDomainError(ctx, h.log, err, "Could not build summary")
		return
	}

	respondReport(ctx, callerID, s)
}

func (h *ReportsHandler) ByCategory(ctx *gin.Context) {
	callerID, year, month, ok := h.reportParams(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	items, err := h.engine.ExpensesByCategory(cctx, callerID, year, month)
	if err != nil {
		RespondDomainError(ctx, h.log, err, "Could not build category report")
		return
	}

	respondReport(ctx, callerID, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *ReportsHandler) reportParams(ctx *gin.Context) (callerID int64, year, month int, ok bool) {
	if callerID, ok = callerFrom(ctx); !ok {
		return
	}
	if year, ok = requiredIntQuery(ctx, "year"); !ok {
		return
	}
	month, ok = requiredIntQuery(ctx, "month")
	return
}
