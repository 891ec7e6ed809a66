package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/fintrack/internal/config"
	"github.com/geocoder89/fintrack/internal/domain/transaction"
	"github.com/gin-gonic/gin"
)

type TransactionManager interface {
	Create(ctx context.Context, callerID int64, req transaction.CreateTransactionRequest) (transaction.Transaction, error)
	List(ctx context.Context, callerID int64) ([]transaction.Transaction, error)
	Get(ctx context.Context, callerID, id int64) (transaction.Transaction, error)
	Update(ctx context.Context, callerID, id int64, req transaction.UpdateTransactionRequest) (transaction.Transaction, error)
	Delete(ctx context.Context, callerID, id int64) error
}

type TransactionsHandler struct {
	svc     TransactionManager
	timeout time.Duration
	log     *slog.Logger
}

func NewTransactionsHandler(svc TransactionManager, timeout time.Duration, log *slog.Logger) *TransactionsHandler {
	return &TransactionsHandler{svc: svc, timeout: timeout, log: log}
}

func (h *TransactionsHandler) CreateTransaction(ctx *gin.Context) {
	callerID, ok := callerFrom(ctx)
	if !ok {
		return
	}

	var req transaction.CreateTransactionRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	t, err := h.svc.Create(cctx, callerID, req)
	if err != nil {
		RespondDomainError(ctx, h.log, err, "Could not create transaction")
		return
	}

	ctx.JSON(http.StatusCreated, t)
}

func (h *TransactionsHandler) ListTransactions(ctx *gin.Context) {
	callerID, ok := callerFrom(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	items, err := h.svc.List(cctx, callerID)
	if err != nil {
		RespondDomainError(ctx, h.log, err, "Could not list transactions")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"count": len(items),
	})
}

func (h *TransactionsHandler) GetTransaction(ctx *gin.Context) {
	callerID, ok := callerFrom(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	t, err := h.svc.Get(cctx, callerID, id)
	if err != nil {
		RespondDomainError(ctx, h.log, err, "Could not fetch transaction")
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TransactionsHandler) UpdateTransaction(ctx *gin.Context) {
	callerID, ok := callerFrom(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx)
	if !ok {
		return
	}

	var req transaction.UpdateTransactionRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	t, err := h.svc.Update(cctx, callerID, id, req)
	if err != nil {
		RespondDomainError(ctx, h.log, err, "Could not update transaction")
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TransactionsHandler) DeleteTransaction(ctx *gin.Context) {
	callerID, ok := callerFrom(ctx)
	if !ok {
		return
	}

	id, ok := pathID(ctx)
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	if err := h.svc.Delete(cctx, callerID, id); err != nil {
		RespondDomainError(ctx, h.log, err, "Could not delete transaction")
		return
	}

	ctx.Status(http.StatusNoContent)
}
