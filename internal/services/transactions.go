// Package services holds the caller-scoped use cases behind the HTTP handlers. Every
// operation takes the authenticated caller id explicitly; nothing is read from ambient state.
package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/geocoder89/fintrack/internal/domain/transaction"
)

// TransactionStore performs ownership checks and writes atomically.
type TransactionStore interface {
	CreateTransaction(ctx context.Context, t transaction.Transaction) (transaction.Transaction, error)
	ListTransactionsByUser(ctx context.Context, userID int64) ([]transaction.Transaction, error)
	GetTransactionForUser(ctx context.Context, userID, id int64) (transaction.Transaction, error)
	UpdateTransaction(ctx context.Context, userID, id int64, changes transaction.Changes) (transaction.Transaction, error)
	DeleteTransaction(ctx context.Context, userID, id int64) error
}

// ReportInvalidator drops cached reports after a user's transactions change.
type ReportInvalidator interface {
	Invalidate(ctx context.Context, userID int64)
}

type TransactionService struct {
	store   TransactionStore
	reports ReportInvalidator
	log     *slog.Logger
	now     func() time.Time
}

func NewTransactionService(store TransactionStore, reports ReportInvalidator, log *slog.Logger) *TransactionService {
	if log == nil {
		log = slog.Default()
	}
	return &TransactionService{
		store:   store,
		reports: reports,
		log:     log,
		now:     time.Now,
	}
}

func (s *TransactionService) Create(ctx context.Context, callerID int64, req transaction.CreateTransactionRequest) (transaction.Transaction, error) {
	if err := transaction.ValidateAmountAndType(req.Amount, req.Type); err != nil {
		return transaction.Transaction{}, err
	}

	created, err := s.store.CreateTransaction(ctx, transaction.NewFromCreateRequest(callerID, req, s.now()))
	if err != nil {
		return transaction.Transaction{}, err
	}

	s.invalidate(ctx, callerID)
	s.log.InfoContext(ctx, "transaction created", "transaction_id", created.ID, "type", created.Type)

	return created, nil
}

func (s *TransactionService) List(ctx context.Context, callerID int64) ([]transaction.Transaction, error) {
	return s.store.ListTransactionsByUser(ctx, callerID)
}

// Get answers ErrNotFound for rows owned by someone else.
func (s *TransactionService) Get(ctx context.Context, callerID, id int64) (transaction.Transaction, error) {
	return s.store.GetTransactionForUser(ctx, callerID, id)
}

func (s *TransactionService) Update(ctx context.Context, callerID, id int64, req transaction.UpdateTransactionRequest) (transaction.Transaction, error) {
	if err := transaction.ValidateAmountAndType(req.Amount, req.Type); err != nil {
		return transaction.Transaction{}, err
	}

	updated, err := s.store.UpdateTransaction(ctx, callerID, id, transaction.ChangesFromUpdateRequest(req))
	if err != nil {
		return transaction.Transaction{}, err
	}

	s.invalidate(ctx, callerID)
	s.log.InfoContext(ctx, "transaction updated", "transaction_id", id)

	return updated, nil
}

func (s *TransactionService) Delete(ctx context.Context, callerID, id int64) error {
	if err := s.store.DeleteTransaction(ctx, callerID, id); err != nil {
		return err
	}

	s.invalidate(ctx, callerID)
	s.log.InfoContext(ctx, "transaction deleted", "transaction_id", id)

	return nil
}

func (s *TransactionService) invalidate(ctx context.Context, userID int64) {
	if s.reports != nil {
		s.reports.Invalidate(ctx, userID)
	}
}
