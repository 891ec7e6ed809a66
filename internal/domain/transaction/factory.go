package transaction

import "time"

// NewFromCreateRequest builds the record to insert. The owner always comes from the
// authenticated caller, never from the payload.
func NewFromCreateRequest(ownerID int64, req CreateTransactionRequest, now time.Time) Transaction {
	now = now.UTC()

	date := now
	if req.Date != nil && !req.Date.IsZero() {
		date = req.Date.UTC()
	}

	return Transaction{
		UserID:      ownerID,
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Type:        req.Type,
		Date:        date,
		Description: req.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func ChangesFromUpdateRequest(req UpdateTransactionRequest) Changes {
	var date *time.Time

	if req.Date != nil && !req.Date.IsZero() {
		d := req.Date.UTC()
		date = &d
	}

	return Changes{
		CategoryID:  req.CategoryID,
		Amount:      req.Amount,
		Type:        req.Type,
		Date:        date,
		Description: req.Description,
	}
}

// Apply copies the mutable fields onto t.
func (c Changes) Apply(t Transaction, now time.Time) Transaction {
	t.CategoryID = c.CategoryID
	t.Amount = c.Amount
	t.Type = c.Type
	t.Description = c.Description

	if c.Date != nil {
		t.Date = c.Date.UTC()
	}

	t.UpdatedAt = now.UTC()
	return t
}
