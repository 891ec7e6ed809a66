package transaction

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Type decides the sign of a transaction in reports. Stored amounts are always positive.
type Type string

const (
	Income  Type = "Income"
	Expense Type = "Expense"
)

func (t Type) Valid() bool {
	return t == Income || t == Expense
}

// ParseType accepts the names in any case and the legacy numeric values 0 (Income) and 1 (Expense).
func ParseType(raw string) (Type, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "income", "0":
		return Income, nil
	case "expense", "1":
		return Expense, nil
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidType, raw)
}

func (t *Type) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)

	if bytes.Equal(b, []byte("null")) {
		*t = ""
		return nil
	}

	var raw string

	if len(b) > 0 && b[0] == '"' {
		if err := json.Unmarshal(b, &raw); err != nil {
			return err
		}
	} else {
		raw = string(b)
	}

	parsed, err := ParseType(raw)
	if err != nil {
		return err
	}

	*t = parsed
	return nil
}
