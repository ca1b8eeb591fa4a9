package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"spese-insights/internal/core"
)

// ExpenseRecordedMessage announces an expense recorded by another service.
// ID is the producer's identifier and is used to deduplicate redeliveries.
type ExpenseRecordedMessage struct {
	ID          string    `json:"id"`
	OwnerID     string    `json:"owner_id"`
	Date        string    `json:"date"` // YYYY-MM-DD
	Description string    `json:"description"`
	AmountCents int64     `json:"amount_cents"`
	Category    string    `json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

var ErrMissingMessageID = errors.New("message id is required")

// NewExpenseRecordedMessage builds a message for e under the producer's id.
func NewExpenseRecordedMessage(id string, e core.Expense) *ExpenseRecordedMessage {
	return &ExpenseRecordedMessage{
		ID:          id,
		OwnerID:     e.OwnerID,
		Date:        e.Date.ISO(),
		Description: e.Description,
		AmountCents: e.Amount.Cents,
		Category:    e.Category,
		Subcategory: e.Subcategory,
		Timestamp:   time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *ExpenseRecordedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ExpenseRecordedMessageFromJSON decodes a message from JSON bytes.
func ExpenseRecordedMessageFromJSON(data []byte) (*ExpenseRecordedMessage, error) {
	var msg ExpenseRecordedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Expense converts the message into a validated expense.
func (m *ExpenseRecordedMessage) Expense() (core.Expense, error) {
	if strings.TrimSpace(m.ID) == "" {
		return core.Expense{}, ErrMissingMessageID
	}
	day, err := time.Parse(time.DateOnly, strings.TrimSpace(m.Date))
	if err != nil {
		return core.Expense{}, fmt.Errorf("invalid date %q: %w", m.Date, err)
	}
	e := core.Expense{
		OwnerID:     strings.TrimSpace(m.OwnerID),
		Date:        core.Date{Time: day},
		Description: strings.TrimSpace(m.Description),
		Amount:      core.Money{Cents: m.AmountCents},
		Category:    strings.TrimSpace(m.Category),
		Subcategory: strings.TrimSpace(m.Subcategory),
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	return e, nil
}
