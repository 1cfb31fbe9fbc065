package amqp

import (
	"encoding/json"
	"time"
)

// ExpenseExportMessage is the lightweight message published after an expense
// is recorded. It carries only the row id; the worker fetches the full record
// from the database before appending it to the export sheet.
type ExpenseExportMessage struct {
	ID        int64     `json:"id"`
	Timestamp time.Time `json:"timestamp"`
}

func NewExpenseExportMessage(id int64) *ExpenseExportMessage {
	return &ExpenseExportMessage{
		ID:        id,
		Timestamp: time.Now(),
	}
}

func (m *ExpenseExportMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ExpenseExportMessageFromJSON(data []byte) (*ExpenseExportMessage, error) {
	var msg ExpenseExportMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
