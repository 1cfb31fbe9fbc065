package http

import (
	"net/http"

	"expensed/internal/core"
	"expensed/internal/services"
)

// expensePayload is the wire shape of a ledger record.
type expensePayload struct {
	ID          int64  `json:"id"`
	UserID      string `json:"user_id"`
	Amount      string `json:"amount"`
	Category    string `json:"category"`
	Description string `json:"description"`
	ExpenseDate string `json:"expense_date"`
	Source      string `json:"source,omitempty"`
	MessageID   string `json:"message_id,omitempty"`
	UpdatedAt   string `json:"updated_at"`
}

func toExpensePayload(e core.Expense) expensePayload {
	return expensePayload{
		ID:          e.ID,
		UserID:      e.UserID,
		Amount:      e.Amount.String(),
		Category:    e.Category,
		Description: e.Description,
		ExpenseDate: e.Date.Wire(),
		Source:      e.Source,
		MessageID:   e.MessageID,
		UpdatedAt:   e.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// handleExpenses dispatches the shared resource path by verb: GET lists,
// POST creates, PATCH updates, DELETE removes.
func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListExpenses(w, r)
	case http.MethodPost:
		s.handleCreateExpense(w, r)
	case http.MethodPatch:
		s.handleUpdateExpense(w, r)
	case http.MethodDelete:
		s.handleDeleteExpense(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, PATCH, DELETE")
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	expenses, err := s.ingestion.List(r.Context(), userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	payload := make([]expensePayload, len(expenses))
	for i, e := range expenses {
		payload[i] = toExpensePayload(e)
	}
	writeData(w, payload)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	created, err := s.ingestion.Create(r.Context(), services.CreateRequest{
		UserID:      parser.Get("user_id"),
		Amount:      parser.Get("amount"),
		Category:    parser.Get("category"),
		Description: parser.Get("description"),
		ExpenseDate: parser.Get("expense_date"),
		Source:      parser.Get("source"),
		MessageID:   parser.Get("message_id"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, toExpensePayload(created))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := s.ingestion.Update(r.Context(), services.UpdateRequest{
		MessageID:   parser.Get("message_id"),
		Amount:      parser.Get("amount"),
		Category:    parser.Get("category"),
		Description: parser.Get("description"),
		ExpenseDate: parser.Get("expense_date"),
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toExpensePayload(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	parser := NewRequestBodyParser(r)
	if err := parser.Parse(); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid request body")
		return
	}

	messageID := parser.Get("message_id")
	if messageID == "" {
		// The delete contract addresses records purely by correlation id.
		messageID = r.URL.Query().Get("message_id")
	}

	if err := s.ingestion.Delete(r.Context(), messageID); err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeMessage(w, http.StatusOK, "Expense deleted")
}
