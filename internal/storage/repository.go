package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"expensed/internal/core"

	_ "modernc.org/sqlite"
)

// Export states for the Sheets sync worker.
const (
	ExportPending = "pending"
	ExportDone    = "done"
	ExportError   = "error"
)

// SQLiteRepository persists the ledger in a local SQLite database. It
// implements services.Store plus the export-queue bookkeeping consumed by the
// worker.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateUser registers an external user id. Users are normally provisioned
// out-of-band; this exists for seeding and tests.
func (r *SQLiteRepository) CreateUser(ctx context.Context, userID string) (core.User, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO users (user_id) VALUES (?)`, userID)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.User{}, fmt.Errorf("user insert id: %w", err)
	}
	return core.User{ID: id, UserID: userID, CreatedAt: time.Now().UTC()}, nil
}

func (r *SQLiteRepository) GetUser(ctx context.Context, userID string) (core.User, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, created_at FROM users WHERE user_id = ?`, userID)

	var u core.User
	if err := row.Scan(&u.ID, &u.UserID, &u.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.User{}, fmt.Errorf("user %q: %w", userID, core.ErrNotFound)
		}
		return core.User{}, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID string, window *core.TimeWindow) ([]core.Expense, error) {
	query := `SELECT e.id, u.user_id, e.amount_cents, e.category, e.description,
	                 e.expense_date, e.source, COALESCE(e.message_id, ''), e.updated_at
	          FROM expenses e JOIN users u ON u.id = e.user_id
	          WHERE u.user_id = ?`
	args := []any{userID}
	if window != nil {
		query += ` AND e.expense_date >= ? AND e.expense_date <= ?`
		args = append(args, window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))
	}
	query += ` ORDER BY e.expense_date DESC, e.id DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	user, err := r.GetUser(ctx, e.UserID)
	if err != nil {
		return core.Expense{}, err
	}

	res, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (user_id, amount_cents, category, description,
		                       expense_date, source, message_id, updated_at, export_state)
		 VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?, ?)`,
		user.ID, e.Amount.Cents, e.Category, e.Description,
		e.Date.ISO(), e.Source, e.MessageID, e.UpdatedAt, ExportPending)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return core.Expense{}, fmt.Errorf("expense insert id: %w", err)
	}
	e.ID = id

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", e.ID,
		"user_id", e.UserID,
		"amount_cents", e.Amount.Cents,
		"category", e.Category,
		"expense_date", e.Date.ISO())

	return e, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT e.id, u.user_id, e.amount_cents, e.category, e.description,
		        e.expense_date, e.source, COALESCE(e.message_id, ''), e.updated_at
		 FROM expenses e JOIN users u ON u.id = e.user_id
		 WHERE e.id = ?`, id)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, fmt.Errorf("expense %d: %w", id, core.ErrNotFound)
		}
		return core.Expense{}, err
	}
	return e, nil
}

func (r *SQLiteRepository) FindByMessageID(ctx context.Context, messageID string) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT e.id, u.user_id, e.amount_cents, e.category, e.description,
		        e.expense_date, e.source, COALESCE(e.message_id, ''), e.updated_at
		 FROM expenses e JOIN users u ON u.id = e.user_id
		 WHERE e.message_id = ?`, messageID)
	e, err := scanExpense(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return core.Expense{}, fmt.Errorf("message id %q: %w", messageID, core.ErrNotFound)
		}
		return core.Expense{}, err
	}
	return e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE expenses
		 SET amount_cents = ?, category = ?, description = ?, expense_date = ?,
		     source = ?, updated_at = ?
		 WHERE id = ?`,
		e.Amount.Cents, e.Category, e.Description, e.Date.ISO(),
		e.Source, e.UpdatedAt, e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("expense %d: %w", e.ID, core.ErrNotFound)
	}
	return nil
}

func (r *SQLiteRepository) DeleteByMessageID(ctx context.Context, messageID string) (int64, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM expenses WHERE message_id = ?`, messageID)
	if err != nil {
		return 0, fmt.Errorf("delete by message id: %w", err)
	}
	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete rows affected: %w", err)
	}
	return deleted, nil
}

func (r *SQLiteRepository) SumByCategory(ctx context.Context, userID string, window core.TimeWindow) ([]core.CategoryTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.category, SUM(e.amount_cents)
		 FROM expenses e JOIN users u ON u.id = e.user_id
		 WHERE u.user_id = ? AND e.expense_date >= ? AND e.expense_date <= ?
		 GROUP BY e.category
		 ORDER BY e.category ASC`,
		userID, window.Start.Format("2006-01-02"), window.End.Format("2006-01-02"))
	if err != nil {
		return nil, fmt.Errorf("sum by category: %w", err)
	}
	defer rows.Close()

	var out []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		out = append(out, ct)
	}
	return out, rows.Err()
}

// SumByPeriod loads the user's dated amounts and rolls them up in Go so the
// ISO-week and quarter arithmetic stays in core, shared with the memory
// backend.
func (r *SQLiteRepository) SumByPeriod(ctx context.Context, userID string, g core.Granularity) ([]core.PeriodTotal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.expense_date, e.amount_cents
		 FROM expenses e JOIN users u ON u.id = e.user_id
		 WHERE u.user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("sum by period: %w", err)
	}
	defer rows.Close()

	var expenses []core.Expense
	for rows.Next() {
		var dateStr string
		var cents int64
		if err := rows.Scan(&dateStr, &cents); err != nil {
			return nil, fmt.Errorf("scan period row: %w", err)
		}
		date, err := core.ParseISODate(dateStr)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, core.Expense{Date: date, Amount: core.Money{Cents: cents}})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return core.AggregateByPeriod(expenses, g), nil
}

// ListPendingExport returns expenses not yet appended to the export sheet.
func (r *SQLiteRepository) ListPendingExport(ctx context.Context, limit int) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT e.id, u.user_id, e.amount_cents, e.category, e.description,
		        e.expense_date, e.source, COALESCE(e.message_id, ''), e.updated_at
		 FROM expenses e JOIN users u ON u.id = e.user_id
		 WHERE e.export_state = ?
		 ORDER BY e.id ASC
		 LIMIT ?`, ExportPending, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending export: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// MarkExported marks an expense as successfully appended to the sheet.
func (r *SQLiteRepository) MarkExported(ctx context.Context, id int64) error {
	if err := r.setExportState(ctx, id, ExportDone); err != nil {
		return err
	}
	slog.InfoContext(ctx, "Expense marked as exported", "id", id)
	return nil
}

// MarkExportError marks an expense as having failed export.
func (r *SQLiteRepository) MarkExportError(ctx context.Context, id int64) error {
	if err := r.setExportState(ctx, id, ExportError); err != nil {
		return err
	}
	slog.WarnContext(ctx, "Expense marked with export error", "id", id)
	return nil
}

func (r *SQLiteRepository) setExportState(ctx context.Context, id int64, state string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE expenses SET export_state = ? WHERE id = ?`, state, id)
	if err != nil {
		return fmt.Errorf("set export state %s: %w", state, err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var e core.Expense
	var dateStr string
	if err := row.Scan(&e.ID, &e.UserID, &e.Amount.Cents, &e.Category,
		&e.Description, &dateStr, &e.Source, &e.MessageID, &e.UpdatedAt); err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseISODate(dateStr)
	if err != nil {
		return core.Expense{}, err
	}
	e.Date = date
	return e, nil
}
