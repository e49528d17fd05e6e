package postgres

import (
	"context"
	"errors"
	"fmt"

	"expense-settlement/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const expenseColumns = `id, event_id, description, amount::text, currency, paid_by, category,
		split_method, conversion_rate::text, rate_unreliable, created_by, created_at`

// ExpenseRepo implements ports.ExpenseRepository.
type ExpenseRepo struct {
	pool Pool
}

// NewExpenseRepo creates a new ExpenseRepo.
func NewExpenseRepo(pool Pool) *ExpenseRepo {
	return &ExpenseRepo{pool: pool}
}

// Create inserts an expense and its share rows within a database transaction.
func (r *ExpenseRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.Expense) error {
	query := `INSERT INTO expenses (id, event_id, description, amount, currency, paid_by, category,
		split_method, conversion_rate, rate_unreliable, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := tx.Exec(ctx, query,
		e.ID, e.EventID, e.Description, e.Amount.String(), e.Currency, e.PaidBy,
		string(e.Category), string(e.SplitMethod), e.ConversionRate.String(), e.RateUnreliable,
		e.CreatedBy, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert expense: %w", err)
	}

	for _, s := range e.Shares {
		_, err := tx.Exec(ctx,
			`INSERT INTO expense_shares (expense_id, participant_id, amount) VALUES ($1, $2, $3)`,
			e.ID, s.ParticipantID, s.Amount.String(),
		)
		if err != nil {
			return fmt.Errorf("insert expense share: %w", err)
		}
	}
	return nil
}

// GetByID fetches one expense of an event, with its shares.
func (r *ExpenseRepo) GetByID(ctx context.Context, eventID, id uuid.UUID) (*domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE event_id = $1 AND id = $2`

	e, err := scanExpense(r.pool.QueryRow(ctx, query, eventID, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get expense: %w", err)
	}

	shares, err := r.listShares(ctx,
		`SELECT expense_id, participant_id, amount::text FROM expense_shares
		WHERE expense_id = $1 ORDER BY participant_id`, id)
	if err != nil {
		return nil, err
	}
	e.Shares = shares[id]
	return e, nil
}

// ListByEvent returns an event's expenses oldest first, with shares loaded.
func (r *ExpenseRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Expense, error) {
	query := `SELECT ` + expenseColumns + ` FROM expenses WHERE event_id = $1 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, eventID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []domain.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense row: %w", err)
		}
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense rows: %w", err)
	}
	if len(expenses) == 0 {
		return expenses, nil
	}

	shares, err := r.listShares(ctx,
		`SELECT s.expense_id, s.participant_id, s.amount::text FROM expense_shares s
		JOIN expenses e ON e.id = s.expense_id
		WHERE e.event_id = $1 ORDER BY s.expense_id, s.participant_id`, eventID)
	if err != nil {
		return nil, err
	}
	for i := range expenses {
		expenses[i].Shares = shares[expenses[i].ID]
	}
	return expenses, nil
}

// Delete removes an expense; its shares go with it via ON DELETE CASCADE.
func (r *ExpenseRepo) Delete(ctx context.Context, tx pgx.Tx, eventID, id uuid.UUID) error {
	tag, err := tx.Exec(ctx, `DELETE FROM expenses WHERE event_id = $1 AND id = $2`, eventID, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("expense not found: %s", id)
	}
	return nil
}

func (r *ExpenseRepo) listShares(ctx context.Context, query string, arg uuid.UUID) (map[uuid.UUID][]domain.ExpenseShare, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list expense shares: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID][]domain.ExpenseShare)
	for rows.Next() {
		var (
			s      domain.ExpenseShare
			amount string
		)
		if err := rows.Scan(&s.ExpenseID, &s.ParticipantID, &amount); err != nil {
			return nil, fmt.Errorf("scan expense share row: %w", err)
		}
		if s.Amount, err = parseNumeric("share amount", amount); err != nil {
			return nil, err
		}
		out[s.ExpenseID] = append(out[s.ExpenseID], s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expense share rows: %w", err)
	}
	return out, nil
}

func scanExpense(row pgx.Row) (*domain.Expense, error) {
	var (
		e              domain.Expense
		amount, rate   string
		category, meth string
	)
	err := row.Scan(
		&e.ID, &e.EventID, &e.Description, &amount, &e.Currency, &e.PaidBy, &category,
		&meth, &rate, &e.RateUnreliable, &e.CreatedBy, &e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.Category = domain.ExpenseCategory(category)
	e.SplitMethod = domain.SplitMethod(meth)
	if e.Amount, err = parseNumeric("amount", amount); err != nil {
		return nil, err
	}
	if e.ConversionRate, err = parseNumeric("conversion_rate", rate); err != nil {
		return nil, err
	}
	return &e, nil
}
