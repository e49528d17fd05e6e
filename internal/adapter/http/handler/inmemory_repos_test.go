package handler_test

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"expense-settlement/internal/core/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// --- In-Memory Event Repo ---

type inMemoryEventRepo struct {
	mu     sync.RWMutex
	events map[uuid.UUID]*domain.Event
}

func newInMemoryEventRepo(events ...*domain.Event) *inMemoryEventRepo {
	r := &inMemoryEventRepo{events: make(map[uuid.UUID]*domain.Event)}
	for _, e := range events {
		r.events[e.ID] = e
	}
	return r
}

func (r *inMemoryEventRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Event, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

// --- In-Memory Participant Repo ---

type inMemoryParticipantRepo struct {
	mu      sync.RWMutex
	rosters map[uuid.UUID][]domain.Participant
}

func newInMemoryParticipantRepo() *inMemoryParticipantRepo {
	return &inMemoryParticipantRepo{rosters: make(map[uuid.UUID][]domain.Participant)}
}

func (r *inMemoryParticipantRepo) add(p domain.Participant) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rosters[p.EventID] = append(r.rosters[p.EventID], p)
}

func (r *inMemoryParticipantRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Participant, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domain.Participant{}, r.rosters[eventID]...), nil
}

// --- In-Memory Expense Repo ---

type inMemoryExpenseRepo struct {
	mu       sync.RWMutex
	seq      int
	expenses map[uuid.UUID]*domain.Expense
	order    map[uuid.UUID]int
}

func newInMemoryExpenseRepo() *inMemoryExpenseRepo {
	return &inMemoryExpenseRepo{
		expenses: make(map[uuid.UUID]*domain.Expense),
		order:    make(map[uuid.UUID]int),
	}
}

func (r *inMemoryExpenseRepo) Create(ctx context.Context, tx pgx.Tx, e *domain.Expense) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.expenses[e.ID]; ok {
		return fmt.Errorf("expense %s already exists", e.ID)
	}
	cp := *e
	cp.Shares = append([]domain.ExpenseShare(nil), e.Shares...)
	r.seq++
	r.expenses[e.ID] = &cp
	r.order[e.ID] = r.seq
	return nil
}

func (r *inMemoryExpenseRepo) GetByID(ctx context.Context, eventID, id uuid.UUID) (*domain.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.expenses[id]
	if !ok || e.EventID != eventID {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *inMemoryExpenseRepo) ListByEvent(ctx context.Context, eventID uuid.UUID) ([]domain.Expense, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []domain.Expense{}
	for _, e := range r.expenses {
		if e.EventID == eventID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return r.order[out[i].ID] < r.order[out[j].ID] })
	return out, nil
}

func (r *inMemoryExpenseRepo) Delete(ctx context.Context, tx pgx.Tx, eventID, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.expenses[id]
	if !ok || e.EventID != eventID {
		return fmt.Errorf("expense not found")
	}
	delete(r.expenses, id)
	delete(r.order, id)
	return nil
}

// --- In-Memory Audit Repo ---

type inMemoryAuditRepo struct {
	mu      sync.Mutex
	entries []domain.AuditLog
}

func (r *inMemoryAuditRepo) Create(ctx context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, *log)
	return nil
}

func (r *inMemoryAuditRepo) count(action domain.AuditAction) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.entries {
		if e.Action == action {
			n++
		}
	}
	return n
}

// --- In-Memory Transactor (no-op tx) ---

type inMemoryTransactor struct{}

func (t *inMemoryTransactor) Begin(ctx context.Context) (pgx.Tx, error) {
	return &noopTx{}, nil
}

// noopTx satisfies pgx.Tx for repos that ignore the transaction handle.
type noopTx struct{}

func (t *noopTx) Begin(ctx context.Context) (pgx.Tx, error) { return t, nil }
func (t *noopTx) Commit(ctx context.Context) error          { return nil }
func (t *noopTx) Rollback(ctx context.Context) error        { return nil }
func (t *noopTx) CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error) {
	return 0, nil
}
func (t *noopTx) SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults { return nil }
func (t *noopTx) LargeObjects() pgx.LargeObjects                               { return pgx.LargeObjects{} }
func (t *noopTx) Prepare(ctx context.Context, name, sql string) (*pgconn.StatementDescription, error) {
	return nil, nil
}
func (t *noopTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	return pgconn.NewCommandTag(""), nil
}
func (t *noopTx) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	return nil, nil
}
func (t *noopTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	return nil
}
func (t *noopTx) Conn() *pgx.Conn { return nil }
