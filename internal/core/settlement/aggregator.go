package settlement

import (
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LedgerExpense is one expense already normalized into the ledger currency.
type LedgerExpense struct {
	Amount decimal.Decimal
	PaidBy uuid.UUID
	Shares []Share
}

// Balance is one participant's net position: positive means the group owes
// them, negative means they owe the group.
type Balance struct {
	ParticipantID uuid.UUID       `json:"participant_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// Balances is an ordered balance set. Order is significant only for
// tie-breaking in Settle; values never depend on expense order.
type Balances []Balance

// Get returns the balance for id, or zero when id is absent.
func (b Balances) Get(id uuid.UUID) decimal.Decimal {
	for _, bal := range b {
		if bal.ParticipantID == id {
			return bal.Amount
		}
	}
	return decimal.Zero
}

// Sum adds up every balance. A consistent expense set sums to ~0.
func (b Balances) Sum() decimal.Decimal {
	sum := decimal.Zero
	for _, bal := range b {
		sum = sum.Add(bal.Amount)
	}
	return sum
}

// NonZero counts balances whose magnitude is at least Epsilon.
func (b Balances) NonZero() int {
	n := 0
	for _, bal := range b {
		if !withinEpsilon(bal.Amount) {
			n++
		}
	}
	return n
}

// Aggregate folds expenses into one balance per participant. The payer is
// credited the full ledger amount and every share debits its participant,
// payer included. Every listed participant appears in the result, in input
// order, even with no activity. Participants that only appear in expenses are
// appended ordered by ID so the result does not depend on expense order.
func Aggregate(participants []uuid.UUID, expenses []LedgerExpense) Balances {
	totals := make(map[uuid.UUID]decimal.Decimal, len(participants))
	order := uniqueIDs(participants)
	for _, id := range order {
		totals[id] = decimal.Zero
	}

	var extra []uuid.UUID
	touch := func(id uuid.UUID) {
		if _, ok := totals[id]; !ok {
			totals[id] = decimal.Zero
			extra = append(extra, id)
		}
	}

	for _, e := range expenses {
		touch(e.PaidBy)
		totals[e.PaidBy] = totals[e.PaidBy].Add(e.Amount)
		for _, s := range e.Shares {
			touch(s.ParticipantID)
			totals[s.ParticipantID] = totals[s.ParticipantID].Sub(s.Amount)
		}
	}

	sort.Slice(extra, func(i, j int) bool {
		return extra[i].String() < extra[j].String()
	})
	order = append(order, extra...)

	out := make(Balances, 0, len(order))
	for _, id := range order {
		out = append(out, Balance{ParticipantID: id, Amount: totals[id]})
	}
	return out
}
