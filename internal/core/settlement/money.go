// Package settlement computes expense shares, currency conversion, participant
// balances and the transfers that settle them. Everything here is a pure
// function of its inputs: no I/O, no logging, no package-level mutable state.
package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Epsilon is the tolerance, in ledger currency units, below which amounts are
// treated as settled rounding noise.
var Epsilon = decimal.New(1, -2)

// Share is the portion of one expense attributed to one participant.
type Share struct {
	ParticipantID uuid.UUID       `json:"participant_id"`
	Amount        decimal.Decimal `json:"amount"`
}

// SumShares adds up share amounts.
func SumShares(shares []Share) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range shares {
		sum = sum.Add(s.Amount)
	}
	return sum
}

// CheckShares compares the share total against the expense amount. The
// mismatch flag is advisory only and never blocks saving or settlement.
func CheckShares(amount decimal.Decimal, shares []Share) (sum decimal.Decimal, mismatch bool) {
	sum = SumShares(shares)
	return sum, sum.Sub(amount).Abs().GreaterThan(Epsilon)
}

func withinEpsilon(d decimal.Decimal) bool {
	return d.Abs().LessThan(Epsilon)
}

// uniqueIDs drops duplicates and nil IDs while keeping first-seen order.
func uniqueIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id == uuid.Nil {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
