package settlement

import (
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrUnbalanced means the balances entering Settle drift from zero by
	// more than Epsilon per participant.
	ErrUnbalanced = errors.New("balances do not sum to zero")
	// ErrIterationLimit means the greedy loop ran past its 2n bound.
	ErrIterationLimit = errors.New("settlement iteration limit exceeded")
)

// IntegrityError reports a balance set that cannot be settled. It is distinct
// from an empty transfer list, which means everyone is already square.
type IntegrityError struct {
	Err      error
	Residual decimal.Decimal
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("settlement integrity: %v (residual %s)", e.Err, e.Residual.StringFixed(2))
}

func (e *IntegrityError) Unwrap() error {
	return e.Err
}

// Transfer is one proposed payment from a debtor to a creditor, in ledger
// currency, in whole cents.
type Transfer struct {
	From   uuid.UUID       `json:"from"`
	To     uuid.UUID       `json:"to"`
	Amount decimal.Decimal `json:"amount"`
}

// Settle produces transfers that bring every balance to within Epsilon of zero.
//
// Balances are first rounded to whole cents so that they sum to exactly zero,
// which makes every transfer an exact cent amount. Drift up to Epsilon per
// participant is absorbed by that rounding; anything larger is an
// IntegrityError. It then repeatedly pairs the largest creditor with the
// largest debtor and moves the smaller of the two magnitudes. Ties go to the
// participant that comes first in balances. The result is near-minimal, not
// guaranteed optimal. The input is not modified.
func Settle(balances Balances) ([]Transfer, error) {
	n := len(balances)
	if n == 0 {
		return []Transfer{}, nil
	}

	tolerance := Epsilon.Mul(decimal.NewFromInt(int64(n)))
	if sum := balances.Sum(); sum.Abs().GreaterThan(tolerance) {
		return nil, &IntegrityError{Err: ErrUnbalanced, Residual: sum}
	}

	working := roundToCents(balances)

	transfers := make([]Transfer, 0, n)
	maxIterations := 2 * n
	for iter := 0; ; iter++ {
		creditor, debtor := extremes(working)
		credit := working[creditor]
		debt := working[debtor].Neg()

		creditSettled := credit.LessThan(Epsilon)
		debtSettled := debt.LessThan(Epsilon)
		if creditSettled && debtSettled {
			return transfers, nil
		}
		if creditSettled || debtSettled {
			residual := credit
			if creditSettled {
				residual = debt.Neg()
			}
			return nil, &IntegrityError{Err: ErrUnbalanced, Residual: residual}
		}
		if iter >= maxIterations {
			return nil, &IntegrityError{Err: ErrIterationLimit, Residual: balancesSum(working)}
		}

		amount := decimal.Min(credit, debt)
		working[creditor] = working[creditor].Sub(amount)
		working[debtor] = working[debtor].Add(amount)

		transfers = append(transfers, Transfer{
			From:   balances[debtor].ParticipantID,
			To:     balances[creditor].ParticipantID,
			Amount: amount,
		})
	}
}

// roundToCents returns balances as whole cents summing to exactly zero.
//
// Balances below Epsilon become zero and the rest are rounded to the nearest
// cent. The cents still missing are handed out one at a time, preferring
// balances whose rounding moved them the wrong way, then non-zero balances,
// then the largest rounding error. Zeroed balances only take a cent when
// rounding left them short of it. The order cycles if the drift exceeds one
// cent per candidate. Ties keep input order.
func roundToCents(balances Balances) []decimal.Decimal {
	n := len(balances)
	rounded := make([]decimal.Decimal, n)
	residuals := make([]decimal.Decimal, n)
	noise := make([]bool, n)
	total := decimal.Zero

	for i, b := range balances {
		if withinEpsilon(b.Amount) {
			rounded[i] = decimal.Zero
			noise[i] = true
		} else {
			rounded[i] = b.Amount.Round(2)
		}
		residuals[i] = b.Amount.Sub(rounded[i])
		total = total.Add(rounded[i])
	}

	missing := total.Neg().Shift(2).IntPart()
	if missing == 0 {
		return rounded
	}

	step := Epsilon
	if missing < 0 {
		step = Epsilon.Neg()
		missing = -missing
	}
	// pull is the rounding error in the direction of the adjustment.
	pull := func(i int) decimal.Decimal {
		if step.IsNegative() {
			return residuals[i].Neg()
		}
		return residuals[i]
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := pull(order[a]), pull(order[b])
		if pa.IsPositive() != pb.IsPositive() {
			return pa.IsPositive()
		}
		if noise[order[a]] != noise[order[b]] {
			return !noise[order[a]]
		}
		return pa.GreaterThan(pb)
	})

	candidates := make([]int, 0, n)
	for _, i := range order {
		if !noise[i] || pull(i).IsPositive() {
			candidates = append(candidates, i)
		}
	}
	if len(candidates) == 0 {
		candidates = order
	}

	for k := int64(0); k < missing; k++ {
		i := candidates[k%int64(len(candidates))]
		rounded[i] = rounded[i].Add(step)
	}
	return rounded
}

// extremes returns the index of the largest positive balance and of the most
// negative balance. Strict comparisons keep the first index on ties.
func extremes(values []decimal.Decimal) (maxIdx, minIdx int) {
	for i := 1; i < len(values); i++ {
		if values[i].GreaterThan(values[maxIdx]) {
			maxIdx = i
		}
		if values[i].LessThan(values[minIdx]) {
			minIdx = i
		}
	}
	return maxIdx, minIdx
}

func balancesSum(values []decimal.Decimal) decimal.Decimal {
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum
}

// ApplyTransfers returns a copy of balances with every transfer applied:
// the payer's balance rises and the receiver's falls.
func ApplyTransfers(balances Balances, transfers []Transfer) Balances {
	out := make(Balances, len(balances))
	copy(out, balances)
	index := make(map[uuid.UUID]int, len(out))
	for i, b := range out {
		index[b.ParticipantID] = i
	}
	for _, t := range transfers {
		if i, ok := index[t.From]; ok {
			out[i].Amount = out[i].Amount.Add(t.Amount)
		}
		if i, ok := index[t.To]; ok {
			out[i].Amount = out[i].Amount.Sub(t.Amount)
		}
	}
	return out
}
