package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Method selects how an expense amount is split across its participants.
type Method string

const (
	MethodEqual  Method = "equal"
	MethodManual Method = "manual"
)

// Valid reports whether m is a known split method.
func (m Method) Valid() bool {
	return m == MethodEqual || m == MethodManual
}

// AllocationRequest is the input to Allocate.
type AllocationRequest struct {
	Total        decimal.Decimal
	Participants []uuid.UUID
	Method       Method
	// Existing holds the current per-participant amounts. Only locked
	// participants' values are read, and only for the manual method.
	Existing map[uuid.UUID]decimal.Decimal
	Locked   []uuid.UUID
}

// Allocation is the result of splitting one expense.
type Allocation struct {
	Shares     []Share         `json:"shares"`
	Locked     []uuid.UUID     `json:"locked"`
	Sum        decimal.Decimal `json:"sum"`
	Difference decimal.Decimal `json:"difference"`
	// Mismatch is set when |Sum - Total| exceeds Epsilon. Advisory only.
	Mismatch bool `json:"mismatch"`
	// Valid is false when the input could not be allocated (non-positive
	// total, no participants, unknown method). Shares are then all zero.
	Valid bool `json:"valid"`
}

// Amounts returns the allocation as a participant -> amount map.
func (a Allocation) Amounts() map[uuid.UUID]decimal.Decimal {
	out := make(map[uuid.UUID]decimal.Decimal, len(a.Shares))
	for _, s := range a.Shares {
		out[s.ParticipantID] = s.Amount
	}
	return out
}

// Allocate splits req.Total across req.Participants.
//
// Equal: every participant gets Total/n with no remainder correction.
// Manual: locked participants keep their existing amount verbatim and the
// remainder is spread evenly over the unlocked ones (zero when the remainder is
// not positive). If every participant is locked and the locked amounts do not
// add up to Total, the difference is left in place and reported via Mismatch.
//
// Invalid input never panics or errors; it yields zeroed shares with Valid=false
// so an interactive form can keep rendering while the user types.
func Allocate(req AllocationRequest) Allocation {
	participants := uniqueIDs(req.Participants)

	if !req.Total.IsPositive() || len(participants) == 0 || !req.Method.Valid() {
		return zeroAllocation(participants, req.Total)
	}

	var (
		shares []Share
		locked []uuid.UUID
	)
	switch req.Method {
	case MethodEqual:
		shares = splitEvenly(req.Total, participants)
		locked = []uuid.UUID{}
	case MethodManual:
		shares, locked = allocateManual(req.Total, participants, req.Existing, req.Locked)
	}

	sum, mismatch := CheckShares(req.Total, shares)
	return Allocation{
		Shares:     shares,
		Locked:     locked,
		Sum:        sum,
		Difference: sum.Sub(req.Total),
		Mismatch:   mismatch,
		Valid:      true,
	}
}

func allocateManual(total decimal.Decimal, participants []uuid.UUID, existing map[uuid.UUID]decimal.Decimal, lockedIDs []uuid.UUID) ([]Share, []uuid.UUID) {
	isLocked := make(map[uuid.UUID]bool, len(lockedIDs))
	for _, id := range lockedIDs {
		isLocked[id] = true
	}

	lockedSum := decimal.Zero
	locked := make([]uuid.UUID, 0, len(lockedIDs))
	unlocked := make([]uuid.UUID, 0, len(participants))
	for _, id := range participants {
		if isLocked[id] {
			locked = append(locked, id)
			lockedSum = lockedSum.Add(existing[id])
			continue
		}
		unlocked = append(unlocked, id)
	}

	perUnlocked := decimal.Zero
	if remaining := total.Sub(lockedSum); remaining.IsPositive() && len(unlocked) > 0 {
		perUnlocked = remaining.Div(decimal.NewFromInt(int64(len(unlocked))))
	}

	shares := make([]Share, 0, len(participants))
	for _, id := range participants {
		amount := perUnlocked
		if isLocked[id] {
			amount = existing[id]
		}
		shares = append(shares, Share{ParticipantID: id, Amount: amount})
	}
	return shares, locked
}

func splitEvenly(total decimal.Decimal, participants []uuid.UUID) []Share {
	each := total.Div(decimal.NewFromInt(int64(len(participants))))
	shares := make([]Share, 0, len(participants))
	for _, id := range participants {
		shares = append(shares, Share{ParticipantID: id, Amount: each})
	}
	return shares
}

func zeroAllocation(participants []uuid.UUID, total decimal.Decimal) Allocation {
	shares := make([]Share, 0, len(participants))
	for _, id := range participants {
		shares = append(shares, Share{ParticipantID: id, Amount: decimal.Zero})
	}
	return Allocation{
		Shares:     shares,
		Locked:     []uuid.UUID{},
		Sum:        decimal.Zero,
		Difference: total.Neg(),
		Mismatch:   false,
		Valid:      false,
	}
}
