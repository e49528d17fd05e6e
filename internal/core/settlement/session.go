package settlement

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AllocationState is the editing state of one expense form. Locks live here
// rather than in the allocator: every transition takes a state and returns a
// fresh one, leaving the input untouched.
type AllocationState struct {
	Total        decimal.Decimal
	Participants []uuid.UUID
	Method       Method
	Shares       map[uuid.UUID]decimal.Decimal
	Locked       []uuid.UUID
	Allocation   Allocation
}

// NewAllocationState starts an editing session with no locks.
func NewAllocationState(total decimal.Decimal, participants []uuid.UUID, method Method) AllocationState {
	return reallocate(AllocationState{
		Total:        total,
		Participants: uniqueIDs(participants),
		Method:       method,
	})
}

// ResumeAllocationState rebuilds a session from state held by the client
// (shares typed so far and the participants locked by those edits).
func ResumeAllocationState(total decimal.Decimal, participants []uuid.UUID, method Method, shares map[uuid.UUID]decimal.Decimal, locked []uuid.UUID) AllocationState {
	state := AllocationState{
		Total:        total,
		Participants: uniqueIDs(participants),
		Method:       method,
		Shares:       shares,
		Locked:       locked,
	}
	return reallocate(state.clone())
}

// EditShare records a manually typed amount for one participant. The
// participant becomes locked for the rest of the session and the remainder is
// redistributed among participants that are still unlocked. Editing a share
// implies the manual method.
func EditShare(state AllocationState, participantID uuid.UUID, amount decimal.Decimal) AllocationState {
	next := state.clone()
	if !containsID(next.Participants, participantID) {
		return reallocate(next)
	}
	next.Method = MethodManual
	next.Shares[participantID] = amount
	if !containsID(next.Locked, participantID) {
		next.Locked = append(next.Locked, participantID)
	}
	return reallocate(next)
}

// SetParticipants replaces the participant set. Any change to the set clears
// every lock.
func SetParticipants(state AllocationState, participants []uuid.UUID) AllocationState {
	next := state.clone()
	next.Participants = uniqueIDs(participants)
	next.Locked = nil
	return reallocate(next)
}

// SetMethod switches the split method. Going back to equal clears every lock.
func SetMethod(state AllocationState, method Method) AllocationState {
	next := state.clone()
	next.Method = method
	if method == MethodEqual {
		next.Locked = nil
	}
	return reallocate(next)
}

// SetTotal changes the expense amount and keeps existing locks.
func SetTotal(state AllocationState, total decimal.Decimal) AllocationState {
	next := state.clone()
	next.Total = total
	return reallocate(next)
}

func reallocate(state AllocationState) AllocationState {
	state.Allocation = Allocate(AllocationRequest{
		Total:        state.Total,
		Participants: state.Participants,
		Method:       state.Method,
		Existing:     state.Shares,
		Locked:       state.Locked,
	})
	// An invalid total keeps the previous locks so a half-typed amount does
	// not discard the user's manual edits.
	if state.Allocation.Valid {
		state.Locked = append([]uuid.UUID(nil), state.Allocation.Locked...)
		state.Shares = state.Allocation.Amounts()
	}
	if state.Shares == nil {
		state.Shares = make(map[uuid.UUID]decimal.Decimal)
	}
	return state
}

func (s AllocationState) clone() AllocationState {
	shares := make(map[uuid.UUID]decimal.Decimal, len(s.Shares))
	for id, amount := range s.Shares {
		shares[id] = amount
	}
	return AllocationState{
		Total:        s.Total,
		Participants: append([]uuid.UUID(nil), s.Participants...),
		Method:       s.Method,
		Shares:       shares,
		Locked:       append([]uuid.UUID(nil), s.Locked...),
	}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
