package ledger

import (
	"fmt"
	"strings"

	"honoraires/internal/core"
)

// State is the lifecycle position of an expense record.
type State string

const (
	StateClientCharge State = "client_charge"
	StateOfficeCharge State = "office_charge"
	StateShadowed     State = "shadowed" // client original hidden behind an office copy
	StateDeleted      State = "deleted"
)

// OfficeLabelPrefix marks an office expense paid on behalf of a client.
const OfficeLabelPrefix = "[CGM] "

// StateOf derives the state machine position of a stored record.
func StateOf(e core.Expense) State {
	if e.Status == core.StatusShadowed {
		return StateShadowed
	}
	if e.Bucket == core.OfficeCharge {
		return StateOfficeCharge
	}
	return StateClientCharge
}

type TransitionKind string

const (
	AssignToOffice       TransitionKind = "assign_to_office"
	ReturnToClientCharge TransitionKind = "return_to_client_charge"
	Delete               TransitionKind = "delete"
)

// Transition is a planned bucket change. A store commits every step of a
// Transition in a single transaction and re-checks each record's state
// while doing so; a record that moved since it was read aborts the commit.
type Transition struct {
	Kind    TransitionKind
	Subject core.Expense

	// Shadow hides a live client record (AssignToOffice).
	Shadow int64
	// Create is inserted as a live record (AssignToOffice).
	Create *core.Expense
	// Restore returns a shadowed record to live (ReturnToClientCharge).
	Restore int64
	// Remove permanently deletes records, live or shadowed.
	Remove []int64
}

// PlanAssignToOffice moves a client charge to the office bucket. The client
// record is shadowed, not destroyed, so that it can be returned later.
func PlanAssignToOffice(e core.Expense, beneficiary string) (Transition, error) {
	if StateOf(e) != StateClientCharge {
		return Transition{}, fmt.Errorf("%w: assign to office from %s (expense %d)", core.ErrInvalidTransition, StateOf(e), e.ID)
	}
	if strings.TrimSpace(beneficiary) == "" {
		beneficiary = e.Beneficiary
	}
	office := core.Expense{
		Date:        e.Date,
		Label:       OfficeLabel(e.Label, beneficiary),
		Amount:      e.Amount,
		Beneficiary: beneficiary,
		ClientID:    e.ClientID,
		Bucket:      core.OfficeCharge,
		Status:      core.StatusLive,
		OriginID:    e.ID,
	}
	return Transition{
		Kind:    AssignToOffice,
		Subject: e,
		Shadow:  e.ID,
		Create:  &office,
	}, nil
}

// PlanReturnToClientCharge withdraws an office copy and brings back the
// client original it shadows. original is nil when the store has no record
// with the copy's origin id.
func PlanReturnToClientCharge(e core.Expense, original *core.Expense) (Transition, error) {
	if StateOf(e) != StateOfficeCharge || !e.HasProvenance() {
		return Transition{}, fmt.Errorf("%w: return to client from %s without client provenance (expense %d)", core.ErrInvalidTransition, StateOf(e), e.ID)
	}
	if original == nil || original.ID != e.OriginID || StateOf(*original) != StateShadowed {
		return Transition{}, fmt.Errorf("%w: expense %d has no shadowed original %d", core.ErrOriginalChargeMissing, e.ID, e.OriginID)
	}
	return Transition{
		Kind:    ReturnToClientCharge,
		Subject: e,
		Restore: original.ID,
		Remove:  []int64{e.ID},
	}, nil
}

// PlanDelete permanently removes a live record. Deleting an office copy also
// removes the client original it shadows: both stand for the same expense.
func PlanDelete(e core.Expense, original *core.Expense) (Transition, error) {
	switch StateOf(e) {
	case StateClientCharge, StateOfficeCharge:
	default:
		return Transition{}, fmt.Errorf("%w: delete from %s (expense %d)", core.ErrInvalidTransition, StateOf(e), e.ID)
	}
	remove := []int64{e.ID}
	if e.HasProvenance() && original != nil && original.ID == e.OriginID && StateOf(*original) == StateShadowed {
		remove = append(remove, original.ID)
	}
	return Transition{Kind: Delete, Subject: e, Remove: remove}, nil
}

// OfficeLabel builds the provenance-marked label, e.g. "[CGM] Transport (Dupont)".
func OfficeLabel(label, beneficiary string) string {
	label = strings.TrimSpace(label)
	beneficiary = strings.TrimSpace(beneficiary)
	if beneficiary == "" {
		return OfficeLabelPrefix + label
	}
	return fmt.Sprintf("%s%s (%s)", OfficeLabelPrefix, label, beneficiary)
}

// HasOfficeMarker reports whether a label carries the provenance prefix.
func HasOfficeMarker(label string) bool {
	return strings.HasPrefix(label, OfficeLabelPrefix)
}
