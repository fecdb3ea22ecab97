package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"honoraires/internal/core"
)

func clientExpense(id int64) core.Expense {
	return core.Expense{
		ID:          id,
		Date:        core.NewDate(2024, 3, 5),
		Label:       "Transport",
		Amount:      core.MustParseAmount("12.500"),
		Beneficiary: "Dupont",
		ClientID:    3,
		Bucket:      core.ClientCharge,
		Status:      core.StatusLive,
	}
}

// apply mimics what a store does with a committed transition.
func apply(t *testing.T, records map[int64]core.Expense, tr Transition, nextID int64) {
	t.Helper()
	if tr.Shadow != 0 {
		e := records[tr.Shadow]
		e.Status = core.StatusShadowed
		records[tr.Shadow] = e
	}
	if tr.Create != nil {
		created := *tr.Create
		created.ID = nextID
		records[nextID] = created
	}
	if tr.Restore != 0 {
		e := records[tr.Restore]
		e.Status = core.StatusLive
		records[tr.Restore] = e
	}
	for _, id := range tr.Remove {
		delete(records, id)
	}
}

func liveCount(records map[int64]core.Expense) int {
	n := 0
	for _, e := range records {
		if e.IsLive() {
			n++
		}
	}
	return n
}

func TestAssignToOffice_TransportDupont(t *testing.T) {
	orig := clientExpense(10)

	tr, err := PlanAssignToOffice(orig, "Dupont")
	require.NoError(t, err)

	assert.Equal(t, AssignToOffice, tr.Kind)
	assert.Equal(t, int64(10), tr.Shadow)
	require.NotNil(t, tr.Create)
	assert.Equal(t, "[CGM] Transport (Dupont)", tr.Create.Label)
	assert.Equal(t, core.OfficeCharge, tr.Create.Bucket)
	assert.Equal(t, core.StatusLive, tr.Create.Status)
	assert.Equal(t, int64(10), tr.Create.OriginID)
	assert.Equal(t, orig.Amount, tr.Create.Amount)
	assert.Equal(t, orig.Date, tr.Create.Date)
	assert.True(t, HasOfficeMarker(tr.Create.Label))
}

func TestAssignThenReturnRestoresOriginal(t *testing.T) {
	orig := clientExpense(10)
	records := map[int64]core.Expense{10: orig}

	assign, err := PlanAssignToOffice(orig, "Dupont")
	require.NoError(t, err)
	apply(t, records, assign, 11)

	assert.Equal(t, 1, liveCount(records))
	assert.Equal(t, StateShadowed, StateOf(records[10]))
	assert.Equal(t, StateOfficeCharge, StateOf(records[11]))

	shadowed := records[10]
	ret, err := PlanReturnToClientCharge(records[11], &shadowed)
	require.NoError(t, err)
	apply(t, records, ret, 0)

	require.Len(t, records, 1)
	assert.Equal(t, orig, records[10])
	assert.Equal(t, 1, liveCount(records))
}

func TestReturnToClientCharge_Errors(t *testing.T) {
	office := core.Expense{
		ID: 11, Date: core.NewDate(2024, 3, 5), Label: "[CGM] Transport (Dupont)",
		Amount: core.MustParseAmount("12.5"), Bucket: core.OfficeCharge, Status: core.StatusLive, OriginID: 10,
	}
	shadowed := clientExpense(10)
	shadowed.Status = core.StatusShadowed

	t.Run("from client charge", func(t *testing.T) {
		_, err := PlanReturnToClientCharge(clientExpense(10), nil)
		require.ErrorIs(t, err, core.ErrInvalidTransition)
	})

	t.Run("office expense without provenance", func(t *testing.T) {
		native := office
		native.OriginID = 0
		_, err := PlanReturnToClientCharge(native, nil)
		require.ErrorIs(t, err, core.ErrInvalidTransition)
	})

	t.Run("original gone", func(t *testing.T) {
		_, err := PlanReturnToClientCharge(office, nil)
		require.ErrorIs(t, err, core.ErrOriginalChargeMissing)
	})

	t.Run("original not shadowed", func(t *testing.T) {
		live := clientExpense(10)
		_, err := PlanReturnToClientCharge(office, &live)
		require.ErrorIs(t, err, core.ErrOriginalChargeMissing)
	})

	t.Run("ok", func(t *testing.T) {
		tr, err := PlanReturnToClientCharge(office, &shadowed)
		require.NoError(t, err)
		assert.Equal(t, int64(10), tr.Restore)
		assert.Equal(t, []int64{11}, tr.Remove)
	})
}

func TestAssignToOffice_RejectsNonClientStates(t *testing.T) {
	office := clientExpense(1)
	office.Bucket = core.OfficeCharge

	shadowed := clientExpense(2)
	shadowed.Status = core.StatusShadowed

	for _, e := range []core.Expense{office, shadowed} {
		_, err := PlanAssignToOffice(e, "x")
		require.ErrorIs(t, err, core.ErrInvalidTransition)
	}
}

func TestAssignToOffice_FallsBackToStoredBeneficiary(t *testing.T) {
	tr, err := PlanAssignToOffice(clientExpense(4), "  ")
	require.NoError(t, err)
	assert.Equal(t, "[CGM] Transport (Dupont)", tr.Create.Label)

	anon := clientExpense(5)
	anon.Beneficiary = ""
	tr, err = PlanAssignToOffice(anon, "")
	require.NoError(t, err)
	assert.Equal(t, "[CGM] Transport", tr.Create.Label)
}

func TestPlanDelete(t *testing.T) {
	t.Run("client charge", func(t *testing.T) {
		tr, err := PlanDelete(clientExpense(1), nil)
		require.NoError(t, err)
		assert.Equal(t, []int64{1}, tr.Remove)
	})

	t.Run("office copy takes its original along", func(t *testing.T) {
		records := map[int64]core.Expense{10: clientExpense(10)}
		assign, err := PlanAssignToOffice(records[10], "Dupont")
		require.NoError(t, err)
		apply(t, records, assign, 11)

		shadowed := records[10]
		tr, err := PlanDelete(records[11], &shadowed)
		require.NoError(t, err)
		apply(t, records, tr, 0)
		assert.Empty(t, records)
	})

	t.Run("shadowed record", func(t *testing.T) {
		e := clientExpense(1)
		e.Status = core.StatusShadowed
		_, err := PlanDelete(e, nil)
		require.ErrorIs(t, err, core.ErrInvalidTransition)
	})
}
