package services

import (
	"net/http"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-order-system/internal/authz"
	"job-order-system/internal/dto"
	"job-order-system/internal/entities"
	"job-order-system/pkg/constants"
	apperrors "job-order-system/pkg/errors"
	"job-order-system/pkg/types"
)

// correctableWM - WM job order в статусе, где корректировки уже разрешены.
func correctableWM(t *testing.T, env *testEnv) *dto.JobOrderDTO {
	t.Helper()
	jo := createWM(t, env, "")
	require.NoError(t, env.jobOrders.UpdateStatus(t.Context(), nil, jo.ID, constants.StatusSuccessful))
	return jo
}

func submit(env *testEnv, ticket string, changes map[string]interface{}) (*entities.Correction, error) {
	return env.correctionSvc.SubmitCorrection(as(frontlinerID, authz.RoleFrontliner), ticket, dto.SubmitCorrectionDTO{
		Changes: changes,
		Reason:  "Typo in the intake form",
	})
}

func TestSubmitCorrection_StoresOnlyChangedFields(t *testing.T) {
	env := newTestEnv(t)
	jo := correctableWM(t, env)

	c, err := submit(env, jo.TicketCode, map[string]interface{}{
		"client_name":    "Acme Manufacturing Inc.",
		"address":        "12 Rizal Ave, Manila",
		"scheduled_date": "2025-03-25",
	})
	require.NoError(t, err)

	assert.Equal(t, constants.CorrectionPending, c.Status)
	assert.Equal(t, constants.CorrectionTargetJobOrder, c.Target)
	assert.Equal(t, jo.TicketCode, c.TicketCode)
	assert.ElementsMatch(t, []string{"client_name", "scheduled_date"}, c.Changes.Fields())
	assert.Equal(t, "Acme Manufacturing", c.Changes.Before["client_name"])
	assert.Equal(t, "2025-03-20", c.Changes.Before["scheduled_date"])
	assert.Equal(t, "2025-03-25", c.Changes.After["scheduled_date"])
	assert.Len(t, c.Changes.Before, len(c.Changes.After))
	for k := range c.Changes.After {
		assert.Contains(t, c.Changes.Before, k)
	}

	// до утверждения запись не меняется
	assert.Equal(t, "Acme Manufacturing", env.jobOrders.rows[jo.ID].ClientName)
}

func TestSubmitCorrection_Rejections(t *testing.T) {
	env := newTestEnv(t)
	jo := correctableWM(t, env)
	var verr *apperrors.ValidationError

	t.Run("nothing differs", func(t *testing.T) {
		_, err := submit(env, jo.TicketCode, map[string]interface{}{"client_name": "Acme Manufacturing"})
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "changes")
	})
	t.Run("field not in allowlist", func(t *testing.T) {
		_, err := submit(env, jo.TicketCode, map[string]interface{}{"status": constants.StatusCompleted, "error_count": 0.0})
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "changes.status")
		assert.Contains(t, verr.Fields, "changes.error_count")
	})
	t.Run("invalid value", func(t *testing.T) {
		_, err := submit(env, jo.TicketCode, map[string]interface{}{"scheduled_time": "9am", "contact_number": "12"})
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "changes.scheduled_time")
		assert.Contains(t, verr.Fields, "changes.contact_number")
	})
	t.Run("not the creator", func(t *testing.T) {
		_, err := env.correctionSvc.SubmitCorrection(as(otherFrontliner, authz.RoleFrontliner), jo.TicketCode, dto.SubmitCorrectionDTO{
			Changes: map[string]interface{}{"client_name": "X"},
			Reason:  "mine now",
		})
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
	t.Run("unknown ticket", func(t *testing.T) {
		_, err := submit(env, "JO-00000000-NOPE00", map[string]interface{}{"client_name": "X"})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
	assert.Empty(t, env.corrections.rows)
}

func TestSubmitCorrection_StatusGate(t *testing.T) {
	env := newTestEnv(t)
	jo := createWM(t, env, "")

	_, err := submit(env, jo.TicketCode, map[string]interface{}{"client_name": "X"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition, "initial status is edited directly")

	require.NoError(t, env.jobOrders.UpdateStatus(t.Context(), nil, jo.ID, constants.StatusDropped))
	_, err = submit(env, jo.TicketCode, map[string]interface{}{"client_name": "X"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestSubmitCorrection_OnePendingPerTarget(t *testing.T) {
	env := newTestEnv(t)
	jo := correctableWM(t, env)

	_, err := submit(env, jo.TicketCode, map[string]interface{}{"client_name": "First"})
	require.NoError(t, err)

	_, err = submit(env, jo.TicketCode, map[string]interface{}{"client_name": "Second"})
	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Code)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	// другая цель - отдельная очередь
	_, err = env.correctionSvc.SubmitCorrection(as(frontlinerID, authz.RoleFrontliner), jo.TicketCode, dto.SubmitCorrectionDTO{
		Target:  constants.CorrectionTargetServiceable,
		Changes: map[string]interface{}{"unit": "tons"},
		Reason:  "Wrong unit",
	})
	assert.NoError(t, err)
	assert.Len(t, env.corrections.rows, 2)
}

func TestResolveCorrection_ApproveAppliesChanges(t *testing.T) {
	env := newTestEnv(t)
	jo := correctableWM(t, env)
	c, err := submit(env, jo.TicketCode, map[string]interface{}{
		"client_name":    "Acme Manufacturing Inc.",
		"scheduled_date": "2025-03-25",
		"email":          nil,
	})
	require.NoError(t, err)

	resolved, err := env.correctionSvc.ResolveCorrection(as(headID, authz.RoleHeadFrontliner), c.ID, dto.ResolveCorrectionDTO{
		Status:  constants.CorrectionApproved,
		Remarks: null.StringFrom("ok"),
	})
	require.NoError(t, err)
	assert.Equal(t, constants.CorrectionApproved, resolved.Status)
	assert.Equal(t, headID, resolved.ResolvedBy.Uint64)
	assert.Equal(t, testNow, resolved.ResolvedAt.Time)

	row := env.jobOrders.rows[jo.ID]
	assert.Equal(t, "Acme Manufacturing Inc.", row.ClientName)
	assert.Equal(t, time.Date(2025, 3, 25, 0, 0, 0, 0, time.UTC), row.ScheduledDate)
	assert.False(t, row.Email.Valid)
	assert.Equal(t, 1, row.ErrorCount)

	_, err = env.correctionSvc.ResolveCorrection(as(headID, authz.RoleHeadFrontliner), c.ID, dto.ResolveCorrectionDTO{Status: constants.CorrectionRejected})
	assert.ErrorIs(t, err, apperrors.ErrAlreadyResolved)
	assert.Equal(t, 1, env.jobOrders.rows[jo.ID].ErrorCount)
}

func TestResolveCorrection_RejectChangesNothing(t *testing.T) {
	env := newTestEnv(t)
	jo := correctableWM(t, env)
	c, err := submit(env, jo.TicketCode, map[string]interface{}{"client_name": "Other"})
	require.NoError(t, err)

	resolved, err := env.correctionSvc.ResolveCorrection(as(headID, authz.RoleHeadFrontliner), c.ID, dto.ResolveCorrectionDTO{Status: constants.CorrectionRejected})
	require.NoError(t, err)
	assert.Equal(t, constants.CorrectionRejected, resolved.Status)
	assert.Equal(t, "Acme Manufacturing", env.jobOrders.rows[jo.ID].ClientName)
	assert.Zero(t, env.jobOrders.rows[jo.ID].ErrorCount)
}

func TestResolveCorrection_Authorization(t *testing.T) {
	env := newTestEnv(t)
	jo := correctableWM(t, env)
	c, err := submit(env, jo.TicketCode, map[string]interface{}{"client_name": "Other"})
	require.NoError(t, err)

	_, err = env.correctionSvc.ResolveCorrection(as(frontlinerID, authz.RoleFrontliner), c.ID, dto.ResolveCorrectionDTO{Status: constants.CorrectionApproved})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, constants.CorrectionPending, env.corrections.rows[c.ID].Status)

	_, err = env.correctionSvc.ResolveCorrection(as(headID, authz.RoleHeadFrontliner), c.ID, dto.ResolveCorrectionDTO{Status: "maybe"})
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)

	// ITAdmin подаёт свою корректировку и не может её утвердить
	it := createIT(t, env)
	require.NoError(t, env.jobOrders.UpdateStatus(t.Context(), nil, it.ID, constants.StatusForFinalService))
	env.jobOrders.rows[it.ID].CreatedBy = adminID
	own, err := env.correctionSvc.SubmitCorrection(as(adminID, authz.RoleITAdmin), it.TicketCode, dto.SubmitCorrectionDTO{
		Changes: map[string]interface{}{"remarks": "Call before arriving"},
		Reason:  "Missing remark",
	})
	require.NoError(t, err)
	_, err = env.correctionSvc.ResolveCorrection(as(adminID, authz.RoleITAdmin), own.ID, dto.ResolveCorrectionDTO{Status: constants.CorrectionApproved})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, constants.CorrectionPending, env.corrections.rows[own.ID].Status)
}

func TestResolveCorrection_Serviceable(t *testing.T) {
	env := newTestEnv(t)
	jo := correctableWM(t, env)
	c, err := env.correctionSvc.SubmitCorrection(as(frontlinerID, authz.RoleFrontliner), jo.TicketCode, dto.SubmitCorrectionDTO{
		Target: constants.CorrectionTargetServiceable,
		Changes: map[string]interface{}{
			"estimated_volume":  20.0,
			"unit":              "m3",
			"waste_description": "Used oil",
		},
		Reason: "Volume re-measured",
	})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"estimated_volume", "waste_description"}, c.Changes.Fields())
	assert.Equal(t, "12.5", c.Changes.Before["estimated_volume"])
	assert.Nil(t, c.Changes.Before["waste_description"])

	_, err = env.correctionSvc.ResolveCorrection(as(headID, authz.RoleHeadFrontliner), c.ID, dto.ResolveCorrectionDTO{Status: constants.CorrectionApproved})
	require.NoError(t, err)

	wm := env.waste.rows[jo.ServiceableID]
	assert.True(t, decimal.NewFromInt(20).Equal(wm.EstimatedVolume))
	assert.Equal(t, "Used oil", wm.WasteDescription)
	assert.Equal(t, 1, env.jobOrders.rows[jo.ID].ErrorCount)
}

func TestGetCorrections_Visibility(t *testing.T) {
	env := newTestEnv(t)
	jo := correctableWM(t, env)
	_, err := submit(env, jo.TicketCode, map[string]interface{}{"client_name": "Other"})
	require.NoError(t, err)

	list, total, err := env.correctionSvc.GetCorrections(as(headID, authz.RoleHeadFrontliner), types.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, list, 1)

	_, _, err = env.correctionSvc.GetCorrections(as(dispatcherID, authz.RoleDispatcher), types.Filter{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestDiffChanges_Canonical(t *testing.T) {
	before := map[string]interface{}{
		"scheduled_time": "09:30",
		"remarks":        nil,
	}
	changes, err := diffChanges(jobOrderCorrectableFields, before, map[string]interface{}{
		"scheduled_time": " 09:30 ",
		"remarks":        "",
	})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr, "trimmed and blank values equal the current ones")
	assert.Empty(t, changes.After)

	changes, err = diffChanges(jobOrderCorrectableFields, before, map[string]interface{}{"remarks": "Gate code 1234"})
	require.NoError(t, err)
	assert.Nil(t, changes.Before["remarks"])
	assert.Equal(t, "Gate code 1234", changes.After["remarks"])
}
