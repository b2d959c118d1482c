package services

import (
	"net/http"
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-order-system/internal/authz"
	"job-order-system/internal/dto"
	"job-order-system/internal/entities"
	"job-order-system/pkg/constants"
	apperrors "job-order-system/pkg/errors"
)

const (
	appraiserEmployee  uint64 = 10
	teamLeaderEmployee uint64 = 20
	driverEmployee     uint64 = 21
	haulerEmployee     uint64 = 22
)

func fullChecklist() map[string]bool {
	out := map[string]bool{}
	for _, item := range constants.SafetyChecklistItems {
		out[item] = true
	}
	return out
}

func (env *testEnv) seedCrew() {
	for _, id := range []uint64{appraiserEmployee, teamLeaderEmployee, driverEmployee, haulerEmployee} {
		env.addEmployee(id, constants.EmployeeActive)
	}
	env.trucks.rows[1] = &entities.Truck{ID: 1, PlateNumber: "ABC-1234", Status: constants.TruckAvailable}
}

func haulingPayload() dto.AssignHaulingPersonnelDTO {
	return dto.AssignHaulingPersonnelDTO{
		TruckID:      1,
		TeamLeaderID: teamLeaderEmployee,
		HaulingDate:  "2025-03-21",
		Personnel: []dto.HaulingPersonnelDTO{
			{EmployeeID: driverEmployee, Role: constants.HaulingRoleDriver},
			{EmployeeID: haulerEmployee, Role: constants.HaulingRoleHauler},
		},
	}
}

// successfulWM доводит job order до successful через оценку и предложение.
func successfulWM(t *testing.T, env *testEnv) uint64 {
	t.Helper()
	jo := createWM(t, env, constants.StatusForViewing)
	dispatcher := as(dispatcherID, authz.RoleDispatcher)
	head := as(headID, authz.RoleHeadFrontliner)

	_, err := env.wasteSvc.AssignAppraisers(dispatcher, jo.ID, dto.AssignAppraisersDTO{EmployeeIDs: []uint64{appraiserEmployee}})
	require.NoError(t, err)

	res, err := env.wasteSvc.SubmitAppraisal(as(50, authz.RoleRegular, appraiserEmployee), jo.ID, dto.SubmitAppraisalDTO{Notes: "Two drums of used oil"})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusForProposal, res.Status)

	res, err = env.wasteSvc.SubmitProposal(head, jo.ID, dto.SubmitProposalDTO{Amount: decimal.RequireFromString("15000.50")})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusForApproval, res.Status)

	res, err = env.wasteSvc.ApproveProposal(head, jo.ID)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusSuccessful, res.Status)
	return jo.ID
}

func TestWasteManagement_FullFlow(t *testing.T) {
	env := newTestEnv(t)
	env.seedCrew()
	id := successfulWM(t, env)
	dispatcher := as(dispatcherID, authz.RoleDispatcher)
	leader := as(teamLeaderUserID, authz.RoleTeamLeader, teamLeaderEmployee)

	wm := env.waste.rows[env.jobOrders.rows[id].Serviceable.ID]
	assert.Equal(t, "Two drums of used oil", wm.AppraisalNotes.String)
	assert.True(t, wm.ProposalApprovedAt.Valid)

	hauling, err := env.wasteSvc.AssignHaulingPersonnel(dispatcher, id, haulingPayload())
	require.NoError(t, err)
	assert.Equal(t, constants.HaulingPending, hauling.Status)
	assert.Len(t, hauling.Personnel, 2)

	_, err = env.wasteSvc.MarkInProgress(dispatcher, id)
	var httpErr *apperrors.HttpError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusConflict, httpErr.Code)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, constants.StatusSuccessful, env.jobOrders.rows[id].Status)

	// бригадир видит job order, пока чек-лист открыт
	_, err = env.jobOrderSvc.FindJobOrder(leader, id)
	require.NoError(t, err)

	hauling, err = env.wasteSvc.CompleteSafetyChecklist(leader, hauling.ID, dto.CompleteSafetyChecklistDTO{Checklist: fullChecklist()})
	require.NoError(t, err)
	assert.True(t, hauling.ChecklistDone())
	assert.Equal(t, teamLeaderUserID, hauling.ChecklistCompletedBy.Uint64)

	_, err = env.jobOrderSvc.FindJobOrder(leader, id)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	res, err := env.wasteSvc.MarkInProgress(dispatcher, id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusInProgress, res.Status)
	assert.Equal(t, constants.HaulingInProgress, env.haulings.rows[hauling.ID].Status)

	res, err = env.wasteSvc.Hold(dispatcher, id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusOnHold, res.Status)
	res, err = env.wasteSvc.Resume(dispatcher, id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusInProgress, res.Status)

	res, err = env.wasteSvc.Complete(dispatcher, id)
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, res.Status)
	assert.Equal(t, constants.HaulingDone, env.haulings.rows[hauling.ID].Status)

	_, err = env.wasteSvc.Hold(dispatcher, id)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestWasteManagement_KindMismatch(t *testing.T) {
	env := newTestEnv(t)
	it := createIT(t, env)

	_, err := env.wasteSvc.ApproveProposal(as(headID, authz.RoleHeadFrontliner), it.ID)
	assert.ErrorIs(t, err, apperrors.ErrKindMismatch)
	assert.Equal(t, constants.StatusForCheckUp, env.jobOrders.rows[it.ID].Status)
}

func TestWasteManagement_WrongStatus(t *testing.T) {
	env := newTestEnv(t)
	jo := createWM(t, env, "")

	_, err := env.wasteSvc.ApproveProposal(as(headID, authz.RoleHeadFrontliner), jo.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
}

func TestSubmitAppraisal_OnlyAppraiserOrPermission(t *testing.T) {
	env := newTestEnv(t)
	env.seedCrew()
	jo := createWM(t, env, constants.StatusForViewing)
	_, err := env.wasteSvc.AssignAppraisers(as(dispatcherID, authz.RoleDispatcher), jo.ID, dto.AssignAppraisersDTO{EmployeeIDs: []uint64{appraiserEmployee}})
	require.NoError(t, err)

	_, err = env.wasteSvc.SubmitAppraisal(as(51, authz.RoleRegular, driverEmployee), jo.ID, dto.SubmitAppraisalDTO{Notes: "x"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.Equal(t, constants.StatusForViewing, env.jobOrders.rows[jo.ID].Status)

	res, err := env.wasteSvc.SubmitAppraisal(as(consultantID, authz.RoleConsultant), jo.ID, dto.SubmitAppraisalDTO{Notes: "ok"})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusForProposal, res.Status)
}

func TestAssignAppraisers_InactiveEmployee(t *testing.T) {
	env := newTestEnv(t)
	env.addEmployee(40, constants.EmployeeInactive)
	jo := createWM(t, env, constants.StatusForViewing)

	_, err := env.wasteSvc.AssignAppraisers(as(dispatcherID, authz.RoleDispatcher), jo.ID, dto.AssignAppraisersDTO{EmployeeIDs: []uint64{40}})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "employee_ids")
	assert.Empty(t, env.waste.rows[env.jobOrders.rows[jo.ID].Serviceable.ID].AppraiserIDs)
}

func TestSubmitProposal_AmountMustBePositive(t *testing.T) {
	env := newTestEnv(t)
	jo := createWM(t, env, "")

	_, err := env.wasteSvc.SubmitProposal(as(headID, authz.RoleHeadFrontliner), jo.ID, dto.SubmitProposalDTO{
		Amount: decimal.Zero,
		Notes:  null.StringFrom("free"),
	})
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)
	assert.Equal(t, constants.StatusForProposal, env.jobOrders.rows[jo.ID].Status)
}

func TestAssignHaulingPersonnel_Validation(t *testing.T) {
	env := newTestEnv(t)
	env.seedCrew()
	id := successfulWM(t, env)
	dispatcher := as(dispatcherID, authz.RoleDispatcher)

	t.Run("duplicate crew member", func(t *testing.T) {
		p := haulingPayload()
		p.Personnel = append(p.Personnel, dto.HaulingPersonnelDTO{EmployeeID: driverEmployee, Role: constants.HaulingRoleHauler})
		_, err := env.wasteSvc.AssignHaulingPersonnel(dispatcher, id, p)
		var verr *apperrors.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
	t.Run("unknown truck", func(t *testing.T) {
		p := haulingPayload()
		p.TruckID = 99
		_, err := env.wasteSvc.AssignHaulingPersonnel(dispatcher, id, p)
		var verr *apperrors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "truck_id")
	})
	t.Run("truck in maintenance", func(t *testing.T) {
		env.trucks.rows[2] = &entities.Truck{ID: 2, Status: constants.TruckMaintenance}
		p := haulingPayload()
		p.TruckID = 2
		_, err := env.wasteSvc.AssignHaulingPersonnel(dispatcher, id, p)
		var verr *apperrors.ValidationError
		assert.ErrorAs(t, err, &verr)
	})
	t.Run("bad date", func(t *testing.T) {
		p := haulingPayload()
		p.HaulingDate = "21.03.2025"
		_, err := env.wasteSvc.AssignHaulingPersonnel(dispatcher, id, p)
		var verr *apperrors.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "hauling_date")
	})
	t.Run("frontliner cannot assign", func(t *testing.T) {
		_, err := env.wasteSvc.AssignHaulingPersonnel(as(frontlinerID, authz.RoleFrontliner), id, haulingPayload())
		assert.ErrorIs(t, err, apperrors.ErrForbidden)
	})
	assert.Empty(t, env.haulings.rows)
}

func TestCompleteSafetyChecklist_Rules(t *testing.T) {
	env := newTestEnv(t)
	env.seedCrew()
	id := successfulWM(t, env)
	hauling, err := env.wasteSvc.AssignHaulingPersonnel(as(dispatcherID, authz.RoleDispatcher), id, haulingPayload())
	require.NoError(t, err)
	leader := as(teamLeaderUserID, authz.RoleTeamLeader, teamLeaderEmployee)

	partial := fullChecklist()
	partial["spill_kit_loaded"] = false
	_, err = env.wasteSvc.CompleteSafetyChecklist(leader, hauling.ID, dto.CompleteSafetyChecklistDTO{Checklist: partial})
	var verr *apperrors.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "safety_checklist.spill_kit_loaded")

	extra := fullChecklist()
	extra["coffee_brewed"] = true
	_, err = env.wasteSvc.CompleteSafetyChecklist(leader, hauling.ID, dto.CompleteSafetyChecklistDTO{Checklist: extra})
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "safety_checklist.coffee_brewed")

	// другой бригадир без права
	_, err = env.wasteSvc.CompleteSafetyChecklist(as(60, authz.RoleRegular, driverEmployee), hauling.ID, dto.CompleteSafetyChecklistDTO{Checklist: fullChecklist()})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = env.wasteSvc.CompleteSafetyChecklist(leader, hauling.ID, dto.CompleteSafetyChecklistDTO{Checklist: fullChecklist()})
	require.NoError(t, err)

	_, err = env.wasteSvc.CompleteSafetyChecklist(leader, hauling.ID, dto.CompleteSafetyChecklistDTO{Checklist: fullChecklist()})
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestAssignHaulingPersonnel_WhileInProgress(t *testing.T) {
	env := newTestEnv(t)
	env.seedCrew()
	id := successfulWM(t, env)
	dispatcher := as(dispatcherID, authz.RoleDispatcher)
	first, err := env.wasteSvc.AssignHaulingPersonnel(dispatcher, id, haulingPayload())
	require.NoError(t, err)
	_, err = env.wasteSvc.CompleteSafetyChecklist(as(teamLeaderUserID, authz.RoleTeamLeader, teamLeaderEmployee), first.ID, dto.CompleteSafetyChecklistDTO{Checklist: fullChecklist()})
	require.NoError(t, err)
	_, err = env.wasteSvc.MarkInProgress(dispatcher, id)
	require.NoError(t, err)

	second, err := env.wasteSvc.AssignHaulingPersonnel(dispatcher, id, haulingPayload())
	require.NoError(t, err)
	assert.Equal(t, constants.HaulingInProgress, second.Status)
}

func TestCompleteSafetyChecklist_AuthorizesLockedCrew(t *testing.T) {
	env := newTestEnv(t)
	env.seedCrew()
	id := successfulWM(t, env)
	hauling, err := env.wasteSvc.AssignHaulingPersonnel(as(dispatcherID, authz.RoleDispatcher), id, haulingPayload())
	require.NoError(t, err)

	// бригадира меняют между чтением выезда и блокировкой строки
	env.haulings.beforeLock = func(h *entities.Hauling) { h.TeamLeaderID = haulerEmployee }
	formerLeader := as(61, authz.RoleRegular, teamLeaderEmployee)
	_, err = env.wasteSvc.CompleteSafetyChecklist(formerLeader, hauling.ID, dto.CompleteSafetyChecklistDTO{Checklist: fullChecklist()})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.False(t, env.haulings.rows[hauling.ID].ChecklistDone())

	// переназначение зафиксировано другой транзакцией, откат его не трогает
	env.haulings.beforeLock = nil
	env.haulings.rows[hauling.ID].TeamLeaderID = haulerEmployee
	newLeader := as(62, authz.RoleRegular, haulerEmployee)
	done, err := env.wasteSvc.CompleteSafetyChecklist(newLeader, hauling.ID, dto.CompleteSafetyChecklistDTO{Checklist: fullChecklist()})
	require.NoError(t, err)
	assert.True(t, done.ChecklistDone())
}
