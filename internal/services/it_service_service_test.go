package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job-order-system/internal/authz"
	"job-order-system/internal/dto"
	"job-order-system/pkg/constants"
	apperrors "job-order-system/pkg/errors"
)

const technicianEmployee uint64 = 30

func TestITService_Flow(t *testing.T) {
	env := newTestEnv(t)
	env.addEmployee(technicianEmployee, constants.EmployeeActive)
	jo := createIT(t, env)
	require.Equal(t, constants.StatusForCheckUp, jo.Status)

	technician := as(70, authz.RoleRegular, technicianEmployee)
	stranger := as(71, authz.RoleRegular, 31)

	// без назначенного техника отчёт может сдать только обладатель права
	_, err := env.itSvc.SubmitInitialReport(technician, jo.ID, dto.OnsiteReportDTO{Report: "Rollers worn"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	_, err = env.itSvc.AssignTechnician(as(headID, authz.RoleHeadFrontliner), jo.ID, dto.AssignTechnicianDTO{TechnicianID: technicianEmployee})
	require.NoError(t, err)

	_, err = env.itSvc.SubmitInitialReport(stranger, jo.ID, dto.OnsiteReportDTO{Report: "Rollers worn"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	res, err := env.itSvc.SubmitInitialReport(technician, jo.ID, dto.OnsiteReportDTO{Report: "Rollers worn"})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusForFinalService, res.Status)

	_, err = env.itSvc.SubmitInitialReport(technician, jo.ID, dto.OnsiteReportDTO{Report: "again"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)

	res, err = env.itSvc.SubmitFinalReport(technician, jo.ID, dto.OnsiteReportDTO{Report: "Rollers replaced"})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, res.Status)

	it := env.it.rows[env.jobOrders.rows[jo.ID].Serviceable.ID]
	assert.Equal(t, "Rollers worn", it.InitialReport.String)
	assert.Equal(t, "Rollers replaced", it.FinalReport.String)
	assert.True(t, it.FinalReportAt.Valid)
}

func TestITService_ReportRequired(t *testing.T) {
	env := newTestEnv(t)
	jo := createIT(t, env)

	_, err := env.itSvc.SubmitInitialReport(as(adminID, authz.RoleITAdmin), jo.ID, dto.OnsiteReportDTO{Report: "  "})
	var verr *apperrors.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestITService_KindMismatch(t *testing.T) {
	env := newTestEnv(t)
	wm := createWM(t, env, "")

	_, err := env.itSvc.SubmitFinalReport(as(adminID, authz.RoleITAdmin), wm.ID, dto.OnsiteReportDTO{Report: "x"})
	assert.ErrorIs(t, err, apperrors.ErrKindMismatch)
}

func TestOtherService_Complete(t *testing.T) {
	env := newTestEnv(t)
	jo, err := env.jobOrderSvc.CreateOtherService(as(frontlinerID, authz.RoleFrontliner), dto.CreateOtherServiceDTO{
		JobOrderDetailsDTO: details(),
		ServiceName:        "Pest control",
	})
	require.NoError(t, err)
	require.Equal(t, constants.StatusInProgress, jo.Status)

	_, err = env.otherSvc.Complete(as(frontlinerID, authz.RoleFrontliner), jo.ID, dto.CompleteOtherServiceDTO{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	res, err := env.otherSvc.Complete(as(dispatcherID, authz.RoleDispatcher), jo.ID, dto.CompleteOtherServiceDTO{})
	require.NoError(t, err)
	assert.Equal(t, constants.StatusCompleted, res.Status)
	assert.True(t, env.other.rows[jo.ServiceableID].CompletedAt.Valid)
}

func TestITService_ForbiddenBeforeStatusCheck(t *testing.T) {
	env := newTestEnv(t)
	env.addEmployee(technicianEmployee, constants.EmployeeActive)
	jo := createIT(t, env)
	_, err := env.itSvc.AssignTechnician(as(headID, authz.RoleHeadFrontliner), jo.ID, dto.AssignTechnicianDTO{TechnicianID: technicianEmployee})
	require.NoError(t, err)

	// финальный отчёт из for check-up: посторонний получает отказ, а не конфликт статуса
	_, err = env.itSvc.SubmitFinalReport(as(9999, authz.RoleRegular), jo.ID, dto.OnsiteReportDTO{Report: "Done"})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
	assert.NotErrorIs(t, err, apperrors.ErrInvalidTransition)

	_, err = env.itSvc.SubmitFinalReport(as(70, authz.RoleRegular, technicianEmployee), jo.ID, dto.OnsiteReportDTO{Report: "Done"})
	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, constants.StatusForCheckUp, env.jobOrders.rows[jo.ID].Status)
}
