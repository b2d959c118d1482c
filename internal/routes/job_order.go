package routes

import (
	"github.com/labstack/echo/v4"

	"job-order-system/internal/authz"
	"job-order-system/pkg/middleware"
)

// Проверки владения (создатель, оценщик, техник, бригадир) делают сервисы,
// поэтому такие маршруты пропускают всех аутентифицированных.
func runJobOrderRouter(secureGroup *echo.Group, c *Controllers, authMW *middleware.AuthMiddleware) {
	canView := authMW.AuthorizeAny(authz.JobOrderView, authz.JobOrderViewOwn, authz.JobOrderViewChecklist)
	canCreate := authMW.AuthorizeAny(authz.JobOrderCreate)

	jobOrders := secureGroup.Group("/job-orders")
	{
		jobOrders.GET("", c.JobOrder.GetJobOrders, canView)
		jobOrders.GET("/export", c.JobOrder.ExportJobOrders, authMW.AuthorizeAny(authz.JobOrderExport))
		jobOrders.GET("/:id", c.JobOrder.FindJobOrder, canView)
		jobOrders.PUT("/:id", c.JobOrder.UpdateJobOrder, authMW.AuthorizeAny(authz.JobOrderUpdate))
		jobOrders.PATCH("/:id", c.JobOrder.UpdateJobOrderStatus, authMW.AuthorizeAny(authz.JobOrderUpdateStatus))
		jobOrders.DELETE("/:id", c.JobOrder.ArchiveJobOrder, authMW.AuthorizeAny(authz.JobOrderArchive))
		jobOrders.PATCH("/:id/restore", c.JobOrder.RestoreJobOrder, authMW.AuthorizeAny(authz.JobOrderRestore))
		jobOrders.POST("/:id/cancel", c.JobOrder.CancelJobOrder, authMW.AuthorizeAny(authz.JobOrderCancel, authz.JobOrderCreate))
	}

	wm := jobOrders.Group("/waste-managements")
	{
		wm.POST("", c.JobOrder.CreateWasteManagement, canCreate)
		wm.PATCH("/:id/appraisers", c.WasteManagement.AssignAppraisers, authMW.AuthorizeAny(authz.AppraisersAssign))
		wm.PATCH("/:id/appraisal", c.WasteManagement.SubmitAppraisal)
		wm.PATCH("/:id/proposal", c.WasteManagement.SubmitProposal, authMW.AuthorizeAny(authz.ProposalSubmit))
		wm.PATCH("/:id/approve-proposal", c.WasteManagement.ApproveProposal, authMW.AuthorizeAny(authz.ProposalApprove))
		wm.POST("/:id/haulings", c.WasteManagement.AssignHaulingPersonnel, authMW.AuthorizeAny(authz.HaulingPersonnelAssign))
		wm.PATCH("/:id/in-progress", c.WasteManagement.MarkInProgress, authMW.AuthorizeAny(authz.HaulingStart))
		wm.PATCH("/:id/on-hold", c.WasteManagement.Hold, authMW.AuthorizeAny(authz.HaulingStart))
		wm.PATCH("/:id/resume", c.WasteManagement.Resume, authMW.AuthorizeAny(authz.HaulingStart))
		wm.PATCH("/:id/complete", c.WasteManagement.Complete, authMW.AuthorizeAny(authz.JobOrderComplete))
	}
	secureGroup.PATCH("/haulings/:id/checklist", c.WasteManagement.CompleteSafetyChecklist)

	it := jobOrders.Group("/it-services")
	{
		it.POST("", c.JobOrder.CreateITService, canCreate)
		it.PATCH("/:id/technician", c.ITService.AssignTechnician, authMW.AuthorizeAny(authz.TechnicianAssign))
		it.PATCH("/:id/onsite-initial-report", c.ITService.SubmitInitialReport)
		it.PATCH("/:id/onsite-final-report", c.ITService.SubmitFinalReport)
	}

	other := jobOrders.Group("/other-services")
	{
		other.POST("", c.JobOrder.CreateOtherService, canCreate)
		other.PATCH("/:id/complete", c.OtherService.Complete, authMW.AuthorizeAny(authz.JobOrderComplete))
	}
}
