package services

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"job-order-system/internal/authz"
	"job-order-system/pkg/constants"
	"job-order-system/pkg/types"
)

const exportSheet = "Job Orders"

var exportHeaders = []interface{}{
	"Ticket Code", "Type", "Scheduled Date", "Scheduled Time", "Client", "Address",
	"Contact Person", "Contact Number", "Email", "Status", "Error Count", "Created By", "Created At",
}

// ExportJobOrders - тот же список, что и GetJobOrders, без пагинации, одним листом xlsx.
func (s *JobOrderService) ExportJobOrders(ctx context.Context, filter types.Filter) ([]byte, error) {
	actor, err := s.actor(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.gate.Authorize(actor, authz.JobOrderExport); err != nil {
		s.logger.Warn("Отказано в экспорте", zap.Uint64("user_id", actor.ID))
		return nil, err
	}

	filter.Limit, filter.Offset, filter.Page = 0, 0, 0
	q, err := s.listQuery(actor, filter)
	if err != nil {
		return nil, err
	}
	list, _, err := s.jobOrderRepo.List(ctx, q)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName(f.GetSheetName(0), exportSheet); err != nil {
		return nil, fmt.Errorf("ошибка создания листа: %w", err)
	}
	if err := f.SetSheetRow(exportSheet, "A1", &exportHeaders); err != nil {
		return nil, fmt.Errorf("ошибка записи заголовка: %w", err)
	}
	for i, jo := range list {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		row := []interface{}{
			jo.TicketCode,
			jo.Serviceable.Kind.Label(),
			jo.ScheduledDate.Format(types.DateLayout),
			jo.ScheduledTime,
			jo.ClientName,
			jo.Address,
			jo.ContactPerson,
			jo.ContactNumber,
			jo.Email.String,
			constants.Label(jo.Status),
			jo.ErrorCount,
			jo.CreatorName,
			jo.CreatedAt.Format("2006-01-02 15:04"),
		}
		if err := f.SetSheetRow(exportSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("ошибка записи строки %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка формирования xlsx: %w", err)
	}
	s.logger.Info("Экспорт job orders", zap.Int("rows", len(list)), zap.Uint64("user_id", actor.ID))
	return buf.Bytes(), nil
}
