package services

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"job-order-system/internal/entities"
	"job-order-system/internal/repositories"
	"job-order-system/pkg/constants"
	apperrors "job-order-system/pkg/errors"
)

// serviceableEntry - всё, что нужно знать о типе услуги.
type serviceableEntry struct {
	fields   fieldSet
	load     func(ctx context.Context, tx pgx.Tx, id uint64) (interface{}, error)
	snapshot func(detail interface{}) map[string]interface{}
	update   func(ctx context.Context, tx pgx.Tx, id uint64, columns map[string]interface{}) error
}

// ServiceableRegistry сопоставляет тип услуги с загрузчиком, начальным статусом,
// списком исправляемых полей и применением исправлений.
type ServiceableRegistry struct {
	entries map[constants.ServiceableKind]serviceableEntry
}

func NewServiceableRegistry(
	wasteRepo repositories.WasteManagementRepositoryInterface,
	itRepo repositories.ITServiceRepositoryInterface,
	otherRepo repositories.OtherServiceRepositoryInterface,
	haulingRepo repositories.HaulingRepositoryInterface,
) *ServiceableRegistry {
	return &ServiceableRegistry{entries: map[constants.ServiceableKind]serviceableEntry{
		constants.KindWasteManagement: {
			fields: fieldSet{
				"waste_type":        textField,
				"waste_description": optionalTextField,
				"estimated_volume":  decimalField,
				"unit":              textField,
			},
			load: func(ctx context.Context, tx pgx.Tx, id uint64) (interface{}, error) {
				wm, err := wasteRepo.FindByID(ctx, tx, id)
				if err != nil {
					return nil, err
				}
				if wm.Haulings, err = haulingRepo.ListByWasteManagement(ctx, tx, id); err != nil {
					return nil, err
				}
				return wm, nil
			},
			snapshot: func(detail interface{}) map[string]interface{} {
				wm := detail.(*entities.WasteManagement)
				return map[string]interface{}{
					"waste_type":        wm.WasteType,
					"waste_description": emptyToNil(wm.WasteDescription),
					"estimated_volume":  wm.EstimatedVolume.String(),
					"unit":              wm.Unit,
				}
			},
			update: wasteRepo.UpdateFields,
		},
		constants.KindITService: {
			fields: fieldSet{
				"machine_type":        textField,
				"brand":               optionalTextField,
				"model":               optionalTextField,
				"serial_number":       nullableTextField,
				"problem_description": textField,
			},
			load: func(ctx context.Context, tx pgx.Tx, id uint64) (interface{}, error) {
				return itRepo.FindByID(ctx, tx, id)
			},
			snapshot: func(detail interface{}) map[string]interface{} {
				it := detail.(*entities.ITService)
				return map[string]interface{}{
					"machine_type":        it.MachineType,
					"brand":               emptyToNil(it.Brand),
					"model":               emptyToNil(it.Model),
					"serial_number":       nullableText(it.SerialNumber),
					"problem_description": it.ProblemDescription,
				}
			},
			update: itRepo.UpdateFields,
		},
		constants.KindOtherService: {
			fields: fieldSet{
				"service_name": textField,
				"description":  optionalTextField,
				"amount":       nullableDecimalField,
			},
			load: func(ctx context.Context, tx pgx.Tx, id uint64) (interface{}, error) {
				return otherRepo.FindByID(ctx, tx, id)
			},
			snapshot: func(detail interface{}) map[string]interface{} {
				svc := detail.(*entities.OtherService)
				return map[string]interface{}{
					"service_name": svc.ServiceName,
					"description":  emptyToNil(svc.Description),
					"amount":       nullableDecimal(svc.Amount),
				}
			},
			update: otherRepo.UpdateFields,
		},
	}}
}

func (r *ServiceableRegistry) entry(kind constants.ServiceableKind) (serviceableEntry, error) {
	e, ok := r.entries[kind]
	if !ok {
		return serviceableEntry{}, fmt.Errorf("неизвестный тип услуги %q", kind)
	}
	return e, nil
}

// InitialStatus проверяет запрошенный статус при создании; пустой - статус по умолчанию.
func (r *ServiceableRegistry) InitialStatus(kind constants.ServiceableKind, requested string) (string, error) {
	if _, err := r.entry(kind); err != nil {
		return "", err
	}
	if requested == "" {
		return kind.DefaultStatus(), nil
	}
	if !kind.IsInitialStatus(requested) {
		return "", apperrors.NewValidationError("status",
			fmt.Sprintf("A %s job order cannot be created with status %q.", kind.Label(), requested))
	}
	return requested, nil
}

// Load возвращает запись услуги (*entities.WasteManagement, *entities.ITService, *entities.OtherService).
func (r *ServiceableRegistry) Load(ctx context.Context, tx pgx.Tx, ref entities.ServiceableRef) (interface{}, error) {
	e, err := r.entry(ref.Kind)
	if err != nil {
		return nil, err
	}
	return e.load(ctx, tx, ref.ID)
}

func (r *ServiceableRegistry) Fields(kind constants.ServiceableKind) fieldSet {
	return r.entries[kind].fields
}

// Snapshot - текущие значения исправляемых полей в канонической форме.
func (r *ServiceableRegistry) Snapshot(ctx context.Context, tx pgx.Tx, ref entities.ServiceableRef) (map[string]interface{}, error) {
	e, err := r.entry(ref.Kind)
	if err != nil {
		return nil, err
	}
	detail, err := e.load(ctx, tx, ref.ID)
	if err != nil {
		return nil, err
	}
	return e.snapshot(detail), nil
}

// Apply записывает after-значения correction в запись услуги.
func (r *ServiceableRegistry) Apply(ctx context.Context, tx pgx.Tx, ref entities.ServiceableRef, after map[string]interface{}) error {
	e, err := r.entry(ref.Kind)
	if err != nil {
		return err
	}
	columns, err := e.fields.columns(after)
	if err != nil {
		return err
	}
	return e.update(ctx, tx, ref.ID, columns)
}

func emptyToNil(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
