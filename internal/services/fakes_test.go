package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"job-order-system/internal/authz"
	"job-order-system/internal/entities"
	"job-order-system/internal/repositories"
	"job-order-system/pkg/constants"
	apperrors "job-order-system/pkg/errors"
	"job-order-system/pkg/utils"
)

// ============================================================
// In-memory репозитории для тестов сервисов
// ============================================================

var (
	_ repositories.TxManagerInterface                   = (*fakeTxManager)(nil)
	_ repositories.JobOrderRepositoryInterface          = (*fakeJobOrderRepo)(nil)
	_ repositories.WasteManagementRepositoryInterface   = (*fakeWasteRepo)(nil)
	_ repositories.ITServiceRepositoryInterface         = (*fakeITRepo)(nil)
	_ repositories.OtherServiceRepositoryInterface      = (*fakeOtherRepo)(nil)
	_ repositories.HaulingRepositoryInterface           = (*fakeHaulingRepo)(nil)
	_ repositories.CancelledJobOrderRepositoryInterface = (*fakeCancelledRepo)(nil)
	_ repositories.CorrectionRepositoryInterface        = (*fakeCorrectionRepo)(nil)
	_ repositories.EmployeeRepositoryInterface          = (*fakeEmployeeRepo)(nil)
	_ repositories.TruckRepositoryInterface             = (*fakeTruckRepo)(nil)
	_ repositories.IncidentRepositoryInterface          = (*fakeIncidentRepo)(nil)
	_ repositories.UserRepositoryInterface              = (*fakeUserRepo)(nil)
)

// fakeTxManager снимает состояние всех репозиториев перед fn и восстанавливает
// его, если fn вернула ошибку или запаниковала.
type fakeTxManager struct {
	calls     int
	rollbacks int
	snapshots []func() func()
}

func (m *fakeTxManager) track(snapshot func() func()) {
	m.snapshots = append(m.snapshots, snapshot)
}

func (m *fakeTxManager) RunInTransaction(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	m.calls++
	restores := make([]func(), 0, len(m.snapshots))
	for _, snapshot := range m.snapshots {
		restores = append(restores, snapshot())
	}
	rollback := func() {
		m.rollbacks++
		for _, restore := range restores {
			restore()
		}
	}
	defer func() {
		if p := recover(); p != nil {
			rollback()
			panic(p)
		}
	}()
	if err = fn(nil); err != nil {
		rollback()
	}
	return err
}

// snapshotRows копирует записи по значению; результат возвращает map к снятому состоянию.
func snapshotRows[T any](rows map[uint64]*T, nextID *uint64) func() func() {
	return func() func() {
		saved := make(map[uint64]T, len(rows))
		for id, row := range rows {
			saved[id] = *row
		}
		var savedNext uint64
		if nextID != nil {
			savedNext = *nextID
		}
		return func() {
			clear(rows)
			for id, row := range saved {
				cp := row
				rows[id] = &cp
			}
			if nextID != nil {
				*nextID = savedNext
			}
		}
	}
}

type fakeJobOrderRepo struct {
	mu     sync.Mutex
	rows   map[uint64]*entities.JobOrder
	nextID uint64
	users  map[uint64]string
	// createErr имитирует сбой вставки job order после записи serviceable
	createErr error
}

func newFakeJobOrderRepo() *fakeJobOrderRepo {
	return &fakeJobOrderRepo{rows: map[uint64]*entities.JobOrder{}, users: map[uint64]string{}}
}

func (r *fakeJobOrderRepo) Create(_ context.Context, _ pgx.Tx, jo entities.JobOrder) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return 0, r.createErr
	}
	if !jo.Serviceable.Valid() {
		return 0, apperrors.NewInvalidInputError("serviceable is required")
	}
	for _, existing := range r.rows {
		if existing.Serviceable == jo.Serviceable || existing.TicketCode == jo.TicketCode {
			return 0, apperrors.ErrConflict
		}
	}
	r.nextID++
	jo.ID = r.nextID
	jo.CreatedAt = time.Now()
	jo.UpdatedAt = jo.CreatedAt
	jo.CreatorName = r.users[jo.CreatedBy]
	r.rows[jo.ID] = &jo
	return jo.ID, nil
}

func (r *fakeJobOrderRepo) get(id uint64) (*entities.JobOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	jo, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *jo
	return &cp, nil
}

func (r *fakeJobOrderRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.JobOrder, error) {
	return r.get(id)
}

func (r *fakeJobOrderRepo) FindByIDForUpdate(_ context.Context, _ pgx.Tx, id uint64) (*entities.JobOrder, error) {
	return r.get(id)
}

func (r *fakeJobOrderRepo) FindByTicketCode(_ context.Context, _ pgx.Tx, code string) (*entities.JobOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, jo := range r.rows {
		if jo.TicketCode == code {
			cp := *jo
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeJobOrderRepo) FindByServiceable(_ context.Context, _ pgx.Tx, ref entities.ServiceableRef) (*entities.JobOrder, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, jo := range r.rows {
		if jo.Serviceable == ref {
			cp := *jo
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

// List повторяет только то, что проверяют тесты: архив, создатель, статусы.
func (r *fakeJobOrderRepo) List(_ context.Context, q repositories.JobOrderListQuery) ([]entities.JobOrder, uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entities.JobOrder
	for _, jo := range r.rows {
		if jo.IsArchived() != q.Filter.Archived {
			continue
		}
		if !q.Visibility.All && jo.CreatedBy != q.Visibility.CreatedBy {
			continue
		}
		if len(q.Statuses) > 0 && !containsString(q.Statuses, jo.Status) {
			continue
		}
		out = append(out, *jo)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, uint64(len(out)), nil
}

func (r *fakeJobOrderRepo) mutate(id uint64, fn func(jo *entities.JobOrder)) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	jo, ok := r.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	fn(jo)
	return nil
}

func (r *fakeJobOrderRepo) UpdateStatus(_ context.Context, _ pgx.Tx, id uint64, status string) error {
	return r.mutate(id, func(jo *entities.JobOrder) { jo.Status = status })
}

func (r *fakeJobOrderRepo) UpdateFields(_ context.Context, _ pgx.Tx, id uint64, fields map[string]interface{}) error {
	for k := range fields {
		if !repositories.JobOrderUpdatableColumns[k] {
			return apperrors.NewInvalidInputError("column %s is not updatable", k)
		}
	}
	return r.mutate(id, func(jo *entities.JobOrder) {
		for k, v := range fields {
			switch k {
			case "scheduled_date":
				jo.ScheduledDate = v.(time.Time)
			case "scheduled_time":
				jo.ScheduledTime = v.(string)
			case "client_name":
				jo.ClientName = v.(string)
			case "address":
				jo.Address = v.(string)
			case "contact_person":
				jo.ContactPerson = v.(string)
			case "contact_number":
				jo.ContactNumber = v.(string)
			case "email":
				jo.Email = v.(null.String)
			case "remarks":
				jo.Remarks = v.(null.String)
			}
		}
	})
}

func (r *fakeJobOrderRepo) IncrementErrorCount(_ context.Context, _ pgx.Tx, id uint64) error {
	return r.mutate(id, func(jo *entities.JobOrder) { jo.ErrorCount++ })
}

func (r *fakeJobOrderRepo) Archive(_ context.Context, _ pgx.Tx, id uint64) error {
	now := time.Now()
	return r.mutate(id, func(jo *entities.JobOrder) { jo.DeletedAt = &now })
}

func (r *fakeJobOrderRepo) Restore(_ context.Context, _ pgx.Tx, id uint64) error {
	return r.mutate(id, func(jo *entities.JobOrder) { jo.DeletedAt = nil })
}

type fakeWasteRepo struct {
	rows   map[uint64]*entities.WasteManagement
	nextID uint64
}

func (r *fakeWasteRepo) Create(_ context.Context, _ pgx.Tx, wm entities.WasteManagement) (uint64, error) {
	r.nextID++
	wm.ID = r.nextID
	r.rows[wm.ID] = &wm
	return wm.ID, nil
}

func (r *fakeWasteRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.WasteManagement, error) {
	wm, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *wm
	cp.AppraiserIDs = append([]uint64(nil), wm.AppraiserIDs...)
	return &cp, nil
}

func (r *fakeWasteRepo) ReplaceAppraisers(_ context.Context, _ pgx.Tx, id uint64, employeeIDs []uint64) error {
	r.rows[id].AppraiserIDs = append([]uint64(nil), employeeIDs...)
	return nil
}

func (r *fakeWasteRepo) SaveAppraisal(_ context.Context, _ pgx.Tx, id uint64, notes string, at time.Time) error {
	r.rows[id].AppraisalNotes = null.StringFrom(notes)
	r.rows[id].AppraisedAt = null.TimeFrom(at)
	return nil
}

func (r *fakeWasteRepo) SaveProposal(_ context.Context, _ pgx.Tx, id uint64, amount decimal.Decimal, notes null.String, at time.Time) error {
	r.rows[id].ProposalAmount = decimal.NewNullDecimal(amount)
	r.rows[id].ProposalNotes = notes
	r.rows[id].ProposalSubmittedAt = null.TimeFrom(at)
	return nil
}

func (r *fakeWasteRepo) ApproveProposal(_ context.Context, _ pgx.Tx, id uint64, at time.Time) error {
	r.rows[id].ProposalApprovedAt = null.TimeFrom(at)
	return nil
}

func (r *fakeWasteRepo) UpdateFields(_ context.Context, _ pgx.Tx, id uint64, fields map[string]interface{}) error {
	wm := r.rows[id]
	for k, v := range fields {
		switch k {
		case "waste_type":
			wm.WasteType = v.(string)
		case "waste_description":
			wm.WasteDescription = v.(string)
		case "estimated_volume":
			wm.EstimatedVolume = v.(decimal.Decimal)
		case "unit":
			wm.Unit = v.(string)
		default:
			return apperrors.NewInvalidInputError("column %s is not updatable", k)
		}
	}
	return nil
}

type fakeITRepo struct {
	rows   map[uint64]*entities.ITService
	nextID uint64
}

func (r *fakeITRepo) Create(_ context.Context, _ pgx.Tx, s entities.ITService) (uint64, error) {
	r.nextID++
	s.ID = r.nextID
	r.rows[s.ID] = &s
	return s.ID, nil
}

func (r *fakeITRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.ITService, error) {
	s, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeITRepo) AssignTechnician(_ context.Context, _ pgx.Tx, id, employeeID uint64) error {
	r.rows[id].TechnicianID = null.Uint64From(employeeID)
	return nil
}

func (r *fakeITRepo) SaveInitialReport(_ context.Context, _ pgx.Tx, id uint64, report string, at time.Time) error {
	r.rows[id].InitialReport = null.StringFrom(report)
	r.rows[id].InitialReportAt = null.TimeFrom(at)
	return nil
}

func (r *fakeITRepo) SaveFinalReport(_ context.Context, _ pgx.Tx, id uint64, report string, at time.Time) error {
	r.rows[id].FinalReport = null.StringFrom(report)
	r.rows[id].FinalReportAt = null.TimeFrom(at)
	return nil
}

func (r *fakeITRepo) UpdateFields(_ context.Context, _ pgx.Tx, id uint64, fields map[string]interface{}) error {
	s := r.rows[id]
	for k, v := range fields {
		switch k {
		case "machine_type":
			s.MachineType = v.(string)
		case "brand":
			s.Brand = v.(string)
		case "model":
			s.Model = v.(string)
		case "serial_number":
			s.SerialNumber = v.(null.String)
		case "problem_description":
			s.ProblemDescription = v.(string)
		default:
			return apperrors.NewInvalidInputError("column %s is not updatable", k)
		}
	}
	return nil
}

type fakeOtherRepo struct {
	rows   map[uint64]*entities.OtherService
	nextID uint64
}

func (r *fakeOtherRepo) Create(_ context.Context, _ pgx.Tx, s entities.OtherService) (uint64, error) {
	r.nextID++
	s.ID = r.nextID
	r.rows[s.ID] = &s
	return s.ID, nil
}

func (r *fakeOtherRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.OtherService, error) {
	s, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeOtherRepo) Complete(_ context.Context, _ pgx.Tx, id uint64, notes null.String, at time.Time) error {
	r.rows[id].CompletionNotes = notes
	r.rows[id].CompletedAt = null.TimeFrom(at)
	return nil
}

func (r *fakeOtherRepo) UpdateFields(_ context.Context, _ pgx.Tx, id uint64, fields map[string]interface{}) error {
	s := r.rows[id]
	for k, v := range fields {
		switch k {
		case "service_name":
			s.ServiceName = v.(string)
		case "description":
			s.Description = v.(string)
		case "amount":
			s.Amount = v.(decimal.NullDecimal)
		default:
			return apperrors.NewInvalidInputError("column %s is not updatable", k)
		}
	}
	return nil
}

type fakeHaulingRepo struct {
	rows   map[uint64]*entities.Hauling
	nextID uint64
	// beforeLock вызывается до чтения строки под блокировкой
	beforeLock func(h *entities.Hauling)
}

func (r *fakeHaulingRepo) Create(_ context.Context, _ pgx.Tx, h entities.Hauling) (uint64, error) {
	r.nextID++
	h.ID = r.nextID
	if h.SafetyChecklist == nil {
		h.SafetyChecklist = map[string]bool{}
	}
	r.rows[h.ID] = &h
	return h.ID, nil
}

func (r *fakeHaulingRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Hauling, error) {
	h, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (r *fakeHaulingRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Hauling, error) {
	if h, ok := r.rows[id]; ok && r.beforeLock != nil {
		r.beforeLock(h)
	}
	return r.FindByID(ctx, tx, id)
}

func (r *fakeHaulingRepo) ListByWasteManagement(_ context.Context, _ pgx.Tx, wasteManagementID uint64) ([]entities.Hauling, error) {
	var out []entities.Hauling
	for _, h := range r.rows {
		if h.WasteManagementID == wasteManagementID {
			out = append(out, *h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeHaulingRepo) ReplacePersonnel(_ context.Context, _ pgx.Tx, haulingID uint64, personnel []entities.HaulingPersonnel) error {
	r.rows[haulingID].Personnel = personnel
	return nil
}

func (r *fakeHaulingRepo) CompleteChecklist(_ context.Context, _ pgx.Tx, id uint64, checklist map[string]bool, userID uint64, at time.Time) error {
	h := r.rows[id]
	h.SafetyChecklist = checklist
	h.ChecklistCompletedBy = null.Uint64From(userID)
	h.ChecklistCompletedAt = null.TimeFrom(at)
	return nil
}

func (r *fakeHaulingRepo) SetStatusByWasteManagement(_ context.Context, _ pgx.Tx, wasteManagementID uint64, status string) error {
	for _, h := range r.rows {
		if h.WasteManagementID == wasteManagementID && h.Status != constants.HaulingDone {
			h.Status = status
		}
	}
	return nil
}

func (r *fakeHaulingRepo) CompleteStale(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for _, h := range r.rows {
		if h.HaulingDate.Before(before) && h.Status != constants.HaulingDone {
			h.Status = constants.HaulingDone
			n++
		}
	}
	return n, nil
}

type fakeCancelledRepo struct {
	rows []entities.CancelledJobOrder
}

func (r *fakeCancelledRepo) Create(_ context.Context, _ pgx.Tx, c entities.CancelledJobOrder) (uint64, error) {
	for _, existing := range r.rows {
		if existing.JobOrderID == c.JobOrderID {
			return 0, apperrors.ErrConflict
		}
	}
	c.ID = uint64(len(r.rows) + 1)
	r.rows = append(r.rows, c)
	return c.ID, nil
}

func (r *fakeCancelledRepo) FindByJobOrder(_ context.Context, _ pgx.Tx, jobOrderID uint64) (*entities.CancelledJobOrder, error) {
	for _, c := range r.rows {
		if c.JobOrderID == jobOrderID {
			cp := c
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

type fakeCorrectionRepo struct {
	rows     map[uint64]*entities.Correction
	nextID   uint64
	jobOrder *fakeJobOrderRepo
}

func (r *fakeCorrectionRepo) Create(_ context.Context, _ pgx.Tx, c entities.Correction) (uint64, error) {
	for _, existing := range r.rows {
		if existing.JobOrderID == c.JobOrderID && existing.Target == c.Target && existing.Status == constants.CorrectionPending {
			return 0, apperrors.ErrConflict
		}
	}
	r.nextID++
	c.ID = r.nextID
	c.Status = constants.CorrectionPending
	if jo, err := r.jobOrder.get(c.JobOrderID); err == nil {
		c.TicketCode = jo.TicketCode
	}
	r.rows[c.ID] = &c
	return c.ID, nil
}

func (r *fakeCorrectionRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Correction, error) {
	c, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (r *fakeCorrectionRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Correction, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *fakeCorrectionRepo) HasPending(_ context.Context, _ pgx.Tx, jobOrderID uint64, target string) (bool, error) {
	for _, c := range r.rows {
		if c.JobOrderID == jobOrderID && c.Target == target && c.Status == constants.CorrectionPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeCorrectionRepo) Resolve(_ context.Context, _ pgx.Tx, id uint64, status string, remarks null.String, resolvedBy uint64, at time.Time) error {
	c, ok := r.rows[id]
	if !ok || c.Status != constants.CorrectionPending {
		return apperrors.ErrNotFound
	}
	c.Status = status
	c.Remarks = remarks
	c.ResolvedBy = null.Uint64From(resolvedBy)
	c.ResolvedAt = null.TimeFrom(at)
	return nil
}

func (r *fakeCorrectionRepo) List(_ context.Context, q repositories.CorrectionListQuery) ([]entities.Correction, uint64, error) {
	var out []entities.Correction
	for _, c := range r.rows {
		if q.SubmittedBy != 0 && c.SubmittedBy != q.SubmittedBy {
			continue
		}
		if len(q.Statuses) > 0 && !containsString(q.Statuses, c.Status) {
			continue
		}
		out = append(out, *c)
	}
	return out, uint64(len(out)), nil
}

type fakeEmployeeRepo struct {
	rows map[uint64]*entities.Employee
}

func (r *fakeEmployeeRepo) Create(_ context.Context, _ pgx.Tx, e entities.Employee) (uint64, error) {
	e.ID = uint64(len(r.rows) + 1)
	r.rows[e.ID] = &e
	return e.ID, nil
}

func (r *fakeEmployeeRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Employee, error) {
	e, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (r *fakeEmployeeRepo) FindActiveByIDs(_ context.Context, _ pgx.Tx, ids []uint64) ([]entities.Employee, error) {
	var out []entities.Employee
	for _, id := range ids {
		if e, ok := r.rows[id]; ok && e.Status == constants.EmployeeActive && e.DeletedAt == nil {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (r *fakeEmployeeRepo) List(_ context.Context, _ repositories.EmployeeListQuery) ([]entities.Employee, uint64, error) {
	var out []entities.Employee
	for _, e := range r.rows {
		out = append(out, *e)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeEmployeeRepo) Archive(_ context.Context, _ pgx.Tx, id uint64) error {
	e, ok := r.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	now := time.Now()
	e.DeletedAt = &now
	return nil
}

func (r *fakeEmployeeRepo) Restore(_ context.Context, _ pgx.Tx, id uint64) error {
	e, ok := r.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	e.DeletedAt = nil
	return nil
}

type fakeTruckRepo struct {
	rows map[uint64]*entities.Truck
}

func (r *fakeTruckRepo) Create(_ context.Context, _ pgx.Tx, t entities.Truck) (uint64, error) {
	t.ID = uint64(len(r.rows) + 1)
	r.rows[t.ID] = &t
	return t.ID, nil
}

func (r *fakeTruckRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Truck, error) {
	t, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTruckRepo) List(_ context.Context, _ repositories.TruckListQuery) ([]entities.Truck, uint64, error) {
	var out []entities.Truck
	for _, t := range r.rows {
		out = append(out, *t)
	}
	return out, uint64(len(out)), nil
}

func (r *fakeTruckRepo) Archive(_ context.Context, _ pgx.Tx, id uint64) error {
	t, ok := r.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	now := time.Now()
	t.DeletedAt = &now
	return nil
}

func (r *fakeTruckRepo) Restore(_ context.Context, _ pgx.Tx, id uint64) error {
	t, ok := r.rows[id]
	if !ok {
		return apperrors.ErrNotFound
	}
	t.DeletedAt = nil
	return nil
}

type fakeIncidentRepo struct {
	rows map[uint64]*entities.Incident
}

func (r *fakeIncidentRepo) Create(_ context.Context, _ pgx.Tx, i entities.Incident) (uint64, error) {
	i.ID = uint64(len(r.rows) + 1)
	i.Status = constants.IncidentForVerification
	r.rows[i.ID] = &i
	return i.ID, nil
}

func (r *fakeIncidentRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.Incident, error) {
	i, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *i
	return &cp, nil
}

func (r *fakeIncidentRepo) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Incident, error) {
	return r.FindByID(ctx, tx, id)
}

func (r *fakeIncidentRepo) Verify(_ context.Context, _ pgx.Tx, id uint64, status string, remarks null.String, verifiedBy uint64, at time.Time) error {
	i, ok := r.rows[id]
	if !ok || i.Status != constants.IncidentForVerification {
		return apperrors.ErrNotFound
	}
	i.Status = status
	i.Remarks = remarks
	i.VerifiedBy = null.Uint64From(verifiedBy)
	i.VerifiedAt = null.TimeFrom(at)
	return nil
}

func (r *fakeIncidentRepo) List(_ context.Context, q repositories.IncidentListQuery) ([]entities.Incident, uint64, error) {
	var out []entities.Incident
	for _, i := range r.rows {
		if q.ReportedBy != 0 && i.ReportedBy != q.ReportedBy {
			continue
		}
		out = append(out, *i)
	}
	return out, uint64(len(out)), nil
}

type fakeUserRepo struct {
	rows map[uint64]*entities.User
}

func (r *fakeUserRepo) FindByID(_ context.Context, _ pgx.Tx, id uint64) (*entities.User, error) {
	u, ok := r.rows[id]
	if !ok {
		return nil, apperrors.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) FindByEmail(_ context.Context, _ pgx.Tx, email string) (*entities.User, error) {
	for _, u := range r.rows {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *fakeUserRepo) Upsert(_ context.Context, _ pgx.Tx, u entities.User) (uint64, error) {
	for _, existing := range r.rows {
		if existing.Email == u.Email {
			u.ID = existing.ID
			r.rows[u.ID] = &u
			return u.ID, nil
		}
	}
	u.ID = uint64(len(r.rows) + 1)
	r.rows[u.ID] = &u
	return u.ID, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// ============================================================
// Окружение теста
// ============================================================

var testNow = time.Date(2025, 3, 14, 9, 30, 0, 0, time.UTC)

type testEnv struct {
	tx          *fakeTxManager
	jobOrders   *fakeJobOrderRepo
	waste       *fakeWasteRepo
	it          *fakeITRepo
	other       *fakeOtherRepo
	haulings    *fakeHaulingRepo
	cancelled   *fakeCancelledRepo
	corrections *fakeCorrectionRepo
	employees   *fakeEmployeeRepo
	trucks      *fakeTruckRepo
	incidents   *fakeIncidentRepo

	jobOrderSvc   *JobOrderService
	wasteSvc      *WasteManagementService
	itSvc         *ITServiceService
	otherSvc      *OtherServiceService
	correctionSvc *CorrectionService
	incidentSvc   *IncidentService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		tx:        &fakeTxManager{},
		jobOrders: newFakeJobOrderRepo(),
		waste:     &fakeWasteRepo{rows: map[uint64]*entities.WasteManagement{}},
		it:        &fakeITRepo{rows: map[uint64]*entities.ITService{}},
		other:     &fakeOtherRepo{rows: map[uint64]*entities.OtherService{}},
		haulings:  &fakeHaulingRepo{rows: map[uint64]*entities.Hauling{}},
		cancelled: &fakeCancelledRepo{},
		employees: &fakeEmployeeRepo{rows: map[uint64]*entities.Employee{}},
		trucks:    &fakeTruckRepo{rows: map[uint64]*entities.Truck{}},
		incidents: &fakeIncidentRepo{rows: map[uint64]*entities.Incident{}},
	}
	env.corrections = &fakeCorrectionRepo{rows: map[uint64]*entities.Correction{}, jobOrder: env.jobOrders}

	env.tx.track(snapshotRows(env.jobOrders.rows, &env.jobOrders.nextID))
	env.tx.track(snapshotRows(env.waste.rows, &env.waste.nextID))
	env.tx.track(snapshotRows(env.it.rows, &env.it.nextID))
	env.tx.track(snapshotRows(env.other.rows, &env.other.nextID))
	env.tx.track(snapshotRows(env.haulings.rows, &env.haulings.nextID))
	env.tx.track(snapshotRows(env.corrections.rows, &env.corrections.nextID))
	env.tx.track(snapshotRows(env.incidents.rows, nil))
	env.tx.track(func() func() {
		saved := append([]entities.CancelledJobOrder(nil), env.cancelled.rows...)
		return func() { env.cancelled.rows = saved }
	})

	gate := authz.NewGatekeeper(authz.DefaultTable())
	logger := zap.NewNop()
	registry := NewServiceableRegistry(env.waste, env.it, env.other, env.haulings)

	env.jobOrderSvc = NewJobOrderService(env.tx, env.jobOrders, env.waste, env.it, env.other,
		env.haulings, env.cancelled, env.employees, registry, gate, logger)
	env.wasteSvc = NewWasteManagementService(env.tx, env.jobOrders, env.waste, env.haulings,
		env.trucks, env.employees, gate, logger)
	env.itSvc = NewITServiceService(env.tx, env.jobOrders, env.it, env.employees, gate, logger)
	env.otherSvc = NewOtherServiceService(env.tx, env.jobOrders, env.other, gate, logger)
	env.correctionSvc = NewCorrectionService(env.tx, env.jobOrders, env.corrections, registry, gate, logger)
	env.incidentSvc = NewIncidentService(env.tx, env.incidents, env.jobOrders, env.haulings, gate, logger)

	clock := func() time.Time { return testNow }
	codes := 0
	env.jobOrderSvc.now = clock
	env.jobOrderSvc.newCode = func() string {
		codes++
		return fmt.Sprintf("T%05d", codes)
	}
	env.wasteSvc.now = clock
	env.itSvc.now = clock
	env.otherSvc.now = clock
	env.correctionSvc.now = clock
	env.incidentSvc.now = clock
	return env
}

func (env *testEnv) addEmployee(id uint64, status string) {
	env.employees.rows[id] = &entities.Employee{ID: id, EmployeeNo: fmt.Sprintf("E-%03d", id), FirstName: "Emp", LastName: "Loyee", Status: status}
}

// as - контекст запроса от имени актора с ролью.
func as(id uint64, role string, employeeID ...uint64) context.Context {
	actor := &entities.User{ID: id, Name: role + " user", Role: role}
	if len(employeeID) > 0 {
		actor.EmployeeID = null.Uint64From(employeeID[0])
	}
	return utils.WithActor(context.Background(), actor)
}
