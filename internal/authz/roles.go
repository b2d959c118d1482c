package authz

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	RoleFrontliner     = "Frontliner"
	RoleDispatcher     = "Dispatcher"
	RoleTeamLeader     = "TeamLeader"
	RoleHeadFrontliner = "HeadFrontliner"
	RoleSafetyOfficer  = "SafetyOfficer"
	RoleHumanResource  = "HumanResource"
	RoleConsultant     = "Consultant"
	RoleRegular        = "Regular"
	RoleITAdmin        = "ITAdmin"
)

func AllRoles() []string {
	return []string{
		RoleFrontliner, RoleDispatcher, RoleTeamLeader, RoleHeadFrontliner,
		RoleSafetyOfficer, RoleHumanResource, RoleConsultant, RoleRegular, RoleITAdmin,
	}
}

func IsKnownRole(role string) bool {
	for _, r := range AllRoles() {
		if r == role {
			return true
		}
	}
	return false
}

// defaultRolePermissions - таблица по умолчанию, если PERMISSIONS_FILE не задан.
func defaultRolePermissions() map[string][]string {
	return map[string][]string{
		RoleFrontliner: {
			JobOrderCreate, JobOrderViewOwn, JobOrderUpdate,
			CorrectionCreate, CorrectionView, IncidentCreate,
		},
		RoleHeadFrontliner: {
			JobOrderCreate, JobOrderView, JobOrderUpdate, JobOrderUpdateStatus,
			JobOrderCancel, JobOrderArchive, JobOrderRestore, JobOrderExport,
			ProposalSubmit, ProposalApprove, TechnicianAssign,
			CorrectionView, CorrectionApprove, IncidentCreate,
		},
		RoleDispatcher: {
			JobOrderView, AppraisersAssign, HaulingPersonnelAssign, HaulingStart,
			JobOrderComplete, TruckView, TruckManage, EmployeeView, IncidentCreate,
		},
		RoleTeamLeader: {
			JobOrderViewChecklist, SafetyChecklistComplete, IncidentCreate,
		},
		RoleSafetyOfficer: {
			JobOrderView, IncidentCreate, IncidentView, IncidentVerify,
		},
		RoleHumanResource: {
			EmployeeView, EmployeeManage, IncidentView,
		},
		RoleConsultant: {
			JobOrderView, AppraisalSubmit, ProposalSubmit,
		},
		RoleRegular: {
			IncidentCreate,
		},
		RoleITAdmin: AllPermissions(),
	}
}

// Table - неизменяемая таблица роль -> права. Создаётся один раз при старте.
type Table struct {
	roles map[string]map[string]struct{}
}

func NewTable(rolePermissions map[string][]string) (*Table, error) {
	t := &Table{roles: make(map[string]map[string]struct{}, len(rolePermissions))}
	for role, perms := range rolePermissions {
		if !IsKnownRole(role) {
			return nil, fmt.Errorf("неизвестная роль %q", role)
		}
		set := make(map[string]struct{}, len(perms))
		for _, p := range perms {
			if p == Wildcard {
				for _, all := range AllPermissions() {
					set[all] = struct{}{}
				}
				continue
			}
			if !IsKnownPermission(p) {
				return nil, fmt.Errorf("роль %q: неизвестное право %q", role, p)
			}
			set[p] = struct{}{}
		}
		t.roles[role] = set
	}
	return t, nil
}

func DefaultTable() *Table {
	t, err := NewTable(defaultRolePermissions())
	if err != nil {
		panic("таблица прав по умолчанию некорректна: " + err.Error())
	}
	return t
}

type tableFile struct {
	Roles map[string][]string `yaml:"roles"`
}

// LoadTable читает таблицу из YAML; пустой путь означает таблицу по умолчанию.
func LoadTable(path string) (*Table, error) {
	if path == "" {
		return DefaultTable(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("не удалось прочитать файл прав: %w", err)
	}
	return ParseTable(raw)
}

func ParseTable(raw []byte) (*Table, error) {
	var file tableFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("некорректный YAML файла прав: %w", err)
	}
	if len(file.Roles) == 0 {
		return nil, fmt.Errorf("файл прав не содержит ни одной роли")
	}
	return NewTable(file.Roles)
}

func (t *Table) Has(role, permission string) bool {
	if t == nil {
		return false
	}
	_, ok := t.roles[role][permission]
	return ok
}

// Permissions - отсортированный список прав роли.
func (t *Table) Permissions(role string) []string {
	set := t.roles[role]
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
