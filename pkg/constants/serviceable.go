package constants

// ServiceableKind - значение колонки serviceable_type.
type ServiceableKind string

const (
	KindWasteManagement ServiceableKind = "waste_management"
	KindITService       ServiceableKind = "it_service"
	KindOtherService    ServiceableKind = "other_service"
)

var kindLabels = map[ServiceableKind]string{
	KindWasteManagement: "Waste Management",
	KindITService:       "IT Service",
	KindOtherService:    "Other Service",
}

var kindStatuses = map[ServiceableKind][]string{
	KindWasteManagement: {
		StatusForViewing, StatusForProposal, StatusForApproval, StatusSuccessful,
		StatusInProgress, StatusOnHold, StatusCompleted,
		StatusFailed, StatusDropped, StatusClosed,
	},
	KindITService: {
		StatusForCheckUp, StatusForFinalService, StatusCompleted,
		StatusFailed, StatusDropped, StatusClosed,
	},
	KindOtherService: {
		StatusInProgress, StatusOnHold, StatusCompleted,
		StatusFailed, StatusDropped, StatusClosed,
	},
}

// Статусы, с которыми job order может быть создан; первый - по умолчанию.
var kindInitialStatuses = map[ServiceableKind][]string{
	KindWasteManagement: {StatusForProposal, StatusForViewing},
	KindITService:       {StatusForCheckUp},
	KindOtherService:    {StatusInProgress},
}

func (k ServiceableKind) Valid() bool {
	_, ok := kindLabels[k]
	return ok
}

func (k ServiceableKind) Label() string {
	return kindLabels[k]
}

func (k ServiceableKind) String() string { return string(k) }

// Statuses - допустимые статусы для типа услуги.
func (k ServiceableKind) Statuses() []string {
	out := make([]string, len(kindStatuses[k]))
	copy(out, kindStatuses[k])
	return out
}

func (k ServiceableKind) HasStatus(code string) bool {
	return contains(kindStatuses[k], code)
}

func (k ServiceableKind) DefaultStatus() string {
	if initial := kindInitialStatuses[k]; len(initial) > 0 {
		return initial[0]
	}
	return ""
}

func (k ServiceableKind) IsInitialStatus(code string) bool {
	return contains(kindInitialStatuses[k], code)
}

func AllKinds() []ServiceableKind {
	return []ServiceableKind{KindWasteManagement, KindITService, KindOtherService}
}
