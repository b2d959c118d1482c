package constants

// --- СТАТУСЫ JOB ORDER (значения хранятся в БД как есть) ---
const (
	StatusForViewing      = "for viewing"
	StatusForProposal     = "for proposal"
	StatusForApproval     = "for approval"
	StatusSuccessful      = "successful"
	StatusInProgress      = "in-progress"
	StatusOnHold          = "on-hold"
	StatusCompleted       = "completed"
	StatusClosed          = "closed"
	StatusFailed          = "failed"
	StatusDropped         = "dropped"
	StatusForCheckUp      = "for check-up"
	StatusForFinalService = "for final service"
)

var statusLabels = map[string]string{
	StatusForViewing:      "For Viewing",
	StatusForProposal:     "For Proposal",
	StatusForApproval:     "For Approval",
	StatusSuccessful:      "Successful",
	StatusInProgress:      "In Progress",
	StatusOnHold:          "On Hold",
	StatusCompleted:       "Completed",
	StatusClosed:          "Closed",
	StatusFailed:          "Failed",
	StatusDropped:         "Dropped",
	StatusForCheckUp:      "For Check-up",
	StatusForFinalService: "For Final Service",
}

// Отменённые статусы (failed / dropped / closed)
var CancelledStatuses = []string{
	StatusFailed,
	StatusDropped,
	StatusClosed,
}

// StatusLabel возвращает подпись статуса; ok=false для неизвестного кода.
func StatusLabel(code string) (string, bool) {
	label, ok := statusLabels[code]
	return label, ok
}

// Label - то же самое, но для неизвестного кода возвращает сам код.
func Label(code string) string {
	if label, ok := statusLabels[code]; ok {
		return label
	}
	return code
}

func IsKnownStatus(code string) bool {
	_, ok := statusLabels[code]
	return ok
}

func IsCancelledStatus(code string) bool {
	return contains(CancelledStatuses, code)
}

func IsTerminalStatus(code string) bool {
	return code == StatusCompleted || IsCancelledStatus(code)
}

// AllStatuses в порядке жизненного цикла.
func AllStatuses() []string {
	return []string{
		StatusForViewing, StatusForProposal, StatusForApproval, StatusSuccessful,
		StatusForCheckUp, StatusForFinalService,
		StatusInProgress, StatusOnHold, StatusCompleted,
		StatusFailed, StatusDropped, StatusClosed,
	}
}

func contains(list []string, code string) bool {
	for _, s := range list {
		if s == code {
			return true
		}
	}
	return false
}
