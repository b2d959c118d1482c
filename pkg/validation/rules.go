package validation

import (
	"regexp"

	"github.com/go-playground/validator/v10"

	"job-order-system/pkg/constants"
	"job-order-system/pkg/utils"
)

// registerRules регистрирует теги, которые мы используем в struct tags
func registerRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"contact_number":   isContactNumber,
		"hhmm":             isTimeOfDay,
		"job_status":       isJobStatus,
		"cancelled_status": isCancelledStatus,
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// isContactNumber - номер, который libphonenumber признаёт валидным (регион PH по умолчанию)
func isContactNumber(fl validator.FieldLevel) bool {
	return utils.IsValidPhoneNumber(fl.Field().String())
}

var timeOfDayRe = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// isTimeOfDay - "08:30", "23:59"
func isTimeOfDay(fl validator.FieldLevel) bool {
	return timeOfDayRe.MatchString(fl.Field().String())
}

func isJobStatus(fl validator.FieldLevel) bool {
	return constants.IsKnownStatus(fl.Field().String())
}

func isCancelledStatus(fl validator.FieldLevel) bool {
	return constants.IsCancelledStatus(fl.Field().String())
}
