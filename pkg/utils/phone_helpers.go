package utils

import (
	"strings"

	"github.com/ttacon/libphonenumber"
)

// DefaultPhoneRegion - номера без кода страны считаются филиппинскими.
const DefaultPhoneRegion = "PH"

func IsValidPhoneNumber(raw string) bool {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return false
	}
	num, err := libphonenumber.Parse(raw, DefaultPhoneRegion)
	if err != nil {
		return false
	}
	return libphonenumber.IsValidNumber(num)
}

// FormatPhoneNumber приводит номер к E.164; невалидный номер возвращается как есть.
func FormatPhoneNumber(raw string) string {
	num, err := libphonenumber.Parse(strings.TrimSpace(raw), DefaultPhoneRegion)
	if err != nil {
		return raw
	}
	return libphonenumber.Format(num, libphonenumber.E164)
}
