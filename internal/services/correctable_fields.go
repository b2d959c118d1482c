package services

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/aarondl/null/v8"
	"github.com/shopspring/decimal"

	"job-order-system/pkg/types"
	"job-order-system/pkg/utils"
)

type fieldType int

const (
	textField fieldType = iota
	nullableTextField
	optionalTextField
	phoneField
	dateField
	timeOfDayField
	decimalField
	nullableDecimalField
)

// Поля, которые можно исправить через correction, с их типами.
type fieldSet map[string]fieldType

var jobOrderCorrectableFields = fieldSet{
	"scheduled_date": dateField,
	"scheduled_time": timeOfDayField,
	"client_name":    textField,
	"address":        textField,
	"contact_person": textField,
	"contact_number": phoneField,
	"email":          nullableTextField,
	"remarks":        nullableTextField,
}

// normalize приводит значение из JSON к канонической форме: nil или строка.
// В такой форме значения хранятся в changes и сравниваются.
func (ft fieldType) normalize(raw interface{}) (interface{}, error) {
	if raw == nil {
		switch ft {
		case nullableTextField, optionalTextField, nullableDecimalField:
			return nil, nil
		}
		return nil, fmt.Errorf("may not be empty")
	}

	var s string
	switch v := raw.(type) {
	case string:
		s = strings.TrimSpace(v)
	case float64:
		s = strconv.FormatFloat(v, 'f', -1, 64)
	case decimal.Decimal:
		s = v.String()
	case bool:
		return nil, fmt.Errorf("has an invalid type")
	default:
		s = fmt.Sprint(v)
	}

	switch ft {
	case textField:
		if s == "" {
			return nil, fmt.Errorf("may not be empty")
		}
		return s, nil
	case nullableTextField, optionalTextField:
		if s == "" {
			return nil, nil
		}
		return s, nil
	case phoneField:
		if !utils.IsValidPhoneNumber(s) {
			return nil, fmt.Errorf("must be a valid phone number")
		}
		return s, nil
	case dateField:
		if _, err := time.Parse(types.DateLayout, s); err != nil {
			return nil, fmt.Errorf("must be a date in YYYY-MM-DD format")
		}
		return s, nil
	case timeOfDayField:
		if _, err := time.Parse("15:04", s); err != nil || len(s) != 5 {
			return nil, fmt.Errorf("must be a time in HH:MM format")
		}
		return s, nil
	case decimalField, nullableDecimalField:
		if s == "" && ft == nullableDecimalField {
			return nil, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, fmt.Errorf("must be a number")
		}
		if d.IsNegative() {
			return nil, fmt.Errorf("must be at least 0")
		}
		return d.String(), nil
	}
	return nil, fmt.Errorf("unsupported field")
}

// column превращает каноническое значение в значение для UPDATE.
func (ft fieldType) column(canonical interface{}) (interface{}, error) {
	s, _ := canonical.(string)
	switch ft {
	case nullableTextField:
		if canonical == nil {
			return null.String{}, nil
		}
		return null.StringFrom(s), nil
	case optionalTextField:
		return s, nil
	case dateField:
		return time.Parse(types.DateLayout, s)
	case decimalField:
		return decimal.NewFromString(s)
	case nullableDecimalField:
		if canonical == nil {
			return decimal.NullDecimal{}, nil
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return nil, err
		}
		return decimal.NewNullDecimal(d), nil
	}
	return s, nil
}

// columns переводит after-значения correction в колонки для UpdateFields.
func (fs fieldSet) columns(after map[string]interface{}) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(after))
	for name, value := range after {
		ft, ok := fs[name]
		if !ok {
			return nil, fmt.Errorf("поле %q нельзя исправить", name)
		}
		col, err := ft.column(value)
		if err != nil {
			return nil, fmt.Errorf("поле %q: %w", name, err)
		}
		out[name] = col
	}
	return out, nil
}

func nullableText(s null.String) interface{} {
	if !s.Valid || s.String == "" {
		return nil
	}
	return s.String
}

func nullableDecimal(d decimal.NullDecimal) interface{} {
	if !d.Valid {
		return nil
	}
	return d.Decimal.String()
}
