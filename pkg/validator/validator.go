package validator

import (
	"time"

	"github.com/go-playground/validator/v10"
)

type CustomValidator struct {
	validator *validator.Validate
}

func NewValidator() *CustomValidator {
	v := validator.New()
	_ = v.RegisterValidation("hhmm", isClockTime)
	_ = v.RegisterValidation("dateonly", isCalendarDate)
	return &CustomValidator{
		validator: v,
	}
}

// isClockTime accepts 24-hour HH:MM wall-clock times, the format used for
// appointment slots and availability windows.
func isClockTime(fl validator.FieldLevel) bool {
	_, err := time.Parse("15:04", fl.Field().String())
	return err == nil
}

// isCalendarDate accepts YYYY-MM-DD dates.
func isCalendarDate(fl validator.FieldLevel) bool {
	_, err := time.Parse("2006-01-02", fl.Field().String())
	return err == nil
}

func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}

func (cv *CustomValidator) FormatValidationErrors(err error) map[string]string {
	errors := make(map[string]string)

	if validationErrors, ok := err.(validator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			switch e.Tag() {
			case "required":
				errors[field] = field + " is required"
			case "email":
				errors[field] = field + " must be a valid email address"
			case "min":
				errors[field] = field + " must be at least " + e.Param() + " characters"
			case "max":
				errors[field] = field + " must be at most " + e.Param() + " characters"
			case "oneof":
				errors[field] = field + " must be one of: " + e.Param()
			case "gte":
				errors[field] = field + " must be greater than or equal to " + e.Param()
			case "lte":
				errors[field] = field + " must be less than or equal to " + e.Param()
			case "hhmm":
				errors[field] = field + " must be a time in HH:MM format"
			case "dateonly":
				errors[field] = field + " must be a date in YYYY-MM-DD format"
			default:
				errors[field] = field + " is invalid"
			}
		}
	}

	return errors
}
