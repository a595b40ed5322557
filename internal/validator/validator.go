package validator

import (
	"reflect"
	"strings"

	apperrors "github.com/carlosgs05/proyectoNewton-sub000/internal/errors"
	"github.com/carlosgs05/proyectoNewton-sub000/internal/utils"
	"github.com/go-playground/validator/v10"
)

const (
	minReportYear = 2000
	maxReportYear = 2100
)

// Validator validates report and ETL request structs
type Validator struct {
	structValidator *validator.Validate
}

// New creates a validator with the report tags registered
func New() *Validator {
	structValidator := validator.New()
	registerCustomValidators(structValidator)

	return &Validator{structValidator: structValidator}
}

// ValidateStruct validates struct tags and returns ValidationErrors on failure
func (v *Validator) ValidateStruct(s interface{}) error {
	if err := v.structValidator.Struct(s); err != nil {
		if errs := apperrors.ToValidationErrors(err); len(errs) > 0 {
			return errs
		}
		return err
	}
	return nil
}

func registerCustomValidators(validate *validator.Validate) {
	validate.RegisterValidation("month_name", validateMonthName)
	validate.RegisterValidation("month_number", validateMonthNumber)
	validate.RegisterValidation("report_year", validateReportYear)

	// Custom tag name function for better error messages
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		for _, tag := range []string{"json", "form", "uri"} {
			name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name != "" {
				return name
			}
		}
		return fld.Name
	})
}

func validateMonthName(fl validator.FieldLevel) bool {
	_, ok := utils.MonthNumber(fl.Field().String())
	return ok
}

func validateMonthNumber(fl validator.FieldLevel) bool {
	_, ok := utils.MonthName(int(fl.Field().Int()))
	return ok
}

func validateReportYear(fl validator.FieldLevel) bool {
	year := fl.Field().Int()
	return year >= minReportYear && year <= maxReportYear
}
