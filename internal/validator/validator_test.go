package validator

import (
	"testing"

	apperrors "github.com/carlosgs05/proyectoNewton-sub000/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scoreQuery struct {
	Year  int    `form:"year" validate:"required,report_year"`
	Month string `form:"month" validate:"required,month_name"`
}

type recommendationQuery struct {
	Month int `form:"month" validate:"required,month_number"`
}

func TestValidateStruct_MonthName(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidateStruct(scoreQuery{Year: 2024, Month: "Marzo"}))
	assert.NoError(t, v.ValidateStruct(scoreQuery{Year: 2024, Month: " diciembre "}))

	err := v.ValidateStruct(scoreQuery{Year: 2024, Month: "march"})
	require.Error(t, err)

	var errs apperrors.ValidationErrors
	require.ErrorAs(t, err, &errs)
	require.Len(t, errs, 1)
	assert.Equal(t, "month", errs[0].Field)
	assert.Equal(t, "month_name", errs[0].Rule)
}

func TestValidateStruct_ReportYear(t *testing.T) {
	v := New()

	err := v.ValidateStruct(scoreQuery{Year: 1999, Month: "enero"})
	var errs apperrors.ValidationErrors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, "year", errs[0].Field)
	assert.Equal(t, "report_year", errs[0].Rule)
}

func TestValidateStruct_MonthNumber(t *testing.T) {
	v := New()

	assert.NoError(t, v.ValidateStruct(recommendationQuery{Month: 1}))
	assert.NoError(t, v.ValidateStruct(recommendationQuery{Month: 12}))
	assert.Error(t, v.ValidateStruct(recommendationQuery{Month: 13}))
	assert.Error(t, v.ValidateStruct(recommendationQuery{Month: 0}))
}
