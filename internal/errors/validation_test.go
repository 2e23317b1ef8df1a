package errors

import (
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrors_Error(t *testing.T) {
	var errs ValidationErrors
	assert.Equal(t, "validation failed", errs.Error())

	errs = append(errs, ValidationError{Field: "page", Message: "must be at least 1"})
	assert.Equal(t, "validation failed: page must be at least 1", errs.Error())

	errs = append(errs, ValidationError{Field: "limit", Message: "must be at most 100"})
	assert.Equal(t, "validation failed: 2 field errors", errs.Error())
}

type pageWindow struct {
	Page   int    `validate:"min=1"`
	Limit  int    `validate:"max=100"`
	UserID string `validate:"required,max=5"`
}

func TestToValidationErrors(t *testing.T) {
	err := validator.New().Struct(pageWindow{Page: 0, Limit: 500, UserID: "too-long-id"})

	errs := ToValidationErrors(err)
	require.Len(t, errs, 3)

	byField := map[string]ValidationError{}
	for _, e := range errs {
		byField[e.Field] = e
	}
	assert.Equal(t, "min", byField["Page"].Rule)
	assert.Equal(t, "must be at least 1", byField["Page"].Message)
	assert.Equal(t, "must be at most 100", byField["Limit"].Message)
	assert.Equal(t, "must be at most 5 characters", byField["UserID"].Message)
	assert.Equal(t, 500, byField["Limit"].Value)
}

func TestToValidationErrors_Wrapped(t *testing.T) {
	err := validator.New().Var("", "required")

	errs := ToValidationErrors(fmt.Errorf("bind: %w", err))
	require.Len(t, errs, 1)
	assert.Equal(t, "is required", errs[0].Message)
}

func TestToValidationErrors_NonValidatorError(t *testing.T) {
	assert.Nil(t, ToValidationErrors(nil))
	assert.Nil(t, ToValidationErrors(fmt.Errorf("boom")))
}
