package utils

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name  string `json:"customer_name" validate:"required"`
	Email string `json:"customer_email" validate:"required,email"`
	Date  string `json:"booking_date" validate:"required,datetime=2006-01-02"`
	Lines []line `json:"items" validate:"required,min=1,dive"`
}

type line struct {
	Quantity int `json:"quantity" validate:"required,gt=0"`
}

func TestValidateStruct_MissingFieldUsesJSONName(t *testing.T) {
	err := ValidateStruct(sample{Email: "a@x.com", Date: "2025-06-01", Lines: []line{{1}}})
	require.Error(t, err)
	assert.Equal(t, "Missing required field: customer_name", err.Error())
	assert.Equal(t, http.StatusBadRequest, StatusOf(err))
}

func TestValidateStruct_InvalidFormat(t *testing.T) {
	err := ValidateStruct(sample{Name: "A", Email: "a@x.com", Date: "06/01/2025", Lines: []line{{1}}})
	require.Error(t, err)
	assert.Equal(t, "Invalid value for field: booking_date", err.Error())
}

func TestValidateStruct_NestedPath(t *testing.T) {
	err := ValidateStruct(sample{Name: "A", Email: "a@x.com", Date: "2025-06-01", Lines: []line{{-2}}})
	require.Error(t, err)
	assert.Equal(t, "Invalid value for field: items[0].quantity", err.Error())
}

func TestValidateStruct_OK(t *testing.T) {
	assert.NoError(t, ValidateStruct(sample{Name: "A", Email: "a@x.com", Date: "2025-06-01", Lines: []line{{2}}}))
}
