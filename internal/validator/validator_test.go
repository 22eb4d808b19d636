package validator_test

import (
	"net/http"
	"strings"
	"testing"

	"otasync/internal/failure"
	"otasync/internal/validator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type guest struct {
	Name   string `json:"name" validate:"required,max=8"`
	Adults int    `json:"adults" validate:"gte=1,lte=4"`
	Status string `json:"status" validate:"omitempty,oneof=Pending Confirmed"`
	Date   string `json:"date" validate:"omitempty,datetime=2006-01-02"`
}

func TestValidate_Messages(t *testing.T) {
	tests := []struct {
		body string
		want string
	}{
		{body: `{"adults": 1}`, want: "name is required"},
		{body: `{"name": "Bartholomew", "adults": 1}`, want: "name must be at most 8 characters"},
		{body: `{"name": "Ann", "adults": 0}`, want: "adults must be at least 1"},
		{body: `{"name": "Ann", "adults": 5}`, want: "adults must be at most 4"},
		{body: `{"name": "Ann", "adults": 2, "status": "Lost"}`, want: "status must be one of Pending Confirmed"},
		{body: `{"name": "Ann", "adults": 2, "date": "05/01/2025"}`, want: "date must be a date formatted as 2006-01-02"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			var g guest
			err := validator.Validate(strings.NewReader(tt.body), &g)
			require.Error(t, err)
			assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
			assert.Equal(t, tt.want, err.Error())
		})
	}
}

func TestValidate_BadJSON(t *testing.T) {
	var g guest
	err := validator.Validate(strings.NewReader(`{"name":`), &g)

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, failure.GetCode(err))
}

func TestValidateStruct_Valid(t *testing.T) {
	g := guest{Name: "Ann", Adults: 2, Status: "Pending", Date: "2025-01-05"}
	assert.NoError(t, validator.ValidateStruct(&g))
}
