// Shoprec - E-Commerce Recommendation and Insight Platform
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shoprec

package validation

import (
	"strings"
	"testing"
)

type recommendParams struct {
	UserID string `validate:"required,min=8"`
	Limit  int    `validate:"min=1,max=100"`
	Agent  string `validate:"omitempty,oneof=history cohort basket context"`
}

func TestValidateStructPasses(t *testing.T) {
	params := recommendParams{UserID: "customer-0001", Limit: 10, Agent: "basket"}
	if err := ValidateStruct(&params); err != nil {
		t.Fatalf("expected valid struct, got %v", err)
	}
}

func TestValidateStructFieldErrors(t *testing.T) {
	tests := []struct {
		name      string
		params    recommendParams
		wantField string
		wantTag   string
	}{
		{
			name:      "missing user id",
			params:    recommendParams{Limit: 10},
			wantField: "UserID",
			wantTag:   "required",
		},
		{
			name:      "limit too large",
			params:    recommendParams{UserID: "customer-0001", Limit: 500},
			wantField: "Limit",
			wantTag:   "max",
		},
		{
			name:      "unknown agent",
			params:    recommendParams{UserID: "customer-0001", Limit: 10, Agent: "oracle"},
			wantField: "Agent",
			wantTag:   "oneof",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.params)
			if err == nil {
				t.Fatal("expected validation error, got nil")
			}
			found := false
			for _, fe := range err.Errors() {
				if fe.Field() == tt.wantField && fe.Tag() == tt.wantTag {
					found = true
				}
			}
			if !found {
				t.Errorf("expected error on %s (%s), got %v", tt.wantField, tt.wantTag, err)
			}
		})
	}
}

func TestToAPIErrorSingle(t *testing.T) {
	err := ValidateStruct(&recommendParams{UserID: "customer-0001", Limit: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}

	apiErr := err.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("code = %q, want VALIDATION_ERROR", apiErr.Code)
	}
	if apiErr.Details["field"] != "Limit" {
		t.Errorf("details field = %v, want Limit", apiErr.Details["field"])
	}
}

func TestToAPIErrorMultiple(t *testing.T) {
	err := ValidateStruct(&recommendParams{Limit: 0})
	if err == nil {
		t.Fatal("expected validation error")
	}
	if len(err.Errors()) < 2 {
		t.Fatalf("expected multiple field errors, got %d", len(err.Errors()))
	}

	apiErr := err.ToAPIError()
	if !strings.Contains(apiErr.Message, ";") {
		t.Errorf("expected combined message, got %q", apiErr.Message)
	}
	if _, ok := apiErr.Details["fields"]; !ok {
		t.Errorf("expected fields detail, got %v", apiErr.Details)
	}
}
