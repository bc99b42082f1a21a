// InternRank - Fairness-Aware Internship Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/internrank

package validation

import (
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()
	if v1 == nil || v1 != v2 {
		t.Error("GetValidator() should return one non-nil instance")
	}
}

type batchRequest struct {
	PersonIDs []string `validate:"required,min=1,max=3,dive,entity_id"`
	TopN      int      `validate:"gte=0,lte=100"`
	Attribute string   `validate:"omitempty,attribute"`
}

func TestValidateStruct(t *testing.T) {
	tests := []struct {
		name    string
		input   batchRequest
		wantTag string
	}{
		{"valid", batchRequest{PersonIDs: []string{"STU0001"}, TopN: 10, Attribute: "tier"}, ""},
		{"zero top_n allowed", batchRequest{PersonIDs: []string{"S1", "S2"}}, ""},
		{"missing ids", batchRequest{TopN: 5}, "required"},
		{"too many ids", batchRequest{PersonIDs: []string{"a", "b", "c", "d"}}, "max"},
		{"slash in id", batchRequest{PersonIDs: []string{"a/b"}}, "entity_id"},
		{"blank id", batchRequest{PersonIDs: []string{""}}, "entity_id"},
		{"top_n too large", batchRequest{PersonIDs: []string{"a"}, TopN: 101}, "lte"},
		{"unknown attribute", batchRequest{PersonIDs: []string{"a"}, Attribute: "age"}, "attribute"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if tt.wantTag == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("ValidateStruct() = nil, want %s failure", tt.wantTag)
			}
			if got := err.Errors()[0].Tag(); got != tt.wantTag {
				t.Errorf("tag = %q, want %q", got, tt.wantTag)
			}
		})
	}
}

func TestToAPIError(t *testing.T) {
	single := ValidateStruct(&batchRequest{PersonIDs: []string{"a"}, TopN: 500})
	apiErr := single.ToAPIError()
	if apiErr.Code != "VALIDATION_ERROR" {
		t.Errorf("Code = %q", apiErr.Code)
	}
	if apiErr.Message != "TopN must be less than or equal to 100" {
		t.Errorf("Message = %q", apiErr.Message)
	}
	if apiErr.Details["field"] != "TopN" {
		t.Errorf("Details = %v", apiErr.Details)
	}

	multi := ValidateStruct(&batchRequest{TopN: -1, Attribute: "age"}).ToAPIError()
	fields, ok := multi.Details["fields"].([]map[string]interface{})
	if !ok || len(fields) != 3 {
		t.Fatalf("Details[fields] = %v, want 3 entries", multi.Details["fields"])
	}
	if !strings.Contains(multi.Message, "PersonIDs: PersonIDs is required") {
		t.Errorf("Message = %q", multi.Message)
	}

	if got := (&RequestValidationError{}).ToAPIError().Message; got != "Validation failed" {
		t.Errorf("empty ToAPIError().Message = %q", got)
	}
}

func TestIsEntityID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"STU0001", true},
		{"student-42_a", true},
		{"", false},
		{"a b", false},
		{"a/b", false},
		{"tab\there", false},
		{strings.Repeat("x", maxIDLength+1), false},
	}
	for _, tt := range tests {
		if got := IsEntityID(tt.id); got != tt.want {
			t.Errorf("IsEntityID(%q) = %v, want %v", tt.id, got, tt.want)
		}
	}
}
