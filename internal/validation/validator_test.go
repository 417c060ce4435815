// ReelSwipe - Swipe-Based Movie Recommendations
// Copyright 2026 josuejero
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/josuejero/ReelSwipe

package validation

import (
	"math"
	"strings"
	"testing"
)

func TestGetValidator_Singleton(t *testing.T) {
	v1 := GetValidator()
	v2 := GetValidator()

	if v1 != v2 {
		t.Error("GetValidator() should return the same singleton instance")
	}
	if v1 == nil {
		t.Error("GetValidator() should not return nil")
	}
}

type testRequest struct {
	SessionID string `json:"session_id" validate:"required"`
	Action    string `json:"action" validate:"required,oneof=like skip"`
	Limit     int    `json:"limit" validate:"min=1,max=50"`
	DwellMs   *int64 `json:"dwell_ms,omitempty" validate:"omitempty,gte=0"`
}

func TestValidateStruct(t *testing.T) {
	neg := int64(-1)
	tests := []struct {
		name      string
		input     testRequest
		wantField string
		wantMsg   string
	}{
		{
			name:  "valid",
			input: testRequest{SessionID: "s", Action: "like", Limit: 20},
		},
		{
			name:      "missing session",
			input:     testRequest{Action: "skip", Limit: 1},
			wantField: "session_id",
			wantMsg:   "session_id is required",
		},
		{
			name:      "bad action",
			input:     testRequest{SessionID: "s", Action: "love", Limit: 1},
			wantField: "action",
			wantMsg:   "action must be one of: like skip",
		},
		{
			name:      "limit above max",
			input:     testRequest{SessionID: "s", Action: "like", Limit: 51},
			wantField: "limit",
			wantMsg:   "limit must be at most 50",
		},
		{
			name:      "negative dwell",
			input:     testRequest{SessionID: "s", Action: "like", Limit: 1, DwellMs: &neg},
			wantField: "dwell_ms",
			wantMsg:   "dwell_ms must be greater than or equal to 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStruct(&tt.input)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("ValidateStruct() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("ValidateStruct() error = nil, want error")
			}
			fe := err.Errors()[0]
			if fe.Field() != tt.wantField {
				t.Errorf("Field() = %q, want %q", fe.Field(), tt.wantField)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Error() = %q, want %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestRequestError_MultipleFields(t *testing.T) {
	err := ValidateStruct(&testRequest{})
	if err == nil {
		t.Fatal("ValidateStruct() error = nil, want error")
	}
	if len(err.Errors()) != 3 {
		t.Errorf("Errors() = %d, want 3", len(err.Errors()))
	}
	if !strings.Contains(err.Error(), "; ") {
		t.Errorf("Error() = %q, want joined messages", err.Error())
	}
}

func TestIsNumber(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{float64(12), true},
		{"42", true},
		{" 1.5e3 ", true},
		{"", false},
		{"abc", false},
		{math.NaN(), false},
		{math.Inf(1), false},
		{"Inf", false},
		{true, false},
		{map[string]any{}, false},
	}
	for _, tt := range tests {
		if got := IsNumber(tt.v); got != tt.want {
			t.Errorf("IsNumber(%v) = %v, want %v", tt.v, got, tt.want)
		}
		if got := CheckValue(tt.v, TagNumber); got != tt.want {
			t.Errorf("CheckValue(%v, %s) = %v, want %v", tt.v, TagNumber, got, tt.want)
		}
	}
}

func TestIsString(t *testing.T) {
	tests := []struct {
		v    any
		want bool
	}{
		{"abc", true},
		{float64(7), true},
		{"   ", false},
		{false, false},
		{[]any{"a"}, false},
	}
	for _, tt := range tests {
		if got := IsString(tt.v); got != tt.want {
			t.Errorf("IsString(%v) = %v, want %v", tt.v, got, tt.want)
		}
		if got := CheckValue(tt.v, TagString); got != tt.want {
			t.Errorf("CheckValue(%v, %s) = %v, want %v", tt.v, TagString, got, tt.want)
		}
	}
}
