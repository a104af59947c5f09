package model

import (
	"encoding/json"
	"math"
	"testing"
)

func TestMonitorConfigJSONRoundTrip(t *testing.T) {
	in := MonitorConfig{
		SeparationLimit:     120,
		ComparisonOperator:  LessThanOrEqual,
		LorentzianEnabled:   true,
		LorentzianWidthDays: 14,
	}
	data, err := json.Marshal(in)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	want := `{"separationLimit":120,"comparisonOperator":"LESS_THAN_OR_EQUAL","lorentzianEnabled":true,"lorentzianWidthDays":14}`
	if string(data) != want {
		t.Fatalf("Marshal = %s, want %s", data, want)
	}

	var out MonitorConfig
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if out != in {
		t.Fatalf("round trip changed the record: %+v -> %+v", in, out)
	}
}

func TestMonitorConfigUnmarshalClampsAndDefaults(t *testing.T) {
	var cfg MonitorConfig
	if err := json.Unmarshal([]byte(`{"separationLimit":250.129,"lorentzianWidthDays":-2}`), &cfg); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if cfg.SeparationLimit != 180 || cfg.LorentzianWidthDays != 0 {
		t.Fatalf("values not clamped: %+v", cfg)
	}
	if cfg.ComparisonOperator != DefaultComparisonOperator {
		t.Fatalf("missing operator should default, got %v", cfg.ComparisonOperator)
	}

	if err := json.Unmarshal([]byte(`{"comparisonOperator":"SIDEWAYS"}`), &cfg); err == nil {
		t.Fatalf("expected an error for an unknown operator name")
	}
}

func TestClampSeparationLimit(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{-1, 0},
		{math.NaN(), 0},
		{0, 0},
		{34.186, 34.19},
		{180.01, 180},
	}
	for _, tc := range cases {
		if got := ClampSeparationLimit(tc.in); got != tc.want {
			t.Errorf("ClampSeparationLimit(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestClampLorentzianWidthDays(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{math.Inf(1), MaxLorentzianWidthDays},
		{1e20, MaxLorentzianWidthDays},
		{15.4, 15},
		{6.5, 7},
		{-0.4, 0},
		{math.Inf(-1), 0},
		{math.NaN(), 0},
	}
	for _, tc := range cases {
		if got := ClampLorentzianWidthDays(tc.in); got != tc.want {
			t.Errorf("ClampLorentzianWidthDays(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestNormalizeResetsUnknownOperator(t *testing.T) {
	cfg := MonitorConfig{SeparationLimit: 10, ComparisonOperator: ComparisonOperator(77)}.Normalize()
	if cfg.ComparisonOperator != DefaultComparisonOperator {
		t.Fatalf("operator = %v, want default", cfg.ComparisonOperator)
	}
}

func TestMonitorStateShouldContinue(t *testing.T) {
	if !(MonitorState{}).ShouldContinue() {
		t.Fatalf("unsatisfied state should continue")
	}
	if (MonitorState{Satisfied: true}).ShouldContinue() {
		t.Fatalf("satisfied state should stop")
	}
}
