package models

import (
	"testing"
	"time"
)

func TestDateWindowContains(t *testing.T) {
	w := DateWindow{Start: "06/01/2025", End: "09/30/2025"}

	inside, _ := time.Parse(DateLayout, "07/15/2025")
	if !w.Contains(inside) {
		t.Fatal("mid-window date should be contained")
	}

	// Both edges are inclusive.
	start, _ := time.Parse(DateLayout, "06/01/2025")
	end, _ := time.Parse(DateLayout, "09/30/2025")
	if !w.Contains(start) || !w.Contains(end) {
		t.Fatal("window edges should be inclusive")
	}

	before, _ := time.Parse(DateLayout, "05/31/2025")
	after, _ := time.Parse(DateLayout, "10/01/2025")
	if w.Contains(before) || w.Contains(after) {
		t.Fatal("dates outside the window should not be contained")
	}
}

func TestDateWindowBoundsRejectsInverted(t *testing.T) {
	w := DateWindow{Start: "09/30/2025", End: "06/01/2025"}
	if _, _, err := w.Bounds(); err == nil {
		t.Fatal("expected error for inverted window")
	}
}

func TestOutcomePredictsIncrease(t *testing.T) {
	if !OutcomeIncrease.PredictsIncrease() {
		t.Fatal("increase should predict a rise")
	}
	if OutcomeNoIncrease.PredictsIncrease() || OutcomeUnknown.PredictsIncrease() {
		t.Fatal("no_increase and unknown predict no rise")
	}
}

func TestSummarizeExcludesIndeterminate(t *testing.T) {
	results := []ScoreResult{
		{Ticker: "A", Status: StatusPass},
		{Ticker: "B", Status: StatusFail},
		{Ticker: "C", Status: StatusIndeterminate},
	}

	s := Summarize(results)
	if s.Passed != 1 || s.Scored != 2 || s.Total != 3 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	if s.PassRate() != 50.0 {
		t.Fatalf("pass rate should exclude indeterminate: %v", s.PassRate())
	}
}

func TestSummarizeEmptyRun(t *testing.T) {
	s := Summarize(nil)
	if s.Total != 0 || s.Scored != 0 || s.Passed != 0 {
		t.Fatalf("unexpected summary: %+v", s)
	}
	// Zero-of-zero is a zero rate, not a panic.
	if s.PassRate() != 0 {
		t.Fatalf("empty run pass rate: %v", s.PassRate())
	}
}

func TestEvalRequestValidate(t *testing.T) {
	req := EvalRequest{Participants: map[string]string{"agent": "http://localhost:9119"}}
	if err := req.Validate("agent"); err != nil {
		t.Fatalf("validate: %v", err)
	}
	if err := req.Validate("agent", "judge"); err == nil {
		t.Fatal("expected error for missing role")
	}
}
