package types

import (
	"errors"
	"testing"
)

func TestParseActionStatus(t *testing.T) {
	cases := map[string]ActionStatus{
		"pending":       Pending,
		"Taking Action": TakingAction,
		" completed ":   Completed,
		"TAKING ACTION": TakingAction,
	}
	for in, want := range cases {
		got, err := ParseActionStatus(in)
		if err != nil || got != want {
			t.Errorf("ParseActionStatus(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseActionStatus("done"); !errors.Is(err, ErrUnknownStatus) {
		t.Fatalf("expected ErrUnknownStatus, got %v", err)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	if got := NormalizeActionStatus(""); got != Pending {
		t.Errorf("empty action status = %q, want pending", got)
	}
	if got := NormalizeActionStatus("weird"); got != Pending {
		t.Errorf("unknown action status = %q, want pending", got)
	}
	if got := NormalizeCampStatus(""); got != Operational {
		t.Errorf("empty camp status = %q, want operational", got)
	}
	if got := NormalizeCampStatus("Closed"); got != Closed {
		t.Errorf("camp status = %q, want closed", got)
	}
}

func TestSeverityLabel(t *testing.T) {
	want := []string{"Low", "Normal", "Medium", "High", "Critical"}
	for i, w := range want {
		if got := SeverityLabel(i + 1); got != w {
			t.Errorf("SeverityLabel(%d) = %q, want %q", i+1, got, w)
		}
	}
	for _, out := range []int{0, -1, 6, 99} {
		if got := SeverityLabel(out); got != "Medium" {
			t.Errorf("SeverityLabel(%d) = %q, want Medium", out, got)
		}
		if got := SeverityTone(out); got != "yellow" {
			t.Errorf("SeverityTone(%d) = %q, want yellow", out, got)
		}
	}
	if SeverityTone(5) != "red" || SeverityTone(1) != "green" {
		t.Fatal("tone ends mismatched")
	}
}

func TestIsCritical(t *testing.T) {
	for lvl, want := range map[int]bool{1: false, 3: false, 4: true, 5: true} {
		if IsCritical(lvl) != want {
			t.Errorf("IsCritical(%d) = %v", lvl, !want)
		}
	}
}

func TestAlertLabels(t *testing.T) {
	inc := map[int]string{5: "CRITICAL", 4: "CRITICAL", 3: "HIGH", 2: "MODERATE", 0: "MODERATE"}
	for lvl, want := range inc {
		if got := IncidentAlertLabel(lvl); got != want {
			t.Errorf("IncidentAlertLabel(%d) = %q, want %q", lvl, got, want)
		}
	}
	aid := map[int]string{5: "URGENT", 4: "URGENT", 3: "HIGH", 1: "NORMAL"}
	for lvl, want := range aid {
		if got := AidAlertLabel(lvl); got != want {
			t.Errorf("AidAlertLabel(%d) = %q, want %q", lvl, got, want)
		}
	}
}

func TestStatusLabels(t *testing.T) {
	if TakingAction.Label() != "Taking Action" || ActionStatus("").Label() != "Pending" {
		t.Fatal("action status labels")
	}
	if Full.Label() != "Full" || CampStatus("").Color() != "#10b981" {
		t.Fatal("camp status labels")
	}
}
