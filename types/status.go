package types

import (
	"errors"
	"fmt"
	"strings"
)

// ActionStatus is the lifecycle of incidents and aid requests. Any state may move to any other.
type ActionStatus string

const (
	Pending      ActionStatus = "pending"
	TakingAction ActionStatus = "taking action"
	Completed    ActionStatus = "completed"
)

// CampStatus is set by staff independently of occupancy.
type CampStatus string

const (
	Operational CampStatus = "operational"
	Full        CampStatus = "full"
	Closed      CampStatus = "closed"
)

// Sync flag written by the field app.
const (
	SyncPending = "pending"
	Synced      = "synced"
	SyncFailed  = "failed"
)

// CriticalThreshold is the severity/priority at which a record counts as critical.
const CriticalThreshold = 4

var ErrUnknownStatus = errors.New("unknown status")

// ActionStatuses lists the lifecycle in display order.
func ActionStatuses() []ActionStatus {
	return []ActionStatus{Pending, TakingAction, Completed}
}

func CampStatuses() []CampStatus {
	return []CampStatus{Operational, Full, Closed}
}

func ParseActionStatus(s string) (ActionStatus, error) {
	switch v := ActionStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case Pending, TakingAction, Completed:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

func ParseCampStatus(s string) (CampStatus, error) {
	switch v := CampStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case Operational, Full, Closed:
		return v, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownStatus, s)
}

// NormalizeActionStatus maps an unset or unrecognised value to pending.
func NormalizeActionStatus(s ActionStatus) ActionStatus {
	if v, err := ParseActionStatus(string(s)); err == nil {
		return v
	}
	return Pending
}

// NormalizeCampStatus maps an unset or unrecognised value to operational.
func NormalizeCampStatus(s CampStatus) CampStatus {
	if v, err := ParseCampStatus(string(s)); err == nil {
		return v
	}
	return Operational
}

func (s ActionStatus) Label() string {
	switch NormalizeActionStatus(s) {
	case TakingAction:
		return "Taking Action"
	case Completed:
		return "Completed"
	}
	return "Pending"
}

func (s ActionStatus) Tone() string {
	switch NormalizeActionStatus(s) {
	case TakingAction:
		return "blue"
	case Completed:
		return "green"
	}
	return "yellow"
}

func (s CampStatus) Label() string {
	switch NormalizeCampStatus(s) {
	case Full:
		return "Full"
	case Closed:
		return "Closed"
	}
	return "Operational"
}

// Color is the map marker colour for the camp.
func (s CampStatus) Color() string {
	switch NormalizeCampStatus(s) {
	case Full:
		return "#f59e0b"
	case Closed:
		return "#ef4444"
	}
	return "#10b981"
}

var (
	severityLabels = [5]string{"Low", "Normal", "Medium", "High", "Critical"}
	severityTones  = [5]string{"green", "blue", "yellow", "orange", "red"}
)

// SeverityLabel names a 1-5 severity or priority. Anything else reads as "Medium".
func SeverityLabel(level int) string {
	if level < 1 || level > len(severityLabels) {
		return severityLabels[2]
	}
	return severityLabels[level-1]
}

// SeverityTone is the badge colour for a 1-5 level, "yellow" when out of range.
func SeverityTone(level int) string {
	if level < 1 || level > len(severityTones) {
		return severityTones[2]
	}
	return severityTones[level-1]
}

func IsCritical(level int) bool {
	return level >= CriticalThreshold
}

// IncidentAlertLabel is the coarse label used in incident alert subjects.
func IncidentAlertLabel(severity int) string {
	switch {
	case severity >= 4:
		return "CRITICAL"
	case severity >= 3:
		return "HIGH"
	}
	return "MODERATE"
}

// AidAlertLabel is the coarse label used in aid request alert subjects.
func AidAlertLabel(priority int) string {
	switch {
	case priority >= 4:
		return "URGENT"
	case priority >= 3:
		return "HIGH"
	}
	return "NORMAL"
}
