package filter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"lankasafe-hq/types"
)

type Approval string

const (
	ApprovalAll      Approval = "all"
	ApprovalPending  Approval = "pending"
	ApprovalApproved Approval = "approved"
)

func ParseApproval(s string) (Approval, error) {
	switch a := Approval(strings.ToLower(strings.TrimSpace(s))); a {
	case "":
		return ApprovalAll, nil
	case ApprovalAll, ApprovalPending, ApprovalApproved:
		return a, nil
	}
	return "", fmt.Errorf("unknown approval filter %q", s)
}

func CampsByApproval(camps []types.DetentionCamp, a Approval) []types.DetentionCamp {
	if a == ApprovalAll || a == "" {
		return camps
	}
	want := a == ApprovalApproved
	out := make([]types.DetentionCamp, 0, len(camps))
	for _, c := range camps {
		if c.AdminApproved == want {
			out = append(out, c)
		}
	}
	return out
}

type CampCounts struct {
	Total           int `json:"total"`
	PendingApproval int `json:"pendingApproval"`
	Approved        int `json:"approved"`
	Operational     int `json:"operational"`
	Full            int `json:"full"`
	Closed          int `json:"closed"`
	Capacity        int `json:"capacity"`
	Occupancy       int `json:"occupancy"`
}

// CountCamps is computed over the district-scoped set, independent of the approval filter.
func CountCamps(camps []types.DetentionCamp) CampCounts {
	c := CampCounts{Total: len(camps)}
	for _, camp := range camps {
		if camp.AdminApproved {
			c.Approved++
		} else {
			c.PendingApproval++
		}
		switch types.NormalizeCampStatus(camp.CampStatus) {
		case types.Full:
			c.Full++
		case types.Closed:
			c.Closed++
		default:
			c.Operational++
		}
		c.Capacity += camp.Capacity
		c.Occupancy += camp.CurrentOccupancy
	}
	return c
}

// SortCamps orders newest first, stably.
func SortCamps(camps []types.DetentionCamp) []types.DetentionCamp {
	out := slices.Clone(camps)
	slices.SortStableFunc(out, func(a, b types.DetentionCamp) int { return cmp.Compare(b.CreatedAtMs, a.CreatedAtMs) })
	return out
}

type CampQuery struct {
	District string
	Approval Approval
}

type CampResult struct {
	Items  []types.DetentionCamp `json:"items"`
	Counts CampCounts            `json:"counts"`
}

// ApplyCamps scopes to the district, counts, then narrows by approval.
func ApplyCamps(camps []types.DetentionCamp, q CampQuery, c Classifier) CampResult {
	scoped := ByDistrict(camps, q.District, c)
	return CampResult{
		Items:  SortCamps(CampsByApproval(scoped, q.Approval)),
		Counts: CountCamps(scoped),
	}
}

// SortVolunteers puts registrations awaiting approval first, newest first within each group.
func SortVolunteers(vs []types.Volunteer) []types.Volunteer {
	out := slices.Clone(vs)
	slices.SortStableFunc(out, func(a, b types.Volunteer) int {
		if a.Approved != b.Approved {
			if !a.Approved {
				return -1
			}
			return 1
		}
		return cmp.Compare(b.CreatedAtMs, a.CreatedAtMs)
	})
	return out
}

type VolunteerCounts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Approved int `json:"approved"`
}

func CountVolunteers(vs []types.Volunteer) VolunteerCounts {
	c := VolunteerCounts{Total: len(vs)}
	for _, v := range vs {
		if v.Approved {
			c.Approved++
		} else {
			c.Pending++
		}
	}
	return c
}
