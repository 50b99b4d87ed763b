// Package filter holds the pure pipelines that turn a record snapshot into a
// district-scoped, bucketed, sorted view plus its counts. Nothing here mutates
// its input or talks to the store.
package filter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"

	"lankasafe-hq/districts"
	"lankasafe-hq/types"
)

// Classifier maps a coordinate to a district name. *districts.Gazetteer implements it.
type Classifier interface {
	Classify(lat, lng float64) string
}

// Located is any geotagged record.
type Located interface {
	Coordinates() (lat, lng float64)
	CreatedAt() int64
}

// Triaged records carry a severity or priority and an action status.
type Triaged interface {
	Located
	Rank() int
	Progress() types.ActionStatus
}

type Bucket string

const (
	BucketAll       Bucket = "all"
	BucketCritical  Bucket = "critical"
	BucketCompleted Bucket = "completed"
	BucketPending   Bucket = "pending"
)

type SortKey string

const (
	SortRecent   SortKey = "recent"
	SortOldest   SortKey = "oldest"
	SortSeverity SortKey = "severity"
)

// ParseBucket accepts an empty string as "all".
func ParseBucket(s string) (Bucket, error) {
	switch b := Bucket(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BucketAll, nil
	case BucketAll, BucketCritical, BucketCompleted, BucketPending:
		return b, nil
	}
	return "", fmt.Errorf("unknown status bucket %q", s)
}

// ParseSortKey accepts an empty string as "recent". "priority" is an alias for severity.
func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "":
		return SortRecent, nil
	case "priority":
		return SortSeverity, nil
	case SortRecent, SortOldest, SortSeverity:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

// ByDistrict keeps the records the classifier places in district. The wildcard
// returns the input unchanged. "Unknown" is a valid selection.
func ByDistrict[T Located](records []T, district string, c Classifier) []T {
	if districts.IsAll(district) {
		return records
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		lat, lng := r.Coordinates()
		if c.Classify(lat, lng) == district {
			out = append(out, r)
		}
	}
	return out
}

// ByBucket narrows to a status bucket. Critical means rank >= types.CriticalThreshold.
func ByBucket[T Triaged](records []T, b Bucket) []T {
	if b == BucketAll || b == "" {
		return records
	}
	out := make([]T, 0, len(records))
	for _, r := range records {
		if inBucket(r, b) {
			out = append(out, r)
		}
	}
	return out
}

func inBucket[T Triaged](r T, b Bucket) bool {
	switch b {
	case BucketCritical:
		return types.IsCritical(r.Rank())
	case BucketCompleted:
		return r.Progress() == types.Completed
	case BucketPending:
		return r.Progress() == types.Pending
	}
	return true
}

// Sort returns a stably sorted copy. Equal keys keep their input order.
func Sort[T Triaged](records []T, key SortKey) []T {
	out := slices.Clone(records)
	switch key {
	case SortOldest:
		slices.SortStableFunc(out, func(a, b T) int { return cmp.Compare(a.CreatedAt(), b.CreatedAt()) })
	case SortSeverity:
		slices.SortStableFunc(out, func(a, b T) int { return cmp.Compare(b.Rank(), a.Rank()) })
	default:
		slices.SortStableFunc(out, func(a, b T) int { return cmp.Compare(b.CreatedAt(), a.CreatedAt()) })
	}
	return out
}

// Counts are taken over the district-scoped set, before any bucket narrowing.
// Pending, InAction and Completed partition Total.
type Counts struct {
	Total     int `json:"total"`
	Critical  int `json:"critical"`
	Pending   int `json:"pending"`
	InAction  int `json:"inAction"`
	Completed int `json:"completed"`
}

func Count[T Triaged](records []T) Counts {
	var c Counts
	c.Total = len(records)
	for _, r := range records {
		if types.IsCritical(r.Rank()) {
			c.Critical++
		}
		switch r.Progress() {
		case types.Completed:
			c.Completed++
		case types.TakingAction:
			c.InAction++
		default:
			c.Pending++
		}
	}
	return c
}

// Query is one dashboard list request.
type Query struct {
	District string
	Bucket   Bucket
	Sort     SortKey
}

type Result[T any] struct {
	Items  []T    `json:"items"`
	Counts Counts `json:"counts"`
}

// Apply runs district filter, counts, bucket filter and sort, in that order.
func Apply[T Triaged](records []T, q Query, c Classifier) Result[T] {
	scoped := ByDistrict(records, q.District, c)
	counts := Count(scoped)
	items := Sort(ByBucket(scoped, q.Bucket), q.Sort)
	return Result[T]{Items: items, Counts: counts}
}

// ApplyIncidents is Apply with an incident type filter. The type only narrows
// the items; counts stay those of the district.
func ApplyIncidents(incidents []types.Incident, q Query, incidentType string, c Classifier) Result[types.Incident] {
	scoped := ByDistrict(incidents, q.District, c)
	counts := Count(scoped)
	items := Sort(ByBucket(ByType(scoped, incidentType), q.Bucket), q.Sort)
	return Result[types.Incident]{Items: items, Counts: counts}
}

// ByType keeps incidents of one type, case-insensitively. Empty or "all" is the identity.
func ByType(incidents []types.Incident, incidentType string) []types.Incident {
	t := strings.TrimSpace(incidentType)
	if t == "" || strings.EqualFold(t, "all") {
		return incidents
	}
	out := make([]types.Incident, 0, len(incidents))
	for _, i := range incidents {
		if strings.EqualFold(i.Type, t) {
			out = append(out, i)
		}
	}
	return out
}
