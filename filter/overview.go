package filter

import (
	"cmp"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"time"

	"lankasafe-hq/types"
)

const (
	TrappedCivilians = "Trapped Civilians"
	RoadBlock        = "Road Block"

	topTypes = 6
)

var trappedRe = regexp.MustCompile(`People trapped: (\d+)`)

type TypeCount struct {
	Type  string `json:"type"`
	Count int    `json:"count"`
}

type IncidentStats struct {
	Counts
	Today      int            `json:"today"`
	LastWeek   int            `json:"lastWeek"`
	BySeverity map[string]int `json:"bySeverity"`
	TopTypes   []TypeCount    `json:"topTypes"`
	Trapped    int            `json:"trappedIncidents"`
	People     int            `json:"peopleTrapped"`
	RoadBlocks int            `json:"roadBlocks"`
}

type AidStats struct {
	Counts
	Today      int            `json:"today"`
	LastWeek   int            `json:"lastWeek"`
	ByPriority map[string]int `json:"byPriority"`
}

type CampStats struct {
	CampCounts
	OccupancyRate int `json:"occupancyRate"`
}

// OverviewStats backs the statistics panel.
type OverviewStats struct {
	Incidents IncidentStats `json:"incidents"`
	Aid       AidStats      `json:"aidRequests"`
	Camps     CampStats     `json:"camps"`
}

// Overview summarises already district-scoped snapshots. "Today" starts at local
// midnight in loc.
func Overview(incidents []types.Incident, aid []types.AidRequest, camps []types.DetentionCamp, now time.Time, loc *time.Location) OverviewStats {
	if loc == nil {
		loc = time.UTC
	}
	local := now.In(loc)
	todayStart := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc).UnixMilli()
	weekAgo := now.Add(-7 * 24 * time.Hour).UnixMilli()

	var out OverviewStats

	out.Incidents.Counts = Count(incidents)
	out.Incidents.BySeverity = make(map[string]int)
	byType := make(map[string]int)
	for _, i := range incidents {
		if i.Timestamp >= todayStart {
			out.Incidents.Today++
		}
		if i.Timestamp >= weekAgo {
			out.Incidents.LastWeek++
		}
		out.Incidents.BySeverity[types.SeverityLabel(i.Severity)]++
		if i.Type != "" {
			byType[i.Type]++
		}
		switch i.Type {
		case TrappedCivilians:
			out.Incidents.Trapped++
			out.Incidents.People += PeopleTrapped(i.Description)
		case RoadBlock:
			out.Incidents.RoadBlocks++
		}
	}
	out.Incidents.TopTypes = rankTypes(byType, topTypes)

	out.Aid.Counts = Count(aid)
	out.Aid.ByPriority = make(map[string]int)
	for _, a := range aid {
		if a.CreatedAtMs >= todayStart {
			out.Aid.Today++
		}
		if a.CreatedAtMs >= weekAgo {
			out.Aid.LastWeek++
		}
		out.Aid.ByPriority[types.SeverityLabel(a.PriorityLevel)]++
	}

	out.Camps.CampCounts = CountCamps(camps)
	if out.Camps.Capacity > 0 {
		out.Camps.OccupancyRate = int(float64(out.Camps.Occupancy)*100/float64(out.Camps.Capacity) + 0.5)
	}
	return out
}

// PeopleTrapped reads the "People trapped: N" line field reporters put in the description.
func PeopleTrapped(description string) int {
	m := trappedRe.FindStringSubmatch(description)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}

func rankTypes(counts map[string]int, limit int) []TypeCount {
	out := make([]TypeCount, 0, len(counts))
	for t, n := range counts {
		out = append(out, TypeCount{Type: t, Count: n})
	}
	slices.SortFunc(out, func(a, b TypeCount) int {
		if a.Count != b.Count {
			return cmp.Compare(b.Count, a.Count)
		}
		return strings.Compare(a.Type, b.Type)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}
