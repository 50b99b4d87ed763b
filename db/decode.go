package db

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"lankasafe-hq/types"
)

// Decoder turns raw documents into records. Defaults for unset status fields
// are applied here, once, so nothing downstream has to guess.
type Decoder struct {
	Log *zap.Logger
}

func (d Decoder) Incidents(docs []Document) []types.Incident {
	out := make([]types.Incident, 0, len(docs))
	for _, doc := range docs {
		out = append(out, d.Incident(doc))
	}
	return out
}

func (d Decoder) Incident(doc Document) types.Incident {
	f := fields{doc: doc, log: d.Log}
	return types.Incident{
		ID:             doc.ID,
		UserID:         f.str("userId"),
		Type:           f.str("type"),
		Severity:       f.integer("severity"),
		Latitude:       f.float("latitude"),
		Longitude:      f.float("longitude"),
		Timestamp:      f.millis("timestamp"),
		SyncStatus:     f.strOr("status", types.Synced),
		ActionStatus:   types.NormalizeActionStatus(types.ActionStatus(f.str("actionStatus"))),
		Location:       f.str("location"),
		Description:    f.str("description"),
		CloudImageURLs: f.list("cloudImageUrls"),
		CreatedAtMs:    f.millis(CreatedAtField),
		UpdatedAtMs:    f.millis(UpdatedAtField),
	}
}

func (d Decoder) AidRequests(docs []Document) []types.AidRequest {
	out := make([]types.AidRequest, 0, len(docs))
	for _, doc := range docs {
		out = append(out, d.AidRequest(doc))
	}
	return out
}

func (d Decoder) AidRequest(doc Document) types.AidRequest {
	f := fields{doc: doc, log: d.Log}
	return types.AidRequest{
		ID:             doc.ID,
		UserID:         f.str("userId"),
		AidTypes:       f.list("aid_types"),
		Description:    f.str("description"),
		PriorityLevel:  f.integer("priority_level"),
		Latitude:       f.float("latitude"),
		Longitude:      f.float("longitude"),
		SyncStatus:     f.strOr("status", types.Synced),
		AidStatus:      types.NormalizeActionStatus(types.ActionStatus(f.str("aidStatus"))),
		RequesterName:  f.str("requester_name"),
		ContactNumber:  f.str("contact_number"),
		NumberOfPeople: f.integer("number_of_people"),
		CreatedAtMs:    f.millis(CreatedAtField),
		UpdatedAtMs:    f.millis(UpdatedAtField),
	}
}

func (d Decoder) Camps(docs []Document) []types.DetentionCamp {
	out := make([]types.DetentionCamp, 0, len(docs))
	for _, doc := range docs {
		out = append(out, d.Camp(doc))
	}
	return out
}

func (d Decoder) Camp(doc Document) types.DetentionCamp {
	f := fields{doc: doc, log: d.Log}
	return types.DetentionCamp{
		ID:               doc.ID,
		UserID:           f.str("userId"),
		Name:             f.str("name"),
		Latitude:         f.float("latitude"),
		Longitude:        f.float("longitude"),
		Capacity:         f.integer("capacity"),
		CurrentOccupancy: f.integer("current_occupancy"),
		Facilities:       f.list("facilities"),
		CampStatus:       types.NormalizeCampStatus(types.CampStatus(f.str("campStatus"))),
		AdminApproved:    f.boolOr("adminApproved", true),
		ContactPerson:    f.str("contact_person"),
		ContactPhone:     f.str("contact_phone"),
		Description:      f.str("description"),
		CreatedAtMs:      f.millis(CreatedAtField),
		UpdatedAtMs:      f.millis(UpdatedAtField),
	}
}

func (d Decoder) Volunteers(docs []Document) []types.Volunteer {
	out := make([]types.Volunteer, 0, len(docs))
	for _, doc := range docs {
		out = append(out, d.Volunteer(doc))
	}
	return out
}

func (d Decoder) Volunteer(doc Document) types.Volunteer {
	f := fields{doc: doc, log: d.Log}
	return types.Volunteer{
		ID:               doc.ID,
		UserID:           f.str("userId"),
		UserEmail:        f.str("user_email"),
		FullName:         f.str("full_name"),
		PhoneNumber:      f.str("phone_number"),
		Districts:        f.list("district"),
		Skills:           f.list("skills"),
		Availability:     f.list("availability"),
		PreferredTasks:   f.list("preferred_tasks"),
		EmergencyContact: f.str("emergency_contact"),
		EmergencyPhone:   f.str("emergency_phone"),
		Approved:         f.boolOr("approved", false),
		CreatedAtMs:      f.millis(CreatedAtField),
		UpdatedAtMs:      f.millis(UpdatedAtField),
	}
}

// fields reads loosely typed document values. The field app writes numbers as
// either integers or doubles and some lists as JSON text.
type fields struct {
	doc Document
	log *zap.Logger
}

func (f fields) str(key string) string {
	switch v := f.doc.Data[key].(type) {
	case string:
		return v
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

func (f fields) strOr(key, def string) string {
	if s := f.str(key); s != "" {
		return s
	}
	return def
}

func (f fields) float(key string) float64 {
	switch v := f.doc.Data[key].(type) {
	case float64:
		return v
	case int64:
		return float64(v)
	case int:
		return float64(v)
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err == nil {
			return n
		}
	}
	return 0
}

func (f fields) integer(key string) int {
	v := f.float(key)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(v)
}

// millis accepts epoch milliseconds or a Firestore timestamp.
func (f fields) millis(key string) int64 {
	switch v := f.doc.Data[key].(type) {
	case time.Time:
		return v.UnixMilli()
	case int64:
		return v
	case int:
		return int64(v)
	case float64:
		return int64(v)
	}
	return 0
}

func (f fields) boolOr(key string, def bool) bool {
	if v, ok := f.doc.Data[key].(bool); ok {
		return v
	}
	return def
}

// list reads a list field stored natively or as JSON text. A value that cannot
// be read becomes an empty list.
func (f fields) list(key string) []string {
	switch v := f.doc.Data[key].(type) {
	case nil:
		return []string{}
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if strings.TrimSpace(v) == "" {
			return []string{}
		}
		var out []string
		if err := json.Unmarshal([]byte(v), &out); err != nil {
			f.malformed(key, err)
			return []string{}
		}
		if out == nil {
			return []string{}
		}
		return out
	}
	f.malformed(key, nil)
	return []string{}
}

func (f fields) malformed(key string, err error) {
	if f.log == nil {
		return
	}
	f.log.Debug("malformed list field",
		zap.String("id", f.doc.ID),
		zap.String("field", key),
		zap.Error(err),
	)
}

// EncodeList serialises a list field the way the field app stores it.
func EncodeList(items []string) string {
	if items == nil {
		items = []string{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "[]"
	}
	return string(b)
}
