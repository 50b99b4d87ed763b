package db

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"lankasafe-hq/metrics"
	"lankasafe-hq/types"
)

// Records performs the dashboard's write-throughs. Each call is one partial
// update applied immediately; failures are returned for the user to retry.
type Records struct {
	Store RecordStore
	Log   *zap.Logger
	Now   func() time.Time
}

func NewRecords(store RecordStore, log *zap.Logger) *Records {
	return &Records{Store: store, Log: log, Now: time.Now}
}

func (r *Records) now() int64 {
	if r.Now == nil {
		return time.Now().UnixMilli()
	}
	return r.Now().UnixMilli()
}

func (r *Records) update(ctx context.Context, collection, id string, fields map[string]any) error {
	fields[UpdatedAtField] = r.now()
	err := r.Store.UpdatePartial(ctx, collection, id, fields)
	r.observe(collection, id, fields, err)
	return err
}

func (r *Records) observe(collection, id string, fields map[string]any, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
		if errors.Is(err, ErrNotFound) {
			outcome = "not_found"
		}
	}
	metrics.WriteThroughTotal.WithLabelValues(collection, outcome).Inc()

	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	if err != nil {
		r.Log.Warn("write-through failed",
			zap.String("collection", collection),
			zap.String("id", id),
			zap.Strings("fields", keys),
			zap.Error(err),
		)
		return
	}
	r.Log.Info("write-through",
		zap.String("collection", collection),
		zap.String("id", id),
		zap.Strings("fields", keys),
	)
}

func (r *Records) UpdateIncidentActionStatus(ctx context.Context, id string, s types.ActionStatus) error {
	return r.update(ctx, IncidentsCollection, id, map[string]any{"actionStatus": string(s)})
}

func (r *Records) UpdateAidRequestStatus(ctx context.Context, id string, s types.ActionStatus) error {
	return r.update(ctx, AidRequestsCollection, id, map[string]any{"aidStatus": string(s)})
}

func (r *Records) UpdateCampStatus(ctx context.Context, id string, s types.CampStatus) error {
	return r.update(ctx, CampsCollection, id, map[string]any{"campStatus": string(s)})
}

// UpdateCampOccupancy writes only the occupancy. The 0..capacity bound is checked
// by the caller against the current snapshot; the store does not enforce it.
func (r *Records) UpdateCampOccupancy(ctx context.Context, id string, occupancy int) error {
	return r.update(ctx, CampsCollection, id, map[string]any{"current_occupancy": occupancy})
}

func (r *Records) UpdateCampApproval(ctx context.Context, id string, approved bool) error {
	return r.update(ctx, CampsCollection, id, map[string]any{"adminApproved": approved})
}

func (r *Records) UpdateVolunteerApproval(ctx context.Context, id string, approved bool) error {
	return r.update(ctx, VolunteersCollection, id, map[string]any{"approved": approved})
}

// CreateCamp stores an admin-created camp. It starts approved and operational,
// with nobody in it.
func (r *Records) CreateCamp(ctx context.Context, id string, in types.NewCamp) (types.DetentionCamp, error) {
	now := r.now()
	facilities := in.Facilities
	if facilities == nil {
		facilities = []string{}
	}
	camp := types.DetentionCamp{
		ID:               id,
		Name:             in.Name,
		Latitude:         *in.Latitude,
		Longitude:        *in.Longitude,
		Capacity:         in.Capacity,
		CurrentOccupancy: 0,
		Facilities:       facilities,
		CampStatus:       types.Operational,
		AdminApproved:    true,
		ContactPerson:    in.ContactPerson,
		ContactPhone:     in.ContactPhone,
		Description:      in.Description,
		CreatedAtMs:      now,
		UpdatedAtMs:      now,
	}
	data := map[string]any{
		"id":                camp.ID,
		"name":              camp.Name,
		"latitude":          camp.Latitude,
		"longitude":         camp.Longitude,
		"capacity":          camp.Capacity,
		"current_occupancy": camp.CurrentOccupancy,
		"facilities":        EncodeList(camp.Facilities),
		"campStatus":        string(camp.CampStatus),
		"adminApproved":     camp.AdminApproved,
		"contact_person":    camp.ContactPerson,
		"contact_phone":     camp.ContactPhone,
		"description":       camp.Description,
		CreatedAtField:      camp.CreatedAtMs,
		UpdatedAtField:      camp.UpdatedAtMs,
	}
	err := r.Store.CreateRecord(ctx, CampsCollection, id, data)
	r.observe(CampsCollection, id, data, err)
	if err != nil {
		return types.DetentionCamp{}, err
	}
	return camp, nil
}
