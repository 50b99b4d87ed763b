package db

import (
	"context"
	"errors"
	"fmt"
)

// Collections written by the field app and read by HQ.
const (
	IncidentsCollection    = "incidents"
	AidRequestsCollection  = "aid_requests"
	CampsCollection        = "detention_camps"
	VolunteersCollection   = "volunteers"
	PresenceCollection     = "userPresence"
	ReachabilityCollection = "pendingReachabilityChecks"

	UpdatedAtField     = "updated_at"
	CreatedAtField     = "created_at"
	incidentOrderField = "timestamp"
	defaultOrderField  = CreatedAtField
)

// OrderField is the field a collection's live query is ordered by, newest first.
func OrderField(collection string) string {
	if collection == IncidentsCollection {
		return incidentOrderField
	}
	return defaultOrderField
}

// Document is one stored record as raw field data.
type Document struct {
	ID   string
	Data map[string]any
}

// RecordStore is the external document database. Subscribe pushes the full
// ordered result set on every change until the returned func is called or ctx ends.
type RecordStore interface {
	Subscribe(ctx context.Context, collection, orderField string, onSnapshot func([]Document), onError func(error)) (unsubscribe func())
	UpdatePartial(ctx context.Context, collection, id string, fields map[string]any) error
	CreateRecord(ctx context.Context, collection, id string, data map[string]any) error
	Get(ctx context.Context, collection, id string) (Document, error)
	Where(ctx context.Context, collection, field string, value any) ([]Document, error)
	Close() error
}

var ErrNotFound = errors.New("document not found")

// WriteError is a failed write-through. It is surfaced to the caller and never retried.
type WriteError struct {
	Collection string
	ID         string
	Err        error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s/%s: %v", e.Collection, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
