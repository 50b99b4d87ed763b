// Package live keeps the latest snapshot of each watched collection in memory
// and tells connected dashboards when one changes.
package live

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"lankasafe-hq/db"
	"lankasafe-hq/metrics"
	"lankasafe-hq/types"
)

// Watched is the set of collections the dashboard subscribes to.
var Watched = []string{
	db.IncidentsCollection,
	db.AidRequestsCollection,
	db.CampsCollection,
	db.VolunteersCollection,
}

// SubscriptionError means a live query could not be established or died. The
// dashboard cannot show anything trustworthy until the process restarts.
type SubscriptionError struct {
	Collection string
	Err        error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription to %s failed: %v", e.Collection, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

// Feed holds the latest decoded snapshot per collection. Each snapshot replaces
// the previous one wholesale; readers get the slice as delivered and must not
// modify it.
type Feed struct {
	Store   db.RecordStore
	Decoder db.Decoder
	Hub     *Hub
	Log     *zap.Logger

	mu         sync.RWMutex
	incidents  []types.Incident
	aid        []types.AidRequest
	camps      []types.DetentionCamp
	volunteers []types.Volunteer
	received   map[string]bool
	err        error

	ready     chan struct{}
	readyOnce sync.Once
	unsubs    []func()
}

func NewFeed(store db.RecordStore, hub *Hub, log *zap.Logger) *Feed {
	return &Feed{
		Store:    store,
		Decoder:  db.Decoder{Log: log},
		Hub:      hub,
		Log:      log,
		received: make(map[string]bool),
		ready:    make(chan struct{}),
	}
}

// Start opens one subscription per watched collection.
func (f *Feed) Start(ctx context.Context) {
	for _, c := range Watched {
		collection := c
		f.Log.Info("subscribing", zap.String("collection", collection), zap.String("order", db.OrderField(collection)))
		unsub := f.Store.Subscribe(ctx, collection, db.OrderField(collection),
			func(docs []db.Document) { f.apply(collection, docs) },
			func(err error) { f.fail(collection, err) },
		)
		f.mu.Lock()
		f.unsubs = append(f.unsubs, unsub)
		f.mu.Unlock()
	}
}

func (f *Feed) apply(collection string, docs []db.Document) {
	count := len(docs)
	f.mu.Lock()
	switch collection {
	case db.IncidentsCollection:
		f.incidents = f.Decoder.Incidents(docs)
	case db.AidRequestsCollection:
		f.aid = f.Decoder.AidRequests(docs)
	case db.CampsCollection:
		f.camps = f.Decoder.Camps(docs)
	case db.VolunteersCollection:
		f.volunteers = f.Decoder.Volunteers(docs)
	}
	f.received[collection] = true
	allReceived := len(f.received) == len(Watched)
	f.mu.Unlock()

	metrics.SnapshotsTotal.WithLabelValues(collection).Inc()
	f.Log.Debug("snapshot", zap.String("collection", collection), zap.Int("count", count))
	if allReceived {
		f.readyOnce.Do(func() { close(f.ready) })
	}
	if f.Hub != nil {
		f.Hub.Publish(Event{Type: "snapshot", Collection: collection, Count: count, At: time.Now().UnixMilli()})
	}
}

func (f *Feed) fail(collection string, err error) {
	metrics.SubscriptionFailuresTotal.WithLabelValues(collection).Inc()
	f.Log.Error("subscription failed", zap.String("collection", collection), zap.Error(err))
	f.mu.Lock()
	if f.err == nil {
		f.err = &SubscriptionError{Collection: collection, Err: err}
	}
	f.mu.Unlock()
	f.readyOnce.Do(func() { close(f.ready) })
	if f.Hub != nil {
		f.Hub.Publish(Event{Type: "error", Collection: collection, At: time.Now().UnixMilli()})
	}
}

// WaitReady blocks until every collection delivered a first snapshot or a
// subscription failed, and returns the failure if any.
func (f *Feed) WaitReady(ctx context.Context) error {
	select {
	case <-f.ready:
		return f.Err()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Ready reports whether the first snapshots are in and nothing failed.
func (f *Feed) Ready() bool {
	select {
	case <-f.ready:
		return f.Err() == nil
	default:
		return false
	}
}

func (f *Feed) Err() error {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.err
}

func (f *Feed) Incidents() []types.Incident {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.incidents
}

func (f *Feed) AidRequests() []types.AidRequest {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.aid
}

func (f *Feed) Camps() []types.DetentionCamp {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.camps
}

func (f *Feed) Volunteers() []types.Volunteer {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.volunteers
}

// Camp finds a camp in the current snapshot.
func (f *Feed) Camp(id string) (types.DetentionCamp, bool) {
	for _, c := range f.Camps() {
		if c.ID == id {
			return c, true
		}
	}
	return types.DetentionCamp{}, false
}

func (f *Feed) Incident(id string) (types.Incident, bool) {
	for _, i := range f.Incidents() {
		if i.ID == id {
			return i, true
		}
	}
	return types.Incident{}, false
}

func (f *Feed) AidRequest(id string) (types.AidRequest, bool) {
	for _, a := range f.AidRequests() {
		if a.ID == id {
			return a, true
		}
	}
	return types.AidRequest{}, false
}

// Close unsubscribes everything.
func (f *Feed) Close() {
	f.mu.Lock()
	unsubs := f.unsubs
	f.unsubs = nil
	f.mu.Unlock()
	for _, u := range unsubs {
		u()
	}
}
