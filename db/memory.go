package db

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"reflect"
	"slices"
	"strings"
	"sync"
	"time"
)

// MemoryStore is an in-process RecordStore with the same update and snapshot
// semantics as Firestore. It backs tests and STORE_DRIVER=memory.
//
// Snapshots are delivered synchronously, in write order. Callbacks must not
// write to the store.
type MemoryStore struct {
	mu          sync.RWMutex
	emitMu      sync.Mutex
	collections map[string]map[string]map[string]any
	subs        map[string]map[int]*memorySub
	nextSub     int

	failSubscribe map[string]error
	failWrites    error
}

type memorySub struct {
	orderField string
	onSnapshot func([]Document)
	onError    func(error)
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections:   make(map[string]map[string]map[string]any),
		subs:          make(map[string]map[int]*memorySub),
		failSubscribe: make(map[string]error),
	}
}

// FailSubscribe makes new subscriptions to collection report err instead of data.
func (m *MemoryStore) FailSubscribe(collection string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failSubscribe[collection] = err
}

// FailWrites makes every subsequent write return err. nil restores normal behaviour.
func (m *MemoryStore) FailWrites(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failWrites = err
}

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) Subscribe(ctx context.Context, collection, orderField string, onSnapshot func([]Document), onError func(error)) func() {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	if err := m.failSubscribe[collection]; err != nil {
		m.mu.Unlock()
		onError(fmt.Errorf("subscribe %s: %w", collection, err))
		return func() {}
	}
	id := m.nextSub
	m.nextSub++
	if m.subs[collection] == nil {
		m.subs[collection] = make(map[int]*memorySub)
	}
	m.subs[collection][id] = &memorySub{orderField: orderField, onSnapshot: onSnapshot, onError: onError}
	initial := m.snapshotLocked(collection, orderField)
	m.mu.Unlock()

	onSnapshot(initial)

	done := make(chan struct{})
	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			m.mu.Lock()
			delete(m.subs[collection], id)
			m.mu.Unlock()
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-done:
		}
	}()
	return unsubscribe
}

// Put writes a document wholesale, bypassing failure injection. Used for seeding.
func (m *MemoryStore) Put(collection, id string, data map[string]any) {
	m.write(collection, func() error {
		m.docsLocked(collection)[id] = maps.Clone(data)
		return nil
	})
}

func (m *MemoryStore) UpdatePartial(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return &WriteError{Collection: collection, ID: id, Err: err}
	}
	return m.write(collection, func() error {
		if m.failWrites != nil {
			return &WriteError{Collection: collection, ID: id, Err: m.failWrites}
		}
		doc, ok := m.collections[collection][id]
		if !ok {
			return &WriteError{Collection: collection, ID: id, Err: ErrNotFound}
		}
		for k, v := range fields {
			doc[k] = v
		}
		return nil
	})
}

func (m *MemoryStore) CreateRecord(ctx context.Context, collection, id string, data map[string]any) error {
	if err := ctx.Err(); err != nil {
		return &WriteError{Collection: collection, ID: id, Err: err}
	}
	return m.write(collection, func() error {
		if m.failWrites != nil {
			return &WriteError{Collection: collection, ID: id, Err: m.failWrites}
		}
		m.docsLocked(collection)[id] = maps.Clone(data)
		return nil
	})
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	doc, ok := m.collections[collection][id]
	if !ok {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, ErrNotFound)
	}
	return Document{ID: id, Data: maps.Clone(doc)}, nil
}

func (m *MemoryStore) Where(ctx context.Context, collection, field string, value any) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Document
	for _, id := range sortedKeys(m.collections[collection]) {
		doc := m.collections[collection][id]
		if v, ok := doc[field]; ok && sameValue(v, value) {
			out = append(out, Document{ID: id, Data: maps.Clone(doc)})
		}
	}
	return out, nil
}

// write applies fn under the store lock and then pushes the collection to its
// subscribers. emitMu keeps deliveries in write order.
func (m *MemoryStore) write(collection string, fn func() error) error {
	m.emitMu.Lock()
	defer m.emitMu.Unlock()

	m.mu.Lock()
	if err := fn(); err != nil {
		m.mu.Unlock()
		return err
	}
	type delivery struct {
		sub  *memorySub
		docs []Document
	}
	var pending []delivery
	for _, id := range sortedKeys(m.subs[collection]) {
		sub := m.subs[collection][id]
		pending = append(pending, delivery{sub: sub, docs: m.snapshotLocked(collection, sub.orderField)})
	}
	m.mu.Unlock()

	for _, d := range pending {
		d.sub.onSnapshot(d.docs)
	}
	return nil
}

func (m *MemoryStore) docsLocked(collection string) map[string]map[string]any {
	docs, ok := m.collections[collection]
	if !ok {
		docs = make(map[string]map[string]any)
		m.collections[collection] = docs
	}
	return docs
}

// snapshotLocked mirrors a Firestore OrderBy query: documents missing the order
// field are left out, the rest are sorted descending with ties broken by id.
func (m *MemoryStore) snapshotLocked(collection, orderField string) []Document {
	docs := m.collections[collection]
	out := make([]Document, 0, len(docs))
	for id, data := range docs {
		if _, ok := data[orderField]; !ok {
			continue
		}
		out = append(out, Document{ID: id, Data: maps.Clone(data)})
	}
	slices.SortFunc(out, func(a, b Document) int {
		av, bv := orderValue(a.Data[orderField]), orderValue(b.Data[orderField])
		switch {
		case av > bv:
			return -1
		case av < bv:
			return 1
		}
		return strings.Compare(a.ID, b.ID)
	})
	return out
}

func orderValue(v any) float64 {
	switch t := v.(type) {
	case int:
		return float64(t)
	case int64:
		return float64(t)
	case float64:
		return t
	case time.Time:
		return float64(t.UnixMilli())
	}
	return 0
}

func sameValue(a, b any) bool {
	if af, ok := number(a); ok {
		if bf, ok := number(b); ok {
			return af == bf
		}
	}
	return reflect.DeepEqual(a, b)
}

func number(v any) (float64, bool) {
	switch t := v.(type) {
	case int:
		return float64(t), true
	case int64:
		return float64(t), true
	case float64:
		return t, true
	}
	return 0, false
}

func sortedKeys[K cmp.Ordered, V any](m map[K]V) []K {
	keys := make([]K, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
