package db

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"slices"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore is the production RecordStore.
type FirestoreStore struct {
	client *firestore.Client
	Log    *zap.Logger
}

// NewFirestoreStore builds a client from base64 service-account JSON. An empty
// credential string falls back to application default credentials.
func NewFirestoreStore(ctx context.Context, encodedCreds, projectID string, log *zap.Logger) (*FirestoreStore, error) {
	var opts []option.ClientOption
	if encodedCreds != "" {
		creds, err := base64.StdEncoding.DecodeString(encodedCreds)
		if err != nil {
			return nil, fmt.Errorf("decode firestore credentials: %w", err)
		}
		opts = append(opts, option.WithCredentialsJSON(creds))
	}

	var conf *firebase.Config
	if projectID != "" {
		conf = &firebase.Config{ProjectID: projectID}
	}
	app, err := firebase.NewApp(ctx, conf, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("get firestore client: %w", err)
	}
	return &FirestoreStore{client: client, Log: log}, nil
}

func (s *FirestoreStore) Close() error {
	if s.client == nil {
		return nil
	}
	return s.client.Close()
}

func (s *FirestoreStore) Subscribe(ctx context.Context, collection, orderField string, onSnapshot func([]Document), onError func(error)) func() {
	ctx, cancel := context.WithCancel(ctx)
	it := s.client.Collection(collection).OrderBy(orderField, firestore.Desc).Snapshots(ctx)

	go func() {
		defer it.Stop()
		for {
			snap, err := it.Next()
			if err != nil {
				if ctx.Err() != nil || errors.Is(err, iterator.Done) || status.Code(err) == codes.Canceled {
					s.Log.Debug("subscription stopped", zap.String("collection", collection))
					return
				}
				onError(err)
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				onError(fmt.Errorf("read %s snapshot: %w", collection, err))
				return
			}
			out := make([]Document, 0, len(docs))
			for _, d := range docs {
				out = append(out, Document{ID: d.Ref.ID, Data: d.Data()})
			}
			onSnapshot(out)
		}
	}()

	return cancel
}

// UpdatePartial touches only the listed fields. A missing document is ErrNotFound.
func (s *FirestoreStore) UpdatePartial(ctx context.Context, collection, id string, fields map[string]any) error {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	updates := make([]firestore.Update, 0, len(keys))
	for _, k := range keys {
		updates = append(updates, firestore.Update{Path: k, Value: fields[k]})
	}

	if _, err := s.client.Collection(collection).Doc(id).Update(ctx, updates); err != nil {
		return &WriteError{Collection: collection, ID: id, Err: mapErr(err)}
	}
	return nil
}

func (s *FirestoreStore) CreateRecord(ctx context.Context, collection, id string, data map[string]any) error {
	if _, err := s.client.Collection(collection).Doc(id).Set(ctx, data); err != nil {
		return &WriteError{Collection: collection, ID: id, Err: mapErr(err)}
	}
	return nil
}

func (s *FirestoreStore) Get(ctx context.Context, collection, id string) (Document, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		return Document{}, fmt.Errorf("get %s/%s: %w", collection, id, mapErr(err))
	}
	return Document{ID: snap.Ref.ID, Data: snap.Data()}, nil
}

func (s *FirestoreStore) Where(ctx context.Context, collection, field string, value any) ([]Document, error) {
	docs, err := s.client.Collection(collection).Where(field, "==", value).Documents(ctx).GetAll()
	if err != nil {
		return nil, fmt.Errorf("query %s where %s: %w", collection, field, mapErr(err))
	}
	out := make([]Document, 0, len(docs))
	for _, d := range docs {
		out = append(out, Document{ID: d.Ref.ID, Data: d.Data()})
	}
	return out, nil
}

func mapErr(err error) error {
	if status.Code(err) == codes.NotFound {
		return ErrNotFound
	}
	return err
}
