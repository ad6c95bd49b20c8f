package store

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// FirestoreStore implements RemoteStore on Cloud Firestore
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore wraps an initialized Firestore client
func NewFirestoreStore(client *firestore.Client) *FirestoreStore {
	return &FirestoreStore{client: client}
}

func (s *FirestoreStore) GetDocument(ctx context.Context, collection, id string) (Record, error) {
	snap, err := s.client.Collection(collection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return snapshotRecord(snap), nil
}

func (s *FirestoreStore) Query(ctx context.Context, collection string, filters []Filter, orders []Order, limit int) ([]Record, error) {
	q := s.buildQuery(collection, filters)
	for _, o := range orders {
		dir := firestore.Asc
		if o.Desc {
			dir = firestore.Desc
		}
		q = q.OrderBy(o.Field, dir)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var records []Record
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, err
		}
		records = append(records, snapshotRecord(snap))
	}
	return records, nil
}

// Subscribe streams the full matching document set on every change. The
// channel closes when ctx is canceled or the watch fails.
func (s *FirestoreStore) Subscribe(ctx context.Context, collection string, filters []Filter) (<-chan []Record, error) {
	snaps := s.buildQuery(collection, filters).Snapshots(ctx)
	out := make(chan []Record)

	go func() {
		defer close(out)
		defer snaps.Stop()
		for {
			snap, err := snaps.Next()
			if err != nil {
				return
			}
			docs, err := snap.Documents.GetAll()
			if err != nil {
				return
			}
			var records []Record
			for _, doc := range docs {
				records = append(records, snapshotRecord(doc))
			}
			select {
			case out <- records:
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, nil
}

func (s *FirestoreStore) CreateDocument(ctx context.Context, collection string, data Record) (string, error) {
	ref, _, err := s.client.Collection(collection).Add(ctx, map[string]interface{}(data))
	if err != nil {
		return "", err
	}
	return ref.ID, nil
}

// UpdateDocument merges the given fields into the document; unlisted fields
// are left untouched.
func (s *FirestoreStore) UpdateDocument(ctx context.Context, collection, id string, data Record) error {
	_, err := s.client.Collection(collection).Doc(id).Set(ctx, map[string]interface{}(data), firestore.MergeAll)
	return err
}

func (s *FirestoreStore) DeleteDocument(ctx context.Context, collection, id string) error {
	_, err := s.client.Collection(collection).Doc(id).Delete(ctx)
	return err
}

func (s *FirestoreStore) buildQuery(collection string, filters []Filter) firestore.Query {
	q := s.client.Collection(collection).Query
	for _, f := range filters {
		q = q.Where(f.Field, f.Op, f.Value)
	}
	return q
}

func snapshotRecord(snap *firestore.DocumentSnapshot) Record {
	rec := Record(snap.Data())
	if rec == nil {
		rec = Record{}
	}
	rec["id"] = snap.Ref.ID
	return rec
}
