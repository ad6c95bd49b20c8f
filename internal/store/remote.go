package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Record is one document in the remote store, keyed by field name. The "id"
// field carries the document identifier on reads.
type Record map[string]interface{}

// Filter is a single field comparison applied to a Query or Subscribe
type Filter struct {
	Field string
	Op    string // "==", "<", "<=", ">", ">="
	Value interface{}
}

// Order is a sort directive applied to a Query
type Order struct {
	Field string
	Desc  bool
}

// RemoteStore is the authoritative document store. Any conforming backend is
// acceptable; the production implementation is Cloud Firestore.
type RemoteStore interface {
	GetDocument(ctx context.Context, collection, id string) (Record, error)
	Query(ctx context.Context, collection string, filters []Filter, orders []Order, limit int) ([]Record, error)
	Subscribe(ctx context.Context, collection string, filters []Filter) (<-chan []Record, error)
	CreateDocument(ctx context.Context, collection string, data Record) (string, error)
	UpdateDocument(ctx context.Context, collection, id string, data Record) error
	DeleteDocument(ctx context.Context, collection, id string) error
}

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("store: document not found")

// ErrCacheMiss is returned by a LocalCache when no record exists for a key
var ErrCacheMiss = errors.New("store: cache miss")

// RemoteUnavailableError wraps a remote-store failure that triggered the
// local fallback. The operation has still been applied to the local cache;
// callers decide whether to surface a warning.
type RemoteUnavailableError struct {
	Op  string
	Err error
}

func (e *RemoteUnavailableError) Error() string {
	return fmt.Sprintf("store: remote unavailable during %s: %v", e.Op, e.Err)
}

func (e *RemoteUnavailableError) Unwrap() error { return e.Err }

// IsRemoteUnavailable reports whether err is (or wraps) a fallback outcome
func IsRemoteUnavailable(err error) bool {
	var unavailable *RemoteUnavailableError
	return errors.As(err, &unavailable)
}

// Encode converts a typed model into a Record through its JSON form.
// The "id" field is stripped: document identity lives in the store, not in
// the document body.
func Encode(v interface{}) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var rec Record
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, err
	}
	delete(rec, "id")
	return rec, nil
}

// Decode fills a typed model from a Record through its JSON form
func Decode(rec Record, dest interface{}) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
