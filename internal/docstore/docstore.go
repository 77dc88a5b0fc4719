// Package docstore is the remote document database the storefront reads its
// catalog from and writes shops and orders to. Only listing with equality
// filters and ordering, and creating documents, are supported.
package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
)

var (
	ErrMalformedRecord = errors.New("malformed record")
	ErrDuplicate       = errors.New("document already exists")
)

// Filter is an equality condition on a field.
type Filter struct {
	Field string
	Value any
}

type Sort struct {
	Field      string
	Descending bool
}

type Query struct {
	Filters []Filter
	Sorts   []Sort
}

func (q Query) Where(field string, value any) Query {
	q.Filters = append(append([]Filter(nil), q.Filters...), Filter{Field: field, Value: value})
	return q
}

func (q Query) OrderAsc(field string) Query {
	q.Sorts = append(append([]Sort(nil), q.Sorts...), Sort{Field: field})
	return q
}

// Store lists and creates documents. Documents are returned as raw BSON and
// decoded by the caller into typed records.
type Store interface {
	List(ctx context.Context, collection string, q Query) ([]bson.Raw, error)
	Create(ctx context.Context, collection, id string, doc any) (bson.Raw, error)
}

// Decode unmarshals raw into v, reporting failures as ErrMalformedRecord.
func Decode(raw bson.Raw, v any) error {
	if err := bson.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	return nil
}

// Malformed builds an ErrMalformedRecord for a record failing a field check.
func Malformed(collection, id, reason string) error {
	return fmt.Errorf("%w: %s %q: %s", ErrMalformedRecord, collection, id, reason)
}

func filterDoc(q Query) bson.D {
	filter := bson.D{}
	for _, f := range q.Filters {
		filter = append(filter, bson.E{Key: f.Field, Value: f.Value})
	}
	return filter
}

func sortDoc(q Query) bson.D {
	sort := bson.D{}
	for _, s := range q.Sorts {
		dir := 1
		if s.Descending {
			dir = -1
		}
		sort = append(sort, bson.E{Key: s.Field, Value: dir})
	}
	return sort
}

// withID marshals doc and sets its _id, replacing any _id it already has.
func withID(id string, doc any) (bson.D, error) {
	data, err := bson.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var fields bson.D
	if err := bson.Unmarshal(data, &fields); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}

	out := bson.D{{Key: "_id", Value: id}}
	for _, e := range fields {
		if e.Key != "_id" {
			out = append(out, e)
		}
	}
	return out, nil
}
