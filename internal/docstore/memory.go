package docstore

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// MemoryStore keeps documents in process. It backs tests and offline demos
// and applies filters and ordering the way the remote store does.
type MemoryStore struct {
	mu          sync.RWMutex
	collections map[string][]bson.Raw
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{collections: make(map[string][]bson.Raw)}
}

func (m *MemoryStore) List(ctx context.Context, collection string, q Query) ([]bson.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	var docs []bson.Raw
	for _, doc := range m.collections[collection] {
		if matches(doc, q.Filters) {
			docs = append(docs, doc)
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(docs, func(i, j int) bool {
		for _, s := range q.Sorts {
			c := compareValues(lookup(docs[i], s.Field), lookup(docs[j], s.Field))
			if c == 0 {
				continue
			}
			if s.Descending {
				return c > 0
			}
			return c < 0
		}
		return false
	})

	return docs, nil
}

func (m *MemoryStore) Create(ctx context.Context, collection, id string, doc any) (bson.Raw, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	fields, err := withID(id, doc)
	if err != nil {
		return nil, err
	}
	raw, err := bson.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.collections[collection] {
		if existingID, ok := existing.Lookup("_id").StringValueOK(); ok && existingID == id {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicate, collection, id)
		}
	}
	m.collections[collection] = append(m.collections[collection], raw)
	return raw, nil
}

// Count returns the number of documents in a collection.
func (m *MemoryStore) Count(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.collections[collection])
}

func lookup(raw bson.Raw, field string) bson.RawValue {
	v, err := raw.LookupErr(strings.Split(field, ".")...)
	if err != nil {
		return bson.RawValue{}
	}
	return v
}

func matches(raw bson.Raw, filters []Filter) bool {
	for _, f := range filters {
		t, data, err := bson.MarshalValue(f.Value)
		if err != nil {
			return false
		}
		want := bson.RawValue{Type: t, Value: data}
		got := lookup(raw, f.Field)
		if got.Type == 0 {
			return false
		}
		if isNumber(got) && isNumber(want) {
			if number(got) != number(want) {
				return false
			}
			continue
		}
		if !got.Equal(want) {
			return false
		}
	}
	return true
}

func isNumber(v bson.RawValue) bool {
	switch v.Type {
	case bsontype.Int32, bsontype.Int64, bsontype.Double:
		return true
	}
	return false
}

func number(v bson.RawValue) float64 {
	switch v.Type {
	case bsontype.Int32:
		return float64(v.Int32())
	case bsontype.Int64:
		return float64(v.Int64())
	case bsontype.Double:
		return v.Double()
	}
	return 0
}

// compareValues orders missing fields first, then numbers, strings and booleans.
func compareValues(a, b bson.RawValue) int {
	switch {
	case a.Type == 0 && b.Type == 0:
		return 0
	case a.Type == 0:
		return -1
	case b.Type == 0:
		return 1
	case isNumber(a) && isNumber(b):
		x, y := number(a), number(b)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	}

	if as, ok := a.StringValueOK(); ok {
		if bs, ok := b.StringValueOK(); ok {
			return strings.Compare(as, bs)
		}
	}
	if ab, ok := a.BooleanOK(); ok {
		if bb, ok := b.BooleanOK(); ok {
			switch {
			case ab == bb:
				return 0
			case !ab:
				return -1
			}
			return 1
		}
	}
	return 0
}
