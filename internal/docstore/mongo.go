package docstore

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/fjod/go_cart/storefront/internal/docstore")

type MongoStore struct {
	db *mongo.Database
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{db: db}
}

func (m *MongoStore) List(ctx context.Context, collection string, q Query) ([]bson.Raw, error) {
	ctx, span := startSpan(ctx, "docstore.List", collection)
	defer span.End()

	opts := options.Find()
	if len(q.Sorts) > 0 {
		opts.SetSort(sortDoc(q))
	}

	cursor, err := m.db.Collection(collection).Find(ctx, filterDoc(q), opts)
	if err != nil {
		return nil, spanError(span, fmt.Errorf("failed to query %s: %w", collection, err))
	}
	defer cursor.Close(ctx)

	var docs []bson.Raw
	for cursor.Next(ctx) {
		// cursor.Current is reused by the next call
		docs = append(docs, append(bson.Raw(nil), cursor.Current...))
	}
	if err := cursor.Err(); err != nil {
		return nil, spanError(span, fmt.Errorf("cursor iteration error: %w", err))
	}

	span.SetAttributes(attribute.Int("docstore.count", len(docs)))
	return docs, nil
}

func (m *MongoStore) Create(ctx context.Context, collection, id string, doc any) (bson.Raw, error) {
	ctx, span := startSpan(ctx, "docstore.Create", collection)
	defer span.End()

	fields, err := withID(id, doc)
	if err != nil {
		return nil, spanError(span, err)
	}

	coll := m.db.Collection(collection)
	if _, err := coll.InsertOne(ctx, fields); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, spanError(span, fmt.Errorf("%w: %s/%s", ErrDuplicate, collection, id))
		}
		return nil, spanError(span, fmt.Errorf("failed to create %s document: %w", collection, err))
	}

	raw, err := coll.FindOne(ctx, bson.M{"_id": id}).Raw()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, spanError(span, fmt.Errorf("created %s document %s not found", collection, id))
		}
		return nil, spanError(span, fmt.Errorf("failed to read back %s document: %w", collection, err))
	}
	return raw, nil
}

// CreateIndexes sets up the lookups the storefront issues.
func (m *MongoStore) CreateIndexes(ctx context.Context, shops, products string) error {
	_, err := m.db.Collection(shops).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "phone", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create shop indexes: %w", err)
	}

	_, err = m.db.Collection(products).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "locationId", Value: 1},
			{Key: "isActive", Value: 1},
			{Key: "categoryId", Value: 1},
			{Key: "name", Value: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create product indexes: %w", err)
	}

	return nil
}

func startSpan(ctx context.Context, name, collection string) (context.Context, trace.Span) {
	return tracer.Start(ctx, name, trace.WithAttributes(attribute.String("docstore.collection", collection)))
}

func spanError(span trace.Span, err error) error {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}
