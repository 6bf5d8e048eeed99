package store

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"rotorcharter/internal/domain"
	apperrors "rotorcharter/pkg/errors"
)

// MongoRepository stores records as documents, one collection per variant.
type MongoRepository[T any, PT recordPtr[T]] struct {
	coll         *mongo.Collection
	resource     string
	searchFields []string
}

// NewMongoContactRepository returns the document contact store.
func NewMongoContactRepository(db *mongo.Database) *MongoRepository[domain.ContactRecord, *domain.ContactRecord] {
	return &MongoRepository[domain.ContactRecord, *domain.ContactRecord]{
		coll:         db.Collection(domain.ContactRecord{}.TableName()),
		resource:     "contact",
		searchFields: []string{"name", "email", "message"},
	}
}

// NewMongoQuoteRepository returns the document quote store.
func NewMongoQuoteRepository(db *mongo.Database) *MongoRepository[domain.QuoteRecord, *domain.QuoteRecord] {
	return &MongoRepository[domain.QuoteRecord, *domain.QuoteRecord]{
		coll:         db.Collection(domain.QuoteRecord{}.TableName()),
		resource:     "quote",
		searchFields: []string{"firstName", "lastName", "email", "specialRequests"},
	}
}

// EnsureIndexes creates the listing indexes if they do not exist.
func (r *MongoRepository[T, PT]) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	if err != nil {
		return apperrors.Persistence("create "+r.resource+" indexes", err)
	}
	return nil
}

func (r *MongoRepository[T, PT]) Create(ctx context.Context, rec *T) error {
	PT(rec).Stamp(newID(), now())
	if _, err := r.coll.InsertOne(ctx, rec); err != nil {
		return apperrors.Persistence("save "+r.resource, err)
	}
	return nil
}

func (r *MongoRepository[T, PT]) Get(ctx context.Context, id string) (*T, error) {
	var rec T
	if err := r.coll.FindOne(ctx, byID(id)).Decode(&rec); err != nil {
		return nil, r.lookupErr("get", id, err)
	}
	return &rec, nil
}

func (r *MongoRepository[T, PT]) List(ctx context.Context, f ListFilter) ([]T, error) {
	f = f.Bounded()
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(f.Skip)).
		SetLimit(int64(f.Limit))

	cur, err := r.coll.Find(ctx, buildFilter(f, r.searchFields), opts)
	if err != nil {
		return nil, apperrors.Persistence("list "+r.resource+"s", err)
	}
	records := make([]T, 0)
	if err := cur.All(ctx, &records); err != nil {
		return nil, apperrors.Persistence("list "+r.resource+"s", err)
	}
	return records, nil
}

func (r *MongoRepository[T, PT]) Replace(ctx context.Context, id string, rec *T) (*T, error) {
	existing, err := r.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	PT(rec).Stamp(id, PT(existing).Created())
	PT(rec).Touch(now())

	res, err := r.coll.ReplaceOne(ctx, byID(id), rec)
	if err != nil {
		return nil, apperrors.Persistence("update "+r.resource, err)
	}
	if res.MatchedCount == 0 {
		return nil, apperrors.NotFound(r.resource, id)
	}
	return rec, nil
}

func (r *MongoRepository[T, PT]) SetStatus(ctx context.Context, id, status string) (*T, error) {
	return r.update(ctx, id, bson.M{"status": status, "updatedAt": now()})
}

func (r *MongoRepository[T, PT]) SetRead(ctx context.Context, id string, read bool) (*T, error) {
	return r.update(ctx, id, bson.M{"read": read, "updatedAt": now()})
}

func (r *MongoRepository[T, PT]) update(ctx context.Context, id string, set bson.M) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var rec T
	err := r.coll.FindOneAndUpdate(ctx, byID(id), bson.M{"$set": set}, opts).Decode(&rec)
	if err != nil {
		return nil, r.lookupErr("update", id, err)
	}
	return &rec, nil
}

func (r *MongoRepository[T, PT]) Delete(ctx context.Context, id string) error {
	res, err := r.coll.DeleteOne(ctx, byID(id))
	if err != nil {
		return apperrors.Persistence("delete "+r.resource, err)
	}
	if res.DeletedCount == 0 {
		return apperrors.NotFound(r.resource, id)
	}
	return nil
}

func (r *MongoRepository[T, PT]) Stats(ctx context.Context) (*Stats, error) {
	stats := &Stats{ByStatus: map[string]int64{}}
	var err error

	if stats.Total, err = r.coll.CountDocuments(ctx, bson.D{}); err != nil {
		return nil, apperrors.Persistence("count "+r.resource+"s", err)
	}
	if stats.Unread, err = r.coll.CountDocuments(ctx, bson.D{{Key: "read", Value: false}}); err != nil {
		return nil, apperrors.Persistence("count "+r.resource+"s", err)
	}

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$status"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cur, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, apperrors.Persistence("count "+r.resource+"s", err)
	}
	var rows []struct {
		Status string `bson:"_id"`
		Count  int64  `bson:"count"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, apperrors.Persistence("count "+r.resource+"s", err)
	}
	for _, row := range rows {
		stats.ByStatus[row.Status] = row.Count
	}
	return stats, nil
}

func (r *MongoRepository[T, PT]) Ping(ctx context.Context) error {
	return r.coll.Database().Client().Ping(ctx, nil)
}

func (r *MongoRepository[T, PT]) lookupErr(op, id string, err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return apperrors.NotFound(r.resource, id)
	}
	return apperrors.Persistence(op+" "+r.resource, err)
}

func byID(id string) bson.D {
	return bson.D{{Key: "_id", Value: id}}
}

// buildFilter translates a ListFilter into a query document.
func buildFilter(f ListFilter, searchFields []string) bson.D {
	filter := bson.D{}
	if term := strings.TrimSpace(f.Query); term != "" {
		pattern := bson.Regex{Pattern: regexp.QuoteMeta(term), Options: "i"}
		or := bson.A{}
		for _, field := range searchFields {
			or = append(or, bson.D{{Key: field, Value: pattern}})
		}
		filter = append(filter, bson.E{Key: "$or", Value: or})
	}
	if f.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: f.Status})
	}
	if f.Read != nil {
		filter = append(filter, bson.E{Key: "read", Value: *f.Read})
	}
	return filter
}
