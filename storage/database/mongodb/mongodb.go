// Package mongodb implements core.Repository on top of the official MongoDB driver.
package mongodb

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/trezcool/masomo/core"
)

var (
	dupIndexRgx = regexp.MustCompile(`index: (\S+) dup key`)
	dupValueRgx = regexp.MustCompile(`dup key: \{ [^:]+: "?([^",}]*)"?`)
)

type DB struct {
	client *mongo.Client
	db     *mongo.Database
}

func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	opts := options.Client().
		ApplyURI(conf.Database.URI).
		SetAppName(conf.AppName).
		SetServerSelectionTimeout(conf.Database.Timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	db := &DB{client: client, db: client.Database(conf.Database.Name)}
	if err := db.waitReady(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return db, nil
}

// waitReady waits for the database to be ready. Waits 100ms longer between each attempt.
func (db *DB) waitReady(ctx context.Context) error {
	var err error
	maxAttempts := 30
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		if err = db.Ping(ctx); err == nil {
			return nil
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "DB ping")
		case <-time.After(time.Duration(attempts) * 100 * time.Millisecond):
		}
	}
	return errors.Wrap(err, "DB ping timeout")
}

func (db *DB) Ping(ctx context.Context) error {
	return db.client.Ping(ctx, nil)
}

// EnsureIndexes creates the declared indexes of colls; existing indexes are left untouched.
func (db *DB) EnsureIndexes(ctx context.Context, colls ...core.Collection) error {
	for _, coll := range colls {
		if len(coll.Indexes) == 0 {
			continue
		}
		models := make([]mongo.IndexModel, 0, len(coll.Indexes))
		for _, idx := range coll.Indexes {
			keys := make(bson.D, 0, len(idx.Keys))
			for _, k := range idx.Keys {
				keys = append(keys, bson.E{Key: k, Value: 1})
			}
			models = append(models, mongo.IndexModel{
				Keys:    keys,
				Options: options.Index().SetName(idx.Name()).SetUnique(idx.Unique),
			})
		}
		if _, err := db.db.Collection(coll.Name).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating indexes of %s", coll.Name)
		}
	}
	return nil
}

// Reset drops the database.
func (db *DB) Reset(ctx context.Context) error {
	return errors.Wrap(db.db.Drop(ctx), "dropping database")
}

func (db *DB) Close(ctx context.Context) error {
	return db.client.Disconnect(ctx)
}

type repository[T any] struct {
	coll *mongo.Collection
	meta core.Collection
}

func NewRepository[T any](db *DB, coll core.Collection) core.Repository[T] {
	return &repository[T]{coll: db.db.Collection(coll.Name), meta: coll}
}

func (repo *repository[T]) Insert(ctx context.Context, v T) error {
	_, err := repo.coll.InsertOne(ctx, v)
	return repo.translate(err)
}

func (repo *repository[T]) Get(ctx context.Context, id string) (T, error) {
	var v T
	if !core.ValidID(id) {
		return v, &core.InvalidIDError{Value: id}
	}
	err := repo.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&v)
	return v, repo.translate(err)
}

func (repo *repository[T]) Find(ctx context.Context, q core.Query) ([]T, error) {
	opts := options.Find()
	if len(q.Ordering) > 0 {
		opts.SetSort(Sort(q.Ordering))
	}
	if q.Skip > 0 {
		opts.SetSkip(q.Skip)
	}
	if q.Limit > 0 {
		opts.SetLimit(q.Limit)
	}

	cur, err := repo.coll.Find(ctx, Filter(q.Conds), opts)
	if err != nil {
		return nil, repo.translate(err)
	}
	res := make([]T, 0)
	if err := cur.All(ctx, &res); err != nil {
		return nil, repo.translate(err)
	}
	return res, nil
}

func (repo *repository[T]) Count(ctx context.Context, q core.Query) (int64, error) {
	n, err := repo.coll.CountDocuments(ctx, Filter(q.Conds))
	return n, repo.translate(err)
}

func (repo *repository[T]) Replace(ctx context.Context, id string, v T) error {
	return repo.ReplaceIf(ctx, id, v)
}

func (repo *repository[T]) ReplaceIf(ctx context.Context, id string, v T, conds ...core.Cond) error {
	if !core.ValidID(id) {
		return &core.InvalidIDError{Value: id}
	}
	res, err := repo.coll.ReplaceOne(ctx, replaceFilter(id, conds), v)
	if err != nil {
		return repo.translate(err)
	}
	if res.MatchedCount > 0 {
		return nil
	}
	if len(conds) > 0 {
		n, err := repo.coll.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
		if err != nil {
			return repo.translate(err)
		}
		if n > 0 {
			return core.NewModifiedError(repo.meta.Resource)
		}
	}
	return core.NewNotFoundError(repo.meta.Resource)
}

func (repo *repository[T]) Delete(ctx context.Context, id string) error {
	if !core.ValidID(id) {
		return &core.InvalidIDError{Value: id}
	}
	res, err := repo.coll.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return repo.translate(err)
	}
	if res.DeletedCount == 0 {
		return core.NewNotFoundError(repo.meta.Resource)
	}
	return nil
}

// translate maps driver errors to core errors.
func (repo *repository[T]) translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return core.NewNotFoundError(repo.meta.Resource)
	case mongo.IsDuplicateKeyError(err):
		return duplicateKeyError(err, repo.meta)
	}
	return errors.Wrapf(err, "%s collection", repo.meta.Name)
}

// duplicateKeyError parses `E11000 duplicate key error collection: db.users index: email_1 dup key: { email: "a@b.c" }`.
func duplicateKeyError(err error, coll core.Collection) error {
	msg := err.Error()
	field := "id"
	if m := dupIndexRgx.FindStringSubmatch(msg); m != nil {
		for _, idx := range coll.Indexes {
			if idx.Name() == m[1] {
				field = strings.Join(idx.Keys, ",")
				break
			}
		}
	}
	var value string
	if m := dupValueRgx.FindStringSubmatch(msg); m != nil {
		value = strings.TrimSpace(m[1])
	}
	return core.NewConflictError(field, value)
}

// Filter builds the MongoDB filter of conds.
// replaceFilter matches the document with id, provided it satisfies conds.
func replaceFilter(id string, conds []core.Cond) bson.M {
	if len(conds) == 0 {
		return bson.M{"_id": id}
	}
	return Filter(append([]core.Cond{core.Eq("_id", id)}, conds...))
}

func Filter(conds []core.Cond) bson.M {
	if len(conds) == 0 {
		return bson.M{}
	}
	and := make(bson.A, 0, len(conds))
	for _, cond := range conds {
		and = append(and, filterOne(cond))
	}
	return bson.M{"$and": and}
}

func filterOne(cond core.Cond) bson.M {
	switch cond.Op {
	case core.OpNe:
		return bson.M{cond.Field: bson.M{"$ne": cond.Value}}
	case core.OpIn:
		return bson.M{cond.Field: bson.M{"$in": cond.Value}}
	case core.OpGte:
		return bson.M{cond.Field: bson.M{"$gte": cond.Value}}
	case core.OpLte:
		return bson.M{cond.Field: bson.M{"$lte": cond.Value}}
	case core.OpSearch:
		term, _ := cond.Value.(string)
		or := make(bson.A, 0, len(cond.Fields))
		for _, fld := range cond.Fields {
			or = append(or, bson.M{fld: bson.M{"$regex": regexp.QuoteMeta(term), "$options": "i"}})
		}
		return bson.M{"$or": or}
	case core.OpOr:
		or := make(bson.A, 0, len(cond.Conds))
		for _, c := range cond.Conds {
			or = append(or, filterOne(c))
		}
		return bson.M{"$or": or}
	}
	return bson.M{cond.Field: cond.Value}
}

func Sort(ordering []core.DBOrdering) bson.D {
	sort := make(bson.D, 0, len(ordering))
	for _, ord := range ordering {
		dir := -1
		if ord.Ascending {
			dir = 1
		}
		sort = append(sort, bson.E{Key: ord.Field, Value: dir})
	}
	return sort
}
