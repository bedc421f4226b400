// Package boltdb stores documents as BSON values in bbolt buckets, one bucket per collection.
package boltdb

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"go.etcd.io/bbolt"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/storage/database/docmatch"
)

type DB struct {
	bolt *bbolt.DB
}

func Open(conf *core.Config) (*DB, error) {
	path := conf.Database.Path
	if !filepath.IsAbs(path) {
		path = filepath.Join(conf.WorkDir, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, errors.Wrap(err, "creating database directory")
	}

	opts := &bbolt.Options{Timeout: conf.Database.Timeout}
	bdb, err := bbolt.Open(path, 0o600, opts)
	if err != nil {
		return nil, errors.Wrap(err, "opening bolt database")
	}
	return &DB{bolt: bdb}, nil
}

func (db *DB) Ping(context.Context) error {
	return db.bolt.View(func(*bbolt.Tx) error { return nil })
}

// EnsureIndexes creates the bucket of every collection. Indexes are evaluated on write.
func (db *DB) EnsureIndexes(_ context.Context, colls ...core.Collection) error {
	return db.bolt.Update(func(tx *bbolt.Tx) error {
		for _, coll := range colls {
			if _, err := tx.CreateBucketIfNotExists([]byte(coll.Name)); err != nil {
				return errors.Wrapf(err, "creating bucket %s", coll.Name)
			}
		}
		return nil
	})
}

// Reset drops every bucket.
func (db *DB) Reset(context.Context) error {
	return db.bolt.Update(func(tx *bbolt.Tx) error {
		var names [][]byte
		if err := tx.ForEach(func(name []byte, _ *bbolt.Bucket) error {
			names = append(names, append([]byte(nil), name...))
			return nil
		}); err != nil {
			return err
		}
		for _, name := range names {
			if err := tx.DeleteBucket(name); err != nil {
				return err
			}
		}
		return nil
	})
}

func (db *DB) Close(context.Context) error {
	return db.bolt.Close()
}

type repository[T any] struct {
	db   *DB
	coll core.Collection
}

func NewRepository[T any](db *DB, coll core.Collection) core.Repository[T] {
	return &repository[T]{db: db, coll: coll}
}

// all decodes every document of bkt; values are copied out of the transaction.
func all(bkt *bbolt.Bucket) ([]docmatch.Doc, error) {
	var docs []docmatch.Doc
	if bkt == nil {
		return docs, nil
	}
	err := bkt.ForEach(func(_, v []byte) error {
		doc, err := docmatch.Decode(append([]byte(nil), v...))
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	return docs, err
}

// put inserts (create) or replaces doc in a single write transaction.
// A replacement must match conds.
func (repo *repository[T]) put(doc docmatch.Doc, create bool, conds ...core.Cond) error {
	id := doc.ID
	return repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		bkt, err := tx.CreateBucketIfNotExists([]byte(repo.coll.Name))
		if err != nil {
			return errors.Wrapf(err, "creating bucket %s", repo.coll.Name)
		}
		cur := bkt.Get([]byte(id))
		switch {
		case create && cur != nil:
			return core.NewConflictError("id", id)
		case !create && cur == nil:
			return core.NewNotFoundError(repo.coll.Resource)
		}
		if len(conds) > 0 {
			stored, err := docmatch.Decode(append([]byte(nil), cur...))
			if err != nil {
				return err
			}
			if !docmatch.Match(stored.M, conds) {
				return core.NewModifiedError(repo.coll.Resource)
			}
		}

		docs, err := all(bkt)
		if err != nil {
			return err
		}
		if err := docmatch.CheckUnique(doc, docs, repo.coll.Indexes); err != nil {
			return err
		}
		return bkt.Put([]byte(id), doc.Raw)
	})
}

func (repo *repository[T]) Insert(_ context.Context, v T) error {
	doc, err := docmatch.Encode(v)
	if err != nil {
		return err
	}
	return repo.put(doc, true)
}

func (repo *repository[T]) Get(_ context.Context, id string) (T, error) {
	var v T
	if !core.ValidID(id) {
		return v, &core.InvalidIDError{Value: id}
	}

	var raw []byte
	err := repo.db.bolt.View(func(tx *bbolt.Tx) error {
		if bkt := tx.Bucket([]byte(repo.coll.Name)); bkt != nil {
			if val := bkt.Get([]byte(id)); val != nil {
				raw = append([]byte(nil), val...)
			}
		}
		return nil
	})
	if err != nil {
		return v, errors.Wrap(err, "reading document")
	}
	if raw == nil {
		return v, core.NewNotFoundError(repo.coll.Resource)
	}
	return docmatch.Unmarshal[T](docmatch.Doc{ID: id, Raw: raw})
}

func (repo *repository[T]) find(q core.Query) ([]docmatch.Doc, error) {
	var docs []docmatch.Doc
	err := repo.db.bolt.View(func(tx *bbolt.Tx) error {
		var err error
		docs, err = all(tx.Bucket([]byte(repo.coll.Name)))
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "reading documents")
	}
	return docmatch.Query(docs, q), nil
}

func (repo *repository[T]) Find(_ context.Context, q core.Query) ([]T, error) {
	docs, err := repo.find(q)
	if err != nil {
		return nil, err
	}
	res := make([]T, 0, len(docs))
	for _, doc := range docs {
		v, err := docmatch.Unmarshal[T](doc)
		if err != nil {
			return nil, err
		}
		res = append(res, v)
	}
	return res, nil
}

func (repo *repository[T]) Count(_ context.Context, q core.Query) (int64, error) {
	q.Skip, q.Limit = 0, 0
	docs, err := repo.find(q)
	return int64(len(docs)), err
}

func (repo *repository[T]) Replace(ctx context.Context, id string, v T) error {
	return repo.ReplaceIf(ctx, id, v)
}

func (repo *repository[T]) ReplaceIf(_ context.Context, id string, v T, conds ...core.Cond) error {
	if !core.ValidID(id) {
		return &core.InvalidIDError{Value: id}
	}
	doc, err := docmatch.Encode(v)
	if err != nil {
		return err
	}
	doc.ID = id
	return repo.put(doc, false, conds...)
}

func (repo *repository[T]) Delete(_ context.Context, id string) error {
	if !core.ValidID(id) {
		return &core.InvalidIDError{Value: id}
	}
	return repo.db.bolt.Update(func(tx *bbolt.Tx) error {
		bkt := tx.Bucket([]byte(repo.coll.Name))
		if bkt == nil || bkt.Get([]byte(id)) == nil {
			return core.NewNotFoundError(repo.coll.Resource)
		}
		return bkt.Delete([]byte(id))
	})
}
