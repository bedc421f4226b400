// Package memdb is an in-memory document store, used by tests and local development.
package memdb

import (
	"context"
	"sync"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/storage/database/docmatch"
)

type table struct {
	docs  map[string]docmatch.Doc
	order []string // insertion order
}

func newTable() *table {
	return &table{docs: make(map[string]docmatch.Doc)}
}

func (t *table) all() []docmatch.Doc {
	docs := make([]docmatch.Doc, 0, len(t.order))
	for _, id := range t.order {
		docs = append(docs, t.docs[id])
	}
	return docs
}

// DB holds every collection in memory; writes are serialized by a single lock.
type DB struct {
	mu     sync.RWMutex
	tables map[string]*table
}

func New() *DB {
	return &DB{tables: make(map[string]*table)}
}

func (db *DB) table(name string) *table {
	t, ok := db.tables[name]
	if !ok {
		t = newTable()
		db.tables[name] = t
	}
	return t
}

// view returns the table of name without creating it; callers hold at least the read lock.
func (db *DB) view(name string) *table {
	if t, ok := db.tables[name]; ok {
		return t
	}
	return newTable()
}

func (db *DB) Ping(context.Context) error { return nil }

func (db *DB) EnsureIndexes(context.Context, ...core.Collection) error { return nil }

// Reset drops all documents.
func (db *DB) Reset(context.Context) error {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.tables = make(map[string]*table)
	return nil
}

func (db *DB) Close(context.Context) error { return nil }

type repository[T any] struct {
	db   *DB
	coll core.Collection
}

var _ core.Repository[struct{}] = (*repository[struct{}])(nil)

func NewRepository[T any](db *DB, coll core.Collection) core.Repository[T] {
	return &repository[T]{db: db, coll: coll}
}

func (repo *repository[T]) Insert(_ context.Context, v T) error {
	doc, err := docmatch.Encode(v)
	if err != nil {
		return err
	}

	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	t := repo.db.table(repo.coll.Name)
	if _, exists := t.docs[doc.ID]; exists {
		return core.NewConflictError("id", doc.ID)
	}
	if err := docmatch.CheckUnique(doc, t.all(), repo.coll.Indexes); err != nil {
		return err
	}
	t.docs[doc.ID] = doc
	t.order = append(t.order, doc.ID)
	return nil
}

func (repo *repository[T]) Get(_ context.Context, id string) (T, error) {
	var zero T
	if !core.ValidID(id) {
		return zero, &core.InvalidIDError{Value: id}
	}

	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	doc, ok := repo.db.view(repo.coll.Name).docs[id]
	if !ok {
		return zero, core.NewNotFoundError(repo.coll.Resource)
	}
	return docmatch.Unmarshal[T](doc)
}

func (repo *repository[T]) Find(_ context.Context, q core.Query) ([]T, error) {
	repo.db.mu.RLock()
	docs := docmatch.Query(repo.db.view(repo.coll.Name).all(), q)
	repo.db.mu.RUnlock()

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
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return int64(len(docmatch.Query(repo.db.view(repo.coll.Name).all(), q))), nil
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

	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	t := repo.db.table(repo.coll.Name)
	cur, ok := t.docs[id]
	if !ok {
		return core.NewNotFoundError(repo.coll.Resource)
	}
	if !docmatch.Match(cur.M, conds) {
		return core.NewModifiedError(repo.coll.Resource)
	}
	if err := docmatch.CheckUnique(doc, t.all(), repo.coll.Indexes); err != nil {
		return err
	}
	t.docs[id] = doc
	return nil
}

func (repo *repository[T]) Delete(_ context.Context, id string) error {
	if !core.ValidID(id) {
		return &core.InvalidIDError{Value: id}
	}

	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	t := repo.db.table(repo.coll.Name)
	if _, ok := t.docs[id]; !ok {
		return core.NewNotFoundError(repo.coll.Resource)
	}
	delete(t.docs, id)
	for i, docID := range t.order {
		if docID == id {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
	return nil
}
