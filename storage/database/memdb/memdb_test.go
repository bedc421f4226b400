package memdb

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo/core"
)

type item struct {
	ID        string    `bson:"_id"`
	Code      string    `bson:"code"`
	Tags      []string  `bson:"tags"`
	CreatedAt time.Time `bson:"created_at"`
}

var items = core.Collection{
	Name:     "items",
	Resource: "item",
	Indexes:  []core.Index{{Keys: []string{"code"}, Unique: true}},
}

func TestRepository(t *testing.T) {
	ctx := context.Background()
	db := New()
	repo := NewRepository[item](db, items)

	now := core.Now()
	it1 := item{ID: core.NewID(), Code: "A1", Tags: []string{}, CreatedAt: now}
	it2 := item{ID: core.NewID(), Code: "B2", Tags: []string{"x"}, CreatedAt: now.Add(time.Second)}
	require.NoError(t, repo.Insert(ctx, it1))
	require.NoError(t, repo.Insert(ctx, it2))

	t.Run("insert duplicate", func(t *testing.T) {
		err := repo.Insert(ctx, item{ID: core.NewID(), Code: "A1"})
		assert.Equal(t, core.NewConflictError("code", "A1"), err)
	})

	t.Run("get", func(t *testing.T) {
		got, err := repo.Get(ctx, it1.ID)
		require.NoError(t, err)
		assert.Equal(t, it1, got)
		assert.NotNil(t, got.Tags)

		_, err = repo.Get(ctx, core.NewID())
		assert.Equal(t, core.NewNotFoundError("item"), err)

		_, err = repo.Get(ctx, "nope")
		assert.Equal(t, &core.InvalidIDError{Value: "nope"}, err)
	})

	t.Run("find and count", func(t *testing.T) {
		q := core.Query{Ordering: []core.DBOrdering{{Field: "created_at"}}}
		got, err := repo.Find(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []item{it2, it1}, got)

		q = core.Query{Conds: []core.Cond{core.Eq("tags", "x")}, Limit: 1}
		got, err = repo.Find(ctx, q)
		require.NoError(t, err)
		assert.Equal(t, []item{it2}, got)

		n, err := repo.Count(ctx, core.Query{Limit: 1})
		require.NoError(t, err)
		assert.Equal(t, int64(2), n)

		got, err = repo.Find(ctx, core.Query{Conds: []core.Cond{core.Eq("code", "none")}})
		require.NoError(t, err)
		assert.NotNil(t, got)
		assert.Empty(t, got)
	})

	t.Run("replace", func(t *testing.T) {
		upd := it1
		upd.Code = "B2"
		assert.Equal(t, core.NewConflictError("code", "B2"), repo.Replace(ctx, it1.ID, upd))

		upd.Code = "C3"
		require.NoError(t, repo.Replace(ctx, it1.ID, upd))
		got, err := repo.Get(ctx, it1.ID)
		require.NoError(t, err)
		assert.Equal(t, "C3", got.Code)

		missing := item{ID: core.NewID(), Code: "Z"}
		assert.Equal(t, core.NewNotFoundError("item"), repo.Replace(ctx, missing.ID, missing))
	})

	t.Run("replace if", func(t *testing.T) {
		upd := it1
		upd.Code = "D4"
		assert.Equal(t, core.NewModifiedError("item"), repo.ReplaceIf(ctx, it1.ID, upd, core.Eq("code", "A1")))
		got, err := repo.Get(ctx, it1.ID)
		require.NoError(t, err)
		assert.Equal(t, "C3", got.Code)

		upd.Code = "C3"
		upd.Tags = []string{"y"}
		require.NoError(t, repo.ReplaceIf(ctx, it1.ID, upd, core.Eq("code", "C3"), core.Ne("tags", "y")))
		got, err = repo.Get(ctx, it1.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"y"}, got.Tags)
		assert.Equal(t, core.NewModifiedError("item"), repo.ReplaceIf(ctx, it1.ID, upd, core.Ne("tags", "y")))

		missing := item{ID: core.NewID(), Code: "Z"}
		assert.Equal(t, core.NewNotFoundError("item"), repo.ReplaceIf(ctx, missing.ID, missing, core.Eq("code", "Z")))
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, it2.ID))
		assert.Equal(t, core.NewNotFoundError("item"), repo.Delete(ctx, it2.ID))

		got, err := repo.Find(ctx, core.Query{})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("reset", func(t *testing.T) {
		require.NoError(t, db.Reset(ctx))
		n, err := repo.Count(ctx, core.Query{})
		require.NoError(t, err)
		assert.Zero(t, n)
	})
}

func TestRepository_ConcurrentInserts(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[item](New(), items)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			// every goroutine competes for the same code: only one wins
			errs <- repo.Insert(ctx, item{ID: core.NewID(), Code: "SAME"})
		}()
	}
	wg.Wait()
	close(errs)

	var ok int
	for err := range errs {
		if err == nil {
			ok++
		}
	}
	assert.Equal(t, 1, ok)
}

func TestRepository_ConcurrentReplaceIf(t *testing.T) {
	ctx := context.Background()
	repo := NewRepository[item](New(), items)
	it := item{ID: core.NewID(), Code: "A1", Tags: []string{}, CreatedAt: core.Now()}
	require.NoError(t, repo.Insert(ctx, it))

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(tag string) {
			defer wg.Done()
			for {
				cur, err := repo.Get(ctx, it.ID)
				if err != nil {
					errs <- err
					return
				}
				// created_at doubles as a version stamp here
				prev := cur.CreatedAt
				cur.CreatedAt = prev.Add(time.Millisecond)
				cur.Tags = append(cur.Tags, tag)
				err = repo.ReplaceIf(ctx, it.ID, cur, core.Eq("created_at", prev))
				if !core.IsModified(err) {
					errs <- err
					return
				}
			}
		}(string(rune('a' + i)))
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	got, err := repo.Get(ctx, it.ID)
	require.NoError(t, err)
	assert.Len(t, got.Tags, 20)
	assert.True(t, it.CreatedAt.Add(20*time.Millisecond).Equal(got.CreatedAt))
}
