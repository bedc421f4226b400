package course

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/storage/database/memdb"
)

func TestService_EnrollConcurrently(t *testing.T) {
	ctx := context.Background()
	repo := memdb.NewRepository[Course](memdb.New(), Collection)
	svc := NewService(repo, nil)

	c, err := svc.Create(ctx, NewCourse{Name: "Algebra", Code: "MTH101", Capacity: 5})
	require.NoError(t, err)

	students := make([]string, 20)
	for i := range students {
		students[i] = core.NewID()
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(students))
	for _, id := range students {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			// every call starts from the same, soon stale, copy
			_, err := svc.Enroll(ctx, c, id)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var enrolled int
	for err := range errs {
		if err == nil {
			enrolled++
			continue
		}
		assert.Equal(t, ErrCourseFull, err)
	}
	assert.Equal(t, 5, enrolled)

	got, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Len(t, got.Students, 5)
	assert.Subset(t, students, got.Students)
}

func TestService_EnrollAfterConcurrentUpdate(t *testing.T) {
	ctx := context.Background()
	repo := memdb.NewRepository[Course](memdb.New(), Collection)
	svc := NewService(repo, nil)

	st1, st2 := core.NewID(), core.NewID()
	c, err := svc.Create(ctx, NewCourse{Name: "Algebra", Code: "MTH101", Capacity: 2})
	require.NoError(t, err)

	_, err = svc.Enroll(ctx, c, st1)
	require.NoError(t, err)

	// c is stale: the enrollment of st1 must survive
	got, err := svc.Enroll(ctx, c, st2)
	require.NoError(t, err)
	assert.Equal(t, []string{st1, st2}, got.Students)
	assert.True(t, got.UpdatedAt.After(c.UpdatedAt))

	_, err = svc.Enroll(ctx, c, core.NewID())
	assert.Equal(t, ErrCourseFull, err)

	_, err = svc.Enroll(ctx, c, st1)
	assert.Equal(t, core.NewConflictError("students", st1), err)

	got, err = svc.Unenroll(ctx, c, st1)
	require.NoError(t, err)
	assert.Equal(t, []string{st2}, got.Students)

	stored, err := repo.Get(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{st2}, stored.Students)
}
