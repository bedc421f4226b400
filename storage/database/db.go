// Package database opens the configured document store and builds repositories on it.
package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/assignment"
	"github.com/trezcool/masomo/core/attendance"
	"github.com/trezcool/masomo/core/cantine"
	"github.com/trezcool/masomo/core/course"
	"github.com/trezcool/masomo/core/event"
	"github.com/trezcool/masomo/core/grade"
	"github.com/trezcool/masomo/core/message"
	"github.com/trezcool/masomo/core/parent"
	"github.com/trezcool/masomo/core/payment"
	"github.com/trezcool/masomo/core/student"
	"github.com/trezcool/masomo/core/teacher"
	"github.com/trezcool/masomo/core/user"
	"github.com/trezcool/masomo/storage/database/boltdb"
	"github.com/trezcool/masomo/storage/database/memdb"
	"github.com/trezcool/masomo/storage/database/mongodb"
)

// Collections lists every collection of the app.
var Collections = []core.Collection{
	user.Collection,
	student.Collection,
	teacher.Collection,
	parent.Collection,
	course.Collection,
	grade.Collection,
	assignment.Collection,
	attendance.Collection,
	payment.Collection,
	message.Collection,
	event.Collection,
	cantine.Collection,
}

type engine interface {
	Ping(ctx context.Context) error
	EnsureIndexes(ctx context.Context, colls ...core.Collection) error
	Reset(ctx context.Context) error
	Close(ctx context.Context) error
}

type DB struct {
	Engine string
	engine
}

// Open connects to the store selected by conf.Database.Engine.
func Open(ctx context.Context, conf *core.Config) (*DB, error) {
	db := &DB{Engine: conf.Database.Engine}
	switch conf.Database.Engine {
	case core.EngineMongo:
		mdb, err := mongodb.Open(ctx, conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening mongodb")
		}
		db.engine = mdb
	case core.EngineBolt:
		bdb, err := boltdb.Open(conf)
		if err != nil {
			return nil, errors.Wrap(err, "opening bolt")
		}
		db.engine = bdb
	case core.EngineMemory:
		db.engine = memdb.New()
	default:
		return nil, errors.Errorf("unknown database engine %q", conf.Database.Engine)
	}
	return db, nil
}

// Setup ensures every collection and its indexes exist.
func (db *DB) Setup(ctx context.Context) error {
	return errors.Wrap(db.EnsureIndexes(ctx, Collections...), "ensuring indexes")
}

// NewRepository builds the repository of coll on db's engine.
func NewRepository[T any](db *DB, coll core.Collection) core.Repository[T] {
	switch e := db.engine.(type) {
	case *mongodb.DB:
		return mongodb.NewRepository[T](e, coll)
	case *boltdb.DB:
		return boltdb.NewRepository[T](e, coll)
	case *memdb.DB:
		return memdb.NewRepository[T](e, coll)
	}
	panic("database: unknown engine " + db.Engine)
}
