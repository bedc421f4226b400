package core

import (
	"context"
	"strings"
)

// Condition operators
const (
	OpEq     = "eq"
	OpNe     = "ne"
	OpIn     = "in"
	OpGte    = "gte"
	OpLte    = "lte"
	OpSearch = "search" // case-insensitive substring match on one of Fields
	OpOr     = "or"     // any of Conds
)

type (
	// Repository stores documents of type T in one collection.
	// T must carry its ID in a field tagged `bson:"_id"`.
	Repository[T any] interface {
		Insert(ctx context.Context, doc T) error
		Get(ctx context.Context, id string) (T, error)
		// Find applies AND on all Query.Conds.
		Find(ctx context.Context, q Query) ([]T, error)
		Count(ctx context.Context, q Query) (int64, error)
		Replace(ctx context.Context, id string, doc T) error
		// ReplaceIf replaces the document only if it still matches conds,
		// otherwise it returns a *ModifiedError.
		ReplaceIf(ctx context.Context, id string, doc T, conds ...Cond) error
		Delete(ctx context.Context, id string) error
	}

	// Collection describes where and how documents of a model are stored.
	Collection struct {
		Name     string // collection / bucket name
		Resource string // singular name used in errors
		Indexes  []Index
	}

	Index struct {
		Keys   []string
		Unique bool
	}

	Cond struct {
		Op     string
		Field  string
		Value  interface{}
		Fields []string // OpSearch
		Conds  []Cond   // OpOr
	}

	Query struct {
		Conds    []Cond
		Ordering []DBOrdering
		Skip     int64
		Limit    int64 // 0: no limit
	}
)

func Eq(field string, val interface{}) Cond { return Cond{Op: OpEq, Field: field, Value: val} }
func Ne(field string, val interface{}) Cond { return Cond{Op: OpNe, Field: field, Value: val} }
func Gte(field string, val interface{}) Cond { return Cond{Op: OpGte, Field: field, Value: val} }
func Lte(field string, val interface{}) Cond { return Cond{Op: OpLte, Field: field, Value: val} }
func Or(conds ...Cond) Cond { return Cond{Op: OpOr, Conds: conds} }

// In matches documents where field equals any of vals.
func In(field string, vals ...string) Cond {
	values := make([]interface{}, 0, len(vals))
	for _, v := range vals {
		values = append(values, v)
	}
	return Cond{Op: OpIn, Field: field, Value: values}
}

func Search(term string, fields ...string) Cond {
	return Cond{Op: OpSearch, Value: term, Fields: fields}
}

// Name of the index, built the way MongoDB names them (email_1, student_1_course_1).
func (idx Index) Name() string {
	parts := make([]string, 0, len(idx.Keys))
	for _, k := range idx.Keys {
		parts = append(parts, k+"_1")
	}
	return strings.Join(parts, "_")
}

type DBOrdering struct {
	Field     string
	Ascending bool
}

func (ord DBOrdering) String() string {
	if ord.Ascending {
		return ord.Field
	}
	return "-" + ord.Field
}

// Pagination of list queries; Page starts at 1.
type Pagination struct {
	Page  int `query:"page"`
	Limit int `query:"limit"`
}

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

// Clean applies defaults and bounds.
func (p *Pagination) Clean() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	} else if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
}

func (p Pagination) Skip() int64 { return int64((p.Page - 1) * p.Limit) }

// TotalPages for total matching documents.
func (p Pagination) TotalPages(total int64) int64 {
	if p.Limit < 1 || total == 0 {
		return 0
	}
	return (total + int64(p.Limit) - 1) / int64(p.Limit)
}
