package mongodb

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/trezcool/masomo/core"
)

func TestFilter(t *testing.T) {
	day := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		conds []core.Cond
		want  bson.M
	}{
		{"no conditions", nil, bson.M{}},
		{
			"equality and range",
			[]core.Cond{core.Eq("student", "s1"), core.Gte("date", day)},
			bson.M{"$and": bson.A{
				bson.M{"student": "s1"},
				bson.M{"date": bson.M{"$gte": day}},
			}},
		},
		{
			"search escapes the term",
			[]core.Cond{core.Search("a.b", "name", "email")},
			bson.M{"$and": bson.A{
				bson.M{"$or": bson.A{
					bson.M{"name": bson.M{"$regex": `a\.b`, "$options": "i"}},
					bson.M{"email": bson.M{"$regex": `a\.b`, "$options": "i"}},
				}},
			}},
		},
		{
			"or",
			[]core.Cond{core.Or(core.Eq("sender", "u1"), core.Eq("recipient", "u1"))},
			bson.M{"$and": bson.A{
				bson.M{"$or": bson.A{bson.M{"sender": "u1"}, bson.M{"recipient": "u1"}}},
			}},
		},
		{
			"in and ne",
			[]core.Cond{core.In("role", "admin", "direction"), core.Ne("is_active", false)},
			bson.M{"$and": bson.A{
				bson.M{"role": bson.M{"$in": []interface{}{"admin", "direction"}}},
				bson.M{"is_active": bson.M{"$ne": false}},
			}},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Filter(tc.conds))
		})
	}
}

func TestReplaceFilter(t *testing.T) {
	stamp := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, bson.M{"_id": "c1"}, replaceFilter("c1", nil))
	assert.Equal(t,
		bson.M{"$and": bson.A{
			bson.M{"_id": "c1"},
			bson.M{"updated_at": stamp},
		}},
		replaceFilter("c1", []core.Cond{core.Eq("updated_at", stamp)}),
	)
}

func TestSort(t *testing.T) {
	got := Sort([]core.DBOrdering{{Field: "code", Ascending: true}, {Field: "created_at"}})
	assert.Equal(t, bson.D{{Key: "code", Value: 1}, {Key: "created_at", Value: -1}}, got)
}

func TestDuplicateKeyError(t *testing.T) {
	coll := core.Collection{
		Name:     "attendance",
		Resource: "attendance",
		Indexes: []core.Index{
			{Keys: []string{"email"}, Unique: true},
			{Keys: []string{"student", "course", "date"}, Unique: true},
		},
	}

	tests := []struct {
		msg  string
		want *core.ConflictError
	}{
		{
			`E11000 duplicate key error collection: masomo.users index: email_1 dup key: { email: "jd@x.com" }`,
			&core.ConflictError{Field: "email", Value: "jd@x.com"},
		},
		{
			`E11000 duplicate key error collection: masomo.attendance index: student_1_course_1_date_1 dup key: { student: "s1", course: "c1", date: new Date(1) }`,
			&core.ConflictError{Field: "student,course,date", Value: "s1"},
		},
		{`E11000 duplicate key error`, &core.ConflictError{Field: "id"}},
	}

	for _, tc := range tests {
		t.Run(tc.want.Field, func(t *testing.T) {
			assert.Equal(t, tc.want, duplicateKeyError(errors.New(tc.msg), coll))
		})
	}
}
