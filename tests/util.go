package testutil

import (
	"context"
	"log"
	"testing"
	"time"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/course"
	"github.com/trezcool/masomo/core/parent"
	"github.com/trezcool/masomo/core/student"
	"github.com/trezcool/masomo/core/user"
	"github.com/trezcool/masomo/storage/database"
)

// OpenDB opens the store configured by conf and ensures its collections.
func OpenDB(conf *core.Config) *database.DB {
	ctx := context.Background()
	db, err := database.Open(ctx, conf)
	if err != nil {
		log.Fatalf("testutil.OpenDB(): %v", err)
	}
	if err = db.Setup(ctx); err != nil {
		log.Fatalf("testutil.OpenDB(): %v", err)
	}
	return db
}

// ResetDB drops every document of db.
func ResetDB(t *testing.T, db *database.DB) {
	ctx := context.Background()
	if err := db.Reset(ctx); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
	if err := db.Setup(ctx); err != nil {
		t.Fatalf("ResetDB() failed: %v", err)
	}
}

func CreateUser(
	t *testing.T,
	repo core.Repository[user.User],
	name, email, pwd string,
	role user.Role,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := core.Now()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC().Truncate(time.Millisecond)
	}
	usr := user.User{
		ID:        core.NewID(),
		Name:      name,
		Email:     email,
		Role:      role,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
		// tokens issued within the same second must stay valid
		usr.PasswordChangedAt = tstamp.Add(-time.Second)
	}
	if err := repo.Insert(context.Background(), usr); err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

func CreateStudent(t *testing.T, repo core.Repository[student.Student], userID, number string, parents ...string) student.Student {
	now := core.Now()
	if parents == nil {
		parents = []string{}
	}
	st := student.Student{
		ID:             core.NewID(),
		User:           userID,
		StudentNumber:  number,
		GradeLevel:     "6",
		Section:        "A",
		Parents:        parents,
		EnrollmentDate: now,
		Status:         student.StatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := repo.Insert(context.Background(), st); err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return st
}

func CreateParent(t *testing.T, repo core.Repository[parent.Parent], userID string, children ...string) parent.Parent {
	now := core.Now()
	if children == nil {
		children = []string{}
	}
	p := parent.Parent{
		ID:           core.NewID(),
		User:         userID,
		Relationship: "guardian",
		Children:     children,
		Status:       parent.StatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Insert(context.Background(), p); err != nil {
		t.Fatalf("createParent() failed: %v", err)
	}
	return p
}

func CreateCourse(t *testing.T, repo core.Repository[course.Course], code, teacherID string, capacity int, students ...string) course.Course {
	now := core.Now()
	if students == nil {
		students = []string{}
	}
	c := course.Course{
		ID:        core.NewID(),
		Name:      "Course " + code,
		Code:      code,
		Teacher:   teacherID,
		Students:  students,
		Schedule:  []course.ScheduleEntry{},
		Capacity:  capacity,
		Credits:   3,
		Status:    course.StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.Insert(context.Background(), c); err != nil {
		t.Fatalf("createCourse() failed: %v", err)
	}
	return c
}
