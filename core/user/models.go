package user

import (
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/masomo/core"
)

type Role string

// Roles
const (
	RoleAdmin     Role = "admin"
	RoleDirection Role = "direction"
	RoleTeacher   Role = "teacher"
	RoleParent    Role = "parent"
	RoleStudent   Role = "student"
)

var (
	AllRoles = []Role{RoleAdmin, RoleDirection, RoleTeacher, RoleParent, RoleStudent}
	// SelfServiceRoles may be picked on public registration.
	SelfServiceRoles = []Role{RoleStudent, RoleTeacher, RoleParent}
	StaffRoles       = []Role{RoleAdmin, RoleDirection}

	rolePriorities = map[Role]int{
		RoleAdmin:     30,
		RoleDirection: 25,
		RoleTeacher:   11,
		RoleParent:    5,
		RoleStudent:   1,
	}

	Roles = []RoleInfo{
		{Name: "Student", Value: RoleStudent},
		{Name: "Parent", Value: RoleParent},
		{Name: "Teacher", Value: RoleTeacher},
		{Name: "Direction", Value: RoleDirection},
		{Name: "Admin", Value: RoleAdmin},
	}

	Collection = core.Collection{
		Name:     "users",
		Resource: "user",
		Indexes: []core.Index{
			{Keys: []string{"email"}, Unique: true},
			{Keys: []string{"role"}},
		},
	}

	// OrderingFields lists the fields a user listing may be sorted by.
	OrderingFields = []string{"name", "email", "role", "is_active", "created_at", "updated_at", "last_login"}
)

func (r Role) Priority() int {
	return rolePriorities[r]
}

func (r Role) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

// IsStaff reports whether r is one of the school management roles.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleDirection
}

// HasAnyRole reports whether r is one of roles; no roles means any.
func (r Role) HasAnyRole(roles ...Role) bool {
	if len(roles) == 0 {
		return true
	}
	for _, role := range roles {
		if r == role {
			return true
		}
	}
	return false
}

type RoleInfo struct {
	Name  string `json:"name"`
	Value Role   `json:"value"`
}

type User struct {
	ID                string    `json:"id" bson:"_id"`
	Name              string    `json:"name" bson:"name"`
	Email             string    `json:"email" bson:"email"`
	Role              Role      `json:"role" bson:"role"`
	IsActive          bool      `json:"is_active" bson:"is_active"`
	PasswordHash      []byte    `json:"-" bson:"password_hash"`
	PasswordChangedAt time.Time `json:"-" bson:"password_changed_at"` // UTC
	CreatedAt         time.Time `json:"created_at" bson:"created_at"` // UTC
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"` // UTC
	LastLogin         time.Time `json:"last_login" bson:"last_login"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	u.PasswordChangedAt = core.Now()
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// PasswordChangedAfter reports whether the password changed after a token issued at iat (unix seconds).
func (u *User) PasswordChangedAfter(iat int64) bool {
	if u.PasswordChangedAt.IsZero() {
		return false
	}
	return u.PasswordChangedAt.Unix() > iat
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsStaff() bool   { return u.Role.IsStaff() }
func (u *User) IsTeacher() bool { return u.Role == RoleTeacher }
func (u *User) IsParent() bool  { return u.Role == RoleParent }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// NewUser contains information needed to create a new User.
type NewUser struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"omitempty,eqfield=Password"`
	Role            Role   `json:"role" validate:"required,role"`
}

func (nu *NewUser) Validate(validate *validator.Validate) error {
	nu.Name = core.CleanString(nu.Name)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
	nu.Role = Role(core.CleanString(string(nu.Role), true /* lower */))
	return validate.Struct(nu)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	Name     *string `json:"name" validate:"omitempty,min=1"`
	Email    *string `json:"email" validate:"omitempty,email"`
	Role     *Role   `json:"role" validate:"omitempty,role"`
	IsActive *bool   `json:"is_active"`
}

func (uu *UpdateUser) Validate(validate *validator.Validate) error {
	if uu.Name != nil {
		uu.Name = core.StrPtr(core.CleanString(*uu.Name))
	}
	if uu.Email != nil {
		uu.Email = core.StrPtr(core.CleanString(*uu.Email, true /* lower */))
	}
	return validate.Struct(uu)
}

// TouchesPrivileges reports whether the update changes fields reserved to staff.
func (uu UpdateUser) TouchesPrivileges() bool {
	return uu.Role != nil || uu.IsActive != nil
}

// UpdatePassword is used by authenticated users to change their own password.
type UpdatePassword struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	Password        string `json:"password" validate:"required"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`

	usr User
}

func (up *UpdatePassword) Validate(validate *validator.Validate, usr User) error {
	up.usr = usr
	return validate.Struct(up)
}

type ResetUserPassword struct {
	Token           string `json:"token,omitempty" validate:"required"`
	UID             string `json:"uid,omitempty" validate:"required"`
	Password        string `json:"password,omitempty" validate:"required"`
	PasswordConfirm string `json:"password_confirm,omitempty" validate:"required,eqfield=Password"`
}

func (rp ResetUserPassword) Validate(validate *validator.Validate) error { return validate.Struct(rp) }

type QueryFilter struct {
	Search      string    `query:"search"`
	Roles       []string  `query:"role"`
	IsActive    *bool     `query:"is_active"`
	CreatedFrom time.Time `query:"created_from"`
	CreatedTo   time.Time `query:"created_to"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Roles == nil && qf.IsActive == nil && qf.CreatedFrom.IsZero() && qf.CreatedTo.IsZero()
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// Conds builds the store conditions of the filter.
// Search does a case-insensitive match on one of User.Name or User.Email.
func (qf QueryFilter) Conds() []core.Cond {
	var conds []core.Cond
	if qf.Search != "" {
		conds = append(conds, core.Search(qf.Search, "name", "email"))
	}
	if len(qf.Roles) > 0 {
		conds = append(conds, core.In("role", qf.Roles...))
	}
	if qf.IsActive != nil {
		conds = append(conds, core.Eq("is_active", *qf.IsActive))
	}
	if !qf.CreatedFrom.IsZero() {
		conds = append(conds, core.Gte("created_at", qf.CreatedFrom.UTC()))
	}
	if !qf.CreatedTo.IsZero() {
		conds = append(conds, core.Lte("created_at", qf.CreatedTo.UTC()))
	}
	return conds
}
