package auth

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/user"
)

func TestNewAPIKeys(t *testing.T) {
	keys := NewAPIKeys(core.APIKeysConfig{Admin: "a", Teacher: "t", Student: ""})
	assert.Equal(t, APIKeys{"a": user.RoleAdmin, "t": user.RoleTeacher}, keys)
}

func TestAPIKeys_Resolve(t *testing.T) {
	keys := APIKeys{
		"adm": user.RoleAdmin,
		"dir": user.RoleDirection,
		"tea": user.RoleTeacher,
		"par": user.RoleParent,
		"stu": user.RoleStudent,
	}

	tests := []struct {
		name     string
		key      string
		method   string
		wantRole user.Role
		wantErr  error
	}{
		{name: "unknown key", key: "lol", method: http.MethodGet, wantErr: ErrInvalidAPIKey},
		{name: "empty key", key: "", method: http.MethodGet, wantErr: ErrInvalidAPIKey},
		{name: "student GET", key: "stu", method: http.MethodGet, wantRole: user.RoleStudent},
		{name: "student HEAD", key: "stu", method: http.MethodHead, wantRole: user.RoleStudent},
		{name: "student POST", key: "stu", method: http.MethodPost, wantErr: ErrMethodNotAllowed},
		{name: "student PUT", key: "stu", method: http.MethodPut, wantErr: ErrMethodNotAllowed},
		{name: "student PATCH", key: "stu", method: http.MethodPatch, wantErr: ErrMethodNotAllowed},
		{name: "student DELETE", key: "stu", method: http.MethodDelete, wantErr: ErrMethodNotAllowed},
		{name: "parent OPTIONS", key: "par", method: http.MethodOptions, wantRole: user.RoleParent},
		{name: "parent POST", key: "par", method: http.MethodPost, wantErr: ErrMethodNotAllowed},
		{name: "parent DELETE", key: "par", method: http.MethodDelete, wantErr: ErrMethodNotAllowed},
		{name: "teacher POST", key: "tea", method: http.MethodPost, wantRole: user.RoleTeacher},
		{name: "teacher PATCH", key: "tea", method: http.MethodPatch, wantRole: user.RoleTeacher},
		{name: "teacher DELETE", key: "tea", method: http.MethodDelete, wantErr: ErrMethodNotAllowed},
		{name: "admin DELETE", key: "adm", method: http.MethodDelete, wantRole: user.RoleAdmin},
		{name: "direction DELETE", key: "dir", method: http.MethodDelete, wantRole: user.RoleDirection},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := keys.Resolve(tt.key, tt.method)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRole, p.Role)
			assert.True(t, p.APIKey)
			assert.Nil(t, p.User)
		})
	}
}

func TestPrincipal_HasAnyRole(t *testing.T) {
	p := Principal{Role: user.RoleTeacher}
	assert.True(t, p.HasAnyRole())
	assert.True(t, p.HasAnyRole(user.RoleAdmin, user.RoleTeacher))
	assert.False(t, p.HasAnyRole(user.RoleAdmin, user.RoleDirection))
	assert.False(t, p.IsStaff())
	assert.Equal(t, "", p.UserID())
}
