// Package auth resolves who is calling the API and what they may do.
package auth

import (
	"net/http"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/user"
)

var (
	// 401
	ErrMissingToken     = &core.AuthError{Code: "missing_token", Message: "you are not logged in, please log in to get access"}
	ErrInvalidToken     = &core.AuthError{Code: "invalid_token", Message: "invalid token, please log in again"}
	ErrTokenExpired     = &core.AuthError{Code: "token_expired", Message: "your token has expired, please log in again"}
	ErrUserNotFound     = &core.AuthError{Code: "user_not_found", Message: "the user belonging to this token no longer exists"}
	ErrPasswordChanged  = &core.AuthError{Code: "password_changed", Message: "password recently changed, please log in again"}
	ErrInvalidAPIKey    = &core.AuthError{Code: "invalid_api_key", Message: "invalid api key"}
	ErrUserRequired     = &core.AuthError{Code: "user_required", Message: "this endpoint requires a user token"}
	ErrRefreshExpired   = &core.AuthError{Code: "refresh_expired", Message: "refresh has expired"}
	ErrAccountInactive  = user.ErrAccountDeactivated

	// 403
	ErrPermissionDenied = &core.PermissionError{Code: "permission_denied", Message: "you do not have permission to perform this action"}
	ErrMethodNotAllowed = &core.PermissionError{Code: "method_not_allowed_for_key", Message: "this api key is not allowed to perform this action"}
)

var (
	readMethods  = []string{http.MethodGet, http.MethodHead, http.MethodOptions}
	writeMethods = append(append([]string{}, readMethods...), http.MethodPost, http.MethodPut, http.MethodPatch)
	allMethods   = append(append([]string{}, writeMethods...), http.MethodDelete)

	keyMethods = map[user.Role][]string{
		user.RoleStudent:   readMethods,
		user.RoleParent:    readMethods,
		user.RoleTeacher:   writeMethods,
		user.RoleAdmin:     allMethods,
		user.RoleDirection: allMethods,
	}
)

// Principal is the resolved caller of a request.
type Principal struct {
	Role   user.Role
	User   *user.User // nil for API keys
	APIKey bool
}

// UserID returns the ID of the calling User, if any.
func (p Principal) UserID() string {
	if p.User == nil {
		return ""
	}
	return p.User.ID
}

// HasAnyRole reports whether the principal has one of roles; no roles means any.
func (p Principal) HasAnyRole(roles ...user.Role) bool {
	return p.Role.HasAnyRole(roles...)
}

func (p Principal) IsStaff() bool {
	return p.Role.IsStaff()
}

// APIKeys maps static API keys to the role they grant.
type APIKeys map[string]user.Role

// NewAPIKeys builds the key table from configuration; empty keys are ignored.
func NewAPIKeys(conf core.APIKeysConfig) APIKeys {
	keys := make(APIKeys, 5)
	for key, role := range map[string]user.Role{
		conf.Admin:     user.RoleAdmin,
		conf.Direction: user.RoleDirection,
		conf.Teacher:   user.RoleTeacher,
		conf.Parent:    user.RoleParent,
		conf.Student:   user.RoleStudent,
	} {
		if key != "" {
			keys[key] = role
		}
	}
	return keys
}

// Resolve returns the principal of key, checking that its role may use method.
func (keys APIKeys) Resolve(key, method string) (Principal, error) {
	role, ok := keys[key]
	if !ok {
		return Principal{}, ErrInvalidAPIKey
	}
	if !MethodAllowed(role, method) {
		return Principal{}, ErrMethodNotAllowed
	}
	return Principal{Role: role, APIKey: true}, nil
}

// MethodAllowed reports whether an API key of role may send requests with method.
func MethodAllowed(role user.Role, method string) bool {
	for _, m := range keyMethods[role] {
		if m == method {
			return true
		}
	}
	return false
}
