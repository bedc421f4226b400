package tests

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo/core"
	"github.com/trezcool/masomo/core/user"
	"github.com/trezcool/masomo/tests"
)

func Test_server_health(t *testing.T) {
	tests := []httpTest{
		{
			name: "home", path: "/", wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]string{
				"status":  "success",
				"message": "Welcome to the " + conf.AppName + " API",
				"version": conf.Build,
			}),
		},
		{
			name: "health", path: "/health", wantCode: http.StatusOK,
			wantData: marchallObj(t, map[string]interface{}{
				"status": "success",
				"data":   map[string]interface{}{"health": map[string]string{"database": "up", "env": conf.Env}},
			}),
		},
		{name: "metrics", path: "/metrics", wantCode: http.StatusOK},
		{
			name: "unknown route", path: "/lol", wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Status: "fail", Message: "Not Found"}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			rec := httptest.NewRecorder()
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_apiKeys(t *testing.T) {
	testutil.ResetDB(t, db)

	keys := conf.APIKeys
	missingID := core.NewID()
	newUser := marchallObj(t, user.NewUser{Name: "Key User", Email: "key@test.cd", Password: testPassword, Role: user.RoleTeacher})

	tests := []httpTest{
		{
			name: "unknown key", method: http.MethodGet, path: "/events", apiKey: "lol",
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, httpErr{Status: "fail", Message: "invalid api key", Code: "invalid_api_key"}),
		},
		{name: "student key reads", method: http.MethodGet, path: "/events", apiKey: keys.Student, wantCode: http.StatusOK},
		{
			name: "student key cannot write", method: http.MethodPost, path: "/events", apiKey: keys.Student,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errMethodNotAllowed),
		},
		{
			name: "parent key cannot write", method: http.MethodPost, path: "/cantine/orders", apiKey: keys.Parent,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errMethodNotAllowed),
		},
		{
			name: "teacher key cannot delete", method: http.MethodDelete, path: "/grades/" + missingID, apiKey: keys.Teacher,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errMethodNotAllowed),
		},
		{
			name: "role still applies to keys", method: http.MethodGet, path: "/students", apiKey: keys.Student,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "teacher key is not staff", method: http.MethodPost, path: "/users", apiKey: keys.Teacher, body: newUser,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{name: "direction key deletes", method: http.MethodDelete, path: "/events/" + missingID, apiKey: keys.Direction, wantCode: http.StatusNotFound},
		{name: "admin key creates users", method: http.MethodPost, path: "/users", apiKey: keys.Admin, body: newUser, wantCode: http.StatusCreated},
		{
			name: "invalid id", method: http.MethodGet, path: "/courses/lol", apiKey: keys.Admin,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Status: "fail", Message: "invalid id: lol", Code: "invalid_id"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_roles(t *testing.T) {
	testutil.ResetDB(t, db)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", testPassword, user.RoleAdmin, true)
	direction := testutil.CreateUser(t, usrRepo, "Direction", "direction@test.cd", testPassword, user.RoleDirection, true)
	tchr := testutil.CreateUser(t, usrRepo, "Teacher", "teacher@test.cd", testPassword, user.RoleTeacher, true)
	stdnt := testutil.CreateUser(t, usrRepo, "Student", "student@test.cd", testPassword, user.RoleStudent, true)

	adminUser := marchallObj(t, user.NewUser{Name: "Root", Email: "root@test.cd", Password: testPassword, Role: user.RoleAdmin})
	tests := []httpTest{
		{
			name: "teacher on a staff route", method: http.MethodGet, path: "/users", token: getToken(t, tchr),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "student lists students", method: http.MethodGet, path: "/students", token: getToken(t, stdnt),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{
			name: "student reads another user", method: http.MethodGet, path: "/users/" + tchr.ID, token: getToken(t, stdnt),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{name: "student reads themself", method: http.MethodGet, path: "/users/" + stdnt.ID, token: getToken(t, stdnt), wantCode: http.StatusOK},
		{
			name: "student grants themself a role", method: http.MethodPatch, path: "/users/" + stdnt.ID, token: getToken(t, stdnt),
			body: marchallObj(t, map[string]string{"role": "admin"}), wantCode: http.StatusForbidden,
		},
		{
			name: "direction cannot create admins", method: http.MethodPost, path: "/users", token: getToken(t, direction),
			body: adminUser, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{
				Status: "fail", Message: "invalid input data",
				Errors: map[string]string{"role": "not enough rights to set this role"},
			}),
		},
		{
			name: "admin cannot delete themself", method: http.MethodDelete, path: "/users/" + admin.ID, token: getToken(t, admin),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermissionDenied),
		},
		{name: "admin creates admins", method: http.MethodPost, path: "/users", token: getToken(t, admin), body: adminUser, wantCode: http.StatusCreated},
		{name: "list roles", method: http.MethodGet, path: "/users/roles", token: getToken(t, direction), wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(tt)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_userApi_query(t *testing.T) {
	testutil.ResetDB(t, db)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", testPassword, user.RoleAdmin, true)
	for _, name := range []string{"Ada", "Bob", "Cyd", "Dee", "Eve"} {
		testutil.CreateUser(t, usrRepo, name, name+"@test.cd", testPassword, user.RoleStudent, true)
	}
	testutil.CreateUser(t, usrRepo, "N Dog", "ndog@test.cd", testPassword, user.RoleStudent, false)

	tests := []struct {
		name      string
		query     string
		wantCount int
		wantPages int64
	}{
		{name: "all", query: "", wantCount: 7, wantPages: 1},
		{name: "role", query: "?role=student", wantCount: 6, wantPages: 1},
		{name: "inactive", query: "?is_active=false", wantCount: 1, wantPages: 1},
		{name: "search", query: "?search=EVE", wantCount: 1, wantPages: 1},
		{name: "page 1", query: "?limit=3&page=1", wantCount: 3, wantPages: 3},
		{name: "last page", query: "?limit=3&page=3", wantCount: 1, wantPages: 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/users"+tt.query, getToken(t, admin))
			app.ServeHTTP(rec, req)
			if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
				return
			}
			resp := decodeResp(t, rec)
			if assert.NotNil(t, resp.Results) {
				assert.Equal(t, tt.wantCount, *resp.Results)
			}
			if assert.NotNil(t, resp.TotalPages) {
				assert.Equal(t, tt.wantPages, *resp.TotalPages)
			}
		})
	}
}

func Test_userApi_ordering(t *testing.T) {
	testutil.ResetDB(t, db)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin@test.cd", testPassword, user.RoleAdmin, true)
	for _, name := range []string{"Eve", "Cyd", "Ada", "Dee", "Bob"} {
		testutil.CreateUser(t, usrRepo, name, name+"@test.cd", testPassword, user.RoleStudent, true)
	}

	tests := []struct {
		name      string
		query     string
		wantNames []string
	}{
		{name: "by name", query: "?ordering=name", wantNames: []string{"Ada", "Admin", "Bob", "Cyd", "Dee", "Eve"}},
		{name: "by name desc", query: "?ordering=-name", wantNames: []string{"Eve", "Dee", "Cyd", "Bob", "Admin", "Ada"}},
		{
			name: "password hash is not sortable", query: "?ordering=password_hash,name",
			wantNames: []string{"Ada", "Admin", "Bob", "Cyd", "Dee", "Eve"},
		},
		{
			name: "password hash desc is not sortable", query: "?ordering=-password_hash,-name",
			wantNames: []string{"Eve", "Dee", "Cyd", "Bob", "Admin", "Ada"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(http.MethodGet, "/users"+tt.query, getToken(t, admin))
			app.ServeHTTP(rec, req)
			if !assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String()) {
				return
			}
			var users []user.User
			decodeData(t, rec, "users", &users)
			names := make([]string, 0, len(users))
			for _, usr := range users {
				names = append(names, usr.Name)
			}
			assert.Equal(t, tt.wantNames, names)
		})
	}
}
