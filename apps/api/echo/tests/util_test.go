package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"

	. "github.com/trezcool/masomo/apps/api/echo"
	"github.com/trezcool/masomo/core/user"
)

const apiPrefix = "/api/v0"

var (
	errMissingToken = httpErr{
		Status:  "fail",
		Message: "you are not logged in, please log in to get access",
		Code:    "missing_token",
	}
	errPermissionDenied = httpErr{
		Status:  "fail",
		Message: "you do not have permission to perform this action",
		Code:    "permission_denied",
	}
	errMethodNotAllowed = httpErr{
		Status:  "fail",
		Message: "this api key is not allowed to perform this action",
		Code:    "method_not_allowed_for_key",
	}
)

type httpErr struct {
	Status  string            `json:"status"`
	Message string            `json:"message"`
	Code    string            `json:"code,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

type httpResp struct {
	Status     string                     `json:"status"`
	Results    *int                       `json:"results"`
	TotalPages *int64                     `json:"total_pages"`
	Message    string                     `json:"message"`
	Data       map[string]json.RawMessage `json:"data"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	apiKey   string
	wantCode int
	wantData []byte
	extra    interface{}
}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, apiPrefix+path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newKeyRequest(method, path, key string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	req, rec := newAuthRequest(method, path, "", data...)
	if key != "" {
		req.Header.Set("x-api-key", key)
	}
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

// serve runs tt against the app, authenticated by its token or API key.
func serve(tt httpTest) *httptest.ResponseRecorder {
	req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
	if tt.apiKey != "" {
		req.Header.Set("x-api-key", tt.apiKey)
	}
	app.ServeHTTP(rec, req)
	return rec
}

func getToken(t *testing.T, usr user.User) string {
	claims := GetUserClaims(conf, usr)
	token, err := GenerateToken(conf, claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	if objs == nil {
		objs = []interface{}{}
	}
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
	}
	return data
}

// decodeResp decodes the success envelope of rec.
func decodeResp(t *testing.T, rec *httptest.ResponseRecorder) httpResp {
	var resp httpResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decodeResp() failed: %v; body %s", err, rec.Body.String())
	}
	return resp
}

// decodeData decodes the data[key] of the success envelope of rec into dst.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, key string, dst interface{}) {
	resp := decodeResp(t, rec)
	raw, ok := resp.Data[key]
	if !ok {
		t.Fatalf("decodeData() failed: no %q in %s", key, rec.Body.String())
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decodeData() failed: %v", err)
	}
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, tt.wantCode, rec.Body.String())
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
