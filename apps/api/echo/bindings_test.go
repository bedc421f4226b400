package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/masomo/core"
)

func Test_bindOrdering(t *testing.T) {
	allowed := []string{"name", "date", "student"}
	tests := []struct {
		query string
		want  []core.DBOrdering
	}{
		{query: "", want: nil},
		{query: "?ordering=", want: nil},
		{query: "?ordering=name", want: []core.DBOrdering{{Field: "name", Ascending: true}}},
		{
			query: "?ordering=-date,%20student",
			want:  []core.DBOrdering{{Field: "date"}, {Field: "student", Ascending: true}},
		},
		{query: "?ordering=-,$where,name,-name", want: []core.DBOrdering{{Field: "name", Ascending: true}}},
		{query: "?ordering=password_hash,-remarks.0", want: nil},
		{query: "?ordering=password_hash,-date", want: []core.DBOrdering{{Field: "date"}}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/grades"+tt.query, nil)
			ctx := echo.New().NewContext(req, httptest.NewRecorder())
			assert.Equal(t, tt.want, bindOrdering(ctx, allowed))
		})
	}
}

func Test_bindPagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/students?page=2&limit=lol", nil)
	ctx := echo.New().NewContext(req, httptest.NewRecorder())
	page := bindPagination(ctx)
	assert.Equal(t, 2, page.Page)
	assert.Positive(t, page.Limit)
}
