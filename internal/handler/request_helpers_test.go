package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/osse101/opitemdb/internal/domain"
)

func TestParseItemQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantPage   int
		wantSize   int
		wantFilter domain.FilterSet
		wantSearch string
		wantFields []string
	}{
		{name: "defaults", query: "", wantPage: 1, wantSize: defaultPageSize, wantFilter: domain.FilterSet{}},
		{
			name:       "filters and search",
			query:      "type=waffe&material=eisen&rarity=%20episch%20&search=%20flamme",
			wantPage:   1,
			wantSize:   defaultPageSize,
			wantFilter: domain.FilterSet{domain.FilterType: "waffe", domain.FilterMaterial: "eisen", domain.FilterRarity: "episch"},
			wantSearch: "flamme",
		},
		{name: "explicit paging", query: "page=3&page_size=12", wantPage: 3, wantSize: 12, wantFilter: domain.FilterSet{}},
		{name: "all resets page", query: "page=4&page_size=all", wantPage: 1, wantSize: 0, wantFilter: domain.FilterSet{}},
		{name: "bad page", query: "page=0", wantFields: []string{paramPage}},
		{name: "page size too big", query: "page_size=101", wantFields: []string{paramPageSize}},
		{name: "page size not a number", query: "page_size=lots", wantFields: []string{paramPageSize}},
		{name: "bad published flag", query: "is_published=maybe", wantFields: []string{paramIsPublished}},
		{name: "several errors", query: "page=-1&page_size=0", wantFields: []string{paramPage, paramPageSize}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/items?"+tt.query, nil)
			q, fields := parseItemQuery(req)

			if len(tt.wantFields) > 0 {
				require.NotNil(t, fields)
				for _, f := range tt.wantFields {
					assert.Contains(t, fields, f)
				}
				assert.Len(t, fields, len(tt.wantFields))
				return
			}
			require.Nil(t, fields)
			assert.Equal(t, tt.wantPage, q.Page)
			assert.Equal(t, tt.wantSize, q.PageSize)
			assert.Equal(t, tt.wantFilter, q.Filters)
			assert.Equal(t, tt.wantSearch, q.Search)
		})
	}
}

func TestParseItemQuery_Published(t *testing.T) {
	q, fields := parseItemQuery(httptest.NewRequest(http.MethodGet, "/api/items?is_published=false", nil))
	require.Nil(t, fields)
	require.NotNil(t, q.Published)
	assert.False(t, *q.Published)

	q, _ = parseItemQuery(httptest.NewRequest(http.MethodGet, "/api/items", nil))
	assert.Nil(t, q.Published)
}

func TestDecodeAndValidate(t *testing.T) {
	type payload struct {
		Name string `json:"name" validate:"required,max=5"`
	}

	t.Run("valid", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"abc"}`))
		var p payload
		assert.True(t, decodeAndValidate(rec, req, &p, "test"))
		assert.Equal(t, "abc", p.Name)
	})

	t.Run("unknown field", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"abc","extra":1}`))
		var p payload
		assert.False(t, decodeAndValidate(rec, req, &p, "test"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), ErrMsgInvalidRequest)
	})

	t.Run("validation failure names field", func(t *testing.T) {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"name":"toolongname"}`))
		var p payload
		assert.False(t, decodeAndValidate(rec, req, &p, "test"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), `"name"`)
	})

	t.Run("body too large", func(t *testing.T) {
		rec := httptest.NewRecorder()
		big := `{"name":"` + strings.Repeat("a", maxJSONBody) + `"}`
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(big))
		var p payload
		assert.False(t, decodeAndValidate(rec, req, &p, "test"))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})
}
