package media

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestSearchFilterNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   SearchFilter
		want SearchFilter
	}{
		{
			"defaults",
			SearchFilter{},
			SearchFilter{Page: 1, Limit: 20, SortBy: "createdAt", SortOrder: "desc"},
		},
		{
			"limit clamped to cap",
			SearchFilter{Page: 2, Limit: 500},
			SearchFilter{Page: 2, Limit: 100, SortBy: "createdAt", SortOrder: "desc"},
		},
		{
			"negative page reset",
			SearchFilter{Page: -3, Limit: 10},
			SearchFilter{Page: 1, Limit: 10, SortBy: "createdAt", SortOrder: "desc"},
		},
		{
			"unknown sort field reset",
			SearchFilter{SortBy: "secret", SortOrder: "asc"},
			SearchFilter{Page: 1, Limit: 20, SortBy: "createdAt", SortOrder: "asc"},
		},
		{
			"valid values untouched",
			SearchFilter{Page: 3, Limit: 50, SortBy: "size", SortOrder: "asc"},
			SearchFilter{Page: 3, Limit: 50, SortBy: "size", SortOrder: "asc"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.in.Normalize()
			assert.Equal(t, tt.want, tt.in)
		})
	}
}

func TestBuildQuery(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	minSize := int64(100)
	maxSize := int64(5000)

	filter := SearchFilter{
		Status:    StatusValidated,
		MimeType:  "image/png",
		FileName:  "report (final)",
		StartDate: &start,
		EndDate:   &end,
		MinSize:   &minSize,
		MaxSize:   &maxSize,
	}

	query := filter.BuildQuery()

	assert.Equal(t, StatusValidated, query["status"])
	assert.Equal(t, "image/png", query["mime_type"])

	name, ok := query["original_name"].(bson.M)
	require.True(t, ok)
	// Спецсимволы имени экранируются, поиск регистронезависимый.
	assert.Equal(t, `report \(final\)`, name["$regex"])
	assert.Equal(t, "i", name["$options"])

	created, ok := query["created_at"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, start, created["$gte"])
	assert.Equal(t, end, created["$lte"])

	size, ok := query["file_size"].(bson.M)
	require.True(t, ok)
	assert.Equal(t, minSize, size["$gte"])
	assert.Equal(t, maxSize, size["$lte"])
}

func TestBuildQueryEmpty(t *testing.T) {
	query := SearchFilter{}.BuildQuery()
	assert.Empty(t, query)
}

func TestBuildQueryOpenRanges(t *testing.T) {
	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	minSize := int64(10)

	query := SearchFilter{StartDate: &start, MinSize: &minSize}.BuildQuery()

	created := query["created_at"].(bson.M)
	assert.Equal(t, start, created["$gte"])
	assert.NotContains(t, created, "$lte")

	size := query["file_size"].(bson.M)
	assert.Equal(t, minSize, size["$gte"])
	assert.NotContains(t, size, "$lte")
}

func TestFindOptions(t *testing.T) {
	filter := SearchFilter{Page: 3, Limit: 25, SortBy: "size", SortOrder: "asc"}
	filter.Normalize()

	opts := filter.FindOptions()
	require.NotNil(t, opts.Skip)
	assert.Equal(t, int64(50), *opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(25), *opts.Limit)

	sort, ok := opts.Sort.(bson.D)
	require.True(t, ok)
	require.Len(t, sort, 1)
	assert.Equal(t, "file_size", sort[0].Key)
	assert.Equal(t, 1, sort[0].Value)
}

func TestNewPagination(t *testing.T) {
	tests := []struct {
		name       string
		page       int
		limit      int
		totalItems int64
		want       Pagination
	}{
		{
			"middle page",
			2, 10, 25,
			Pagination{Page: 2, Limit: 10, TotalItems: 25, TotalPages: 3, HasNextPage: true, HasPreviousPage: true},
		},
		{
			"first page",
			1, 10, 25,
			Pagination{Page: 1, Limit: 10, TotalItems: 25, TotalPages: 3, HasNextPage: true, HasPreviousPage: false},
		},
		{
			"last page",
			3, 10, 25,
			Pagination{Page: 3, Limit: 10, TotalItems: 25, TotalPages: 3, HasNextPage: false, HasPreviousPage: true},
		},
		{
			"exact division",
			1, 10, 20,
			Pagination{Page: 1, Limit: 10, TotalItems: 20, TotalPages: 2, HasNextPage: true, HasPreviousPage: false},
		},
		{
			"empty result",
			1, 20, 0,
			Pagination{Page: 1, Limit: 20, TotalItems: 0, TotalPages: 0, HasNextPage: false, HasPreviousPage: false},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewPagination(tt.page, tt.limit, tt.totalItems))
		})
	}
}
