package media

import (
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100

	defaultSortBy    = "createdAt"
	defaultSortOrder = "desc"
)

// sortFields — соответствие внешних имён полей сортировки полям документа.
var sortFields = map[string]string{
	"createdAt":  "created_at",
	"updatedAt":  "updated_at",
	"uploadedAt": "uploaded_at",
	"fileName":   "original_name",
	"mimeType":   "mime_type",
	"size":       "file_size",
	"status":     "status",
}

// SearchFilter — параметры поиска файлов. Не персистится, строится на каждый запрос.
type SearchFilter struct {
	Status    Status
	MimeType  string
	FileName  string
	StartDate *time.Time
	EndDate   *time.Time
	MinSize   *int64
	MaxSize   *int64
	Page      int
	Limit     int
	SortBy    string
	SortOrder string
}

// Normalize выставляет значения по умолчанию и ограничивает пагинацию.
func (f *SearchFilter) Normalize() {
	if f.Page < 1 {
		f.Page = defaultPage
	}
	if f.Limit < 1 {
		f.Limit = defaultLimit
	}
	if f.Limit > maxLimit {
		f.Limit = maxLimit
	}
	if _, ok := sortFields[f.SortBy]; !ok {
		f.SortBy = defaultSortBy
	}
	if f.SortOrder != "asc" && f.SortOrder != "desc" {
		f.SortOrder = defaultSortOrder
	}
}

// BuildQuery строит mongo-запрос по заполненным полям фильтра.
// Диапазоны дат и размеров включают обе границы.
func (f SearchFilter) BuildQuery() bson.M {
	query := bson.M{}

	if f.Status != "" {
		query["status"] = f.Status
	}
	if f.MimeType != "" {
		query["mime_type"] = f.MimeType
	}
	if f.FileName != "" {
		query["original_name"] = bson.M{
			"$regex":   regexp.QuoteMeta(f.FileName),
			"$options": "i",
		}
	}

	created := bson.M{}
	if f.StartDate != nil {
		created["$gte"] = *f.StartDate
	}
	if f.EndDate != nil {
		created["$lte"] = *f.EndDate
	}
	if len(created) > 0 {
		query["created_at"] = created
	}

	size := bson.M{}
	if f.MinSize != nil {
		size["$gte"] = *f.MinSize
	}
	if f.MaxSize != nil {
		size["$lte"] = *f.MaxSize
	}
	if len(size) > 0 {
		query["file_size"] = size
	}

	return query
}

// Skip — смещение страницы для mongo.
func (f SearchFilter) Skip() int64 {
	return int64(f.Page-1) * int64(f.Limit)
}

// FindOptions строит опции выборки: пагинация и сортировка.
func (f SearchFilter) FindOptions() *options.FindOptions {
	direction := -1
	if f.SortOrder == "asc" {
		direction = 1
	}
	return options.Find().
		SetSkip(f.Skip()).
		SetLimit(int64(f.Limit)).
		SetSort(bson.D{{Key: sortFields[f.SortBy], Value: direction}})
}

// Pagination — метаданные страницы результата поиска.
type Pagination struct {
	Page            int
	Limit           int
	TotalItems      int64
	TotalPages      int
	HasNextPage     bool
	HasPreviousPage bool
}

// NewPagination вычисляет метаданные страницы из общего числа записей.
func NewPagination(page, limit int, totalItems int64) Pagination {
	totalPages := int((totalItems + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:            page,
		Limit:           limit,
		TotalItems:      totalItems,
		TotalPages:      totalPages,
		HasNextPage:     page < totalPages,
		HasPreviousPage: page > 1,
	}
}
