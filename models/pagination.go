package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type Pagination struct {
	TotalItems   int64 `json:"totalItems"`
	TotalPages   int   `json:"totalPages"`
	CurrentPage  int   `json:"currentPage"`
	ItemsPerPage int   `json:"itemsPerPage"`
}

// ListParams carries the common list-endpoint query options
// (page/limit pagination, free-text search, sorting, date range).
type ListParams struct {
	Page      int
	Limit     int
	Search    string
	SortBy    string
	SortOrder string
	DateFrom  *time.Time
	DateTo    *time.Time
}

func (p *ListParams) Normalize(defaultSort string) {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = 10
	}
	if p.Limit > 100 {
		p.Limit = 100
	}
	if p.SortBy == "" {
		p.SortBy = defaultSort
	}
	if p.SortOrder != "DESC" && p.SortOrder != "ASC" {
		p.SortOrder = "ASC"
	}
}

func (p ListParams) Offset() int {
	return (p.Page - 1) * p.Limit
}

// OrderClause builds the ORDER BY expression. Default sorts passed to
// Normalize may carry their own direction (or several columns); those are
// used verbatim. A caller-supplied single column gets SortOrder appended.
func (p ListParams) OrderClause() string {
	if strings.ContainsAny(p.SortBy, " ,") {
		return p.SortBy
	}
	return p.SortBy + " " + p.SortOrder
}

// paginate runs Count + Limit/Offset+Find on the prepared query and returns
// page metadata. The query must already carry its WHERE conditions.
func paginate(dbCtx *gorm.DB, p ListParams, out interface{}) (*Pagination, error) {
	var total int64
	if err := dbCtx.Count(&total).Error; err != nil {
		return nil, err
	}
	if err := dbCtx.Order(p.OrderClause()).Limit(p.Limit).Offset(p.Offset()).Find(out).Error; err != nil {
		return nil, err
	}
	totalPages := int((total + int64(p.Limit) - 1) / int64(p.Limit))
	return &Pagination{
		TotalItems:   total,
		TotalPages:   totalPages,
		CurrentPage:  p.Page,
		ItemsPerPage: p.Limit,
	}, nil
}
