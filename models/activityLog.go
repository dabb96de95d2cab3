package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
)

// ActivityLog records HTTP-level audit entries. Writes are best-effort:
// the middleware never fails a request over a logging problem.
type ActivityLog struct {
	ID          int       `gorm:"primary_key" json:"id"`
	UserId      *int      `gorm:"index" json:"userId"`
	Username    string    `gorm:"size:50" json:"username"`
	Method      string    `gorm:"size:10" json:"method"`
	Endpoint    string    `gorm:"size:255" json:"endpoint"`
	StatusCode  int       `json:"statusCode"`
	IpAddress   string    `gorm:"size:45" json:"ipAddress"`
	UserAgent   string    `gorm:"size:255" json:"userAgent"`
	RequestBody string    `gorm:"type:text" json:"requestBody"`
	CreatedAt   time.Time `gorm:"autoCreateTime;index" json:"created_at"`
}

func CreateActivityLog(ctx context.Context, entry *ActivityLog) error {
	db := config.GetDB()
	return db.WithContext(ctx).Create(entry).Error
}

type ActivityLogListParams struct {
	ListParams
	UserId int
	Method string
}

func ListActivityLogs(ctx context.Context, params ActivityLogListParams) ([]*ActivityLog, *Pagination, error) {
	params.Normalize("created_at DESC, id DESC")

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&ActivityLog{})
	if params.UserId > 0 {
		dbCtx = dbCtx.Where("user_id = ?", params.UserId)
	}
	if params.Method != "" {
		dbCtx = dbCtx.Where("method = ?", params.Method)
	}
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		dbCtx = dbCtx.Where("endpoint LIKE ? OR username LIKE ?", pattern, pattern)
	}
	if params.DateFrom != nil {
		dbCtx = dbCtx.Where("created_at >= ?", params.DateFrom)
	}
	if params.DateTo != nil {
		dbCtx = dbCtx.Where("created_at <= ?", params.DateTo)
	}

	var logs []*ActivityLog
	pagination, err := paginate(dbCtx, params.ListParams, &logs)
	if err != nil {
		return nil, nil, err
	}
	return logs, pagination, nil
}
