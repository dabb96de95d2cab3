package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/apotek_backend/models"
)

func DashboardSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		summary, err := models.GetDashboardSummary(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "ok", summary)
	}
}

func ListActivityLogHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := models.ActivityLogListParams{
			ListParams: parseListParams(c, "created_at"),
			UserId:     queryInt(c, "userId"),
			Method:     c.Query("method"),
		}
		logs, pagination, err := models.ListActivityLogs(c.Request.Context(), params)
		if err != nil {
			respondError(c, err)
			return
		}
		respondPaginated(c, "ok", logs, pagination)
	}
}
