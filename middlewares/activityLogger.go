package middlewares

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"time"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/models"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

const maxLoggedBodyBytes = 4096

var sensitiveBodyFields = []string{"password", "oldPassword", "newPassword", "token"}

// sanitizeBody masks credential fields and truncates oversized payloads
// before the body lands in the audit table.
func sanitizeBody(body []byte) string {
	if len(body) == 0 {
		return ""
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(body, &parsed); err == nil {
		for _, field := range sensitiveBodyFields {
			if _, exists := parsed[field]; exists {
				parsed[field] = "***"
			}
		}
		if masked, err := json.Marshal(parsed); err == nil {
			body = masked
		}
	}

	if len(body) > maxLoggedBodyBytes {
		body = body[:maxLoggedBodyBytes]
	}
	return string(body)
}

// ActivityLogger records every mutating request in the audit table after
// the handler finishes. Logging is best-effort: a failed insert is logged
// and the response goes out untouched.
func ActivityLogger() gin.HandlerFunc {
	logger := config.GetLogger()

	return func(c *gin.Context) {
		if c.Request.Method == "GET" || c.Request.Method == "HEAD" || c.Request.Method == "OPTIONS" {
			c.Next()
			return
		}

		var body []byte
		if c.Request.Body != nil {
			body, _ = io.ReadAll(c.Request.Body)
			c.Request.Body = io.NopCloser(bytes.NewBuffer(body))
		}

		c.Next()

		entry := &models.ActivityLog{
			Method:      c.Request.Method,
			Endpoint:    c.Request.URL.Path,
			StatusCode:  c.Writer.Status(),
			IpAddress:   c.ClientIP(),
			UserAgent:   c.Request.UserAgent(),
			RequestBody: sanitizeBody(body),
		}
		if userId, ok := utils.GetUserIdFromContext(c.Request.Context()); ok && userId > 0 {
			entry.UserId = &userId
		}
		if username, ok := utils.GetUsernameFromContext(c.Request.Context()); ok {
			entry.Username = username
		}

		// Detached context so a client disconnect does not cancel the write.
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := models.CreateActivityLog(ctx, entry); err != nil {
			config.LogError(logger, "middlewares", "ActivityLogger", "insert audit entry", entry.Endpoint, err)
		}
	}
}
