package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/models"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

type response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	Error   interface{} `json:"error,omitempty"`
}

type paginatedData struct {
	Items      interface{}        `json:"items"`
	Pagination *models.Pagination `json:"pagination"`
}

func respondSuccess(c *gin.Context, status int, message string, data interface{}) {
	c.JSON(status, response{Success: true, Message: message, Data: data})
}

func respondPaginated(c *gin.Context, message string, items interface{}, pagination *models.Pagination) {
	c.JSON(http.StatusOK, response{
		Success: true,
		Message: message,
		Data:    paginatedData{Items: items, Pagination: pagination},
	})
}

// respondError maps the model-layer error taxonomy onto HTTP statuses.
// Internal errors are logged with their correlation id and masked in the
// response body.
func respondError(c *gin.Context, err error) {
	var validationErrors validator.ValidationErrors
	if errors.As(err, &validationErrors) {
		c.JSON(http.StatusBadRequest, response{
			Success: false,
			Message: "validation failed",
			Error:   utils.ProcessValidationErrors(err),
		})
		return
	}

	switch {
	case utils.IsValidationError(err):
		c.JSON(http.StatusBadRequest, response{Success: false, Message: "validation failed", Error: err.Error()})
	case utils.IsNotFoundError(err):
		message := err.Error()
		if errors.Is(err, utils.ErrorRecordNotFound) {
			message = "resource not found"
		}
		c.JSON(http.StatusNotFound, response{Success: false, Message: "not found", Error: message})
	case utils.IsInsufficientStockError(err):
		c.JSON(http.StatusConflict, response{Success: false, Message: "insufficient stock", Error: err.Error()})
	case utils.IsConflictError(err):
		c.JSON(http.StatusConflict, response{Success: false, Message: "conflict", Error: err.Error()})
	default:
		logger := config.GetLogger()
		correlationId, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		config.LogError(logger, "controllers", c.FullPath(), "request failed", correlationId, err)
		c.JSON(http.StatusInternalServerError, response{
			Success: false,
			Message: "internal server error",
			Error:   "internal server error",
		})
	}
}

func paramId(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, utils.NewValidationError("invalid id: %s", c.Param("id"))
	}
	return id, nil
}

func queryInt(c *gin.Context, key string) int {
	value, _ := strconv.Atoi(c.Query(key))
	return value
}

func queryDate(c *gin.Context, key string) *time.Time {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return &parsed
	}
	if parsed, err := time.Parse("2006-01-02", raw); err == nil {
		return &parsed
	}
	return nil
}

// parseListParams reads the common list query options. sortColumns is the
// whitelist of caller-selectable sort columns; anything else falls back to
// the model's default ordering.
func parseListParams(c *gin.Context, sortColumns ...string) models.ListParams {
	params := models.ListParams{
		Page:      queryInt(c, "page"),
		Limit:     queryInt(c, "limit"),
		Search:    c.Query("search"),
		SortOrder: c.Query("sortOrder"),
		DateFrom:  queryDate(c, "dateFrom"),
		DateTo:    queryDate(c, "dateTo"),
	}
	requested := c.Query("sortBy")
	for _, column := range sortColumns {
		if requested == column {
			params.SortBy = column
			break
		}
	}
	return params
}
