package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/apotek_backend/models"
)

// RegisterReferensiRoutes wires the standard CRUD surface for one of the
// simple reference tables onto a route group.
func RegisterReferensiRoutes[T any, PT interface {
	*T
	Ref() *models.Referensi
}](group *gin.RouterGroup) {
	group.GET("", listReferensiHandler[T]())
	group.POST("", createReferensiHandler[T, PT]())
	group.PUT("/:id", updateReferensiHandler[T, PT]())
	group.DELETE("/:id", deleteReferensiHandler[T]())
}

func listReferensiHandler[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := models.ListReferensi[T](c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "ok", items)
	}
}

func createReferensiHandler[T any, PT interface {
	*T
	Ref() *models.Referensi
}]() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewReferensi
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		item, err := models.CreateReferensi[T, PT](c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusCreated, "created", item)
	}
}

func updateReferensiHandler[T any, PT interface {
	*T
	Ref() *models.Referensi
}]() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var input models.NewReferensi
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		item, err := models.UpdateReferensi[T, PT](c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "updated", item)
	}
}

func deleteReferensiHandler[T any]() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		item, err := models.DeleteReferensi[T](c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "deleted", item)
	}
}
