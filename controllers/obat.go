package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/apotek_backend/models"
)

func ListObatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := models.ObatListParams{
			ListParams: parseListParams(c, "nama_obat", "kode_obat", "stok", "created_at"),
			KategoriId: queryInt(c, "kategoriId"),
			LowStock:   c.Query("lowStock") == "true",
			Expired:    c.Query("expired") == "true",
		}
		obat, pagination, err := models.ListObat(c.Request.Context(), params)
		if err != nil {
			respondError(c, err)
			return
		}
		respondPaginated(c, "ok", obat, pagination)
	}
}

func GetObatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		obat, err := models.FetchObat(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "ok", obat)
	}
}

func CreateObatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewObat
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		obat, err := models.CreateObat(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusCreated, "obat created", obat)
	}
}

func UpdateObatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var input models.NewObat
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		obat, err := models.UpdateObat(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "obat updated", obat)
	}
}

func DeleteObatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		obat, err := models.DeleteObat(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "obat deleted", obat)
	}
}
