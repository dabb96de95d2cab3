package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/apotek_backend/models"
)

func ListPembelianObatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := models.PembelianListParams{
			ListParams: parseListParams(c, "tanggal_pembelian", "no_faktur", "total_harga"),
			Status:     c.Query("status"),
			SupplierId: queryInt(c, "supplierId"),
		}
		pembelian, pagination, err := models.ListPembelianObat(c.Request.Context(), params)
		if err != nil {
			respondError(c, err)
			return
		}
		respondPaginated(c, "ok", pembelian, pagination)
	}
}

func GetPembelianObatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		pembelian, err := models.FetchPembelianObat(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "ok", pembelian)
	}
}

func CreatePembelianObatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPembelianObat
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		pembelian, err := models.CreatePembelianObat(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusCreated, "pembelian created", pembelian)
	}
}

func UpdatePembelianObatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var input models.UpdatePembelianObatInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		pembelian, err := models.UpdatePembelianObat(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "pembelian updated", pembelian)
	}
}

func DeletePembelianObatHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		pembelian, err := models.DeletePembelianObat(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "pembelian deleted", pembelian)
	}
}
