package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/apotek_backend/models"
)

func ListTransaksiHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := models.TransaksiListParams{
			ListParams: parseListParams(c, "tanggal_transaksi", "no_faktur", "grand_total"),
			Status:     c.Query("status"),
			CustomerId: queryInt(c, "customerId"),
			PegawaiId:  queryInt(c, "pegawaiId"),
		}
		transaksi, pagination, err := models.ListTransaksi(c.Request.Context(), params)
		if err != nil {
			respondError(c, err)
			return
		}
		respondPaginated(c, "ok", transaksi, pagination)
	}
}

func GetTransaksiHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		transaksi, err := models.FetchTransaksi(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "ok", transaksi)
	}
}

func CreateTransaksiHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewTransaksi
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		transaksi, err := models.CreateTransaksi(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusCreated, "transaksi created", transaksi)
	}
}

func UpdateTransaksiHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var input models.UpdateTransaksiInput
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		transaksi, err := models.UpdateTransaksi(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "transaksi updated", transaksi)
	}
}

func DeleteTransaksiHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		transaksi, err := models.DeleteTransaksi(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "transaksi deleted", transaksi)
	}
}
