package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bitbucket.org/mmdatafocus/apotek_backend/models"
)

func ListPegawaiHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := parseListParams(c, "nama", "nip", "created_at")
		pegawai, pagination, err := models.ListPegawai(c.Request.Context(), params)
		if err != nil {
			respondError(c, err)
			return
		}
		respondPaginated(c, "ok", pegawai, pagination)
	}
}

func GetPegawaiHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		pegawai, err := models.FetchPegawai(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "ok", pegawai)
	}
}

func CreatePegawaiHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewPegawai
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		pegawai, err := models.CreatePegawai(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusCreated, "pegawai created", pegawai)
	}
}

func UpdatePegawaiHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		var input models.NewPegawai
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		pegawai, err := models.UpdatePegawai(c.Request.Context(), id, &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "pegawai updated", pegawai)
	}
}

func DeletePegawaiHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		pegawai, err := models.DeletePegawai(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "pegawai deleted", pegawai)
	}
}
