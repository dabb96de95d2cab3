package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"

	"bitbucket.org/mmdatafocus/apotek_backend/models"
)

func riwayatStokParams(c *gin.Context) models.RiwayatStokListParams {
	return models.RiwayatStokListParams{
		ListParams:    parseListParams(c, "tanggal_mutasi", "created_at"),
		ObatId:        queryInt(c, "obatId"),
		JenisMutasi:   c.Query("jenisMutasi"),
		ReferensiTipe: c.Query("referensiTipe"),
	}
}

func ListRiwayatStokHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		riwayat, pagination, err := models.ListRiwayatStok(c.Request.Context(), riwayatStokParams(c))
		if err != nil {
			respondError(c, err)
			return
		}
		respondPaginated(c, "ok", riwayat, pagination)
	}
}

func GetRiwayatStokHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := paramId(c)
		if err != nil {
			respondError(c, err)
			return
		}
		riwayat, err := models.FetchRiwayatStok(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "ok", riwayat)
	}
}

func CreateStockAdjustmentHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var input models.NewStockAdjustment
		if err := c.ShouldBindJSON(&input); err != nil {
			respondError(c, err)
			return
		}
		entry, err := models.CreateManualAdjustment(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusCreated, "adjustment posted", entry)
	}
}

var riwayatExportHeader = []string{
	"Tanggal", "Obat", "Jenis Mutasi", "Qty Masuk", "Qty Keluar",
	"Stok Sebelum", "Stok Sesudah", "Referensi", "Keterangan",
}

// ExportRiwayatStokHandler streams the filtered ledger as an xlsx
// workbook. The export reuses the list filters but ignores pagination; the
// page size is raised to the clamp maximum per query round.
func ExportRiwayatStokHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		params := riwayatStokParams(c)
		params.Limit = 100

		file := excelize.NewFile()
		defer file.Close()
		sheet := "Riwayat Stok"
		if _, err := file.NewSheet(sheet); err != nil {
			respondError(c, err)
			return
		}
		file.DeleteSheet("Sheet1")

		for col, title := range riwayatExportHeader {
			cell, _ := excelize.CoordinatesToCellName(col+1, 1)
			if err := file.SetCellValue(sheet, cell, title); err != nil {
				respondError(c, err)
				return
			}
		}

		row := 2
		for page := 1; ; page++ {
			params.Page = page
			entries, pagination, err := models.ListRiwayatStok(c.Request.Context(), params)
			if err != nil {
				respondError(c, err)
				return
			}
			for _, entry := range entries {
				namaObat := ""
				if entry.Obat != nil {
					namaObat = entry.Obat.NamaObat
				}
				referensi := entry.ReferensiTipe
				if entry.ReferensiId != nil {
					referensi = fmt.Sprintf("%s #%d", entry.ReferensiTipe, *entry.ReferensiId)
				}
				values := []interface{}{
					entry.TanggalMutasi.Format("2006-01-02 15:04:05"),
					namaObat,
					entry.JenisMutasi,
					entry.QtyMasuk,
					entry.QtyKeluar,
					entry.StokSebelum,
					entry.StokSesudah,
					referensi,
					entry.Keterangan,
				}
				for col, value := range values {
					cell, _ := excelize.CoordinatesToCellName(col+1, row)
					if err := file.SetCellValue(sheet, cell, value); err != nil {
						respondError(c, err)
						return
					}
				}
				row++
			}
			if page >= pagination.TotalPages {
				break
			}
		}

		filename := fmt.Sprintf("riwayat-stok-%s.xlsx", time.Now().Format("20060102-150405"))
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
		c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
		if err := file.Write(c.Writer); err != nil {
			respondError(c, err)
		}
	}
}

func LedgerBalanceHandler() gin.HandlerFunc {
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
		balance, err := models.LedgerBalance(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		respondSuccess(c, http.StatusOK, "ok", gin.H{
			"obatId":        obat.ID,
			"namaObat":      obat.NamaObat,
			"stok":          obat.Stok,
			"ledgerBalance": balance,
			"consistent":    obat.Stok == balance,
		})
	}
}
