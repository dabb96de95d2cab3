package models

import (
	"context"
	"time"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

// RiwayatStok is the append-only stock ledger. Rows are only inserted by
// adjustStock and are never updated or deleted; reversals append
// compensating rows instead.
type RiwayatStok struct {
	ID            int       `gorm:"primary_key" json:"id"`
	ObatId        int       `gorm:"not null;index" json:"obatId"`
	Obat          *Obat     `json:"obat,omitempty"`
	JenisMutasi   string    `gorm:"size:20;not null;index" json:"jenisMutasi"`
	QtyMasuk      int       `gorm:"not null;default:0" json:"qtyMasuk"`
	QtyKeluar     int       `gorm:"not null;default:0" json:"qtyKeluar"`
	StokSebelum   int       `gorm:"not null" json:"stokSebelum"`
	StokSesudah   int       `gorm:"not null" json:"stokSesudah"`
	ReferensiTipe string    `gorm:"size:20;not null;index" json:"referensiTipe"`
	ReferensiId   *int      `gorm:"index" json:"referensiId"`
	Keterangan    string    `gorm:"type:text" json:"keterangan"`
	TanggalMutasi time.Time `gorm:"not null;index" json:"tanggalMutasi"`
	CreatedBy     *int      `json:"createdBy"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
}

const (
	MutasiMasuk      = "masuk"
	MutasiKeluar     = "keluar"
	MutasiAdjustment = "adjustment"
	MutasiExpired    = "expired"
	MutasiRusak      = "rusak"
	MutasiRetur      = "retur"
)

const (
	ReferensiPembelian  = "pembelian"
	ReferensiPenjualan  = "penjualan"
	ReferensiAdjustment = "adjustment"
	ReferensiLainnya    = "lainnya"
)

func ValidJenisMutasi(jenis string) bool {
	switch jenis {
	case MutasiMasuk, MutasiKeluar, MutasiAdjustment, MutasiExpired, MutasiRusak, MutasiRetur:
		return true
	}
	return false
}

func ValidReferensiTipe(tipe string) bool {
	switch tipe {
	case ReferensiPembelian, ReferensiPenjualan, ReferensiAdjustment, ReferensiLainnya:
		return true
	}
	return false
}

type RiwayatStokListParams struct {
	ListParams
	ObatId        int
	JenisMutasi   string
	ReferensiTipe string
}

func ListRiwayatStok(ctx context.Context, params RiwayatStokListParams) ([]*RiwayatStok, *Pagination, error) {
	params.Normalize("tanggal_mutasi DESC, id DESC")

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&RiwayatStok{}).Preload("Obat")
	if params.ObatId > 0 {
		dbCtx = dbCtx.Where("obat_id = ?", params.ObatId)
	}
	if params.JenisMutasi != "" {
		if !ValidJenisMutasi(params.JenisMutasi) {
			return nil, nil, utils.NewValidationError("unknown jenisMutasi: %s", params.JenisMutasi)
		}
		dbCtx = dbCtx.Where("jenis_mutasi = ?", params.JenisMutasi)
	}
	if params.ReferensiTipe != "" {
		if !ValidReferensiTipe(params.ReferensiTipe) {
			return nil, nil, utils.NewValidationError("unknown referensiTipe: %s", params.ReferensiTipe)
		}
		dbCtx = dbCtx.Where("referensi_tipe = ?", params.ReferensiTipe)
	}
	if params.DateFrom != nil {
		dbCtx = dbCtx.Where("tanggal_mutasi >= ?", params.DateFrom)
	}
	if params.DateTo != nil {
		dbCtx = dbCtx.Where("tanggal_mutasi <= ?", params.DateTo)
	}

	var riwayat []*RiwayatStok
	pagination, err := paginate(dbCtx, params.ListParams, &riwayat)
	if err != nil {
		return nil, nil, err
	}
	return riwayat, pagination, nil
}

func FetchRiwayatStok(ctx context.Context, id int) (*RiwayatStok, error) {
	return utils.FetchModel[RiwayatStok](ctx, id, "Obat")
}

// LedgerBalance recomputes a drug's balance from its history alone,
// independent of the cached Obat.Stok column.
func LedgerBalance(ctx context.Context, obatId int) (int, error) {
	db := config.GetDB()

	var balance *int
	err := db.WithContext(ctx).Model(&RiwayatStok{}).
		Where("obat_id = ?", obatId).
		Select("SUM(qty_masuk) - SUM(qty_keluar)").
		Scan(&balance).Error
	if err != nil {
		return 0, err
	}
	if balance == nil {
		return 0, nil
	}
	return *balance, nil
}
