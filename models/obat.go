package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

// Obat carries a cached Stok balance. The balance is only ever written
// through AdjustStock so it stays equal to the sum of the drug's ledger
// entries; everything else treats it as read-only.
type Obat struct {
	ID                int             `gorm:"primary_key" json:"id"`
	KodeObat          string          `gorm:"size:20;uniqueIndex;not null" json:"kodeObat" binding:"required"`
	NamaObat          string          `gorm:"size:100;not null" json:"namaObat" binding:"required"`
	KategoriId        int             `gorm:"not null" json:"kategoriId"`
	Kategori          *KategoriObat   `gorm:"foreignKey:KategoriId" json:"kategori,omitempty"`
	GolonganId        int             `gorm:"not null" json:"golonganId"`
	Golongan          *GolonganObat   `gorm:"foreignKey:GolonganId" json:"golongan,omitempty"`
	BentukSediaanId   int             `gorm:"not null" json:"bentukSediaanId"`
	BentukSediaan     *BentukSediaan  `gorm:"foreignKey:BentukSediaanId" json:"bentukSediaan,omitempty"`
	SatuanId          int             `gorm:"not null" json:"satuanId"`
	Satuan            *Satuan         `gorm:"foreignKey:SatuanId" json:"satuan,omitempty"`
	SupplierId        *int            `json:"supplierId"`
	Supplier          *Supplier       `gorm:"foreignKey:SupplierId" json:"supplier,omitempty"`
	HargaBeli         decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"hargaBeli"`
	HargaJual         decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"hargaJual"`
	Stok              int             `gorm:"not null;default:0" json:"stok"`
	StokMinimal       int             `gorm:"not null;default:10" json:"stokMinimal"`
	TanggalKadaluarsa *time.Time      `json:"tanggalKadaluarsa"`
	NoBatch           string          `gorm:"size:50" json:"noBatch"`
	Deskripsi         string          `gorm:"type:text" json:"deskripsi"`
	IsActive          *bool           `gorm:"not null;default:true" json:"isActive"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewObat struct {
	KodeObat          string          `json:"kodeObat" binding:"required"`
	NamaObat          string          `json:"namaObat" binding:"required"`
	KategoriId        int             `json:"kategoriId" binding:"required"`
	GolonganId        int             `json:"golonganId" binding:"required"`
	BentukSediaanId   int             `json:"bentukSediaanId" binding:"required"`
	SatuanId          int             `json:"satuanId" binding:"required"`
	SupplierId        *int            `json:"supplierId"`
	HargaBeli         decimal.Decimal `json:"hargaBeli"`
	HargaJual         decimal.Decimal `json:"hargaJual"`
	StokMinimal       *int            `json:"stokMinimal"`
	TanggalKadaluarsa *time.Time      `json:"tanggalKadaluarsa"`
	NoBatch           string          `json:"noBatch"`
	Deskripsi         string          `json:"deskripsi"`
	IsActive          *bool           `json:"isActive"`
}

func validateObatInput(ctx context.Context, input *NewObat) error {
	if err := utils.ValidateResourceId[KategoriObat](ctx, input.KategoriId); err != nil {
		return utils.NewValidationError("kategori with ID %d not found", input.KategoriId)
	}
	if err := utils.ValidateResourceId[GolonganObat](ctx, input.GolonganId); err != nil {
		return utils.NewValidationError("golongan with ID %d not found", input.GolonganId)
	}
	if err := utils.ValidateResourceId[BentukSediaan](ctx, input.BentukSediaanId); err != nil {
		return utils.NewValidationError("bentuk sediaan with ID %d not found", input.BentukSediaanId)
	}
	if err := utils.ValidateResourceId[Satuan](ctx, input.SatuanId); err != nil {
		return utils.NewValidationError("satuan with ID %d not found", input.SatuanId)
	}
	if input.SupplierId != nil {
		if err := utils.ValidateResourceId[Supplier](ctx, *input.SupplierId); err != nil {
			return utils.NewValidationError("supplier with ID %d not found", *input.SupplierId)
		}
	}
	if input.HargaBeli.IsNegative() || input.HargaJual.IsNegative() {
		return utils.NewValidationError("harga must not be negative")
	}
	if input.StokMinimal != nil && *input.StokMinimal < 0 {
		return utils.NewValidationError("stokMinimal must not be negative")
	}
	return nil
}

func CreateObat(ctx context.Context, input *NewObat) (*Obat, error) {
	if err := validateObatInput(ctx, input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Obat](ctx, "kode_obat", input.KodeObat, 0); err != nil {
		return nil, err
	}

	obat := &Obat{
		KodeObat:          input.KodeObat,
		NamaObat:          input.NamaObat,
		KategoriId:        input.KategoriId,
		GolonganId:        input.GolonganId,
		BentukSediaanId:   input.BentukSediaanId,
		SatuanId:          input.SatuanId,
		SupplierId:        input.SupplierId,
		HargaBeli:         input.HargaBeli,
		HargaJual:         input.HargaJual,
		Stok:              0,
		StokMinimal:       10,
		TanggalKadaluarsa: input.TanggalKadaluarsa,
		NoBatch:           input.NoBatch,
		Deskripsi:         input.Deskripsi,
		IsActive:          utils.NewTrue(),
	}
	if input.StokMinimal != nil {
		obat.StokMinimal = *input.StokMinimal
	}
	if input.IsActive != nil {
		obat.IsActive = input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Create(obat).Error; err != nil {
		return nil, err
	}
	return obat, nil
}

// UpdateObat never touches Stok; the balance belongs to the ledger.
func UpdateObat(ctx context.Context, id int, input *NewObat) (*Obat, error) {
	if err := validateObatInput(ctx, input); err != nil {
		return nil, err
	}
	if err := utils.ValidateUnique[Obat](ctx, "kode_obat", input.KodeObat, id); err != nil {
		return nil, err
	}

	obat, err := utils.FetchModel[Obat](ctx, id)
	if err != nil {
		return nil, err
	}
	obat.KodeObat = input.KodeObat
	obat.NamaObat = input.NamaObat
	obat.KategoriId = input.KategoriId
	obat.GolonganId = input.GolonganId
	obat.BentukSediaanId = input.BentukSediaanId
	obat.SatuanId = input.SatuanId
	obat.SupplierId = input.SupplierId
	obat.HargaBeli = input.HargaBeli
	obat.HargaJual = input.HargaJual
	obat.TanggalKadaluarsa = input.TanggalKadaluarsa
	obat.NoBatch = input.NoBatch
	obat.Deskripsi = input.Deskripsi
	if input.StokMinimal != nil {
		obat.StokMinimal = *input.StokMinimal
	}
	if input.IsActive != nil {
		obat.IsActive = input.IsActive
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(obat).Error; err != nil {
		return nil, err
	}
	return obat, nil
}

func DeleteObat(ctx context.Context, id int) (*Obat, error) {
	obat, err := utils.FetchModel[Obat](ctx, id)
	if err != nil {
		return nil, err
	}

	historyCount, err := utils.ResourceCountWhere[RiwayatStok](ctx, "obat_id = ?", id)
	if err != nil {
		return nil, err
	}
	if historyCount > 0 {
		return nil, utils.NewConflictError("obat %s sudah punya riwayat stok dan tidak bisa dihapus", obat.NamaObat)
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Delete(obat).Error; err != nil {
		return nil, err
	}
	return obat, nil
}

func FetchObat(ctx context.Context, id int) (*Obat, error) {
	return utils.FetchModel[Obat](ctx, id, "Kategori", "Golongan", "BentukSediaan", "Satuan")
}

type ObatListParams struct {
	ListParams
	KategoriId int
	LowStock   bool
	Expired    bool
}

func ListObat(ctx context.Context, params ObatListParams) ([]*Obat, *Pagination, error) {
	params.Normalize("nama_obat ASC")

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Obat{}).
		Preload("Kategori").Preload("Golongan").Preload("BentukSediaan").Preload("Satuan")
	if params.Search != "" {
		pattern := "%" + params.Search + "%"
		dbCtx = dbCtx.Where("nama_obat LIKE ? OR kode_obat LIKE ?", pattern, pattern)
	}
	if params.KategoriId > 0 {
		dbCtx = dbCtx.Where("kategori_id = ?", params.KategoriId)
	}
	if params.LowStock {
		dbCtx = dbCtx.Where("stok <= stok_minimal")
	}
	if params.Expired {
		dbCtx = dbCtx.Where("tanggal_kadaluarsa IS NOT NULL AND tanggal_kadaluarsa < ?", time.Now())
	}

	var obat []*Obat
	pagination, err := paginate(dbCtx, params.ListParams, &obat)
	if err != nil {
		return nil, nil, err
	}
	return obat, pagination, nil
}
