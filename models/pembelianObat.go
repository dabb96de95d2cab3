package models

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

type PembelianObat struct {
	ID               int                   `gorm:"primary_key" json:"id"`
	NoFaktur         string                `gorm:"size:30;uniqueIndex;not null" json:"noFaktur"`
	TanggalPembelian time.Time             `gorm:"not null;index" json:"tanggalPembelian"`
	SupplierId       int                   `gorm:"not null" json:"supplierId"`
	Supplier         *Supplier             `json:"supplier,omitempty"`
	PegawaiId        int                   `gorm:"not null" json:"pegawaiId"`
	Pegawai          *Pegawai              `json:"pegawai,omitempty"`
	TotalHarga       decimal.Decimal       `gorm:"type:decimal(15,2);not null" json:"totalHarga"`
	Status           string                `gorm:"size:20;not null;default:pending" json:"status"`
	Keterangan       string                `gorm:"type:text" json:"keterangan"`
	Details          []DetailPembelianObat `gorm:"foreignKey:PembelianObatId" json:"details"`
	CreatedAt        time.Time             `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time             `gorm:"autoUpdateTime" json:"updated_at"`
}

type DetailPembelianObat struct {
	ID                int             `gorm:"primary_key" json:"id"`
	PembelianObatId   int             `gorm:"not null;index" json:"pembelianObatId"`
	ObatId            int             `gorm:"not null" json:"obatId"`
	Obat              *Obat           `json:"obat,omitempty"`
	Qty               int             `gorm:"not null" json:"qty"`
	HargaBeli         decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"hargaBeli"`
	Subtotal          decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"subtotal"`
	TanggalKadaluarsa *time.Time      `json:"tanggalKadaluarsa"`
	NoBatch           string          `gorm:"size:50" json:"noBatch"`
	CreatedAt         time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

type NewDetailPembelianObat struct {
	ObatId            int              `json:"obatId" binding:"required"`
	Qty               int              `json:"qty" binding:"required"`
	HargaBeli         *decimal.Decimal `json:"hargaBeli"`
	TanggalKadaluarsa *time.Time       `json:"tanggalKadaluarsa"`
	NoBatch           string           `json:"noBatch"`
}

type NewPembelianObat struct {
	TanggalPembelian *time.Time               `json:"tanggalPembelian"`
	SupplierId       int                      `json:"supplierId" binding:"required"`
	PegawaiId        int                      `json:"pegawaiId"`
	Status           string                   `json:"status"`
	Keterangan       string                   `json:"keterangan"`
	Details          []NewDetailPembelianObat `json:"details" binding:"required,min=1,dive"`
}

type UpdatePembelianObatInput struct {
	SupplierId *int    `json:"supplierId"`
	Status     *string `json:"status"`
	Keterangan *string `json:"keterangan"`
}

func generateNoFakturPembelian() string {
	return fmt.Sprintf("PO-%d", fakturMillis())
}

func validatePembelianInput(ctx context.Context, input *NewPembelianObat) error {
	if len(input.Details) == 0 {
		return utils.NewValidationError("pembelian requires at least one detail line")
	}
	if err := utils.ValidateResourceId[Supplier](ctx, input.SupplierId); err != nil {
		return utils.NewValidationError("supplier with ID %d not found", input.SupplierId)
	}
	if input.Status != "" && !validTransaksiStatus(input.Status) {
		return utils.NewValidationError("unknown status: %s", input.Status)
	}
	for i, line := range input.Details {
		if line.Qty <= 0 {
			return utils.NewValidationError("details[%d]: qty must be positive, got %d", i, line.Qty)
		}
		if line.HargaBeli != nil && line.HargaBeli.IsNegative() {
			return utils.NewValidationError("details[%d]: hargaBeli must not be negative", i)
		}
	}
	return nil
}

// CreatePembelianObat posts a purchase document: header, lines, stock
// additions and the drug master updates (last purchase cost, batch, expiry)
// commit together or not at all.
func CreatePembelianObat(ctx context.Context, input *NewPembelianObat) (*PembelianObat, error) {
	if err := validatePembelianInput(ctx, input); err != nil {
		return nil, err
	}
	pegawaiId, err := resolvePegawaiId(ctx, input.PegawaiId)
	if err != nil {
		return nil, err
	}

	for _, line := range input.Details {
		release := utils.ObatPostingLock(ctx, line.ObatId, "pembelianObat.go", "CreatePembelianObat")
		defer release()
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	createdBy := &userId
	if userId == 0 {
		createdBy = nil
	}

	tanggal := time.Now()
	if input.TanggalPembelian != nil {
		tanggal = *input.TanggalPembelian
	}
	status := input.Status
	if status == "" {
		status = TransaksiStatusPending
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()

	pembelian := &PembelianObat{
		NoFaktur:         generateNoFakturPembelian(),
		TanggalPembelian: tanggal,
		SupplierId:       input.SupplierId,
		PegawaiId:        pegawaiId,
		Status:           status,
		Keterangan:       input.Keterangan,
	}
	if err := tx.Create(pembelian).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	totalHarga := decimal.Zero
	for i, line := range input.Details {
		var obat Obat
		if err := tx.First(&obat, line.ObatId).Error; err != nil {
			tx.Rollback()
			return nil, utils.NewValidationError("details[%d]: obat with ID %d not found", i, line.ObatId)
		}

		hargaBeli := obat.HargaBeli
		if line.HargaBeli != nil {
			hargaBeli = *line.HargaBeli
		}
		subtotal := hargaBeli.Mul(decimal.NewFromInt(int64(line.Qty)))

		detail := &DetailPembelianObat{
			PembelianObatId:   pembelian.ID,
			ObatId:            line.ObatId,
			Qty:               line.Qty,
			HargaBeli:         hargaBeli,
			Subtotal:          subtotal,
			TanggalKadaluarsa: line.TanggalKadaluarsa,
			NoBatch:           line.NoBatch,
		}
		if err := tx.Create(detail).Error; err != nil {
			tx.Rollback()
			return nil, err
		}

		_, err := AdjustStock(tx, StockAdjustment{
			ObatId:        line.ObatId,
			JenisMutasi:   MutasiMasuk,
			Qty:           line.Qty,
			ReferensiTipe: ReferensiPembelian,
			ReferensiId:   &pembelian.ID,
			Keterangan:    fmt.Sprintf("Pembelian %s", pembelian.NoFaktur),
			TanggalMutasi: tanggal,
			CreatedBy:     createdBy,
		})
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		// Last purchase wins on the drug master.
		updates := map[string]interface{}{"harga_beli": hargaBeli}
		if line.TanggalKadaluarsa != nil {
			updates["tanggal_kadaluarsa"] = line.TanggalKadaluarsa
		}
		if line.NoBatch != "" {
			updates["no_batch"] = line.NoBatch
		}
		if err := tx.Model(&Obat{}).Where("id = ?", line.ObatId).Updates(updates).Error; err != nil {
			tx.Rollback()
			return nil, err
		}

		pembelian.Details = append(pembelian.Details, *detail)
		totalHarga = totalHarga.Add(subtotal)
	}

	pembelian.TotalHarga = totalHarga
	if err := tx.Model(&PembelianObat{}).Where("id = ?", pembelian.ID).
		Update("total_harga", totalHarga).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return pembelian, nil
}

func UpdatePembelianObat(ctx context.Context, id int, input *UpdatePembelianObatInput) (*PembelianObat, error) {
	pembelian, err := utils.FetchModel[PembelianObat](ctx, id, "Details")
	if err != nil {
		return nil, err
	}

	if input.SupplierId != nil {
		if err := utils.ValidateResourceId[Supplier](ctx, *input.SupplierId); err != nil {
			return nil, utils.NewValidationError("supplier with ID %d not found", *input.SupplierId)
		}
		pembelian.SupplierId = *input.SupplierId
	}
	if input.Status != nil {
		if !validTransaksiStatus(*input.Status) {
			return nil, utils.NewValidationError("unknown status: %s", *input.Status)
		}
		pembelian.Status = *input.Status
	}
	if input.Keterangan != nil {
		pembelian.Keterangan = *input.Keterangan
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(pembelian).Error; err != nil {
		return nil, err
	}
	return pembelian, nil
}

// DeletePembelianObat reverses a purchase by appending compensating ledger
// entries that take the received stock back out. If the stock has already
// been sold on, the reversal hits the non-negative floor and the whole
// delete aborts with an insufficient stock error.
func DeletePembelianObat(ctx context.Context, id int) (*PembelianObat, error) {
	pembelian, err := utils.FetchModel[PembelianObat](ctx, id, "Details")
	if err != nil {
		return nil, err
	}

	for _, detail := range pembelian.Details {
		release := utils.ObatPostingLock(ctx, detail.ObatId, "pembelianObat.go", "DeletePembelianObat")
		defer release()
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	createdBy := &userId
	if userId == 0 {
		createdBy = nil
	}

	db := config.GetDB()
	tx := db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return nil, tx.Error
	}
	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback().Error
			panic(r)
		}
	}()

	err = ReverseStockForReference(tx, ReferensiPembelian, pembelian.ID,
		fmt.Sprintf("Pembatalan pembelian %s", pembelian.NoFaktur), createdBy)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Where("pembelian_obat_id = ?", pembelian.ID).Delete(&DetailPembelianObat{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&PembelianObat{}, pembelian.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return pembelian, nil
}

func FetchPembelianObat(ctx context.Context, id int) (*PembelianObat, error) {
	return utils.FetchModel[PembelianObat](ctx, id,
		"Details", "Details.Obat", "Supplier", "Pegawai")
}

type PembelianListParams struct {
	ListParams
	Status     string
	SupplierId int
}

func ListPembelianObat(ctx context.Context, params PembelianListParams) ([]*PembelianObat, *Pagination, error) {
	params.Normalize("tanggal_pembelian DESC, id DESC")

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&PembelianObat{}).
		Preload("Details").Preload("Details.Obat").Preload("Supplier").Preload("Pegawai")
	if params.Search != "" {
		dbCtx = dbCtx.Where("no_faktur LIKE ?", "%"+params.Search+"%")
	}
	if params.Status != "" {
		if !validTransaksiStatus(params.Status) {
			return nil, nil, utils.NewValidationError("unknown status: %s", params.Status)
		}
		dbCtx = dbCtx.Where("status = ?", params.Status)
	}
	if params.SupplierId > 0 {
		dbCtx = dbCtx.Where("supplier_id = ?", params.SupplierId)
	}
	if params.DateFrom != nil {
		dbCtx = dbCtx.Where("tanggal_pembelian >= ?", params.DateFrom)
	}
	if params.DateTo != nil {
		dbCtx = dbCtx.Where("tanggal_pembelian <= ?", params.DateTo)
	}

	var pembelian []*PembelianObat
	pagination, err := paginate(dbCtx, params.ListParams, &pembelian)
	if err != nil {
		return nil, nil, err
	}
	return pembelian, pagination, nil
}
