package models

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

type Transaksi struct {
	ID               int               `gorm:"primary_key" json:"id"`
	NoFaktur         string            `gorm:"size:30;uniqueIndex;not null" json:"noFaktur"`
	TanggalTransaksi time.Time         `gorm:"not null;index" json:"tanggalTransaksi"`
	CustomerId       *int              `json:"customerId"`
	Customer         *Customer         `json:"customer,omitempty"`
	PegawaiId        int               `gorm:"not null" json:"pegawaiId"`
	Pegawai          *Pegawai          `json:"pegawai,omitempty"`
	TotalHarga       decimal.Decimal   `gorm:"type:decimal(15,2);not null" json:"totalHarga"`
	Diskon           decimal.Decimal   `gorm:"type:decimal(15,2);not null;default:0" json:"diskon"`
	Pajak            decimal.Decimal   `gorm:"type:decimal(15,2);not null;default:0" json:"pajak"`
	GrandTotal       decimal.Decimal   `gorm:"type:decimal(15,2);not null" json:"grandTotal"`
	MetodePembayaran string            `gorm:"size:20;not null;default:Cash" json:"metodePembayaran"`
	Status           string            `gorm:"size:20;not null;default:pending" json:"status"`
	Keterangan       string            `gorm:"type:text" json:"keterangan"`
	Details          []DetailTransaksi `gorm:"foreignKey:TransaksiId" json:"details"`
	CreatedAt        time.Time         `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"autoUpdateTime" json:"updated_at"`
}

type DetailTransaksi struct {
	ID          int             `gorm:"primary_key" json:"id"`
	TransaksiId int             `gorm:"not null;index" json:"transaksiId"`
	ObatId      int             `gorm:"not null" json:"obatId"`
	Obat        *Obat           `json:"obat,omitempty"`
	Qty         int             `gorm:"not null" json:"qty"`
	HargaSatuan decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"hargaSatuan"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(15,2);not null" json:"subtotal"`
	CreatedAt   time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

const (
	TransaksiStatusPending   = "pending"
	TransaksiStatusCompleted = "completed"
	TransaksiStatusCancelled = "cancelled"
)

var metodePembayaranValues = []string{"Cash", "Transfer", "Debit", "Kredit", "QRIS"}

func validMetodePembayaran(metode string) bool {
	for _, v := range metodePembayaranValues {
		if v == metode {
			return true
		}
	}
	return false
}

func validTransaksiStatus(status string) bool {
	switch status {
	case TransaksiStatusPending, TransaksiStatusCompleted, TransaksiStatusCancelled:
		return true
	}
	return false
}

type NewDetailTransaksi struct {
	ObatId      int              `json:"obatId" binding:"required"`
	Qty         int              `json:"qty" binding:"required"`
	HargaSatuan *decimal.Decimal `json:"hargaSatuan"`
}

type NewTransaksi struct {
	TanggalTransaksi *time.Time           `json:"tanggalTransaksi"`
	CustomerId       *int                 `json:"customerId"`
	PegawaiId        int                  `json:"pegawaiId"`
	Diskon           decimal.Decimal      `json:"diskon"`
	Pajak            decimal.Decimal      `json:"pajak"`
	MetodePembayaran string               `json:"metodePembayaran"`
	Status           string               `json:"status"`
	Keterangan       string               `json:"keterangan"`
	Details          []NewDetailTransaksi `json:"details" binding:"required,min=1,dive"`
}

// UpdateTransaksiInput only covers header fields. Lines are immutable once
// posted; fixing a wrong line means deleting the document and re-entering it.
type UpdateTransaksiInput struct {
	CustomerId       *int    `json:"customerId"`
	MetodePembayaran *string `json:"metodePembayaran"`
	Status           *string `json:"status"`
	Keterangan       *string `json:"keterangan"`
}

// fakturMillis returns a strictly increasing millisecond stamp so two
// documents posted within the same millisecond cannot collide on their
// generated number.
var lastFakturMillis int64

func fakturMillis() int64 {
	for {
		now := time.Now().UnixMilli()
		last := atomic.LoadInt64(&lastFakturMillis)
		if now <= last {
			now = last + 1
		}
		if atomic.CompareAndSwapInt64(&lastFakturMillis, last, now) {
			return now
		}
	}
}

func generateNoFaktur() string {
	return fmt.Sprintf("TRX-%d", fakturMillis())
}

// resolvePegawaiId defaults the employee on a document to the record linked
// to the calling user when the client does not send one.
func resolvePegawaiId(ctx context.Context, pegawaiId int) (int, error) {
	if pegawaiId > 0 {
		if err := utils.ValidateResourceId[Pegawai](ctx, pegawaiId); err != nil {
			return 0, utils.NewValidationError("pegawai with ID %d not found", pegawaiId)
		}
		return pegawaiId, nil
	}
	if ctxPegawaiId, ok := utils.GetPegawaiIdFromContext(ctx); ok && ctxPegawaiId > 0 {
		return ctxPegawaiId, nil
	}
	userId, ok := utils.GetUserIdFromContext(ctx)
	if !ok {
		return 0, utils.NewValidationError("pegawaiId is required")
	}
	pegawai, err := FindPegawaiByUserId(ctx, userId)
	if err != nil {
		return 0, utils.NewValidationError("no pegawai record linked to the current user; pegawaiId is required")
	}
	return pegawai.ID, nil
}

func validateTransaksiInput(ctx context.Context, input *NewTransaksi) error {
	if len(input.Details) == 0 {
		return utils.NewValidationError("transaksi requires at least one detail line")
	}
	if input.MetodePembayaran != "" && !validMetodePembayaran(input.MetodePembayaran) {
		return utils.NewValidationError("unknown metodePembayaran: %s", input.MetodePembayaran)
	}
	if input.Status != "" && !validTransaksiStatus(input.Status) {
		return utils.NewValidationError("unknown status: %s", input.Status)
	}
	if input.Diskon.IsNegative() {
		return utils.NewValidationError("diskon must not be negative")
	}
	if input.Pajak.IsNegative() {
		return utils.NewValidationError("pajak must not be negative")
	}
	if input.CustomerId != nil {
		if err := utils.ValidateResourceId[Customer](ctx, *input.CustomerId); err != nil {
			return utils.NewValidationError("customer with ID %d not found", *input.CustomerId)
		}
	}
	for i, line := range input.Details {
		if line.Qty <= 0 {
			return utils.NewValidationError("details[%d]: qty must be positive, got %d", i, line.Qty)
		}
		if line.HargaSatuan != nil && line.HargaSatuan.IsNegative() {
			return utils.NewValidationError("details[%d]: hargaSatuan must not be negative", i)
		}
	}
	return nil
}

// CreateTransaksi posts a sales document: the header, every line, the per
// line stock deductions and their ledger entries all commit together or not
// at all. Any line that would drive a balance negative aborts the whole
// document.
func CreateTransaksi(ctx context.Context, input *NewTransaksi) (*Transaksi, error) {
	if err := validateTransaksiInput(ctx, input); err != nil {
		return nil, err
	}
	pegawaiId, err := resolvePegawaiId(ctx, input.PegawaiId)
	if err != nil {
		return nil, err
	}

	// Best-effort cross-instance serialization per drug. Correctness does
	// not depend on these; the row lock in AdjustStock does.
	for _, obatId := range utils.UniqueSlice(detailObatIds(input.Details)) {
		release := utils.ObatPostingLock(ctx, obatId, "transaksi.go", "CreateTransaksi")
		defer release()
	}

	userId, _ := utils.GetUserIdFromContext(ctx)
	createdBy := &userId
	if userId == 0 {
		createdBy = nil
	}

	tanggal := time.Now()
	if input.TanggalTransaksi != nil {
		tanggal = *input.TanggalTransaksi
	}
	metode := input.MetodePembayaran
	if metode == "" {
		metode = "Cash"
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

	transaksi := &Transaksi{
		NoFaktur:         generateNoFaktur(),
		TanggalTransaksi: tanggal,
		CustomerId:       input.CustomerId,
		PegawaiId:        pegawaiId,
		Diskon:           input.Diskon,
		Pajak:            input.Pajak,
		MetodePembayaran: metode,
		Status:           status,
		Keterangan:       input.Keterangan,
	}
	if err := tx.Create(transaksi).Error; err != nil {
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

		hargaSatuan := utils.DereferencePtr(line.HargaSatuan, obat.HargaJual)
		subtotal := hargaSatuan.Mul(decimal.NewFromInt(int64(line.Qty)))

		detail := &DetailTransaksi{
			TransaksiId: transaksi.ID,
			ObatId:      line.ObatId,
			Qty:         line.Qty,
			HargaSatuan: hargaSatuan,
			Subtotal:    subtotal,
		}
		if err := tx.Create(detail).Error; err != nil {
			tx.Rollback()
			return nil, err
		}

		_, err := AdjustStock(tx, StockAdjustment{
			ObatId:        line.ObatId,
			JenisMutasi:   MutasiKeluar,
			Qty:           line.Qty,
			ReferensiTipe: ReferensiPenjualan,
			ReferensiId:   &transaksi.ID,
			Keterangan:    fmt.Sprintf("Penjualan %s", transaksi.NoFaktur),
			TanggalMutasi: tanggal,
			CreatedBy:     createdBy,
		})
		if err != nil {
			tx.Rollback()
			return nil, err
		}

		transaksi.Details = append(transaksi.Details, *detail)
		totalHarga = totalHarga.Add(subtotal)
	}

	if input.Diskon.GreaterThan(totalHarga) {
		tx.Rollback()
		return nil, utils.NewValidationError("diskon exceeds total")
	}
	transaksi.TotalHarga = totalHarga
	transaksi.GrandTotal = totalHarga.Sub(input.Diskon).Add(input.Pajak)
	if err := tx.Model(&Transaksi{}).Where("id = ?", transaksi.ID).Updates(map[string]interface{}{
		"total_harga": transaksi.TotalHarga,
		"grand_total": transaksi.GrandTotal,
	}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return transaksi, nil
}

func detailObatIds(details []NewDetailTransaksi) []int {
	ids := make([]int, 0, len(details))
	for _, d := range details {
		ids = append(ids, d.ObatId)
	}
	return ids
}

// UpdateTransaksi edits header fields only; stock and totals are untouched.
func UpdateTransaksi(ctx context.Context, id int, input *UpdateTransaksiInput) (*Transaksi, error) {
	transaksi, err := utils.FetchModel[Transaksi](ctx, id, "Details")
	if err != nil {
		return nil, err
	}

	if input.MetodePembayaran != nil {
		if !validMetodePembayaran(*input.MetodePembayaran) {
			return nil, utils.NewValidationError("unknown metodePembayaran: %s", *input.MetodePembayaran)
		}
		transaksi.MetodePembayaran = *input.MetodePembayaran
	}
	if input.Status != nil {
		if !validTransaksiStatus(*input.Status) {
			return nil, utils.NewValidationError("unknown status: %s", *input.Status)
		}
		transaksi.Status = *input.Status
	}
	if input.CustomerId != nil {
		if err := utils.ValidateResourceId[Customer](ctx, *input.CustomerId); err != nil {
			return nil, utils.NewValidationError("customer with ID %d not found", *input.CustomerId)
		}
		transaksi.CustomerId = input.CustomerId
	}
	if input.Keterangan != nil {
		transaksi.Keterangan = *input.Keterangan
	}

	db := config.GetDB()
	if err := db.WithContext(ctx).Save(transaksi).Error; err != nil {
		return nil, err
	}
	return transaksi, nil
}

// DeleteTransaksi removes a sales document and appends compensating ledger
// entries that return the sold stock. Header, lines and reversal commit
// atomically; a second delete of the same document returns not found.
func DeleteTransaksi(ctx context.Context, id int) (*Transaksi, error) {
	transaksi, err := utils.FetchModel[Transaksi](ctx, id, "Details")
	if err != nil {
		return nil, err
	}

	for _, detail := range transaksi.Details {
		release := utils.ObatPostingLock(ctx, detail.ObatId, "transaksi.go", "DeleteTransaksi")
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

	err = ReverseStockForReference(tx, ReferensiPenjualan, transaksi.ID,
		fmt.Sprintf("Pembatalan penjualan %s", transaksi.NoFaktur), createdBy)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Where("transaksi_id = ?", transaksi.ID).Delete(&DetailTransaksi{}).Error; err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Delete(&Transaksi{}, transaksi.ID).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return transaksi, nil
}

func FetchTransaksi(ctx context.Context, id int) (*Transaksi, error) {
	return utils.FetchModel[Transaksi](ctx, id,
		"Details", "Details.Obat", "Customer", "Pegawai")
}

type TransaksiListParams struct {
	ListParams
	Status     string
	CustomerId int
	PegawaiId  int
}

func ListTransaksi(ctx context.Context, params TransaksiListParams) ([]*Transaksi, *Pagination, error) {
	params.Normalize("tanggal_transaksi DESC, id DESC")

	db := config.GetDB()
	dbCtx := db.WithContext(ctx).Model(&Transaksi{}).
		Preload("Details").Preload("Details.Obat").Preload("Customer").Preload("Pegawai")
	if params.Search != "" {
		dbCtx = dbCtx.Where("no_faktur LIKE ?", "%"+params.Search+"%")
	}
	if params.Status != "" {
		if !validTransaksiStatus(params.Status) {
			return nil, nil, utils.NewValidationError("unknown status: %s", params.Status)
		}
		dbCtx = dbCtx.Where("status = ?", params.Status)
	}
	if params.CustomerId > 0 {
		dbCtx = dbCtx.Where("customer_id = ?", params.CustomerId)
	}
	if params.PegawaiId > 0 {
		dbCtx = dbCtx.Where("pegawai_id = ?", params.PegawaiId)
	}
	if params.DateFrom != nil {
		dbCtx = dbCtx.Where("tanggal_transaksi >= ?", params.DateFrom)
	}
	if params.DateTo != nil {
		dbCtx = dbCtx.Where("tanggal_transaksi <= ?", params.DateTo)
	}

	var transaksi []*Transaksi
	pagination, err := paginate(dbCtx, params.ListParams, &transaksi)
	if err != nil {
		return nil, nil, err
	}
	return transaksi, pagination, nil
}
