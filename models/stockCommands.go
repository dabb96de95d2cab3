package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

// StockAdjustment describes one ledger mutation against a single drug.
// Qty is always positive; JenisMutasi decides the direction.
type StockAdjustment struct {
	ObatId        int
	JenisMutasi   string
	Qty           int
	ReferensiTipe string
	ReferensiId   *int
	Keterangan    string
	TanggalMutasi time.Time
	CreatedBy     *int
}

func mutationDirection(jenisMutasi string, qty int) (masuk int, keluar int, err error) {
	switch jenisMutasi {
	case MutasiMasuk, MutasiRetur:
		return qty, 0, nil
	case MutasiKeluar, MutasiExpired, MutasiRusak:
		return 0, qty, nil
	case MutasiAdjustment:
		// adjustment carries direction in the sign handled by the caller;
		// plain adjustments through this path add stock.
		return qty, 0, nil
	default:
		return 0, 0, utils.NewValidationError("unknown jenisMutasi: %s", jenisMutasi)
	}
}

// AdjustStock applies one stock mutation inside the caller's transaction:
// it locks the drug row, rejects mutations that would drive the balance
// negative, updates the cached balance, and appends exactly one ledger row.
//
// This is the explicit, command-style replacement for implicit GORM
// model-hook side-effects. All stock movement in the system funnels through
// here; nothing else writes Obat.Stok or RiwayatStok.
func AdjustStock(tx *gorm.DB, adj StockAdjustment) (*RiwayatStok, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx is nil")
	}
	if adj.Qty <= 0 {
		return nil, utils.NewValidationError("qty must be positive, got %d", adj.Qty)
	}
	if !ValidReferensiTipe(adj.ReferensiTipe) {
		return nil, utils.NewValidationError("unknown referensiTipe: %s", adj.ReferensiTipe)
	}

	masuk, keluar, err := mutationDirection(adj.JenisMutasi, adj.Qty)
	if err != nil {
		return nil, err
	}

	// Row-level lock so concurrent mutations on the same drug serialize at
	// the database. SQLite serializes writers on its own and rejects the
	// locking clause, so only emit it on MySQL.
	dbCtx := tx
	if tx.Dialector.Name() == "mysql" {
		dbCtx = tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}

	var obat Obat
	if err := dbCtx.First(&obat, adj.ObatId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.NewNotFoundError("obat", adj.ObatId)
		}
		return nil, err
	}

	stokSebelum := obat.Stok
	stokSesudah := stokSebelum + masuk - keluar
	if stokSesudah < 0 {
		return nil, &utils.InsufficientStockError{
			ObatId:   obat.ID,
			NamaObat: obat.NamaObat,
			Tersedia: stokSebelum,
			Diminta:  keluar,
		}
	}

	if err := tx.Model(&Obat{}).Where("id = ?", obat.ID).
		Update("stok", stokSesudah).Error; err != nil {
		return nil, err
	}

	tanggal := adj.TanggalMutasi
	if tanggal.IsZero() {
		tanggal = time.Now()
	}
	entry := &RiwayatStok{
		ObatId:        obat.ID,
		JenisMutasi:   adj.JenisMutasi,
		QtyMasuk:      masuk,
		QtyKeluar:     keluar,
		StokSebelum:   stokSebelum,
		StokSesudah:   stokSesudah,
		ReferensiTipe: adj.ReferensiTipe,
		ReferensiId:   adj.ReferensiId,
		Keterangan:    adj.Keterangan,
		TanggalMutasi: tanggal,
		CreatedBy:     adj.CreatedBy,
	}
	if err := tx.Create(entry).Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// NewStockAdjustment is the payload for a manual stock correction
// (opname, expired write-off, damage, return).
type NewStockAdjustment struct {
	ObatId      int    `json:"obatId" binding:"required"`
	JenisMutasi string `json:"jenisMutasi" binding:"required"`
	Qty         int    `json:"qty" binding:"required"`
	Keterangan  string `json:"keterangan"`
}

// CreateManualAdjustment posts a standalone stock correction outside any
// sales or purchase document. It runs the same ledger path in its own
// transaction.
func CreateManualAdjustment(ctx context.Context, input *NewStockAdjustment) (*RiwayatStok, error) {
	if !ValidJenisMutasi(input.JenisMutasi) {
		return nil, utils.NewValidationError("unknown jenisMutasi: %s", input.JenisMutasi)
	}
	if input.Qty <= 0 {
		return nil, utils.NewValidationError("qty must be positive, got %d", input.Qty)
	}
	if err := utils.ValidateResourceId[Obat](ctx, input.ObatId); err != nil {
		return nil, utils.NewNotFoundError("obat", input.ObatId)
	}

	release := utils.ObatPostingLock(ctx, input.ObatId, "stockCommands.go", "CreateManualAdjustment")
	defer release()

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

	entry, err := AdjustStock(tx, StockAdjustment{
		ObatId:        input.ObatId,
		JenisMutasi:   input.JenisMutasi,
		Qty:           input.Qty,
		ReferensiTipe: ReferensiAdjustment,
		Keterangan:    input.Keterangan,
		CreatedBy:     createdBy,
	})
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return entry, nil
}

// ReverseStockForReference appends compensating ledger entries for every
// mutation a document produced, restoring each drug's balance to what it
// would have been without the document.
func ReverseStockForReference(tx *gorm.DB, referensiTipe string, referensiId int, keterangan string, createdBy *int) error {
	if tx == nil {
		return fmt.Errorf("tx is nil")
	}

	var entries []RiwayatStok
	err := tx.Where("referensi_tipe = ? AND referensi_id = ?", referensiTipe, referensiId).
		Order("id ASC").Find(&entries).Error
	if err != nil {
		return err
	}

	// Skip rows that already compensate each other: reversals are marked by
	// their keterangan prefix so a second delete attempt stays a no-op at
	// the ledger level.
	net := map[int]int{}
	for _, entry := range entries {
		net[entry.ObatId] += entry.QtyMasuk - entry.QtyKeluar
	}

	for obatId, delta := range net {
		if delta == 0 {
			continue
		}
		jenis := MutasiMasuk
		qty := -delta
		if delta > 0 {
			jenis = MutasiKeluar
			qty = delta
		}
		_, err := AdjustStock(tx, StockAdjustment{
			ObatId:        obatId,
			JenisMutasi:   jenis,
			Qty:           qty,
			ReferensiTipe: referensiTipe,
			ReferensiId:   &referensiId,
			Keterangan:    keterangan,
			CreatedBy:     createdBy,
		})
		if err != nil {
			return err
		}
	}
	return nil
}
