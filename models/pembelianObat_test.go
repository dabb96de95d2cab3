package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

func TestCreatePembelianObatAddsStock(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-001", 3)

	harga := decimal.NewFromInt(4500)
	expiry := time.Now().AddDate(1, 0, 0)
	pembelian, err := CreatePembelianObat(testCtx(), &NewPembelianObat{
		SupplierId: 1,
		PegawaiId:  pegawaiId,
		Details: []NewDetailPembelianObat{
			{ObatId: obat.ID, Qty: 50, HargaBeli: &harga, TanggalKadaluarsa: &expiry, NoBatch: "B-2026-01"},
		},
	})
	if err != nil {
		t.Fatalf("CreatePembelianObat: %v", err)
	}

	if got := currentStok(t, db, obat.ID); got != 53 {
		t.Errorf("stok = %d, want 53", got)
	}
	if !pembelian.TotalHarga.Equal(decimal.NewFromInt(4500 * 50)) {
		t.Errorf("totalHarga = %s, want 225000", pembelian.TotalHarga)
	}

	// Last purchase wins on the drug master.
	var reloaded Obat
	if err := db.First(&reloaded, obat.ID).Error; err != nil {
		t.Fatalf("reload obat: %v", err)
	}
	if !reloaded.HargaBeli.Equal(harga) {
		t.Errorf("hargaBeli = %s, want %s", reloaded.HargaBeli, harga)
	}
	if reloaded.NoBatch != "B-2026-01" {
		t.Errorf("noBatch = %q, want B-2026-01", reloaded.NoBatch)
	}
	if reloaded.TanggalKadaluarsa == nil {
		t.Error("tanggalKadaluarsa not updated")
	}

	rows := ledgerRows(t, db, obat.ID)
	last := rows[len(rows)-1]
	if last.JenisMutasi != MutasiMasuk || last.QtyMasuk != 50 {
		t.Errorf("purchase ledger row = (%s, masuk=%d), want (masuk, 50)", last.JenisMutasi, last.QtyMasuk)
	}
	if last.ReferensiTipe != ReferensiPembelian || last.ReferensiId == nil || *last.ReferensiId != pembelian.ID {
		t.Errorf("purchase ledger row does not reference the document")
	}
}

func TestDeletePembelianObatReversesStock(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-001", 0)

	pembelian, err := CreatePembelianObat(testCtx(), &NewPembelianObat{
		SupplierId: 1,
		PegawaiId:  pegawaiId,
		Details:    []NewDetailPembelianObat{{ObatId: obat.ID, Qty: 40}},
	})
	if err != nil {
		t.Fatalf("CreatePembelianObat: %v", err)
	}
	if got := currentStok(t, db, obat.ID); got != 40 {
		t.Fatalf("stok = %d, want 40", got)
	}

	if _, err := DeletePembelianObat(testCtx(), pembelian.ID); err != nil {
		t.Fatalf("DeletePembelianObat: %v", err)
	}
	if got := currentStok(t, db, obat.ID); got != 0 {
		t.Errorf("stok = %d, want 0 after reversal", got)
	}
	rows := ledgerRows(t, db, obat.ID)
	if len(rows) != 2 {
		t.Fatalf("ledger rows = %d, want 2 (receipt + reversal)", len(rows))
	}
	if rows[1].JenisMutasi != MutasiKeluar || rows[1].QtyKeluar != 40 {
		t.Errorf("reversal row = (%s, keluar=%d), want (keluar, 40)", rows[1].JenisMutasi, rows[1].QtyKeluar)
	}
}

func TestDeletePembelianObatFailsWhenStockAlreadySold(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-001", 0)

	pembelian, err := CreatePembelianObat(testCtx(), &NewPembelianObat{
		SupplierId: 1,
		PegawaiId:  pegawaiId,
		Details:    []NewDetailPembelianObat{{ObatId: obat.ID, Qty: 10}},
	})
	if err != nil {
		t.Fatalf("CreatePembelianObat: %v", err)
	}

	// Sell most of the received stock on.
	if _, err := CreateTransaksi(testCtx(), newSaleInput(pegawaiId,
		NewDetailTransaksi{ObatId: obat.ID, Qty: 8},
	)); err != nil {
		t.Fatalf("CreateTransaksi: %v", err)
	}

	_, err = DeletePembelianObat(testCtx(), pembelian.ID)
	if !utils.IsInsufficientStockError(err) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	// The purchase document survives and the balance is untouched.
	if _, err := FetchPembelianObat(testCtx(), pembelian.ID); err != nil {
		t.Errorf("document should survive failed delete: %v", err)
	}
	if got := currentStok(t, db, obat.ID); got != 2 {
		t.Errorf("stok = %d, want 2", got)
	}
}

func TestCreatePembelianObatValidation(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-001", 0)

	_, err := CreatePembelianObat(testCtx(), &NewPembelianObat{
		SupplierId: 999,
		PegawaiId:  pegawaiId,
		Details:    []NewDetailPembelianObat{{ObatId: obat.ID, Qty: 10}},
	})
	if !utils.IsValidationError(err) {
		t.Errorf("unknown supplier: expected validation error, got %v", err)
	}

	_, err = CreatePembelianObat(testCtx(), &NewPembelianObat{
		SupplierId: 1,
		PegawaiId:  pegawaiId,
		Details:    []NewDetailPembelianObat{{ObatId: obat.ID, Qty: -5}},
	})
	if !utils.IsValidationError(err) {
		t.Errorf("negative qty: expected validation error, got %v", err)
	}

	if got := currentStok(t, db, obat.ID); got != 0 {
		t.Errorf("stok = %d, want 0", got)
	}
}
