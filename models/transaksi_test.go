package models

import (
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

func newSaleInput(pegawaiId int, details ...NewDetailTransaksi) *NewTransaksi {
	return &NewTransaksi{
		PegawaiId:        pegawaiId,
		MetodePembayaran: "Cash",
		Details:          details,
	}
}

func TestCreateTransaksiDeductsStock(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-001", 30)

	transaksi, err := CreateTransaksi(testCtx(), newSaleInput(pegawaiId,
		NewDetailTransaksi{ObatId: obat.ID, Qty: 12},
	))
	if err != nil {
		t.Fatalf("CreateTransaksi: %v", err)
	}

	if got := currentStok(t, db, obat.ID); got != 18 {
		t.Errorf("stok = %d, want 18", got)
	}
	if len(transaksi.Details) != 1 {
		t.Fatalf("details = %d, want 1", len(transaksi.Details))
	}

	// Price defaults to the drug's selling price and totals follow.
	wantSubtotal := decimal.NewFromInt(7500 * 12)
	if !transaksi.Details[0].Subtotal.Equal(wantSubtotal) {
		t.Errorf("subtotal = %s, want %s", transaksi.Details[0].Subtotal, wantSubtotal)
	}
	if !transaksi.GrandTotal.Equal(wantSubtotal) {
		t.Errorf("grandTotal = %s, want %s", transaksi.GrandTotal, wantSubtotal)
	}

	rows := ledgerRows(t, db, obat.ID)
	if len(rows) != 2 {
		t.Fatalf("ledger rows = %d, want 2 (seed + sale)", len(rows))
	}
	last := rows[len(rows)-1]
	if last.JenisMutasi != MutasiKeluar || last.QtyKeluar != 12 {
		t.Errorf("sale ledger row = (%s, keluar=%d), want (keluar, 12)", last.JenisMutasi, last.QtyKeluar)
	}
	if last.ReferensiTipe != ReferensiPenjualan || last.ReferensiId == nil || *last.ReferensiId != transaksi.ID {
		t.Errorf("sale ledger row does not reference the document")
	}
}

func TestCreateTransaksiAtomicAcrossLines(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obatA := seedObat(t, db, "OBT-A", 100)
	obatB := seedObat(t, db, "OBT-B", 100)
	obatC := seedObat(t, db, "OBT-C", 2)

	_, err := CreateTransaksi(testCtx(), newSaleInput(pegawaiId,
		NewDetailTransaksi{ObatId: obatA.ID, Qty: 10},
		NewDetailTransaksi{ObatId: obatB.ID, Qty: 10},
		NewDetailTransaksi{ObatId: obatC.ID, Qty: 10},
	))
	if !utils.IsInsufficientStockError(err) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	// Nothing from the failed document may remain.
	var headerCount, detailCount int64
	db.Model(&Transaksi{}).Count(&headerCount)
	db.Model(&DetailTransaksi{}).Count(&detailCount)
	if headerCount != 0 || detailCount != 0 {
		t.Errorf("rows after failed sale = (header=%d, detail=%d), want (0, 0)", headerCount, detailCount)
	}
	for _, obat := range []*Obat{obatA, obatB, obatC} {
		rows := ledgerRows(t, db, obat.ID)
		if len(rows) != 1 {
			t.Errorf("obat %s: ledger rows = %d, want 1 (seed only)", obat.KodeObat, len(rows))
		}
	}
	if got := currentStok(t, db, obatA.ID); got != 100 {
		t.Errorf("obat A stok = %d, want 100", got)
	}
	if got := currentStok(t, db, obatB.ID); got != 100 {
		t.Errorf("obat B stok = %d, want 100", got)
	}
}

func TestDeleteTransaksiReversesStock(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-001", 30)

	transaksi, err := CreateTransaksi(testCtx(), newSaleInput(pegawaiId,
		NewDetailTransaksi{ObatId: obat.ID, Qty: 12},
	))
	if err != nil {
		t.Fatalf("CreateTransaksi: %v", err)
	}

	if _, err := DeleteTransaksi(testCtx(), transaksi.ID); err != nil {
		t.Fatalf("DeleteTransaksi: %v", err)
	}

	// Balance returns, and the history keeps every step.
	if got := currentStok(t, db, obat.ID); got != 30 {
		t.Errorf("stok = %d, want 30 after reversal", got)
	}
	rows := ledgerRows(t, db, obat.ID)
	if len(rows) != 3 {
		t.Fatalf("ledger rows = %d, want 3 (seed + sale + reversal)", len(rows))
	}
	reversal := rows[2]
	if reversal.JenisMutasi != MutasiMasuk || reversal.QtyMasuk != 12 {
		t.Errorf("reversal row = (%s, masuk=%d), want (masuk, 12)", reversal.JenisMutasi, reversal.QtyMasuk)
	}

	balance, err := LedgerBalance(testCtx(), obat.ID)
	if err != nil {
		t.Fatalf("LedgerBalance: %v", err)
	}
	if balance != 30 {
		t.Errorf("ledger balance = %d, want 30", balance)
	}

	// Deleting again: the document is gone.
	_, err = DeleteTransaksi(testCtx(), transaksi.ID)
	if !utils.IsNotFoundError(err) {
		t.Fatalf("second delete: expected not found, got %v", err)
	}
	if got := currentStok(t, db, obat.ID); got != 30 {
		t.Errorf("stok = %d after repeated delete, want 30", got)
	}
}

func TestSequentialSalesOnSameDrug(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-001", 5)

	if _, err := CreateTransaksi(testCtx(), newSaleInput(pegawaiId,
		NewDetailTransaksi{ObatId: obat.ID, Qty: 5},
	)); err != nil {
		t.Fatalf("first sale: %v", err)
	}

	_, err := CreateTransaksi(testCtx(), newSaleInput(pegawaiId,
		NewDetailTransaksi{ObatId: obat.ID, Qty: 5},
	))
	if !utils.IsInsufficientStockError(err) {
		t.Fatalf("second sale: expected insufficient stock error, got %v", err)
	}
	if got := currentStok(t, db, obat.ID); got != 0 {
		t.Errorf("stok = %d, want 0", got)
	}
}

func TestCreateTransaksiValidation(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-001", 10)

	cases := []struct {
		name  string
		input *NewTransaksi
	}{
		{"no lines", &NewTransaksi{PegawaiId: pegawaiId, MetodePembayaran: "Cash"}},
		{"bad payment method", &NewTransaksi{
			PegawaiId:        pegawaiId,
			MetodePembayaran: "Barter",
			Details:          []NewDetailTransaksi{{ObatId: obat.ID, Qty: 1}},
		}},
		{"zero qty", newSaleInput(pegawaiId, NewDetailTransaksi{ObatId: obat.ID, Qty: 0})},
		{"negative qty", newSaleInput(pegawaiId, NewDetailTransaksi{ObatId: obat.ID, Qty: -3})},
		{"unknown obat", newSaleInput(pegawaiId, NewDetailTransaksi{ObatId: 9999, Qty: 1})},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := CreateTransaksi(testCtx(), tc.input)
			if !utils.IsValidationError(err) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}

	if got := currentStok(t, db, obat.ID); got != 10 {
		t.Errorf("stok = %d, want 10 after rejected inputs", got)
	}
}

func TestUpdateTransaksiHeaderOnly(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-001", 30)

	transaksi, err := CreateTransaksi(testCtx(), newSaleInput(pegawaiId,
		NewDetailTransaksi{ObatId: obat.ID, Qty: 4},
	))
	if err != nil {
		t.Fatalf("CreateTransaksi: %v", err)
	}

	metode := "QRIS"
	keterangan := "pembayaran lewat aplikasi"
	updated, err := UpdateTransaksi(testCtx(), transaksi.ID, &UpdateTransaksiInput{
		MetodePembayaran: &metode,
		Keterangan:       &keterangan,
	})
	if err != nil {
		t.Fatalf("UpdateTransaksi: %v", err)
	}
	if updated.MetodePembayaran != "QRIS" {
		t.Errorf("metodePembayaran = %q, want QRIS", updated.MetodePembayaran)
	}

	// Header edits never touch stock or the ledger.
	if got := currentStok(t, db, obat.ID); got != 26 {
		t.Errorf("stok = %d, want 26", got)
	}
	if rows := ledgerRows(t, db, obat.ID); len(rows) != 2 {
		t.Errorf("ledger rows = %d, want 2", len(rows))
	}
}

func TestCreateTransaksiAppliesDiskonAndPajak(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-PJK", 30)

	var input NewTransaksi
	payload := fmt.Sprintf(
		`{"pegawaiId":%d,"metodePembayaran":"Cash","diskon":"1000","pajak":"500","details":[{"obatId":%d,"qty":2,"hargaSatuan":"10000"}]}`,
		pegawaiId, obat.ID)
	if err := json.Unmarshal([]byte(payload), &input); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}

	transaksi, err := CreateTransaksi(testCtx(), &input)
	if err != nil {
		t.Fatalf("CreateTransaksi: %v", err)
	}
	if want := decimal.NewFromInt(20000); !transaksi.TotalHarga.Equal(want) {
		t.Errorf("totalHarga = %s, want %s", transaksi.TotalHarga, want)
	}
	if want := decimal.NewFromInt(19500); !transaksi.GrandTotal.Equal(want) {
		t.Errorf("grandTotal = %s, want %s (totalHarga - diskon + pajak)", transaksi.GrandTotal, want)
	}

	var stored Transaksi
	if err := db.First(&stored, transaksi.ID).Error; err != nil {
		t.Fatalf("reload transaksi: %v", err)
	}
	if !stored.Pajak.Equal(decimal.NewFromInt(500)) {
		t.Errorf("stored pajak = %s, want 500", stored.Pajak)
	}
	if !stored.GrandTotal.Equal(decimal.NewFromInt(19500)) {
		t.Errorf("stored grandTotal = %s, want 19500", stored.GrandTotal)
	}

	input.Pajak = decimal.NewFromInt(-1)
	if _, err := CreateTransaksi(testCtx(), &input); !utils.IsValidationError(err) {
		t.Errorf("negative pajak: expected validation error, got %v", err)
	}
}

func TestConcurrentSalesOnSameDrug(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-RACE", 5)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := CreateTransaksi(testCtx(), newSaleInput(pegawaiId,
				NewDetailTransaksi{ObatId: obat.ID, Qty: 5},
			))
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, short int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		case utils.IsInsufficientStockError(err):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if succeeded != 1 || short != 1 {
		t.Fatalf("got %d successes and %d stock rejections, want exactly 1 of each", succeeded, short)
	}
	if got := currentStok(t, db, obat.ID); got != 0 {
		t.Errorf("stok = %d, want 0", got)
	}
	if rows := ledgerRows(t, db, obat.ID); len(rows) != 2 {
		t.Errorf("ledger rows = %d, want 2 (seed + the one sale that won)", len(rows))
	}
}

func TestCreateTransaksiDefaultsStatusAndPayment(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-DEF", 10)

	transaksi, err := CreateTransaksi(testCtx(), &NewTransaksi{
		PegawaiId: pegawaiId,
		Details:   []NewDetailTransaksi{{ObatId: obat.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("CreateTransaksi: %v", err)
	}
	if transaksi.MetodePembayaran != "Cash" {
		t.Errorf("metodePembayaran = %q, want default Cash", transaksi.MetodePembayaran)
	}
	if transaksi.Status != TransaksiStatusPending {
		t.Errorf("status = %q, want default %q", transaksi.Status, TransaksiStatusPending)
	}
}

func TestCreateTransaksiResolvesPegawaiFromContext(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-CTX", 5)

	ctx := utils.SetPegawaiIdInContext(testCtx(), pegawaiId)
	transaksi, err := CreateTransaksi(ctx, &NewTransaksi{
		Details: []NewDetailTransaksi{{ObatId: obat.ID, Qty: 1}},
	})
	if err != nil {
		t.Fatalf("CreateTransaksi: %v", err)
	}
	if transaksi.PegawaiId != pegawaiId {
		t.Errorf("pegawaiId = %d, want %d from context", transaksi.PegawaiId, pegawaiId)
	}
}
