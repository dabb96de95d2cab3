package models

import (
	"testing"

	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

func TestListRiwayatStokFilters(t *testing.T) {
	db := testDB(t)
	pegawaiId := seedMasterData(t, db)
	obatA := seedObat(t, db, "OBT-A", 50)
	obatB := seedObat(t, db, "OBT-B", 50)

	if _, err := CreateTransaksi(testCtx(), newSaleInput(pegawaiId,
		NewDetailTransaksi{ObatId: obatA.ID, Qty: 5},
		NewDetailTransaksi{ObatId: obatB.ID, Qty: 7},
	)); err != nil {
		t.Fatalf("CreateTransaksi: %v", err)
	}

	byObat, _, err := ListRiwayatStok(testCtx(), RiwayatStokListParams{ObatId: obatA.ID})
	if err != nil {
		t.Fatalf("list by obat: %v", err)
	}
	if len(byObat) != 2 {
		t.Errorf("rows for obat A = %d, want 2 (seed + sale)", len(byObat))
	}
	for _, row := range byObat {
		if row.ObatId != obatA.ID {
			t.Errorf("row for obat %d leaked into the filter", row.ObatId)
		}
	}

	sales, _, err := ListRiwayatStok(testCtx(), RiwayatStokListParams{ReferensiTipe: ReferensiPenjualan})
	if err != nil {
		t.Fatalf("list by referensiTipe: %v", err)
	}
	if len(sales) != 2 {
		t.Errorf("sale rows = %d, want 2", len(sales))
	}

	_, _, err = ListRiwayatStok(testCtx(), RiwayatStokListParams{JenisMutasi: "teleport"})
	if !utils.IsValidationError(err) {
		t.Errorf("bad jenisMutasi filter: expected validation error, got %v", err)
	}
}

func TestListRiwayatStokPagination(t *testing.T) {
	db := testDB(t)
	seedMasterData(t, db)
	obat := seedObat(t, db, "OBT-001", 0)

	for i := 0; i < 7; i++ {
		tx := db.Begin()
		if _, err := AdjustStock(tx, StockAdjustment{
			ObatId:        obat.ID,
			JenisMutasi:   MutasiMasuk,
			Qty:           1,
			ReferensiTipe: ReferensiLainnya,
		}); err != nil {
			t.Fatalf("mutation %d: %v", i, err)
		}
		if err := tx.Commit().Error; err != nil {
			t.Fatalf("commit %d: %v", i, err)
		}
	}

	page1, pagination, err := ListRiwayatStok(testCtx(), RiwayatStokListParams{
		ListParams: ListParams{Page: 1, Limit: 3},
	})
	if err != nil {
		t.Fatalf("page 1: %v", err)
	}
	if len(page1) != 3 {
		t.Errorf("page 1 rows = %d, want 3", len(page1))
	}
	if pagination.TotalItems != 7 || pagination.TotalPages != 3 {
		t.Errorf("pagination = (items=%d, pages=%d), want (7, 3)", pagination.TotalItems, pagination.TotalPages)
	}

	page3, _, err := ListRiwayatStok(testCtx(), RiwayatStokListParams{
		ListParams: ListParams{Page: 3, Limit: 3},
	})
	if err != nil {
		t.Fatalf("page 3: %v", err)
	}
	if len(page3) != 1 {
		t.Errorf("page 3 rows = %d, want 1", len(page3))
	}
}
