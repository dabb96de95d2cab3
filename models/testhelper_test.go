package models

import (
	"context"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// A second pooled connection would see its own empty :memory: database,
	// so keep everything on one connection.
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("unwrap sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	err = db.AutoMigrate(
		&User{},
		&Jabatan{}, &UnitKerja{}, &Pegawai{},
		&KategoriObat{}, &GolonganObat{}, &BentukSediaan{}, &Satuan{},
		&Supplier{}, &Customer{},
		&Obat{}, &RiwayatStok{},
		&Transaksi{}, &DetailTransaksi{},
		&PembelianObat{}, &DetailPembelianObat{},
		&ActivityLog{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	config.SetDB(db)
	return db
}

// seedMasterData creates the reference rows a drug and a document need and
// returns the pegawai id used for postings.
func seedMasterData(t *testing.T, db *gorm.DB) int {
	t.Helper()
	for _, ref := range []interface{}{
		&KategoriObat{Referensi: Referensi{Kode: "KAT-01", Nama: "Obat Bebas", IsActive: utils.NewTrue()}},
		&GolonganObat{Referensi: Referensi{Kode: "GOL-01", Nama: "Analgesik", IsActive: utils.NewTrue()}},
		&BentukSediaan{Referensi: Referensi{Kode: "BS-01", Nama: "Tablet", IsActive: utils.NewTrue()}},
		&Satuan{Referensi: Referensi{Kode: "SAT-01", Nama: "Strip", IsActive: utils.NewTrue()}},
		&Jabatan{Referensi: Referensi{Kode: "JAB-01", Nama: "Apoteker", IsActive: utils.NewTrue()}},
		&UnitKerja{Referensi: Referensi{Kode: "UK-01", Nama: "Gudang", IsActive: utils.NewTrue()}},
		&Supplier{Kode: "SUP-01", Nama: "PT Kimia Sejahtera", IsActive: utils.NewTrue()},
	} {
		if err := db.Create(ref).Error; err != nil {
			t.Fatalf("seed master data: %v", err)
		}
	}
	pegawai := &Pegawai{NIP: "P-001", Nama: "Budi", JabatanId: 1, UnitKerjaId: 1, Status: PegawaiStatusAktif}
	if err := db.Create(pegawai).Error; err != nil {
		t.Fatalf("seed pegawai: %v", err)
	}
	return pegawai.ID
}

func seedObat(t *testing.T, db *gorm.DB, kode string, stok int) *Obat {
	t.Helper()
	obat := &Obat{
		KodeObat:        kode,
		NamaObat:        "Paracetamol " + kode,
		KategoriId:      1,
		GolonganId:      1,
		BentukSediaanId: 1,
		SatuanId:        1,
		HargaBeli:       decimal.NewFromInt(5000),
		HargaJual:       decimal.NewFromInt(7500),
		StokMinimal:     10,
		IsActive:        utils.NewTrue(),
	}
	if err := db.Create(obat).Error; err != nil {
		t.Fatalf("seed obat: %v", err)
	}
	if stok > 0 {
		tx := db.Begin()
		_, err := AdjustStock(tx, StockAdjustment{
			ObatId:        obat.ID,
			JenisMutasi:   MutasiMasuk,
			Qty:           stok,
			ReferensiTipe: ReferensiLainnya,
			Keterangan:    "saldo awal",
		})
		if err != nil {
			t.Fatalf("seed stock: %v", err)
		}
		if err := tx.Commit().Error; err != nil {
			t.Fatalf("commit seed stock: %v", err)
		}
		obat.Stok = stok
	}
	return obat
}

func currentStok(t *testing.T, db *gorm.DB, obatId int) int {
	t.Helper()
	var obat Obat
	if err := db.First(&obat, obatId).Error; err != nil {
		t.Fatalf("load obat %d: %v", obatId, err)
	}
	return obat.Stok
}

func ledgerRows(t *testing.T, db *gorm.DB, obatId int) []RiwayatStok {
	t.Helper()
	var rows []RiwayatStok
	if err := db.Where("obat_id = ?", obatId).Order("id ASC").Find(&rows).Error; err != nil {
		t.Fatalf("load ledger for obat %d: %v", obatId, err)
	}
	return rows
}

func testCtx() context.Context {
	return context.Background()
}
