package models

import (
	"log"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
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
		log.Fatal(err)
	}
}
