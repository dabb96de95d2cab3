package models

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
)

type DashboardSummary struct {
	TotalObat         int64           `json:"totalObat"`
	TotalObatLowStock int64           `json:"totalObatLowStock"`
	TotalObatExpired  int64           `json:"totalObatExpired"`
	TransaksiHariIni  int64           `json:"transaksiHariIni"`
	PenjualanHariIni  decimal.Decimal `json:"penjualanHariIni"`
	PenjualanBulanIni decimal.Decimal `json:"penjualanBulanIni"`
	PembelianBulanIni decimal.Decimal `json:"pembelianBulanIni"`
	TotalCustomer     int64           `json:"totalCustomer"`
	TotalSupplier     int64           `json:"totalSupplier"`
	MutasiStokHariIni int64           `json:"mutasiStokHariIni"`
}

// GetDashboardSummary aggregates the numbers the front page shows. All
// queries run read-only against current state; none of them touch the
// ledger write path.
func GetDashboardSummary(ctx context.Context) (*DashboardSummary, error) {
	db := config.GetDB()
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	summary := &DashboardSummary{
		PenjualanHariIni:  decimal.Zero,
		PenjualanBulanIni: decimal.Zero,
		PembelianBulanIni: decimal.Zero,
	}

	if err := db.WithContext(ctx).Model(&Obat{}).Count(&summary.TotalObat).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Obat{}).
		Where("stok <= stok_minimal").Count(&summary.TotalObatLowStock).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Obat{}).
		Where("tanggal_kadaluarsa IS NOT NULL AND tanggal_kadaluarsa < ?", now).
		Count(&summary.TotalObatExpired).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Transaksi{}).
		Where("tanggal_transaksi >= ?", startOfDay).Count(&summary.TransaksiHariIni).Error; err != nil {
		return nil, err
	}

	var penjualanHariIni *decimal.Decimal
	if err := db.WithContext(ctx).Model(&Transaksi{}).
		Where("tanggal_transaksi >= ? AND status = ?", startOfDay, TransaksiStatusCompleted).
		Select("SUM(grand_total)").Scan(&penjualanHariIni).Error; err != nil {
		return nil, err
	}
	if penjualanHariIni != nil {
		summary.PenjualanHariIni = *penjualanHariIni
	}

	var penjualanBulanIni *decimal.Decimal
	if err := db.WithContext(ctx).Model(&Transaksi{}).
		Where("tanggal_transaksi >= ? AND status = ?", startOfMonth, TransaksiStatusCompleted).
		Select("SUM(grand_total)").Scan(&penjualanBulanIni).Error; err != nil {
		return nil, err
	}
	if penjualanBulanIni != nil {
		summary.PenjualanBulanIni = *penjualanBulanIni
	}

	var pembelianBulanIni *decimal.Decimal
	if err := db.WithContext(ctx).Model(&PembelianObat{}).
		Where("tanggal_pembelian >= ? AND status = ?", startOfMonth, TransaksiStatusCompleted).
		Select("SUM(total_harga)").Scan(&pembelianBulanIni).Error; err != nil {
		return nil, err
	}
	if pembelianBulanIni != nil {
		summary.PembelianBulanIni = *pembelianBulanIni
	}

	if err := db.WithContext(ctx).Model(&Customer{}).Count(&summary.TotalCustomer).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&Supplier{}).Count(&summary.TotalSupplier).Error; err != nil {
		return nil, err
	}
	if err := db.WithContext(ctx).Model(&RiwayatStok{}).
		Where("tanggal_mutasi >= ?", startOfDay).Count(&summary.MutasiStokHariIni).Error; err != nil {
		return nil, err
	}

	return summary, nil
}
