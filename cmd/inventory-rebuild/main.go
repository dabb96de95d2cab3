// inventory-rebuild recomputes the cached Obat.Stok balances from the
// stock ledger. Use it to verify or repair drift after manual database
// surgery; under normal operation the balances never diverge because all
// writes go through the stock commands.
//
// Usage:
//
//	go run ./cmd/inventory-rebuild [--obat-id N] [--dry-run]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/models"
)

func main() {
	obatID := flag.Int("obat-id", 0, "Optional: restrict to one drug")
	dryRun := flag.Bool("dry-run", false, "Report drift without writing")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	type row struct {
		ObatId  int
		Balance int
	}
	query := db.Model(&models.RiwayatStok{}).
		Select("obat_id AS obat_id, COALESCE(SUM(qty_masuk) - SUM(qty_keluar), 0) AS balance").
		Group("obat_id")
	if *obatID > 0 {
		query = query.Where("obat_id = ?", *obatID)
	}
	var rows []row
	if err := query.Scan(&rows).Error; err != nil {
		fmt.Fprintf(os.Stderr, "aggregate ledger: %v\n", err)
		os.Exit(1)
	}

	balances := make(map[int]int, len(rows))
	for _, r := range rows {
		balances[r.ObatId] = r.Balance
	}

	var drugs []models.Obat
	obatQuery := db.Model(&models.Obat{}).Select("id", "kode_obat", "nama_obat", "stok")
	if *obatID > 0 {
		obatQuery = obatQuery.Where("id = ?", *obatID)
	}
	if err := obatQuery.Find(&drugs).Error; err != nil {
		fmt.Fprintf(os.Stderr, "load drugs: %v\n", err)
		os.Exit(1)
	}

	drifted := 0
	for _, drug := range drugs {
		balance := balances[drug.ID]
		if drug.Stok == balance {
			continue
		}
		drifted++
		fmt.Printf("%s (%s): cached=%d ledger=%d\n", drug.NamaObat, drug.KodeObat, drug.Stok, balance)
		if *dryRun {
			continue
		}
		if err := db.Model(&models.Obat{}).Where("id = ?", drug.ID).
			Update("stok", balance).Error; err != nil {
			fmt.Fprintf(os.Stderr, "update %s: %v\n", drug.KodeObat, err)
			os.Exit(1)
		}
	}

	if drifted == 0 {
		fmt.Println("all balances consistent with the ledger")
		return
	}
	if *dryRun {
		fmt.Printf("%d drug(s) drifted (dry run, nothing written)\n", drifted)
		return
	}
	fmt.Printf("%d drug(s) rebuilt from the ledger\n", drifted)

	// Cached reads may still hold pre-repair state.
	config.ConnectRedisWithRetry()
	if err := config.ClearRedis(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "flush redis caches: %v\n", err)
	}
}
