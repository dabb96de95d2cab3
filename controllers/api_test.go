package controllers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/middlewares"
	"bitbucket.org/mmdatafocus/apotek_backend/models"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

func testRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	if err := db.AutoMigrate(
		&models.User{},
		&models.Jabatan{}, &models.UnitKerja{}, &models.Pegawai{},
		&models.KategoriObat{}, &models.GolonganObat{}, &models.BentukSediaan{}, &models.Satuan{},
		&models.Supplier{}, &models.Customer{},
		&models.Obat{}, &models.RiwayatStok{},
		&models.Transaksi{}, &models.DetailTransaksi{},
		&models.PembelianObat{}, &models.DetailPembelianObat{},
		&models.ActivityLog{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	config.SetDB(db)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/auth/login", LoginHandler())

	protected := api.Group("")
	protected.Use(middlewares.AuthMiddleware())
	RegisterReferensiRoutes[models.KategoriObat](protected.Group("/kategori-obat"))
	protected.GET("/obat", ListObatHandler())
	protected.GET("/obat/:id", GetObatHandler())
	protected.POST("/obat", CreateObatHandler())
	protected.POST("/transaksi", CreateTransaksiHandler())
	protected.DELETE("/transaksi/:id", DeleteTransaksiHandler())
	return r, db
}

func seedAdmin(t *testing.T, db *gorm.DB) string {
	t.Helper()
	hashed, err := utils.HashPassword("rahasia123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := &models.User{
		Username: "admin",
		Email:    "admin@apotek.local",
		Password: string(hashed),
		Role:     models.RoleAdmin,
		IsActive: utils.NewTrue(),
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("seed admin: %v", err)
	}
	pegawai := &models.Pegawai{NIP: "P-001", Nama: "Admin", JabatanId: 1, UnitKerjaId: 1, UserId: &user.ID, Status: models.PegawaiStatusAktif}
	if err := db.Create(pegawai).Error; err != nil {
		t.Fatalf("seed pegawai: %v", err)
	}
	token, err := utils.JwtGenerate(user.ID, user.Role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return token
}

func seedObatFixtures(t *testing.T, db *gorm.DB, stok int) *models.Obat {
	t.Helper()
	for _, ref := range []interface{}{
		&models.KategoriObat{Referensi: models.Referensi{Kode: "KAT-01", Nama: "Obat Bebas", IsActive: utils.NewTrue()}},
		&models.GolonganObat{Referensi: models.Referensi{Kode: "GOL-01", Nama: "Analgesik", IsActive: utils.NewTrue()}},
		&models.BentukSediaan{Referensi: models.Referensi{Kode: "BS-01", Nama: "Tablet", IsActive: utils.NewTrue()}},
		&models.Satuan{Referensi: models.Referensi{Kode: "SAT-01", Nama: "Strip", IsActive: utils.NewTrue()}},
		&models.Jabatan{Referensi: models.Referensi{Kode: "JAB-01", Nama: "Apoteker", IsActive: utils.NewTrue()}},
		&models.UnitKerja{Referensi: models.Referensi{Kode: "UK-01", Nama: "Gudang", IsActive: utils.NewTrue()}},
	} {
		if err := db.Create(ref).Error; err != nil {
			t.Fatalf("seed master data: %v", err)
		}
	}

	obat := &models.Obat{
		KodeObat: "OBT-001", NamaObat: "Paracetamol",
		KategoriId: 1, GolonganId: 1, BentukSediaanId: 1, SatuanId: 1,
		Stok: stok, IsActive: utils.NewTrue(),
	}
	if err := db.Create(obat).Error; err != nil {
		t.Fatalf("seed obat: %v", err)
	}
	// ledger row matching the opening balance
	if stok > 0 {
		entry := &models.RiwayatStok{
			ObatId: obat.ID, JenisMutasi: models.MutasiMasuk,
			QtyMasuk: stok, StokSebelum: 0, StokSesudah: stok,
			ReferensiTipe: models.ReferensiLainnya, Keterangan: "saldo awal",
		}
		if err := db.Create(entry).Error; err != nil {
			t.Fatalf("seed ledger: %v", err)
		}
	}
	return obat
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var parsed map[string]interface{}
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &parsed); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, parsed
}

func TestLoginEndpoint(t *testing.T) {
	r, db := testRouter(t)
	seedObatFixtures(t, db, 0)
	seedAdmin(t, db)

	w, resp := doJSON(t, r, "POST", "/api/v1/auth/login", "", gin.H{
		"username": "admin", "password": "rahasia123",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	if resp["success"] != true {
		t.Errorf("success = %v, want true", resp["success"])
	}
	data := resp["data"].(map[string]interface{})
	if data["token"] == "" {
		t.Error("expected token in response data")
	}

	w, resp = doJSON(t, r, "POST", "/api/v1/auth/login", "", gin.H{
		"username": "admin", "password": "salah",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad credentials: status = %d, want 400", w.Code)
	}
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	r, _ := testRouter(t)

	w, _ := doJSON(t, r, "GET", "/api/v1/obat", "", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no token: status = %d, want 401", w.Code)
	}

	w, _ = doJSON(t, r, "GET", "/api/v1/obat", "not-a-token", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: status = %d, want 401", w.Code)
	}
}

func TestInsufficientStockMapsToConflict(t *testing.T) {
	r, db := testRouter(t)
	obat := seedObatFixtures(t, db, 3)
	token := seedAdmin(t, db)

	w, resp := doJSON(t, r, "POST", "/api/v1/transaksi", token, gin.H{
		"metodePembayaran": "Cash",
		"details":          []gin.H{{"obatId": obat.ID, "qty": 10}},
	})
	if w.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409; body %s", w.Code, w.Body.String())
	}
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
	errMsg, _ := resp["error"].(string)
	if errMsg == "" {
		t.Fatal("expected error string in envelope")
	}
	for _, fragment := range []string{"Paracetamol", "tersedia=3", "diminta=10", "kurang=7"} {
		if !bytes.Contains([]byte(errMsg), []byte(fragment)) {
			t.Errorf("error %q missing %q", errMsg, fragment)
		}
	}
}

func TestNotFoundMapsTo404(t *testing.T) {
	r, db := testRouter(t)
	seedObatFixtures(t, db, 0)
	token := seedAdmin(t, db)

	w, _ := doJSON(t, r, "GET", "/api/v1/obat/999", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing obat: status = %d, want 404", w.Code)
	}

	w, _ = doJSON(t, r, "DELETE", "/api/v1/transaksi/999", token, nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("missing transaksi: status = %d, want 404", w.Code)
	}
}

func TestValidationMapsTo400(t *testing.T) {
	r, db := testRouter(t)
	seedObatFixtures(t, db, 0)
	token := seedAdmin(t, db)

	// binding failure: details missing
	w, _ := doJSON(t, r, "POST", "/api/v1/transaksi", token, gin.H{
		"metodePembayaran": "Cash",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing details: status = %d, want 400; body %s", w.Code, w.Body.String())
	}

	w, _ = doJSON(t, r, "POST", "/api/v1/obat", token, gin.H{
		"kodeObat": "OBT-002", "namaObat": "Amoxicillin",
		"kategoriId": 99, "golonganId": 1, "bentukSediaanId": 1, "satuanId": 1,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kategori: status = %d, want 400; body %s", w.Code, w.Body.String())
	}
}

func TestDuplicateKodeMapsToConflict(t *testing.T) {
	r, db := testRouter(t)
	seedObatFixtures(t, db, 0)
	token := seedAdmin(t, db)

	w, _ := doJSON(t, r, "POST", "/api/v1/kategori-obat", token, gin.H{
		"kode": "KAT-01", "nama": "Duplikat",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate kode: status = %d, want 409; body %s", w.Code, w.Body.String())
	}
}

func TestSaleRoundTripThroughAPI(t *testing.T) {
	r, db := testRouter(t)
	obat := seedObatFixtures(t, db, 20)
	token := seedAdmin(t, db)

	w, resp := doJSON(t, r, "POST", "/api/v1/transaksi", token, gin.H{
		"metodePembayaran": "Cash",
		"details":          []gin.H{{"obatId": obat.ID, "qty": 6}},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status = %d, want 201; body %s", w.Code, w.Body.String())
	}
	data := resp["data"].(map[string]interface{})
	transaksiId := int(data["id"].(float64))

	var reloaded models.Obat
	if err := db.First(&reloaded, obat.ID).Error; err != nil {
		t.Fatalf("reload obat: %v", err)
	}
	if reloaded.Stok != 14 {
		t.Errorf("stok = %d, want 14", reloaded.Stok)
	}

	w, _ = doJSON(t, r, "DELETE", fmt.Sprintf("/api/v1/transaksi/%d", transaksiId), token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: status = %d, want 200; body %s", w.Code, w.Body.String())
	}
	if err := db.First(&reloaded, obat.ID).Error; err != nil {
		t.Fatalf("reload obat: %v", err)
	}
	if reloaded.Stok != 20 {
		t.Errorf("stok = %d, want 20 after reversal", reloaded.Stok)
	}
}
