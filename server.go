package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"bitbucket.org/mmdatafocus/apotek_backend/config"
	"bitbucket.org/mmdatafocus/apotek_backend/controllers"
	"bitbucket.org/mmdatafocus/apotek_backend/middlewares"
	"bitbucket.org/mmdatafocus/apotek_backend/models"
	"bitbucket.org/mmdatafocus/apotek_backend/utils"
)

const defaultPort = "8080"

// RateLimiter throttles per client IP using a fixed Redis window.
type RateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRateLimiter(client *redis.Client, limit int64, window time.Duration) *RateLimiter {
	return &RateLimiter{
		client: client,
		limit:  limit,
		window: window,
	}
}

func (rl *RateLimiter) RateLimitMiddleware(c *gin.Context) {
	key := "rate:" + c.ClientIP()

	exists, err := rl.client.Exists(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if exists == 0 {
		if err := rl.client.Set(c.Request.Context(), key, 1, rl.window).Err(); err != nil {
			c.AbortWithError(http.StatusInternalServerError, err)
			return
		}
		c.Next()
		return
	}

	count, err := rl.client.Incr(c.Request.Context(), key).Result()
	if err != nil {
		c.AbortWithError(http.StatusInternalServerError, err)
		return
	}
	if count > rl.limit {
		c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
			"success": false,
			"message": "too many requests",
			"error":   "rate limit exceeded",
		})
		return
	}
	c.Next()
}

func splitAndTrim(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// customErrorLogger logs only requests that attached errors.
func customErrorLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			logger.Error(c.Errors.String())
		}
	}
}

func customNotFoundHandler(c *gin.Context) {
	c.JSON(http.StatusNotFound, gin.H{
		"success": false,
		"message": "not found",
		"error":   "route not found",
	})
}

func registerRoutes(r *gin.Engine) {
	api := r.Group("/api/v1")

	api.POST("/auth/login", controllers.LoginHandler())

	protected := api.Group("")
	protected.Use(middlewares.AuthMiddleware())
	protected.Use(middlewares.ActivityLogger())

	protected.GET("/auth/me", controllers.MeHandler())
	protected.POST("/auth/change-password", controllers.ChangePasswordHandler())
	protected.GET("/users", controllers.ListUserHandler())
	protected.GET("/users/:id", controllers.GetUserHandler())
	protected.POST("/users", middlewares.RequireRole(models.RoleAdmin), controllers.CreateUserHandler())
	protected.PUT("/users/:id", middlewares.RequireRole(models.RoleAdmin), controllers.UpdateUserHandler())
	protected.DELETE("/users/:id", middlewares.RequireRole(models.RoleAdmin), controllers.DeleteUserHandler())

	// Reference tables, admin and apoteker only.
	masterData := protected.Group("", middlewares.RequireRole(models.RoleApoteker))
	controllers.RegisterReferensiRoutes[models.KategoriObat](masterData.Group("/kategori-obat"))
	controllers.RegisterReferensiRoutes[models.GolonganObat](masterData.Group("/golongan-obat"))
	controllers.RegisterReferensiRoutes[models.BentukSediaan](masterData.Group("/bentuk-sediaan"))
	controllers.RegisterReferensiRoutes[models.Satuan](masterData.Group("/satuan"))
	controllers.RegisterReferensiRoutes[models.Jabatan](masterData.Group("/jabatan"))
	controllers.RegisterReferensiRoutes[models.UnitKerja](masterData.Group("/unit-kerja"))

	protected.GET("/supplier", controllers.ListSupplierHandler())
	protected.GET("/supplier/:id", controllers.GetSupplierHandler())
	protected.POST("/supplier", controllers.CreateSupplierHandler())
	protected.PUT("/supplier/:id", controllers.UpdateSupplierHandler())
	protected.DELETE("/supplier/:id", middlewares.RequireRole(models.RoleApoteker), controllers.DeleteSupplierHandler())

	protected.GET("/customer", controllers.ListCustomerHandler())
	protected.POST("/customer", controllers.CreateCustomerHandler())
	protected.PUT("/customer/:id", controllers.UpdateCustomerHandler())
	protected.DELETE("/customer/:id", middlewares.RequireRole(models.RoleApoteker), controllers.DeleteCustomerHandler())

	protected.GET("/pegawai", controllers.ListPegawaiHandler())
	protected.GET("/pegawai/:id", controllers.GetPegawaiHandler())
	protected.POST("/pegawai", middlewares.RequireRole(models.RoleAdmin), controllers.CreatePegawaiHandler())
	protected.PUT("/pegawai/:id", middlewares.RequireRole(models.RoleAdmin), controllers.UpdatePegawaiHandler())
	protected.DELETE("/pegawai/:id", middlewares.RequireRole(models.RoleAdmin), controllers.DeletePegawaiHandler())

	protected.GET("/obat", controllers.ListObatHandler())
	protected.GET("/obat/:id", controllers.GetObatHandler())
	protected.GET("/obat/:id/ledger", controllers.LedgerBalanceHandler())
	protected.POST("/obat", middlewares.RequireRole(models.RoleApoteker), controllers.CreateObatHandler())
	protected.PUT("/obat/:id", middlewares.RequireRole(models.RoleApoteker), controllers.UpdateObatHandler())
	protected.DELETE("/obat/:id", middlewares.RequireRole(models.RoleApoteker), controllers.DeleteObatHandler())

	protected.GET("/transaksi", controllers.ListTransaksiHandler())
	protected.GET("/transaksi/:id", controllers.GetTransaksiHandler())
	protected.POST("/transaksi", controllers.CreateTransaksiHandler())
	protected.PUT("/transaksi/:id", controllers.UpdateTransaksiHandler())
	protected.DELETE("/transaksi/:id", middlewares.RequireRole(models.RoleApoteker), controllers.DeleteTransaksiHandler())

	protected.GET("/pembelian-obat", controllers.ListPembelianObatHandler())
	protected.GET("/pembelian-obat/:id", controllers.GetPembelianObatHandler())
	protected.POST("/pembelian-obat", middlewares.RequireRole(models.RoleApoteker), controllers.CreatePembelianObatHandler())
	protected.PUT("/pembelian-obat/:id", middlewares.RequireRole(models.RoleApoteker), controllers.UpdatePembelianObatHandler())
	protected.DELETE("/pembelian-obat/:id", middlewares.RequireRole(models.RoleApoteker), controllers.DeletePembelianObatHandler())

	protected.GET("/riwayat-stok", controllers.ListRiwayatStokHandler())
	protected.GET("/riwayat-stok/export", controllers.ExportRiwayatStokHandler())
	protected.GET("/riwayat-stok/:id", controllers.GetRiwayatStokHandler())
	protected.POST("/riwayat-stok", middlewares.RequireRole(models.RoleApoteker), controllers.CreateStockAdjustmentHandler())

	protected.GET("/dashboard/summary", controllers.DashboardSummaryHandler())
	protected.GET("/activity-logs", middlewares.RequireRole(models.RoleAdmin), controllers.ListActivityLogHandler())
}

func main() {
	_ = godotenv.Load()

	port := os.Getenv("API_PORT")
	if port == "" {
		// Cloud Run standard env var.
		port = os.Getenv("PORT")
	}
	if port == "" {
		port = defaultPort
	}

	logger := config.GetLogger()

	// Cloud Run sends SIGTERM on revision shutdown; handle it for graceful drain.
	sigCtx, stopSignals := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stopSignals()

	// Start the HTTP server ASAP so the platform considers the revision
	// healthy. Until the DB is ready, app endpoints return 503.
	r := gin.New()
	r.Use(func(c *gin.Context) {
		cid := c.GetHeader("x-correlation-id")
		if cid == "" {
			cid = uuid.NewString()
		}
		c.Request = c.Request.WithContext(utils.SetCorrelationIdInContext(c.Request.Context(), cid))
		c.Writer.Header().Set("x-correlation-id", cid)
		c.Next()
	})
	r.Use(func(c *gin.Context) {
		if c.Request.URL.Path == "/healthz" {
			c.Status(http.StatusNoContent)
			c.Abort()
			return
		}
		if config.GetDB() == nil {
			c.AbortWithStatus(http.StatusServiceUnavailable)
			return
		}
		c.Next()
	})

	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	corsConfig := cors.DefaultConfig()
	// In production require an explicit allowlist via CORS_ALLOWED_ORIGINS;
	// in development allow all.
	allowedOrigins := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS"))
	if strings.EqualFold(strings.TrimSpace(os.Getenv("GO_ENV")), "production") {
		if allowedOrigins == "" {
			corsConfig.AllowOrigins = []string{}
		} else {
			corsConfig.AllowOrigins = splitAndTrim(allowedOrigins)
		}
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AddAllowMethods("GET", "POST", "PUT", "DELETE", "OPTIONS")
	corsConfig.AddAllowHeaders("Origin", "Content-Type", "Authorization")
	corsConfig.AddExposeHeaders("Content-Length", "Content-Disposition")
	corsConfig.AllowCredentials = true
	r.Use(cors.New(corsConfig))

	// Optional rate limiting.
	// Env: RATE_LIMIT_ENABLED, RATE_LIMIT_WINDOW_SECONDS, RATE_LIMIT_MAX_REQUESTS.
	if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") && os.Getenv("REDIS_ADDRESS") == "" {
		logger.Warn("RATE_LIMIT_ENABLED=true but REDIS_ADDRESS is not set; rate limiting disabled")
	} else if strings.EqualFold(strings.TrimSpace(os.Getenv("RATE_LIMIT_ENABLED")), "true") {
		limit := int64(600)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_MAX_REQUESTS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				limit = n
			}
		}
		windowSec := int64(60)
		if v := strings.TrimSpace(os.Getenv("RATE_LIMIT_WINDOW_SECONDS")); v != "" {
			if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
				windowSec = n
			}
		}
		client := redis.NewClient(&redis.Options{Addr: os.Getenv("REDIS_ADDRESS")})
		rateLimiter := NewRateLimiter(client, limit, time.Duration(windowSec)*time.Second)
		r.Use(rateLimiter.RateLimitMiddleware)
	}

	r.Use(customErrorLogger(logger))
	r.Use(gin.Recovery())
	registerRoutes(r)
	r.NoRoute(customNotFoundHandler)

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
	serverErrCh := make(chan error, 1)
	go func() {
		// ListenAndServe returns http.ErrServerClosed on graceful shutdown.
		serverErrCh <- srv.ListenAndServe()
	}()

	// Connect dependencies after the port is open.
	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()

	db := config.GetDB()
	sqlDB, _ := db.DB()
	defer func() {
		if sqlDB != nil {
			_ = sqlDB.Close()
		}
	}()

	// AutoMigrate can run DDL that blocks tables; allow running migrations
	// as a separate job instead.
	if !strings.EqualFold(strings.TrimSpace(os.Getenv("SKIP_MIGRATIONS")), "true") {
		models.MigrateTable()
	} else {
		logger.WithFields(logrus.Fields{"field": "migrations"}).Warn("SKIP_MIGRATIONS=true; skipping AutoMigrate on startup")
	}

	// Document posting assumes READ COMMITTED; the FOR UPDATE row locks in
	// the stock commands provide the serialization.
	for attempt := 1; ; attempt++ {
		err := db.Exec("SET SESSION TRANSACTION ISOLATION LEVEL READ COMMITTED").Error
		if err == nil {
			break
		}
		sleep := time.Second * time.Duration(1<<minInt(attempt, 5))
		if sleep > 30*time.Second {
			sleep = 30 * time.Second
		}
		logger.WithFields(logrus.Fields{
			"field":   "database",
			"attempt": attempt,
		}).Warn("failed to set isolation level; retrying in " + sleep.String() + ": " + err.Error())
		time.Sleep(sleep)
	}

	logger.WithFields(logrus.Fields{
		"info": "Connection Established",
	}).Info("listening on http://localhost:", port, "/api/v1")
	log.Println("Server started successfully")

	select {
	case <-sigCtx.Done():
		// graceful shutdown below
	case err := <-serverErrCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithFields(logrus.Fields{"field": "http"}).Error("server stopped unexpectedly: " + err.Error())
		}
	}

	shutdownTimeout := 30 * time.Second
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithFields(logrus.Fields{"field": "http"}).Error("graceful shutdown failed: " + err.Error())
	}

	if rdb := config.GetRedisDB(); rdb != nil {
		_ = rdb.Close()
	}
}
