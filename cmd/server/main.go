package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"tryon-backend/internal/config"
	"tryon-backend/internal/handlers"
	"tryon-backend/internal/lifecycle"
	"tryon-backend/internal/realtime"
	"tryon-backend/internal/store"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// Open the flat-file store and make sure the upload dir exists
	st, err := store.Open(cfg.DataDir)
	if err != nil {
		log.Fatalf("Failed to open store: %v", err)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		log.Fatalf("Failed to create upload dir: %v", err)
	}

	// Lifecycle manager and realtime hub. The hub's connect snapshot reads
	// straight from the manager so new dashboards start in sync.
	var manager *lifecycle.Manager
	hub := realtime.NewHub(func() []realtime.Message {
		tryOns, err := manager.ListTryOns()
		if err != nil {
			log.Printf("Failed to load try-on snapshot: %v", err)
			tryOns = nil
		}
		help, err := manager.ListHelp()
		if err != nil {
			log.Printf("Failed to load help snapshot: %v", err)
			help = nil
		}
		return []realtime.Message{
			{Event: lifecycle.EventTryOnsUpdated, Data: gin.H{"requests": tryOns}},
			{Event: lifecycle.EventHelpUpdated, Data: gin.H{"requests": help}},
		}
	})
	manager = lifecycle.NewManager(st, hub, lifecycle.Options{
		UploadDir:             cfg.UploadDir,
		DefaultTimeoutMinutes: cfg.DefaultTimeoutMinutes,
		AllowedExtensions:     cfg.AllowedExtensions,
		SelfieSize:            cfg.SelfieSize,
		JPEGQuality:           cfg.JPEGQuality,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)
	go lifecycle.NewSweeper(manager, cfg.SweepInterval).Run(ctx)

	// Initialize handlers
	productsHandler := handlers.NewProductsHandler(st, cfg.DefaultTimeoutMinutes)
	requestsHandler := handlers.NewRequestsHandler(manager, cfg.MaxUploadBytes)
	catalogHandler := handlers.NewCatalogHandler(st)
	qrHandler := handlers.NewQRHandler(st, cfg.BaseURL)
	uploadsHandler := handlers.NewUploadsHandler(cfg.UploadDir)

	// Setup router
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Health check
	router.GET("/health", handlers.HealthHandler)

	// Dashboard realtime feed
	router.GET("/ws", hub.ServeWS)

	// Stored selfies
	router.GET("/uploads/:filename", uploadsHandler.ServeFile)

	// API routes
	api := router.Group("/api")

	api.GET("/products", productsHandler.ListProducts)
	api.POST("/products", productsHandler.CreateProduct)
	api.GET("/products/:product_id", productsHandler.GetProduct)
	api.PUT("/products/:product_id", productsHandler.UpdateProduct)
	api.DELETE("/products/:product_id", productsHandler.DeleteProduct)

	api.GET("/qr/:product_id", qrHandler.GenerateQR)

	api.POST("/requests", requestsHandler.SubmitTryOn)
	api.GET("/requests", requestsHandler.ListTryOns)
	api.DELETE("/requests/:request_id", requestsHandler.DeleteTryOn)

	api.POST("/help-requests", requestsHandler.SubmitHelp)
	api.GET("/help-requests", requestsHandler.ListHelp)
	api.DELETE("/help-requests/:request_id", requestsHandler.DeleteHelp)

	api.GET("/catalog", catalogHandler.ListEntries)
	api.POST("/catalog", catalogHandler.CreateEntry)
	api.PUT("/catalog/:entry_id", catalogHandler.UpdateEntry)
	api.DELETE("/catalog/:entry_id", catalogHandler.DeleteEntry)
	api.GET("/catalog/lookup/:barcode", catalogHandler.LookupEntry)

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
}
