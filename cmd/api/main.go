package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	_ "portal/api/swagger" // swagger docs
	"portal/internal/config"
	"portal/internal/database"
	"portal/internal/handler"
	"portal/internal/middleware"
	"portal/internal/notify"
	"portal/internal/repository"
	"portal/internal/service"
	"portal/internal/view"
	"portal/internal/websocket"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/gorm"
)

// @title           Purchase Request API
// @version         1.0
// @description     Submission, two-stage approval and reporting of team purchase requests.
// @host            localhost:8080
// @BasePath        /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	gin.SetMode(cfg.GinMode)
	ranks := cfg.Ranks()

	// Set up storage (Repository layer)
	var (
		db           *gorm.DB
		purchaseRepo repository.PurchaseRepository
		auditRepo    repository.AuditRepository
		txManager    repository.TransactionManager
	)
	if cfg.DBDriver == "memory" {
		store := repository.NewMemoryStore()
		purchaseRepo, auditRepo, txManager = store.Purchases(), store.Audit(), store.Tx()
		log.Println("Using in-memory store; data is lost on restart.")
	} else {
		db, err = database.NewConnection(cfg.DBDriver, cfg.DSN())
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		log.Printf("Connected to %s successfully.", cfg.DBDriver)
		purchaseRepo = repository.NewPurchaseRepository(db)
		auditRepo = repository.NewAuditRepository(db)
		txManager = repository.NewTransactionManager(db)
	}

	// Set up WebSocket Hub
	wsHub := websocket.NewHub(cfg.Origins()...)
	go wsHub.Run()

	// Set up notifications
	var mailer notify.Mailer = notify.LogMailer{}
	if cfg.SMTPHost != "" {
		mailer = notify.NewSMTPMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword, cfg.MailFrom)
	} else {
		log.Println("SMTP_HOST not set; e-mails are logged instead of sent.")
	}
	dispatcher := notify.NewDispatcher(mailer, cfg.MailOrgAddress, cfg.MailMentorAddress, cfg.PublicBaseURL)

	// Set up dependencies (Repository -> Service -> Handler)
	purchaseService := service.NewPurchaseService(purchaseRepo, auditRepo, txManager, ranks, dispatcher, wsHub)
	totalsService := service.NewTotalsService(purchaseRepo, time.Local)
	auditService := service.NewAuditService(auditRepo)

	purchaseHandler := handler.NewPurchaseHandler(purchaseService, totalsService, ranks, wsHub, middleware.CSRF(cfg.CSRFKey(), cfg.CSRFSecure))
	auditHandler := handler.NewAuditHandler(auditService, ranks)

	// Set up Gin Router
	router := gin.Default()
	router.SetHTMLTemplate(view.Templates())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.Origins()
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "Accept"}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	router.Use(cors.New(corsConfig))

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "OK", "live_clients": wsHub.ClientCount()})
	})

	purchases := router.Group("/member/purchase", middleware.Authenticate(cfg.Secret()))
	purchaseHandler.RegisterRoutes(purchases)
	auditHandler.RegisterRoutes(purchases)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Printf("Server listening on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown failed: %v", err)
	}

	dispatcher.Wait()
	if db != nil {
		database.Close(db)
	}
	log.Println("Server stopped")
}
