// @title           RFP Procurement API
// @version         1.0
// @description     RFP Procurement Backend API - natural language RFP creation, vendor distribution, proposal extraction and comparison.

// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"backend/handlers"
	"backend/repository"
	"backend/services"
	"backend/storage"
)

var cronRunning int32

func CORSConfig() cors.Config {
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = []string{
		"http://localhost:3000",
		"http://localhost:8080",
	}
	corsConfig.AllowCredentials = true
	corsConfig.AllowHeaders = []string{
		"Content-Type", "Content-Length", "Accept-Encoding",
		"Accept", "Origin", "X-Requested-With", "Authorization", "User-Agent",
		"Cache-Control", "Referer",
		"Access-Control-Request-Method", "Access-Control-Request-Headers",
	}
	corsConfig.AllowMethods = []string{
		"GET", "POST", "PUT", "DELETE", "OPTIONS", "HEAD", "PATCH",
	}
	corsConfig.ExposeHeaders = []string{
		"Content-Length", "Authorization", "Content-Type", "Content-Disposition",
	}
	corsConfig.MaxAge = 12 * time.Hour
	return corsConfig
}

func main() {
	db := storage.InitDB()
	gormDB := storage.InitGormDB()

	rfpRepo := repository.NewRFPRepository(gormDB)
	vendorRepo := repository.NewVendorRepository(gormDB)
	proposalRepo := repository.NewProposalRepository(gormDB)

	aiService := services.NewAIService()
	emailService := services.NewEmailService()
	receiver := services.NewEmailReceiver(gormDB, aiService)
	poller := services.NewPoller(receiver)

	// Daily maintenance: purge expired sessions and close SENT RFPs
	// past their delivery deadline.
	c := cron.New(
		cron.WithLogger(cron.VerbosePrintfLogger(log.New(os.Stdout, "cron: ", log.LstdFlags))),
	)
	_, err := c.AddFunc("30 0 * * *", func() {
		if !atomic.CompareAndSwapInt32(&cronRunning, 0, 1) {
			log.Println("Previous maintenance run still active. Skipping this run.")
			return
		}
		defer atomic.StoreInt32(&cronRunning, 0)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
		defer cancel()

		if err := storage.CleanupExpiredSessions(db); err != nil {
			log.Printf("Session cleanup failed: %v", err)
		}
		if closed, err := rfpRepo.CloseExpired(ctx, time.Now()); err != nil {
			log.Printf("RFP expiry sweep failed: %v", err)
		} else if closed > 0 {
			log.Printf("Closed %d expired RFP(s)", closed)
		}
	})
	if err != nil {
		log.Fatalf("Failed to schedule maintenance cron job: %v", err)
	}
	c.Start()

	r := gin.Default()
	r.Use(cors.New(CORSConfig()))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// ==================== AUTH ====================
	r.POST("/api/login", handlers.LoginHandler(db))
	r.POST("/api/logout", handlers.LogoutHandler(db))
	r.POST("/api/register", handlers.RegisterHandler(db))

	// ==================== RFPS ====================
	r.POST("/api/rfps", handlers.CreateRFP(rfpRepo, aiService))
	r.GET("/api/rfps", handlers.GetRFPs(rfpRepo))
	r.GET("/api/rfps/:id", handlers.GetRFP(rfpRepo))
	r.POST("/api/rfps/:id/send", handlers.SendRFP(rfpRepo, vendorRepo, emailService))
	r.DELETE("/api/rfps/:id", handlers.DeleteRFP(rfpRepo))
	r.GET("/api/rfps/:id/qr", handlers.GetRFPQRCode(rfpRepo))
	r.GET("/api/rfps/:id/export", handlers.RequireSession(db), handlers.ExportComparisonExcel(rfpRepo, proposalRepo, vendorRepo, aiService))
	r.GET("/api/rfps/:id/export/pdf", handlers.RequireSession(db), handlers.ExportComparisonPDF(rfpRepo, proposalRepo, vendorRepo, aiService))

	// ==================== VENDORS ====================
	r.POST("/api/vendors", handlers.CreateVendor(vendorRepo))
	r.GET("/api/vendors", handlers.GetVendors(vendorRepo))
	r.GET("/api/vendors/:id", handlers.GetVendor(vendorRepo))
	r.PUT("/api/vendors/:id", handlers.UpdateVendor(vendorRepo))
	r.DELETE("/api/vendors/:id", handlers.DeleteVendor(vendorRepo))

	// ==================== PROPOSALS ====================
	r.GET("/api/proposals/all", handlers.GetAllProposals(proposalRepo, vendorRepo))
	r.GET("/api/proposals/rfp/:rfpId", handlers.GetProposalsByRFP(proposalRepo, vendorRepo))
	r.POST("/api/proposals", handlers.CreateProposal(proposalRepo, rfpRepo, aiService))
	r.POST("/api/proposals/compare/:rfpId", handlers.CompareProposals(proposalRepo, rfpRepo, aiService))

	// ==================== EMAIL ====================
	r.POST("/api/email/receive", handlers.ReceiveEmail(receiver))
	r.POST("/api/email/check", handlers.CheckEmails(receiver))
	r.POST("/api/email/start-polling", handlers.StartPolling(poller))
	r.POST("/api/email/stop-polling", handlers.StopPolling(poller))
	r.GET("/api/email/polling-status", handlers.PollingStatus(poller))

	port := os.Getenv("PORT")
	if port == "" {
		port = "5000"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		log.Printf("Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	poller.Stop()
	c.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}
	log.Println("Server exited")
}
