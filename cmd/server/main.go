package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cihat41/ReqPortal-sub000/internal/application/services"
	"github.com/cihat41/ReqPortal-sub000/internal/bootstrap"
	"github.com/cihat41/ReqPortal-sub000/internal/infrastructure/database"
	"github.com/cihat41/ReqPortal-sub000/internal/interfaces/middleware"
	"github.com/cihat41/ReqPortal-sub000/internal/interfaces/rest"
)

func main() {
	// Load .env if present; real deployments set the environment directly
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	svcMgr := services.NewServiceManager(db, monitorInterval(), os.Getenv("MONITOR_SCHEDULE"))
	log.Println("🔧 Service manager initialized")

	if err := bootstrap.InitializeSystemData(svcMgr); err != nil {
		log.Fatalf("Failed to initialize system data: %v", err)
	}

	// Escalation/SLA monitor runs for the life of the process
	go svcMgr.Monitor.Start()

	router := gin.Default()
	router.Use(middleware.Cors())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authHandler := rest.NewAuthHandler(svcMgr.Auth)
	requestHandler := rest.NewRequestHandler(svcMgr.Requests)
	approvalHandler := rest.NewApprovalHandler(svcMgr.Approvals)
	notificationHandler := rest.NewNotificationHandler(svcMgr.NotificationRepo)

	requireAuth := middleware.RequireAuth()

	api := router.Group("/api")
	{
		api.POST("/auth/login", authHandler.Login)

		requests := api.Group("/requests")
		requests.Use(requireAuth)
		{
			requests.POST("", requestHandler.Create)
			requests.GET("/:requestId", requestHandler.Get)
			requests.POST("/:requestId/submit", requestHandler.Submit)
			requests.GET("/:requestId/approvals", approvalHandler.GetHistory)
		}

		approvals := api.Group("/approvals")
		approvals.Use(requireAuth)
		{
			approvals.GET("/pending", approvalHandler.GetPending)
			approvals.POST("/:approvalId/approve", approvalHandler.Approve)
			approvals.POST("/:approvalId/reject", approvalHandler.Reject)
			approvals.POST("/:approvalId/return", approvalHandler.Return)
		}

		notifications := api.Group("/notifications")
		notifications.Use(requireAuth)
		{
			notifications.GET("", notificationHandler.List)
			notifications.POST("/:notificationId/read", notificationHandler.MarkRead)
		}
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 Server listening on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown on SIGINT/SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("⏳ Shutting down...")

	svcMgr.Monitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("❌ Forced shutdown: %v", err)
	}

	log.Println("👋 Server stopped")
}

func monitorInterval() time.Duration {
	raw := os.Getenv("MONITOR_INTERVAL_MINUTES")
	if raw == "" {
		return 0 // NewMonitorService substitutes the default
	}
	mins, err := strconv.Atoi(raw)
	if err != nil || mins <= 0 {
		log.Printf("⚠️ Invalid MONITOR_INTERVAL_MINUTES %q, using default", raw)
		return 0
	}
	return time.Duration(mins) * time.Minute
}
