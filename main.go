package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sidesa/config"
	"sidesa/rbac"
	"sidesa/region"
	"sidesa/repository"
	"sidesa/routes"
	"sidesa/schema"
	"sidesa/service"
	"sidesa/worker"

	_ "github.com/go-sql-driver/mysql"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("Warning: .env file not found, using environment variables")
	}

	cfg := config.LoadConfig()
	log.Printf("Auto-approval window: %v (sweep every %v)", cfg.Workflow.AutoApproveWindow, cfg.Workflow.SweepInterval)

	// Initialize database connection (UTC for consistent timestamps)
	dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true&charset=utf8mb4&loc=UTC",
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.DBName,
	)

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		log.Fatalf("Failed to open database connection: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatalf("Failed to ping database: %v", err)
	}
	log.Println("Database connection established")

	if err := schema.Init(context.Background(), db); err != nil {
		log.Fatalf("Schema initialization failed: %v", err)
	}

	// The permission matrix is built once here and injected everywhere;
	// nothing mutates it afterward.
	matrix := rbac.NewDefaultMatrix()

	// Repositories
	complaintRepo := repository.NewComplaintRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)

	// Services
	resolver := region.NewDirectoryResolver(db)
	notificationService := service.NewNotificationService(notificationRepo, nil)
	complaintService := service.NewComplaintService(complaintRepo, accountRepo, resolver, matrix)
	workflowService := service.NewWorkflowService(
		complaintRepo,
		resolver,
		matrix,
		notificationService,
		cfg.Workflow.AutoApproveWindow,
	)

	// Background workers
	autoApproveWorker := worker.NewAutoApproveWorker(workflowService, cfg.Workflow.SweepInterval)
	autoApproveWorker.Start()
	defer autoApproveWorker.Stop()

	notificationWorker := worker.NewNotificationWorker(notificationService)
	notificationWorker.Start()
	defer notificationWorker.Stop()

	router := routes.SetupRoutes(complaintService, workflowService, notificationService, matrix, cfg.Server.JWTSecret)

	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("Server listening on %s", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("Forced shutdown: %v", err)
	}
}
