package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"github.com/arnoldhere/RetailIQ-sub000/internal/api"
	"github.com/arnoldhere/RetailIQ-sub000/internal/auth"
	"github.com/arnoldhere/RetailIQ-sub000/internal/catalog"
	"github.com/arnoldhere/RetailIQ-sub000/internal/config"
	"github.com/arnoldhere/RetailIQ-sub000/internal/infrastructure/audit"
	"github.com/arnoldhere/RetailIQ-sub000/internal/infrastructure/cache"
	"github.com/arnoldhere/RetailIQ-sub000/internal/infrastructure/kafka"
	"github.com/arnoldhere/RetailIQ-sub000/internal/infrastructure/postgres"
	"github.com/arnoldhere/RetailIQ-sub000/internal/invoice"
	"github.com/arnoldhere/RetailIQ-sub000/internal/negotiation"
	"github.com/arnoldhere/RetailIQ-sub000/internal/notification"
	"github.com/arnoldhere/RetailIQ-sub000/internal/order"
	"github.com/arnoldhere/RetailIQ-sub000/internal/payment"
)

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := config.Load()
	if cfg.JWTSecret == "" {
		log.Fatal("[API] JWT_SECRET environment variable is required")
	}
	if len(cfg.JWTSecret) < 32 {
		log.Fatal("[API] JWT_SECRET must be at least 32 characters long")
	}
	if cfg.GatewayKeyID == "" || cfg.GatewayKeySecret == "" {
		log.Fatal("[API] GATEWAY_KEY_ID and GATEWAY_KEY_SECRET are required")
	}

	log.Println("[API] ========================================")
	log.Println("[API] RetailIQ - Order & Negotiation API")
	log.Println("[API] ========================================")
	log.Printf("[API] Kafka: %v", cfg.KafkaBrokers)
	log.Printf("[API] Topic: %s", cfg.KafkaTopic)
	log.Printf("[API] Gateway: %s", cfg.GatewayBaseURL)

	db, err := postgres.Connect(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("[API] Failed to connect to PostgreSQL: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(db); err != nil {
		log.Fatalf("[API] Migration failed: %v", err)
	}
	log.Println("[API] Connected to PostgreSQL")

	producer := kafka.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	defer producer.Close()

	// Catalog reads go through Redis when it is reachable.
	var products catalog.Repository = catalog.NewPostgresRepository(db)
	if rdb, err := cache.Connect(cfg.RedisAddr); err != nil {
		log.Printf("[API] Redis unavailable, serving catalog from PostgreSQL: %v", err)
	} else {
		defer rdb.Close()
		products = cache.NewCachedProductRepository(products, rdb)
		log.Println("[API] Connected to Redis")
	}

	// The audit trail is optional; without a table it is a no-op.
	var trail audit.Recorder = audit.Nop{}
	if cfg.AuditTable != "" {
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			log.Printf("[API] AWS config load failed, audit trail disabled: %v", err)
		} else {
			trail = audit.NewDynamoLog(dynamodb.NewFromConfig(awsCfg), cfg.AuditTable)
			log.Printf("[API] Audit trail: DynamoDB table %s", cfg.AuditTable)
		}
	}

	gateway := payment.NewClient(cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayBaseURL, cfg.GatewayCurrency)
	publisher := notification.NewPublisher(producer)

	negotiationSvc := negotiation.NewService(negotiation.NewPostgresRepository(db), publisher, trail)
	orderSvc := order.NewService(
		order.NewPostgresRepository(db),
		products,
		gateway,
		publisher,
		invoice.NewGenerator(db),
		trail,
	)

	jwtService := auth.NewJWTService(cfg.JWTSecret, 15*time.Minute)
	handlers := api.NewHandlers(negotiationSvc, orderSvc, products)
	router := api.NewRouter(handlers, jwtService)

	server := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: router,
	}

	go func() {
		log.Printf("[API] Server started on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != http.ErrServerClosed {
			log.Fatalf("[API] Server error: %v", err)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Println("[API] Shutting down...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("[API] Shutdown error: %v", err)
	}
}
