package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/kabeba2027/donations-backend/api/routes"
	"github.com/kabeba2027/donations-backend/internal/config"
	"github.com/kabeba2027/donations-backend/internal/handlers"
	"github.com/kabeba2027/donations-backend/internal/repositories"
	"github.com/kabeba2027/donations-backend/internal/repositories/memory"
	mongorepo "github.com/kabeba2027/donations-backend/internal/repositories/mongodb"
	"github.com/kabeba2027/donations-backend/internal/services"
	"github.com/kabeba2027/donations-backend/pkg/daraja"
	"github.com/kabeba2027/donations-backend/pkg/mongodb"
)

func main() {
	// A .env file is optional; deployments set real environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(level)
	}

	// Donation archive is optional; without MongoDB the registry alone
	// tracks transactions and admin history returns 503.
	var archive repositories.DonationArchive
	if cfg.MongoDB.Enabled {
		mongoClient, err := mongodb.NewClient(cfg.MongoDB.URI)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		defer func() {
			if err := mongoClient.Disconnect(context.Background()); err != nil {
				log.Errorf("Error disconnecting from MongoDB: %v", err)
			}
		}()
		archive = mongorepo.NewDonationRepository(mongoClient.Database(cfg.MongoDB.Database))
		log.Info("Donation archive enabled")
	}

	ttl := time.Duration(cfg.Registry.TTLMinutes) * time.Minute
	registry := memory.NewTransactionRegistry(ttl)
	registry.StartSweeper(time.Duration(cfg.Registry.SweepMinutes) * time.Minute)
	defer registry.Close()

	gateway := daraja.NewClient(
		cfg.Mpesa.BaseURL,
		cfg.Mpesa.Shortcode,
		cfg.Mpesa.Passkey,
		cfg.Mpesa.ConsumerKey,
		cfg.Mpesa.ConsumerSecret,
		cfg.Mpesa.CallbackURL,
	)

	paymentService := services.NewPaymentService(gateway, registry, archive, ttl, log)
	authService := services.NewAuthService(cfg)

	handlerDeps := routes.HandlerDependencies{
		PaymentHandler: handlers.NewPaymentHandler(paymentService, cfg.Mpesa.Environment, log),
		AuthHandler:    handlers.NewAuthHandler(authService),
		AdminHandler:   handlers.NewAdminHandler(paymentService),
	}

	router := routes.SetupRouter(cfg, handlerDeps)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	log.WithFields(logrus.Fields{
		"port":        cfg.Server.Port,
		"environment": cfg.Mpesa.Environment,
		"callbackUrl": cfg.Mpesa.CallbackURL,
	}).Info("Server starting")

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exiting")
}
