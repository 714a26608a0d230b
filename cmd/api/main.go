package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"storefront/handlers"
	"storefront/internal/auth"
	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/consul"
	"storefront/internal/downloads"
	"storefront/internal/orders"
	"storefront/internal/products"
	"storefront/internal/stores/kafka"
	"storefront/internal/stores/postgres"

	"github.com/joho/godotenv"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("service stopped", slog.String("Error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, relying on environment")
	}

	db, err := postgres.OpenDB()
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	if err := postgres.RunMigrations(db); err != nil {
		return err
	}

	keyFile := os.Getenv("AUTH_PUBLIC_KEY_FILE")
	if keyFile == "" {
		return fmt.Errorf("AUTH_PUBLIC_KEY_FILE is not set")
	}
	pem, err := os.ReadFile(keyFile)
	if err != nil {
		return fmt.Errorf("reading auth public key: %w", err)
	}
	keys, err := auth.ParsePublicKey(pem)
	if err != nil {
		return err
	}

	pConf, err := products.NewConf(db)
	if err != nil {
		return err
	}
	cConf, err := cart.NewConf(db, pConf)
	if err != nil {
		return err
	}
	oConf, err := orders.NewConf(db)
	if err != nil {
		return err
	}
	dConf, err := downloads.NewConf(db, pConf)
	if err != nil {
		return err
	}

	siteURL := os.Getenv("SITE_URL")
	var gateway checkout.Gateway
	if key := os.Getenv("STRIPE_TEST_KEY"); key != "" {
		gateway, err = checkout.NewStripeGateway(key, siteURL)
		if err != nil {
			return err
		}
		slog.Info("payment gateway: stripe")
	} else {
		gateway = checkout.NewMockGateway(siteURL)
		slog.Info("payment gateway: mock")
	}

	var kConf *kafka.Conf
	if seeds := os.Getenv("KAFKA_SEEDS"); seeds != "" {
		kConf, err = kafka.New(strings.Split(seeds, ","))
		if err != nil {
			return fmt.Errorf("connecting to kafka: %w", err)
		}
		defer kConf.Close()
	} else {
		slog.Warn("KAFKA_SEEDS not set, order events disabled")
	}

	prefix := os.Getenv("SERVICE_ENDPOINT_PREFIX")
	if prefix == "" {
		prefix = "/storefront"
	}
	api := handlers.API(prefix, keys, pConf, cConf, oConf, dConf, gateway, kConf)

	host := os.Getenv("SERVICE_HOST")
	if host == "" {
		host = "localhost"
	}
	port := 8080
	if raw := os.Getenv("SERVICE_PORT"); raw != "" {
		port, err = strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid SERVICE_PORT: %w", err)
		}
	}

	if os.Getenv("CONSUL_HTTP_ADDR") != "" {
		client, err := consul.NewClient()
		if err != nil {
			return err
		}
		regID, err := consul.RegisterService(client, "storefront", host, port)
		if err != nil {
			return err
		}
		defer func() {
			if err := consul.DeregisterService(client, regID); err != nil {
				slog.Error("consul deregistration failed", slog.String("Error", err.Error()))
			}
		}()
		slog.Info("registered with consul", slog.String("ID", regID))
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      api,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("storefront listening", slog.String("Addr", server.Addr))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}
