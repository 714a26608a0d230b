// Seed resets the product and cart collections to the demo dataset. Run it
// against a development database only; it deletes everything first.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"storefront/internal/seed"
	"storefront/internal/stores/postgres"

	"github.com/joho/godotenv"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	if err := run(); err != nil {
		slog.Error("seeding failed", slog.String("Error", err.Error()))
		os.Exit(1)
	}
	slog.Info("seeding completed")
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

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return seed.Run(ctx, db)
}
