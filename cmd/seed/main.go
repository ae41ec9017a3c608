// Command seed fills an empty cars table with a small demo inventory so the
// storefront can be exercised locally. It does nothing when the table
// already has rows.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/hermannafesehbuma/khalifa-auto/internal/config"
	"github.com/hermannafesehbuma/khalifa-auto/internal/domain"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/database"
	"github.com/hermannafesehbuma/khalifa-auto/pkg/logger"
)

func demoInventory() []domain.Vehicle {
	car := func(brand, model string, year int, price string, mileage int, body, fuel, transmission, color string) domain.Vehicle {
		return domain.Vehicle{
			Brand:        brand,
			Model:        model,
			Year:         year,
			Price:        decimal.RequireFromString(price),
			Mileage:      mileage,
			BodyStyle:    body,
			Available:    true,
			Fuel:         fuel,
			Transmission: transmission,
			Color:        color,
			Images:       []string{fmt.Sprintf("https://images.khalifa-auto.com/demo/%d-%s-%s.jpg", year, brand, model)},
		}
	}

	return []domain.Vehicle{
		car("Toyota", "Camry", 2019, "18500.00", 42000, "sedan", "gasoline", "automatic", "silver"),
		car("Honda", "Accord", 2020, "21900.00", 31000, "sedan", "gasoline", "automatic", "black"),
		car("Ford", "F-150", 2018, "27500.50", 68000, "truck", "gasoline", "automatic", "blue"),
		car("Chevrolet", "Tahoe", 2017, "29995.00", 88000, "suv", "gasoline", "automatic", "white"),
		car("Nissan", "Rogue", 2021, "23450.00", 19000, "suv", "gasoline", "cvt", "red"),
		car("Tesla", "Model 3", 2021, "31800.00", 24000, "sedan", "electric", "automatic", "white"),
		car("Jeep", "Wrangler", 2016, "24990.00", 74000, "suv", "gasoline", "manual", "green"),
		car("Hyundai", "Elantra", 2022, "17250.00", 12000, "sedan", "gasoline", "automatic", "gray"),
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := logger.New("seed", cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	var existing int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM cars`).Scan(&existing); err != nil {
		return fmt.Errorf("count cars: %w", err)
	}
	if existing > 0 {
		log.Info("cars table already populated, nothing to do", slog.Int("count", existing))
		return nil
	}

	inventory := demoInventory()
	batch := &pgx.Batch{}
	for _, v := range inventory {
		batch.Queue(`INSERT INTO cars (brand, model, year, price, mileage, body_style, available,
			images, fuel_type, transmission, color, created_at, updated_at)
			VALUES ($1, $2, $3, $4::numeric, $5, $6, $7, $8, $9, $10, $11, now(), now())`,
			v.Brand, v.Model, v.Year, v.Price.String(), v.Mileage, v.BodyStyle, v.Available,
			v.Images, v.Fuel, v.Transmission, v.Color,
		)
	}
	if err := pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("insert cars: %w", err)
	}

	log.Info("seeded demo inventory", slog.Int("count", len(inventory)))
	return nil
}
