// Command seed fills an empty storefront database with a deterministic
// sample catalog. Product IDs are derived from their index, so re-runs
// against a wiped database produce the same IDs.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/utafrali/storefront/internal/config"
	"github.com/utafrali/storefront/internal/domain"
	"github.com/utafrali/storefront/internal/repository/postgres"
	"github.com/utafrali/storefront/migrations"
	"github.com/utafrali/storefront/pkg/database"
	"github.com/utafrali/storefront/pkg/logger"
	"github.com/utafrali/storefront/pkg/slug"
)

type seedConfig struct {
	Products int    `env:"SEED_PRODUCTS" envDefault:"200"`
	Seed     uint64 `env:"SEED_RANDOM" envDefault:"42"`
}

var namespace = uuid.MustParse("6f1c8f0e-3b7a-4c55-9d2e-0c8a5b1f7e21")

var (
	adjectives = []string{"Classic", "Wireless", "Compact", "Ergonomic", "Premium", "Rugged", "Slim", "Vintage"}
	nouns      = []string{"Mouse", "Keyboard", "Headphones", "Backpack", "Desk Lamp", "Water Bottle", "Notebook", "Speaker", "Monitor Stand", "Camera"}
)

func main() {
	log := logger.New("storefront-seed", "info")
	if err := run(log); err != nil {
		log.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(log *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	var seed seedConfig
	if err := env.Parse(&seed); err != nil {
		return fmt.Errorf("parse seed config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	pgCfg := cfg.Postgres()
	pool, err := database.NewPostgresPool(ctx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := database.RunMigrations(ctx, pool, migrations.FS, log); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	repo := postgres.NewProductRepository(pool)
	existing, err := repo.Count(ctx, "")
	if err != nil {
		return fmt.Errorf("count products: %w", err)
	}
	if existing > 0 {
		log.Info("catalog already populated, nothing to do", slog.Int("products", existing))
		return nil
	}

	rng := rand.New(rand.NewPCG(seed.Seed, seed.Seed))
	now := time.Now().UTC()
	for i := range seed.Products {
		p := sampleProduct(i, rng, now)
		if err := repo.Create(ctx, p); err != nil {
			return fmt.Errorf("create product %d: %w", i, err)
		}
	}

	log.Info("catalog seeded", slog.Int("products", seed.Products))
	return nil
}

func sampleProduct(i int, rng *rand.Rand, now time.Time) *domain.Product {
	name := fmt.Sprintf("%s %s %d",
		adjectives[rng.IntN(len(adjectives))],
		nouns[rng.IntN(len(nouns))],
		i+1,
	)
	return &domain.Product{
		ID:           uuid.NewSHA1(namespace, []byte(fmt.Sprintf("product:%d", i))).String(),
		Name:         name,
		Slug:         slug.Generate(name),
		Description:  "Sample product for local development.",
		Image:        fmt.Sprintf("/images/sample-%d.jpg", i%12),
		Price:        decimal.New(int64(499+rng.IntN(20000)), -2),
		CountInStock: rng.IntN(40),
		Rating:       decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}
