// Command devtoken prints an access token signed with JWT_SECRET, for
// calling the API locally without the identity provider.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/google/uuid"

	"github.com/utafrali/storefront/internal/auth"
	"github.com/utafrali/storefront/pkg/logger"
)

type tokenConfig struct {
	Secret string        `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`
	UserID string        `env:"DEVTOKEN_USER_ID"`
	Email  string        `env:"DEVTOKEN_EMAIL" envDefault:"dev@example.com"`
	Name   string        `env:"DEVTOKEN_NAME" envDefault:"Dev"`
	Role   string        `env:"DEVTOKEN_ROLE" envDefault:"customer"`
	TTL    time.Duration `env:"DEVTOKEN_TTL" envDefault:"1h"`
}

func main() {
	log := logger.New("storefront-devtoken", "info")

	var cfg tokenConfig
	if err := env.Parse(&cfg); err != nil {
		log.Error("failed to parse config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if cfg.UserID == "" {
		cfg.UserID = uuid.NewString()
	}

	token, err := auth.NewJWTManager(cfg.Secret, cfg.TTL).GenerateAccessToken(cfg.UserID, cfg.Email, cfg.Name, cfg.Role)
	if err != nil {
		log.Error("failed to sign token", slog.String("error", err.Error()))
		os.Exit(1)
	}
	fmt.Println(token)
}
