package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/vps-storefront/pkg/auth"
	"github.com/angelmondragon/vps-storefront/pkg/config"
	"github.com/angelmondragon/vps-storefront/pkg/logger"
)

func main() {
	subject := flag.String("subject", "", "operator identity recorded in the token subject")
	ttl := flag.Duration("ttl", 0, "token lifetime, defaults to VPS_ADMIN_TOKEN_TTL")
	flag.Parse()

	logg := logger.New(logger.Options{ServiceName: "admin-token", Output: os.Stderr})
	ctx := context.Background()

	if err := godotenv.Load(); err != nil {
		logg.Warn(ctx, ".env file not found, relying on environment")
	}

	cfg, err := config.LoadAdmin()
	if err != nil {
		logg.Error(ctx, "failed to load admin config", err)
		os.Exit(1)
	}
	if *ttl > 0 {
		cfg.TokenTTL = *ttl
	}

	token, err := auth.MintAdminToken(*cfg, time.Now().UTC(), *subject)
	if err != nil {
		logg.Error(ctx, "failed to mint admin token", err)
		os.Exit(1)
	}
	logg.Info(logg.WithFields(ctx, map[string]any{"subject": *subject, "ttl": cfg.TokenTTL.String()}), "admin token issued")
	fmt.Println(token)
}
