// Command tokengen mints a bearer token for a user account using the
// service's JWT settings. Intended for local development and smoke tests.
package main

import (
	"fmt"
	"os"
	"time"

	"expense-settlement/config"
	"expense-settlement/internal/service"

	"github.com/google/uuid"
	"github.com/spf13/pflag"
)

func main() {
	var (
		configPath = pflag.StringP("config", "c", "", "path to a config file")
		userFlag   = pflag.StringP("user", "u", "", "user ID to issue the token for (random when empty)")
		expiry     = pflag.Duration("expiry", 0, "override jwt.expiry")
	)
	pflag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	userID := uuid.New()
	if *userFlag != "" {
		if userID, err = uuid.Parse(*userFlag); err != nil {
			fmt.Fprintf(os.Stderr, "invalid --user: %v\n", err)
			os.Exit(2)
		}
	}

	ttl := cfg.JWT.Expiry
	if *expiry > 0 {
		ttl = *expiry
	}

	token, expiresAt, err := service.NewJWTTokenService(cfg.JWT.Secret, ttl, cfg.JWT.Issuer).Generate(userID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to sign token: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("user_id=%s\nexpires_at=%s\ntoken=%s\n", userID, expiresAt.UTC().Format(time.RFC3339), token)
}
