// Command devtoken prints a signed session token for local development.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/auth"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/config"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

func main() {
	userID := flag.String("user", "", "user id carried by the token")
	role := flag.String("role", string(models.RoleCustomer), "session role: customer or admin")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	tokens := auth.NewTokenService(cfg.Auth.SigningKey, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	token, err := tokens.Issue(*userID, models.Role(*role))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to issue token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
