package main

import (
	"fmt"
	"log"
	"os"

	"github.com/your-org/pos-backend/internal/config"
	"github.com/your-org/pos-backend/internal/pkg/auth"
)

// Prints a bcrypt hash for seeding a staff account by hand, using the same
// cost and length policy as the API.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/generate_password.go <password>")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	passwords := auth.NewPasswordManager(cfg)
	password := os.Args[1]

	hash, err := passwords.HashPassword(password)
	if err != nil {
		log.Fatal("Error generating hash: ", err)
	}

	if err := passwords.VerifyPassword(password, hash); err != nil {
		log.Fatal("Hash verification failed: ", err)
	}

	fmt.Printf("Cost: %d\n", cfg.Security.BcryptCost)
	fmt.Printf("Hash: %s\n", hash)
}
